package handlers

import (
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"support-desk/internal/services"
)

// RecordFinder returns the auth record of an email so that token
// responses can be issued for it.
type RecordFinder interface {
	Record(email string) (*core.Record, error)
}

type AuthHandler struct {
	authService *services.AuthService
	records     RecordFinder
}

func NewAuthHandler(authService *services.AuthService, records RecordFinder) *AuthHandler {
	return &AuthHandler{authService: authService, records: records}
}

// SignUp registers a company account and signs it in.
func (h *AuthHandler) SignUp(e *core.RequestEvent) error {
	var in services.SignUpInput
	if err := e.BindBody(&in); err != nil {
		return apis.NewBadRequestError("Invalid request body", err)
	}

	actor, err := h.authService.SignUp(e.Request.Context(), in)
	if err != nil {
		return apiError(err)
	}
	return h.respond(e, actor.Email)
}

// SignIn checks the credentials and returns a PocketBase auth response.
func (h *AuthHandler) SignIn(e *core.RequestEvent) error {
	var in services.SignInInput
	if err := e.BindBody(&in); err != nil {
		return apis.NewBadRequestError("Invalid request body", err)
	}

	actor, err := h.authService.SignIn(e.Request.Context(), in)
	if err != nil {
		return apiError(err)
	}
	return h.respond(e, actor.Email)
}

func (h *AuthHandler) respond(e *core.RequestEvent, email string) error {
	record, err := h.records.Record(email)
	if err != nil {
		return apiError(err)
	}
	return apis.RecordAuthResponse(e, record, "password", nil)
}
