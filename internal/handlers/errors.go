package handlers

import (
	"errors"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/router"

	"support-desk/internal/backend/pbstore"
	"support-desk/internal/status"
	"support-desk/models"
)

// apiError maps service errors to PocketBase API errors. Unknown errors
// become a generic 400 without leaking the cause.
func apiError(err error) *router.ApiError {
	var apiErr *router.ApiError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	switch {
	case errors.Is(err, status.ErrInvalidInput):
		var verrs validation.Errors
		if errors.As(err, &verrs) {
			return apis.NewBadRequestError("Invalid input.", verrs)
		}
		return apis.NewBadRequestError("Invalid input.", nil)
	case errors.Is(err, status.ErrEmptyDraft), errors.Is(err, status.ErrEmptyRecording):
		return apis.NewBadRequestError("Message is empty.", nil)
	case errors.Is(err, status.ErrEmailTaken):
		return apis.NewBadRequestError("Email is already registered.", nil)
	case errors.Is(err, status.ErrInvalidCredentials):
		return apis.NewBadRequestError("Invalid email or password.", nil)
	case errors.Is(err, status.ErrUnauthenticated):
		return apis.NewUnauthorizedError("Sign in required.", nil)
	case errors.Is(err, status.ErrForbidden):
		return apis.NewForbiddenError("You are not allowed to do that.", nil)
	case errors.Is(err, status.ErrNotFound):
		return apis.NewNotFoundError("Not found.", nil)
	case errors.Is(err, status.ErrTicketSolved), errors.Is(err, status.ErrInvalidTransition):
		return apis.NewApiError(http.StatusConflict, "Ticket is solved.", nil)
	case errors.Is(err, status.ErrRateLimited):
		return apis.NewTooManyRequestsError("Rate limit exceeded. Please try again later.", nil)
	default:
		return apis.NewBadRequestError("Something went wrong while processing your request.", nil)
	}
}

// ActorFunc resolves the signed-in actor of a request.
type ActorFunc func(e *core.RequestEvent) (models.Actor, error)

// AuthActor reads the actor from the request's auth record.
func AuthActor(e *core.RequestEvent) (models.Actor, error) {
	if e.Auth == nil {
		return models.Actor{}, status.ErrUnauthenticated
	}
	return pbstore.ActorFromRecord(e.Auth), nil
}
