package handlers

import (
	"net/http"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"support-desk/internal/services"
	"support-desk/models"
)

type ProfileHandler struct {
	authService *services.AuthService
	actor       ActorFunc
}

func NewProfileHandler(authService *services.AuthService, actor ActorFunc) *ProfileHandler {
	return &ProfileHandler{authService: authService, actor: actor}
}

func (h *ProfileHandler) GetProfile(e *core.RequestEvent) error {
	actor, err := h.actor(e)
	if err != nil {
		return apiError(err)
	}
	return e.JSON(http.StatusOK, actor)
}

// profilePatch leaves fields that are absent from the body unchanged.
type profilePatch struct {
	Name         *string `json:"name"`
	Organization *string `json:"organization"`
	DarkMode     *bool   `json:"dark_mode"`
}

func (p profilePatch) apply(current models.Profile) models.Profile {
	if p.Name != nil {
		current.Name = *p.Name
	}
	if p.Organization != nil {
		current.Organization = *p.Organization
	}
	if p.DarkMode != nil {
		current.DarkMode = *p.DarkMode
	}
	return current
}

func (h *ProfileHandler) UpdateProfile(e *core.RequestEvent) error {
	actor, err := h.actor(e)
	if err != nil {
		return apiError(err)
	}

	var patch profilePatch
	if err := e.BindBody(&patch); err != nil {
		return apis.NewBadRequestError("Invalid request body", err)
	}

	updated, err := h.authService.UpdateProfile(e.Request.Context(), actor.ID, patch.apply(actor.Profile()))
	if err != nil {
		return apiError(err)
	}
	return e.JSON(http.StatusOK, updated)
}
