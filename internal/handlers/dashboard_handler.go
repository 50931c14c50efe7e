package handlers

import (
	"net/http"

	"github.com/pocketbase/pocketbase/core"

	"support-desk/internal/services"
	"support-desk/models"
)

type DashboardHandler struct {
	ticketService *services.TicketService
	actor         ActorFunc
}

func NewDashboardHandler(ticketService *services.TicketService, actor ActorFunc) *DashboardHandler {
	return &DashboardHandler{ticketService: ticketService, actor: actor}
}

// Root sends visitors to the dashboard.
func (h *DashboardHandler) Root(e *core.RequestEvent) error {
	return e.Redirect(http.StatusTemporaryRedirect, "/dashboard")
}

// Dashboard returns the admin or company view depending on the role.
func (h *DashboardHandler) Dashboard(e *core.RequestEvent) error {
	actor, err := h.actor(e)
	if err != nil {
		return apiError(err)
	}

	tickets, err := h.ticketService.List(e.Request.Context(), actor, services.TicketFilter{})
	if err != nil {
		return apiError(err)
	}

	open := countOpen(tickets)
	data := map[string]any{
		"actor":   actor,
		"tickets": tickets,
		"open":    open,
		"solved":  len(tickets) - open,
	}
	if actor.IsAdmin() {
		data["view"] = "admin"
	} else {
		data["view"] = "company"
		data["prefill"] = services.Prefill(actor)
	}
	return e.JSON(http.StatusOK, data)
}

func countOpen(tickets []models.Ticket) int {
	n := 0
	for _, t := range tickets {
		if !t.Solved() {
			n++
		}
	}
	return n
}
