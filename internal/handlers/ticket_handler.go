package handlers

import (
	"net/http"
	"strconv"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"support-desk/internal/services"
)

type TicketHandler struct {
	ticketService *services.TicketService
	actor         ActorFunc
}

func NewTicketHandler(ticketService *services.TicketService, actor ActorFunc) *TicketHandler {
	return &TicketHandler{ticketService: ticketService, actor: actor}
}

// filterFromQuery reads ?open= and ?q=. Malformed booleans count as false.
func filterFromQuery(e *core.RequestEvent) services.TicketFilter {
	q := e.Request.URL.Query()
	open, _ := strconv.ParseBool(q.Get("open"))
	return services.TicketFilter{OpenOnly: open, Query: q.Get("q")}
}

// ListTickets returns the visible tickets, newest first.
func (h *TicketHandler) ListTickets(e *core.RequestEvent) error {
	actor, err := h.actor(e)
	if err != nil {
		return apiError(err)
	}

	tickets, err := h.ticketService.List(e.Request.Context(), actor, filterFromQuery(e))
	if err != nil {
		return apiError(err)
	}
	return e.JSON(http.StatusOK, map[string]any{
		"items": tickets,
		"total": len(tickets),
	})
}

func (h *TicketHandler) GetTicket(e *core.RequestEvent) error {
	actor, err := h.actor(e)
	if err != nil {
		return apiError(err)
	}

	ticket, err := h.ticketService.Get(e.Request.Context(), actor, e.Request.PathValue("id"))
	if err != nil {
		return apiError(err)
	}
	return e.JSON(http.StatusOK, ticket)
}

// CreateTicket opens a ticket for the signed-in company. Empty name and
// organization fall back to the profile.
func (h *TicketHandler) CreateTicket(e *core.RequestEvent) error {
	actor, err := h.actor(e)
	if err != nil {
		return apiError(err)
	}

	var in services.TicketInput
	if err := e.BindBody(&in); err != nil {
		return apis.NewBadRequestError("Invalid request body", err)
	}

	ticket, err := h.ticketService.Create(e.Request.Context(), actor, in)
	if err != nil {
		return apiError(err)
	}
	return e.JSON(http.StatusCreated, ticket)
}

// MarkSolved closes a ticket. Admin only.
func (h *TicketHandler) MarkSolved(e *core.RequestEvent) error {
	actor, err := h.actor(e)
	if err != nil {
		return apiError(err)
	}

	ticket, err := h.ticketService.MarkSolved(e.Request.Context(), actor, e.Request.PathValue("id"))
	if err != nil {
		return apiError(err)
	}
	return e.JSON(http.StatusOK, ticket)
}
