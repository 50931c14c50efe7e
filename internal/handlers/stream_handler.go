package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/pocketbase/pocketbase/core"

	"support-desk/internal/backend"
	"support-desk/internal/realtime"
	"support-desk/internal/services"
	"support-desk/models"
)

// StreamHandler serves hub snapshots as server-sent events. Every event
// carries the full current list.
type StreamHandler struct {
	store         backend.Store
	tickets       *realtime.Hub[models.Ticket]
	messages      *realtime.Hub[models.Message]
	ticketService *services.TicketService
	actor         ActorFunc
	logger        *slog.Logger
}

func NewStreamHandler(
	store backend.Store,
	tickets *realtime.Hub[models.Ticket],
	messages *realtime.Hub[models.Message],
	ticketService *services.TicketService,
	actor ActorFunc,
	logger *slog.Logger,
) *StreamHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &StreamHandler{
		store:         store,
		tickets:       tickets,
		messages:      messages,
		ticketService: ticketService,
		actor:         actor,
		logger:        logger,
	}
}

// StreamTickets pushes the actor's filtered ticket list on every change.
func (h *StreamHandler) StreamTickets(e *core.RequestEvent) error {
	actor, err := h.actor(e)
	if err != nil {
		return apiError(err)
	}

	filter := filterFromQuery(e)
	scope := backend.ScopeFor(actor)
	updates := make(chan []models.Ticket, 1)

	sub, err := h.tickets.Subscribe(e.Request.Context(), scope.Key(), func(ctx context.Context) ([]models.Ticket, error) {
		return h.store.ListTickets(ctx, scope)
	}, func(snapshot []models.Ticket) {
		visible := snapshot[:0:0]
		for _, t := range snapshot {
			if actor.CanSee(t) {
				visible = append(visible, t)
			}
		}
		latest(updates, services.FilterTickets(visible, filter))
	})
	if err != nil {
		return apiError(err)
	}
	defer sub.Close()

	return serve(e, h.logger, "tickets", updates)
}

// StreamMessages pushes the chat of one ticket on every change.
func (h *StreamHandler) StreamMessages(e *core.RequestEvent) error {
	actor, err := h.actor(e)
	if err != nil {
		return apiError(err)
	}

	ticketID := e.Request.PathValue("id")
	if _, err := h.ticketService.Get(e.Request.Context(), actor, ticketID); err != nil {
		return apiError(err)
	}

	updates := make(chan []models.Message, 1)
	sub, err := h.messages.Subscribe(e.Request.Context(), ticketID, func(ctx context.Context) ([]models.Message, error) {
		msgs, err := h.store.ListMessages(ctx, ticketID)
		if err != nil {
			return nil, err
		}
		services.SortOldestFirst(msgs)
		return msgs, nil
	}, func(snapshot []models.Message) {
		latest(updates, snapshot)
	})
	if err != nil {
		return apiError(err)
	}
	defer sub.Close()

	return serve(e, h.logger, "messages", updates)
}

// serve writes every snapshot from updates as an SSE event until the
// client goes away.
func serve[T any](e *core.RequestEvent, logger *slog.Logger, event string, updates <-chan []T) error {
	header := e.Response.Header()
	header.Set("Content-Type", "text/event-stream")
	header.Set("Cache-Control", "no-cache")
	header.Set("Connection", "keep-alive")
	header.Set("X-Accel-Buffering", "no")
	e.Response.WriteHeader(http.StatusOK)

	ctx := e.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case items := <-updates:
			err := writeEvent(e.Response, event, items)
			if err == nil {
				err = e.Flush()
			}
			if err != nil {
				logger.Debug("stream closed", "event", event, "error", err)
				return nil
			}
		}
	}
}

// latest replaces any undelivered snapshot with v. Only one goroutine
// sends on ch, so the send never blocks.
func latest[T any](ch chan []T, v []T) {
	select {
	case <-ch:
	default:
	}
	ch <- v
}

func writeEvent(w io.Writer, event string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encoding %s event: %w", event, err)
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload)
	return err
}
