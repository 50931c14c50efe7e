package pbstore

import (
	"fmt"
	"log/slog"

	"github.com/pocketbase/pocketbase/core"

	"support-desk/internal/backend"
	"support-desk/internal/status"
	"support-desk/models"
)

// CheckStatusChange rejects any ticket update that moves status
// backwards.
func CheckStatusChange(original, updated *core.Record) error {
	from := models.TicketStatus(original.GetString("status"))
	to := models.TicketStatus(updated.GetString("status"))
	if !to.Valid() || !from.CanTransition(to) {
		return fmt.Errorf("ticket %s %s -> %s: %w", updated.Id, from, to, status.ErrInvalidTransition)
	}
	return nil
}

// CheckOpen rejects writes to the chat of a solved ticket.
func CheckOpen(ticket *core.Record) error {
	if ticket.GetString("status") == string(models.TicketSolved) {
		return fmt.Errorf("ticket %s: %w", ticket.Id, status.ErrTicketSolved)
	}
	return nil
}

// CheckRoleChange rejects any change of a user's role.
func CheckRoleChange(original, updated *core.Record) error {
	if original.GetString("role") != updated.GetString("role") {
		return fmt.Errorf("user %s: role is fixed: %w", updated.Id, status.ErrForbidden)
	}
	return nil
}

// ChangeEventFor describes a committed tickets or messages record.
func ChangeEventFor(app core.App, r *core.Record) (backend.ChangeEvent, error) {
	switch r.Collection().Name {
	case backend.CollectionTickets:
		return backend.ChangeEvent{
			Collection: backend.CollectionTickets,
			TicketID:   r.Id,
			CompanyID:  r.GetString("company"),
		}, nil
	case backend.CollectionMessages:
		ticketID := r.GetString("ticket")
		ticket, err := app.FindRecordById(backend.CollectionTickets, ticketID)
		if err != nil {
			return backend.ChangeEvent{}, notFound("ticket", ticketID, err)
		}
		return backend.ChangeEvent{
			Collection: backend.CollectionMessages,
			TicketID:   ticketID,
			CompanyID:  ticket.GetString("company"),
		}, nil
	default:
		return backend.ChangeEvent{}, fmt.Errorf("no change events for %s", r.Collection().Name)
	}
}

// RegisterHooks installs the record guards and forwards every committed
// ticket and message write to sink.
func RegisterHooks(app core.App, sink backend.ChangeSink) {
	app.OnRecordUpdate(backend.CollectionTickets).BindFunc(func(e *core.RecordEvent) error {
		if err := CheckStatusChange(e.Record.Original(), e.Record); err != nil {
			return err
		}
		return e.Next()
	})

	app.OnRecordUpdate(backend.CollectionUsers).BindFunc(func(e *core.RecordEvent) error {
		if err := CheckRoleChange(e.Record.Original(), e.Record); err != nil {
			return err
		}
		return e.Next()
	})

	app.OnRecordCreate(backend.CollectionMessages).BindFunc(func(e *core.RecordEvent) error {
		ticketID := e.Record.GetString("ticket")
		ticket, err := e.App.FindRecordById(backend.CollectionTickets, ticketID)
		if err != nil {
			return notFound("ticket", ticketID, err)
		}
		if err := CheckOpen(ticket); err != nil {
			return err
		}
		return e.Next()
	})

	// Self sign-up through the REST API always yields a company.
	app.OnRecordCreateRequest(backend.CollectionUsers).BindFunc(func(e *core.RecordRequestEvent) error {
		e.Record.Set("role", string(models.RoleCompany))
		return e.Next()
	})

	publish := func(e *core.RecordEvent) error {
		ev, err := ChangeEventFor(e.App, e.Record)
		if err != nil {
			e.App.Logger().Error("building change event", slog.String("record_id", e.Record.Id), slog.Any("error", err))
			return e.Next()
		}
		if err := sink.Publish(e.Context, ev); err != nil {
			e.App.Logger().Warn("publishing change event",
				slog.String("collection", ev.Collection),
				slog.String("ticket_id", ev.TicketID),
				slog.Any("error", err),
			)
		}
		return e.Next()
	}

	app.OnRecordAfterCreateSuccess(backend.CollectionTickets, backend.CollectionMessages).BindFunc(publish)
	app.OnRecordAfterUpdateSuccess(backend.CollectionTickets).BindFunc(publish)
}
