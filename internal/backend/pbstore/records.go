package pbstore

import (
	"github.com/pocketbase/pocketbase/core"

	"support-desk/models"
)

func TicketFromRecord(r *core.Record) models.Ticket {
	return models.Ticket{
		ID:           r.Id,
		CompanyID:    r.GetString("company"),
		Name:         r.GetString("name"),
		Organization: r.GetString("organization"),
		Problem:      r.GetString("problem"),
		Status:       models.TicketStatus(r.GetString("status")),
		CreatedAt:    r.GetDateTime("created").Time(),
	}
}

func MessageFromRecord(r *core.Record) models.Message {
	return models.Message{
		ID:        r.Id,
		TicketID:  r.GetString("ticket"),
		SenderID:  r.GetString("sender"),
		Body:      r.GetString("body"),
		Kind:      models.MessageKind(r.GetString("kind")),
		Checksum:  r.GetString("checksum"),
		CreatedAt: r.GetDateTime("created").Time(),
	}
}

func ActorFromRecord(r *core.Record) models.Actor {
	return models.Actor{
		ID:           r.Id,
		Email:        r.Email(),
		Role:         models.Role(r.GetString("role")),
		Name:         r.GetString("name"),
		Organization: r.GetString("organization"),
		DarkMode:     r.GetBool("dark_mode"),
	}
}

func recordsTo[T any](records []*core.Record, convert func(*core.Record) T) []T {
	out := make([]T, 0, len(records))
	for _, r := range records {
		out = append(out, convert(r))
	}
	return out
}
