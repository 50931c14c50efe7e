// Package backend defines the contracts the support desk expects from
// its backend-as-a-service: document reads and writes, blob storage,
// auth, and change notification.
package backend

import (
	"context"

	"support-desk/models"
)

const (
	CollectionTickets  = "tickets"
	CollectionMessages = "messages"
	CollectionUsers    = "users"
	CollectionVoice    = "voice_clips"
)

// TicketQuery scopes a ticket read. An empty CompanyID selects every
// ticket.
type TicketQuery struct {
	CompanyID string
}

// ScopeFor returns the query an actor is allowed to run.
func ScopeFor(actor models.Actor) TicketQuery {
	if actor.IsAdmin() {
		return TicketQuery{}
	}
	return TicketQuery{CompanyID: actor.ID}
}

// Key identifies the query for subscription de-duplication.
func (q TicketQuery) Key() string {
	if q.CompanyID == "" {
		return "all"
	}
	return "company:" + q.CompanyID
}

type Store interface {
	ListTickets(ctx context.Context, q TicketQuery) ([]models.Ticket, error)
	GetTicket(ctx context.Context, id string) (models.Ticket, error)
	CreateTicket(ctx context.Context, t models.NewTicket) (models.Ticket, error)
	// MarkSolved moves an open ticket to solved. Solving a solved
	// ticket is a no-op.
	MarkSolved(ctx context.Context, id string) (models.Ticket, error)

	// ListMessages returns the messages of a ticket in creation order.
	ListMessages(ctx context.Context, ticketID string) ([]models.Message, error)
	CreateMessage(ctx context.Context, m models.NewMessage) (models.Message, error)
}

type BlobStore interface {
	// Upload stores data under name and returns a durable reference.
	Upload(ctx context.Context, name string, data []byte) (string, error)
	// URL resolves a reference returned by Upload to a fetchable URL.
	URL(ctx context.Context, ref string) (string, error)
}

type Auth interface {
	// SignUp registers a company actor.
	SignUp(ctx context.Context, email, password string, profile models.Profile) (models.Actor, error)
	// CreateAdmin registers an admin actor. Only reachable from
	// operator tooling.
	CreateAdmin(ctx context.Context, email, password string, profile models.Profile) (models.Actor, error)
	SignIn(ctx context.Context, email, password string) (models.Actor, error)
	UpdateProfile(ctx context.Context, actorID string, profile models.Profile) (models.Actor, error)
	Actor(ctx context.Context, id string) (models.Actor, error)
}

// ChangeEvent describes a committed write. CompanyID is the owning
// company of the affected ticket.
type ChangeEvent struct {
	Collection string `cbor:"1,keyasint" json:"collection"`
	TicketID   string `cbor:"2,keyasint" json:"ticket_id"`
	CompanyID  string `cbor:"3,keyasint" json:"company_id"`
}

// ChangeSink receives an event after every committed ticket or message
// write.
type ChangeSink interface {
	Publish(ctx context.Context, ev ChangeEvent) error
}

// ChangeSinkFunc adapts a function to ChangeSink.
type ChangeSinkFunc func(ctx context.Context, ev ChangeEvent) error

func (f ChangeSinkFunc) Publish(ctx context.Context, ev ChangeEvent) error {
	return f(ctx, ev)
}
