// Package memory is an in-process backend used by tests and by the
// console demo mode. Writes are visible immediately and reported to the
// configured change sink.
package memory

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/bwmarrin/snowflake"

	"support-desk/internal/backend"
	"support-desk/internal/clock"
	"support-desk/internal/status"
	"support-desk/models"
)

type user struct {
	actor        models.Actor
	passwordHash []byte
}

type Backend struct {
	mu       sync.RWMutex
	node     *snowflake.Node
	clock    clock.Clock
	sink     backend.ChangeSink
	tickets  map[string]models.Ticket
	messages map[string][]models.Message
	users    map[string]*user
	blobs    map[string][]byte
	baseURL  string
}

type Option func(*Backend)

func WithClock(c clock.Clock) Option {
	return func(b *Backend) { b.clock = c }
}

func WithChangeSink(sink backend.ChangeSink) Option {
	return func(b *Backend) { b.sink = sink }
}

func WithBaseURL(url string) Option {
	return func(b *Backend) { b.baseURL = strings.TrimRight(url, "/") }
}

func New(nodeID int64, opts ...Option) (*Backend, error) {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, fmt.Errorf("creating id node: %w", err)
	}

	b := &Backend{
		node:     node,
		clock:    clock.Real(),
		tickets:  make(map[string]models.Ticket),
		messages: make(map[string][]models.Message),
		users:    make(map[string]*user),
		blobs:    make(map[string][]byte),
		baseURL:  "memory://blobs",
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// SetChangeSink replaces the sink after construction, for wiring where
// the sink itself depends on the backend.
func (b *Backend) SetChangeSink(sink backend.ChangeSink) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sink = sink
}

func (b *Backend) newID() string {
	return b.node.Generate().String()
}

func (b *Backend) notify(ctx context.Context, ev backend.ChangeEvent) {
	b.mu.RLock()
	sink := b.sink
	b.mu.RUnlock()
	if sink == nil {
		return
	}
	if err := sink.Publish(ctx, ev); err != nil {
		slog.Error("memory: publishing change failed", "collection", ev.Collection, "ticket_id", ev.TicketID, "error", err)
	}
}

func (b *Backend) ListTickets(ctx context.Context, q backend.TicketQuery) ([]models.Ticket, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]models.Ticket, 0, len(b.tickets))
	for _, t := range b.tickets {
		if q.CompanyID != "" && t.CompanyID != q.CompanyID {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (b *Backend) GetTicket(ctx context.Context, id string) (models.Ticket, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	t, ok := b.tickets[id]
	if !ok {
		return models.Ticket{}, fmt.Errorf("ticket %s: %w", id, status.ErrNotFound)
	}
	return t, nil
}

func (b *Backend) CreateTicket(ctx context.Context, nt models.NewTicket) (models.Ticket, error) {
	b.mu.Lock()
	t := models.Ticket{
		ID:           b.newID(),
		CompanyID:    nt.CompanyID,
		Name:         nt.Name,
		Organization: nt.Organization,
		Problem:      nt.Problem,
		Status:       models.TicketOpen,
		CreatedAt:    b.clock.Now(),
	}
	b.tickets[t.ID] = t
	b.mu.Unlock()

	b.notify(ctx, backend.ChangeEvent{Collection: backend.CollectionTickets, TicketID: t.ID, CompanyID: t.CompanyID})
	return t, nil
}

func (b *Backend) MarkSolved(ctx context.Context, id string) (models.Ticket, error) {
	b.mu.Lock()
	t, ok := b.tickets[id]
	if !ok {
		b.mu.Unlock()
		return models.Ticket{}, fmt.Errorf("ticket %s: %w", id, status.ErrNotFound)
	}
	if t.Solved() {
		b.mu.Unlock()
		return t, nil
	}
	t.Status = models.TicketSolved
	b.tickets[id] = t
	b.mu.Unlock()

	b.notify(ctx, backend.ChangeEvent{Collection: backend.CollectionTickets, TicketID: t.ID, CompanyID: t.CompanyID})
	return t, nil
}

func (b *Backend) ListMessages(ctx context.Context, ticketID string) ([]models.Message, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	msgs := b.messages[ticketID]
	out := make([]models.Message, len(msgs))
	copy(out, msgs)
	return out, nil
}

func (b *Backend) CreateMessage(ctx context.Context, nm models.NewMessage) (models.Message, error) {
	b.mu.Lock()
	t, ok := b.tickets[nm.TicketID]
	if !ok {
		b.mu.Unlock()
		return models.Message{}, fmt.Errorf("ticket %s: %w", nm.TicketID, status.ErrNotFound)
	}
	m := models.Message{
		ID:        b.newID(),
		TicketID:  nm.TicketID,
		SenderID:  nm.SenderID,
		Body:      nm.Body,
		Kind:      nm.Kind,
		Checksum:  nm.Checksum,
		CreatedAt: b.clock.Now(),
	}
	b.messages[nm.TicketID] = append(b.messages[nm.TicketID], m)
	b.mu.Unlock()

	b.notify(ctx, backend.ChangeEvent{Collection: backend.CollectionMessages, TicketID: t.ID, CompanyID: t.CompanyID})
	return m, nil
}

func (b *Backend) Upload(ctx context.Context, name string, data []byte) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ref := b.newID() + "/" + name
	b.blobs[ref] = append([]byte(nil), data...)
	return ref, nil
}

func (b *Backend) URL(ctx context.Context, ref string) (string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if _, ok := b.blobs[ref]; !ok {
		return "", fmt.Errorf("blob %s: %w", ref, status.ErrNotFound)
	}
	return b.baseURL + "/" + ref, nil
}

// Blob returns the stored bytes for ref.
func (b *Backend) Blob(ref string) ([]byte, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	data, ok := b.blobs[ref]
	return data, ok
}
