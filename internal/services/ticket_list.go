package services

import (
	"slices"
	"sync"
	"time"

	"support-desk/internal/clock"
	"support-desk/models"
)

// SearchDebounce is how long the list waits after the last keystroke
// before applying a search term.
const SearchDebounce = 300 * time.Millisecond

// TicketList holds the tickets visible to one actor and the filters the
// actor applied to them. Snapshots arrive from a realtime subscription
// and fully replace the previous set.
type TicketList struct {
	actor    models.Actor
	clock    clock.Clock
	debounce time.Duration
	onChange func([]models.Ticket)

	mu       sync.Mutex
	all      []models.Ticket
	filter   TicketFilter
	typed    string
	pending  clock.Timer
	visible  []models.Ticket
	received bool
}

type TicketListOption func(*TicketList)

func WithDebounce(d time.Duration) TicketListOption {
	return func(l *TicketList) { l.debounce = d }
}

// OnChange registers fn to receive the visible list after every change.
// fn is called without the list locked.
func OnChange(fn func([]models.Ticket)) TicketListOption {
	return func(l *TicketList) { l.onChange = fn }
}

func NewTicketList(actor models.Actor, clk clock.Clock, opts ...TicketListOption) *TicketList {
	l := &TicketList{
		actor:    actor,
		clock:    clk,
		debounce: SearchDebounce,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// SetSnapshot replaces the ticket set. Tickets outside the actor's scope
// are dropped.
func (l *TicketList) SetSnapshot(tickets []models.Ticket) {
	scoped := make([]models.Ticket, 0, len(tickets))
	for _, t := range tickets {
		if l.actor.CanSee(t) {
			scoped = append(scoped, t)
		}
	}

	l.mu.Lock()
	l.all = scoped
	l.received = true
	l.mu.Unlock()
	l.recompute()
}

func (l *TicketList) SetOpenOnly(open bool) {
	l.mu.Lock()
	if l.filter.OpenOnly == open {
		l.mu.Unlock()
		return
	}
	l.filter.OpenOnly = open
	l.mu.Unlock()
	l.recompute()
}

// SetSearch records a search term. It takes effect once no further term
// arrives within the debounce window.
func (l *TicketList) SetSearch(term string) {
	l.mu.Lock()
	l.typed = term
	if l.pending != nil {
		l.pending.Stop()
		l.pending = nil
	}
	l.mu.Unlock()

	timer := l.clock.AfterFunc(l.debounce, func() {
		l.mu.Lock()
		if l.typed != term {
			l.mu.Unlock()
			return
		}
		l.filter.Query = term
		l.pending = nil
		l.mu.Unlock()
		l.recompute()
	})

	l.mu.Lock()
	if l.typed == term && l.filter.Query != term {
		l.pending = timer
	}
	l.mu.Unlock()
}

func (l *TicketList) recompute() {
	l.mu.Lock()
	visible := FilterTickets(l.all, l.filter)
	l.visible = visible
	onChange := l.onChange
	l.mu.Unlock()

	if onChange != nil {
		onChange(slices.Clone(visible))
	}
}

// Visible returns the filtered, sorted tickets.
func (l *TicketList) Visible() []models.Ticket {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.visible)
}

// Find returns a ticket from the unfiltered set.
func (l *TicketList) Find(id string) (models.Ticket, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, t := range l.all {
		if t.ID == id {
			return t, true
		}
	}
	return models.Ticket{}, false
}

func (l *TicketList) Filter() TicketFilter {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.filter
}

// Typed returns the search term as typed, which may not be applied yet.
func (l *TicketList) Typed() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.typed
}

// Loaded reports whether the first snapshot arrived.
func (l *TicketList) Loaded() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.received
}

// Close cancels a pending search.
func (l *TicketList) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.pending != nil {
		l.pending.Stop()
		l.pending = nil
	}
}
