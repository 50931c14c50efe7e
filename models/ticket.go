package models

import (
	"time"
)

type TicketStatus string

const (
	TicketOpen   TicketStatus = "open"
	TicketSolved TicketStatus = "solved"
)

// CanTransition reports whether a ticket may move from s to next.
// Status only moves forward: there is no path from solved back to open.
func (s TicketStatus) CanTransition(next TicketStatus) bool {
	if s == next {
		return true
	}
	return s == TicketOpen && next == TicketSolved
}

func (s TicketStatus) Valid() bool {
	return s == TicketOpen || s == TicketSolved
}

type Ticket struct {
	ID           string       `json:"id"`
	CompanyID    string       `json:"company_id"`
	Name         string       `json:"name"`
	Organization string       `json:"organization"`
	Problem      string       `json:"problem"`
	Status       TicketStatus `json:"status"` // open, solved
	CreatedAt    time.Time    `json:"created_at"`
}

func (t Ticket) Solved() bool {
	return t.Status == TicketSolved
}

// NewTicket carries the fields a company submits; id, status and
// creation time are assigned by the backend.
type NewTicket struct {
	CompanyID    string `json:"company_id"`
	Name         string `json:"name"`
	Organization string `json:"organization"`
	Problem      string `json:"problem"`
}
