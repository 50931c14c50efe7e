package services

import (
	"slices"
	"strings"

	"support-desk/models"
)

// TicketFilter narrows a ticket set. Query is matched case-insensitively
// as a substring of name, organization or problem; any field may match.
type TicketFilter struct {
	OpenOnly bool
	Query    string
}

// FilterTickets applies f and returns the result newest first. Tickets
// created at the same instant are ordered by descending id. The input
// slice is not modified.
func FilterTickets(tickets []models.Ticket, f TicketFilter) []models.Ticket {
	query := strings.ToLower(strings.TrimSpace(f.Query))

	out := make([]models.Ticket, 0, len(tickets))
	for _, t := range tickets {
		if f.OpenOnly && t.Status != models.TicketOpen {
			continue
		}
		if query != "" && !matches(t, query) {
			continue
		}
		out = append(out, t)
	}
	SortNewestFirst(out)
	return out
}

func matches(t models.Ticket, query string) bool {
	for _, field := range []string{t.Name, t.Organization, t.Problem} {
		if strings.Contains(strings.ToLower(field), query) {
			return true
		}
	}
	return false
}

func SortNewestFirst(tickets []models.Ticket) {
	slices.SortStableFunc(tickets, func(a, b models.Ticket) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(b.ID, a.ID)
	})
}

// SortOldestFirst orders messages for display.
func SortOldestFirst(messages []models.Message) {
	slices.SortStableFunc(messages, func(a, b models.Message) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
}
