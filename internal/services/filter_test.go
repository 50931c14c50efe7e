package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"support-desk/models"
)

func sampleTickets() []models.Ticket {
	return []models.Ticket{
		{ID: "1", Name: "Sara", Organization: "ACME Corp", Problem: "printer jam", Status: models.TicketOpen, CreatedAt: epoch},
		{ID: "2", Name: "Hank", Organization: "Globex", Problem: "VPN drops", Status: models.TicketSolved, CreatedAt: epoch.Add(time.Hour)},
		{ID: "3", Name: "Acme Intern", Organization: "Initech", Problem: "stapler", Status: models.TicketOpen, CreatedAt: epoch.Add(2 * time.Hour)},
		{ID: "4", Name: "Lea", Organization: "Umbrella", Problem: "acme widget broke", Status: models.TicketSolved, CreatedAt: epoch.Add(2 * time.Hour)},
	}
}

func ids(tickets []models.Ticket) []string {
	out := make([]string, 0, len(tickets))
	for _, t := range tickets {
		out = append(out, t.ID)
	}
	return out
}

func TestFilterTickets(t *testing.T) {
	tests := []struct {
		name   string
		filter TicketFilter
		want   []string
	}{
		{"no filter sorts newest first with id tie-break", TicketFilter{}, []string{"4", "3", "2", "1"}},
		{"open only", TicketFilter{OpenOnly: true}, []string{"3", "1"}},
		{"search matches any field case-insensitively", TicketFilter{Query: "acme"}, []string{"4", "3", "1"}},
		{"search surrounding spaces ignored", TicketFilter{Query: "  GLOBEX "}, []string{"2"}},
		{"search and open only", TicketFilter{Query: "acme", OpenOnly: true}, []string{"3", "1"}},
		{"no match", TicketFilter{Query: "mainframe"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(FilterTickets(sampleTickets(), tt.filter)))
		})
	}
}

func TestFilterTickets_OrderOfFiltersDoesNotMatter(t *testing.T) {
	tickets := sampleTickets()

	openThenSearch := FilterTickets(FilterTickets(tickets, TicketFilter{OpenOnly: true}), TicketFilter{Query: "acme"})
	searchThenOpen := FilterTickets(FilterTickets(tickets, TicketFilter{Query: "acme"}), TicketFilter{OpenOnly: true})

	assert.Equal(t, ids(openThenSearch), ids(searchThenOpen))
}

func TestFilterTickets_DoesNotModifyInput(t *testing.T) {
	tickets := sampleTickets()
	FilterTickets(tickets, TicketFilter{})
	assert.Equal(t, []string{"1", "2", "3", "4"}, ids(tickets))
}

func TestSortOldestFirst(t *testing.T) {
	msgs := []models.Message{
		{ID: "b", CreatedAt: epoch.Add(time.Second)},
		{ID: "a", CreatedAt: epoch},
		{ID: "c", CreatedAt: epoch.Add(time.Second)},
	}
	SortOldestFirst(msgs)

	for i := 1; i < len(msgs); i++ {
		assert.False(t, msgs[i].CreatedAt.Before(msgs[i-1].CreatedAt))
	}
	assert.Equal(t, "a", msgs[0].ID)
	assert.Equal(t, "b", msgs[1].ID, "equal timestamps keep arrival order")
}
