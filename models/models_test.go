package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTicketStatus_CanTransition(t *testing.T) {
	assert.True(t, TicketOpen.CanTransition(TicketSolved))
	assert.True(t, TicketOpen.CanTransition(TicketOpen))
	assert.True(t, TicketSolved.CanTransition(TicketSolved))

	// solved is terminal
	assert.False(t, TicketSolved.CanTransition(TicketOpen))
	assert.False(t, TicketOpen.CanTransition(TicketStatus("pending")))
}

func TestTicketStatus_Valid(t *testing.T) {
	assert.True(t, TicketOpen.Valid())
	assert.True(t, TicketSolved.Valid())
	assert.False(t, TicketStatus("").Valid())
	assert.False(t, TicketStatus("closed").Valid())
}

func TestActor_CanSee(t *testing.T) {
	ticket := Ticket{
		ID:        "T1",
		CompanyID: "company-1",
		Problem:   "printer jam",
		Status:    TicketOpen,
		CreatedAt: time.Now(),
	}

	admin := Actor{ID: "admin-1", Role: RoleAdmin}
	owner := Actor{ID: "company-1", Role: RoleCompany}
	other := Actor{ID: "company-2", Role: RoleCompany}
	unknown := Actor{ID: "company-1"}

	assert.True(t, admin.CanSee(ticket))
	assert.True(t, owner.CanSee(ticket))
	assert.False(t, other.CanSee(ticket))
	assert.False(t, unknown.CanSee(ticket), "an actor without a role sees nothing")

	assert.True(t, admin.IsParticipant(ticket))
	assert.True(t, owner.IsParticipant(ticket))
	assert.False(t, other.IsParticipant(ticket))
}

func TestActor_Profile(t *testing.T) {
	actor := Actor{ID: "u1", Email: "a@b.c", Role: RoleCompany, Name: "Sara", Organization: "ACME Corp", DarkMode: true}

	assert.Equal(t, Profile{Name: "Sara", Organization: "ACME Corp", DarkMode: true}, actor.Profile())
	assert.False(t, actor.IsAdmin())
}

func TestTicket_Solved(t *testing.T) {
	assert.False(t, Ticket{Status: TicketOpen}.Solved())
	assert.True(t, Ticket{Status: TicketSolved}.Solved())
}
