package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"support-desk/internal/backend/memory"
	"support-desk/internal/clock"
	"support-desk/models"
)

var epoch = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

type env struct {
	store    *memory.Backend
	clock    *clock.FakeClock
	tickets  *TicketService
	messages *MessageService
	auth     *AuthService
	company  models.Actor
	other    models.Actor
	admin    models.Actor
}

func newEnv(t *testing.T) *env {
	t.Helper()
	fc := clock.Fake(epoch)
	store, err := memory.New(1, memory.WithClock(fc), memory.WithBaseURL("https://files.test"))
	require.NoError(t, err)

	e := &env{
		store:    store,
		clock:    fc,
		tickets:  NewTicketService(store, nil),
		messages: NewMessageService(store, store, nil),
		auth:     NewAuthService(store, nil),
	}

	ctx := context.Background()
	e.company, err = e.auth.SignUp(ctx, SignUpInput{Email: "ops@acme.test", Password: "s3cret-pass", Name: "Sara", Organization: "ACME Corp"})
	require.NoError(t, err)
	e.other, err = e.auth.SignUp(ctx, SignUpInput{Email: "it@globex.test", Password: "s3cret-pass", Name: "Hank", Organization: "Globex"})
	require.NoError(t, err)
	e.admin, err = e.auth.CreateAdmin(ctx, SignUpInput{Email: "root@desk.test", Password: "admin-pass", Name: "Root", Organization: "Support"})
	require.NoError(t, err)
	return e
}

func (e *env) ticket(t *testing.T, owner models.Actor, problem string) models.Ticket {
	t.Helper()
	e.clock.Advance(time.Minute)
	tk, err := e.tickets.Create(context.Background(), owner, TicketInput{Problem: problem})
	require.NoError(t, err)
	return tk
}
