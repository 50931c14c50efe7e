package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"support-desk/internal/backend"
	"support-desk/internal/clock"
	"support-desk/internal/status"
	"support-desk/models"
)

func newTestBackend(t *testing.T, events *[]backend.ChangeEvent) (*Backend, *clock.FakeClock) {
	t.Helper()
	fake := clock.Fake(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	b, err := New(1,
		WithClock(fake),
		WithBaseURL("https://files.test/"),
		WithChangeSink(backend.ChangeSinkFunc(func(ctx context.Context, ev backend.ChangeEvent) error {
			if events != nil {
				*events = append(*events, ev)
			}
			return nil
		})),
	)
	require.NoError(t, err)
	return b, fake
}

func TestBackend_TicketLifecycle(t *testing.T) {
	var events []backend.ChangeEvent
	b, fake := newTestBackend(t, &events)
	ctx := context.Background()

	created, err := b.CreateTicket(ctx, models.NewTicket{
		CompanyID:    "c1",
		Name:         "Sara",
		Organization: "ACME Corp",
		Problem:      "printer jam",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, models.TicketOpen, created.Status)
	assert.Equal(t, fake.Now(), created.CreatedAt)

	solved, err := b.MarkSolved(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TicketSolved, solved.Status)

	again, err := b.MarkSolved(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TicketSolved, again.Status)

	require.Len(t, events, 2, "solving an already solved ticket is not a change")
	assert.Equal(t, backend.ChangeEvent{Collection: backend.CollectionTickets, TicketID: created.ID, CompanyID: "c1"}, events[0])

	_, err = b.MarkSolved(ctx, "missing")
	assert.ErrorIs(t, err, status.ErrNotFound)
}

func TestBackend_ListTicketsScoped(t *testing.T) {
	b, _ := newTestBackend(t, nil)
	ctx := context.Background()

	_, err := b.CreateTicket(ctx, models.NewTicket{CompanyID: "c1", Problem: "a"})
	require.NoError(t, err)
	_, err = b.CreateTicket(ctx, models.NewTicket{CompanyID: "c2", Problem: "b"})
	require.NoError(t, err)

	all, err := b.ListTickets(ctx, backend.TicketQuery{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	own, err := b.ListTickets(ctx, backend.TicketQuery{CompanyID: "c2"})
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, "b", own[0].Problem)
}

func TestBackend_MessagesInCreationOrder(t *testing.T) {
	var events []backend.ChangeEvent
	b, fake := newTestBackend(t, &events)
	ctx := context.Background()

	ticket, err := b.CreateTicket(ctx, models.NewTicket{CompanyID: "c1", Problem: "printer jam"})
	require.NoError(t, err)

	for _, body := range []string{"hello", "any update?", "fixed"} {
		fake.Advance(time.Second)
		_, err := b.CreateMessage(ctx, models.NewMessage{TicketID: ticket.ID, SenderID: "c1", Body: body, Kind: models.MessageText})
		require.NoError(t, err)
	}

	msgs, err := b.ListMessages(ctx, ticket.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, "hello", msgs[0].Body)
	assert.Equal(t, "fixed", msgs[2].Body)
	assert.True(t, msgs[0].CreatedAt.Before(msgs[1].CreatedAt))

	last := events[len(events)-1]
	assert.Equal(t, backend.CollectionMessages, last.Collection)
	assert.Equal(t, "c1", last.CompanyID)

	_, err = b.CreateMessage(ctx, models.NewMessage{TicketID: "missing", Body: "x"})
	assert.ErrorIs(t, err, status.ErrNotFound)
}

func TestBackend_Blobs(t *testing.T) {
	b, _ := newTestBackend(t, nil)
	ctx := context.Background()

	ref, err := b.Upload(ctx, "voice/1_c1.webm", []byte{1, 2, 3})
	require.NoError(t, err)

	url, err := b.URL(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, "https://files.test/"+ref, url)

	data, ok := b.Blob(ref)
	assert.True(t, ok)
	assert.Equal(t, []byte{1, 2, 3}, data)

	_, err = b.URL(ctx, "nope")
	assert.ErrorIs(t, err, status.ErrNotFound)
}

func TestBackend_Auth(t *testing.T) {
	b, _ := newTestBackend(t, nil)
	ctx := context.Background()

	company, err := b.SignUp(ctx, "Ops@Acme.test", "s3cret-pass", models.Profile{Name: "Sara", Organization: "ACME Corp"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleCompany, company.Role)
	assert.Equal(t, "ops@acme.test", company.Email)

	_, err = b.SignUp(ctx, "ops@acme.test", "another-pass", models.Profile{})
	assert.ErrorIs(t, err, status.ErrEmailTaken)

	signedIn, err := b.SignIn(ctx, "ops@acme.test", "s3cret-pass")
	require.NoError(t, err)
	assert.Equal(t, company.ID, signedIn.ID)

	_, err = b.SignIn(ctx, "ops@acme.test", "wrong")
	assert.ErrorIs(t, err, status.ErrInvalidCredentials)

	admin, err := b.CreateAdmin(ctx, "root@desk.test", "admin-pass", models.Profile{Name: "Root"})
	require.NoError(t, err)
	assert.True(t, admin.IsAdmin())

	updated, err := b.UpdateProfile(ctx, company.ID, models.Profile{Name: "Sara K", Organization: "ACME", DarkMode: true})
	require.NoError(t, err)
	assert.Equal(t, "Sara K", updated.Name)
	assert.Equal(t, models.RoleCompany, updated.Role, "profile updates never touch the role")

	got, err := b.Actor(ctx, company.ID)
	require.NoError(t, err)
	assert.True(t, got.DarkMode)
}
