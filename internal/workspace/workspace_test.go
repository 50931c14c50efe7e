package workspace

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"support-desk/internal/backend/memory"
	"support-desk/internal/clock"
	"support-desk/internal/mobile"
	"support-desk/internal/realtime"
	"support-desk/internal/services"
	"support-desk/internal/session"
	"support-desk/internal/status"
	"support-desk/models"
)

type harness struct {
	deps    Deps
	clock   *clock.FakeClock
	company models.Actor
	admin   models.Actor
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	fc := clock.Fake(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	store, err := memory.New(1, memory.WithClock(fc))
	require.NoError(t, err)

	tickets := realtime.NewHub[models.Ticket]("tickets", nil)
	messages := realtime.NewHub[models.Message]("messages", nil)
	store.SetChangeSink(realtime.NewDispatcher(tickets, messages))

	h := &harness{
		clock: fc,
		deps: Deps{
			Store:          store,
			Tickets:        tickets,
			Messages:       messages,
			TicketService:  services.NewTicketService(store, nil),
			MessageService: services.NewMessageService(store, store, nil),
			AuthService:    services.NewAuthService(store, nil),
			Clock:          fc,
		},
	}

	ctx := context.Background()
	h.company, err = h.deps.AuthService.SignUp(ctx, services.SignUpInput{Email: "ops@acme.test", Password: "s3cret-pass", Name: "Sara", Organization: "ACME Corp"})
	require.NoError(t, err)
	h.admin, err = h.deps.AuthService.CreateAdmin(ctx, services.SignUpInput{Email: "root@desk.test", Password: "admin-pass", Name: "Root", Organization: "Support"})
	require.NoError(t, err)
	return h
}

func (h *harness) open(t *testing.T, actor models.Actor, width int) *Workspace {
	t.Helper()
	sess := session.New(actor, nil)
	w, err := Open(context.Background(), h.deps, sess, width, nil)
	require.NoError(t, err)
	t.Cleanup(sess.End)
	return w
}

func TestWorkspace_CompanyTicketReachesAdmin(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	admin := h.open(t, h.admin, 1280)
	company := h.open(t, h.company, 1280)

	assert.Empty(t, admin.Tickets())
	assert.Equal(t, "Sara", company.Prefill().Name)

	_, err := company.CreateTicket(ctx, services.TicketInput{Problem: "printer jam"})
	require.NoError(t, err)

	rows := admin.Tickets()
	require.Len(t, rows, 1)
	assert.Equal(t, "printer jam", rows[0].Problem)
	assert.Equal(t, models.TicketOpen, rows[0].Status)
	assert.Len(t, company.Tickets(), 1)
}

func TestWorkspace_SolvedTicketHidesComposer(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	admin := h.open(t, h.admin, 1280)
	company := h.open(t, h.company, 1280)

	tk, err := company.CreateTicket(ctx, services.TicketInput{Problem: "printer jam"})
	require.NoError(t, err)
	require.NoError(t, company.Select(ctx, tk.ID))
	require.NoError(t, admin.Select(ctx, tk.ID))
	assert.True(t, company.CanSend())

	require.NoError(t, admin.MarkSolved(ctx))

	assert.False(t, company.CanSend())
	assert.True(t, company.Archived())

	company.SetDraft("it is back")
	assert.ErrorIs(t, company.SendText(ctx), status.ErrTicketSolved)
	assert.ErrorIs(t, company.MarkSolved(ctx), status.ErrForbidden)
}

func TestWorkspace_ChatIsLiveAndOrdered(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	admin := h.open(t, h.admin, 1280)
	company := h.open(t, h.company, 1280)

	tk, err := company.CreateTicket(ctx, services.TicketInput{Problem: "printer jam"})
	require.NoError(t, err)
	require.NoError(t, company.Select(ctx, tk.ID))
	require.NoError(t, admin.Select(ctx, tk.ID))

	company.SetDraft("hello")
	require.NoError(t, company.SendText(ctx))
	h.clock.Advance(time.Second)
	admin.SetDraft("on it")
	require.NoError(t, admin.SendText(ctx))

	company.SetDraft("   ")
	assert.ErrorIs(t, company.SendText(ctx), status.ErrEmptyDraft)
	assert.Equal(t, "   ", company.Draft())

	msgs := company.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "hello", msgs[0].Body)
	assert.Equal(t, "on it", msgs[1].Body)
	assert.Equal(t, msgs, admin.Messages())
	assert.Equal(t, "", admin.Draft())
}

func TestWorkspace_SwitchingTicketsTearsDownPreviousChat(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	company := h.open(t, h.company, 1280)

	t1, err := company.CreateTicket(ctx, services.TicketInput{Problem: "a"})
	require.NoError(t, err)
	t2, err := company.CreateTicket(ctx, services.TicketInput{Problem: "b"})
	require.NoError(t, err)

	require.NoError(t, company.Select(ctx, t1.ID))
	company.SetDraft("draft for a")
	assert.Equal(t, []string{t1.ID}, h.deps.Messages.Keys())

	require.NoError(t, company.Select(ctx, t2.ID))
	assert.Equal(t, []string{t2.ID}, h.deps.Messages.Keys())
	assert.Equal(t, "", company.Draft(), "draft resets on ticket change")

	assert.ErrorIs(t, company.Select(ctx, "missing"), status.ErrNotFound)
}

func TestWorkspace_NarrowViewportNavigation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	company := h.open(t, h.company, 375)

	tk, err := company.CreateTicket(ctx, services.TicketInput{Problem: "printer jam"})
	require.NoError(t, err)

	require.NoError(t, company.Select(ctx, tk.ID))
	assert.True(t, company.Navigator().State().Transitioning())
	h.clock.Advance(mobile.PrepareDelay + mobile.SlideDelay)
	assert.Equal(t, mobile.ViewChat, company.Navigator().State().View)

	company.SetDraft("half written")
	require.True(t, company.Back(mobile.BackSwipe))
	h.clock.Advance(mobile.PrepareDelay + mobile.SlideDelay)
	assert.Equal(t, mobile.ViewList, company.Navigator().State().View)
	assert.Equal(t, "half written", company.Draft(), "going back keeps the draft")

	company.SetViewport(1024)
	assert.True(t, company.Navigator().State().Inert)
}

func TestWorkspace_SwipeRightLeavesChat(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	company := h.open(t, h.company, 375)

	tk, err := company.CreateTicket(ctx, services.TicketInput{Problem: "printer jam"})
	require.NoError(t, err)

	at := h.clock.Now()
	start := mobile.Point{X: 20, Y: 300, At: at}
	right := mobile.Point{X: 140, Y: 310, At: at.Add(120 * time.Millisecond)}
	assert.False(t, company.Swipe(start, right), "no chat shown yet")

	require.NoError(t, company.Select(ctx, tk.ID))
	h.clock.Advance(mobile.PrepareDelay + mobile.SlideDelay)

	left := mobile.Point{X: -100, Y: 300, At: at.Add(120 * time.Millisecond)}
	slow := mobile.Point{X: 140, Y: 300, At: at.Add(time.Second)}
	short := mobile.Point{X: 70, Y: 300, At: at.Add(120 * time.Millisecond)}
	for _, end := range []mobile.Point{left, slow, short} {
		assert.False(t, company.Swipe(start, end))
	}
	assert.Equal(t, mobile.ViewChat, company.Navigator().State().View)

	require.True(t, company.Swipe(start, right))
	assert.Equal(t, mobile.BackSwipe, company.Navigator().LastBack())
	h.clock.Advance(mobile.PrepareDelay + mobile.SlideDelay)
	assert.Equal(t, mobile.ViewList, company.Navigator().State().View)
}

func TestWorkspace_SignOutClosesSubscriptions(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	sess := session.New(h.company, nil)
	w, err := Open(ctx, h.deps, sess, 1280, nil)
	require.NoError(t, err)

	tk, err := w.CreateTicket(ctx, services.TicketInput{Problem: "printer jam"})
	require.NoError(t, err)
	require.NoError(t, w.Select(ctx, tk.ID))
	assert.NotEmpty(t, h.deps.Tickets.Keys())
	assert.NotEmpty(t, h.deps.Messages.Keys())

	w.SignOut()

	assert.Empty(t, h.deps.Tickets.Keys())
	assert.Empty(t, h.deps.Messages.Keys())
}

func TestWorkspace_ProfileAndTheme(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	updates := 0
	sess := session.New(h.company, nil)
	w, err := Open(ctx, h.deps, sess, 1280, func() { updates++ })
	require.NoError(t, err)
	t.Cleanup(sess.End)

	require.NoError(t, w.ToggleDarkMode(ctx))
	assert.True(t, sess.DarkMode())
	assert.Positive(t, updates)

	err = w.UpdateProfile(ctx, models.Profile{Name: "S", Organization: "ACME"})
	assert.ErrorIs(t, err, status.ErrInvalidInput)
	assert.Equal(t, "Sara", w.Actor().Name)
}

func TestWorkspace_PullToRefresh(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	w := h.open(t, h.admin, 375)

	pull := w.Pull()
	pull.Start(0)
	pull.Move(200, 0)
	ran, err := pull.Release(ctx)
	require.NoError(t, err)
	assert.True(t, ran)
	assert.True(t, w.Loaded())
}
