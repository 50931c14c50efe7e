// Package workspace is the per-actor view model: the actor's live ticket
// list, the chat of the selected ticket, the composer and the
// single-pane navigation state. Clients render it and forward input.
package workspace

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"support-desk/internal/backend"
	"support-desk/internal/clock"
	"support-desk/internal/mobile"
	"support-desk/internal/realtime"
	"support-desk/internal/services"
	"support-desk/internal/session"
	"support-desk/internal/status"
	"support-desk/models"
)

type Deps struct {
	Store    backend.Store
	Tickets  *realtime.Hub[models.Ticket]
	Messages *realtime.Hub[models.Message]

	TicketService  *services.TicketService
	MessageService *services.MessageService
	AuthService    *services.AuthService

	Recorder services.Recorder
	Clock    clock.Clock
	Logger   *slog.Logger

	// SearchDebounce overrides services.SearchDebounce when positive.
	SearchDebounce time.Duration
}

type Workspace struct {
	deps     Deps
	session  *session.Session
	scope    backend.TicketQuery
	logger   *slog.Logger
	onUpdate func()

	list     *services.TicketList
	composer *services.Composer
	nav      *mobile.Navigator
	pull     *mobile.PullToRefresh

	mu         sync.Mutex
	selected   string
	messages   []models.Message
	releaseMsg func()
}

// Open subscribes to the actor's tickets and returns the workspace. The
// subscription and everything opened later is torn down by sess.End.
// onUpdate is called after every change to the rendered state.
func Open(ctx context.Context, deps Deps, sess *session.Session, width int, onUpdate func()) (*Workspace, error) {
	if deps.Clock == nil {
		deps.Clock = clock.Real()
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if onUpdate == nil {
		onUpdate = func() {}
	}

	actor := sess.Actor()
	w := &Workspace{
		deps:     deps,
		session:  sess,
		scope:    backend.ScopeFor(actor),
		logger:   deps.Logger.With("actor_id", actor.ID),
		onUpdate: onUpdate,
	}
	listOpts := []services.TicketListOption{services.OnChange(func([]models.Ticket) { w.onUpdate() })}
	if deps.SearchDebounce > 0 {
		listOpts = append(listOpts, services.WithDebounce(deps.SearchDebounce))
	}
	w.list = services.NewTicketList(actor, deps.Clock, listOpts...)
	w.composer = services.NewComposer(actor, deps.MessageService, deps.Recorder, deps.Clock, w.logger)
	w.nav = mobile.NewNavigator(deps.Clock, width,
		mobile.WithHistory(mobile.NewMemoryHistory(mobile.HistoryList)),
		mobile.WithOnChange(func(mobile.State) { w.onUpdate() }),
	)
	w.pull = mobile.NewPullToRefresh(w.Refresh)

	sub, err := deps.Tickets.Subscribe(ctx, w.scope.Key(), func(ctx context.Context) ([]models.Ticket, error) {
		return deps.Store.ListTickets(ctx, w.scope)
	}, w.list.SetSnapshot)
	if err != nil {
		return nil, fmt.Errorf("subscribing to tickets: %w", err)
	}
	sess.Track(sub)
	sess.Track(session.CloserFunc(w.closeLocal))
	return w, nil
}

func (w *Workspace) closeLocal() {
	w.list.Close()
	w.composer.Close()
	w.nav.Close()

	w.mu.Lock()
	release := w.releaseMsg
	w.releaseMsg = nil
	w.mu.Unlock()
	if release != nil {
		release()
	}
}

func (w *Workspace) Session() *session.Session     { return w.session }
func (w *Workspace) Actor() models.Actor           { return w.session.Actor() }
func (w *Workspace) Navigator() *mobile.Navigator  { return w.nav }
func (w *Workspace) Pull() *mobile.PullToRefresh   { return w.pull }
func (w *Workspace) Composer() *services.Composer  { return w.composer }
func (w *Workspace) Tickets() []models.Ticket      { return w.list.Visible() }
func (w *Workspace) Filter() services.TicketFilter { return w.list.Filter() }
func (w *Workspace) SetSearch(term string)         { w.list.SetSearch(term) }
func (w *Workspace) SetOpenOnly(open bool)         { w.list.SetOpenOnly(open) }
func (w *Workspace) Loaded() bool                  { return w.list.Loaded() }
func (w *Workspace) Prefill() services.TicketInput { return services.Prefill(w.Actor()) }

// Select opens the chat of ticketID. Selecting another ticket closes the
// previous message subscription and resets the draft.
func (w *Workspace) Select(ctx context.Context, ticketID string) error {
	if _, ok := w.list.Find(ticketID); !ok {
		return fmt.Errorf("ticket %s: %w", ticketID, status.ErrNotFound)
	}

	w.mu.Lock()
	if w.selected == ticketID {
		w.mu.Unlock()
		w.nav.Select()
		return nil
	}
	previous := w.releaseMsg
	w.selected = ticketID
	w.messages = nil
	w.releaseMsg = nil
	w.mu.Unlock()

	if previous != nil {
		previous()
	}
	w.composer.SetTicket(ticketID)

	sub, err := w.deps.Messages.Subscribe(ctx, ticketID, func(ctx context.Context) ([]models.Message, error) {
		msgs, err := w.deps.Store.ListMessages(ctx, ticketID)
		if err != nil {
			return nil, err
		}
		services.SortOldestFirst(msgs)
		return msgs, nil
	}, func(msgs []models.Message) { w.setMessages(ticketID, msgs) })
	if err != nil {
		return fmt.Errorf("subscribing to messages: %w", err)
	}

	release := w.session.Track(sub)
	w.mu.Lock()
	if w.selected != ticketID {
		w.mu.Unlock()
		release()
		return nil
	}
	w.releaseMsg = release
	w.mu.Unlock()

	w.nav.Select()
	w.onUpdate()
	return nil
}

func (w *Workspace) setMessages(ticketID string, msgs []models.Message) {
	w.mu.Lock()
	if w.selected != ticketID {
		w.mu.Unlock()
		return
	}
	w.messages = msgs
	w.mu.Unlock()
	w.onUpdate()
}

// Back leaves the chat on narrow viewports. The selection and draft are
// kept.
func (w *Workspace) Back(source mobile.BackSource) bool {
	if !w.nav.Back(source) {
		return false
	}
	w.logger.Debug("back to list", slog.String("source", source.String()))
	return true
}

// Swipe handles a touch on the chat pane. A right swipe goes back to the
// list like the back button.
func (w *Workspace) Swipe(start, end mobile.Point) bool {
	if mobile.DetectSwipe(start, end) != mobile.SwipeRight {
		return false
	}
	return w.Back(mobile.BackSwipe)
}

// Now is the workspace clock, for stamping input events.
func (w *Workspace) Now() time.Time { return w.deps.Clock.Now() }

// SetViewport forwards a resize to the navigator.
func (w *Workspace) SetViewport(width int) {
	w.mu.Lock()
	selected := w.selected != ""
	w.mu.Unlock()
	w.nav.SetViewport(width, selected)
}

// Selected returns the selected ticket as last delivered by the ticket
// subscription.
func (w *Workspace) Selected() (models.Ticket, bool) {
	w.mu.Lock()
	id := w.selected
	w.mu.Unlock()
	if id == "" {
		return models.Ticket{}, false
	}
	return w.list.Find(id)
}

func (w *Workspace) Messages() []models.Message {
	w.mu.Lock()
	defer w.mu.Unlock()
	return slices.Clone(w.messages)
}

// CanSend reports whether the composer is shown for the selected ticket.
func (w *Workspace) CanSend() bool {
	t, ok := w.Selected()
	return ok && !t.Solved() && w.Actor().IsParticipant(t)
}

// Archived reports whether the selected ticket is solved; the chat then
// shows the archived notice instead of the composer.
func (w *Workspace) Archived() bool {
	t, ok := w.Selected()
	return ok && t.Solved()
}

func (w *Workspace) SetDraft(text string) { w.composer.SetDraft(text) }
func (w *Workspace) Draft() string        { return w.composer.Draft() }

func (w *Workspace) SendText(ctx context.Context) error {
	if err := w.sendable(); err != nil {
		return err
	}
	_, err := w.composer.SendText(ctx)
	return err
}

func (w *Workspace) StartVoice(ctx context.Context) error {
	if err := w.sendable(); err != nil {
		return err
	}
	return w.composer.StartVoice(ctx)
}

func (w *Workspace) StopVoice(ctx context.Context) error {
	_, err := w.composer.StopVoice(ctx)
	return err
}

func (w *Workspace) sendable() error {
	t, ok := w.Selected()
	if !ok {
		return status.ErrNoTicketSelected
	}
	if t.Solved() {
		return fmt.Errorf("ticket %s: %w", t.ID, status.ErrTicketSolved)
	}
	return nil
}

// MarkSolved solves the selected ticket. Admin only.
func (w *Workspace) MarkSolved(ctx context.Context) error {
	t, ok := w.Selected()
	if !ok {
		return status.ErrNoTicketSelected
	}
	_, err := w.deps.TicketService.MarkSolved(ctx, w.Actor(), t.ID)
	return err
}

func (w *Workspace) CreateTicket(ctx context.Context, in services.TicketInput) (models.Ticket, error) {
	return w.deps.TicketService.Create(ctx, w.Actor(), in)
}

// UpdateProfile saves the profile and applies it to the session.
func (w *Workspace) UpdateProfile(ctx context.Context, p models.Profile) error {
	actor, err := w.deps.AuthService.UpdateProfile(ctx, w.Actor().ID, p)
	if err != nil {
		return err
	}
	w.session.SetActor(actor)
	w.onUpdate()
	return nil
}

// ToggleDarkMode flips and persists the theme preference.
func (w *Workspace) ToggleDarkMode(ctx context.Context) error {
	p := w.Actor().Profile()
	p.DarkMode = !p.DarkMode
	return w.UpdateProfile(ctx, p)
}

// Refresh re-reads the ticket list and the open chat.
func (w *Workspace) Refresh(ctx context.Context) error {
	if err := w.deps.Tickets.Refresh(ctx, w.scope.Key()); err != nil {
		return err
	}
	w.mu.Lock()
	id := w.selected
	w.mu.Unlock()
	if id == "" {
		return nil
	}
	return w.deps.Messages.Refresh(ctx, id)
}

// SignOut tears down every subscription of the session.
func (w *Workspace) SignOut() {
	w.session.End()
}
