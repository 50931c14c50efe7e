package tui

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"support-desk/internal/mobile"
	"support-desk/internal/status"
	"support-desk/internal/workspace"
	"support-desk/models"
)

// CellWidth and CellHeight approximate the pixel size of one terminal
// cell, so that terminal sizes and drags compare with the mobile
// breakpoint and swipe thresholds.
const (
	CellWidth  = 8
	CellHeight = 16
)

type Focus int

const (
	FocusList Focus = iota
	FocusSearch
	FocusComposer
	FocusNewTicket
)

// updateMsg reports a change of the workspace state.
type updateMsg struct{}

// actionMsg carries the outcome of a workspace call made off the
// update loop.
type actionMsg struct {
	action string
	err    error
}

// Updates returns a channel and the workspace callback feeding it. The
// channel holds at most one pending signal; further changes coalesce.
func Updates() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	return ch, func() {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

type Model struct {
	ctx     context.Context
	ws      *workspace.Workspace
	updates <-chan struct{}
	keys    KeyMap

	focus     Focus
	cursor    int
	search    textinput.Model
	composer  textinput.Model
	newTicket textinput.Model

	width  int
	height int
	notice string
	err    error

	// press is the start of a left-button drag, if one is in progress.
	press    mobile.Point
	pressing bool
}

// NewModel renders ws. updates is the channel returned by Updates whose
// callback was passed to workspace.Open.
func NewModel(ctx context.Context, ws *workspace.Workspace, updates <-chan struct{}) Model {
	search := textinput.New()
	search.Prompt = "/ "
	search.Placeholder = "search name, organization or problem"

	composer := textinput.New()
	composer.Prompt = "> "
	composer.Placeholder = "type a message"
	composer.CharLimit = 4000

	newTicket := textinput.New()
	newTicket.Prompt = "problem: "
	newTicket.Placeholder = "describe the problem"

	return Model{
		ctx:       ctx,
		ws:        ws,
		updates:   updates,
		keys:      DefaultKeyMap,
		search:    search,
		composer:  composer,
		newTicket: newTicket,
	}
}

func (model Model) Init() tea.Cmd {
	return listenForUpdate(model.updates)
}

// listenForUpdate blocks until the workspace signals a change.
func listenForUpdate(updates <-chan struct{}) tea.Cmd {
	if updates == nil {
		return nil
	}
	return func() tea.Msg {
		if _, ok := <-updates; !ok {
			return nil
		}
		return updateMsg{}
	}
}

func (model Model) run(action string, fn func(ctx context.Context) error) tea.Cmd {
	ctx := model.ctx
	return func() tea.Msg {
		return actionMsg{action: action, err: fn(ctx)}
	}
}

func (model Model) Focus() Focus { return model.focus }
func (model Model) Cursor() int  { return model.cursor }

func (model Model) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch message := message.(type) {
	case updateMsg:
		model.clampCursor()
		return model, listenForUpdate(model.updates)

	case actionMsg:
		return model.handleAction(message)

	case tea.WindowSizeMsg:
		model.width = message.Width
		model.height = message.Height
		model.ws.SetViewport(message.Width * CellWidth)
		return model, nil

	case tea.MouseMsg:
		return model.updateMouse(message), nil

	case tea.KeyMsg:
		model.notice = ""
		switch model.focus {
		case FocusSearch:
			return model.updateSearch(message)
		case FocusComposer:
			return model.updateComposer(message)
		case FocusNewTicket:
			return model.updateNewTicket(message)
		}
		return model.updateList(message)
	}
	return model, nil
}

// updateMouse turns a left-button drag into a swipe on the workspace.
func (model Model) updateMouse(message tea.MouseMsg) Model {
	at := mobile.Point{
		X:  float64(message.X * CellWidth),
		Y:  float64(message.Y * CellHeight),
		At: model.ws.Now(),
	}
	switch {
	case message.Action == tea.MouseActionPress && message.Button == tea.MouseButtonLeft:
		model.press = at
		model.pressing = true
	case message.Action == tea.MouseActionRelease && model.pressing:
		model.pressing = false
		model.ws.Swipe(model.press, at)
	}
	return model
}

func (model Model) handleAction(message actionMsg) (tea.Model, tea.Cmd) {
	model.err = message.err
	switch {
	case message.err == nil && message.action == "send":
		model.composer.SetValue(model.ws.Draft())
	case message.err == nil && message.action == "create":
		model.newTicket.Reset()
		model.newTicket.Blur()
		model.focus = FocusList
		model.notice = "Ticket submitted."
	case errors.Is(message.err, status.ErrTicketSolved):
		model.err = nil
		model.notice = "This ticket is solved. The chat is archived."
		model.composer.Blur()
		model.focus = FocusList
	}
	return model, nil
}

func (model Model) updateList(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	ws := model.ws
	switch {
	case key.Matches(message, model.keys.Quit):
		return model, tea.Quit

	case key.Matches(message, model.keys.Up):
		if model.cursor > 0 {
			model.cursor--
		}

	case key.Matches(message, model.keys.Down):
		if model.cursor < len(ws.Tickets())-1 {
			model.cursor++
		}

	case key.Matches(message, model.keys.Open):
		tickets := ws.Tickets()
		if model.cursor < len(tickets) {
			id := tickets[model.cursor].ID
			return model, model.run("select", func(ctx context.Context) error {
				return ws.Select(ctx, id)
			})
		}

	case key.Matches(message, model.keys.Back):
		ws.Back(mobile.BackControl)

	case key.Matches(message, model.keys.Search):
		model.focus = FocusSearch
		model.search.SetValue(ws.Filter().Query)
		cmd := model.search.Focus()
		return model, cmd

	case key.Matches(message, model.keys.OpenOnly):
		ws.SetOpenOnly(!ws.Filter().OpenOnly)
		model.clampCursor()

	case key.Matches(message, model.keys.Compose):
		if ws.Archived() {
			model.notice = "This ticket is solved. The chat is archived."
			break
		}
		if !ws.CanSend() {
			break
		}
		model.focus = FocusComposer
		model.composer.SetValue(ws.Draft())
		cmd := model.composer.Focus()
		return model, cmd

	case key.Matches(message, model.keys.Voice):
		if ws.Composer().Recording() {
			return model, model.run("voice", ws.StopVoice)
		}
		return model, model.run("voice", ws.StartVoice)

	case key.Matches(message, model.keys.Solve):
		t, ok := ws.Selected()
		if !ws.Actor().IsAdmin() || !ok || t.Solved() {
			break
		}
		return model, model.run("solve", ws.MarkSolved)

	case key.Matches(message, model.keys.New):
		if ws.Actor().IsAdmin() {
			break
		}
		model.focus = FocusNewTicket
		cmd := model.newTicket.Focus()
		return model, cmd

	case key.Matches(message, model.keys.Refresh):
		return model, model.run("refresh", ws.Refresh)

	case key.Matches(message, model.keys.Theme):
		return model, model.run("theme", ws.ToggleDarkMode)
	}
	return model, nil
}

func (model Model) updateSearch(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch message.Type {
	case tea.KeyEnter:
		model.search.Blur()
		model.focus = FocusList
		return model, nil
	case tea.KeyEsc:
		model.search.Reset()
		model.search.Blur()
		model.ws.SetSearch("")
		model.focus = FocusList
		return model, nil
	}

	var cmd tea.Cmd
	model.search, cmd = model.search.Update(message)
	model.ws.SetSearch(model.search.Value())
	return model, cmd
}

func (model Model) updateComposer(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch message.Type {
	case tea.KeyEsc:
		model.composer.Blur()
		model.focus = FocusList
		return model, nil
	case tea.KeyEnter:
		if strings.TrimSpace(model.composer.Value()) == "" {
			return model, nil
		}
		return model, model.run("send", model.ws.SendText)
	}

	var cmd tea.Cmd
	model.composer, cmd = model.composer.Update(message)
	model.ws.SetDraft(model.composer.Value())
	return model, cmd
}

func (model Model) updateNewTicket(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch message.Type {
	case tea.KeyEsc:
		model.newTicket.Reset()
		model.newTicket.Blur()
		model.focus = FocusList
		return model, nil
	case tea.KeyEnter:
		in := model.ws.Prefill()
		in.Problem = model.newTicket.Value()
		ws := model.ws
		return model, model.run("create", func(ctx context.Context) error {
			_, err := ws.CreateTicket(ctx, in)
			return err
		})
	}

	var cmd tea.Cmd
	model.newTicket, cmd = model.newTicket.Update(message)
	return model, cmd
}

func (model *Model) clampCursor() {
	n := len(model.ws.Tickets())
	if model.cursor >= n {
		model.cursor = n - 1
	}
	if model.cursor < 0 {
		model.cursor = 0
	}
}

// senderLabel names the author of a message from the viewer's side.
func senderLabel(viewer models.Actor, ticket models.Ticket, m models.Message) string {
	switch {
	case m.SenderID == viewer.ID:
		return "You"
	case m.SenderID == ticket.CompanyID:
		return ticket.Name
	default:
		return "Support"
	}
}

// Run starts the program on the terminal and blocks until the user
// quits or ctx is cancelled.
func Run(ctx context.Context, ws *workspace.Workspace, updates <-chan struct{}) error {
	program := tea.NewProgram(NewModel(ctx, ws, updates),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)
	_, err := program.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
