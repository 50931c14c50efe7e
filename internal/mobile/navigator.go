// Package mobile implements single-pane navigation for narrow viewports:
// the list/chat transition controller and the gestures that drive it.
package mobile

import (
	"sync"
	"time"

	"support-desk/internal/clock"
)

const (
	// Breakpoint is the viewport width from which list and chat are shown
	// side by side and the navigator stops transitioning.
	Breakpoint = 768

	// PrepareDelay lets the incoming pane mount off-screen before it
	// slides in.
	PrepareDelay = 50 * time.Millisecond
	// SlideDelay is the duration of the slide itself.
	SlideDelay = 300 * time.Millisecond
)

type View int

const (
	ViewList View = iota
	ViewChat
)

func (v View) String() string {
	if v == ViewChat {
		return "chat"
	}
	return "list"
}

type Direction int

const (
	DirectionNone Direction = iota
	// DirectionLeft slides the chat in over the list.
	DirectionLeft
	// DirectionRight slides the chat out, back to the list.
	DirectionRight
)

func (d Direction) String() string {
	switch d {
	case DirectionLeft:
		return "left"
	case DirectionRight:
		return "right"
	default:
		return "none"
	}
}

type Phase int

const (
	PhaseIdle Phase = iota
	PhasePrepare
	PhaseSlide
)

// State is a snapshot of the navigator. View is the pane shown when idle
// and the pane being left while transitioning.
type State struct {
	View      View
	Phase     Phase
	Direction Direction
	Inert     bool
}

func (s State) Transitioning() bool { return s.Phase != PhaseIdle }

// BackSource names what triggered a back action.
type BackSource int

const (
	BackButton BackSource = iota
	BackSwipe
	BackControl
)

func (s BackSource) String() string {
	switch s {
	case BackSwipe:
		return "swipe"
	case BackControl:
		return "control"
	default:
		return "button"
	}
}

// History is the navigation history the navigator records into.
type History interface {
	Push(entry string)
	Replace(entry string)
}

const (
	HistoryList = "list"
	HistoryChat = "chat"
)

type Navigator struct {
	clock    clock.Clock
	history  History
	onChange func(State)

	mu     sync.Mutex
	width  int
	state  State
	target View
	seq    uint64
	timer  clock.Timer
	back   BackSource
}

type NavigatorOption func(*Navigator)

func WithHistory(h History) NavigatorOption {
	return func(n *Navigator) { n.history = h }
}

// WithOnChange registers fn to receive every state change. fn runs
// without the navigator locked.
func WithOnChange(fn func(State)) NavigatorOption {
	return func(n *Navigator) { n.onChange = fn }
}

func NewNavigator(clk clock.Clock, width int, opts ...NavigatorOption) *Navigator {
	n := &Navigator{clock: clk, width: width}
	for _, opt := range opts {
		opt(n)
	}
	n.state.Inert = width >= Breakpoint
	return n
}

func (n *Navigator) State() State {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state
}

// Select shows the chat of a selected ticket. It reports whether a
// transition started; on wide viewports, while transitioning, or when
// the chat is already shown it does nothing.
func (n *Navigator) Select() bool {
	return n.begin(ViewList, ViewChat, DirectionLeft, func(h History) {
		if h != nil {
			h.Push(HistoryChat)
		}
	})
}

// Back returns from the chat to the list. source is kept for LastBack
// when the transition starts.
func (n *Navigator) Back(source BackSource) bool {
	return n.begin(ViewChat, ViewList, DirectionRight, func(h History) {
		n.back = source
		if h != nil {
			h.Replace(HistoryList)
		}
	})
}

// LastBack returns the source of the most recent back transition.
func (n *Navigator) LastBack() BackSource {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.back
}

// begin starts a transition. record runs with the navigator locked and
// receives a nil History when none is configured.
func (n *Navigator) begin(from, to View, dir Direction, record func(History)) bool {
	n.mu.Lock()
	if n.state.Inert || n.state.Transitioning() || n.state.View != from {
		n.mu.Unlock()
		return false
	}
	record(n.history)
	n.seq++
	seq := n.seq
	n.target = to
	n.state.Phase = PhasePrepare
	n.state.Direction = dir
	state := n.state
	n.mu.Unlock()

	n.emit(state)
	n.schedule(seq, PrepareDelay, n.slide)
	return true
}

func (n *Navigator) schedule(seq uint64, d time.Duration, step func(uint64)) {
	timer := n.clock.AfterFunc(d, func() { step(seq) })

	n.mu.Lock()
	if n.seq == seq && n.state.Transitioning() {
		n.timer = timer
	}
	n.mu.Unlock()
}

func (n *Navigator) slide(seq uint64) {
	n.mu.Lock()
	if n.seq != seq || n.state.Phase != PhasePrepare {
		n.mu.Unlock()
		return
	}
	n.state.Phase = PhaseSlide
	state := n.state
	n.mu.Unlock()

	n.emit(state)
	n.schedule(seq, SlideDelay, n.settle)
}

func (n *Navigator) settle(seq uint64) {
	n.mu.Lock()
	if n.seq != seq || n.state.Phase != PhaseSlide {
		n.mu.Unlock()
		return
	}
	n.state = State{View: n.target}
	n.timer = nil
	state := n.state
	n.mu.Unlock()

	n.emit(state)
}

// SetViewport records a new viewport width. Crossing the breakpoint
// cancels a running transition; selected reports whether a ticket is
// selected, which decides the pane shown when narrowing.
func (n *Navigator) SetViewport(width int, selected bool) {
	n.mu.Lock()
	inert := width >= Breakpoint
	n.width = width
	if inert == n.state.Inert {
		n.mu.Unlock()
		return
	}

	n.seq++
	if n.timer != nil {
		n.timer.Stop()
		n.timer = nil
	}
	view := ViewList
	if selected {
		view = ViewChat
	}
	n.state = State{View: view, Inert: inert}
	state := n.state
	n.mu.Unlock()

	n.emit(state)
}

// Width returns the last recorded viewport width.
func (n *Navigator) Width() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.width
}

// Close cancels a running transition.
func (n *Navigator) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.seq++
	if n.timer != nil {
		n.timer.Stop()
		n.timer = nil
	}
}

func (n *Navigator) emit(s State) {
	if n.onChange != nil {
		n.onChange(s)
	}
}

// MemoryHistory records entries in memory.
type MemoryHistory struct {
	mu      sync.Mutex
	entries []string
}

func NewMemoryHistory(initial string) *MemoryHistory {
	return &MemoryHistory{entries: []string{initial}}
}

func (h *MemoryHistory) Push(entry string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries, entry)
}

func (h *MemoryHistory) Replace(entry string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.entries) == 0 {
		h.entries = append(h.entries, entry)
		return
	}
	h.entries[len(h.entries)-1] = entry
}

func (h *MemoryHistory) Entries() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.entries...)
}
