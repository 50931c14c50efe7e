package mobile

import (
	"context"
	"math"
	"sync"
	"time"
)

const (
	PullThreshold = 80.0
	PullDamping   = 0.5
	PullMax       = 120.0
)

// PullToRefresh tracks a downward drag on the ticket list. The drag only
// arms when the list is scrolled to the top; the visible offset is the
// damped drag distance, capped at PullMax. Releasing at or past
// PullThreshold runs the refresh.
type PullToRefresh struct {
	refresh func(ctx context.Context) error

	mu         sync.Mutex
	pulling    bool
	startY     float64
	offset     float64
	refreshing bool
}

func NewPullToRefresh(refresh func(ctx context.Context) error) *PullToRefresh {
	return &PullToRefresh{refresh: refresh}
}

func (p *PullToRefresh) Start(y float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.refreshing {
		return
	}
	p.pulling = true
	p.startY = y
	p.offset = 0
}

// Move updates the drag and returns the visible offset. scrollTop is the
// list's current scroll position.
func (p *PullToRefresh) Move(y, scrollTop float64) float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.pulling || p.refreshing || scrollTop > 0 {
		return p.offset
	}
	if delta := y - p.startY; delta > 0 {
		p.offset = math.Min(delta*PullDamping, PullMax)
	}
	return p.offset
}

// Release ends the drag. It reports whether a refresh ran, and returns
// its error. The offset is zero afterwards whatever the outcome.
func (p *PullToRefresh) Release(ctx context.Context) (bool, error) {
	p.mu.Lock()
	if !p.pulling || p.refreshing {
		p.mu.Unlock()
		return false, nil
	}
	p.pulling = false
	trigger := p.offset >= PullThreshold
	if !trigger {
		p.offset = 0
		p.mu.Unlock()
		return false, nil
	}
	p.refreshing = true
	p.mu.Unlock()

	var err error
	if p.refresh != nil {
		err = p.refresh(ctx)
	}

	p.mu.Lock()
	p.refreshing = false
	p.offset = 0
	p.mu.Unlock()
	return true, err
}

// Offset is the visible displacement. While refreshing the list rests at
// the threshold.
func (p *PullToRefresh) Offset() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.refreshing {
		return PullThreshold
	}
	return p.offset
}

func (p *PullToRefresh) Refreshing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.refreshing
}

const (
	SwipeMinDistance = 50.0
	SwipeMaxDuration = 300 * time.Millisecond
)

type SwipeDirection int

const (
	SwipeNone SwipeDirection = iota
	SwipeLeft
	SwipeRight
	SwipeUp
	SwipeDown
)

func (d SwipeDirection) String() string {
	switch d {
	case SwipeLeft:
		return "left"
	case SwipeRight:
		return "right"
	case SwipeUp:
		return "up"
	case SwipeDown:
		return "down"
	default:
		return "none"
	}
}

type Point struct {
	X, Y float64
	At   time.Time
}

// DetectSwipe classifies a touch from start to end. Touches slower than
// SwipeMaxDuration or not longer than SwipeMinDistance on their dominant
// axis are not swipes.
func DetectSwipe(start, end Point) SwipeDirection {
	if end.At.Sub(start.At) > SwipeMaxDuration {
		return SwipeNone
	}

	dx, dy := end.X-start.X, end.Y-start.Y
	if math.Abs(dx) > math.Abs(dy) {
		if math.Abs(dx) <= SwipeMinDistance {
			return SwipeNone
		}
		if dx > 0 {
			return SwipeRight
		}
		return SwipeLeft
	}

	if math.Abs(dy) <= SwipeMinDistance {
		return SwipeNone
	}
	if dy > 0 {
		return SwipeDown
	}
	return SwipeUp
}
