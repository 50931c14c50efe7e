package mobile

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPullToRefresh_DampedAndCapped(t *testing.T) {
	p := NewPullToRefresh(nil)

	p.Start(100)
	assert.Equal(t, 0.0, p.Move(90, 0), "upward drags are ignored")
	assert.Equal(t, 50.0, p.Move(200, 0))
	assert.Equal(t, PullMax, p.Move(1000, 0))
}

func TestPullToRefresh_OnlyArmedAtTop(t *testing.T) {
	calls := 0
	p := NewPullToRefresh(func(ctx context.Context) error {
		calls++
		return nil
	})

	p.Start(0)
	assert.Equal(t, 0.0, p.Move(300, 40))

	ran, err := p.Release(context.Background())
	require.NoError(t, err)
	assert.False(t, ran)
	assert.Equal(t, 0, calls)
}

func TestPullToRefresh_ReleaseBelowThreshold(t *testing.T) {
	calls := 0
	p := NewPullToRefresh(func(ctx context.Context) error {
		calls++
		return nil
	})

	p.Start(0)
	p.Move(159, 0)

	ran, err := p.Release(context.Background())
	require.NoError(t, err)
	assert.False(t, ran)
	assert.Equal(t, 0, calls)
	assert.Equal(t, 0.0, p.Offset())
}

func TestPullToRefresh_ReleaseAboveThresholdRefreshes(t *testing.T) {
	var p *PullToRefresh
	var offsetDuring float64
	var refreshingDuring bool
	p = NewPullToRefresh(func(ctx context.Context) error {
		offsetDuring = p.Offset()
		refreshingDuring = p.Refreshing()
		return errors.New("backend unavailable")
	})

	p.Start(0)
	p.Move(160, 0)

	ran, err := p.Release(context.Background())
	assert.True(t, ran)
	assert.Error(t, err)
	assert.True(t, refreshingDuring)
	assert.Equal(t, PullThreshold, offsetDuring)

	assert.False(t, p.Refreshing())
	assert.Equal(t, 0.0, p.Offset(), "offset resets even when the refresh fails")
}

func TestDetectSwipe(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	at := func(x, y float64, ms int) Point {
		return Point{X: x, Y: y, At: t0.Add(time.Duration(ms) * time.Millisecond)}
	}

	tests := []struct {
		name  string
		start Point
		end   Point
		want  SwipeDirection
	}{
		{"right", at(10, 100, 0), at(120, 110, 200), SwipeRight},
		{"left", at(200, 100, 0), at(40, 90, 200), SwipeLeft},
		{"down", at(100, 10, 0), at(110, 200, 100), SwipeDown},
		{"up", at(100, 300, 0), at(90, 100, 100), SwipeUp},
		{"too slow", at(10, 100, 0), at(200, 100, 301), SwipeNone},
		{"exactly the minimum distance", at(0, 0, 0), at(50, 0, 100), SwipeNone},
		{"dominant axis decides", at(0, 0, 0), at(60, 70, 100), SwipeDown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectSwipe(tt.start, tt.end))
		})
	}
}
