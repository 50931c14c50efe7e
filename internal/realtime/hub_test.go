package realtime

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type snapshotRecorder struct {
	mu    sync.Mutex
	calls [][]string
}

func (r *snapshotRecorder) record(items []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, items)
}

func (r *snapshotRecorder) last() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.calls) == 0 {
		return nil
	}
	return r.calls[len(r.calls)-1]
}

func (r *snapshotRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

type countingLoader struct {
	mu    sync.Mutex
	items []string
	loads int
	err   error
}

func (l *countingLoader) load(ctx context.Context) ([]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.loads++
	if l.err != nil {
		return nil, l.err
	}
	return append([]string(nil), l.items...), nil
}

func (l *countingLoader) set(items ...string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.items = items
}

func TestHub_SubscribeDeliversInitialSnapshot(t *testing.T) {
	hub := NewHub[string]("test", nil)
	loader := &countingLoader{items: []string{"a", "b"}}
	rec := &snapshotRecorder{}

	sub, err := hub.Subscribe(context.Background(), "t1", loader.load, rec.record)
	require.NoError(t, err)
	defer sub.Close()

	assert.Equal(t, []string{"a", "b"}, rec.last())
	assert.Equal(t, "t1", sub.Key())
	assert.NotEmpty(t, sub.ID())
}

func TestHub_RefreshReplacesWholeSnapshot(t *testing.T) {
	hub := NewHub[string]("test", nil)
	loader := &countingLoader{items: []string{"a", "b"}}
	rec := &snapshotRecorder{}

	sub, err := hub.Subscribe(context.Background(), "t1", loader.load, rec.record)
	require.NoError(t, err)
	defer sub.Close()

	loader.set("c")
	require.NoError(t, hub.Refresh(context.Background(), "t1"))

	assert.Equal(t, []string{"c"}, rec.last())
	assert.Equal(t, 2, rec.count())
}

func TestHub_DeduplicatesFeedsPerKey(t *testing.T) {
	hub := NewHub[string]("test", nil)
	loader := &countingLoader{items: []string{"a"}}
	first, second := &snapshotRecorder{}, &snapshotRecorder{}
	ctx := context.Background()

	s1, err := hub.Subscribe(ctx, "t1", loader.load, first.record)
	require.NoError(t, err)
	s2, err := hub.Subscribe(ctx, "t1", loader.load, second.record)
	require.NoError(t, err)

	assert.Equal(t, 1, loader.loads, "second subscriber reuses the cached snapshot")
	assert.Equal(t, []string{"a"}, second.last())

	loader.set("a", "b")
	require.NoError(t, hub.Refresh(ctx, "t1"))
	assert.Equal(t, 2, loader.loads, "one load per change regardless of subscriber count")
	assert.Equal(t, []string{"a", "b"}, first.last())
	assert.Equal(t, []string{"a", "b"}, second.last())

	s1.Close()
	assert.Equal(t, []string{"t1"}, hub.Keys())
	s2.Close()
	assert.Empty(t, hub.Keys())
}

func TestHub_CloseStopsDelivery(t *testing.T) {
	hub := NewHub[string]("test", nil)
	loader := &countingLoader{items: []string{"a"}}
	rec := &snapshotRecorder{}
	ctx := context.Background()

	sub, err := hub.Subscribe(ctx, "t1", loader.load, rec.record)
	require.NoError(t, err)

	sub.Close()
	sub.Close()

	loader.set("b")
	require.NoError(t, hub.Refresh(ctx, "t1"))
	assert.Equal(t, 1, rec.count())
	assert.Equal(t, 1, loader.loads, "refresh of a key without subscribers is ignored")
}

func TestHub_LoadFailure(t *testing.T) {
	hub := NewHub[string]("test", nil)
	loader := &countingLoader{err: errors.New("backend unavailable")}
	rec := &snapshotRecorder{}
	ctx := context.Background()

	sub, err := hub.Subscribe(ctx, "t1", loader.load, rec.record)
	assert.Error(t, err)
	assert.Nil(t, sub)
	assert.Empty(t, hub.Keys())

	loader.err = nil
	loader.set("a")
	sub, err = hub.Subscribe(ctx, "t1", loader.load, rec.record)
	require.NoError(t, err)
	defer sub.Close()

	loader.err = errors.New("stalled")
	assert.Error(t, hub.Refresh(ctx, "t1"))
	assert.Equal(t, []string{"a"}, rec.last(), "subscribers keep the previous snapshot")
}

func TestHub_SnapshotsAreCopies(t *testing.T) {
	hub := NewHub[string]("test", nil)
	loader := &countingLoader{items: []string{"a"}}
	var got []string
	ctx := context.Background()

	sub, err := hub.Subscribe(ctx, "t1", loader.load, func(items []string) {
		items[0] = "mutated"
	})
	require.NoError(t, err)
	defer sub.Close()

	other, err := hub.Subscribe(ctx, "t1", loader.load, func(items []string) { got = items })
	require.NoError(t, err)
	defer other.Close()

	assert.Equal(t, []string{"a"}, got)
}

func TestSubscription_NilClose(t *testing.T) {
	var sub *Subscription
	assert.NotPanics(t, sub.Close)
}
