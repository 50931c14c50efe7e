// Package realtime mirrors backend collections into live snapshots.
//
// A Hub keeps one feed per key (a ticket scope or a ticket id). Every
// subscriber of a key shares that feed, so a ticket opened in several
// places is only loaded once per change. Each change re-reads the whole
// result set and hands subscribers the full snapshot; there is no
// incremental patching.
package realtime

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"support-desk/monitoring"
)

// Loader reads the current result set for a key.
type Loader[T any] func(ctx context.Context) ([]T, error)

type Hub[T any] struct {
	name   string
	logger *slog.Logger

	mu    sync.Mutex
	feeds map[string]*feed[T]
}

type feed[T any] struct {
	key  string
	load Loader[T]
	refs int // guarded by Hub.mu

	mu        sync.Mutex
	listeners map[string]func([]T)
	last      []T
	loaded    bool
}

func NewHub[T any](name string, logger *slog.Logger) *Hub[T] {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub[T]{
		name:   name,
		logger: logger.With("hub", name),
		feeds:  make(map[string]*feed[T]),
	}
}

// Subscribe registers fn for snapshots of key. The first subscriber of a
// key supplies the loader; later subscribers reuse the existing feed and
// immediately receive its latest snapshot. The initial load happens
// before Subscribe returns.
//
// fn runs with the feed locked and must not block or close
// subscriptions of the same key.
func (h *Hub[T]) Subscribe(ctx context.Context, key string, load Loader[T], fn func([]T)) (*Subscription, error) {
	h.mu.Lock()
	f, ok := h.feeds[key]
	if !ok {
		f = &feed[T]{key: key, load: load, listeners: make(map[string]func([]T))}
		h.feeds[key] = f
	}
	f.refs++
	h.mu.Unlock()

	sub := &Subscription{id: uuid.NewString(), key: key}
	sub.closeFn = func() { h.release(f, sub.id) }

	f.mu.Lock()
	f.listeners[sub.id] = fn
	if !f.loaded {
		if err := h.refreshLocked(ctx, f); err != nil {
			delete(f.listeners, sub.id)
			f.mu.Unlock()
			sub.Close()
			return nil, err
		}
	} else {
		fn(slices.Clone(f.last))
	}
	f.mu.Unlock()

	monitoring.TrackSubscription(h.name, 1)
	h.logger.Debug("subscribed", "key", key, "subscription_id", sub.id)
	return sub, nil
}

func (h *Hub[T]) release(f *feed[T], id string) {
	h.mu.Lock()
	f.refs--
	if f.refs == 0 && h.feeds[f.key] == f {
		delete(h.feeds, f.key)
	}
	h.mu.Unlock()

	f.mu.Lock()
	_, ok := f.listeners[id]
	delete(f.listeners, id)
	f.mu.Unlock()

	if ok {
		monitoring.TrackSubscription(h.name, -1)
	}
}

// Refresh reloads key and pushes the new snapshot to its subscribers.
// Keys without subscribers are ignored. On load failure subscribers keep
// the previous snapshot.
func (h *Hub[T]) Refresh(ctx context.Context, key string) error {
	h.mu.Lock()
	f, ok := h.feeds[key]
	h.mu.Unlock()
	if !ok {
		return nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	return h.refreshLocked(ctx, f)
}

func (h *Hub[T]) refreshLocked(ctx context.Context, f *feed[T]) error {
	start := time.Now()
	items, err := f.load(ctx)
	if err != nil {
		h.logger.Error("snapshot load failed", "key", f.key, "error", err)
		return err
	}

	f.last = items
	f.loaded = true
	for _, fn := range f.listeners {
		fn(slices.Clone(items))
	}
	monitoring.TrackSnapshot(h.name, time.Since(start), len(f.listeners))
	return nil
}

// Keys returns the keys that currently have subscribers.
func (h *Hub[T]) Keys() []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	keys := make([]string, 0, len(h.feeds))
	for k := range h.feeds {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Subscription is the teardown handle returned by Subscribe.
type Subscription struct {
	id      string
	key     string
	once    sync.Once
	closeFn func()
}

func (s *Subscription) ID() string  { return s.id }
func (s *Subscription) Key() string { return s.key }

// Close stops delivery. It is safe to call more than once.
func (s *Subscription) Close() {
	if s == nil {
		return
	}
	s.once.Do(s.closeFn)
}
