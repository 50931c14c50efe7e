// Package session holds the signed-in actor and everything whose
// lifetime is bound to that sign-in. A Session is created once per
// sign-in and handed to its consumers explicitly.
package session

import (
	"log/slog"
	"maps"
	"slices"
	"sync"

	"support-desk/models"
)

// Closer is anything torn down at sign-out, such as a realtime
// subscription.
type Closer interface {
	Close()
}

type CloserFunc func()

func (f CloserFunc) Close() { f() }

type Session struct {
	logger *slog.Logger

	mu      sync.Mutex
	actor   models.Actor
	nextID  uint64
	closers map[uint64]Closer
	ended   bool
	done    chan struct{}
}

func New(actor models.Actor, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		logger:  logger.With("actor_id", actor.ID),
		actor:   actor,
		closers: make(map[uint64]Closer),
		done:    make(chan struct{}),
	}
}

func (s *Session) Actor() models.Actor {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.actor
}

// SetActor replaces the actor after a profile update. The id and role
// never change within a session.
func (s *Session) SetActor(a models.Actor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID != s.actor.ID {
		return
	}
	a.Role = s.actor.Role
	s.actor = a
}

func (s *Session) DarkMode() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.actor.DarkMode
}

func (s *Session) SetDarkMode(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.actor.DarkMode = on
}

// Track registers c for teardown at End and returns a function that
// closes c early and forgets it. Tracking after End closes c at once.
func (s *Session) Track(c Closer) func() {
	s.mu.Lock()
	if s.ended {
		s.mu.Unlock()
		c.Close()
		return func() {}
	}
	s.nextID++
	id := s.nextID
	s.closers[id] = c
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			_, ok := s.closers[id]
			delete(s.closers, id)
			s.mu.Unlock()
			if ok {
				c.Close()
			}
		})
	}
}

// Tracked returns the number of live registrations.
func (s *Session) Tracked() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.closers)
}

// End closes every tracked resource, newest first. Ids grow with every
// Track, so descending ids are newest first. It is safe to call more
// than once.
func (s *Session) End() {
	s.mu.Lock()
	if s.ended {
		s.mu.Unlock()
		return
	}
	s.ended = true
	ids := slices.Sorted(maps.Keys(s.closers))
	closers := make([]Closer, 0, len(ids))
	for _, id := range slices.Backward(ids) {
		closers = append(closers, s.closers[id])
	}
	s.closers = nil
	close(s.done)
	s.mu.Unlock()

	for _, c := range closers {
		c.Close()
	}
	s.logger.Info("session ended", "closed", len(closers))
}

// Done is closed by End.
func (s *Session) Done() <-chan struct{} {
	return s.done
}
