// Package memory implements the session store as an in-process map.
//
// It is the default store for single-replica deployments. Sessions are
// evicted after an idle TTL by a background sweeper.
package memory

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Guneshbari/mock-mentor/internal/adapter/observability"
	"github.com/Guneshbari/mock-mentor/internal/domain"
)

type entry struct {
	mu      sync.Mutex
	session domain.Session
}

// Store holds sessions in memory keyed by session id.
type Store struct {
	mu      sync.RWMutex
	entries map[string]*entry

	idleTTL time.Duration
}

// New constructs a Store with the given idle TTL. A non-positive TTL
// disables eviction.
func New(idleTTL time.Duration) *Store {
	return &Store{
		entries: make(map[string]*entry),
		idleTTL: idleTTL,
	}
}

// Get returns a copy of the session or domain.ErrNotFound.
func (s *Store) Get(_ domain.Context, id string) (domain.Session, error) {
	s.mu.RLock()
	e, ok := s.entries[id]
	s.mu.RUnlock()
	if !ok {
		return domain.Session{}, fmt.Errorf("op=memory.Get: %w: session %s", domain.ErrNotFound, id)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session.Clone(), nil
}

// Put stores a copy of the session, overwriting any existing entry.
func (s *Store) Put(_ domain.Context, sess domain.Session) error {
	if sess.ID == "" {
		return fmt.Errorf("op=memory.Put: %w: empty session id", domain.ErrInvalidArgument)
	}
	s.mu.Lock()
	e, ok := s.entries[sess.ID]
	if !ok {
		e = &entry{}
		s.entries[sess.ID] = e
	}
	s.mu.Unlock()
	e.mu.Lock()
	e.session = sess.Clone()
	e.mu.Unlock()
	return nil
}

// Delete removes a session. Deleting a missing session is a no-op.
func (s *Store) Delete(_ domain.Context, id string) error {
	s.mu.Lock()
	delete(s.entries, id)
	s.mu.Unlock()
	return nil
}

// Mutate applies fn to the session under the session's own lock, so
// concurrent mutations of the same id are serialized. fn receives a copy;
// the store commits it only when fn returns nil. The committed session is
// returned.
func (s *Store) Mutate(_ domain.Context, id string, fn func(*domain.Session) error) (domain.Session, error) {
	s.mu.RLock()
	e, ok := s.entries[id]
	s.mu.RUnlock()
	if !ok {
		return domain.Session{}, fmt.Errorf("op=memory.Mutate: %w: session %s", domain.ErrNotFound, id)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	work := e.session.Clone()
	if err := fn(&work); err != nil {
		return domain.Session{}, err
	}
	work.UpdatedAt = time.Now().UTC()
	e.session = work.Clone()
	return work, nil
}

// StartSweeper evicts sessions idle longer than the TTL, checking every
// tick. It stops when ctx is cancelled.
func (s *Store) StartSweeper(ctx context.Context, tick time.Duration) {
	if s.idleTTL <= 0 || tick <= 0 {
		return
	}
	go func() {
		t := time.NewTicker(tick)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				s.sweep()
			}
		}
	}()
}

// sweep never blocks on a busy entry: a Mutate in flight can hold the entry
// lock for the duration of an AI call, and that mutation refreshes UpdatedAt
// anyway. Idleness is checked outside the store lock so readers of other
// sessions are not stalled behind the sweep.
func (s *Store) sweep() {
	cutoff := time.Now().Add(-s.idleTTL)

	s.mu.RLock()
	snapshot := make(map[string]*entry, len(s.entries))
	for id, e := range s.entries {
		snapshot[id] = e
	}
	s.mu.RUnlock()

	var idle []string
	for id, e := range snapshot {
		if !e.mu.TryLock() {
			continue
		}
		if e.session.UpdatedAt.Before(cutoff) {
			idle = append(idle, id)
		}
		e.mu.Unlock()
	}
	if len(idle) == 0 {
		return
	}

	var evicted []string
	s.mu.Lock()
	for _, id := range idle {
		e, ok := s.entries[id]
		if !ok || e != snapshot[id] {
			continue
		}
		if !e.mu.TryLock() {
			continue
		}
		if e.session.UpdatedAt.Before(cutoff) {
			delete(s.entries, id)
			evicted = append(evicted, id)
		}
		e.mu.Unlock()
	}
	s.mu.Unlock()

	for _, id := range evicted {
		observability.SessionEvicted()
		slog.Info("session evicted", slog.String("session_id", id), slog.Duration("idle_ttl", s.idleTTL))
	}
}

// Len reports the number of stored sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
