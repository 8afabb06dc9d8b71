// Package redis implements the session store on Redis so sessions survive
// restarts and can be shared across replicas.
package redis

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Guneshbari/mock-mentor/internal/domain"
)

const keyPrefix = "session:"

// Store keeps sessions as JSON values under session:<id> with an idle TTL
// refreshed on every write.
type Store struct {
	rdb     *redis.Client
	idleTTL time.Duration

	// Mutate serialization is per-process. Multi-replica deployments rely
	// on sticky routing for in-flight interviews. Lock entries are
	// reference-counted so the map only holds sessions with a Mutate in
	// flight; sessions that end via TTL expiry leave nothing behind.
	mu    sync.Mutex
	locks map[string]*sessionLock
}

type sessionLock struct {
	mu   sync.Mutex
	refs int
}

// New constructs a Store around an existing Redis client.
func New(rdb *redis.Client, idleTTL time.Duration) *Store {
	return &Store{
		rdb:     rdb,
		idleTTL: idleTTL,
		locks:   make(map[string]*sessionLock),
	}
}

func (s *Store) acquireLock(id string) *sessionLock {
	s.mu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &sessionLock{}
		s.locks[id] = l
	}
	l.refs++
	s.mu.Unlock()
	l.mu.Lock()
	return l
}

func (s *Store) releaseLock(id string, l *sessionLock) {
	l.mu.Unlock()
	s.mu.Lock()
	l.refs--
	if l.refs == 0 {
		delete(s.locks, id)
	}
	s.mu.Unlock()
}

// Get returns the session or domain.ErrNotFound.
func (s *Store) Get(ctx domain.Context, id string) (domain.Session, error) {
	raw, err := s.rdb.Get(ctx, keyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Session{}, fmt.Errorf("op=redis.Get: %w: session %s", domain.ErrNotFound, id)
	}
	if err != nil {
		return domain.Session{}, fmt.Errorf("op=redis.Get: %w", err)
	}
	var sess domain.Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return domain.Session{}, fmt.Errorf("op=redis.Get: %w", err)
	}
	return sess, nil
}

// Put stores the session and refreshes its TTL.
func (s *Store) Put(ctx domain.Context, sess domain.Session) error {
	if sess.ID == "" {
		return fmt.Errorf("op=redis.Put: %w: empty session id", domain.ErrInvalidArgument)
	}
	raw, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("op=redis.Put: %w", err)
	}
	if err := s.rdb.Set(ctx, keyPrefix+sess.ID, raw, s.idleTTL).Err(); err != nil {
		return fmt.Errorf("op=redis.Put: %w", err)
	}
	return nil
}

// Delete removes a session. Deleting a missing session is a no-op.
func (s *Store) Delete(ctx domain.Context, id string) error {
	if err := s.rdb.Del(ctx, keyPrefix+id).Err(); err != nil {
		return fmt.Errorf("op=redis.Delete: %w", err)
	}
	return nil
}

// Mutate reads the session, applies fn, and writes it back under a
// per-session lock. fn errors abort the write.
func (s *Store) Mutate(ctx domain.Context, id string, fn func(*domain.Session) error) (domain.Session, error) {
	l := s.acquireLock(id)
	defer s.releaseLock(id, l)

	sess, err := s.Get(ctx, id)
	if err != nil {
		return domain.Session{}, err
	}
	if err := fn(&sess); err != nil {
		return domain.Session{}, err
	}
	sess.UpdatedAt = time.Now().UTC()
	if err := s.Put(ctx, sess); err != nil {
		return domain.Session{}, err
	}
	return sess, nil
}

// Ping verifies connectivity, for readiness checks.
func (s *Store) Ping(ctx domain.Context) error {
	if err := s.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("op=redis.Ping: %w", err)
	}
	return nil
}
