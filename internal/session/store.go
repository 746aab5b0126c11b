// Package session maps voice-platform session IDs to dialog state.
//
// Each session gets its own lock, so a turn is an atomic read-modify-write
// even when the platform accidentally delivers the same turn twice
// concurrently. The store is bounded: when full, the session idle the
// longest is evicted.
package session

import (
	"log/slog"
	"sync"
	"time"
)

const defaultMaxSessions = 4096

// Store holds the dialog state of active sessions. S is the state type.
type Store[S any] struct {
	fresh func() S
	max   int
	now   func() time.Time

	mu      sync.Mutex
	entries map[string]*entry[S]
}

type entry[S any] struct {
	mu      sync.Mutex
	state   S
	touched time.Time
}

// Config holds store tunables. Zero values pick defaults.
type Config struct {
	// MaxSessions bounds the number of tracked sessions.
	MaxSessions int
	// Now is the clock, injectable for eviction tests.
	Now func() time.Time
}

// NewStore creates a Store whose new sessions start in fresh().
func NewStore[S any](fresh func() S, cfg Config) *Store[S] {
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = defaultMaxSessions
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Store[S]{
		fresh:   fresh,
		max:     cfg.MaxSessions,
		now:     cfg.Now,
		entries: make(map[string]*entry[S]),
	}
}

// Session is an acquired, locked session. Exactly one of Release or Abort
// must be called to unlock it.
type Session[S any] struct {
	store *Store[S]
	e     *entry[S]
	id    string
}

// Acquire locks the session with the given ID, creating it in the fresh
// state when unknown. The caller holds the session exclusively until Release
// or Abort.
func (s *Store[S]) Acquire(id string) *Session[S] {
	s.mu.Lock()
	e, ok := s.entries[id]
	if !ok {
		if len(s.entries) >= s.max {
			s.evictIdleLocked()
		}
		e = &entry[S]{state: s.fresh(), touched: s.now()}
		s.entries[id] = e
	}
	s.mu.Unlock()

	e.mu.Lock()
	return &Session[S]{store: s, e: e, id: id}
}

// State returns the session's current state.
func (sess *Session[S]) State() S {
	return sess.e.state
}

// Release stores the new state and unlocks the session.
func (sess *Session[S]) Release(state S) {
	sess.e.state = state
	sess.e.touched = sess.store.now()
	sess.e.mu.Unlock()
}

// Abort unlocks the session without touching its state, leaving the previous
// turn's state visible — used when a turn fails mid-way.
func (sess *Session[S]) Abort() {
	sess.e.mu.Unlock()
}

// Reset puts the session back into the fresh state without releasing it.
func (sess *Session[S]) Reset() {
	sess.e.state = sess.store.fresh()
}

// Len reports the number of tracked sessions.
func (s *Store[S]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// evictIdleLocked drops the longest-idle session that is not currently
// locked by a running turn. Caller holds s.mu.
func (s *Store[S]) evictIdleLocked() {
	victim := ""
	var idle time.Time
	for id, e := range s.entries {
		if !e.mu.TryLock() {
			continue // turn in flight, never evict under a caller
		}
		e.mu.Unlock()
		if victim == "" || e.touched.Before(idle) {
			victim = id
			idle = e.touched
		}
	}
	if victim == "" {
		return
	}
	delete(s.entries, victim)
	slog.Debug("session: evicted idle session", "id", victim)
}
