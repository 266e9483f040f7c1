// Copyright 2026 The frontdoor Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/campushq/frontdoor/internal/triage"
)

// MemorySessionStore keeps conversation sessions in memory with TTL-based
// expiry checked lazily on read. It implements triage.SessionStore.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*triage.Session
	now      func() time.Time
}

// NewMemorySessionStore builds an empty in-memory session store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[string]*triage.Session),
		now:      time.Now,
	}
}

// SetClock overrides the time source, for tests.
func (s *MemorySessionStore) SetClock(now func() time.Time) {
	s.now = now
}

// NewSessionID mints a fresh session identifier.
func NewSessionID() string {
	return uuid.NewString()
}

// Get returns the session by id, or ErrNotFound if it does not exist or has
// expired. Expired sessions are removed on access.
func (s *MemorySessionStore) Get(_ context.Context, sessionID string) (*triage.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", sessionID, ErrNotFound)
	}
	if sess.TTLSeconds > 0 {
		expiry := sess.LastActive.Add(time.Duration(sess.TTLSeconds) * time.Second)
		if s.now().After(expiry) {
			delete(s.sessions, sessionID)
			return nil, fmt.Errorf("session %s: %w", sessionID, ErrNotFound)
		}
	}
	cp := *sess
	cp.History = append([]triage.ConversationTurn(nil), sess.History...)
	return &cp, nil
}

// Create stores a new session. The id must be set by the caller.
func (s *MemorySessionStore) Create(_ context.Context, session *triage.Session) error {
	if session.ID == "" {
		return fmt.Errorf("create session: empty id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.sessions[session.ID]; exists {
		return fmt.Errorf("create session: id %s already exists", session.ID)
	}
	cp := *session
	cp.History = append([]triage.ConversationTurn(nil), session.History...)
	s.sessions[session.ID] = &cp
	return nil
}

// Update replaces the stored session state.
func (s *MemorySessionStore) Update(_ context.Context, session *triage.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[session.ID]; !ok {
		return fmt.Errorf("session %s: %w", session.ID, ErrNotFound)
	}
	cp := *session
	cp.History = append([]triage.ConversationTurn(nil), session.History...)
	s.sessions[session.ID] = &cp
	return nil
}

// Health reports the in-memory store as available.
func (s *MemorySessionStore) Health(_ context.Context) triage.HealthResult {
	return triage.HealthResult{Healthy: true}
}
