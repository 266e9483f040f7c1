// Copyright 2026 The frontdoor Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package store provides the collaborator stores the decision engine calls:
// tickets, knowledge base, sessions and the audit sink. Every store is
// constructed explicitly and injected; none holds package-level state, so
// tests can build isolated instances.
package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/campushq/frontdoor/internal/triage"
)

// Ticket is a stored support ticket.
type Ticket struct {
	ID                string              `json:"ticket_id"`
	Department        triage.Department   `json:"department"`
	Status            triage.TicketStatus `json:"status"`
	Priority          triage.Priority     `json:"priority"`
	Summary           string              `json:"summary"`
	Description       string              `json:"description"`
	SubjectHash       string              `json:"subject_hash"`
	Entities          map[string]any      `json:"entities,omitempty"`
	CreatedAt         time.Time           `json:"created_at"`
	UpdatedAt         time.Time           `json:"updated_at"`
	AssignedTo        string              `json:"assigned_to,omitempty"`
	ResolutionSummary string              `json:"resolution_summary,omitempty"`
}

// TicketFilter narrows List results.
type TicketFilter struct {
	SubjectHash string
	Status      string
	Department  *triage.Department
	Limit       int
}

// TicketUpdate is a partial admin update. Nil fields are left unchanged.
type TicketUpdate struct {
	Status            triage.TicketStatus
	AssignedTo        *string
	ResolutionSummary *string
}

/// TicketStore is the full ticket collaborator: creation for the decision
// engine plus the lookup/triage surface the HTTP layer exposes.
type TicketStore interface {
	triage.TicketCreator
	Get(ctx context.Context, id string) (*Ticket, error)
	List(ctx context.Context, filter TicketFilter) ([]Ticket, error)
	Update(ctx context.Context, id string, update TicketUpdate) (*Ticket, error)
	Delete(ctx context.Context, id string) error
}

// ErrNotFound is returned when a ticket or session does not exist.
var ErrNotFound = fmt.Errorf("not found")

// MemoryTicketStore keeps tickets in memory with per-department per-day
// sequence counters. Safe for concurrent use.
type MemoryTicketStore struct {
	mu       sync.RWMutex
	tickets  map[string]*Ticket
	counters map[string]int
	baseURL  string
	now      func() time.Time
}

// NewMemoryTicketStore builds an empty in-memory ticket store. baseURL is
// the prefix for generated ticket links.
func NewMemoryTicketStore(baseURL string) *MemoryTicketStore {
	return &MemoryTicketStore{
		tickets:  make(map[string]*Ticket),
		counters: make(map[string]int),
		baseURL:  strings.TrimRight(baseURL, "/"),
		now:      time.Now,
	}
}

// SetClock overrides the time source, for tests.
func (s *MemoryTicketStore) SetClock(now func() time.Time) {
	s.now = now
}

// Create mints a new ticket id of the form TKT-<code>-<yyyymmdd>-<seq> and
// stores the ticket. The generated id always satisfies the ticket id
// contract; a failure to do so would be a defect here, not in the engine.
func (s *MemoryTicketStore) Create(_ context.Context, req triage.TicketRequest) (string, string, error) {
	if !req.Department.Valid() {
		return "", "", fmt.Errorf("create ticket: invalid department %q", req.Department)
	}
	if !req.Priority.Valid() {
		return "", "", fmt.Errorf("create ticket: invalid priority %q", req.Priority)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	code := req.Department.TicketCode()
	day := now.Format("20060102")
	key := code + "-" + day
	s.counters[key]++
	id := fmt.Sprintf("TKT-%s-%s-%04d", code, day, s.counters[key])

	if !triage.ValidTicketID(id) {
		return "", "", fmt.Errorf("create ticket: generated id %q violates the id contract", id)
	}

	summary := req.Summary
	if len(summary) > 200 {
		summary = summary[:200]
	}

	s.tickets[id] = &Ticket{
		ID:          id,
		Department:  req.Department,
		Status:      triage.TicketOpen,
		Priority:    req.Priority,
		Summary:     summary,
		Description: req.Description,
		SubjectHash: req.SubjectHash,
		Entities:    req.Entities,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	return id, s.baseURL + "/" + id, nil
}

// Get returns a ticket by id, or ErrNotFound.
func (s *MemoryTicketStore) Get(_ context.Context, id string) (*Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tickets[id]
	if !ok {
		return nil, fmt.Errorf("ticket %s: %w", id, ErrNotFound)
	}
	cp := *t
	return &cp, nil
}

// List returns tickets matching the filter, newest first.
func (s *MemoryTicketStore) List(_ context.Context, filter TicketFilter) ([]Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Ticket
	for _, t := range s.tickets {
		if filter.SubjectHash != "" && t.SubjectHash != filter.SubjectHash {
			continue
		}
		if filter.Status != "" && string(t.Status) != filter.Status {
			continue
		}
		if filter.Department != nil && t.Department != *filter.Department {
			continue
		}
		out = append(out, *t)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })

	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

// Update applies a partial admin update and returns the updated ticket.
func (s *MemoryTicketStore) Update(_ context.Context, id string, update TicketUpdate) (*Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tickets[id]
	if !ok {
		return nil, fmt.Errorf("ticket %s: %w", id, ErrNotFound)
	}
	if update.Status != "" {
		if !update.Status.Valid() {
			return nil, fmt.Errorf("update ticket: invalid status %q", update.Status)
		}
		t.Status = update.Status
	}
	if update.AssignedTo != nil {
		t.AssignedTo = *update.AssignedTo
	}
	if update.ResolutionSummary != nil {
		t.ResolutionSummary = *update.ResolutionSummary
	}
	t.UpdatedAt = s.now().UTC()

	cp := *t
	return &cp, nil
}

// Delete removes a ticket.
func (s *MemoryTicketStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tickets[id]; !ok {
		return fmt.Errorf("ticket %s: %w", id, ErrNotFound)
	}
	delete(s.tickets, id)
	return nil
}

// Health reports the in-memory store as available.
func (s *MemoryTicketStore) Health(_ context.Context) triage.HealthResult {
	return triage.HealthResult{Healthy: true}
}
