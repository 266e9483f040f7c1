// Copyright 2026 The frontdoor Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package store

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushq/frontdoor/internal/triage"
)

func fixedClock(t *testing.T) func() time.Time {
	t.Helper()
	ts := time.Date(2026, 8, 27, 10, 0, 0, 0, time.UTC)
	return func() time.Time { return ts }
}

func itRequest() triage.TicketRequest {
	return triage.TicketRequest{
		Department:  triage.DepartmentIT,
		Priority:    triage.PriorityMedium,
		Summary:     "Password Reset request",
		Description: "Intent: password_reset",
		SubjectHash: "abc123",
	}
}

func TestMemoryTicketStore_CreateMintsSequentialIDs(t *testing.T) {
	s := NewMemoryTicketStore("https://servicenow.university.edu/ticket")
	s.SetClock(fixedClock(t))
	ctx := context.Background()

	id1, url1, err := s.Create(ctx, itRequest())
	require.NoError(t, err)
	id2, _, err := s.Create(ctx, itRequest())
	require.NoError(t, err)

	assert.Equal(t, "TKT-IT-20260827-0001", id1)
	assert.Equal(t, "TKT-IT-20260827-0002", id2)
	assert.Equal(t, "https://servicenow.university.edu/ticket/TKT-IT-20260827-0001", url1)
	assert.True(t, triage.ValidTicketID(id1))
}

func TestMemoryTicketStore_CountersArePerDepartment(t *testing.T) {
	s := NewMemoryTicketStore("https://tickets")
	s.SetClock(fixedClock(t))
	ctx := context.Background()

	_, _, err := s.Create(ctx, itRequest())
	require.NoError(t, err)

	req := itRequest()
	req.Department = triage.DepartmentRegistrar
	id, _, err := s.Create(ctx, req)
	require.NoError(t, err)

	assert.Equal(t, "TKT-REG-20260827-0001", id)
}

func TestMemoryTicketStore_CountersResetPerDay(t *testing.T) {
	s := NewMemoryTicketStore("https://tickets")
	day1 := time.Date(2026, 8, 27, 23, 59, 0, 0, time.UTC)
	s.SetClock(func() time.Time { return day1 })
	ctx := context.Background()

	_, _, err := s.Create(ctx, itRequest())
	require.NoError(t, err)

	day2 := day1.Add(2 * time.Minute)
	s.SetClock(func() time.Time { return day2 })
	id, _, err := s.Create(ctx, itRequest())
	require.NoError(t, err)

	assert.Equal(t, "TKT-IT-20260828-0001", id)
}

func TestMemoryTicketStore_RejectsInvalidEnums(t *testing.T) {
	s := NewMemoryTicketStore("https://tickets")
	ctx := context.Background()

	req := itRequest()
	req.Department = "MARKETING"
	_, _, err := s.Create(ctx, req)
	assert.Error(t, err)

	req = itRequest()
	req.Priority = "WHENEVER"
	_, _, err = s.Create(ctx, req)
	assert.Error(t, err)
}

func TestMemoryTicketStore_TruncatesLongSummaries(t *testing.T) {
	s := NewMemoryTicketStore("https://tickets")
	ctx := context.Background()

	req := itRequest()
	req.Summary = strings.Repeat("x", 300)
	id, _, err := s.Create(ctx, req)
	require.NoError(t, err)

	ticket, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Len(t, ticket.Summary, 200)
}

func TestMemoryTicketStore_GetUnknownIsNotFound(t *testing.T) {
	s := NewMemoryTicketStore("https://tickets")

	_, err := s.Get(context.Background(), "TKT-IT-20260827-9999")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryTicketStore_ListFiltersAndOrders(t *testing.T) {
	s := NewMemoryTicketStore("https://tickets")
	ctx := context.Background()

	base := time.Date(2026, 8, 27, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		ts := base.Add(time.Duration(i) * time.Minute)
		s.SetClock(func() time.Time { return ts })
		req := itRequest()
		if i == 2 {
			req.Department = triage.DepartmentRegistrar
			req.SubjectHash = "other"
		}
		_, _, err := s.Create(ctx, req)
		require.NoError(t, err)
	}

	all, err := s.List(ctx, TicketFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	// Newest first.
	assert.True(t, all[0].CreatedAt.After(all[1].CreatedAt))

	dept := triage.DepartmentRegistrar
	reg, err := s.List(ctx, TicketFilter{Department: &dept})
	require.NoError(t, err)
	require.Len(t, reg, 1)
	assert.Equal(t, "other", reg[0].SubjectHash)

	byHash, err := s.List(ctx, TicketFilter{SubjectHash: "abc123"})
	require.NoError(t, err)
	assert.Len(t, byHash, 2)

	limited, err := s.List(ctx, TicketFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestMemoryTicketStore_UpdateAndDelete(t *testing.T) {
	s := NewMemoryTicketStore("https://tickets")
	ctx := context.Background()

	id, _, err := s.Create(ctx, itRequest())
	require.NoError(t, err)

	assignee := "jordan"
	summary := "reset link sent"
	updated, err := s.Update(ctx, id, TicketUpdate{
		Status:            triage.TicketResolved,
		AssignedTo:        &assignee,
		ResolutionSummary: &summary,
	})
	require.NoError(t, err)
	assert.Equal(t, triage.TicketResolved, updated.Status)
	assert.Equal(t, "jordan", updated.AssignedTo)
	assert.Equal(t, "reset link sent", updated.ResolutionSummary)

	_, err = s.Update(ctx, id, TicketUpdate{Status: "vanished"})
	assert.Error(t, err)

	require.NoError(t, s.Delete(ctx, id))
	assert.ErrorIs(t, s.Delete(ctx, id), ErrNotFound)
	_, err = s.Get(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryTicketStore_ConcurrentCreatesStayUnique(t *testing.T) {
	s := NewMemoryTicketStore("https://tickets")
	ctx := context.Background()

	const n = 50
	ids := make(chan string, n)
	for i := 0; i < n; i++ {
		go func() {
			id, _, err := s.Create(ctx, itRequest())
			if err != nil {
				ids <- fmt.Sprintf("error: %v", err)
				return
			}
			ids <- id
		}()
	}

	seen := make(map[string]bool, n)
	for i := 0; i < n; i++ {
		id := <-ids
		assert.True(t, triage.ValidTicketID(id), id)
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}
