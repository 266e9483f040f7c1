// Copyright 2026 The frontdoor Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package triage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRoutingDecision_EnforcesEscalationInvariant(t *testing.T) {
	reason := ReasonPolicyKeyword

	_, err := NewRoutingDecision(DepartmentIT, PriorityMedium, true, nil, 24, nil)
	assert.Error(t, err, "escalation without a reason must be rejected")

	_, err = NewRoutingDecision(DepartmentIT, PriorityMedium, false, &reason, 24, nil)
	assert.Error(t, err, "a reason without escalation must be rejected")

	d, err := NewRoutingDecision(DepartmentEscalateToHuman, PriorityUrgent, true, &reason, 1, nil)
	require.NoError(t, err)
	assert.True(t, d.Escalate)
	assert.Equal(t, ReasonPolicyKeyword, *d.Reason)
}

func TestNewRoutingDecision_RejectsInvalidFields(t *testing.T) {
	_, err := NewRoutingDecision("MARKETING", PriorityMedium, false, nil, 24, nil)
	assert.Error(t, err)

	_, err = NewRoutingDecision(DepartmentIT, "WHENEVER", false, nil, 24, nil)
	assert.Error(t, err)

	_, err = NewRoutingDecision(DepartmentIT, PriorityMedium, false, nil, 0, nil)
	assert.Error(t, err)

	bogus := EscalationReason("because")
	_, err = NewRoutingDecision(DepartmentIT, PriorityMedium, true, &bogus, 24, nil)
	assert.Error(t, err)
}

func TestValidTicketID(t *testing.T) {
	valid := []string{
		"TKT-IT-20260827-0001",
		"TKT-REG-20260101-9999",
		"TKT-ESC-20251231-0042",
	}
	for _, id := range valid {
		assert.True(t, ValidTicketID(id), id)
	}

	invalid := []string{
		"",
		"TKT-IT-20260827-001",     // short sequence
		"TKT-I-20260827-0001",     // short code
		"TKT-SAFE-20260827-0001",  // long code
		"TKT-it-20260827-0001",    // lowercase code
		"TKT-IT-2026827-0001",     // short date
		"TICKET-IT-20260827-0001", // wrong prefix
		"TKT-IT-20260827-0001x",   // trailing junk
	}
	for _, id := range invalid {
		assert.False(t, ValidTicketID(id), id)
	}
}

func TestNormalizedQuery_Validate(t *testing.T) {
	q := confidentQuery()
	require.NoError(t, q.Validate())

	bad := q
	bad.Intent = ""
	assert.Error(t, bad.Validate())

	bad = q
	bad.Category = "SMALLTALK"
	assert.Error(t, bad.Validate())

	bad = q
	bad.Confidence = -0.1
	assert.Error(t, bad.Validate())

	bad = q
	bad.Sentiment = "ECSTATIC"
	assert.Error(t, bad.Validate())
}

func TestSession_AppendTurnTruncatesHistory(t *testing.T) {
	sess := &Session{ID: "s1"}
	for i := 1; i <= 10; i++ {
		sess.AppendTurn(ConversationTurn{TurnNumber: i, Timestamp: time.Now()}, 5)
	}

	require.Len(t, sess.History, 5)
	assert.Equal(t, 6, sess.History[0].TurnNumber)
	assert.Equal(t, 10, sess.History[4].TurnNumber)
}

func TestDepartmentTicketCodes(t *testing.T) {
	for _, d := range Departments() {
		code := d.TicketCode()
		assert.GreaterOrEqual(t, len(code), 2)
		assert.LessOrEqual(t, len(code), 3)
	}
	assert.Equal(t, "REG", DepartmentRegistrar.TicketCode())
	assert.Equal(t, "ESC", DepartmentEscalateToHuman.TicketCode())
	assert.Equal(t, "GEN", Department("UNKNOWN").TicketCode())
}

func TestPriorityRankOrdering(t *testing.T) {
	assert.Less(t, PriorityLow.Rank(), PriorityMedium.Rank())
	assert.Less(t, PriorityMedium.Rank(), PriorityHigh.Rank())
	assert.Less(t, PriorityHigh.Rank(), PriorityUrgent.Rank())
	assert.Equal(t, -1, Priority("BOGUS").Rank())
}
