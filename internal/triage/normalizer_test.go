// Copyright 2026 The frontdoor Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package triage

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedClassifier struct {
	result NormalizedQuery
	err    error
}

func (s *scriptedClassifier) Classify(context.Context, string, []ConversationTurn) (NormalizedQuery, error) {
	return s.result, s.err
}

func (s *scriptedClassifier) GenerateClarification(context.Context, string, []string) (string, error) {
	return "what do you mean?", nil
}

func (s *scriptedClassifier) GenerateResponse(context.Context, ResponseRequest) (string, error) {
	return "", nil
}

func (s *scriptedClassifier) Health(context.Context) HealthResult {
	return HealthResult{Healthy: true}
}

func TestNormalizer_PassesThroughValidResult(t *testing.T) {
	n := NewNormalizer(&scriptedClassifier{result: confidentQuery()})

	q := n.Normalize(context.Background(), "I forgot my password", nil)

	assert.Equal(t, "password_reset", q.Intent)
	assert.Equal(t, 0.92, q.Confidence)
	assert.False(t, q.PreEscalation)
	assert.NotNil(t, q.Entities)
}

func TestNormalizer_ClassifierErrorFallsBackToEscalation(t *testing.T) {
	n := NewNormalizer(&scriptedClassifier{err: errors.New("model unavailable")})

	q := n.Normalize(context.Background(), "anything", nil)

	assert.Equal(t, "general_question", q.Intent)
	assert.Equal(t, CategoryGeneralInquiry, q.Category)
	assert.Equal(t, DepartmentEscalateToHuman, q.SuggestedDepartment)
	assert.Equal(t, 0.3, q.Confidence)
	assert.True(t, q.PreEscalation)
	require.NoError(t, q.Validate())
}

func TestNormalizer_MalformedResultFallsBackToEscalation(t *testing.T) {
	bad := confidentQuery()
	bad.Confidence = 1.7
	n := NewNormalizer(&scriptedClassifier{result: bad})

	q := n.Normalize(context.Background(), "anything", nil)

	assert.True(t, q.PreEscalation)
	assert.Equal(t, DepartmentEscalateToHuman, q.SuggestedDepartment)
}

func TestNormalizer_FallbackAlwaysEscalatesThroughRouter(t *testing.T) {
	// The fail-safe result must never be silently under-escalated.
	n := NewNormalizer(&scriptedClassifier{err: errors.New("down")})
	router, err := NewRouter(testRouterConfig())
	require.NoError(t, err)

	q := n.Normalize(context.Background(), "???", nil)
	assert.False(t, router.NeedsClarification(q, 0))

	decision, err := router.Route(q, 0)
	require.NoError(t, err)
	assert.True(t, decision.Escalate)
	assert.Equal(t, DepartmentEscalateToHuman, decision.Department)
}
