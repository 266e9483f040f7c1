// Copyright 2026 The frontdoor Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package policy

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushq/frontdoor/internal/triage"
)

func writeRule(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

func piiQuery() triage.NormalizedQuery {
	return triage.NormalizedQuery{
		Intent:              "password_reset",
		Category:            triage.CategoryAccountAccess,
		SuggestedDepartment: triage.DepartmentIT,
		Confidence:          0.9,
		PIIDetected:         true,
		Sentiment:           triage.SentimentNeutral,
	}
}

func TestEngine_LoadAndEvaluate(t *testing.T) {
	dir := t.TempDir()
	writeRule(t, dir, "pii.yaml", `
name: pii_review
activation:
  condition: "pii_detected && category == 'ACCOUNT_ACCESS'"
  priority: 100
effect:
  escalate: true
  reason: sensitive_topic
`)

	engine, err := NewEngine(dir)
	require.NoError(t, err)
	require.NoError(t, engine.LoadRules())

	rules := engine.Rules()
	require.Len(t, rules, 1)
	assert.Equal(t, "pii_review", rules[0].Name())

	effect, ok := rules[0].Evaluate(piiQuery())
	require.True(t, ok)
	assert.True(t, effect.Escalate)
	assert.Equal(t, triage.ReasonSensitiveTopic, effect.Reason)

	q := piiQuery()
	q.PIIDetected = false
	_, ok = rules[0].Evaluate(q)
	assert.False(t, ok)
}

func TestEngine_RulesSortedByPriority(t *testing.T) {
	dir := t.TempDir()
	writeRule(t, dir, "low.yaml", `
name: low
activation:
  condition: "true"
  priority: 1
effect:
  department: IT
`)
	writeRule(t, dir, "high.yaml", `
name: high
activation:
  condition: "true"
  priority: 100
effect:
  department: CAMPUS_SAFETY
`)

	engine, err := NewEngine(dir)
	require.NoError(t, err)
	require.NoError(t, engine.LoadRules())

	rules := engine.Rules()
	require.Len(t, rules, 2)
	assert.Equal(t, "high", rules[0].Name())
	assert.Equal(t, "low", rules[1].Name())
}

func TestEngine_EmptyConditionAlwaysMatches(t *testing.T) {
	dir := t.TempDir()
	writeRule(t, dir, "always.yaml", `
name: always
effect:
  department: STUDENT_AFFAIRS
`)

	engine, err := NewEngine(dir)
	require.NoError(t, err)
	require.NoError(t, engine.LoadRules())

	rules := engine.Rules()
	require.Len(t, rules, 1)

	effect, ok := rules[0].Evaluate(piiQuery())
	require.True(t, ok)
	assert.Equal(t, triage.DepartmentStudentAffairs, effect.Department)
}

func TestEngine_BadRulesAreSkipped(t *testing.T) {
	dir := t.TempDir()
	writeRule(t, dir, "broken-yaml.yaml", "{{{not yaml")
	writeRule(t, dir, "bad-dept.yaml", `
name: bad_dept
effect:
  department: MARKETING
`)
	writeRule(t, dir, "bad-reason.yaml", `
name: bad_reason
effect:
  escalate: true
  reason: because
`)
	writeRule(t, dir, "no-effect.yaml", `
name: no_effect
activation:
  condition: "true"
effect: {}
`)
	writeRule(t, dir, "good.yaml", `
name: good
effect:
  department: IT
`)

	engine, err := NewEngine(dir)
	require.NoError(t, err)
	require.NoError(t, engine.LoadRules())

	rules := engine.Rules()
	require.Len(t, rules, 1)
	assert.Equal(t, "good", rules[0].Name())
}

func TestEngine_ReloadNotifiesAndSwapsRules(t *testing.T) {
	dir := t.TempDir()
	writeRule(t, dir, "first.yaml", `
name: first
effect:
  department: IT
`)

	engine, err := NewEngine(dir)
	require.NoError(t, err)

	reloads := 0
	engine.OnReload(func() { reloads++ })

	require.NoError(t, engine.LoadRules())
	assert.Equal(t, 1, reloads)
	require.Len(t, engine.Rules(), 1)

	writeRule(t, dir, "second.yaml", `
name: second
activation:
  priority: 10
effect:
  department: REGISTRAR
`)
	require.NoError(t, engine.LoadRules())
	assert.Equal(t, 2, reloads)
	assert.Len(t, engine.Rules(), 2)
}

func TestEngine_RouterIntegration(t *testing.T) {
	dir := t.TempDir()
	writeRule(t, dir, "frustrated.yaml", `
name: frustrated_financial
activation:
  condition: "sentiment == 'FRUSTRATED' && category == 'FINANCIAL'"
  priority: 10
effect:
  escalate: true
  reason: policy_keyword_detected
`)

	engine, err := NewEngine(dir)
	require.NoError(t, err)
	require.NoError(t, engine.LoadRules())

	router, err := triage.NewRouter(triage.RouterConfig{
		ConfidenceThreshold:      0.70,
		MaxClarificationAttempts: 3,
		SLAHours: map[triage.Priority]int{
			triage.PriorityUrgent: 1, triage.PriorityHigh: 4,
			triage.PriorityMedium: 24, triage.PriorityLow: 72,
		},
	}, engine.Rules()...)
	require.NoError(t, err)

	q := triage.NormalizedQuery{
		Intent:              "tuition_payment",
		Category:            triage.CategoryFinancial,
		SuggestedDepartment: triage.DepartmentFinancialAid,
		Confidence:          0.9,
		Sentiment:           triage.SentimentFrustrated,
	}

	decision, err := router.Route(q, 0)
	require.NoError(t, err)

	assert.True(t, decision.Escalate)
	require.NotNil(t, decision.Reason)
	assert.Equal(t, triage.ReasonPolicyKeyword, *decision.Reason)
	assert.Contains(t, decision.RuleTrace, "policy_frustrated_financial")
}
