// Copyright 2026 The frontdoor Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package policy loads externally configured routing overrides from YAML
// files and evaluates their activation conditions with expr. Matched rules
// force a department and/or an escalation; the triage router applies them
// between the category table and the escalation chain.
package policy

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/campushq/frontdoor/internal/triage"
)

// Rule is a single policy rule as declared in a YAML file.
type Rule struct {
	Name        string         `yaml:"name" json:"name"`
	Description string         `yaml:"description,omitempty" json:"description,omitempty"`
	Activation  ActivationRule `yaml:"activation" json:"activation"`
	Effect      EffectRule     `yaml:"effect" json:"effect"`

	// FilePath is the source file of the rule (not in YAML).
	FilePath string `yaml:"-" json:"-"`
}

// ActivationRule defines when a rule applies.
type ActivationRule struct {
	// Condition is an expr expression over the query environment, e.g.
	// "pii_detected && category == 'ACCOUNT_ACCESS'". Empty or "true"
	// always matches.
	Condition string `yaml:"condition" json:"condition"`
	// Priority orders rule application; higher runs first.
	Priority int `yaml:"priority" json:"priority"`
}

// EffectRule defines what a matched rule forces.
type EffectRule struct {
	Department string `yaml:"department,omitempty" json:"department,omitempty"`
	Escalate   bool   `yaml:"escalate" json:"escalate"`
	Reason     string `yaml:"reason,omitempty" json:"reason,omitempty"`
}

// Env is the expression environment a condition is evaluated against. Only
// facts from the normalized query are exposed, so rule evaluation stays a
// pure function of the query.
type Env struct {
	Intent        string  `expr:"intent"`
	Category      string  `expr:"category"`
	Department    string  `expr:"department"`
	Confidence    float64 `expr:"confidence"`
	Sentiment     string  `expr:"sentiment"`
	PIIDetected   bool    `expr:"pii_detected"`
	PreEscalation bool    `expr:"pre_escalation"`
	UrgencyTerms  int     `expr:"urgency_terms"`
}

func envFor(q triage.NormalizedQuery) Env {
	return Env{
		Intent:        q.Intent,
		Category:      string(q.Category),
		Department:    string(q.SuggestedDepartment),
		Confidence:    q.Confidence,
		Sentiment:     string(q.Sentiment),
		PIIDetected:   q.PIIDetected,
		PreEscalation: q.PreEscalation,
		UrgencyTerms:  len(q.UrgencyTerms),
	}
}

// compiledRule pairs a loaded rule with its precompiled condition program.
// It implements triage.PolicyRule.
type compiledRule struct {
	rule    Rule
	program *vm.Program
	effect  triage.PolicyEffect
}

// compile validates the rule and precompiles its condition.
func compile(rule Rule) (*compiledRule, error) {
	if rule.Name == "" {
		return nil, fmt.Errorf("policy rule without a name (%s)", rule.FilePath)
	}

	effect := triage.PolicyEffect{Escalate: rule.Effect.Escalate}
	if rule.Effect.Department != "" {
		dept := triage.Department(rule.Effect.Department)
		if !dept.Valid() {
			return nil, fmt.Errorf("policy rule %s: invalid department %q", rule.Name, rule.Effect.Department)
		}
		effect.Department = dept
	}
	if rule.Effect.Escalate {
		reason := triage.EscalationReason(rule.Effect.Reason)
		if !reason.Valid() {
			return nil, fmt.Errorf("policy rule %s: escalation requires a valid reason, got %q", rule.Name, rule.Effect.Reason)
		}
		effect.Reason = reason
	}
	if effect.Department == "" && !effect.Escalate {
		return nil, fmt.Errorf("policy rule %s: effect forces neither department nor escalation", rule.Name)
	}

	var program *vm.Program
	if cond := rule.Activation.Condition; cond != "" && cond != "true" {
		var err error
		program, err = expr.Compile(cond, expr.Env(Env{}), expr.AsBool())
		if err != nil {
			return nil, fmt.Errorf("policy rule %s: compile condition %q: %w", rule.Name, cond, err)
		}
	}

	return &compiledRule{rule: rule, program: program, effect: effect}, nil
}

// Name identifies the rule in routing traces.
func (r *compiledRule) Name() string { return r.rule.Name }

// Evaluate runs the condition against the query and returns the effect when
// it matches. Evaluation errors count as no match.
func (r *compiledRule) Evaluate(q triage.NormalizedQuery) (triage.PolicyEffect, bool) {
	if r.program == nil {
		return r.effect, true
	}
	output, err := expr.Run(r.program, envFor(q))
	if err != nil {
		return triage.PolicyEffect{}, false
	}
	matched, ok := output.(bool)
	if !ok || !matched {
		return triage.PolicyEffect{}, false
	}
	return r.effect, true
}
