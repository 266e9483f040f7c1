// Copyright 2026 The frontdoor Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package triage

import (
	"fmt"
	"sort"
	"strings"
)

// escalationIntents are the intents that always require human review,
// regardless of classifier confidence.
var escalationIntents = map[string]bool{
	"grade_appeal":       true,
	"withdrawal_request": true,
	"waiver_request":     true,
	"refund_request":     true,
	"request_human":      true,
	"speak_to_person":    true,
}

// humanRequestIntents are the subset of escalation intents that represent an
// explicit request for a person rather than a policy matter.
var humanRequestIntents = map[string]bool{
	"request_human":   true,
	"speak_to_person": true,
}

// RouterConfig holds the thresholds and lookup tables the Router decides
// with. It is injected at construction; the Router itself reads no ambient
// state.
type RouterConfig struct {
	// ConfidenceThreshold is the minimum confidence for routing without
	// clarification. Comparison is inclusive (>=).
	ConfidenceThreshold float64

	// MaxClarificationAttempts caps disambiguation attempts; at the cap a
	// low-confidence query escalates instead.
	MaxClarificationAttempts int

	// SLAHours maps each priority to its response-time target. Every
	// priority must map to a positive value.
	SLAHours map[Priority]int

	// DepartmentOverrides maps intent categories to departments. For known
	// categories the table wins over the classifier's suggestion.
	DepartmentOverrides map[IntentCategory]Department
}

// Validate rejects configurations that would break the SLA invariant.
func (c RouterConfig) Validate() error {
	if c.ConfidenceThreshold < 0 || c.ConfidenceThreshold > 1 {
		return fmt.Errorf("router config: confidence threshold %v out of [0,1]", c.ConfidenceThreshold)
	}
	for _, p := range []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent} {
		if c.SLAHours[p] <= 0 {
			return fmt.Errorf("router config: missing or non-positive SLA hours for priority %s", p)
		}
	}
	for cat, dept := range c.DepartmentOverrides {
		if !cat.Valid() || !dept.Valid() {
			return fmt.Errorf("router config: invalid override %s -> %s", cat, dept)
		}
	}
	return nil
}

// PolicyRule is an optional, externally configured override evaluated after
// the category table and before the escalation chain. Rules come from the
// policy package; the Router only applies them.
type PolicyRule interface {
	// Name identifies the rule in the trace.
	Name() string
	// Evaluate returns a forced department and/or escalation reason for the
	// query, or ok=false when the rule does not apply.
	Evaluate(q NormalizedQuery) (PolicyEffect, bool)
}

// PolicyEffect is the outcome of a matched policy rule.
type PolicyEffect struct {
	// Department forces routing to a department when non-empty.
	Department Department
	// Escalate forces escalation with the given reason.
	Escalate bool
	Reason   EscalationReason
}

// Router is the routing decision engine: a pure function from a normalized
// query and conversation state to a committed routing decision. It performs
// no I/O and holds no mutable state.
type Router struct {
	cfg   RouterConfig
	rules []PolicyRule
}

// NewRouter builds a Router. The configuration is validated once here so
// Route can never produce an invalid SLA.
func NewRouter(cfg RouterConfig, rules ...PolicyRule) (*Router, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Router{cfg: cfg, rules: rules}, nil
}

// NeedsClarification reports whether the caller should ask a follow-up
// question instead of routing. It must be evaluated before Route: the Router
// itself never produces a pending-clarification outcome.
func (r *Router) NeedsClarification(q NormalizedQuery, clarificationAttempts int) bool {
	if clarificationAttempts >= r.cfg.MaxClarificationAttempts {
		return false
	}
	if q.PreEscalation {
		return false
	}
	return q.Confidence < r.cfg.ConfidenceThreshold
}

// Route determines department, priority, escalation and SLA for a query.
// The rule chain is ordered; later steps may override earlier ones, and an
// escalation always forces the human-review department. Calling Route twice
// with the same inputs yields identical output.
func (r *Router) Route(q NormalizedQuery, clarificationAttempts int) (RoutingDecision, error) {
	trace := []string{"classifier_suggestion"}

	department := q.SuggestedDepartment

	// Category table wins over the suggestion for known categories.
	if dept, ok := r.cfg.DepartmentOverrides[q.Category]; ok && dept != department {
		department = dept
		trace = append(trace, "category_department_override")
	}

	// Externally configured policy rules, highest-priority first.
	forcedEscalate := false
	var forcedReason EscalationReason
	for _, rule := range r.rules {
		effect, ok := rule.Evaluate(q)
		if !ok {
			continue
		}
		trace = append(trace, "policy_"+rule.Name())
		if effect.Department != "" && effect.Department.Valid() {
			department = effect.Department
		}
		if effect.Escalate && effect.Reason.Valid() {
			forcedEscalate = true
			forcedReason = effect.Reason
		}
	}

	priority := r.determinePriority(q)
	trace = append(trace, "priority_"+strings.ToLower(string(priority)))

	escalate, reason := r.checkEscalation(q, clarificationAttempts)
	if forcedEscalate && !escalate {
		escalate, reason = true, forcedReason
	}
	if escalate {
		trace = append(trace, "escalation_"+string(reason))
		department = DepartmentEscalateToHuman
	}

	slaHours := r.cfg.SLAHours[priority]
	trace = append(trace, fmt.Sprintf("sla_%dh", slaHours))

	var reasonPtr *EscalationReason
	if escalate {
		reasonPtr = &reason
	}
	return NewRoutingDecision(department, priority, escalate, reasonPtr, slaHours, trace)
}

// determinePriority evaluates the ordered priority rules and returns the
// first match.
func (r *Router) determinePriority(q NormalizedQuery) Priority {
	if q.PreEscalation {
		return PriorityUrgent
	}
	if q.Sentiment == SentimentFrustrated || q.Sentiment == SentimentUrgent {
		return PriorityHigh
	}
	if len(q.UrgencyTerms) > 0 {
		return PriorityHigh
	}
	if q.Confidence >= r.cfg.ConfidenceThreshold {
		return PriorityMedium
	}
	if q.Category == CategoryGeneralInquiry {
		return PriorityLow
	}
	return PriorityMedium
}

// checkEscalation evaluates the ordered escalation rules. Policy and intent
// checks precede the confidence check, so a request that is both a policy
// match and low-confidence escalates for the policy reason.
func (r *Router) checkEscalation(q NormalizedQuery, clarificationAttempts int) (bool, EscalationReason) {
	if q.PreEscalation {
		switch q.Category {
		case CategoryHumanRequest:
			return true, ReasonUserRequestedHuman
		case CategoryPolicyException:
			return true, ReasonPolicyKeyword
		default:
			return true, ReasonSensitiveTopic
		}
	}

	if escalationIntents[q.Intent] {
		if humanRequestIntents[q.Intent] {
			return true, ReasonUserRequestedHuman
		}
		return true, ReasonPolicyKeyword
	}

	if q.Confidence < r.cfg.ConfidenceThreshold {
		if clarificationAttempts >= r.cfg.MaxClarificationAttempts {
			return true, ReasonMaxClarificationsExceeded
		}
		// The caller must ask for clarification instead; see
		// NeedsClarification.
		return false, ""
	}

	return false, ""
}

// EscalationIntents returns the fixed intent set that always requires human
// review, sorted for stable display.
func EscalationIntents() []string {
	out := make([]string, 0, len(escalationIntents))
	for intent := range escalationIntents {
		out = append(out, intent)
	}
	sort.Strings(out)
	return out
}
