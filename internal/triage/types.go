// Copyright 2026 The frontdoor Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package triage

import (
	"fmt"
	"regexp"
	"time"
)

// NormalizedQuery is the canonical structured result of intent classification.
// It is produced by the Normalizer and consumed by the Router.
type NormalizedQuery struct {
	// Intent is a stable intent identifier (e.g. "password_reset"), never the
	// free text of the message.
	Intent string `json:"intent"`

	// Category groups the intent for routing.
	Category IntentCategory `json:"category"`

	// SuggestedDepartment is the classifier's department suggestion. The
	// Router may override it.
	SuggestedDepartment Department `json:"suggested_department"`

	// Entities maps entity kind to extracted value. Keys are not fixed;
	// "building", "course_code", "system" and "date" are conventional.
	Entities map[string]any `json:"entities,omitempty"`

	// Confidence is the classifier's self-reported certainty in [0,1].
	Confidence float64 `json:"confidence"`

	// PreEscalation is the classifier's own signal that this query must
	// bypass automated routing (sensitive topics, explicit human requests).
	PreEscalation bool `json:"pre_escalation"`

	// PIIDetected reports whether personally identifying information was
	// found in the raw text. Raw PII values are never carried here.
	PIIDetected bool     `json:"pii_detected"`
	PIIKinds    []string `json:"pii_kinds,omitempty"`

	Sentiment Sentiment `json:"sentiment"`

	// UrgencyTerms holds the urgency phrases matched in the message.
	UrgencyTerms []string `json:"urgency_terms,omitempty"`
}

// Validate checks the classifier-output invariants: confidence range and
// enum membership.
func (q *NormalizedQuery) Validate() error {
	if q.Intent == "" {
		return fmt.Errorf("normalized query: empty intent")
	}
	if !q.Category.Valid() {
		return fmt.Errorf("normalized query: invalid category %q", q.Category)
	}
	if !q.SuggestedDepartment.Valid() {
		return fmt.Errorf("normalized query: invalid department %q", q.SuggestedDepartment)
	}
	if q.Confidence < 0 || q.Confidence > 1 {
		return fmt.Errorf("normalized query: confidence %v out of [0,1]", q.Confidence)
	}
	if !q.Sentiment.Valid() {
		return fmt.Errorf("normalized query: invalid sentiment %q", q.Sentiment)
	}
	return nil
}

// RoutingDecision is the committed routing outcome for one query.
// Construct it with NewRoutingDecision so the escalation invariant holds.
type RoutingDecision struct {
	Department Department `json:"department"`
	Priority   Priority   `json:"priority"`

	// Escalate marks the request for mandatory human review.
	Escalate bool `json:"escalate"`

	// Reason is non-nil exactly when Escalate is true.
	Reason *EscalationReason `json:"escalation_reason,omitempty"`

	// SLAHours is the expected response time, strictly determined by Priority.
	SLAHours int `json:"sla_hours"`

	// RuleTrace names every rule that fired, in application order. It is
	// informational only and never logic-bearing.
	RuleTrace []string `json:"rule_trace,omitempty"`
}

// NewRoutingDecision validates and builds a RoutingDecision. It rejects any
// combination that violates the escalation invariant (escalate without a
// reason, or a reason without escalation) instead of letting a partially
// invalid decision exist.
func NewRoutingDecision(dept Department, prio Priority, escalate bool, reason *EscalationReason, slaHours int, trace []string) (RoutingDecision, error) {
	if !dept.Valid() {
		return RoutingDecision{}, fmt.Errorf("routing decision: invalid department %q", dept)
	}
	if !prio.Valid() {
		return RoutingDecision{}, fmt.Errorf("routing decision: invalid priority %q", prio)
	}
	if escalate && reason == nil {
		return RoutingDecision{}, fmt.Errorf("routing decision: escalation requires a reason")
	}
	if !escalate && reason != nil {
		return RoutingDecision{}, fmt.Errorf("routing decision: reason %q set without escalation", *reason)
	}
	if reason != nil && !reason.Valid() {
		return RoutingDecision{}, fmt.Errorf("routing decision: invalid escalation reason %q", *reason)
	}
	if slaHours <= 0 {
		return RoutingDecision{}, fmt.Errorf("routing decision: sla hours must be positive, got %d", slaHours)
	}
	return RoutingDecision{
		Department: dept,
		Priority:   prio,
		Escalate:   escalate,
		Reason:     reason,
		SLAHours:   slaHours,
		RuleTrace:  trace,
	}, nil
}

// Article is a knowledge-base search hit.
type Article struct {
	ID         string      `json:"article_id"`
	Title      string      `json:"title"`
	URL        string      `json:"url"`
	Snippet    string      `json:"snippet,omitempty"`
	Score      float64     `json:"relevance_score"`
	Department *Department `json:"department,omitempty"`
}

// ArticleContent carries the full body of an article for response drafting.
type ArticleContent struct {
	ID      string   `json:"article_id"`
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Snippet string   `json:"snippet,omitempty"`
	Tags    []string `json:"tags,omitempty"`
}

// ResolutionOutcome is the final result of one decided turn.
type ResolutionOutcome struct {
	// TicketID is present iff a ticket was created.
	TicketID  string `json:"ticket_id,omitempty"`
	TicketURL string `json:"ticket_url,omitempty"`

	Department Department    `json:"department"`
	Status     OutcomeStatus `json:"status"`

	// Articles holds at most 3 knowledge articles, sorted by descending
	// relevance score.
	Articles []Article `json:"knowledge_articles"`

	// SLAText is the human-readable response-time estimate.
	SLAText string `json:"estimated_response_time"`

	// Escalated mirrors RoutingDecision.Escalate for decided turns.
	Escalated bool `json:"escalated"`

	// Message is the user-facing response text drafted by the classifier
	// collaborator; the engine only decides which facts it must contain.
	Message string `json:"message"`
}

// ConversationTurn records one prior turn of a session.
type ConversationTurn struct {
	TurnNumber int       `json:"turn_number"`
	Timestamp  time.Time `json:"timestamp"`
	Intent     string    `json:"intent"`
	TicketID   string    `json:"ticket_id,omitempty"`
	Escalated  bool      `json:"escalated"`
}

// Session is a requester's conversation context for multi-turn interactions.
// The session store owns persistence; the engine reads attempts and history
// before routing and the caller writes them back after the turn completes.
type Session struct {
	ID          string    `json:"session_id"`
	SubjectHash string    `json:"subject_hash"`
	CreatedAt   time.Time `json:"created_at"`
	LastActive  time.Time `json:"last_active"`

	// History is append-only within a session and truncated to a configured
	// maximum number of turns.
	History []ConversationTurn `json:"conversation_history"`

	// ClarificationAttempts counts consecutive disambiguation attempts.
	// It resets to zero after a decided (non-clarification) turn.
	ClarificationAttempts int `json:"clarification_attempts"`

	// TTLSeconds is the store-level expiry; the engine never deletes sessions.
	TTLSeconds int `json:"ttl"`
}

// AppendTurn appends a turn and truncates history to maxTurns, keeping the
// most recent entries.
func (s *Session) AppendTurn(turn ConversationTurn, maxTurns int) {
	s.History = append(s.History, turn)
	if maxTurns > 0 && len(s.History) > maxTurns {
		s.History = s.History[len(s.History)-maxTurns:]
	}
}

// AuditRecord is an immutable record of one decided interaction.
type AuditRecord struct {
	LogID       string    `json:"log_id"`
	Timestamp   time.Time `json:"timestamp"`
	SubjectHash string    `json:"subject_hash"`
	SessionID   string    `json:"session_id"`

	Intent     string     `json:"detected_intent"`
	Confidence float64    `json:"confidence_score"`
	Department Department `json:"routed_department"`
	TicketID   string     `json:"ticket_id,omitempty"`

	Escalated bool              `json:"escalated"`
	Reason    *EscalationReason `json:"escalation_reason,omitempty"`

	PIIDetected    bool      `json:"pii_detected"`
	Sentiment      Sentiment `json:"sentiment"`
	ResponseTimeMS int64     `json:"response_time_ms"`
}

// ticketIDPattern is the contract for ticket identifiers:
// TKT-<dept code>-<yyyymmdd>-<4 digit sequence>.
var ticketIDPattern = regexp.MustCompile(`^TKT-[A-Z]{2,3}-\d{8}-\d{4}$`)

// ValidTicketID reports whether id matches the ticket id contract. An id
// produced by a ticket store that fails this check is a defect in the store,
// not a recoverable runtime condition.
func ValidTicketID(id string) bool {
	return ticketIDPattern.MatchString(id)
}
