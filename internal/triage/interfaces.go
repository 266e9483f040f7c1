// Copyright 2026 The frontdoor Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package triage

import "context"

// Classifier is the external intent-classification collaborator. The engine
// treats it as opaque: any shape of failure is absorbed by the Normalizer's
// fail-safe fallback, never surfaced to the caller.
type Classifier interface {
	// Classify analyzes a message (with optional conversation history) and
	// returns the structured classification result.
	Classify(ctx context.Context, message string, history []ConversationTurn) (NormalizedQuery, error)

	// GenerateClarification drafts a follow-up question for an ambiguous
	// message given the candidate intents.
	GenerateClarification(ctx context.Context, message string, candidates []string) (string, error)

	// GenerateResponse drafts the user-facing response text. The engine
	// decides the facts (ticket id, department, SLA, escalation disclosure);
	// the classifier decides the wording.
	GenerateResponse(ctx context.Context, req ResponseRequest) (string, error)

	// Health reports collaborator availability.
	Health(ctx context.Context) HealthResult
}

// ResponseRequest carries the facts a drafted response must contain.
type ResponseRequest struct {
	Intent     string
	Department Department
	TicketID   string
	Escalated  bool
	SLAText    string
	Message    string
	Articles   []Article
	Contents   []ArticleContent
}

// KnowledgeSearcher is the knowledge-base search collaborator. Search is
// best-effort: the resolver degrades to an empty article list on failure.
type KnowledgeSearcher interface {
	// Search returns up to limit articles ordered by descending relevance.
	// A nil department searches across all departments.
	Search(ctx context.Context, query string, department *Department, limit int) ([]Article, error)

	// SearchWithContent additionally returns full article bodies for
	// response drafting.
	SearchWithContent(ctx context.Context, query string, department *Department, limit int) ([]Article, []ArticleContent, error)

	Health(ctx context.Context) HealthResult
}

// TicketCreator creates tickets in the external ticketing system. Creation
// failure is fatal for the turn: the resolver reports a status of error and
// never fabricates a ticket id.
type TicketCreator interface {
	Create(ctx context.Context, req TicketRequest) (id, url string, err error)
	Health(ctx context.Context) HealthResult
}

// TicketRequest is the input for ticket creation. SubjectHash is the one-way
// digest of the requester identity; raw identity never reaches the engine.
type TicketRequest struct {
	Department  Department
	Priority    Priority
	Summary     string
	Description string
	SubjectHash string
	Entities    map[string]any
}

// SessionStore persists conversation state between turns. The engine assumes
// single-writer access per session; the caller serializes concurrent turns
// for the same session and commits state only after the pipeline completes.
type SessionStore interface {
	Get(ctx context.Context, sessionID string) (*Session, error)
	Create(ctx context.Context, session *Session) error
	Update(ctx context.Context, session *Session) error
	Health(ctx context.Context) HealthResult
}

// AuditSink records decided interactions for compliance and analytics.
type AuditSink interface {
	Record(ctx context.Context, rec AuditRecord) error
}

// HealthResult is one collaborator's health probe outcome.
type HealthResult struct {
	Healthy   bool   `json:"healthy"`
	LatencyMS int64  `json:"latency_ms"`
	Error     string `json:"error,omitempty"`
}
