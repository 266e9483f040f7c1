// Copyright 2026 The frontdoor Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package triage

import (
	"context"
	"fmt"
	"sort"
	"strings"

	log "github.com/sirupsen/logrus"
)

// maxArticles bounds the number of knowledge articles returned per turn.
const maxArticles = 3

// maxDescriptionMessageLen bounds how much of the raw message a ticket
// description may carry when no PII was detected.
const maxDescriptionMessageLen = 500

// ResolverConfig holds the self-service threshold the Resolver decides with.
type ResolverConfig struct {
	// KBSelfServiceThreshold is the minimum top-article relevance at which
	// a low/medium priority request resolves without a ticket. Inclusive.
	KBSelfServiceThreshold float64
}

// Resolver is the resolution decision engine. Given a routing outcome it
// decides between creating a ticket and knowledge-base self-service, and
// computes the final outcome status.
type Resolver struct {
	cfg       ResolverConfig
	tickets   TicketCreator
	knowledge KnowledgeSearcher
	responder Classifier
}

// NewResolver builds a Resolver with its collaborators injected.
func NewResolver(cfg ResolverConfig, tickets TicketCreator, knowledge KnowledgeSearcher, responder Classifier) *Resolver {
	return &Resolver{cfg: cfg, tickets: tickets, knowledge: knowledge, responder: responder}
}

// Resolve executes the resolution decision for one decided turn. The
// knowledge base is always searched first; escalation and high priority then
// win over self-service regardless of article quality. A ticket-creation
// failure is fatal for the turn (status error, no fabricated id); a KB
// failure degrades to an empty article list.
func (r *Resolver) Resolve(ctx context.Context, q NormalizedQuery, routing RoutingDecision, subjectHash, message string) (ResolutionOutcome, error) {
	articles, contents := r.searchKnowledge(ctx, q, routing.Department)

	var ticketID, ticketURL string
	var status OutcomeStatus

	if r.shouldCreateTicket(routing, articles) {
		summary := ticketSummary(q)
		description := ticketDescription(q, message)

		id, url, err := r.tickets.Create(ctx, TicketRequest{
			Department:  routing.Department,
			Priority:    routing.Priority,
			Summary:     summary,
			Description: description,
			SubjectHash: subjectHash,
			Entities:    q.Entities,
		})
		if err != nil {
			log.WithError(err).Error("ticket creation failed")
			return ResolutionOutcome{
				Department: routing.Department,
				Status:     StatusError,
				Articles:   articles,
				SLAText:    FormatSLA(routing.SLAHours),
				Escalated:  routing.Escalate,
				Message:    "We could not record your request. Please try again in a few minutes.",
			}, nil
		}
		ticketID, ticketURL = id, url

		if routing.Escalate {
			status = StatusEscalated
		} else {
			status = StatusCreated
		}
	} else {
		status = StatusKBOnly
	}

	slaText := FormatSLA(routing.SLAHours)

	responseText, err := r.responder.GenerateResponse(ctx, ResponseRequest{
		Intent:     q.Intent,
		Department: routing.Department,
		TicketID:   ticketID,
		Escalated:  routing.Escalate,
		SLAText:    slaText,
		Message:    message,
		Articles:   articles,
		Contents:   contents,
	})
	if err != nil {
		// Wording is best-effort; the facts below are authoritative.
		log.WithError(err).Warn("response drafting failed, using plain fallback")
		responseText = fmt.Sprintf("Your request was routed to %s. Expected response %s.",
			routing.Department.DisplayName(), slaText)
	}

	return ResolutionOutcome{
		TicketID:   ticketID,
		TicketURL:  ticketURL,
		Department: routing.Department,
		Status:     status,
		Articles:   articles,
		SLAText:    slaText,
		Escalated:  routing.Escalate,
		Message:    responseText,
	}, nil
}

// ClarificationOutcome produces the outcome for a turn that asks the user a
// follow-up question: no ticket, no knowledge search, never escalated.
func (r *Resolver) ClarificationOutcome(question string) ResolutionOutcome {
	return ResolutionOutcome{
		Department: DepartmentIT, // placeholder, not routed yet
		Status:     StatusPendingClarification,
		Articles:   []Article{},
		SLAText:    "pending",
		Escalated:  false,
		Message:    question,
	}
}

// shouldCreateTicket decides ticket necessity. The ordering is load-bearing:
// escalation and high priority always require a ticket; only low/medium
// priority requests may resolve via the knowledge base.
func (r *Resolver) shouldCreateTicket(routing RoutingDecision, articles []Article) bool {
	if routing.Escalate {
		return true
	}
	if routing.Priority == PriorityHigh || routing.Priority == PriorityUrgent {
		return true
	}
	if len(articles) > 0 && articles[0].Score >= r.cfg.KBSelfServiceThreshold {
		return false
	}
	return true
}

// searchKnowledge queries the knowledge base using the intent and string
// entity values. Escalated requests search across all departments.
func (r *Resolver) searchKnowledge(ctx context.Context, q NormalizedQuery, department Department) ([]Article, []ArticleContent) {
	terms := []string{strings.ReplaceAll(q.Intent, "_", " ")}
	for _, v := range q.Entities {
		if s, ok := v.(string); ok {
			terms = append(terms, s)
		}
	}
	query := strings.Join(terms, " ")

	var deptFilter *Department
	if department != DepartmentEscalateToHuman {
		d := department
		deptFilter = &d
	}

	articles, contents, err := r.knowledge.SearchWithContent(ctx, query, deptFilter, maxArticles)
	if err != nil {
		log.WithError(err).Warn("knowledge search failed, continuing without articles")
		return []Article{}, nil
	}
	if articles == nil {
		articles = []Article{}
	}
	return articles, contents
}

// ticketSummary builds the brief ticket title from the intent.
func ticketSummary(q NormalizedQuery) string {
	words := strings.Fields(strings.ReplaceAll(q.Intent, "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ") + " request"
}

// ticketDescription builds a PII-safe ticket description. The raw message is
// included (truncated) only when no PII was detected.
func ticketDescription(q NormalizedQuery, message string) string {
	lines := []string{
		fmt.Sprintf("Intent: %s", q.Intent),
		fmt.Sprintf("Category: %s", q.Category),
		fmt.Sprintf("Confidence: %.2f", q.Confidence),
		fmt.Sprintf("Sentiment: %s", q.Sentiment),
	}

	if len(q.Entities) > 0 {
		pairs := make([]string, 0, len(q.Entities))
		for _, k := range sortedKeys(q.Entities) {
			pairs = append(pairs, fmt.Sprintf("%s: %v", k, q.Entities[k]))
		}
		lines = append(lines, "Entities: "+strings.Join(pairs, ", "))
	}

	if len(q.UrgencyTerms) > 0 {
		lines = append(lines, "Urgency: "+strings.Join(q.UrgencyTerms, ", "))
	}

	if q.PIIDetected {
		lines = append(lines, "Note: PII detected in original message (not included)")
	} else {
		msg := message
		if len(msg) > maxDescriptionMessageLen {
			msg = msg[:maxDescriptionMessageLen]
		}
		lines = append(lines, "User message: "+msg)
	}

	return strings.Join(lines, "\n")
}

// FormatSLA renders SLA hours as a human-readable estimate.
func FormatSLA(hours int) string {
	switch hours {
	case 1:
		return "within 1 hour"
	case 4:
		return "within 4 hours"
	case 24:
		return "within 1 business day"
	case 48:
		return "within 2 business days"
	case 72:
		return "within 3 business days"
	}
	if hours < 24 {
		return fmt.Sprintf("within %d hours", hours)
	}
	days := hours / 24
	if days == 1 {
		return "within 1 business day"
	}
	return fmt.Sprintf("within %d business days", days)
}

// sortedKeys keeps ticket descriptions stable across runs.
func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
