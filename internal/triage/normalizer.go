// Copyright 2026 The frontdoor Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package triage

import (
	"context"

	log "github.com/sirupsen/logrus"
)

// fallbackConfidence is the confidence assigned when classification fails.
const fallbackConfidence = 0.3

// Normalizer wraps the external classifier and converts its raw output into
// a canonical NormalizedQuery. It contains no business logic.
type Normalizer struct {
	classifier Classifier
}

// NewNormalizer builds a Normalizer over the given classifier.
func NewNormalizer(classifier Classifier) *Normalizer {
	return &Normalizer{classifier: classifier}
}

// Normalize classifies a message and returns the canonical result. It never
// fails: any classifier error or malformed field falls back to a
// conservative default that forces escalation, so a query the system cannot
// understand is never silently under-escalated.
func (n *Normalizer) Normalize(ctx context.Context, message string, history []ConversationTurn) NormalizedQuery {
	q, err := n.classifier.Classify(ctx, message, history)
	if err != nil {
		log.WithError(err).Warn("classifier failed, using fail-safe fallback")
		return fallbackQuery()
	}
	if err := q.Validate(); err != nil {
		log.WithError(err).Warn("classifier returned malformed result, using fail-safe fallback")
		return fallbackQuery()
	}
	if q.Entities == nil {
		q.Entities = map[string]any{}
	}
	return q
}

// GenerateClarification drafts a follow-up question for an ambiguous
// message.
func (n *Normalizer) GenerateClarification(ctx context.Context, message string, candidates []string) (string, error) {
	return n.classifier.GenerateClarification(ctx, message, candidates)
}

// fallbackQuery is the fail-safe result for unclassifiable input.
func fallbackQuery() NormalizedQuery {
	return NormalizedQuery{
		Intent:              "general_question",
		Category:            CategoryGeneralInquiry,
		SuggestedDepartment: DepartmentEscalateToHuman,
		Entities:            map[string]any{},
		Confidence:          fallbackConfidence,
		PreEscalation:       true,
		Sentiment:           SentimentNeutral,
	}
}
