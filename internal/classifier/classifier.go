// Copyright 2026 The frontdoor Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package classifier provides a pattern-matching implementation of the
// triage.Classifier collaborator. It scores messages against embedded intent
// examples and detects PII, sentiment and urgency with fixed term lists.
// A hosted language model can replace it behind the same interface.
package classifier

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	_ "embed"

	"gopkg.in/yaml.v3"

	"github.com/campushq/frontdoor/internal/triage"
)

//go:embed intents.yaml
var intentData []byte

// intentEntry is one intent definition from the embedded data file.
type intentEntry struct {
	Category   string   `yaml:"category"`
	Department string   `yaml:"department"`
	Examples   []string `yaml:"examples"`
}

// dataFile is the shape of intents.yaml.
type dataFile struct {
	PolicyKeywords    []string               `yaml:"policy_keywords"`
	SensitiveTopics   []string               `yaml:"sensitive_topics"`
	UrgencyIndicators []string               `yaml:"urgency_indicators"`
	Intents           map[string]intentEntry `yaml:"intents"`
}

var (
	ssnPattern        = regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`)
	emailPattern      = regexp.MustCompile(`\b[\w.-]+@[\w.-]+\.\w+\b`)
	phonePattern      = regexp.MustCompile(`\b\d{3}[-.]?\d{3}[-.]?\d{4}\b`)
	creditCardPattern = regexp.MustCompile(`\b\d{4}[-\s]?\d{4}[-\s]?\d{4}[-\s]?\d{4}\b`)
	courseCodePattern = regexp.MustCompile(`(?i)\b([A-Z]{2,4})\s*(\d{3,4})\b`)
)

var frustratedTerms = []string{
	"frustrated", "annoyed", "angry", "terrible", "awful",
	"ridiculous", "unacceptable", "disappointed", "upset",
	"not working", "broken", "failed", "can't believe",
	"this is crazy", "waste of time",
}

var satisfiedTerms = []string{
	"thank you", "thanks", "great", "perfect", "excellent", "helpful",
}

var humanRequestTerms = []string{
	"talk to a person", "speak to someone", "human please",
	"real person", "talk to human", "connect me to",
	"transfer me", "speak to a human", "live agent",
}

var knownBuildings = []string{"smith hall", "johnson center", "library", "student union", "dorm"}

var knownSystems = []string{"canvas", "blackboard", "banner", "workday", "outlook", "vpn"}

// PatternClassifier matches messages against intent examples by word
// overlap. It implements triage.Classifier.
type PatternClassifier struct {
	data dataFile
}

// New builds a PatternClassifier from the embedded intent data.
func New() (*PatternClassifier, error) {
	var data dataFile
	if err := yaml.Unmarshal(intentData, &data); err != nil {
		return nil, fmt.Errorf("parse intent data: %w", err)
	}
	if len(data.Intents) == 0 {
		return nil, fmt.Errorf("intent data contains no intents")
	}
	return &PatternClassifier{data: data}, nil
}

// Classify analyzes a message and returns the structured result.
func (c *PatternClassifier) Classify(_ context.Context, message string, _ []triage.ConversationTurn) (triage.NormalizedQuery, error) {
	piiDetected, piiKinds := detectPII(message)
	sentiment := c.detectSentiment(message)
	urgencyTerms := c.findUrgencyTerms(message)
	preEscalation, escalationHint := c.checkPreEscalation(message)

	intent, category, department, confidence := c.matchIntent(message)

	// A pre-escalation hint overrides the matched category so the router
	// derives the right reason.
	if preEscalation {
		department = triage.DepartmentEscalateToHuman
		switch escalationHint {
		case "user_requested_human":
			category = triage.CategoryHumanRequest
			intent = "request_human"
		case "policy_keyword_detected":
			category = triage.CategoryPolicyException
		}
	}

	return triage.NormalizedQuery{
		Intent:              intent,
		Category:            category,
		SuggestedDepartment: department,
		Entities:            extractEntities(message),
		Confidence:          confidence,
		PreEscalation:       preEscalation,
		PIIDetected:         piiDetected,
		PIIKinds:            piiKinds,
		Sentiment:           sentiment,
		UrgencyTerms:        urgencyTerms,
	}, nil
}

// matchIntent scores the message against each intent's examples and returns
// the best match, defaulting to a low-confidence general inquiry.
func (c *PatternClassifier) matchIntent(message string) (string, triage.IntentCategory, triage.Department, float64) {
	lower := strings.ToLower(message)
	messageWords := wordSet(lower)

	bestScore := 0.0
	bestIntent := ""
	var bestEntry intentEntry

	for name, entry := range c.data.Intents {
		for _, example := range entry.Examples {
			exampleLower := strings.ToLower(example)
			exampleWords := wordSet(exampleLower)

			overlap := 0
			for w := range exampleWords {
				if messageWords[w] {
					overlap++
				}
			}
			score := float64(overlap) / float64(max(len(exampleWords), 1))

			if strings.Contains(lower, exampleLower) || strings.Contains(exampleLower, lower) {
				if score < 0.85 {
					score = 0.85
				}
			}

			if score > bestScore || (score == bestScore && name < bestIntent) {
				bestScore = score
				bestIntent = name
				bestEntry = entry
			}
		}
	}

	if bestIntent != "" && bestScore >= 0.3 {
		confidence := 0.5 + bestScore*0.5
		if confidence > 0.95 {
			confidence = 0.95
		}
		return bestIntent,
			triage.IntentCategory(bestEntry.Category),
			triage.Department(bestEntry.Department),
			confidence
	}

	return "general_question", triage.CategoryGeneralInquiry, triage.DepartmentIT, 0.45
}

// checkPreEscalation looks for policy keywords, sensitive topics and
// explicit human requests that must bypass automated routing.
func (c *PatternClassifier) checkPreEscalation(message string) (bool, string) {
	lower := strings.ToLower(message)

	for _, kw := range c.data.PolicyKeywords {
		if strings.Contains(lower, kw) {
			return true, "policy_keyword_detected"
		}
	}
	for _, topic := range c.data.SensitiveTopics {
		if strings.Contains(lower, topic) {
			return true, "sensitive_topic"
		}
	}
	for _, term := range humanRequestTerms {
		if strings.Contains(lower, term) {
			return true, "user_requested_human"
		}
	}
	return false, ""
}

func (c *PatternClassifier) detectSentiment(message string) triage.Sentiment {
	lower := strings.ToLower(message)

	for _, term := range frustratedTerms {
		if strings.Contains(lower, term) {
			return triage.SentimentFrustrated
		}
	}
	for _, term := range c.data.UrgencyIndicators {
		if strings.Contains(lower, term) {
			return triage.SentimentUrgent
		}
	}
	for _, term := range satisfiedTerms {
		if strings.Contains(lower, term) {
			return triage.SentimentSatisfied
		}
	}
	return triage.SentimentNeutral
}

func (c *PatternClassifier) findUrgencyTerms(message string) []string {
	lower := strings.ToLower(message)
	var found []string
	for _, term := range c.data.UrgencyIndicators {
		if strings.Contains(lower, term) {
			found = append(found, term)
		}
	}
	return found
}

// detectPII flags PII kinds without retaining any matched value.
func detectPII(message string) (bool, []string) {
	var kinds []string
	lower := strings.ToLower(message)

	if ssnPattern.MatchString(message) {
		kinds = append(kinds, "ssn")
	}
	if emailPattern.MatchString(message) {
		kinds = append(kinds, "email")
	}
	if phonePattern.MatchString(message) {
		kinds = append(kinds, "phone")
	}
	if creditCardPattern.MatchString(message) {
		kinds = append(kinds, "credit_card")
	}
	for _, term := range []string{"born on", "birthday", "date of birth", "dob"} {
		if strings.Contains(lower, term) {
			kinds = append(kinds, "dob")
			break
		}
	}
	return len(kinds) > 0, kinds
}

// extractEntities pulls conventional entities (building, course code,
// system) out of the message.
func extractEntities(message string) map[string]any {
	entities := map[string]any{}
	lower := strings.ToLower(message)

	for _, building := range knownBuildings {
		if strings.Contains(lower, building) {
			entities["building"] = titleCase(building)
			break
		}
	}

	if m := courseCodePattern.FindStringSubmatch(message); m != nil {
		entities["course_code"] = strings.ToUpper(m[1]) + m[2]
	}

	for _, system := range knownSystems {
		if strings.Contains(lower, system) {
			entities["system"] = titleCase(system)
			break
		}
	}

	return entities
}

// Health reports the classifier as available; the pattern matcher has no
// external dependency to probe.
func (c *PatternClassifier) Health(_ context.Context) triage.HealthResult {
	start := time.Now()
	_ = len(c.data.Intents)
	return triage.HealthResult{Healthy: true, LatencyMS: time.Since(start).Milliseconds()}
}

func wordSet(s string) map[string]bool {
	set := map[string]bool{}
	for _, w := range strings.Fields(s) {
		set[w] = true
	}
	return set
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
