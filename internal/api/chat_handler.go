// Copyright 2026 The frontdoor Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package api

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/campushq/frontdoor/internal/store"
	"github.com/campushq/frontdoor/internal/triage"
)

// maxMessageLen bounds accepted chat messages.
const maxMessageLen = 2000

// ChatRequest is the inbound chat turn.
type ChatRequest struct {
	Message   string `json:"message" binding:"required"`
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id"`
}

// ChatResponse is the outcome of one chat turn.
type ChatResponse struct {
	SessionID        string                   `json:"session_id"`
	Status           triage.OutcomeStatus     `json:"status"`
	Message          string                   `json:"message"`
	Department       string                   `json:"department,omitempty"`
	Priority         string                   `json:"priority,omitempty"`
	Escalated        bool                     `json:"escalated"`
	EscalationReason *triage.EscalationReason `json:"escalation_reason,omitempty"`
	TicketID         string                   `json:"ticket_id,omitempty"`
	TicketURL        string                   `json:"ticket_url,omitempty"`
	Articles         []triage.Article         `json:"knowledge_articles"`
	SLAText          string                   `json:"estimated_response_time"`
	RuleTrace        []string                 `json:"rule_trace,omitempty"`
}

// ChatHandler runs the full pipeline for one turn: normalize, clarify or
// route, resolve, commit session state, audit.
func (s *Server) ChatHandler(c *gin.Context) {
	start := time.Now()

	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message is required"})
		return
	}
	if len(req.Message) == 0 || len(req.Message) > maxMessageLen {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "message must be between 1 and 2000 characters",
		})
		return
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = store.NewSessionID()
	}
	subjectHash := hashSubject(req.UserID, sessionID)

	unlock := s.lockSession(sessionID)
	defer unlock()

	ctx := c.Request.Context()

	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "session store unavailable"})
			return
		}
		now := time.Now().UTC()
		sess = &triage.Session{
			ID:          sessionID,
			SubjectHash: subjectHash,
			CreatedAt:   now,
			LastActive:  now,
			TTLSeconds:  s.sessionTTL,
		}
		if err := s.sessions.Create(ctx, sess); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "session store unavailable"})
			return
		}
	}

	q := s.normalizer.Normalize(ctx, req.Message, sess.History)
	router := s.router.Load()

	if router.NeedsClarification(q, sess.ClarificationAttempts) {
		question, err := s.normalizer.GenerateClarification(ctx, req.Message, []string{q.Intent})
		if err != nil {
			log.WithError(err).Warn("clarification drafting failed, using generic question")
			question = "Could you tell me a bit more about what you need help with?"
		}
		outcome := s.resolver.ClarificationOutcome(question)

		// A clarification turn only bumps the attempts counter; history
		// records decided turns.
		sess.ClarificationAttempts++
		sess.LastActive = time.Now().UTC()
		if err := s.sessions.Update(ctx, sess); err != nil {
			log.WithError(err).Error("session update failed")
		}

		c.JSON(http.StatusOK, ChatResponse{
			SessionID: sessionID,
			Status:    outcome.Status,
			Message:   outcome.Message,
			Escalated: false,
			Articles:  outcome.Articles,
			SLAText:   outcome.SLAText,
		})
		return
	}

	decision, err := router.Route(q, sess.ClarificationAttempts)
	if err != nil {
		log.WithError(err).Error("routing failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "routing failed"})
		return
	}

	outcome, err := s.resolver.Resolve(ctx, q, decision, subjectHash, req.Message)
	if err != nil {
		log.WithError(err).Error("resolution failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "resolution failed"})
		return
	}

	sess.ClarificationAttempts = 0
	s.commitTurn(ctx, sess, q.Intent, outcome.TicketID, outcome.Escalated)

	if s.audit != nil {
		rec := triage.AuditRecord{
			SubjectHash:    subjectHash,
			SessionID:      sessionID,
			Intent:         q.Intent,
			Confidence:     q.Confidence,
			Department:     decision.Department,
			TicketID:       outcome.TicketID,
			Escalated:      decision.Escalate,
			Reason:         decision.Reason,
			PIIDetected:    q.PIIDetected,
			Sentiment:      q.Sentiment,
			ResponseTimeMS: time.Since(start).Milliseconds(),
		}
		if err := s.audit.Record(ctx, rec); err != nil {
			log.WithError(err).Error("audit record failed")
		}
	}

	resp := ChatResponse{
		SessionID:        sessionID,
		Status:           outcome.Status,
		Message:          outcome.Message,
		Priority:         string(decision.Priority),
		Escalated:        outcome.Escalated,
		EscalationReason: decision.Reason,
		TicketID:         outcome.TicketID,
		TicketURL:        outcome.TicketURL,
		Articles:         outcome.Articles,
		SLAText:          outcome.SLAText,
		RuleTrace:        decision.RuleTrace,
	}
	// The human-review queue is internal; escalated responses name no
	// department.
	if decision.Department != triage.DepartmentEscalateToHuman {
		resp.Department = string(decision.Department)
	}

	c.JSON(http.StatusOK, resp)
}

// commitTurn appends the turn to the session and persists it. Persistence
// failure is logged, not surfaced: the decision already stands.
func (s *Server) commitTurn(ctx context.Context, sess *triage.Session, intent, ticketID string, escalated bool) {
	now := time.Now().UTC()
	sess.AppendTurn(triage.ConversationTurn{
		TurnNumber: len(sess.History) + 1,
		Timestamp:  now,
		Intent:     intent,
		TicketID:   ticketID,
		Escalated:  escalated,
	}, s.maxTurns)
	sess.LastActive = now

	if err := s.sessions.Update(ctx, sess); err != nil {
		log.WithError(err).Error("session update failed")
	}
}

// hashSubject derives the one-way subject digest carried on tickets and
// audit records. Raw identity never leaves this function.
func hashSubject(userID, sessionID string) string {
	subject := userID
	if subject == "" {
		subject = sessionID
	}
	sum := sha256.Sum256([]byte(subject))
	return hex.EncodeToString(sum[:])
}
