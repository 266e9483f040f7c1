// Copyright 2026 The frontdoor Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushq/frontdoor/internal/classifier"
	"github.com/campushq/frontdoor/internal/store"
	"github.com/campushq/frontdoor/internal/triage"
)

type testHarness struct {
	engine *gin.Engine
	audit  *store.MemoryAuditSink
}

func newTestHarness(t *testing.T) *testHarness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cls, err := classifier.New()
	require.NoError(t, err)

	knowledge, err := store.NewKnowledgeStore()
	require.NoError(t, err)

	tickets := store.NewMemoryTicketStore("https://servicenow.university.edu/ticket")
	sessions := store.NewMemorySessionStore()
	audit := store.NewMemoryAuditSink()

	router, err := triage.NewRouter(triage.RouterConfig{
		ConfidenceThreshold:      0.70,
		MaxClarificationAttempts: 3,
		SLAHours: map[triage.Priority]int{
			triage.PriorityUrgent: 1, triage.PriorityHigh: 4,
			triage.PriorityMedium: 24, triage.PriorityLow: 72,
		},
		DepartmentOverrides: map[triage.IntentCategory]triage.Department{
			triage.CategoryAccountAccess:   triage.DepartmentIT,
			triage.CategoryAcademicRecords: triage.DepartmentRegistrar,
			triage.CategoryFinancial:       triage.DepartmentFinancialAid,
			triage.CategoryFacilities:      triage.DepartmentFacilities,
			triage.CategoryEnrollment:      triage.DepartmentRegistrar,
			triage.CategoryStudentServices: triage.DepartmentStudentAffairs,
			triage.CategoryPolicyException: triage.DepartmentStudentAffairs,
			triage.CategoryGeneralInquiry:  triage.DepartmentIT,
			triage.CategoryStatusCheck:     triage.DepartmentIT,
			triage.CategoryHumanRequest:    triage.DepartmentEscalateToHuman,
		},
	})
	require.NoError(t, err)

	resolver := triage.NewResolver(triage.ResolverConfig{KBSelfServiceThreshold: 0.5}, tickets, knowledge, cls)

	server, err := NewServer(Options{
		Normalizer:        triage.NewNormalizer(cls),
		Router:            router,
		Resolver:          resolver,
		Classifier:        cls,
		Sessions:          sessions,
		Tickets:           tickets,
		Knowledge:         knowledge,
		Audit:             audit,
		SessionTTLSeconds: 3600,
		MaxTurns:          50,
	})
	require.NoError(t, err)

	return &testHarness{engine: server.BuildEngine(false), audit: audit}
}

func (h *testHarness) chat(t *testing.T, body string) (int, ChatResponse) {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/chat", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	h.engine.ServeHTTP(w, req)

	var resp ChatResponse
	if w.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w.Code, resp
}

func (h *testHarness) get(t *testing.T, path string) (int, map[string]any) {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	h.engine.ServeHTTP(w, req)

	var body map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return w.Code, body
}

func TestChat_SelfServiceResolvesWithoutTicket(t *testing.T) {
	h := newTestHarness(t)

	code, resp := h.chat(t, `{"message": "I forgot my password, how do I reset it?"}`)
	require.Equal(t, http.StatusOK, code)

	assert.Equal(t, triage.StatusKBOnly, resp.Status)
	assert.Empty(t, resp.TicketID)
	assert.Equal(t, "IT", resp.Department)
	assert.False(t, resp.Escalated)
	assert.NotEmpty(t, resp.SessionID)
	assert.NotEmpty(t, resp.Articles)
	assert.Equal(t, "KB-1001", resp.Articles[0].ID)
	assert.Contains(t, resp.Message, "resolve")
}

func TestChat_UrgentIssueCreatesTicket(t *testing.T) {
	h := newTestHarness(t)

	code, resp := h.chat(t, `{"message": "this is urgent, I am locked out of canvas and my exam is today"}`)
	require.Equal(t, http.StatusOK, code)

	assert.Equal(t, triage.StatusCreated, resp.Status)
	assert.True(t, triage.ValidTicketID(resp.TicketID), resp.TicketID)
	assert.Equal(t, "HIGH", resp.Priority)
	assert.Equal(t, "within 4 hours", resp.SLAText)
	assert.Contains(t, resp.Message, resp.TicketID)
}

func TestChat_GradeAppealEscalatesWithoutNamingDepartment(t *testing.T) {
	h := newTestHarness(t)

	code, resp := h.chat(t, `{"message": "I want to appeal my final grade in BIO 201"}`)
	require.Equal(t, http.StatusOK, code)

	assert.Equal(t, triage.StatusEscalated, resp.Status)
	assert.True(t, resp.Escalated)
	require.NotNil(t, resp.EscalationReason)
	assert.Equal(t, triage.ReasonPolicyKeyword, *resp.EscalationReason)
	assert.Empty(t, resp.Department)
	assert.True(t, triage.ValidTicketID(resp.TicketID))
	assert.True(t, strings.HasPrefix(resp.TicketID, "TKT-ESC-"), resp.TicketID)
	assert.Equal(t, "URGENT", resp.Priority)
}

func TestChat_AmbiguousMessageAsksForClarificationThenEscalates(t *testing.T) {
	h := newTestHarness(t)

	var sessionID string
	for i := 0; i < 3; i++ {
		body := `{"message": "xyzzy plugh quux"`
		if sessionID != "" {
			body += fmt.Sprintf(`, "session_id": %q`, sessionID)
		}
		body += "}"

		code, resp := h.chat(t, body)
		require.Equal(t, http.StatusOK, code)
		assert.Equal(t, triage.StatusPendingClarification, resp.Status, "turn %d", i+1)
		assert.False(t, resp.Escalated)
		assert.Empty(t, resp.TicketID)
		sessionID = resp.SessionID
	}

	// The fourth low-confidence turn must stop asking and escalate.
	code, resp := h.chat(t, fmt.Sprintf(`{"message": "xyzzy plugh quux", "session_id": %q}`, sessionID))
	require.Equal(t, http.StatusOK, code)

	assert.Equal(t, triage.StatusEscalated, resp.Status)
	require.NotNil(t, resp.EscalationReason)
	assert.Equal(t, triage.ReasonMaxClarificationsExceeded, *resp.EscalationReason)
	assert.True(t, triage.ValidTicketID(resp.TicketID))
}

func TestChat_DecidedTurnResetsClarificationAttempts(t *testing.T) {
	h := newTestHarness(t)

	_, first := h.chat(t, `{"message": "xyzzy plugh quux"}`)
	sessionID := first.SessionID

	// A confident turn resolves and resets the counter.
	code, resp := h.chat(t, fmt.Sprintf(`{"message": "I forgot my password", "session_id": %q}`, sessionID))
	require.Equal(t, http.StatusOK, code)
	require.NotEqual(t, triage.StatusPendingClarification, resp.Status)

	// Ambiguity afterwards gets a fresh set of clarification attempts.
	for i := 0; i < 3; i++ {
		code, resp = h.chat(t, fmt.Sprintf(`{"message": "xyzzy plugh quux", "session_id": %q}`, sessionID))
		require.Equal(t, http.StatusOK, code)
		assert.Equal(t, triage.StatusPendingClarification, resp.Status, "turn %d", i+1)
	}
}

func TestChat_ValidatesMessage(t *testing.T) {
	h := newTestHarness(t)

	code, _ := h.chat(t, `{"message": ""}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = h.chat(t, `{}`)
	assert.Equal(t, http.StatusBadRequest, code)

	long := strings.Repeat("a", 2001)
	code, _ = h.chat(t, fmt.Sprintf(`{"message": %q}`, long))
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestChat_AuditRecordsDecidedTurns(t *testing.T) {
	h := newTestHarness(t)

	_, resp := h.chat(t, `{"message": "I want to appeal my final grade", "user_id": "student-42"}`)

	records := h.audit.Records()
	require.Len(t, records, 1)
	assert.Equal(t, resp.SessionID, records[0].SessionID)
	assert.True(t, records[0].Escalated)
	assert.Equal(t, resp.TicketID, records[0].TicketID)
	// The subject is hashed, never raw.
	assert.NotEqual(t, "student-42", records[0].SubjectHash)
	assert.Len(t, records[0].SubjectHash, 64)
}

func TestChat_ClarificationTurnsAreNotAudited(t *testing.T) {
	h := newTestHarness(t)

	_, resp := h.chat(t, `{"message": "xyzzy plugh quux"}`)
	assert.Equal(t, triage.StatusPendingClarification, resp.Status)
	assert.Empty(t, h.audit.Records())
}

func TestTickets_GetAndNotFound(t *testing.T) {
	h := newTestHarness(t)

	_, resp := h.chat(t, `{"message": "this is urgent, I am locked out of canvas right away"}`)
	require.NotEmpty(t, resp.TicketID)

	code, body := h.get(t, "/api/tickets/"+resp.TicketID)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, resp.TicketID, body["ticket_id"])
	assert.Equal(t, "open", body["status"])

	code, _ = h.get(t, "/api/tickets/TKT-IT-20260827-9999")
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = h.get(t, "/api/tickets/not-a-ticket")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestTickets_ListAndAdminUpdate(t *testing.T) {
	h := newTestHarness(t)

	_, resp := h.chat(t, `{"message": "I want to appeal my final grade"}`)
	require.NotEmpty(t, resp.TicketID)

	code, body := h.get(t, "/api/tickets?department=ESCALATE_TO_HUMAN")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(1), body["count"])

	code, _ = h.get(t, "/api/tickets?department=MARKETING")
	assert.Equal(t, http.StatusBadRequest, code)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPatch, "/api/admin/tickets/"+resp.TicketID,
		bytes.NewBufferString(`{"status": "resolved", "resolution_summary": "handled by registrar"}`))
	req.Header.Set("Content-Type", "application/json")
	h.engine.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var updated store.Ticket
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.Equal(t, triage.TicketResolved, updated.Status)
	assert.Equal(t, "handled by registrar", updated.ResolutionSummary)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodDelete, "/api/admin/tickets/"+resp.TicketID, nil)
	h.engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	code, _ = h.get(t, "/api/tickets/"+resp.TicketID)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestKnowledgeSearchEndpoint(t *testing.T) {
	h := newTestHarness(t)

	code, body := h.get(t, "/api/knowledge/search?q=password+reset")
	require.Equal(t, http.StatusOK, code)
	articles := body["articles"].([]any)
	require.NotEmpty(t, articles)

	code, _ = h.get(t, "/api/knowledge/search")
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = h.get(t, "/api/knowledge/search?q=password&department=MARKETING")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestHealthEndpoint(t *testing.T) {
	h := newTestHarness(t)

	code, body := h.get(t, "/api/health")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "healthy", body["status"])

	services := body["services"].(map[string]any)
	for _, name := range []string{"classifier", "knowledge_base", "tickets", "sessions"} {
		assert.Contains(t, services, name)
	}
}

func TestRequestIDHeaderIsEchoed(t *testing.T) {
	h := newTestHarness(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("X-Request-ID", "test-req-1")
	h.engine.ServeHTTP(w, req)

	assert.Equal(t, "test-req-1", w.Header().Get("X-Request-ID"))
}
