// Copyright 2026 The frontdoor Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/campushq/frontdoor/internal/policy"
	"github.com/campushq/frontdoor/internal/triage"
)

// KnowledgeSearchHandler searches the knowledge base directly.
func (s *Server) KnowledgeSearchHandler(c *gin.Context) {
	query := c.Query("q")
	if len(query) < 2 || len(query) > 500 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "q must be between 2 and 500 characters"})
		return
	}

	var deptFilter *triage.Department
	if deptStr := c.Query("department"); deptStr != "" {
		dept, err := triage.ParseDepartment(deptStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		deptFilter = &dept
	}

	limit := 3
	if limitStr := c.Query("limit"); limitStr != "" {
		n, err := strconv.Atoi(limitStr)
		if err != nil || n < 1 || n > 10 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 10"})
			return
		}
		limit = n
	}

	articles, err := s.knowledge.Search(c.Request.Context(), query, deptFilter, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "knowledge search unavailable"})
		return
	}
	if articles == nil {
		articles = []triage.Article{}
	}

	c.JSON(http.StatusOK, gin.H{"articles": articles, "count": len(articles)})
}

// PolicyRulesHandler lists the loaded policy rules.
func (s *Server) PolicyRulesHandler(c *gin.Context) {
	rules := []policy.Rule{}
	if s.policies != nil {
		rules = s.policies.Loaded()
	}
	c.JSON(http.StatusOK, gin.H{"rules": rules, "count": len(rules)})
}

// HealthHandler aggregates collaborator health probes. The service is
// "healthy" when every probe passes, "degraded" when some fail, and
// "unhealthy" (503) when all fail.
func (s *Server) HealthHandler(c *gin.Context) {
	ctx := c.Request.Context()

	probes := map[string]triage.HealthResult{
		"classifier":     s.classifier.Health(ctx),
		"knowledge_base": s.knowledge.Health(ctx),
		"tickets":        s.tickets.Health(ctx),
		"sessions":       s.sessions.Health(ctx),
	}

	healthy := 0
	for _, r := range probes {
		if r.Healthy {
			healthy++
		}
	}

	status := "healthy"
	code := http.StatusOK
	switch {
	case healthy == len(probes):
	case healthy == 0:
		status = "unhealthy"
		code = http.StatusServiceUnavailable
	default:
		status = "degraded"
	}

	c.JSON(code, gin.H{"status": status, "services": probes})
}
