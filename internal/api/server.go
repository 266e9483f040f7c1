// Copyright 2026 The frontdoor Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package api exposes the support-query decision engine over HTTP. The
// handlers own no business logic: they validate input, serialize session
// access, call the engine and shape the response.
package api

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/campushq/frontdoor/internal/policy"
	"github.com/campushq/frontdoor/internal/store"
	"github.com/campushq/frontdoor/internal/triage"
)

// Server hosts the HTTP API over the decision engine.
type Server struct {
	normalizer *triage.Normalizer
	resolver   *triage.Resolver
	classifier triage.Classifier
	sessions   triage.SessionStore
	tickets    store.TicketStore
	knowledge  *store.KnowledgeStore
	audit      triage.AuditSink
	policies   *policy.Engine

	// router is swapped atomically when policy rules reload.
	router atomic.Pointer[triage.Router]

	// sessionLocks serializes concurrent turns for the same session id.
	sessionLocks sync.Map

	sessionTTL int
	maxTurns   int
	httpServer *http.Server
}

// Options collects the collaborators and limits a Server needs.
type Options struct {
	Normalizer *triage.Normalizer
	Router     *triage.Router
	Resolver   *triage.Resolver
	Classifier triage.Classifier
	Sessions   triage.SessionStore
	Tickets    store.TicketStore
	Knowledge  *store.KnowledgeStore
	Audit      triage.AuditSink
	// Policies is optional; when set the rule list is exposed on the admin
	// surface.
	Policies *policy.Engine

	SessionTTLSeconds int
	MaxTurns          int
}

// NewServer builds a Server from its options.
func NewServer(opts Options) (*Server, error) {
	if opts.Normalizer == nil || opts.Router == nil || opts.Resolver == nil {
		return nil, fmt.Errorf("api server: normalizer, router and resolver are required")
	}
	if opts.Sessions == nil || opts.Tickets == nil || opts.Knowledge == nil {
		return nil, fmt.Errorf("api server: session, ticket and knowledge stores are required")
	}
	s := &Server{
		normalizer: opts.Normalizer,
		resolver:   opts.Resolver,
		classifier: opts.Classifier,
		sessions:   opts.Sessions,
		tickets:    opts.Tickets,
		knowledge:  opts.Knowledge,
		audit:      opts.Audit,
		policies:   opts.Policies,
		sessionTTL: opts.SessionTTLSeconds,
		maxTurns:   opts.MaxTurns,
	}
	s.router.Store(opts.Router)
	return s, nil
}

// ReplaceRouter swaps the routing engine, used when policy rules reload.
// In-flight requests keep the router they started with.
func (s *Server) ReplaceRouter(router *triage.Router) {
	if router != nil {
		s.router.Store(router)
	}
}

// BuildEngine assembles the Gin engine with all routes registered.
func (s *Server) BuildEngine(debug bool) *gin.Engine {
	if debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(requestIDMiddleware())

	api := engine.Group("/api")
	{
		api.POST("/chat", s.ChatHandler)
		api.GET("/tickets", s.ListTicketsHandler)
		api.GET("/tickets/:id", s.GetTicketHandler)
		api.GET("/knowledge/search", s.KnowledgeSearchHandler)
		api.GET("/health", s.HealthHandler)

		admin := api.Group("/admin")
		{
			admin.GET("/tickets", s.ListTicketsHandler)
			admin.PATCH("/tickets/:id", s.UpdateTicketHandler)
			admin.DELETE("/tickets/:id", s.DeleteTicketHandler)
			admin.GET("/policy/rules", s.PolicyRulesHandler)
		}
	}

	return engine
}

// Run starts the HTTP server and blocks until the context is canceled, then
// shuts down gracefully.
func (s *Server) Run(ctx context.Context, host string, port int, debug bool) error {
	engine := s.BuildEngine(debug)

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", host, port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("API server listening on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	log.Info("Shutting down API server...")
	return s.httpServer.Shutdown(shutdownCtx)
}

// requestIDMiddleware assigns a short request id used in log correlation.
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()[:8]
		}
		c.Set("request_id", id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

// lockSession serializes turns per session id and returns the unlock func.
func (s *Server) lockSession(sessionID string) func() {
	v, _ := s.sessionLocks.LoadOrStore(sessionID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}
