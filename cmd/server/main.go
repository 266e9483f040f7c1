// Copyright 2026 The frontdoor Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package main provides the entry point for the frontdoor server: the
// university support-query routing and escalation service.
package main

import (
	"context"
	"flag"
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/campushq/frontdoor/internal/api"
	"github.com/campushq/frontdoor/internal/classifier"
	"github.com/campushq/frontdoor/internal/config"
	"github.com/campushq/frontdoor/internal/logging"
	"github.com/campushq/frontdoor/internal/policy"
	"github.com/campushq/frontdoor/internal/store"
	"github.com/campushq/frontdoor/internal/triage"
)

var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

// init initializes the shared logger setup.
func init() {
	logging.SetupBaseLogger()
}

func main() {
	fmt.Printf("frontdoor Version: %s, Commit: %s, BuiltAt: %s\n", Version, Commit, BuildDate)

	var configPath string
	var host string
	var port int
	var debug bool

	flag.StringVar(&configPath, "config", "config.yaml", "Path to the configuration file")
	flag.StringVar(&host, "host", "", "Override the configured bind host")
	flag.IntVar(&port, "port", 0, "Override the configured port")
	flag.BoolVar(&debug, "debug", false, "Enable debug logging")
	flag.Parse()

	// Environment overrides live in .env during development.
	_ = godotenv.Load()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if host != "" {
		cfg.Host = host
	}
	if port != 0 {
		cfg.Port = port
	}
	if debug {
		cfg.Debug = true
	}

	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	} else {
		log.SetLevel(log.InfoLevel)
	}
	if err := logging.ConfigureLogOutput(cfg.LoggingToFile, cfg.LogsDir); err != nil {
		log.Fatalf("Failed to configure log output: %v", err)
	}

	server, cleanup, err := buildServer(cfg)
	if err != nil {
		log.Fatalf("Failed to build server: %v", err)
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Run(ctx, cfg.Host, cfg.Port, cfg.Debug); err != nil {
		log.Fatalf("Server error: %v", err)
	}
	log.Info("Server stopped")
}

// buildServer wires every collaborator explicitly: classifier, stores,
// policy engine, router, resolver and the HTTP surface.
func buildServer(cfg *config.Config) (*api.Server, func(), error) {
	cleanups := make([]func(), 0, 4)
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	cls, err := classifier.New()
	if err != nil {
		return nil, cleanup, fmt.Errorf("build classifier: %w", err)
	}

	knowledge, err := store.NewKnowledgeStore()
	if err != nil {
		return nil, cleanup, fmt.Errorf("build knowledge store: %w", err)
	}

	var tickets store.TicketStore
	switch cfg.Tickets.Backend {
	case "sqlite":
		sqliteStore, err := store.NewSQLiteTicketStore(cfg.Tickets.SQLitePath, cfg.Tickets.TicketBaseURL)
		if err != nil {
			return nil, cleanup, fmt.Errorf("build sqlite ticket store: %w", err)
		}
		cleanups = append(cleanups, func() { _ = sqliteStore.Close() })
		tickets = sqliteStore
	default:
		tickets = store.NewMemoryTicketStore(cfg.Tickets.TicketBaseURL)
	}

	sessions := store.NewMemorySessionStore()

	var audit triage.AuditSink
	if cfg.Audit.Enabled {
		sink := store.NewFileAuditSink(store.FileAuditOptions{
			Dir:        filepath.Dir(cfg.Audit.LogPath),
			Filename:   filepath.Base(cfg.Audit.LogPath),
			MaxSizeMB:  cfg.Audit.MaxSizeMB,
			MaxBackups: cfg.Audit.MaxBackups,
			MaxAgeDays: cfg.Audit.MaxAgeDays,
			Compress:   cfg.Audit.Compress,
		})
		cleanups = append(cleanups, func() { _ = sink.Close() })
		audit = sink
	}

	routerCfg := triage.RouterConfig{
		ConfidenceThreshold:      cfg.Routing.ConfidenceThreshold,
		MaxClarificationAttempts: cfg.Session.MaxClarificationAttempts,
		SLAHours: map[triage.Priority]int{
			triage.PriorityUrgent: cfg.Routing.SLA.UrgentHours,
			triage.PriorityHigh:   cfg.Routing.SLA.HighHours,
			triage.PriorityMedium: cfg.Routing.SLA.MediumHours,
			triage.PriorityLow:    cfg.Routing.SLA.LowHours,
		},
		DepartmentOverrides: cfg.Routing.DepartmentOverrides,
	}

	var policies *policy.Engine
	var rules []triage.PolicyRule
	if cfg.Policy.Enabled {
		policies, err = policy.NewEngine(cfg.Policy.RulesDir)
		if err != nil {
			return nil, cleanup, fmt.Errorf("build policy engine: %w", err)
		}
		if err := policies.LoadRules(); err != nil {
			return nil, cleanup, fmt.Errorf("load policy rules: %w", err)
		}
		rules = policies.Rules()
	}

	router, err := triage.NewRouter(routerCfg, rules...)
	if err != nil {
		return nil, cleanup, fmt.Errorf("build router: %w", err)
	}

	normalizer := triage.NewNormalizer(cls)
	resolver := triage.NewResolver(triage.ResolverConfig{
		KBSelfServiceThreshold: cfg.Routing.KBSelfServiceThreshold,
	}, tickets, knowledge, cls)

	server, err := api.NewServer(api.Options{
		Normalizer:        normalizer,
		Router:            router,
		Resolver:          resolver,
		Classifier:        cls,
		Sessions:          sessions,
		Tickets:           tickets,
		Knowledge:         knowledge,
		Audit:             audit,
		Policies:          policies,
		SessionTTLSeconds: cfg.Session.TTLSeconds,
		MaxTurns:          cfg.Session.MaxTurns,
	})
	if err != nil {
		return nil, cleanup, err
	}

	// Hot-reloaded policy rules swap in a fresh router; in-flight requests
	// keep the one they started with.
	if policies != nil {
		policies.OnReload(func() {
			newRouter, err := triage.NewRouter(routerCfg, policies.Rules()...)
			if err != nil {
				log.Errorf("Rebuilding router after policy reload failed: %v", err)
				return
			}
			server.ReplaceRouter(newRouter)
		})
		if cfg.Policy.Watch {
			if err := policies.StartWatcher(); err != nil {
				log.Warnf("Policy watcher failed to start: %v", err)
			} else {
				cleanups = append(cleanups, policies.StopWatcher)
			}
		}
	}

	return server, cleanup, nil
}
