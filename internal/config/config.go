// Copyright 2026 The frontdoor Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package config provides configuration management for the frontdoor server.
// It handles loading and parsing the YAML configuration file and provides
// structured access to server settings, routing thresholds, SLA tables and
// store options.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/campushq/frontdoor/internal/triage"
)

// Config represents the application's configuration, loaded from a YAML file.
type Config struct {
	// Host is the network host/interface on which the API server will bind.
	// Default is empty ("") to bind all interfaces.
	Host string `yaml:"host"`
	// Port is the network port on which the API server will listen.
	Port int `yaml:"port"`

	// Debug enables debug-level logging.
	Debug bool `yaml:"debug"`

	// LoggingToFile controls whether application logs are written to rotating
	// files or stdout.
	LoggingToFile bool `yaml:"logging-to-file"`

	// LogsDir is the directory for rotating log files when LoggingToFile is set.
	LogsDir string `yaml:"logs-dir"`

	// Routing controls the decision engine thresholds and tables.
	Routing RoutingConfig `yaml:"routing"`

	// Session controls conversation-state limits.
	Session SessionConfig `yaml:"session"`

	// Tickets configures ticket persistence.
	Tickets TicketsConfig `yaml:"tickets"`

	// Audit configures the JSON-lines audit log.
	Audit AuditConfig `yaml:"audit"`

	// Policy configures the optional routing-override rule directory.
	Policy PolicyConfig `yaml:"policy"`
}

// RoutingConfig holds the decision-engine thresholds and lookup tables.
type RoutingConfig struct {
	// ConfidenceThreshold is the minimum classifier confidence for routing
	// without clarification. The boundary is inclusive: a confidence exactly
	// equal to the threshold is sufficient.
	ConfidenceThreshold float64 `yaml:"confidence-threshold"`

	// KBSelfServiceThreshold is the minimum top-article relevance score at
	// which a low/medium priority request resolves via self-service without
	// a ticket. The boundary is inclusive.
	KBSelfServiceThreshold float64 `yaml:"kb-self-service-threshold"`

	// SLA maps priority levels to response-time hours.
	SLA SLAConfig `yaml:"sla"`

	// DepartmentOverrides maps intent categories to departments, overriding
	// the classifier's suggestion for known categories. The default table
	// routes STUDENT_SERVICES to STUDENT_AFFAIRS; deployments that triage
	// parking through Campus Safety can re-point it here.
	DepartmentOverrides map[triage.IntentCategory]triage.Department `yaml:"department-overrides"`
}

// SLAConfig holds per-priority response-time targets in hours.
type SLAConfig struct {
	UrgentHours int `yaml:"urgent-hours"`
	HighHours   int `yaml:"high-hours"`
	MediumHours int `yaml:"medium-hours"`
	LowHours    int `yaml:"low-hours"`
}

// Hours returns the SLA hours for a priority.
func (s SLAConfig) Hours(p triage.Priority) int {
	switch p {
	case triage.PriorityUrgent:
		return s.UrgentHours
	case triage.PriorityHigh:
		return s.HighHours
	case triage.PriorityMedium:
		return s.MediumHours
	case triage.PriorityLow:
		return s.LowHours
	default:
		return s.MediumHours
	}
}

// SessionConfig holds conversation-state limits.
type SessionConfig struct {
	// TTLSeconds is the session time-to-live. Default is 90 days.
	TTLSeconds int `yaml:"ttl-seconds"`

	// MaxClarificationAttempts caps disambiguation attempts before the
	// router escalates instead.
	MaxClarificationAttempts int `yaml:"max-clarification-attempts"`

	// MaxTurns bounds the conversation history kept per session.
	MaxTurns int `yaml:"max-turns"`
}

// TicketsConfig configures ticket persistence.
type TicketsConfig struct {
	// Backend selects the ticket store: "memory" or "sqlite".
	Backend string `yaml:"backend"`

	// SQLitePath is the database file path for the sqlite backend.
	SQLitePath string `yaml:"sqlite-path"`

	// TicketBaseURL is the base for generated ticket links.
	TicketBaseURL string `yaml:"ticket-base-url"`
}

// AuditConfig configures the JSON-lines audit sink.
type AuditConfig struct {
	Enabled bool   `yaml:"enabled"`
	LogPath string `yaml:"log-path"`
	// MaxSizeMB is the rotation threshold. Default 100.
	MaxSizeMB  int  `yaml:"max-size-mb"`
	MaxBackups int  `yaml:"max-backups"`
	MaxAgeDays int  `yaml:"max-age-days"`
	Compress   bool `yaml:"compress"`
}

// PolicyConfig configures the optional routing-override rules.
type PolicyConfig struct {
	Enabled bool `yaml:"enabled"`
	// RulesDir is the directory of YAML rule files.
	RulesDir string `yaml:"rules-dir"`
	// Watch enables hot reload of rule files.
	Watch bool `yaml:"watch"`
}

// Default returns a configuration populated with the shipped defaults.
func Default() *Config {
	return &Config{
		Port:    8317,
		LogsDir: "logs",
		Routing: RoutingConfig{
			ConfidenceThreshold:    0.70,
			KBSelfServiceThreshold: 0.5,
			SLA: SLAConfig{
				UrgentHours: 1,
				HighHours:   4,
				MediumHours: 24,
				LowHours:    72,
			},
			DepartmentOverrides: DefaultDepartmentOverrides(),
		},
		Session: SessionConfig{
			TTLSeconds:               7776000, // 90 days
			MaxClarificationAttempts: 3,
			MaxTurns:                 50,
		},
		Tickets: TicketsConfig{
			Backend:       "memory",
			SQLitePath:    "frontdoor-tickets.db",
			TicketBaseURL: "https://servicenow.university.edu/ticket",
		},
		Audit: AuditConfig{
			Enabled:    true,
			LogPath:    "logs/audit.jsonl",
			MaxSizeMB:  100,
			MaxBackups: 10,
			MaxAgeDays: 30,
			Compress:   true,
		},
		Policy: PolicyConfig{
			Enabled:  false,
			RulesDir: "policy.d",
		},
	}
}

// DefaultDepartmentOverrides returns the shipped category-to-department
// routing table.
func DefaultDepartmentOverrides() map[triage.IntentCategory]triage.Department {
	return map[triage.IntentCategory]triage.Department{
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
	}
}

// Load reads the YAML file at path into a Config, applying defaults for
// unset fields. A missing file returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the decision engine cannot run with.
func (c *Config) Validate() error {
	if c.Routing.ConfidenceThreshold < 0 || c.Routing.ConfidenceThreshold > 1 {
		return fmt.Errorf("config: confidence-threshold %v out of [0,1]", c.Routing.ConfidenceThreshold)
	}
	if c.Routing.KBSelfServiceThreshold < 0 || c.Routing.KBSelfServiceThreshold > 1 {
		return fmt.Errorf("config: kb-self-service-threshold %v out of [0,1]", c.Routing.KBSelfServiceThreshold)
	}
	for _, h := range []int{c.Routing.SLA.UrgentHours, c.Routing.SLA.HighHours, c.Routing.SLA.MediumHours, c.Routing.SLA.LowHours} {
		if h <= 0 {
			return fmt.Errorf("config: sla hours must be positive")
		}
	}
	for cat, dept := range c.Routing.DepartmentOverrides {
		if !cat.Valid() {
			return fmt.Errorf("config: unknown intent category %q in department-overrides", cat)
		}
		if !dept.Valid() {
			return fmt.Errorf("config: unknown department %q in department-overrides", dept)
		}
	}
	if c.Session.MaxClarificationAttempts < 0 {
		return fmt.Errorf("config: max-clarification-attempts must be >= 0")
	}
	switch c.Tickets.Backend {
	case "", "memory", "sqlite":
	default:
		return fmt.Errorf("config: unknown tickets backend %q", c.Tickets.Backend)
	}
	return nil
}
