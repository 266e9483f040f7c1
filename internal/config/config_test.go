// Copyright 2026 The frontdoor Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushq/frontdoor/internal/triage"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 8317, cfg.Port)
	assert.Equal(t, 0.70, cfg.Routing.ConfidenceThreshold)
	assert.Equal(t, 0.5, cfg.Routing.KBSelfServiceThreshold)
	assert.Equal(t, 1, cfg.Routing.SLA.UrgentHours)
	assert.Equal(t, 4, cfg.Routing.SLA.HighHours)
	assert.Equal(t, 24, cfg.Routing.SLA.MediumHours)
	assert.Equal(t, 72, cfg.Routing.SLA.LowHours)
	assert.Equal(t, 3, cfg.Session.MaxClarificationAttempts)
	assert.Equal(t, 7776000, cfg.Session.TTLSeconds)
	assert.Equal(t, "memory", cfg.Tickets.Backend)
	require.NoError(t, cfg.Validate())
}

func TestDefaultDepartmentOverrides_CoverEveryCategory(t *testing.T) {
	overrides := DefaultDepartmentOverrides()

	for _, cat := range []triage.IntentCategory{
		triage.CategoryAccountAccess, triage.CategoryAcademicRecords,
		triage.CategoryFinancial, triage.CategoryFacilities,
		triage.CategoryEnrollment, triage.CategoryStudentServices,
		triage.CategoryPolicyException, triage.CategoryGeneralInquiry,
		triage.CategoryStatusCheck, triage.CategoryHumanRequest,
	} {
		dept, ok := overrides[cat]
		assert.True(t, ok, "missing override for %s", cat)
		assert.True(t, dept.Valid(), "invalid department for %s", cat)
	}

	assert.Equal(t, triage.DepartmentStudentAffairs, overrides[triage.CategoryStudentServices])
	assert.Equal(t, triage.DepartmentEscalateToHuman, overrides[triage.CategoryHumanRequest])
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "no-such-config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 8317, cfg.Port)
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
port: 9000
debug: true
routing:
  confidence-threshold: 0.8
  kb-self-service-threshold: 0.6
  sla:
    urgent-hours: 2
    high-hours: 8
    medium-hours: 24
    low-hours: 96
session:
  max-clarification-attempts: 5
tickets:
  backend: sqlite
  sqlite-path: /tmp/tickets.db
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Port)
	assert.True(t, cfg.Debug)
	assert.Equal(t, 0.8, cfg.Routing.ConfidenceThreshold)
	assert.Equal(t, 2, cfg.Routing.SLA.UrgentHours)
	assert.Equal(t, 96, cfg.Routing.SLA.LowHours)
	assert.Equal(t, 5, cfg.Session.MaxClarificationAttempts)
	assert.Equal(t, "sqlite", cfg.Tickets.Backend)
	// Untouched sections keep their defaults.
	assert.Equal(t, 7776000, cfg.Session.TTLSeconds)
}

func TestLoad_RejectsInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	require.NoError(t, os.WriteFile(path, []byte("routing:\n  confidence-threshold: 2.0\n"), 0644))
	_, err := Load(path)
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte("tickets:\n  backend: carrier-pigeon\n"), 0644))
	_, err = Load(path)
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte("routing:\n  department-overrides:\n    ACCOUNT_ACCESS: MARKETING\n"), 0644))
	_, err = Load(path)
	assert.Error(t, err)
}

func TestSLAConfig_Hours(t *testing.T) {
	sla := SLAConfig{UrgentHours: 1, HighHours: 4, MediumHours: 24, LowHours: 72}

	assert.Equal(t, 1, sla.Hours(triage.PriorityUrgent))
	assert.Equal(t, 4, sla.Hours(triage.PriorityHigh))
	assert.Equal(t, 24, sla.Hours(triage.PriorityMedium))
	assert.Equal(t, 72, sla.Hours(triage.PriorityLow))
}
