// Copyright 2026 The frontdoor Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/campushq/frontdoor/internal/triage"
)

// FileAuditSink appends one JSON line per decided interaction to a rotating
// log file. Records are immutable once written; rotation is size-based.
type FileAuditSink struct {
	mu     sync.Mutex
	writer *lumberjack.Logger
}

// FileAuditOptions configures the audit log rotation.
type FileAuditOptions struct {
	Dir        string
	Filename   string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// NewFileAuditSink builds a rotating JSON-lines audit sink.
func NewFileAuditSink(opts FileAuditOptions) *FileAuditSink {
	if opts.Filename == "" {
		opts.Filename = "audit.jsonl"
	}
	if opts.MaxSizeMB <= 0 {
		opts.MaxSizeMB = 50
	}
	return &FileAuditSink{
		writer: &lumberjack.Logger{
			Filename:   filepath.Join(opts.Dir, opts.Filename),
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
			Compress:   opts.Compress,
		},
	}
}

// Record writes the audit record as one JSON line. A zero LogID or Timestamp
// is filled in here so callers only supply the decision facts.
func (s *FileAuditSink) Record(_ context.Context, rec triage.AuditRecord) error {
	if rec.LogID == "" {
		rec.LogID = uuid.NewString()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}

	line, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode audit record: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.writer.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("write audit record: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying log file.
func (s *FileAuditSink) Close() error {
	return s.writer.Close()
}

// MemoryAuditSink collects audit records in memory, for tests and for
// deployments that disable the file sink.
type MemoryAuditSink struct {
	mu      sync.Mutex
	records []triage.AuditRecord
}

// NewMemoryAuditSink builds an empty in-memory audit sink.
func NewMemoryAuditSink() *MemoryAuditSink {
	return &MemoryAuditSink{}
}

// Record appends the record, filling LogID and Timestamp like the file sink.
func (s *MemoryAuditSink) Record(_ context.Context, rec triage.AuditRecord) error {
	if rec.LogID == "" {
		rec.LogID = uuid.NewString()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
	return nil
}

// Records returns a copy of the collected records.
func (s *MemoryAuditSink) Records() []triage.AuditRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]triage.AuditRecord(nil), s.records...)
}
