// Copyright 2026 The frontdoor Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/campushq/frontdoor/internal/triage"
)

const ticketSchema = `
CREATE TABLE IF NOT EXISTS tickets (
	id                 TEXT PRIMARY KEY,
	department         TEXT NOT NULL,
	status             TEXT NOT NULL,
	priority           TEXT NOT NULL,
	summary            TEXT NOT NULL,
	description        TEXT NOT NULL,
	subject_hash       TEXT NOT NULL,
	entities           TEXT,
	created_at         TIMESTAMP NOT NULL,
	updated_at         TIMESTAMP NOT NULL,
	assigned_to        TEXT,
	resolution_summary TEXT
);
CREATE INDEX IF NOT EXISTS idx_tickets_subject ON tickets(subject_hash);
CREATE INDEX IF NOT EXISTS idx_tickets_created ON tickets(created_at);

CREATE TABLE IF NOT EXISTS ticket_counters (
	counter_key TEXT PRIMARY KEY,
	seq         INTEGER NOT NULL
);
`

// SQLiteTicketStore persists tickets in a SQLite database. Sequence counters
// live in their own table so ids stay monotonic across restarts.
type SQLiteTicketStore struct {
	db      *sql.DB
	baseURL string
	now     func() time.Time

	// mu serializes counter increments; SQLite handles row locking but the
	// read-increment-insert needs a single writer.
	mu sync.Mutex
}

// NewSQLiteTicketStore opens (creating if needed) the database at path and
// ensures the schema exists.
func NewSQLiteTicketStore(path, baseURL string) (*SQLiteTicketStore, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite ticket store: empty database path")
	}
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open sqlite db %s: %w", path, err)
	}
	if _, err := db.Exec(ticketSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init ticket schema: %w", err)
	}
	return &SQLiteTicketStore{
		db:      db,
		baseURL: strings.TrimRight(baseURL, "/"),
		now:     time.Now,
	}, nil
}

// Close releases the underlying database handle.
func (s *SQLiteTicketStore) Close() error {
	return s.db.Close()
}

// SetClock overrides the time source, for tests.
func (s *SQLiteTicketStore) SetClock(now func() time.Time) {
	s.now = now
}

// Create mints the next ticket id for the department/day and inserts the
// ticket in one transaction.
func (s *SQLiteTicketStore) Create(ctx context.Context, req triage.TicketRequest) (string, string, error) {
	if !req.Department.Valid() {
		return "", "", fmt.Errorf("create ticket: invalid department %q", req.Department)
	}
	if !req.Priority.Valid() {
		return "", "", fmt.Errorf("create ticket: invalid priority %q", req.Priority)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	code := req.Department.TicketCode()
	day := now.Format("20060102")
	key := code + "-" + day

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", "", fmt.Errorf("begin ticket tx: %w", err)
	}
	defer tx.Rollback()

	var seq int
	err = tx.QueryRowContext(ctx, `SELECT seq FROM ticket_counters WHERE counter_key = ?`, key).Scan(&seq)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		seq = 0
	case err != nil:
		return "", "", fmt.Errorf("read ticket counter: %w", err)
	}
	seq++
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO ticket_counters (counter_key, seq) VALUES (?, ?)
		 ON CONFLICT(counter_key) DO UPDATE SET seq = excluded.seq`, key, seq); err != nil {
		return "", "", fmt.Errorf("bump ticket counter: %w", err)
	}

	id := fmt.Sprintf("TKT-%s-%s-%04d", code, day, seq)
	if !triage.ValidTicketID(id) {
		return "", "", fmt.Errorf("create ticket: generated id %q violates the id contract", id)
	}

	summary := req.Summary
	if len(summary) > 200 {
		summary = summary[:200]
	}

	entitiesJSON, err := json.Marshal(req.Entities)
	if err != nil {
		return "", "", fmt.Errorf("encode entities: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO tickets (id, department, status, priority, summary, description,
			subject_hash, entities, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, string(req.Department), string(triage.TicketOpen), string(req.Priority),
		summary, req.Description, req.SubjectHash, string(entitiesJSON), now, now,
	); err != nil {
		return "", "", fmt.Errorf("insert ticket: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", "", fmt.Errorf("commit ticket: %w", err)
	}

	return id, s.baseURL + "/" + id, nil
}

// Get returns a ticket by id, or ErrNotFound.
func (s *SQLiteTicketStore) Get(ctx context.Context, id string) (*Ticket, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, department, status, priority, summary, description,
			subject_hash, entities, created_at, updated_at,
			COALESCE(assigned_to, ''), COALESCE(resolution_summary, '')
		FROM tickets WHERE id = ?`, id)
	t, err := scanTicket(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("ticket %s: %w", id, ErrNotFound)
	}
	return t, err
}

// List returns tickets matching the filter, newest first.
func (s *SQLiteTicketStore) List(ctx context.Context, filter TicketFilter) ([]Ticket, error) {
	query := `
		SELECT id, department, status, priority, summary, description,
			subject_hash, entities, created_at, updated_at,
			COALESCE(assigned_to, ''), COALESCE(resolution_summary, '')
		FROM tickets WHERE 1=1`
	var args []any
	if filter.SubjectHash != "" {
		query += ` AND subject_hash = ?`
		args = append(args, filter.SubjectHash)
	}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, filter.Status)
	}
	if filter.Department != nil {
		query += ` AND department = ?`
		args = append(args, string(*filter.Department))
	}
	query += ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}
	defer rows.Close()

	var out []Ticket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

// Update applies a partial admin update and returns the updated ticket.
func (s *SQLiteTicketStore) Update(ctx context.Context, id string, update TicketUpdate) (*Ticket, error) {
	if update.Status != "" && !update.Status.Valid() {
		return nil, fmt.Errorf("update ticket: invalid status %q", update.Status)
	}

	sets := []string{"updated_at = ?"}
	args := []any{s.now().UTC()}
	if update.Status != "" {
		sets = append(sets, "status = ?")
		args = append(args, string(update.Status))
	}
	if update.AssignedTo != nil {
		sets = append(sets, "assigned_to = ?")
		args = append(args, *update.AssignedTo)
	}
	if update.ResolutionSummary != nil {
		sets = append(sets, "resolution_summary = ?")
		args = append(args, *update.ResolutionSummary)
	}
	args = append(args, id)

	res, err := s.db.ExecContext(ctx, `UPDATE tickets SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("update ticket %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("ticket %s: %w", id, ErrNotFound)
	}
	return s.Get(ctx, id)
}

// Delete removes a ticket.
func (s *SQLiteTicketStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tickets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete ticket %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("ticket %s: %w", id, ErrNotFound)
	}
	return nil
}

// Health probes the database connection.
func (s *SQLiteTicketStore) Health(ctx context.Context) triage.HealthResult {
	start := time.Now()
	if err := s.db.PingContext(ctx); err != nil {
		return triage.HealthResult{Healthy: false, Error: err.Error()}
	}
	return triage.HealthResult{Healthy: true, LatencyMS: time.Since(start).Milliseconds()}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTicket(row rowScanner) (*Ticket, error) {
	var t Ticket
	var dept, status, priority, entities string
	if err := row.Scan(&t.ID, &dept, &status, &priority, &t.Summary, &t.Description,
		&t.SubjectHash, &entities, &t.CreatedAt, &t.UpdatedAt,
		&t.AssignedTo, &t.ResolutionSummary); err != nil {
		return nil, err
	}
	t.Department = triage.Department(dept)
	t.Status = triage.TicketStatus(status)
	t.Priority = triage.Priority(priority)
	if entities != "" && entities != "null" {
		if err := json.Unmarshal([]byte(entities), &t.Entities); err != nil {
			return nil, fmt.Errorf("decode entities for %s: %w", t.ID, err)
		}
	}
	return &t, nil
}
