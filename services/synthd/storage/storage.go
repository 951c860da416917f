package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/glebarez/sqlite"
	"github.com/google/uuid"

	"synthvault/core/types"
)

// ErrPathRequired is returned when the backing store path is missing.
var ErrPathRequired = errors.New("synthd storage path must be configured")

const schema = `
CREATE TABLE IF NOT EXISTS audit_events (
    id          TEXT PRIMARY KEY,
    event_type  TEXT NOT NULL,
    attributes  TEXT NOT NULL,
    recorded_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_audit_events_type ON audit_events(event_type);
CREATE INDEX IF NOT EXISTS idx_audit_events_recorded ON audit_events(recorded_at);
`

// Storage is the daemon's audit trail: every engine event is appended with a
// unique id and retrieval is by recency or type.
type Storage struct {
	db    *sql.DB
	nowFn func() time.Time
}

// Open initialises the backing store using a sqlite-compatible DSN.
func Open(path string) (*Storage, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, ErrPathRequired
	}
	db, err := sql.Open("sqlite", trimmed)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Storage{db: db, nowFn: time.Now}, nil
}

// Close releases database resources.
func (s *Storage) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// SetNowFunc overrides the timestamp source. Intended for tests.
func (s *Storage) SetNowFunc(now func() time.Time) {
	if s == nil || now == nil {
		return
	}
	s.nowFn = now
}

// AuditRecord is one persisted engine event.
type AuditRecord struct {
	ID         string            `json:"id"`
	Type       string            `json:"type"`
	Attributes map[string]string `json:"attributes"`
	RecordedAt time.Time         `json:"recordedAt"`
}

// RecordEvent appends an engine event to the audit trail.
func (s *Storage) RecordEvent(ctx context.Context, event *types.Event) (string, error) {
	if s == nil || s.db == nil {
		return "", fmt.Errorf("storage not configured")
	}
	if event == nil || strings.TrimSpace(event.Type) == "" {
		return "", fmt.Errorf("event type required")
	}
	attrs, err := json.Marshal(event.Attributes)
	if err != nil {
		return "", fmt.Errorf("encode attributes: %w", err)
	}
	id := uuid.NewString()
	_, err = s.db.ExecContext(ctx, `
        INSERT INTO audit_events(id, event_type, attributes, recorded_at)
        VALUES(?, ?, ?, ?)
    `, id, event.Type, string(attrs), s.nowFn().UTC())
	if err != nil {
		return "", fmt.Errorf("insert event: %w", err)
	}
	return id, nil
}

// ListRecent returns up to limit events, newest first.
func (s *Storage) ListRecent(ctx context.Context, limit int) ([]AuditRecord, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("storage not configured")
	}
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, event_type, attributes, recorded_at
        FROM audit_events
        ORDER BY recorded_at DESC, id DESC
        LIMIT ?
    `, limit)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

// ListByType returns up to limit events of one type, newest first.
func (s *Storage) ListByType(ctx context.Context, eventType string, limit int) ([]AuditRecord, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("storage not configured")
	}
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, event_type, attributes, recorded_at
        FROM audit_events
        WHERE event_type = ?
        ORDER BY recorded_at DESC, id DESC
        LIMIT ?
    `, strings.TrimSpace(eventType), limit)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

func scanRecords(rows *sql.Rows) ([]AuditRecord, error) {
	records := make([]AuditRecord, 0)
	for rows.Next() {
		var record AuditRecord
		var attrs string
		if err := rows.Scan(&record.ID, &record.Type, &attrs, &record.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		if attrs != "" {
			if err := json.Unmarshal([]byte(attrs), &record.Attributes); err != nil {
				return nil, fmt.Errorf("decode attributes: %w", err)
			}
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return records, nil
}
