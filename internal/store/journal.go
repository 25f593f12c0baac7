// ABOUTME: SQLite-backed journal of tracking lookups using modernc.org/sqlite.
// ABOUTME: Records each query with its outcome and serves aggregate stats.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/tufesa-labs/tufesa-mcp/internal/tracking"
)

// LookupRecord is one persisted tracking lookup.
type LookupRecord struct {
	ID        string    `json:"id"`
	Guia      string    `json:"guia"`
	Cliente   string    `json:"cliente,omitempty"`
	Outcome   string    `json:"outcome"`
	Estado    string    `json:"estado,omitempty"`
	Cached    bool      `json:"cached"`
	CreatedAt time.Time `json:"created_at"`
}

// Stats aggregates the journal for the stats endpoint.
type Stats struct {
	Total     int64            `json:"total"`
	ByOutcome map[string]int64 `json:"by_outcome"`
}

// Journal persists tracking lookups in SQLite. It implements
// tracking.Journal; recording is cheap enough to sit on the request path.
type Journal struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewJournal opens (or creates) the journal database at the given path.
// Parent directories are created if needed.
func NewJournal(path string) (*Journal, error) {
	logger := slog.Default().With("component", "store")

	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable WAL mode for better concurrent performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	j := &Journal{
		db:     db,
		logger: logger,
	}

	if err := j.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("lookup journal initialized", "path", path)
	return j, nil
}

// createSchema creates the journal table if it doesn't exist
func (j *Journal) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS lookups (
			id TEXT PRIMARY KEY,
			guia TEXT NOT NULL,
			cliente TEXT NOT NULL DEFAULT '',
			outcome TEXT NOT NULL,
			estado TEXT NOT NULL DEFAULT '',
			cached INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_lookups_guia ON lookups(guia);
		CREATE INDEX IF NOT EXISTS idx_lookups_created_at ON lookups(created_at);
	`
	_, err := j.db.Exec(schema)
	return err
}

// RecordLookup persists one completed lookup.
func (j *Journal) RecordLookup(ctx context.Context, l tracking.Lookup) error {
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO lookups (id, guia, cliente, outcome, estado, cached, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		uuid.New().String(), l.Guia, l.Cliente, string(l.Outcome), l.Estado, boolToInt(l.Cached), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("inserting lookup: %w", err)
	}
	return nil
}

// Recent returns the most recent lookups, newest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]*LookupRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := j.db.QueryContext(ctx,
		`SELECT id, guia, cliente, outcome, estado, cached, created_at
		 FROM lookups ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying lookups: %w", err)
	}
	defer rows.Close()

	var records []*LookupRecord
	for rows.Next() {
		var r LookupRecord
		var cached int
		if err := rows.Scan(&r.ID, &r.Guia, &r.Cliente, &r.Outcome, &r.Estado, &cached, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning lookup: %w", err)
		}
		r.Cached = cached != 0
		records = append(records, &r)
	}
	return records, rows.Err()
}

// Stats aggregates lookup counts by outcome.
func (j *Journal) Stats(ctx context.Context) (*Stats, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT outcome, COUNT(*) FROM lookups GROUP BY outcome`)
	if err != nil {
		return nil, fmt.Errorf("querying stats: %w", err)
	}
	defer rows.Close()

	stats := &Stats{ByOutcome: make(map[string]int64)}
	for rows.Next() {
		var outcome string
		var count int64
		if err := rows.Scan(&outcome, &count); err != nil {
			return nil, fmt.Errorf("scanning stats: %w", err)
		}
		stats.ByOutcome[outcome] = count
		stats.Total += count
	}
	return stats, rows.Err()
}

// Close closes the underlying database.
func (j *Journal) Close() error {
	return j.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
