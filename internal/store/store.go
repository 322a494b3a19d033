// Package store persists structured results in SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	// Registers the pure-Go "sqlite" driver.
	_ "modernc.org/sqlite"

	"github.com/MeKo-Tech/docstruct/internal/pipeline"
)

// ErrNotFound is returned when no result is stored under an ID.
var ErrNotFound = errors.New("document not found")

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

const schema = `
	CREATE TABLE IF NOT EXISTS documents (
		id TEXT PRIMARY KEY,
		doc_type TEXT NOT NULL,
		source TEXT,
		pages INTEGER NOT NULL,
		sections INTEGER NOT NULL,
		failed_checks INTEGER NOT NULL,
		result TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_documents_doc_type ON documents(doc_type);
	CREATE INDEX IF NOT EXISTS idx_documents_created_at ON documents(created_at);
`

// Summary is the listing view of a stored result.
type Summary struct {
	ID           string    `json:"id"`
	DocType      string    `json:"docType"`
	Source       string    `json:"source,omitempty"`
	Pages        int       `json:"pages"`
	Sections     int       `json:"sections"`
	FailedChecks int       `json:"failed_checks"`
	CreatedAt    time.Time `json:"created_at"`
}

// ListOptions filters and pages List.
type ListOptions struct {
	DocType string
	Limit   int // 0 means DefaultListLimit
	Offset  int
}

// DefaultListLimit caps List when no limit is given.
const DefaultListLimit = 100

// Store is a SQLite-backed result store. It is safe for concurrent use.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the database at path and applies the schema.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("store path is empty")
	}
	dsn := path
	if path != MemoryPath {
		dsn = path + "?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	// A single connection keeps an in-memory database alive and serializes writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init store schema: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// Close releases the database.
func (s *Store) Close() error { return s.db.Close() }

// Save inserts or replaces the result stored under res.ID.
func (s *Store) Save(ctx context.Context, res *pipeline.Result) error {
	if res == nil {
		return errors.New("nil result")
	}
	if res.ID == "" {
		return errors.New("result has no id")
	}
	payload, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO documents (id, doc_type, source, pages, sections, failed_checks, result, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			doc_type = excluded.doc_type,
			source = excluded.source,
			pages = excluded.pages,
			sections = excluded.sections,
			failed_checks = excluded.failed_checks,
			result = excluded.result,
			created_at = excluded.created_at
	`, res.ID, res.DocType, res.Meta.Source, res.Meta.Pages, len(res.Sections), res.FailedChecks(),
		string(payload), s.now().UnixMilli())
	if err != nil {
		return fmt.Errorf("save document %s: %w", res.ID, err)
	}
	return nil
}

// Get returns the result stored under id.
func (s *Store) Get(ctx context.Context, id string) (*pipeline.Result, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, `SELECT result FROM documents WHERE id = ?`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get document %s: %w", id, err)
	}
	var res pipeline.Result
	if err := json.Unmarshal([]byte(payload), &res); err != nil {
		return nil, fmt.Errorf("decode document %s: %w", id, err)
	}
	return &res, nil
}

// List returns summaries, newest first.
func (s *Store) List(ctx context.Context, opts ListOptions) ([]Summary, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	query := `SELECT id, doc_type, COALESCE(source, ''), pages, sections, failed_checks, created_at FROM documents`
	args := []any{}
	if opts.DocType != "" {
		query += ` WHERE doc_type = ?`
		args = append(args, opts.DocType)
	}
	query += ` ORDER BY created_at DESC, id ASC LIMIT ? OFFSET ?`
	args = append(args, limit, max(0, opts.Offset))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := []Summary{}
	for rows.Next() {
		var (
			sum     Summary
			created int64
		)
		if err := rows.Scan(&sum.ID, &sum.DocType, &sum.Source, &sum.Pages, &sum.Sections, &sum.FailedChecks, &created); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		sum.CreatedAt = time.UnixMilli(created).UTC()
		out = append(out, sum)
	}
	return out, rows.Err()
}

// Delete removes the result stored under id.
func (s *Store) Delete(ctx context.Context, id string) error {
	r, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete document %s: %w", id, err)
	}
	if n, err := r.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// Count returns the number of stored results.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	return n, nil
}
