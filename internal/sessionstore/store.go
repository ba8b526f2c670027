package sessionstore

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"reel/internal/config"
	"reel/internal/document"
	"reel/internal/services"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current schema version. Bump this when the schema changes.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database schema version doesn't match the expected version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// Revision describes one committed document state.
type Revision struct {
	Revision  int64
	Pipeline  string
	CreatedAt time.Time
}

// Store manages document revision persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the document database for one session.
func Open(cfg *config.Config, sessionID string) (*Store, error) {
	dir := cfg.SessionDir(sessionID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure session directory: %w", err)
	}

	dbPath := filepath.Join(dir, "document.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location for status reporting.
func (s *Store) Path() string {
	return s.path
}

// SaveRevision appends doc as a new revision attributed to pipeline.
func (s *Store) SaveRevision(ctx context.Context, pipeline string, doc document.Document) (int64, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return 0, services.Wrap(services.ErrStorage, "sessionstore", "save revision", "marshal document", err)
	}
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)

	var revision int64
	err = s.db.QueryRowContext(ctx,
		`INSERT INTO revisions (pipeline, document_json, created_at) VALUES (?, ?, ?) RETURNING revision`,
		pipeline, string(raw), timestamp,
	).Scan(&revision)
	if err != nil {
		return 0, services.Wrap(services.ErrStorage, "sessionstore", "save revision", "insert revision", err)
	}
	return revision, nil
}

// LoadLatest returns the most recent committed document and its revision
// number. An empty history reports services.ErrNotFound.
func (s *Store) LoadLatest(ctx context.Context) (document.Document, int64, error) {
	var (
		revision int64
		raw      string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT revision, document_json FROM revisions ORDER BY revision DESC LIMIT 1`,
	).Scan(&revision, &raw)
	if errors.Is(err, sql.ErrNoRows) {
		return document.Document{}, 0, services.Wrap(services.ErrNotFound, "sessionstore", "load latest", "no revisions", nil)
	}
	if err != nil {
		return document.Document{}, 0, services.Wrap(services.ErrStorage, "sessionstore", "load latest", "query revision", err)
	}

	var doc document.Document
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return document.Document{}, 0, services.Wrap(services.ErrStorage, "sessionstore", "load latest", "unmarshal document", err)
	}
	return doc, revision, nil
}

// Revisions lists the commit history in ascending order.
func (s *Store) Revisions(ctx context.Context) ([]Revision, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT revision, pipeline, created_at FROM revisions ORDER BY revision ASC`)
	if err != nil {
		return nil, services.Wrap(services.ErrStorage, "sessionstore", "revisions", "query revisions", err)
	}
	defer rows.Close()

	var out []Revision
	for rows.Next() {
		var (
			rev       Revision
			createdAt string
		)
		if err := rows.Scan(&rev.Revision, &rev.Pipeline, &createdAt); err != nil {
			return nil, services.Wrap(services.ErrStorage, "sessionstore", "revisions", "scan revision", err)
		}
		if ts, parseErr := time.Parse(time.RFC3339Nano, createdAt); parseErr == nil {
			rev.CreatedAt = ts
		}
		out = append(out, rev)
	}
	if err := rows.Err(); err != nil {
		return nil, services.Wrap(services.ErrStorage, "sessionstore", "revisions", "iterate revisions", err)
	}
	return out, nil
}

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableExists == 0 {
		return s.createSchema(ctx)
	}

	var version int
	err = s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (delete %s to reset)",
			ErrSchemaMismatch, version, schemaVersion, s.path)
	}

	return nil
}

func (s *Store) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}
