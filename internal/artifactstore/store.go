package artifactstore

import (
	"context"
	"database/sql"
	_ "embed"
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

// Store manages artifact persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the artifact database for one session.
func Open(cfg *config.Config, sessionID string) (*Store, error) {
	dir := cfg.SessionDir(sessionID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure session directory: %w", err)
	}

	dbPath := filepath.Join(dir, "artifacts.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
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

// Save stores payload under name, always allocating a new version. Existing
// (name, version) rows are never overwritten.
func (s *Store) Save(ctx context.Context, name string, payload []byte, mimeType string) (document.ArtifactRef, error) {
	if name == "" {
		return document.ArtifactRef{}, services.Wrap(services.ErrValidation, "artifactstore", "save", "artifact name must be set", nil)
	}
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)

	// Version allocation and insert happen in one statement so concurrent
	// saves under the same name cannot race the MAX(version) read.
	var version int64
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO artifacts (name, version, mime_type, payload, created_at)
         VALUES (?, (SELECT COALESCE(MAX(version), 0) + 1 FROM artifacts WHERE name = ?), ?, ?, ?)
         RETURNING version`,
		name, name, mimeType, payload, timestamp,
	).Scan(&version)
	if err != nil {
		return document.ArtifactRef{}, services.Wrap(services.ErrStorage, "artifactstore", "save", "insert artifact", err)
	}

	return document.ArtifactRef{Name: name, Version: version, MimeType: mimeType}, nil
}

// Load fetches the payload for ref. A missing (name, version) pair reports
// services.ErrNotFound.
func (s *Store) Load(ctx context.Context, ref document.ArtifactRef) ([]byte, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM artifacts WHERE name = ? AND version = ?`, ref.Name, ref.Version,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, services.Wrap(services.ErrNotFound, "artifactstore", "load", ref.String(), nil)
	}
	if err != nil {
		return nil, services.Wrap(services.ErrStorage, "artifactstore", "load", ref.String(), err)
	}
	return payload, nil
}

// List returns every stored artifact reference in insertion order.
func (s *Store) List(ctx context.Context) ([]document.ArtifactRef, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, version, mime_type FROM artifacts ORDER BY id ASC`)
	if err != nil {
		return nil, services.Wrap(services.ErrStorage, "artifactstore", "list", "query artifacts", err)
	}
	defer rows.Close()

	var refs []document.ArtifactRef
	for rows.Next() {
		var ref document.ArtifactRef
		if err := rows.Scan(&ref.Name, &ref.Version, &ref.MimeType); err != nil {
			return nil, services.Wrap(services.ErrStorage, "artifactstore", "list", "scan artifact", err)
		}
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, services.Wrap(services.ErrStorage, "artifactstore", "list", "iterate artifacts", err)
	}
	return refs, nil
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
