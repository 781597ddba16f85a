// Package storage caches analysis results per domain in SQLite. The core
// pipeline never touches it; the CLI wires it in as the optional
// persistence collaborator.
package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hmizuno/helpmapper/internal/session"
	// SQLite database driver (CGO-free)
	_ "modernc.org/sqlite"
)

// Store persists analysis results keyed by domain.
type Store struct {
	db *sql.DB
}

// DomainEntry is one row of the cache listing.
type DomainEntry struct {
	Domain        string
	PagesAnalyzed int
	CreatedAt     time.Time
}

// NewStore opens (or creates) the cache database at the given path.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Single connection prevents lock conflicts
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(30 * time.Minute)

	store := &Store{db: db}
	if err := store.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

func (s *Store) initSchema() error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 30000",
	}

	for _, pragma := range pragmas {
		if _, err := s.db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute pragma %s: %w", pragma, err)
		}
	}

	if _, err := s.db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveResult upserts one analysis result keyed by its domain.
func (s *Store) SaveResult(result *session.Result) error {
	if result == nil || result.Domain == "" {
		return fmt.Errorf("result has no domain")
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO analyses (domain, session_id, pages_analyzed, result, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(domain) DO UPDATE SET
			session_id = excluded.session_id,
			pages_analyzed = excluded.pages_analyzed,
			result = excluded.result,
			created_at = excluded.created_at
	`, result.Domain, result.SessionID, result.Stats.PagesAnalyzed, string(payload), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save result for %s: %w", result.Domain, err)
	}

	return nil
}

// GetResult loads the cached result for a domain. Returns nil without
// error when no entry exists.
func (s *Store) GetResult(domain string) (*session.Result, time.Time, error) {
	var payload string
	var createdAt time.Time

	err := s.db.QueryRow(`
		SELECT result, created_at FROM analyses WHERE domain = ?
	`, domain).Scan(&payload, &createdAt)
	if err == sql.ErrNoRows {
		return nil, time.Time{}, nil
	}
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to load result for %s: %w", domain, err)
	}

	var result session.Result
	if err := json.Unmarshal([]byte(payload), &result); err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to unmarshal result for %s: %w", domain, err)
	}

	return &result, createdAt, nil
}

// GetFresh returns the cached result for a domain only if it is younger
// than ttl. Stale or missing entries return nil without error.
func (s *Store) GetFresh(domain string, ttl time.Duration) (*session.Result, error) {
	result, createdAt, err := s.GetResult(domain)
	if err != nil || result == nil {
		return nil, err
	}

	if time.Since(createdAt) > ttl {
		return nil, nil
	}
	return result, nil
}

// ListDomains returns every cached domain, newest first.
func (s *Store) ListDomains() ([]DomainEntry, error) {
	rows, err := s.db.Query(`
		SELECT domain, pages_analyzed, created_at
		FROM analyses
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list domains: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []DomainEntry
	for rows.Next() {
		var entry DomainEntry
		if err := rows.Scan(&entry.Domain, &entry.PagesAnalyzed, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan domain row: %w", err)
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

// DeleteDomain removes one cached analysis.
func (s *Store) DeleteDomain(domain string) error {
	_, err := s.db.Exec(`DELETE FROM analyses WHERE domain = ?`, domain)
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", domain, err)
	}
	return nil
}
