// Package audit persists a record of each linking run: which document was
// processed, a digest of its content, and every substitution that was made.
package audit

import (
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/zeebo/blake3"

	"github.com/openmdma/folio/core/errors"
	"github.com/openmdma/folio/core/glossary"
	"github.com/openmdma/folio/core/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id             TEXT PRIMARY KEY,
	started_at     TEXT NOT NULL,
	command        TEXT NOT NULL,
	source_path    TEXT NOT NULL,
	source_digest  TEXT NOT NULL,
	substitutions  INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS substitutions (
	run_id   TEXT NOT NULL REFERENCES runs(id),
	term     TEXT NOT NULL,
	section  TEXT NOT NULL,
	offset   INTEGER NOT NULL,
	matched  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_substitutions_run ON substitutions(run_id);
`

// Run is one recorded invocation.
type Run struct {
	ID            string
	StartedAt     time.Time
	Command       string
	SourcePath    string
	SourceDigest  string
	Substitutions int
}

// Store is a SQLite-backed run log.
type Store struct {
	db *sql.DB
}

// Digest returns the hex BLAKE3 digest of the document content.
func Digest(content []byte) string {
	sum := blake3.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// Open opens (creating if needed) the audit database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.NewIO("create audit dir", dir, err)
		}
	}
	db, err := sqlite.Open(path)
	if err != nil {
		return nil, errors.NewIO("open audit db", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.NewIO("init audit schema", path, err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordRun inserts a run and its substitutions in one transaction and
// returns the generated run ID.
func (s *Store) RecordRun(command, sourcePath string, content []byte, subs []glossary.Substitution) (string, error) {
	id := uuid.NewString()

	tx, err := s.db.Begin()
	if err != nil {
		return "", fmt.Errorf("begin audit tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO runs (id, started_at, command, source_path, source_digest, substitutions) VALUES (?, ?, ?, ?, ?, ?)`,
		id, time.Now().UTC().Format(time.RFC3339), command, sourcePath, Digest(content), len(subs),
	)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO substitutions (run_id, term, section, offset, matched) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("prepare substitution insert: %w", err)
	}
	defer stmt.Close()
	for _, sub := range subs {
		if _, err := stmt.Exec(id, sub.TermID, sub.Section, sub.Offset, sub.Matched); err != nil {
			return "", fmt.Errorf("insert substitution: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit audit tx: %w", err)
	}
	return id, nil
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(
		`SELECT id, started_at, command, source_path, source_digest, substitutions
		 FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var started string
		if err := rows.Scan(&r.ID, &started, &r.Command, &r.SourcePath, &r.SourceDigest, &r.Substitutions); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.StartedAt, _ = time.Parse(time.RFC3339, started)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// RunSubstitutions returns the substitutions recorded for one run.
func (s *Store) RunSubstitutions(runID string) ([]glossary.Substitution, error) {
	rows, err := s.db.Query(
		`SELECT term, section, offset, matched FROM substitutions WHERE run_id = ? ORDER BY offset`, runID)
	if err != nil {
		return nil, fmt.Errorf("query substitutions: %w", err)
	}
	defer rows.Close()

	var subs []glossary.Substitution
	for rows.Next() {
		var sub glossary.Substitution
		if err := rows.Scan(&sub.TermID, &sub.Section, &sub.Offset, &sub.Matched); err != nil {
			return nil, fmt.Errorf("scan substitution: %w", err)
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}
