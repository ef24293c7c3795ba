// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package history persists a log of retrieval attempts in SQLite so
// reruns can be audited after the worklist has been overwritten.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// Attempt is one recorded retrieval attempt.
type Attempt struct {
	ID         string
	Project    string
	Seq        string
	Category   string
	Status     string
	Detail     string
	StartedAt  time.Time
	FinishedAt time.Time
}

// Store manages the attempt log database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the attempt log at path, creating the schema
// if it does not exist.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating history directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}
	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS attempts (
		id TEXT PRIMARY KEY,
		project TEXT NOT NULL,
		seq TEXT NOT NULL,
		category TEXT,
		status TEXT NOT NULL,
		detail TEXT,
		started_at TEXT NOT NULL,
		finished_at TEXT NOT NULL
	)`)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`CREATE INDEX IF NOT EXISTS idx_attempts_project
		ON attempts(project, started_at)`)
	return err
}

// Record inserts an attempt, assigning an ID when none is set.
func (s *Store) Record(a Attempt) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	_, err := s.db.Exec(
		`INSERT INTO attempts (id, project, seq, category, status, detail, started_at, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Project, a.Seq, a.Category, a.Status, a.Detail,
		a.StartedAt.UTC().Format(time.RFC3339Nano),
		a.FinishedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("recording attempt %s/%s: %w", a.Project, a.Seq, err)
	}
	return nil
}

// ByProject returns a project's attempts in start order.
func (s *Store) ByProject(project string) ([]Attempt, error) {
	rows, err := s.db.Query(
		`SELECT id, project, seq, category, status, detail, started_at, finished_at
		 FROM attempts WHERE project = ? ORDER BY started_at`, project)
	if err != nil {
		return nil, fmt.Errorf("listing attempts for %s: %w", project, err)
	}
	defer rows.Close()

	var attempts []Attempt
	for rows.Next() {
		var a Attempt
		var started, finished string
		if err := rows.Scan(&a.ID, &a.Project, &a.Seq, &a.Category, &a.Status, &a.Detail, &started, &finished); err != nil {
			return nil, fmt.Errorf("scanning attempt: %w", err)
		}
		if a.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
			return nil, fmt.Errorf("parsing attempt start time: %w", err)
		}
		if a.FinishedAt, err = time.Parse(time.RFC3339Nano, finished); err != nil {
			return nil, fmt.Errorf("parsing attempt finish time: %w", err)
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}
