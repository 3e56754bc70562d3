package candidates

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/spigell/cv-screener/internal/screening"
)

const timeLayout = time.RFC3339Nano

// SQLiteStore persists candidates in a SQLite database file.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLite opens (or creates) the database at path.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("sqlite: path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("sqlite: mkdir %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open db: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite: single writer

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: init schema: %w", err)
	}

	return &SQLiteStore{db: db, now: time.Now}, nil
}

func initSchema(ctx context.Context, db *sql.DB) error {
	statements := []string{
		`PRAGMA foreign_keys = ON`,
		`CREATE TABLE IF NOT EXISTS candidates (
			id         TEXT PRIMARY KEY,
			name       TEXT NOT NULL,
			email      TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS screening_results (
			seq          INTEGER PRIMARY KEY AUTOINCREMENT,
			candidate_id TEXT NOT NULL REFERENCES candidates(id) ON DELETE CASCADE,
			payload      TEXT NOT NULL,
			created_at   TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_results_candidate ON screening_results(candidate_id, seq)`,
	}
	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteStore) Create(ctx context.Context, p Profile) (Candidate, error) {
	p, err := normalizeProfile(p)
	if err != nil {
		return Candidate{}, err
	}

	now := s.now().UTC()
	c := Candidate{
		ID:        uuid.NewString(),
		Name:      p.Name,
		Email:     p.Email,
		History:   []screening.ScreeningResult{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO candidates (id, name, email, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.Email, now.Format(timeLayout), now.Format(timeLayout),
	)
	if err != nil {
		return Candidate{}, fmt.Errorf("sqlite: insert candidate: %w", err)
	}

	return c, nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (Candidate, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, email, created_at, updated_at FROM candidates WHERE id = ?`, id)

	c, err := scanCandidate(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Candidate{}, ErrNotFound
	}
	if err != nil {
		return Candidate{}, fmt.Errorf("sqlite: get candidate: %w", err)
	}

	if err := s.loadHistory(ctx, &c); err != nil {
		return Candidate{}, err
	}
	return c, nil
}

func (s *SQLiteStore) AppendResult(ctx context.Context, id string, result screening.ScreeningResult) (Candidate, error) {
	payload, err := json.Marshal(result)
	if err != nil {
		return Candidate{}, fmt.Errorf("sqlite: encode result: %w", err)
	}
	now := s.now().UTC().Format(timeLayout)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Candidate{}, fmt.Errorf("sqlite: begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.ExecContext(ctx, `UPDATE candidates SET updated_at = ? WHERE id = ?`, now, id)
	if err != nil {
		return Candidate{}, fmt.Errorf("sqlite: touch candidate: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return Candidate{}, ErrNotFound
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO screening_results (candidate_id, payload, created_at) VALUES (?, ?, ?)`,
		id, string(payload), now,
	); err != nil {
		return Candidate{}, fmt.Errorf("sqlite: insert result: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Candidate{}, fmt.Errorf("sqlite: commit: %w", err)
	}

	return s.Get(ctx, id)
}

func (s *SQLiteStore) List(ctx context.Context, f Filter) ([]Candidate, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, email, created_at, updated_at FROM candidates ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list candidates: %w", err)
	}

	list := []Candidate{}
	for rows.Next() {
		c, err := scanCandidate(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("sqlite: scan candidate: %w", err)
		}
		list = append(list, c)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("sqlite: list candidates: %w", err)
	}
	rows.Close()

	// A single connection is shared, so histories load after the cursor is closed.
	for i := range list {
		if err := s.loadHistory(ctx, &list[i]); err != nil {
			return nil, err
		}
	}

	return f.apply(list), nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

type scanner interface {
	Scan(dest ...any) error
}

func scanCandidate(row scanner) (Candidate, error) {
	var c Candidate
	var created, updated string
	if err := row.Scan(&c.ID, &c.Name, &c.Email, &created, &updated); err != nil {
		return Candidate{}, err
	}

	var err error
	if c.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
		return Candidate{}, fmt.Errorf("parse created_at: %w", err)
	}
	if c.UpdatedAt, err = time.Parse(timeLayout, updated); err != nil {
		return Candidate{}, fmt.Errorf("parse updated_at: %w", err)
	}
	return c, nil
}

func (s *SQLiteStore) loadHistory(ctx context.Context, c *Candidate) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT payload FROM screening_results WHERE candidate_id = ? ORDER BY seq`, c.ID)
	if err != nil {
		return fmt.Errorf("sqlite: load history: %w", err)
	}
	defer rows.Close()

	c.History = []screening.ScreeningResult{}
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return fmt.Errorf("sqlite: scan result: %w", err)
		}
		var r screening.ScreeningResult
		if err := json.Unmarshal([]byte(payload), &r); err != nil {
			return fmt.Errorf("sqlite: decode result: %w", err)
		}
		c.History = append(c.History, r)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("sqlite: load history: %w", err)
	}

	c.LatestResult = nil
	if n := len(c.History); n > 0 {
		c.LatestResult = &c.History[n-1]
	}
	return nil
}
