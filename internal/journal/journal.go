// Package journal keeps unsaved drafts on disk so a crash or a closed terminal
// does not lose local edits.
package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned by Load when no draft is stored for a course.
var ErrNotFound = errors.New("journal entry not found")

// Entry is one autosaved draft. BaseSignature is the signature of the server
// state the draft was made against.
type Entry struct {
	CourseID      string
	BaseSignature string
	Snapshot      []byte
	UpdatedAt     time.Time
}

// Journal is a sqlite-backed draft store.
type Journal struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (or creates) the journal at path. ":memory:" gives a private
// in-process database.
func Open(ctx context.Context, path string) (*Journal, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("journal path is required")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return nil, fmt.Errorf("create journal dir: %w", err)
		}
	}
	// modernc.org/sqlite driver name is "sqlite".
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	// one connection so ":memory:" is a single database
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("configure journal: %w", err)
		}
	}
	if err := migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Journal{db: db, now: time.Now}, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS drafts (
		course_id TEXT PRIMARY KEY,
		base_signature TEXT NOT NULL,
		snapshot BLOB NOT NULL,
		updated_at_unixms INTEGER NOT NULL
	);`)
	if err != nil {
		return fmt.Errorf("migrate journal: %w", err)
	}
	return nil
}

func (j *Journal) Close() error {
	return j.db.Close()
}

// Save stores e, replacing any earlier draft of the same course.
func (j *Journal) Save(ctx context.Context, e Entry) error {
	if strings.TrimSpace(e.CourseID) == "" {
		return errors.New("journal entry needs a course id")
	}
	if e.UpdatedAt.IsZero() {
		e.UpdatedAt = j.now()
	}
	_, err := j.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO drafts(course_id, base_signature, snapshot, updated_at_unixms) VALUES(?, ?, ?, ?)`,
		e.CourseID, e.BaseSignature, e.Snapshot, e.UpdatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("save draft %s: %w", e.CourseID, err)
	}
	return nil
}

// Load returns the stored draft of courseID or ErrNotFound.
func (j *Journal) Load(ctx context.Context, courseID string) (Entry, error) {
	var (
		e  Entry
		ms int64
	)
	err := j.db.QueryRowContext(ctx,
		`SELECT course_id, base_signature, snapshot, updated_at_unixms FROM drafts WHERE course_id = ?`,
		courseID,
	).Scan(&e.CourseID, &e.BaseSignature, &e.Snapshot, &ms)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, fmt.Errorf("load draft %s: %w", courseID, err)
	}
	e.UpdatedAt = time.UnixMilli(ms)
	return e, nil
}

// Clear removes the draft of courseID. Clearing a missing draft is not an error.
func (j *Journal) Clear(ctx context.Context, courseID string) error {
	if _, err := j.db.ExecContext(ctx, `DELETE FROM drafts WHERE course_id = ?`, courseID); err != nil {
		return fmt.Errorf("clear draft %s: %w", courseID, err)
	}
	return nil
}

// List returns every stored draft, most recent first.
func (j *Journal) List(ctx context.Context) ([]Entry, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT course_id, base_signature, updated_at_unixms FROM drafts ORDER BY updated_at_unixms DESC, course_id`,
	)
	if err != nil {
		return nil, fmt.Errorf("list drafts: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e  Entry
			ms int64
		)
		if err := rows.Scan(&e.CourseID, &e.BaseSignature, &ms); err != nil {
			return nil, fmt.Errorf("list drafts: %w", err)
		}
		e.UpdatedAt = time.UnixMilli(ms)
		out = append(out, e)
	}
	return out, rows.Err()
}
