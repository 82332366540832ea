// Package store keeps a local library of previously loaded chart payloads
// in SQLite.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when no chart has the requested id.
var ErrNotFound = errors.New("chart not found")

// Entry is one saved chart. Payload holds the backend JSON as received.
type Entry struct {
	ID          string
	Name        string
	Source      string
	Payload     []byte
	CreatedAt   time.Time
	OpenedAt    time.Time
	OpenedCount int
}

// Size returns the payload size in bytes.
func (e Entry) Size() int {
	return len(e.Payload)
}

type entryRow struct {
	ID          string `db:"id"`
	Name        string `db:"name"`
	Source      string `db:"source"`
	Payload     []byte `db:"payload"`
	CreatedAt   int64  `db:"created_at"`
	OpenedAt    int64  `db:"opened_at"`
	OpenedCount int    `db:"opened_count"`
}

func (r entryRow) entry() Entry {
	return Entry{
		ID:          r.ID,
		Name:        r.Name,
		Source:      r.Source,
		Payload:     r.Payload,
		CreatedAt:   time.Unix(0, r.CreatedAt),
		OpenedAt:    time.Unix(0, r.OpenedAt),
		OpenedCount: r.OpenedCount,
	}
}

// Store wraps a SQLite connection holding the chart library.
type Store struct {
	conn *sqlx.DB
	now  func() time.Time
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*Store, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &Store{conn: conn, now: time.Now}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS charts (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		source TEXT NOT NULL UNIQUE,
		payload BLOB NOT NULL,
		created_at INTEGER NOT NULL,
		opened_at INTEGER NOT NULL,
		opened_count INTEGER NOT NULL DEFAULT 1
	);

	CREATE INDEX IF NOT EXISTS idx_charts_opened ON charts(opened_at);
	`
	_, err := s.conn.Exec(schema)
	return err
}

// Save records an opened payload. A source seen before keeps its id and has
// its payload, name and open count updated; a new source gets a fresh id.
func (s *Store) Save(name, source string, payload []byte) (Entry, error) {
	return s.upsert(name, source, payload, true)
}

// Refresh stores a reloaded payload without counting it as an open. A new
// source is inserted as by Save.
func (s *Store) Refresh(name, source string, payload []byte) (Entry, error) {
	return s.upsert(name, source, payload, false)
}

func (s *Store) upsert(name, source string, payload []byte, opened bool) (Entry, error) {
	now := s.now().UnixNano()

	tx, err := s.conn.Beginx()
	if err != nil {
		return Entry{}, err
	}
	defer tx.Rollback()

	var id string
	err = tx.Get(&id, "SELECT id FROM charts WHERE source = ?", source)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		id = uuid.NewString()
		_, err = tx.Exec(`INSERT INTO charts
			(id, name, source, payload, created_at, opened_at, opened_count)
			VALUES (?, ?, ?, ?, ?, ?, 1)`,
			id, name, source, payload, now, now)
		if err != nil {
			return Entry{}, fmt.Errorf("insert chart: %w", err)
		}
	case err != nil:
		return Entry{}, fmt.Errorf("lookup chart: %w", err)
	case opened:
		_, err = tx.Exec(`UPDATE charts
			SET name = ?, payload = ?, opened_at = ?, opened_count = opened_count + 1
			WHERE id = ?`,
			name, payload, now, id)
		if err != nil {
			return Entry{}, fmt.Errorf("update chart: %w", err)
		}
	default:
		_, err = tx.Exec("UPDATE charts SET name = ?, payload = ? WHERE id = ?", name, payload, id)
		if err != nil {
			return Entry{}, fmt.Errorf("update chart: %w", err)
		}
	}

	var row entryRow
	if err := tx.Get(&row, "SELECT * FROM charts WHERE id = ?", id); err != nil {
		return Entry{}, fmt.Errorf("reload chart: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return Entry{}, err
	}
	return row.entry(), nil
}

// Recent returns up to limit charts, most recently opened first.
func (s *Store) Recent(limit int) ([]Entry, error) {
	var rows []entryRow
	err := s.conn.Select(&rows,
		"SELECT * FROM charts ORDER BY opened_at DESC, created_at DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, len(rows))
	for i, r := range rows {
		entries[i] = r.entry()
	}
	return entries, nil
}

// Get returns the chart with the given id.
func (s *Store) Get(id string) (Entry, error) {
	var row entryRow
	err := s.conn.Get(&row, "SELECT * FROM charts WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, err
	}
	return row.entry(), nil
}

// Touch marks a chart as opened now.
func (s *Store) Touch(id string) error {
	res, err := s.conn.Exec(
		"UPDATE charts SET opened_at = ?, opened_count = opened_count + 1 WHERE id = ?",
		s.now().UnixNano(), id,
	)
	if err != nil {
		return err
	}
	return expectOne(res)
}

// Delete removes a chart from the library.
func (s *Store) Delete(id string) error {
	res, err := s.conn.Exec("DELETE FROM charts WHERE id = ?", id)
	if err != nil {
		return err
	}
	return expectOne(res)
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
