package snapshot

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS snapshots (
    name TEXT PRIMARY KEY,
    saved_at TEXT NOT NULL,
    windows INTEGER NOT NULL,
    groups_count INTEGER NOT NULL,
    state TEXT NOT NULL
);
`

// SQLiteStore keeps snapshots in a single SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens or creates the database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection keeps :memory: databases alive and serializes writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Save(snap Snapshot) error {
	if err := ValidateName(snap.Name); err != nil {
		return err
	}
	state, err := json.Marshal(snap.State)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO snapshots (name, saved_at, windows, groups_count, state)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			saved_at = excluded.saved_at,
			windows = excluded.windows,
			groups_count = excluded.groups_count,
			state = excluded.state
	`, strings.TrimSpace(snap.Name), snap.SavedAt.UTC().Format(time.RFC3339Nano),
		len(snap.State.Windows), len(snap.State.Groups), string(state))
	if err != nil {
		return fmt.Errorf("failed to save snapshot %q: %w", snap.Name, err)
	}
	return nil
}

func (s *SQLiteStore) Load(name string) (Snapshot, error) {
	if err := ValidateName(name); err != nil {
		return Snapshot{}, err
	}
	name = strings.TrimSpace(name)

	var savedAt, state string
	err := s.db.QueryRow(`SELECT saved_at, state FROM snapshots WHERE name = ?`, name).Scan(&savedAt, &state)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to load snapshot %q: %w", name, err)
	}

	snap := Snapshot{Name: name}
	if snap.SavedAt, err = time.Parse(time.RFC3339Nano, savedAt); err != nil {
		return Snapshot{}, fmt.Errorf("failed to parse snapshot %q time: %w", name, err)
	}
	if err := json.Unmarshal([]byte(state), &snap.State); err != nil {
		return Snapshot{}, fmt.Errorf("failed to parse snapshot %q: %w", name, err)
	}
	return snap, nil
}

func (s *SQLiteStore) List() ([]Info, error) {
	rows, err := s.db.Query(`SELECT name, saved_at, windows, groups_count FROM snapshots ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	var out []Info
	for rows.Next() {
		var info Info
		var savedAt string
		if err := rows.Scan(&info.Name, &savedAt, &info.Windows, &info.Groups); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		if t, err := time.Parse(time.RFC3339Nano, savedAt); err == nil {
			info.SavedAt = t
		}
		out = append(out, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	return out, nil
}

func (s *SQLiteStore) Delete(name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	name = strings.TrimSpace(name)
	res, err := s.db.Exec(`DELETE FROM snapshots WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("failed to delete snapshot %q: %w", name, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
