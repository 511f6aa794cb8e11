package history

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Store keeps a record of past keyword extractions so runs can be compared
// over time.
type Store struct {
	readDB  *sql.DB
	writeDB *sql.DB
}

// Entry is one recorded extraction for a channel.
type Entry struct {
	ID          int64
	Channel     string
	Title       string
	Keywords    []string
	ExtractedAt time.Time
}

func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating history dir: %w", err)
	}

	writeDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening write db: %w", err)
	}
	writeDB.SetMaxOpenConns(1)

	readDB, err := sql.Open("sqlite", dbPath+"?mode=ro")
	if err != nil {
		writeDB.Close()
		return nil, fmt.Errorf("opening read db: %w", err)
	}

	s := &Store{readDB: readDB, writeDB: writeDB}
	if err := s.init(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) init() error {
	_, err := s.writeDB.Exec(`
		CREATE TABLE IF NOT EXISTS extractions (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			channel      TEXT NOT NULL,
			title        TEXT NOT NULL,
			keywords     TEXT NOT NULL,
			extracted_at DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_extractions_channel ON extractions(channel);
		CREATE INDEX IF NOT EXISTS idx_extractions_time ON extractions(extracted_at DESC);

		CREATE TABLE IF NOT EXISTS meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("initializing schema: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	var errs []error
	if s.readDB != nil {
		errs = append(errs, s.readDB.Close())
	}
	if s.writeDB != nil {
		errs = append(errs, s.writeDB.Close())
	}
	for _, e := range errs {
		if e != nil {
			return e
		}
	}
	return nil
}

// Record stores one extraction. Keywords are stored as a JSON array so order
// survives the round trip.
func (s *Store) Record(channel, title string, keywords []string, at time.Time) error {
	kws, err := json.Marshal(keywords)
	if err != nil {
		return fmt.Errorf("encoding keywords: %w", err)
	}
	_, err = s.writeDB.Exec(`
		INSERT INTO extractions (channel, title, keywords, extracted_at)
		VALUES (?, ?, ?, ?)
	`, channel, title, string(kws), at.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("recording extraction for %s: %w", channel, err)
	}
	return nil
}

// Recent returns the latest entries, newest first. An empty channel matches
// all channels.
func (s *Store) Recent(channel string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}

	query := "SELECT id, channel, title, keywords, extracted_at FROM extractions"
	var args []interface{}
	if channel != "" {
		query += " WHERE channel = ?"
		args = append(args, channel)
	}
	query += fmt.Sprintf(" ORDER BY extracted_at DESC, id DESC LIMIT %d", limit)

	rows, err := s.readDB.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e   Entry
			kws string
			at  string
		)
		if err := rows.Scan(&e.ID, &e.Channel, &e.Title, &kws, &at); err != nil {
			return nil, fmt.Errorf("scanning history entry: %w", err)
		}
		if err := json.Unmarshal([]byte(kws), &e.Keywords); err != nil {
			return nil, fmt.Errorf("decoding keywords for entry %d: %w", e.ID, err)
		}
		if t, err := time.Parse(time.RFC3339, at); err == nil {
			e.ExtractedAt = t
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Prune deletes entries older than the retention period and reports how many
// were removed.
func (s *Store) Prune(olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan).UTC().Format(time.RFC3339)
	res, err := s.writeDB.Exec("DELETE FROM extractions WHERE extracted_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("pruning history: %w", err)
	}
	return res.RowsAffected()
}

// Stats reports the entry count and database file size.
func (s *Store) Stats(dbPath string) (count int64, size int64, err error) {
	if err := s.readDB.QueryRow("SELECT COUNT(*) FROM extractions").Scan(&count); err != nil {
		return 0, 0, fmt.Errorf("counting entries: %w", err)
	}
	info, err := os.Stat(dbPath)
	if err != nil {
		return count, 0, fmt.Errorf("reading db size: %w", err)
	}
	return count, info.Size(), nil
}

// SetLastRun records when the pipeline last completed.
func (s *Store) SetLastRun(t time.Time) error {
	_, err := s.writeDB.Exec(`
		INSERT INTO meta (key, value) VALUES ('last_run', ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, t.UTC().Format(time.RFC3339))
	return err
}

// LastRun returns the previous run time, if one was recorded.
func (s *Store) LastRun() (time.Time, bool) {
	var value string
	if err := s.readDB.QueryRow("SELECT value FROM meta WHERE key = 'last_run'").Scan(&value); err != nil {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
