package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/jwulff/captionbuddy/internal/caption"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a recording does not exist.
var ErrNotFound = errors.New("recording not found")

const schema = `
	CREATE TABLE IF NOT EXISTS recordings (
		id TEXT PRIMARY KEY,
		mediaRef TEXT NOT NULL,
		createdAt REAL NOT NULL,
		captions TEXT
	);
	CREATE INDEX IF NOT EXISTS recordings_createdAt ON recordings(createdAt);
`

// Store persists recordings in SQLite.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// DefaultDBPath returns the default database path.
func DefaultDBPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir, _ = os.UserHomeDir()
	}
	return filepath.Join(dir, "CaptionBuddy", "captionbuddy.sqlite")
}

// Open opens (creating if needed) the database at path with WAL enabled.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create database dir: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Verify connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s, err := newStore(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// OpenMemory opens a private in-memory database.
func OpenMemory() (*Store, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// Each connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)

	s, err := newStore(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func newStore(db *sql.DB) (*Store, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save stores a new recording for mediaRef with its captions.
func (s *Store) Save(ctx context.Context, mediaRef string, captions []caption.Segment) (Recording, error) {
	data, err := caption.MarshalJSON(captions)
	if err != nil {
		return Recording{}, err
	}

	rec := Recording{
		ID:        uuid.New().String(),
		MediaRef:  mediaRef,
		CreatedAt: s.now(),
		Captions:  captions,
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO recordings (id, mediaRef, createdAt, captions)
		VALUES (?, ?, ?, ?)
	`, rec.ID, rec.MediaRef, unixFromTime(rec.CreatedAt), string(data))
	if err != nil {
		return Recording{}, fmt.Errorf("insert recording: %w", err)
	}
	return rec, nil
}

// FetchAll returns every recording, newest first.
func (s *Store) FetchAll(ctx context.Context) ([]Recording, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, mediaRef, createdAt, captions
		FROM recordings
		ORDER BY createdAt DESC, rowid DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query recordings: %w", err)
	}
	defer rows.Close()

	var recs []Recording
	for rows.Next() {
		rec, err := scanRecording(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// Get returns the recording with id.
func (s *Store) Get(ctx context.Context, id string) (Recording, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, mediaRef, createdAt, captions
		FROM recordings
		WHERE id = ?
	`, id)

	rec, err := scanRecording(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Recording{}, ErrNotFound
	}
	return rec, err
}

// Delete removes the recording with id.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM recordings WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete recording: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete recording: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

// scanRecording reads one row. Captions that fail to decode are logged and
// treated as no captions so one bad row does not hide the library.
func scanRecording(row scanner) (Recording, error) {
	var rec Recording
	var createdAt float64
	var captions sql.NullString

	if err := row.Scan(&rec.ID, &rec.MediaRef, &createdAt, &captions); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Recording{}, err
		}
		return Recording{}, fmt.Errorf("scan recording: %w", err)
	}
	rec.CreatedAt = timeFromUnix(createdAt)

	if captions.Valid {
		segs, err := caption.ParseJSON([]byte(captions.String))
		if err != nil {
			log.Printf("db: recording %s: %v", rec.ID, err)
		} else {
			rec.Captions = segs
		}
	}
	return rec, nil
}

func unixFromTime(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}

func timeFromUnix(ts float64) time.Time {
	sec := int64(ts)
	nsec := int64((ts - float64(sec)) * 1e9)
	return time.Unix(sec, nsec)
}
