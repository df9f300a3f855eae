// Package journal records input events flowing through a transport channel
// into a sqlite database, for diagnostics and replay. Frames are stored as
// their exact wire encoding, so replaying a journal re-exercises the same
// codec path as live traffic.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mithrel/inputwire/pkg/transport"
)

const schema = `
CREATE TABLE IF NOT EXISTS events (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	kind        INTEGER NOT NULL,
	recorded_at INTEGER NOT NULL,
	frame       BLOB    NOT NULL,
	handled     INTEGER NOT NULL
);
`

// Entry is one recorded event.
type Entry struct {
	ID         int64
	RecordedAt time.Time
	Handled    bool
	Message    transport.Message
}

// Store is an append-only event journal backed by sqlite.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the journal at path.
func Open(ctx context.Context, path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.ExecContext(ctx, `PRAGMA journal_mode=WAL;`); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("journal: init schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Append records one event frame and whether the application handled it.
func (s *Store) Append(ctx context.Context, msg *transport.Message, handled bool) error {
	frame, err := msg.MarshalBinary()
	if err != nil {
		return err
	}
	h := 0
	if handled {
		h = 1
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO events (kind, recorded_at, frame, handled) VALUES (?, ?, ?, ?)`,
		uint32(msg.Kind), time.Now().UnixNano(), frame, h)
	if err != nil {
		return fmt.Errorf("journal: append %v frame: %w", msg.Kind, err)
	}
	return nil
}

// Events returns every recorded entry in append order. Entries whose stored
// frame no longer decodes are reported as an error rather than skipped: a
// corrupt journal should be noticed, not silently replayed short.
func (s *Store) Events(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, recorded_at, frame, handled FROM events ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e       Entry
			nanos   int64
			frame   []byte
			handled int
		)
		if err := rows.Scan(&e.ID, &nanos, &frame, &handled); err != nil {
			return nil, err
		}
		if err := e.Message.UnmarshalBinary(frame); err != nil {
			return nil, fmt.Errorf("journal: entry %d: %w", e.ID, err)
		}
		e.RecordedAt = time.Unix(0, nanos)
		e.Handled = handled != 0
		out = append(out, e)
	}
	return out, rows.Err()
}

// Len returns the number of recorded entries.
func (s *Store) Len(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM events`).Scan(&n)
	return n, err
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }
