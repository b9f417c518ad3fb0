package drafts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore is a Store backed by a local SQLite file. It is the default
// draft spool on a scouting laptop.
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// OpenSQLite opens (creating if needed) the database at path. An empty
// path or ":memory:" gives a private in-memory database.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if path == "" {
		path = ":memory:"
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create drafts directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// One connection keeps ":memory:" databases shared and serialises
	// writers.
	db.SetMaxOpenConns(1)
	s, err := NewSQLiteStore(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewSQLiteStore initialises the schema in db.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("init drafts schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS drafts (
			id TEXT PRIMARY KEY,
			match_number INTEGER NOT NULL,
			on_left INTEGER NOT NULL,
			phase TEXT NOT NULL,
			events TEXT NOT NULL,
			comments TEXT NOT NULL DEFAULT '',
			drive_comments TEXT NOT NULL DEFAULT '',
			last_error TEXT NOT NULL DEFAULT '',
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		);`,
	)
	return err
}

func (s *SQLiteStore) Save(ctx context.Context, d *Draft) error {
	if err := prepare(d, time.Now()); err != nil {
		return err
	}
	events, err := encodeEvents(d.Events)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO drafts (id, match_number, on_left, phase, events, comments, drive_comments, last_error, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			match_number = excluded.match_number,
			on_left = excluded.on_left,
			phase = excluded.phase,
			events = excluded.events,
			comments = excluded.comments,
			drive_comments = excluded.drive_comments,
			last_error = excluded.last_error,
			updated_at = excluded.updated_at`,
		d.ID,
		d.Match,
		d.OnLeft,
		d.Phase.String(),
		string(events),
		d.Comments,
		d.DriveComments,
		d.LastError,
		d.CreatedAt.UnixMilli(),
		d.UpdatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("save draft %s: %w", d.ID, err)
	}
	return nil
}

const sqliteColumns = `id, match_number, on_left, phase, events, comments, drive_comments, last_error, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteDraft(row rowScanner) (*Draft, error) {
	var d Draft
	var phase, events string
	var created, updated int64
	if err := row.Scan(&d.ID, &d.Match, &d.OnLeft, &phase, &events, &d.Comments, &d.DriveComments, &d.LastError, &created, &updated); err != nil {
		return nil, err
	}
	if err := d.Phase.UnmarshalText([]byte(phase)); err != nil {
		return nil, fmt.Errorf("draft %s: %w", d.ID, err)
	}
	decoded, err := decodeEvents([]byte(events))
	if err != nil {
		return nil, fmt.Errorf("draft %s: %w", d.ID, err)
	}
	d.Events = decoded
	d.CreatedAt = time.UnixMilli(created)
	d.UpdatedAt = time.UnixMilli(updated)
	return &d, nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (*Draft, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sqliteColumns+` FROM drafts WHERE id = ?`, id)
	d, err := scanSQLiteDraft(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return d, nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]*Draft, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+sqliteColumns+` FROM drafts ORDER BY updated_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("list drafts: %w", err)
	}
	defer rows.Close()

	var out []*Draft
	for rows.Next() {
		d, err := scanSQLiteDraft(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM drafts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete draft %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
