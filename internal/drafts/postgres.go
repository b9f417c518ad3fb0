package drafts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore keeps drafts in a shared PostgreSQL database so that a
// pit-side machine can pick up drafts from every scouting station.
type PostgresStore struct {
	pool *pgxpool.Pool
}

var _ Store = (*PostgresStore)(nil)

// OpenPostgres connects to dsn, verifies the connection and creates the
// schema.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres drafts store needs a dsn")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	s, err := NewPostgresStore(ctx, pool)
	if err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// NewPostgresStore initialises the schema using pool.
func NewPostgresStore(ctx context.Context, pool *pgxpool.Pool) (*PostgresStore, error) {
	s := &PostgresStore{pool: pool}
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS scout_drafts (
			id TEXT PRIMARY KEY,
			match_number INTEGER NOT NULL,
			on_left BOOLEAN NOT NULL,
			phase TEXT NOT NULL,
			events JSONB NOT NULL,
			comments TEXT NOT NULL DEFAULT '',
			drive_comments TEXT NOT NULL DEFAULT '',
			last_error TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`)
	if err != nil {
		return nil, fmt.Errorf("init drafts schema: %w", err)
	}
	return s, nil
}

func (s *PostgresStore) Save(ctx context.Context, d *Draft) error {
	if err := prepare(d, time.Now()); err != nil {
		return err
	}
	events, err := encodeEvents(d.Events)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO scout_drafts (id, match_number, on_left, phase, events, comments, drive_comments, last_error, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			match_number = EXCLUDED.match_number,
			on_left = EXCLUDED.on_left,
			phase = EXCLUDED.phase,
			events = EXCLUDED.events,
			comments = EXCLUDED.comments,
			drive_comments = EXCLUDED.drive_comments,
			last_error = EXCLUDED.last_error,
			updated_at = EXCLUDED.updated_at`,
		d.ID,
		d.Match,
		d.OnLeft,
		d.Phase.String(),
		string(events),
		d.Comments,
		d.DriveComments,
		d.LastError,
		d.CreatedAt,
		d.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save draft %s: %w", d.ID, err)
	}
	return nil
}

const postgresColumns = `id, match_number, on_left, phase, events::text, comments, drive_comments, last_error, created_at, updated_at`

func scanPostgresDraft(row pgx.Row) (*Draft, error) {
	var d Draft
	var phase, events string
	if err := row.Scan(&d.ID, &d.Match, &d.OnLeft, &phase, &events, &d.Comments, &d.DriveComments, &d.LastError, &d.CreatedAt, &d.UpdatedAt); err != nil {
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
	return &d, nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*Draft, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+postgresColumns+` FROM scout_drafts WHERE id = $1`, id)
	d, err := scanPostgresDraft(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return d, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]*Draft, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+postgresColumns+` FROM scout_drafts ORDER BY updated_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("list drafts: %w", err)
	}
	defer rows.Close()

	var out []*Draft
	for rows.Next() {
		d, err := scanPostgresDraft(rows)
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

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM scout_drafts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete draft %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
