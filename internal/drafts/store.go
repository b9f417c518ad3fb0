// Package drafts keeps unsubmitted match logs on disk so that a crashed or
// abandoned session can be resumed or resubmitted later.
package drafts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/quickscout/quickscout-go/internal/scout"
)

// ErrNotFound is returned when no draft has the requested ID.
var ErrNotFound = errors.New("draft not found")

// Draft is a persisted copy of a session that has not been accepted by
// the backend yet.
type Draft struct {
	ID            string        `json:"id"`
	Match         int           `json:"match"`
	OnLeft        bool          `json:"on_left"`
	Phase         scout.Phase   `json:"phase"`
	Events        []scout.Event `json:"events"`
	Comments      string        `json:"comments,omitempty"`
	DriveComments string        `json:"drive_comments,omitempty"`
	LastError     string        `json:"last_error,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// Payload builds the submission document for the draft.
func (d *Draft) Payload() scout.Payload {
	events := make([]scout.Event, len(d.Events))
	copy(events, d.Events)
	return scout.Payload{
		Comments:      d.Comments,
		DriveComments: d.DriveComments,
		Events:        events,
	}
}

// MatchContext returns the match the draft was recorded for.
func (d *Draft) MatchContext() scout.MatchContext {
	return scout.MatchContext{Match: d.Match, OnLeft: d.OnLeft}
}

// Clone returns a deep copy.
func (d *Draft) Clone() *Draft {
	out := *d
	out.Events = make([]scout.Event, len(d.Events))
	copy(out.Events, d.Events)
	return &out
}

// Store persists drafts. Save inserts or replaces by ID.
type Store interface {
	Save(ctx context.Context, d *Draft) error
	Get(ctx context.Context, id string) (*Draft, error)
	// List returns every draft, most recently updated first.
	List(ctx context.Context) ([]*Draft, error)
	Delete(ctx context.Context, id string) error
	Close() error
}

// prepare fills in generated fields before a save.
func prepare(d *Draft, now time.Time) error {
	if d.Match < 1 {
		return fmt.Errorf("draft has invalid match number %d", d.Match)
	}
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = now
	}
	d.UpdatedAt = now
	return nil
}

func encodeEvents(events []scout.Event) ([]byte, error) {
	if events == nil {
		events = []scout.Event{}
	}
	data, err := json.Marshal(events)
	if err != nil {
		return nil, fmt.Errorf("encode events: %w", err)
	}
	return data, nil
}

func decodeEvents(data []byte) ([]scout.Event, error) {
	var events []scout.Event
	if len(data) == 0 {
		return events, nil
	}
	if err := json.Unmarshal(data, &events); err != nil {
		return nil, fmt.Errorf("decode events: %w", err)
	}
	return events, nil
}

// Open returns the store for driver: "sqlite", "postgres" or "memory".
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	switch driver {
	case "sqlite", "":
		s, err := OpenSQLite(dsn)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "postgres":
		s, err := OpenPostgres(ctx, dsn)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown drafts driver %q", driver)
	}
}
