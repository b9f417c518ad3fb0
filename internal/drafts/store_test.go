package drafts

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quickscout/quickscout-go/internal/scout"
)

func sampleEvents() []scout.Event {
	at := time.UnixMilli(1521900000000)
	return []scout.Event{
		{Action: "start-far", Time: at, Phase: scout.PhasePrematch},
		{Action: "mode-auton", Time: at.Add(time.Second), Phase: scout.PhaseAuton},
		{Action: "cube-grab1", Time: at.Add(2 * time.Second), Phase: scout.PhaseAuton},
	}
}

// exerciseStore runs the same contract checks against every Store.
func exerciseStore(t *testing.T, store Store) {
	ctx := context.Background()

	_, err := store.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, store.Delete(ctx, "missing"), ErrNotFound)

	assert.Error(t, store.Save(ctx, &Draft{Match: 0}))

	first := &Draft{Match: 12, OnLeft: true, Phase: scout.PhaseAuton, Events: sampleEvents()}
	require.NoError(t, store.Save(ctx, first))
	require.NotEmpty(t, first.ID)
	assert.False(t, first.CreatedAt.IsZero())

	got, err := store.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, 12, got.Match)
	assert.True(t, got.OnLeft)
	assert.Equal(t, scout.PhaseAuton, got.Phase)
	require.Len(t, got.Events, 3)
	assert.Equal(t, "cube-grab1", got.Events[2].Action)
	assert.True(t, sampleEvents()[2].Time.Equal(got.Events[2].Time))

	time.Sleep(2 * time.Millisecond)
	second := &Draft{Match: 13, Phase: scout.PhasePrematch}
	require.NoError(t, store.Save(ctx, second))

	first.Comments = "good driver"
	first.LastError = "status 502"
	first.Events = append(first.Events, scout.Event{Action: "switch", Time: time.UnixMilli(1521900003000), Phase: scout.PhaseAuton})
	time.Sleep(2 * time.Millisecond)
	require.NoError(t, store.Save(ctx, first))

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, first.ID, list[0].ID)
	assert.Equal(t, "good driver", list[0].Comments)
	assert.Equal(t, "status 502", list[0].LastError)
	assert.Len(t, list[0].Events, 4)
	assert.Empty(t, list[1].Events)

	require.NoError(t, store.Delete(ctx, first.ID))
	_, err = store.Get(ctx, first.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestSQLiteStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "drafts", "drafts.db")
	store, err := OpenSQLite(path)
	require.NoError(t, err)
	defer store.Close()

	exerciseStore(t, store)
}

func TestSQLiteStoreSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "drafts.db")
	ctx := context.Background()

	store, err := OpenSQLite(path)
	require.NoError(t, err)
	d := &Draft{Match: 3, Phase: scout.PhaseTeleop, Events: sampleEvents()}
	require.NoError(t, store.Save(ctx, d))
	require.NoError(t, store.Close())

	reopened, err := OpenSQLite(path)
	require.NoError(t, err)
	defer reopened.Close()
	got, err := reopened.Get(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, scout.PhaseTeleop, got.Phase)
	assert.Len(t, got.Events, 3)
}

func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("QUICKSCOUT_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("QUICKSCOUT_TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()
	store, err := OpenPostgres(ctx, dsn)
	require.NoError(t, err)
	defer store.Close()
	_, err = store.pool.Exec(ctx, `TRUNCATE scout_drafts`)
	require.NoError(t, err)

	exerciseStore(t, store)
}

func TestOpenDrivers(t *testing.T) {
	ctx := context.Background()

	mem, err := Open(ctx, "memory", "")
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, mem)

	lite, err := Open(ctx, "sqlite", ":memory:")
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, lite)
	require.NoError(t, lite.Close())

	_, err = Open(ctx, "postgres", "")
	assert.Error(t, err)
	_, err = Open(ctx, "mongo", "")
	assert.Error(t, err)
}
