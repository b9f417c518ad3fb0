package drafts

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/quickscout/quickscout-go/internal/clock"
	"github.com/quickscout/quickscout-go/internal/scout"
)

func newRecordedSession(t *testing.T, rec *Recorder, submitter scout.Submitter) (*scout.Session, *clock.FakeClock) {
	t.Helper()
	fake := clock.Fake(time.UnixMilli(1521900000000))
	session, err := scout.NewSession(scout.MatchContext{Match: 21, OnLeft: false},
		scout.WithClock(fake),
		scout.WithSubmitter(submitter),
	)
	require.NoError(t, err)
	t.Cleanup(session.Close)
	rec.Attach(session)
	return session, fake
}

func TestRecorderSavesEveryChange(t *testing.T) {
	store := NewMemoryStore()
	rec := NewRecorder(zaptest.NewLogger(t), store)
	session, _ := newRecordedSession(t, rec, nil)
	ctx := context.Background()

	_, err := store.Get(ctx, session.ID())
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, session.DispatchControl(ctx, "start-close"))
	require.NoError(t, session.DispatchControl(ctx, "enter-auton"))
	require.NoError(t, session.DispatchControl(ctx, "died"))

	d, err := store.Get(ctx, session.ID())
	require.NoError(t, err)
	assert.Equal(t, 21, d.Match)
	assert.Equal(t, scout.PhaseAuton, d.Phase)
	assert.Len(t, d.Events, 3)

	require.NoError(t, session.Dispatch(ctx, scout.Undo{}))
	d, err = store.Get(ctx, session.ID())
	require.NoError(t, err)
	assert.Len(t, d.Events, 2)
}

type countingStore struct {
	*MemoryStore
	mu    sync.Mutex
	saves int
}

func (s *countingStore) Save(ctx context.Context, d *Draft) error {
	s.mu.Lock()
	s.saves++
	s.mu.Unlock()
	return s.MemoryStore.Save(ctx, d)
}

func TestRecorderIgnoresHighlight(t *testing.T) {
	store := &countingStore{MemoryStore: NewMemoryStore()}
	rec := NewRecorder(zaptest.NewLogger(t), store)
	session, fake := newRecordedSession(t, rec, nil)
	ctx := context.Background()

	require.NoError(t, session.DispatchControl(ctx, "enter-auton"))
	store.mu.Lock()
	require.Equal(t, 1, store.saves)
	store.mu.Unlock()

	fake.Advance(15 * time.Second)
	require.True(t, session.State().TeleopHighlight)
	fake.Advance(time.Second)

	store.mu.Lock()
	assert.Equal(t, 1, store.saves)
	store.mu.Unlock()
}

func TestRecorderKeepsFailedSubmission(t *testing.T) {
	store := NewMemoryStore()
	rec := NewRecorder(zaptest.NewLogger(t), store)
	fail := errors.New("connection refused")
	session, _ := newRecordedSession(t, rec, scout.SubmitterFunc(func(context.Context, int, scout.Payload) error {
		return fail
	}))
	ctx := context.Background()

	require.NoError(t, session.DispatchControl(ctx, "noshow"))
	err := session.Dispatch(ctx, scout.Submit{Comments: "never moved", DriveComments: "n/a"})
	require.ErrorIs(t, err, fail)

	d, err := store.Get(ctx, session.ID())
	require.NoError(t, err)
	assert.Equal(t, "never moved", d.Comments)
	assert.Equal(t, "n/a", d.DriveComments)
	assert.Equal(t, "connection refused", d.LastError)
	assert.Len(t, d.Events, 1)
}

func TestRecorderDeletesSubmittedDraft(t *testing.T) {
	store := NewMemoryStore()
	rec := NewRecorder(zaptest.NewLogger(t), store)
	session, _ := newRecordedSession(t, rec, scout.SubmitterFunc(func(context.Context, int, scout.Payload) error {
		return nil
	}))
	ctx := context.Background()

	require.NoError(t, session.DispatchControl(ctx, "noshow"))
	require.NoError(t, session.Dispatch(ctx, scout.Submit{}))

	_, err := store.Get(ctx, session.ID())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRecorderDetachesOnClose(t *testing.T) {
	rec := NewRecorder(zaptest.NewLogger(t), NewMemoryStore())
	session, _ := newRecordedSession(t, rec, nil)
	require.True(t, rec.attached(session.ID()))

	session.Close()
	assert.False(t, rec.attached(session.ID()))
}

func TestRecorderResume(t *testing.T) {
	store := NewMemoryStore()
	rec := NewRecorder(zaptest.NewLogger(t), store)
	ctx := context.Background()

	saved := &Draft{Match: 30, OnLeft: true, Phase: scout.PhaseAuton, Events: sampleEvents(), Comments: "kept"}
	require.NoError(t, store.Save(ctx, saved))

	fake := clock.Fake(time.UnixMilli(1521900010000))
	session, draft, err := rec.Resume(ctx, saved.ID, scout.WithClock(fake))
	require.NoError(t, err)
	t.Cleanup(session.Close)

	assert.Equal(t, saved.ID, session.ID())
	assert.Equal(t, "kept", draft.Comments)
	assert.Equal(t, scout.PhaseAuton, session.Phase())
	assert.Equal(t, "1", session.State().PendingZone)

	require.NoError(t, session.DispatchControl(ctx, "scale"))
	d, err := store.Get(ctx, saved.ID)
	require.NoError(t, err)
	assert.Len(t, d.Events, 4)
	assert.Equal(t, "kept", d.Comments)

	_, _, err = rec.Resume(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRecorderResubmit(t *testing.T) {
	store := NewMemoryStore()
	rec := NewRecorder(zaptest.NewLogger(t), store)
	ctx := context.Background()

	d := &Draft{Match: 8, Phase: scout.PhaseReview, Events: sampleEvents(), Comments: "ok"}
	require.NoError(t, store.Save(ctx, d))

	fail := errors.New("502")
	err := rec.Resubmit(ctx, d.ID, scout.SubmitterFunc(func(context.Context, int, scout.Payload) error { return fail }))
	require.ErrorIs(t, err, fail)
	kept, err := store.Get(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, "502", kept.LastError)

	var gotMatch int
	var got scout.Payload
	err = rec.Resubmit(ctx, d.ID, scout.SubmitterFunc(func(_ context.Context, match int, p scout.Payload) error {
		gotMatch = match
		got = p
		return nil
	}))
	require.NoError(t, err)
	assert.Equal(t, 8, gotMatch)
	assert.Equal(t, "ok", got.Comments)
	assert.Len(t, got.Events, 3)
	_, err = store.Get(ctx, d.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
