package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quickscout/quickscout-go/internal/clock"
	"github.com/quickscout/quickscout-go/internal/scout"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func newTestModel(t *testing.T, submitter scout.Submitter) (Model, *clock.FakeClock) {
	t.Helper()
	fake := clock.Fake(time.UnixMilli(1521900000000))
	session, err := scout.NewSession(scout.MatchContext{Match: 5, OnLeft: true},
		scout.WithClock(fake),
		scout.WithSubmitter(submitter),
	)
	require.NoError(t, err)
	t.Cleanup(session.Close)
	m := NewModel(session)
	t.Cleanup(m.Close)
	return m, fake
}

func press(t *testing.T, m Model, msgs ...tea.KeyMsg) Model {
	t.Helper()
	for _, msg := range msgs {
		next, cmd := m.Update(msg)
		m = next.(Model)
		// Only submission runs asynchronously; feed its result back.
		if cmd != nil && msg.Type == tea.KeyCtrlS {
			next, _ = m.Update(cmd())
			m = next.(Model)
		}
	}
	return m
}

func actions(m Model) []string {
	events := m.Session().Events()
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.Action
	}
	return out
}

func TestControlForKey(t *testing.T) {
	layout := scout.DefaultLayout()
	prematch := scout.Render(layout, scout.NewEventLog(), scout.PhasePrematch)
	endgame := scout.Render(layout, scout.NewEventLog(), scout.PhaseEndgame)

	id, ok := ControlForKey(prematch, "c")
	assert.True(t, ok)
	assert.Equal(t, "start-close", id)

	id, ok = ControlForKey(prematch, "enter")
	assert.True(t, ok)
	assert.Equal(t, "enter-auton", id)

	_, ok = ControlForKey(prematch, "1")
	assert.False(t, ok)

	id, ok = ControlForKey(endgame, "1")
	assert.True(t, ok)
	assert.Equal(t, "climbcarry1", id)
}

func TestKeysRecordActions(t *testing.T) {
	m, _ := newTestModel(t, nil)
	m = press(t, m,
		runes("c"),
		tea.KeyMsg{Type: tea.KeyEnter},
		runes("3"),
		runes("s"),
	)
	assert.Equal(t, []string{"start-close", "mode-auton", "cube-grab3", "switch"}, actions(m))
	assert.Equal(t, scout.PhaseAuton, m.State().Phase)
	assert.Equal(t, 4, m.State().EventCount)

	m = press(t, m, runes("u"))
	assert.Equal(t, []string{"start-close", "mode-auton", "cube-grab3"}, actions(m))

	m = press(t, m, runes("u"))
	assert.Equal(t, "nothing to undo", m.status)
	assert.Len(t, actions(m), 3)
}

func TestDisabledControlShowsError(t *testing.T) {
	m, _ := newTestModel(t, nil)
	m = press(t, m, runes("c"), runes("f"))
	assert.Equal(t, []string{"start-close"}, actions(m))
	assert.Contains(t, m.err, "start-far")
	assert.Contains(t, m.View(), "start-far")

	m = press(t, m, runes("n"))
	assert.Empty(t, m.err)
}

func TestNotificationsUpdateHighlight(t *testing.T) {
	m, fake := newTestModel(t, nil)
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	fake.Advance(15 * time.Second)
	require.Equal(t, 2, len(m.sub.ch))
	for len(m.sub.ch) > 0 {
		next, cmd := m.Update(m.Init()())
		m = next.(Model)
		assert.NotNil(t, cmd)
	}
	assert.True(t, m.State().TeleopHighlight)
}

func TestReviewCommentsAndSubmit(t *testing.T) {
	var got scout.Payload
	m, _ := newTestModel(t, scout.SubmitterFunc(func(_ context.Context, _ int, p scout.Payload) error {
		got = p
		return nil
	}))
	enter := tea.KeyMsg{Type: tea.KeyEnter}
	m = press(t, m, runes("n"), enter, enter, enter, enter)
	require.Equal(t, scout.PhaseReview, m.State().Phase)
	assert.Contains(t, m.View(), "drive team comments")

	m = press(t, m, tea.KeyMsg{Type: tea.KeyTab}, runes("quiet"), tea.KeyMsg{Type: tea.KeyTab}, runes("q ok"))
	assert.Equal(t, "quiet", m.comments.Value())
	assert.Equal(t, "q ok", m.driveComments.Value())

	m = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	assert.Equal(t, "quiet", got.Comments)
	assert.Equal(t, "q ok", got.DriveComments)
	assert.Equal(t, scout.SubmitSubmitted, m.State().Submit)
	assert.Equal(t, "submitted", m.status)
}

func TestSubmitFailureIsShown(t *testing.T) {
	m, _ := newTestModel(t, scout.SubmitterFunc(func(context.Context, int, scout.Payload) error {
		return errors.New("backend down")
	}))
	m = press(t, m, runes("n"), tea.KeyMsg{Type: tea.KeyCtrlS})
	assert.Equal(t, scout.SubmitFailed, m.State().Submit)
	assert.Contains(t, m.err, "backend down")
	assert.True(t, strings.Contains(m.View(), "submit failed"))
}

func TestSessionSwitch(t *testing.T) {
	m, fake := newTestModel(t, nil)
	m = press(t, m, runes("n"))

	next, err := scout.NewSession(scout.MatchContext{Match: 6, OnLeft: true}, scout.WithClock(fake))
	require.NoError(t, err)
	t.Cleanup(next.Close)

	updated, _ := m.Update(SessionMsg{Session: next})
	m = updated.(Model)
	assert.Equal(t, 6, m.State().Match)
	assert.Equal(t, 0, m.State().EventCount)
	assert.Contains(t, m.View(), "Match 6")
}
