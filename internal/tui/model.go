// Package tui is a terminal surface for a scouting session. Every visible
// control answers to its layout key; the session owns all state and the
// model only redraws the render states it is handed.
package tui

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/quickscout/quickscout-go/internal/scout"
)

// NotificationMsg delivers a session notification to the model.
type NotificationMsg struct {
	Notification scout.Notification
}

// SessionMsg switches the model to another session, typically the next
// match after a submission.
type SessionMsg struct {
	Session *scout.Session
}

// dispatchedMsg reports the outcome of a trigger run off the update loop.
type dispatchedMsg struct {
	trigger string
	err     error
}

// subscription forwards one session's bus onto a channel the model polls.
// It is shared between copies of the model.
type subscription struct {
	mu      sync.Mutex
	session *scout.Session
	handle  int
	ch      chan scout.Notification
}

func newSubscription() *subscription {
	return &subscription{ch: make(chan scout.Notification, 64)}
}

func (s *subscription) attach(session *scout.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session != nil {
		s.session.Bus().Unsubscribe(s.handle)
	}
	s.session = session
	s.handle = session.Bus().Subscribe(func(n scout.Notification) {
		// A full channel only loses intermediate states.
		select {
		case s.ch <- n:
		default:
		}
	})
}

func (s *subscription) detach() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session != nil {
		s.session.Bus().Unsubscribe(s.handle)
		s.session = nil
	}
}

// Model is the bubbletea model for one recorder screen.
type Model struct {
	session *scout.Session
	sub     *subscription
	state   scout.RenderState

	keys  KeyMap
	theme Theme

	comments      textinput.Model
	driveComments textinput.Model
	focus         int // 0 none, 1 comments, 2 drive comments

	status string
	err    string
	width  int
}

// NewModel creates a model driving session.
func NewModel(session *scout.Session) Model {
	comments := textinput.New()
	comments.Placeholder = "match comments"
	comments.CharLimit = 500
	drive := textinput.New()
	drive.Placeholder = "drive team comments"
	drive.CharLimit = 500

	m := Model{
		sub:           newSubscription(),
		keys:          DefaultKeyMap,
		theme:         DefaultTheme,
		comments:      comments,
		driveComments: drive,
	}
	m.switchTo(session)
	return m
}

// Session returns the session the model is driving.
func (m Model) Session() *scout.Session { return m.session }

// State returns the last render state the model drew.
func (m Model) State() scout.RenderState { return m.state }

// Close stops listening to the session's bus.
func (m Model) Close() { m.sub.detach() }

func (m *Model) switchTo(session *scout.Session) {
	m.session = session
	m.sub.attach(session)
	m.state = session.State()
	m.comments.Reset()
	m.driveComments.Reset()
	m.blur()
	m.status = ""
	m.err = ""
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return listen(m.sub.ch)
}

func listen(ch <-chan scout.Notification) tea.Cmd {
	return func() tea.Msg {
		n, ok := <-ch
		if !ok {
			return nil
		}
		return NotificationMsg{Notification: n}
	}
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case NotificationMsg:
		n := msg.Notification
		if n.SessionID == m.session.ID() {
			switch n.Type {
			case scout.NotifyNavigate:
				m.status = fmt.Sprintf("loading match %d", n.NextMatch)
			case scout.NotifyClosed:
			default:
				m.state = n.State
			}
		}
		return m, listen(m.sub.ch)

	case SessionMsg:
		m.switchTo(msg.Session)
		m.status = fmt.Sprintf("scouting match %d", msg.Session.Match().Match)
		return m, nil

	case dispatchedMsg:
		m.state = m.session.State()
		if msg.err != nil {
			m.err = msg.err.Error()
		} else if msg.trigger == "submit" {
			m.status = "submitted"
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.focus != 0 {
		switch {
		case msg.Type == tea.KeyCtrlC:
			return m, tea.Quit
		case key.Matches(msg, m.keys.Submit):
			return m, m.submit()
		case key.Matches(msg, m.keys.Blur):
			m.blur()
			return m, nil
		case key.Matches(msg, m.keys.NextField):
			return m, m.nextField()
		}
		var cmd tea.Cmd
		if m.focus == 1 {
			m.comments, cmd = m.comments.Update(msg)
		} else {
			m.driveComments, cmd = m.driveComments.Update(msg)
		}
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Submit):
		return m, m.submit()
	case key.Matches(msg, m.keys.Undo):
		m.run(scout.Undo{})
		return m, nil
	case key.Matches(msg, m.keys.NextField) && m.state.Phase == scout.PhaseReview:
		return m, m.nextField()
	}

	if id, ok := ControlForKey(m.state.View, msg.String()); ok {
		trigger, err := scout.TriggerForControl(m.session.Layout(), id)
		if err != nil {
			m.err = err.Error()
			return m, nil
		}
		m.run(trigger)
	}
	return m, nil
}

// run dispatches a local trigger inline; only submission leaves the
// update loop.
func (m *Model) run(trigger scout.Trigger) {
	err := m.session.Dispatch(context.Background(), trigger)
	m.state = m.session.State()
	switch {
	case err == nil:
		m.err = ""
		m.status = ""
	case errors.Is(err, scout.ErrEmptyUndo):
		m.err = ""
		m.status = "nothing to undo"
	default:
		m.err = err.Error()
	}
}

func (m *Model) submit() tea.Cmd {
	session := m.session
	trigger := scout.Submit{
		Comments:      strings.TrimSpace(m.comments.Value()),
		DriveComments: strings.TrimSpace(m.driveComments.Value()),
	}
	m.err = ""
	m.status = "submitting"
	return func() tea.Msg {
		return dispatchedMsg{trigger: trigger.Name(), err: session.Dispatch(context.Background(), trigger)}
	}
}

func (m *Model) nextField() tea.Cmd {
	m.focus = m.focus%2 + 1
	if m.focus == 1 {
		m.driveComments.Blur()
		return m.comments.Focus()
	}
	m.comments.Blur()
	return m.driveComments.Focus()
}

func (m *Model) blur() {
	m.focus = 0
	m.comments.Blur()
	m.driveComments.Blur()
}

// ControlForKey finds the visible control bound to k.
func ControlForKey(view scout.View, k string) (string, bool) {
	for _, c := range view.Controls {
		if c.Visible && c.Key != "" && c.Key == k {
			return c.ID, true
		}
	}
	return "", false
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder
	t := m.theme
	s := m.state

	side := "right"
	if s.OnLeft {
		side = "left"
	}
	b.WriteString(t.Header.Render(fmt.Sprintf("Match %d  %s side", s.Match, side)))
	b.WriteString("  ")
	b.WriteString(t.Phase.Render(s.PhaseLabel))
	b.WriteString("\n\n")

	for _, c := range s.Controls {
		if !c.Visible {
			continue
		}
		b.WriteString(m.renderControl(c))
		b.WriteString("\n")
	}

	if s.Phase == scout.PhaseReview {
		b.WriteString(m.renderTally())
		b.WriteString("\n")
		b.WriteString(m.comments.View())
		b.WriteString("\n")
		b.WriteString(m.driveComments.View())
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(t.Status.Render(m.statusLine()))
	if m.err != "" {
		b.WriteString("\n")
		b.WriteString(t.Error.Render(m.err))
	}
	b.WriteString("\n")
	b.WriteString(t.Help.Render(m.helpLine()))
	return b.String()
}

func (m Model) renderControl(c scout.ControlState) string {
	t := m.theme
	label := c.Label
	if c.Counter != nil {
		label += " " + t.Counter.Render(fmt.Sprintf("(%d)", *c.Counter))
	}

	style := t.Control
	switch {
	case c.Disabled:
		style = t.Disabled
	case c.Armed:
		style = t.Armed
	case c.ID == "enter-teleop" && m.state.TeleopHighlight:
		style = t.Highlight
	}
	return lipgloss.JoinHorizontal(lipgloss.Top,
		t.KeyHint.Render(fmt.Sprintf("[%-5s] ", c.Key)),
		style.Render(label),
	)
}

func (m Model) renderTally() string {
	t := m.theme
	var b strings.Builder
	phases := make([]scout.Phase, 0, len(m.state.Tally))
	for p := range m.state.Tally {
		phases = append(phases, p)
	}
	sort.Slice(phases, func(i, j int) bool { return phases[i] < phases[j] })
	for _, p := range phases {
		b.WriteString(t.Section.Render(p.Label()))
		b.WriteString("\n")
		for _, c := range m.state.Tally[p].List() {
			fmt.Fprintf(&b, "  %-14s %d\n", c.Action, c.Count)
		}
	}
	return b.String()
}

func (m Model) statusLine() string {
	s := m.state
	parts := []string{fmt.Sprintf("%d events", s.EventCount)}
	if s.UndoAvailable {
		parts = append(parts, "undo ready")
	}
	switch s.Submit {
	case scout.SubmitSubmitting:
		parts = append(parts, "submitting...")
	case scout.SubmitSubmitted:
		parts = append(parts, "submitted")
	case scout.SubmitFailed:
		parts = append(parts, "submit failed: "+s.SubmitError)
	}
	if m.status != "" {
		parts = append(parts, m.status)
	}
	return strings.Join(parts, " | ")
}

func (m Model) helpLine() string {
	bindings := []key.Binding{m.keys.Undo, m.keys.Submit}
	if m.state.Phase == scout.PhaseReview {
		bindings = append(bindings, m.keys.NextField, m.keys.Blur)
	}
	bindings = append(bindings, m.keys.Quit)
	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return strings.Join(parts, "  ")
}
