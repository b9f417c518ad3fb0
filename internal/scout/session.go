package scout

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/quickscout/quickscout-go/internal/clock"
)

// MatchContext identifies the match being scouted and which side of the
// field the scouter is watching from.
type MatchContext struct {
	Match  int  `json:"match"`
	OnLeft bool `json:"on_left"`
}

// Next returns the context for the following match on the same side.
func (m MatchContext) Next() MatchContext {
	return MatchContext{Match: m.Match + 1, OnLeft: m.OnLeft}
}

// SubmitStatus tracks the submission latch.
type SubmitStatus string

const (
	SubmitIdle       SubmitStatus = "idle"
	SubmitSubmitting SubmitStatus = "submitting"
	SubmitSubmitted  SubmitStatus = "submitted"
	SubmitFailed     SubmitStatus = "failed"
)

// Submitter delivers a finished log to the backend.
type Submitter interface {
	SubmitMatch(ctx context.Context, match int, payload Payload) error
}

// SubmitterFunc adapts a function to Submitter.
type SubmitterFunc func(ctx context.Context, match int, payload Payload) error

func (f SubmitterFunc) SubmitMatch(ctx context.Context, match int, payload Payload) error {
	return f(ctx, match, payload)
}

// Navigator is told to move on once a submission has been accepted.
type Navigator interface {
	Navigate(next MatchContext)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(next MatchContext)

func (f NavigatorFunc) Navigate(next MatchContext) { f(next) }

// Timing holds the recorder's delays.
type Timing struct {
	AutonDwell    time.Duration
	FlashInterval time.Duration
	NavigateDelay time.Duration
}

// DefaultTiming returns the delays used on the field: the teleop button
// starts flashing fifteen seconds into auton.
func DefaultTiming() Timing {
	return Timing{
		AutonDwell:    15 * time.Second,
		FlashInterval: 250 * time.Millisecond,
		NavigateDelay: 2 * time.Second,
	}
}

// RenderState is everything a surface needs to draw a session.
type RenderState struct {
	View
	SessionID       string             `json:"session_id"`
	Match           int                `json:"match"`
	OnLeft          bool               `json:"on_left"`
	PhaseLabel      string             `json:"phase_label"`
	EventCount      int                `json:"event_count"`
	UndoAvailable   bool               `json:"undo_available"`
	TeleopHighlight bool               `json:"teleop_highlight"`
	Submit          SubmitStatus       `json:"submit"`
	SubmitError     string             `json:"submit_error,omitempty"`
	Tally           map[Phase]Counters `json:"tally,omitempty"`
}

// Option configures a Session.
type Option func(*Session)

// WithClock replaces the wall clock, mostly for tests.
func WithClock(c clock.Clock) Option {
	return func(s *Session) { s.clock = c }
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithLayout(layout *Layout) Option {
	return func(s *Session) {
		if layout != nil {
			s.layout = layout
		}
	}
}

func WithSubmitter(submitter Submitter) Option {
	return func(s *Session) { s.submitter = submitter }
}

func WithNavigator(navigator Navigator) Option {
	return func(s *Session) { s.navigator = navigator }
}

func WithTiming(timing Timing) Option {
	return func(s *Session) { s.timing = timing }
}

// WithBus publishes notifications on an existing bus instead of a
// private one.
func WithBus(bus *Bus) Option {
	return func(s *Session) {
		if bus != nil {
			s.bus = bus
		}
	}
}

// WithID fixes the session ID. Resumed drafts keep their ID this way.
func WithID(id string) Option {
	return func(s *Session) {
		if id != "" {
			s.id = id
		}
	}
}

// WithRestore seeds the session with a previously recorded log and the
// phase that was active when it was saved.
func WithRestore(events []Event, phase Phase) Option {
	return func(s *Session) {
		s.restoreEvents = events
		s.restorePhase = phase
	}
}

// Session owns all recorder state for one match. Every mutation happens
// under mu; notifications produced by a mutation are queued and published
// after mu is released, and network calls are made without holding it.
type Session struct {
	mu sync.Mutex

	id        string
	match     MatchContext
	layout    *Layout
	log       *EventLog
	undo      *UndoBuffer
	sched     *Scheduler
	machine   *Machine
	view      View
	highlight bool
	status    SubmitStatus
	submitErr error
	closed    bool
	queued    []Notification

	clock     clock.Clock
	logger    *zap.Logger
	bus       *Bus
	submitter Submitter
	navigator Navigator
	timing    Timing

	restoreEvents []Event
	restorePhase  Phase
}

// NewSession starts a session for match in the prematch phase, or in the
// restored phase when WithRestore is given.
func NewSession(match MatchContext, opts ...Option) (*Session, error) {
	if match.Match < 1 {
		return nil, fmt.Errorf("invalid match number %d", match.Match)
	}
	s := &Session{
		id:     uuid.NewString(),
		match:  match,
		layout: DefaultLayout(),
		undo:   &UndoBuffer{},
		status: SubmitIdle,
		clock:  clock.Real(),
		logger: zap.NewNop(),
		bus:    NewBus(),
		timing: DefaultTiming(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if !s.restorePhase.Valid() {
		return nil, fmt.Errorf("invalid restored phase %d", int(s.restorePhase))
	}

	s.log = NewEventLog(s.restoreEvents...)
	s.restoreEvents = nil
	s.sched = NewScheduler(s.clock)
	s.machine = NewMachine(s.restorePhase, s.log, s.undo, s.sched)
	s.machine.OnEnter(PhaseAuton, s.startDwell)
	s.view = Render(s.layout, s.log, s.machine.Phase())
	s.logger = s.logger.With(zap.String("session_id", s.id), zap.Int("match", match.Match))

	if s.machine.Phase() == PhaseAuton {
		s.startDwell()
	}
	s.logger.Debug("session started",
		zap.String("phase", s.machine.Phase().String()),
		zap.Int("events", s.log.Len()),
	)
	return s, nil
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Match returns the match context the session was created with.
func (s *Session) Match() MatchContext { return s.match }

// Layout returns the control layout.
func (s *Session) Layout() *Layout { return s.layout }

// Bus returns the bus notifications are published on.
func (s *Session) Bus() *Bus { return s.bus }

// Phase returns the active phase.
func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.machine.Phase()
}

// Events returns a copy of the event log.
func (s *Session) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.log.Snapshot()
}

// State returns the current render state.
func (s *Session) State() RenderState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

// Close cancels outstanding tasks. Later triggers fail with
// ErrSessionClosed.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	cancelled := s.sched.CancelAll()
	s.enqueue(NotifyClosed, nil)
	batch := s.drain()
	s.mu.Unlock()

	s.logger.Debug("session closed", zap.Int("cancelled_tasks", cancelled))
	s.bus.PublishBatch(batch)
}

func (s *Session) stateLocked() RenderState {
	state := RenderState{
		View:            s.view.Copy(),
		SessionID:       s.id,
		Match:           s.match.Match,
		OnLeft:          s.match.OnLeft,
		PhaseLabel:      s.machine.Phase().Label(),
		EventCount:      s.log.Len(),
		UndoAvailable:   s.undo.Available(),
		TeleopHighlight: s.highlight,
		Submit:          s.status,
	}
	if s.submitErr != nil {
		state.SubmitError = s.submitErr.Error()
	}
	if s.machine.Phase() == PhaseReview {
		state.Tally = Tally(s.log)
	}
	return state
}

// enqueue records a notification to be published once the lock is
// released.
func (s *Session) enqueue(typ NotificationType, event *Event) *Notification {
	s.queued = append(s.queued, Notification{
		Type:      typ,
		SessionID: s.id,
		Match:     s.match.Match,
		Phase:     s.machine.Phase(),
		Event:     event,
		Events:    s.log.Snapshot(),
		State:     s.stateLocked(),
		Timestamp: s.clock.Now(),
	})
	return &s.queued[len(s.queued)-1]
}

func (s *Session) drain() []Notification {
	batch := s.queued
	s.queued = nil
	return batch
}

// startDwell runs on every entry into auton.
func (s *Session) startDwell() {
	s.sched.Schedule(s.timing.AutonDwell, s.flash)
}

// flash toggles the teleop highlight and reschedules itself for as long as
// auton stays active.
func (s *Session) flash(task Task) {
	s.mu.Lock()
	if s.closed || !s.sched.Finish(task) || s.machine.Phase() != PhaseAuton {
		s.mu.Unlock()
		s.logger.Debug("stale highlight callback ignored")
		return
	}
	s.highlight = !s.highlight
	s.enqueue(NotifyHighlight, nil)
	s.sched.Schedule(s.timing.FlashInterval, s.flash)
	batch := s.drain()
	s.mu.Unlock()

	s.bus.PublishBatch(batch)
}

// navigate fires after a successful submission.
func (s *Session) navigate(task Task) {
	s.mu.Lock()
	if s.closed || !s.sched.Finish(task) {
		s.mu.Unlock()
		s.logger.Debug("stale navigate callback ignored")
		return
	}
	next := s.match.Next()
	n := s.enqueue(NotifyNavigate, nil)
	n.NextMatch = next.Match
	batch := s.drain()
	navigator := s.navigator
	s.mu.Unlock()

	s.logger.Info("navigating to next match", zap.Int("next_match", next.Match))
	s.bus.PublishBatch(batch)
	if navigator != nil {
		navigator.Navigate(next)
	}
}
