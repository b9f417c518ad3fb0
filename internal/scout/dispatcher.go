package scout

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Dispatch applies a trigger to the session. Rejected triggers leave the
// session untouched and return the reason; ErrEmptyUndo and
// ErrControlDisabled are expected during normal use.
func (s *Session) Dispatch(ctx context.Context, t Trigger) error {
	if submit, ok := t.(Submit); ok {
		return s.submit(ctx, submit)
	}

	s.mu.Lock()
	err := s.dispatchLocked(t)
	batch := s.drain()
	s.mu.Unlock()

	if err != nil {
		s.logger.Debug("trigger rejected", zap.String("trigger", t.Name()), zap.Error(err))
	}
	s.bus.PublishBatch(batch)
	return err
}

// DispatchControl dispatches whatever trigger pressing control id
// produces.
func (s *Session) DispatchControl(ctx context.Context, id string) error {
	t, err := TriggerForControl(s.layout, id)
	if err != nil {
		return err
	}
	return s.Dispatch(ctx, t)
}

func (s *Session) dispatchLocked(t Trigger) error {
	if err := s.checkOpenLocked(); err != nil {
		return err
	}
	switch t := t.(type) {
	case PressControl:
		return s.press(t.ControlID)
	case EnterPhase:
		return s.enterPhase(t.Phase)
	case GrabZone:
		return s.grabZone(t.Zone)
	case CubeAction:
		return s.cubeAction(t.ControlID)
	case Undo:
		return s.undoLast()
	default:
		return fmt.Errorf("unsupported trigger %T", t)
	}
}

func (s *Session) checkOpenLocked() error {
	switch {
	case s.closed:
		return ErrSessionClosed
	case s.status == SubmitSubmitted:
		return ErrAlreadySubmitted
	case s.status == SubmitSubmitting:
		return ErrSubmitInFlight
	}
	return nil
}

// controlFor looks up id and checks it is of one of kinds and enabled.
func (s *Session) controlFor(id string, kinds ...ControlKind) (Control, error) {
	c, ok := s.layout.Control(id)
	if !ok {
		return Control{}, fmt.Errorf("%w: %s", ErrUnknownControl, id)
	}
	match := false
	for _, k := range kinds {
		if c.Kind == k {
			match = true
			break
		}
	}
	if !match {
		return Control{}, fmt.Errorf("%w: %s is a %s control", ErrUnknownControl, id, c.Kind)
	}
	if state, ok := s.view.Control(id); ok && state.Disabled {
		return Control{}, fmt.Errorf("%w: %s", ErrControlDisabled, id)
	}
	return c, nil
}

func (s *Session) press(id string) error {
	c, err := s.controlFor(id, ControlAction, ControlStartPosition)
	if err != nil {
		return err
	}
	s.record(c.Action)
	return nil
}

func (s *Session) grabZone(zone string) error {
	id, ok := s.layout.ZoneControl(zone)
	if !ok {
		return fmt.Errorf("%w: zone %s", ErrUnknownControl, zone)
	}
	if _, err := s.controlFor(id, ControlZone); err != nil {
		return err
	}
	s.record(ZoneGrabPrefix + zone)
	return nil
}

func (s *Session) cubeAction(id string) error {
	c, err := s.controlFor(id, ControlCubeAction)
	if err != nil {
		return err
	}
	s.record(c.Action)
	return nil
}

// record is the single path for recordable actions: snapshot the view for
// undo, append, re-render.
func (s *Session) record(action string) {
	s.undo.Arm(s.view)
	event := s.log.Append(action, s.machine.Phase(), s.clock.Now())
	s.view = Render(s.layout, s.log, s.machine.Phase())
	s.enqueue(NotifyEventRecorded, &event)
	s.logger.Debug("event recorded",
		zap.String("action", event.Action),
		zap.String("phase", event.Phase.String()),
	)
}

func (s *Session) enterPhase(target Phase) error {
	if !target.Valid() {
		return fmt.Errorf("invalid phase %d", int(target))
	}
	s.highlight = false
	previous, logged := s.machine.Transition(target, s.clock.Now())
	s.view = Render(s.layout, s.log, target)
	s.enqueue(NotifyPhaseChanged, logged)
	s.logger.Info("phase changed",
		zap.String("from", previous.String()),
		zap.String("to", target.String()),
	)

	if target == PhaseAuton && s.view.StartWithCube {
		zone := StartZone(s.match.OnLeft)
		if err := s.grabZone(zone); err != nil {
			s.logger.Debug("start-with-cube grab skipped", zap.String("zone", zone), zap.Error(err))
		}
	}
	return nil
}

func (s *Session) undoLast() error {
	view, discarded, err := s.undo.Consume(s.log)
	if err != nil {
		return err
	}
	s.view = view
	s.enqueue(NotifyEventDiscarded, &discarded)
	s.logger.Info("event discarded",
		zap.String("action", discarded.Action),
		zap.String("phase", discarded.Phase.String()),
	)
	return nil
}

// submit latches the status, posts the log without holding the lock and
// records the outcome. A failed submission keeps the log and releases the
// latch so the scouter can retry.
func (s *Session) submit(ctx context.Context, t Submit) error {
	s.mu.Lock()
	if err := s.checkOpenLocked(); err != nil {
		s.mu.Unlock()
		return err
	}
	payload := Payload{
		Comments:      t.Comments,
		DriveComments: t.DriveComments,
		Events:        s.log.Snapshot(),
	}
	s.status = SubmitSubmitting
	s.submitErr = nil
	n := s.enqueue(NotifySubmitting, nil)
	n.Payload = &payload
	submitter := s.submitter
	batch := s.drain()
	s.mu.Unlock()
	s.bus.PublishBatch(batch)

	s.logger.Info("submitting match", zap.Int("events", len(payload.Events)))
	var err error
	if submitter == nil {
		err = ErrNoSubmitter
	} else {
		err = submitter.SubmitMatch(ctx, s.match.Match, payload)
	}

	s.mu.Lock()
	if err != nil {
		s.status = SubmitFailed
		s.submitErr = err
		n := s.enqueue(NotifySubmitFailed, nil)
		n.Err = err
		n.Payload = &payload
		s.logger.Warn("submission failed", zap.Error(err))
	} else {
		s.status = SubmitSubmitted
		if !s.closed {
			s.sched.Schedule(s.timing.NavigateDelay, s.navigate)
		}
		s.enqueue(NotifySubmitted, nil)
		s.logger.Info("match submitted")
	}
	batch = s.drain()
	s.mu.Unlock()
	s.bus.PublishBatch(batch)
	return err
}
