package drafts

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/quickscout/quickscout-go/internal/scout"
)

// saveTimeout bounds each store write made from a notification.
const saveTimeout = 5 * time.Second

// recordedTypes are the notifications that change what a draft holds.
var recordedTypes = []scout.NotificationType{
	scout.NotifyEventRecorded,
	scout.NotifyEventDiscarded,
	scout.NotifyPhaseChanged,
	scout.NotifySubmitting,
	scout.NotifySubmitFailed,
	scout.NotifySubmitted,
	scout.NotifyClosed,
}

// Recorder mirrors live sessions into a Store. Every change to a session's
// log is saved, a failed submission is saved with its error and an
// accepted submission deletes the draft.
type Recorder struct {
	logger  *zap.Logger
	store   Store
	mu      sync.Mutex
	drafts  map[string]*Draft // sessionID -> draft being kept
	handles map[string][]int  // sessionID -> bus subscriptions
}

// NewRecorder creates a recorder writing to store.
func NewRecorder(logger *zap.Logger, store Store) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{
		logger:  logger,
		store:   store,
		drafts:  make(map[string]*Draft),
		handles: make(map[string][]int),
	}
}

// Store returns the underlying store.
func (r *Recorder) Store() Store { return r.store }

// Attach starts recording session. Nothing is written until the session
// first changes; a resumed session already has its row.
func (r *Recorder) Attach(session *scout.Session) {
	match := session.Match()
	draft := &Draft{
		ID:     session.ID(),
		Match:  match.Match,
		OnLeft: match.OnLeft,
		Phase:  session.Phase(),
		Events: session.Events(),
	}

	r.mu.Lock()
	if _, ok := r.handles[session.ID()]; ok {
		r.mu.Unlock()
		return
	}
	r.drafts[session.ID()] = draft
	listener := func(n scout.Notification) {
		if n.SessionID == session.ID() {
			r.handle(session, n)
		}
	}
	handles := make([]int, 0, len(recordedTypes))
	for _, typ := range recordedTypes {
		handles = append(handles, session.Bus().SubscribeTyped(typ, listener))
	}
	r.handles[session.ID()] = handles
	r.mu.Unlock()

	r.logger.Info("started draft recording",
		zap.String("session_id", session.ID()),
		zap.Int("match", match.Match),
	)
}

// Detach stops recording session without touching its stored draft.
func (r *Recorder) Detach(session *scout.Session) {
	r.mu.Lock()
	handles, ok := r.handles[session.ID()]
	delete(r.handles, session.ID())
	delete(r.drafts, session.ID())
	r.mu.Unlock()

	if ok {
		unsubscribe(session, handles)
		r.logger.Debug("stopped draft recording", zap.String("session_id", session.ID()))
	}
}

func unsubscribe(session *scout.Session, handles []int) {
	for _, h := range handles {
		session.Bus().Unsubscribe(h)
	}
}

func (r *Recorder) attached(sessionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.handles[sessionID]
	return ok
}

func (r *Recorder) handle(session *scout.Session, n scout.Notification) {
	r.mu.Lock()
	draft, ok := r.drafts[n.SessionID]
	if !ok {
		r.mu.Unlock()
		return
	}

	save := false
	remove := false
	switch n.Type {
	case scout.NotifyEventRecorded, scout.NotifyEventDiscarded, scout.NotifyPhaseChanged:
		draft.Events = n.Events
		draft.Phase = n.Phase
		save = true
	case scout.NotifySubmitting:
		if n.Payload != nil {
			draft.Comments = n.Payload.Comments
			draft.DriveComments = n.Payload.DriveComments
		}
		save = true
	case scout.NotifySubmitFailed:
		if n.Err != nil {
			draft.LastError = n.Err.Error()
		}
		save = true
	case scout.NotifySubmitted:
		remove = true
	case scout.NotifyClosed:
		handles := r.handles[n.SessionID]
		delete(r.handles, n.SessionID)
		delete(r.drafts, n.SessionID)
		r.mu.Unlock()
		unsubscribe(session, handles)
		return
	}
	snapshot := draft.Clone()
	r.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	switch {
	case save:
		if err := r.store.Save(ctx, snapshot); err != nil {
			r.logger.Error("failed to save draft", zap.String("draft_id", snapshot.ID), zap.Error(err))
			return
		}
		r.logger.Debug("saved draft",
			zap.String("draft_id", snapshot.ID),
			zap.Int("event_count", len(snapshot.Events)),
		)
	case remove:
		if err := r.store.Delete(ctx, snapshot.ID); err != nil && !errors.Is(err, ErrNotFound) {
			r.logger.Error("failed to delete submitted draft", zap.String("draft_id", snapshot.ID), zap.Error(err))
			return
		}
		r.logger.Info("deleted submitted draft", zap.String("draft_id", snapshot.ID))
	}
}

// Resume rebuilds a session from the stored draft id and attaches it.
// opts are applied before the restore options.
func (r *Recorder) Resume(ctx context.Context, id string, opts ...scout.Option) (*scout.Session, *Draft, error) {
	draft, err := r.store.Get(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("load draft %s: %w", id, err)
	}
	opts = append(opts, scout.WithID(draft.ID), scout.WithRestore(draft.Events, draft.Phase))
	session, err := scout.NewSession(draft.MatchContext(), opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("resume draft %s: %w", id, err)
	}
	r.Attach(session)

	r.mu.Lock()
	if kept, ok := r.drafts[session.ID()]; ok {
		kept.Comments = draft.Comments
		kept.DriveComments = draft.DriveComments
		kept.LastError = draft.LastError
		kept.CreatedAt = draft.CreatedAt
	}
	r.mu.Unlock()

	r.logger.Info("resumed draft",
		zap.String("draft_id", draft.ID),
		zap.Int("match", draft.Match),
		zap.Int("event_count", len(draft.Events)),
	)
	return session, draft, nil
}

// Resubmit posts a stored draft directly. An accepted draft is deleted; a
// failed one is kept with the new error.
func (r *Recorder) Resubmit(ctx context.Context, id string, submitter scout.Submitter) error {
	draft, err := r.store.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("load draft %s: %w", id, err)
	}
	if err := submitter.SubmitMatch(ctx, draft.Match, draft.Payload()); err != nil {
		draft.LastError = err.Error()
		if saveErr := r.store.Save(ctx, draft); saveErr != nil {
			r.logger.Error("failed to record resubmit error", zap.String("draft_id", id), zap.Error(saveErr))
		}
		return fmt.Errorf("resubmit draft %s: %w", id, err)
	}
	if err := r.store.Delete(ctx, id); err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("delete draft %s: %w", id, err)
	}
	r.logger.Info("resubmitted draft", zap.String("draft_id", id), zap.Int("match", draft.Match))
	return nil
}
