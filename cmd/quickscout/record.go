package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/quickscout/quickscout-go/internal/drafts"
	"github.com/quickscout/quickscout-go/internal/scout"
	"github.com/quickscout/quickscout-go/internal/submit"
	"github.com/quickscout/quickscout-go/internal/tui"
)

type recordFlags struct {
	match    int
	onLeft   bool
	position string
	resume   string
}

func newRecordCmd(a *app) *cobra.Command {
	var f recordFlags
	cmd := &cobra.Command{
		Use:   "record",
		Short: "Scout a match from the terminal",
		Long: `record opens the terminal recorder for one match. Every change is kept as
a draft until the backend accepts the submission; after that the recorder
moves on to the next match on the same side of the field.`,
		Example: `  quickscout record --match 12 --position red2
  quickscout record --resume 6f1c...`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.record(cmd.Context(), f)
		},
	}
	cmd.Flags().IntVar(&f.match, "match", 0, "match number")
	cmd.Flags().BoolVar(&f.onLeft, "on-left", false, "robot starts on the left side of the field")
	cmd.Flags().StringVar(&f.position, "position", "", "driver station (red1-3, blue1-3); sets --on-left")
	cmd.Flags().StringVar(&f.resume, "resume", "", "resume the stored draft with this id")
	cmd.Flags().Bool("red-on-left", true, "red alliance stations are on the left side of the field")
	_ = a.v.BindPFlag("field.red_on_left", cmd.Flags().Lookup("red-on-left"))
	cmd.MarkFlagsMutuallyExclusive("resume", "match")
	return cmd
}

// recording owns the session the terminal is driving and replaces it when
// the navigator fires.
type recording struct {
	logger   *zap.Logger
	recorder *drafts.Recorder
	opts     []scout.Option
	program  *tea.Program

	mu      sync.Mutex
	current *scout.Session
}

func (r *recording) options() []scout.Option {
	return append(append([]scout.Option{}, r.opts...),
		scout.WithNavigator(scout.NavigatorFunc(r.navigate)),
	)
}

func (r *recording) open(match scout.MatchContext) (*scout.Session, error) {
	session, err := scout.NewSession(match, r.options()...)
	if err != nil {
		return nil, err
	}
	r.recorder.Attach(session)
	r.swap(session)
	return session, nil
}

func (r *recording) resume(ctx context.Context, id string) (*scout.Session, error) {
	session, draft, err := r.recorder.Resume(ctx, id, r.options()...)
	if err != nil {
		return nil, err
	}
	if draft.LastError != "" {
		r.logger.Warn("resuming draft after failed submission", zap.String("last_error", draft.LastError))
	}
	r.swap(session)
	return session, nil
}

func (r *recording) swap(session *scout.Session) {
	r.mu.Lock()
	previous := r.current
	r.current = session
	r.mu.Unlock()
	if previous != nil {
		previous.Close()
	}
}

func (r *recording) navigate(next scout.MatchContext) {
	session, err := r.open(next)
	if err != nil {
		r.logger.Error("failed to open next match", zap.Int("match", next.Match), zap.Error(err))
		return
	}
	r.program.Send(tui.SessionMsg{Session: session})
}

func (r *recording) close() {
	r.mu.Lock()
	session := r.current
	r.current = nil
	r.mu.Unlock()
	if session != nil {
		session.Close()
	}
}

func recordLogPath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "quickscout-record.log"
	}
	return filepath.Join(dir, "quickscout", "record.log")
}

func (a *app) logToFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}
	logger, err := initLogger(a.cfg.Logging, path)
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	_ = a.logger.Sync()
	a.logger = logger
	return nil
}

// startsOnLeft resolves the robot's starting side. --position wins over
// --on-left and is read against the field orientation.
func startsOnLeft(f recordFlags, redOnLeft bool) (bool, error) {
	if f.position == "" {
		return f.onLeft, nil
	}
	if !submit.ValidPosition(f.position) {
		return false, fmt.Errorf("unknown position %q; want one of %v", f.position, submit.Positions)
	}
	return submit.OnLeft(f.position, redOnLeft), nil
}

func (a *app) record(ctx context.Context, f recordFlags) error {
	if ctx == nil {
		ctx = context.Background()
	}
	onLeft, err := startsOnLeft(f, a.cfg.Field.RedOnLeft)
	if err != nil {
		return err
	}
	if f.resume == "" && f.match < 1 {
		return fmt.Errorf("--match or --resume is required")
	}

	if a.logFile == "" {
		// The alternate screen owns stderr while the recorder runs.
		if err := a.logToFile(recordLogPath()); err != nil {
			return err
		}
	}

	client, err := a.submitClient()
	if err != nil {
		return err
	}
	store, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	rec := &recording{
		logger:   a.logger,
		recorder: drafts.NewRecorder(a.logger.Named("drafts"), store),
		opts: []scout.Option{
			scout.WithLogger(a.logger),
			scout.WithSubmitter(client),
			scout.WithTiming(a.cfg.Recorder.Timing()),
		},
	}
	defer rec.close()

	var session *scout.Session
	if f.resume != "" {
		session, err = rec.resume(ctx, f.resume)
	} else {
		session, err = rec.open(scout.MatchContext{Match: f.match, OnLeft: onLeft})
	}
	if err != nil {
		return err
	}

	model := tui.NewModel(session)
	defer model.Close()
	rec.program = tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := rec.program.Run(); err != nil {
		return fmt.Errorf("run recorder: %w", err)
	}
	return nil
}
