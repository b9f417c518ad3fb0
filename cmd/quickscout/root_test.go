package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/quickscout/quickscout-go/internal/config"
	"github.com/quickscout/quickscout-go/internal/drafts"
	"github.com/quickscout/quickscout-go/internal/scout"
)

// isolate points configuration lookups and the draft spool at a temp dir.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	dsn := filepath.Join(dir, "drafts.db")
	t.Setenv("QUICKSCOUT_DRAFTS_DSN", dsn)
	t.Setenv("QUICKSCOUT_LOGGING_LEVEL", "error")
	return dsn
}

func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func seedDraft(t *testing.T, dsn string) *drafts.Draft {
	t.Helper()
	store, err := drafts.OpenSQLite(dsn)
	require.NoError(t, err)
	defer store.Close()
	at := time.UnixMilli(1521900000000)
	d := &drafts.Draft{
		Match:  7,
		OnLeft: true,
		Phase:  scout.PhaseAuton,
		Events: []scout.Event{
			{Action: "start-far", Time: at, Phase: scout.PhasePrematch},
			{Action: "mode-auton", Time: at.Add(time.Second), Phase: scout.PhaseAuton},
		},
		Comments: "fast",
	}
	require.NoError(t, store.Save(context.Background(), d))
	return d
}

type backendStub struct {
	mu     sync.Mutex
	paths  []string
	bodies []map[string]any
}

func newBackendStub(t *testing.T) (*backendStub, *httptest.Server) {
	t.Helper()
	stub := &backendStub{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		stub.mu.Lock()
		stub.paths = append(stub.paths, r.URL.Path)
		stub.bodies = append(stub.bodies, body)
		stub.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success": true}`))
	}))
	t.Cleanup(srv.Close)
	return stub, srv
}

func TestHelpListsCommands(t *testing.T) {
	isolate(t)
	out, err := executeCommand(t, "--help")
	require.NoError(t, err)
	for _, name := range []string{"serve", "record", "drafts", "claim", "predict"} {
		assert.Contains(t, out, name)
	}
}

func TestDraftsListEmpty(t *testing.T) {
	isolate(t)
	out, err := executeCommand(t, "drafts", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "no drafts")
}

func TestDraftsListShowDelete(t *testing.T) {
	dsn := isolate(t)
	d := seedDraft(t, dsn)

	out, err := executeCommand(t, "drafts", "list")
	require.NoError(t, err)
	assert.Contains(t, out, d.ID)
	assert.Contains(t, out, "Autonomous")

	out, err = executeCommand(t, "--json", "drafts", "list")
	require.NoError(t, err)
	var list []drafts.Draft
	require.NoError(t, json.Unmarshal([]byte(out), &list))
	require.Len(t, list, 1)
	assert.Equal(t, 7, list[0].Match)

	out, err = executeCommand(t, "drafts", "show", d.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "mode-auton")
	assert.Contains(t, out, "comments: fast")

	_, err = executeCommand(t, "drafts", "delete", d.ID)
	require.NoError(t, err)
	_, err = executeCommand(t, "drafts", "show", d.ID)
	assert.ErrorIs(t, err, drafts.ErrNotFound)
}

func TestDraftsResubmit(t *testing.T) {
	dsn := isolate(t)
	d := seedDraft(t, dsn)
	stub, srv := newBackendStub(t)

	out, err := executeCommand(t, "--backend", srv.URL, "drafts", "resubmit", d.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "submitted draft")

	stub.mu.Lock()
	require.Equal(t, []string{"/api/match_event/7"}, stub.paths)
	assert.Equal(t, "fast", stub.bodies[0]["comments"])
	assert.Len(t, stub.bodies[0]["events"], 2)
	stub.mu.Unlock()

	_, err = executeCommand(t, "drafts", "show", d.ID)
	assert.ErrorIs(t, err, drafts.ErrNotFound)
}

func TestBackendCommands(t *testing.T) {
	isolate(t)
	stub, srv := newBackendStub(t)

	out, err := executeCommand(t, "--backend", srv.URL, "claim", "red2")
	require.NoError(t, err)
	assert.Contains(t, out, "claimed red2")

	_, err = executeCommand(t, "--backend", srv.URL, "release", "red2")
	require.NoError(t, err)
	_, err = executeCommand(t, "--backend", srv.URL, "superscout", "17")
	require.NoError(t, err)
	_, err = executeCommand(t, "--backend", srv.URL, "predict", "12", "blue")
	require.NoError(t, err)

	stub.mu.Lock()
	assert.Equal(t, []string{
		"/api/position_claim/red2",
		"/api/position_remove/red2",
		"/api/superscout/17",
		"/api/predict/12",
	}, stub.paths)
	assert.Equal(t, "blue", stub.bodies[3]["color"])
	stub.mu.Unlock()

	_, err = executeCommand(t, "--backend", srv.URL, "claim", "green1")
	assert.Error(t, err)
	_, err = executeCommand(t, "--backend", srv.URL, "superscout", "abc")
	assert.Error(t, err)
}

func TestRecordValidatesFlags(t *testing.T) {
	isolate(t)
	_, err := executeCommand(t, "record")
	assert.ErrorContains(t, err, "--match")

	_, err = executeCommand(t, "record", "--match", "3", "--position", "green1")
	assert.ErrorContains(t, err, "unknown position")
}

func TestStartsOnLeft(t *testing.T) {
	tests := []struct {
		flags     recordFlags
		redOnLeft bool
		want      bool
	}{
		{recordFlags{position: "red1"}, true, true},
		{recordFlags{position: "blue1"}, true, false},
		{recordFlags{position: "red1"}, false, false},
		{recordFlags{position: "blue1"}, false, true},
		{recordFlags{onLeft: true}, false, true},
		{recordFlags{onLeft: false}, true, false},
	}
	for _, tt := range tests {
		got, err := startsOnLeft(tt.flags, tt.redOnLeft)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "%+v red_on_left=%v", tt.flags, tt.redOnLeft)
	}

	_, err := startsOnLeft(recordFlags{position: "green1"}, true)
	assert.ErrorContains(t, err, "unknown position")
}

func TestInvalidConfigFails(t *testing.T) {
	isolate(t)
	t.Setenv("QUICKSCOUT_DRAFTS_DRIVER", "mongo")
	_, err := executeCommand(t, "drafts", "list")
	assert.Error(t, err)
}

func TestInitLoggerLevels(t *testing.T) {
	tests := []struct {
		level string
		want  zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"info", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"", zapcore.InfoLevel},
	}
	for _, tt := range tests {
		for _, format := range []string{"json", "console"} {
			logger, err := initLogger(config.LoggingConfig{Level: tt.level, Format: format}, "")
			require.NoError(t, err)
			assert.True(t, logger.Core().Enabled(tt.want), "%s/%s", tt.level, format)
			if tt.want > zapcore.DebugLevel {
				assert.False(t, logger.Core().Enabled(tt.want-1), "%s/%s", tt.level, format)
			}
		}
	}

	path := filepath.Join(t.TempDir(), "record.log")
	logger, err := initLogger(config.LoggingConfig{Level: "info", Format: "console"}, path)
	require.NoError(t, err)
	logger.Info("written")
	require.NoError(t, logger.Sync())
	assert.FileExists(t, path)
}
