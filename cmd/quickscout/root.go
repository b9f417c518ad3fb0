package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/quickscout/quickscout-go/internal/config"
	"github.com/quickscout/quickscout-go/internal/drafts"
	"github.com/quickscout/quickscout-go/internal/submit"
)

// app carries what every subcommand needs once the root command has loaded
// configuration.
type app struct {
	v          *viper.Viper
	configPath string
	jsonOutput bool
	logFile    string

	cfg    *config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{v: config.New()}

	root := &cobra.Command{
		Use:   "quickscout",
		Short: "Match-scouting recorder",
		Long: `quickscout records what a robot does during a match, phase by phase,
and submits the timestamped event log to the scouting backend.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "path to configuration file (default: ./quickscout.yaml)")
	flags.String("log-level", "", "log level: debug, info, warn or error")
	flags.String("backend", "", "scouting backend base URL")
	flags.StringVar(&a.logFile, "log-file", "", "write logs to this file instead of stderr")
	flags.BoolVar(&a.jsonOutput, "json", false, "output in JSON format")
	_ = a.v.BindPFlag("logging.level", flags.Lookup("log-level"))
	_ = a.v.BindPFlag("backend.base_url", flags.Lookup("backend"))

	root.AddCommand(
		newServeCmd(a),
		newRecordCmd(a),
		newDraftsCmd(a),
		newClaimCmd(a),
		newReleaseCmd(a),
		newSuperscoutCmd(a),
		newPredictCmd(a),
	)
	return root
}

func (a *app) load() error {
	cfg, err := config.Decode(a.v, a.configPath)
	if err != nil {
		return err
	}
	logger, err := initLogger(cfg.Logging, a.logFile)
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	a.cfg = cfg
	a.logger = logger
	a.logger.Debug("configuration loaded",
		zap.String("config", a.v.ConfigFileUsed()),
		zap.String("backend", cfg.Backend.BaseURL),
		zap.String("drafts_driver", cfg.Drafts.Driver),
	)
	return nil
}

// initLogger initializes the zap logger based on configuration. A non-empty
// path replaces stderr as the output, which the terminal recorder needs.
func initLogger(cfg config.LoggingConfig, path string) (*zap.Logger, error) {
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	if path != "" {
		zapCfg.OutputPaths = []string{path}
		zapCfg.ErrorOutputPaths = []string{path}
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	}

	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}

func (a *app) submitClient() (*submit.Client, error) {
	return submit.NewClient(submit.Config{
		BaseURL:    a.cfg.Backend.BaseURL,
		Timeout:    a.cfg.Backend.Timeout,
		MaxRetries: a.cfg.Backend.MaxRetries,
		Logger:     a.logger.Named("submit"),
	})
}

func (a *app) openStore(ctx context.Context) (drafts.Store, error) {
	store, err := drafts.Open(ctx, a.cfg.Drafts.Driver, a.cfg.Drafts.DSN)
	if err != nil {
		return nil, err
	}
	a.logger.Debug("draft store opened", zap.String("driver", a.cfg.Drafts.Driver))
	return store, nil
}

// output prints v as indented JSON when --json is set and reports whether
// it did.
func (a *app) output(w io.Writer, v any) (bool, error) {
	if !a.jsonOutput {
		return false, nil
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return true, enc.Encode(v)
}
