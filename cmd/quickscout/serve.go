package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/quickscout/quickscout-go/internal/drafts"
	"github.com/quickscout/quickscout-go/internal/scout"
	"github.com/quickscout/quickscout-go/internal/web"
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the recorder to browser pages over WebSocket",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve(cmd.Context())
		},
	}
	cmd.Flags().String("addr", "", "listen address (default from server.address)")
	_ = a.v.BindPFlag("server.address", cmd.Flags().Lookup("addr"))
	return cmd
}

func (a *app) serve(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	a.logger.Info("starting quickscout server",
		zap.String("version", version),
		zap.String("address", a.cfg.Server.Address),
		zap.String("backend", a.cfg.Backend.BaseURL),
	)

	client, err := a.submitClient()
	if err != nil {
		return err
	}
	store, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	hub := web.NewHub(web.Options{
		Logger:   a.logger.Named("web"),
		Recorder: drafts.NewRecorder(a.logger.Named("drafts"), store),
		SessionOptions: []scout.Option{
			scout.WithSubmitter(client),
			scout.WithTiming(a.cfg.Recorder.Timing()),
		},
	})
	go hub.Run(ctx)

	srv := &http.Server{
		Addr:              a.cfg.Server.Address,
		Handler:           hub.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		a.logger.Info("listening", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case sig := <-sigChan:
		a.logger.Info("received shutdown signal", zap.String("signal", sig.String()))
	case <-ctx.Done():
	case err := <-errChan:
		return fmt.Errorf("serve %s: %w", srv.Addr, err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Warn("http shutdown incomplete", zap.Error(err))
	}
	cancel()

	a.logger.Info("server stopped")
	return nil
}
