package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/hoanghai1803/whatif/internal/api"
	"github.com/hoanghai1803/whatif/internal/rotation"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP trigger server and the rotation schedule",
	Long: `Start an HTTP server that accepts ingestion triggers on POST /api/process
and serves the admin API. The daily source rotation runs on its cron schedule
in the same process unless rotation.enabled is false.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	pipeline, err := a.newPipeline(ctx)
	if err != nil {
		return err
	}
	// Let a triggered run finish before the database closes.
	defer pipeline.Wait()

	var sched *rotation.Scheduler
	if a.cfg.Rotation.Enabled {
		sched, err = rotation.NewScheduler(a.rotator, a.cfg.Rotation.Schedule, a.cfg.Rotation.Timezone, slog.Default())
		if err != nil {
			return err
		}
	}

	srv := &http.Server{
		Addr:              a.cfg.Addr(),
		Handler:           api.NewRouter(a.store, pipeline, a.rotator, a.cfg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("starting server", "addr", "http://"+srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return nil
	})

	if sched != nil {
		g.Go(func() error {
			return sched.Run(gctx)
		})
	} else {
		slog.Info("source rotation disabled")
	}

	return g.Wait()
}
