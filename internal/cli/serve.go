package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron"
	"github.com/spf13/cobra"
	"github.com/yapay-ai/aws-budget-guardian/internal/metrics"
	"github.com/yapay-ai/aws-budget-guardian/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the job server with scheduled sync and harvest runs",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("listen", "l", "", "Listen address (default from config)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	listen, _ := cmd.Flags().GetString("listen")
	if listen != "" {
		cfg.Server.Listen = listen
	}

	logger := newLogger(cfg)

	syncer, err := initSyncer(cfg, logger)
	if err != nil {
		return err
	}

	harvester, err := initHarvester(cfg, "", logger)
	if err != nil {
		return err
	}

	apiServer := server.NewServer(syncer, harvester, logger)

	readTimeout, _ := time.ParseDuration(cfg.Server.ReadTimeout)
	if readTimeout == 0 {
		readTimeout = 30 * time.Second
	}
	writeTimeout, _ := time.ParseDuration(cfg.Server.WriteTimeout)
	if writeTimeout == 0 {
		writeTimeout = 300 * time.Second
	}

	srv := &http.Server{
		Addr:         cfg.Server.Listen,
		Handler:      apiServer.Handler(),
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}

	// Scheduled runs happen off the request path with their own deadline.
	runJob := func(name string, job server.Job) func() {
		return func() {
			logger.Info("scheduled job starting", "job", name)
			ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
			defer cancel()
			metrics.ObserveRun(job.Run(ctx))
		}
	}

	c := cron.New()
	if cfg.Schedule.Sync != "" {
		if err := c.AddFunc(cfg.Schedule.Sync, runJob("sync", syncer)); err != nil {
			return fmt.Errorf("schedule sync: %w", err)
		}
	}
	if cfg.Schedule.Harvest != "" {
		if err := c.AddFunc(cfg.Schedule.Harvest, runJob("harvest", harvester)); err != nil {
			return fmt.Errorf("schedule harvest: %w", err)
		}
	}
	c.Start()
	defer c.Stop()

	// Graceful shutdown
	errCh := make(chan error, 1)
	go func() {
		logger.Info("server started",
			"listen", cfg.Server.Listen,
			"sync_schedule", cfg.Schedule.Sync,
			"harvest_schedule", cfg.Schedule.Harvest,
		)
		fmt.Fprintf(os.Stderr, "AWS Budget Guardian serving on %s\n", cfg.Server.Listen)
		errCh <- srv.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		logger.Info("shutting down", "signal", sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("shutdown error: %w", err)
		}
	}

	logger.Info("server stopped")
	return nil
}
