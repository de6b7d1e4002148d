package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

const (
	shutdownTimeout = 10 * time.Second
)

// serveCmd starts the HTTP trigger.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP trigger",
	Long: `Start the prewarm HTTP trigger.

The server will:
  - Load configuration from the specified YAML file, if any
  - Accept invocations on POST /api/warm
  - Report the latest outcome per edge node on /api/outcomes and /api/sse

The server runs until interrupted (Ctrl+C) or receives SIGTERM.

Example:
  prewarm serve -c prewarm.yaml
  curl -X POST localhost:8080/api/warm \
    -d '{"filename":"/test/example.jpg","cloudfront_url":"example.cloudfront.net"}'`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("config", "c", "", "path to config file")
	addLogLevelFlag(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	logger, err := loggerFromFlags(cmd)
	if err != nil {
		return err
	}

	configFile, _ := cmd.Flags().GetString("config")
	w, err := newWarmer(configFile, logger)
	if err != nil {
		return err
	}

	logger.Info("starting server",
		"port", w.Port(),
		"nodes", len(w.Catalog()),
		"max_concurrency", w.MaxConcurrency(),
		"request_timeout", w.RequestTimeout().String(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errChan := make(chan error, 1)
	go func() {
		errChan <- w.Serve(ctx)
	}()

	select {
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		logger.Info("shutdown complete")
		return nil

	case <-ctx.Done():
		select {
		case err := <-errChan:
			if err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			logger.Info("shutdown complete")
			return nil
		case <-time.After(shutdownTimeout):
			logger.Warn("shutdown timed out",
				"timeout", shutdownTimeout.String(),
				"action", "forcing exit",
			)
			return nil
		}
	}
}
