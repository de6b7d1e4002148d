package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jpalmerr/prewarm"
	"github.com/spf13/cobra"
)

// warmCmd runs a single warm invocation and prints its response.
var warmCmd = &cobra.Command{
	Use:   "warm",
	Short: "Warm a file into every edge cache",
	Long: `Run one warm invocation and print the response as JSON.

The invocation is given either with --filename and --cloudfront-url, or as a
function-trigger event file with --event ("-" reads stdin):

  {"filename": "/test/example.jpg", "cloudfront_url": "example.cloudfront.net"}

Every edge node is attempted once; per-node outcomes are logged to stderr.

Exit codes:
  0 - Every node was attempted (statusCode 200), whether or not it warmed
  1 - Missing parameters or setup failure

Example:
  prewarm warm --filename /test/example.jpg --cloudfront-url example.cloudfront.net
  prewarm warm -c prewarm.yaml --event event.json`,
	RunE: runWarm,
}

func init() {
	rootCmd.AddCommand(warmCmd)

	warmCmd.Flags().String("filename", "", "resource path to warm, e.g. /test/example.jpg")
	warmCmd.Flags().String("cloudfront-url", "", "distribution hostname, e.g. example.cloudfront.net")
	warmCmd.Flags().String("event", "", `path to an invocation event JSON file ("-" for stdin)`)
	warmCmd.Flags().StringP("config", "c", "", "path to config file")
	addLogLevelFlag(warmCmd)

	warmCmd.MarkFlagsMutuallyExclusive("event", "filename")
	warmCmd.MarkFlagsMutuallyExclusive("event", "cloudfront-url")
}

func runWarm(cmd *cobra.Command, args []string) error {
	logger, err := loggerFromFlags(cmd)
	if err != nil {
		return err
	}

	configFile, _ := cmd.Flags().GetString("config")
	w, err := newWarmer(configFile, logger)
	if err != nil {
		return err
	}
	defer w.Close()

	payload, err := invocationPayload(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	resp := w.InvokeJSON(ctx, payload)

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(resp); err != nil {
		return fmt.Errorf("failed to write response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("warm failed with status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}

// invocationPayload returns the event JSON from --event, or builds it from
// --filename and --cloudfront-url.
func invocationPayload(cmd *cobra.Command) ([]byte, error) {
	eventFile, _ := cmd.Flags().GetString("event")
	if eventFile != "" {
		return readEvent(cmd, eventFile)
	}

	filename, _ := cmd.Flags().GetString("filename")
	cloudFrontURL, _ := cmd.Flags().GetString("cloudfront-url")
	payload, err := json.Marshal(prewarm.Invocation{
		Filename:      filename,
		CloudFrontURL: cloudFrontURL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode invocation: %w", err)
	}
	return payload, nil
}

func readEvent(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("failed to read event from stdin: %w", err)
		}
		return data, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read event file: %w", err)
	}
	if len(data) == 0 {
		return nil, errors.New("event file is empty")
	}
	return data, nil
}
