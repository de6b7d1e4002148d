package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// logOutput is where CLI logs are written.
var logOutput io.Writer = os.Stderr

// newLogger creates a JSON logger for CLI use at the given level
// (debug, info, warn or error).
func newLogger(level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return slog.New(slog.NewJSONHandler(logOutput, &slog.HandlerOptions{
		Level: lvl,
	})), nil
}

func addLogLevelFlag(cmd *cobra.Command) {
	cmd.Flags().String("log-level", "info", "log level: debug, info, warn or error")
}

func loggerFromFlags(cmd *cobra.Command) (*slog.Logger, error) {
	level, _ := cmd.Flags().GetString("log-level")
	return newLogger(level)
}
