package main

import (
	"fmt"

	"github.com/jpalmerr/prewarm"
	"github.com/jpalmerr/prewarm/config"
	"github.com/spf13/cobra"
)

// validateCmd validates a config file without warming anything.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a config file",
	Long: `Validate a prewarm configuration file without sending any requests.

This command parses the YAML, expands environment variables, reads the
catalog file if one is configured, and validates all fields. It's useful for
CI/CD pipelines or pre-deployment checks.

Exit codes:
  0 - Config is valid
  1 - Config is invalid (error details printed to stderr)

Example:
  prewarm validate -c prewarm.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	_ = validateCmd.MarkFlagRequired("config")
}

func runValidate(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	opts, err := config.BuildOptions(cfg)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	w, err := prewarm.New(opts...)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	source := "built-in"
	switch {
	case len(cfg.Catalog) > 0:
		source = "inline"
	case cfg.CatalogFile != "":
		source = cfg.CatalogPath()
	}

	timeout := w.RequestTimeout().String()
	if w.RequestTimeout() == 0 {
		timeout = "none"
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Config is valid!\n")
	fmt.Fprintf(out, "  Port:            %d\n", w.Port())
	fmt.Fprintf(out, "  Max concurrency: %d\n", w.MaxConcurrency())
	fmt.Fprintf(out, "  Request timeout: %s\n", timeout)
	fmt.Fprintf(out, "  Edge nodes:      %d (%s)\n", len(w.Catalog()), source)

	return nil
}
