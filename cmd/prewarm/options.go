package main

import (
	"fmt"
	"log/slog"

	"github.com/jpalmerr/prewarm"
	"github.com/jpalmerr/prewarm/config"
)

// httpDoer overrides the warm request client when non-nil.
var httpDoer prewarm.HTTPDoer

// newWarmer builds a Warmer from an optional config file.
func newWarmer(configFile string, logger *slog.Logger) (*prewarm.Warmer, error) {
	var opts []prewarm.Option

	if configFile != "" {
		cfg, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		opts, err = config.BuildOptions(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to build options: %w", err)
		}
	}

	opts = append(opts, prewarm.WithLogger(logger))
	if httpDoer != nil {
		opts = append(opts, prewarm.WithHTTPClient(httpDoer))
	}

	w, err := prewarm.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create warmer: %w", err)
	}
	return w, nil
}
