// Package config provides YAML configuration parsing for prewarm.
//
// This package enables running prewarm as a standalone binary with a
// configuration file, as an alternative to the programmatic SDK approach.
//
// Example configuration:
//
//	port: 8080
//	max_concurrency: 100
//	request_timeout: 30s
//
//	catalog:
//	  - IAD89-C1
//	  - FRA2-C1
//
// The catalog may instead be kept in a separate YAML list:
//
//	catalog_file: ${PREWARM_POPS:-pops.yaml}
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultPort           = 8080
	defaultMaxConcurrency = 100
	defaultRequestTimeout = 30 * time.Second
)

// Config is the root configuration structure for prewarm.
//
// It maps directly to the YAML configuration file structure.
// Use [Load] or [Parse] to create a Config from YAML.
type Config struct {
	// Port is the HTTP trigger port. Defaults to 8080.
	Port int `yaml:"port"`

	// MaxConcurrency bounds warm requests in flight. Defaults to 100.
	MaxConcurrency int `yaml:"max_concurrency"`

	// RequestTimeout bounds each warm request.
	// Accepts duration strings like "10s" or "1m". "0s" disables the bound.
	// Defaults to 30s when omitted.
	RequestTimeout *Duration `yaml:"request_timeout"`

	// Catalog lists edge-node identifiers to warm.
	// If neither Catalog nor CatalogFile is set, the built-in catalog is used.
	Catalog []string `yaml:"catalog"`

	// CatalogFile is a path to a YAML list of edge-node identifiers.
	// Relative paths resolve against the config file's directory.
	// Supports environment variable substitution: ${VAR} or ${VAR:-default}
	CatalogFile string `yaml:"catalog_file"`

	// baseDir is the directory of the loaded config file, if any.
	baseDir string
}

// Duration wraps time.Duration for YAML unmarshalling.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}

	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// Timeout returns the effective per-request timeout.
func (c *Config) Timeout() time.Duration {
	if c.RequestTimeout == nil {
		return defaultRequestTimeout
	}
	return c.RequestTimeout.Duration()
}

// CatalogPath returns CatalogFile resolved against the config file's directory.
// It returns "" when no catalog file is configured.
func (c *Config) CatalogPath() string {
	if c.CatalogFile == "" {
		return ""
	}
	if filepath.IsAbs(c.CatalogFile) || c.baseDir == "" {
		return c.CatalogFile
	}
	return filepath.Join(c.baseDir, c.CatalogFile)
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
// Group 1: variable name
// Group 2: the ":-default" part (if present, indicates a default was specified)
// Group 3: the default value (may be empty for ${VAR:-})
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} patterns with environment values.
func expandEnvVars(s string) (string, error) {
	var firstErr error

	result := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if firstErr != nil {
			return match
		}

		submatches := envVarPattern.FindStringSubmatch(match)
		if len(submatches) < 2 {
			return match
		}

		varName := submatches[1]
		hasDefault := len(submatches) > 2 && submatches[2] != ""
		defaultVal := ""
		if hasDefault && len(submatches) > 3 {
			defaultVal = submatches[3]
		}

		value, exists := os.LookupEnv(varName)
		if !exists {
			if hasDefault {
				return defaultVal
			}
			firstErr = fmt.Errorf("environment variable %q is not set", varName)
			return match
		}
		return value
	})

	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

// Load reads and parses a YAML configuration file.
//
// Environment variables in the file are expanded before parsing.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}
	cfg.baseDir = filepath.Dir(path)
	return cfg, nil
}

// Parse parses YAML configuration data.
//
// Environment variables are expanded in catalog entries and CatalogFile.
// Defaults are applied for Port (8080) and MaxConcurrency (100).
// An empty document is valid and selects every default.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if cfg.Port == 0 {
		cfg.Port = defaultPort
	}
	if cfg.MaxConcurrency == 0 {
		cfg.MaxConcurrency = defaultMaxConcurrency
	}

	if err := cfg.expandAndValidate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// expandAndValidate expands environment variables and validates the config.
func (c *Config) expandAndValidate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}

	if c.MaxConcurrency < 1 {
		return fmt.Errorf("max_concurrency must be at least 1, got %d", c.MaxConcurrency)
	}

	if c.RequestTimeout != nil && c.RequestTimeout.Duration() < 0 {
		return fmt.Errorf("request_timeout cannot be negative, got %s", c.RequestTimeout.Duration())
	}

	if len(c.Catalog) > 0 && c.CatalogFile != "" {
		return errors.New("catalog and catalog_file are mutually exclusive")
	}

	for i, node := range c.Catalog {
		expanded, err := expandEnvVars(node)
		if err != nil {
			return fmt.Errorf("catalog[%d]: %w", i, err)
		}
		expanded = strings.TrimSpace(expanded)
		if expanded == "" {
			return fmt.Errorf("catalog[%d]: node identifier cannot be empty", i)
		}
		c.Catalog[i] = expanded
	}

	if c.CatalogFile != "" {
		expanded, err := expandEnvVars(c.CatalogFile)
		if err != nil {
			return fmt.Errorf("catalog_file: %w", err)
		}
		if strings.TrimSpace(expanded) == "" {
			return errors.New("catalog_file: path cannot be empty")
		}
		c.CatalogFile = expanded
	}

	return nil
}
