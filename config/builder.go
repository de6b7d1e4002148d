package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jpalmerr/prewarm"
)

// BuildOptions converts parsed configuration into SDK options.
//
// A configured catalog_file is read here, so a missing or malformed catalog
// file surfaces as an error from BuildOptions rather than from [Parse].
func BuildOptions(cfg *Config) ([]prewarm.Option, error) {
	opts := []prewarm.Option{
		prewarm.WithPort(cfg.Port),
		prewarm.WithMaxConcurrency(cfg.MaxConcurrency),
		prewarm.WithRequestTimeout(cfg.Timeout()),
	}

	nodes, err := resolveCatalog(cfg)
	if err != nil {
		return nil, err
	}
	if nodes != nil {
		opts = append(opts, prewarm.WithCatalog(nodes...))
	}

	return opts, nil
}

// resolveCatalog returns the configured catalog, or nil to keep the built-in one.
func resolveCatalog(cfg *Config) ([]string, error) {
	if len(cfg.Catalog) > 0 {
		return cfg.Catalog, nil
	}
	if path := cfg.CatalogPath(); path != "" {
		return LoadCatalogFile(path)
	}
	return nil, nil
}

// LoadCatalogFile reads a YAML list of edge-node identifiers, such as
// "[IAD89-C1, FRA2-C1]" or one "- IAD89-C1" entry per line.
//
// Blank entries are rejected; duplicates are kept.
func LoadCatalogFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}

	var nodes []string
	if err := yaml.Unmarshal(data, &nodes); err != nil {
		return nil, fmt.Errorf("failed to parse catalog file %s: %w", path, err)
	}
	if len(nodes) == 0 {
		return nil, fmt.Errorf("catalog file %s: at least one node is required", path)
	}

	for i, n := range nodes {
		n = strings.TrimSpace(n)
		if n == "" {
			return nil, fmt.Errorf("catalog file %s: entry %d: node identifier cannot be empty", path, i)
		}
		nodes[i] = n
	}
	return nodes, nil
}
