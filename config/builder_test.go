package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jpalmerr/prewarm"
)

func buildWarmer(t *testing.T, cfg *Config) *prewarm.Warmer {
	t.Helper()

	opts, err := BuildOptions(cfg)
	if err != nil {
		t.Fatalf("BuildOptions() error = %v", err)
	}
	w, err := prewarm.New(opts...)
	if err != nil {
		t.Fatalf("prewarm.New() error = %v", err)
	}
	return w
}

func TestBuildOptions_Defaults(t *testing.T) {
	cfg, err := Parse([]byte(""))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	w := buildWarmer(t, cfg)

	if w.Port() != 8080 {
		t.Errorf("Port() = %d, want 8080", w.Port())
	}
	if w.MaxConcurrency() != 100 {
		t.Errorf("MaxConcurrency() = %d, want 100", w.MaxConcurrency())
	}
	if w.RequestTimeout() != 30*time.Second {
		t.Errorf("RequestTimeout() = %v, want 30s", w.RequestTimeout())
	}
	if got, want := len(w.Catalog()), len(prewarm.DefaultCatalog()); got != want {
		t.Errorf("len(Catalog()) = %d, want %d", got, want)
	}
}

func TestBuildOptions_InlineCatalog(t *testing.T) {
	cfg, err := Parse([]byte(`
port: 9191
max_concurrency: 4
request_timeout: 0s
catalog: [IAD89-C1, FRA2-C1]
`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	w := buildWarmer(t, cfg)

	if w.Port() != 9191 {
		t.Errorf("Port() = %d, want 9191", w.Port())
	}
	if w.MaxConcurrency() != 4 {
		t.Errorf("MaxConcurrency() = %d, want 4", w.MaxConcurrency())
	}
	if w.RequestTimeout() != 0 {
		t.Errorf("RequestTimeout() = %v, want 0", w.RequestTimeout())
	}

	catalog := w.Catalog()
	if len(catalog) != 2 || catalog[0] != "IAD89-C1" || catalog[1] != "FRA2-C1" {
		t.Errorf("Catalog() = %v, want [IAD89-C1 FRA2-C1]", catalog)
	}
}

func TestBuildOptions_CatalogFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "pops.yaml"), []byte("- NRT20-C1\n- \" SIN2-C1 \"\n"), 0644); err != nil {
		t.Fatalf("failed to write catalog file: %v", err)
	}
	configPath := filepath.Join(dir, "prewarm.yaml")
	if err := os.WriteFile(configPath, []byte("catalog_file: pops.yaml\n"), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	catalog := buildWarmer(t, cfg).Catalog()
	if len(catalog) != 2 || catalog[0] != "NRT20-C1" || catalog[1] != "SIN2-C1" {
		t.Errorf("Catalog() = %v, want [NRT20-C1 SIN2-C1]", catalog)
	}
}

func TestBuildOptions_MissingCatalogFile(t *testing.T) {
	cfg, err := Parse([]byte(`catalog_file: /nonexistent/pops.yaml`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	_, err = BuildOptions(cfg)
	if err == nil {
		t.Fatal("BuildOptions() expected error for missing catalog file, got nil")
	}
	if !strings.Contains(err.Error(), "failed to read catalog file") {
		t.Errorf("error = %q, want to contain %q", err.Error(), "failed to read catalog file")
	}
}

func TestLoadCatalogFile_Errors(t *testing.T) {
	tests := []struct {
		name        string
		content     string
		wantErrLike string
	}{
		{"empty list", "[]\n", "at least one node is required"},
		{"empty document", "", "at least one node is required"},
		{"blank entry", "- IAD89-C1\n- \"  \"\n", "entry 1: node identifier cannot be empty"},
		{"not a list", "port: 8080\n", "failed to parse catalog file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "pops.yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatalf("failed to write catalog file: %v", err)
			}

			_, err := LoadCatalogFile(path)
			if err == nil {
				t.Fatal("LoadCatalogFile() expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErrLike) {
				t.Errorf("error = %q, want to contain %q", err.Error(), tt.wantErrLike)
			}
		})
	}
}
