package main

import (
	"bytes"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/spf13/pflag"
)

// stubDoer answers every request with a fixed status and records hosts.
type stubDoer struct {
	status int

	mu    sync.Mutex
	hosts []string
}

func (d *stubDoer) Do(req *http.Request) (*http.Response, error) {
	d.mu.Lock()
	d.hosts = append(d.hosts, req.URL.Host)
	d.mu.Unlock()
	return &http.Response{
		StatusCode: d.status,
		Body:       io.NopCloser(strings.NewReader("")),
		Request:    req,
	}, nil
}

func (d *stubDoer) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.hosts)
}

// resetFlags restores every subcommand flag to its default, since cobra keeps
// values between Execute calls on the shared rootCmd.
func resetFlags(t *testing.T) {
	t.Helper()
	for _, c := range rootCmd.Commands() {
		c.Flags().VisitAll(func(f *pflag.Flag) {
			_ = f.Value.Set(f.DefValue)
			f.Changed = false
		})
	}
}

// executeCmd runs the root command with args and returns stdout, logs and error.
func executeCmd(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	resetFlags(t)

	var stdout, logs bytes.Buffer
	oldLog := logOutput
	logOutput = &logs
	t.Cleanup(func() { logOutput = oldLog })

	rootCmd.SetArgs(args)
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetIn(strings.NewReader(stdin))
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetIn(nil)
	})

	err := rootCmd.Execute()
	return stdout.String(), logs.String(), err
}

func useDoer(t *testing.T, d *stubDoer) {
	t.Helper()
	old := httpDoer
	httpDoer = d
	t.Cleanup(func() { httpDoer = old })
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}
