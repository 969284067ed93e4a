package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Chdir(dir)
	return filepath.Join(dir, ".pagefit")
}

func TestInitAndPaginate(t *testing.T) {
	homePath := isolate(t)

	if _, err := runCLI(t, "init", "--home", homePath, "--log-level", "error"); err != nil {
		t.Fatalf("init error = %v", err)
	}
	sample := filepath.Join(homePath, "documents", "example.yaml")
	if _, err := os.Stat(sample); err != nil {
		t.Fatalf("sample document not written: %v", err)
	}
	if _, err := os.Stat(filepath.Join(homePath, "config.yaml")); err != nil {
		t.Fatalf("config not written: %v", err)
	}

	if _, err := runCLI(t, "init", "--home", homePath); err == nil {
		t.Error("second init without --force should fail")
	}

	out, err := runCLI(t, "paginate", sample, "--home", homePath, "--paper", "Letter", "--log-level", "error", "-o", "text")
	if err != nil {
		t.Fatalf("paginate error = %v", err)
	}
	if !strings.Contains(out, "1 page(s)") {
		t.Errorf("paginate output missing page count:\n%s", out)
	}
}

func TestPaginate_Errors(t *testing.T) {
	homePath := isolate(t)

	if _, err := runCLI(t, "paginate", "missing.yaml", "--home", homePath, "-o", "text"); err == nil {
		t.Error("paginate of a missing file should fail")
	}
	if _, err := runCLI(t, "paginate", "missing.yaml", "--home", homePath, "-o", "xml"); err == nil {
		t.Error("unknown output format should fail")
	}
	if _, err := runCLI(t, "paginate", "missing.yaml", "--home", homePath, "-o", "text", "--log-level", "loud"); err == nil {
		t.Error("unknown log level should fail")
	}
}
