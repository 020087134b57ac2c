package preflight

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"dropsort/internal/services"
	"dropsort/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if !strings.Contains(result.Detail, "does not exist") {
		t.Fatalf("unexpected detail %q", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckDirectoryAccess_Empty(t *testing.T) {
	if result := CheckDirectoryAccess("test", " "); result.Passed {
		t.Fatal("expected failure for empty path")
	}
}

func TestCheckInotifyWatches(t *testing.T) {
	dir := t.TempDir()
	cases := []struct {
		content string
		passed  bool
	}{
		{"8192\n", true},
		{"16\n", false},
		{"garbage", false},
	}
	for _, tc := range cases {
		path := filepath.Join(dir, "limit")
		if err := os.WriteFile(path, []byte(tc.content), 0o644); err != nil {
			t.Fatal(err)
		}
		result := checkInotifyWatches(path)
		if result.Passed != tc.passed || !result.Optional {
			t.Fatalf("content %q: got %+v", tc.content, result)
		}
	}
	if result := checkInotifyWatches(filepath.Join(dir, "missing")); result.Passed || !result.Optional {
		t.Fatalf("expected optional failure for missing file, got %+v", result)
	}
}

func TestRunAllAndErr(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	results := RunAll(context.Background(), cfg)
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if err := Err(results); err != nil {
		t.Fatalf("expected healthy config, got %v", err)
	}

	cfg.Paths.WatchRoot = filepath.Join(testsupport.BaseDir(cfg), "missing")
	err := Err(RunAll(context.Background(), cfg))
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if !strings.Contains(err.Error(), "Watch root") {
		t.Fatalf("expected failing check name in %q", err)
	}
}
