// Package testutil provides shared helpers for the test suite.
package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

var (
	testRunDirOnce sync.Once
	testRunDir     string
)

// GetTestRunDir returns a process-wide directory for this test run,
// created on first use under the system temp directory. Repeated calls
// return the same directory.
func GetTestRunDir() string {
	testRunDirOnce.Do(func() {
		dir, err := os.MkdirTemp("", "test-runs-*")
		if err != nil {
			dir = filepath.Join(os.TempDir(), "test-runs")
			_ = os.MkdirAll(dir, 0o755)
		}
		testRunDir = dir
	})
	return testRunDir
}

// TempDir creates a writable temporary directory under the test run
// directory, removed automatically when the test completes.
func TempDir(t *testing.T, pattern string) string {
	t.Helper()

	dir, err := os.MkdirTemp(GetTestRunDir(), pattern)
	if err != nil {
		t.Fatalf("failed to create temp directory: %v", err)
	}
	t.Cleanup(func() {
		_ = os.RemoveAll(dir)
	})
	return dir
}

// StripYAMLCommentHeader removes the leading comment block (and any blank
// lines that follow it) from generated YAML, returning the document body.
func StripYAMLCommentHeader(content string) string {
	lines := strings.Split(content, "\n")
	start := 0
	for start < len(lines) {
		trimmed := strings.TrimSpace(lines[start])
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			start++
			continue
		}
		break
	}
	// A document that is nothing but comments is returned unchanged
	if start == len(lines) {
		return content
	}
	return strings.Join(lines[start:], "\n")
}
