// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for corpus generator
// packages.
//
// [RequireTool] skips a test when an external archiver is not on PATH.
// The corpus generator shells out to the standard archive utilities,
// and developer machines do not always carry the full set (7z and lz4
// in particular). Skipping keeps the suite green everywhere while CI,
// which provisions every tool, still exercises the real invocations.
//
// All other helpers call t.Fatal on failure rather than returning
// errors, since test setup failures are not recoverable.
package testutil

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

// RequireTool skips the test if the named executable is not on PATH.
func RequireTool(t *testing.T, name string) {
	t.Helper()
	if _, err := exec.LookPath(name); err != nil {
		t.Skipf("%s not found on PATH", name)
	}
}

// RequireTools skips the test unless every named executable is on PATH.
func RequireTools(t *testing.T, names ...string) {
	t.Helper()
	for _, name := range names {
		RequireTool(t, name)
	}
}

// WriteFile writes content to path, creating parent directories as
// needed.
func WriteFile(t *testing.T, path string, content []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("creating %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}

// RequireExists fails the test if path does not exist.
func RequireExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected %s to exist: %v", path, err)
	}
}

// RequireAbsent fails the test if path exists.
func RequireAbsent(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err == nil {
		t.Fatalf("expected %s to be absent", path)
	} else if !os.IsNotExist(err) {
		t.Fatalf("stat %s: %v", path, err)
	}
}

// FileSize returns the size of the file at path.
func FileSize(t *testing.T, path string) int64 {
	t.Helper()
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat %s: %v", path, err)
	}
	return info.Size()
}
