// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package toolchain provides typed access to the external archive and
// compression utilities the corpus generator shells out to. Every
// required tool is resolved through PATH up front, before any output
// is written, so a missing utility fails the run cleanly instead of
// halfway through. Invocations always name an explicit working
// directory — nothing in the generator depends on the ambient process
// working directory.
package toolchain

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strings"
)

// Required is the full set of executables the tool-backed engine
// invokes. Resolve checks all of them even though a given run may use
// only a subset; partial corpora caused by a tool discovered missing
// mid-run are worse than a strict preflight.
var Required = []string{
	"zip", "tar", "gzip", "bzip2", "xz", "zstd", "lz4", "7z", "ar",
}

// Tool is an external executable resolved to an absolute path.
type Tool struct {
	name string
	path string
}

// Name returns the bare executable name (e.g. "zip").
func (t Tool) Name() string { return t.name }

// Path returns the resolved absolute path.
func (t Tool) Path() string { return t.path }

// Set holds the resolved tools for one generator run.
type Set struct {
	tools map[string]Tool
}

// Resolve looks up every named executable on PATH and returns the
// resolved set. All names are checked before returning so the error
// lists every missing tool at once, not just the first.
func Resolve(names ...string) (*Set, error) {
	set := &Set{tools: make(map[string]Tool, len(names))}
	var missing []string
	for _, name := range names {
		path, err := exec.LookPath(name)
		if err != nil {
			missing = append(missing, name)
			continue
		}
		set.tools[name] = Tool{name: name, path: path}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, fmt.Errorf("required tools not found on PATH: %s", strings.Join(missing, ", "))
	}
	return set, nil
}

// Get returns the resolved tool for name. It panics if the tool was
// not part of the resolved set — that is a programming error, since
// Resolve is called with the full Required list before any stage runs.
func (s *Set) Get(name string) Tool {
	tool, ok := s.tools[name]
	if !ok {
		panic(fmt.Sprintf("toolchain: %q was not resolved", name))
	}
	return tool
}

// Run executes the tool in dir with the given arguments. Stdout is
// discarded (the archive utilities write their product to a named
// file); stderr is captured and folded into the returned *ToolError
// on failure.
func (t Tool) Run(ctx context.Context, dir string, args ...string) error {
	command := exec.CommandContext(ctx, t.path, args...)
	command.Dir = dir
	var stderr bytes.Buffer
	command.Stderr = &stderr

	if err := command.Run(); err != nil {
		return newToolError(t.name, args, stderr.String(), err)
	}
	return nil
}

// RunToFile executes the tool in dir with stdout redirected to
// outputPath. Used for the single-file codecs (gzip -c and friends)
// whose only output channel is stdout.
func (t Tool) RunToFile(ctx context.Context, dir, outputPath string, args ...string) error {
	output, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("creating %s: %w", outputPath, err)
	}
	defer output.Close()

	command := exec.CommandContext(ctx, t.path, args...)
	command.Dir = dir
	command.Stdout = output
	var stderr bytes.Buffer
	command.Stderr = &stderr

	if err := command.Run(); err != nil {
		return newToolError(t.name, args, stderr.String(), err)
	}
	if err := output.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", outputPath, err)
	}
	return nil
}

// ToolError reports a failed external tool invocation: the tool was
// found on PATH but exited non-zero (or could not be started). The
// underlying stderr text and exit code are preserved verbatim so the
// caller sees exactly what the tool reported.
type ToolError struct {
	Tool   string
	Args   []string
	Stderr string
	Code   int
	Err    error
}

func newToolError(tool string, args []string, stderr string, err error) *ToolError {
	code := -1
	if exitErr, ok := err.(*exec.ExitError); ok {
		code = exitErr.ExitCode()
	}
	return &ToolError{
		Tool:   tool,
		Args:   args,
		Stderr: strings.TrimSpace(stderr),
		Code:   code,
		Err:    err,
	}
}

func (e *ToolError) Error() string {
	message := fmt.Sprintf("%s %s: %v", e.Tool, strings.Join(e.Args, " "), e.Err)
	if e.Stderr != "" {
		message += " (stderr: " + e.Stderr + ")"
	}
	return message
}

func (e *ToolError) Unwrap() error { return e.Err }

// ExitCode returns the failing tool's exit status, or -1 if the tool
// never ran. process.Fatal propagates this as the generator's own
// exit code.
func (e *ToolError) ExitCode() int { return e.Code }
