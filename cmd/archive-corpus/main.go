// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// archive-corpus generates the deterministic corpus of archive files
// used to validate archive-extraction code: one artifact per format
// family plus nested and adversarial edge cases, described by a
// manifest written alongside them.
//
// Usage:
//
//	archive-corpus [output-dir] [flags]
//
// The default output directory is "test-archives", the name the
// consuming test suite reads. All required external archive utilities
// are resolved before anything is written; a missing tool aborts the
// run up front. On a tool failure mid-run the process exits with the
// failing tool's own exit code and its stderr text.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/archive-corpus/lib/config"
	"github.com/bureau-foundation/archive-corpus/lib/corpus"
	"github.com/bureau-foundation/archive-corpus/lib/process"
	"github.com/bureau-foundation/archive-corpus/lib/toolchain"
	"github.com/bureau-foundation/archive-corpus/lib/version"
)

// defaultOutputDir is the fixed relative directory used when no
// positional argument is given.
const defaultOutputDir = "test-archives"

func main() {
	if err := run(os.Args[1:]); err != nil {
		process.Fatal(err)
	}
}

func run(args []string) error {
	var (
		configPath  string
		seed        uint64
		engine      string
		keepStaging bool
		showVersion bool
	)

	flagSet := pflag.NewFlagSet("archive-corpus", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "YAML configuration file (optional)")
	flagSet.Uint64Var(&seed, "seed", 0, "override the PRNG seed for staged binary payloads")
	flagSet.StringVar(&engine, "engine", "", "archive construction engine: tool or native")
	flagSet.BoolVar(&keepStaging, "keep-staging", false, "leave staging and scratch directories in place")
	flagSet.BoolVar(&showVersion, "version", false, "print version and exit")
	flagSet.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: archive-corpus [output-dir] [flags]\n\nFlags:\n%s", flagSet.FlagUsages())
	}
	if err := flagSet.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}

	if showVersion {
		fmt.Printf("archive-corpus %s\n", version.Info())
		return nil
	}

	outputDir, err := outputDirArgument(flagSet.Args())
	if err != nil {
		return err
	}

	configuration := config.Default()
	if configPath != "" {
		configuration, err = config.Load(configPath)
		if err != nil {
			return err
		}
	}
	if flagSet.Changed("seed") {
		configuration.Seed = seed
	}
	if flagSet.Changed("engine") {
		configuration.Engine = config.Engine(engine)
	}
	if keepStaging {
		configuration.KeepStaging = true
	}
	if err := configuration.Validate(); err != nil {
		return err
	}

	// Resolve every required tool before writing anything. A corpus
	// that fails halfway through is worse than one that never starts.
	tools, err := toolchain.Resolve(toolchain.Required...)
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pipeline := corpus.New(configuration, tools, logger)
	document, err := pipeline.Run(ctx, outputDir)
	if err != nil {
		return err
	}

	logger.Info("corpus complete", "dir", outputDir, "artifacts", len(document.Descriptors))
	return nil
}

// outputDirArgument validates the positional arguments: at most one,
// and it must be a usable path. Argument errors are fatal before any
// staging happens.
func outputDirArgument(positional []string) (string, error) {
	switch len(positional) {
	case 0:
		return defaultOutputDir, nil
	case 1:
		dir := strings.TrimSpace(positional[0])
		if dir == "" {
			return "", fmt.Errorf("output directory argument is empty")
		}
		return dir, nil
	default:
		return "", fmt.Errorf("expected at most one output directory argument, got %d", len(positional))
	}
}
