// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package corpus runs the corpus-generation pipeline: stage the
// deterministic source tree, build every single-format artifact, the
// nested composites, and the edge cases, emit the manifest, and clean
// up the intermediate directories.
//
// Execution is strictly sequential and fail-fast. No stage starts
// before the previous one finished; the first error aborts the run
// with no retry and no rollback of already-written files — a failed
// run's output directory is not trustworthy and should be discarded.
package corpus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/bureau-foundation/archive-corpus/lib/archiver"
	"github.com/bureau-foundation/archive-corpus/lib/binhash"
	"github.com/bureau-foundation/archive-corpus/lib/config"
	"github.com/bureau-foundation/archive-corpus/lib/manifest"
	"github.com/bureau-foundation/archive-corpus/lib/staging"
	"github.com/bureau-foundation/archive-corpus/lib/toolchain"
)

// Intermediate directory names under the output directory. Both are
// removed by the cleanup stage.
const (
	stagingDirName = "staging"
	scratchDirName = "scratch"
)

// Pipeline generates one corpus. Construct with New and call Run
// once; a Pipeline holds no cross-run state.
type Pipeline struct {
	config *config.Config
	tool   *archiver.ToolEngine
	native *archiver.NativeEngine
	logger *slog.Logger
}

// New returns a pipeline using the given configuration and resolved
// tool set. The tool set must contain toolchain.Required — resolution
// happens before the pipeline is constructed so that a missing tool
// fails before anything is written.
func New(configuration *config.Config, tools *toolchain.Set, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		config: configuration,
		tool:   archiver.NewToolEngine(tools),
		native: archiver.NewNativeEngine(),
		logger: logger,
	}
}

// buildEnv carries the per-run directories through the build steps.
type buildEnv struct {
	staging    *staging.Tree
	scratchDir string
	outputDir  string
}

// Run executes the full pipeline into outputDir and returns the
// manifest that was written there.
func (p *Pipeline) Run(ctx context.Context, outputDir string) (*manifest.Manifest, error) {
	// Tool invocations run with the staging or scratch directory as
	// their working directory, so the output path they receive must
	// not be interpreted relative to those.
	outputDir, err := filepath.Abs(outputDir)
	if err != nil {
		return nil, fmt.Errorf("resolving output directory: %w", err)
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	p.logger.Info("staging source tree", "dir", outputDir)
	tree, err := staging.Build(filepath.Join(outputDir, stagingDirName), staging.Params{
		Seed:       p.config.Seed,
		BinarySize: p.config.BinarySizeKB * 1024,
		LargeSize:  p.config.LargeSizeMB * 1024 * 1024,
	})
	if err != nil {
		return nil, err
	}

	env := buildEnv{
		staging:    tree,
		scratchDir: filepath.Join(outputDir, scratchDirName),
		outputDir:  outputDir,
	}
	if err := os.MkdirAll(env.scratchDir, 0755); err != nil {
		return nil, fmt.Errorf("creating scratch directory: %w", err)
	}

	document := &manifest.Manifest{
		Command:      "archive-corpus " + outputDir,
		OutputDir:    outputDir,
		StagedLayout: tree.Layout(),
	}

	for _, step := range p.steps() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := step.build(ctx, p, env); err != nil {
			return nil, fmt.Errorf("building %s: %w", step.filename, err)
		}

		descriptor, err := p.describe(env.outputDir, step)
		if err != nil {
			return nil, err
		}
		document.Descriptors = append(document.Descriptors, descriptor)
		p.logger.Info("built artifact",
			"name", step.filename, "family", string(step.family), "size", descriptor.Size)
	}

	if err := document.Write(); err != nil {
		return nil, err
	}
	p.logger.Info("wrote manifest", "artifacts", len(document.Descriptors))

	if !p.config.KeepStaging {
		if err := p.cleanup(env); err != nil {
			return nil, err
		}
	}

	return document, nil
}

// describe stats and hashes a finished artifact into its manifest
// descriptor.
func (p *Pipeline) describe(outputDir string, step buildStep) (manifest.Descriptor, error) {
	path := filepath.Join(outputDir, step.filename)
	info, err := os.Stat(path)
	if err != nil {
		return manifest.Descriptor{}, fmt.Errorf("artifact %s was not produced: %w", step.filename, err)
	}
	digest, err := binhash.HashFile(path)
	if err != nil {
		return manifest.Descriptor{}, err
	}

	descriptor := manifest.Descriptor{
		Filename:    step.filename,
		Family:      string(step.family),
		Description: step.description,
		Size:        info.Size(),
		Digest:      digest.String(),
	}
	if step.encrypted {
		descriptor.Password = p.config.Password
	}
	return descriptor, nil
}

// cleanup removes the staged tree and the scratch directory, leaving
// only final artifacts and the manifest. It runs only after the
// manifest was written successfully.
func (p *Pipeline) cleanup(env buildEnv) error {
	p.logger.Info("cleaning up intermediate directories")
	if err := env.staging.Remove(); err != nil {
		return err
	}
	if err := os.RemoveAll(env.scratchDir); err != nil {
		return fmt.Errorf("removing scratch directory: %w", err)
	}
	return nil
}

// Engine dispatch: with EngineNative, supported families build
// in-process and the rest fall back to the external tool. With
// EngineTool (the default) everything shells out.

func (p *Pipeline) zip(ctx context.Context, options archiver.ZipOptions, sourceDir, outputPath string) error {
	if p.config.Engine == config.EngineNative {
		err := p.native.Zip(ctx, options, sourceDir, outputPath)
		if !errors.Is(err, archiver.ErrUnsupported) {
			return err
		}
	}
	return p.tool.Zip(ctx, options, sourceDir, outputPath)
}

func (p *Pipeline) zipDelete(ctx context.Context, archivePath, member string) error {
	if p.config.Engine == config.EngineNative {
		return p.native.ZipDelete(ctx, archivePath, member)
	}
	return p.tool.ZipDelete(ctx, archivePath, member)
}

func (p *Pipeline) tar(ctx context.Context, codec archiver.Codec, sourceDir, outputPath string) error {
	if p.config.Engine == config.EngineNative {
		err := p.native.Tar(ctx, codec, sourceDir, outputPath)
		if !errors.Is(err, archiver.ErrUnsupported) {
			return err
		}
	}
	return p.tool.Tar(ctx, codec, sourceDir, outputPath)
}

func (p *Pipeline) compressFile(ctx context.Context, codec archiver.Codec, sourceDir, sourceFile, outputPath string) error {
	if p.config.Engine == config.EngineNative {
		err := p.native.CompressFile(ctx, codec, sourceDir, sourceFile, outputPath)
		if !errors.Is(err, archiver.ErrUnsupported) {
			return err
		}
	}
	return p.tool.CompressFile(ctx, codec, sourceDir, sourceFile, outputPath)
}

func (p *Pipeline) sevenZip(ctx context.Context, sourceDir, outputPath string) error {
	return p.tool.SevenZip(ctx, sourceDir, outputPath)
}

func (p *Pipeline) ar(ctx context.Context, sourceDir string, files []string, outputPath string) error {
	return p.tool.Ar(ctx, sourceDir, files, outputPath)
}
