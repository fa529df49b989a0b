// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package corpus

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/bureau-foundation/archive-corpus/lib/archiver"
)

// buildStep is one artifact specification: what to call it, how to
// group it, and how to build it. The manifest derives from the steps
// that actually executed, in this order.
type buildStep struct {
	filename    string
	family      archiver.Family
	description string
	encrypted   bool
	build       func(ctx context.Context, p *Pipeline, env buildEnv) error
}

// steps returns the ordered artifact specifications for one run. The
// order is load-bearing: nesting steps consume artifacts produced by
// earlier steps (basic.zip and archive.tar.gz), so they come after
// the single-format builders.
func (p *Pipeline) steps() []buildStep {
	var steps []buildStep

	// ZIP variants over the full staged tree. They differ only by
	// compression level and password.
	zipVariants := []struct {
		filename    string
		description string
		options     archiver.ZipOptions
		encrypted   bool
	}{
		{"basic.zip", "full staged tree, default compression", archiver.ZipOptions{}, false},
		{"no-compression.zip", "full staged tree, store only (no compression)", archiver.ZipOptions{Level: archiver.LevelStore}, false},
		{"max-compression.zip", "full staged tree, maximum compression", archiver.ZipOptions{Level: archiver.LevelMax}, false},
		{"encrypted.zip", "full staged tree, ZipCrypto password protection", archiver.ZipOptions{Password: p.config.Password}, true},
	}
	for _, variant := range zipVariants {
		options := variant.options
		steps = append(steps, buildStep{
			filename:    variant.filename,
			family:      archiver.FamilyZip,
			description: variant.description,
			encrypted:   variant.encrypted,
			build: func(ctx context.Context, p *Pipeline, env buildEnv) error {
				return p.zip(ctx, options, env.staging.Root, filepath.Join(env.outputDir, variant.filename))
			},
		})
	}

	steps = append(steps, buildStep{
		filename:    "archive.tar",
		family:      archiver.FamilyTar,
		description: "full staged tree, uncompressed tar",
		build: func(ctx context.Context, p *Pipeline, env buildEnv) error {
			return p.tar(ctx, archiver.CodecNone, env.staging.Root, filepath.Join(env.outputDir, "archive.tar"))
		},
	})

	// Tar plus codec. Each codec has a canonical extension and at
	// most one historical alternate; both are distinct artifacts over
	// identical inputs, never aliases.
	tarVariants := []struct {
		filename string
		codec    archiver.Codec
		note     string
	}{
		{"archive.tar.gz", archiver.CodecGzip, "canonical extension"},
		{"archive.tgz", archiver.CodecGzip, "alternate extension"},
		{"archive.tar.bz2", archiver.CodecBzip2, "canonical extension"},
		{"archive.tbz2", archiver.CodecBzip2, "alternate extension"},
		{"archive.tar.xz", archiver.CodecXz, "canonical extension"},
		{"archive.txz", archiver.CodecXz, "alternate extension"},
		{"archive.tar.zst", archiver.CodecZstd, "canonical extension"},
	}
	for _, variant := range tarVariants {
		steps = append(steps, buildStep{
			filename:    variant.filename,
			family:      archiver.FamilyTarCodec,
			description: fmt.Sprintf("full staged tree, tar + %s (%s)", variant.codec, variant.note),
			build: func(ctx context.Context, p *Pipeline, env buildEnv) error {
				return p.tar(ctx, variant.codec, env.staging.Root, filepath.Join(env.outputDir, variant.filename))
			},
		})
	}

	// Single-file codecs over hello.txt.
	for _, codec := range []archiver.Codec{
		archiver.CodecGzip, archiver.CodecBzip2, archiver.CodecXz,
		archiver.CodecZstd, archiver.CodecLz4,
	} {
		filename := "hello.txt." + codecExtension(codec)
		steps = append(steps, buildStep{
			filename:    filename,
			family:      archiver.FamilySingleFile,
			description: fmt.Sprintf("hello.txt compressed with %s", codec),
			build: func(ctx context.Context, p *Pipeline, env buildEnv) error {
				return p.compressFile(ctx, codec, env.staging.Root, "hello.txt", filepath.Join(env.outputDir, filename))
			},
		})
	}

	steps = append(steps,
		buildStep{
			filename:    "archive.ar",
			family:      archiver.FamilyAr,
			description: "staged regular files (ar has no directory entries)",
			build: func(ctx context.Context, p *Pipeline, env buildEnv) error {
				return p.ar(ctx, env.staging.Root, env.staging.Files(), filepath.Join(env.outputDir, "archive.ar"))
			},
		},
		buildStep{
			filename:    "archive.7z",
			family:      archiver.FamilySevenZip,
			description: "full staged tree, 7-Zip default settings",
			build: func(ctx context.Context, p *Pipeline, env buildEnv) error {
				return p.sevenZip(ctx, env.staging.Root, filepath.Join(env.outputDir, "archive.7z"))
			},
		},
	)

	// Nesting composites.
	steps = append(steps,
		buildStep{
			filename:    "nested.zip",
			family:      archiver.FamilyZip,
			description: "ZIP containing basic.zip and archive.tar.gz",
			build: func(ctx context.Context, p *Pipeline, env buildEnv) error {
				sourceDir, err := shallowNestSources(env)
				if err != nil {
					return err
				}
				return p.zip(ctx, archiver.ZipOptions{}, sourceDir, filepath.Join(env.outputDir, "nested.zip"))
			},
		},
		buildStep{
			filename:    "nested.tar.gz",
			family:      archiver.FamilyTarCodec,
			description: "tar.gz containing basic.zip and archive.tar.gz",
			build: func(ctx context.Context, p *Pipeline, env buildEnv) error {
				sourceDir, err := shallowNestSources(env)
				if err != nil {
					return err
				}
				return p.tar(ctx, archiver.CodecGzip, sourceDir, filepath.Join(env.outputDir, "nested.tar.gz"))
			},
		},
		buildStep{
			filename:    "deeply-nested.zip",
			family:      archiver.FamilyZip,
			description: "three ZIP levels, one plain file plus the next archive at each",
			build:       buildDeeplyNested,
		},
	)

	// Edge cases.
	steps = append(steps,
		buildStep{
			filename:    "empty.zip",
			family:      archiver.FamilyZip,
			description: "structurally valid archive with zero members",
			build:       buildEmptyZip,
		},
		buildStep{
			filename:    "empty-dirs.zip",
			family:      archiver.FamilyZip,
			description: "only empty directory entries, no files",
			build:       buildEmptyDirsZip,
		},
		buildStep{
			filename:    "special-chars.zip",
			family:      archiver.FamilyZip,
			description: "filenames with whitespace and non-ASCII characters",
			build:       buildSpecialCharsZip,
		},
		buildStep{
			filename:    "potential-bomb.zip",
			family:      archiver.FamilyZip,
			description: "highly compressible uniform payload at maximum compression",
			build:       buildBombCandidate,
		},
	)

	return steps
}

// codecExtension maps a codec to its single-file artifact extension.
func codecExtension(codec archiver.Codec) string {
	switch codec {
	case archiver.CodecGzip:
		return "gz"
	case archiver.CodecBzip2:
		return "bz2"
	case archiver.CodecXz:
		return "xz"
	case archiver.CodecZstd:
		return "zst"
	case archiver.CodecLz4:
		return "lz4"
	}
	return string(codec)
}

// shallowNestSources populates (once) and returns the scratch
// directory holding copies of two already-built artifacts: one
// ZIP-family, one tar+codec. Both shallow composites archive the same
// directory.
func shallowNestSources(env buildEnv) (string, error) {
	sourceDir := filepath.Join(env.scratchDir, "nested-src")
	if _, err := os.Stat(sourceDir); err == nil {
		return sourceDir, nil
	}
	if err := os.MkdirAll(sourceDir, 0755); err != nil {
		return "", fmt.Errorf("creating nesting scratch: %w", err)
	}
	for _, name := range []string{"basic.zip", "archive.tar.gz"} {
		if err := copyFile(filepath.Join(env.outputDir, name), filepath.Join(sourceDir, name)); err != nil {
			return "", err
		}
	}
	return sourceDir, nil
}

// buildDeeplyNested builds the three-level ZIP composite, innermost
// first. Each level's archive is complete and valid before it is
// copied into the next level's source directory.
func buildDeeplyNested(ctx context.Context, p *Pipeline, env buildEnv) error {
	deepDir := filepath.Join(env.scratchDir, "deep")

	// Level 3: one plain file.
	level3Dir := filepath.Join(deepDir, "level3")
	if err := writeTree(level3Dir, map[string][]byte{
		"level3.txt": []byte("deepest level\n"),
	}); err != nil {
		return err
	}
	level3Zip := filepath.Join(deepDir, "level3.zip")
	if err := p.zip(ctx, archiver.ZipOptions{}, level3Dir, level3Zip); err != nil {
		return err
	}

	// Level 2: one plain file plus the level-3 archive.
	level2Dir := filepath.Join(deepDir, "level2")
	if err := writeTree(level2Dir, map[string][]byte{
		"level2.txt": []byte("middle level\n"),
	}); err != nil {
		return err
	}
	if err := copyFile(level3Zip, filepath.Join(level2Dir, "level3.zip")); err != nil {
		return err
	}
	level2Zip := filepath.Join(deepDir, "level2.zip")
	if err := p.zip(ctx, archiver.ZipOptions{}, level2Dir, level2Zip); err != nil {
		return err
	}

	// Level 1, the delivered artifact.
	level1Dir := filepath.Join(deepDir, "level1")
	if err := writeTree(level1Dir, map[string][]byte{
		"level1.txt": []byte("outer level\n"),
	}); err != nil {
		return err
	}
	if err := copyFile(level2Zip, filepath.Join(level1Dir, "level2.zip")); err != nil {
		return err
	}
	return p.zip(ctx, archiver.ZipOptions{}, level1Dir, filepath.Join(env.outputDir, "deeply-nested.zip"))
}

// buildEmptyZip creates the zero-member archive by archiving a
// placeholder and then deleting it. Archiving an empty directory
// outright is rejected by the zip tool ("nothing to do"), and a
// hand-written zero-entry file risks malformed central-directory
// framing; add-then-delete leaves framing the tool itself produced.
func buildEmptyZip(ctx context.Context, p *Pipeline, env buildEnv) error {
	workDir := filepath.Join(env.scratchDir, "empty-work")
	if err := writeTree(workDir, map[string][]byte{
		"placeholder.txt": []byte("to be removed\n"),
	}); err != nil {
		return err
	}
	outputPath := filepath.Join(env.outputDir, "empty.zip")
	if err := p.zip(ctx, archiver.ZipOptions{}, workDir, outputPath); err != nil {
		return err
	}
	return p.zipDelete(ctx, outputPath, "placeholder.txt")
}

// buildEmptyDirsZip archives a small tree containing only empty
// directories.
func buildEmptyDirsZip(ctx context.Context, p *Pipeline, env buildEnv) error {
	sourceDir := filepath.Join(env.scratchDir, "empty-dirs")
	for _, dir := range []string{"alpha", "beta/gamma"} {
		if err := os.MkdirAll(filepath.Join(sourceDir, filepath.FromSlash(dir)), 0755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	return p.zip(ctx, archiver.ZipOptions{}, sourceDir, filepath.Join(env.outputDir, "empty-dirs.zip"))
}

// buildSpecialCharsZip archives files whose names carry whitespace
// and non-ASCII characters. The names must survive pack/unpack
// byte-for-byte.
func buildSpecialCharsZip(ctx context.Context, p *Pipeline, env buildEnv) error {
	sourceDir := filepath.Join(env.scratchDir, "special-chars")
	if err := writeTree(sourceDir, map[string][]byte{
		"file with spaces.txt": []byte("spaces in the name\n"),
		"ümlaut.txt":           []byte("non-ASCII name\n"),
		"日本語.txt":              []byte("multi-byte name\n"),
	}); err != nil {
		return err
	}
	return p.zip(ctx, archiver.ZipOptions{}, sourceDir, filepath.Join(env.outputDir, "special-chars.zip"))
}

// buildBombCandidate writes a uniform-byte input (maximally
// compressible) and archives it at maximum compression, producing an
// extreme compressed:decompressed ratio. The raw input lives in
// scratch and is removed by cleanup.
func buildBombCandidate(ctx context.Context, p *Pipeline, env buildEnv) error {
	sourceDir := filepath.Join(env.scratchDir, "bomb")
	if err := os.MkdirAll(sourceDir, 0755); err != nil {
		return fmt.Errorf("creating bomb scratch: %w", err)
	}

	inputPath := filepath.Join(sourceDir, "huge-uniform.bin")
	input, err := os.Create(inputPath)
	if err != nil {
		return fmt.Errorf("creating bomb input: %w", err)
	}
	defer input.Close()

	chunk := bytes.Repeat([]byte{'A'}, 1024*1024)
	for range p.config.BombSizeMB {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := input.Write(chunk); err != nil {
			return fmt.Errorf("writing bomb input: %w", err)
		}
	}
	if err := input.Close(); err != nil {
		return err
	}

	return p.zip(ctx, archiver.ZipOptions{Level: archiver.LevelMax}, sourceDir,
		filepath.Join(env.outputDir, "potential-bomb.zip"))
}

// writeTree creates dir and populates it with the given relative
// path → content map.
func writeTree(dir string, files map[string][]byte) error {
	for path, content := range files {
		full := filepath.Join(dir, filepath.FromSlash(path))
		if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
			return fmt.Errorf("creating %s: %w", filepath.Dir(full), err)
		}
		if err := os.WriteFile(full, content, 0644); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
	}
	return nil
}

// copyFile copies src to dst.
func copyFile(src, dst string) error {
	source, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening %s: %w", src, err)
	}
	defer source.Close()

	destination, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("creating %s: %w", dst, err)
	}
	defer destination.Close()

	if _, err := io.Copy(destination, source); err != nil {
		return fmt.Errorf("copying %s: %w", src, err)
	}
	return destination.Close()
}
