// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package archiver

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/bureau-foundation/archive-corpus/lib/toolchain"
)

// ToolEngine builds artifacts by invoking the standard external
// utility for each format family, using only documented flags. This
// is the default engine: artifacts must be openable by the stock
// extractors, and the stock archivers are the most direct way to
// guarantee that.
type ToolEngine struct {
	tools *toolchain.Set
}

// NewToolEngine returns an engine backed by the given resolved tool
// set. The set must contain every name in toolchain.Required.
func NewToolEngine(tools *toolchain.Set) *ToolEngine {
	return &ToolEngine{tools: tools}
}

// Zip runs "zip -r -q" in sourceDir, archiving its full contents.
// Compression level and password map to -0/-9 and -P.
func (e *ToolEngine) Zip(ctx context.Context, options ZipOptions, sourceDir, outputPath string) error {
	args := []string{"-r", "-q"}
	switch options.Level {
	case LevelStore:
		args = append(args, "-0")
	case LevelMax:
		args = append(args, "-9")
	}
	if options.Password != "" {
		args = append(args, "-P", options.Password)
	}
	args = append(args, outputPath, ".")
	return e.tools.Get("zip").Run(ctx, sourceDir, args...)
}

// ZipDelete runs "zip -d" to remove one member from an archive.
func (e *ToolEngine) ZipDelete(ctx context.Context, archivePath, member string) error {
	dir := filepath.Dir(archivePath)
	return e.tools.Get("zip").Run(ctx, dir, "-q", "-d", archivePath, member)
}

// Tar runs tar with the codec's documented flag, targeting sourceDir
// via an explicit -C.
func (e *ToolEngine) Tar(ctx context.Context, codec Codec, sourceDir, outputPath string) error {
	var args []string
	switch codec {
	case CodecNone:
		args = []string{"-cf"}
	case CodecGzip:
		args = []string{"-czf"}
	case CodecBzip2:
		args = []string{"-cjf"}
	case CodecXz:
		args = []string{"-cJf"}
	case CodecZstd:
		args = []string{"--zstd", "-cf"}
	default:
		return fmt.Errorf("tar: unsupported codec %q", codec)
	}
	args = append(args, outputPath, "-C", sourceDir, ".")
	return e.tools.Get("tar").Run(ctx, filepath.Dir(outputPath), args...)
}

// CompressFile runs the codec's utility with -c, capturing stdout
// into outputPath. All five single-file codecs share this calling
// convention.
func (e *ToolEngine) CompressFile(ctx context.Context, codec Codec, sourceDir, sourceFile, outputPath string) error {
	var tool string
	args := []string{"-c"}
	switch codec {
	case CodecGzip:
		tool = "gzip"
	case CodecBzip2:
		tool = "bzip2"
	case CodecXz:
		tool = "xz"
	case CodecZstd:
		tool = "zstd"
		args = []string{"-q", "-c"}
	case CodecLz4:
		tool = "lz4"
		args = []string{"-q", "-c"}
	default:
		return fmt.Errorf("compress: unsupported codec %q", codec)
	}
	args = append(args, sourceFile)
	return e.tools.Get(tool).RunToFile(ctx, sourceDir, outputPath, args...)
}

// SevenZip runs "7z a" with default settings. -bd suppresses the
// progress indicator, which is the only non-default flag and affects
// output formatting only.
func (e *ToolEngine) SevenZip(ctx context.Context, sourceDir, outputPath string) error {
	return e.tools.Get("7z").Run(ctx, sourceDir, "a", "-bd", outputPath, ".")
}

// Ar runs "ar rc" over the flattened file list.
func (e *ToolEngine) Ar(ctx context.Context, sourceDir string, files []string, outputPath string) error {
	args := append([]string{"rc", outputPath}, files...)
	return e.tools.Get("ar").Run(ctx, sourceDir, args...)
}
