// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package archiver builds the individual archive artifacts of the
// corpus. Each format family is constructed through the Engine
// capability: the tool-backed engine shells out to the standard
// command-line utility for the family (the default — the point of the
// corpus is compatibility with what real extractors meet in the
// wild), while the native engine builds a subset of the families
// in-process with Go codec libraries. Callers depend only on the
// Engine interface, never on the invocation mechanism.
package archiver

import (
	"context"
	"errors"
)

// Family classifies an artifact by the archive/compression technique
// used to build it. The manifest groups artifacts by family.
type Family string

const (
	FamilyZip        Family = "zip"
	FamilyTar        Family = "tar"
	FamilyTarCodec   Family = "tar+codec"
	FamilySingleFile Family = "single-file-codec"
	FamilySevenZip   Family = "7z"
	FamilyAr         Family = "ar"
)

// Codec is a stream compression algorithm layered over tar output or
// applied to a single file.
type Codec string

const (
	CodecNone  Codec = ""
	CodecGzip  Codec = "gzip"
	CodecBzip2 Codec = "bzip2"
	CodecXz    Codec = "xz"
	CodecZstd  Codec = "zstd"
	CodecLz4   Codec = "lz4"
)

// Level selects the compression effort for ZIP construction.
type Level int

const (
	// LevelDefault uses the tool's default compression.
	LevelDefault Level = iota
	// LevelStore disables compression entirely (ZIP "store" method).
	LevelStore
	// LevelMax uses maximum compression.
	LevelMax
)

// ZipOptions parameterizes ZIP construction.
type ZipOptions struct {
	// Level selects the compression effort.
	Level Level
	// Password, when non-empty, enables ZipCrypto stream encryption.
	// The password is recorded out-of-band in the manifest, never
	// inside the archive.
	Password string
}

// ErrUnsupported is returned by an engine that cannot build the
// requested format. The pipeline falls back to the tool-backed engine
// when the native engine reports it.
var ErrUnsupported = errors.New("format not supported by this engine")

// Engine is the construction capability behind every format family.
// All methods take explicit source and output paths — engines never
// depend on the process working directory. Each call produces exactly
// one complete artifact or returns an error; partially written output
// is not valid and the run aborts.
type Engine interface {
	// Zip archives the full contents of sourceDir (including empty
	// directories) into a ZIP at outputPath.
	Zip(ctx context.Context, options ZipOptions, sourceDir, outputPath string) error

	// ZipDelete removes one member from an existing ZIP. Used to
	// produce the structurally valid empty archive: a placeholder is
	// added and then deleted, which leaves correct central-directory
	// framing that a zero-add construction would not guarantee.
	ZipDelete(ctx context.Context, archivePath, member string) error

	// Tar archives the full contents of sourceDir into a tar at
	// outputPath, layered with the given codec (CodecNone for plain
	// tar).
	Tar(ctx context.Context, codec Codec, sourceDir, outputPath string) error

	// CompressFile compresses the single file sourceFile (relative to
	// sourceDir) with the given codec into outputPath.
	CompressFile(ctx context.Context, codec Codec, sourceDir, sourceFile, outputPath string) error

	// SevenZip archives the full contents of sourceDir into a 7z
	// archive at outputPath with default settings.
	SevenZip(ctx context.Context, sourceDir, outputPath string) error

	// Ar packs the named regular files (relative to sourceDir) into a
	// Unix ar archive at outputPath. The ar format has no directory
	// entries, so callers pass a flattened file list.
	Ar(ctx context.Context, sourceDir string, files []string, outputPath string) error
}
