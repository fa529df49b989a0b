// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package archiver

import (
	"archive/tar"
	"archive/zip"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// NativeEngine builds a subset of the format families in-process:
// ZIP (unencrypted), tar with no codec, gzip, or zstd, and the gzip,
// zstd, and lz4 single-file codecs. Everything else — encrypted ZIP,
// bzip2, xz, 7z, ar — returns ErrUnsupported and stays with the
// external tools, which are the only compressors for those formats in
// our dependency set.
//
// The native engine exists so the corpus can be generated on hosts
// without the full utility set, and so tests can verify construction
// logic without shelling out.
type NativeEngine struct{}

// NewNativeEngine returns an in-process engine.
func NewNativeEngine() *NativeEngine {
	return &NativeEngine{}
}

// Zip writes a ZIP of sourceDir's contents using archive/zip, with
// Deflate provided by klauspost/compress at the requested level.
// Password-protected construction is unsupported: ZipCrypto is not
// implemented by any library we depend on, and the encrypted artifact
// exists precisely to match what the external zip tool emits.
func (e *NativeEngine) Zip(ctx context.Context, options ZipOptions, sourceDir, outputPath string) error {
	if options.Password != "" {
		return fmt.Errorf("native zip with password: %w", ErrUnsupported)
	}

	output, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("creating %s: %w", outputPath, err)
	}
	defer output.Close()

	writer := zip.NewWriter(output)
	compressionLevel := flate.DefaultCompression
	if options.Level == LevelMax {
		compressionLevel = flate.BestCompression
	}
	writer.RegisterCompressor(zip.Deflate, func(w io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(w, compressionLevel)
	})

	err = filepath.WalkDir(sourceDir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		relative, err := filepath.Rel(sourceDir, path)
		if err != nil {
			return err
		}
		if relative == "." {
			return nil
		}
		name := filepath.ToSlash(relative)

		if entry.IsDir() {
			_, err := writer.Create(name + "/")
			return err
		}

		header := &zip.FileHeader{Name: name, Method: zip.Deflate}
		if options.Level == LevelStore {
			header.Method = zip.Store
		}
		member, err := writer.CreateHeader(header)
		if err != nil {
			return err
		}
		file, err := os.Open(path)
		if err != nil {
			return err
		}
		defer file.Close()
		_, err = io.Copy(member, file)
		return err
	})
	if err != nil {
		return fmt.Errorf("zip %s: %w", sourceDir, err)
	}

	if err := writer.Close(); err != nil {
		return fmt.Errorf("finalizing %s: %w", outputPath, err)
	}
	return output.Close()
}

// ZipDelete rewrites the archive without the named member. The
// central directory is rebuilt by archive/zip, so the result is a
// structurally complete ZIP even when no members remain.
func (e *NativeEngine) ZipDelete(ctx context.Context, archivePath, member string) error {
	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("opening %s: %w", archivePath, err)
	}
	defer reader.Close()

	rewritten := archivePath + ".rewrite"
	output, err := os.Create(rewritten)
	if err != nil {
		return fmt.Errorf("creating %s: %w", rewritten, err)
	}
	defer output.Close()

	writer := zip.NewWriter(output)
	found := false
	for _, file := range reader.File {
		if err := ctx.Err(); err != nil {
			return err
		}
		if file.Name == member {
			found = true
			continue
		}
		if err := writer.Copy(file); err != nil {
			return fmt.Errorf("copying %s: %w", file.Name, err)
		}
	}
	if !found {
		return fmt.Errorf("member %q not found in %s", member, archivePath)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("finalizing %s: %w", rewritten, err)
	}
	if err := output.Close(); err != nil {
		return err
	}
	if err := reader.Close(); err != nil {
		return err
	}
	return os.Rename(rewritten, archivePath)
}

// Tar writes a tar of sourceDir's contents, layered with no codec,
// gzip (klauspost/compress), or zstd (klauspost/compress).
func (e *NativeEngine) Tar(ctx context.Context, codec Codec, sourceDir, outputPath string) error {
	output, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("creating %s: %w", outputPath, err)
	}
	defer output.Close()

	var compressed io.WriteCloser
	switch codec {
	case CodecNone:
		compressed = output
	case CodecGzip:
		compressed = gzip.NewWriter(output)
	case CodecZstd:
		zstdWriter, err := zstd.NewWriter(output)
		if err != nil {
			return fmt.Errorf("zstd writer: %w", err)
		}
		compressed = zstdWriter
	default:
		return fmt.Errorf("native tar with codec %q: %w", codec, ErrUnsupported)
	}

	writer := tar.NewWriter(compressed)
	err = filepath.WalkDir(sourceDir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		relative, err := filepath.Rel(sourceDir, path)
		if err != nil {
			return err
		}
		if relative == "." {
			return nil
		}
		info, err := entry.Info()
		if err != nil {
			return err
		}
		header, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		header.Name = filepath.ToSlash(relative)
		if entry.IsDir() {
			header.Name += "/"
		}
		if err := writer.WriteHeader(header); err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}
		file, err := os.Open(path)
		if err != nil {
			return err
		}
		defer file.Close()
		_, err = io.Copy(writer, file)
		return err
	})
	if err != nil {
		return fmt.Errorf("tar %s: %w", sourceDir, err)
	}

	if err := writer.Close(); err != nil {
		return fmt.Errorf("finalizing tar: %w", err)
	}
	if compressed != output {
		if err := compressed.Close(); err != nil {
			return fmt.Errorf("finalizing %s codec: %w", codec, err)
		}
	}
	return output.Close()
}

// CompressFile compresses one file with gzip, zstd, or lz4. The lz4
// output uses the frame format, interchangeable with the lz4 CLI.
func (e *NativeEngine) CompressFile(ctx context.Context, codec Codec, sourceDir, sourceFile, outputPath string) error {
	input, err := os.Open(filepath.Join(sourceDir, sourceFile))
	if err != nil {
		return fmt.Errorf("opening %s: %w", sourceFile, err)
	}
	defer input.Close()

	output, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("creating %s: %w", outputPath, err)
	}
	defer output.Close()

	var compressed io.WriteCloser
	switch codec {
	case CodecGzip:
		compressed = gzip.NewWriter(output)
	case CodecZstd:
		zstdWriter, err := zstd.NewWriter(output)
		if err != nil {
			return fmt.Errorf("zstd writer: %w", err)
		}
		compressed = zstdWriter
	case CodecLz4:
		compressed = lz4.NewWriter(output)
	default:
		return fmt.Errorf("native compress with codec %q: %w", codec, ErrUnsupported)
	}

	if _, err := io.Copy(compressed, input); err != nil {
		return fmt.Errorf("compressing %s: %w", sourceFile, err)
	}
	if err := compressed.Close(); err != nil {
		return fmt.Errorf("finalizing %s codec: %w", codec, err)
	}
	return output.Close()
}

// SevenZip is unsupported: no 7z encoder exists in our dependency set.
func (e *NativeEngine) SevenZip(ctx context.Context, sourceDir, outputPath string) error {
	return fmt.Errorf("native 7z: %w", ErrUnsupported)
}

// Ar is unsupported: ar construction stays with binutils ar.
func (e *NativeEngine) Ar(ctx context.Context, sourceDir string, files []string, outputPath string) error {
	return fmt.Errorf("native ar: %w", ErrUnsupported)
}
