// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package archiver

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/bureau-foundation/archive-corpus/lib/testutil"
)

// sourceTree builds a small tree with a nested file and an empty
// directory, the two structural cases archivers must preserve.
func sourceTree(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	testutil.WriteFile(t, filepath.Join(dir, "hello.txt"), []byte("Hello, World!\n"))
	testutil.WriteFile(t, filepath.Join(dir, "sub", "inner.txt"), []byte("inner\n"))
	if err := os.Mkdir(filepath.Join(dir, "empty-dir"), 0755); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}
	return dir
}

func zipNames(t *testing.T, path string) map[string]bool {
	t.Helper()
	reader, err := zip.OpenReader(path)
	if err != nil {
		t.Fatalf("OpenReader(%s): %v", path, err)
	}
	defer reader.Close()
	names := make(map[string]bool)
	for _, file := range reader.File {
		names[file.Name] = true
	}
	return names
}

func TestNativeZipRoundtrip(t *testing.T) {
	t.Parallel()

	source := sourceTree(t)
	outputPath := filepath.Join(t.TempDir(), "basic.zip")

	engine := NewNativeEngine()
	if err := engine.Zip(context.Background(), ZipOptions{}, source, outputPath); err != nil {
		t.Fatalf("Zip: %v", err)
	}

	names := zipNames(t, outputPath)
	for _, want := range []string{"hello.txt", "sub/inner.txt", "empty-dir/"} {
		if !names[want] {
			t.Errorf("zip missing member %q (have %v)", want, names)
		}
	}

	reader, err := zip.OpenReader(outputPath)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer reader.Close()
	member, err := reader.Open("hello.txt")
	if err != nil {
		t.Fatalf("Open(hello.txt): %v", err)
	}
	content, err := io.ReadAll(member)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(content) != "Hello, World!\n" {
		t.Errorf("hello.txt content = %q", content)
	}
}

func TestNativeZipStoreMethod(t *testing.T) {
	t.Parallel()

	source := sourceTree(t)
	outputPath := filepath.Join(t.TempDir(), "no-compression.zip")

	engine := NewNativeEngine()
	if err := engine.Zip(context.Background(), ZipOptions{Level: LevelStore}, source, outputPath); err != nil {
		t.Fatalf("Zip: %v", err)
	}

	reader, err := zip.OpenReader(outputPath)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer reader.Close()
	for _, file := range reader.File {
		if file.FileInfo().IsDir() {
			continue
		}
		if file.Method != zip.Store {
			t.Errorf("member %s method = %d, want Store", file.Name, file.Method)
		}
	}
}

func TestNativeZipPasswordUnsupported(t *testing.T) {
	t.Parallel()

	engine := NewNativeEngine()
	err := engine.Zip(context.Background(), ZipOptions{Password: "secret"},
		sourceTree(t), filepath.Join(t.TempDir(), "encrypted.zip"))
	if !errors.Is(err, ErrUnsupported) {
		t.Errorf("err = %v, want ErrUnsupported", err)
	}
}

func TestNativeZipDeleteLeavesValidEmptyArchive(t *testing.T) {
	t.Parallel()

	// Build the empty archive the mandated way: add a placeholder,
	// then delete it.
	scratch := t.TempDir()
	testutil.WriteFile(t, filepath.Join(scratch, "placeholder.txt"), []byte("x"))
	outputPath := filepath.Join(t.TempDir(), "empty.zip")

	engine := NewNativeEngine()
	if err := engine.Zip(context.Background(), ZipOptions{}, scratch, outputPath); err != nil {
		t.Fatalf("Zip: %v", err)
	}
	if err := engine.ZipDelete(context.Background(), outputPath, "placeholder.txt"); err != nil {
		t.Fatalf("ZipDelete: %v", err)
	}

	reader, err := zip.OpenReader(outputPath)
	if err != nil {
		t.Fatalf("empty archive is not openable: %v", err)
	}
	defer reader.Close()
	if len(reader.File) != 0 {
		t.Errorf("empty archive has %d members, want 0", len(reader.File))
	}
}

func TestNativeZipDeleteMissingMember(t *testing.T) {
	t.Parallel()

	outputPath := filepath.Join(t.TempDir(), "a.zip")
	engine := NewNativeEngine()
	if err := engine.Zip(context.Background(), ZipOptions{}, sourceTree(t), outputPath); err != nil {
		t.Fatalf("Zip: %v", err)
	}
	if err := engine.ZipDelete(context.Background(), outputPath, "no-such-member"); err == nil {
		t.Error("deleting a missing member should fail")
	}
}

func TestNativeTarCodecs(t *testing.T) {
	t.Parallel()

	source := sourceTree(t)
	engine := NewNativeEngine()

	tests := []struct {
		codec Codec
		open  func(io.Reader) (io.Reader, error)
	}{
		{CodecNone, func(r io.Reader) (io.Reader, error) { return r, nil }},
		{CodecGzip, func(r io.Reader) (io.Reader, error) { return gzip.NewReader(r) }},
		{CodecZstd, func(r io.Reader) (io.Reader, error) { return zstd.NewReader(r) }},
	}
	for _, tt := range tests {
		t.Run(string(tt.codec)+"-codec", func(t *testing.T) {
			outputPath := filepath.Join(t.TempDir(), "archive.tar")
			if err := engine.Tar(context.Background(), tt.codec, source, outputPath); err != nil {
				t.Fatalf("Tar: %v", err)
			}

			raw, err := os.ReadFile(outputPath)
			if err != nil {
				t.Fatalf("ReadFile: %v", err)
			}
			decoded, err := tt.open(bytes.NewReader(raw))
			if err != nil {
				t.Fatalf("opening codec stream: %v", err)
			}

			names := make(map[string]bool)
			tarReader := tar.NewReader(decoded)
			for {
				header, err := tarReader.Next()
				if err == io.EOF {
					break
				}
				if err != nil {
					t.Fatalf("tar.Next: %v", err)
				}
				names[header.Name] = true
			}
			for _, want := range []string{"hello.txt", "sub/inner.txt", "empty-dir/"} {
				if !names[want] {
					t.Errorf("tar missing member %q (have %v)", want, names)
				}
			}
		})
	}
}

func TestNativeTarUnsupportedCodec(t *testing.T) {
	t.Parallel()

	engine := NewNativeEngine()
	err := engine.Tar(context.Background(), CodecBzip2, sourceTree(t),
		filepath.Join(t.TempDir(), "archive.tar.bz2"))
	if !errors.Is(err, ErrUnsupported) {
		t.Errorf("err = %v, want ErrUnsupported", err)
	}
}

func TestNativeCompressFileRoundtrip(t *testing.T) {
	t.Parallel()

	source := sourceTree(t)
	engine := NewNativeEngine()

	tests := []struct {
		codec Codec
		open  func(io.Reader) (io.Reader, error)
	}{
		{CodecGzip, func(r io.Reader) (io.Reader, error) { return gzip.NewReader(r) }},
		{CodecZstd, func(r io.Reader) (io.Reader, error) { return zstd.NewReader(r) }},
		{CodecLz4, func(r io.Reader) (io.Reader, error) { return lz4.NewReader(r), nil }},
	}
	for _, tt := range tests {
		t.Run(string(tt.codec), func(t *testing.T) {
			outputPath := filepath.Join(t.TempDir(), "hello.txt."+string(tt.codec))
			err := engine.CompressFile(context.Background(), tt.codec, source, "hello.txt", outputPath)
			if err != nil {
				t.Fatalf("CompressFile: %v", err)
			}

			raw, err := os.ReadFile(outputPath)
			if err != nil {
				t.Fatalf("ReadFile: %v", err)
			}
			decoded, err := tt.open(bytes.NewReader(raw))
			if err != nil {
				t.Fatalf("opening codec stream: %v", err)
			}
			content, err := io.ReadAll(decoded)
			if err != nil {
				t.Fatalf("decompressing: %v", err)
			}
			if string(content) != "Hello, World!\n" {
				t.Errorf("roundtrip content = %q", content)
			}
		})
	}
}

func TestNativeUnsupportedFamilies(t *testing.T) {
	t.Parallel()

	engine := NewNativeEngine()
	out := t.TempDir()
	if err := engine.SevenZip(context.Background(), sourceTree(t), filepath.Join(out, "a.7z")); !errors.Is(err, ErrUnsupported) {
		t.Errorf("SevenZip err = %v, want ErrUnsupported", err)
	}
	if err := engine.Ar(context.Background(), sourceTree(t), []string{"hello.txt"}, filepath.Join(out, "a.ar")); !errors.Is(err, ErrUnsupported) {
		t.Errorf("Ar err = %v, want ErrUnsupported", err)
	}
}
