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

	"github.com/bureau-foundation/archive-corpus/lib/testutil"
	"github.com/bureau-foundation/archive-corpus/lib/toolchain"
)

// toolEngine resolves the named tools or skips the test.
func toolEngine(t *testing.T, names ...string) *ToolEngine {
	t.Helper()
	testutil.RequireTools(t, names...)
	set, err := toolchain.Resolve(names...)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	return NewToolEngine(set)
}

func TestToolZipRoundtrip(t *testing.T) {
	t.Parallel()

	engine := toolEngine(t, "zip")
	source := sourceTree(t)
	outputPath := filepath.Join(t.TempDir(), "basic.zip")

	if err := engine.Zip(context.Background(), ZipOptions{}, source, outputPath); err != nil {
		t.Fatalf("Zip: %v", err)
	}

	names := zipNames(t, outputPath)
	for _, want := range []string{"hello.txt", "sub/inner.txt", "empty-dir/"} {
		if !names[want] {
			t.Errorf("zip missing member %q (have %v)", want, names)
		}
	}
}

func TestToolZipEncrypted(t *testing.T) {
	t.Parallel()

	engine := toolEngine(t, "zip")
	source := sourceTree(t)
	outputPath := filepath.Join(t.TempDir(), "encrypted.zip")

	err := engine.Zip(context.Background(), ZipOptions{Password: "secret"}, source, outputPath)
	if err != nil {
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
		// Bit 0 of the general purpose flags marks ZipCrypto
		// encryption.
		if file.Flags&0x1 == 0 {
			t.Errorf("member %s is not encrypted", file.Name)
		}
	}
}

func TestToolZipDeleteProducesEmptyArchive(t *testing.T) {
	t.Parallel()

	engine := toolEngine(t, "zip")
	scratch := t.TempDir()
	testutil.WriteFile(t, filepath.Join(scratch, "placeholder.txt"), []byte("x"))
	outputPath := filepath.Join(t.TempDir(), "empty.zip")

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

func TestToolTarGzipRoundtrip(t *testing.T) {
	t.Parallel()

	engine := toolEngine(t, "tar", "gzip")
	source := sourceTree(t)
	outputPath := filepath.Join(t.TempDir(), "archive.tar.gz")

	if err := engine.Tar(context.Background(), CodecGzip, source, outputPath); err != nil {
		t.Fatalf("Tar: %v", err)
	}

	raw, err := os.ReadFile(outputPath)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	decoded, err := gzip.NewReader(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("gzip.NewReader: %v", err)
	}

	found := false
	tarReader := tar.NewReader(decoded)
	for {
		header, err := tarReader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("tar.Next: %v", err)
		}
		// GNU tar prefixes members with "./" when archiving ".".
		if header.Name == "./hello.txt" || header.Name == "hello.txt" {
			found = true
		}
	}
	if !found {
		t.Error("tar.gz missing hello.txt")
	}
}

func TestToolCompressFileGzip(t *testing.T) {
	t.Parallel()

	engine := toolEngine(t, "gzip")
	source := sourceTree(t)
	outputPath := filepath.Join(t.TempDir(), "hello.txt.gz")

	err := engine.CompressFile(context.Background(), CodecGzip, source, "hello.txt", outputPath)
	if err != nil {
		t.Fatalf("CompressFile: %v", err)
	}

	raw, err := os.ReadFile(outputPath)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	decoded, err := gzip.NewReader(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("gzip.NewReader: %v", err)
	}
	content, err := io.ReadAll(decoded)
	if err != nil {
		t.Fatalf("decompressing: %v", err)
	}
	if string(content) != "Hello, World!\n" {
		t.Errorf("roundtrip content = %q", content)
	}
}

func TestToolArMagic(t *testing.T) {
	t.Parallel()

	engine := toolEngine(t, "ar")
	source := sourceTree(t)
	outputPath := filepath.Join(t.TempDir(), "archive.ar")

	err := engine.Ar(context.Background(), source, []string{"hello.txt", "sub/inner.txt"}, outputPath)
	if err != nil {
		t.Fatalf("Ar: %v", err)
	}

	raw, err := os.ReadFile(outputPath)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !bytes.HasPrefix(raw, []byte("!<arch>\n")) {
		t.Errorf("ar output missing global header, got %q", raw[:min(16, len(raw))])
	}
}

func TestToolSevenZipMagic(t *testing.T) {
	t.Parallel()

	engine := toolEngine(t, "7z")
	source := sourceTree(t)
	outputPath := filepath.Join(t.TempDir(), "archive.7z")

	if err := engine.SevenZip(context.Background(), source, outputPath); err != nil {
		t.Fatalf("SevenZip: %v", err)
	}

	raw, err := os.ReadFile(outputPath)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !bytes.HasPrefix(raw, []byte{0x37, 0x7A, 0xBC, 0xAF, 0x27, 0x1C}) {
		t.Error("7z output missing signature")
	}
}

func TestToolFailureSurfacesToolError(t *testing.T) {
	t.Parallel()

	engine := toolEngine(t, "zip")
	// An output path inside a directory that does not exist makes zip
	// exit non-zero.
	err := engine.Zip(context.Background(), ZipOptions{}, sourceTree(t),
		filepath.Join(t.TempDir(), "no-such-dir", "broken.zip"))
	if err == nil {
		t.Fatal("Zip into missing directory should fail")
	}
	var toolErr *toolchain.ToolError
	if !errors.As(err, &toolErr) {
		t.Fatalf("error type = %T, want *toolchain.ToolError", err)
	}
	if toolErr.ExitCode() <= 0 {
		t.Errorf("ExitCode = %d, want positive", toolErr.ExitCode())
	}
}
