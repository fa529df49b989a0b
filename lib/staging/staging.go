// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package staging materializes the deterministic source tree that
// every archiver in the corpus packs. The tree is built once per run,
// read by all builders, and removed by the cleanup stage. Its layout
// is fixed: small text files with known content, a multi-level nested
// directory with a file at each level, one genuinely empty directory,
// and two pseudo-random binary blobs (kilobyte- and megabyte-scale)
// for compression-timing diversity.
//
// Layout determinism is the contract: the set of paths, kinds, and
// sizes is identical for every run. The binary payload bytes are
// drawn from a PRNG seeded by the caller, so they too repeat for a
// given seed, but consumers must not depend on that — only on the
// structure.
package staging

import (
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sort"
)

// Kind classifies a staged entry.
type Kind int

const (
	// KindText is a small file with fixed literal content.
	KindText Kind = iota
	// KindBinary is a pseudo-random blob.
	KindBinary
	// KindEmptyDir is a directory with no entries.
	KindEmptyDir
)

// Entry is one path in the staged tree.
type Entry struct {
	// Path is relative to the tree root, using forward slashes.
	Path string
	// Kind classifies the entry.
	Kind Kind
	// Size is the file size in bytes; zero for directories.
	Size int64
}

// Tree is the immutable staged source tree. Archivers read from it;
// none mutates it.
type Tree struct {
	// Root is the absolute directory holding the staged content.
	Root string
	// Entries lists every staged path in creation order.
	Entries []Entry
}

// Params controls the variable parts of the staged tree.
type Params struct {
	// Seed feeds the PRNG for the binary blobs.
	Seed uint64
	// BinarySize is the size of binary.bin. Zero means 4 KiB.
	BinarySize int64
	// LargeSize is the size of large-file.bin. Zero means 5 MiB.
	LargeSize int64
}

// textFiles is the fixed literal content, keyed by relative path. A
// file at every level of the nested directory exercises deep-path
// extraction in consumers.
var textFiles = []struct {
	path    string
	content string
}{
	{"hello.txt", "Hello, World!\n"},
	{"test.txt", "This is a test file.\nIt has more than one line.\nThird line.\n"},
	{"nested/nested-1.txt", "file at nesting level 1\n"},
	{"nested/deep/nested-2.txt", "file at nesting level 2\n"},
	{"nested/deep/path/deep-file.txt", "file at the deepest level\n"},
}

// emptyDirName is the explicitly empty directory. Archive formats
// differ in whether they record it at all; the extraction library
// must reproduce it where the format can.
const emptyDirName = "empty-dir"

// Build creates the staged tree under root. The root must not already
// contain a staged tree; Build creates it with MkdirAll and fails on
// the first I/O error, which aborts the whole run.
func Build(root string, params Params) (*Tree, error) {
	if params.BinarySize == 0 {
		params.BinarySize = 4 * 1024
	}
	if params.LargeSize == 0 {
		params.LargeSize = 5 * 1024 * 1024
	}

	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("creating staging root: %w", err)
	}

	tree := &Tree{Root: root}

	for _, file := range textFiles {
		path := filepath.Join(root, filepath.FromSlash(file.path))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("creating %s: %w", filepath.Dir(path), err)
		}
		if err := os.WriteFile(path, []byte(file.content), 0644); err != nil {
			return nil, fmt.Errorf("writing %s: %w", file.path, err)
		}
		tree.Entries = append(tree.Entries, Entry{
			Path: file.path,
			Kind: KindText,
			Size: int64(len(file.content)),
		})
	}

	if err := os.Mkdir(filepath.Join(root, emptyDirName), 0755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", emptyDirName, err)
	}
	tree.Entries = append(tree.Entries, Entry{Path: emptyDirName + "/", Kind: KindEmptyDir})

	prng := rand.New(rand.NewPCG(params.Seed, params.Seed^0x9e3779b97f4a7c15))
	for _, blob := range []struct {
		path string
		size int64
	}{
		{"binary.bin", params.BinarySize},
		{"large-file.bin", params.LargeSize},
	} {
		if err := writeRandom(filepath.Join(root, blob.path), blob.size, prng); err != nil {
			return nil, err
		}
		tree.Entries = append(tree.Entries, Entry{Path: blob.path, Kind: KindBinary, Size: blob.size})
	}

	return tree, nil
}

// writeRandom fills path with size pseudo-random bytes drawn from prng.
func writeRandom(path string, size int64, prng *rand.Rand) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer file.Close()

	// Generate in 64 KiB chunks so large-file.bin does not require a
	// single allocation of its full size.
	buffer := make([]byte, 64*1024)
	remaining := size
	for remaining > 0 {
		chunk := buffer
		if remaining < int64(len(buffer)) {
			chunk = buffer[:remaining]
		}
		fillRandom(chunk, prng)
		if _, err := file.Write(chunk); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
		remaining -= int64(len(chunk))
	}
	return file.Close()
}

// fillRandom fills buffer with bytes from prng, eight at a time.
func fillRandom(buffer []byte, prng *rand.Rand) {
	i := 0
	for ; i+8 <= len(buffer); i += 8 {
		value := prng.Uint64()
		for j := range 8 {
			buffer[i+j] = byte(value >> (8 * j))
		}
	}
	if i < len(buffer) {
		value := prng.Uint64()
		for ; i < len(buffer); i++ {
			buffer[i] = byte(value)
			value >>= 8
		}
	}
}

// Files returns the relative paths of all regular files, sorted. The
// ar builder uses this to flatten the tree: ar has no directory
// entries, so it packs files only.
func (t *Tree) Files() []string {
	var files []string
	for _, entry := range t.Entries {
		if entry.Kind != KindEmptyDir {
			files = append(files, entry.Path)
		}
	}
	sort.Strings(files)
	return files
}

// Layout returns one display line per staged entry, for the manifest.
// Directories carry a trailing slash; files show their size.
func (t *Tree) Layout() []string {
	lines := make([]string, 0, len(t.Entries))
	for _, entry := range t.Entries {
		if entry.Kind == KindEmptyDir {
			lines = append(lines, entry.Path+"  (empty directory)")
			continue
		}
		lines = append(lines, fmt.Sprintf("%s  (%d bytes)", entry.Path, entry.Size))
	}
	return lines
}

// Remove deletes the staged tree from disk. Called by the cleanup
// stage after the manifest is written.
func (t *Tree) Remove() error {
	if err := os.RemoveAll(t.Root); err != nil {
		return fmt.Errorf("removing staging tree: %w", err)
	}
	return nil
}
