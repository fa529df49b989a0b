// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package binhash computes BLAKE3 digests of generated artifacts. The
// digests appear in the corpus manifest so consumers can tell whether
// two runs produced byte-identical archives (they usually do not —
// compressed output varies with tool versions and the pseudo-random
// payload seed).
package binhash

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/zeebo/blake3"
)

// Digest is a 32-byte BLAKE3 digest.
type Digest [32]byte

// String returns the hex encoding of the digest.
func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// HashFile computes the BLAKE3 digest of the file at path. The file is
// streamed through the hash function (via io.Copy) to keep memory
// usage constant regardless of file size — the bomb-candidate input
// runs to tens of megabytes.
func HashFile(path string) (Digest, error) {
	file, err := os.Open(path)
	if err != nil {
		return Digest{}, fmt.Errorf("opening %s for hashing: %w", path, err)
	}
	defer file.Close()

	hasher := blake3.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return Digest{}, fmt.Errorf("hashing %s: %w", path, err)
	}

	var digest Digest
	copy(digest[:], hasher.Sum(nil))
	return digest, nil
}

// HashBytes computes the BLAKE3 digest of data in memory.
func HashBytes(data []byte) Digest {
	return Digest(blake3.Sum256(data))
}
