// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package manifest renders the corpus description document. The
// manifest is derived purely from the descriptors the pipeline
// actually executed — there is no static artifact list to drift out
// of sync with the builders. Rendering is a pure function of the
// Manifest value, so its content is testable without running any
// archiver.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"
)

// Filename is the fixed top-level name of the manifest document
// inside the output directory.
const Filename = "MANIFEST.md"

// Descriptor describes one produced artifact.
type Descriptor struct {
	// Filename is the artifact's name within the output directory.
	Filename string
	// Family is the format-family label used for grouping.
	Family string
	// Description is the human-readable one-liner.
	Description string
	// Size is the artifact's byte size.
	Size int64
	// Digest is the hex BLAKE3 digest of the artifact bytes.
	Digest string
	// Password is the extraction password for encrypted artifacts,
	// recorded out-of-band here because it is never stored inside the
	// archive. Empty for unencrypted artifacts.
	Password string
}

// Manifest is the full corpus description for one run.
type Manifest struct {
	// Command is the literal regeneration command.
	Command string
	// OutputDir is the directory the corpus was written to.
	OutputDir string
	// StagedLayout lists the staged source tree, one line per entry.
	StagedLayout []string
	// Descriptors lists every produced artifact in execution order.
	Descriptors []Descriptor
}

// group is one format-family section of the rendered document.
type group struct {
	Family      string
	Descriptors []Descriptor
}

// groups partitions descriptors by family, preserving execution order
// both across and within groups.
func (m *Manifest) groups() []group {
	index := make(map[string]int)
	var result []group
	for _, descriptor := range m.Descriptors {
		position, seen := index[descriptor.Family]
		if !seen {
			position = len(result)
			index[descriptor.Family] = position
			result = append(result, group{Family: descriptor.Family})
		}
		result[position].Descriptors = append(result[position].Descriptors, descriptor)
	}
	return result
}

var documentTemplate = template.Must(template.New("manifest").Parse(`# Archive Corpus Manifest

Generated test archives for exercising archive extraction. Every
artifact below was produced by this run; the listing is derived from
the executed build specs, not maintained by hand.

## Artifacts
{{range .Groups}}
### {{.Family}}
{{range .Descriptors}}
- ` + "`{{.Filename}}`" + ` — {{.Description}} ({{.Size}} bytes, blake3 {{printf "%.16s" .Digest}}…){{if .Password}}
  password: ` + "`{{.Password}}`" + `{{end}}{{end}}
{{end}}
## Staged source tree

All whole-tree archives pack this layout:

{{range .StagedLayout}}    {{.}}
{{end}}
## Regeneration

    {{.Command}}

Pass a directory argument to write the corpus elsewhere. The set of
filenames and their logical content is stable across runs; exact
compressed bytes vary with tool versions and the configured seed.
`))

// Render produces the manifest document.
func Render(m *Manifest) ([]byte, error) {
	var output strings.Builder
	data := struct {
		*Manifest
		Groups []group
	}{Manifest: m, Groups: m.groups()}
	if err := documentTemplate.Execute(&output, data); err != nil {
		return nil, fmt.Errorf("rendering manifest: %w", err)
	}
	return []byte(output.String()), nil
}

// Write renders the manifest and writes it atomically under
// m.OutputDir: the document is staged to a temporary file and renamed
// into place, so a partially written manifest is never observable.
func (m *Manifest) Write() error {
	document, err := Render(m)
	if err != nil {
		return err
	}
	path := filepath.Join(m.OutputDir, Filename)
	temporary := path + ".tmp"
	if err := os.WriteFile(temporary, document, 0644); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	if err := os.Rename(temporary, path); err != nil {
		return fmt.Errorf("publishing manifest: %w", err)
	}
	return nil
}
