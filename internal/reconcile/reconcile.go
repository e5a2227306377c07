// Package reconcile verifies a destination tree against a source index
// and records the outcome in a manifest.
//
// The contract is one-directional: every file from the source must be
// faithfully present at the destination. Files that exist only at the
// destination are ignored.
package reconcile

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"sdingest/internal/index"
	"sdingest/internal/logging"
)

// ManifestName is the file written inside each destination root listing
// every verified file.
const ManifestName = "checksum.txt"

// Mismatch records one source file that failed verification. Got is
// empty when the file is missing from the destination entirely.
type Mismatch struct {
	RelPath string
	Want    string
	Got     string
}

// Report is the outcome of reconciling one destination.
type Report struct {
	Dest       string
	Matched    int
	Mismatches []Mismatch
}

// Success reports whether every source file verified. Any mismatch,
// including a missing file, fails the destination outright.
func (r *Report) Success() bool { return len(r.Mismatches) == 0 }

// ErrorCount returns the number of failed files.
func (r *Report) ErrorCount() int { return len(r.Mismatches) }

// Engine builds destination indexes and compares them against a
// pre-copy source index.
type Engine struct {
	builder *index.Builder
}

// NewEngine creates an Engine that indexes destinations with builder.
func NewEngine(builder *index.Builder) *Engine {
	return &Engine{builder: builder}
}

// Reconcile indexes destRoot, compares it against source, and writes
// the manifest into destRoot. Any prior manifest is overwritten.
func (e *Engine) Reconcile(ctx context.Context, source *index.Index, destRoot string) (*Report, error) {
	destIndex, err := e.builder.Build(ctx, destRoot)
	if err != nil {
		return nil, fmt.Errorf("index destination: %w", err)
	}

	manifestPath := filepath.Join(destRoot, ManifestName)
	manifest, err := os.Create(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("create manifest: %w", err)
	}
	defer manifest.Close()

	buffered := bufio.NewWriter(manifest)
	report := Compare(source, destIndex, buffered)
	report.Dest = destRoot

	if err := buffered.Flush(); err != nil {
		return nil, fmt.Errorf("write manifest: %w", err)
	}
	if err := manifest.Close(); err != nil {
		return nil, fmt.Errorf("close manifest: %w", err)
	}

	return report, nil
}

// Compare checks every source entry against dest, streaming one
// manifest line per verified file to w in the source's discovery order.
// Mismatched and missing files produce no manifest line; they are
// logged and collected in the report instead.
func Compare(source, dest *index.Index, w io.Writer) *Report {
	logger := logging.GetLogger("reconcile")
	report := &Report{Dest: dest.Root()}

	for _, relPath := range source.Paths() {
		want, _ := source.Digest(relPath)
		got, ok := dest.Digest(relPath)

		if !ok {
			logger.Error().Str("path", relPath).Str("expected", want).Msg("File missing from destination")
			report.Mismatches = append(report.Mismatches, Mismatch{RelPath: relPath, Want: want})
			continue
		}
		if got != want {
			logger.Error().Str("path", relPath).Str("expected", want).Str("actual", got).Msg("Checksum mismatch")
			report.Mismatches = append(report.Mismatches, Mismatch{RelPath: relPath, Want: want, Got: got})
			continue
		}

		fmt.Fprintf(w, "%s: %s\n", relPath, want)
		report.Matched++
	}

	return report
}
