// Package report writes the end-of-run failure report.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Pengchengistaken/ocmirror/internal/engine"
)

// FileName is the failure report written next to the download root.
const FileName = "download_failures.txt"

// Reporter writes the final failure list. It is a pure sink: one write at
// run end, no retry semantics of its own.
type Reporter struct {
	// Dir is the directory the report is written into.
	Dir string
	// Now overrides the report timestamp (nil = time.Now).
	Now func() time.Time
}

// Write renders the failure list and writes it atomically. It returns the
// report path. Callers skip the report entirely when failures is empty;
// writing an empty report is still valid and states that explicitly.
func (r *Reporter) Write(failures []engine.FailedFile) (string, error) {
	now := time.Now
	if r.Now != nil {
		now = r.Now
	}

	var b strings.Builder
	rule := strings.Repeat("=", 64)
	fmt.Fprintln(&b, rule)
	fmt.Fprintln(&b, "ocmirror failure report")
	fmt.Fprintln(&b, rule)
	fmt.Fprintf(&b, "generated: %s\n", now().Format(time.DateTime))
	fmt.Fprintf(&b, "failed files: %d\n", len(failures))
	fmt.Fprintln(&b, rule)
	fmt.Fprintln(&b)
	for i, f := range failures {
		fmt.Fprintf(&b, "%d. %s\n", i+1, f.RemotePath)
	}

	path := filepath.Join(r.Dir, FileName)
	if err := writeAtomic(path, []byte(b.String())); err != nil {
		return "", fmt.Errorf("writing failure report: %w", err)
	}
	return path, nil
}

// writeAtomic writes via a temp file in the same directory plus rename, so
// a crash never leaves a half-written report.
func writeAtomic(path string, content []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".ocmirror-*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return err
	}
	success = true
	return nil
}
