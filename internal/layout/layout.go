// Package layout maps remote paths onto the local mirror tree and decides
// which remote files are already complete on disk.
package layout

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Pengchengistaken/ocmirror/internal/remote"
)

// FilesystemError is an unrecoverable local filesystem failure
// (permissions, disk full). These abort the run instead of being retried.
type FilesystemError struct {
	Path string
	Err  error
}

func (e *FilesystemError) Error() string {
	return fmt.Sprintf("filesystem error at %s: %s", e.Path, e.Err)
}

func (e *FilesystemError) Unwrap() error {
	return e.Err
}

// Mapper resolves remote path segments to paths under the download root.
type Mapper struct {
	root string // absolute, clean
}

// NewMapper creates a Mapper rooted at dir. The directory itself is created
// on first EnsureDir, not here.
func NewMapper(dir string) (*Mapper, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving download root %s: %w", dir, err)
	}
	return &Mapper{root: filepath.Clean(abs)}, nil
}

// Root returns the absolute download root.
func (m *Mapper) Root() string {
	return m.root
}

// Resolve maps remote path segments to a local path under the root.
// Segments are remote-controlled input: anything that could step outside
// the root (separators, dot-dots, empties) is rejected, never sanitized
// into a different name.
func (m *Mapper) Resolve(segments []string) (string, error) {
	for _, seg := range segments {
		if err := checkSegment(seg); err != nil {
			return "", fmt.Errorf("remote path %q: %w", strings.Join(segments, "/"), err)
		}
	}

	local := filepath.Join(append([]string{m.root}, segments...)...)
	local = filepath.Clean(local)

	// Trailing separator so root "a" does not match sibling "a2".
	if local != m.root && !strings.HasPrefix(local, m.root+string(filepath.Separator)) {
		return "", fmt.Errorf("remote path %q escapes the download root", strings.Join(segments, "/"))
	}
	return local, nil
}

func checkSegment(seg string) error {
	switch {
	case seg == "" || seg == "." || seg == "..":
		return fmt.Errorf("invalid name %q", seg)
	case strings.ContainsAny(seg, `/\`):
		return fmt.Errorf("name %q contains a path separator", seg)
	case strings.ContainsRune(seg, 0):
		return fmt.Errorf("name contains a NUL byte")
	}
	return nil
}

// EnsureDir creates dir and all missing ancestors. Idempotent.
func (m *Mapper) EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return &FilesystemError{Path: dir, Err: err}
	}
	return nil
}

// Oracle decides whether a remote file is already fully present locally.
type Oracle struct{}

// IsComplete reports whether localPath holds a complete copy of node.
// The file must exist as a regular file, and when the remote reports a
// size the local size must match exactly — a same-named partial left by an
// interrupted run counts as incomplete and is re-downloaded.
func (Oracle) IsComplete(node remote.Node, localPath string) bool {
	fi, err := os.Stat(localPath)
	if err != nil || !fi.Mode().IsRegular() {
		return false
	}
	if node.Size >= 0 && fi.Size() != node.Size {
		return false
	}
	return true
}
