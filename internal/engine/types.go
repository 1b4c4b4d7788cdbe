package engine

import (
	"context"
	"time"

	"github.com/Pengchengistaken/ocmirror/internal/remote"
)

// PendingFile is a remote file the oracle judged missing or incomplete
// locally. Pending work is recomputed from the filesystem every cycle and
// never persisted — the mirror tree itself is the resume checkpoint.
type PendingFile struct {
	Node      remote.Node
	LocalPath string
	// Attempt is the current download attempt, starting at 1. Zero while
	// the file is still only pending.
	Attempt int
}

// Status is the terminal state of one file for one cycle.
type Status int

const (
	Succeeded Status = iota
	Failed
)

func (s Status) String() string {
	if s == Succeeded {
		return "succeeded"
	}
	return "failed"
}

// Outcome records how a single PendingFile ended up.
type Outcome struct {
	Node      remote.Node
	LocalPath string
	Status    Status
	// Attempts is the number of download attempts actually made.
	Attempts int
}

// FailedFile is one permanently failed file of a cycle.
type FailedFile struct {
	RemotePath string
	LocalPath  string
}

// FailureSet accumulates failed files in insertion order, deduplicated by
// remote path. A fresh set is created at the start of every cycle; only
// the final cycle's set is reported.
type FailureSet struct {
	seen  map[string]bool
	files []FailedFile
}

func NewFailureSet() *FailureSet {
	return &FailureSet{seen: make(map[string]bool)}
}

func (s *FailureSet) Add(f FailedFile) {
	if s.seen[f.RemotePath] {
		return
	}
	s.seen[f.RemotePath] = true
	s.files = append(s.files, f)
}

func (s *FailureSet) Len() int {
	return len(s.files)
}

// Files returns the failures in insertion order.
func (s *FailureSet) Files() []FailedFile {
	out := make([]FailedFile, len(s.files))
	copy(out, s.files)
	return out
}

// CycleStats counts what one full-tree pass saw and did.
type CycleStats struct {
	Discovered int // files seen in remote listings
	Existing   int // already complete locally, skipped
	Downloaded int // downloaded this pass
	Failed     int // exhausted their retry budget this pass
	Skipped    int // subtrees deferred to the next pass after listing failures
}

// RunReport is the final disposition of a whole run.
type RunReport struct {
	// Cycles is the number of full-tree passes performed.
	Cycles int
	// Converged is true when the final pass left nothing pending.
	Converged bool
	// Last holds the final cycle's stats.
	Last CycleStats
	// Failures is the final cycle's unresolved failure set, in the order
	// the files were encountered.
	Failures []FailedFile
}

// SleepFunc waits for d or until ctx is done, returning ctx.Err() in the
// latter case. Injectable so tests run without real waits.
type SleepFunc func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
