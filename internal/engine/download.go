package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/Pengchengistaken/ocmirror/internal/layout"
	"github.com/Pengchengistaken/ocmirror/internal/logging"
	"github.com/Pengchengistaken/ocmirror/internal/remote"
)

// Scheduler downloads pending files one at a time with a bounded per-file
// retry budget. Per-file state machine for a cycle:
//
//	Pending -> Attempting -> Succeeded
//	                      -> Pending(attempt+1)   while attempt < MaxRetries
//	                      -> Failed
//
// Failed and Succeeded are terminal for the cycle; a Failed file becomes
// pending again on the next full pass if it is still absent from disk.
type Scheduler struct {
	Session remote.Session
	Oracle  layout.Oracle

	// MaxRetries is the total attempt budget per file (minimum 1).
	MaxRetries int
	// Timeout bounds a single attempt.
	Timeout time.Duration
	// RetryWait is the base wait between attempts; the actual wait grows
	// linearly with the attempt number to back off a struggling remote.
	RetryWait time.Duration

	// Sleep overrides the inter-attempt wait (nil = real sleep).
	Sleep SleepFunc
}

// Download runs pf through the retry loop and returns its outcome for the
// cycle. Per-file failures never abort the run; cancellation surfaces as a
// Failed outcome and is detected by the caller via ctx.
func (s *Scheduler) Download(ctx context.Context, pf PendingFile) Outcome {
	retries := s.MaxRetries
	if retries < 1 {
		retries = 1
	}
	sleep := s.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	out := Outcome{Node: pf.Node, LocalPath: pf.LocalPath, Status: Failed}

	for attempt := 1; attempt <= retries; attempt++ {
		pf.Attempt = attempt
		out.Attempts = attempt

		err := s.attempt(ctx, pf)
		if err == nil {
			out.Status = Succeeded
			logging.L().Info("downloaded",
				logging.String("file", pf.Node.RemotePath()),
				logging.Int("attempt", attempt))
			return out
		}
		if ctx.Err() != nil {
			return out
		}

		logging.L().Warn("download attempt failed",
			logging.String("file", pf.Node.RemotePath()),
			logging.Int("attempt", attempt),
			logging.Int("budget", retries),
			logging.Err(err))

		if attempt < retries {
			if sleepErr := sleep(ctx, s.RetryWait*time.Duration(attempt)); sleepErr != nil {
				return out
			}
		}
	}

	logging.L().Error("download failed permanently",
		logging.String("file", pf.Node.RemotePath()),
		logging.Int("attempts", retries))
	return out
}

// attempt performs one download attempt. Success requires both the session
// reporting completion and the oracle confirming the bytes are on disk —
// "the remote says done" alone is not trusted.
func (s *Scheduler) attempt(ctx context.Context, pf PendingFile) error {
	h, err := s.Session.StartDownload(ctx, pf.Node, pf.LocalPath)
	if err != nil {
		return err
	}
	if err := s.Session.AwaitCompletion(ctx, h, s.Timeout); err != nil {
		return err
	}
	if !s.Oracle.IsComplete(pf.Node, pf.LocalPath) {
		return fmt.Errorf("completion reported but %s is missing or truncated on disk", pf.LocalPath)
	}
	return nil
}
