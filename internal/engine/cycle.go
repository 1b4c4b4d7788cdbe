package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/Pengchengistaken/ocmirror/internal/logging"
	"github.com/Pengchengistaken/ocmirror/internal/remote"
)

// Controller drives repeated full-tree passes until the mirror converges
// or the cycle budget runs out. It owns the session for the duration of
// the run and tears it down on every exit path.
type Controller struct {
	Session   remote.Session
	Walker    *Walker
	Scheduler *Scheduler

	// MaxCycles caps the number of full passes (minimum 1).
	MaxCycles int
	// CycleWait is the pause between passes, backing off the remote and
	// letting transient network trouble clear.
	CycleWait time.Duration

	// Sleep overrides the inter-cycle wait (nil = real sleep).
	Sleep SleepFunc
}

// Run executes the mirror run. It returns a report in every non-fatal
// case: Converged true when a pass left nothing pending and skipped no
// subtree, false when the cycle budget was exhausted with failures or
// deferred subtrees remaining — the latter is a
// degraded completion, not an error. Only authentication failures,
// unrecoverable filesystem errors and cancellation return a non-nil error.
func (c *Controller) Run(ctx context.Context) (*RunReport, error) {
	defer func() {
		if err := c.Session.Close(); err != nil {
			logging.L().Warn("closing session", logging.Err(err))
		}
	}()

	cycles := c.MaxCycles
	if cycles < 1 {
		cycles = 1
	}
	sleep := c.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	report := &RunReport{}

	for cycle := 1; cycle <= cycles; cycle++ {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		// Re-authenticate every pass: long runs outlive sessions.
		if err := c.Session.Authenticate(ctx); err != nil {
			return report, fmt.Errorf("authenticating: %w", err)
		}
		logging.L().Info("starting full pass",
			logging.Int("cycle", cycle), logging.Int("max_cycles", cycles))

		stats := CycleStats{}
		failures := NewFailureSet()

		err := c.Walker.Walk(ctx, &stats, func(pf PendingFile) error {
			out := c.Scheduler.Download(ctx, pf)
			if err := ctx.Err(); err != nil {
				return err
			}
			if out.Status == Succeeded {
				stats.Downloaded++
			} else {
				stats.Failed++
				failures.Add(FailedFile{RemotePath: pf.Node.RemotePath(), LocalPath: pf.LocalPath})
			}
			return nil
		})

		report.Cycles = cycle
		report.Last = stats
		report.Failures = failures.Files()

		if err != nil {
			return report, err
		}

		logging.L().Info("pass complete",
			logging.Int("cycle", cycle),
			logging.Int("discovered", stats.Discovered),
			logging.Int("existing", stats.Existing),
			logging.Int("downloaded", stats.Downloaded),
			logging.Int("failed", stats.Failed),
			logging.Int("skipped", stats.Skipped))

		// A skipped subtree was never seen, so an empty failure set alone
		// does not prove the mirror complete.
		if failures.Len() == 0 && stats.Skipped == 0 {
			report.Converged = true
			return report, nil
		}

		if cycle < cycles {
			logging.L().Info("work remains, waiting before next pass",
				logging.Int("failed", failures.Len()),
				logging.Int("skipped", stats.Skipped),
				logging.Duration("wait", c.CycleWait))
			if err := sleep(ctx, c.CycleWait); err != nil {
				return report, err
			}
		}
	}

	logging.L().Warn("cycle budget exhausted before convergence",
		logging.Int("failed", len(report.Failures)),
		logging.Int("skipped", report.Last.Skipped))
	return report, nil
}
