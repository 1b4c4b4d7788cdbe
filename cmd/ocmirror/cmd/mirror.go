package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/Pengchengistaken/ocmirror/internal/engine"
	"github.com/Pengchengistaken/ocmirror/internal/logging"
	"github.com/Pengchengistaken/ocmirror/internal/report"
	"github.com/spf13/cobra"
)

var mirrorCmd = &cobra.Command{
	Use:   "mirror",
	Short: "Mirror the share into the download root",
	Long: `Authenticates against the share and repeats full-tree passes — listing
every folder, downloading every file that is missing or incomplete locally —
until a pass leaves nothing pending or the cycle budget is exhausted.

Files that still fail after all retries are listed in ` + report.FileName + `
next to the download root. A run that ends with residual failures exits 0:
it is a degraded completion, not an error; rerun to pick up where it stopped.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := initLogging(cfg); err != nil {
			return err
		}
		defer func() { _ = logging.Sync() }()

		session, err := newSession(cfg)
		if err != nil {
			return err
		}
		walker, err := newWalker(cfg, session)
		if err != nil {
			return err
		}

		ctrl := &engine.Controller{
			Session: session,
			Walker:  walker,
			Scheduler: &engine.Scheduler{
				Session:    session,
				MaxRetries: cfg.MaxRetries,
				Timeout:    cfg.DownloadTimeout.Std(),
				RetryWait:  cfg.RetryWait.Std(),
			},
			MaxCycles: cfg.MaxFullCycles,
			CycleWait: cfg.CycleWait.Std(),
		}

		info("Mirroring %s into %s", cfg.RemoteURL, walker.Mapper.Root())
		result, err := ctrl.Run(cmd.Context())
		if err != nil {
			return err
		}

		info("")
		info("Run complete after %d cycle(s): %d discovered, %d already present, %d downloaded, %d failed.",
			result.Cycles, result.Last.Discovered, result.Last.Existing,
			result.Last.Downloaded, len(result.Failures))

		if result.Converged {
			info("Mirror is complete.")
			return nil
		}

		if result.Last.Skipped > 0 {
			info("%d folder(s) could not be listed in the final pass; their contents were not checked. Rerun to retry.",
				result.Last.Skipped)
		}
		if len(result.Failures) == 0 {
			return nil
		}

		for _, f := range result.Failures {
			detail("failed  %s", f.RemotePath)
		}

		reporter := &report.Reporter{Dir: filepath.Dir(walker.Mapper.Root())}
		path, reportErr := reporter.Write(result.Failures)
		if reportErr != nil {
			errorf("%s", reportErr)
			return fmt.Errorf("writing failure report: %w", reportErr)
		}
		info("%d file(s) could not be downloaded — see %s. Rerun to retry.",
			len(result.Failures), path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(mirrorCmd)
}
