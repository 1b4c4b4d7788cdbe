package cmd

import (
	"fmt"

	"github.com/Pengchengistaken/ocmirror/internal/engine"
	"github.com/Pengchengistaken/ocmirror/internal/logging"
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Report what a mirror run would download",
	Long: `Authenticates and walks the remote tree once without downloading
anything, listing every file that is missing or incomplete locally.
Local directories are still created so the tree matches the remote.
Exit 0 if the mirror is already complete; exit non-zero otherwise.`,
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
		defer func() { _ = session.Close() }()

		walker, err := newWalker(cfg, session)
		if err != nil {
			return err
		}

		if err := session.Authenticate(cmd.Context()); err != nil {
			return fmt.Errorf("authenticating: %w", err)
		}

		stats := engine.CycleStats{}
		var pending []engine.PendingFile
		err = walker.Walk(cmd.Context(), &stats, func(pf engine.PendingFile) error {
			pending = append(pending, pf)
			return nil
		})
		if err != nil {
			return err
		}

		for _, pf := range pending {
			size := "size unknown"
			if pf.Node.Size >= 0 {
				size = fmt.Sprintf("%d bytes", pf.Node.Size)
			}
			info("  missing  %s (%s)", pf.Node.RemotePath(), size)
		}

		info("")
		info("%d file(s) discovered, %d already present, %d to download.",
			stats.Discovered, stats.Existing, len(pending))
		if stats.Skipped > 0 {
			info("%d folder(s) could not be listed; their contents were not checked.", stats.Skipped)
		}

		if len(pending) > 0 || stats.Skipped > 0 {
			return fmt.Errorf("mirror incomplete: %d file(s) pending, %d folder(s) unlisted",
				len(pending), stats.Skipped)
		}
		info("Mirror is complete.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
