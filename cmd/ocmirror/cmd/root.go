package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Build-time variables set via -ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Global flags.
var (
	configPath string
	remoteURL  string
	password   string
	root       string
	verbose    bool
	quiet      bool
)

var rootCmd = &cobra.Command{
	Use:   "ocmirror",
	Short: "Mirror a password-protected shared folder onto local disk",
	Long: `ocmirror walks a password-protected remote shared folder (ownCloud-style
public link) and mirrors it 1:1 into a local directory tree. It downloads
only files that are missing or incomplete, retries transient failures with
bounded budgets, and repeats full-tree passes until the mirror converges.

The local tree is the only state: interrupt a run at any point and the next
run resumes exactly where it left off.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("ocmirror %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "ocmirror.yaml", "path to config file")
	rootCmd.PersistentFlags().StringVar(&remoteURL, "url", "", "share link (overrides config)")
	rootCmd.PersistentFlags().StringVar(&password, "password", "", "share password (overrides config)")
	rootCmd.PersistentFlags().StringVar(&root, "root", "", "download root (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "detailed output")
	rootCmd.PersistentFlags().BoolVar(&quiet, "quiet", false, "minimal output (errors only)")

	rootCmd.AddCommand(versionCmd)
}

// ExecuteContext runs the root command with cancellation wired through to
// every subcommand.
func ExecuteContext(ctx context.Context) error {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	return nil
}
