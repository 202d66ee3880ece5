package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const Version = "0.1.0"

var (
	rootVerbose bool
	rootQuiet   bool
	rootConfig  string
)

var rootCmd = &cobra.Command{
	Use:   "venvlock",
	Short: "Lock Python requirements without leaking credentials",
	Long: `venvlock flattens a requirements file and everything it references with -r,
installs it with pip and writes a lock file pinning every dependency to an
exact version or commit.

Private VCS dependencies keep their ${VAR} credential placeholders in the
lock file. Secret values are read from the environment (or ~/.netrc) only
when installing and are never written to disk.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(cmd)
		if err != nil {
			return err
		}
		cmd.SetContext(withSession(cmd.Context(), s))
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.PersistentFlags().BoolVarP(&rootVerbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().BoolVarP(&rootQuiet, "quiet", "q", false, "suppress filename diagnostics")
	rootCmd.PersistentFlags().StringVar(&rootConfig, "config", "", "config file (default .venvlock.yaml, then the user config dir)")
}
