package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync [lock-file]",
	Short: "Make the environment match a lock file exactly",
	Long: `Sync removes every installed package and then installs the pins of the lock
file. lock-file defaults to requirements.lock; a stem such as "dev" selects
dev-requirements.lock.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	s, err := sessionFor(cmd)
	if err != nil {
		return err
	}

	target := ""
	if len(args) > 0 {
		target = args[0]
	}
	lockPath, err := s.checker.LockTarget(target)
	if err != nil {
		return err
	}

	// Everything that can fail before touching the environment runs first.
	reqs, err := s.loadLock(lockPath)
	if err != nil {
		return err
	}
	lines, err := s.interpolate(reqs)
	if err != nil {
		return err
	}

	if err := s.clear(cmd.Context(), cmd); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Installing requirements from %s\n", lockPath)
	return s.installLines(cmd.Context(), lines)
}
