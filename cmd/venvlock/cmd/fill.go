package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/anthr76/venvlock/internal/graph"
	"github.com/anthr76/venvlock/internal/lockfile"
)

var fillCmd = &cobra.Command{
	Use:   "fill <requirements> <lock>",
	Short: "Restore credential placeholders in an existing lock file",
	Long: `Fill rewrites a lock file produced without credential placeholders, such as
raw pip freeze output, so that every VCS line whose repository is declared
with a placeholder in the requirements graph carries it again. Line order
and every other line are kept.`,
	Args: cobra.ExactArgs(2),
	RunE: runFill,
}

func init() {
	rootCmd.AddCommand(fillCmd)
}

func runFill(cmd *cobra.Command, args []string) error {
	s, err := sessionFor(cmd)
	if err != nil {
		return err
	}

	reqPath, lockPath := args[0], args[1]
	if _, err := s.checker.InstallTarget(reqPath); err != nil {
		return err
	}
	if err := s.checker.CheckLockTarget(lockPath); err != nil {
		return err
	}

	g, err := graph.Resolve(reqPath)
	if err != nil {
		return fmt.Errorf("resolving requirements: %w", err)
	}
	lf, err := lockfile.Load(lockPath)
	if err != nil {
		return err
	}

	lf.Lines = lockfile.Refill(g.Declarations(), lf.Lines)
	if err := lf.Save(); err != nil {
		return err
	}
	s.logger.Debug("filled credentials", "lock", lockPath, "lines", len(lf.Lines))
	return nil
}
