package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/anthr76/venvlock/internal/graph"
	"github.com/anthr76/venvlock/internal/lockfile"
	"github.com/anthr76/venvlock/internal/reqfile"
)

var verifyStrict bool

var verifyCmd = &cobra.Command{
	Use:   "verify [target]",
	Short: "Verify a lock file matches its requirements",
	Long: `Verify that a lock file is in sync with its requirements graph.

This command checks for:
- Declarations missing from the lock file
- Exact (==) declarations whose version differs in the lock file
- VCS lines not pinned to a commit or missing their credential placeholder
- Extra lock lines no declaration asks for (fatal only with --strict)`,
	Args: cobra.MaximumNArgs(1),
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)
	verifyCmd.Flags().BoolVar(&verifyStrict, "strict", false, "fail on lock lines no declaration asks for")
}

func runVerify(cmd *cobra.Command, args []string) error {
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
	reqPath, err := reqfile.RequirementsNameFor(lockPath)
	if err != nil {
		return err
	}

	g, err := graph.Resolve(reqPath)
	if err != nil {
		return fmt.Errorf("resolving requirements: %w", err)
	}
	lock, err := s.loadLock(lockPath)
	if err != nil {
		return fmt.Errorf("loading lockfile: %w", err)
	}

	report := lockfile.Diff(g.Declarations(), lock)
	out := cmd.OutOrStdout()

	clean := len(report.Missing) == 0 && len(report.Mismatched) == 0 &&
		len(report.CredentialsLost) == 0 && len(report.Extra) == 0
	if clean {
		fmt.Fprintf(out, "%s is in sync with %s\n", lockPath, reqPath)
		return nil
	}

	fmt.Fprintf(out, "%s is out of sync with %s:\n", lockPath, reqPath)
	section := func(title, mark string, items []string) {
		if len(items) == 0 {
			return
		}
		fmt.Fprintf(out, "\n%s:\n", title)
		for _, item := range items {
			fmt.Fprintf(out, "  %s %s\n", mark, item)
		}
	}
	section("Missing from lockfile", "+", report.Missing)
	section("Extra in lockfile", "-", report.Extra)
	section("Version mismatches", "!", report.Mismatched)
	section("Credential placeholders lost", "!", report.CredentialsLost)

	if !report.OK(verifyStrict) {
		return errors.New("lockfile verification failed")
	}
	return nil
}
