package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/anthr76/venvlock/internal/graph"
	"github.com/anthr76/venvlock/internal/hash"
	"github.com/anthr76/venvlock/internal/lockfile"
	"github.com/anthr76/venvlock/internal/reqfile"
	"github.com/anthr76/venvlock/internal/requirement"
)

var installSkipLock bool

var installCmd = &cobra.Command{
	Use:   "install [file]",
	Short: "Install a requirements or lock file",
	Long: `Install resolves a requirements file, installs it with pip and then locks it.

Given a lock file, its pins are installed as-is and nothing is relocked.
Credential placeholders are filled from the environment, falling back to
~/.netrc, and handed to pip on standard input only.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInstall,
}

func init() {
	rootCmd.AddCommand(installCmd)
	installCmd.Flags().BoolVar(&installSkipLock, "skip-lock", false, "do not write the lock file after installing")
}

func runInstall(cmd *cobra.Command, args []string) error {
	s, err := sessionFor(cmd)
	if err != nil {
		return err
	}

	arg := ""
	if len(args) > 0 {
		arg = args[0]
	}
	path, err := s.checker.InstallTarget(arg)
	if err != nil {
		return err
	}

	if reqfile.IsLockTarget(path) {
		return s.installLock(cmd.Context(), cmd, path)
	}

	g, err := graph.Resolve(path)
	if err != nil {
		return fmt.Errorf("resolving requirements: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Installing requirements from %s\n", path)
	if err := s.install(cmd.Context(), g.Declarations()); err != nil {
		return err
	}

	if installSkipLock {
		return nil
	}
	lockPath, err := reqfile.LockNameFor(path)
	if err != nil {
		return err
	}
	return s.lock(cmd.Context(), cmd, g, lockPath)
}

// installLock installs the pins of an existing lock file.
func (s *session) installLock(ctx context.Context, cmd *cobra.Command, path string) error {
	reqs, err := s.loadLock(path)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Installing requirements from %s\n", path)
	return s.install(ctx, reqs)
}

func (s *session) loadLock(path string) ([]requirement.Line, error) {
	lf, err := lockfile.Load(path)
	if err != nil {
		return nil, err
	}
	if digest, err := hash.File(path); err == nil {
		s.logger.Debug("loaded lockfile", "path", path, "digest", digest)
	}
	return lf.Requirements()
}

func (s *session) install(ctx context.Context, decls []requirement.Line) error {
	lines, err := s.interpolate(decls)
	if err != nil {
		return err
	}
	return s.installLines(ctx, lines)
}

// interpolate renders decls with their secrets filled in. The result is
// only ever handed to the installer.
func (s *session) interpolate(decls []requirement.Line) ([]string, error) {
	interp, err := s.interpolator()
	if err != nil {
		return nil, err
	}
	lines, err := interp.Lines(decls)
	if err != nil {
		return nil, fmt.Errorf("interpolating credentials: %w", err)
	}
	return lines, nil
}

func (s *session) installLines(ctx context.Context, lines []string) error {
	s.logger.Debug("installing", "requirements", len(lines))
	if err := s.installer.Install(ctx, lines); err != nil {
		return fmt.Errorf("installing requirements: %w", err)
	}
	return nil
}
