package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/anthr76/venvlock/internal/graph"
	"github.com/anthr76/venvlock/internal/hash"
	"github.com/anthr76/venvlock/internal/installer"
	"github.com/anthr76/venvlock/internal/lockfile"
	"github.com/anthr76/venvlock/internal/reqfile"
)

var lockTransitive bool

var lockCmd = &cobra.Command{
	Use:   "lock [target]",
	Short: "Write the lock file for a requirements file",
	Long: `Lock pins every declaration of a requirements graph to the version or commit
currently installed and writes the paired lock file.

target may be a requirements file, a lock file, a bare stem such as "dev"
(for dev-requirements) or empty for requirements.txt. Credential
placeholders of VCS dependencies are kept verbatim. Without a target and
without requirements.txt the lock is empty, or with --transitive pins
every installed package.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLock,
}

func init() {
	rootCmd.AddCommand(lockCmd)
	lockCmd.Flags().BoolVar(&lockTransitive, "transitive", false, "also pin installed packages no declaration names")
}

func runLock(cmd *cobra.Command, args []string) error {
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
	var mfe *graph.MissingFileError
	switch {
	case target == "" && errors.As(err, &mfe) && mfe.Referrer == "":
		// An absent default requirements file declares nothing.
		s.logger.Debug("no requirements file, locking empty graph", "path", reqPath)
		g = &graph.Graph{Root: reqPath}
	case err != nil:
		return fmt.Errorf("resolving requirements: %w", err)
	}
	return s.lock(cmd.Context(), cmd, g, lockPath)
}

// lock freezes the environment and writes the lock for g to lockPath.
// Nothing is written when any declaration is left unresolved.
func (s *session) lock(ctx context.Context, cmd *cobra.Command, g *graph.Graph, lockPath string) error {
	if digest, err := g.Digest(); err == nil {
		s.logger.Debug("resolved requirements", "root", g.Root, "files", len(g.Files), "entries", len(g.Entries), "digest", digest)
	}
	for _, d := range g.Duplicates {
		s.logger.Debug("dropped duplicate declaration", "file", d.File, "line", d.Line)
	}

	frozen, err := s.installer.Freeze(ctx)
	if err != nil {
		return fmt.Errorf("listing installed packages: %w", err)
	}
	resolved, skipped := installer.ParseFreeze(frozen)
	for _, sk := range skipped {
		s.logger.Debug("ignoring installed distribution", "line", sk.Line, "reason", sk.Reason)
	}

	lines, err := lockfile.Synthesize(g.Declarations(), resolved, lockfile.Options{
		Transitive: lockTransitive || s.cfg.Transitive,
	})
	if err != nil {
		return fmt.Errorf("synthesizing lockfile: %w", err)
	}

	lf := lockfile.New(lockPath, lines)
	if err := lf.Save(); err != nil {
		return err
	}
	s.logger.Debug("wrote lockfile", "path", lockPath, "lines", len(lines), "digest", hash.Bytes(lf.Bytes()))
	fmt.Fprintf(cmd.OutOrStdout(), "Locked requirements in %s\n", lockPath)
	return nil
}
