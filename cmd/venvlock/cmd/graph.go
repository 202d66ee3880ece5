package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/anthr76/venvlock/internal/graph"
	"github.com/anthr76/venvlock/internal/hash"
)

var (
	graphFormat string
	graphCheck  string
)

var graphCmd = &cobra.Command{
	Use:   "graph [file]",
	Short: "Print the flattened requirements graph",
	Long: `Graph resolves a requirements file and prints every declaration with the file
and line it came from, its package URL and a digest of all input files.

With --check, nothing is printed; the command fails unless the digest of the
input files equals the given SRI string.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runGraph,
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().StringVarP(&graphFormat, "format", "f", "yaml", "output format: yaml or json")
	graphCmd.Flags().StringVar(&graphCheck, "check", "", "expected sha256 SRI digest of the input files")
}

func runGraph(cmd *cobra.Command, args []string) error {
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

	g, err := graph.Resolve(path)
	if err != nil {
		return fmt.Errorf("resolving requirements: %w", err)
	}
	digest, err := g.Digest()
	if err != nil {
		return err
	}

	if graphCheck != "" {
		if err := hash.ValidateSRI(graphCheck); err != nil {
			return fmt.Errorf("invalid --check digest: %w", err)
		}
		if graphCheck != digest {
			return fmt.Errorf("requirements digest is %s, expected %s", digest, graphCheck)
		}
		s.logger.Debug("digest matches", "digest", digest)
		return nil
	}

	format := graphFormat
	if format == "" {
		format = "yaml"
	}
	return g.Document(digest).Write(cmd.OutOrStdout(), format)
}
