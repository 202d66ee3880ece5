package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Uninstall every package from the environment",
	Args:  cobra.NoArgs,
	RunE:  runClear,
}

func init() {
	rootCmd.AddCommand(clearCmd)
}

func runClear(cmd *cobra.Command, args []string) error {
	s, err := sessionFor(cmd)
	if err != nil {
		return err
	}
	return s.clear(cmd.Context(), cmd)
}

func (s *session) clear(ctx context.Context, cmd *cobra.Command) error {
	fmt.Fprintln(cmd.OutOrStdout(), "Removing all packages")
	if err := s.installer.UninstallAll(ctx); err != nil {
		return fmt.Errorf("removing packages: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "All packages removed")
	return nil
}
