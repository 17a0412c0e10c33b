package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vericore/memcore/internal/cliout"
)

func newDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <path>",
		Short: "Remove every chunk and recorded hash for a path",
		Long: `Delete drops every chunk and hash record for path. Run this before
re-ingesting a path so stale chunks cannot outlive the content they
were derived from.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDelete(cmd, args[0])
		},
	}
	return cmd
}

func runDelete(cmd *cobra.Command, path string) error {
	out := cliout.New(cmd.OutOrStdout())

	c, err := openCore()
	if err != nil {
		return err
	}
	defer c.Close()

	ctx := cmd.Context()
	chunksRemoved, err := c.chunks.DeleteByPath(ctx, path)
	if err != nil {
		return fmt.Errorf("failed to delete chunks for %s: %w", path, err)
	}
	hashesRemoved, err := c.verifier.RemoveHashesForPath(ctx, path)
	if err != nil {
		return fmt.Errorf("failed to remove hashes for %s: %w", path, err)
	}

	out.Successf("removed %d chunks and %d hashes for %s", chunksRemoved, hashesRemoved, path)
	return nil
}
