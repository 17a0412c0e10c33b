package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vericore/memcore/internal/mcpserver"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server over stdio",
		Long: `Serve exposes ingest, search, stats, and delete_path as MCP tools over
stdio, for a collaborating agent or worker process to call.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd)
		},
	}
	return cmd
}

func runServe(cmd *cobra.Command) error {
	c, err := openCore()
	if err != nil {
		return err
	}
	defer c.Close()

	srv, err := mcpserver.NewServer(c.chunks, c.verifier, c.search, c.embedder)
	if err != nil {
		return fmt.Errorf("failed to construct mcp server: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return srv.Serve(ctx)
}
