// Package cmd provides the CLI commands for memcored.
package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/vericore/memcore/internal/logging"
	"github.com/vericore/memcore/pkg/version"
)

var (
	debugMode      bool
	agentID        string
	loggingCleanup func()
)

// NewRootCmd creates the root command for the memcored CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "memcored",
		Short:   "Verified memory core for a long-running conversational agent",
		Version: version.Version,
		Long: `memcored stores chunks of text tagged with provenance, indexes them
for semantic and lexical retrieval, and returns search results whose
content can be proven unchanged against a recorded hash at read time.`,
	}
	cmd.SetVersionTemplate("memcored version {{.Version}}\n")

	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging to ~/.memcore/logs/")
	cmd.PersistentFlags().StringVar(&agentID, "agent", "", "Agent ID whose memory to operate on (overrides the configured agent_id)")

	cmd.PersistentPreRunE = startLogging
	cmd.PersistentPostRunE = stopLogging

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newIngestCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newStatsCmd())
	cmd.AddCommand(newDeleteCmd())
	cmd.AddCommand(newDoctorCmd())
	cmd.AddCommand(newLogsCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

func startLogging(_ *cobra.Command, _ []string) error {
	if !debugMode {
		return nil
	}
	logger, cleanup, err := logging.Setup(logging.DebugConfig())
	if err != nil {
		return fmt.Errorf("failed to setup debug logging: %w", err)
	}
	loggingCleanup = cleanup
	slog.SetDefault(logger)
	slog.Info("debug_logging_enabled", slog.String("log_file", logging.DefaultLogPath()))
	return nil
}

func stopLogging(_ *cobra.Command, _ []string) error {
	if loggingCleanup != nil {
		loggingCleanup()
	}
	return nil
}
