package cmd

import (
	"fmt"
	"regexp"

	"github.com/spf13/cobra"

	"github.com/vericore/memcore/internal/logging"
)

func newLogsCmd() *cobra.Command {
	var (
		follow  bool
		lines   int
		level   string
		filter  string
		noColor bool
		file    string
	)

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "View memcored's log file",
		Long: `Logs tails (and optionally follows) memcored's rotating JSON log
file, the same file written by --debug on every other subcommand.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLogs(cmd, logsOptions{follow, lines, level, filter, noColor, file})
		},
	}

	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Follow the log file for new entries")
	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of lines to show from the end")
	cmd.Flags().StringVar(&level, "level", "", "Minimum level to show (debug, info, warn, error)")
	cmd.Flags().StringVar(&filter, "filter", "", "Regular expression to filter log lines")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "Disable colored level labels")
	cmd.Flags().StringVar(&file, "file", "", "Path to an explicit log file, overriding the default location")

	return cmd
}

type logsOptions struct {
	follow  bool
	lines   int
	level   string
	filter  string
	noColor bool
	file    string
}

func runLogs(cmd *cobra.Command, opts logsOptions) error {
	path, err := logging.FindLogFile(opts.file)
	if err != nil {
		return err
	}

	var pattern *regexp.Regexp
	if opts.filter != "" {
		pattern, err = regexp.Compile(opts.filter)
		if err != nil {
			return fmt.Errorf("invalid --filter pattern: %w", err)
		}
	}

	viewer := logging.NewViewer(logging.ViewerConfig{
		Level:   opts.level,
		Pattern: pattern,
		NoColor: opts.noColor,
	}, cmd.OutOrStdout())

	entries, err := viewer.Tail(path, opts.lines)
	if err != nil {
		return fmt.Errorf("failed to tail %s: %w", path, err)
	}
	viewer.Print(entries)

	if !opts.follow {
		return nil
	}

	ctx := cmd.Context()
	stream := make(chan logging.LogEntry, 64)
	done := make(chan error, 1)
	go func() { done <- viewer.Follow(ctx, path, stream) }()

	for {
		select {
		case entry := <-stream:
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), viewer.FormatEntry(entry))
		case err := <-done:
			return err
		case <-ctx.Done():
			return nil
		}
	}
}
