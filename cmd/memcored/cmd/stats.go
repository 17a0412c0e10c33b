package cmd

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/vericore/memcore/internal/cliout"
)

func newStatsCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show how many chunks are stored and verified, by provenance",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStats(cmd, jsonOutput)
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func runStats(cmd *cobra.Command, jsonOutput bool) error {
	c, err := openCore()
	if err != nil {
		return err
	}
	defer c.Close()

	stats, err := c.verifier.Stats(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to compute stats: %w", err)
	}

	if jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(stats)
	}

	out := cliout.New(cmd.OutOrStdout())
	out.Header(fmt.Sprintf("%d hashed chunks", stats.TotalHashes))

	provenances := make([]string, 0, len(stats.ByProvenance))
	for p := range stats.ByProvenance {
		provenances = append(provenances, p)
	}
	sort.Strings(provenances)
	for _, p := range provenances {
		out.Status(fmt.Sprintf("  %-24s %d", p, stats.ByProvenance[p]))
	}
	return nil
}
