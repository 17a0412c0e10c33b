package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vericore/memcore/internal/cliout"
	"github.com/vericore/memcore/internal/retriever"
)

type searchOptions struct {
	limit     int
	substring string
	format    string
}

func newSearchCmd() *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search stored chunks by semantic similarity",
		Long: `Search embeds the query, scans stored chunks, ranks them by cosine
similarity, and verifies each surviving result against its recorded
hash before printing it.

Examples:
  memcored search "deploy window"
  memcored search "getUserById" --substring getUserById --format json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, strings.Join(args, " "), opts)
		},
	}

	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 10, "Maximum number of results")
	cmd.Flags().StringVar(&opts.substring, "substring", "", "Lexical prefilter narrowing the candidate scan")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text, json")

	return cmd
}

func runSearch(cmd *cobra.Command, query string, opts searchOptions) error {
	c, err := openCore()
	if err != nil {
		return err
	}
	defer c.Close()

	results, err := c.search.Search(cmd.Context(), query, opts.limit, retriever.Filters{Substring: opts.substring})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if opts.format == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	out := cliout.New(cmd.OutOrStdout())
	if len(results) == 0 {
		out.Status(fmt.Sprintf("no results for %q", query))
		return nil
	}

	out.Header(fmt.Sprintf("%d results for %q", len(results), query))
	for i, r := range results {
		line := fmt.Sprintf("%d. %s  (score %.3f, confidence %s)", i+1, r.ToCitation(), r.Score, r.Confidence.String())
		if r.Verified {
			out.Success(line)
		} else {
			out.Warning(line)
		}
		snippet := r.Content
		if len(snippet) > 160 {
			snippet = snippet[:160] + "..."
		}
		out.Dim("   " + snippet)
	}
	return nil
}
