package cmd

import (
	"context"
	"encoding/json"
	"time"

	"github.com/spf13/cobra"

	"github.com/vericore/memcore/internal/cliout"
	"github.com/vericore/memcore/internal/config"
)

// doctorResult is one diagnostic check and its outcome.
type doctorResult struct {
	Check  string `json:"check"`
	OK     bool   `json:"ok"`
	Detail string `json:"detail"`
}

func newDoctorCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check that the store and embedder are reachable",
		Long: `Doctor verifies that configuration loads, the SQLite store opens,
and the configured embedder can serve a request — the three things a
healthy memcored instance needs before serve/ingest/search will work.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDoctor(cmd, jsonOutput)
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func runDoctor(cmd *cobra.Command, jsonOutput bool) error {
	var results []doctorResult

	cfg, cfgErr := config.Load(".")
	if cfgErr != nil {
		results = append(results, doctorResult{Check: "config", OK: false, Detail: cfgErr.Error()})
	} else {
		results = append(results, doctorResult{Check: "config", OK: true, Detail: "agent " + cfg.AgentID + " at " + cfg.DBPath()})
	}

	c, coreErr := openCore()
	if coreErr != nil {
		results = append(results, doctorResult{Check: "store", OK: false, Detail: coreErr.Error()})
	} else {
		defer c.Close()
		results = append(results, doctorResult{Check: "store", OK: true, Detail: "opened " + c.cfg.DBPath()})

		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
		defer cancel()
		if c.embedder.Available(ctx) {
			results = append(results, doctorResult{Check: "embedder", OK: true, Detail: c.embedder.ModelName()})
		} else {
			results = append(results, doctorResult{Check: "embedder", OK: false, Detail: "provider unavailable"})
		}
	}

	if jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	out := cliout.New(cmd.OutOrStdout())
	allOK := true
	for _, r := range results {
		line := r.Check + ": " + r.Detail
		if r.OK {
			out.Success(line)
		} else {
			out.Error(line)
			allOK = false
		}
	}
	if !allOK {
		out.Warning("one or more checks failed")
	}
	return nil
}
