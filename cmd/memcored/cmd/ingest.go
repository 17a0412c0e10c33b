package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/vericore/memcore/internal/cliout"
	"github.com/vericore/memcore/internal/memtypes"
)

type ingestOptions struct {
	path       string
	file       string
	provenance string
	url        string
	query      string
	task       string
}

func newIngestCmd() *cobra.Command {
	var opts ingestOptions

	cmd := &cobra.Command{
		Use:   "ingest <content>",
		Short: "Store a chunk of text tagged with its provenance",
		Long: `Store a chunk of text, embed it, and record a content hash bound to
its path and timestamp.

Examples:
  memcored ingest "the deploy window is Tuesdays 2-4pm" --path notes/deploy.md --provenance user_stated
  memcored ingest --file README.md --path README.md --provenance file_content`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var content string
			switch {
			case opts.file != "":
				data, err := os.ReadFile(opts.file)
				if err != nil {
					return fmt.Errorf("failed to read %s: %w", opts.file, err)
				}
				content = string(data)
				if opts.path == "" {
					opts.path = opts.file
				}
			case len(args) == 1:
				content = args[0]
			default:
				return fmt.Errorf("either a content argument or --file is required")
			}
			return runIngest(cmd, content, opts)
		},
	}

	cmd.Flags().StringVar(&opts.path, "path", "", "Logical source location for the chunk (required)")
	cmd.Flags().StringVar(&opts.file, "file", "", "Read content from a file instead of an argument")
	cmd.Flags().StringVar(&opts.provenance, "provenance", "user_stated", "One of user_stated, web_search, file_content, heartbeat_discovery")
	cmd.Flags().StringVar(&opts.url, "url", "", "Source URL, for web_search provenance")
	cmd.Flags().StringVar(&opts.query, "query", "", "Query that found the source, for web_search provenance")
	cmd.Flags().StringVar(&opts.task, "task", "", "Originating task name, for heartbeat_discovery provenance")
	_ = cmd.MarkFlagRequired("path")

	return cmd
}

func runIngest(cmd *cobra.Command, content string, opts ingestOptions) error {
	out := cliout.New(cmd.OutOrStdout())

	c, err := openCore()
	if err != nil {
		return err
	}
	defer c.Close()

	ctx := cmd.Context()
	vector, err := c.embedder.Embed(ctx, content)
	if err != nil {
		return fmt.Errorf("failed to embed content: %w", err)
	}

	chunk := memtypes.Chunk{
		Path:      opts.path,
		Content:   content,
		Embedding: vector,
		CreatedAt: time.Now().UTC(),
	}
	chunkID, err := c.chunks.Insert(ctx, chunk)
	if err != nil {
		return fmt.Errorf("failed to store chunk: %w", err)
	}

	provenance := parseProvenanceFlag(opts)
	hash, err := c.verifier.RecordHash(ctx, chunkID, opts.path, content, provenance)
	if err != nil {
		return fmt.Errorf("failed to record hash: %w", err)
	}

	out.Successf("stored chunk %s (hash %s...)", chunkID, hash[:8])
	return nil
}

func parseProvenanceFlag(opts ingestOptions) memtypes.Provenance {
	switch opts.provenance {
	case string(memtypes.ProvenanceUserStated):
		return memtypes.UserStated()
	case string(memtypes.ProvenanceWebSearch):
		return memtypes.WebSearch(opts.url, opts.query)
	case string(memtypes.ProvenanceFileContent):
		return memtypes.FileContent(opts.path)
	case string(memtypes.ProvenanceHeartbeatDiscovery):
		return memtypes.HeartbeatDiscovery(opts.task)
	default:
		return memtypes.UnknownProvenance()
	}
}
