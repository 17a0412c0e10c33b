// Package mcpserver exposes the verified memory core to external
// collaborators (the background worker, indexing jobs, stats UIs) as MCP
// tools: ingest, search, stats, delete_path.
package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/vericore/memcore/internal/embed"
	"github.com/vericore/memcore/internal/memtypes"
	"github.com/vericore/memcore/internal/retriever"
	"github.com/vericore/memcore/internal/store"
)

// Server bridges MCP clients to the chunk store, verifier, and retriever.
type Server struct {
	mcp      *mcp.Server
	chunks   *store.ChunkStore
	verifier *store.ChunkVerifier
	search   *retriever.Retriever
	embedder embed.Embedder
	logger   *slog.Logger
}

// NewServer wires a fresh MCP server over the given store/retriever/embedder.
func NewServer(chunks *store.ChunkStore, verifier *store.ChunkVerifier, search *retriever.Retriever, embedder embed.Embedder) (*Server, error) {
	if chunks == nil || verifier == nil || search == nil || embedder == nil {
		return nil, errors.New("chunk store, verifier, retriever, and embedder are all required")
	}

	s := &Server{
		chunks:   chunks,
		verifier: verifier,
		search:   search,
		embedder: embedder,
		logger:   slog.Default(),
	}

	s.mcp = mcp.NewServer(&mcp.Implementation{Name: "memcore", Version: "0.1.0"}, nil)
	s.registerTools()

	return s, nil
}

// MCPServer exposes the underlying *mcp.Server for callers that wire their
// own transport; cmd/memcored uses Serve instead.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}

// Serve runs the server over stdio until ctx is canceled. stdio is the
// only transport this core exposes; the worker spawns memcored as a
// subprocess and talks JSON-RPC over its stdin/stdout.
func (s *Server) Serve(ctx context.Context) error {
	s.logger.Info("mcp_server_starting", slog.String("transport", "stdio"))
	err := s.mcp.Run(ctx, &mcp.StdioTransport{})
	if err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Error("mcp_server_stopped", slog.String("error", err.Error()))
		return err
	}
	s.logger.Info("mcp_server_stopped")
	return nil
}

func (s *Server) registerTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "ingest",
		Description: "Store a chunk of text tagged with its provenance, indexed for later semantic and lexical retrieval.",
	}, s.ingestHandler)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "search",
		Description: "Search stored chunks by semantic similarity, returning each result's verification status and confidence.",
	}, s.searchHandler)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "stats",
		Description: "Report how many chunks are stored and their hash-verification breakdown by provenance.",
	}, s.statsHandler)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "delete_path",
		Description: "Remove every chunk and its recorded hash for a given path.",
	}, s.deletePathHandler)

	s.logger.Info("mcp_tools_registered", slog.Int("count", 4))
}

// IngestInput is the input schema for the ingest tool.
type IngestInput struct {
	Path       string `json:"path" jsonschema:"logical source location for the chunk"`
	Content    string `json:"content" jsonschema:"the text body to store"`
	Provenance string `json:"provenance,omitempty" jsonschema:"one of user_stated, web_search, file_content, heartbeat_discovery; defaults to unknown"`
	URL        string `json:"url,omitempty" jsonschema:"source URL, required for web_search provenance"`
	Query      string `json:"query,omitempty" jsonschema:"query that found the source, used with web_search provenance"`
	Task       string `json:"task,omitempty" jsonschema:"originating task name, used with heartbeat_discovery provenance"`
	LineStart  int    `json:"line_start,omitempty" jsonschema:"inclusive 1-based start line, 0 when inapplicable"`
	LineEnd    int    `json:"line_end,omitempty" jsonschema:"inclusive 1-based end line, 0 when inapplicable"`
}

// IngestOutput is the output schema for the ingest tool.
type IngestOutput struct {
	ChunkID string `json:"chunk_id" jsonschema:"the allocated or reused chunk identifier"`
	Hash    string `json:"hash" jsonschema:"the recorded content hash"`
}

func (s *Server) ingestHandler(ctx context.Context, _ *mcp.CallToolRequest, input IngestInput) (*mcp.CallToolResult, IngestOutput, error) {
	if input.Path == "" {
		return nil, IngestOutput{}, newInvalidParamsError("path is required")
	}

	vector, err := s.embedder.Embed(ctx, input.Content)
	if err != nil {
		return nil, IngestOutput{}, newEmbeddingUnavailableError(fmt.Sprintf("failed to embed content: %v", err))
	}

	chunk := memtypes.Chunk{
		Path:      input.Path,
		Content:   input.Content,
		LineStart: input.LineStart,
		LineEnd:   input.LineEnd,
		Embedding: vector,
		CreatedAt: time.Now().UTC(),
	}

	chunkID, err := s.chunks.Insert(ctx, chunk)
	if err != nil {
		return nil, IngestOutput{}, newInternalError(fmt.Sprintf("failed to store chunk: %v", err))
	}

	provenance := parseProvenance(input)
	hash, err := s.verifier.RecordHash(ctx, chunkID, input.Path, input.Content, provenance)
	if err != nil {
		return nil, IngestOutput{}, newInternalError(fmt.Sprintf("failed to record hash: %v", err))
	}

	return nil, IngestOutput{ChunkID: chunkID, Hash: hash}, nil
}

// SearchInput is the input schema for the search tool.
type SearchInput struct {
	Query     string `json:"query" jsonschema:"the search query text"`
	K         int    `json:"k,omitempty" jsonschema:"number of results to return, default 10"`
	Substring string `json:"substring,omitempty" jsonschema:"optional lexical prefilter narrowing the candidate scan"`
}

// SearchOutput is the output schema for the search tool.
type SearchOutput struct {
	Results []SearchResultOutput `json:"results" jsonschema:"ranked, verified search results"`
}

// SearchResultOutput is a single search result.
type SearchResultOutput struct {
	ChunkID    string  `json:"chunk_id"`
	Path       string  `json:"path"`
	LineStart  int     `json:"line_start"`
	LineEnd    int     `json:"line_end"`
	Content    string  `json:"content"`
	Score      float64 `json:"score"`
	Verified   bool    `json:"verified"`
	Confidence string  `json:"confidence"`
	Citation   string  `json:"citation"`
}

func (s *Server) searchHandler(ctx context.Context, _ *mcp.CallToolRequest, input SearchInput) (*mcp.CallToolResult, SearchOutput, error) {
	if input.Query == "" {
		return nil, SearchOutput{}, newInvalidParamsError("query is required")
	}
	k := input.K
	if k <= 0 {
		k = 10
	}

	results, err := s.search.Search(ctx, input.Query, k, retriever.Filters{Substring: input.Substring})
	if err != nil {
		return nil, SearchOutput{}, newInternalError(fmt.Sprintf("search failed: %v", err))
	}

	out := SearchOutput{Results: make([]SearchResultOutput, 0, len(results))}
	for _, r := range results {
		out.Results = append(out.Results, SearchResultOutput{
			ChunkID:    r.ChunkID,
			Path:       r.Path,
			LineStart:  r.LineStart,
			LineEnd:    r.LineEnd,
			Content:    r.Content,
			Score:      r.Score,
			Verified:   r.Verified,
			Confidence: r.Confidence.String(),
			Citation:   r.ToCitation(),
		})
	}
	return nil, out, nil
}

// StatsOutput is the output schema for the stats tool.
type StatsOutput struct {
	TotalHashes  int            `json:"total_hashes"`
	ByProvenance map[string]int `json:"by_provenance"`
}

func (s *Server) statsHandler(ctx context.Context, _ *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, StatsOutput, error) {
	stats, err := s.verifier.Stats(ctx)
	if err != nil {
		return nil, StatsOutput{}, newInternalError(fmt.Sprintf("failed to compute stats: %v", err))
	}
	return nil, StatsOutput{TotalHashes: stats.TotalHashes, ByProvenance: stats.ByProvenance}, nil
}

// DeletePathInput is the input schema for the delete_path tool.
type DeletePathInput struct {
	Path string `json:"path" jsonschema:"the path whose chunks and hashes should be removed"`
}

// DeletePathOutput is the output schema for the delete_path tool.
type DeletePathOutput struct {
	ChunksRemoved int `json:"chunks_removed"`
	HashesRemoved int `json:"hashes_removed"`
}

func (s *Server) deletePathHandler(ctx context.Context, _ *mcp.CallToolRequest, input DeletePathInput) (*mcp.CallToolResult, DeletePathOutput, error) {
	if input.Path == "" {
		return nil, DeletePathOutput{}, newInvalidParamsError("path is required")
	}

	chunksRemoved, err := s.chunks.DeleteByPath(ctx, input.Path)
	if err != nil {
		return nil, DeletePathOutput{}, newInternalError(fmt.Sprintf("failed to delete chunks: %v", err))
	}
	hashesRemoved, err := s.verifier.RemoveHashesForPath(ctx, input.Path)
	if err != nil {
		return nil, DeletePathOutput{}, newInternalError(fmt.Sprintf("failed to remove hashes: %v", err))
	}

	return nil, DeletePathOutput{ChunksRemoved: chunksRemoved, HashesRemoved: hashesRemoved}, nil
}

func parseProvenance(input IngestInput) memtypes.Provenance {
	switch input.Provenance {
	case string(memtypes.ProvenanceUserStated):
		return memtypes.UserStated()
	case string(memtypes.ProvenanceWebSearch):
		return memtypes.WebSearch(input.URL, input.Query)
	case string(memtypes.ProvenanceFileContent):
		path := input.Path
		return memtypes.FileContent(path)
	case string(memtypes.ProvenanceHeartbeatDiscovery):
		return memtypes.HeartbeatDiscovery(input.Task)
	default:
		return memtypes.UnknownProvenance()
	}
}
