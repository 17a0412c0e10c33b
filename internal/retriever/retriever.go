// Package retriever implements the search pipeline that composes
// EmbeddingCache, ChunkStore, and ChunkVerifier into verified results.
package retriever

import (
	"context"
	"fmt"
	"sort"

	"github.com/vericore/memcore/internal/embed"
	"github.com/vericore/memcore/internal/memhash"
	"github.com/vericore/memcore/internal/memtypes"
	"github.com/vericore/memcore/internal/store"
)

// Overfetch is the multiple of k candidates fetched from ChunkStore
// before scoring, giving the top-k cut room to find genuinely close
// matches without scanning the whole table on every query.
const Overfetch = 4

// Filters narrows ScanCandidates with a cheap lexical prefilter; it never
// excludes a chunk purely on embedding grounds (store.ChunkStore's
// contract). An empty Substring disables prefiltering.
type Filters struct {
	Substring string
}

// Retriever orchestrates Search: embed the query (via cache), scan
// candidates, score by cosine similarity, and verify the top-k against
// their recorded hashes.
type Retriever struct {
	chunks   *store.ChunkStore
	verifier *store.ChunkVerifier
	embedder embed.Embedder
}

// New builds a Retriever over the given store/embedder wiring.
func New(chunks *store.ChunkStore, verifier *store.ChunkVerifier, embedder embed.Embedder) *Retriever {
	return &Retriever{chunks: chunks, verifier: verifier, embedder: embedder}
}

// scored pairs a candidate chunk with its cosine score against the query,
// used only to drive the partial top-k sort below.
type scored struct {
	chunk memtypes.Chunk
	score float32
}

// Search embeds queryText, scans up to k*Overfetch candidates, scores
// each by cosine similarity, keeps the top k (ties broken by ascending
// chunk ID), and verifies each survivor against its recorded hash before
// assembling the final VerifiedChunk list.
func (r *Retriever) Search(ctx context.Context, queryText string, k int, filters Filters) ([]memtypes.VerifiedChunk, error) {
	if k <= 0 {
		return nil, nil
	}

	qv, err := r.embedder.Embed(ctx, queryText)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	var filter func(content string) bool
	if filters.Substring != "" {
		filter = store.SubstringPrefilter(filters.Substring)
	}

	candidates, err := r.chunks.ScanCandidates(ctx, k*Overfetch, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to scan candidates: %w", err)
	}

	results := make([]scored, 0, len(candidates))
	for _, c := range candidates {
		results = append(results, scored{chunk: c, score: memhash.Cosine(qv, c.Embedding)})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].score != results[j].score {
			return results[i].score > results[j].score
		}
		return results[i].chunk.ChunkID < results[j].chunk.ChunkID
	})
	if len(results) > k {
		results = results[:k]
	}

	out := make([]memtypes.VerifiedChunk, 0, len(results))
	for _, res := range results {
		verified, err := r.verifier.VerifyChunk(ctx, res.chunk.ChunkID, res.chunk.Path, res.chunk.Content)
		if err != nil {
			return nil, fmt.Errorf("failed to verify chunk %s: %w", res.chunk.ChunkID, err)
		}

		info, err := r.verifier.GetChunkInfo(ctx, res.chunk.ChunkID)
		if err != nil {
			return nil, fmt.Errorf("failed to get chunk info for %s: %w", res.chunk.ChunkID, err)
		}

		vc := memtypes.VerifiedChunk{
			ChunkID:   res.chunk.ChunkID,
			Path:      res.chunk.Path,
			LineStart: res.chunk.LineStart,
			LineEnd:   res.chunk.LineEnd,
			Content:   res.chunk.Content,
			Score:     float64(res.score),
			Verified:  verified,
		}
		if info != nil {
			vc.Hash = info.Hash
			if len(info.Hash) >= 8 {
				vc.HashPrefix = info.Hash[:8]
			}
			vc.Provenance = info.Provenance
			vc.Confidence = memtypes.CalculateConfidence(verified, info.Provenance, info.AccessCount)
		} else {
			vc.Provenance = memtypes.UnknownProvenance()
			vc.Confidence = memtypes.CalculateConfidence(verified, vc.Provenance, 0)
		}

		out = append(out, vc)
	}

	return out, nil
}
