// Package memtypes holds the data model shared by the embedding, storage,
// and retrieval layers: Chunk, its hash record, the Provenance union, and
// the Confidence ordering. Keeping these in their own package (rather than
// under store or embed) avoids an import cycle between those two.
package memtypes

import "time"

// Chunk is a single unit of indexed content: a line range of a source path
// plus its embedding.
type Chunk struct {
	ChunkID   string
	Path      string
	LineStart int
	LineEnd   int
	Content   string
	Embedding []float32
	CreatedAt time.Time
}

// ChunkHashRecord is the verification-table row tracked alongside a Chunk:
// its content hash at record time, provenance, and access history.
type ChunkHashRecord struct {
	ChunkID      string
	Path         string
	Hash         string
	Timestamp    string
	Provenance   Provenance
	AccessCount  int64
	LastAccessed *time.Time
	CreatedAt    time.Time
}

// VerifiedChunk is a scored search result enriched with its verification
// status and confidence, ready to hand back to the caller.
type VerifiedChunk struct {
	ChunkID    string
	Path       string
	LineStart  int
	LineEnd    int
	Content    string
	Score      float64
	Verified   bool
	HashPrefix string
	Hash       string
	Provenance Provenance
	Confidence Confidence
}

// ToCitation formats the chunk as a citable reference for an LLM:
// "[VERIFIED:<8-hex>] <path>" when the hash matched, else "[UNVERIFIED] <path>".
func (v VerifiedChunk) ToCitation() string {
	if v.Verified {
		return "[VERIFIED:" + v.HashPrefix + "] " + v.Path
	}
	return "[UNVERIFIED] " + v.Path
}
