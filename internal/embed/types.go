package embed

import (
	"context"
	"time"
)

// Embedding provider constants.
const (
	// MinBatchSize is the minimum allowed batch size.
	MinBatchSize = 1

	// MaxBatchSize is the maximum allowed batch size (prevents memory exhaustion).
	MaxBatchSize = 256

	// DefaultBatchSize is the default batch size for embedding requests.
	DefaultBatchSize = 32

	// DefaultTimeout is the default timeout for a remote embedding request.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxRetries is the default number of retry attempts for a
	// remote embedding request.
	DefaultMaxRetries = 3
)

// Embedder generates vector embeddings for text. Implementations must be
// safe for concurrent use.
type Embedder interface {
	// Embed generates the embedding for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts in one call.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding dimension produced by this provider.
	Dimensions() int

	// ModelName returns the model identifier, used as part of the cache key.
	ModelName() string

	// Available reports whether the provider is ready to serve requests.
	Available(ctx context.Context) bool

	// Close releases any resources (connections, file locks) held by the
	// provider.
	Close() error
}
