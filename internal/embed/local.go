package embed

import (
	"context"
	"fmt"
	"hash/fnv"
	"regexp"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/vericore/memcore/internal/memhash"
)

// LocalEmbedder generates embeddings in-process using a deterministic,
// hash-based projection. It requires no network access and no model
// download, at the cost of reduced semantic quality relative to a learned
// embedding model.
//
// A local model is not safe for concurrent inference in the general case
// (many real local runtimes serialize on a single execution context), so
// LocalEmbedder serializes all embedding work through a single mutex and
// runs it on its own goroutine, returning early if ctx is cancelled while
// the work is still queued or in flight.
type LocalEmbedder struct {
	model string
	dims  int

	mu     sync.Mutex
	closed bool
}

// localModelDimensions catalogs the symbolic local model names this
// embedder accepts and the vector dimension each produces.
var localModelDimensions = map[string]int{
	"small":  256,
	"medium": 512,
	"large":  1024,
}

// programmingStopWords contains common programming language keywords to filter out.
var programmingStopWords = map[string]bool{
	"func": true, "function": true, "def": true, "class": true,
	"return": true, "import": true, "const": true, "var": true,
	"let": true, "int": true, "string": true, "bool": true,
	"void": true, "true": true, "false": true, "nil": true,
	"null": true, "this": true, "self": true, "new": true,
}

// Weights for vector generation.
const (
	tokenWeight = 0.7
	ngramWeight = 0.3
	ngramSize   = 3
)

// tokenRegex matches alphanumeric sequences.
var tokenRegex = regexp.MustCompile(`[a-zA-Z0-9]+`)

// NewLocalEmbedder creates a new local embedder for the symbolic model
// name in localModelDimensions ("small", "medium", "large"). Construction
// fails eagerly, listing the supported catalog, for any other name.
func NewLocalEmbedder(model string) (*LocalEmbedder, error) {
	dims, ok := localModelDimensions[model]
	if !ok {
		names := make([]string, 0, len(localModelDimensions))
		for name := range localModelDimensions {
			names = append(names, name)
		}
		sort.Strings(names)
		return nil, fmt.Errorf("local model %q not found, supported models: %s", model, strings.Join(names, ", "))
	}
	return &LocalEmbedder{model: model, dims: dims}, nil
}

// Embed generates the embedding for a single text.
func (e *LocalEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	type result struct {
		vec []float32
		err error
	}
	done := make(chan result, 1)

	go func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if e.closed {
			done <- result{err: fmt.Errorf("embedder is closed")}
			return
		}

		trimmed := strings.TrimSpace(text)
		if trimmed == "" {
			done <- result{vec: make([]float32, e.dims)}
			return
		}
		done <- result{vec: memhash.Normalize(e.generateVector(trimmed))}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-done:
		return r.vec, r.err
	}
}

// generateVector creates a hash-based vector from text.
func (e *LocalEmbedder) generateVector(text string) []float32 {
	vector := make([]float32, e.dims)

	tokens := filterStopWords(tokenize(text))
	for _, token := range tokens {
		index := hashToIndex(token, e.dims)
		vector[index] += tokenWeight
	}

	normalized := normalizeForNgrams(text)
	for _, ngram := range extractNgrams(normalized, ngramSize) {
		index := hashToIndex(ngram, e.dims)
		vector[index] += ngramWeight
	}

	return vector
}

// tokenize splits text into tokens (code-aware).
func tokenize(text string) []string {
	var tokens []string

	words := tokenRegex.FindAllString(text, -1)
	for _, word := range words {
		for _, t := range splitCodeToken(word) {
			lower := strings.ToLower(t)
			if lower != "" {
				tokens = append(tokens, lower)
			}
		}
	}

	return tokens
}

// splitCodeToken splits camelCase and snake_case identifiers.
func splitCodeToken(token string) []string {
	if strings.Contains(token, "_") {
		var result []string
		for _, part := range strings.Split(token, "_") {
			if part != "" {
				result = append(result, splitCamelCase(part)...)
			}
		}
		return result
	}

	return splitCamelCase(token)
}

// splitCamelCase splits camelCase identifiers.
func splitCamelCase(s string) []string {
	if s == "" {
		return []string{}
	}

	var result []string
	var current strings.Builder

	runes := []rune(s)
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) {
			prevIsLower := unicode.IsLower(runes[i-1])
			nextIsLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])

			if prevIsLower || nextIsLower {
				if current.Len() > 0 {
					result = append(result, current.String())
					current.Reset()
				}
			}
		}
		current.WriteRune(r)
	}

	if current.Len() > 0 {
		result = append(result, current.String())
	}

	return result
}

// filterStopWords removes programming stop words.
func filterStopWords(tokens []string) []string {
	var filtered []string
	for _, t := range tokens {
		if !programmingStopWords[t] {
			filtered = append(filtered, t)
		}
	}
	return filtered
}

// normalizeForNgrams prepares text for n-gram extraction.
func normalizeForNgrams(text string) string {
	var result strings.Builder
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// extractNgrams extracts n-character sliding windows.
func extractNgrams(text string, n int) []string {
	if len(text) < n {
		return []string{}
	}

	ngrams := make([]string, 0, len(text)-n+1)
	for i := 0; i <= len(text)-n; i++ {
		ngrams = append(ngrams, text[i:i+n])
	}
	return ngrams
}

// hashToIndex uses FNV-64 to map a string to an index.
func hashToIndex(s string, size int) int {
	h := fnv.New64()
	_, _ = h.Write([]byte(s))
	return int(h.Sum64() % uint64(size))
}

// EmbedBatch generates embeddings for multiple texts sequentially.
func (e *LocalEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	results := make([][]float32, len(texts))
	for i, text := range texts {
		emb, err := e.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("failed to embed text %d: %w", i, err)
		}
		results[i] = emb
	}

	return results, nil
}

// Dimensions returns the embedding dimension.
func (e *LocalEmbedder) Dimensions() int {
	return e.dims
}

// ModelName returns the configured symbolic model name.
func (e *LocalEmbedder) ModelName() string {
	return e.model
}

// Available reports whether the embedder is ready (always true once open).
func (e *LocalEmbedder) Available(_ context.Context) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return !e.closed
}

// Close releases resources.
func (e *LocalEmbedder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	return nil
}
