package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vericore/memcore/internal/memhash"
)

// remoteBatchConcurrency bounds how many batch-chunk requests EmbedBatch
// issues to the remote service at once.
const remoteBatchConcurrency = 4

// remoteFallbackDimensions is used for any model name not in
// remoteModelDimensions.
const remoteFallbackDimensions = 1536

// remoteModelDimensions maps known remote model names to their fixed
// output dimension, so a model's dimensionality is known before the first
// request rather than negotiated from a response.
var remoteModelDimensions = map[string]int{
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
	"text-embedding-ada-002": 1536,
}

// dimensionsForModel looks up model in remoteModelDimensions, falling back
// to remoteFallbackDimensions for unrecognized names.
func dimensionsForModel(model string) int {
	if d, ok := remoteModelDimensions[model]; ok {
		return d
	}
	return remoteFallbackDimensions
}

// RemoteConfig configures a RemoteEmbedder.
type RemoteConfig struct {
	// BaseURL is the embedding service root; requests POST to
	// <BaseURL>/embeddings.
	BaseURL string
	// APIKey, if set, is sent as "Authorization: Bearer <APIKey>".
	APIKey string
	Model  string
	// Dimensions overrides the model→dimension table, for a model name
	// not in it. Leave 0 to use the table (falling back to
	// remoteFallbackDimensions for an unrecognized model).
	Dimensions int
	BatchSize  int
	Timeout    time.Duration
	MaxRetries int
}

// RemoteEmbedder generates embeddings via a remote HTTP service exposing a
// POST {base_url}/embeddings endpoint, request body
// {"model": "...", "input": ["..."]}, response body
// {"data": [{"embedding": [...]}]}. This mirrors the widely used
// OpenAI-compatible embeddings contract.
type RemoteEmbedder struct {
	client *http.Client
	cfg    RemoteConfig

	mu     sync.RWMutex
	dims   int
	closed bool
}

var _ Embedder = (*RemoteEmbedder)(nil)

// NewRemoteEmbedder creates a new remote embedder. It does not perform a
// network round trip; the dimension is fixed at construction from
// cfg.Dimensions or the model→dimension table, and is never renegotiated
// from a response.
func NewRemoteEmbedder(cfg RemoteConfig) (*RemoteEmbedder, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("remote embedder requires a base URL")
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	if cfg.Dimensions <= 0 {
		cfg.Dimensions = dimensionsForModel(cfg.Model)
	}

	transport := &http.Transport{
		MaxIdleConns:        16,
		MaxIdleConnsPerHost: 16,
		IdleConnTimeout:     10 * time.Second,
	}

	return &RemoteEmbedder{
		client: &http.Client{Transport: transport},
		cfg:    cfg,
		dims:   cfg.Dimensions,
	}, nil
}

type embeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// Embed generates the embedding for a single text.
func (e *RemoteEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch generates embeddings for multiple texts, chunking the request
// into cfg.BatchSize-sized groups and sending up to remoteBatchConcurrency
// groups to the service concurrently, each retried independently with
// exponential backoff.
func (e *RemoteEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	e.mu.RLock()
	closed := e.closed
	e.mu.RUnlock()
	if closed {
		return nil, fmt.Errorf("embedder is closed")
	}
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	type chunkRange struct{ start, end int }
	var chunks []chunkRange
	for start := 0; start < len(texts); start += e.cfg.BatchSize {
		end := start + e.cfg.BatchSize
		if end > len(texts) {
			end = len(texts)
		}
		chunks = append(chunks, chunkRange{start, end})
	}

	results := make([][]float32, len(texts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(remoteBatchConcurrency)

	for _, c := range chunks {
		c := c
		g.Go(func() error {
			var batch [][]float32
			retryCfg := DefaultRetryConfig()
			retryCfg.MaxRetries = e.cfg.MaxRetries
			err := DownloadWithRetry(gctx, retryCfg, func() error {
				var doErr error
				batch, doErr = e.doEmbed(gctx, texts[c.start:c.end])
				return doErr
			})
			if err != nil {
				return err
			}
			copy(results[c.start:c.end], batch)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (e *RemoteEmbedder) doEmbed(ctx context.Context, texts []string) ([][]float32, error) {
	reqCtx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	body, err := json.Marshal(embeddingRequest{Model: e.cfg.Model, Input: texts})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal embedding request: %w", err)
	}

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, e.cfg.BaseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if e.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.cfg.APIKey)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach embedding service: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("embedding service returned %d: %s", resp.StatusCode, string(respBody))
	}

	var parsed embeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode embedding response: %w", err)
	}
	if len(parsed.Data) != len(texts) {
		return nil, fmt.Errorf("embedding service returned %d embeddings for %d inputs", len(parsed.Data), len(texts))
	}

	vecs := make([][]float32, len(parsed.Data))
	for i, d := range parsed.Data {
		vecs[i] = memhash.Normalize(d.Embedding)
	}

	return vecs, nil
}

// Dimensions returns the embedding dimension fixed at construction time.
func (e *RemoteEmbedder) Dimensions() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.dims
}

// ModelName returns the configured model identifier.
func (e *RemoteEmbedder) ModelName() string {
	return e.cfg.Model
}

// Available probes the service with a minimal request.
func (e *RemoteEmbedder) Available(ctx context.Context) bool {
	e.mu.RLock()
	if e.closed {
		e.mu.RUnlock()
		return false
	}
	e.mu.RUnlock()

	probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	_, err := e.doEmbed(probeCtx, []string{"ping"})
	return err == nil
}

// Close releases pooled connections.
func (e *RemoteEmbedder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	if transport, ok := e.client.Transport.(*http.Transport); ok {
		transport.CloseIdleConnections()
	}
	return nil
}
