package embed

import (
	"fmt"

	"github.com/vericore/memcore/internal/config"
)

// New constructs the configured Embedder variant, wrapped in an LRU cache.
func New(cfg config.EmbeddingsConfig) (Embedder, error) {
	var inner Embedder

	switch cfg.Provider {
	case "remote":
		e, err := NewRemoteEmbedder(RemoteConfig{
			BaseURL:    cfg.RemoteBaseURL,
			APIKey:     cfg.RemoteAPIKey,
			Model:      cfg.Model,
			BatchSize:  cfg.BatchSize,
			Timeout:    cfg.RemoteTimeout,
			MaxRetries: DefaultMaxRetries,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create remote embedder: %w", err)
		}
		inner = e
	case "local":
		model := cfg.LocalModelPath
		if model == "" {
			model = cfg.Model
		}
		e, err := NewLocalEmbedder(model)
		if err != nil {
			return nil, fmt.Errorf("failed to create local embedder: %w", err)
		}
		inner = e
	default:
		return nil, fmt.Errorf("unknown embeddings provider %q", cfg.Provider)
	}

	return NewCachedEmbedder(inner, cfg.CacheSize), nil
}
