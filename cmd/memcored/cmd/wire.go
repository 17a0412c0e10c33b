package cmd

import (
	"fmt"
	"os"

	"github.com/vericore/memcore/internal/config"
	"github.com/vericore/memcore/internal/embed"
	"github.com/vericore/memcore/internal/retriever"
	"github.com/vericore/memcore/internal/store"
)

// core bundles the wired components a CLI command needs, scoped to one
// agent's configuration and database.
type core struct {
	cfg      *config.Config
	db       *store.DB
	chunks   *store.ChunkStore
	verifier *store.ChunkVerifier
	search   *retriever.Retriever
	embedder embed.Embedder
}

// openCore loads configuration for agentID, opens its SQLite store, and
// constructs the embedder/retriever wiring shared by every subcommand.
func openCore() (*core, error) {
	dir, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to determine working directory: %w", err)
	}

	cfg, err := config.Load(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if agentID != "" {
		cfg.AgentID = agentID
	}

	db, err := store.Open(cfg.DBPath())
	if err != nil {
		return nil, fmt.Errorf("failed to open store at %s: %w", cfg.DBPath(), err)
	}

	embedder, err := embed.New(cfg.Embeddings)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to construct embedder: %w", err)
	}

	chunks := store.NewChunkStore(db)
	verifier := store.NewChunkVerifier(db)
	search := retriever.New(chunks, verifier, embedder)

	return &core{
		cfg:      cfg,
		db:       db,
		chunks:   chunks,
		verifier: verifier,
		search:   search,
		embedder: embedder,
	}, nil
}

// Close releases the store connection and embedder.
func (c *core) Close() {
	_ = c.embedder.Close()
	_ = c.db.Close()
}
