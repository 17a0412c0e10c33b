package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vericore/memcore/internal/memhash"
	"github.com/vericore/memcore/internal/memtypes"
)

// ChunkStore persists Chunk rows in the chunks table. It shares its
// connection and mutex with ChunkVerifier via DB.
type ChunkStore struct {
	db *DB
}

// NewChunkStore wraps db for chunk persistence.
func NewChunkStore(db *DB) *ChunkStore {
	return &ChunkStore{db: db}
}

// Insert writes chunk atomically, allocating a chunk_id via uuid when the
// caller left one unset.
func (s *ChunkStore) Insert(ctx context.Context, chunk memtypes.Chunk) (string, error) {
	if chunk.ChunkID == "" {
		chunk.ChunkID = uuid.NewString()
	}

	err := s.db.withLock(func(conn *sql.DB) error {
		_, err := conn.ExecContext(ctx, `
			INSERT INTO chunks (chunk_id, path, line_start, line_end, content, embedding_json, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(chunk_id) DO UPDATE SET
				path = excluded.path,
				line_start = excluded.line_start,
				line_end = excluded.line_end,
				content = excluded.content,
				embedding_json = excluded.embedding_json,
				created_at = excluded.created_at
		`,
			chunk.ChunkID, chunk.Path, chunk.LineStart, chunk.LineEnd,
			chunk.Content, memhash.SerializeEmbedding(chunk.Embedding), chunk.CreatedAt.UTC().Format(time.RFC3339Nano),
		)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("failed to insert chunk %s: %w", chunk.ChunkID, err)
	}
	return chunk.ChunkID, nil
}

// Get loads a single chunk by ID. It returns (nil, nil) when absent.
func (s *ChunkStore) Get(ctx context.Context, chunkID string) (*memtypes.Chunk, error) {
	var row chunkRow
	err := s.db.withLock(func(conn *sql.DB) error {
		r := conn.QueryRowContext(ctx, `
			SELECT chunk_id, path, line_start, line_end, content, embedding_json, created_at
			FROM chunks WHERE chunk_id = ?`, chunkID)
		return row.scan(r)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get chunk %s: %w", chunkID, err)
	}
	c := row.toChunk()
	return &c, nil
}

// ListByPath returns every chunk for path, ordered by (line_start, line_end).
func (s *ChunkStore) ListByPath(ctx context.Context, path string) ([]memtypes.Chunk, error) {
	var chunks []memtypes.Chunk
	err := s.db.withLock(func(conn *sql.DB) error {
		rows, err := conn.QueryContext(ctx, `
			SELECT chunk_id, path, line_start, line_end, content, embedding_json, created_at
			FROM chunks WHERE path = ?
			ORDER BY line_start, line_end`, path)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var row chunkRow
			if err := row.scanRows(rows); err != nil {
				return err
			}
			chunks = append(chunks, row.toChunk())
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list chunks for path %s: %w", path, err)
	}
	return chunks, nil
}

// DeleteByPath removes every chunk for path and returns the count removed.
func (s *ChunkStore) DeleteByPath(ctx context.Context, path string) (int, error) {
	var count int64
	err := s.db.withLock(func(conn *sql.DB) error {
		res, err := conn.ExecContext(ctx, `DELETE FROM chunks WHERE path = ?`, path)
		if err != nil {
			return err
		}
		count, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to delete chunks for path %s: %w", path, err)
	}
	return int(count), nil
}

// ScanCandidates enumerates up to limit chunks for cosine scoring. When
// filter is non-nil it is applied as a cheap lexical prefilter — it may
// narrow the scan but must never be the sole reason a chunk is excluded
// on embedding grounds; the caller still scores every returned chunk.
func (s *ChunkStore) ScanCandidates(ctx context.Context, limit int, filter func(content string) bool) ([]memtypes.Chunk, error) {
	var chunks []memtypes.Chunk
	err := s.db.withLock(func(conn *sql.DB) error {
		rows, err := conn.QueryContext(ctx, `
			SELECT chunk_id, path, line_start, line_end, content, embedding_json, created_at
			FROM chunks`)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			if len(chunks) >= limit {
				break
			}
			var row chunkRow
			if err := row.scanRows(rows); err != nil {
				return err
			}
			if filter != nil && !filter(row.content) {
				continue
			}
			chunks = append(chunks, row.toChunk())
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan candidates: %w", err)
	}
	return chunks, nil
}

// chunkRow is the scan target shared by Get/ListByPath/ScanCandidates.
type chunkRow struct {
	chunkID   string
	path      string
	lineStart int
	lineEnd   int
	content   string
	embJSON   string
	createdAt string
}

type scanner interface {
	Scan(dest ...any) error
}

func (r *chunkRow) scan(row scanner) error {
	return row.Scan(&r.chunkID, &r.path, &r.lineStart, &r.lineEnd, &r.content, &r.embJSON, &r.createdAt)
}

func (r *chunkRow) scanRows(rows *sql.Rows) error {
	return r.scan(rows)
}

func (r *chunkRow) toChunk() memtypes.Chunk {
	c := memtypes.Chunk{
		ChunkID:   r.chunkID,
		Path:      r.path,
		LineStart: r.lineStart,
		LineEnd:   r.lineEnd,
		Content:   r.content,
		Embedding: memhash.DeserializeEmbedding(r.embJSON),
	}
	if t, err := time.Parse(time.RFC3339Nano, r.createdAt); err == nil {
		c.CreatedAt = t
	}
	return c
}
