package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/vericore/memcore/internal/memhash"
	"github.com/vericore/memcore/internal/memtypes"
)

// ChunkVerifier owns the chunk_hashes table: per-chunk content hashes,
// the provenance bound to them at record time, and access statistics
// accumulated by successful verification.
type ChunkVerifier struct {
	db *DB
}

// NewChunkVerifier wraps db for hash recording and verification.
func NewChunkVerifier(db *DB) *ChunkVerifier {
	return &ChunkVerifier{db: db}
}

// ChunkInfo is the projection returned by GetChunkInfo.
type ChunkInfo struct {
	Hash         string
	Provenance   memtypes.Provenance
	AccessCount  int64
	LastAccessed *time.Time
}

// VerificationStats summarizes the chunk_hashes table: total rows and a
// per-provenance breakdown, resolving the shape spec.md left
// underspecified for stats().
type VerificationStats struct {
	TotalHashes  int
	ByProvenance map[string]int
}

// RecordHash binds a fresh content hash to chunkID, replacing any prior
// hash for that ID. The timestamp folded into the hash is generated here
// and persisted verbatim so VerifyChunk can recompute it later.
func (v *ChunkVerifier) RecordHash(ctx context.Context, chunkID, path, content string, provenance memtypes.Provenance) (string, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	hash := memhash.ChunkHash(path, content, now)

	provJSON, err := json.Marshal(provenance)
	if err != nil {
		return "", fmt.Errorf("failed to marshal provenance for chunk %s: %w", chunkID, err)
	}

	err = v.db.withLock(func(conn *sql.DB) error {
		_, err := conn.ExecContext(ctx, `
			INSERT INTO chunk_hashes (chunk_id, path, hash, timestamp, provenance_json, access_count, last_accessed, created_at)
			VALUES (?, ?, ?, ?, ?, 0, NULL, ?)
			ON CONFLICT(chunk_id) DO UPDATE SET
				path = excluded.path,
				hash = excluded.hash,
				timestamp = excluded.timestamp,
				provenance_json = excluded.provenance_json,
				access_count = 0,
				last_accessed = NULL,
				created_at = excluded.created_at
		`, chunkID, path, hash, now, string(provJSON), now)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("failed to record hash for chunk %s: %w", chunkID, err)
	}
	return hash, nil
}

// VerifyChunk recomputes chunkID's hash from (path, content) and the
// timestamp bound at record time, comparing it to the stored value. A
// match increments access_count and stamps last_accessed; a mismatch
// leaves the row untouched and only logs a warning — it is never
// propagated as an error (spec.md §7's HashMismatch is in-band).
func (v *ChunkVerifier) VerifyChunk(ctx context.Context, chunkID, path, content string) (bool, error) {
	var storedHash, timestamp string
	var matched bool
	var updateErr error
	err := v.db.withLock(func(conn *sql.DB) error {
		row := conn.QueryRowContext(ctx, `SELECT hash, timestamp FROM chunk_hashes WHERE chunk_id = ?`, chunkID)
		if err := row.Scan(&storedHash, &timestamp); err != nil {
			return err
		}
		if memhash.ChunkHash(path, content, timestamp) != storedHash {
			return nil
		}
		matched = true
		_, updateErr = conn.ExecContext(ctx, `
			UPDATE chunk_hashes
			SET access_count = access_count + 1, last_accessed = ?
			WHERE chunk_id = ?
		`, time.Now().UTC().Format(time.RFC3339Nano), chunkID)
		return nil
	})
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to load hash for chunk %s: %w", chunkID, err)
	}

	if !matched {
		slog.Warn("chunk_hash_mismatch", slog.String("chunk_id", chunkID), slog.String("path", path))
		return false, nil
	}

	if updateErr != nil {
		return false, fmt.Errorf("failed to update access stats for chunk %s: %w", chunkID, updateErr)
	}
	return true, nil
}

// GetChunkInfo loads the verification record for chunkID, or (nil, nil)
// when no hash has been recorded for it.
func (v *ChunkVerifier) GetChunkInfo(ctx context.Context, chunkID string) (*ChunkInfo, error) {
	var hash, provJSON string
	var accessCount int64
	var lastAccessed sql.NullString

	err := v.db.withLock(func(conn *sql.DB) error {
		row := conn.QueryRowContext(ctx, `
			SELECT hash, provenance_json, access_count, last_accessed
			FROM chunk_hashes WHERE chunk_id = ?`, chunkID)
		return row.Scan(&hash, &provJSON, &accessCount, &lastAccessed)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get chunk info for %s: %w", chunkID, err)
	}

	var provenance memtypes.Provenance
	if err := json.Unmarshal([]byte(provJSON), &provenance); err != nil {
		provenance = memtypes.UnknownProvenance()
	}

	info := &ChunkInfo{Hash: hash, Provenance: provenance, AccessCount: accessCount}
	if lastAccessed.Valid {
		if t, err := time.Parse(time.RFC3339Nano, lastAccessed.String); err == nil {
			info.LastAccessed = &t
		}
	}
	return info, nil
}

// RemoveHashesForPath deletes every chunk_hashes row for path, satisfying
// I4: re-indexing a path must drop its prior hashes before new ones land.
func (v *ChunkVerifier) RemoveHashesForPath(ctx context.Context, path string) (int, error) {
	var count int64
	err := v.db.withLock(func(conn *sql.DB) error {
		res, err := conn.ExecContext(ctx, `DELETE FROM chunk_hashes WHERE path = ?`, path)
		if err != nil {
			return err
		}
		count, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to remove hashes for path %s: %w", path, err)
	}
	return int(count), nil
}

// Stats summarizes the chunk_hashes table.
func (v *ChunkVerifier) Stats(ctx context.Context) (VerificationStats, error) {
	stats := VerificationStats{ByProvenance: make(map[string]int)}

	err := v.db.withLock(func(conn *sql.DB) error {
		if err := conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunk_hashes`).Scan(&stats.TotalHashes); err != nil {
			return err
		}

		rows, err := conn.QueryContext(ctx, `SELECT provenance_json FROM chunk_hashes`)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var provJSON string
			if err := rows.Scan(&provJSON); err != nil {
				return err
			}
			var provenance memtypes.Provenance
			if err := json.Unmarshal([]byte(provJSON), &provenance); err != nil {
				provenance = memtypes.UnknownProvenance()
			}
			stats.ByProvenance[provenance.String()]++
		}
		return rows.Err()
	})
	if err != nil {
		return VerificationStats{}, fmt.Errorf("failed to compute verification stats: %w", err)
	}
	return stats, nil
}
