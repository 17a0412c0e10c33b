// Package memhash implements the pure, allocation-light primitives the
// verified memory core is built on: content hashing and vector arithmetic.
// Nothing here touches a file, a socket, or a database — every function is
// deterministic given its arguments.
package memhash

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"math"
)

// ChunkHash computes the content-address for a chunk: SHA-256 over
// path, content, and timestamp joined by literal "|" separators. The
// timestamp is part of the hash so re-recording the same content at a
// later time produces a different hash (matching the verify-by-timestamp
// round trip in ChunkVerifier).
func ChunkHash(path, content, timestamp string) string {
	h := sha256.New()
	h.Write([]byte(path))
	h.Write([]byte("|"))
	h.Write([]byte(content))
	h.Write([]byte("|"))
	h.Write([]byte(timestamp))
	return hex.EncodeToString(h.Sum(nil))
}

// Normalize scales v to unit length. A zero (or near-zero) magnitude
// vector is returned unchanged rather than dividing by zero.
func Normalize(v []float32) []float32 {
	var sumSquares float64
	for _, x := range v {
		sumSquares += float64(x) * float64(x)
	}
	magnitude := math.Sqrt(sumSquares)
	if magnitude <= 1e-10 {
		return v
	}
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / magnitude)
	}
	return out
}

// Cosine computes the cosine similarity of two vectors. Vectors are
// assumed to already be unit length, so this reduces to a dot product.
// Mismatched lengths never panic — they score 0, the same as an
// orthogonal pair, which keeps callers from having to special-case
// dimension drift between embedder versions.
func Cosine(a, b []float32) float32 {
	if len(a) != len(b) {
		return 0
	}
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

// SerializeEmbedding encodes an embedding as a JSON array string. A nil
// or unmarshalable vector degrades to "[]" rather than returning an error
// — embeddings are reconstructible from source text, so a malformed write
// here should not abort whatever batch is in flight.
func SerializeEmbedding(embedding []float32) string {
	if embedding == nil {
		return "[]"
	}
	b, err := json.Marshal(embedding)
	if err != nil {
		return "[]"
	}
	return string(b)
}

// DeserializeEmbedding decodes a JSON array string back into an
// embedding. Malformed or empty input degrades to an empty slice instead
// of an error, matching SerializeEmbedding's graceful-degradation
// contract.
func DeserializeEmbedding(data string) []float32 {
	var out []float32
	if err := json.Unmarshal([]byte(data), &out); err != nil {
		return []float32{}
	}
	return out
}
