package memory

import (
	"context"
)

// MetadataCreatedAt is the metadata key holding the write timestamp.
const MetadataCreatedAt = "created_at_utc"

// Entry is one search hit returned by a Collection.
// Its JSON form is the flat record handed to tool callers.
type Entry struct {
	ID       string            `json:"id"`
	Score    float64           `json:"score"`
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata"`
}

// Collection is the vector storage backend interface.
// Implementations: chromem.Collection (embedded, optionally persistent).
type Collection interface {
	// Embed upserts an entry. The embedding is computed from value by the
	// collection's embedder, replacing any previous vector for id.
	Embed(ctx context.Context, id string, value string, metadata map[string]string) error

	// Similar returns up to number entries ranked by descending similarity to
	// query. An empty collection yields no entries and no error.
	Similar(ctx context.Context, query string, number int) ([]Entry, error)
}

// Embedder converts text to vector embeddings.
// Implementations: mock (testing), openai, gemini, onnx, and cached which
// wraps any of them.
//
// Note: Embedder is an implementation detail of Collection.
// The Store does not interact with Embedder directly.
type Embedder interface {
	// Embed converts a single text to embedding vector.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns embedding vector size.
	Dimensions() int
}
