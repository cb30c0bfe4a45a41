// Package cached memoizes embeddings in front of another memory.Embedder.
// Re-embedding unchanged text, such as rewriting a memory with the same
// content or repeating a query, then costs no model call.
package cached

import (
	"context"

	"github.com/dgraph-io/ristretto"
	"github.com/m-mizutani/goerr/v2"

	"github.com/becomeliminal/nim-memory/memory"
)

// Config sizes the cache.
type Config struct {
	// MaxBytes bounds the total size of cached vectors.
	// Default: 64 MiB
	MaxBytes int64

	// NumCounters is the number of keys tracked for admission.
	// Default: 100,000 (about 10x the expected item count)
	NumCounters int64
}

// Embedder wraps an embedder with a ristretto cache keyed by text.
type Embedder struct {
	next  memory.Embedder
	cache *ristretto.Cache
}

// New wraps next. A zero Config uses the defaults.
func New(next memory.Embedder, cfg Config) (*Embedder, error) {
	if next == nil {
		return nil, goerr.New("embedder is required")
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = 64 << 20
	}
	if cfg.NumCounters <= 0 {
		cfg.NumCounters = 100_000
	}

	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: cfg.NumCounters,
		MaxCost:     cfg.MaxBytes,
		BufferItems: 64,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create embedding cache")
	}

	return &Embedder{next: next, cache: cache}, nil
}

// Embed returns the cached vector for text, computing it on a miss.
// Callers get their own copy of the vector.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if v, ok := e.cache.Get(text); ok {
		if vec, ok := v.([]float32); ok {
			return clone(vec), nil
		}
	}

	vec, err := e.next.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	e.cache.Set(text, clone(vec), int64(len(vec)*4))
	return vec, nil
}

// Dimensions returns the wrapped embedder's vector size.
func (e *Embedder) Dimensions() int {
	return e.next.Dimensions()
}

// Wait blocks until pending cache writes are applied.
func (e *Embedder) Wait() {
	e.cache.Wait()
}

// Close stops the cache's background goroutines.
func (e *Embedder) Close() error {
	e.cache.Close()
	return nil
}

func clone(vec []float32) []float32 {
	out := make([]float32, len(vec))
	copy(out, vec)
	return out
}
