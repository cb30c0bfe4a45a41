package mock

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync"
	"unicode"

	"github.com/m-mizutani/goerr/v2"
)

// ErrVocabularyFull is returned when a text introduces more distinct words
// than the embedder has dimensions for.
var ErrVocabularyFull = errors.New("mock embedder vocabulary is full")

// MockEmbedder is a bag-of-words embedder for testing.
// Every distinct lower-cased word gets its own dimension the first time it is
// seen, so the cosine similarity of two texts reflects their word overlap.
// Dimension 0 is a constant bias: unrelated texts still score slightly above
// zero instead of being orthogonal.
//
// Word indexes are assigned per instance. Vectors from two instances are not
// comparable, so share one MockEmbedder across everything that reads and
// writes a collection.
type MockEmbedder struct {
	dimensions int

	mu    sync.Mutex
	vocab map[string]int
}

// New creates a new mock embedder.
func New() *MockEmbedder {
	return NewWithDimensions(384) // Match all-MiniLM-L6-v2 dimensions
}

// NewWithDimensions creates a mock embedder with room for dims-1 words.
func NewWithDimensions(dims int) *MockEmbedder {
	if dims < 2 {
		dims = 2
	}
	return &MockEmbedder{
		dimensions: dims,
		vocab:      make(map[string]int),
	}
}

// Embed creates a deterministic embedding from the words of text.
func (m *MockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	embedding := make([]float32, m.dimensions)
	embedding[0] = 1

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, word := range Tokenize(text) {
		idx, ok := m.vocab[word]
		if !ok {
			idx = len(m.vocab) + 1
			if idx >= m.dimensions {
				return nil, goerr.Wrap(ErrVocabularyFull, "cannot embed text",
					goerr.Value("word", word),
					goerr.Value("dimensions", m.dimensions),
				)
			}
			m.vocab[word] = idx
		}
		embedding[idx]++
	}

	return normalize(embedding), nil
}

// Dimensions returns the embedding size.
func (m *MockEmbedder) Dimensions() int {
	return m.dimensions
}

// Tokenize splits text into lower-cased words, dropping punctuation.
func Tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// normalize converts embedding to unit vector.
func normalize(vec []float32) []float32 {
	var norm float32
	for _, v := range vec {
		norm += v * v
	}

	if norm == 0 {
		return vec
	}

	norm = float32(math.Sqrt(float64(norm)))
	normalized := make([]float32, len(vec))
	for i, v := range vec {
		normalized[i] = v / norm
	}

	return normalized
}
