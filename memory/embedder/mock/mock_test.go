package mock_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/becomeliminal/nim-memory/memory/embedder/mock"
)

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func TestMockEmbedder_Deterministic(t *testing.T) {
	ctx := context.Background()
	e := mock.New()

	a, err := e.Embed(ctx, "The magic number is 42")
	require.NoError(t, err)
	b, err := e.Embed(ctx, "the MAGIC number is 42!")
	require.NoError(t, err)

	assert.Len(t, a, 384)
	assert.Equal(t, a, b)
	assert.InDelta(t, 1.0, cosine(a, a), 1e-6)
}

func TestMockEmbedder_OverlapDrivesSimilarity(t *testing.T) {
	ctx := context.Background()
	e := mock.New()

	query, err := e.Embed(ctx, "What is the magic number?")
	require.NoError(t, err)
	magic, err := e.Embed(ctx, "The magic number is 42")
	require.NoError(t, err)
	sport, err := e.Embed(ctx, "Baseball is my favorite sport")
	require.NoError(t, err)
	food, err := e.Embed(ctx, "I dislike anchovies")
	require.NoError(t, err)

	// 4 shared words of 5, plus the bias dimension.
	assert.InDelta(t, 5.0/6.0, cosine(query, magic), 1e-6)
	assert.InDelta(t, 2.0/6.0, cosine(query, sport), 1e-6)
	assert.InDelta(t, 1.0/math.Sqrt(24), cosine(query, food), 1e-6)
	assert.Greater(t, cosine(query, food), 0.0)
}

func TestMockEmbedder_EmptyText(t *testing.T) {
	e := mock.NewWithDimensions(8)

	vec, err := e.Embed(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0, 0, 0, 0, 0, 0, 0}, vec)
}

func TestMockEmbedder_VocabularyFull(t *testing.T) {
	e := mock.NewWithDimensions(3)

	_, err := e.Embed(context.Background(), "one two")
	require.NoError(t, err)

	_, err = e.Embed(context.Background(), "three")
	require.Error(t, err)
	assert.True(t, errors.Is(err, mock.ErrVocabularyFull))
	assert.Equal(t, 3, e.Dimensions())
}

func TestMockEmbedder_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := mock.New().Embed(ctx, "anything")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"what", "is", "the", "magic", "number"}, mock.Tokenize("What is the magic number?"))
	assert.Empty(t, mock.Tokenize("  ?! "))
}
