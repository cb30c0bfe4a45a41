package openai_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/openai/openai-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/becomeliminal/nim-memory/memory"
	"github.com/becomeliminal/nim-memory/memory/embedder/openai"
)

var _ memory.Embedder = (*openai.Embedder)(nil)

func newTestServer(t *testing.T, handler http.HandlerFunc) []option.RequestOption {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return []option.RequestOption{
		option.WithBaseURL(srv.URL + "/"),
		option.WithAPIKey("test-key"),
		option.WithMaxRetries(0),
	}
}

func TestEmbedder_Embed(t *testing.T) {
	var got struct {
		Model string `json:"model"`
		Input string `json:"input"`
	}
	opts := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"object": "list",
			"data": [{"object": "embedding", "index": 0, "embedding": [0.25, -0.5, 1]}],
			"model": "text-embedding-3-small",
			"usage": {"prompt_tokens": 5, "total_tokens": 5}
		}`))
	})

	e, err := openai.New("3-small", opts...)
	require.NoError(t, err)

	vec, err := e.Embed(context.Background(), "The magic number is 42")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.25, -0.5, 1}, vec)
	assert.Equal(t, "text-embedding-3-small", got.Model)
	assert.Equal(t, "The magic number is 42", got.Input)
	assert.Equal(t, 1536, e.Dimensions())
}

func TestEmbedder_APIError(t *testing.T) {
	opts := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error": {"message": "model overloaded", "type": "server_error"}}`))
	})

	e, err := openai.New("3-small", opts...)
	require.NoError(t, err)

	_, err = e.Embed(context.Background(), "hello")
	assert.Error(t, err)
}

func TestEmbedder_EmptyData(t *testing.T) {
	opts := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object": "list", "data": [], "model": "text-embedding-3-small", "usage": {"prompt_tokens": 0, "total_tokens": 0}}`))
	})

	e, err := openai.New("3-small", opts...)
	require.NoError(t, err)

	_, err = e.Embed(context.Background(), "hello")
	assert.Error(t, err)
}

func TestNew_Models(t *testing.T) {
	testCases := []struct {
		id    string
		model string
		dims  int
	}{
		{"3-small", "text-embedding-3-small", 1536},
		{"3-large", "text-embedding-3-large", 3072},
		{"ada-002", "text-embedding-ada-002", 1536},
		{"text-embedding-3-large", "text-embedding-3-large", 3072},
	}
	for _, tc := range testCases {
		t.Run(tc.id, func(t *testing.T) {
			e, err := openai.New(tc.id, option.WithAPIKey("test-key"))
			require.NoError(t, err)
			assert.Equal(t, tc.model, e.Model())
			assert.Equal(t, tc.dims, e.Dimensions())
		})
	}

	_, err := openai.New("gpt-4o", option.WithAPIKey("test-key"))
	assert.ErrorIs(t, err, openai.ErrUnknownModel)
}
