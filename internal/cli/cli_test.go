package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/becomeliminal/nim-memory/memory"
	"github.com/becomeliminal/nim-memory/memory/embedder/mock"
)

// embeddingServer serves OpenAI-style embeddings computed by a mock embedder,
// so every CLI invocation in a test shares one vocabulary.
func embeddingServer(t *testing.T) string {
	t.Helper()
	embedder := mock.New()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Input string `json:"input"`
			Model string `json:"model"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		vec, err := embedder.Embed(r.Context(), req.Input)
		require.NoError(t, err)

		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(map[string]interface{}{
			"object": "list",
			"model":  req.Model,
			"data": []map[string]interface{}{
				{"object": "embedding", "index": 0, "embedding": vec},
			},
			"usage": map[string]int{"prompt_tokens": 1, "total_tokens": 1},
		}))
	}))
	t.Cleanup(srv.Close)
	return srv.URL
}

type harness struct {
	t     *testing.T
	flags []string
}

func newHarness(t *testing.T) *harness {
	return &harness{
		t: t,
		flags: []string{
			"--database", filepath.Join(t.TempDir(), "embeddings.db"),
			"--openai-base-url", embeddingServer(t),
			"--openai-api-key", "test-key",
			"--log-level", "error",
		},
	}
}

func (h *harness) run(stdin string, command []string, args ...string) (string, *Error) {
	h.t.Helper()
	argv := append([]string{"nim-memory"}, command...)
	argv = append(argv, h.flags...)
	argv = append(argv, args...)

	var stdout, stderr bytes.Buffer
	err := run(context.Background(), argv, strings.NewReader(stdin), &stdout, &stderr)
	return stdout.String(), err
}

func (h *harness) seed() {
	h.t.Helper()
	for _, m := range []struct{ id, text string }{
		{"the magic number", "The magic number is 42"},
		{"hobbies", "Baseball is my favorite sport"},
		{"food", "I dislike anchovies"},
	} {
		_, err := h.run("", []string{"create", "--id", m.id}, m.text)
		require.Nil(h.t, err)
	}
}

func (h *harness) search(extra ...string) []memory.Entry {
	h.t.Helper()
	command := append([]string{"search", "--json"}, extra...)
	out, err := h.run("", command, "What is the magic number?")
	require.Nil(h.t, err)

	var entries []memory.Entry
	require.NoError(h.t, json.Unmarshal([]byte(out), &entries))
	return entries
}

func TestCreateAndSearch(t *testing.T) {
	h := newHarness(t)
	h.seed()

	entries := h.search()
	require.Len(t, entries, 1)
	assert.Equal(t, "the magic number", entries[0].ID)
	assert.Equal(t, "The magic number is 42", entries[0].Content)
	assert.Contains(t, entries[0].Metadata, memory.MetadataCreatedAt)

	_, err := h.run("", []string{"create", "--id", "the magic number"}, "The magic number is 43")
	require.Nil(t, err)

	entries = h.search()
	require.Len(t, entries, 1)
	assert.Equal(t, "The magic number is 43", entries[0].Content)
}

func TestSearchThresholdFlag(t *testing.T) {
	h := newHarness(t)
	h.seed()

	entries := h.search("--threshold", "0")
	require.Len(t, entries, 3)
	assert.Equal(t, "the magic number", entries[0].ID)

	entries = h.search("--threshold", "0", "--number", "2")
	assert.Len(t, entries, 2)
}

func TestSearchConfigFile(t *testing.T) {
	h := newHarness(t)
	h.seed()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("search_relevance_threshold: 0\n"), 0o600))

	assert.Len(t, h.search("--config", path), 3)
	// Flags take precedence over the file.
	assert.Len(t, h.search("--config", path, "--threshold", "0.5"), 1)
}

func TestSearchText(t *testing.T) {
	h := newHarness(t)

	out, err := h.run("", []string{"search"}, "anything")
	require.Nil(t, err)
	assert.Equal(t, "No relevant memories found\n", out)

	h.seed()
	out, err = h.run("", []string{"search"}, "What is the magic number?")
	require.Nil(t, err)
	assert.Equal(t, "0.8333\tthe magic number\tThe magic number is 42\n", out)

	_, err = h.run("", []string{"search"})
	require.NotNil(t, err)
	assert.Equal(t, 1, err.Code)
}

func TestCreateFromStdin(t *testing.T) {
	h := newHarness(t)

	out, err := h.run("The magic number is 42\n", []string{"create"})
	require.Nil(t, err)
	assert.Equal(t, "Stored memory\n", out)

	entries := h.search()
	require.Len(t, entries, 1)
	assert.True(t, strings.HasPrefix(entries[0].ID, "Memory created at "), entries[0].ID)
	assert.Equal(t, "The magic number is 42", entries[0].Content)
}

func TestExport(t *testing.T) {
	h := newHarness(t)
	h.seed()

	path := filepath.Join(t.TempDir(), "backup.gob")
	out, err := h.run("", []string{"export", "--output", path})
	require.Nil(t, err)
	assert.Contains(t, out, "Exported 3 memories")

	info, statErr := os.Stat(path)
	require.NoError(t, statErr)
	assert.Greater(t, info.Size(), int64(0))
}

func TestToolsList(t *testing.T) {
	var stdout bytes.Buffer
	err := run(context.Background(), []string{"nim-memory", "tools", "list"}, strings.NewReader(""), &stdout, &bytes.Buffer{})
	require.Nil(t, err)

	var defs []struct {
		Name string `json:"name"`
	}
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &defs))
	require.Len(t, defs, 2)
	assert.Equal(t, "create_memory", defs[0].Name)
	assert.Equal(t, "search_memory", defs[1].Name)

	stdout.Reset()
	err = run(context.Background(), []string{"nim-memory", "tools", "list", "--anthropic"}, strings.NewReader(""), &stdout, &bytes.Buffer{})
	require.Nil(t, err)
	assert.Contains(t, stdout.String(), `"input_schema"`)
}

func TestToolsCall(t *testing.T) {
	h := newHarness(t)
	h.seed()

	out, err := h.run("", []string{"tools", "call"}, "search_memory", `{"query": "What is the magic number?", "number": 1}`)
	require.Nil(t, err)

	var entries []memory.Entry
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "the magic number", entries[0].ID)

	_, err = h.run("", []string{"tools", "call"}, "drop_table", `{}`)
	require.NotNil(t, err)
	assert.Contains(t, err.Message, "unknown tool")
}

func TestUnknownEmbedder(t *testing.T) {
	h := newHarness(t)

	_, err := h.run("", []string{"search", "--embedder", "word2vec"}, "query")
	require.NotNil(t, err)
	assert.Contains(t, err.Message, "unknown embedder")
}

func TestUnknownModel(t *testing.T) {
	h := newHarness(t)

	_, err := h.run("", []string{"search", "--model", "gpt-4o"}, "query")
	require.NotNil(t, err)
	assert.Contains(t, err.Message, "unknown embedding model")
}
