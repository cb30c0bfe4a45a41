// Package openai embeds text with the OpenAI embeddings API.
package openai

import (
	"context"
	"errors"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// ErrUnknownModel is returned for a model id with no known OpenAI model.
var ErrUnknownModel = errors.New("unknown embedding model")

type model struct {
	name       openai.EmbeddingModel
	dimensions int
}

// Short ids are accepted next to the full OpenAI model names.
var models = map[string]model{
	"3-small": {openai.EmbeddingModelTextEmbedding3Small, 1536},
	"3-large": {openai.EmbeddingModelTextEmbedding3Large, 3072},
	"ada-002": {openai.EmbeddingModelTextEmbeddingAda002, 1536},
}

// Embedder calls the OpenAI embeddings endpoint once per text.
type Embedder struct {
	client     openai.Client
	model      openai.EmbeddingModel
	dimensions int
}

// New creates an embedder for modelID ("3-small", "3-large", "ada-002" or a
// full model name such as "text-embedding-3-small"). Request options are
// passed to the OpenAI client; without option.WithAPIKey the client reads
// OPENAI_API_KEY.
func New(modelID string, opts ...option.RequestOption) (*Embedder, error) {
	m, err := resolve(modelID)
	if err != nil {
		return nil, err
	}

	return &Embedder{
		client:     openai.NewClient(opts...),
		model:      m.name,
		dimensions: m.dimensions,
	}, nil
}

func resolve(modelID string) (model, error) {
	id := strings.TrimSpace(modelID)
	if m, ok := models[id]; ok {
		return m, nil
	}
	for _, m := range models {
		if string(m.name) == id {
			return m, nil
		}
	}
	return model{}, goerr.Wrap(ErrUnknownModel, "cannot create OpenAI embedder", goerr.Value("model_id", modelID))
}

// Embed converts text to an embedding vector.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfString: openai.String(text)},
		Model: e.model,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create embedding", goerr.Value("model", string(e.model)))
	}
	if len(resp.Data) == 0 {
		return nil, goerr.New("no embedding data returned", goerr.Value("model", string(e.model)))
	}

	values := resp.Data[0].Embedding
	vec := make([]float32, len(values))
	for i, v := range values {
		vec[i] = float32(v)
	}
	return vec, nil
}

// Dimensions returns the model's embedding vector size.
func (e *Embedder) Dimensions() int {
	return e.dimensions
}

// Model returns the OpenAI model name requests are sent with.
func (e *Embedder) Model() string {
	return string(e.model)
}
