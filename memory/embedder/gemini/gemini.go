// Package gemini embeds text with Google's Gemini embedding models, through
// either the Gemini API or Vertex AI.
package gemini

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/genai"
)

const (
	// DefaultModel is the embedding model used when Config.Model is empty.
	DefaultModel = "gemini-embedding-001"

	// DefaultDimensions is the native output size of DefaultModel.
	DefaultDimensions = 3072
)

// Config selects the backend and model. Setting Project targets Vertex AI;
// otherwise APIKey is used against the Gemini API.
type Config struct {
	APIKey   string
	Project  string
	Location string
	Model    string

	// Dimensions truncates the output vector. Zero keeps the model's size.
	Dimensions int

	// BaseURL overrides the service endpoint.
	BaseURL string
}

// Embedder calls EmbedContent once per text.
type Embedder struct {
	client     *genai.Client
	model      string
	dimensions int
}

// New creates an embedder from cfg.
func New(ctx context.Context, cfg Config) (*Embedder, error) {
	clientCfg := &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{BaseURL: cfg.BaseURL},
	}
	switch {
	case cfg.Project != "":
		if cfg.Location == "" {
			return nil, goerr.New("location is required for Vertex AI", goerr.Value("project", cfg.Project))
		}
		clientCfg.Backend = genai.BackendVertexAI
		clientCfg.Project = cfg.Project
		clientCfg.Location = cfg.Location
	case cfg.APIKey != "":
		clientCfg.Backend = genai.BackendGeminiAPI
		clientCfg.APIKey = cfg.APIKey
	default:
		return nil, goerr.New("either an API key or a Vertex AI project is required")
	}
	if cfg.Dimensions < 0 {
		return nil, goerr.New("dimensions must not be negative", goerr.Value("dimensions", cfg.Dimensions))
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create genai client")
	}

	e := &Embedder{
		client:     client,
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
	}
	if e.model == "" {
		e.model = DefaultModel
	}
	return e, nil
}

// Embed converts text to an embedding vector.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	embedCfg := &genai.EmbedContentConfig{}
	if e.dimensions > 0 {
		size := int32(e.dimensions)
		embedCfg.OutputDimensionality = &size
	}

	resp, err := e.client.Models.EmbedContent(ctx, e.model, genai.Text(text), embedCfg)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to embed content", goerr.Value("model", e.model))
	}
	if len(resp.Embeddings) == 0 || resp.Embeddings[0] == nil {
		return nil, goerr.New("no embedding returned", goerr.Value("model", e.model))
	}

	return resp.Embeddings[0].Values, nil
}

// Dimensions returns the configured output size, or DefaultDimensions.
func (e *Embedder) Dimensions() int {
	if e.dimensions > 0 {
		return e.dimensions
	}
	return DefaultDimensions
}

// Model returns the embedding model name.
func (e *Embedder) Model() string {
	return e.model
}
