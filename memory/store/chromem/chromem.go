package chromem

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/m-mizutani/goerr/v2"
	chromem "github.com/philippgille/chromem-go"

	"github.com/becomeliminal/nim-memory/internal/logging"
	"github.com/becomeliminal/nim-memory/memory"
)

// Collection wraps a chromem-go collection as a memory.Collection.
// chromem-go is a pure Go, embedded vector database; documents are kept in
// memory and, for persistent databases, mirrored to one file per document.
type Collection struct {
	db       *chromem.DB
	col      *chromem.Collection
	embedder memory.Embedder
	modelID  string
	compress bool
	logger   *slog.Logger
}

// Option configures a Collection.
type Option func(*Collection)

// WithLogger sets the logger used for storage events.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Collection) {
		c.logger = logger
	}
}

// New creates an in-memory collection named memory.DefaultCollectionName.
func New(embedder memory.Embedder, opts ...Option) (*Collection, error) {
	return Open(memory.Config{
		CollectionName: memory.DefaultCollectionName,
		ModelID:        memory.DefaultModelID,
	}, embedder, opts...)
}

// Open opens (or creates) the collection described by cfg. A non-empty
// cfg.Database is a chromem-go persistence directory; its parent directories
// are created as needed. Vectors are computed by embedder, which must be the
// model named by cfg.ModelID.
func Open(cfg memory.Config, embedder memory.Embedder, opts ...Option) (*Collection, error) {
	if embedder == nil {
		return nil, goerr.New("embedder is required")
	}
	if cfg.CollectionName == "" {
		return nil, goerr.New("collection name is required")
	}

	c := &Collection{
		embedder: embedder,
		modelID:  cfg.ModelID,
		compress: cfg.Compress,
	}
	for _, opt := range opts {
		opt(c)
	}

	if cfg.Database == "" {
		c.db = chromem.NewDB()
	} else {
		if err := os.MkdirAll(filepath.Dir(cfg.Database), 0o755); err != nil {
			return nil, goerr.Wrap(err, "failed to create database directory", goerr.Value("path", cfg.Database))
		}
		db, err := chromem.NewPersistentDB(cfg.Database, cfg.Compress)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to open database", goerr.Value("path", cfg.Database))
		}
		c.db = db
	}

	col, err := c.db.GetOrCreateCollection(
		cfg.CollectionName,
		map[string]string{"model_id": cfg.ModelID},
		embedder.Embed,
	)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open collection",
			goerr.Value("collection", cfg.CollectionName),
			goerr.Value("path", cfg.Database),
		)
	}
	c.col = col

	return c, nil
}

// ModelID returns the embedding model identifier the collection was opened with.
func (c *Collection) ModelID() string {
	return c.modelID
}

// Count returns the number of stored memories.
func (c *Collection) Count() int {
	return c.col.Count()
}

// Embed computes the embedding of value and upserts the document,
// overwriting any document already stored under id. The vector is computed
// here rather than by chromem-go so that empty values are stored too.
func (c *Collection) Embed(ctx context.Context, id string, value string, metadata map[string]string) error {
	c.log(ctx).Debug("storing memory", "id", id, "collection", c.col.Name)

	embedding, err := c.embedder.Embed(ctx, value)
	if err != nil {
		return goerr.Wrap(err, "failed to embed memory", goerr.Value("id", id))
	}

	doc := chromem.Document{
		ID:        id,
		Content:   value,
		Embedding: embedding,
		Metadata:  copyMetadata(metadata),
	}
	if err := c.col.AddDocument(ctx, doc); err != nil {
		return goerr.Wrap(err, "failed to add document", goerr.Value("id", id))
	}
	return nil
}

// Similar returns up to number documents ranked by cosine similarity to
// query, highest first.
func (c *Collection) Similar(ctx context.Context, query string, number int) ([]memory.Entry, error) {
	// chromem-go requires 0 < nResults <= collection size
	limit := number
	if count := c.col.Count(); limit > count {
		limit = count
	}
	if limit <= 0 {
		c.log(ctx).Debug("nothing to query", "number", number, "count", c.col.Count())
		return []memory.Entry{}, nil
	}

	embedding, err := c.embedder.Embed(ctx, query)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to embed query")
	}

	results, err := c.col.QueryEmbedding(ctx, embedding, limit, nil, nil)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query collection", goerr.Value("limit", limit))
	}

	entries := make([]memory.Entry, 0, len(results))
	for _, result := range results {
		entries = append(entries, memory.Entry{
			ID:       result.ID,
			Score:    float64(result.Similarity),
			Content:  result.Content,
			Metadata: copyMetadata(result.Metadata),
		})
	}

	c.log(ctx).Debug("queried collection", "limit", limit, "results", len(entries))
	return entries, nil
}

// Export writes every collection of the database to a single file, gzipped
// when the collection was opened with compression.
func (c *Collection) Export(path string) error {
	if err := c.db.ExportToFile(path, c.compress, ""); err != nil {
		return goerr.Wrap(err, "failed to export database", goerr.Value("path", path))
	}
	return nil
}

func (c *Collection) log(ctx context.Context) *slog.Logger {
	if c.logger != nil {
		return c.logger
	}
	return logging.From(ctx)
}

func copyMetadata(metadata map[string]string) map[string]string {
	out := make(map[string]string, len(metadata))
	for k, v := range metadata {
		out[k] = v
	}
	return out
}
