package cli

import (
	"context"
	"log/slog"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/openai/openai-go/option"
	"github.com/urfave/cli/v3"

	"github.com/becomeliminal/nim-memory/internal/logging"
	"github.com/becomeliminal/nim-memory/memory"
	"github.com/becomeliminal/nim-memory/memory/embedder/cached"
	"github.com/becomeliminal/nim-memory/memory/embedder/gemini"
	"github.com/becomeliminal/nim-memory/memory/embedder/openai"
	"github.com/becomeliminal/nim-memory/memory/store/chromem"
)

const (
	embedderOpenAI = "openai"
	embedderGemini = "gemini"
)

// config holds configuration values
type config struct {
	// Store
	configFile string
	database   string
	collection string
	threshold  float64
	compress   bool
	uniqueIDs  bool
	logLevel   string

	// Embedder
	embedder       string
	model          string
	cacheBytes     int64
	openaiAPIKey   string
	openaiBaseURL  string
	geminiAPIKey   string
	geminiProject  string
	geminiLocation string
}

// storeFlags returns flags locating and tuning the memory store
func storeFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Usage:       "YAML config file",
			Sources:     cli.EnvVars("NIM_MEMORY_CONFIG"),
			Destination: &cfg.configFile,
		},
		&cli.StringFlag{
			Name:        "database",
			Aliases:     []string{"d"},
			Usage:       "Database path (default: $NIM_MEMORY_USER_PATH/embeddings.db or the user config dir)",
			Sources:     cli.EnvVars("NIM_MEMORY_DATABASE"),
			Destination: &cfg.database,
		},
		&cli.StringFlag{
			Name:        "collection",
			Usage:       "Collection name",
			Sources:     cli.EnvVars("NIM_MEMORY_COLLECTION"),
			Destination: &cfg.collection,
		},
		&cli.FloatFlag{
			Name:        "threshold",
			Aliases:     []string{"t"},
			Usage:       "Minimum relevance score of search results",
			Sources:     cli.EnvVars("NIM_MEMORY_SEARCH_RELEVANCE_THRESHOLD"),
			Destination: &cfg.threshold,
		},
		&cli.BoolFlag{
			Name:        "compress",
			Usage:       "Gzip persisted documents",
			Sources:     cli.EnvVars("NIM_MEMORY_COMPRESS"),
			Destination: &cfg.compress,
		},
		&cli.BoolFlag{
			Name:        "unique-ids",
			Usage:       "Append a random suffix to generated memory ids",
			Sources:     cli.EnvVars("NIM_MEMORY_UNIQUE_AUTO_IDS"),
			Destination: &cfg.uniqueIDs,
		},
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "Log level (debug, info, warn, error)",
			Value:       "info",
			Sources:     cli.EnvVars("NIM_MEMORY_LOG_LEVEL"),
			Destination: &cfg.logLevel,
		},
	}
}

// embedderFlags returns flags selecting the embedding model
func embedderFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "embedder",
			Aliases:     []string{"e"},
			Usage:       "Embedding provider (openai, gemini)",
			Value:       embedderOpenAI,
			Sources:     cli.EnvVars("NIM_MEMORY_EMBEDDER"),
			Destination: &cfg.embedder,
		},
		&cli.StringFlag{
			Name:        "model",
			Aliases:     []string{"m"},
			Usage:       "Embedding model id (openai: 3-small, 3-large, ada-002)",
			Sources:     cli.EnvVars("NIM_MEMORY_MODEL"),
			Destination: &cfg.model,
		},
		&cli.IntFlag{
			Name:        "embedding-cache-bytes",
			Usage:       "Size of the in-process embedding cache, 0 disables it",
			Value:       64 << 20,
			Sources:     cli.EnvVars("NIM_MEMORY_EMBEDDING_CACHE_BYTES"),
			Destination: &cfg.cacheBytes,
		},
		&cli.StringFlag{
			Name:        "openai-api-key",
			Usage:       "OpenAI API key",
			Sources:     cli.EnvVars("OPENAI_API_KEY"),
			Destination: &cfg.openaiAPIKey,
		},
		&cli.StringFlag{
			Name:        "openai-base-url",
			Usage:       "OpenAI API base URL",
			Sources:     cli.EnvVars("OPENAI_BASE_URL"),
			Destination: &cfg.openaiBaseURL,
		},
		&cli.StringFlag{
			Name:        "gemini-api-key",
			Usage:       "Gemini API key",
			Sources:     cli.EnvVars("GEMINI_API_KEY"),
			Destination: &cfg.geminiAPIKey,
		},
		&cli.StringFlag{
			Name:        "gemini-project",
			Usage:       "Google Cloud project ID for Gemini on Vertex AI",
			Sources:     cli.EnvVars("GEMINI_PROJECT_ID"),
			Destination: &cfg.geminiProject,
		},
		&cli.StringFlag{
			Name:        "gemini-location",
			Usage:       "Google Cloud location for Gemini on Vertex AI",
			Value:       "us-central1",
			Sources:     cli.EnvVars("GEMINI_LOCATION"),
			Destination: &cfg.geminiLocation,
		},
	}
}

// memoryConfig resolves the store configuration: defaults, then the config
// file, then flags that were set explicitly.
func (cfg *config) memoryConfig(c *cli.Command) (memory.Config, error) {
	mc := memory.DefaultConfig()
	if cfg.configFile != "" {
		loaded, err := memory.LoadConfig(cfg.configFile)
		if err != nil {
			return memory.Config{}, err
		}
		mc = loaded
	}

	if c.IsSet("database") {
		mc.Database = cfg.database
	}
	if c.IsSet("collection") {
		mc.CollectionName = cfg.collection
	}
	if c.IsSet("threshold") {
		mc.SearchRelevanceThreshold = cfg.threshold
	}
	if c.IsSet("compress") {
		mc.Compress = cfg.compress
	}
	if c.IsSet("unique-ids") {
		mc.UniqueAutoIDs = cfg.uniqueIDs
	}

	switch {
	case c.IsSet("model"):
		mc.ModelID = cfg.model
	case cfg.embedder == embedderGemini && mc.ModelID == memory.DefaultModelID:
		mc.ModelID = gemini.DefaultModel
	}

	if mc.Database == "" {
		return memory.Config{}, goerr.New("database path is required")
	}
	return mc, nil
}

// newLogger creates the command logger, writing to the error writer
func (cfg *config) newLogger(c *cli.Command) *slog.Logger {
	return logging.New(cfg.logLevel, c.Root().ErrWriter)
}

// newEmbedder creates the embedder for modelID
func (cfg *config) newEmbedder(ctx context.Context, modelID string) (memory.Embedder, error) {
	var (
		embedder memory.Embedder
		err      error
	)

	switch cfg.embedder {
	case embedderOpenAI:
		var opts []option.RequestOption
		if cfg.openaiAPIKey != "" {
			opts = append(opts, option.WithAPIKey(cfg.openaiAPIKey))
		}
		if cfg.openaiBaseURL != "" {
			// relative request paths need a trailing slash
			opts = append(opts, option.WithBaseURL(strings.TrimSuffix(cfg.openaiBaseURL, "/")+"/"))
		}
		embedder, err = openai.New(modelID, opts...)

	case embedderGemini:
		embedder, err = gemini.New(ctx, gemini.Config{
			APIKey:   cfg.geminiAPIKey,
			Project:  cfg.geminiProject,
			Location: cfg.geminiLocation,
			Model:    modelID,
		})

	default:
		return nil, goerr.New("unknown embedder", goerr.Value("embedder", cfg.embedder))
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create embedder", goerr.Value("embedder", cfg.embedder))
	}

	if cfg.cacheBytes <= 0 {
		return embedder, nil
	}
	c, err := cached.New(embedder, cached.Config{MaxBytes: cfg.cacheBytes})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// openStore opens the collection and the store over it
func (cfg *config) openStore(ctx context.Context, c *cli.Command) (*memory.Store, *chromem.Collection, error) {
	mc, err := cfg.memoryConfig(c)
	if err != nil {
		return nil, nil, err
	}

	embedder, err := cfg.newEmbedder(ctx, mc.ModelID)
	if err != nil {
		return nil, nil, err
	}

	logger := logging.From(ctx)
	col, err := chromem.Open(mc, embedder, chromem.WithLogger(logger))
	if err != nil {
		return nil, nil, err
	}

	logger.Debug("opened memory store",
		"database", mc.Database,
		"collection", mc.CollectionName,
		"model_id", mc.ModelID,
		"count", col.Count(),
	)
	return memory.NewStore(col, mc, memory.WithLogger(logger)), col, nil
}

// withLogger attaches the command logger to ctx
func (cfg *config) withLogger(ctx context.Context, c *cli.Command) context.Context {
	return logging.With(ctx, cfg.newLogger(c))
}
