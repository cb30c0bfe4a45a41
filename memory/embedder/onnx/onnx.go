//go:build onnx

// Package onnx embeds text locally with a sentence-transformer model run by
// ONNX Runtime. Build with -tags onnx; the runtime shared library must be
// installed separately.
package onnx

import (
	"context"
	"log/slog"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	ort "github.com/yalue/onnxruntime_go"

	"github.com/becomeliminal/nim-memory/internal/logging"
)

// Config configures the ONNX embedder.
type Config struct {
	// ModelPath is the path to the ONNX model file.
	ModelPath string

	// TokenizerPath is the path to the model's tokenizer.json.
	TokenizerPath string

	// LibraryPath is the onnxruntime shared library. Empty uses the
	// platform default search path.
	LibraryPath string

	// Dimensions is the embedding size (default: 384 for all-MiniLM-L6-v2).
	Dimensions int

	// MaxLength is the token sequence length fed to the model (default: 128).
	MaxLength int

	Logger *slog.Logger
}

var initOnce struct {
	sync.Once
	err error
}

// Embedder generates embeddings with ONNX Runtime.
type Embedder struct {
	mu         sync.Mutex
	session    *ort.DynamicAdvancedSession
	tokenizer  *Tokenizer
	dimensions int
	maxLength  int
	logger     *slog.Logger
}

// New loads the tokenizer and model and starts an inference session.
func New(cfg Config) (*Embedder, error) {
	if cfg.ModelPath == "" {
		return nil, goerr.New("model path is required")
	}
	if cfg.TokenizerPath == "" {
		return nil, goerr.New("tokenizer path is required")
	}
	if cfg.Dimensions == 0 {
		cfg.Dimensions = 384
	}
	if cfg.MaxLength == 0 {
		cfg.MaxLength = 128
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}

	initOnce.Do(func() {
		if cfg.LibraryPath != "" {
			ort.SetSharedLibraryPath(cfg.LibraryPath)
		}
		initOnce.err = ort.InitializeEnvironment()
	})
	if initOnce.err != nil {
		return nil, goerr.Wrap(initOnce.err, "failed to initialize ONNX runtime", goerr.Value("library", cfg.LibraryPath))
	}

	tokenizer, err := LoadTokenizer(cfg.TokenizerPath)
	if err != nil {
		return nil, err
	}

	session, err := ort.NewDynamicAdvancedSession(cfg.ModelPath,
		[]string{"input_ids", "attention_mask", "token_type_ids"},
		[]string{"last_hidden_state"},
		nil,
	)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create ONNX session", goerr.Value("model", cfg.ModelPath))
	}

	cfg.Logger.Info("loaded ONNX embedding model",
		"model", cfg.ModelPath,
		"dimensions", cfg.Dimensions,
		"max_length", cfg.MaxLength,
	)

	return &Embedder{
		session:    session,
		tokenizer:  tokenizer,
		dimensions: cfg.Dimensions,
		maxLength:  cfg.MaxLength,
		logger:     cfg.Logger,
	}, nil
}

// Embed converts text to a unit-length embedding vector.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ids, mask := e.tokenizer.Encode(text, e.maxLength)
	typeIDs := make([]int64, e.maxLength)
	shape := ort.NewShape(1, int64(e.maxLength))

	idsTensor, err := ort.NewTensor(shape, ids)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create input_ids tensor")
	}
	defer idsTensor.Destroy()

	maskTensor, err := ort.NewTensor(shape, mask)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create attention_mask tensor")
	}
	defer maskTensor.Destroy()

	typeTensor, err := ort.NewTensor(shape, typeIDs)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create token_type_ids tensor")
	}
	defer typeTensor.Destroy()

	// nil outputs are allocated by Run
	outputs := []ort.Value{nil}
	e.mu.Lock()
	err = e.session.Run([]ort.Value{idsTensor, maskTensor, typeTensor}, outputs)
	e.mu.Unlock()
	if err != nil {
		return nil, goerr.Wrap(err, "ONNX inference failed")
	}
	defer func() {
		for _, output := range outputs {
			if output != nil {
				output.Destroy()
			}
		}
	}()

	output, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, goerr.New("unexpected output tensor type")
	}

	e.logger.Debug("ONNX inference", "shape", output.GetShape())
	return pool(output.GetData(), output.GetShape(), mask, e.dimensions)
}

// Dimensions returns the embedding vector size.
func (e *Embedder) Dimensions() int {
	return e.dimensions
}

// Close releases the inference session.
func (e *Embedder) Close() error {
	if e.session == nil {
		return nil
	}
	if err := e.session.Destroy(); err != nil {
		return goerr.Wrap(err, "failed to destroy ONNX session")
	}
	return nil
}
