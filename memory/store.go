package memory

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"

	"github.com/becomeliminal/nim-memory/internal/logging"
)

const (
	// DefaultSearchNumber is how many neighbours Search asks the collection for.
	DefaultSearchNumber = 3

	// TimestampLayout is the ISO-8601 layout of created_at_utc and of
	// synthesized ids.
	TimestampLayout = "2006-01-02T15:04:05.000000Z07:00"

	autoIDPrefix = "Memory created at "
)

// Store mediates all reads and writes to one Collection and enforces the
// relevance threshold on search results.
//
// The collection is owned by the Store for its lifetime. Concurrent writers
// to the same id through other Stores or processes are not coordinated; the
// last write wins.
type Store struct {
	collection Collection
	uniqueIDs  bool
	now        func() time.Time
	logger     *slog.Logger

	mu        sync.RWMutex
	threshold float64
}

// Option configures the store.
type Option func(*Store)

// WithLogger sets the logger. Without it the logger carried by the request
// context is used.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithClock replaces time.Now for timestamps and synthesized ids.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// NewStore creates a Store over collection. cfg is used as given; callers
// wanting defaults start from DefaultConfig.
func NewStore(collection Collection, cfg Config, opts ...Option) *Store {
	s := &Store{
		collection: collection,
		uniqueIDs:  cfg.UniqueAutoIDs,
		now:        time.Now,
		threshold:  cfg.SearchRelevanceThreshold,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SearchRelevanceThreshold returns the current minimum score for search hits.
func (s *Store) SearchRelevanceThreshold() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.threshold
}

// SetSearchRelevanceThreshold changes the minimum score for later searches.
func (s *Store) SetSearchRelevanceThreshold(threshold float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.threshold = threshold
}

// CreateMemory embeds input and stores it under id. An empty id is replaced
// by "Memory created at <timestamp>". Writing an existing id replaces its
// content, embedding and metadata entirely.
func (s *Store) CreateMemory(ctx context.Context, input string, id string) error {
	createdAt := s.now().UTC().Format(TimestampLayout)
	if id == "" {
		id = s.autoID(createdAt)
	}

	metadata := map[string]string{
		MetadataCreatedAt: createdAt,
	}

	if err := s.collection.Embed(ctx, id, input, metadata); err != nil {
		return goerr.Wrap(err, "failed to store memory", goerr.Value("id", id))
	}

	s.log(ctx).Debug("stored memory", "id", id, "length", len(input))
	return nil
}

// Search runs SearchMemory with DefaultSearchNumber.
func (s *Store) Search(ctx context.Context, query string) ([]Entry, error) {
	return s.SearchMemory(ctx, query, DefaultSearchNumber)
}

// SearchMemory asks the collection for the number nearest memories to query
// and drops every hit whose score is zero or below the relevance threshold.
// Surviving hits keep the collection's descending score order. No hits is an
// empty slice, not an error.
func (s *Store) SearchMemory(ctx context.Context, query string, number int) ([]Entry, error) {
	entries, err := s.collection.Similar(ctx, query, number)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to search memories", goerr.Value("number", number))
	}

	threshold := s.SearchRelevanceThreshold()
	results := make([]Entry, 0, len(entries))
	for _, entry := range entries {
		if !relevant(entry.Score, threshold) {
			continue
		}
		results = append(results, entry)
	}

	s.log(ctx).Debug("search filtered",
		"number", number,
		"threshold", threshold,
		"kept", len(results),
		"dropped", len(entries)-len(results),
	)
	return results, nil
}

// relevant reports whether a hit survives the threshold. A zero score means
// the collection attached no score and is never relevant.
func relevant(score, threshold float64) bool {
	return score != 0 && score >= threshold
}

func (s *Store) autoID(createdAt string) string {
	id := autoIDPrefix + createdAt
	if s.uniqueIDs {
		id += " #" + uuid.NewString()
	}
	return id
}

func (s *Store) log(ctx context.Context) *slog.Logger {
	if s.logger != nil {
		return s.logger
	}
	return logging.From(ctx)
}
