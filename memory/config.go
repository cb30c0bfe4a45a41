package memory

import (
	"os"
	"path/filepath"

	"github.com/m-mizutani/goerr/v2"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultSearchRelevanceThreshold is the minimum score a hit needs to be returned.
	DefaultSearchRelevanceThreshold = 0.5

	// DefaultCollectionName names the collection memories are written to.
	DefaultCollectionName = "memory"

	// DefaultModelID is the embedding model memories are embedded with.
	DefaultModelID = "3-small"

	// UserPathEnv overrides the user directory holding the default database.
	UserPathEnv = "NIM_MEMORY_USER_PATH"

	databaseFileName = "embeddings.db"
	userDirName      = "nim-memory"
)

// Config holds Store and collection configuration.
type Config struct {
	// Database is the path of the persistent store. Empty keeps memories in
	// process memory only.
	// Default: DefaultDatabasePath()
	Database string `yaml:"database"`

	// SearchRelevanceThreshold is the minimum similarity (inclusive) for a
	// search hit to be returned. Scores of exactly zero are always dropped.
	// Default: 0.5
	SearchRelevanceThreshold float64 `yaml:"search_relevance_threshold"`

	// CollectionName selects the collection inside the database.
	// Default: "memory"
	CollectionName string `yaml:"collection"`

	// ModelID identifies the embedding model bound to the collection.
	// Default: "3-small"
	ModelID string `yaml:"model_id"`

	// Compress gzips persisted documents.
	Compress bool `yaml:"compress"`

	// UniqueAutoIDs appends a random suffix to synthesized ids so that
	// writes within the same clock tick do not overwrite each other.
	// Default: false (ids are "Memory created at <timestamp>")
	UniqueAutoIDs bool `yaml:"unique_auto_ids"`
}

// DefaultConfig returns the configuration used when nothing is specified.
func DefaultConfig() Config {
	return Config{
		Database:                 DefaultDatabasePath(),
		SearchRelevanceThreshold: DefaultSearchRelevanceThreshold,
		CollectionName:           DefaultCollectionName,
		ModelID:                  DefaultModelID,
	}
}

// UserDir returns the user-specific directory holding nim-memory state.
// $NIM_MEMORY_USER_PATH wins over the OS config directory.
func UserDir() (string, error) {
	return userDir(os.Getenv, os.UserConfigDir)
}

func userDir(getenv func(string) string, configDir func() (string, error)) (string, error) {
	if p := getenv(UserPathEnv); p != "" {
		return p, nil
	}
	base, err := configDir()
	if err != nil {
		return "", goerr.Wrap(err, "failed to resolve user config directory")
	}
	return filepath.Join(base, userDirName), nil
}

// DefaultDatabasePath returns embeddings.db inside UserDir. When no user
// directory can be resolved it falls back to the working directory.
func DefaultDatabasePath() string {
	dir, err := UserDir()
	if err != nil {
		return databaseFileName
	}
	return filepath.Join(dir, databaseFileName)
}

// LoadConfig reads a YAML config file over DefaultConfig. Keys missing from
// the file keep their default values.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, goerr.Wrap(err, "failed to read config file", goerr.Value("path", path))
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, goerr.Wrap(err, "failed to parse config file", goerr.Value("path", path))
	}
	return cfg, nil
}
