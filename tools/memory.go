package tools

import (
	"context"
	"encoding/json"

	"github.com/m-mizutani/goerr/v2"

	"github.com/becomeliminal/nim-memory/memory"
)

// Tool names.
const (
	CreateMemoryTool = "create_memory"
	SearchMemoryTool = "search_memory"
)

// MemoryStore is the part of memory.Store the tools call.
type MemoryStore interface {
	CreateMemory(ctx context.Context, input string, id string) error
	SearchMemory(ctx context.Context, query string, number int) ([]memory.Entry, error)
}

// Toolbox exposes a MemoryStore as the create_memory and search_memory tools.
type Toolbox struct {
	registry *Registry
}

// NewToolbox creates the memory tools over store.
func NewToolbox(store MemoryStore) *Toolbox {
	registry := NewRegistry()
	registry.Register(createMemory(store))
	registry.Register(searchMemory(store))
	return &Toolbox{registry: registry}
}

// Tools returns the memory tools sorted by name.
func (b *Toolbox) Tools() []Tool {
	return b.registry.Tools()
}

// Definitions returns the memory tool definitions sorted by name.
func (b *Toolbox) Definitions() []Definition {
	return b.registry.Definitions()
}

// Register hands every memory tool to r.
func (b *Toolbox) Register(r Registrar) {
	for _, tool := range b.registry.Tools() {
		r.Register(tool)
	}
}

// Execute runs the memory tool named name with JSON arguments input.
func (b *Toolbox) Execute(ctx context.Context, name string, input json.RawMessage) (string, error) {
	return b.registry.Execute(ctx, name, input)
}

type createMemoryInput struct {
	Input *string `json:"input"`
	ID    string  `json:"id,omitempty"`
}

type createMemoryOutput struct {
	Stored bool   `json:"stored"`
	ID     string `json:"id,omitempty"`
}

func createMemory(store MemoryStore) Tool {
	return &funcTool{
		def: Definition{
			Name: CreateMemoryTool,
			Description: "Create a new memory by embedding the input text. " +
				"If no id is given, a timestamp-based id is generated. " +
				"If the id matches an existing memory, it will be updated.",
			InputSchema: ObjectSchema(map[string]interface{}{
				"input": StringProperty("The text content to store as a memory"),
				"id":    StringProperty("Optional: unique identifier for the memory. Reuse an id to update that memory."),
			}, "input"),
		},
		fn: func(ctx context.Context, raw json.RawMessage) (string, error) {
			var in createMemoryInput
			if err := decode(raw, &in); err != nil {
				return "", err
			}
			if in.Input == nil {
				return "", goerr.New("input is required", goerr.Value("tool", CreateMemoryTool))
			}

			if err := store.CreateMemory(ctx, *in.Input, in.ID); err != nil {
				return "", err
			}
			return encode(createMemoryOutput{Stored: true, ID: in.ID})
		},
	}
}

type searchMemoryInput struct {
	Query  *string `json:"query"`
	Number *int    `json:"number,omitempty"`
}

func searchMemory(store MemoryStore) Tool {
	return &funcTool{
		def: Definition{
			Name: SearchMemoryTool,
			Description: "Search for memories semantically similar to the query. " +
				"Returns a list of relevant memories, each with its id, relevance score, content and metadata. " +
				"Memories below the relevance threshold are left out, so the list may be empty.",
			InputSchema: ObjectSchema(map[string]interface{}{
				"query": StringProperty("The search query text"),
				"number": WithMinimum(WithDefault(
					IntegerProperty("Maximum number of memories to return"),
					memory.DefaultSearchNumber,
				), 1),
			}, "query"),
		},
		fn: func(ctx context.Context, raw json.RawMessage) (string, error) {
			var in searchMemoryInput
			if err := decode(raw, &in); err != nil {
				return "", err
			}
			if in.Query == nil {
				return "", goerr.New("query is required", goerr.Value("tool", SearchMemoryTool))
			}
			number := memory.DefaultSearchNumber
			if in.Number != nil {
				number = *in.Number
			}

			entries, err := store.SearchMemory(ctx, *in.Query, number)
			if err != nil {
				return "", err
			}
			return encode(entries)
		},
	}
}

func decode(raw json.RawMessage, v interface{}) error {
	if len(raw) == 0 {
		raw = json.RawMessage("{}")
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return goerr.Wrap(err, "invalid tool input JSON")
	}
	return nil
}

func encode(v interface{}) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", goerr.Wrap(err, "failed to encode tool result")
	}
	return string(data), nil
}
