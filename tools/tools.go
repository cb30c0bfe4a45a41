// Package tools exposes the memory store as LLM tools: JSON-schema tool
// definitions, a registry that dispatches calls by name, and adapters for
// the Anthropic Messages API.
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"

	"github.com/m-mizutani/goerr/v2"
)

// ErrUnknownTool is returned when a call names a tool that is not registered.
var ErrUnknownTool = errors.New("unknown tool")

// Definition describes a tool to the model.
type Definition struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"input_schema"`
}

// Tool is a callable tool. Execute receives the raw JSON arguments and
// returns the result as a string, usually JSON.
type Tool interface {
	Definition() Definition
	Execute(ctx context.Context, input json.RawMessage) (string, error)
}

// Registrar accepts tools. Any host that collects tools can implement it.
type Registrar interface {
	Register(tool Tool)
}

// Executor runs a tool call by name.
type Executor interface {
	Execute(ctx context.Context, name string, input json.RawMessage) (string, error)
}

// Registry is a concurrency-safe Registrar and Executor.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds tool, replacing any tool with the same name.
func (r *Registry) Register(tool Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[tool.Definition().Name] = tool
}

// Get returns the tool registered under name.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tool, ok := r.tools[name]
	return tool, ok
}

// Tools returns the registered tools sorted by name.
func (r *Registry) Tools() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tools := make([]Tool, 0, len(r.tools))
	for _, tool := range r.tools {
		tools = append(tools, tool)
	}
	sort.Slice(tools, func(i, j int) bool {
		return tools[i].Definition().Name < tools[j].Definition().Name
	})
	return tools
}

// Definitions returns the definitions of the registered tools, sorted by name.
func (r *Registry) Definitions() []Definition {
	tools := r.Tools()
	defs := make([]Definition, len(tools))
	for i, tool := range tools {
		defs[i] = tool.Definition()
	}
	return defs
}

// Execute runs the tool registered under name.
func (r *Registry) Execute(ctx context.Context, name string, input json.RawMessage) (string, error) {
	tool, ok := r.Get(name)
	if !ok {
		return "", goerr.Wrap(ErrUnknownTool, "cannot execute tool", goerr.Value("tool", name))
	}
	return tool.Execute(ctx, input)
}

// funcTool adapts a definition and a function to Tool.
type funcTool struct {
	def Definition
	fn  func(ctx context.Context, input json.RawMessage) (string, error)
}

func (t *funcTool) Definition() Definition {
	return t.def
}

func (t *funcTool) Execute(ctx context.Context, input json.RawMessage) (string, error) {
	return t.fn(ctx, input)
}
