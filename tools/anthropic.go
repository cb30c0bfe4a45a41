package tools

import (
	"context"

	"github.com/anthropics/anthropic-sdk-go"
)

// AnthropicTools converts tools to Messages API tool parameters.
func AnthropicTools(tools []Tool) []anthropic.ToolUnionParam {
	params := make([]anthropic.ToolUnionParam, 0, len(tools))
	for _, tool := range tools {
		params = append(params, AnthropicTool(tool.Definition()))
	}
	return params
}

// AnthropicTool converts one definition to a Messages API tool parameter.
func AnthropicTool(def Definition) anthropic.ToolUnionParam {
	schema := anthropic.ToolInputSchemaParam{
		Properties: def.InputSchema["properties"],
	}
	switch required := def.InputSchema["required"].(type) {
	case []string:
		schema.Required = required
	case []interface{}:
		for _, r := range required {
			if s, ok := r.(string); ok {
				schema.Required = append(schema.Required, s)
			}
		}
	}

	param := anthropic.ToolUnionParamOfTool(schema, def.Name)
	if def.Description != "" {
		param.OfTool.Description = anthropic.String(def.Description)
	}
	return param
}

// HandleToolUse runs a tool_use content block through executor and returns
// the tool_result block to send back. Tool failures are reported to the
// model as error results rather than returned.
func HandleToolUse(ctx context.Context, executor Executor, block anthropic.ContentBlockUnion) anthropic.ContentBlockParamUnion {
	result, err := executor.Execute(ctx, block.Name, block.Input)
	if err != nil {
		return anthropic.NewToolResultBlock(block.ID, err.Error(), true)
	}
	return anthropic.NewToolResultBlock(block.ID, result, false)
}

// HandleToolUses runs every tool_use block of a response, in order, and
// returns the matching tool_result blocks.
func HandleToolUses(ctx context.Context, executor Executor, content []anthropic.ContentBlockUnion) []anthropic.ContentBlockParamUnion {
	var results []anthropic.ContentBlockParamUnion
	for _, block := range content {
		if block.Type != "tool_use" {
			continue
		}
		results = append(results, HandleToolUse(ctx, executor, block))
	}
	return results
}
