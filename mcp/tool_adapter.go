package mcp

import (
	"context"
	"time"

	"github.com/hupe1980/rolemesh/core"
	"github.com/hupe1980/rolemesh/internal/util"
	"github.com/hupe1980/rolemesh/tool"
)

// ToolCaller is the subset of Client used by ToolAdapter.
type ToolCaller interface {
	CallTool(ctx context.Context, name string, arguments map[string]any) (*ToolCallResult, error)
}

// ToolAdapter exposes a single MCP server tool as a tool.Tool. The tool keeps
// the server's own name so the names listed in prompts match what the model
// calls.
type ToolAdapter struct {
	serverName string
	client     ToolCaller
	schema     ToolSchema
}

var _ tool.Tool = (*ToolAdapter)(nil)

// NewToolAdapter creates a new tool adapter.
func NewToolAdapter(serverName string, client ToolCaller, schema ToolSchema) *ToolAdapter {
	if schema.InputSchema == nil {
		schema.InputSchema = map[string]any{"type": "object", "properties": map[string]any{}}
	}
	return &ToolAdapter{serverName: serverName, client: client, schema: schema}
}

// Name implements tool.Tool.
func (t *ToolAdapter) Name() string { return t.schema.Name }

// Description implements tool.Tool.
func (t *ToolAdapter) Description() string { return t.schema.Description }

// Parameters implements tool.Tool.
func (t *ToolAdapter) Parameters() map[string]any { return t.schema.InputSchema }

// ServerName returns the MCP server the tool belongs to.
func (t *ToolAdapter) ServerName() string { return t.serverName }

// Call implements tool.Tool. The joined text content of the result is
// returned; an isError result becomes a *tool.ToolError.
func (t *ToolAdapter) Call(toolCtx *core.ToolContext, args map[string]any) (any, error) {
	logger := toolCtx.Logger()
	start := time.Now()

	if err := util.ValidateParameters(args, t.schema.InputSchema); err != nil {
		logger.Warn("tool.call.validation_failed", "tool", t.schema.Name, "server", t.serverName, "error", err.Error())
		return nil, &tool.ToolError{Tool: t.schema.Name, Message: err.Error(), Code: tool.CodeValidation, Details: err}
	}

	result, err := t.client.CallTool(toolCtx.Context(), t.schema.Name, args)
	if err != nil {
		logger.Error("tool.call.error", "tool", t.schema.Name, "server", t.serverName, "error", err.Error())
		return nil, &tool.ToolError{Tool: t.schema.Name, Message: err.Error(), Code: tool.CodeProviderCall}
	}

	text := result.Text()
	if result.IsError {
		logger.Warn("tool.call.remote_error", "tool", t.schema.Name, "server", t.serverName, "error", text)
		return nil, &tool.ToolError{Tool: t.schema.Name, Message: text, Code: tool.CodeExecution}
	}

	logger.Info("tool.call.success", "tool", t.schema.Name, "server", t.serverName, "duration_ms", time.Since(start).Milliseconds())

	return text, nil
}
