package tool

import (
	"errors"
	"fmt"
	"time"

	"github.com/hupe1980/rolemesh/core"
	"github.com/hupe1980/rolemesh/internal/util"
)

// Func is the signature of an in-process tool implementation. args have
// already been validated against the tool's schema.
type Func func(toolCtx *core.ToolContext, args map[string]any) (any, error)

// FunctionTool exposes a plain Go function as a Tool, for executors that
// need local capabilities next to (or instead of) MCP tools.
//
// Errors returned by Call are always *ToolError:
//
//	schema mismatch          -> CodeValidation
//	fn returned a *ToolError -> forwarded unchanged
//	any other fn error       -> CodeExecution
//
// A FunctionTool is immutable and safe for concurrent use.
type FunctionTool struct {
	name        string
	description string
	parameters  map[string]any
	fn          Func
}

var _ Tool = (*FunctionTool)(nil)

// NewFunctionTool constructs a FunctionTool from an explicit schema.
//
//	budget := NewFunctionTool("yen_to_usd", "Convert a yen amount to US dollars",
//	  map[string]any{
//	    "type":       "object",
//	    "properties": map[string]any{"yen": map[string]any{"type": "number"}},
//	    "required":   []string{"yen"},
//	  },
//	  func(_ *core.ToolContext, args map[string]any) (any, error) {
//	    return args["yen"].(float64) / 150, nil
//	  })
func NewFunctionTool(name, description string, parameters map[string]any, fn Func) *FunctionTool {
	return &FunctionTool{
		name:        name,
		description: description,
		parameters:  parameters,
		fn:          fn,
	}
}

// NewFunctionToolFromStruct derives the schema from the json and description
// tags of structType.
func NewFunctionToolFromStruct(name, description string, structType any, fn Func) *FunctionTool {
	return NewFunctionTool(name, description, util.CreateSchema(structType), fn)
}

// Name implements Tool.
func (t *FunctionTool) Name() string { return t.name }

// Description implements Tool.
func (t *FunctionTool) Description() string { return t.description }

// Parameters implements Tool.
func (t *FunctionTool) Parameters() map[string]any { return t.parameters }

// Call implements Tool.
func (t *FunctionTool) Call(toolCtx *core.ToolContext, args map[string]any) (any, error) {
	logger := toolCtx.Logger()
	start := time.Now()

	if err := util.ValidateParameters(args, t.parameters); err != nil {
		logger.Warn("tool.call.invalid", "tool", t.name, "error", err.Error())

		return nil, &ToolError{
			Tool:    t.name,
			Message: fmt.Sprintf("parameter validation failed: %v", err),
			Code:    CodeValidation,
			Details: err,
		}
	}

	result, err := t.fn(toolCtx, args)
	if err != nil {
		logger.Warn("tool.call.failed", "tool", t.name, "error", err.Error())
		return nil, t.asToolError(err)
	}

	logger.Debug("tool.call.completed", "tool", t.name, "duration_ms", time.Since(start).Milliseconds())

	return result, nil
}

func (t *FunctionTool) asToolError(err error) *ToolError {
	var toolErr *ToolError
	if errors.As(err, &toolErr) {
		return toolErr
	}
	return NewToolError(t.name, err.Error(), CodeExecution)
}
