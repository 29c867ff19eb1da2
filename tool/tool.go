// Package tool defines the tools an executor can call and the providers that
// supply them.
package tool

import (
	"fmt"

	"github.com/hupe1980/rolemesh/core"
	"github.com/hupe1980/rolemesh/internal/util"
)

// Tool is a capability the executor may invoke through function calling.
// Local FunctionTools and tools discovered on MCP servers implement the same
// interface, so the executor never needs to know where a tool lives.
//
// The name is listed verbatim in both system messages; it must be unique
// within a society. Implementations must be safe for concurrent use since an
// executor may run a batch of calls in parallel.
type Tool interface {
	Name() string
	Description() string

	// Parameters returns the JSON schema of the arguments, or nil when the
	// tool takes none.
	Parameters() map[string]any

	// Call runs the tool. toolCtx carries cancellation, the function call id
	// and a logger. Failures should be reported as *ToolError.
	Call(toolCtx *core.ToolContext, args map[string]any) (any, error)
}

// ValidationError represents parameter validation errors with detailed information.
type ValidationError = util.ValidationError

// ToolError represents errors that occur during tool execution.
type ToolError struct {
	Tool    string `json:"tool"`              // Name of the tool that failed
	Message string `json:"message"`           // Error message
	Code    string `json:"code"`              // Error code for categorization
	Details any    `json:"details,omitempty"` // Additional error details
}

func (e *ToolError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("tool error [%s] in %s: %s", e.Code, e.Tool, e.Message)
	}
	return fmt.Sprintf("tool error in %s: %s", e.Tool, e.Message)
}

// Error codes attached to ToolError.
const (
	CodeValidation   = "VALIDATION_ERROR"
	CodeExecution    = "EXECUTION_ERROR"
	CodeNotFound     = "TOOL_NOT_FOUND"
	CodeProviderCall = "PROVIDER_ERROR"
)

// NewToolError creates a new ToolError with the specified details.
func NewToolError(tool, message, code string) *ToolError {
	return &ToolError{
		Tool:    tool,
		Message: message,
		Code:    code,
	}
}
