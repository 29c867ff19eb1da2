package tool

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/rolemesh/core"
	"github.com/hupe1980/rolemesh/logging"
)

func newToolContext(id string) *core.ToolContext {
	return core.NewToolContext(context.Background(), "run-1", id, core.AgentInfo{Name: "Executor", Role: core.RoleExecutor}, logging.NoOpLogger{})
}

// -------------------- FunctionTool Tests --------------------

type budgetArgs struct {
	Min float64 `json:"min" description:"Lower bound in yen"`
	Max float64 `json:"max" description:"Upper bound in yen"`
}

func TestFunctionTool_Success(t *testing.T) {
	midpoint := NewFunctionToolFromStruct("budget_midpoint", "Average of a budget range", budgetArgs{}, func(_ *core.ToolContext, args map[string]any) (any, error) {
		return (args["min"].(float64) + args["max"].(float64)) / 2, nil
	})

	result, err := midpoint.Call(newToolContext("fc1"), map[string]any{"min": 2000.0, "max": 4000.0})
	require.NoError(t, err)
	assert.Equal(t, 3000.0, result)
	assert.Equal(t, "budget_midpoint", midpoint.Name())
	assert.Equal(t, "Average of a budget range", midpoint.Description())
	assert.Equal(t, []string{"min", "max"}, midpoint.Parameters()["required"])
}

func TestFunctionTool_ValidationError(t *testing.T) {
	params := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"address": map[string]any{"type": "string"},
		},
		"required": []string{"address"},
	}
	geocode := NewFunctionTool("geocode", "Geocode", params, func(_ *core.ToolContext, _ map[string]any) (any, error) {
		return nil, nil
	})

	_, err := geocode.Call(newToolContext("fc2"), map[string]any{})
	var toolErr *ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, CodeValidation, toolErr.Code)
	assert.Equal(t, "geocode", toolErr.Tool)
}

func TestFunctionTool_ExecutionError(t *testing.T) {
	params := map[string]any{"type": "object", "properties": map[string]any{}}
	fail := NewFunctionTool("fail", "Fails", params, func(_ *core.ToolContext, _ map[string]any) (any, error) {
		return nil, errors.New("boom")
	})

	_, err := fail.Call(newToolContext("fc3"), map[string]any{})
	var toolErr *ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, CodeExecution, toolErr.Code)
	assert.Equal(t, "boom", toolErr.Message)
}

func TestFunctionTool_ForwardsWrappedToolError(t *testing.T) {
	params := map[string]any{"type": "object", "properties": map[string]any{}}
	custom := NewFunctionTool("custom", "Custom", params, func(_ *core.ToolContext, _ map[string]any) (any, error) {
		return nil, fmt.Errorf("wrapped: %w", NewToolError("custom", "quota exceeded", "QUOTA"))
	})

	_, err := custom.Call(newToolContext("fc4"), map[string]any{})
	var toolErr *ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, "QUOTA", toolErr.Code)
}

// -------------------- ToolError Formatting --------------------

func TestToolErrorFormatting(t *testing.T) {
	err := NewToolError("demo", "something failed", "E123")
	assert.Contains(t, err.Error(), "E123")
	assert.Contains(t, err.Error(), "demo")

	plain := &ToolError{Tool: "demo", Message: "x"}
	assert.Equal(t, "tool error in demo: x", plain.Error())
}

// -------------------- Provider Tests --------------------

func noopTool(name string) Tool {
	return NewFunctionTool(name, name, map[string]any{"type": "object"}, func(*core.ToolContext, map[string]any) (any, error) {
		return "ok", nil
	})
}

func TestStaticProviderLifecycle(t *testing.T) {
	p := NewStaticProvider(noopTool("maps_search_places"), noopTool("maps_geocode"))

	assert.Nil(t, p.Tools())
	require.NoError(t, p.Disconnect(context.Background()), "disconnect before connect is safe")

	require.NoError(t, p.Connect(context.Background()))
	assert.True(t, p.Connected())
	assert.Equal(t, []string{"maps_search_places", "maps_geocode"}, Names(p.Tools()))
	assert.Equal(t, []string{"maps_geocode", "maps_search_places"}, SortedNames(p.Tools()))

	require.NoError(t, p.Disconnect(context.Background()))
	require.NoError(t, p.Disconnect(context.Background()))
	assert.False(t, p.Connected())
}

func TestStaticProviderConnectCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewStaticProvider(noopTool("a"))
	assert.ErrorIs(t, p.Connect(ctx), context.Canceled)
	assert.False(t, p.Connected())
}

func TestIndex(t *testing.T) {
	first := noopTool("dup")
	second := noopTool("dup")
	idx := Index(first, noopTool("other"), second)
	assert.Len(t, idx, 2)
	assert.Same(t, second, idx["dup"])
}
