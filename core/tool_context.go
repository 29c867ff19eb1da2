package core

import (
	"context"
	"fmt"

	"github.com/hupe1980/rolemesh/logging"
)

// ToolContext provides a constrained surface for tool implementations
// invoked by an agent during a step. It carries the cancellation context,
// correlation identifiers and a logger scoped to the calling agent.
type ToolContext struct {
	ctx            context.Context
	runID          string
	functionCallID string
	agentInfo      AgentInfo
	logger         logging.Logger
}

// NewToolContext constructs a tool context bound to ctx and a unique functionCallID.
func NewToolContext(ctx context.Context, runID, functionCallID string, agent AgentInfo, logger logging.Logger) *ToolContext {
	if ctx == nil {
		ctx = context.Background()
	}
	if rl, ok := logger.(*logging.RoleMeshLogger); ok && rl != nil {
		logger = rl.WithContext("call_id", functionCallID)
	}

	return &ToolContext{
		ctx:            ctx,
		runID:          runID,
		functionCallID: functionCallID,
		agentInfo:      agent,
		logger:         logging.OrNoOp(logger),
	}
}

// Context returns the context associated with the tool invocation.
func (tc *ToolContext) Context() context.Context { return tc.ctx }

// RunID returns the run ID associated with the tool invocation.
func (tc *ToolContext) RunID() string { return tc.runID }

// Logger returns the logger associated with the tool invocation.
// A RoleMeshLogger gets the call id attached.
func (tc *ToolContext) Logger() logging.Logger { return tc.logger }

// FunctionCallID returns the function call ID associated with the tool invocation.
func (tc *ToolContext) FunctionCallID() string { return tc.functionCallID }

// AgentName returns the agent name associated with the tool invocation.
func (tc *ToolContext) AgentName() string { return tc.agentInfo.Name }

// AgentRole returns the role of the agent invoking the tool.
func (tc *ToolContext) AgentRole() RoleType { return tc.agentInfo.Role }

// Validate performs a structural sanity check of the context.
func (tc *ToolContext) Validate() error {
	if tc == nil || tc.ctx == nil || tc.functionCallID == "" {
		return fmt.Errorf("invalid ToolContext")
	}

	return nil
}

// IsValid reports whether Validate would succeed.
func (tc *ToolContext) IsValid() bool { return tc.Validate() == nil }
