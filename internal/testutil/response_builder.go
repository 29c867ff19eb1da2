package testutil

import "github.com/hupe1980/rolemesh/core"

// ResponseBuilder provides a fluent helper for constructing agent responses in tests.
// Example:
//
//	resp := NewResponseBuilder(core.RoleExecutor, "assistant").Text("Solution: Ichiran").Usage(100, 20).Build()
//
// Chain only the parts you need.
type ResponseBuilder struct {
	roleType   core.RoleType
	roleName   string
	texts      []string
	terminated bool
	usage      *core.TokenUsage
	toolCalls  []core.ToolCallRecord
	reasons    []string
}

// NewResponseBuilder creates a builder whose messages are attributed to roleName.
func NewResponseBuilder(roleType core.RoleType, roleName string) *ResponseBuilder {
	return &ResponseBuilder{roleType: roleType, roleName: roleName}
}

// Text adds a candidate message (chainable).
func (b *ResponseBuilder) Text(t string) *ResponseBuilder { b.texts = append(b.texts, t); return b }

// Usage attaches token usage (chainable).
func (b *ResponseBuilder) Usage(prompt, completion int) *ResponseBuilder {
	b.usage = &core.TokenUsage{PromptTokens: prompt, CompletionTokens: completion}
	return b
}

// ToolCall records a tool invocation (chainable).
func (b *ResponseBuilder) ToolCall(name string, args map[string]any, result any) *ResponseBuilder {
	b.toolCalls = append(b.toolCalls, core.ToolCallRecord{
		ID:        core.NewID(),
		Name:      name,
		Arguments: args,
		Result:    result,
	})
	return b
}

// Terminated marks the response terminated with reasons (chainable).
func (b *ResponseBuilder) Terminated(reasons ...string) *ResponseBuilder {
	b.terminated = true
	b.reasons = append(b.reasons, reasons...)
	return b
}

// Build constructs the core.AgentResponse value.
func (b *ResponseBuilder) Build() core.AgentResponse {
	resp := core.AgentResponse{Terminated: b.terminated}
	for _, t := range b.texts {
		resp.Messages = append(resp.Messages, core.NewMessage(b.roleType, b.roleName, t))
	}
	if b.usage != nil {
		u := *b.usage
		resp.Info.Usage = &u
	}
	if len(b.toolCalls) > 0 {
		resp.Info.ToolCalls = append([]core.ToolCallRecord(nil), b.toolCalls...)
	}
	if len(b.reasons) > 0 {
		resp.Info.TerminationReasons = append([]string(nil), b.reasons...)
	}
	return resp
}
