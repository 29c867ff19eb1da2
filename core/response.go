package core

import "maps"

// TokenUsage accumulates prompt and completion token counts. Counters only
// ever grow through Add.
type TokenUsage struct {
	CompletionTokens int `json:"completion_token_count" yaml:"completion_token_count"`
	PromptTokens     int `json:"prompt_token_count" yaml:"prompt_token_count"`
}

// Add accumulates o into u. Negative inputs are ignored so the counters stay
// monotonically non-decreasing.
func (u *TokenUsage) Add(o TokenUsage) {
	if o.CompletionTokens > 0 {
		u.CompletionTokens += o.CompletionTokens
	}
	if o.PromptTokens > 0 {
		u.PromptTokens += o.PromptTokens
	}
}

// TotalTokens returns prompt + completion tokens.
func (u TokenUsage) TotalTokens() int { return u.PromptTokens + u.CompletionTokens }

// ToolCallRecord captures a single tool invocation performed during an agent step.
type ToolCallRecord struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments,omitempty"`
	Result    any            `json:"result,omitempty"`
	Error     string         `json:"error,omitempty"`
}

// AsMap converts the record into a plain map suitable for transcripts.
func (r ToolCallRecord) AsMap() map[string]any {
	m := map[string]any{
		"id":        r.ID,
		"tool_name": r.Name,
		"args":      maps.Clone(r.Arguments),
		"result":    r.Result,
	}
	if r.Error != "" {
		m["error"] = r.Error
	}
	return m
}

// ResponseInfo is the side channel attached to an AgentResponse. Every field
// is optional: Usage is nil when the provider did not report token counts.
type ResponseInfo struct {
	Usage              *TokenUsage      `json:"usage,omitempty"`
	ToolCalls          []ToolCallRecord `json:"tool_calls,omitempty"`
	TerminationReasons []string         `json:"termination_reasons,omitempty"`
}

// HasUsage reports whether usage information is present.
func (i ResponseInfo) HasUsage() bool { return i.Usage != nil }

// Clone returns a deep enough copy that appending to either side does not alias.
func (i ResponseInfo) Clone() ResponseInfo {
	c := ResponseInfo{}
	if i.Usage != nil {
		u := *i.Usage
		c.Usage = &u
	}
	if len(i.ToolCalls) > 0 {
		c.ToolCalls = append([]ToolCallRecord(nil), i.ToolCalls...)
	}
	if len(i.TerminationReasons) > 0 {
		c.TerminationReasons = append([]string(nil), i.TerminationReasons...)
	}
	return c
}

// AgentResponse is the structured result of one agent invocation. Messages
// may legitimately be empty, in particular when Terminated is true; use
// Message to access the selected candidate.
type AgentResponse struct {
	Messages   []Message    `json:"messages"`
	Terminated bool         `json:"terminated"`
	Info       ResponseInfo `json:"info"`
}

// NewAgentResponse builds a non-terminated response carrying msgs.
func NewAgentResponse(info ResponseInfo, msgs ...Message) AgentResponse {
	return AgentResponse{Messages: msgs, Info: info}
}

// TerminatedResponse builds a terminated response with the given reasons.
func TerminatedResponse(reasons ...string) AgentResponse {
	return AgentResponse{Terminated: true, Info: ResponseInfo{TerminationReasons: reasons}}
}

// Message returns the first candidate message. Multiple candidates are
// reduced deterministically: the first one wins.
func (r AgentResponse) Message() (Message, bool) {
	if len(r.Messages) == 0 {
		return Message{}, false
	}
	return r.Messages[0], true
}

// Content returns the selected message content or "" when there is none.
func (r AgentResponse) Content() string {
	m, _ := r.Message()
	return m.Content
}

// HasMessage reports whether at least one candidate message exists.
func (r AgentResponse) HasMessage() bool { return len(r.Messages) > 0 }
