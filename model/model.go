package model

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/hupe1980/rolemesh/core"
)

// ToolDefinition declaratively exposes a callable function to the model.
type ToolDefinition struct {
	Type     string             `json:"type"` // "function"
	Function FunctionDefinition `json:"function"`
}

// FunctionDefinition describes an individual function (tool) exposed to the model.
// Parameters is a JSON Schema object (draft agnostic, minimal subset expected).
type FunctionDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"` // JSON Schema
}

// Request captures the normalized model input produced by agents.
type Request struct {
	Contents []core.Content   `json:"contents"` // system, user, assistant and tool turns in order
	Tools    []ToolDefinition `json:"tools,omitempty"`
}

// SystemPrompt returns the concatenated text of every system content.
func (r Request) SystemPrompt() string {
	var parts []string
	for _, c := range r.Contents {
		if c.Role == core.ContentRoleSystem {
			if t := c.Text(); t != "" {
				parts = append(parts, t)
			}
		}
	}
	return strings.Join(parts, "\n\n")
}

// TokenUsage captures token usage statistics for a response.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is a (partial or final) chunk emitted by a model.
type Response struct {
	ID           string       `json:"id"`
	Partial      bool         `json:"partial"`
	Content      core.Content `json:"content"`
	FinishReason string       `json:"finish_reason"` // "stop", "length", "tool_calls", etc.
	Usage        *TokenUsage  `json:"usage,omitempty"`
}

// Finish reasons normalized across providers.
const (
	FinishReasonStop      = "stop"
	FinishReasonLength    = "length"
	FinishReasonToolCalls = "tool_calls"
)

// Info contains metadata about a model implementation.
type Info struct {
	Name          string `json:"name"`
	Provider      string `json:"provider"` // "openai", "anthropic", "gemini", "scripted"
	SupportsTools bool   `json:"supports_tools"`
}

// Model is the minimal interface required by agents to drive generation.
type Model interface {
	Generate(ctx context.Context, req Request) (<-chan Response, <-chan error)

	// Info returns information about the model implementation.
	Info() Info
}

// ErrNoResponse is returned by Collect when the model closed its stream
// without emitting a final response.
var ErrNoResponse = errors.New("model returned no final response")

// Collect drains a Generate call and returns the last non-partial response.
// Partial chunks are discarded; usage reported on any chunk is kept.
func Collect(ctx context.Context, m Model, req Request) (Response, error) {
	respCh, errCh := m.Generate(ctx, req)

	var (
		final *Response
		usage *TokenUsage
	)

	for respCh != nil || errCh != nil {
		select {
		case <-ctx.Done():
			return Response{}, ctx.Err()
		case resp, ok := <-respCh:
			if !ok {
				respCh = nil
				continue
			}
			if resp.Usage != nil {
				usage = resp.Usage
			}
			if !resp.Partial {
				r := resp
				final = &r
			}
		case err, ok := <-errCh:
			if !ok {
				errCh = nil
				continue
			}
			if err != nil {
				return Response{}, err
			}
		}
	}

	if final == nil {
		return Response{}, ErrNoResponse
	}

	if final.Usage == nil {
		final.Usage = usage
	}

	return *final, nil
}

// ScriptedModel is a lightweight in-memory Model that replays a fixed
// sequence of responses. It records every request it receives so tests can
// assert on the conversation an agent produced.
type ScriptedModel struct {
	info      Info
	mu        sync.Mutex
	responses []Response
	errs      map[int]error
	calls     int
	requests  []Request
}

// NewScriptedModel constructs a ScriptedModel with tool support enabled.
func NewScriptedModel(name string, responses ...Response) *ScriptedModel {
	return &ScriptedModel{
		info:      Info{Name: name, Provider: "scripted", SupportsTools: true},
		responses: responses,
		errs:      map[int]error{},
	}
}

// Text builds a final text response.
func Text(text string) Response {
	return Response{
		Content:      core.NewTextContent(core.ContentRoleAssistant, text),
		FinishReason: FinishReasonStop,
	}
}

// ToolCalls builds a final response requesting the given function calls.
func ToolCalls(calls ...core.FunctionCall) Response {
	parts := make([]core.Part, 0, len(calls))
	for _, c := range calls {
		parts = append(parts, core.FunctionCallPart{FunctionCall: c})
	}
	return Response{
		Content:      core.Content{Role: core.ContentRoleAssistant, Parts: parts},
		FinishReason: FinishReasonToolCalls,
	}
}

// WithUsage returns r annotated with token usage.
func WithUsage(r Response, prompt, completion int) Response {
	r.Usage = &TokenUsage{PromptTokens: prompt, CompletionTokens: completion, TotalTokens: prompt + completion}
	return r
}

// AddResponse appends a response to the script.
func (m *ScriptedModel) AddResponse(r Response) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, r)
}

// FailAt makes the call with the given zero-based index return err.
func (m *ScriptedModel) FailAt(call int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs[call] = err
}

// Requests returns a copy of the received requests.
func (m *ScriptedModel) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Request(nil), m.requests...)
}

// Calls returns the number of Generate invocations.
func (m *ScriptedModel) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Generate implements Model. Once the script is exhausted the model echoes
// the last user text, mirroring a canned completion.
func (m *ScriptedModel) Generate(ctx context.Context, req Request) (<-chan Response, <-chan error) {
	respCh := make(chan Response, 1)
	errCh := make(chan error, 1)

	m.mu.Lock()
	idx := m.calls
	m.calls++
	m.requests = append(m.requests, req)
	var (
		resp     Response
		scripted bool
	)
	if idx < len(m.responses) {
		resp, scripted = m.responses[idx], true
	}
	failure := m.errs[idx]
	m.mu.Unlock()

	go func() {
		defer close(respCh)
		defer close(errCh)

		if err := ctx.Err(); err != nil {
			errCh <- err
			return
		}
		if failure != nil {
			errCh <- failure
			return
		}
		if !scripted {
			resp = Text(fmt.Sprintf("Scripted response to: %s", lastUserText(req)))
		}
		respCh <- resp
	}()

	return respCh, errCh
}

// Info implements Model.
func (m *ScriptedModel) Info() Info { return m.info }

func lastUserText(req Request) string {
	for i := len(req.Contents) - 1; i >= 0; i-- {
		if req.Contents[i].Role == core.ContentRoleUser {
			return req.Contents[i].Text()
		}
	}
	return ""
}
