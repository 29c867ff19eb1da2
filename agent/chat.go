package agent

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hupe1980/rolemesh/core"
	"github.com/hupe1980/rolemesh/logging"
	"github.com/hupe1980/rolemesh/memory"
	"github.com/hupe1980/rolemesh/model"
	"github.com/hupe1980/rolemesh/prompts"
	"github.com/hupe1980/rolemesh/tool"
)

// Termination reasons reported in core.ResponseInfo.TerminationReasons.
const (
	ReasonMaxTokens         = "max_tokens_exceeded"
	ReasonMaxModelCalls     = "max_model_calls_exceeded"
	ReasonMaxToolIterations = "max_tool_iterations_exceeded"
)

// ChatAgentOptions configures a ChatAgent instance.
//
// Use functional options with NewChatAgent to override defaults.
type ChatAgentOptions struct {
	SystemMessage     string
	OutputLanguage    string
	Tools             []tool.Tool
	Memory            memory.Memory
	MaxToolIterations int           // tool rounds per step before terminating
	MaxModelCalls     int           // 0 means unlimited
	MaxParallelTools  int           // 0 runs every call of a batch concurrently
	ToolTimeout       time.Duration // per tool call; 0 disables
	Logger            logging.Logger
}

// ChatAgent drives one model through a step: it records the incoming message
// in memory, asks the model for a reply, executes any requested tool calls and
// loops until the model answers in plain text.
//
// A ChatAgent serves one conversation. Step calls are serialized.
type ChatAgent struct {
	name          string
	role          core.RoleType
	llm           model.Model
	systemMessage string
	tools         map[string]tool.Tool
	toolDefs      []model.ToolDefinition
	memory        memory.Memory
	executor      *toolExecutor
	opts          ChatAgentOptions
	runID         string
	logger        logging.Logger

	mu sync.Mutex
}

var _ core.Agent = (*ChatAgent)(nil)

// NewChatAgent creates an agent playing role under name, backed by llm.
//
// Defaults:
//   - unbounded memory window
//   - 10 tool iterations per step
//   - 15-second timeout per tool call
func NewChatAgent(name string, role core.RoleType, llm model.Model, optFns ...func(o *ChatAgentOptions)) *ChatAgent {
	opts := ChatAgentOptions{
		MaxToolIterations: 10,
		ToolTimeout:       15 * time.Second,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Memory == nil {
		opts.Memory = memory.NewWindowMemory(0)
	}

	logger := logging.OrNoOp(opts.Logger)

	a := &ChatAgent{
		name:          name,
		role:          role,
		llm:           llm,
		systemMessage: prompts.WithOutputLanguage(opts.SystemMessage, opts.OutputLanguage),
		tools:         tool.Index(opts.Tools...),
		memory:        opts.Memory,
		opts:          opts,
		runID:         core.NewID(),
		logger:        logger,
	}

	for _, t := range opts.Tools {
		a.toolDefs = append(a.toolDefs, model.ToolDefinition{
			Type: "function",
			Function: model.FunctionDefinition{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters:  t.Parameters(),
			},
		})
	}

	a.executor = &toolExecutor{
		agent:       core.AgentInfo{Name: name, Role: role},
		runID:       a.runID,
		tools:       a.tools,
		maxParallel: opts.MaxParallelTools,
		timeout:     opts.ToolTimeout,
		logger:      logger,
	}

	return a
}

// Name implements core.Agent.
func (a *ChatAgent) Name() string { return a.name }

// Role returns the role this agent plays.
func (a *ChatAgent) Role() core.RoleType { return a.role }

// SystemMessage returns the effective system message, including the output
// language rule when one is configured.
func (a *ChatAgent) SystemMessage() string { return a.systemMessage }

// ToolNames returns the names of the tools offered to the model in
// registration order.
func (a *ChatAgent) ToolNames() []string {
	names := make([]string, 0, len(a.toolDefs))
	for _, d := range a.toolDefs {
		names = append(names, d.Function.Name)
	}
	return names
}

// Memory exposes the conversation memory.
func (a *ChatAgent) Memory() memory.Memory { return a.memory }

// Reset implements core.Agent by clearing the conversation memory.
func (a *ChatAgent) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.memory.Clear()
}

// Step implements core.Agent.
//
// Hitting a length finish reason, the model call limit or the tool iteration
// limit yields a terminated response, not an error. Model failures are
// returned as errors; tool failures are fed back to the model.
func (a *ChatAgent) Step(ctx context.Context, msg core.Message) (core.AgentResponse, error) {
	if err := ctx.Err(); err != nil {
		return core.AgentResponse{}, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	start := time.Now()
	a.logger.Debug("agent.step.start", "agent", a.name, "role", a.role.String(), "input_chars", len(msg.Content))

	a.memory.Add(msg.ToContent(core.ContentRoleUser))

	var (
		info       core.ResponseInfo
		budget     = core.NewCallBudget(a.opts.MaxModelCalls)
		iterations int
	)

	terminate := func(reason string, content string) core.AgentResponse {
		info.TerminationReasons = append(info.TerminationReasons, reason)
		a.logger.Warn("agent.step.terminated", "agent", a.name, "reason", reason, "model_calls", budget.Used(), "tool_calls", len(info.ToolCalls))

		resp := core.AgentResponse{Terminated: true, Info: info}
		if content != "" {
			resp.Messages = []core.Message{core.NewMessage(a.role, a.name, content)}
		}
		return resp
	}

	for {
		if err := budget.Take(); err != nil {
			return terminate(ReasonMaxModelCalls, ""), nil
		}

		resp, err := a.generate(ctx)
		if err != nil {
			return core.AgentResponse{Info: info}, fmt.Errorf("agent %s: model call failed: %w", a.name, err)
		}

		if resp.Usage != nil {
			if info.Usage == nil {
				info.Usage = &core.TokenUsage{}
			}
			info.Usage.Add(core.TokenUsage{PromptTokens: resp.Usage.PromptTokens, CompletionTokens: resp.Usage.CompletionTokens})
		}

		content := resp.Content
		content.Role = core.ContentRoleAssistant
		text := content.Text()

		if isLengthFinish(resp.FinishReason) {
			if text != "" {
				a.memory.Add(core.NewTextContent(core.ContentRoleAssistant, text))
			}
			return terminate(ReasonMaxTokens, text), nil
		}

		calls := content.FunctionCalls()
		if len(calls) == 0 {
			a.logger.Info("agent.step.completed",
				"agent", a.name,
				"model_calls", budget.Used(),
				"tool_calls", len(info.ToolCalls),
				"duration_ms", time.Since(start).Milliseconds(),
			)

			if text == "" {
				a.logger.Warn("agent.step.empty_response", "agent", a.name, "finish_reason", resp.FinishReason)
				return core.AgentResponse{Info: info}, nil
			}

			a.memory.Add(core.NewTextContent(core.ContentRoleAssistant, text))
			return core.NewAgentResponse(info, core.NewMessage(a.role, a.name, text)), nil
		}

		if iterations >= a.opts.MaxToolIterations {
			return terminate(ReasonMaxToolIterations, text), nil
		}
		iterations++

		calls = assignCallIDs(calls)
		content = withCallIDs(content, calls)
		a.memory.Add(content)

		records, responses := a.executor.execute(ctx, calls)
		info.ToolCalls = append(info.ToolCalls, records...)
		a.memory.Add(core.Content{Role: core.ContentRoleTool, Parts: responses})

		if err := ctx.Err(); err != nil {
			return core.AgentResponse{Info: info}, err
		}
	}
}

func (a *ChatAgent) generate(ctx context.Context) (model.Response, error) {
	contents := make([]core.Content, 0, a.memory.Len()+1)
	if a.systemMessage != "" {
		contents = append(contents, core.NewTextContent(core.ContentRoleSystem, a.systemMessage))
	}
	contents = append(contents, a.memory.Context()...)

	req := model.Request{Contents: contents, Tools: a.toolDefs}

	start := time.Now()
	resp, err := model.Collect(ctx, a.llm, req)
	dur := time.Since(start)

	if err != nil {
		if !errors.Is(err, context.Canceled) {
			a.logger.Error("llm.call.failed", "agent", a.name, "model", a.llm.Info().Name, "duration", dur, "error", err.Error())
		}
		return model.Response{}, err
	}

	tokens := 0
	if resp.Usage != nil {
		tokens = resp.Usage.TotalTokens
	}
	a.logger.Debug("llm.call.completed", "agent", a.name, "model", a.llm.Info().Name, "token_count", tokens, "duration", dur, "finish_reason", resp.FinishReason)

	return resp, nil
}

func isLengthFinish(reason string) bool {
	return reason == model.FinishReasonLength || reason == "max_tokens"
}

// assignCallIDs fills in missing call IDs so responses can be correlated.
func assignCallIDs(calls []core.FunctionCall) []core.FunctionCall {
	out := make([]core.FunctionCall, len(calls))
	for i, c := range calls {
		if c.ID == "" {
			c.ID = core.NewID()
		}
		out[i] = c
	}
	return out
}

func withCallIDs(content core.Content, calls []core.FunctionCall) core.Content {
	parts := make([]core.Part, 0, len(content.Parts))
	i := 0
	for _, p := range content.Parts {
		if _, ok := p.(core.FunctionCallPart); ok {
			p = core.FunctionCallPart{FunctionCall: calls[i]}
			i++
		}
		parts = append(parts, p)
	}
	return core.Content{Role: content.Role, Parts: parts}
}
