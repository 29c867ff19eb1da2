// Package anthropic provides an implementation of model.Model backed by the
// Anthropic Messages API with tool use.
package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/shared/constant"

	"github.com/hupe1980/rolemesh/core"
	"github.com/hupe1980/rolemesh/model"
)

// Options configures the Anthropic model adapter.
type Options struct {
	Model       anthropic.Model
	Temperature float64
	MaxTokens   int64
	APIKey      string
}

// Model wraps the Anthropic Messages API behind the generic model.Model interface.
type Model struct {
	client *anthropic.Client
	opts   Options
}

func defaultOptions(optFns ...func(o *Options)) Options {
	opts := Options{
		Model:       anthropic.ModelClaude3_5Sonnet20241022,
		Temperature: 0.7,
		MaxTokens:   4096,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return opts
}

// NewModel creates a new Anthropic model. When APIKey is empty the SDK
// reads ANTHROPIC_API_KEY.
func NewModel(optFns ...func(o *Options)) *Model {
	opts := defaultOptions(optFns...)

	var reqOpts []option.RequestOption
	if opts.APIKey != "" {
		reqOpts = append(reqOpts, option.WithAPIKey(opts.APIKey))
	}

	client := anthropic.NewClient(reqOpts...)
	return &Model{client: &client, opts: opts}
}

// NewModelFromClient creates a new Anthropic model from an existing client.
func NewModelFromClient(client *anthropic.Client, optFns ...func(o *Options)) *Model {
	return &Model{client: client, opts: defaultOptions(optFns...)}
}

// Generate implements model.Model.
func (m *Model) Generate(ctx context.Context, req model.Request) (<-chan model.Response, <-chan error) {
	out := make(chan model.Response, 1)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		params, err := m.convRequest(req)
		if err != nil {
			errCh <- err
			return
		}

		resp, err := m.client.Messages.New(ctx, params)
		if err != nil {
			errCh <- fmt.Errorf("anthropic api error: %w", err)
			return
		}

		out <- convResponse(resp)
	}()

	return out, errCh
}

func (m *Model) convRequest(req model.Request) (anthropic.MessageNewParams, error) {
	msgs, err := convMessages(req.Contents)
	if err != nil {
		return anthropic.MessageNewParams{}, err
	}

	params := anthropic.MessageNewParams{
		Model:       m.opts.Model,
		Messages:    msgs,
		MaxTokens:   m.opts.MaxTokens,
		Temperature: anthropic.Float(m.opts.Temperature),
	}

	if sys := req.SystemPrompt(); sys != "" {
		params.System = []anthropic.TextBlockParam{{Text: sys}}
	}

	for _, t := range req.Tools {
		params.Tools = append(params.Tools, convTool(t))
	}

	return params, nil
}

// convMessages maps normalized contents to Messages API turns. Tool results
// travel in user turns. Consecutive turns of the same role are merged so
// user and assistant strictly alternate.
func convMessages(in []core.Content) ([]anthropic.MessageParam, error) {
	var msgs []anthropic.MessageParam

	for _, c := range in {
		if c.Role == core.ContentRoleSystem {
			continue
		}

		assistant := c.Role == core.ContentRoleAssistant

		var blocks []anthropic.ContentBlockParamUnion
		for _, p := range c.Parts {
			switch v := p.(type) {
			case core.TextPart:
				if v.Text != "" {
					blocks = append(blocks, anthropic.NewTextBlock(v.Text))
				}
			case core.FunctionCallPart:
				blocks = append(blocks, anthropic.NewToolUseBlock(v.FunctionCall.ID, toolInput(v.FunctionCall.Arguments), v.FunctionCall.Name))
			case core.FunctionResponsePart:
				fr := v.FunctionResponse
				blocks = append(blocks, anthropic.NewToolResultBlock(fr.ID, resultText(fr), fr.Error != ""))
			default:
				return nil, fmt.Errorf("unexpected part type: %T", p)
			}
		}

		if len(blocks) == 0 {
			continue
		}

		if n := len(msgs); n > 0 && isAssistant(msgs[n-1]) == assistant {
			msgs[n-1].Content = append(msgs[n-1].Content, blocks...)
			continue
		}

		if assistant {
			msgs = append(msgs, anthropic.NewAssistantMessage(blocks...))
		} else {
			msgs = append(msgs, anthropic.NewUserMessage(blocks...))
		}
	}

	if len(msgs) == 0 {
		return nil, errors.New("no messages")
	}

	return msgs, nil
}

func isAssistant(m anthropic.MessageParam) bool {
	return m.Role == anthropic.MessageParamRoleAssistant
}

func toolInput(args string) any {
	if args == "" {
		return map[string]any{}
	}
	var input any
	if err := json.Unmarshal([]byte(args), &input); err != nil {
		return map[string]any{"text": args}
	}
	return input
}

func resultText(fr core.FunctionResponse) string {
	if fr.Error != "" {
		return fr.Error
	}
	switch v := fr.Response.(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(b)
	}
}

func convTool(t model.ToolDefinition) anthropic.ToolUnionParam {
	schema := anthropic.ToolInputSchemaParam{Type: constant.Object("object")}

	if props, ok := t.Function.Parameters["properties"]; ok {
		schema.Properties = props
	}
	switch req := t.Function.Parameters["required"].(type) {
	case []string:
		schema.Required = req
	case []any:
		for _, r := range req {
			if s, ok := r.(string); ok {
				schema.Required = append(schema.Required, s)
			}
		}
	}

	u := anthropic.ToolUnionParamOfTool(schema, t.Function.Name)
	if t.Function.Description != "" && u.OfTool != nil {
		u.OfTool.Description = anthropic.String(t.Function.Description)
	}
	return u
}

func convResponse(resp *anthropic.Message) model.Response {
	var parts []core.Part

	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			if t := block.AsText().Text; t != "" {
				parts = append(parts, core.TextPart{Text: t})
			}
		case "tool_use":
			tu := block.AsToolUse()
			args := "{}"
			if tu.Input != nil {
				if b, err := json.Marshal(tu.Input); err == nil {
					args = string(b)
				}
			}
			parts = append(parts, core.FunctionCallPart{FunctionCall: core.FunctionCall{
				ID:        tu.ID,
				Name:      tu.Name,
				Arguments: args,
			}})
		}
	}

	return model.Response{
		ID:           resp.ID,
		Content:      core.Content{Role: core.ContentRoleAssistant, Parts: parts},
		FinishReason: convFinishReason(string(resp.StopReason)),
		Usage: &model.TokenUsage{
			PromptTokens:     int(resp.Usage.InputTokens),
			CompletionTokens: int(resp.Usage.OutputTokens),
			TotalTokens:      int(resp.Usage.InputTokens + resp.Usage.OutputTokens),
		},
	}
}

func convFinishReason(r string) string {
	switch r {
	case "", "end_turn", "stop_sequence":
		return model.FinishReasonStop
	case "max_tokens":
		return model.FinishReasonLength
	case "tool_use":
		return model.FinishReasonToolCalls
	default:
		return r
	}
}

// Info returns metadata describing this model.
func (m *Model) Info() model.Info {
	return model.Info{
		Name:          string(m.opts.Model),
		Provider:      "anthropic",
		SupportsTools: true,
	}
}
