// Package openai provides an implementation of model.Model backed by the
// OpenAI Chat Completions API with function calling.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/hupe1980/rolemesh/core"
	"github.com/hupe1980/rolemesh/model"
)

// Options configures the OpenAI model adapter.
type Options struct {
	Model               string
	Temperature         float64
	MaxCompletionTokens int64
	APIKey              string
	BaseURL             string
}

// Model wraps the OpenAI Chat Completions API behind the generic model.Model interface.
type Model struct {
	client *openai.Client
	opts   Options
}

func defaultOptions(optFns ...func(o *Options)) Options {
	opts := Options{
		Model:               openai.ChatModelGPT4oMini,
		Temperature:         0.7,
		MaxCompletionTokens: 4096,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return opts
}

// NewModel creates a new OpenAI model. APIKey and BaseURL fall back to the
// SDK's environment lookup when empty.
func NewModel(optFns ...func(o *Options)) *Model {
	opts := defaultOptions(optFns...)

	var reqOpts []option.RequestOption
	if opts.APIKey != "" {
		reqOpts = append(reqOpts, option.WithAPIKey(opts.APIKey))
	}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}

	client := openai.NewClient(reqOpts...)
	return &Model{client: &client, opts: opts}
}

// NewModelFromClient creates a new OpenAI model from an existing client.
func NewModelFromClient(client *openai.Client, optFns ...func(o *Options)) *Model {
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

		resp, err := m.client.Chat.Completions.New(ctx, params)
		if err != nil {
			errCh <- fmt.Errorf("openai api error: %w", err)
			return
		}

		r, err := convResponse(resp)
		if err != nil {
			errCh <- err
			return
		}

		out <- r
	}()

	return out, errCh
}

func (m *Model) convRequest(req model.Request) (openai.ChatCompletionNewParams, error) {
	msgs, err := convMessages(req.Contents)
	if err != nil {
		return openai.ChatCompletionNewParams{}, err
	}

	params := openai.ChatCompletionNewParams{
		Messages:            msgs,
		Model:               m.opts.Model,
		Temperature:         openai.Float(m.opts.Temperature),
		MaxCompletionTokens: openai.Int(m.opts.MaxCompletionTokens),
	}

	for _, t := range req.Tools {
		params.Tools = append(params.Tools, openai.ChatCompletionToolParam{
			Function: openai.FunctionDefinitionParam{
				Name:        t.Function.Name,
				Description: openai.String(t.Function.Description),
				Parameters:  t.Function.Parameters,
			},
		})
	}

	return params, nil
}

// convMessages maps normalized contents to chat messages. Every function
// response becomes its own tool message in the position it was recorded.
func convMessages(in []core.Content) ([]openai.ChatCompletionMessageParamUnion, error) {
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(in))

	for _, c := range in {
		switch c.Role {
		case core.ContentRoleSystem:
			if t := c.Text(); t != "" {
				msgs = append(msgs, openai.SystemMessage(t))
			}
		case core.ContentRoleAssistant:
			msgs = append(msgs, assistantMessage(c))
		case core.ContentRoleTool:
			for _, p := range c.Parts {
				fr, ok := p.(core.FunctionResponsePart)
				if !ok {
					continue
				}
				msgs = append(msgs, openai.ToolMessage(toolOutput(fr.FunctionResponse), fr.FunctionResponse.ID))
			}
		default:
			if t := c.Text(); t != "" {
				msgs = append(msgs, openai.UserMessage(t))
			}
		}
	}

	if len(msgs) == 0 {
		return nil, errors.New("no messages")
	}

	return msgs, nil
}

func assistantMessage(c core.Content) openai.ChatCompletionMessageParamUnion {
	var calls []openai.ChatCompletionMessageToolCallParam
	for _, p := range c.Parts {
		if fc, ok := p.(core.FunctionCallPart); ok {
			calls = append(calls, openai.ChatCompletionMessageToolCallParam{
				ID: fc.FunctionCall.ID,
				Function: openai.ChatCompletionMessageToolCallFunctionParam{
					Name:      fc.FunctionCall.Name,
					Arguments: fc.FunctionCall.Arguments,
				},
			})
		}
	}

	if len(calls) == 0 {
		return openai.AssistantMessage(c.Text())
	}

	msg := &openai.ChatCompletionAssistantMessageParam{ToolCalls: calls}
	if t := c.Text(); t != "" {
		msg.Content.OfString = openai.String(t)
	}
	return openai.ChatCompletionMessageParamUnion{OfAssistant: msg}
}

func toolOutput(fr core.FunctionResponse) string {
	if fr.Error != "" {
		return "error: " + fr.Error
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

func convResponse(resp *openai.ChatCompletion) (model.Response, error) {
	if resp == nil || len(resp.Choices) == 0 {
		return model.Response{}, errors.New("no choices returned")
	}

	choice := resp.Choices[0]
	parts := make([]core.Part, 0, len(choice.Message.ToolCalls)+1)

	if choice.Message.Content != "" {
		parts = append(parts, core.TextPart{Text: choice.Message.Content})
	}
	for _, tc := range choice.Message.ToolCalls {
		parts = append(parts, core.FunctionCallPart{FunctionCall: core.FunctionCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		}})
	}

	return model.Response{
		ID:           resp.ID,
		Content:      core.Content{Role: core.ContentRoleAssistant, Parts: parts},
		FinishReason: convFinishReason(choice.FinishReason, len(choice.Message.ToolCalls) > 0),
		Usage:        convUsage(resp.Usage),
	}, nil
}

func convFinishReason(fr string, hasCalls bool) string {
	if hasCalls {
		return model.FinishReasonToolCalls
	}
	switch fr {
	case "", "stop":
		return model.FinishReasonStop
	case "length":
		return model.FinishReasonLength
	default:
		return fr
	}
}

func convUsage(u openai.CompletionUsage) *model.TokenUsage {
	return &model.TokenUsage{
		PromptTokens:     int(u.PromptTokens),
		CompletionTokens: int(u.CompletionTokens),
		TotalTokens:      int(u.TotalTokens),
	}
}

// Info returns metadata describing this model.
func (m *Model) Info() model.Info {
	return model.Info{
		Name:          m.opts.Model,
		Provider:      "openai",
		SupportsTools: true,
	}
}
