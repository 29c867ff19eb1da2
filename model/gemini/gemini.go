// Package gemini provides an implementation of model.Model backed by the
// Google Gen AI SDK (Gemini API) with function calling.
package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"google.golang.org/genai"

	"github.com/hupe1980/rolemesh/core"
	"github.com/hupe1980/rolemesh/model"
)

const (
	roleUser  = "user"
	roleModel = "model"
)

// Options configures the Gemini model adapter.
type Options struct {
	Model           string
	Temperature     float32
	MaxOutputTokens int32
	APIKey          string
}

// Model wraps the Gemini GenerateContent API behind the generic model.Model interface.
type Model struct {
	client *genai.Client
	opts   Options
}

func defaultOptions(optFns ...func(o *Options)) Options {
	opts := Options{
		Model:           "gemini-2.0-flash",
		Temperature:     0.7,
		MaxOutputTokens: 8192,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return opts
}

// NewModel creates a new Gemini model. When APIKey is empty the SDK falls
// back to the GOOGLE_API_KEY / GEMINI_API_KEY environment variables.
func NewModel(ctx context.Context, optFns ...func(o *Options)) (*Model, error) {
	opts := defaultOptions(optFns...)

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  opts.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}

	return &Model{client: client, opts: opts}, nil
}

// NewModelFromClient creates a new Gemini model from an existing client.
func NewModelFromClient(client *genai.Client, optFns ...func(o *Options)) *Model {
	return &Model{client: client, opts: defaultOptions(optFns...)}
}

// Generate implements model.Model.
func (m *Model) Generate(ctx context.Context, req model.Request) (<-chan model.Response, <-chan error) {
	out := make(chan model.Response, 1)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		cfg, contents, err := m.convRequest(req)
		if err != nil {
			errCh <- err
			return
		}

		resp, err := m.client.Models.GenerateContent(ctx, m.opts.Model, contents, cfg)
		if err != nil {
			errCh <- fmt.Errorf("gemini api error: %w", err)
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

func (m *Model) convRequest(req model.Request) (*genai.GenerateContentConfig, []*genai.Content, error) {
	temp := m.opts.Temperature
	cfg := &genai.GenerateContentConfig{
		Temperature:     &temp,
		MaxOutputTokens: m.opts.MaxOutputTokens,
	}

	if sys := req.SystemPrompt(); sys != "" {
		cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{genai.NewPartFromText(sys)}}
	}

	if len(req.Tools) > 0 {
		decls := make([]*genai.FunctionDeclaration, 0, len(req.Tools))
		for _, t := range req.Tools {
			decls = append(decls, &genai.FunctionDeclaration{
				Name:        t.Function.Name,
				Description: t.Function.Description,
				Parameters:  convSchema(t.Function.Parameters),
			})
		}
		cfg.Tools = []*genai.Tool{{FunctionDeclarations: decls}}
	}

	contents, err := convContents(req.Contents)
	if err != nil {
		return nil, nil, err
	}

	return cfg, contents, nil
}

// convContents maps normalized contents to Gemini turns, merging
// consecutive parts with the same role.
func convContents(in []core.Content) ([]*genai.Content, error) {
	var (
		contents []*genai.Content
		last     *genai.Content
	)

	for _, c := range in {
		var role string
		switch c.Role {
		case core.ContentRoleSystem:
			continue
		case core.ContentRoleAssistant:
			role = roleModel
		default:
			role = roleUser
		}

		var parts []*genai.Part
		for _, p := range c.Parts {
			switch v := p.(type) {
			case core.TextPart:
				if v.Text != "" {
					parts = append(parts, genai.NewPartFromText(v.Text))
				}
			case core.FunctionCallPart:
				var args map[string]any
				if v.FunctionCall.Arguments != "" {
					if err := json.Unmarshal([]byte(v.FunctionCall.Arguments), &args); err != nil {
						args = map[string]any{"text": v.FunctionCall.Arguments}
					}
				}
				part := genai.NewPartFromFunctionCall(v.FunctionCall.Name, args)
				part.FunctionCall.ID = v.FunctionCall.ID
				parts = append(parts, part)
			case core.FunctionResponsePart:
				part := genai.NewPartFromFunctionResponse(v.FunctionResponse.Name, responseMap(v.FunctionResponse))
				part.FunctionResponse.ID = v.FunctionResponse.ID
				parts = append(parts, part)
			default:
				return nil, fmt.Errorf("unexpected part type: %T", p)
			}
		}

		if len(parts) == 0 {
			continue
		}

		if last != nil && last.Role == role {
			last.Parts = append(last.Parts, parts...)
			continue
		}

		last = &genai.Content{Role: role, Parts: parts}
		contents = append(contents, last)
	}

	if len(contents) == 0 {
		return nil, errors.New("no contents")
	}

	return contents, nil
}

func responseMap(fr core.FunctionResponse) map[string]any {
	if fr.Error != "" {
		return map[string]any{"error": fr.Error}
	}
	switch v := fr.Response.(type) {
	case map[string]any:
		return v
	case string:
		var m map[string]any
		if err := json.Unmarshal([]byte(v), &m); err == nil {
			return m
		}
		return map[string]any{"output": v}
	default:
		return map[string]any{"output": v}
	}
}

func convResponse(resp *genai.GenerateContentResponse) (model.Response, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return model.Response{}, errors.New("no candidates")
	}

	cand := resp.Candidates[0]
	parts := make([]core.Part, 0, len(cand.Content.Parts))
	hasCalls := false

	for _, p := range cand.Content.Parts {
		switch {
		case p.FunctionCall != nil:
			b, _ := json.Marshal(p.FunctionCall.Args)
			id := p.FunctionCall.ID
			if id == "" {
				id = core.NewID()
			}
			parts = append(parts, core.FunctionCallPart{FunctionCall: core.FunctionCall{
				ID:        id,
				Name:      p.FunctionCall.Name,
				Arguments: string(b),
			}})
			hasCalls = true
		case p.Text != "" && !p.Thought:
			parts = append(parts, core.TextPart{Text: p.Text})
		}
	}

	r := model.Response{
		Content:      core.Content{Role: core.ContentRoleAssistant, Parts: parts},
		FinishReason: convFinishReason(cand.FinishReason, hasCalls),
	}

	if u := resp.UsageMetadata; u != nil {
		r.Usage = &model.TokenUsage{
			PromptTokens:     int(u.PromptTokenCount),
			CompletionTokens: int(u.CandidatesTokenCount),
			TotalTokens:      int(u.PromptTokenCount + u.CandidatesTokenCount),
		}
	}

	return r, nil
}

func convFinishReason(fr genai.FinishReason, hasCalls bool) string {
	if hasCalls {
		return model.FinishReasonToolCalls
	}
	switch fr {
	case genai.FinishReasonStop, genai.FinishReasonUnspecified, "":
		return model.FinishReasonStop
	case genai.FinishReasonMaxTokens:
		return model.FinishReasonLength
	default:
		return string(fr)
	}
}

// convSchema converts a JSON Schema map into a genai.Schema.
func convSchema(schema map[string]any) *genai.Schema {
	if schema == nil {
		return nil
	}

	gs := &genai.Schema{}

	if d, ok := schema["description"].(string); ok {
		gs.Description = d
	}
	if f, ok := schema["format"].(string); ok {
		gs.Format = f
	}
	if enum, ok := schema["enum"].([]any); ok {
		for _, v := range enum {
			gs.Enum = append(gs.Enum, fmt.Sprintf("%v", v))
		}
	}
	switch req := schema["required"].(type) {
	case []string:
		gs.Required = req
	case []any:
		for _, v := range req {
			if s, ok := v.(string); ok {
				gs.Required = append(gs.Required, s)
			}
		}
	}
	if items, ok := schema["items"].(map[string]any); ok {
		gs.Items = convSchema(items)
	}
	if props, ok := schema["properties"].(map[string]any); ok && len(props) > 0 {
		gs.Properties = make(map[string]*genai.Schema, len(props))
		for k, v := range props {
			if pm, ok := v.(map[string]any); ok {
				gs.Properties[k] = convSchema(pm)
			}
		}
	}

	switch schema["type"] {
	case "object":
		gs.Type = genai.TypeObject
	case "array":
		gs.Type = genai.TypeArray
	case "string":
		gs.Type = genai.TypeString
	case "number":
		gs.Type = genai.TypeNumber
	case "integer":
		gs.Type = genai.TypeInteger
	case "boolean":
		gs.Type = genai.TypeBoolean
	}

	return gs
}

// Info returns metadata describing this Gemini model implementation.
func (m *Model) Info() model.Info {
	return model.Info{
		Name:          m.opts.Model,
		Provider:      "gemini",
		SupportsTools: true,
	}
}
