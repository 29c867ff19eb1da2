package gemini

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/hupe1980/rolemesh/core"
	"github.com/hupe1980/rolemesh/model"
)

func TestConvContentsMergesRolesAndSkipsSystem(t *testing.T) {
	contents, err := convContents([]core.Content{
		core.NewTextContent(core.ContentRoleSystem, "rules"),
		core.NewTextContent(core.ContentRoleUser, "Instruction: find ramen"),
		{Role: core.ContentRoleAssistant, Parts: []core.Part{
			core.FunctionCallPart{FunctionCall: core.FunctionCall{ID: "c1", Name: "maps_search_places", Arguments: `{"query":"ramen"}`}},
		}},
		{Role: core.ContentRoleTool, Parts: []core.Part{
			core.FunctionResponsePart{FunctionResponse: core.FunctionResponse{ID: "c1", Name: "maps_search_places", Response: `{"places":[]}`}},
		}},
		core.NewTextContent(core.ContentRoleUser, "next"),
	})
	require.NoError(t, err)
	require.Len(t, contents, 3)

	assert.Equal(t, roleUser, contents[0].Role)
	assert.Equal(t, roleModel, contents[1].Role)
	require.NotNil(t, contents[1].Parts[0].FunctionCall)
	assert.Equal(t, "ramen", contents[1].Parts[0].FunctionCall.Args["query"])

	assert.Equal(t, roleUser, contents[2].Role)
	require.Len(t, contents[2].Parts, 2)
	require.NotNil(t, contents[2].Parts[0].FunctionResponse)
	assert.Equal(t, "c1", contents[2].Parts[0].FunctionResponse.ID)
}

func TestConvContentsEmpty(t *testing.T) {
	_, err := convContents([]core.Content{core.NewTextContent(core.ContentRoleSystem, "only system")})
	assert.Error(t, err)
}

func TestConvResponse(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Role: roleModel, Parts: []*genai.Part{
				{Text: "thinking", Thought: true},
				genai.NewPartFromText("Solution: Ichiran Shibuya"),
			}},
			FinishReason: genai.FinishReasonStop,
		}},
		UsageMetadata: &genai.GenerateContentResponseUsageMetadata{PromptTokenCount: 20, CandidatesTokenCount: 7},
	}

	r, err := convResponse(resp)
	require.NoError(t, err)
	assert.Equal(t, "Solution: Ichiran Shibuya", r.Content.Text())
	assert.Equal(t, model.FinishReasonStop, r.FinishReason)
	require.NotNil(t, r.Usage)
	assert.Equal(t, 20, r.Usage.PromptTokens)
	assert.Equal(t, 7, r.Usage.CompletionTokens)
}

func TestConvResponseFunctionCall(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Role: roleModel, Parts: []*genai.Part{
				genai.NewPartFromFunctionCall("maps_geocode", map[string]any{"address": "Shibuya"}),
			}},
			FinishReason: genai.FinishReasonStop,
		}},
	}

	r, err := convResponse(resp)
	require.NoError(t, err)
	calls := r.Content.FunctionCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "maps_geocode", calls[0].Name)
	assert.NotEmpty(t, calls[0].ID)
	assert.JSONEq(t, `{"address":"Shibuya"}`, calls[0].Arguments)
	assert.Equal(t, model.FinishReasonToolCalls, r.FinishReason)
	assert.Nil(t, r.Usage)

	_, err = convResponse(&genai.GenerateContentResponse{})
	assert.Error(t, err)
}

func TestConvSchema(t *testing.T) {
	s := convSchema(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query":  map[string]any{"type": "string", "description": "search text"},
			"radius": map[string]any{"type": "integer"},
			"tags":   map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		},
		"required": []string{"query"},
	})
	require.NotNil(t, s)
	assert.Equal(t, genai.TypeObject, s.Type)
	assert.Equal(t, []string{"query"}, s.Required)
	assert.Equal(t, genai.TypeString, s.Properties["query"].Type)
	assert.Equal(t, "search text", s.Properties["query"].Description)
	assert.Equal(t, genai.TypeInteger, s.Properties["radius"].Type)
	assert.Equal(t, genai.TypeString, s.Properties["tags"].Items.Type)
	assert.Nil(t, convSchema(nil))
}

func TestResponseMap(t *testing.T) {
	assert.Equal(t, map[string]any{"error": "boom"}, responseMap(core.FunctionResponse{Error: "boom"}))
	assert.Equal(t, map[string]any{"a": float64(1)}, responseMap(core.FunctionResponse{Response: `{"a":1}`}))
	assert.Equal(t, map[string]any{"output": "plain"}, responseMap(core.FunctionResponse{Response: "plain"}))
}

func TestInfo(t *testing.T) {
	info := NewModelFromClient(nil, func(o *Options) { o.Temperature = 0.3 }).Info()
	assert.Equal(t, "gemini", info.Provider)
	assert.Equal(t, "gemini-2.0-flash", info.Name)
}
