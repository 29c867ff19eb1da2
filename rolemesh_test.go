package rolemesh

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/rolemesh/core"
	"github.com/hupe1980/rolemesh/model"
	"github.com/hupe1980/rolemesh/society"
	"github.com/hupe1980/rolemesh/tool"
)

func TestSolve(t *testing.T) {
	director := model.NewScriptedModel("director",
		model.Text("Instruction: look up the weather in Kyoto with get_weather"),
		model.Text("TASK_DONE"),
	)
	executor := model.NewScriptedModel("executor",
		model.ToolCalls(core.FunctionCall{ID: "c1", Name: "get_weather", Arguments: `{"location":"Kyoto"}`}),
		model.Text("Solution: 18°C and clear"),
		model.Text("Kyoto is 18°C and clear tonight."),
	)

	weather := tool.NewFunctionTool("get_weather", "Current weather", nil,
		func(_ *core.ToolContext, args map[string]any) (any, error) {
			return map[string]any{"location": args["location"], "temperature_c": 18}, nil
		})

	mesh := New(director, executor)
	mesh.RegisterTool(weather)

	res, err := mesh.Solve(context.Background(), "Is it warm enough for dinner outside in Kyoto?")
	require.NoError(t, err)

	assert.Equal(t, society.StateDoneNormal, res.State)
	assert.Equal(t, "Kyoto is 18°C and clear tonight.", res.Answer)
	require.Len(t, res.History, 2)
	assert.Len(t, res.History[0].ToolCalls, 1)

	assert.Contains(t, director.Requests()[0].SystemPrompt(), "get_weather")

	sessions := mesh.Sessions().List()
	require.Len(t, sessions, 1)
	assert.Len(t, sessions[0].Rounds, 2)
	assert.Equal(t, res.Answer, sessions[0].Result.Answer)
}

func TestSolveOptions(t *testing.T) {
	m := model.NewScriptedModel("shared", model.Text("Instruction: one"), model.Text("fine"), model.Text("Instruction: two"))

	mesh := New(m, m, func(o *Options) {
		o.RoundLimit = 1
		o.OutputLanguage = "German"
	})

	res, err := mesh.Solve(context.Background(), "plan dinner")
	require.NoError(t, err)
	assert.Equal(t, society.StateDoneLimit, res.State)
	assert.Equal(t, 1, res.Rounds)
	assert.Contains(t, m.Requests()[0].SystemPrompt(), "German")

	_, err = mesh.Solve(context.Background(), " ")
	assert.ErrorIs(t, err, society.ErrEmptyTask)
}
