package society

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/rolemesh/agent"
	"github.com/hupe1980/rolemesh/core"
	"github.com/hupe1980/rolemesh/internal/testutil"
	"github.com/hupe1980/rolemesh/model"
	"github.com/hupe1980/rolemesh/tool"
)

const task = "Recommend ramen near Shibuya Station under ¥2,000"

var mapsTools = []string{"maps_geocode", "maps_search_places"}

func newTestSociety(t *testing.T, director, executor core.Agent) *Society {
	t.Helper()
	s, err := New(task, mapsTools, Config{}, WithAgents(director, executor))
	require.NoError(t, err)
	return s
}

func TestNewBuildsSystemMessages(t *testing.T) {
	s := newTestSociety(t, testutil.Repeat("user", core.RoleDirector, "Instruction"), testutil.Repeat("assistant", core.RoleExecutor, "Solution"))

	assert.Equal(t, task, s.Task())
	assert.Equal(t, mapsTools, s.ToolNames())

	d, e := s.Director(), s.Executor()
	assert.Equal(t, "user", d.Name)
	assert.Equal(t, "assistant", e.Name)
	assert.Equal(t, core.RoleDirector, d.Type)
	assert.Equal(t, core.RoleExecutor, e.Type)

	for _, msg := range []string{d.SystemMessage, e.SystemMessage} {
		assert.Contains(t, msg, task)
		assert.Contains(t, msg, "maps_geocode, maps_search_places")
	}
	assert.Contains(t, d.SystemMessage, "You will always instruct me.")
	assert.Contains(t, d.SystemMessage, "<TASK_DONE>")
	assert.Contains(t, e.SystemMessage, "Never instruct me!")
	assert.Contains(t, e.SystemMessage, "Never invent, assume or pretend to call any other tool.")

	init := s.InitMessage()
	assert.Equal(t, core.RoleExecutor, init.RoleType)
	assert.True(t, strings.HasPrefix(init.Content, "Now please give me instructions"))
}

func TestNewBuildsChatAgents(t *testing.T) {
	geocode := tool.NewFunctionTool("maps_geocode", "Geocode", nil, func(*core.ToolContext, map[string]any) (any, error) { return "ok", nil })

	s, err := New(task, nil, Config{
		DirectorRoleName: "Planner",
		ExecutorRoleName: "Scout",
		OutputLanguage:   "English",
		Director:         RoleConfig{Model: model.NewScriptedModel("planner")},
		Executor:         RoleConfig{Model: model.NewScriptedModel("scout"), Tools: []tool.Tool{geocode}, OutputLanguage: "Japanese"},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"maps_geocode"}, s.ToolNames())

	director, ok := s.Director().Agent.(*agent.ChatAgent)
	require.True(t, ok)
	assert.Equal(t, "Planner", director.Name())
	assert.True(t, strings.HasPrefix(director.SystemMessage(), s.Director().SystemMessage))
	assert.True(t, strings.HasSuffix(director.SystemMessage(), "output text in English."))
	assert.Empty(t, director.ToolNames())

	executor, ok := s.Executor().Agent.(*agent.ChatAgent)
	require.True(t, ok)
	assert.True(t, strings.HasSuffix(executor.SystemMessage(), "output text in Japanese."))
	assert.Equal(t, []string{"maps_geocode"}, executor.ToolNames())
}

func TestNewErrors(t *testing.T) {
	_, err := New("  ", nil, Config{})
	assert.ErrorIs(t, err, ErrEmptyTask)

	_, err = New(task, nil, Config{Director: RoleConfig{Model: model.NewScriptedModel("m")}})
	assert.ErrorIs(t, err, ErrNoAgents)
}

func TestConfigFromMap(t *testing.T) {
	m := model.NewScriptedModel("m")

	cfg, err := ConfigFromMap(map[string]any{
		"director_role_name": "Planner",
		"executor_role_name": "Scout",
		"output_language":    "German",
		"director_model":     m,
		"executor":           RoleConfig{Model: m, MaxToolIterations: 3},
	})
	require.NoError(t, err)
	assert.Equal(t, "Planner", cfg.DirectorRoleName)
	assert.Equal(t, "Scout", cfg.ExecutorRoleName)
	assert.Equal(t, "German", cfg.OutputLanguage)
	assert.Equal(t, 3, cfg.Executor.MaxToolIterations)
	assert.NotNil(t, cfg.Director.Model)

	_, err = ConfigFromMap(map[string]any{"with_task_specify": false})
	assert.ErrorIs(t, err, ErrUnknownOption)

	_, err = ConfigFromMap(map[string]any{"output_language": 42})
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnknownOption)
}

func TestRoleReset(t *testing.T) {
	d := testutil.Repeat("user", core.RoleDirector, "Instruction")
	e := testutil.Repeat("assistant", core.RoleExecutor, "Solution")
	s := newTestSociety(t, d, e)

	s.Reset()
	assert.Equal(t, 1, d.Resets())
	assert.Equal(t, 1, e.Resets())
}

func TestSentinelPredicates(t *testing.T) {
	cases := []struct {
		content string
		final   bool
		done    bool
	}{
		{"TASK_DONE", true, true},
		{"Everything is verified. TASK_DONE.", true, true},
		{"<TASK_DONE>", true, true},
		{"任务已完成", false, true},
		{"Instruction: search for izakaya", false, false},
		{"task_done", false, false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.final, IsFinalInstruction(tc.content), tc.content)
		assert.Equal(t, tc.done, IsTaskDone(tc.content, DefaultSentinels), tc.content)
	}

	assert.True(t, IsTaskDone("ALL DONE", []string{"ALL DONE"}))
	assert.False(t, IsTaskDone("anything", []string{""}))
}

func TestAugmentKeepsOriginalAsPrefix(t *testing.T) {
	in := core.NewMessage(core.RoleDirector, "user", "Instruction: geocode Shibuya Station")

	ins := AugmentInstruction(in, task)
	assert.True(t, strings.HasPrefix(ins.Content, in.Content))
	assert.Contains(t, ins.Content, "<auxiliary_information>")
	assert.Equal(t, "Instruction: geocode Shibuya Station", in.Content)

	final := AugmentInstruction(core.NewMessage(core.RoleDirector, "user", "TASK_DONE"), task)
	assert.True(t, strings.HasPrefix(final.Content, "TASK_DONE"))
	assert.Contains(t, final.Content, "Now please make a final answer")
	assert.NotContains(t, final.Content, "<auxiliary_information>")

	sol := AugmentSolution(core.NewMessage(core.RoleExecutor, "assistant", "Solution: found it"), task)
	assert.True(t, strings.HasPrefix(sol.Content, "Solution: found it"))
	assert.Contains(t, sol.Content, "reply with `TASK_DONE`")
	assert.Equal(t, core.RoleExecutor, sol.RoleType)
}
