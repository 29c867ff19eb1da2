package society

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/rolemesh/core"
	"github.com/hupe1980/rolemesh/internal/testutil"
	"github.com/hupe1980/rolemesh/model"
	"github.com/hupe1980/rolemesh/tool"
)

type recordingObserver struct {
	started  []RunInfo
	rounds   []RoundEvent
	finished []Result
	errs     []error
}

func (o *recordingObserver) RunStarted(info RunInfo)      { o.started = append(o.started, info) }
func (o *recordingObserver) RoundCompleted(ev RoundEvent) { o.rounds = append(o.rounds, ev) }
func (o *recordingObserver) RunFinished(_ RunInfo, res Result, err error) {
	o.finished = append(o.finished, res)
	o.errs = append(o.errs, err)
}

func TestRunStopsAtRoundLimit(t *testing.T) {
	d := testutil.Repeat("user", core.RoleDirector, "Instruction: keep searching")
	e := testutil.Repeat("assistant", core.RoleExecutor, "Solution: still searching")
	s := newTestSociety(t, d, e)

	obs := &recordingObserver{}
	res, err := Run(context.Background(), s, WithRoundLimit(3), WithObserver(obs))
	require.NoError(t, err)

	assert.Equal(t, StateDoneLimit, res.State)
	assert.Equal(t, 3, res.Rounds)
	assert.Len(t, res.History, 3)
	assert.Equal(t, 3, d.Calls())
	assert.Equal(t, 3, e.Calls())
	assert.Equal(t, "Solution: still searching #3", res.Answer)
	assert.Equal(t, "Instruction: keep searching #3", res.History[2].Director)
	assert.Equal(t, "Solution: still searching #3", res.History[2].Executor)

	// Each round feeds the previous augmented executor reply to the director,
	// while the history keeps the reply as the executor wrote it.
	inputs := d.Inputs()
	assert.Equal(t, s.InitMessage(), inputs[0])
	assert.True(t, strings.HasPrefix(inputs[1].Content, "Solution: still searching #1"))
	assert.Contains(t, inputs[1].Content, "Provide me with the next instruction")
	assert.Equal(t, "Solution: still searching #1", res.History[0].Executor)

	assert.Equal(t, "Instruction: keep searching #1", obs.rounds[0].Director)
	assert.Equal(t, "Solution: still searching #1", obs.rounds[0].Executor)

	require.Len(t, obs.started, 1)
	assert.Equal(t, 3, obs.started[0].RoundLimit)
	assert.Len(t, obs.rounds, 3)
	require.Len(t, obs.finished, 1)
	assert.NoError(t, obs.errs[0])
}

func TestRunSentinels(t *testing.T) {
	for _, reply := range []string{"TASK_DONE", "All verified, TASK_DONE", "任务已完成"} {
		t.Run(reply, func(t *testing.T) {
			d := testutil.NewScriptedAgent("user", core.RoleDirector, directorSays("Instruction: search"), directorSays(reply))
			e := testutil.Repeat("assistant", core.RoleExecutor, "Solution")
			s := newTestSociety(t, d, e)

			res, err := Run(context.Background(), s, WithRoundLimit(5))
			require.NoError(t, err)
			assert.Equal(t, StateDoneNormal, res.State)
			assert.Equal(t, 2, res.Rounds)
			assert.Len(t, res.History, 2)
			assert.Equal(t, reply, res.History[1].Director)
			assert.Equal(t, "Solution #2", res.Answer)
		})
	}
}

func TestRunCustomSentinels(t *testing.T) {
	d := testutil.NewScriptedAgent("user", core.RoleDirector, directorSays("TASK_DONE"), directorSays("FERTIG"))
	s := newTestSociety(t, d, testutil.Repeat("assistant", core.RoleExecutor, "Solution"))

	res, err := Run(context.Background(), s, WithRoundLimit(5), WithSentinels("FERTIG"))
	require.NoError(t, err)
	assert.Equal(t, StateDoneNormal, res.State)
	assert.Equal(t, 2, res.Rounds)
}

func TestRunScenarioImmediateTermination(t *testing.T) {
	t.Run("director", func(t *testing.T) {
		d := testutil.NewScriptedAgent("user", core.RoleDirector,
			testutil.NewResponseBuilder(core.RoleDirector, "user").Terminated("max_tokens_exceeded").Build())
		s := newTestSociety(t, d, testutil.NewScriptedAgent("assistant", core.RoleExecutor))

		res, err := Run(context.Background(), s, WithRoundLimit(5))
		require.NoError(t, err)
		assert.Equal(t, StateDoneTerminated, res.State)
		assert.Empty(t, res.History)
		assert.NotNil(t, res.History)
		assert.Equal(t, "", res.Answer)
		assert.Equal(t, []string{"max_tokens_exceeded"}, res.TerminationReasons)
	})

	t.Run("executor partial output", func(t *testing.T) {
		d := testutil.NewScriptedAgent("user", core.RoleDirector, directorSays("Instruction: geocode"))
		e := testutil.NewScriptedAgent("assistant", core.RoleExecutor,
			testutil.NewResponseBuilder(core.RoleExecutor, "assistant").Text("Solution: partial").Terminated("max_tokens_exceeded").Build())
		s := newTestSociety(t, d, e)

		res, err := Run(context.Background(), s)
		require.NoError(t, err)
		assert.Equal(t, StateDoneTerminated, res.State)
		assert.Empty(t, res.History)
		assert.Equal(t, 1, res.Rounds)
		assert.Equal(t, "Solution: partial", res.Answer)
	})

	t.Run("executor without output falls back to director", func(t *testing.T) {
		d := testutil.NewScriptedAgent("user", core.RoleDirector, directorSays("Instruction: geocode"))
		e := testutil.NewScriptedAgent("assistant", core.RoleExecutor,
			testutil.NewResponseBuilder(core.RoleExecutor, "assistant").Terminated("max_model_calls_exceeded").Build())
		s := newTestSociety(t, d, e)

		res, err := Run(context.Background(), s)
		require.NoError(t, err)
		assert.Equal(t, StateDoneTerminated, res.State)
		assert.Equal(t, "Instruction: geocode", res.Answer)
	})
}

func TestRunScenarioDoneOnSecondRound(t *testing.T) {
	d := testutil.NewScriptedAgent("user", core.RoleDirector,
		directorSays("Instruction: find three ramen shops near Shibuya Station"),
		directorSays("TASK_DONE"),
	)
	e := testutil.NewScriptedAgent("assistant", core.RoleExecutor,
		executorSays("Solution: Ichiran, Afuri, Kamukura"),
		executorSays("Final answer: Ichiran Shibuya (¥1,180), Afuri Harajuku (¥1,250), Kamukura Dogenzaka (¥990)"),
	)
	s := newTestSociety(t, d, e)

	res, err := Run(context.Background(), s, WithRoundLimit(5))
	require.NoError(t, err)

	assert.Equal(t, StateDoneNormal, res.State)
	require.Len(t, res.History, 2)
	assert.Equal(t, "Final answer: Ichiran Shibuya (¥1,180), Afuri Harajuku (¥1,250), Kamukura Dogenzaka (¥990)", res.Answer)
	assert.Equal(t, res.History[1].Executor, res.Answer)
	assert.Contains(t, e.Inputs()[1].Content, "Now please make a final answer")
	assert.Equal(t, 2, d.Calls())
	assert.Equal(t, 2, e.Calls())
}

func TestRunTokenAccumulation(t *testing.T) {
	noUsage := testutil.NewResponseBuilder(core.RoleExecutor, "assistant").Text("Solution: no usage").Build()

	d := testutil.NewScriptedAgent("user", core.RoleDirector,
		directorSays("Instruction: 1"),
		directorSays("Instruction: 2"),
		directorSays("Instruction: 3"),
	)
	e := testutil.NewScriptedAgent("assistant", core.RoleExecutor,
		executorSays("Solution: 1"),
		noUsage,
		executorSays("Solution: 3"),
	)
	s := newTestSociety(t, d, e)

	obs := &recordingObserver{}
	res, err := Run(context.Background(), s, WithRoundLimit(3), WithObserver(obs))
	require.NoError(t, err)

	// Two rounds with usage on both sides: prompt 50+80, completion 10+40 each.
	assert.Equal(t, core.TokenUsage{PromptTokens: 260, CompletionTokens: 100}, res.Usage)

	require.Len(t, obs.rounds, 3)
	assert.NotNil(t, obs.rounds[0].RoundUsage)
	assert.Nil(t, obs.rounds[1].RoundUsage)
	prev := 0
	for _, ev := range obs.rounds {
		assert.GreaterOrEqual(t, ev.Usage.TotalTokens(), prev)
		prev = ev.Usage.TotalTokens()
	}
}

func TestRunRecordsToolCalls(t *testing.T) {
	withTools := testutil.NewResponseBuilder(core.RoleExecutor, "assistant").
		Text("Solution: geocoded").
		ToolCall("maps_geocode", map[string]any{"address": "Shibuya"}, map[string]any{"lat": 35.658}).
		Build()

	d := testutil.NewScriptedAgent("user", core.RoleDirector, directorSays("Instruction: geocode"), directorSays("TASK_DONE"))
	e := testutil.NewScriptedAgent("assistant", core.RoleExecutor, withTools, executorSays("Final"))
	s := newTestSociety(t, d, e)

	res, err := Run(context.Background(), s)
	require.NoError(t, err)

	require.Len(t, res.History[0].ToolCalls, 1)
	assert.Equal(t, "maps_geocode", res.History[0].ToolCalls[0]["tool_name"])
	assert.Equal(t, map[string]any{"address": "Shibuya"}, res.History[0].ToolCalls[0]["args"])
	assert.NotNil(t, res.History[1].ToolCalls)
	assert.Empty(t, res.History[1].ToolCalls)
}

func TestRunEmptyExecutorReply(t *testing.T) {
	d := testutil.NewScriptedAgent("user", core.RoleDirector, directorSays("Instruction: 1"), directorSays("Instruction: 2"))
	e := testutil.NewScriptedAgent("assistant", core.RoleExecutor, executorSays("Solution: 1"), core.AgentResponse{})
	s := newTestSociety(t, d, e)

	res, err := Run(context.Background(), s, WithRoundLimit(5))
	require.NoError(t, err)
	assert.Equal(t, StateDoneTerminated, res.State)
	assert.Equal(t, []string{ReasonEmptyResponse}, res.TerminationReasons)
	assert.Len(t, res.History, 2)
	assert.Equal(t, "Solution: 1", res.Answer)
}

func TestRunInvalidRoundLimit(t *testing.T) {
	s := newTestSociety(t, testutil.Repeat("user", core.RoleDirector, "I"), testutil.Repeat("assistant", core.RoleExecutor, "S"))

	for _, n := range []int{0, -1} {
		_, err := Run(context.Background(), s, WithRoundLimit(n))
		assert.ErrorIs(t, err, ErrInvalidRoundLimit)
	}
}

func TestRunAgentErrorReturnsPartialResult(t *testing.T) {
	boom := errors.New("upstream 500")
	d := testutil.Repeat("user", core.RoleDirector, "Instruction").FailAt(2, boom)
	s := newTestSociety(t, d, testutil.Repeat("assistant", core.RoleExecutor, "Solution"))

	obs := &recordingObserver{}
	res, err := Run(context.Background(), s, WithRoundLimit(5), WithObserver(obs))
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "round 3")
	assert.Equal(t, StateRunning, res.State)
	assert.Len(t, res.History, 2)
	assert.Equal(t, "Solution #2", res.Answer)
	assert.ErrorIs(t, obs.errs[0], boom)
}

func TestRunContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	d := testutil.NewScriptedAgent("user", core.RoleDirector)
	d.Fallback = func(call int, _ core.Message) core.AgentResponse {
		if call == 1 {
			cancel()
		}
		return directorSays("Instruction: next")
	}
	s := newTestSociety(t, d, testutil.Repeat("assistant", core.RoleExecutor, "Solution"))

	res, err := Run(ctx, s, WithRoundLimit(10))
	require.ErrorIs(t, err, context.Canceled)
	assert.Less(t, res.Rounds, 10)
}

func TestRunWithChatAgents(t *testing.T) {
	geocode := tool.NewFunctionTool("maps_geocode", "Geocode an address", nil,
		func(_ *core.ToolContext, args map[string]any) (any, error) {
			return map[string]any{"lat": 35.658, "lng": 139.701}, nil
		})

	planner := model.NewScriptedModel("planner",
		model.WithUsage(model.Text("Instruction: geocode Shibuya Station with maps_geocode"), 200, 20),
		model.WithUsage(model.Text("TASK_DONE"), 300, 2),
	)
	worker := model.NewScriptedModel("worker",
		model.WithUsage(model.ToolCalls(core.FunctionCall{ID: "call-1", Name: "maps_geocode", Arguments: `{"address":"Shibuya Station"}`}), 250, 15),
		model.WithUsage(model.Text("Solution: Shibuya Station is at 35.658, 139.701"), 320, 30),
		model.WithUsage(model.Text("Final answer: start from 35.658, 139.701"), 400, 25),
	)

	s, err := New(task, nil, Config{
		Director: RoleConfig{Model: planner},
		Executor: RoleConfig{Model: worker, Tools: []tool.Tool{geocode}},
	})
	require.NoError(t, err)

	res, err := Run(context.Background(), s, WithRoundLimit(DefaultQueryRoundLimit))
	require.NoError(t, err)

	assert.Equal(t, StateDoneNormal, res.State)
	require.Len(t, res.History, 2)
	assert.Equal(t, "Final answer: start from 35.658, 139.701", res.Answer)
	require.Len(t, res.History[0].ToolCalls, 1)
	assert.Equal(t, "maps_geocode", res.History[0].ToolCalls[0]["tool_name"])
	assert.Equal(t, core.TokenUsage{PromptTokens: 200 + 250 + 320 + 300 + 400, CompletionTokens: 20 + 15 + 30 + 2 + 25}, res.Usage)

	// The director's second request contains the augmented solution from round one.
	second := planner.Requests()[1]
	last := second.Contents[len(second.Contents)-1]
	assert.True(t, strings.HasPrefix(last.Text(), "Solution: Shibuya Station is at 35.658, 139.701"))
	assert.Contains(t, last.Text(), "Provide me with the next instruction")
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "RUNNING", StateRunning.String())
	assert.Equal(t, "DONE_NORMAL", StateDoneNormal.String())
	assert.Equal(t, "DONE_LIMIT", StateDoneLimit.String())
	assert.Equal(t, "DONE_TERMINATED", StateDoneTerminated.String())
	assert.Equal(t, "State(9)", State(9).String())
	assert.False(t, StateRunning.Done())
	assert.True(t, StateDoneLimit.Done())

	text, err := StateDoneNormal.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "DONE_NORMAL", string(text))
}
