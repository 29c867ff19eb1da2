package society

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hupe1980/rolemesh/core"
)

// Round limits used by the runners.
const (
	DefaultBulkRoundLimit  = 15
	DefaultQueryRoundLimit = 10
)

// ReasonEmptyResponse ends a session whose executor produced nothing to relay.
const ReasonEmptyResponse = "empty_response"

// ErrInvalidRoundLimit is returned by Run for a round limit below one.
var ErrInvalidRoundLimit = errors.New("round limit must be positive")

// State is the lifecycle state of a session.
type State int

// Session states. A session starts in StateRunning and ends in one of the
// three done states.
const (
	StateRunning State = iota
	StateDoneNormal
	StateDoneLimit
	StateDoneTerminated
)

var stateNames = map[State]string{
	StateRunning:        "RUNNING",
	StateDoneNormal:     "DONE_NORMAL",
	StateDoneLimit:      "DONE_LIMIT",
	StateDoneTerminated: "DONE_TERMINATED",
}

func (s State) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Done reports whether s is a terminal state.
func (s State) Done() bool { return s != StateRunning }

// Result is the outcome of Run.
type Result struct {
	Answer             string                  `json:"answer" yaml:"answer"`
	History            []core.ChatHistoryEntry `json:"chat_history" yaml:"chat_history"`
	Usage              core.TokenUsage         `json:"token_info" yaml:"token_info"`
	State              State                   `json:"state" yaml:"state"`
	Rounds             int                     `json:"rounds" yaml:"rounds"`
	TerminationReasons []string                `json:"termination_reasons,omitempty" yaml:"termination_reasons,omitempty"`
}

// RunOptions configures Run.
type RunOptions struct {
	RoundLimit int
	Sentinels  []string
	Observer   Observer
}

// WithRoundLimit caps the number of rounds. Run rejects n < 1.
func WithRoundLimit(n int) func(o *RunOptions) {
	return func(o *RunOptions) { o.RoundLimit = n }
}

// WithSentinels replaces DefaultSentinels.
func WithSentinels(sentinels ...string) func(o *RunOptions) {
	return func(o *RunOptions) { o.Sentinels = sentinels }
}

// WithObserver receives lifecycle events of the run.
func WithObserver(obs Observer) func(o *RunOptions) {
	return func(o *RunOptions) { o.Observer = obs }
}

// Run drives s from the opening prompt until the director signals
// completion, an agent terminates or the round limit is reached.
//
// A round in which either agent terminated is not recorded in the history.
// History, round events and the answer carry the agents' texts before
// augmentation; only the next round's input is augmented.
// Token usage is accumulated only for rounds where both agents reported it.
// On an agent error or context cancellation Run returns the partial result,
// still in StateRunning, together with the error.
func Run(ctx context.Context, s *Society, optFns ...func(o *RunOptions)) (Result, error) {
	opts := RunOptions{
		RoundLimit: DefaultBulkRoundLimit,
		Sentinels:  DefaultSentinels,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.RoundLimit < 1 {
		return Result{}, fmt.Errorf("%w: %d", ErrInvalidRoundLimit, opts.RoundLimit)
	}
	if opts.Observer == nil {
		opts.Observer = NopObserver{}
	}

	info := RunInfo{
		RunID:      core.NewID(),
		Task:       s.task,
		ToolNames:  s.ToolNames(),
		RoundLimit: opts.RoundLimit,
	}

	r := &run{
		society: s,
		opts:    opts,
		info:    info,
		result:  Result{State: StateRunning, History: []core.ChatHistoryEntry{}},
	}

	s.logger.Info("society.run.started", "run_id", info.RunID, "round_limit", opts.RoundLimit, "tools", len(info.ToolNames))
	opts.Observer.RunStarted(info)

	err := r.loop(ctx)

	r.result.Answer = r.answer()
	opts.Observer.RunFinished(info, r.result, err)

	if err != nil {
		s.logger.Error("society.run.failed", "run_id", info.RunID, "rounds", r.result.Rounds, "error", err.Error())
		return r.result, err
	}

	s.logger.Info("society.run.finished",
		"run_id", info.RunID,
		"state", r.result.State.String(),
		"rounds", r.result.Rounds,
		"prompt_tokens", r.result.Usage.PromptTokens,
		"completion_tokens", r.result.Usage.CompletionTokens,
	)

	return r.result, nil
}

type run struct {
	society *Society
	opts    RunOptions
	info    RunInfo
	result  Result

	lastDirector string
	lastExecutor string
}

func (r *run) loop(ctx context.Context) error {
	input := r.society.InitMessage()

	for round := 1; round <= r.opts.RoundLimit; round++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		start := time.Now()

		t, err := r.society.step(ctx, input)
		if err != nil {
			return fmt.Errorf("round %d: %w", round, err)
		}
		r.result.Rounds = round

		speaker, listener := t.speaker, t.listener
		if t.instruction != "" {
			r.lastDirector = t.instruction
		}
		if t.solution != "" {
			r.lastExecutor = t.solution
		}

		var roundUsage *core.TokenUsage
		if speaker.Info.HasUsage() && listener.Info.HasUsage() {
			roundUsage = &core.TokenUsage{
				PromptTokens:     speaker.Info.Usage.PromptTokens + listener.Info.Usage.PromptTokens,
				CompletionTokens: speaker.Info.Usage.CompletionTokens + listener.Info.Usage.CompletionTokens,
			}
			r.result.Usage.Add(*roundUsage)
		}

		event := RoundEvent{
			RunID:      r.info.RunID,
			Round:      round,
			Director:   t.instruction,
			Executor:   t.solution,
			ToolCalls:  len(speaker.Info.ToolCalls),
			RoundUsage: roundUsage,
			Usage:      r.result.Usage,
		}

		if speaker.Terminated || listener.Terminated {
			r.result.State = StateDoneTerminated
			r.result.TerminationReasons = append(append([]string(nil), listener.Info.TerminationReasons...), speaker.Info.TerminationReasons...)

			event.Terminated = true
			event.Duration = time.Since(start)
			r.opts.Observer.RoundCompleted(event)

			return nil
		}

		r.result.History = append(r.result.History, core.ChatHistoryEntry{
			Director:  t.instruction,
			Executor:  t.solution,
			ToolCalls: core.ToolCallMaps(speaker.Info.ToolCalls),
		})

		event.TaskDone = IsTaskDone(listener.Content(), r.opts.Sentinels)
		event.Duration = time.Since(start)
		r.opts.Observer.RoundCompleted(event)

		if event.TaskDone {
			r.result.State = StateDoneNormal
			return nil
		}

		next, ok := speaker.Message()
		if !ok {
			r.result.State = StateDoneTerminated
			r.result.TerminationReasons = []string{ReasonEmptyResponse}
			return nil
		}
		input = next
	}

	r.result.State = StateDoneLimit

	return nil
}

// answer picks the most recent non-empty executor text from the history,
// falling back to the latest executor text, partial output of a terminated
// reply included, then the latest director text. All texts are recorded
// before augmentation.
func (r *run) answer() string {
	for i := len(r.result.History) - 1; i >= 0; i-- {
		if r.result.History[i].Executor != "" {
			return r.result.History[i].Executor
		}
	}
	if r.lastExecutor != "" {
		return r.lastExecutor
	}
	return r.lastDirector
}
