package society

import (
	"time"

	"github.com/hupe1980/rolemesh/core"
	"github.com/hupe1980/rolemesh/logging"
)

// RunInfo identifies a run for observers.
type RunInfo struct {
	RunID      string
	Task       string
	ToolNames  []string
	RoundLimit int
}

// RoundEvent describes one finished round.
type RoundEvent struct {
	RunID      string
	Round      int
	Director   string
	Executor   string
	ToolCalls  int
	RoundUsage *core.TokenUsage // nil when usage was skipped for the round
	Usage      core.TokenUsage  // accumulated so far
	Duration   time.Duration
	Terminated bool
	TaskDone   bool
}

// Observer receives run lifecycle events. Calls happen on the goroutine
// running the session, in order.
type Observer interface {
	RunStarted(info RunInfo)
	RoundCompleted(ev RoundEvent)
	RunFinished(info RunInfo, res Result, err error)
}

// NopObserver ignores every event.
type NopObserver struct{}

func (NopObserver) RunStarted(RunInfo)                 {}
func (NopObserver) RoundCompleted(RoundEvent)          {}
func (NopObserver) RunFinished(RunInfo, Result, error) {}

// MultiObserver fans events out to several observers in order.
type MultiObserver []Observer

func (m MultiObserver) RunStarted(info RunInfo) {
	for _, o := range m {
		o.RunStarted(info)
	}
}

func (m MultiObserver) RoundCompleted(ev RoundEvent) {
	for _, o := range m {
		o.RoundCompleted(ev)
	}
}

func (m MultiObserver) RunFinished(info RunInfo, res Result, err error) {
	for _, o := range m {
		o.RunFinished(info, res, err)
	}
}

// LogObserver writes the round transcript to a logger. Message bodies are
// logged at debug level.
type LogObserver struct {
	Logger logging.Logger
}

// NewLogObserver creates a LogObserver; a nil logger discards everything.
func NewLogObserver(l logging.Logger) *LogObserver {
	return &LogObserver{Logger: logging.OrNoOp(l)}
}

func (o *LogObserver) RunStarted(info RunInfo) {
	o.Logger.Debug("society.run.task", "run_id", info.RunID, "task", info.Task, "tools", info.ToolNames)
}

func (o *LogObserver) RoundCompleted(ev RoundEvent) {
	if rl, ok := o.Logger.(*logging.RoleMeshLogger); ok {
		rl.WithRun(ev.RunID).LogRound(ev.Round, ev.ToolCalls, ev.Duration, ev.TaskDone)
	} else {
		o.Logger.Info("society.round.completed", "run_id", ev.RunID, "round", ev.Round, "tool_calls", ev.ToolCalls, "duration", ev.Duration, "task_done", ev.TaskDone)
	}

	o.Logger.Debug("society.round.director", "run_id", ev.RunID, "round", ev.Round, "content", ev.Director)
	o.Logger.Debug("society.round.executor", "run_id", ev.RunID, "round", ev.Round, "content", ev.Executor)

	if ev.Terminated {
		o.Logger.Warn("society.round.terminated", "run_id", ev.RunID, "round", ev.Round)
	}
}

func (o *LogObserver) RunFinished(info RunInfo, res Result, err error) {
	if err != nil {
		return
	}
	o.Logger.Debug("society.run.answer", "run_id", info.RunID, "state", res.State.String(), "answer", res.Answer)
}
