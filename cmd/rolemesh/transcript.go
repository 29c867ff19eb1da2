package main

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/hupe1980/rolemesh/society"
)

// transcript prints the dialogue as it happens.
type transcript struct {
	mu  sync.Mutex
	out io.Writer
}

func newTranscript(out io.Writer) *transcript { return &transcript{out: out} }

func (t *transcript) RunStarted(info society.RunInfo) {
	t.mu.Lock()
	defer t.mu.Unlock()

	fmt.Fprintf(t.out, "%s %s\n", bold("Run"), gray(info.RunID))
	fmt.Fprintf(t.out, "%s %s\n", bold("Tools:"), strings.Join(info.ToolNames, ", "))
	fmt.Fprintf(t.out, "%s\n%s\n\n", yellow("Task:"), info.Task)
}

func (t *transcript) RoundCompleted(ev society.RoundEvent) {
	t.mu.Lock()
	defer t.mu.Unlock()

	fmt.Fprintf(t.out, "%s\n", gray(fmt.Sprintf("--- round %d (%s, %d tool calls) ---", ev.Round, ev.Duration.Round(time.Millisecond), ev.ToolCalls)))
	if ev.Terminated {
		fmt.Fprintln(t.out, red("terminated"))
		return
	}
	fmt.Fprintf(t.out, "%s\n%s\n\n", blue("Director:"), ev.Director)
	fmt.Fprintf(t.out, "%s\n%s\n\n", green("Executor:"), ev.Executor)
}

func (t *transcript) RunFinished(_ society.RunInfo, res society.Result, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err != nil {
		fmt.Fprintf(t.out, "%s %v\n", red("Run failed:"), err)
		return
	}
	fmt.Fprintf(t.out, "%s %s after %d rounds", bold("Finished:"), res.State, res.Rounds)
	if len(res.TerminationReasons) > 0 {
		fmt.Fprintf(t.out, " (%s)", strings.Join(res.TerminationReasons, ", "))
	}
	fmt.Fprintln(t.out)
}
