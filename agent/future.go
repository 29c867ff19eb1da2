package agent

import (
	"context"
	"fmt"

	"github.com/hupe1980/rolemesh/core"
)

// Future is the pending result of an asynchronous agent step.
type Future struct {
	done chan struct{}
	resp core.AgentResponse
	err  error
}

// Go runs a.Step(ctx, msg) in a new goroutine and returns its Future.
// A panic inside the agent is converted into the Future's error.
func Go(ctx context.Context, a core.Agent, msg core.Message) *Future {
	f := &Future{done: make(chan struct{})}

	go func() {
		defer close(f.done)
		defer func() {
			if r := recover(); r != nil {
				f.err = fmt.Errorf("agent %s panicked: %v", a.Name(), r)
			}
		}()

		f.resp, f.err = a.Step(ctx, msg)
	}()

	return f
}

// Done is closed once the step finished.
func (f *Future) Done() <-chan struct{} { return f.done }

// Wait blocks until the step finished and returns its outcome.
func (f *Future) Wait() (core.AgentResponse, error) {
	<-f.done
	return f.resp, f.err
}

// Await waits like Wait but gives up when ctx is done. The step keeps
// running in the background in that case.
func (f *Future) Await(ctx context.Context) (core.AgentResponse, error) {
	select {
	case <-f.done:
		return f.resp, f.err
	case <-ctx.Done():
		return core.AgentResponse{}, ctx.Err()
	}
}
