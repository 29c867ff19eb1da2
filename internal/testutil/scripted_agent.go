package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/hupe1980/rolemesh/core"
)

// ScriptedAgent is a core.Agent that replays canned responses and records
// every message it receives. Once the script is exhausted it answers with
// Fallback, or with a numbered text reply when Fallback is nil.
type ScriptedAgent struct {
	name     string
	role     core.RoleType
	mu       sync.Mutex
	script   []core.AgentResponse
	errs     map[int]error
	inputs   []core.Message
	resets   int
	Fallback func(call int, in core.Message) core.AgentResponse
}

var _ core.Agent = (*ScriptedAgent)(nil)

// NewScriptedAgent creates an agent that replays responses in order.
func NewScriptedAgent(name string, role core.RoleType, responses ...core.AgentResponse) *ScriptedAgent {
	return &ScriptedAgent{name: name, role: role, script: responses, errs: map[int]error{}}
}

// Repeat creates an agent that answers every call with text, never
// containing a sentinel unless text does.
func Repeat(name string, role core.RoleType, text string) *ScriptedAgent {
	a := NewScriptedAgent(name, role)
	a.Fallback = func(call int, _ core.Message) core.AgentResponse {
		return core.NewAgentResponse(core.ResponseInfo{}, core.NewMessage(role, name, fmt.Sprintf("%s #%d", text, call+1)))
	}
	return a
}

// FailAt makes the zero-based call return err.
func (a *ScriptedAgent) FailAt(call int, err error) *ScriptedAgent {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.errs[call] = err
	return a
}

// Name implements core.Agent.
func (a *ScriptedAgent) Name() string { return a.name }

// Reset implements core.Agent.
func (a *ScriptedAgent) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.resets++
}

// Step implements core.Agent.
func (a *ScriptedAgent) Step(ctx context.Context, in core.Message) (core.AgentResponse, error) {
	if err := ctx.Err(); err != nil {
		return core.AgentResponse{}, err
	}

	a.mu.Lock()
	call := len(a.inputs)
	a.inputs = append(a.inputs, in)
	err := a.errs[call]
	var (
		resp     core.AgentResponse
		scripted bool
	)
	if call < len(a.script) {
		resp, scripted = a.script[call], true
	}
	fallback := a.Fallback
	a.mu.Unlock()

	if err != nil {
		return core.AgentResponse{}, err
	}
	if scripted {
		return resp, nil
	}
	if fallback != nil {
		return fallback(call, in), nil
	}

	return core.NewAgentResponse(core.ResponseInfo{}, core.NewMessage(a.role, a.name, fmt.Sprintf("reply %d", call+1))), nil
}

// Calls returns the number of Step invocations.
func (a *ScriptedAgent) Calls() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.inputs)
}

// Inputs returns a copy of the received messages.
func (a *ScriptedAgent) Inputs() []core.Message {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]core.Message(nil), a.inputs...)
}

// Resets returns how often Reset was called.
func (a *ScriptedAgent) Resets() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.resets
}
