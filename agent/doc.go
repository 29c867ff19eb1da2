// Package agent provides ChatAgent, the model-backed implementation of
// core.Agent used for both roles of a society.
//
// One Step call:
//
//  1. appends the incoming message to the agent's memory
//  2. sends system message, memory window and tool definitions to the model
//  3. executes requested tool calls (in parallel, results kept in call order)
//     and feeds their results back until the model answers in text
//
// Budget exhaustion (token length, model call limit, tool iteration limit)
// terminates the response instead of failing it; callers inspect
// AgentResponse.Terminated and Info.TerminationReasons.
//
// Go wraps a Step in a Future for callers that want to overlap other work
// with a model call.
package agent
