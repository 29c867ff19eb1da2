package core

import "context"

// Agent is the model invocation capability bound to a society role.
//
// Implementations must:
//   - Return Terminated=true (with optional TerminationReasons) when they
//     cannot continue, rather than an error
//   - Return zero or more candidate messages
//   - Optionally report token usage and tool call records in Info
//   - Return an error only when the underlying invocation failed
//
// Step blocks until the invocation completes or ctx is cancelled.
type Agent interface {
	Name() string
	Step(ctx context.Context, msg Message) (AgentResponse, error)
	Reset()
}

// AgentInfo carries identifying details about an agent used in tool contexts and logs.
type AgentInfo struct {
	Name string
	Role RoleType
}
