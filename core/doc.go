// Package core provides the foundational domain types shared by every layer
// of rolemesh:
//
//   - Messages attributed to one of the two society roles (director, executor)
//   - AgentResponse, the structured outcome of a single agent invocation
//   - ToolCallRecord / TokenUsage side-channel information
//   - ChatHistoryEntry, the append-only per-round transcript record
//   - Content / Part, the model-facing representation of conversation turns
//   - ToolContext, the scoped surface handed to tool implementations
//
// The package keeps implementation concerns (model providers, tool transport,
// orchestration) out of scope and exposes small value types and interfaces so
// higher layers can be tested with scripted fakes.
package core
