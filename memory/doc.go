// Package memory holds per-agent conversation memory. A ChatAgent appends
// every incoming message, its own replies and tool exchanges to a Memory and
// builds each model request from the retained window.
//
// Memories are owned by a single agent and are not shared across societies.
package memory
