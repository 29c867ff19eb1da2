// Package logging defines the key/value Logger used across RoleMesh and its
// slog-backed implementations.
//
// RoleMeshLogger scopes records to a component and, once a session starts, to
// a run id. Event names are dotted ("society.round.completed") and fields
// follow as alternating key/value pairs.
//
//	logger := logging.NewRoleMeshLogger(logging.LogLevelInfo, "text", "rolemesh")
//	s, err := society.New(task, tools, cfg, society.WithLogger(logger))
//
// NoOpLogger discards everything and is the default wherever a Logger is
// optional.
package logging
