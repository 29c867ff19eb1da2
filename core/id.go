package core

import "github.com/google/uuid"

// NewID returns a new random UUID string used for run and tool call correlation.
func NewID() string { return uuid.NewString() }
