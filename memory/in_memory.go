package memory

import (
	"sync"

	"github.com/hupe1980/rolemesh/core"
)

// Memory stores the conversation records of one agent.
type Memory interface {
	// Add appends records in order.
	Add(records ...core.Content)
	// Context returns the records that should be sent with the next model request.
	Context() []core.Content
	// Clear drops every record.
	Clear()
	// Len reports the number of stored records.
	Len() int
}

// WindowMemory is a process-local Memory that retains every record but only
// exposes the most recent window through Context. A window of 0 exposes the
// full history.
//
// The window never starts in the middle of a tool exchange: leading assistant
// and tool records are skipped so the exposed context always opens with a
// user turn.
//
// Concurrency: protected by RWMutex.
type WindowMemory struct {
	mu      sync.RWMutex
	window  int
	records []core.Content
}

// NewWindowMemory creates a memory exposing at most window records.
func NewWindowMemory(window int) *WindowMemory {
	if window < 0 {
		window = 0
	}
	return &WindowMemory{window: window}
}

// Add implements Memory.
func (m *WindowMemory) Add(records ...core.Content) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, records...)
}

// Context implements Memory. The returned slice is a copy.
func (m *WindowMemory) Context() []core.Content {
	m.mu.RLock()
	defer m.mu.RUnlock()

	start := 0
	if m.window > 0 && len(m.records) > m.window {
		start = len(m.records) - m.window
		for start < len(m.records) && m.records[start].Role != core.ContentRoleUser {
			start++
		}
	}

	out := make([]core.Content, len(m.records)-start)
	copy(out, m.records[start:])
	return out
}

// Clear implements Memory.
func (m *WindowMemory) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = nil
}

// Len implements Memory.
func (m *WindowMemory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}

// Window returns the configured window size.
func (m *WindowMemory) Window() int { return m.window }
