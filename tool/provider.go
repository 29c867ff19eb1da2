package tool

import (
	"context"
	"sort"
	"sync"
)

// Provider exposes a discoverable set of tools behind a connect/disconnect
// lifecycle. Tools is only meaningful after a successful Connect.
//
// Disconnect must be safe to call after a failed Connect, after no Connect at
// all and more than once.
type Provider interface {
	Connect(ctx context.Context) error
	Tools() []Tool
	Disconnect(ctx context.Context) error
}

// Names returns the tool names in their original order.
func Names(tools []Tool) []string {
	names := make([]string, 0, len(tools))
	for _, t := range tools {
		names = append(names, t.Name())
	}
	return names
}

// SortedNames returns the tool names sorted lexically.
func SortedNames(tools []Tool) []string {
	names := Names(tools)
	sort.Strings(names)
	return names
}

// Index builds a name keyed registry. Later duplicates override earlier ones.
func Index(tools ...Tool) map[string]Tool {
	m := make(map[string]Tool, len(tools))
	for _, t := range tools {
		m[t.Name()] = t
	}
	return m
}

// StaticProvider wraps an in-process tool list. Connect and Disconnect only
// flip the connected flag.
type StaticProvider struct {
	mu        sync.Mutex
	tools     []Tool
	connected bool
}

// NewStaticProvider creates a provider exposing tools.
func NewStaticProvider(tools ...Tool) *StaticProvider {
	return &StaticProvider{tools: tools}
}

// Connect implements Provider.
func (p *StaticProvider) Connect(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.connected = true

	return nil
}

// Tools implements Provider. It returns nil while disconnected.
func (p *StaticProvider) Tools() []Tool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.connected {
		return nil
	}

	return append([]Tool(nil), p.tools...)
}

// Disconnect implements Provider.
func (p *StaticProvider) Disconnect(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.connected = false

	return nil
}

// Connected reports whether Connect succeeded and Disconnect was not yet called.
func (p *StaticProvider) Connected() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.connected
}
