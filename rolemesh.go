// Package rolemesh provides a high-level façade over the society package for
// solving a task with a director/executor pair. Most applications interact
// with this package by:
//  1. Creating a RoleMesh via New() with one model per role
//  2. Optionally registering in-process tools for the executor
//  3. Calling Solve for each task and inspecting transcripts via Sessions
//
// Every Solve call builds a fresh Society, so a RoleMesh can be reused and
// shared between goroutines. For MCP tool servers, request clarification and
// batch processing see the runner package.
package rolemesh

import (
	"context"

	"github.com/hupe1980/rolemesh/logging"
	"github.com/hupe1980/rolemesh/model"
	"github.com/hupe1980/rolemesh/session"
	"github.com/hupe1980/rolemesh/society"
	"github.com/hupe1980/rolemesh/tool"
)

// Options configures the RoleMesh instance.
type Options struct {
	// Tools available to the executor. Their names are listed in both
	// system messages.
	Tools []tool.Tool

	// RoundLimit caps the dialogue. Defaults to society.DefaultQueryRoundLimit.
	RoundLimit int

	// OutputLanguage, when set, is appended to both system messages.
	OutputLanguage string

	// Sentinels replace society.DefaultSentinels when non-empty.
	Sentinels []string

	// Observer receives run and round events.
	Observer society.Observer

	// SessionStore records every run (defaults to an in-memory store).
	SessionStore session.Store

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// RoleMesh pairs a director model with an executor model.
type RoleMesh struct {
	director model.Model
	executor model.Model
	opts     Options
}

// New creates a RoleMesh. The same model may serve both roles.
func New(director, executor model.Model, optFns ...func(o *Options)) *RoleMesh {
	opts := Options{
		RoundLimit:   society.DefaultQueryRoundLimit,
		SessionStore: session.NewInMemoryStore(),
		Logger:       logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.SessionStore == nil {
		opts.SessionStore = session.NewInMemoryStore()
	}

	return &RoleMesh{director: director, executor: executor, opts: opts}
}

// RegisterTool adds tools for subsequent Solve calls. It is not safe to call
// concurrently with Solve.
func (m *RoleMesh) RegisterTool(tools ...tool.Tool) {
	m.opts.Tools = append(m.opts.Tools, tools...)
}

// Sessions returns the store recording past and running solves.
func (m *RoleMesh) Sessions() session.Store { return m.opts.SessionStore }

// Solve runs a new society on task until it finishes.
func (m *RoleMesh) Solve(ctx context.Context, task string) (society.Result, error) {
	s, err := society.New(task, nil, society.Config{
		OutputLanguage: m.opts.OutputLanguage,
		Director:       society.RoleConfig{Model: m.director},
		Executor:       society.RoleConfig{Model: m.executor, Tools: m.opts.Tools},
	}, society.WithLogger(m.opts.Logger))
	if err != nil {
		return society.Result{}, err
	}

	runOpts := []func(o *society.RunOptions){society.WithRoundLimit(m.opts.RoundLimit)}
	if len(m.opts.Sentinels) > 0 {
		runOpts = append(runOpts, society.WithSentinels(m.opts.Sentinels...))
	}
	observers := society.MultiObserver{m.opts.SessionStore}
	if m.opts.Observer != nil {
		observers = append(observers, m.opts.Observer)
	}
	runOpts = append(runOpts, society.WithObserver(observers))

	return society.Run(ctx, s, runOpts...)
}
