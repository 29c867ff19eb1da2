package runner

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hupe1980/rolemesh/agent"
	"github.com/hupe1980/rolemesh/core"
	"github.com/hupe1980/rolemesh/logging"
	"github.com/hupe1980/rolemesh/model"
	"github.com/hupe1980/rolemesh/prompts"
	"github.com/hupe1980/rolemesh/society"
	"github.com/hupe1980/rolemesh/tool"
)

// Purpose names what a model built by a ModelFactory is used for.
type Purpose string

const (
	PurposeClarifier Purpose = "clarifier"
	PurposeDirector  Purpose = "director"
	PurposeExecutor  Purpose = "executor"
)

// ModelFactory returns the model serving purpose. It is called once per
// purpose and query so stateful clients are never shared between runs.
type ModelFactory func(purpose Purpose) (model.Model, error)

// ErrNoFactory is returned by Run when the Runner was built without a ModelFactory.
var ErrNoFactory = errors.New("runner requires a model factory")

// Options holds configuration overrides passed to New().
type Options struct {
	// RoundLimit caps the rounds of a single Run.
	RoundLimit int
	// BatchRoundLimit caps the rounds of every query in RunBatch.
	BatchRoundLimit int
	// Concurrency limits parallel queries in RunBatch. 0 means unlimited.
	Concurrency int
	// Clarify rewrites the raw query with the clarifier prompt before the run.
	Clarify bool
	// OutputLanguage is appended to both system messages when set.
	OutputLanguage string
	// Sentinels replaces society.DefaultSentinels when non-empty.
	Sentinels []string
	// MemoryWindow bounds the conversation each agent replays. 0 keeps all.
	MemoryWindow int
	// MaxToolIterations bounds the executor's tool loop per step.
	MaxToolIterations int
	// Observer receives run and round events.
	Observer society.Observer
	// Logger defaults to a NoOp logger.
	Logger logging.Logger
}

// Runner processes queries against a tool provider. Public methods are safe
// for concurrent use as long as the provider is not shared with another Runner.
type Runner struct {
	factory  ModelFactory
	provider tool.Provider
	opts     Options
	logger   logging.Logger
}

// New constructs a Runner. A nil provider runs the executor without tools.
func New(factory ModelFactory, provider tool.Provider, optFns ...func(o *Options)) *Runner {
	opts := Options{
		RoundLimit:      society.DefaultQueryRoundLimit,
		BatchRoundLimit: society.DefaultBulkRoundLimit,
		Concurrency:     4,
		Clarify:         true,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if provider == nil {
		provider = tool.NewStaticProvider()
	}

	return &Runner{
		factory:  factory,
		provider: provider,
		opts:     opts,
		logger:   logging.OrNoOp(opts.Logger),
	}
}

// Run answers a single query. An empty query falls back to prompts.DefaultQuery.
//
// The provider is connected for the duration of the call and disconnected
// afterwards, also when Connect failed part way. Disconnect failures are
// logged and never mask the run result.
func (r *Runner) Run(ctx context.Context, query string) (society.Result, error) {
	if r.factory == nil {
		return society.Result{}, ErrNoFactory
	}

	defer r.disconnect(ctx)
	if err := r.provider.Connect(ctx); err != nil {
		return society.Result{}, fmt.Errorf("connect tools: %w", err)
	}

	return r.process(ctx, query, r.opts.RoundLimit)
}

func (r *Runner) disconnect(ctx context.Context) {
	if err := r.provider.Disconnect(context.WithoutCancel(ctx)); err != nil {
		r.logger.Warn("runner.disconnect.failed", "error", err.Error())
	}
}

// process runs one query against the already connected provider.
func (r *Runner) process(ctx context.Context, query string, roundLimit int) (society.Result, error) {
	if strings.TrimSpace(query) == "" {
		query = prompts.DefaultQuery
	}

	request, err := r.clarify(ctx, query)
	if err != nil {
		return society.Result{}, err
	}

	tools := r.provider.Tools()
	names := tool.Names(tools)
	task := prompts.TaskWithTools(request, names)

	r.logger.Debug("runner.tools", "tools", strings.Join(names, ","))

	s, err := r.newSociety(task, names, tools)
	if err != nil {
		return society.Result{}, err
	}

	runOpts := []func(o *society.RunOptions){society.WithRoundLimit(roundLimit)}
	if len(r.opts.Sentinels) > 0 {
		runOpts = append(runOpts, society.WithSentinels(r.opts.Sentinels...))
	}
	if r.opts.Observer != nil {
		runOpts = append(runOpts, society.WithObserver(r.opts.Observer))
	}

	return society.Run(ctx, s, runOpts...)
}

func (r *Runner) newSociety(task string, names []string, tools []tool.Tool) (*society.Society, error) {
	director, err := r.factory(PurposeDirector)
	if err != nil {
		return nil, fmt.Errorf("director model: %w", err)
	}
	executor, err := r.factory(PurposeExecutor)
	if err != nil {
		return nil, fmt.Errorf("executor model: %w", err)
	}

	cfg := society.Config{
		OutputLanguage: r.opts.OutputLanguage,
		Director: society.RoleConfig{
			Model:        director,
			MemoryWindow: r.opts.MemoryWindow,
		},
		Executor: society.RoleConfig{
			Model:             executor,
			Tools:             tools,
			MemoryWindow:      r.opts.MemoryWindow,
			MaxToolIterations: r.opts.MaxToolIterations,
		},
	}

	return society.New(task, names, cfg, society.WithLogger(r.logger))
}

// clarify rewrites query into a structured request. It returns query
// unchanged when clarification is disabled or the clarifier gave no text.
func (r *Runner) clarify(ctx context.Context, query string) (string, error) {
	if !r.opts.Clarify {
		return query, nil
	}

	m, err := r.factory(PurposeClarifier)
	if err != nil {
		return "", fmt.Errorf("clarifier model: %w", err)
	}

	clarifier := agent.NewChatAgent(prompts.ClarifierRoleName, core.RoleDirector, m, func(o *agent.ChatAgentOptions) {
		o.SystemMessage = prompts.ClarifierPrompt
		o.Logger = r.logger
	})

	resp, err := clarifier.Step(ctx, core.NewMessage(core.RoleDirector, prompts.ClarifierRoleName, query))
	if err != nil {
		return "", fmt.Errorf("clarify: %w", err)
	}

	text := strings.TrimSpace(resp.Content())
	if resp.Terminated || text == "" {
		r.logger.Warn("runner.clarify.empty", "reasons", strings.Join(resp.Info.TerminationReasons, ","))
		return query, nil
	}

	r.logger.Debug("runner.clarify.completed", "request", text)

	return text, nil
}
