package society

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hupe1980/rolemesh/agent"
	"github.com/hupe1980/rolemesh/core"
	"github.com/hupe1980/rolemesh/logging"
	"github.com/hupe1980/rolemesh/memory"
	"github.com/hupe1980/rolemesh/model"
	"github.com/hupe1980/rolemesh/prompts"
	"github.com/hupe1980/rolemesh/tool"
)

var (
	// ErrUnknownOption is returned by ConfigFromMap for keys it does not recognize.
	ErrUnknownOption = errors.New("unknown society option")
	// ErrNoAgents is returned by New when a role has neither an agent nor a model.
	ErrNoAgents = errors.New("society requires an agent or model for both roles")
	// ErrEmptyTask is returned by New for a blank task.
	ErrEmptyTask = errors.New("society task must not be empty")
)

// RoleConfig configures the ChatAgent built for one role.
type RoleConfig struct {
	Model             model.Model
	Tools             []tool.Tool
	OutputLanguage    string // overrides Config.OutputLanguage
	MaxToolIterations int    // 0 keeps the agent default
	MemoryWindow      int    // 0 keeps the full conversation
}

// Config describes both roles of a Society.
type Config struct {
	DirectorRoleName string // default "user"
	ExecutorRoleName string // default "assistant"
	OutputLanguage   string
	Director         RoleConfig
	Executor         RoleConfig
}

// ConfigFromMap builds a Config from loosely typed options. Unknown keys fail
// with ErrUnknownOption instead of being ignored.
//
// Recognized keys: director_role_name, executor_role_name, output_language,
// director_model, executor_model, executor_tools, director, executor.
func ConfigFromMap(m map[string]any) (Config, error) {
	var cfg Config

	for key, v := range m {
		var ok bool

		switch key {
		case "director_role_name":
			cfg.DirectorRoleName, ok = v.(string)
		case "executor_role_name":
			cfg.ExecutorRoleName, ok = v.(string)
		case "output_language":
			cfg.OutputLanguage, ok = v.(string)
		case "director_model":
			cfg.Director.Model, ok = v.(model.Model)
		case "executor_model":
			cfg.Executor.Model, ok = v.(model.Model)
		case "executor_tools":
			cfg.Executor.Tools, ok = v.([]tool.Tool)
		case "director":
			var rc RoleConfig
			rc, ok = v.(RoleConfig)
			if ok {
				cfg.Director = mergeRole(cfg.Director, rc)
			}
		case "executor":
			var rc RoleConfig
			rc, ok = v.(RoleConfig)
			if ok {
				cfg.Executor = mergeRole(cfg.Executor, rc)
			}
		default:
			return Config{}, fmt.Errorf("%w: %q", ErrUnknownOption, key)
		}

		if !ok {
			return Config{}, fmt.Errorf("society option %q has unexpected type %T", key, v)
		}
	}

	return cfg, nil
}

func mergeRole(base, override RoleConfig) RoleConfig {
	if override.Model != nil {
		base.Model = override.Model
	}
	if override.Tools != nil {
		base.Tools = override.Tools
	}
	if override.OutputLanguage != "" {
		base.OutputLanguage = override.OutputLanguage
	}
	if override.MaxToolIterations != 0 {
		base.MaxToolIterations = override.MaxToolIterations
	}
	if override.MemoryWindow != 0 {
		base.MemoryWindow = override.MemoryWindow
	}
	return base
}

// Options configures New.
type Options struct {
	Director core.Agent // replaces the ChatAgent built from Config.Director
	Executor core.Agent // replaces the ChatAgent built from Config.Executor
	Logger   logging.Logger
}

// WithAgents binds prebuilt agents instead of ChatAgents built from Config.
func WithAgents(director, executor core.Agent) func(o *Options) {
	return func(o *Options) {
		o.Director = director
		o.Executor = executor
	}
}

// WithLogger sets the logger used by the society and the agents it builds.
func WithLogger(l logging.Logger) func(o *Options) {
	return func(o *Options) { o.Logger = l }
}

// Role is one participant of a Society.
type Role struct {
	Name          string
	Type          core.RoleType
	SystemMessage string
	Agent         core.Agent
}

// Society is a director/executor pair sharing one task. The task and both
// system messages are fixed at construction.
type Society struct {
	task      string
	toolNames []string
	director  Role
	executor  Role
	logger    logging.Logger
}

// New creates a Society for task. toolNames must be the tool set actually
// connected for the executor; nil derives it from cfg.Executor.Tools.
func New(task string, toolNames []string, cfg Config, optFns ...func(o *Options)) (*Society, error) {
	if strings.TrimSpace(task) == "" {
		return nil, ErrEmptyTask
	}

	opts := Options{}
	for _, fn := range optFns {
		fn(&opts)
	}
	logger := logging.OrNoOp(opts.Logger)

	if toolNames == nil {
		toolNames = tool.Names(cfg.Executor.Tools)
	}
	toolNames = append([]string(nil), toolNames...)

	roles := prompts.Roles{
		Director: defaultString(cfg.DirectorRoleName, prompts.DefaultRoles.Director),
		Executor: defaultString(cfg.ExecutorRoleName, prompts.DefaultRoles.Executor),
	}

	s := &Society{
		task:      task,
		toolNames: toolNames,
		logger:    logger,
		director: Role{
			Name:          roles.Director,
			Type:          core.RoleDirector,
			SystemMessage: prompts.DirectorSystemMessage(task, toolNames, roles),
		},
		executor: Role{
			Name:          roles.Executor,
			Type:          core.RoleExecutor,
			SystemMessage: prompts.ExecutorSystemMessage(task, toolNames, roles),
		},
	}

	var err error
	if s.director.Agent, err = buildAgent(s.director, opts.Director, cfg.Director, cfg.OutputLanguage, logger); err != nil {
		return nil, err
	}
	if s.executor.Agent, err = buildAgent(s.executor, opts.Executor, cfg.Executor, cfg.OutputLanguage, logger); err != nil {
		return nil, err
	}

	logger.Debug("society.created", "director", roles.Director, "executor", roles.Executor, "tools", len(toolNames))

	return s, nil
}

func buildAgent(r Role, prebuilt core.Agent, rc RoleConfig, language string, logger logging.Logger) (core.Agent, error) {
	if prebuilt != nil {
		return prebuilt, nil
	}
	if rc.Model == nil {
		return nil, fmt.Errorf("%w: %s has no model", ErrNoAgents, r.Type)
	}

	return agent.NewChatAgent(r.Name, r.Type, rc.Model, func(o *agent.ChatAgentOptions) {
		o.SystemMessage = r.SystemMessage
		o.OutputLanguage = defaultString(rc.OutputLanguage, language)
		o.Tools = rc.Tools
		o.Memory = memory.NewWindowMemory(rc.MemoryWindow)
		if rc.MaxToolIterations > 0 {
			o.MaxToolIterations = rc.MaxToolIterations
		}
		o.Logger = logger
	}), nil
}

func defaultString(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// Task returns the task text shared by both roles.
func (s *Society) Task() string { return s.task }

// ToolNames returns the tool names embedded in the system messages.
func (s *Society) ToolNames() []string { return append([]string(nil), s.toolNames...) }

// Director returns the instructing role.
func (s *Society) Director() Role { return s.director }

// Executor returns the acting role.
func (s *Society) Executor() Role { return s.executor }

// InitMessage returns the opening message of a session, attributed to the
// executor and addressed to the director.
func (s *Society) InitMessage() core.Message {
	return core.NewMessage(core.RoleExecutor, s.executor.Name, prompts.InitPrompt)
}

// Reset clears the conversation state of both agents.
func (s *Society) Reset() {
	s.director.Agent.Reset()
	s.executor.Agent.Reset()
}
