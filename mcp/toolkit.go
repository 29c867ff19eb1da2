package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/hupe1980/rolemesh/logging"
	"github.com/hupe1980/rolemesh/tool"
)

// ServerConfig describes how to launch one stdio MCP server.
type ServerConfig struct {
	Command string            `json:"command"`
	Args    []string          `json:"args,omitempty"`
	Env     map[string]string `json:"env,omitempty"`
}

// Config is the conventional {"mcpServers": {...}} document.
type Config struct {
	Servers map[string]ServerConfig `json:"mcpServers"`
}

// ParseConfig decodes and validates an mcpServers document.
func ParseConfig(data []byte) (Config, error) {
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse mcp config: %w", err)
	}

	if len(cfg.Servers) == 0 {
		return Config{}, errors.New("mcp config declares no servers")
	}

	for name, s := range cfg.Servers {
		if s.Command == "" {
			return Config{}, fmt.Errorf("mcp server %q: command is required", name)
		}
	}

	return cfg, nil
}

// LoadConfig reads an mcpServers document from path.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read mcp config: %w", err)
	}
	return ParseConfig(data)
}

// GoogleMapsServerConfig returns the configuration launching the Google Maps
// MCP server through npx.
func GoogleMapsServerConfig(apiKey string) Config {
	return Config{Servers: map[string]ServerConfig{
		"google-maps": {
			Command: "npx",
			Args:    []string{"-y", "@modelcontextprotocol/server-google-maps"},
			Env:     map[string]string{"GOOGLE_MAPS_API_KEY": apiKey},
		},
	}}
}

// Session is a connected server as seen by the Toolkit.
type Session interface {
	ToolCaller
	ListTools(ctx context.Context) ([]ToolSchema, error)
	Close() error
}

// DialFunc connects to a named server.
type DialFunc func(ctx context.Context, name string, cfg ServerConfig, logger logging.Logger) (Session, error)

// DialStdio launches the server process and performs the MCP handshake.
func DialStdio(ctx context.Context, name string, cfg ServerConfig, logger logging.Logger) (Session, error) {
	pm := NewProcessManager(ProcessConfig(cfg), logger)
	if err := pm.Start(ctx); err != nil {
		return nil, fmt.Errorf("start mcp server %s: %w", name, err)
	}

	client := NewClient(name, pm.Conn(), func(o *ClientOptions) { o.Logger = logger })
	if err := client.Start(ctx); err != nil {
		return nil, err
	}

	return client, nil
}

// ToolkitOptions configures a Toolkit.
type ToolkitOptions struct {
	Dial   DialFunc
	Logger logging.Logger
}

// Toolkit implements tool.Provider on top of one or more MCP servers.
type Toolkit struct {
	cfg  Config
	opts ToolkitOptions

	mu       sync.Mutex
	sessions map[string]Session
	tools    []tool.Tool
}

var _ tool.Provider = (*Toolkit)(nil)

// NewToolkit creates a toolkit for cfg. Servers are launched on Connect.
func NewToolkit(cfg Config, optFns ...func(o *ToolkitOptions)) *Toolkit {
	opts := ToolkitOptions{Dial: DialStdio}
	for _, fn := range optFns {
		fn(&opts)
	}
	opts.Logger = logging.OrNoOp(opts.Logger)

	return &Toolkit{cfg: cfg, opts: opts}
}

// Connect launches every configured server in name order and collects their
// tools. If any server fails, servers already started are shut down and the
// error is returned.
func (k *Toolkit) Connect(ctx context.Context) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.sessions != nil {
		return errors.New("toolkit already connected")
	}

	names := make([]string, 0, len(k.cfg.Servers))
	for name := range k.cfg.Servers {
		names = append(names, name)
	}
	sort.Strings(names)

	sessions := make(map[string]Session, len(names))
	var tools []tool.Tool

	fail := func(err error) error {
		for _, s := range sessions {
			_ = s.Close()
		}
		return err
	}

	for _, name := range names {
		s, err := k.opts.Dial(ctx, name, k.cfg.Servers[name], k.opts.Logger)
		if err != nil {
			return fail(fmt.Errorf("connect %s: %w", name, err))
		}
		sessions[name] = s

		schemas, err := s.ListTools(ctx)
		if err != nil {
			return fail(fmt.Errorf("list tools of %s: %w", name, err))
		}

		for _, schema := range schemas {
			tools = append(tools, NewToolAdapter(name, s, schema))
		}

		k.opts.Logger.Info("mcp.toolkit.server_connected", "server", name, "tools", len(schemas))
	}

	k.sessions = sessions
	k.tools = tools

	return nil
}

// Tools implements tool.Provider.
func (k *Toolkit) Tools() []tool.Tool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return append([]tool.Tool(nil), k.tools...)
}

// Disconnect closes every session. It is safe after a failed or missing Connect.
func (k *Toolkit) Disconnect(context.Context) error {
	k.mu.Lock()
	sessions := k.sessions
	k.sessions = nil
	k.tools = nil
	k.mu.Unlock()

	var errs []error
	for name, s := range sessions {
		if err := s.Close(); err != nil {
			errs = append(errs, fmt.Errorf("disconnect %s: %w", name, err))
		}
	}

	return errors.Join(errs...)
}
