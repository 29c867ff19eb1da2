package mcp

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/hupe1980/rolemesh/logging"
)

// ProcessConfig configures an MCP server process.
type ProcessConfig struct {
	Command string
	Args    []string
	Env     map[string]string // merged over the parent environment
}

// ProcessManager manages an MCP server process lifecycle and exposes its
// stdio pipes as a Conn.
type ProcessManager struct {
	cfg      ProcessConfig
	logger   logging.Logger
	mu       sync.Mutex
	cmd      *exec.Cmd
	stdin    io.WriteCloser
	stdout   io.ReadCloser
	running  bool
	waitDone chan error
}

// NewProcessManager creates a new process manager.
func NewProcessManager(cfg ProcessConfig, logger logging.Logger) *ProcessManager {
	return &ProcessManager{cfg: cfg, logger: logging.OrNoOp(logger)}
}

// Start spawns the server process. The process is not tied to ctx; it lives
// until Stop.
func (pm *ProcessManager) Start(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	pm.mu.Lock()
	defer pm.mu.Unlock()

	if pm.running {
		return fmt.Errorf("process already running")
	}

	resolved, err := resolveExecutable(pm.cfg.Command)
	if err != nil {
		return err
	}

	cmd := exec.Command(resolved, pm.cfg.Args...)
	cmd.Env = mergeEnv(os.Environ(), pm.cfg.Env)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("failed to create stdin pipe: %w", err)
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to create stdout pipe: %w", err)
	}

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("failed to create stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start process: %w", err)
	}

	pm.cmd = cmd
	pm.stdin = stdin
	pm.stdout = stdout
	pm.running = true
	pm.waitDone = make(chan error, 1)

	pm.logger.Info("mcp.process.started", "command", pm.cfg.Command, "pid", cmd.Process.Pid)

	go pm.monitorStderr(stderr)
	go pm.monitorExit(cmd, pm.waitDone)

	return nil
}

func resolveExecutable(command string) (string, error) {
	trimmed := strings.TrimSpace(command)
	if trimmed == "" {
		return "", fmt.Errorf("command is required")
	}

	resolved, err := exec.LookPath(trimmed)
	if err != nil {
		return "", fmt.Errorf("command not found: %w", err)
	}

	return resolved, nil
}

// mergeEnv overlays overrides on base, keeping a deterministic order.
func mergeEnv(base []string, overrides map[string]string) []string {
	if len(overrides) == 0 {
		return base
	}

	out := make([]string, 0, len(base)+len(overrides))
	for _, kv := range base {
		key, _, _ := strings.Cut(kv, "=")
		if _, ok := overrides[key]; ok {
			continue
		}
		out = append(out, kv)
	}

	keys := make([]string, 0, len(overrides))
	for k := range overrides {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		out = append(out, k+"="+overrides[k])
	}

	return out
}

// Stop closes stdin and waits for the process to exit, killing it after timeout.
// Calling Stop on a stopped manager is a no-op.
func (pm *ProcessManager) Stop(timeout time.Duration) error {
	pm.mu.Lock()
	if !pm.running {
		pm.mu.Unlock()
		return nil
	}

	pm.running = false
	cmd, stdin, waitDone := pm.cmd, pm.stdin, pm.waitDone
	pm.mu.Unlock()

	_ = stdin.Close()

	select {
	case <-waitDone:
		pm.logger.Debug("mcp.process.exited", "command", pm.cfg.Command)
		return nil
	case <-time.After(timeout):
		pm.logger.Warn("mcp.process.kill", "command", pm.cfg.Command, "timeout", timeout)
		if err := cmd.Process.Kill(); err != nil {
			return fmt.Errorf("failed to kill process: %w", err)
		}
		<-waitDone
		return nil
	}
}

// IsRunning reports whether the process was started and not yet stopped.
func (pm *ProcessManager) IsRunning() bool {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	return pm.running
}

// Conn returns the process stdio as a Conn. Closing it stops the process.
func (pm *ProcessManager) Conn() Conn {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	return &processConn{pm: pm, r: pm.stdout, w: pm.stdin}
}

func (pm *ProcessManager) monitorStderr(stderr io.Reader) {
	scanner := bufio.NewScanner(stderr)
	for scanner.Scan() {
		pm.logger.Debug("mcp.process.stderr", "command", pm.cfg.Command, "line", scanner.Text())
	}
}

func (pm *ProcessManager) monitorExit(cmd *exec.Cmd, done chan<- error) {
	err := cmd.Wait()
	done <- err

	pm.mu.Lock()
	wasRunning := pm.running
	pm.running = false
	pm.mu.Unlock()

	if wasRunning {
		pm.logger.Warn("mcp.process.unexpected_exit", "command", pm.cfg.Command, "error", err)
	}
}

type processConn struct {
	pm *ProcessManager
	r  io.Reader
	w  io.Writer
}

func (c *processConn) Read(p []byte) (int, error)  { return c.r.Read(p) }
func (c *processConn) Write(p []byte) (int, error) { return c.w.Write(p) }
func (c *processConn) Close() error                { return c.pm.Stop(5 * time.Second) }
