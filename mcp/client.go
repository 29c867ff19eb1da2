package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/hupe1980/rolemesh/logging"
)

// ProtocolVersion is the MCP protocol revision announced during initialize.
const ProtocolVersion = "2024-11-05"

// ErrClientClosed is returned for calls issued after the connection closed.
var ErrClientClosed = errors.New("mcp client closed")

// Conn is a bidirectional newline-delimited JSON stream to a server.
type Conn interface {
	io.Reader
	io.Writer
	io.Closer
}

// ServerInfo represents the server information received during initialize.
type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// InitializeResult is the result of the initialize handshake.
type InitializeResult struct {
	ProtocolVersion string         `json:"protocolVersion"`
	ServerInfo      ServerInfo     `json:"serverInfo"`
	Capabilities    map[string]any `json:"capabilities"`
}

// ToolSchema represents an MCP tool definition.
type ToolSchema struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
}

// ToolCallResult is the result of calling a tool.
type ToolCallResult struct {
	Content []ContentBlock `json:"content"`
	IsError bool           `json:"isError,omitempty"`
}

// Text joins the text blocks of the result.
func (r *ToolCallResult) Text() string {
	parts := make([]string, 0, len(r.Content))
	for _, c := range r.Content {
		if c.Type == "text" && c.Text != "" {
			parts = append(parts, c.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// ContentBlock represents a piece of content in a tool result.
type ContentBlock struct {
	Type     string `json:"type"` // "text", "image", "resource"
	Text     string `json:"text,omitempty"`
	Data     string `json:"data,omitempty"`
	MimeType string `json:"mimeType,omitempty"`
}

// ClientOptions configures a Client.
type ClientOptions struct {
	ClientName     string
	ClientVersion  string
	RequestTimeout time.Duration
	Logger         logging.Logger
}

// Client implements the MCP client side over a Conn.
type Client struct {
	serverName string
	conn       Conn
	opts       ClientOptions
	idGen      IDGenerator

	writeMu sync.Mutex
	mu      sync.Mutex
	pending map[string]chan *Response
	closed  bool
	done    chan struct{}

	serverInfo ServerInfo
}

// NewClient creates a client speaking to serverName over conn. Call Start
// before issuing requests.
func NewClient(serverName string, conn Conn, optFns ...func(o *ClientOptions)) *Client {
	opts := ClientOptions{
		ClientName:     "rolemesh",
		ClientVersion:  "0.1.0",
		RequestTimeout: 30 * time.Second,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	opts.Logger = logging.OrNoOp(opts.Logger)

	return &Client{
		serverName: serverName,
		conn:       conn,
		opts:       opts,
		pending:    make(map[string]chan *Response),
		done:       make(chan struct{}),
	}
}

// Start launches the read loop and performs the initialize handshake.
func (c *Client) Start(ctx context.Context) error {
	go c.readLoop()

	if err := c.initialize(ctx); err != nil {
		_ = c.Close()
		return fmt.Errorf("initialize handshake with %s failed: %w", c.serverName, err)
	}

	return nil
}

func (c *Client) initialize(ctx context.Context) error {
	params := map[string]any{
		"protocolVersion": ProtocolVersion,
		"capabilities":    map[string]any{},
		"clientInfo": map[string]any{
			"name":    c.opts.ClientName,
			"version": c.opts.ClientVersion,
		},
	}

	var result InitializeResult
	if err := c.call(ctx, "initialize", params, &result); err != nil {
		return err
	}

	if result.ProtocolVersion != "" && result.ProtocolVersion != ProtocolVersion {
		c.opts.Logger.Warn("mcp.protocol.mismatch", "server", c.serverName, "client_version", ProtocolVersion, "server_version", result.ProtocolVersion)
	}

	c.serverInfo = result.ServerInfo
	c.opts.Logger.Info("mcp.client.initialized", "server", c.serverName, "server_name", result.ServerInfo.Name, "server_version", result.ServerInfo.Version)

	return c.notify("notifications/initialized", nil)
}

// ServerInfo returns the server identity reported during initialize.
func (c *Client) ServerInfo() ServerInfo { return c.serverInfo }

// ListTools retrieves all tools exposed by the server.
func (c *Client) ListTools(ctx context.Context) ([]ToolSchema, error) {
	var out struct {
		Tools []ToolSchema `json:"tools"`
	}
	if err := c.call(ctx, "tools/list", nil, &out); err != nil {
		return nil, fmt.Errorf("tools/list: %w", err)
	}

	c.opts.Logger.Debug("mcp.tools.listed", "server", c.serverName, "count", len(out.Tools))

	return out.Tools, nil
}

// CallTool executes a tool on the server.
func (c *Client) CallTool(ctx context.Context, name string, arguments map[string]any) (*ToolCallResult, error) {
	if arguments == nil {
		arguments = map[string]any{}
	}

	var result ToolCallResult
	if err := c.call(ctx, "tools/call", map[string]any{"name": name, "arguments": arguments}, &result); err != nil {
		return nil, fmt.Errorf("tools/call %s: %w", name, err)
	}

	return &result, nil
}

// Close closes the connection and fails any pending calls. It is idempotent.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	close(c.done)
	c.mu.Unlock()

	return c.conn.Close()
}

func (c *Client) call(ctx context.Context, method string, params map[string]any, out any) error {
	id := c.idGen.Next()

	ch := make(chan *Response, 1)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClientClosed
	}
	c.pending[id] = ch
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
	}()

	if err := c.write(NewRequest(id, method, params)); err != nil {
		return err
	}

	timer := time.NewTimer(c.opts.RequestTimeout)
	defer timer.Stop()

	select {
	case resp := <-ch:
		if resp.Error != nil {
			return resp.Error
		}
		if out == nil || len(resp.Result) == 0 {
			return nil
		}
		if err := json.Unmarshal(resp.Result, out); err != nil {
			return fmt.Errorf("decode %s result: %w", method, err)
		}
		return nil
	case <-c.done:
		return ErrClientClosed
	case <-ctx.Done():
		return fmt.Errorf("request cancelled: %w", ctx.Err())
	case <-timer.C:
		return fmt.Errorf("request %s timed out after %s", method, c.opts.RequestTimeout)
	}
}

func (c *Client) notify(method string, params map[string]any) error {
	return c.write(NewNotification(method, params))
}

func (c *Client) write(v any) error {
	frame, err := encodeFrame(v)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if _, err := c.conn.Write(frame); err != nil {
		return fmt.Errorf("failed to write request: %w", err)
	}

	return nil
}

func (c *Client) readLoop() {
	scanner := bufio.NewScanner(c.conn)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		resp, err := UnmarshalResponse(line)
		if err != nil {
			c.opts.Logger.Warn("mcp.client.bad_frame", "server", c.serverName, "error", err.Error())
			continue
		}

		// Server initiated requests and notifications carry no routable ID.
		key := idKey(resp.ID)
		if key == "" || resp.Method != "" {
			continue
		}

		c.mu.Lock()
		ch, ok := c.pending[key]
		c.mu.Unlock()

		if !ok {
			c.opts.Logger.Debug("mcp.client.unmatched_response", "server", c.serverName, "id", key)
			continue
		}

		select {
		case ch <- resp:
		default:
		}
	}

	if err := scanner.Err(); err != nil {
		c.opts.Logger.Debug("mcp.client.read_loop.error", "server", c.serverName, "error", err.Error())
	}

	_ = c.Close()
}
