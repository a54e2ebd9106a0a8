// Package mcp calls tools on a remote Model Context Protocol server over the
// streamable HTTP transport.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"shop_assistant_backend/platform/apperr"
)

const (
	clientName     = "shop-assistant"
	clientVersion  = "1.0.0"
	defaultTimeout = 30 * time.Second
)

// ErrToolFailed is returned when the server reports isError on a tool result.
var ErrToolFailed = errors.New("mcp: tool reported an error")

// Config configures the MCP client.
type Config struct {
	Endpoint string
	// Label is the server label used to namespace tool names in transcripts.
	Label   string
	Timeout time.Duration
	// Transport replaces the streamable HTTP transport built from Endpoint.
	Transport sdk.Transport
}

// Client holds one lazily opened session to a single MCP server.
type Client struct {
	label     string
	timeout   time.Duration
	client    *sdk.Client
	transport sdk.Transport

	mu      sync.Mutex
	session *sdk.ClientSession
}

// NewClient creates a new MCP client. No connection is made until the first call.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	transport := cfg.Transport
	if transport == nil {
		// The session outlives a single request, so only response headers are
		// bounded here; each call gets its own deadline.
		httpTransport := http.DefaultTransport.(*http.Transport).Clone()
		httpTransport.ResponseHeaderTimeout = timeout
		transport = &sdk.StreamableClientTransport{
			Endpoint:   cfg.Endpoint,
			HTTPClient: &http.Client{Transport: httpTransport},
		}
	}

	return &Client{
		label:     cfg.Label,
		timeout:   timeout,
		client:    sdk.NewClient(&sdk.Implementation{Name: clientName, Version: clientVersion}, nil),
		transport: transport,
	}
}

// Label returns the server label.
func (c *Client) Label() string {
	return c.label
}

// CallTool invokes a tool on the server. Transport failures come back as
// apperr upstream errors; a result flagged isError is returned together with
// ErrToolFailed.
func (c *Client) CallTool(ctx context.Context, name string, args map[string]any) (*sdk.CallToolResult, error) {
	if args == nil {
		args = map[string]any{}
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	params := &sdk.CallToolParams{Name: name, Arguments: args}

	session, err := c.getSession(ctx)
	if err != nil {
		return nil, upstream(name, err)
	}
	result, err := session.CallTool(ctx, params)
	if err != nil && connectionLost(err) {
		session, err = c.reconnect(ctx, session)
		if err == nil {
			result, err = session.CallTool(ctx, params)
		}
	}
	if err != nil {
		return nil, upstream(name, err)
	}
	if result.IsError {
		return result, fmt.Errorf("%w: %s", ErrToolFailed, Text(result))
	}
	return result, nil
}

// Close ends the current session, if any.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil {
		return nil
	}
	err := c.session.Close()
	c.session = nil
	return err
}

// Text joins the text items of a tool result.
func Text(result *sdk.CallToolResult) string {
	if result == nil {
		return ""
	}
	texts := make([]string, 0, len(result.Content))
	for _, content := range result.Content {
		if text, ok := content.(*sdk.TextContent); ok && text.Text != "" {
			texts = append(texts, text.Text)
		}
	}
	return strings.Join(texts, "\n")
}

func (c *Client) getSession(ctx context.Context) (*sdk.ClientSession, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session != nil {
		return c.session, nil
	}
	return c.connectLocked(ctx)
}

// reconnect replaces stale unless another caller already did.
func (c *Client) reconnect(ctx context.Context, stale *sdk.ClientSession) (*sdk.ClientSession, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session != nil && c.session != stale {
		return c.session, nil
	}
	if c.session != nil {
		_ = c.session.Close()
		c.session = nil
	}
	return c.connectLocked(ctx)
}

func (c *Client) connectLocked(ctx context.Context) (*sdk.ClientSession, error) {
	// The transport ties the connection lifetime to this context.
	session, err := c.client.Connect(context.WithoutCancel(ctx), c.transport, nil)
	if err != nil {
		return nil, fmt.Errorf("mcp: connect: %w", err)
	}
	c.session = session
	return session, nil
}

func connectionLost(err error) bool {
	if errors.Is(err, sdk.ErrConnectionClosed) || errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe) {
		return true
	}
	return strings.Contains(err.Error(), "session not found")
}

func upstream(tool string, err error) *apperr.Error {
	return apperr.Upstream("tool call failed", err).WithOp("mcp." + tool)
}
