package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	forgeerr "github.com/queryforge/queryforge/errors"
	"github.com/queryforge/queryforge/pkg/logging"
)

// Client talks to an in-process Server. It performs the initialize handshake
// lazily before the first call and caches the advertised tools and resources.
type Client struct {
	server *Server
	logger *slog.Logger

	nextID atomic.Int64

	mu          sync.Mutex
	initialized bool
	serverInfo  ServerInfo
	tools       []ToolDescriptor
	resources   []ResourceDescriptor
}

// NewClient creates a client over the given server.
func NewClient(server *Server) *Client {
	return &Client{
		server: server,
		logger: logging.WithComponent("mcp-client"),
	}
}

func (c *Client) call(ctx context.Context, method string, params map[string]any) (map[string]any, error) {
	req := Request{
		JSONRPC: "2.0",
		ID:      c.nextID.Add(1),
		Method:  method,
		Params:  params,
	}
	resp := c.server.Handle(ctx, req)
	if resp.Error != nil {
		if resp.Error.Code == CodeMethodNotFound {
			return nil, fmt.Errorf("%w: %s", forgeerr.ErrMethodNotFound, resp.Error.Message)
		}
		return nil, fmt.Errorf("mcp: %s failed (%d): %s", method, resp.Error.Code, resp.Error.Message)
	}
	return resp.Result, nil
}

// Initialize performs the handshake and caches tools and resources. Repeated
// calls are no-ops once the handshake succeeded.
func (c *Client) Initialize(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.initialized {
		return nil
	}

	result, err := c.call(ctx, MethodInitialize, nil)
	if err != nil {
		return err
	}
	if raw, ok := result["serverInfo"]; ok {
		if data, err := json.Marshal(raw); err == nil {
			_ = json.Unmarshal(data, &c.serverInfo)
		}
	}

	toolsResult, err := c.call(ctx, MethodToolsList, nil)
	if err != nil {
		return err
	}
	c.tools = decodeList[ToolDescriptor](toolsResult["tools"])

	resourcesResult, err := c.call(ctx, MethodResourcesList, nil)
	if err != nil {
		return err
	}
	c.resources = decodeList[ResourceDescriptor](resourcesResult["resources"])

	c.initialized = true
	c.logger.Info("mcp client initialized",
		"server", c.serverInfo.Name,
		"tools", len(c.tools),
		"resources", len(c.resources))
	return nil
}

// ensureInitialized runs the handshake if it has not succeeded yet. A failed
// handshake is retried once before the error is returned.
func (c *Client) ensureInitialized(ctx context.Context) error {
	if err := c.Initialize(ctx); err != nil {
		c.logger.Warn("mcp initialize failed, retrying", "error", err)
		return c.Initialize(ctx)
	}
	return nil
}

// ListTools returns the tools the server advertises.
func (c *Client) ListTools(ctx context.Context) ([]ToolDescriptor, error) {
	if err := c.ensureInitialized(ctx); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]ToolDescriptor, len(c.tools))
	copy(out, c.tools)
	return out, nil
}

// CallTool invokes a tool and decodes its text content back into a map.
func (c *Client) CallTool(ctx context.Context, name string, args map[string]any) (map[string]any, error) {
	if err := c.ensureInitialized(ctx); err != nil {
		return nil, err
	}
	if args == nil {
		args = map[string]any{}
	}

	result, err := c.call(ctx, MethodToolsCall, map[string]any{
		"name":      name,
		"arguments": args,
	})
	if err != nil {
		return nil, err
	}
	return decodeTextPayload(result, "content")
}

// ListResources returns the resources the server advertises.
func (c *Client) ListResources(ctx context.Context) ([]ResourceDescriptor, error) {
	if err := c.ensureInitialized(ctx); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]ResourceDescriptor, len(c.resources))
	copy(out, c.resources)
	return out, nil
}

// ReadResource reads a resource by URI and decodes its text content.
func (c *Client) ReadResource(ctx context.Context, uri string) (map[string]any, error) {
	if err := c.ensureInitialized(ctx); err != nil {
		return nil, err
	}

	result, err := c.call(ctx, MethodResourcesRead, map[string]any{"uri": uri})
	if err != nil {
		return nil, err
	}
	return decodeTextPayload(result, "contents")
}

// Status reports the connection state.
func (c *Client) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Status{
		Initialized:   c.initialized,
		ToolCount:     len(c.tools),
		ResourceCount: len(c.resources),
		ServerInfo:    c.serverInfo,
	}
}

// decodeList converts a loosely typed JSON value into a typed slice.
func decodeList[T any](raw any) []T {
	data, err := json.Marshal(raw)
	if err != nil {
		return nil
	}
	var out []T
	if err := json.Unmarshal(data, &out); err != nil {
		return nil
	}
	return out
}

// decodeTextPayload extracts the first text block under key and unmarshals it.
func decodeTextPayload(result map[string]any, key string) (map[string]any, error) {
	items, ok := result[key].([]map[string]any)
	if !ok {
		// Handle decoding through interface slices as well.
		if anyItems, ok2 := result[key].([]any); ok2 {
			for _, item := range anyItems {
				if m, ok := item.(map[string]any); ok {
					items = append(items, m)
				}
			}
		}
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("mcp: response has no %s", key)
	}

	text, ok := items[0]["text"].(string)
	if !ok {
		return nil, fmt.Errorf("mcp: %s block has no text", key)
	}
	var payload map[string]any
	if err := json.Unmarshal([]byte(text), &payload); err != nil {
		return nil, fmt.Errorf("mcp: decode %s payload: %w", key, err)
	}
	return payload, nil
}
