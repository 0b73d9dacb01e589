package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"sync"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/queryforge/queryforge/pkg/logging"
)

// Transport enumerates the supported remote MCP transports.
type Transport string

const (
	// TransportStreamable connects over streamable HTTP (SSE + HTTP POST).
	TransportStreamable Transport = "streamable"
	// TransportCommand launches a server process and talks over stdio.
	TransportCommand Transport = "command"
)

// RemoteConfig describes how to reach a real MCP server.
type RemoteConfig struct {
	// Transport selects the connection type. Defaults to command when Command
	// is set, streamable otherwise.
	Transport Transport
	// Endpoint is required for the streamable transport.
	Endpoint string
	// Command is required for the command transport.
	Command string
	// Args are passed to the server process on the command transport.
	Args []string
}

// Remote is a Capability backed by a real MCP server through the official
// SDK. The connection is established lazily on first use.
type Remote struct {
	config RemoteConfig
	logger *slog.Logger

	mu        sync.Mutex
	session   *sdkmcp.ClientSession
	tools     []ToolDescriptor
	resources []ResourceDescriptor
	info      ServerInfo
}

// NewRemote creates an unconnected remote capability.
func NewRemote(config RemoteConfig) *Remote {
	return &Remote{
		config: config,
		logger: logging.WithComponent("mcp-remote"),
	}
}

// Initialize connects to the server and caches the tool and resource lists.
// Repeated calls are no-ops once connected.
func (r *Remote) Initialize(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.session != nil {
		return nil
	}

	transport, err := r.transport()
	if err != nil {
		return err
	}

	client := sdkmcp.NewClient(&sdkmcp.Implementation{
		Name:    "queryforge",
		Version: "1.0.0",
	}, nil)

	session, err := client.Connect(ctx, transport, nil)
	if err != nil {
		return fmt.Errorf("mcp: connect failed: %w", err)
	}
	r.session = session

	if init := session.InitializeResult(); init != nil && init.ServerInfo != nil {
		r.info = ServerInfo{
			Name:    init.ServerInfo.Name,
			Version: init.ServerInfo.Version,
		}
	}

	if err := r.refreshLocked(ctx); err != nil {
		_ = session.Close()
		r.session = nil
		return err
	}

	r.logger.Info("connected to mcp server",
		"server", r.info.Name,
		"tools", len(r.tools),
		"resources", len(r.resources))
	return nil
}

func (r *Remote) transport() (sdkmcp.Transport, error) {
	t := r.config.Transport
	if t == "" {
		if r.config.Command != "" {
			t = TransportCommand
		} else {
			t = TransportStreamable
		}
	}

	switch t {
	case TransportCommand:
		if strings.TrimSpace(r.config.Command) == "" {
			return nil, errors.New("mcp: command is required for command transport")
		}
		return &sdkmcp.CommandTransport{
			Command: exec.Command(r.config.Command, r.config.Args...),
		}, nil
	case TransportStreamable:
		if strings.TrimSpace(r.config.Endpoint) == "" {
			return nil, errors.New("mcp: endpoint is required for streamable transport")
		}
		return &sdkmcp.StreamableClientTransport{Endpoint: r.config.Endpoint}, nil
	default:
		return nil, fmt.Errorf("mcp: unsupported transport %q", t)
	}
}

// refreshLocked reloads the advertised tools and resources. Caller holds mu.
func (r *Remote) refreshLocked(ctx context.Context) error {
	tools, err := r.listAllTools(ctx)
	if err != nil {
		return fmt.Errorf("mcp: list tools: %w", err)
	}
	r.tools = tools

	res, err := r.session.ListResources(ctx, &sdkmcp.ListResourcesParams{})
	if err != nil {
		// Not every server exposes resources.
		r.logger.Debug("server has no resources", "error", err)
		r.resources = nil
		return nil
	}
	r.resources = r.resources[:0]
	for _, item := range res.Resources {
		if item == nil {
			continue
		}
		r.resources = append(r.resources, ResourceDescriptor{
			URI:         item.URI,
			Name:        item.Name,
			Description: item.Description,
			MimeType:    item.MIMEType,
		})
	}
	return nil
}

func (r *Remote) listAllTools(ctx context.Context) ([]ToolDescriptor, error) {
	var (
		cursor string
		tools  []ToolDescriptor
	)
	for {
		params := &sdkmcp.ListToolsParams{}
		if cursor != "" {
			params.Cursor = cursor
		}
		res, err := r.session.ListTools(ctx, params)
		if err != nil {
			return nil, err
		}
		for _, def := range res.Tools {
			if def == nil {
				continue
			}
			var inputSchema json.RawMessage
			if def.InputSchema != nil {
				inputSchema, _ = json.Marshal(def.InputSchema)
			}
			tools = append(tools, ToolDescriptor{
				Name:        def.Name,
				Description: def.Description,
				InputSchema: inputSchema,
			})
		}
		if res.NextCursor == "" {
			return tools, nil
		}
		cursor = res.NextCursor
	}
}

// ListTools returns the cached tool descriptors.
func (r *Remote) ListTools(ctx context.Context) ([]ToolDescriptor, error) {
	if err := r.Initialize(ctx); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ToolDescriptor, len(r.tools))
	copy(out, r.tools)
	return out, nil
}

// CallTool invokes a remote tool and decodes its text content into a map.
// Non-JSON text content is returned under a "text" key.
func (r *Remote) CallTool(ctx context.Context, name string, args map[string]any) (map[string]any, error) {
	if err := r.Initialize(ctx); err != nil {
		return nil, err
	}
	if args == nil {
		args = map[string]any{}
	}

	result, err := r.session.CallTool(ctx, &sdkmcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		return nil, fmt.Errorf("mcp: call %s: %w", name, err)
	}

	text := flattenContent(result.Content)
	if result.IsError {
		if text == "" {
			text = "tool returned error without message"
		}
		return nil, fmt.Errorf("mcp tool %s: %s", name, text)
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(text), &payload); err != nil {
		return map[string]any{"text": text}, nil
	}
	return payload, nil
}

// ListResources returns the cached resource descriptors.
func (r *Remote) ListResources(ctx context.Context) ([]ResourceDescriptor, error) {
	if err := r.Initialize(ctx); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ResourceDescriptor, len(r.resources))
	copy(out, r.resources)
	return out, nil
}

// ReadResource reads a remote resource and decodes its first text content.
func (r *Remote) ReadResource(ctx context.Context, uri string) (map[string]any, error) {
	if err := r.Initialize(ctx); err != nil {
		return nil, err
	}

	result, err := r.session.ReadResource(ctx, &sdkmcp.ReadResourceParams{URI: uri})
	if err != nil {
		return nil, fmt.Errorf("mcp: read %s: %w", uri, err)
	}
	for _, c := range result.Contents {
		if c == nil || c.Text == "" {
			continue
		}
		var payload map[string]any
		if err := json.Unmarshal([]byte(c.Text), &payload); err != nil {
			return map[string]any{"text": c.Text}, nil
		}
		return payload, nil
	}
	return nil, fmt.Errorf("mcp: resource %s has no text content", uri)
}

// Status reports the connection state.
func (r *Remote) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Status{
		Initialized:   r.session != nil,
		ToolCount:     len(r.tools),
		ResourceCount: len(r.resources),
		ServerInfo:    r.info,
	}
}

// Close terminates the session.
func (r *Remote) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.session == nil {
		return nil
	}
	err := r.session.Close()
	r.session = nil
	return err
}

func flattenContent(content []sdkmcp.Content) string {
	parts := make([]string, 0, len(content))
	for _, c := range content {
		switch v := c.(type) {
		case *sdkmcp.TextContent:
			parts = append(parts, v.Text)
		default:
			if data, err := json.Marshal(c); err == nil {
				parts = append(parts, string(data))
			}
		}
	}
	return strings.Join(parts, "\n")
}
