// Package mcp implements the Model Context Protocol surface of the engine: a
// local JSON-RPC server exposing database tools and resources, a client for
// it, and a remote client speaking the real protocol over the official SDK.
package mcp

import (
	"context"
	"encoding/json"
)

// JSON-RPC method names.
const (
	MethodInitialize    = "initialize"
	MethodToolsList     = "tools/list"
	MethodToolsCall     = "tools/call"
	MethodResourcesList = "resources/list"
	MethodResourcesRead = "resources/read"
)

// JSON-RPC error codes.
const (
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
)

// ProtocolVersion is the MCP protocol revision the local server speaks.
const ProtocolVersion = "2024-11-05"

// Request is a JSON-RPC 2.0 request.
type Request struct {
	JSONRPC string         `json:"jsonrpc"`
	ID      any            `json:"id,omitempty"`
	Method  string         `json:"method"`
	Params  map[string]any `json:"params,omitempty"`
}

// Response is a JSON-RPC 2.0 response.
type Response struct {
	JSONRPC string         `json:"jsonrpc"`
	ID      any            `json:"id,omitempty"`
	Result  map[string]any `json:"result,omitempty"`
	Error   *ErrorObject   `json:"error,omitempty"`
}

// ErrorObject is a JSON-RPC 2.0 error.
type ErrorObject struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// ToolDescriptor describes one tool the server exposes.
type ToolDescriptor struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"inputSchema"`
}

// ResourceDescriptor describes one readable resource.
type ResourceDescriptor struct {
	URI         string `json:"uri"`
	Name        string `json:"name"`
	Description string `json:"description"`
	MimeType    string `json:"mimeType"`
}

// ServerInfo identifies a server implementation.
type ServerInfo struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Description string `json:"description,omitempty"`
}

// Status reports a capability's connection state.
type Status struct {
	Initialized   bool       `json:"initialized"`
	ToolCount     int        `json:"tool_count"`
	ResourceCount int        `json:"resource_count"`
	ServerInfo    ServerInfo `json:"server_info"`
}

// Capability is the engine-facing interface over an MCP connection, local or
// remote.
type Capability interface {
	// Initialize performs the protocol handshake. Safe to call repeatedly.
	Initialize(ctx context.Context) error
	// ListTools returns the tools the server exposes.
	ListTools(ctx context.Context) ([]ToolDescriptor, error)
	// CallTool invokes a tool and returns its decoded result.
	CallTool(ctx context.Context, name string, args map[string]any) (map[string]any, error)
	// ListResources returns the readable resources.
	ListResources(ctx context.Context) ([]ResourceDescriptor, error)
	// ReadResource reads a resource by URI and returns its decoded content.
	ReadResource(ctx context.Context, uri string) (map[string]any, error)
	// Status reports the connection state.
	Status() Status
}
