package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ToolServer is a named tool registry that can be served over MCP.
type ToolServer struct {
	log     *slog.Logger
	name    string
	version string
	mu      sync.RWMutex
	tools   map[string]*registeredTool
}

// registeredTool holds tool metadata and its handler.
type registeredTool struct {
	tool    *mcp.Tool
	handler mcp.ToolHandler
}

// NewToolServer creates an empty registry. A nil logger disables logging.
func NewToolServer(log *slog.Logger, name, version string) *ToolServer {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &ToolServer{
		log:     log.With("component", "mcp_server"),
		name:    name,
		version: version,
		tools:   make(map[string]*registeredTool, 8),
	}
}

// AddTool registers a tool, replacing any tool with the same name.
// A nil input schema is replaced by an empty object schema.
func (s *ToolServer) AddTool(tool *mcp.Tool, handler mcp.ToolHandler) {
	if tool.InputSchema == nil {
		tool.InputSchema = &jsonschema.Schema{Type: "object"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.tools[tool.Name] = &registeredTool{
		tool:    tool,
		handler: handler,
	}
}

// Name returns the server name.
func (s *ToolServer) Name() string {
	return s.name
}

// Version returns the server version.
func (s *ToolServer) Version() string {
	return s.version
}

// Tools returns the registered tools sorted by name.
func (s *ToolServer) Tools() []*mcp.Tool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tools := make([]*mcp.Tool, 0, len(s.tools))
	for _, t := range s.tools {
		tools = append(tools, t.tool)
	}

	slices.SortFunc(tools, func(a, b *mcp.Tool) int {
		return strings.Compare(a.Name, b.Name)
	})

	return tools
}

// CallTool executes a tool in-process with the given input.
//
// Unknown tools and handler failures are reported as error results rather
// than Go errors, matching what an MCP client would observe.
func (s *ToolServer) CallTool(ctx context.Context, name string, input map[string]any) (*mcp.CallToolResult, error) {
	s.mu.RLock()
	t, exists := s.tools[name]
	s.mu.RUnlock()

	if !exists {
		return ErrorResult("Tool not found: " + name), nil
	}

	inputBytes, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("marshal tool input: %w", err)
	}

	req := &mcp.CallToolRequest{
		Params: &mcp.CallToolParamsRaw{
			Name:      name,
			Arguments: inputBytes,
		},
	}

	result, err := t.handler(ctx, req)
	if err != nil {
		//nolint:nilerr // the failure is carried in the result
		return ErrorResult("Tool execution failed: " + err.Error()), nil
	}

	if result == nil {
		result = &mcp.CallToolResult{Content: []mcp.Content{}}
	}

	return result, nil
}

// NewServer builds an MCP server exposing every registered tool.
func (s *ToolServer) NewServer() *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    s.name,
		Version: s.version,
	}, nil)

	for _, tool := range s.Tools() {
		s.mu.RLock()
		handler := s.tools[tool.Name].handler
		s.mu.RUnlock()

		server.AddTool(tool, s.logged(tool.Name, handler))
	}

	return server
}

// Serve runs an MCP server on transport until the peer disconnects or ctx
// is cancelled.
func (s *ToolServer) Serve(ctx context.Context, transport mcp.Transport) error {
	s.log.Info("Serving MCP tools", "name", s.name, "version", s.version, "tools", len(s.Tools()))

	err := s.NewServer().Run(ctx, transport)
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("mcp server: %w", err)
	}

	return nil
}

// ServeStdio serves over the process's stdin and stdout.
func (s *ToolServer) ServeStdio(ctx context.Context) error {
	return s.Serve(ctx, &mcp.StdioTransport{})
}

func (s *ToolServer) logged(name string, handler mcp.ToolHandler) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		s.log.Debug("Tool call", "tool", name)

		result, err := handler(ctx, req)
		if err != nil {
			s.log.Warn("Tool call failed", "tool", name, "error", err)
		}

		return result, err
	}
}
