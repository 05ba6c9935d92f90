// Package toolserver implements the bundled MCP tool server: a stdio
// server exposing filesystem, database, HTTP, and scripting tools plus
// its own health and metrics surface.
package toolserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

type Options struct {
	Workspace string // sandbox root for filesystem operations
	DBDriver  string // "sqlite" or "postgres"
	DBDSN     string
	Logger    *slog.Logger
}

type Server struct {
	mcpServer *mcpserver.MCPServer
	logger    *slog.Logger
	fs        *fsTool
	db        *dbTool
	api       *apiTool
	script    *scriptTool
	started   time.Time

	toolNames []string
	handlers  map[string]mcpserver.ToolHandlerFunc

	mu     sync.Mutex
	calls  map[string]int64
	errors map[string]int64
}

func New(opts Options) (*Server, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	fs, err := newFSTool(opts.Workspace)
	if err != nil {
		return nil, err
	}
	db, err := newDBTool(opts.DBDriver, opts.DBDSN)
	if err != nil {
		return nil, err
	}

	s := &Server{
		logger:   opts.Logger,
		fs:       fs,
		db:       db,
		api:      newAPITool(),
		script:   newScriptTool(),
		started:  time.Now(),
		calls:    make(map[string]int64),
		errors:   make(map[string]int64),
		handlers: make(map[string]mcpserver.ToolHandlerFunc),
	}

	s.mcpServer = mcpserver.NewMCPServer(
		"stride-tools",
		"1.0.0",
		mcpserver.WithToolCapabilities(true),
	)
	s.registerTools()
	return s, nil
}

// addTool registers a tool with its accounting wrapper.
func (s *Server) addTool(tool mcplib.Tool, h mcpserver.ToolHandlerFunc) {
	wrapped := s.counted(tool.Name, h)
	s.toolNames = append(s.toolNames, tool.Name)
	s.handlers[tool.Name] = wrapped
	s.mcpServer.AddTool(tool, wrapped)
}

func (s *Server) registerTools() {
	s.addTool(
		mcplib.NewTool("filesystem_operation",
			mcplib.WithDescription("Read, write, list, or delete files inside the workspace"),
			mcplib.WithString("operation", mcplib.Required(),
				mcplib.Description("One of: read, write, list, delete")),
			mcplib.WithString("path", mcplib.Required(),
				mcplib.Description("Path relative to the workspace root")),
			mcplib.WithString("content",
				mcplib.Description("File content, for write operations")),
		),
		s.handleFilesystem,
	)

	s.addTool(
		mcplib.NewTool("database_query",
			mcplib.WithDescription("Run a read-only SQL query against the sample database"),
			mcplib.WithString("query", mcplib.Required(),
				mcplib.Description("A single SELECT statement")),
			mcplib.WithNumber("limit",
				mcplib.Description("Maximum rows to return (default 50)")),
		),
		s.handleDatabase,
	)

	s.addTool(
		mcplib.NewTool("api_call",
			mcplib.WithDescription("Make an HTTP GET or POST request and return the response"),
			mcplib.WithString("url", mcplib.Required(),
				mcplib.Description("Target URL, http or https only")),
			mcplib.WithString("method",
				mcplib.Description("GET or POST (default GET)")),
			mcplib.WithString("body",
				mcplib.Description("Request body for POST, sent as JSON")),
		),
		s.handleAPICall,
	)

	s.addTool(
		mcplib.NewTool("run_script",
			mcplib.WithDescription("Run a short Lua script in a sandbox and return its result"),
			mcplib.WithString("source", mcplib.Required(),
				mcplib.Description("Lua source code")),
		),
		s.handleScript,
	)

	s.addTool(
		mcplib.NewTool("health_check",
			mcplib.WithDescription("Report server health and uptime"),
		),
		s.handleHealth,
	)

	s.addTool(
		mcplib.NewTool("server_metrics",
			mcplib.WithDescription("Report per-tool invocation counts"),
		),
		s.handleMetrics,
	)
}

// counted wraps a handler with invocation accounting and logging.
func (s *Server) counted(name string, h mcpserver.ToolHandlerFunc) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
		s.mu.Lock()
		s.calls[name]++
		s.mu.Unlock()

		start := time.Now()
		result, err := h(ctx, request)

		failed := err != nil || (result != nil && result.IsError)
		if failed {
			s.mu.Lock()
			s.errors[name]++
			s.mu.Unlock()
		}
		s.logger.Info("tool call", "tool", name, "elapsed", time.Since(start), "is_error", failed)
		return result, err
	}
}

func (s *Server) handleHealth(ctx context.Context, _ mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	database := "ok"
	status := "healthy"
	if err := s.db.Ping(ctx); err != nil {
		database = err.Error()
		status = "degraded"
	}
	return jsonResult(map[string]any{
		"status":         status,
		"database":       database,
		"tools":          len(s.toolNames),
		"uptime_seconds": int64(time.Since(s.started).Seconds()),
		"time":           time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleMetrics(_ context.Context, _ mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	s.mu.Lock()
	counts := make(map[string]int64, len(s.calls))
	for name, n := range s.calls {
		counts[name] = n
	}
	errCounts := make(map[string]int64, len(s.errors))
	for name, n := range s.errors {
		errCounts[name] = n
	}
	s.mu.Unlock()

	names := append([]string(nil), s.toolNames...)
	sort.Strings(names)

	return jsonResult(map[string]any{
		"uptime_seconds": int64(time.Since(s.started).Seconds()),
		"tools":          names,
		"tool_calls":     counts,
		"tool_errors":    errCounts,
	})
}

// ServeStdio blocks, speaking MCP over stdin/stdout until EOF.
func (s *Server) ServeStdio() error {
	defer s.Close()
	return mcpserver.ServeStdio(s.mcpServer)
}

func (s *Server) Close() error {
	return s.db.Close()
}

func jsonResult(v any) (*mcplib.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return errorResult(fmt.Sprintf("encode result: %v", err)), nil
	}
	return &mcplib.CallToolResult{
		Content: []mcplib.Content{
			mcplib.TextContent{Type: "text", Text: string(data)},
		},
	}, nil
}

func errorResult(msg string) *mcplib.CallToolResult {
	return &mcplib.CallToolResult{
		Content: []mcplib.Content{
			mcplib.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
