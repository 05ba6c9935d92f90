package tooling

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	mcpclient "github.com/mark3labs/mcp-go/client"
	mcplib "github.com/mark3labs/mcp-go/mcp"
)

// MCPBackend reaches a tool server over stdio: it launches the
// configured command as a subprocess and speaks MCP to it.
type MCPBackend struct {
	mu      sync.Mutex
	command string
	args    []string
	env     []string
	client  *mcpclient.Client
}

// NewMCPBackend creates a backend for the given server command. The
// subprocess is launched lazily on first use.
func NewMCPBackend(command string, args, env []string) *MCPBackend {
	return &MCPBackend{
		command: command,
		args:    args,
		env:     env,
	}
}

func (b *MCPBackend) connect(ctx context.Context) (*mcpclient.Client, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.client != nil {
		return b.client, nil
	}

	c, err := mcpclient.NewStdioMCPClient(b.command, b.env, b.args...)
	if err != nil {
		return nil, fmt.Errorf("launch tool server %q: %w", b.command, err)
	}

	_, err = c.Initialize(ctx, mcplib.InitializeRequest{
		Params: mcplib.InitializeParams{
			ProtocolVersion: mcplib.LATEST_PROTOCOL_VERSION,
			ClientInfo:      mcplib.Implementation{Name: "stride", Version: "1.0"},
		},
	})
	if err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("initialize tool server: %w", err)
	}

	b.client = c
	return c, nil
}

// Discover lists the server's tools as Descriptors.
func (b *MCPBackend) Discover(ctx context.Context) ([]Descriptor, error) {
	c, err := b.connect(ctx)
	if err != nil {
		return nil, err
	}

	result, err := c.ListTools(ctx, mcplib.ListToolsRequest{})
	if err != nil {
		return nil, fmt.Errorf("list tools: %w", err)
	}

	descs := make([]Descriptor, 0, len(result.Tools))
	for _, tool := range result.Tools {
		descs = append(descs, Descriptor{
			Name:        tool.Name,
			Description: tool.Description,
			Params:      flattenSchema(tool.InputSchema),
		})
	}
	return descs, nil
}

// Invoke calls a tool and returns the concatenated text content of the
// result. A result flagged IsError becomes an invocation error carrying
// the server's error text.
func (b *MCPBackend) Invoke(ctx context.Context, name string, params map[string]any) (string, error) {
	c, err := b.connect(ctx)
	if err != nil {
		return "", err
	}

	result, err := c.CallTool(ctx, mcplib.CallToolRequest{
		Params: mcplib.CallToolParams{
			Name:      name,
			Arguments: params,
		},
	})
	if err != nil {
		return "", fmt.Errorf("call %s: %w", name, err)
	}

	text := textContent(result.Content)
	if result.IsError {
		if text == "" {
			text = "tool reported an error"
		}
		return "", fmt.Errorf("%s: %s", name, text)
	}
	return text, nil
}

func (b *MCPBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.client == nil {
		return nil
	}
	err := b.client.Close()
	b.client = nil
	return err
}

func textContent(blocks []mcplib.Content) string {
	var parts []string
	for _, block := range blocks {
		if tc, ok := mcplib.AsTextContent(block); ok {
			parts = append(parts, tc.Text)
		}
	}
	return strings.Join(parts, "\n")
}

func flattenSchema(schema mcplib.ToolInputSchema) []Param {
	required := make(map[string]bool, len(schema.Required))
	for _, name := range schema.Required {
		required[name] = true
	}

	params := make([]Param, 0, len(schema.Properties))
	for name, raw := range schema.Properties {
		p := Param{Name: name, Required: required[name]}
		if prop, ok := raw.(map[string]any); ok {
			if t, ok := prop["type"].(string); ok {
				p.Type = t
			}
			if desc, ok := prop["description"].(string); ok {
				p.Description = desc
			}
		}
		params = append(params, p)
	}
	sort.Slice(params, func(i, j int) bool { return params[i].Name < params[j].Name })
	return params
}
