package toolserver

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	mcplib "github.com/mark3labs/mcp-go/mcp"
)

// fsTool confines every operation to a workspace directory. Paths are
// resolved relative to the root and may never escape it.
type fsTool struct {
	root string
}

func newFSTool(workspace string) (*fsTool, error) {
	if workspace == "" {
		workspace = "."
	}
	root, err := filepath.Abs(workspace)
	if err != nil {
		return nil, fmt.Errorf("resolve workspace %q: %w", workspace, err)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create workspace %q: %w", root, err)
	}
	return &fsTool{root: root}, nil
}

// resolve maps a user-supplied path into the workspace, rejecting any
// path that would land outside it.
func (f *fsTool) resolve(path string) (string, error) {
	full := filepath.Join(f.root, path)
	rel, err := filepath.Rel(f.root, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes the workspace", path)
	}
	return full, nil
}

func (s *Server) handleFilesystem(_ context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	op := request.GetString("operation", "")
	path := request.GetString("path", "")
	if op == "" || path == "" {
		return errorResult("operation and path are required"), nil
	}

	full, err := s.fs.resolve(path)
	if err != nil {
		return errorResult(err.Error()), nil
	}

	switch op {
	case "read":
		data, err := os.ReadFile(full)
		if err != nil {
			return errorResult(fmt.Sprintf("read %s: %v", path, err)), nil
		}
		return jsonResult(map[string]any{
			"content": string(data),
			"size":    len(data),
		})

	case "write":
		content := request.GetString("content", "")
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			return errorResult(fmt.Sprintf("write %s: %v", path, err)), nil
		}
		if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
			return errorResult(fmt.Sprintf("write %s: %v", path, err)), nil
		}
		return jsonResult(map[string]any{
			"message": fmt.Sprintf("wrote %d bytes to %s", len(content), path),
		})

	case "list":
		entries, err := os.ReadDir(full)
		if err != nil {
			return errorResult(fmt.Sprintf("list %s: %v", path, err)), nil
		}
		files := make([]string, 0, len(entries))
		for _, entry := range entries {
			name := entry.Name()
			if entry.IsDir() {
				name += "/"
			}
			files = append(files, name)
		}
		return jsonResult(map[string]any{
			"files": files,
			"count": len(files),
		})

	case "delete":
		info, err := os.Stat(full)
		if err != nil {
			return errorResult(fmt.Sprintf("delete %s: %v", path, err)), nil
		}
		if info.IsDir() {
			return errorResult(fmt.Sprintf("delete %s: directories cannot be deleted", path)), nil
		}
		if err := os.Remove(full); err != nil {
			return errorResult(fmt.Sprintf("delete %s: %v", path, err)), nil
		}
		return jsonResult(map[string]any{
			"message": "deleted " + path,
		})

	default:
		return errorResult(fmt.Sprintf("unknown operation %q (want read, write, list, or delete)", op)), nil
	}
}
