package toolserver

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	mcplib "github.com/mark3labs/mcp-go/mcp"
)

const maxResponseBytes = 1 << 20 // 1 MiB

type apiTool struct {
	client *http.Client
}

func newAPITool() *apiTool {
	return &apiTool{
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

func (a *apiTool) call(ctx context.Context, method, rawURL, body string) (map[string]any, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme %q (want http or https)", parsed.Scheme)
	}

	method = strings.ToUpper(method)
	if method == "" {
		method = http.MethodGet
	}
	if method != http.MethodGet && method != http.MethodPost {
		return nil, fmt.Errorf("unsupported method %q (want GET or POST)", method)
	}

	var reqBody io.Reader
	if method == http.MethodPost && body != "" {
		reqBody = strings.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reqBody)
	if err != nil {
		return nil, err
	}
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	return map[string]any{
		"status":       resp.StatusCode,
		"content_type": resp.Header.Get("Content-Type"),
		"body":         string(data),
	}, nil
}

func (s *Server) handleAPICall(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	rawURL := request.GetString("url", "")
	if rawURL == "" {
		return errorResult("url is required"), nil
	}

	result, err := s.api.call(ctx,
		request.GetString("method", "GET"),
		rawURL,
		request.GetString("body", ""))
	if err != nil {
		return errorResult(err.Error()), nil
	}
	return jsonResult(result)
}
