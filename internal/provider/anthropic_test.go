package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAnthropicComplete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("x-api-key") != "test-key" {
			t.Errorf("api key = %q", r.Header.Get("x-api-key"))
		}
		if r.Header.Get("anthropic-version") != anthropicAPIVersion {
			t.Errorf("version = %q", r.Header.Get("anthropic-version"))
		}

		var req anthRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatal(err)
		}
		if req.System != "You are helpful." {
			t.Errorf("system = %q", req.System)
		}
		if len(req.Messages) != 1 {
			t.Errorf("messages = %d, want 1 (system lifted out)", len(req.Messages))
		}
		if req.MaxTokens != 4096 {
			t.Errorf("max_tokens = %d, want default 4096", req.MaxTokens)
		}

		resp := anthResponse{
			ID:    "msg-1",
			Model: "claude-sonnet",
			Content: []anthContentBlock{
				{Type: "text", Text: "Hi there."},
				{Type: "text", Text: "What can I do for you?"},
			},
			Usage: anthUsage{InputTokens: 12, OutputTokens: 8},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	p := NewAnthropicProvider("anthropic", server.URL, "test-key", nil)

	resp, err := p.Complete(context.Background(), &CompletionRequest{
		Model: "claude-sonnet",
		Messages: []Message{
			{Role: RoleSystem, Content: "You are helpful."},
			{Role: RoleUser, Content: "Hi"},
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	want := "Hi there.\n\nWhat can I do for you?"
	if resp.Content != want {
		t.Errorf("content = %q, want %q", resp.Content, want)
	}
	if resp.Usage.InputTokens != 12 {
		t.Errorf("input_tokens = %d", resp.Usage.InputTokens)
	}
}

func TestAnthropicCompleteError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"invalid_request_error","message":"bad"}}`))
	}))
	defer server.Close()

	p := NewAnthropicProvider("anthropic", server.URL, "key", nil)

	_, err := p.Complete(context.Background(), &CompletionRequest{
		Model:    "claude-sonnet",
		Messages: []Message{{Role: RoleUser, Content: "Hi"}},
	})
	if err == nil {
		t.Fatal("expected error")
	}
}
