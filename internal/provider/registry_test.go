package provider

import (
	"context"
	"testing"
)

type stubProvider struct {
	id string
}

func (s *stubProvider) ID() string { return s.id }

func (s *stubProvider) Complete(_ context.Context, _ *CompletionRequest) (*CompletionResponse, error) {
	return &CompletionResponse{Content: "ok"}, nil
}

func (s *stubProvider) Models() []ModelInfo { return nil }

func TestRegistryRegisterAndGet(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(&stubProvider{id: "a"}); err != nil {
		t.Fatal(err)
	}
	if err := r.Register(&stubProvider{id: "a"}); err == nil {
		t.Fatal("expected duplicate registration error")
	}

	p, err := r.Get("a")
	if err != nil {
		t.Fatal(err)
	}
	if p.ID() != "a" {
		t.Errorf("id = %q", p.ID())
	}

	if _, err := r.Get("missing"); err == nil {
		t.Fatal("expected not-found error")
	}
}

func TestRegistryGetForModel(t *testing.T) {
	r := NewRegistry()
	_ = r.Register(&stubProvider{id: "openai"})

	ref, err := ParseModelRef("openai/gpt-4o")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := r.GetForModel(ref); err != nil {
		t.Fatal(err)
	}
}

func TestParseModelRef(t *testing.T) {
	cases := []struct {
		in    string
		valid bool
	}{
		{"openai/gpt-4o", true},
		{"anthropic/claude-sonnet", true},
		{"gpt-4o", false},
		{"/model", false},
		{"", false},
	}
	for _, c := range cases {
		_, err := ParseModelRef(c.in)
		if c.valid && err != nil {
			t.Errorf("ParseModelRef(%q) = %v", c.in, err)
		}
		if !c.valid && err == nil {
			t.Errorf("ParseModelRef(%q) succeeded, want error", c.in)
		}
	}
}

func TestFromSettings(t *testing.T) {
	p, err := FromSettings(Settings{ID: "x", API: APIOpenAI})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := p.(*OpenAIProvider); !ok {
		t.Errorf("got %T, want *OpenAIProvider", p)
	}

	p, err = FromSettings(Settings{ID: "y", API: APIAnthropic})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := p.(*AnthropicProvider); !ok {
		t.Errorf("got %T, want *AnthropicProvider", p)
	}

	if _, err := FromSettings(Settings{ID: "z", API: "grpc"}); err == nil {
		t.Fatal("expected unknown api error")
	}
}
