package provider

import "fmt"

const (
	APIOpenAI    = "openai-completions"
	APIAnthropic = "anthropic-messages"
)

// Settings mirrors config.ProviderConfig to avoid a circular import.
type Settings struct {
	ID      string
	BaseURL string
	APIKey  string
	API     string
	Models  []ModelInfo
}

// FromSettings creates a Provider from a config entry. The api field
// determines which wire format to use:
//   - "openai-completions"  -> OpenAI-compatible (OpenAI, Ollama, vLLM, etc.)
//   - "anthropic-messages"  -> Anthropic Messages API
func FromSettings(s Settings) (Provider, error) {
	switch s.API {
	case APIOpenAI, "":
		return NewOpenAIProvider(s.ID, s.BaseURL, s.APIKey, s.Models), nil
	case APIAnthropic:
		return NewAnthropicProvider(s.ID, s.BaseURL, s.APIKey, s.Models), nil
	default:
		return nil, fmt.Errorf("unknown api type %q for provider %q (supported: %s, %s)",
			s.API, s.ID, APIOpenAI, APIAnthropic)
	}
}
