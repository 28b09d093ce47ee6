package analysis

import (
	"fmt"
	"strings"
)

// ProviderOpenAI and ProviderLMStudio are the two supported backends.
// LM Studio exposes the same chat-completions API, so both go through
// the same client; only validation and defaults differ.
const (
	ProviderOpenAI   = "openai"
	ProviderLMStudio = "lm_studio"
)

// ProviderConfig is everything needed to talk to one LLM backend.
type ProviderConfig struct {
	Name    string
	Model   string
	APIKey  string
	BaseURL string
}

// ProviderInfo is the JSON shape returned by the provider endpoints.
// The API key itself never leaves the process.
type ProviderInfo struct {
	Provider         string `json:"provider"`
	Model            string `json:"model"`
	BaseURL          string `json:"base_url,omitempty"`
	APIKeyConfigured bool   `json:"api_key_configured"`
}

// SupportedProviders lists the recognized provider names.
func SupportedProviders() []string {
	return []string{ProviderOpenAI, ProviderLMStudio}
}

// Validate checks the configuration for the named provider.
func (p ProviderConfig) Validate() error {
	switch p.Name {
	case ProviderOpenAI:
		if !strings.HasPrefix(p.APIKey, "sk-") {
			return fmt.Errorf("openai: api key missing or malformed")
		}
		if p.Model == "" {
			return fmt.Errorf("openai: model not specified")
		}
	case ProviderLMStudio:
		if p.Model == "" {
			return fmt.Errorf("lm_studio: model not specified")
		}
		if p.BaseURL == "" {
			return fmt.Errorf("lm_studio: base url required")
		}
		if !strings.HasPrefix(p.BaseURL, "http://") && !strings.HasPrefix(p.BaseURL, "https://") {
			return fmt.Errorf("lm_studio: base url must start with http:// or https://")
		}
	default:
		return fmt.Errorf("unknown provider %q", p.Name)
	}
	return nil
}

// Endpoint resolves the chat-completions URL for this provider.
func (p ProviderConfig) Endpoint() string {
	base := p.BaseURL
	if base == "" {
		base = "https://api.openai.com/v1"
	}
	return strings.TrimRight(base, "/") + "/chat/completions"
}

// Info returns the provider description exposed over the API.
func (p ProviderConfig) Info() ProviderInfo {
	return ProviderInfo{
		Provider:         p.Name,
		Model:            p.Model,
		BaseURL:          p.BaseURL,
		APIKeyConfigured: p.APIKey != "",
	}
}
