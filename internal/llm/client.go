// Package llm provides a unified interface for LLM providers using CloudWeGo Eino.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/claude"
	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino-ext/components/model/ollama"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"google.golang.org/genai"
)

// ErrMissingCredentials is returned when a provider needs an API key and
// none was configured. Callers check it with errors.Is to prompt for a key.
var ErrMissingCredentials = errors.New("no API key available, set one with `azubihub config init` or AZUBIHUB_LLM_APIKEY")

// Provider identifies the LLM provider to use.
type Provider string

// Config holds configuration for creating an LLM client.
type Config struct {
	Provider  Provider
	Model     string
	APIKey    string // Required for every provider except Ollama
	BaseURL   string // Ollama server or an OpenAI-compatible endpoint
	MaxTokens int    // Anthropic requires an explicit limit
}

// RequiresKey reports whether the provider needs an API key.
func (c Config) RequiresKey() bool {
	return c.Provider != ProviderOllama
}

// ConfigSource returns the model configuration to use for the next call.
type ConfigSource func() Config

// Static returns a ConfigSource that always yields cfg.
func Static(cfg Config) ConfigSource {
	return func() Config { return cfg }
}

// ChatModelFactory builds a chat model from a config. Services hold one so
// tests can substitute a fake model.
type ChatModelFactory func(ctx context.Context, cfg Config) (model.BaseChatModel, error)

// NewChatModel creates a ChatModel instance based on the provider configuration.
// It returns an Eino BaseChatModel that can be used for Generate() or Stream() calls.
func NewChatModel(ctx context.Context, cfg Config) (model.BaseChatModel, error) {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	if cfg.RequiresKey() && cfg.APIKey == "" {
		return nil, fmt.Errorf("%s: %w", cfg.Provider, ErrMissingCredentials)
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModelForProvider(string(cfg.Provider))
	}

	switch cfg.Provider {
	case ProviderGemini:
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  cfg.APIKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return nil, fmt.Errorf("create gemini client: %w", err)
		}
		return gemini.NewChatModel(ctx, &gemini.Config{
			Client: client,
			Model:  cfg.Model,
		})

	case ProviderOpenAI:
		return openai.NewChatModel(ctx, &openai.ChatModelConfig{
			Model:   cfg.Model,
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
		})

	case ProviderAnthropic:
		maxTokens := cfg.MaxTokens
		if maxTokens <= 0 {
			maxTokens = DefaultMaxTokens
		}
		return claude.NewChatModel(ctx, &claude.Config{
			APIKey:    cfg.APIKey,
			Model:     cfg.Model,
			MaxTokens: maxTokens,
		})

	case ProviderOllama:
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = DefaultOllamaURL
		}
		return ollama.NewChatModel(ctx, &ollama.ChatModelConfig{
			BaseURL: baseURL,
			Model:   cfg.Model,
		})

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s (supported: gemini, openai, anthropic, ollama)", cfg.Provider)
	}
}

// ValidateProvider checks if the given provider string is supported.
func ValidateProvider(p string) (Provider, error) {
	switch Provider(p) {
	case ProviderGemini, ProviderOpenAI, ProviderAnthropic, ProviderOllama:
		return Provider(p), nil
	default:
		return "", fmt.Errorf("unsupported provider: %s", p)
	}
}
