package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/josephgoksu/azubihub/internal/llm"
	"github.com/spf13/viper"
)

// LoadLLMConfig loads LLM configuration from Viper and Environment variables.
// It handles precedence: Explicit Viper Config > Environment Variables > Defaults.
// It does NOT handle interactive prompts (that belongs in the CLI layer).
func LoadLLMConfig() (llm.Config, error) {
	provider := viper.GetString("llm.provider")
	if provider == "" {
		provider = llm.DefaultProvider
	}

	llmProvider, err := llm.ValidateProvider(provider)
	if err != nil {
		return llm.Config{}, fmt.Errorf("invalid provider: %w", err)
	}

	model := viper.GetString("llm.model")
	if model == "" {
		model = llm.DefaultModelForProvider(string(llmProvider))
	}

	// A missing key is not an error here; the model factory reports it
	// when a call is actually made.
	apiKey := ResolveAPIKey(llmProvider)

	baseURL := viper.GetString("llm.baseURL")
	if baseURL == "" && llmProvider == llm.ProviderOllama {
		baseURL = llm.DefaultOllamaURL
	}

	maxTokens := viper.GetInt("llm.maxTokens")
	if maxTokens <= 0 {
		maxTokens = llm.DefaultMaxTokens
	}

	return llm.Config{
		Provider:  llmProvider,
		Model:     model,
		APIKey:    apiKey,
		BaseURL:   baseURL,
		MaxTokens: maxTokens,
	}, nil
}

// ResolveAPIKey returns the best API key for the given provider using
// per-provider config keys, the generic llm.apiKey, then provider-specific
// env vars.
func ResolveAPIKey(provider llm.Provider) string {
	keyFromViper := func(path string) string {
		if viper.IsSet(path) {
			return strings.TrimSpace(viper.GetString(path))
		}
		return ""
	}

	if key := keyFromViper(fmt.Sprintf("llm.apiKeys.%s", provider)); key != "" {
		return key
	}
	if key := keyFromViper("llm.apiKey"); key != "" {
		return key
	}
	return providerEnvKey(provider)
}

func providerEnvKey(provider llm.Provider) string {
	switch provider {
	case llm.ProviderOpenAI:
		return strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	case llm.ProviderAnthropic:
		return strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY"))
	case llm.ProviderGemini:
		key := strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))
		if key == "" {
			key = strings.TrimSpace(os.Getenv("GOOGLE_API_KEY"))
		}
		return key
	default:
		return ""
	}
}

// LLMSource is an llm.ConfigSource that follows the config file: a changed
// provider, model or API key applies to the next model call.
type LLMSource struct {
	current atomic.Pointer[llm.Config]
	logger  *slog.Logger
}

// WatchLLMConfig loads the LLM configuration and reloads it whenever the
// config file changes.
func WatchLLMConfig(logger *slog.Logger) (*LLMSource, error) {
	cfg, err := LoadLLMConfig()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &LLMSource{logger: logger}
	s.current.Store(&cfg)

	if viper.ConfigFileUsed() != "" {
		viper.OnConfigChange(s.reload)
		viper.WatchConfig()
	}
	return s, nil
}

func (s *LLMSource) reload(e fsnotify.Event) {
	if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
		return
	}
	cfg, err := LoadLLMConfig()
	if err != nil {
		s.logger.Warn("ignoring invalid llm config", "file", e.Name, "error", err)
		return
	}
	s.current.Store(&cfg)
	s.logger.Info("llm config reloaded", "provider", cfg.Provider, "model", cfg.Model, "has_key", cfg.APIKey != "")
}

// Config returns the current configuration. Its method value is an
// llm.ConfigSource.
func (s *LLMSource) Config() llm.Config { return *s.current.Load() }

// Set replaces the configuration, e.g. after `setup` stored a new key.
func (s *LLMSource) Set(cfg llm.Config) { s.current.Store(&cfg) }
