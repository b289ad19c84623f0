package llm

import (
	"sort"
	"strings"
)

// Model describes a selectable chat model.
type Model struct {
	ID         string   // Canonical model ID (e.g., "gemini-2.5-flash")
	Provider   string   // Provider display name (e.g., "Google")
	ProviderID string   // Internal provider ID (e.g., "gemini")
	Aliases    []string // Alternative IDs
	IsDefault  bool     // Whether this is the default model for its provider
}

// ModelRegistry lists the models offered during setup.
var ModelRegistry = []Model{
	{ID: "gemini-2.5-flash", Provider: "Google", ProviderID: ProviderGemini, IsDefault: true},
	{ID: "gemini-2.5-pro", Provider: "Google", ProviderID: ProviderGemini},
	{ID: "gemini-2.5-flash-lite", Provider: "Google", ProviderID: ProviderGemini},

	{ID: "gpt-5-mini", Provider: "OpenAI", ProviderID: ProviderOpenAI, Aliases: []string{"gpt-5-mini-2025-08-07"}, IsDefault: true},
	{ID: "gpt-4.1-mini", Provider: "OpenAI", ProviderID: ProviderOpenAI, Aliases: []string{"gpt-4.1-mini-2025-04-14"}},

	{ID: "claude-sonnet-4-5", Provider: "Anthropic", ProviderID: ProviderAnthropic, Aliases: []string{"claude-sonnet-4-5-20250929"}, IsDefault: true},
	{ID: "claude-haiku-4-5", Provider: "Anthropic", ProviderID: ProviderAnthropic, Aliases: []string{"claude-haiku-4-5-20251001"}},

	{ID: "llama3.2", Provider: "Ollama", ProviderID: ProviderOllama, IsDefault: true},
	{ID: "mistral", Provider: "Ollama", ProviderID: ProviderOllama},
}

// modelIndex is built at init time for fast lookups
var modelIndex map[string]*Model

func init() {
	modelIndex = make(map[string]*Model)
	for i := range ModelRegistry {
		m := &ModelRegistry[i]
		modelIndex[m.ID] = m
		for _, alias := range m.Aliases {
			modelIndex[alias] = m
		}
	}
}

// GetModel returns the model definition for a given model ID or alias.
// Returns nil if the model is not found.
func GetModel(modelID string) *Model {
	return modelIndex[modelID]
}

// GetDefaultModelID returns the default model ID for a provider.
func GetDefaultModelID(providerID string) string {
	for i := range ModelRegistry {
		if m := &ModelRegistry[i]; m.ProviderID == providerID && m.IsDefault {
			return m.ID
		}
	}
	return ""
}

// InferProvider attempts to determine the provider from a model name.
func InferProvider(modelID string) (string, bool) {
	if m := GetModel(modelID); m != nil {
		return m.ProviderID, true
	}

	switch {
	case strings.HasPrefix(modelID, "gemini-"):
		return ProviderGemini, true
	case strings.HasPrefix(modelID, "gpt-"), strings.HasPrefix(modelID, "o3-"), strings.HasPrefix(modelID, "o4-"):
		return ProviderOpenAI, true
	case strings.HasPrefix(modelID, "claude-"):
		return ProviderAnthropic, true
	case strings.HasPrefix(modelID, "llama"), strings.HasPrefix(modelID, "mistral"), strings.HasPrefix(modelID, "qwen"):
		return ProviderOllama, true
	}
	return "", false
}

// GetModelsForProvider returns available model IDs for a provider, default first.
func GetModelsForProvider(providerID string) []Model {
	var out []Model
	for _, m := range ModelRegistry {
		if m.ProviderID == providerID {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].IsDefault != out[j].IsDefault {
			return out[i].IsDefault
		}
		return out[i].ID < out[j].ID
	})
	return out
}
