package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateProvider(t *testing.T) {
	tests := []struct {
		name     string
		provider string
		want     Provider
		wantErr  bool
	}{
		{name: "valid gemini", provider: "gemini", want: ProviderGemini},
		{name: "valid openai", provider: "openai", want: ProviderOpenAI},
		{name: "valid anthropic", provider: "anthropic", want: ProviderAnthropic},
		{name: "valid ollama", provider: "ollama", want: ProviderOllama},
		{name: "invalid provider", provider: "invalid", wantErr: true},
		{name: "empty provider", provider: "", wantErr: true},
		{name: "case sensitive - GEMINI fails", provider: "GEMINI", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateProvider(tt.provider)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateProvider(%q) error = %v, wantErr %v", tt.provider, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ValidateProvider(%q) = %q, want %q", tt.provider, got, tt.want)
			}
		})
	}
}

func TestNewChatModel_MissingCredentials(t *testing.T) {
	for _, p := range []Provider{ProviderGemini, ProviderOpenAI, ProviderAnthropic} {
		t.Run(string(p), func(t *testing.T) {
			_, err := NewChatModel(context.Background(), Config{Provider: p, APIKey: "   "})
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMissingCredentials), "got %v", err)
		})
	}
}

func TestNewChatModel_UnsupportedProvider(t *testing.T) {
	_, err := NewChatModel(context.Background(), Config{Provider: "mystery", APIKey: "k"})
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrMissingCredentials))
}

func TestDefaultModels(t *testing.T) {
	assert.Equal(t, "gemini-2.5-flash", DefaultModelForProvider(ProviderGemini))
	assert.Equal(t, "llama3.2", DefaultModelForProvider(ProviderOllama))
	assert.Empty(t, DefaultModelForProvider("unknown"))

	models := GetModelsForProvider(ProviderGemini)
	require.NotEmpty(t, models)
	assert.True(t, models[0].IsDefault)

	p, ok := InferProvider("claude-sonnet-4-5-20250929")
	assert.True(t, ok)
	assert.Equal(t, ProviderAnthropic, p)

	p, ok = InferProvider("gemini-3-preview")
	assert.True(t, ok)
	assert.Equal(t, ProviderGemini, p)
}
