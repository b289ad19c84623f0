package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/josephgoksu/azubihub/internal/llm"
	"gopkg.in/yaml.v3"
)

// ErrConfigExists is returned by WriteDefaultConfig when the file is present
// and overwriting was not requested.
var ErrConfigExists = errors.New("config file already exists")

// DefaultConfigPath is ~/.azubihub.yaml.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, configName+".yaml"), nil
}

// defaultDocument is what `config init` writes.
func defaultDocument(provider string) map[string]any {
	return map[string]any{
		"version": "1",
		"lang":    "de",
		"user": map[string]any{
			"email": "",
			"name":  "",
		},
		"llm": map[string]any{
			"provider": provider,
			"model":    llm.DefaultModelForProvider(provider),
		},
		"server": map[string]any{
			"addr":        ":8080",
			"jwtSecret":   "",
			"corsOrigins": []string{"http://localhost:5173"},
		},
		"storage": map[string]any{
			"databaseUrl": "",
			"s3": map[string]any{
				"endpoint": "",
				"region":   "eu-central-1",
				"bucket":   "azubihub-files",
			},
		},
		"log": map[string]any{
			"level": "info",
		},
	}
}

// WriteDefaultConfig writes a starter config to path.
func WriteDefaultConfig(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s: %w", path, ErrConfigExists)
	}
	return writeDocument(path, defaultDocument(llm.DefaultProvider))
}

// SaveLLMConfig stores provider, model and key in the config file at path,
// keeping every other setting. An empty key leaves stored keys untouched.
func SaveLLMConfig(path, provider, model, key string) error {
	if provider == "" {
		return fmt.Errorf("provider cannot be empty")
	}
	if _, err := llm.ValidateProvider(provider); err != nil {
		return err
	}
	if model == "" {
		model = llm.DefaultModelForProvider(provider)
	}

	doc, err := readDocument(path)
	if err != nil {
		return err
	}
	section := child(doc, "llm")
	section["provider"] = provider
	section["model"] = model
	if key != "" {
		child(section, "apiKeys")[provider] = key
	}
	return writeDocument(path, doc)
}

// SaveUser stores the CLI identity.
func SaveUser(path, email, name string) error {
	doc, err := readDocument(path)
	if err != nil {
		return err
	}
	user := child(doc, "user")
	user["email"] = email
	if name != "" {
		user["name"] = name
	}
	return writeDocument(path, doc)
}

func readDocument(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]any{"version": "1"}, nil
	}
	if err != nil {
		return nil, err
	}
	doc := map[string]any{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return doc, nil
}

func writeDocument(path string, doc map[string]any) error {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	// API keys live in this file.
	return os.WriteFile(path, data, 0o600)
}

func child(m map[string]any, key string) map[string]any {
	if c, ok := m[key].(map[string]any); ok {
		return c
	}
	c := map[string]any{}
	m[key] = c
	return c
}
