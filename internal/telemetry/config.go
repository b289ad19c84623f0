// Package telemetry sends anonymous, opt-in usage events to PostHog.
// Nothing is sent until the user agreed during setup; events never carry
// task texts, file names or report content.
package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// ConfigFileName is the consent file inside the data directory.
const ConfigFileName = "telemetry.json"

// Config is the stored consent.
type Config struct {
	Enabled      bool   `json:"enabled"`
	ConsentAsked bool   `json:"consent_asked"`
	AnonymousID  string `json:"anonymous_id"` // Random, never tied to the user's identity
}

// ConfigPath returns the consent file path under dataDir.
func ConfigPath(dataDir string) string {
	return filepath.Join(dataDir, ConfigFileName)
}

// Load reads the consent from dataDir. A missing file yields a disabled
// config with a fresh anonymous id.
func Load(dataDir string) (*Config, error) {
	cfg := &Config{}
	data, err := os.ReadFile(ConfigPath(dataDir))
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, fmt.Errorf("read telemetry config: %w", err)
	default:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse telemetry config: %w", err)
		}
	}
	if cfg.AnonymousID == "" {
		cfg.AnonymousID = uuid.NewString()
	}
	return cfg, nil
}

// Save writes the consent with owner-only permissions.
func (c *Config) Save(dataDir string) error {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal telemetry config: %w", err)
	}
	if err := os.WriteFile(ConfigPath(dataDir), data, 0o600); err != nil {
		return fmt.Errorf("write telemetry config: %w", err)
	}
	return nil
}

// Enable records consent.
func (c *Config) Enable() {
	c.Enabled = true
	c.ConsentAsked = true
}

// Disable records refusal.
func (c *Config) Disable() {
	c.Enabled = false
	c.ConsentAsked = true
}

// NeedsConsent is true until the user answered once.
func (c *Config) NeedsConsent() bool { return !c.ConsentAsked }

func (c *Config) IsEnabled() bool { return c != nil && c.Enabled }
