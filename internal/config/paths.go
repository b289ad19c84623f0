package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// GetGlobalConfigDir returns the path to the global directory (~/.azubihub).
// It's a variable to allow overriding in tests.
var GetGlobalConfigDir = func() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".azubihub"), nil
}

// GetDataDir returns the directory holding the local database, crash logs,
// telemetry consent and extra policies.
// Resolution order (first match wins):
// 1. Explicit config via "dataDir" (Viper/env/flag)
// 2. Local directory: ./.azubihub (if exists)
// 3. XDG_DATA_HOME/azubihub (if XDG_DATA_HOME is set)
// 4. Global fallback: ~/.azubihub
func GetDataDir() string {
	if path := viper.GetString("dataDir"); path != "" {
		return path
	}

	local := ".azubihub"
	if info, err := os.Stat(local); err == nil && info.IsDir() {
		return local
	}

	if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
		return filepath.Join(xdgData, "azubihub")
	}

	dir, err := GetGlobalConfigDir()
	if err != nil {
		return "./.azubihub"
	}
	return dir
}
