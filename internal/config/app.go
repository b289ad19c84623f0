package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/josephgoksu/azubihub/internal/storage"
	"github.com/josephgoksu/azubihub/internal/validation"
	"github.com/spf13/viper"
)

const (
	configName = ".azubihub"
	envPrefix  = "AZUBIHUB"
)

// AppConfig is the resolved application configuration.
type AppConfig struct {
	Lang      string          `mapstructure:"lang" json:"lang" validate:"omitempty,oneof=de en"`
	User      UserConfig      `mapstructure:"user" json:"user"`
	Storage   storage.Config  `mapstructure:"storage" json:"storage"`
	Server    ServerConfig    `mapstructure:"server" json:"server"`
	Log       LogConfig       `mapstructure:"log" json:"log"`
	Telemetry TelemetryConfig `mapstructure:"telemetry" json:"telemetry"`
}

// UserConfig is the identity used by the CLI and by the server in local mode.
type UserConfig struct {
	Email string `mapstructure:"email" json:"email" validate:"omitempty,email"`
	Name  string `mapstructure:"name" json:"name"`
}

// ServerConfig configures `azubihub serve`.
type ServerConfig struct {
	Addr        string   `mapstructure:"addr" json:"addr" validate:"required"`
	JWTSecret   string   `mapstructure:"jwtSecret" json:"jwtSecret" validate:"omitempty,min=16"`
	CORSOrigins []string `mapstructure:"corsOrigins" json:"corsOrigins"`
}

// LogConfig selects level and output format.
type LogConfig struct {
	Level  string `mapstructure:"level" json:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" json:"format" validate:"omitempty,oneof=text json"`
}

// TelemetryConfig holds the product analytics project key. Collection still
// requires the user's consent.
type TelemetryConfig struct {
	APIKey   string `mapstructure:"apiKey" json:"apiKey"`
	Endpoint string `mapstructure:"endpoint" json:"endpoint" validate:"omitempty,url"`
}

// LocalMode reports whether the server trusts the configured user instead
// of bearer tokens.
func (c *AppConfig) LocalMode() bool { return c.Server.JWTSecret == "" }

// InitConfig prepares viper: .env, environment variables and the config
// file (explicit path, then ./.azubihub.yaml, then ~/.azubihub.yaml). A
// missing file is not an error.
func InitConfig(cfgFile string) error {
	// .env is optional.
	_ = godotenv.Load()

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	setDefaults()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName(configName)
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(home)
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) && cfgFile == "" {
			return nil
		}
		return fmt.Errorf("read config %s: %w", viper.ConfigFileUsed(), err)
	}
	return nil
}

func setDefaults() {
	viper.SetDefault("lang", "de")
	viper.SetDefault("server.addr", ":8080")
	viper.SetDefault("server.corsOrigins", []string{"http://localhost:5173", "http://localhost:3000"})
	viper.SetDefault("log.level", "info")
	viper.SetDefault("llm.provider", "gemini")

	// AutomaticEnv only covers keys viper already knows about.
	for _, key := range []string{
		"user.email", "user.name", "server.jwtSecret", "log.format",
		"storage.databaseUrl", "storage.debug",
		"storage.s3.endpoint", "storage.s3.region", "storage.s3.bucket",
		"storage.s3.accessKeyId", "storage.s3.secretAccessKey", "storage.s3.usePathStyle",
		"telemetry.apiKey", "telemetry.endpoint",
		"llm.model", "llm.apiKey", "llm.baseURL",
	} {
		_ = viper.BindEnv(key)
	}
}

// Load unmarshals and validates the configuration. InitConfig must have
// run first.
func Load() (*AppConfig, error) {
	var cfg AppConfig
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.Storage.DataDir = GetDataDir()
	cfg.User.Email = strings.TrimSpace(cfg.User.Email)

	if err := validation.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Identity is the configured user, or the anonymous local user.
func (c *AppConfig) Identity() storage.Identity {
	email := c.User.Email
	if email == "" {
		email = "azubi@localhost"
	}
	return storage.Identity{Email: email, Name: c.User.Name}.Normalize()
}
