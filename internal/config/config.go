package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable, e.g. STUDYCHAT_API_KEY
const EnvPrefix = "STUDYCHAT"

// Configuration keys. Flags use the same names.
const (
	KeyAPIKey    = "api-key"
	KeyBaseURL   = "base-url"
	KeyTimeout   = "timeout"
	KeyLogDir    = "log-dir"
	KeyFailureDB = "failure-db"
	KeyDebug     = "debug"
	KeyEnvFile   = "env-file"
)

// ErrMissingAPIKey is returned by Validate when no credential was supplied
var ErrMissingAPIKey = errors.New("STUDYCHAT_API_KEY is not set")

// Config holds application configuration
type Config struct {
	APIKey    string        // only ever read from the environment or .env
	BaseURL   string        // completion API base URL
	Timeout   time.Duration // HTTP transport timeout
	LogDir    string
	FailureDB string // sqlite failure journal path, empty disables it
	Debug     bool
}

// SetDefaults registers default values on v
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyBaseURL, "https://api.together.xyz/v1")
	v.SetDefault(KeyTimeout, 60*time.Second)
	v.SetDefault(KeyLogDir, "logs")
	v.SetDefault(KeyFailureDB, "")
	v.SetDefault(KeyDebug, false)
	v.SetDefault(KeyEnvFile, ".env")
}

// Load reads configuration from v. When the env file exists it is loaded
// first; variables already present in the environment win over it.
func Load(v *viper.Viper) (Config, error) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if envFile := v.GetString(KeyEnvFile); envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				return Config{}, fmt.Errorf("failed to load %s: %w", envFile, err)
			}
		}
	}

	cfg := Config{
		APIKey:    strings.TrimSpace(v.GetString(KeyAPIKey)),
		BaseURL:   v.GetString(KeyBaseURL),
		Timeout:   v.GetDuration(KeyTimeout),
		LogDir:    v.GetString(KeyLogDir),
		FailureDB: v.GetString(KeyFailureDB),
		Debug:     v.GetBool(KeyDebug),
	}
	return cfg, nil
}

// Validate checks that the configuration is usable
func (c Config) Validate() error {
	if c.APIKey == "" {
		return ErrMissingAPIKey
	}
	if c.BaseURL == "" {
		return fmt.Errorf("base URL must not be empty")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	return nil
}

// LogValue keeps the credential out of logs.
func (c Config) LogValue() slog.Value {
	key := "unset"
	if c.APIKey != "" {
		key = "set"
	}
	return slog.GroupValue(
		slog.String("api_key", key),
		slog.String("base_url", c.BaseURL),
		slog.Duration("timeout", c.Timeout),
		slog.String("log_dir", c.LogDir),
		slog.String("failure_db", c.FailureDB),
		slog.Bool("debug", c.Debug),
	)
}
