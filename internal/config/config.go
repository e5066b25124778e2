// Package config loads runtime settings from defaults, an optional config
// file, MISSY_* environment variables and command-line flags, and checks
// the result against an embedded CUE schema.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, so db.path is
// read from MISSY_DB_PATH.
const EnvPrefix = "MISSY"

// Config is the decoded configuration.
type Config struct {
	Token    string
	Prefix   string
	OwnerIDs []string

	DBPath string

	PromptTimeout time.Duration

	GatewayURL     string
	ReconnectDelay time.Duration

	APIBaseURL string
	APITimeout time.Duration

	LogLevel  string
	LogFormat string
}

// ErrMissingToken is returned by RequireToken when no bot token is set.
var ErrMissingToken = errors.New("bot token is required (set MISSY_TOKEN or token in the config file)")

// SetDefaults registers every key's default value on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("token", "")
	v.SetDefault("prefix", "!")
	v.SetDefault("owner_ids", []string{})

	v.SetDefault("db.path", "data.db")

	v.SetDefault("prompt.timeout", 60*time.Second)

	v.SetDefault("gateway.url", "wss://gateway.discord.gg/?v=10&encoding=json")
	v.SetDefault("gateway.reconnect_delay", 5*time.Second)

	v.SetDefault("api.base_url", "https://discord.com/api/v10")
	v.SetDefault("api.timeout", 10*time.Second)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// New returns a viper instance with defaults and environment binding.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
	return v
}

// ReadFile merges a YAML/JSON/TOML config file into v. An empty path is a no-op.
func ReadFile(v *viper.Viper, path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	return nil
}

// Load decodes and validates the configuration held by v.
func Load(v *viper.Viper) (Config, error) {
	cfg := Config{
		Token:          strings.TrimSpace(v.GetString("token")),
		Prefix:         v.GetString("prefix"),
		OwnerIDs:       ownerIDs(v),
		DBPath:         v.GetString("db.path"),
		PromptTimeout:  v.GetDuration("prompt.timeout"),
		GatewayURL:     v.GetString("gateway.url"),
		ReconnectDelay: v.GetDuration("gateway.reconnect_delay"),
		APIBaseURL:     v.GetString("api.base_url"),
		APITimeout:     v.GetDuration("api.timeout"),
		LogLevel:       strings.ToLower(v.GetString("log.level")),
		LogFormat:      strings.ToLower(v.GetString("log.format")),
	}

	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// RequireToken reports ErrMissingToken when the config cannot connect.
func (c Config) RequireToken() error {
	if c.Token == "" {
		return ErrMissingToken
	}
	return nil
}

// ownerIDs accepts either a list or a comma separated string, which is
// what MISSY_OWNER_IDS produces.
func ownerIDs(v *viper.Viper) []string {
	var out []string
	for _, raw := range v.GetStringSlice("owner_ids") {
		for _, id := range strings.Split(raw, ",") {
			if id = strings.TrimSpace(id); id != "" {
				out = append(out, id)
			}
		}
	}
	return out
}
