// Package config loads the chatbot configuration from a TOML file.
package config

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the complete chatbot configuration.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Provider ProviderConfig `toml:"provider"`
	Chat     ChatConfig     `toml:"chat"`
	Log      LogConfig      `toml:"log"`
}

// ServerConfig configures the web chat interface.
type ServerConfig struct {
	// Address to listen on (e.g., ":8080")
	Listen string `toml:"listen"`

	// SessionTTL is how long an untouched browser session is kept.
	SessionTTL Duration `toml:"session_ttl"`
}

// ProviderConfig configures the completion provider.
// The credential itself is never read from the file.
type ProviderConfig struct {
	// BaseURL of the OpenAI-compatible endpoint.
	BaseURL string `toml:"base_url"`

	// APIKeyEnv names the environment variable holding the API key.
	APIKeyEnv string `toml:"api_key_env"`
}

// ChatConfig configures conversation handling.
type ChatConfig struct {
	// PersistSystemInstruction stores the system instruction as the first
	// message of a conversation instead of only sending it on the first call.
	PersistSystemInstruction bool `toml:"persist_system_instruction"`
}

// LogConfig configures logging.
type LogConfig struct {
	Debug  bool   `toml:"debug"`
	Format string `toml:"format"` // "console" or "json"
}

// Duration is a time.Duration that decodes from strings like "24h".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	d.Duration = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Listen:     ":8080",
			SessionTTL: Duration{24 * time.Hour},
		},
		Provider: ProviderConfig{
			BaseURL:   "https://api.groq.com/openai/v1/",
			APIKeyEnv: "GROQ_API_KEY",
		},
		Log: LogConfig{
			Format: "console",
		},
	}
}

// Load reads the TOML file at path over the defaults. An empty path returns
// the defaults. Unknown keys are rejected.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("could not decode config %s: %w", path, err)
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		return Config{}, fmt.Errorf("unknown config keys in %s: %s", path, strings.Join(keys, ", "))
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate reports configuration values that cannot work.
func (c Config) Validate() error {
	if c.Server.Listen == "" {
		return fmt.Errorf("server.listen must not be empty")
	}
	if c.Server.SessionTTL.Duration < 0 {
		return fmt.Errorf("server.session_ttl must not be negative")
	}
	if c.Provider.APIKeyEnv == "" {
		return fmt.Errorf("provider.api_key_env must not be empty")
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("log.format must be \"console\" or \"json\", got %q", c.Log.Format)
	}
	return nil
}

// APIKey returns the provider credential from the environment.
func (c Config) APIKey() (string, error) {
	key := strings.TrimSpace(os.Getenv(c.Provider.APIKeyEnv))
	if key == "" {
		return "", fmt.Errorf("API key not found in environment variable: %s", c.Provider.APIKeyEnv)
	}
	return key, nil
}
