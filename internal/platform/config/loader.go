package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const defaultConfigPath = "config.yaml"

// Loader reads configuration from an optional YAML file layered on top of the
// built-in defaults, with environment variables supplying secrets.
type Loader struct {
	path      string
	useDotEnv bool
}

// NewLoader creates a loader that reads the default config path.
func NewLoader() *Loader {
	return &Loader{
		path:      defaultConfigPath,
		useDotEnv: true,
	}
}

// WithPath overrides the YAML file location.
func (l *Loader) WithPath(path string) *Loader {
	if path != "" {
		l.path = path
	}
	return l
}

// WithDotEnv toggles loading variables from a .env file before reading config.
func (l *Loader) WithDotEnv(enabled bool) *Loader {
	l.useDotEnv = enabled
	return l
}

// Result captures the loaded configuration and its origin.
type Result struct {
	Config *Config
	Path   string
}

// Load builds the effective configuration. A missing YAML file is not an
// error; the defaults are used as-is.
func (l *Loader) Load() (*Result, error) {
	if l.useDotEnv {
		// A missing .env is fine, the process environment still applies.
		_ = godotenv.Load()
	}

	cfg := DefaultConfig()
	origin := "defaults"

	if data, err := os.ReadFile(l.path); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", l.path, err)
		}
		origin = l.path
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read %s: %w", l.path, err)
	}

	applyEnvOverrides(cfg)

	return &Result{
		Config: cfg,
		Path:   origin,
	}, nil
}

func applyEnvOverrides(cfg *Config) {
	if key := os.Getenv("VOICE_STT_API_KEY"); key != "" {
		cfg.STT.APIKey = key
	} else if key := os.Getenv("OPENAI_API_KEY"); cfg.STT.APIKey == "" && key != "" {
		cfg.STT.APIKey = key
	}
	if url := os.Getenv("VOICE_STT_URL"); url != "" {
		cfg.STT.BaseURL = url
	}
	if level := os.Getenv("VOICE_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
}
