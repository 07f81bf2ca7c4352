package config

import (
	"time"
)

type Config struct {
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
	Audio     AudioConfig     `yaml:"audio" mapstructure:"audio"`
	Capture   CaptureConfig   `yaml:"capture" mapstructure:"capture"`
	Filter    FilterConfig    `yaml:"filter" mapstructure:"filter"`
	Session   SessionConfig   `yaml:"session" mapstructure:"session"`
	Interrupt InterruptConfig `yaml:"interrupt" mapstructure:"interrupt"`
	STT       STTConfig       `yaml:"stt" mapstructure:"stt"`
	Transport TransportConfig `yaml:"transport" mapstructure:"transport"`
}

type LogConfig struct {
	Level string `yaml:"log_level" mapstructure:"log_level"`
	Dir   string `yaml:"log_dir" mapstructure:"log_dir"`
	File  string `yaml:"log_file" mapstructure:"log_file"`
}

// AudioConfig describes the raw frame format delivered by the device.
type AudioConfig struct {
	SampleRate int `yaml:"sample_rate" mapstructure:"sample_rate"`
	Channels   int `yaml:"channels" mapstructure:"channels"`
}

// CaptureConfig carries the default listen parameters; callers may override
// them per listen call.
type CaptureConfig struct {
	PhraseTimeout    time.Duration `yaml:"phrase_timeout" mapstructure:"phrase_timeout"`
	SilenceThreshold time.Duration `yaml:"silence_threshold" mapstructure:"silence_threshold"`
	MaxTotalTime     time.Duration `yaml:"max_total_time" mapstructure:"max_total_time"`
}

// FilterConfig configures self-speech suppression. The phrase catalog is
// versioned data; CatalogPath points at an external YAML catalog and may be
// empty to use the built-in one.
type FilterConfig struct {
	CatalogPath   string `yaml:"catalog_path" mapstructure:"catalog_path"`
	MaxHumanWords int    `yaml:"max_human_words" mapstructure:"max_human_words"`
}

type SessionConfig struct {
	Timeout    time.Duration       `yaml:"timeout" mapstructure:"timeout"`
	Triggers   map[string][]string `yaml:"triggers" mapstructure:"triggers"`
	EndPhrases []string            `yaml:"end_phrases" mapstructure:"end_phrases"`
}

// InterruptConfig drives the cancellation-phrase monitor that runs while the
// assistant is speaking.
type InterruptConfig struct {
	Phrases          []string      `yaml:"phrases" mapstructure:"phrases"`
	SilenceThreshold time.Duration `yaml:"silence_threshold" mapstructure:"silence_threshold"`
	MaxListenTime    time.Duration `yaml:"max_listen_time" mapstructure:"max_listen_time"`
}

type STTConfig struct {
	Type         string   `yaml:"type" mapstructure:"type"`
	APIKey       string   `yaml:"api_key" mapstructure:"api_key"`
	BaseURL      string   `yaml:"url" mapstructure:"url"`
	Model        string   `yaml:"model" mapstructure:"model"`
	DialectHints []string `yaml:"dialect_hints" mapstructure:"dialect_hints"`
	Retries      int      `yaml:"retries" mapstructure:"retries"`
}

type TransportConfig struct {
	WebSocket WebSocketConfig `yaml:"websocket" mapstructure:"websocket"`
}

type WebSocketConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	IP      string `yaml:"ip" mapstructure:"ip"`
	Port    int    `yaml:"port" mapstructure:"port"`
}
