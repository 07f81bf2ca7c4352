package config

import "time"

// DefaultConfig returns the built-in configuration. Every table here is data a
// deployment may override from YAML without touching code.
func DefaultConfig() *Config {
	return &Config{
		Log: LogConfig{
			Level: "INFO",
			Dir:   "data/logs",
			File:  "voice-core.log",
		},
		Audio: AudioConfig{
			SampleRate: 16000,
			Channels:   1,
		},
		Capture: CaptureConfig{
			PhraseTimeout:    5 * time.Second,
			SilenceThreshold: 2 * time.Second,
			MaxTotalTime:     30 * time.Second,
		},
		Filter: FilterConfig{
			MaxHumanWords: 15,
		},
		Session: SessionConfig{
			Timeout: 30 * time.Second,
			Triggers: map[string][]string{
				"piper": {
					"hey piper",
					"hey pepper",
					"hey paper",
					"a piper",
					"hi piper",
				},
				"scout": {
					"hey scout",
					"hey scott",
					"hay scout",
					"hi scout",
				},
			},
			EndPhrases: []string{
				"goodbye",
				"good bye",
				"bye bye",
				"stop listening",
				"go to sleep",
				"that's all",
				"that is all",
			},
		},
		Interrupt: InterruptConfig{
			Phrases: []string{
				"stop",
				"cancel",
				"be quiet",
				"shut up",
				"never mind",
				"nevermind",
			},
			SilenceThreshold: time.Second,
			MaxListenTime:    4 * time.Second,
		},
		STT: STTConfig{
			Type:  "openai",
			Model: "whisper-1",
			DialectHints: []string{
				"en-US",
				"en-GB",
				"en-AU",
				"en-IN",
			},
			Retries: 3,
		},
		Transport: TransportConfig{
			WebSocket: WebSocketConfig{
				Enabled: true,
				IP:      "0.0.0.0",
				Port:    8000,
			},
		},
	}
}
