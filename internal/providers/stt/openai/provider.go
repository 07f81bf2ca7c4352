// Package openai adapts the Whisper transcription endpoint to the
// Transcriber contract.
package openai

import (
	"bytes"
	"context"
	"strings"

	goopenai "github.com/sashabaranov/go-openai"

	"companion-voice-go/internal/contracts/providers"
	"companion-voice-go/internal/platform/errors"
	"companion-voice-go/internal/platform/logging"
)

const defaultModel = goopenai.Whisper1

// transcriptionClient is the slice of the SDK the provider uses; tests swap
// in a fake.
type transcriptionClient interface {
	CreateTranscription(ctx context.Context, req goopenai.AudioRequest) (goopenai.AudioResponse, error)
}

// Provider sends one utterance per request. It holds no per-call state and is
// safe for concurrent use.
type Provider struct {
	client transcriptionClient
	model  string
	logger *logging.Logger
}

// Config wires a Provider.
type Config struct {
	APIKey string
	// BaseURL overrides the endpoint for compatible self-hosted services.
	BaseURL string
	// Model defaults to whisper-1.
	Model  string
	Logger *logging.Logger
}

// New creates a Provider from the config.
func New(cfg Config) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, errors.New(errors.KindConfig, "stt.openai", "api key is required")
	}
	clientCfg := goopenai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	return &Provider{
		client: goopenai.NewClientWithConfig(clientCfg),
		model:  model,
		logger: cfg.Logger,
	}, nil
}

// Transcribe submits the audio as WAV and returns the recognized text.
// Silence comes back as ErrNoSpeech, transport and API failures as
// ErrServiceUnavailable; the caller decides whether either is fatal.
func (p *Provider) Transcribe(ctx context.Context, audio providers.PCM, languageHint string) (string, error) {
	if audio.Empty() {
		return "", providers.ErrNoSpeech
	}

	resp, err := p.client.CreateTranscription(ctx, goopenai.AudioRequest{
		Model:    p.model,
		FilePath: "utterance.wav",
		Reader:   bytes.NewReader(encodeWAV(audio)),
		Language: primarySubtag(languageHint),
	})
	if err != nil {
		p.logger.WarnTag("stt", "transcription request failed: %v", err)
		return "", errors.Wrap(errors.KindTranscribe, "stt.openai", "transcription request failed", providers.ErrServiceUnavailable)
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return "", providers.ErrNoSpeech
	}
	return text, nil
}

// primarySubtag reduces a BCP 47 tag like "en-US" to the bare language code
// the endpoint expects.
func primarySubtag(hint string) string {
	hint = strings.TrimSpace(hint)
	if i := strings.IndexAny(hint, "-_"); i >= 0 {
		hint = hint[:i]
	}
	return strings.ToLower(hint)
}
