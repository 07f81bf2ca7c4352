// Package filter classifies a transcribed fragment as the assistant's own
// speech picked up by the microphone, or as candidate human speech.
//
// The classification is heuristic: a fingerprint catalog catches
// scripted replies, and a word-count ceiling catches long generated ones.
// Short unknown text is assumed human.
package filter

import (
	"strings"

	"companion-voice-go/internal/platform/logging"
)

const defaultMaxHumanWords = 15

// Filter decides whether a transcript fragment is self-speech.
type Filter struct {
	catalog       Catalog
	maxHumanWords int
	logger        *logging.Logger
}

// Option tweaks filter construction.
type Option func(*Filter)

// WithMaxHumanWords overrides the word-count ceiling above which a fragment
// is assumed to be the assistant.
func WithMaxHumanWords(n int) Option {
	return func(f *Filter) {
		if n > 0 {
			f.maxHumanWords = n
		}
	}
}

// WithLogger attaches a logger for suppressed-fragment bookkeeping.
func WithLogger(logger *logging.Logger) Option {
	return func(f *Filter) {
		f.logger = logger
	}
}

// New builds a filter over the given catalog.
func New(catalog Catalog, opts ...Option) *Filter {
	f := &Filter{
		catalog:       catalog,
		maxHumanWords: defaultMaxHumanWords,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// IsSelfSpeech classifies one transcribed fragment. Rules in order: a catalog
// fingerprint hit wins, then the word-count ceiling, otherwise human.
func (f *Filter) IsSelfSpeech(text string) bool {
	normalized := strings.ToLower(strings.TrimSpace(text))
	if normalized == "" {
		return false
	}

	for _, phrase := range f.catalog.Phrases {
		if phrase != "" && strings.Contains(normalized, phrase) {
			f.logger.DebugTag("filter", "suppressed fragment, catalog hit %q", phrase)
			return true
		}
	}

	if len(strings.Fields(normalized)) > f.maxHumanWords {
		f.logger.DebugTag("filter", "suppressed fragment, %d words exceeds ceiling", len(strings.Fields(normalized)))
		return true
	}

	return false
}

// CatalogVersion reports the version of the loaded fingerprint catalog.
func (f *Filter) CatalogVersion() string {
	return f.catalog.Version
}
