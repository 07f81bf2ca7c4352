package capture

import "strings"

// OpenerSet is a closed, language-specific list of sentence openers that
// signal an unfinished question. A fragment trailing off on one of these
// earns the speaker extra silence before the utterance is finalized.
type OpenerSet struct {
	Locale  string
	Openers []string
}

// EnglishOpeners returns the opener set for English.
func EnglishOpeners() OpenerSet {
	return OpenerSet{
		Locale: "en",
		Openers: []string{
			"what is the",
			"how do you",
			"where is the",
			"when did the",
			"why do",
			"who is",
			"which one",
			"how far is",
			"what are the",
			"tell me about",
			"what about",
			"how about",
			"what if",
			"can you",
			"could you",
			"would you",
			"will you",
		},
	}
}

// Matches reports whether the fragment ends on an incomplete-sentence opener.
func (s OpenerSet) Matches(fragment string) bool {
	normalized := strings.ToLower(strings.TrimSpace(fragment))
	normalized = strings.TrimRight(normalized, ".,!?")
	if normalized == "" {
		return false
	}

	for _, opener := range s.Openers {
		if normalized == opener || strings.HasSuffix(normalized, " "+opener) {
			return true
		}
	}
	return false
}
