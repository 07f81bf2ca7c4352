package filter

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Catalog is the versioned set of known assistant-phrase fingerprints. It is
// data, not logic: deployments extend it from YAML when the assistant's
// scripted phrasing changes, without touching the filter.
type Catalog struct {
	Version string   `yaml:"version"`
	Phrases []string `yaml:"phrases"`
}

// DefaultCatalog returns the built-in fingerprint set covering the
// assistant's scripted reply openers and game prompts.
func DefaultCatalog() Catalog {
	return Catalog{
		Version: "2024.2",
		Phrases: []string{
			"let me think",
			"here is what i found",
			"here's what i found",
			"the answer is",
			"that's correct",
			"that is correct",
			"great job",
			"well done",
			"try again",
			"your score is",
			"next question",
			"say the word",
			"let's play",
			"time's up",
			"game over",
			"i didn't catch that",
			"i did not catch that",
			"nice to meet you",
		},
	}
}

// LoadCatalog reads a catalog from a YAML file.
func LoadCatalog(path string) (Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("read catalog: %w", err)
	}

	var catalog Catalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return Catalog{}, fmt.Errorf("parse catalog: %w", err)
	}

	// Matching is done against lowercased transcripts, so phrases must be
	// lowercase too or they can never hit.
	phrases := catalog.Phrases[:0]
	for _, phrase := range catalog.Phrases {
		phrase = strings.ToLower(strings.TrimSpace(phrase))
		if phrase != "" {
			phrases = append(phrases, phrase)
		}
	}
	catalog.Phrases = phrases

	if len(catalog.Phrases) == 0 {
		return Catalog{}, fmt.Errorf("catalog %s has no phrases", path)
	}
	return catalog, nil
}
