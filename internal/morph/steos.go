package morph

import (
	"fmt"
	"os"

	steos "github.com/SteosOfficial/SteosMorphy/analyzer"
)

// steosSource serves analyses from the SteosMorphy Russian dictionary. Known
// words get every dictionary analysis; unknown words get the suffix-based
// prediction, and no analysis when nothing can be predicted.
type steosSource struct {
	a *steos.MorphAnalyzer
}

// Analyses implements TagSource.
func (s steosSource) Analyses(word string) []Tagged {
	parsed := s.a.Parse(word)
	if len(parsed) == 0 {
		parsed = s.a.ParsePredicted(word)
	}

	out := make([]Tagged, 0, len(parsed))
	for _, p := range parsed {
		if p == nil {
			continue
		}
		out = append(out, Tagged{Lemma: p.Lemma, Tags: p.Tags})
	}
	return out
}

// NewSteos loads the SteosMorphy dictionary (Russian, OpenCorpora tags). An
// empty dictPath uses the dictionary shipped with the module.
func NewSteos(dictPath string) (*OpenCorpora, error) {
	if dictPath != "" {
		if err := os.Setenv(steos.EnvDictPath, dictPath); err != nil {
			return nil, err
		}
	}

	// the loader reports dictionary assembly on stdout, which carries our output
	stdout := os.Stdout
	os.Stdout = os.Stderr
	a, err := steos.LoadMorphAnalyzer()
	os.Stdout = stdout
	if err != nil {
		return nil, fmt.Errorf("failed to load steosmorphy dictionary: %w", err)
	}

	return NewOpenCorpora(steosSource{a: a}), nil
}
