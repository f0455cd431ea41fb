package morph

import (
	"fmt"
	"strings"

	"github.com/kljensen/snowball"
)

// snowballLanguages maps language codes to snowball stemmer names
var snowballLanguages = map[string]string{
	"ru":        "russian",
	"russian":   "russian",
	"en":        "english",
	"english":   "english",
	"es":        "spanish",
	"spanish":   "spanish",
	"fr":        "french",
	"french":    "french",
	"sv":        "swedish",
	"swedish":   "swedish",
	"no":        "norwegian",
	"norwegian": "norwegian",
	"hu":        "hungarian",
	"hungarian": "hungarian",
}

// Stemmer uses a snowball stem as the lemma. Stems are not dictionary words,
// so this adapter is meant as the last link of a Chain. POS is always Unknown.
type Stemmer struct {
	language string
}

// NewStemmer creates a snowball stemmer for lang.
func NewStemmer(lang string) (*Stemmer, error) {
	name, ok := snowballLanguages[strings.ToLower(lang)]
	if !ok {
		return nil, fmt.Errorf("%w: snowball has no stemmer for %q", ErrUnknownLanguage, lang)
	}
	return &Stemmer{language: name}, nil
}

// Parse implements Analyzer.
func (s *Stemmer) Parse(token string) []Parse {
	word := strings.ToLower(strings.TrimSpace(token))
	if word == "" {
		return nil
	}

	// stopwords are stemmed too, so they stay comparable with a stemmed stoplist
	stem, err := snowball.Stem(word, s.language, true)
	if err != nil || stem == "" {
		return nil
	}
	return []Parse{{Lemma: stem, POS: Unknown, Rank: 0}}
}
