// Package morph defines the morphological analysis contract used by the
// normalization pipeline, together with adapters for concrete analyzers.
//
// An Analyzer maps a token to its candidate parses ordered by descending
// confidence. Rank 0 is the preferred parse and consumers take it as-is;
// ambiguity is resolved by the analyzer, never re-ranked downstream. An empty
// result means the analyzer has no parse for the token.
//
// Adapters:
//   - Dictionary: explicit form → parses table with real POS tags, loadable from YAML
//   - OpenCorpora: analyses tagged in OpenCorpora notation; NewSteos backs it with
//     the SteosMorphy Russian dictionary, which also predicts unknown words
//   - Golem: dictionary lemmatizer (github.com/aaaton/golem) for ru and en
//   - Stemmer: snowball stems standing in for lemmas when nothing better exists
//   - Chain: first analyzer with a parse wins
package morph

import (
	"errors"
	"strings"
)

// ErrUnknownLanguage is returned by adapters that have no data for a language.
var ErrUnknownLanguage = errors.New("unknown analyzer language")

// POS is a grammatical category.
type POS int

const (
	Unknown POS = iota
	Noun
	Adjective
	Comparative
	Verb
	Infinitive
	Participle
	Gerund
	Numeral
	Adverb
	Pronoun
	Predicative
	Preposition
	Conjunction
	Particle
	Interjection
)

var posNames = [...]string{
	Unknown:      "unknown",
	Noun:         "noun",
	Adjective:    "adjective",
	Comparative:  "comparative",
	Verb:         "verb",
	Infinitive:   "infinitive",
	Participle:   "participle",
	Gerund:       "gerund",
	Numeral:      "numeral",
	Adverb:       "adverb",
	Pronoun:      "pronoun",
	Predicative:  "predicative",
	Preposition:  "preposition",
	Conjunction:  "conjunction",
	Particle:     "particle",
	Interjection: "interjection",
}

// String returns the lowercase name of the category
func (p POS) String() string {
	if p < 0 || int(p) >= len(posNames) {
		return posNames[Unknown]
	}
	return posNames[p]
}

// openCorpora maps OpenCorpora part-of-speech tags (as used by pymorphy-style
// dictionaries) to categories
var openCorpora = map[string]POS{
	"NOUN": Noun,
	"ADJF": Adjective,
	"ADJS": Adjective,
	"COMP": Comparative,
	"VERB": Verb,
	"INFN": Infinitive,
	"PRTF": Participle,
	"PRTS": Participle,
	"GRND": Gerund,
	"NUMR": Numeral,
	"ADVB": Adverb,
	"NPRO": Pronoun,
	"PRED": Predicative,
	"PREP": Preposition,
	"CONJ": Conjunction,
	"PRCL": Particle,
	"INTJ": Interjection,
}

// ParsePOS accepts an OpenCorpora tag ("NOUN", "ADJF", ...) or a category
// name ("noun", "adjective", ...).
func ParsePOS(tag string) (POS, bool) {
	tag = strings.TrimSpace(tag)
	if p, ok := openCorpora[strings.ToUpper(tag)]; ok {
		return p, true
	}
	lower := strings.ToLower(tag)
	for i, name := range posNames {
		if name == lower {
			return POS(i), true
		}
	}
	return Unknown, false
}

// Parse is one candidate analysis of a token.
type Parse struct {
	Lemma string
	POS   POS
	Rank  int // 0 is the preferred parse
}

// Analyzer resolves tokens to ranked parses.
type Analyzer interface {
	Parse(token string) []Parse
}

// Best returns the rank-0 parse, if any.
func Best(parses []Parse) (Parse, bool) {
	if len(parses) == 0 {
		return Parse{}, false
	}
	return parses[0], true
}

// ranked assigns ranks by position
func ranked(parses []Parse) []Parse {
	for i := range parses {
		parses[i].Rank = i
	}
	return parses
}

// Chain consults analyzers in order and returns the first non-empty result.
type Chain []Analyzer

// Parse implements Analyzer.
func (c Chain) Parse(token string) []Parse {
	for _, a := range c {
		if parses := a.Parse(token); len(parses) > 0 {
			return parses
		}
	}
	return nil
}
