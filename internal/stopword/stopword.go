// Package stopword holds the stopword sets used to filter lemmas before topic modeling.
//
// A Set is a plain membership structure: Contains is exact and case-sensitive,
// so callers are expected to look up lemmas, not surface forms. Sets are
// extended through Extend only, which validates the whole batch before
// inserting anything.
//
// Usage Example:
//
//	stops, err := stopword.Embedded{}.LoadDefault("ru")
//	if err != nil {
//		return err
//	}
//	if err := stops.Extend("это", "всё"); err != nil {
//		return err
//	}
//	stops.Contains("это") // true
//
// A Set is not synchronized. Finish all Extend calls before the set is read
// from multiple goroutines, or guard it with a lock.
package stopword

import (
	"errors"
	"fmt"
	"sort"
	"unicode/utf8"
)

// ErrUnsupportedLanguage is returned when no default list exists for a language.
var ErrUnsupportedLanguage = errors.New("unsupported stopword language")

// EncodingError reports a word that is not valid text.
type EncodingError struct {
	Index int    // position of the word in the Extend batch
	Word  string // the offending value
}

func (e *EncodingError) Error() string {
	if e.Word == "" {
		return fmt.Sprintf("stopword %d is empty", e.Index)
	}
	return fmt.Sprintf("stopword %d (%q) is not valid UTF-8 text", e.Index, e.Word)
}

// Set is a language-scoped set of stopwords.
type Set struct {
	lang  string
	words map[string]struct{}
}

// New creates a set containing words. Words are stored as given.
func New(lang string, words ...string) *Set {
	s := &Set{
		lang:  lang,
		words: make(map[string]struct{}, len(words)),
	}
	for _, w := range words {
		s.words[w] = struct{}{}
	}
	return s
}

// Language returns the language code the set was built for.
func (s *Set) Language() string {
	return s.lang
}

// Extend adds words to the set. Every word must be non-empty, valid UTF-8;
// the first one that is not is reported as an *EncodingError and the set is
// left unchanged.
func (s *Set) Extend(words ...string) error {
	for i, w := range words {
		if w == "" || !utf8.ValidString(w) {
			return &EncodingError{Index: i, Word: w}
		}
	}
	for _, w := range words {
		s.words[w] = struct{}{}
	}
	return nil
}

// Contains reports whether word is in the set. No normalization is applied.
func (s *Set) Contains(word string) bool {
	if s == nil {
		return false
	}
	_, ok := s.words[word]
	return ok
}

// Len returns the number of stopwords.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.words)
}

// Words returns all stopwords in sorted order.
func (s *Set) Words() []string {
	result := make([]string, 0, s.Len())
	if s == nil {
		return result
	}
	for w := range s.words {
		result = append(result, w)
	}
	sort.Strings(result)
	return result
}
