package stats

import (
	"strings"
	"unicode/utf8"
)

// CharCounter counts UTF-8 runes, so Cyrillic letters count once each.
type CharCounter struct{}

// Count returns the number of runes in text.
func (CharCounter) Count(text string) int {
	return utf8.RuneCountInString(text)
}

// Name returns "characters".
func (CharCounter) Name() string {
	return "characters"
}

// WordCounter counts runs of non-whitespace.
type WordCounter struct{}

// Count returns the number of whitespace-separated words in text.
func (WordCounter) Count(text string) int {
	return len(strings.Fields(text))
}

// Name returns "words".
func (WordCounter) Name() string {
	return "words"
}
