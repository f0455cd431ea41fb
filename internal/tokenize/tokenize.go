// Package tokenize splits cleaned text into word tokens.
//
// Two tokenizers are provided. Regexp extracts runs of word characters and is
// the default: it is language agnostic and never emits punctuation. Prose uses
// the prose tokenizer, which knows about English contractions and abbreviations;
// punctuation-only tokens are dropped from its output.
package tokenize

import (
	"log/slog"
	"regexp"
	"unicode"

	"github.com/jdkato/prose/v2"
	"golang.org/x/text/unicode/norm"
)

// Tokenizer splits text into an ordered list of word tokens.
type Tokenizer interface {
	Tokenize(text string) []string
}

// wordPattern is the Unicode "word character" class: letters (with their
// combining marks), digits and underscore
var wordPattern = regexp.MustCompile(`[\p{L}\p{M}\p{N}_]+`)

// Regexp tokenizes by matching a word pattern; everything else separates tokens.
type Regexp struct {
	re  *regexp.Regexp
	nfc bool
}

// RegexpOption configures a Regexp tokenizer.
type RegexpOption func(*Regexp)

// WithPattern replaces the word pattern.
func WithPattern(re *regexp.Regexp) RegexpOption {
	return func(r *Regexp) {
		r.re = re
	}
}

// WithNFC composes text to NFC before matching, so decomposed letters
// (e.g. "й" typed as "и" + combining breve) come out as one rune.
func WithNFC() RegexpOption {
	return func(r *Regexp) {
		r.nfc = true
	}
}

// NewRegexp creates a Regexp tokenizer.
func NewRegexp(opts ...RegexpOption) *Regexp {
	r := &Regexp{re: wordPattern}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Tokenize returns the word-pattern matches of text in order.
func (r *Regexp) Tokenize(text string) []string {
	if text == "" {
		return nil
	}
	if r.nfc {
		text = norm.NFC.String(text)
	}
	return r.re.FindAllString(text, -1)
}

// Prose tokenizes with the prose tokenizer.
type Prose struct{}

// NewProse creates a Prose tokenizer.
func NewProse() *Prose {
	return &Prose{}
}

// Tokenize returns prose tokens that contain at least one letter or digit.
func (p *Prose) Tokenize(text string) []string {
	if text == "" {
		return nil
	}

	// tagging and entity extraction are not needed to split words
	doc, err := prose.NewDocument(text,
		prose.WithTagging(false),
		prose.WithSegmentation(false),
		prose.WithExtraction(false),
	)
	if err != nil {
		slog.Debug("prose tokenization failed", "error", err, "textLength", len(text))
		return nil
	}

	var tokens []string
	for _, tok := range doc.Tokens() {
		if isWord(tok.Text) {
			tokens = append(tokens, tok.Text)
		}
	}
	return tokens
}

// isWord reports whether s has any letter or digit
func isWord(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			return true
		}
	}
	return false
}
