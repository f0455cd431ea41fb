// Package normalize turns noisy posts into lemma streams.
//
// A Pipeline chains entity stripping, tokenization, morphological analysis and
// stopword filtering. It offers two products:
//
//   - NormalizeDocument keeps the document's structure: one lemma per token,
//     same order, nothing filtered.
//   - PrepareForTopicModel returns the lemmas worth feeding to a topic model:
//     nouns only (optionally), stopwords removed, order and repeats kept.
//
// Usage Example:
//
//	p := normalize.NewPipeline(tokenize.NewRegexp(), analyzer, stops)
//	lemmas := p.PrepareForTopicModel(post, true)
//
// Every call is synchronous and independent of other calls. A Pipeline is safe
// for concurrent use as long as its stopword set is no longer being extended.
package normalize

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/chriscorrea/winnow/internal/entity"
	"github.com/chriscorrea/winnow/internal/morph"
	"github.com/chriscorrea/winnow/internal/stopword"
	"github.com/chriscorrea/winnow/internal/tokenize"
)

// Fallback decides what PrepareForTopicModel does with a token the analyzer
// cannot parse.
type Fallback int

const (
	// FallbackSkip drops the token (default)
	FallbackSkip Fallback = iota
	// FallbackKeep keeps the raw token as its own lemma with unknown POS
	FallbackKeep
)

// String returns the string representation of the fallback
func (f Fallback) String() string {
	switch f {
	case FallbackSkip:
		return "skip"
	case FallbackKeep:
		return "keep"
	default:
		return "unknown"
	}
}

// ParseFallback parses "skip" or "keep".
func ParseFallback(s string) (Fallback, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "skip":
		return FallbackSkip, nil
	case "keep":
		return FallbackKeep, nil
	default:
		return FallbackSkip, fmt.Errorf("unknown fallback %q (want skip or keep)", s)
	}
}

// cleaning orders; mentions are only stripped for topic modeling
var (
	documentKinds   = []entity.Kind{entity.URL, entity.LineBreak}
	topicModelKinds = []entity.Kind{entity.URL, entity.LineBreak, entity.ReplyMention}
)

// Pipeline holds the long-lived collaborators shared by every call.
type Pipeline struct {
	stripper  *entity.Stripper
	tokenizer tokenize.Tokenizer
	analyzer  morph.Analyzer
	stops     *stopword.Set
	fallback  Fallback
	logger    *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithStripper replaces the default entity stripper.
func WithStripper(s *entity.Stripper) Option {
	return func(p *Pipeline) {
		p.stripper = s
	}
}

// WithFallback sets the no-parse policy for PrepareForTopicModel.
func WithFallback(f Fallback) Option {
	return func(p *Pipeline) {
		p.fallback = f
	}
}

// WithLogger sets the logger used for per-token debug output.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = l
	}
}

// NewPipeline wires the collaborators together. A nil stops set filters nothing.
func NewPipeline(tokenizer tokenize.Tokenizer, analyzer morph.Analyzer, stops *stopword.Set, opts ...Option) *Pipeline {
	if stops == nil {
		stops = stopword.New("")
	}
	p := &Pipeline{
		stripper:  entity.NewStripper(),
		tokenizer: tokenizer,
		analyzer:  analyzer,
		stops:     stops,
		fallback:  FallbackSkip,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Stopwords returns the stopword set so it can be extended during setup.
func (p *Pipeline) Stopwords() *stopword.Set {
	return p.stops
}

// Stripper returns the entity stripper.
func (p *Pipeline) Stripper() *entity.Stripper {
	return p.stripper
}

// NormalizeToken returns the rank-0 lemma of token, or token itself when the
// analyzer has no parse.
func (p *Pipeline) NormalizeToken(token string) string {
	if best, ok := morph.Best(p.analyzer.Parse(token)); ok {
		return best.Lemma
	}
	return token
}

// NormalizeDocument strips URLs and line breaks, then replaces every token
// with its lemma. The result has exactly as many space-separated tokens as the
// tokenizer found; unparsed tokens pass through unchanged.
func (p *Pipeline) NormalizeDocument(doc string) string {
	tokens := p.tokenizer.Tokenize(p.stripper.Strip(doc, documentKinds...))

	lemmas := make([]string, len(tokens))
	for i, tok := range tokens {
		lemmas[i] = p.NormalizeToken(tok)
	}
	return strings.Join(lemmas, " ")
}

// Tokens returns the tokens PrepareForTopicModel works on: the document with
// URLs, line breaks and mentions removed, tokenized.
func (p *Pipeline) Tokens(doc string) []string {
	return p.tokenizer.Tokenize(p.stripper.Strip(doc, topicModelKinds...))
}

// PrepareForTopicModel strips URLs, line breaks and mentions, lemmatizes each
// token and filters the result. With onlyNouns, tokens whose rank-0 POS is not
// morph.Noun are dropped. Lemmas in the stopword set are always dropped.
// Survivors keep document order and repeats.
func (p *Pipeline) PrepareForTopicModel(doc string, onlyNouns bool) []string {
	tokens := p.Tokens(doc)
	lemmas := make([]string, 0, len(tokens))

	for _, tok := range tokens {
		best, ok := morph.Best(p.analyzer.Parse(tok))
		if !ok {
			if p.fallback == FallbackSkip {
				p.logger.Debug("no parse, skipping token", "token", tok)
				continue
			}
			best = morph.Parse{Lemma: tok, POS: morph.Unknown}
		}

		if onlyNouns && best.POS != morph.Noun {
			continue
		}
		if p.stops.Contains(best.Lemma) {
			continue
		}
		lemmas = append(lemmas, best.Lemma)
	}

	p.logger.Debug("prepared document", "tokens", len(tokens), "lemmas", len(lemmas), "onlyNouns", onlyNouns)
	return lemmas
}
