package morph

import (
	"fmt"
	"strings"

	"github.com/aaaton/golem/v4"
	"github.com/aaaton/golem/v4/dicts/en"
	"github.com/aaaton/golem/v4/dicts/ru"
)

// Tagger assigns a part of speech to a single token.
type Tagger interface {
	Tag(token string) POS
}

// Golem resolves lemmas with the golem dictionary lemmatizer. Golem has no
// part-of-speech data; tags come from an optional Tagger and are Unknown
// otherwise.
//
// A word missing from the golem dictionary has no parse, leaving the decision
// to the next analyzer of a Chain or to the pipeline's fallback.
type Golem struct {
	lem    *golem.Lemmatizer
	lang   string
	tagger Tagger
}

// GolemOption configures a Golem analyzer.
type GolemOption func(*Golem)

// WithTagger sets the tagger used for parse POS.
func WithTagger(t Tagger) GolemOption {
	return func(g *Golem) {
		g.tagger = t
	}
}

// NewGolem loads the golem dictionary for lang ("ru" or "en").
func NewGolem(lang string, opts ...GolemOption) (*Golem, error) {
	var (
		lem *golem.Lemmatizer
		err error
	)
	switch strings.ToLower(lang) {
	case "ru", "russian":
		lem, err = golem.New(ru.New())
	case "en", "english":
		lem, err = golem.New(en.New())
	default:
		return nil, fmt.Errorf("%w: golem has no dictionary for %q", ErrUnknownLanguage, lang)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load golem dictionary for %q: %w", lang, err)
	}

	g := &Golem{lem: lem, lang: lang}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Parse implements Analyzer. Lemmas are lowercase; when a form has several
// lemmas they are ranked in dictionary order.
func (g *Golem) Parse(token string) []Parse {
	word := strings.ToLower(strings.TrimSpace(token))
	if word == "" {
		return nil
	}

	if !g.lem.InDict(word) {
		return nil
	}
	lemmas := g.lem.Lemmas(word)
	if len(lemmas) == 0 {
		return nil
	}

	pos := Unknown
	if g.tagger != nil {
		pos = g.tagger.Tag(token)
	}

	parses := make([]Parse, 0, len(lemmas))
	for _, l := range lemmas {
		parses = append(parses, Parse{Lemma: l, POS: pos})
	}
	return ranked(parses)
}
