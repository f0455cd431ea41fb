package morph

import (
	"fmt"
	"log/slog"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/jdkato/prose/v2"
)

// DefaultTagCacheSize bounds the number of cached token tags
const DefaultTagCacheSize = 50000

// penn maps Penn Treebank tags to categories
var penn = map[string]POS{
	"NN":   Noun,
	"NNS":  Noun,
	"NNP":  Noun,
	"NNPS": Noun,
	"JJ":   Adjective,
	"JJR":  Comparative,
	"JJS":  Adjective,
	"VB":   Infinitive,
	"VBD":  Verb,
	"VBP":  Verb,
	"VBZ":  Verb,
	"VBG":  Gerund,
	"VBN":  Participle,
	"MD":   Verb,
	"RB":   Adverb,
	"RBR":  Adverb,
	"RBS":  Adverb,
	"WRB":  Adverb,
	"PRP":  Pronoun,
	"PRP$": Pronoun,
	"WP":   Pronoun,
	"WP$":  Pronoun,
	"DT":   Pronoun,
	"PDT":  Pronoun,
	"WDT":  Pronoun,
	"EX":   Pronoun,
	"CD":   Numeral,
	"IN":   Preposition,
	"TO":   Particle,
	"RP":   Particle,
	"CC":   Conjunction,
	"UH":   Interjection,
}

// PennPOS converts a Penn Treebank tag; unmapped tags are Unknown.
func PennPOS(tag string) POS {
	if p, ok := penn[tag]; ok {
		return p
	}
	return Unknown
}

// ProseTagger tags English tokens with the prose perceptron tagger. Tokens are
// tagged in isolation, so the tag reflects the word's most likely category
// rather than its role in the sentence. Results are cached; the tagger is
// safe for concurrent use.
type ProseTagger struct {
	cache *lru.Cache[string, POS]
}

// NewProseTagger creates a tagger caching up to size tags.
func NewProseTagger(size int) (*ProseTagger, error) {
	if size <= 0 {
		size = DefaultTagCacheSize
	}
	cache, err := lru.New[string, POS](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create tag cache: %w", err)
	}
	return &ProseTagger{cache: cache}, nil
}

// Tag implements Tagger.
func (p *ProseTagger) Tag(token string) POS {
	if pos, ok := p.cache.Get(token); ok {
		return pos
	}

	pos := Unknown
	doc, err := prose.NewDocument(token,
		prose.WithSegmentation(false),
		prose.WithExtraction(false),
	)
	if err != nil {
		slog.Debug("prose tagging failed", "token", token, "error", err)
	} else if toks := doc.Tokens(); len(toks) > 0 {
		pos = PennPOS(toks[0].Tag)
	}

	p.cache.Add(token, pos)
	return pos
}

// Cached returns the number of cached tags.
func (p *ProseTagger) Cached() int {
	return p.cache.Len()
}
