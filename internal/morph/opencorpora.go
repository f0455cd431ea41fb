package morph

import (
	"strings"
)

// Tagged is one analysis in OpenCorpora notation: a lemma and its tag set,
// such as "NOUN,anim,femn plur,nomn".
type Tagged struct {
	Lemma string
	Tags  string
}

// TagSource returns the OpenCorpora analyses of a word, most likely first.
type TagSource interface {
	Analyses(word string) []Tagged
}

// OpenCorpora adapts a TagSource to Analyzer. The part of speech is the
// leading grammeme of each tag set; source order becomes the rank.
type OpenCorpora struct {
	src TagSource
}

// NewOpenCorpora wraps src.
func NewOpenCorpora(src TagSource) *OpenCorpora {
	return &OpenCorpora{src: src}
}

// Parse implements Analyzer. Lemmas are lowercase.
func (o *OpenCorpora) Parse(token string) []Parse {
	word := strings.TrimSpace(token)
	if word == "" {
		return nil
	}

	analyses := o.src.Analyses(word)
	parses := make([]Parse, 0, len(analyses))
	for _, a := range analyses {
		if a.Lemma == "" {
			continue
		}
		pos, _ := TagPOS(a.Tags)
		parses = append(parses, Parse{Lemma: strings.ToLower(a.Lemma), POS: pos})
	}
	if len(parses) == 0 {
		return nil
	}
	return ranked(parses)
}

// TagPOS reads the part of speech from an OpenCorpora tag set. Grammemes are
// separated by commas or spaces and the first one is the part of speech.
func TagPOS(tags string) (POS, bool) {
	head := strings.TrimSpace(tags)
	if i := strings.IndexAny(head, ", "); i >= 0 {
		head = head[:i]
	}
	if head == "" {
		return Unknown, false
	}
	return ParsePOS(head)
}
