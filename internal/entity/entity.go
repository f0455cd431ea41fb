// Package entity detects and removes structural noise from user-generated posts.
//
// Three kinds of entities are recognized: URLs, HTML line-break markup and
// VK-style reply mentions such as "[id123|Alice]". Every removal replaces the
// match with a single space, so words on either side of a removed entity are
// never glued together.
//
// Usage Example:
//
//	s := entity.NewStripper()
//	clean := s.Strip(post, entity.URL, entity.LineBreak, entity.ReplyMention)
//	counts := s.CountURLs(post)
//
// Patterns are applied one at a time and independently. Overlapping entities
// are not supported: a URL with a path inside a mention label swallows the
// closing bracket ("[id1|http://x.ru/a]" loses its URL but the mention no
// longer matches). Bare domains without a scheme ("example.com") are not URLs
// for this package.
package entity

import (
	"regexp"
	"sync"
)

// Kind tags what an entity pattern matches.
type Kind int

const (
	// URL matches scheme-qualified links
	URL Kind = iota
	// LineBreak matches <br> markup
	LineBreak
	// ReplyMention matches [id123|label] mention markup
	ReplyMention
)

// String returns the string representation of the kind
func (k Kind) String() string {
	switch k {
	case URL:
		return "url"
	case LineBreak:
		return "line-break"
	case ReplyMention:
		return "reply-mention"
	default:
		return "unknown"
	}
}

// replacement separates the tokens around a removed entity
const replacement = " "

// urlPattern requires a scheme. The host is either an IPv4 literal with
// validated octets (no 0.x, no multicast/reserved first octet, no .0/.255
// last octet) or a domain whose TLD has at least two letters.
const urlPattern = `(?i)(?:(?:https?|ftp)://)` +
	`(?:\S+(?::\S*)?@)?` +
	`(?:(?:[1-9]\d?|1\d\d|2[01]\d|22[0-3])` +
	`(?:\.(?:1?\d{1,2}|2[0-4]\d|25[0-5])){2}` +
	`(?:\.(?:[1-9]\d?|1\d\d|2[0-4]\d|25[0-4]))|` +
	`(?:(?:[a-z\x{00a1}-\x{ffff}0-9]+-?)*[a-z\x{00a1}-\x{ffff}0-9]+)` +
	`(?:\.(?:[a-z\x{00a1}-\x{ffff}0-9]+-?)*[a-z\x{00a1}-\x{ffff}0-9]+)*` +
	`(?:\.(?:[a-z\x{00a1}-\x{ffff}]{2,})))` +
	`(?::\d{2,5})?(?:/\S*)?`

// lineBreakPattern matches <br>, <br/> and <br /> in any case
const lineBreakPattern = `(?i)<br\s*/?>`

// replyMentionPattern matches [id123|label], [club123|label], [public123|label]
// and [event123|label]; the label runs to the first closing bracket
const replyMentionPattern = `\[(?:id|club|public|event)\d+\|[^\]\n]+\]`

// Pattern is a compiled entity pattern with its semantic tag.
type Pattern struct {
	Kind Kind
	Re   *regexp.Regexp
}

var (
	defaults     map[Kind]Pattern
	defaultsOnce sync.Once
)

// defaultPatterns returns the process-wide compiled default patterns
func defaultPatterns() map[Kind]Pattern {
	defaultsOnce.Do(func() {
		defaults = map[Kind]Pattern{
			URL:          {Kind: URL, Re: regexp.MustCompile(urlPattern)},
			LineBreak:    {Kind: LineBreak, Re: regexp.MustCompile(lineBreakPattern)},
			ReplyMention: {Kind: ReplyMention, Re: regexp.MustCompile(replyMentionPattern)},
		}
	})
	return defaults
}

// Stripper removes entities from documents. It is immutable after
// construction and safe for concurrent use.
type Stripper struct {
	patterns map[Kind]Pattern
}

// Option configures a Stripper.
type Option func(*Stripper)

// WithPattern overrides the pattern used for kind.
func WithPattern(kind Kind, re *regexp.Regexp) Option {
	return func(s *Stripper) {
		s.patterns[kind] = Pattern{Kind: kind, Re: re}
	}
}

// NewStripper creates a Stripper using the default patterns, optionally
// overridden per kind.
func NewStripper(opts ...Option) *Stripper {
	s := &Stripper{patterns: make(map[Kind]Pattern, 3)}
	for k, p := range defaultPatterns() {
		s.patterns[k] = p
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RemoveURLs replaces every URL in doc with a single space.
func (s *Stripper) RemoveURLs(doc string) string {
	return s.remove(URL, doc)
}

// RemoveLineBreaks replaces <br> markup in doc with a single space.
func (s *Stripper) RemoveLineBreaks(doc string) string {
	return s.remove(LineBreak, doc)
}

// RemoveReplyMentions replaces reply mention markup in doc with a single space.
func (s *Stripper) RemoveReplyMentions(doc string) string {
	return s.remove(ReplyMention, doc)
}

// Strip applies the patterns for kinds in the given order.
func (s *Stripper) Strip(doc string, kinds ...Kind) string {
	for _, k := range kinds {
		doc = s.remove(k, doc)
	}
	return doc
}

// FindURLs returns every URL in doc in order of appearance, repeats included.
func (s *Stripper) FindURLs(doc string) []string {
	p, ok := s.patterns[URL]
	if !ok {
		return nil
	}
	return p.Re.FindAllString(doc, -1)
}

// CountURLs maps each distinct URL in doc to the number of times it occurs.
// The counts sum to len(FindURLs(doc)).
func (s *Stripper) CountURLs(doc string) map[string]int {
	urls := s.FindURLs(doc)
	counts := make(map[string]int, len(urls))
	for _, u := range urls {
		counts[u]++
	}
	return counts
}

func (s *Stripper) remove(kind Kind, doc string) string {
	p, ok := s.patterns[kind]
	if !ok || doc == "" {
		return doc
	}
	return p.Re.ReplaceAllLiteralString(doc, replacement)
}
