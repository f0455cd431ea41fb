// Package stats measures corpora before and after normalization.
//
// Counters measure raw text in different units: characters, whitespace words
// and LLM tokens (tiktoken, cl100k_base). A Collector aggregates counters, URL
// counts and prepared lemmas over many documents into a Report.
//
// Usage Example:
//
//	c, _ := stats.NewCounter(stats.Words)
//	n := c.Count("Кошки спят весь день")
package stats

import "fmt"

// Counter counts units of text.
type Counter interface {
	// Count returns the number of units (tokens, words, or characters) in text.
	Count(text string) int
	// Name returns a human-readable name for this counting method
	Name() string
}

// Method selects a counting strategy.
type Method int

const (
	// LLMTokens uses tiktoken with cl100k_base encoding
	LLMTokens Method = iota
	// Words counts whitespace-separated words
	Words
	// Characters counts runes including whitespace
	Characters
)

// String returns the string representation of the counting method.
func (m Method) String() string {
	switch m {
	case LLMTokens:
		return "tokens"
	case Words:
		return "words"
	case Characters:
		return "characters"
	default:
		return "unknown"
	}
}

// NewCounter returns the Counter for method. Only LLMTokens can fail, when
// the tiktoken encoding cannot be loaded.
func NewCounter(method Method) (Counter, error) {
	switch method {
	case LLMTokens:
		tc, err := NewTokenCounter()
		if err != nil {
			return nil, err
		}
		return tc, nil
	case Words:
		return WordCounter{}, nil
	case Characters:
		return CharCounter{}, nil
	default:
		return nil, fmt.Errorf("unknown counting method %d", int(method))
	}
}
