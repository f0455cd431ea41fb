package stats

import (
	"fmt"
	"log/slog"

	"github.com/pkoukk/tiktoken-go"
)

const encodingName = "cl100k_base"

// TokenCounter counts LLM tokens with tiktoken. Safe for concurrent use.
type TokenCounter struct {
	encoding *tiktoken.Tiktoken
}

// NewTokenCounter loads the cl100k_base encoding.
func NewTokenCounter() (*TokenCounter, error) {
	encoding, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize %s encoding: %w", encodingName, err)
	}
	slog.Debug("token counter ready", "encoding", encodingName)
	return &TokenCounter{encoding: encoding}, nil
}

// Count returns the number of tokens in text; special tokens are treated as text.
func (tc *TokenCounter) Count(text string) int {
	if text == "" {
		return 0
	}
	return len(tc.encoding.Encode(text, nil, nil))
}

// Name returns the counting method with its encoding.
func (tc *TokenCounter) Name() string {
	return "tokens (" + encodingName + ")"
}
