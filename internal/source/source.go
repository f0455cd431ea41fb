// Package source splits raw input into documents.
//
// A source (a file, stdin, a fetched page) holds one or many posts. The
// Format decides how it is split:
//
//   - Lines: one post per non-blank line (the usual export of a wall dump)
//   - JSONL: one JSON object per line with a "text" field and optional "id"
//   - Whole: the entire input is a single post
//
// Documents without an id get a ULID, so ids sort by the order they were read.
package source

import (
	"bufio"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/oklog/ulid/v2"
)

// ErrUnknownFormat is returned by ParseFormat for an unsupported name.
var ErrUnknownFormat = errors.New("unknown format")

// maxLineBytes bounds a single line in Lines and JSONL input
const maxLineBytes = 16 << 20

// Format selects how input is split into documents.
type Format int

const (
	// Lines treats each non-blank line as a document (default)
	Lines Format = iota
	// JSONL decodes one JSON object per line
	JSONL
	// Whole treats the entire input as one document
	Whole
)

// String returns the string representation of the format
func (f Format) String() string {
	switch f {
	case Lines:
		return "lines"
	case JSONL:
		return "jsonl"
	case Whole:
		return "whole"
	default:
		return "unknown"
	}
}

// ParseFormat parses "lines", "jsonl" or "whole".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "lines":
		return Lines, nil
	case "jsonl", "ndjson":
		return JSONL, nil
	case "whole":
		return Whole, nil
	default:
		return Lines, fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// Document is one post.
type Document struct {
	ID     string `json:"id"`
	Source string `json:"source,omitempty"`
	Text   string `json:"text"`
}

// jsonRecord is the accepted JSONL shape; extra fields are ignored
type jsonRecord struct {
	ID   json.RawMessage `json:"id"`
	Text *string         `json:"text"`
}

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// NewID returns a new ULID string. Safe for concurrent use.
func NewID() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Now(), entropy).String()
}

// Read splits r into documents according to format. name is recorded as each
// document's Source.
func Read(r io.Reader, name string, format Format) ([]Document, error) {
	switch format {
	case Lines:
		return readLines(r, name)
	case JSONL:
		return readJSONL(r, name)
	case Whole:
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
		if strings.TrimSpace(string(data)) == "" {
			return nil, nil
		}
		return []Document{{ID: NewID(), Source: name, Text: string(data)}}, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownFormat, int(format))
	}
}

// FromTexts wraps already extracted texts (e.g. posts selected from a page).
func FromTexts(name string, texts []string) []Document {
	docs := make([]Document, 0, len(texts))
	for _, text := range texts {
		docs = append(docs, Document{ID: NewID(), Source: name, Text: text})
	}
	return docs
}

func newScanner(r io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	return scanner
}

func readLines(r io.Reader, name string) ([]Document, error) {
	var docs []Document
	scanner := newScanner(r)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		docs = append(docs, Document{ID: NewID(), Source: name, Text: line})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return docs, nil
}

func readJSONL(r io.Reader, name string) ([]Document, error) {
	var docs []Document
	scanner := newScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var rec jsonRecord
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			return nil, fmt.Errorf("%s:%d: invalid JSON: %w", name, lineNo, err)
		}
		if rec.Text == nil {
			return nil, fmt.Errorf("%s:%d: missing \"text\" field", name, lineNo)
		}

		docs = append(docs, Document{ID: recordID(rec.ID), Source: name, Text: *rec.Text})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return docs, nil
}

// recordID accepts string and numeric ids (VK post ids are numbers)
func recordID(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return NewID()
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if s == "" {
			return NewID()
		}
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return NewID()
}
