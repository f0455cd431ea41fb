package source_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/chriscorrea/winnow/internal/source"
)

func texts(docs []source.Document) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.Text
	}
	return out
}

func TestRead(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		format   source.Format
		expected []string
	}{
		{"lines", "first post\nsecond post\n", source.Lines, []string{"first post", "second post"}},
		{"lines skip blanks", "\n  \nпост\r\n\n", source.Lines, []string{"пост"}},
		{"lines empty", "", source.Lines, nil},
		{"jsonl", `{"id": 1, "text": "a"}` + "\n" + `{"text": "b", "likes": 3}`, source.JSONL, []string{"a", "b"}},
		{"jsonl empty text kept", `{"text": ""}`, source.JSONL, []string{""}},
		{"whole", "line one\nline two<br>", source.Whole, []string{"line one\nline two<br>"}},
		{"whole blank", " \n ", source.Whole, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			docs, err := source.Read(strings.NewReader(tt.input), "test", tt.format)
			if err != nil {
				t.Fatalf("Read() unexpected error: %v", err)
			}
			got := texts(docs)
			if len(got) != len(tt.expected) {
				t.Fatalf("Read() = %q, want %q", got, tt.expected)
			}
			for i := range got {
				if got[i] != tt.expected[i] {
					t.Errorf("Read()[%d] = %q, want %q", i, got[i], tt.expected[i])
				}
			}
			for _, d := range docs {
				if d.Source != "test" || d.ID == "" {
					t.Errorf("document %+v missing source or id", d)
				}
			}
		})
	}
}

func TestRead_JSONLIDs(t *testing.T) {
	input := `{"id": 42, "text": "a"}
{"id": "wall-1_7", "text": "b"}
{"text": "c"}
{"id": null, "text": "d"}`

	docs, err := source.Read(strings.NewReader(input), "dump.jsonl", source.JSONL)
	if err != nil {
		t.Fatalf("Read() unexpected error: %v", err)
	}
	if len(docs) != 4 {
		t.Fatalf("Read() returned %d documents, want 4", len(docs))
	}
	if docs[0].ID != "42" || docs[1].ID != "wall-1_7" {
		t.Errorf("ids = %q, %q; want 42, wall-1_7", docs[0].ID, docs[1].ID)
	}
	// generated ULIDs are 26 characters
	if len(docs[2].ID) != 26 || len(docs[3].ID) != 26 {
		t.Errorf("generated ids = %q, %q; want ULIDs", docs[2].ID, docs[3].ID)
	}
}

func TestRead_JSONLErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"invalid JSON", "{\"text\": \"a\"}\n{oops", "test:2"},
		{"missing text", `{"id": 1}`, "missing \"text\""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := source.Read(strings.NewReader(tt.input), "test", source.JSONL)
			if err == nil {
				t.Fatal("Read() expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Read() error = %q, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input    string
		expected source.Format
		wantErr  bool
	}{
		{"", source.Lines, false},
		{"lines", source.Lines, false},
		{"JSONL", source.JSONL, false},
		{"ndjson", source.JSONL, false},
		{"whole", source.Whole, false},
		{"csv", source.Lines, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			f, err := source.ParseFormat(tt.input)
			if tt.wantErr {
				if !errors.Is(err, source.ErrUnknownFormat) {
					t.Errorf("ParseFormat(%q) error = %v, want ErrUnknownFormat", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseFormat(%q) unexpected error: %v", tt.input, err)
			}
			if f != tt.expected {
				t.Errorf("ParseFormat(%q) = %v, want %v", tt.input, f, tt.expected)
			}
		})
	}

	if source.Format(9).String() != "unknown" || source.JSONL.String() != "jsonl" {
		t.Error("Format.String() mismatch")
	}
}

func TestNewID_Monotonic(t *testing.T) {
	prev := source.NewID()
	for i := 0; i < 100; i++ {
		id := source.NewID()
		if id <= prev {
			t.Fatalf("NewID() = %q, not after %q", id, prev)
		}
		prev = id
	}
}

func TestFromTexts(t *testing.T) {
	docs := source.FromTexts("page", []string{"a", "b"})
	if len(docs) != 2 || docs[1].Text != "b" || docs[0].Source != "page" {
		t.Errorf("FromTexts() = %+v", docs)
	}
}
