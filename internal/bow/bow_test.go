package bow_test

import (
	"bytes"
	"math"
	"reflect"
	"testing"

	"github.com/chriscorrea/winnow/internal/bow"
)

var corpus = [][]string{
	{"кошка", "спать", "кошка"},
	{"кошка", "сталь"},
	{"кошка", "сайт"},
	{"сайт", "сталь", "сайт"},
}

func TestDictionary_Ids(t *testing.T) {
	d := bow.NewDictionary()
	d.AddDocuments(corpus)

	// ids follow first appearance, sorted within a document
	expected := []string{"кошка", "спать", "сталь", "сайт"}
	for id, tok := range expected {
		if got := d.Token(id); got != tok {
			t.Errorf("Token(%d) = %q, want %q", id, got, tok)
		}
	}
	if d.Len() != 4 || d.NumDocs() != 4 {
		t.Errorf("Len()/NumDocs() = %d/%d, want 4/4", d.Len(), d.NumDocs())
	}

	tests := []struct {
		token string
		df    int
	}{
		{"кошка", 3},
		{"спать", 1},
		{"сталь", 2},
		{"сайт", 2},
	}
	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			id, ok := d.ID(tt.token)
			if !ok {
				t.Fatalf("ID(%q) not found", tt.token)
			}
			if got := d.DocFreq(id); got != tt.df {
				t.Errorf("DocFreq(%q) = %d, want %d", tt.token, got, tt.df)
			}
		})
	}

	if d.Token(99) != "" || d.DocFreq(-1) != 0 {
		t.Error("out of range lookups should return zero values")
	}
}

func TestDictionary_Doc2Bow(t *testing.T) {
	d := bow.NewDictionary()
	d.AddDocuments(corpus)

	tests := []struct {
		name     string
		doc      []string
		expected []bow.Entry
	}{
		{"counts sorted by id", []string{"сайт", "кошка", "сайт"}, []bow.Entry{{ID: 0, Count: 1}, {ID: 3, Count: 2}}},
		{"unknown ignored", []string{"собака", "спать"}, []bow.Entry{{ID: 1, Count: 1}}},
		{"empty", nil, []bow.Entry{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := d.Doc2Bow(tt.doc); !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Doc2Bow(%q) = %v, want %v", tt.doc, got, tt.expected)
			}
		})
	}
}

func TestDictionary_FilterExtremes(t *testing.T) {
	tests := []struct {
		name     string
		noBelow  int
		noAbove  float64
		keepN    int
		expected []string
	}{
		{"no filtering", 1, 1.0, 0, []string{"кошка", "спать", "сталь", "сайт"}},
		{"drop rare", 2, 1.0, 0, []string{"кошка", "сталь", "сайт"}},
		{"drop ubiquitous", 1, 0.5, 0, []string{"спать", "сталь", "сайт"}},
		{"keep most frequent", 1, 1.0, 2, []string{"кошка", "сталь"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := bow.NewDictionary()
			d.AddDocuments(corpus)
			d.FilterExtremes(tt.noBelow, tt.noAbove, tt.keepN)

			got := make([]string, d.Len())
			for id := range got {
				got[id] = d.Token(id)
			}
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("FilterExtremes(%d, %v, %d) kept %q, want %q", tt.noBelow, tt.noAbove, tt.keepN, got, tt.expected)
			}
		})
	}
}

func TestDictionary_WriteText(t *testing.T) {
	d := bow.NewDictionary()
	d.AddDocuments([][]string{{"b", "a"}, {"a"}})

	var buf bytes.Buffer
	if err := d.WriteText(&buf); err != nil {
		t.Fatal(err)
	}
	expected := "2\n0\ta\t2\n1\tb\t1\n"
	if buf.String() != expected {
		t.Errorf("WriteText() = %q, want %q", buf.String(), expected)
	}
}

func TestTFIDF(t *testing.T) {
	d := bow.NewDictionary()
	d.AddDocuments(corpus)
	model := bow.NewTFIDF(d)

	// кошка is in 3 of 4 documents, спать in 1
	if got, want := model.IDF(1), 2.0; math.Abs(got-want) > 1e-9 {
		t.Errorf("IDF(спать) = %v, want %v", got, want)
	}
	if model.IDF(42) != 0 {
		t.Error("IDF of unknown id should be 0")
	}

	weights := model.Weights(d.Doc2Bow(corpus[0]))
	if len(weights) != 2 {
		t.Fatalf("Weights() = %v, want 2 components", weights)
	}

	var norm float64
	for _, w := range weights {
		norm += w.Value * w.Value
	}
	if math.Abs(norm-1) > 1e-9 {
		t.Errorf("Weights() norm = %v, want 1", norm)
	}
	// the rare lemma outweighs the common one despite fewer occurrences
	if weights[1].Value <= weights[0].Value {
		t.Errorf("Weights() = %v, want спать weighted above кошка", weights)
	}
}

func TestTFIDF_ZeroWeightsDropped(t *testing.T) {
	d := bow.NewDictionary()
	d.AddDocuments([][]string{{"a", "b"}, {"a"}})
	model := bow.NewTFIDF(d)

	// "a" occurs everywhere, so idf is 0
	weights := model.Weights(d.Doc2Bow([]string{"a"}))
	if len(weights) != 0 {
		t.Errorf("Weights() = %v, want empty", weights)
	}
}
