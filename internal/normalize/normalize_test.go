package normalize_test

import (
	"bytes"
	"io"
	"log/slog"
	"reflect"
	"strings"
	"testing"

	"github.com/chriscorrea/winnow/internal/entity"
	"github.com/chriscorrea/winnow/internal/morph"
	"github.com/chriscorrea/winnow/internal/normalize"
	"github.com/chriscorrea/winnow/internal/stopword"
	"github.com/chriscorrea/winnow/internal/tokenize"
)

const exampleDoc = "Check http://example.com now [id123|Bob] <br> great site"

// testDictionary covers the English example post plus a few Russian forms
func testDictionary() *morph.Dictionary {
	d := morph.NewDictionary("en")
	d.Add("check", morph.Parse{Lemma: "check", POS: morph.Verb})
	d.Add("now", morph.Parse{Lemma: "now", POS: morph.Adverb})
	d.Add("great", morph.Parse{Lemma: "great", POS: morph.Adjective})
	d.Add("site", morph.Parse{Lemma: "site", POS: morph.Noun})
	d.Add("sites", morph.Parse{Lemma: "site", POS: morph.Noun})
	d.Add("thing", morph.Parse{Lemma: "thing", POS: morph.Noun})
	d.Add("кошки", morph.Parse{Lemma: "кошка", POS: morph.Noun})
	d.Add("спят", morph.Parse{Lemma: "спать", POS: morph.Verb})
	d.Add("стали",
		morph.Parse{Lemma: "стать", POS: morph.Verb},
		morph.Parse{Lemma: "сталь", POS: morph.Noun},
	)
	return d
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newPipeline(stops *stopword.Set, opts ...normalize.Option) *normalize.Pipeline {
	opts = append([]normalize.Option{normalize.WithLogger(quietLogger())}, opts...)
	return normalize.NewPipeline(tokenize.NewRegexp(), testDictionary(), stops, opts...)
}

func TestPipeline_ExamplePost(t *testing.T) {
	p := newPipeline(stopword.New("en", "now"))

	tokens := p.Tokens(exampleDoc)
	expectedTokens := []string{"Check", "now", "great", "site"}
	if !reflect.DeepEqual(tokens, expectedTokens) {
		t.Errorf("Tokens() = %q, want %q", tokens, expectedTokens)
	}

	nouns := p.PrepareForTopicModel(exampleDoc, true)
	if !reflect.DeepEqual(nouns, []string{"site"}) {
		t.Errorf("PrepareForTopicModel(onlyNouns) = %q, want %q", nouns, []string{"site"})
	}

	all := p.PrepareForTopicModel(exampleDoc, false)
	expectedAll := []string{"check", "great", "site"}
	if !reflect.DeepEqual(all, expectedAll) {
		t.Errorf("PrepareForTopicModel(all) = %q, want %q", all, expectedAll)
	}
}

func TestPipeline_NormalizeDocument(t *testing.T) {
	p := newPipeline(stopword.New("en", "now"))

	tests := []struct {
		name     string
		doc      string
		expected string
	}{
		{"empty", "", ""},
		{"lemmatizes in order", "Sites check", "site check"},
		{"stopwords are kept", "now sites", "now site"},
		{"url and br removed", "sites http://x.ru<br>check", "site check"},
		// mentions are not stripped on this path; unparsed tokens pass through
		{"mention kept as tokens", exampleDoc, "check now id123 Bob great site"},
		{"russian rank 0", "Кошки стали", "кошка стать"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := p.NormalizeDocument(tt.doc)
			if result != tt.expected {
				t.Errorf("NormalizeDocument(%q) = %q, want %q", tt.doc, result, tt.expected)
			}
		})
	}
}

func TestPipeline_NormalizeDocumentPreservesTokenCount(t *testing.T) {
	p := newPipeline(nil)
	tok := tokenize.NewRegexp()

	docs := []string{
		"Кошки стали unknownword, sites!",
		"one two three four five",
		"смешанный text 123 и_так_далее",
		"",
	}

	for _, doc := range docs {
		want := len(tok.Tokenize(doc))
		got := len(strings.Fields(p.NormalizeDocument(doc)))
		if got != want {
			t.Errorf("NormalizeDocument(%q) has %d tokens, tokenizer found %d", doc, got, want)
		}
	}
}

func TestPipeline_PrepareForTopicModel(t *testing.T) {
	p := newPipeline(stopword.New("en", "thing"))

	tests := []struct {
		name      string
		doc       string
		onlyNouns bool
		expected  []string
	}{
		{"empty document", "", true, []string{}},
		{"repeats are preserved", "sites site sites", true, []string{"site", "site", "site"}},
		{"stopword lemma removed", "thing sites thing", true, []string{"site"}},
		{"rank 0 POS decides", "стали кошки", true, []string{"кошка"}},
		{"rank 0 lemma without noun filter", "стали кошки спят", false, []string{"стать", "кошка", "спать"}},
		{"unparsed tokens skipped", "qwerty sites", false, []string{"site"}},
		{"mention removed", "[id42|Sites] check", false, []string{"check"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := p.PrepareForTopicModel(tt.doc, tt.onlyNouns)
			if !reflect.DeepEqual(result, tt.expected) {
				t.Errorf("PrepareForTopicModel(%q, %v) = %q, want %q", tt.doc, tt.onlyNouns, result, tt.expected)
			}
		})
	}
}

func TestPipeline_NounsAreSubsetOfAll(t *testing.T) {
	p := newPipeline(stopword.New("en", "now"))

	docs := []string{
		exampleDoc,
		"стали кошки спят стали",
		"sites thing great check sites",
	}

	for _, doc := range docs {
		all := counts(p.PrepareForTopicModel(doc, false))
		for lemma, n := range counts(p.PrepareForTopicModel(doc, true)) {
			if all[lemma] < n {
				t.Errorf("doc %q: noun lemma %q appears %d times, only %d in unfiltered output", doc, lemma, n, all[lemma])
			}
		}
	}
}

func TestPipeline_StopwordsNeverInOutput(t *testing.T) {
	stops := stopword.New("en")
	if err := stops.Extend("site", "check", "кошка"); err != nil {
		t.Fatal(err)
	}
	p := newPipeline(stops, normalize.WithFallback(normalize.FallbackKeep))

	doc := exampleDoc + " sites кошки стали check qwerty"
	for _, onlyNouns := range []bool{true, false} {
		for _, lemma := range p.PrepareForTopicModel(doc, onlyNouns) {
			if stops.Contains(lemma) {
				t.Errorf("PrepareForTopicModel(onlyNouns=%v) returned stopword %q", onlyNouns, lemma)
			}
		}
	}
}

func TestPipeline_FallbackKeep(t *testing.T) {
	p := newPipeline(stopword.New("en", "qwerty"), normalize.WithFallback(normalize.FallbackKeep))

	all := p.PrepareForTopicModel("Asdf sites qwerty", false)
	expected := []string{"Asdf", "site"}
	if !reflect.DeepEqual(all, expected) {
		t.Errorf("PrepareForTopicModel with keep = %q, want %q", all, expected)
	}

	// kept tokens have unknown POS and never pass the noun filter
	nouns := p.PrepareForTopicModel("Asdf sites", true)
	if !reflect.DeepEqual(nouns, []string{"site"}) {
		t.Errorf("PrepareForTopicModel(onlyNouns) with keep = %q, want %q", nouns, []string{"site"})
	}
}

func TestPipeline_SkipIsLogged(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	p := normalize.NewPipeline(tokenize.NewRegexp(), testDictionary(), nil, normalize.WithLogger(logger))

	p.PrepareForTopicModel("qwerty sites", false)
	if !strings.Contains(buf.String(), "token=qwerty") {
		t.Errorf("expected skipped token in debug log, got %q", buf.String())
	}
}

func TestPipeline_NormalizeToken(t *testing.T) {
	p := newPipeline(nil)

	tests := []struct {
		token    string
		expected string
	}{
		{"Sites", "site"},
		{"стали", "стать"},
		{"unknown", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			if got := p.NormalizeToken(tt.token); got != tt.expected {
				t.Errorf("NormalizeToken(%q) = %q, want %q", tt.token, got, tt.expected)
			}
		})
	}
}

func TestPipeline_ExtendThroughAccessor(t *testing.T) {
	p := newPipeline(nil)

	if got := p.PrepareForTopicModel("sites", true); !reflect.DeepEqual(got, []string{"site"}) {
		t.Fatalf("PrepareForTopicModel(sites) = %q", got)
	}
	if err := p.Stopwords().Extend("site"); err != nil {
		t.Fatal(err)
	}
	if got := p.PrepareForTopicModel("sites", true); len(got) != 0 {
		t.Errorf("PrepareForTopicModel after Extend = %q, want empty", got)
	}
}

func TestPipeline_WithStripper(t *testing.T) {
	s := entity.NewStripper()
	p := newPipeline(nil, normalize.WithStripper(s))
	if p.Stripper() != s {
		t.Error("Stripper() should return the injected stripper")
	}
}

func TestParseFallback(t *testing.T) {
	tests := []struct {
		input    string
		expected normalize.Fallback
		wantErr  bool
	}{
		{"", normalize.FallbackSkip, false},
		{"skip", normalize.FallbackSkip, false},
		{"KEEP", normalize.FallbackKeep, false},
		{"drop", normalize.FallbackSkip, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			f, err := normalize.ParseFallback(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseFallback(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if f != tt.expected {
				t.Errorf("ParseFallback(%q) = %v, want %v", tt.input, f, tt.expected)
			}
		})
	}

	if normalize.FallbackKeep.String() != "keep" || normalize.Fallback(7).String() != "unknown" {
		t.Error("Fallback.String() mismatch")
	}
}

func counts(lemmas []string) map[string]int {
	m := make(map[string]int, len(lemmas))
	for _, l := range lemmas {
		m[l]++
	}
	return m
}

type taggedWords map[string]morph.Tagged

func (w taggedWords) Analyses(word string) []morph.Tagged {
	if a, ok := w[strings.ToLower(word)]; ok {
		return []morph.Tagged{a}
	}
	return nil
}

func TestPipeline_OpenCorporaNouns(t *testing.T) {
	analyzer := morph.NewOpenCorpora(taggedWords{
		"кошки":  {Lemma: "кошка", Tags: "NOUN,anim,femn plur,nomn"},
		"любят":  {Lemma: "любить", Tags: "VERB,impf,tran plur,3per,pres,indc"},
		"молоко": {Lemma: "молоко", Tags: "NOUN,inan,neut sing,accs"},
	})
	p := normalize.NewPipeline(tokenize.NewRegexp(), analyzer, stopword.New("ru"),
		normalize.WithLogger(quietLogger()))

	got := p.PrepareForTopicModel("Кошки любят молоко", true)
	expected := []string{"кошка", "молоко"}
	if !reflect.DeepEqual(got, expected) {
		t.Errorf("PrepareForTopicModel() = %v, want %v", got, expected)
	}
}

func TestPipeline_SteosNouns(t *testing.T) {
	analyzer, err := morph.NewSteos("")
	if err != nil {
		t.Skipf("steosmorphy dictionary unavailable: %v", err)
	}
	stops, err := stopword.Embedded{}.LoadDefault("ru")
	if err != nil {
		t.Fatal(err)
	}
	p := normalize.NewPipeline(tokenize.NewRegexp(), analyzer, stops, normalize.WithLogger(quietLogger()))

	got := p.PrepareForTopicModel("Кошки любят молоко", true)
	expected := []string{"кошка", "молоко"}
	if !reflect.DeepEqual(got, expected) {
		t.Errorf("PrepareForTopicModel() = %v, want %v", got, expected)
	}
}
