// Package app runs winnow commands over batches of sources.
// It handles reading and splitting sources, runs the normalization pipeline
// and writes results, keeping CLI concerns out of the core packages.
package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/chriscorrea/winnow/internal/bow"
	"github.com/chriscorrea/winnow/internal/extract"
	"github.com/chriscorrea/winnow/internal/fetch"
	"github.com/chriscorrea/winnow/internal/normalize"
	"github.com/chriscorrea/winnow/internal/progress"
	"github.com/chriscorrea/winnow/internal/source"
	"github.com/chriscorrea/winnow/internal/stats"
	"github.com/chriscorrea/winnow/internal/store"
)

// ErrNoDocuments is returned when no source yielded a document.
var ErrNoDocuments = errors.New("no documents read from any source")

// Input describes where documents come from and how to split them.
type Input struct {
	Sources  []string      // file paths, URLs, or "-" for stdin
	Format   source.Format // how each source is split into documents
	HTML     bool          // extract plain text from HTML first
	Selector string        // CSS selector; one document per matching element
}

// BowOptions controls dictionary filtering for the bag-of-words output.
type BowOptions struct {
	NoBelow        int
	NoAbove        float64
	KeepN          int
	DictionaryPath string // gensim text dictionary output, skipped when empty
}

// App holds the collaborators shared by every command.
type App struct {
	pipeline *normalize.Pipeline
	fetcher  *fetch.Fetcher
	out      io.Writer
	errOut   io.Writer
	quiet    bool
}

// Option configures an App.
type Option func(*App)

// WithFetcher replaces the default fetcher.
func WithFetcher(f *fetch.Fetcher) Option {
	return func(a *App) {
		a.fetcher = f
	}
}

// WithOutput sets the writers for results and warnings.
func WithOutput(out, errOut io.Writer) Option {
	return func(a *App) {
		a.out = out
		a.errOut = errOut
	}
}

// WithQuiet suppresses warnings and the progress indicator.
func WithQuiet(quiet bool) Option {
	return func(a *App) {
		a.quiet = quiet
	}
}

// New returns an App writing to stdout and stderr. p may be nil for commands
// that only read a stored corpus.
func New(p *normalize.Pipeline, opts ...Option) *App {
	a := &App{
		pipeline: p,
		fetcher:  fetch.New(),
		out:      os.Stdout,
		errOut:   os.Stderr,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Load reads every source and splits it into documents. A source that fails
// is reported and skipped; Load fails only when nothing was read.
func (a *App) Load(ctx context.Context, in Input) ([]source.Document, error) {
	if len(in.Sources) == 0 {
		return nil, errors.New("no sources provided")
	}

	var docs []source.Document
	for _, src := range in.Sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		loaded, err := a.loadSource(ctx, src, in)
		if err != nil {
			a.skipped(src, err)
			continue
		}
		slog.Debug("source loaded", "source", src, "documents", len(loaded))
		docs = append(docs, loaded...)
	}

	if len(docs) == 0 {
		return nil, ErrNoDocuments
	}
	return docs, nil
}

func (a *App) loadSource(ctx context.Context, src string, in Input) ([]source.Document, error) {
	rc, err := a.fetcher.Open(ctx, src)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	name := src
	if src == fetch.StdinSource {
		name = "stdin"
	}

	switch {
	case in.Selector != "":
		posts, err := extract.Posts(rc, in.Selector)
		if err != nil {
			return nil, err
		}
		return source.FromTexts(name, posts), nil

	case in.HTML:
		var text string
		if fetch.IsURL(src) {
			base, perr := url.Parse(src)
			if perr != nil {
				return nil, fmt.Errorf("invalid url %q: %w", src, perr)
			}
			text, err = extract.Article(rc, base)
		} else {
			text, err = extract.Text(rc)
		}
		if err != nil {
			return nil, err
		}
		return source.Read(strings.NewReader(text), name, in.Format)

	default:
		return source.Read(rc, name, in.Format)
	}
}

// each runs fn over docs with a progress indicator, stopping on cancellation
func (a *App) each(ctx context.Context, label string, docs []source.Document, fn func(source.Document) error) error {
	if !a.quiet && progress.IsTerminal(a.errOut) {
		ind := progress.New(ctx, a.errOut, label, len(docs))
		ind.Start()
		defer ind.Stop()
		inner := fn
		fn = func(d source.Document) error {
			defer ind.Add(1)
			return inner(d)
		}
	}

	for _, d := range docs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(d); err != nil {
			return err
		}
	}
	return nil
}

// Normalize writes every document with each token replaced by its lemma.
// JSONL input produces JSONL output; otherwise one document per line.
func (a *App) Normalize(ctx context.Context, in Input) error {
	docs, err := a.Load(ctx, in)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(a.out)
	enc.SetEscapeHTML(false)

	return a.each(ctx, "normalizing", docs, func(d source.Document) error {
		normalized := a.pipeline.NormalizeDocument(d.Text)
		if in.Format == source.JSONL {
			return enc.Encode(source.Document{ID: d.ID, Source: d.Source, Text: normalized})
		}
		_, err := fmt.Fprintln(a.out, normalized)
		return err
	})
}

type preparedRecord struct {
	ID     string   `json:"id"`
	Source string   `json:"source,omitempty"`
	Lemmas []string `json:"lemmas"`
}

// Prepare writes the topic-model lemmas of every document. With a non-nil
// sink, each document is also stored with its normalized text and URLs.
func (a *App) Prepare(ctx context.Context, in Input, onlyNouns bool, sink *store.SQLite) error {
	docs, err := a.Load(ctx, in)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(a.out)
	enc.SetEscapeHTML(false)

	return a.each(ctx, "preparing", docs, func(d source.Document) error {
		lemmas := a.pipeline.PrepareForTopicModel(d.Text, onlyNouns)

		if sink != nil {
			rec := store.Record{
				ID:         d.ID,
				Source:     d.Source,
				Text:       d.Text,
				Normalized: a.pipeline.NormalizeDocument(d.Text),
				Lemmas:     lemmas,
				URLs:       a.pipeline.Stripper().CountURLs(d.Text),
			}
			if err := sink.Save(ctx, rec); err != nil {
				return fmt.Errorf("failed to store document %s: %w", d.ID, err)
			}
		}

		if in.Format == source.JSONL {
			return enc.Encode(preparedRecord{ID: d.ID, Source: d.Source, Lemmas: lemmas})
		}
		_, err := fmt.Fprintln(a.out, strings.Join(lemmas, " "))
		return err
	})
}

// URLs writes "count<TAB>url" for every URL in the batch, most frequent first.
func (a *App) URLs(ctx context.Context, in Input) error {
	docs, err := a.Load(ctx, in)
	if err != nil {
		return err
	}

	counts := make(map[string]int)
	err = a.each(ctx, "scanning", docs, func(d source.Document) error {
		for u, n := range a.pipeline.Stripper().CountURLs(d.Text) {
			counts[u] += n
		}
		return nil
	})
	if err != nil {
		return err
	}

	urls := make([]string, 0, len(counts))
	for u := range counts {
		urls = append(urls, u)
	}
	sort.Slice(urls, func(i, j int) bool {
		if counts[urls[i]] != counts[urls[j]] {
			return counts[urls[i]] > counts[urls[j]]
		}
		return urls[i] < urls[j]
	})

	for _, u := range urls {
		if _, err := fmt.Fprintf(a.out, "%d\t%s\n", counts[u], u); err != nil {
			return err
		}
	}
	return nil
}

// Stats writes a JSON report of the batch. tokens may be nil to skip LLM
// token counts.
func (a *App) Stats(ctx context.Context, in Input, onlyNouns bool, tokens stats.Counter, topN int) error {
	docs, err := a.Load(ctx, in)
	if err != nil {
		return err
	}

	collector := stats.NewCollector(tokens)
	err = a.each(ctx, "measuring", docs, func(d source.Document) error {
		collector.Add(d.Text,
			a.pipeline.Stripper().CountURLs(d.Text),
			a.pipeline.PrepareForTopicModel(d.Text, onlyNouns))
		return nil
	})
	if err != nil {
		return err
	}

	enc := json.NewEncoder(a.out)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(collector.Report(topN))
}

type bowRecord struct {
	ID    string       `json:"id"`
	BOW   []bow.Entry  `json:"bow"`
	TFIDF []bow.Weight `json:"tfidf"`
}

// BagOfWords prepares every document, builds and filters a dictionary, then
// writes one JSON line per document with its counts and TF-IDF weights.
func (a *App) BagOfWords(ctx context.Context, in Input, onlyNouns bool, opts BowOptions) error {
	docs, err := a.Load(ctx, in)
	if err != nil {
		return err
	}

	prepared := make([][]string, 0, len(docs))
	err = a.each(ctx, "preparing", docs, func(d source.Document) error {
		prepared = append(prepared, a.pipeline.PrepareForTopicModel(d.Text, onlyNouns))
		return nil
	})
	if err != nil {
		return err
	}

	dict := bow.NewDictionary()
	dict.AddDocuments(prepared)
	dict.FilterExtremes(opts.NoBelow, opts.NoAbove, opts.KeepN)
	model := bow.NewTFIDF(dict)

	if opts.DictionaryPath != "" {
		if err := writeDictionary(dict, opts.DictionaryPath); err != nil {
			return err
		}
	}

	enc := json.NewEncoder(a.out)
	enc.SetEscapeHTML(false)
	for i, d := range docs {
		vec := dict.Doc2Bow(prepared[i])
		if err := enc.Encode(bowRecord{ID: d.ID, BOW: vec, TFIDF: model.Weights(vec)}); err != nil {
			return err
		}
	}
	return nil
}

func writeDictionary(dict *bow.Dictionary, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create dictionary file: %w", err)
	}
	if err := dict.WriteText(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Stopwords writes the active stopword set, one word per line in sorted order.
func (a *App) Stopwords() error {
	stops := a.pipeline.Stopwords()
	slog.Debug("listing stopwords", "language", stops.Language(), "count", stops.Len())

	for _, w := range stops.Words() {
		if _, err := fmt.Fprintln(a.out, w); err != nil {
			return err
		}
	}
	return nil
}

type corpusReport struct {
	Documents int               `json:"documents"`
	TopLemmas []store.LemmaFreq `json:"top_lemmas,omitempty"`
}

// Corpus writes a JSON summary of a stored corpus: its size and the topN
// most frequent lemmas.
func (a *App) Corpus(ctx context.Context, db *store.SQLite, topN int) error {
	n, err := db.Count(ctx)
	if err != nil {
		return fmt.Errorf("failed to count documents: %w", err)
	}

	report := corpusReport{Documents: n}
	if topN > 0 {
		if report.TopLemmas, err = db.TopLemmas(ctx, topN); err != nil {
			return fmt.Errorf("failed to rank lemmas: %w", err)
		}
	}

	enc := json.NewEncoder(a.out)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

type exportRecord struct {
	ID         string         `json:"id"`
	Source     string         `json:"source,omitempty"`
	Text       string         `json:"text"`
	Normalized string         `json:"normalized"`
	Lemmas     []string       `json:"lemmas"`
	URLs       map[string]int `json:"urls,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// Export writes every stored document as one JSON line in id order. The
// records keep "id" and "text", so they can be read back with the jsonl format.
func (a *App) Export(ctx context.Context, db *store.SQLite) error {
	ids, err := db.IDs(ctx)
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}
	if len(ids) == 0 {
		return ErrNoDocuments
	}

	enc := json.NewEncoder(a.out)
	enc.SetEscapeHTML(false)
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return err
		}
		rec, found, err := db.Get(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to load document %s: %w", id, err)
		}
		if !found {
			continue
		}
		err = enc.Encode(exportRecord{
			ID:         rec.ID,
			Source:     rec.Source,
			Text:       rec.Text,
			Normalized: rec.Normalized,
			Lemmas:     rec.Lemmas,
			URLs:       rec.URLs,
			CreatedAt:  rec.CreatedAt,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (a *App) skipped(src string, err error) {
	slog.Debug("source skipped", "source", src, "error", err)
	if !a.quiet {
		fmt.Fprintf(a.errOut, "Warning: failed to process source %q: %v\n", src, err)
	}
}
