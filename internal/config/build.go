package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/chriscorrea/winnow/internal/morph"
	"github.com/chriscorrea/winnow/internal/normalize"
	"github.com/chriscorrea/winnow/internal/stopword"
	"github.com/chriscorrea/winnow/internal/tokenize"
)

// Build constructs the pipeline described by c. Stopword extension happens
// here, before the pipeline is handed out.
func Build(c Config, logger *slog.Logger) (*normalize.Pipeline, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	tok := c.buildTokenizer()

	analyzer, err := c.buildAnalyzer(logger)
	if err != nil {
		return nil, err
	}

	stops, err := c.buildStopwords()
	if err != nil {
		return nil, err
	}

	fallback, _ := normalize.ParseFallback(c.Fallback)

	logger.Debug("pipeline configured",
		"language", c.Language,
		"tokenizer", c.Tokenizer,
		"analyzers", strings.Join(c.AnalyzerNames(), ","),
		"stopwords", stops.Len(),
		"stopword_language", stops.Language(),
		"fallback", fallback.String(),
	)

	return normalize.NewPipeline(tok, analyzer, stops,
		normalize.WithFallback(fallback),
		normalize.WithLogger(logger),
	), nil
}

func (c Config) buildTokenizer() tokenize.Tokenizer {
	if c.Tokenizer == TokenizerProse {
		return tokenize.NewProse()
	}
	var opts []tokenize.RegexpOption
	if c.NFC {
		opts = append(opts, tokenize.WithNFC())
	}
	return tokenize.NewRegexp(opts...)
}

func (c Config) buildAnalyzer(logger *slog.Logger) (morph.Analyzer, error) {
	names := c.AnalyzerNames()
	chain := make(morph.Chain, 0, len(names))

	for _, name := range names {
		switch name {
		case AnalyzerDictionary:
			d, err := morph.LoadDictionary(c.DictionaryPath)
			if err != nil {
				return nil, err
			}
			if d.Language() != "" && !strings.EqualFold(d.Language(), c.Language) {
				logger.Warn("dictionary language differs from pipeline language",
					"dictionary", c.DictionaryPath, "dictionary_language", d.Language(), "language", c.Language)
			}
			chain = append(chain, d)

		case AnalyzerSteos:
			a, err := morph.NewSteos(c.SteosDictPath)
			if err != nil {
				return nil, err
			}
			chain = append(chain, a)

		case AnalyzerGolem:
			var opts []morph.GolemOption
			if c.ProseTags {
				tagger, err := morph.NewProseTagger(morph.DefaultTagCacheSize)
				if err != nil {
					return nil, err
				}
				opts = append(opts, morph.WithTagger(tagger))
			}
			g, err := morph.NewGolem(c.Language, opts...)
			if err != nil {
				return nil, err
			}
			chain = append(chain, g)

		case AnalyzerSnowball:
			s, err := morph.NewStemmer(c.Language)
			if err != nil {
				return nil, err
			}
			chain = append(chain, s)

		default:
			return nil, fmt.Errorf("%w: %q", ErrUnknownAnalyzer, name)
		}
	}

	if len(chain) == 1 {
		return chain[0], nil
	}
	return chain, nil
}

func (c Config) buildStopwords() (*stopword.Set, error) {
	var (
		stops *stopword.Set
		err   error
	)
	if c.StopwordsPath != "" {
		stops, err = stopword.LoadFile(c.StopwordsPath)
	} else {
		stops, err = stopword.Embedded{}.LoadDefault(c.Language)
	}
	if err != nil {
		return nil, fmt.Errorf("load stopwords: %w", err)
	}

	if err := stops.Extend(c.ExtraStopwords...); err != nil {
		return nil, fmt.Errorf("extend stopwords: %w", err)
	}
	return stops, nil
}
