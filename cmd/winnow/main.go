package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/chriscorrea/winnow/internal/app"
	"github.com/chriscorrea/winnow/internal/config"
	"github.com/chriscorrea/winnow/internal/normalize"
	"github.com/chriscorrea/winnow/internal/progress"
	"github.com/chriscorrea/winnow/internal/source"
	"github.com/chriscorrea/winnow/internal/stats"
	"github.com/chriscorrea/winnow/internal/store"
)

// loadConfig reads file and environment settings, then applies any flags the
// user set explicitly
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	configPath, _ := cmd.Flags().GetString("config")
	envFile, _ := cmd.Flags().GetString("env-file")

	cfg, err := config.Loader{ConfigPath: configPath, EnvFile: envFile}.Load()
	if err != nil {
		return config.Config{}, err
	}

	flags := cmd.Flags()
	if flags.Changed("language") {
		cfg.Language, _ = flags.GetString("language")
	}
	if flags.Changed("tokenizer") {
		cfg.Tokenizer, _ = flags.GetString("tokenizer")
	}
	if flags.Changed("nfc") {
		cfg.NFC, _ = flags.GetBool("nfc")
	}
	if flags.Changed("analyzer") {
		cfg.Analyzers, _ = flags.GetStringSlice("analyzer")
	}
	if flags.Changed("dictionary") {
		cfg.DictionaryPath, _ = flags.GetString("dictionary")
	}
	if flags.Changed("steos-dict") {
		cfg.SteosDictPath, _ = flags.GetString("steos-dict")
	}
	if flags.Changed("stopwords") {
		cfg.StopwordsPath, _ = flags.GetString("stopwords")
	}
	if flags.Changed("stopword") {
		extra, _ := flags.GetStringSlice("stopword")
		cfg.ExtraStopwords = append(cfg.ExtraStopwords, extra...)
	}
	if flags.Changed("prose-tags") {
		cfg.ProseTags, _ = flags.GetBool("prose-tags")
	}
	if flags.Changed("fallback") {
		cfg.Fallback, _ = flags.GetString("fallback")
	}
	if flags.Lookup("all-pos") != nil && flags.Changed("all-pos") {
		cfg.AllPOS, _ = flags.GetBool("all-pos")
	}
	if debug, _ := flags.GetBool("debug"); debug {
		cfg.LogLevel = "debug"
	}

	return cfg, cfg.Validate()
}

// setupLogger installs the default slog logger: charmbracelet/log on a
// terminal, plain text otherwise
func setupLogger(level slog.Level) *slog.Logger {
	var handler slog.Handler
	if progress.IsTerminal(os.Stderr) {
		handler = log.NewWithOptions(os.Stderr, log.Options{
			ReportTimestamp: true,
			Level:           log.Level(level),
		})
	} else {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: level,
		})
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// setup loads configuration, configures logging and builds the pipeline
func setup(cmd *cobra.Command) (*normalize.Pipeline, config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, config.Config{}, fmt.Errorf("configuration error: %w", err)
	}

	level, _ := config.ParseLevel(cfg.LogLevel)
	logger := setupLogger(level)

	p, err := config.Build(cfg, logger)
	if err != nil {
		return nil, config.Config{}, fmt.Errorf("failed to build pipeline: %w", err)
	}
	return p, cfg, nil
}

// buildInput constructs an app.Input from flags and positional arguments
func buildInput(cmd *cobra.Command, args []string) (app.Input, error) {
	formatName, _ := cmd.Flags().GetString("format")
	format, err := source.ParseFormat(formatName)
	if err != nil {
		return app.Input{}, err
	}
	html, _ := cmd.Flags().GetBool("html")
	selector, _ := cmd.Flags().GetString("selector")

	// no arguments: read stdin
	sources := args
	if len(sources) == 0 {
		sources = []string{"-"}
	}

	return app.Input{
		Sources:  sources,
		Format:   format,
		HTML:     html,
		Selector: selector,
	}, nil
}

// newApp wires the pipeline into an app honoring --quiet
func newApp(cmd *cobra.Command, p *normalize.Pipeline) *app.App {
	quiet, _ := cmd.Flags().GetBool("quiet")
	return app.New(p, app.WithQuiet(quiet))
}

// warnNoPOS flags a noun filter that can only produce empty output
func warnNoPOS(cmd *cobra.Command, cfg config.Config) {
	quiet, _ := cmd.Flags().GetBool("quiet")
	if cfg.OnlyNouns() && !cfg.HasPOS() && !quiet {
		fmt.Fprintf(os.Stderr, "Warning: the configured analyzers produce no part-of-speech tags for %q, "+
			"so the noun filter drops every token; use --all-pos or a tagging analyzer "+
			"(dictionary, steos for ru, golem with --prose-tags for en)\n", cfg.Language)
	}
}

// run executes fn with a context canceled on interrupt
func run(fn func(ctx context.Context) error) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := fn(ctx)
	if errors.Is(err, context.Canceled) {
		return errors.New("interrupted")
	}
	return err
}

var rootCmd = &cobra.Command{
	Use:   "winnow",
	Short: "Normalize noisy social media posts for topic modeling",
	Long: `Winnow cleans user-generated posts: it strips URLs, <br> markup and reply mentions,
tokenizes, lemmatizes and filters stopwords. Sources may be local files, URLs, or standard input.

Examples:
  winnow prepare wall.txt
  winnow normalize --format jsonl dump.jsonl
  cat posts.txt | winnow urls
  winnow bow --dict corpus.dict --language en posts.txt
  winnow prepare --sqlite corpus.db wall.txt && winnow corpus corpus.db`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var normalizeCmd = &cobra.Command{
	Use:   "normalize [sources...]",
	Short: "Replace every token with its lemma, keeping document structure",
	RunE: func(cmd *cobra.Command, args []string) error {
		in, err := buildInput(cmd, args)
		if err != nil {
			return err
		}
		p, _, err := setup(cmd)
		if err != nil {
			return err
		}
		return run(func(ctx context.Context) error {
			return newApp(cmd, p).Normalize(ctx, in)
		})
	},
}

var prepareCmd = &cobra.Command{
	Use:   "prepare [sources...]",
	Short: "Emit the lemmas of each document for topic modeling",
	RunE: func(cmd *cobra.Command, args []string) error {
		in, err := buildInput(cmd, args)
		if err != nil {
			return err
		}
		p, cfg, err := setup(cmd)
		if err != nil {
			return err
		}
		warnNoPOS(cmd, cfg)

		return run(func(ctx context.Context) error {
			var sink *store.SQLite
			if path, _ := cmd.Flags().GetString("sqlite"); path != "" {
				sink, err = store.OpenSQLite(ctx, path)
				if err != nil {
					return fmt.Errorf("failed to open %s: %w", path, err)
				}
				defer sink.Close()
			}
			return newApp(cmd, p).Prepare(ctx, in, cfg.OnlyNouns(), sink)
		})
	},
}

var urlsCmd = &cobra.Command{
	Use:   "urls [sources...]",
	Short: "Count the URLs found in the documents",
	RunE: func(cmd *cobra.Command, args []string) error {
		in, err := buildInput(cmd, args)
		if err != nil {
			return err
		}
		p, _, err := setup(cmd)
		if err != nil {
			return err
		}
		return run(func(ctx context.Context) error {
			return newApp(cmd, p).URLs(ctx, in)
		})
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats [sources...]",
	Short: "Report corpus size before and after preparation",
	RunE: func(cmd *cobra.Command, args []string) error {
		in, err := buildInput(cmd, args)
		if err != nil {
			return err
		}
		p, cfg, err := setup(cmd)
		if err != nil {
			return err
		}
		warnNoPOS(cmd, cfg)

		var tokens stats.Counter
		if llm, _ := cmd.Flags().GetBool("llm-tokens"); llm {
			tokens, err = stats.NewCounter(stats.LLMTokens)
			if err != nil {
				return fmt.Errorf("failed to set up %s counter: %w", stats.LLMTokens, err)
			}
		}
		top, _ := cmd.Flags().GetInt("top")

		return run(func(ctx context.Context) error {
			return newApp(cmd, p).Stats(ctx, in, cfg.OnlyNouns(), tokens, top)
		})
	},
}

var bowCmd = &cobra.Command{
	Use:   "bow [sources...]",
	Short: "Build a bag-of-words corpus with TF-IDF weights",
	RunE: func(cmd *cobra.Command, args []string) error {
		in, err := buildInput(cmd, args)
		if err != nil {
			return err
		}
		p, cfg, err := setup(cmd)
		if err != nil {
			return err
		}
		warnNoPOS(cmd, cfg)

		noBelow, _ := cmd.Flags().GetInt("no-below")
		noAbove, _ := cmd.Flags().GetFloat64("no-above")
		keepN, _ := cmd.Flags().GetInt("keep-n")
		dictPath, _ := cmd.Flags().GetString("dict")
		if noAbove <= 0 || noAbove > 1 {
			return fmt.Errorf("--no-above must be in (0, 1], got %v", noAbove)
		}

		opts := app.BowOptions{NoBelow: noBelow, NoAbove: noAbove, KeepN: keepN, DictionaryPath: dictPath}
		return run(func(ctx context.Context) error {
			return newApp(cmd, p).BagOfWords(ctx, in, cfg.OnlyNouns(), opts)
		})
	},
}

var stopwordsCmd = &cobra.Command{
	Use:   "stopwords",
	Short: "List the active stopwords, including --stopword extras",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, _, err := setup(cmd)
		if err != nil {
			return err
		}
		return newApp(cmd, p).Stopwords()
	},
}

// openCorpus configures logging and opens a database written by prepare --sqlite
func openCorpus(ctx context.Context, cmd *cobra.Command, path string) (*store.SQLite, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}
	level, _ := config.ParseLevel(cfg.LogLevel)
	setupLogger(level)

	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("corpus database: %w", err)
	}
	db, err := store.OpenSQLite(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	return db, nil
}

var corpusCmd = &cobra.Command{
	Use:   "corpus <database>",
	Short: "Summarize a corpus stored with prepare --sqlite",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		top, _ := cmd.Flags().GetInt("top")
		return run(func(ctx context.Context) error {
			db, err := openCorpus(ctx, cmd, args[0])
			if err != nil {
				return err
			}
			defer db.Close()
			return newApp(cmd, nil).Corpus(ctx, db, top)
		})
	},
}

var exportCmd = &cobra.Command{
	Use:   "export <database>",
	Short: "Write a corpus stored with prepare --sqlite as JSON lines",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(func(ctx context.Context) error {
			db, err := openCorpus(ctx, cmd, args[0])
			if err != nil {
				return err
			}
			defer db.Close()
			return newApp(cmd, nil).Export(ctx, db)
		})
	},
}

func init() {
	pf := rootCmd.PersistentFlags()

	// configuration sources
	pf.String("config", "", "YAML configuration file")
	pf.String("env-file", "", "dotenv file (default: .env when present)")

	// pipeline
	pf.StringP("language", "l", "", "language of the posts: ru or en (default: ru)")
	pf.String("tokenizer", "", "tokenizer: regexp or prose (default: regexp)")
	pf.Bool("nfc", false, "compose Unicode (NFC) before tokenizing")
	pf.StringSlice("analyzer", nil, "analyzers tried in order: dictionary, steos, golem, snowball (default: steos for ru, golem for en)")
	pf.String("steos-dict", "", "SteosMorphy dictionary file (default: the one shipped with the module)")
	pf.String("dictionary", "", "YAML morphological dictionary for the dictionary analyzer")
	pf.String("stopwords", "", "YAML stopword list replacing the built-in one")
	pf.StringSliceP("stopword", "s", nil, "extra stopwords (repeatable)")
	pf.Bool("prose-tags", false, "tag golem parses with the prose tagger (English only)")
	pf.String("fallback", "", "unparsed tokens when preparing: skip or keep (default: skip)")

	// input
	pf.StringP("format", "f", "lines", "input format: lines, jsonl or whole")
	pf.Bool("html", false, "extract text from HTML sources (readability for URLs)")
	pf.String("selector", "", "CSS selector; each matching element is one document")

	// other flags
	pf.BoolP("quiet", "q", false, "Suppress warnings and progress output")
	pf.BoolP("debug", "D", false, "Enable debug logging")
	_ = pf.MarkHidden("debug")

	prepareCmd.Flags().Bool("all-pos", false, "keep every part of speech, not only nouns")
	prepareCmd.Flags().String("sqlite", "", "also store documents in this SQLite database")

	statsCmd.Flags().Bool("all-pos", false, "keep every part of speech, not only nouns")
	statsCmd.Flags().Int("top", 10, "number of top lemmas and URLs to report")
	statsCmd.Flags().Bool("llm-tokens", false, "count LLM tokens (cl100k_base)")

	bowCmd.Flags().Bool("all-pos", false, "keep every part of speech, not only nouns")
	bowCmd.Flags().Int("no-below", 5, "drop lemmas found in fewer documents")
	bowCmd.Flags().Float64("no-above", 0.5, "drop lemmas found in more than this fraction of documents")
	bowCmd.Flags().Int("keep-n", 100000, "keep at most this many lemmas (0 keeps all)")
	bowCmd.Flags().String("dict", "", "write the dictionary in gensim text format to this file")

	corpusCmd.Flags().Int("top", 20, "number of top lemmas to report")

	rootCmd.AddCommand(normalizeCmd, prepareCmd, urlsCmd, statsCmd, bowCmd, stopwordsCmd, corpusCmd, exportCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
