// Package config loads winnow settings and builds the normalization pipeline from them.
//
// Settings come from, in increasing priority: built-in defaults, an optional
// YAML file, a dotenv file, and WINNOW_* environment variables. Command-line
// flags are applied on top by the CLI.
//
// Example config.yaml:
//
//	language: ru
//	tokenizer: regexp
//	analyzers: [dictionary, steos]
//	dictionary_path: ./slang.yaml
//	extra_stopwords: [это, весь]
//	fallback: skip
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"

	"github.com/chriscorrea/winnow/internal/normalize"
)

var (
	// ErrUnknownTokenizer is returned for a tokenizer name other than regexp or prose
	ErrUnknownTokenizer = errors.New("unknown tokenizer")
	// ErrUnknownAnalyzer is returned for an analyzer name other than dictionary, steos, golem or snowball
	ErrUnknownAnalyzer = errors.New("unknown analyzer")
	// ErrInvalidConfig covers other inconsistent settings
	ErrInvalidConfig = errors.New("invalid configuration")
)

// tokenizer and analyzer names
const (
	TokenizerRegexp = "regexp"
	TokenizerProse  = "prose"

	AnalyzerDictionary = "dictionary"
	AnalyzerSteos      = "steos"
	AnalyzerGolem      = "golem"
	AnalyzerSnowball   = "snowball"
)

// defaultAnalyzers are used when no analyzers are configured. Languages
// without an entry fall back to snowball.
var defaultAnalyzers = map[string][]string{
	"ru": {AnalyzerSteos},
	"en": {AnalyzerGolem},
}

// Config holds all pipeline settings.
type Config struct {
	Language       string   `yaml:"language" env:"WINNOW_LANGUAGE" env-default:"ru"`
	Tokenizer      string   `yaml:"tokenizer" env:"WINNOW_TOKENIZER" env-default:"regexp"`
	NFC            bool     `yaml:"nfc" env:"WINNOW_NFC"`
	Analyzers      []string `yaml:"analyzers" env:"WINNOW_ANALYZERS" env-separator:","`
	DictionaryPath string   `yaml:"dictionary_path" env:"WINNOW_DICTIONARY"`
	SteosDictPath  string   `yaml:"steos_dict_path" env:"WINNOW_STEOS_DICT"`
	StopwordsPath  string   `yaml:"stopwords_path" env:"WINNOW_STOPWORDS"`
	ExtraStopwords []string `yaml:"extra_stopwords" env:"WINNOW_EXTRA_STOPWORDS" env-separator:","`
	// AllPOS keeps every part of speech when preparing for topic modeling
	AllPOS         bool     `yaml:"all_pos" env:"WINNOW_ALL_POS"`
	Fallback       string   `yaml:"fallback" env:"WINNOW_FALLBACK" env-default:"skip"`
	// ProseTags tags golem parses with the prose tagger (English only)
	ProseTags      bool     `yaml:"prose_tags" env:"WINNOW_PROSE_TAGS"`
	LogLevel       string   `yaml:"log_level" env:"WINNOW_LOG_LEVEL" env-default:"error"`
}

// Loader reads configuration from files and the environment.
type Loader struct {
	ConfigPath string // optional YAML file
	EnvFile    string // optional dotenv file, ".env" when empty
}

// Load reads the dotenv file (if present), the YAML file (if set) and the
// environment, then validates the result.
func (l Loader) Load() (Config, error) {
	envFile := l.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	// existing environment variables win over the dotenv file
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load env file %q: %w", envFile, err)
	}

	var cfg Config
	if l.ConfigPath != "" {
		if err := cleanenv.ReadConfig(l.ConfigPath, &cfg); err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("read env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks names and required paths.
func (c Config) Validate() error {
	switch c.Tokenizer {
	case TokenizerRegexp, TokenizerProse:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownTokenizer, c.Tokenizer)
	}

	for _, a := range c.AnalyzerNames() {
		switch a {
		case AnalyzerDictionary:
			if c.DictionaryPath == "" {
				return fmt.Errorf("%w: dictionary analyzer needs dictionary_path", ErrInvalidConfig)
			}
		case AnalyzerSteos:
			if c.lang() != "ru" {
				return fmt.Errorf("%w: steos analyzer is Russian only, language is %q", ErrInvalidConfig, c.Language)
			}
		case AnalyzerGolem, AnalyzerSnowball:
		default:
			return fmt.Errorf("%w: %q", ErrUnknownAnalyzer, a)
		}
	}

	// prose tags English text; Russian words would all come out as nouns
	if c.ProseTags && c.lang() != "en" {
		return fmt.Errorf("%w: prose_tags is English only, language is %q", ErrInvalidConfig, c.Language)
	}

	if _, err := normalize.ParseFallback(c.Fallback); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// OnlyNouns reports whether topic-model preparation keeps nouns only.
func (c Config) OnlyNouns() bool {
	return !c.AllPOS
}

// AnalyzerNames returns the configured analyzers in order, or the default
// chain for the language when none are configured.
func (c Config) AnalyzerNames() []string {
	names := make([]string, 0, len(c.Analyzers))
	for _, a := range c.Analyzers {
		if a = strings.TrimSpace(a); a != "" {
			names = append(names, a)
		}
	}
	if len(names) > 0 {
		return names
	}
	if d, ok := defaultAnalyzers[c.lang()]; ok {
		return append(names, d...)
	}
	return append(names, AnalyzerSnowball)
}

// HasPOS reports whether any configured analyzer produces part-of-speech tags
// for the configured language. Without tags the noun filter drops every token.
func (c Config) HasPOS() bool {
	for _, a := range c.AnalyzerNames() {
		switch a {
		case AnalyzerDictionary:
			return true
		case AnalyzerSteos:
			if c.lang() == "ru" {
				return true
			}
		case AnalyzerGolem:
			if c.ProseTags && c.lang() == "en" {
				return true
			}
		}
	}
	return false
}

// lang returns the two-letter code for the configured language
func (c Config) lang() string {
	switch l := strings.ToLower(strings.TrimSpace(c.Language)); l {
	case "russian":
		return "ru"
	case "english":
		return "en"
	default:
		return l
	}
}

// ParseLevel converts a level name to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "", "error":
		return slog.LevelError, nil
	default:
		return slog.LevelError, fmt.Errorf("unknown log level %q", s)
	}
}
