package stopword

import (
	"embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed lists/*.yaml
var lists embed.FS

// Source provides the default stopword set for a language.
type Source interface {
	LoadDefault(lang string) (*Set, error)
}

// list is the on-disk stoplist format
type list struct {
	Language string   `yaml:"language"`
	Terms    []string `yaml:"terms"`
}

// Embedded serves the stoplists compiled into the binary ("ru" and "en").
type Embedded struct{}

// LoadDefault returns a fresh set for lang; callers may extend it freely.
func (Embedded) LoadDefault(lang string) (*Set, error) {
	lang = strings.ToLower(strings.TrimSpace(lang))
	data, err := lists.ReadFile("lists/" + lang + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedLanguage, lang)
	}

	l, err := parseList(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse embedded stoplist %q: %w", lang, err)
	}
	return New(lang, l.Terms...), nil
}

// Languages lists the languages Embedded can load.
func (Embedded) Languages() []string {
	entries, err := lists.ReadDir("lists")
	if err != nil {
		return nil
	}
	langs := make([]string, 0, len(entries))
	for _, e := range entries {
		langs = append(langs, strings.TrimSuffix(e.Name(), ".yaml"))
	}
	return langs
}

// LoadFile reads a YAML stoplist ("language" and "terms" keys) from path.
// Terms are validated the same way Extend validates them.
func LoadFile(path string) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read stoplist %q: %w", path, err)
	}

	l, err := parseList(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse stoplist %q: %w", path, err)
	}

	s := New(l.Language)
	if err := s.Extend(l.Terms...); err != nil {
		return nil, fmt.Errorf("invalid stoplist %q: %w", path, err)
	}
	return s, nil
}

func parseList(data []byte) (list, error) {
	var l list
	if err := yaml.Unmarshal(data, &l); err != nil {
		return list{}, err
	}
	return l, nil
}
