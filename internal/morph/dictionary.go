package morph

import (
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Dictionary is an in-memory morphological dictionary keyed by lowercase
// word form. It is the adapter for exported analyzer tables (for example an
// OpenCorpora dump) and the only adapter that carries real POS tags for
// Russian.
//
// A Dictionary must not be modified with Add once it is shared between goroutines.
type Dictionary struct {
	lang  string
	forms map[string][]Parse
}

// dictionaryFile is the YAML layout:
//
//	language: ru
//	forms:
//	  кошки:
//	    - {lemma: кошка, pos: NOUN}
type dictionaryFile struct {
	Language string                       `yaml:"language"`
	Forms    map[string][]dictionaryEntry `yaml:"forms"`
}

type dictionaryEntry struct {
	Lemma string `yaml:"lemma"`
	POS   string `yaml:"pos"`
}

// NewDictionary creates an empty dictionary for lang.
func NewDictionary(lang string) *Dictionary {
	return &Dictionary{
		lang:  lang,
		forms: make(map[string][]Parse),
	}
}

// LoadDictionary reads a YAML dictionary from path.
func LoadDictionary(path string) (*Dictionary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dictionary %q: %w", path, err)
	}
	defer f.Close()

	d, err := ReadDictionary(f)
	if err != nil {
		return nil, fmt.Errorf("failed to load dictionary %q: %w", path, err)
	}
	return d, nil
}

// ReadDictionary decodes a YAML dictionary from r. Parses keep their file
// order as rank order.
func ReadDictionary(r io.Reader) (*Dictionary, error) {
	var file dictionaryFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil && err != io.EOF {
		return nil, err
	}

	d := NewDictionary(file.Language)
	for form, entries := range file.Forms {
		parses := make([]Parse, 0, len(entries))
		for _, e := range entries {
			if strings.TrimSpace(e.Lemma) == "" {
				return nil, fmt.Errorf("form %q: empty lemma", form)
			}
			pos, ok := ParsePOS(e.POS)
			if !ok && e.POS != "" {
				return nil, fmt.Errorf("form %q: unknown part of speech %q", form, e.POS)
			}
			parses = append(parses, Parse{Lemma: e.Lemma, POS: pos})
		}
		d.Add(form, parses...)
	}
	return d, nil
}

// Language returns the dictionary language.
func (d *Dictionary) Language() string {
	return d.lang
}

// Add appends parses for form; earlier parses keep the better ranks.
func (d *Dictionary) Add(form string, parses ...Parse) {
	key := strings.ToLower(form)
	d.forms[key] = ranked(append(d.forms[key], parses...))
}

// Len returns the number of known forms.
func (d *Dictionary) Len() int {
	return len(d.forms)
}

// Parse implements Analyzer. Lookup is case-insensitive.
func (d *Dictionary) Parse(token string) []Parse {
	parses, ok := d.forms[strings.ToLower(token)]
	if !ok {
		return nil
	}
	out := make([]Parse, len(parses))
	copy(out, parses)
	return out
}
