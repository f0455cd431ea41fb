// Package bow builds bag-of-words corpora from prepared lemma lists.
//
// It mirrors the gensim workflow topic-model pipelines expect: a Dictionary
// maps lemmas to integer ids and tracks document frequencies, FilterExtremes
// prunes rare and ubiquitous lemmas, Doc2Bow turns a lemma list into sparse
// counts, and TFIDF reweights those counts.
//
// Usage Example:
//
//	dict := bow.NewDictionary()
//	dict.AddDocuments(prepared)
//	dict.FilterExtremes(5, 0.5, 100000)
//	vec := dict.Doc2Bow(prepared[0])
package bow

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"sort"
)

// Entry is one sparse bag-of-words component.
type Entry struct {
	ID    int `json:"id"`
	Count int `json:"count"`
}

// Dictionary maps lemmas to ids. Ids are dense, starting at 0.
type Dictionary struct {
	token2id map[string]int
	id2token []string
	dfs      []int // document frequency per id
	numDocs  int
	numPos   int // total lemmas seen
}

// NewDictionary returns an empty dictionary.
func NewDictionary() *Dictionary {
	return &Dictionary{token2id: make(map[string]int)}
}

// AddDocuments adds every document to the dictionary.
func (d *Dictionary) AddDocuments(docs [][]string) {
	for _, doc := range docs {
		d.AddDocument(doc)
	}
	slog.Debug("dictionary updated", "documents", d.numDocs, "lemmas", len(d.id2token), "positions", d.numPos)
}

// AddDocument counts one document. Lemmas new to the dictionary get ids in
// sorted order, so ids do not depend on word order within a document.
func (d *Dictionary) AddDocument(doc []string) {
	counts := countTokens(doc)

	newTokens := make([]string, 0)
	for tok := range counts {
		if _, ok := d.token2id[tok]; !ok {
			newTokens = append(newTokens, tok)
		}
	}
	sort.Strings(newTokens)
	for _, tok := range newTokens {
		d.token2id[tok] = len(d.id2token)
		d.id2token = append(d.id2token, tok)
		d.dfs = append(d.dfs, 0)
	}

	for tok := range counts {
		d.dfs[d.token2id[tok]]++
	}
	d.numDocs++
	d.numPos += len(doc)
}

// Doc2Bow returns the sparse counts of doc, sorted by id. Lemmas missing
// from the dictionary are ignored.
func (d *Dictionary) Doc2Bow(doc []string) []Entry {
	counts := make(map[int]int)
	for _, tok := range doc {
		if id, ok := d.ID(tok); ok {
			counts[id]++
		}
	}

	vec := make([]Entry, 0, len(counts))
	for id, n := range counts {
		vec = append(vec, Entry{ID: id, Count: n})
	}
	sort.Slice(vec, func(i, j int) bool { return vec[i].ID < vec[j].ID })
	return vec
}

// FilterExtremes drops lemmas found in fewer than noBelow documents or in
// more than noAbove (a fraction) of documents, then keeps at most keepN of
// the most frequent remaining lemmas (keepN <= 0 keeps all). Ids are
// reassigned densely, preserving relative order.
func (d *Dictionary) FilterExtremes(noBelow int, noAbove float64, keepN int) {
	maxDF := int(noAbove * float64(d.numDocs))

	good := make([]int, 0, len(d.id2token))
	for id, df := range d.dfs {
		if df >= noBelow && df <= maxDF {
			good = append(good, id)
		}
	}

	if keepN > 0 && len(good) > keepN {
		sort.SliceStable(good, func(i, j int) bool { return d.dfs[good[i]] > d.dfs[good[j]] })
		good = good[:keepN]
		sort.Ints(good)
	}

	removed := len(d.id2token) - len(good)
	d.compact(good)
	slog.Debug("dictionary filtered", "noBelow", noBelow, "noAbove", noAbove, "keepN", keepN,
		"removed", removed, "kept", len(d.id2token))
}

// compact keeps only the given ids (sorted ascending) and renumbers them
func (d *Dictionary) compact(keep []int) {
	token2id := make(map[string]int, len(keep))
	id2token := make([]string, len(keep))
	dfs := make([]int, len(keep))
	for newID, oldID := range keep {
		tok := d.id2token[oldID]
		token2id[tok] = newID
		id2token[newID] = tok
		dfs[newID] = d.dfs[oldID]
	}
	d.token2id, d.id2token, d.dfs = token2id, id2token, dfs
}

// Len returns the number of lemmas.
func (d *Dictionary) Len() int {
	return len(d.id2token)
}

// NumDocs returns the number of documents added.
func (d *Dictionary) NumDocs() int {
	return d.numDocs
}

// ID returns the id of token.
func (d *Dictionary) ID(token string) (int, bool) {
	id, ok := d.token2id[token]
	return id, ok
}

// Token returns the lemma with the given id, or "" when out of range.
func (d *Dictionary) Token(id int) string {
	if id < 0 || id >= len(d.id2token) {
		return ""
	}
	return d.id2token[id]
}

// DocFreq returns the number of documents containing the lemma with the given id.
func (d *Dictionary) DocFreq(id int) int {
	if id < 0 || id >= len(d.dfs) {
		return 0
	}
	return d.dfs[id]
}

// WriteText writes the dictionary in gensim's save_as_text layout: the
// document count, then one "id<TAB>lemma<TAB>docfreq" line per id.
func (d *Dictionary) WriteText(w io.Writer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%d\n", d.numDocs)
	for id := 0; id < d.Len(); id++ {
		fmt.Fprintf(bw, "%d\t%s\t%d\n", id, d.Token(id), d.DocFreq(id))
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to write dictionary: %w", err)
	}
	return nil
}

func countTokens(doc []string) map[string]int {
	counts := make(map[string]int, len(doc))
	for _, tok := range doc {
		counts[tok]++
	}
	return counts
}
