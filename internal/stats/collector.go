package stats

import (
	"sort"
)

// LemmaCount is a lemma with its number of occurrences.
type LemmaCount struct {
	Lemma string `json:"lemma"`
	Count int    `json:"count"`
}

// Report summarizes a corpus.
type Report struct {
	Documents      int            `json:"documents"`
	Characters     int            `json:"characters"`
	Words          int            `json:"words"`
	LLMTokens      int            `json:"llm_tokens,omitempty"`
	URLs           int            `json:"urls"`
	Lemmas         int            `json:"lemmas"`
	DistinctLemmas int            `json:"distinct_lemmas"`
	EmptyPrepared  int            `json:"empty_prepared"`
	TopLemmas      []LemmaCount   `json:"top_lemmas,omitempty"`
	TopURLs        map[string]int `json:"top_urls,omitempty"`
}

// Collector accumulates per-document measurements. Not safe for concurrent use.
type Collector struct {
	chars  Counter
	words  Counter
	tokens Counter // nil when LLM token counting is disabled

	report Report
	lemmas map[string]int
	urls   map[string]int
}

// NewCollector returns a Collector. tokens may be nil.
func NewCollector(tokens Counter) *Collector {
	return &Collector{
		chars:  CharCounter{},
		words:  WordCounter{},
		tokens: tokens,
		lemmas: make(map[string]int),
		urls:   make(map[string]int),
	}
}

// Add records one document: its raw text, the URL counts found in it and the
// lemmas prepared from it.
func (c *Collector) Add(text string, urls map[string]int, lemmas []string) {
	c.report.Documents++
	c.report.Characters += c.chars.Count(text)
	c.report.Words += c.words.Count(text)
	if c.tokens != nil {
		c.report.LLMTokens += c.tokens.Count(text)
	}

	for u, n := range urls {
		c.urls[u] += n
		c.report.URLs += n
	}

	if len(lemmas) == 0 {
		c.report.EmptyPrepared++
	}
	for _, l := range lemmas {
		c.lemmas[l]++
	}
	c.report.Lemmas += len(lemmas)
}

// Report returns the totals with the topN most frequent lemmas and URLs
// (ties broken alphabetically). topN <= 0 omits both lists.
func (c *Collector) Report(topN int) Report {
	r := c.report
	r.DistinctLemmas = len(c.lemmas)
	if topN <= 0 {
		return r
	}

	r.TopLemmas = top(c.lemmas, topN)
	if len(c.urls) > 0 {
		r.TopURLs = make(map[string]int)
		for _, lc := range top(c.urls, topN) {
			r.TopURLs[lc.Lemma] = lc.Count
		}
	}
	return r
}

func top(counts map[string]int, n int) []LemmaCount {
	all := make([]LemmaCount, 0, len(counts))
	for k, v := range counts {
		all = append(all, LemmaCount{Lemma: k, Count: v})
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Count != all[j].Count {
			return all[i].Count > all[j].Count
		}
		return all[i].Lemma < all[j].Lemma
	})
	if len(all) > n {
		all = all[:n]
	}
	return all
}
