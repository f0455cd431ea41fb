package bow

import (
	"log/slog"
	"math"
)

// Weight is one TF-IDF weighted component.
type Weight struct {
	ID    int     `json:"id"`
	Value float64 `json:"value"`
}

// TFIDF weights bag-of-words vectors by inverse document frequency.
// idf(t) = log2(N / df(t)); vectors are L2-normalized and zero weights dropped.
type TFIDF struct {
	idf []float64
}

// NewTFIDF precomputes idf values from the dictionary's document frequencies.
func NewTFIDF(d *Dictionary) *TFIDF {
	idf := make([]float64, d.Len())
	for id := range idf {
		df := d.DocFreq(id)
		if df == 0 || d.NumDocs() == 0 {
			continue
		}
		idf[id] = math.Log2(float64(d.NumDocs()) / float64(df))
	}
	slog.Debug("TF-IDF model built", "lemmas", len(idf), "documents", d.NumDocs())
	return &TFIDF{idf: idf}
}

// IDF returns the inverse document frequency of id, 0 when unknown.
func (m *TFIDF) IDF(id int) float64 {
	if id < 0 || id >= len(m.idf) {
		return 0
	}
	return m.idf[id]
}

// Weights converts raw counts into normalized TF-IDF weights, keeping id order.
func (m *TFIDF) Weights(vec []Entry) []Weight {
	weights := make([]Weight, 0, len(vec))
	var norm float64
	for _, e := range vec {
		w := float64(e.Count) * m.IDF(e.ID)
		if math.Abs(w) < 1e-12 {
			continue
		}
		weights = append(weights, Weight{ID: e.ID, Value: w})
		norm += w * w
	}

	if norm == 0 {
		return weights
	}
	norm = math.Sqrt(norm)
	for i := range weights {
		weights[i].Value /= norm
	}
	return weights
}
