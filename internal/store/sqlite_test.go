package store_test

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/chriscorrea/winnow/internal/store"
)

func openTestStore(t *testing.T) *store.SQLite {
	t.Helper()
	st, err := store.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "corpus.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func TestSQLite_SaveGet(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)

	rec := store.Record{
		ID:         "01HZX0000000000000000000AA",
		Source:     "wall.txt",
		Text:       "Кошки спят http://a.ru http://a.ru",
		Normalized: "кошка спать",
		Lemmas:     []string{"кошка", "сон", "кошка"},
		URLs:       map[string]int{"http://a.ru": 2},
		CreatedAt:  time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	if err := st.Save(ctx, rec); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, found, err := st.Get(ctx, rec.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !found {
		t.Fatal("Get: document not found")
	}
	if got.Source != rec.Source || got.Text != rec.Text || got.Normalized != rec.Normalized {
		t.Errorf("Get() = %+v, want %+v", got, rec)
	}
	if !reflect.DeepEqual(got.Lemmas, rec.Lemmas) {
		t.Errorf("Lemmas = %q, want %q", got.Lemmas, rec.Lemmas)
	}
	if !reflect.DeepEqual(got.URLs, rec.URLs) {
		t.Errorf("URLs = %v, want %v", got.URLs, rec.URLs)
	}
	if !got.CreatedAt.Equal(rec.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, rec.CreatedAt)
	}

	if _, found, err := st.Get(ctx, "missing"); err != nil || found {
		t.Errorf("Get(missing) = found %v, err %v", found, err)
	}
}

func TestSQLite_SaveReplaces(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)

	rec := store.Record{ID: "a", Source: "s", Lemmas: []string{"один", "два"}, URLs: map[string]int{"http://x.ru": 1}}
	if err := st.Save(ctx, rec); err != nil {
		t.Fatal(err)
	}
	rec.Lemmas = []string{"три"}
	rec.URLs = nil
	if err := st.Save(ctx, rec); err != nil {
		t.Fatal(err)
	}

	got, _, err := st.Get(ctx, "a")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got.Lemmas, []string{"три"}) || len(got.URLs) != 0 {
		t.Errorf("after replace: lemmas %q, urls %v", got.Lemmas, got.URLs)
	}
	if n, _ := st.Count(ctx); n != 1 {
		t.Errorf("Count() = %d, want 1", n)
	}
}

func TestSQLite_SaveRequiresID(t *testing.T) {
	st := openTestStore(t)
	if err := st.Save(context.Background(), store.Record{Text: "x"}); err == nil {
		t.Error("Save() without id expected error")
	}
}

func TestSQLite_TopLemmasAndIDs(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)

	records := []store.Record{
		{ID: "b", Source: "s", Lemmas: []string{"кошка", "кошка", "сайт"}},
		{ID: "a", Source: "s", Lemmas: []string{"кошка", "сталь"}},
		{ID: "c", Source: "s"},
	}
	for _, r := range records {
		if err := st.Save(ctx, r); err != nil {
			t.Fatal(err)
		}
	}

	top, err := st.TopLemmas(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	expected := []store.LemmaFreq{
		{Lemma: "кошка", Count: 3, Docs: 2},
		{Lemma: "сайт", Count: 1, Docs: 1},
	}
	if !reflect.DeepEqual(top, expected) {
		t.Errorf("TopLemmas(2) = %+v, want %+v", top, expected)
	}

	ids, err := st.IDs(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(ids, []string{"a", "b", "c"}) {
		t.Errorf("IDs() = %q", ids)
	}
}

func TestSQLite_Reopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "corpus.db")

	st, err := store.OpenSQLite(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	if err := st.Save(ctx, store.Record{ID: "x", Source: "s", Lemmas: []string{"l"}}); err != nil {
		t.Fatal(err)
	}
	st.Close()

	st, err = store.OpenSQLite(ctx, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer st.Close()
	if lemmas, err := st.Lemmas(ctx, "x"); err != nil || !reflect.DeepEqual(lemmas, []string{"l"}) {
		t.Errorf("Lemmas after reopen = %q, %v", lemmas, err)
	}
}
