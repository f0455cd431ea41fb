// Package store persists normalized documents to SQLite so a corpus can be
// prepared once and loaded by topic-modeling jobs later.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Record is one stored document.
type Record struct {
	ID         string
	Source     string
	Text       string
	Normalized string
	Lemmas     []string // prepared lemmas, document order
	URLs       map[string]int
	CreatedAt  time.Time
}

// LemmaFreq is a lemma with its corpus-wide count and document frequency.
type LemmaFreq struct {
	Lemma string `json:"lemma"`
	Count int    `json:"count"`
	Docs  int    `json:"docs"`
}

// SQLite is a document store backed by a single database file.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path with WAL mode
// and foreign keys enabled.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA foreign_keys=ON"} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

// Close closes the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

func initSchema(ctx context.Context, db *sql.DB) error {
	const schema = `
CREATE TABLE IF NOT EXISTS docs (
	id TEXT PRIMARY KEY,
	source TEXT NOT NULL,
	text TEXT NOT NULL,
	normalized TEXT NOT NULL,
	created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS doc_lemmas (
	doc_id TEXT NOT NULL,
	position INTEGER NOT NULL,
	lemma TEXT NOT NULL,
	PRIMARY KEY(doc_id, position),
	FOREIGN KEY(doc_id) REFERENCES docs(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_doc_lemmas_lemma ON doc_lemmas(lemma);

CREATE TABLE IF NOT EXISTS doc_urls (
	doc_id TEXT NOT NULL,
	url TEXT NOT NULL,
	count INTEGER NOT NULL,
	PRIMARY KEY(doc_id, url),
	FOREIGN KEY(doc_id) REFERENCES docs(id) ON DELETE CASCADE
);
`
	_, err := db.ExecContext(ctx, schema)
	return err
}

// Save inserts or replaces a document with its lemmas and URLs in one
// transaction.
func (s *SQLite) Save(ctx context.Context, r Record) error {
	if r.ID == "" {
		return errors.New("record has no id")
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	const upsert = `
INSERT INTO docs (id, source, text, normalized, created_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	source=excluded.source,
	text=excluded.text,
	normalized=excluded.normalized,
	created_at=excluded.created_at;
`
	if _, err := tx.ExecContext(ctx, upsert, r.ID, r.Source, r.Text, r.Normalized,
		r.CreatedAt.UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("save document %s: %w", r.ID, err)
	}

	if err := replaceLemmas(ctx, tx, r.ID, r.Lemmas); err != nil {
		return fmt.Errorf("save lemmas for %s: %w", r.ID, err)
	}
	if err := replaceURLs(ctx, tx, r.ID, r.URLs); err != nil {
		return fmt.Errorf("save urls for %s: %w", r.ID, err)
	}
	return tx.Commit()
}

func replaceLemmas(ctx context.Context, tx *sql.Tx, docID string, lemmas []string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM doc_lemmas WHERE doc_id=?`, docID); err != nil {
		return err
	}
	if len(lemmas) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO doc_lemmas (doc_id, position, lemma) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for i, lemma := range lemmas {
		if _, err := stmt.ExecContext(ctx, docID, i, lemma); err != nil {
			return err
		}
	}
	return nil
}

func replaceURLs(ctx context.Context, tx *sql.Tx, docID string, urls map[string]int) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM doc_urls WHERE doc_id=?`, docID); err != nil {
		return err
	}
	if len(urls) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO doc_urls (doc_id, url, count) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for u, n := range urls {
		if _, err := stmt.ExecContext(ctx, docID, u, n); err != nil {
			return err
		}
	}
	return nil
}

// Get loads a document by id. The bool is false when it does not exist.
func (s *SQLite) Get(ctx context.Context, id string) (Record, bool, error) {
	var (
		r       Record
		created string
	)
	err := s.db.QueryRowContext(ctx, `
SELECT id, source, text, normalized, created_at
FROM docs
WHERE id = ?;
`, id).Scan(&r.ID, &r.Source, &r.Text, &r.Normalized, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, err
	}
	if parsed, perr := time.Parse(time.RFC3339, created); perr == nil {
		r.CreatedAt = parsed
	}

	if r.Lemmas, err = s.Lemmas(ctx, id); err != nil {
		return Record{}, false, err
	}
	if r.URLs, err = s.loadURLs(ctx, id); err != nil {
		return Record{}, false, err
	}
	return r, true, nil
}

// Lemmas returns a document's prepared lemmas in document order.
func (s *SQLite) Lemmas(ctx context.Context, id string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT lemma FROM doc_lemmas WHERE doc_id=? ORDER BY position`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lemmas []string
	for rows.Next() {
		var l string
		if err := rows.Scan(&l); err != nil {
			return nil, err
		}
		lemmas = append(lemmas, l)
	}
	return lemmas, rows.Err()
}

func (s *SQLite) loadURLs(ctx context.Context, id string) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT url, count FROM doc_urls WHERE doc_id=?`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	urls := make(map[string]int)
	for rows.Next() {
		var (
			u string
			n int
		)
		if err := rows.Scan(&u, &n); err != nil {
			return nil, err
		}
		urls[u] = n
	}
	return urls, rows.Err()
}

// Count returns the number of stored documents.
func (s *SQLite) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM docs`).Scan(&n)
	return n, err
}

// IDs returns every document id in ascending order. ULIDs sort by creation.
func (s *SQLite) IDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM docs ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// TopLemmas returns the k most frequent lemmas across the corpus.
func (s *SQLite) TopLemmas(ctx context.Context, k int) ([]LemmaFreq, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT lemma, COUNT(*) AS n, COUNT(DISTINCT doc_id) AS docs
FROM doc_lemmas
GROUP BY lemma
ORDER BY n DESC, lemma ASC
LIMIT ?;
`, k)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []LemmaFreq
	for rows.Next() {
		var f LemmaFreq
		if err := rows.Scan(&f.Lemma, &f.Count, &f.Docs); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}
