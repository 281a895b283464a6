package store

import (
	"bytes"
	"context"
	"io"

	"github.com/dsnet/compress/bzip2"

	"github.com/falcon-search/falcon/ferr"
)

// Document is one stored (id, title, content) row. Content is decoded
// only by FetchWithContent; Fetch never pays the decompression cost
// when only titles are needed.
type Document struct {
	ID      uint64
	Title   string
	Content string
}

// DocumentStore persists document bodies, compressed, and assigns
// monotonic ids. Documents are created once by Insert and never
// mutated; only a bulk Wipe removes them.
type DocumentStore struct {
	store *Store
}

// NewDocumentStore wraps store for document persistence.
func NewDocumentStore(store *Store) *DocumentStore {
	return &DocumentStore{store: store}
}

// Insert compresses content (UTF-8 encoded, then bzip2 at level 9),
// assigns the next id, persists the row, and returns the new id.
func (d *DocumentStore) Insert(ctx context.Context, title, content string) (uint64, error) {
	if title == "" {
		return 0, ferr.Storage("DocumentStore.Insert", ferr.ErrInvalidInput)
	}

	compressed, err := compress(content)
	if err != nil {
		return 0, ferr.Storage("DocumentStore.Insert: compress", err)
	}

	res, err := d.store.db.ExecContext(ctx,
		`INSERT INTO documents(title, content) VALUES (?, ?)`, title, compressed)
	if err != nil {
		return 0, ferr.Storage("DocumentStore.Insert", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, ferr.Storage("DocumentStore.Insert: last insert id", err)
	}
	return uint64(id), nil
}

// InsertWithID persists a document under a caller-supplied id, used
// when Indexer.Add is invoked with an externally assigned document id.
// The caller is responsible for ensuring id does not collide with an
// existing row.
func (d *DocumentStore) InsertWithID(ctx context.Context, id uint64, title, content string) error {
	if title == "" {
		return ferr.Storage("DocumentStore.InsertWithID", ferr.ErrInvalidInput)
	}

	compressed, err := compress(content)
	if err != nil {
		return ferr.Storage("DocumentStore.InsertWithID: compress", err)
	}

	_, err = d.store.db.ExecContext(ctx,
		`INSERT INTO documents(id, title, content) VALUES (?, ?, ?)`, id, title, compressed)
	if err != nil {
		return ferr.Storage("DocumentStore.InsertWithID", err)
	}
	return nil
}

// Fetch returns (id, title) for each id that exists; missing ids are
// silently omitted, and result order is unspecified.
func (d *DocumentStore) Fetch(ctx context.Context, ids []uint64) ([]Document, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query, args := inClauseQuery(`SELECT id, title FROM documents WHERE id IN (`, ids)
	rows, err := d.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, ferr.Storage("DocumentStore.Fetch", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var doc Document
		if err := rows.Scan(&doc.ID, &doc.Title); err != nil {
			return nil, ferr.Storage("DocumentStore.Fetch: scan", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, ferr.Storage("DocumentStore.Fetch: rows", err)
	}
	return docs, nil
}

// FetchWithContent is Fetch plus decompressed content.
func (d *DocumentStore) FetchWithContent(ctx context.Context, ids []uint64) ([]Document, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query, args := inClauseQuery(`SELECT id, title, content FROM documents WHERE id IN (`, ids)
	rows, err := d.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, ferr.Storage("DocumentStore.FetchWithContent", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var doc Document
		var compressed []byte
		if err := rows.Scan(&doc.ID, &doc.Title, &compressed); err != nil {
			return nil, ferr.Storage("DocumentStore.FetchWithContent: scan", err)
		}
		content, err := decompress(compressed)
		if err != nil {
			return nil, ferr.Storage("DocumentStore.FetchWithContent: decompress", err)
		}
		doc.Content = content
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, ferr.Storage("DocumentStore.FetchWithContent: rows", err)
	}
	return docs, nil
}

// Wipe deletes all documents.
func (d *DocumentStore) Wipe(ctx context.Context) error {
	if _, err := d.store.db.ExecContext(ctx, `DELETE FROM documents`); err != nil {
		return ferr.Storage("DocumentStore.Wipe", err)
	}
	return nil
}

// All returns (id, title) for every stored document, for the CLI's
// document-dump mode.
func (d *DocumentStore) All(ctx context.Context) ([]Document, error) {
	rows, err := d.store.db.QueryContext(ctx, `SELECT id, title FROM documents ORDER BY id`)
	if err != nil {
		return nil, ferr.Storage("DocumentStore.All", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var doc Document
		if err := rows.Scan(&doc.ID, &doc.Title); err != nil {
			return nil, ferr.Storage("DocumentStore.All: scan", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, ferr.Storage("DocumentStore.All: rows", err)
	}
	return docs, nil
}

func compress(content string) ([]byte, error) {
	var buf bytes.Buffer
	w, err := bzip2.NewWriter(&buf, &bzip2.WriterConfig{Level: 9})
	if err != nil {
		return nil, err
	}
	if _, err := w.Write([]byte(content)); err != nil {
		w.Close()
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decompress(compressed []byte) (string, error) {
	if len(compressed) == 0 {
		return "", nil
	}
	r, err := bzip2.NewReader(bytes.NewReader(compressed), nil)
	if err != nil {
		return "", err
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
