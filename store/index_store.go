package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/falcon-search/falcon/ferr"
	"github.com/falcon-search/falcon/posting"
)

// IndexStore persists token -> serialized PostingList rows. A token is
// either absent or stored as exactly one PostingList; UpsertMany
// replaces by key atomically within one transaction.
type IndexStore struct {
	store *Store
}

// NewIndexStore wraps store for posting-list persistence.
func NewIndexStore(store *Store) *IndexStore {
	return &IndexStore{store: store}
}

// Get performs a point lookup. A missing token returns (nil, nil).
func (s *IndexStore) Get(ctx context.Context, token string) (*posting.PostingList, error) {
	var blob []byte
	err := s.store.db.QueryRowContext(ctx,
		`SELECT posting_list FROM indices WHERE token = ?`, token).Scan(&blob)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, ferr.Storage("IndexStore.Get", err)
	}
	pl, err := posting.Deserialize(blob)
	if err != nil {
		return nil, ferr.Storage("IndexStore.Get: deserialize", err)
	}
	return pl, nil
}

// GetMany performs a bulk lookup; tokens without a stored PostingList
// are silently omitted from the result.
func (s *IndexStore) GetMany(ctx context.Context, tokens []string) ([]*posting.PostingList, error) {
	if len(tokens) == 0 {
		return nil, nil
	}

	query, args := inClauseQueryStrings(`SELECT posting_list FROM indices WHERE token IN (`, tokens)
	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, ferr.Storage("IndexStore.GetMany", err)
	}
	defer rows.Close()

	var lists []*posting.PostingList
	for rows.Next() {
		var blob []byte
		if err := rows.Scan(&blob); err != nil {
			return nil, ferr.Storage("IndexStore.GetMany: scan", err)
		}
		pl, err := posting.Deserialize(blob)
		if err != nil {
			return nil, ferr.Storage("IndexStore.GetMany: deserialize", err)
		}
		lists = append(lists, pl)
	}
	if err := rows.Err(); err != nil {
		return nil, ferr.Storage("IndexStore.GetMany: rows", err)
	}
	return lists, nil
}

// UpsertMany inserts-or-replaces every (token, PostingList) pair in a
// single transaction: all-or-nothing with respect to failure.
func (s *IndexStore) UpsertMany(ctx context.Context, lists map[string]*posting.PostingList) error {
	if len(lists) == 0 {
		return nil
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return ferr.Storage("IndexStore.UpsertMany: begin", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO indices(token, posting_list) VALUES (?, ?)
		 ON CONFLICT(token) DO UPDATE SET posting_list = excluded.posting_list`)
	if err != nil {
		tx.Rollback()
		return ferr.Storage("IndexStore.UpsertMany: prepare", err)
	}
	defer stmt.Close()

	for token, pl := range lists {
		if _, err := stmt.ExecContext(ctx, token, pl.Serialize()); err != nil {
			tx.Rollback()
			return ferr.Storage("IndexStore.UpsertMany: exec", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return ferr.Storage("IndexStore.UpsertMany: commit", err)
	}
	return nil
}

// Wipe deletes all tokens.
func (s *IndexStore) Wipe(ctx context.Context) error {
	if _, err := s.store.db.ExecContext(ctx, `DELETE FROM indices`); err != nil {
		return ferr.Storage("IndexStore.Wipe", err)
	}
	return nil
}

// All returns every stored PostingList, for the CLI's index-dump mode.
func (s *IndexStore) All(ctx context.Context) ([]*posting.PostingList, error) {
	rows, err := s.store.db.QueryContext(ctx, `SELECT posting_list FROM indices ORDER BY token`)
	if err != nil {
		return nil, ferr.Storage("IndexStore.All", err)
	}
	defer rows.Close()

	var lists []*posting.PostingList
	for rows.Next() {
		var blob []byte
		if err := rows.Scan(&blob); err != nil {
			return nil, ferr.Storage("IndexStore.All: scan", err)
		}
		pl, err := posting.Deserialize(blob)
		if err != nil {
			return nil, ferr.Storage("IndexStore.All: deserialize", err)
		}
		lists = append(lists, pl)
	}
	if err := rows.Err(); err != nil {
		return nil, ferr.Storage("IndexStore.All: rows", err)
	}
	return lists, nil
}
