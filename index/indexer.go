// Package index implements Indexer: the write path that tokenizes a
// document, merges its n-grams into an in-memory posting-list buffer,
// and flushes that buffer to the backing store once it grows past a
// configured threshold, in one batched transaction per flush.
package index

import (
	"context"

	"github.com/falcon-search/falcon/ferr"
	"github.com/falcon-search/falcon/internal/util"
	"github.com/falcon-search/falcon/ngram"
	"github.com/falcon-search/falcon/posting"
	"github.com/falcon-search/falcon/store"
)

// state is the Indexer's lifecycle position: Open -> Dirty <-> Clean -> Closed.
type state int

const (
	stateOpen state = iota
	stateClean
	stateDirty
	stateClosed
)

// Indexer drives tokenization, buffer merge, and flush policy for one
// backing store. It is not safe for concurrent use by multiple
// goroutines: per the engine's concurrency model, each Indexer is
// owned by a single flow of control.
type Indexer struct {
	tokenizer ngram.Tokenizer
	docs      *store.DocumentStore
	index     *store.IndexStore
	limit     uint64
	logger    store.Logger

	buffer map[string]*posting.PostingList
	state  state
}

// Open builds an Indexer over an already-open Store. The caller retains
// ownership of s; closing the Indexer does not close s.
func Open(s *store.Store, tokenizer ngram.Tokenizer) *Indexer {
	return &Indexer{
		tokenizer: tokenizer,
		docs:      store.NewDocumentStore(s),
		index:     store.NewIndexStore(s),
		limit:     s.TokenPositionLimit(),
		logger:    s.Logger(),
		buffer:    make(map[string]*posting.PostingList),
		state:     stateClean,
	}
}

// Add tokenizes (title, content), merges the resulting n-grams into the
// buffer, and triggers a threshold flush. If docID is zero a document
// id is assigned by DocumentStore.Insert; a caller-supplied non-zero
// docID must not collide with an existing document. It returns the
// document id used.
func (ix *Indexer) Add(ctx context.Context, title, content string, docID uint64) (uint64, error) {
	if ix.state == stateClosed {
		return 0, ferr.Storage("Indexer.Add", ferr.ErrInvalidInput)
	}

	ix.logger.Printf("Indexer.Add: title=%q docID=%d", title, docID)

	if docID == 0 {
		id, err := ix.docs.Insert(ctx, title, content)
		if err != nil {
			return 0, err
		}
		docID = id
	} else {
		if err := ix.docs.InsertWithID(ctx, docID, title, content); err != nil {
			return 0, err
		}
	}

	tokens := ix.tokenizer.Tokenize(title, content)
	if err := ix.merge(ctx, docID, tokens); err != nil {
		return 0, err
	}

	ix.state = stateDirty
	if err := ix.flushIfThresholdExceeded(ctx, false); err != nil {
		return 0, err
	}
	return docID, nil
}

// merge folds tokens into the buffer, fetching from IndexStore in one
// bulk call for every gram not already resident, per step 4 of the
// documented merge algorithm.
func (ix *Indexer) merge(ctx context.Context, docID uint64, tokens []ngram.Token) error {
	var missing []string
	seen := make(map[string]struct{})
	for _, tok := range tokens {
		if _, ok := ix.buffer[tok.Gram]; ok {
			continue
		}
		if _, ok := seen[tok.Gram]; ok {
			continue
		}
		seen[tok.Gram] = struct{}{}
		missing = append(missing, tok.Gram)
	}

	if len(missing) > 0 {
		fetched, err := ix.index.GetMany(ctx, missing)
		if err != nil {
			return err
		}
		for _, pl := range fetched {
			ix.buffer[pl.Token] = pl
		}
	}

	for _, tok := range tokens {
		if pl, ok := ix.buffer[tok.Gram]; ok {
			pl.Add(docID, uint32(tok.Offset))
		} else {
			ix.buffer[tok.Gram] = posting.New(tok.Gram, docID, uint32(tok.Offset))
		}
	}
	return nil
}

// flushIfThresholdExceeded upserts the entire buffer and clears it when
// final is true or the buffered position count exceeds the configured
// limit. It is idempotent: flushing an empty buffer is a no-op.
func (ix *Indexer) flushIfThresholdExceeded(ctx context.Context, final bool) error {
	if len(ix.buffer) == 0 {
		ix.state = stateClean
		return nil
	}

	var total uint64
	for _, pl := range ix.buffer {
		total += pl.PositionsCount
	}

	if !final && total <= ix.limit {
		return nil
	}

	ix.logger.Printf("Indexer: flushing %d tokens (%d positions)", len(ix.buffer), total)
	for token, pl := range util.CanonicalMapIter(ix.buffer) {
		ix.logger.Printf("Indexer: flush token %q (%d positions)", token, pl.PositionsCount)
	}

	if err := ix.index.UpsertMany(ctx, ix.buffer); err != nil {
		return err
	}
	ix.buffer = make(map[string]*posting.PostingList)
	ix.state = stateClean
	return nil
}

// Flush forces an immediate flush regardless of the buffer's size.
func (ix *Indexer) Flush(ctx context.Context) error {
	return ix.flushIfThresholdExceeded(ctx, true)
}

// Close performs a final flush and marks the Indexer terminal. Further
// calls to Add after Close fail.
func (ix *Indexer) Close(ctx context.Context) error {
	if ix.state == stateClosed {
		return nil
	}
	if err := ix.flushIfThresholdExceeded(ctx, true); err != nil {
		return err
	}
	ix.state = stateClosed
	return nil
}
