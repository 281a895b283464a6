// Package falcon wires ngram, posting, store, index, and search into a
// single embeddable full-text search engine: an Options struct, an
// Open entrypoint, and errors surfaced via log.Fatal-friendly
// sentinels to the CLI collaborator.
package falcon

import (
	"context"
	"errors"

	"github.com/falcon-search/falcon/ferr"
	"github.com/falcon-search/falcon/index"
	"github.com/falcon-search/falcon/ngram"
	"github.com/falcon-search/falcon/search"
	"github.com/falcon-search/falcon/store"
)

// Options configures a Falcon engine instance.
type Options struct {
	// DBPath is the SQLite file path. Ignored when InMemory is true.
	DBPath string

	// InMemory opens a ":memory:" backing store instead of DBPath.
	InMemory bool

	// Tokenizer selects the n-gram size. Zero value resolves to Bigram.
	Tokenizer ngram.Kind

	// TokenPositionLimit overrides store.DefaultTokenPositionLimit.
	TokenPositionLimit uint64

	// Logger receives debug trace lines from the Indexer and Searcher.
	// Defaults to store.NullLogger.
	Logger store.Logger
}

func (o Options) tokenizer() ngram.Tokenizer {
	kind := o.Tokenizer
	if kind == 0 {
		kind = ngram.Bigram
	}
	return ngram.New(kind)
}

// Falcon is an opened engine instance: one backing store plus the
// Indexer and Searcher wired over it.
type Falcon struct {
	store    *store.Store
	Indexer  *index.Indexer
	Searcher *search.Searcher
}

// Open opens the backing store described by options and wires up the
// Indexer/Searcher pair.
func Open(ctx context.Context, options Options) (*Falcon, error) {
	s, err := store.Open(ctx, store.Config{
		Path:               options.DBPath,
		InMemory:           options.InMemory,
		TokenPositionLimit: options.TokenPositionLimit,
		Logger:             options.Logger,
	})
	if err != nil {
		return nil, err
	}

	tok := options.tokenizer()
	return &Falcon{
		store:    s,
		Indexer:  index.Open(s, tok),
		Searcher: search.Open(s, tok),
	}, nil
}

// Store exposes the underlying backing store, used by the HTTP
// collaborator to open its own per-request Indexer/Searcher pairs.
func (f *Falcon) Store() *store.Store {
	return f.store
}

// Add indexes one document, returning its assigned id. docID may be
// zero to let the store assign the next id.
func (f *Falcon) Add(ctx context.Context, title, content string, docID uint64) (uint64, error) {
	return f.Indexer.Add(ctx, title, content, docID)
}

// Search runs a phrase query against the engine.
func (f *Falcon) Search(ctx context.Context, query string) ([]store.Document, error) {
	return f.Searcher.Search(ctx, query)
}

// FlushToFile copies the in-memory backing store to path. It is only
// meaningful when Options.InMemory was set. The Indexer's buffer is
// flushed first so the copied indices table reflects every Add call,
// not just whatever had already crossed the flush threshold.
func (f *Falcon) FlushToFile(ctx context.Context, path string) error {
	if err := f.Indexer.Flush(ctx); err != nil {
		return err
	}
	return f.store.FlushToFile(ctx, path)
}

// Wipe deletes all documents and tokens. Non-transactional across the
// two tables; see store.Store.Wipe.
func (f *Falcon) Wipe(ctx context.Context) error {
	return f.store.Wipe(ctx)
}

// Close flushes any pending writes and releases the backing store.
func (f *Falcon) Close(ctx context.Context) error {
	if err := f.Indexer.Close(ctx); err != nil {
		return err
	}
	return f.store.Close()
}

// IsNotFound reports whether err is (or wraps) the engine's NotFound
// sentinel, the one non-error "no result" outcome search can return.
func IsNotFound(err error) bool {
	return errors.Is(err, ferr.ErrNotFound)
}
