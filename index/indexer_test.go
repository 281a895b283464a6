package index

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/falcon-search/falcon/ngram"
	"github.com/falcon-search/falcon/store"
)

func openTestIndexer(t *testing.T) (*Indexer, *store.Store) {
	t.Helper()
	s, err := store.Open(context.Background(), store.Config{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return Open(s, ngram.New(ngram.Bigram)), s
}

func TestIndexerAddAssignsDocID(t *testing.T) {
	ctx := context.Background()
	ix, _ := openTestIndexer(t)

	id1, err := ix.Add(ctx, "greeting", "Good morning everyone", 0)
	require.NoError(t, err)
	id2, err := ix.Add(ctx, "intro", "My name is Taro", 0)
	require.NoError(t, err)

	assert.NotEqual(t, id1, id2)
}

func TestIndexerAddWithExplicitDocID(t *testing.T) {
	ctx := context.Background()
	ix, _ := openTestIndexer(t)

	id, err := ix.Add(ctx, "a", "bc", 42)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), id)
}

func TestIndexerFlushMakesTokensVisibleInStore(t *testing.T) {
	ctx := context.Background()
	ix, s := openTestIndexer(t)

	_, err := ix.Add(ctx, "greeting", "Good morning everyone", 0)
	require.NoError(t, err)
	require.NoError(t, ix.Flush(ctx))

	idx := store.NewIndexStore(s)
	pl, err := idx.Get(ctx, "mo")
	require.NoError(t, err)
	require.NotNil(t, pl)
	assert.Contains(t, pl.DocIDs(), uint64(1))
}

func TestIndexerMergesAcrossCallsIntoSameToken(t *testing.T) {
	ctx := context.Background()
	ix, s := openTestIndexer(t)

	id1, err := ix.Add(ctx, "ab", "", 0)
	require.NoError(t, err)
	id2, err := ix.Add(ctx, "ab", "", 0)
	require.NoError(t, err)
	require.NoError(t, ix.Flush(ctx))

	idx := store.NewIndexStore(s)
	pl, err := idx.Get(ctx, "ab")
	require.NoError(t, err)
	require.NotNil(t, pl)
	assert.ElementsMatch(t, []uint64{id1, id2}, pl.DocIDs())
}

func TestIndexerFlushIsIdempotentOnEmptyBuffer(t *testing.T) {
	ctx := context.Background()
	ix, _ := openTestIndexer(t)

	require.NoError(t, ix.Flush(ctx))
	require.NoError(t, ix.Flush(ctx))
}

func TestIndexerCloseFlushesAndRejectsFurtherAdd(t *testing.T) {
	ctx := context.Background()
	ix, s := openTestIndexer(t)

	_, err := ix.Add(ctx, "ab", "", 0)
	require.NoError(t, err)
	require.NoError(t, ix.Close(ctx))

	idx := store.NewIndexStore(s)
	pl, err := idx.Get(ctx, "ab")
	require.NoError(t, err)
	require.NotNil(t, pl)

	_, err = ix.Add(ctx, "cd", "", 0)
	assert.Error(t, err)
}

func TestIndexerThresholdFlushClearsBuffer(t *testing.T) {
	ctx := context.Background()
	s, err := store.Open(context.Background(), store.Config{InMemory: true, TokenPositionLimit: 1})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	ix := Open(s, ngram.New(ngram.Bigram))

	_, err = ix.Add(ctx, "abcdef", "", 0)
	require.NoError(t, err)

	assert.Empty(t, ix.buffer)
}
