package search

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/falcon-search/falcon/ferr"
	"github.com/falcon-search/falcon/index"
	"github.com/falcon-search/falcon/ngram"
	"github.com/falcon-search/falcon/store"
)

func openTestSearcher(t *testing.T) (*Searcher, *index.Indexer, *store.Store) {
	t.Helper()
	s, err := store.Open(context.Background(), store.Config{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	tok := ngram.New(ngram.Bigram)
	return Open(s, tok), index.Open(s, tok), s
}

func TestSearchFindsDocumentByWord(t *testing.T) {
	ctx := context.Background()
	searcher, indexer, _ := openTestSearcher(t)

	doc1, err := indexer.Add(ctx, "greeting", "Good morning everyone", 0)
	require.NoError(t, err)
	_, err = indexer.Add(ctx, "intro", "My name is Taro", 0)
	require.NoError(t, err)
	require.NoError(t, indexer.Flush(ctx))

	results, err := searcher.Search(ctx, "morning")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, doc1, results[0].ID)
}

func TestSearchContiguousBigramRun(t *testing.T) {
	ctx := context.Background()
	searcher, indexer, _ := openTestSearcher(t)

	d1, err := indexer.Add(ctx, "one", "xx bcd yy", 0)
	require.NoError(t, err)
	d2, err := indexer.Add(ctx, "two", "bcdzz", 0)
	require.NoError(t, err)
	_, err = indexer.Add(ctx, "three", "bc only, no d here", 0)
	require.NoError(t, err)
	require.NoError(t, indexer.Flush(ctx))

	results, err := searcher.Search(ctx, "bcd")
	require.NoError(t, err)

	ids := make([]uint64, 0, len(results))
	for _, d := range results {
		ids = append(ids, d.ID)
	}
	assert.ElementsMatch(t, []uint64{d1, d2}, ids)
}

func TestSearchANDAcrossWordsIsOrderIndependent(t *testing.T) {
	ctx := context.Background()
	searcher, indexer, _ := openTestSearcher(t)

	doc, err := indexer.Add(ctx, "mixed", "alpha bravo charlie", 0)
	require.NoError(t, err)
	require.NoError(t, indexer.Flush(ctx))

	results, err := searcher.Search(ctx, "charlie alpha")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, doc, results[0].ID)
}

func TestSearchNoMatchReturnsNotFound(t *testing.T) {
	ctx := context.Background()
	searcher, indexer, _ := openTestSearcher(t)

	_, err := indexer.Add(ctx, "doc", "hello world", 0)
	require.NoError(t, err)
	require.NoError(t, indexer.Flush(ctx))

	_, err = searcher.Search(ctx, "zzzzz")
	assert.True(t, errors.Is(err, ferr.ErrNotFound))
}

func TestSearchShortWordYieldsNotFound(t *testing.T) {
	ctx := context.Background()
	searcher, indexer, _ := openTestSearcher(t)

	_, err := indexer.Add(ctx, "doc", "hello world", 0)
	require.NoError(t, err)
	require.NoError(t, indexer.Flush(ctx))

	_, err = searcher.Search(ctx, "h")
	assert.True(t, errors.Is(err, ferr.ErrNotFound))
}

func TestSearchEmptyQueryYieldsInvalidInput(t *testing.T) {
	ctx := context.Background()
	searcher, _, _ := openTestSearcher(t)

	_, err := searcher.Search(ctx, "   ")
	assert.True(t, errors.Is(err, ferr.ErrInvalidInput))
}

func TestPhraseMatchUnitSingleCandidateWithCdSuffix(t *testing.T) {
	tokens := []ngram.Token{{Offset: 0, Gram: "bc"}, {Offset: 1, Gram: "cd"}}
	candidates := map[uint64][]posOccurrence{
		1: {{position: 0, gram: "bc"}, {position: 1, gram: "cd"}},
		2: {{position: 0, gram: "bc"}},
	}

	got := phraseMatch(candidates, tokens, nil)
	assert.Equal(t, map[uint64]struct{}{1: {}}, got)
}

func TestPhraseMatchUnitBothDocsHaveContiguousRun(t *testing.T) {
	tokens := []ngram.Token{{Offset: 0, Gram: "bc"}, {Offset: 1, Gram: "cd"}}
	candidates := map[uint64][]posOccurrence{
		1: {{position: 0, gram: "bc"}, {position: 1, gram: "cd"}, {position: 2, gram: "bc"}},
		2: {{position: 0, gram: "bc"}, {position: 1, gram: "cd"}, {position: 2, gram: "cd"}},
	}

	got := phraseMatch(candidates, tokens, nil)
	assert.Equal(t, map[uint64]struct{}{1: {}, 2: {}}, got)
}
