package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/falcon-search/falcon"
	"github.com/falcon-search/falcon/ngram"
	"github.com/falcon-search/falcon/store"
)

func TestParseOptionsResolvesTokenizerAndMemory(t *testing.T) {
	cfg := parseOptions([]string{"-M", "-z", "Trigram", "-q", "hello"})
	assert.Equal(t, ngram.Trigram, cfg.Tokenizer)
	assert.True(t, cfg.Memory)
	assert.Equal(t, "hello", cfg.Query)
}

func TestParseOptionsDefaultsToBigram(t *testing.T) {
	cfg := parseOptions([]string{"-M"})
	assert.Equal(t, parseOptions([]string{"-M", "-z", "Bigram"}).Tokenizer, cfg.Tokenizer)
}

func TestShardSuffixStripsDirectory(t *testing.T) {
	assert.Equal(t, "shard1.tsv", shardSuffix("/data/batches/shard1.tsv"))
	assert.Equal(t, "shard1.tsv", shardSuffix("shard1.tsv"))
}

func TestIngestFileAddsOneDocumentPerTabSeparatedLine(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "batch.tsv")
	content := "greeting\tGood morning everyone\nintro\tMy name is Taro\nskip-me-no-tab\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	ctx := context.Background()
	engine, err := falcon.Open(ctx, falcon.Options{InMemory: true})
	require.NoError(t, err)
	defer engine.Close(ctx)

	require.NoError(t, ingestFile(ctx, engine, path))

	all, err := store.NewDocumentStore(engine.Store()).All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	docs, err := engine.Search(ctx, "morning")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "greeting", docs[0].Title)
}
