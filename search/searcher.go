// Package search implements Searcher: the read path that tokenizes a
// query, fetches candidate posting lists, reconstructs per-document
// position sequences, and runs the phrase-match scan that finds a
// contiguous run of n-grams matching the query word. Multi-word
// queries AND together by set intersection, not positional adjacency.
package search

import (
	"context"
	"sort"

	"github.com/falcon-search/falcon/ferr"
	"github.com/falcon-search/falcon/ngram"
	"github.com/falcon-search/falcon/posting"
	"github.com/falcon-search/falcon/store"
)

// Searcher answers phrase queries against a backing store.
type Searcher struct {
	tokenizer ngram.Tokenizer
	docs      *store.DocumentStore
	index     *store.IndexStore
	logger    store.Logger
}

// Open builds a Searcher over an already-open Store. The caller retains
// ownership of s.
func Open(s *store.Store, tokenizer ngram.Tokenizer) *Searcher {
	return &Searcher{
		tokenizer: tokenizer,
		docs:      store.NewDocumentStore(s),
		index:     store.NewIndexStore(s),
		logger:    s.Logger(),
	}
}

// posOccurrence is one (position, ngram) pair reconstructed from a
// fetched PostingList for one candidate document.
type posOccurrence struct {
	position uint32
	gram     string
}

// Search tokenizes queryString into whitespace-separated words, ANDs
// together the set of documents matching each word via phrase-match,
// and returns the surviving documents' (id, title). A word that
// tokenizes to zero n-grams, or a query that matches no document,
// yields ferr.ErrNotFound. An empty or all-whitespace query yields
// ferr.ErrInvalidInput.
func (s *Searcher) Search(ctx context.Context, queryString string) ([]store.Document, error) {
	words := ngram.SplitQuery(queryString)
	if len(words) == 0 {
		return nil, ferr.ErrInvalidInput
	}

	s.logger.Printf("Searcher.Search: query=%q words=%v", queryString, words)

	var matched map[uint64]struct{}
	matchedSet := false

	for _, word := range words {
		tokens := s.tokenizer.Tokenize(word, "")
		if len(tokens) == 0 {
			return nil, ferr.ErrNotFound
		}

		distinct := distinctGrams(tokens)
		lists, err := s.index.GetMany(ctx, distinct)
		if err != nil {
			return nil, err
		}
		if len(lists) == 0 {
			return nil, ferr.ErrNotFound
		}

		candidates := buildCandidates(lists)
		var prior map[uint64]struct{}
		if matchedSet {
			prior = matched
		}
		wordMatches := phraseMatch(candidates, tokens, prior)
		if len(wordMatches) == 0 {
			return nil, ferr.ErrNotFound
		}
		matched = wordMatches
		matchedSet = true
	}

	ids := make([]uint64, 0, len(matched))
	for id := range matched {
		ids = append(ids, id)
	}

	docs, err := s.docs.Fetch(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, ferr.ErrNotFound
	}
	return docs, nil
}

func distinctGrams(tokens []ngram.Token) []string {
	seen := make(map[string]struct{}, len(tokens))
	var out []string
	for _, t := range tokens {
		if _, ok := seen[t.Gram]; ok {
			continue
		}
		seen[t.Gram] = struct{}{}
		out = append(out, t.Gram)
	}
	return out
}

// buildCandidates flattens the fetched posting lists into, per
// document id, the list of (position, ngram) occurrences contributed
// by every returned PostingList.
func buildCandidates(lists []*posting.PostingList) map[uint64][]posOccurrence {
	candidates := make(map[uint64][]posOccurrence)
	for _, pl := range lists {
		for docID, positions := range pl.Positions {
			for _, p := range positions {
				candidates[docID] = append(candidates[docID], posOccurrence{position: p, gram: pl.Token})
			}
		}
	}
	return candidates
}

// phraseMatch finds, for each candidate document, whether its
// occurrences contain a run equal to tokens' ngram sequence, each gram
// sitting at the same distance from the previous one as in the query
// word (usually 1; more where the word's n-grams containing a stopword
// were dropped). prior, when non-nil, restricts the search to documents
// already known to match earlier query words (set intersection, not
// positional adjacency, across words).
func phraseMatch(candidates map[uint64][]posOccurrence, tokens []ngram.Token, prior map[uint64]struct{}) map[uint64]struct{} {
	n := len(tokens)
	sequence := make([]string, n)
	required := make(map[string]struct{}, n)
	for i, t := range tokens {
		sequence[i] = t.Gram
		required[t.Gram] = struct{}{}
	}

	matched := make(map[uint64]struct{})

	for docID, occurrences := range candidates {
		if prior != nil {
			if _, ok := prior[docID]; !ok {
				continue
			}
		}

		distinct := make(map[string]struct{}, len(required))
		for _, occ := range occurrences {
			if _, ok := required[occ.gram]; ok {
				distinct[occ.gram] = struct{}{}
			}
		}
		if len(distinct) < len(required) {
			continue
		}

		sort.Slice(occurrences, func(i, j int) bool {
			if occurrences[i].position != occurrences[j].position {
				return occurrences[i].position < occurrences[j].position
			}
			return occurrences[i].gram < occurrences[j].gram
		})

		seq := 0
		var prev uint32
		havePrev := false
		for _, occ := range occurrences {
			step := uint32(1)
			if seq > 0 {
				step = uint32(tokens[seq].Offset - tokens[seq-1].Offset)
			}
			if !havePrev || occ.position != prev+step {
				seq = 0
			}
			if occ.gram == sequence[seq] {
				seq++
				if seq == n {
					matched[docID] = struct{}{}
					break
				}
			}
			prev = occ.position
			havePrev = true
		}
	}

	return matched
}
