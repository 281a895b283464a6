// Package posting implements PostingList, the per-n-gram doc-id to
// positions mapping, and its binary serialization. The encoding is a
// versioned, length-prefixed layout written with encoding/binary —
// the "fresh, documented encoding" the engine's posting blobs use
// instead of language-specific object pickling. It is opaque to callers
// and private to this engine; it is not meant to be cross-version
// stable, only deterministic for a given logical value.
package posting

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sort"
)

const encodingVersion uint32 = 1

// PostingList is the in-memory representation of one n-gram token's
// document -> positions map. It is a value type: the Indexer's merge
// buffer owns it, and flushing replaces the stored blob wholesale
// rather than mutating it in place behind a shared reference.
type PostingList struct {
	Token          string
	Positions      map[uint64][]uint32
	PositionsCount uint64
}

// New creates a PostingList for token with a single initial occurrence.
func New(token string, docID uint64, pos uint32) *PostingList {
	pl := &PostingList{
		Token:     token,
		Positions: make(map[uint64][]uint32, 1),
	}
	pl.Add(docID, pos)
	return pl
}

// Add appends pos to docID's position list, creating the entry if
// absent, and increments PositionsCount. The caller is responsible for
// supplying positions in increasing order per document; this happens
// naturally because the tokenizer emits offsets in ascending order for
// a single document.
func (p *PostingList) Add(docID uint64, pos uint32) {
	if p.Positions == nil {
		p.Positions = make(map[uint64][]uint32, 1)
	}
	p.Positions[docID] = append(p.Positions[docID], pos)
	p.PositionsCount++
}

// DocIDs returns the document ids present in this posting list, sorted
// ascending so callers get deterministic iteration order (compare
// internal/util.CanonicalMapIter, which does the analogous thing for
// string-keyed maps).
func (p *PostingList) DocIDs() []uint64 {
	ids := make([]uint64, 0, len(p.Positions))
	for id := range p.Positions {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Serialize encodes the posting list into an opaque, deterministic blob.
// Layout: version(u32) | tokenLen(u32) | token bytes |
// positionsCount(u64) | docCount(u32) | for each doc in ascending id
// order: docID(u64) | posCount(u32) | delta-encoded positions (u32 each).
// Positions are delta-encoded from the previous position (starting at
// 0) since the invariant guarantees they are strictly increasing, which
// keeps the format compact without changing its opaqueness.
func (p *PostingList) Serialize() []byte {
	var buf bytes.Buffer

	writeU32 := func(v uint32) { binary.Write(&buf, binary.BigEndian, v) }
	writeU64 := func(v uint64) { binary.Write(&buf, binary.BigEndian, v) }

	writeU32(encodingVersion)
	tokenBytes := []byte(p.Token)
	writeU32(uint32(len(tokenBytes)))
	buf.Write(tokenBytes)
	writeU64(p.PositionsCount)

	ids := p.DocIDs()
	writeU32(uint32(len(ids)))
	for _, id := range ids {
		positions := p.Positions[id]
		writeU64(id)
		writeU32(uint32(len(positions)))
		var prev uint32
		for _, pos := range positions {
			writeU32(pos - prev)
			prev = pos
		}
	}

	return buf.Bytes()
}

// Deserialize reverses Serialize. Round-tripping a PostingList through
// Serialize/Deserialize must reproduce an equal token, equal mapping,
// and equal PositionsCount; a malformed or truncated blob is reported
// as an error rather than silently dropped data, since callers treat
// posting-blob corruption as a storage failure.
func Deserialize(blob []byte) (*PostingList, error) {
	r := bytes.NewReader(blob)

	readU32 := func() (uint32, error) {
		var v uint32
		err := binary.Read(r, binary.BigEndian, &v)
		return v, err
	}
	readU64 := func() (uint64, error) {
		var v uint64
		err := binary.Read(r, binary.BigEndian, &v)
		return v, err
	}

	version, err := readU32()
	if err != nil {
		return nil, fmt.Errorf("posting: read version: %w", err)
	}
	if version != encodingVersion {
		return nil, fmt.Errorf("posting: unsupported encoding version %d", version)
	}

	tokenLen, err := readU32()
	if err != nil {
		return nil, fmt.Errorf("posting: read token length: %w", err)
	}
	tokenBytes := make([]byte, tokenLen)
	if _, err := readFull(r, tokenBytes); err != nil {
		return nil, fmt.Errorf("posting: read token: %w", err)
	}

	positionsCount, err := readU64()
	if err != nil {
		return nil, fmt.Errorf("posting: read positions count: %w", err)
	}

	docCount, err := readU32()
	if err != nil {
		return nil, fmt.Errorf("posting: read doc count: %w", err)
	}

	pl := &PostingList{
		Token:          string(tokenBytes),
		Positions:      make(map[uint64][]uint32, docCount),
		PositionsCount: positionsCount,
	}

	for i := uint32(0); i < docCount; i++ {
		docID, err := readU64()
		if err != nil {
			return nil, fmt.Errorf("posting: read doc id: %w", err)
		}
		posCount, err := readU32()
		if err != nil {
			return nil, fmt.Errorf("posting: read position count: %w", err)
		}
		positions := make([]uint32, posCount)
		var prev uint32
		for j := uint32(0); j < posCount; j++ {
			delta, err := readU32()
			if err != nil {
				return nil, fmt.Errorf("posting: read position: %w", err)
			}
			prev += delta
			positions[j] = prev
		}
		pl.Positions[docID] = positions
	}

	return pl, nil
}

func readFull(r *bytes.Reader, buf []byte) (int, error) {
	if len(buf) == 0 {
		return 0, nil
	}
	n, err := r.Read(buf)
	if err == nil && n != len(buf) {
		return n, fmt.Errorf("short read: got %d want %d", n, len(buf))
	}
	return n, err
}
