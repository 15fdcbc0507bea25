// Copyright 2025 Corpus Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package storage

import (
	"slices"
	"time"

	"github.com/corpushq/corpus/core"
	"github.com/mus-format/mus-go"
	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

// MUS serializers for stored records. Field order is part of the on-disk
// format; changing it invalidates existing databases.
var (
	IDMUS       = idMUS{}
	DocumentMUS = documentMUS{}
	ChunkMUS    = chunkMUS{}
	StatsMUS    = statsMUS{}
)

var (
	_ mus.Serializer[core.ID]          = IDMUS
	_ mus.Serializer[core.Document]    = DocumentMUS
	_ mus.Serializer[core.Chunk]       = ChunkMUS
	_ mus.Serializer[core.CorpusStats] = StatsMUS
)

// MarshalID serializes an ID to bytes.
func MarshalID(id core.ID) []byte {
	buf := make([]byte, IDMUS.Size(id))
	IDMUS.Marshal(id, buf)
	return buf
}

// UnmarshalID deserializes an ID from bytes.
func UnmarshalID(data []byte) (core.ID, error) {
	id, _, err := IDMUS.Unmarshal(data)
	return id, err
}

// MarshalDocument serializes a Document to bytes.
func MarshalDocument(doc *core.Document) []byte {
	buf := make([]byte, DocumentMUS.Size(*doc))
	DocumentMUS.Marshal(*doc, buf)
	return buf
}

// UnmarshalDocument deserializes a Document from bytes.
func UnmarshalDocument(data []byte) (*core.Document, error) {
	doc, _, err := DocumentMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// MarshalChunk serializes a Chunk to bytes.
func MarshalChunk(chunk *core.Chunk) []byte {
	buf := make([]byte, ChunkMUS.Size(*chunk))
	ChunkMUS.Marshal(*chunk, buf)
	return buf
}

// UnmarshalChunk deserializes a Chunk from bytes.
func UnmarshalChunk(data []byte) (*core.Chunk, error) {
	chunk, _, err := ChunkMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &chunk, nil
}

// MarshalStats serializes CorpusStats to bytes.
func MarshalStats(stats *core.CorpusStats) []byte {
	buf := make([]byte, StatsMUS.Size(*stats))
	StatsMUS.Marshal(*stats, buf)
	return buf
}

// UnmarshalStats deserializes CorpusStats from bytes.
func UnmarshalStats(data []byte) (*core.CorpusStats, error) {
	stats, _, err := StatsMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

type idMUS struct{}

func (idMUS) Marshal(id core.ID, bs []byte) int {
	return varint.Uint64.Marshal(uint64(id), bs)
}

func (idMUS) Unmarshal(bs []byte) (core.ID, int, error) {
	v, n, err := varint.Uint64.Unmarshal(bs)
	return core.ID(v), n, err
}

func (idMUS) Size(id core.ID) int {
	return varint.Uint64.Size(uint64(id))
}

func (idMUS) Skip(bs []byte) (int, error) {
	return varint.Uint64.Skip(bs)
}

type documentMUS struct{}

func (s documentMUS) Marshal(doc core.Document, bs []byte) (n int) {
	n = IDMUS.Marshal(doc.Id, bs)
	n += ord.String.Marshal(doc.Filename, bs[n:])
	n += ord.String.Marshal(doc.FileHash, bs[n:])
	n += marshalTime(doc.IngestedAt, bs[n:])
	n += varint.Int.Marshal(len(doc.ChunkIds), bs[n:])
	for _, id := range doc.ChunkIds {
		n += IDMUS.Marshal(id, bs[n:])
	}
	return n
}

func (s documentMUS) Unmarshal(bs []byte) (doc core.Document, n int, err error) {
	var n1 int
	if doc.Id, n, err = IDMUS.Unmarshal(bs); err != nil {
		return
	}
	if doc.Filename, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return doc, n + n1, err
	}
	n += n1
	if doc.FileHash, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return doc, n + n1, err
	}
	n += n1
	if doc.IngestedAt, n1, err = unmarshalTime(bs[n:]); err != nil {
		return doc, n + n1, err
	}
	n += n1
	var length int
	if length, n1, err = unmarshalLength(bs[n:]); err != nil {
		return doc, n + n1, err
	}
	n += n1
	if length > 0 {
		doc.ChunkIds = make([]core.ID, length)
		for i := 0; i < length; i++ {
			if doc.ChunkIds[i], n1, err = IDMUS.Unmarshal(bs[n:]); err != nil {
				return doc, n + n1, err
			}
			n += n1
		}
	}
	return doc, n, nil
}

func (s documentMUS) Size(doc core.Document) (size int) {
	size = IDMUS.Size(doc.Id)
	size += ord.String.Size(doc.Filename)
	size += ord.String.Size(doc.FileHash)
	size += sizeTime(doc.IngestedAt)
	size += varint.Int.Size(len(doc.ChunkIds))
	for _, id := range doc.ChunkIds {
		size += IDMUS.Size(id)
	}
	return size
}

func (s documentMUS) Skip(bs []byte) (n int, err error) {
	_, n, err = s.Unmarshal(bs)
	return n, err
}

type chunkMUS struct{}

func (s chunkMUS) Marshal(chunk core.Chunk, bs []byte) (n int) {
	n = IDMUS.Marshal(chunk.Id, bs)
	n += IDMUS.Marshal(chunk.DocumentId, bs[n:])
	n += varint.Int.Marshal(chunk.Index, bs[n:])
	n += ord.String.Marshal(chunk.Text, bs[n:])
	n += ord.String.Marshal(chunk.ContentHash, bs[n:])
	n += varint.Int.Marshal(len(chunk.Vector), bs[n:])
	for _, v := range chunk.Vector {
		n += raw.Float32.Marshal(v, bs[n:])
	}
	n += varint.Int.Marshal(len(chunk.TermFreqs), bs[n:])
	for _, term := range sortedTerms(chunk.TermFreqs) {
		n += ord.String.Marshal(term, bs[n:])
		n += varint.Int.Marshal(chunk.TermFreqs[term], bs[n:])
	}
	n += varint.Int.Marshal(chunk.TokenCount, bs[n:])
	n += ord.Bool.Marshal(chunk.NearDuplicate, bs[n:])
	return n
}

func (s chunkMUS) Unmarshal(bs []byte) (chunk core.Chunk, n int, err error) {
	var n1 int
	if chunk.Id, n, err = IDMUS.Unmarshal(bs); err != nil {
		return
	}
	if chunk.DocumentId, n1, err = IDMUS.Unmarshal(bs[n:]); err != nil {
		return chunk, n + n1, err
	}
	n += n1
	if chunk.Index, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return chunk, n + n1, err
	}
	n += n1
	if chunk.Text, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return chunk, n + n1, err
	}
	n += n1
	if chunk.ContentHash, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return chunk, n + n1, err
	}
	n += n1
	var length int
	if length, n1, err = unmarshalLength(bs[n:]); err != nil {
		return chunk, n + n1, err
	}
	n += n1
	if length > 0 {
		chunk.Vector = make([]float32, length)
		for i := 0; i < length; i++ {
			if chunk.Vector[i], n1, err = raw.Float32.Unmarshal(bs[n:]); err != nil {
				return chunk, n + n1, err
			}
			n += n1
		}
	}
	if length, n1, err = unmarshalLength(bs[n:]); err != nil {
		return chunk, n + n1, err
	}
	n += n1
	if length > 0 {
		chunk.TermFreqs = make(map[string]int, length)
		for i := 0; i < length; i++ {
			var term string
			var freq int
			if term, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
				return chunk, n + n1, err
			}
			n += n1
			if freq, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
				return chunk, n + n1, err
			}
			n += n1
			chunk.TermFreqs[term] = freq
		}
	}
	if chunk.TokenCount, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return chunk, n + n1, err
	}
	n += n1
	if chunk.NearDuplicate, n1, err = ord.Bool.Unmarshal(bs[n:]); err != nil {
		return chunk, n + n1, err
	}
	n += n1
	return chunk, n, nil
}

func (s chunkMUS) Size(chunk core.Chunk) (size int) {
	size = IDMUS.Size(chunk.Id)
	size += IDMUS.Size(chunk.DocumentId)
	size += varint.Int.Size(chunk.Index)
	size += ord.String.Size(chunk.Text)
	size += ord.String.Size(chunk.ContentHash)
	size += varint.Int.Size(len(chunk.Vector))
	for _, v := range chunk.Vector {
		size += raw.Float32.Size(v)
	}
	size += varint.Int.Size(len(chunk.TermFreqs))
	for term, freq := range chunk.TermFreqs {
		size += ord.String.Size(term)
		size += varint.Int.Size(freq)
	}
	size += varint.Int.Size(chunk.TokenCount)
	size += ord.Bool.Size(chunk.NearDuplicate)
	return size
}

func (s chunkMUS) Skip(bs []byte) (n int, err error) {
	_, n, err = s.Unmarshal(bs)
	return n, err
}

type statsMUS struct{}

func (statsMUS) Marshal(stats core.CorpusStats, bs []byte) (n int) {
	n = varint.Int.Marshal(stats.DocumentCount, bs)
	n += varint.Int.Marshal(stats.ChunkCount, bs[n:])
	n += varint.Int.Marshal(stats.TermCount, bs[n:])
	n += varint.Int.Marshal(stats.TokenTotal, bs[n:])
	return n
}

func (statsMUS) Unmarshal(bs []byte) (stats core.CorpusStats, n int, err error) {
	var n1 int
	if stats.DocumentCount, n, err = varint.Int.Unmarshal(bs); err != nil {
		return
	}
	if stats.ChunkCount, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return stats, n + n1, err
	}
	n += n1
	if stats.TermCount, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return stats, n + n1, err
	}
	n += n1
	if stats.TokenTotal, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return stats, n + n1, err
	}
	n += n1
	return stats, n, nil
}

func (statsMUS) Size(stats core.CorpusStats) (size int) {
	size = varint.Int.Size(stats.DocumentCount)
	size += varint.Int.Size(stats.ChunkCount)
	size += varint.Int.Size(stats.TermCount)
	size += varint.Int.Size(stats.TokenTotal)
	return size
}

func (s statsMUS) Skip(bs []byte) (n int, err error) {
	_, n, err = s.Unmarshal(bs)
	return n, err
}

// sortedTerms returns map keys in ascending order so marshaling a chunk is
// byte-deterministic.
func sortedTerms(freqs map[string]int) []string {
	terms := make([]string, 0, len(freqs))
	for term := range freqs {
		terms = append(terms, term)
	}
	slices.Sort(terms)
	return terms
}

// Time fields are stored as Unix microseconds, matching the precision the
// rest of the system uses for timestamps.
func marshalTime(t time.Time, bs []byte) int {
	return varint.Int64.Marshal(t.UnixMicro(), bs)
}

func unmarshalTime(bs []byte) (time.Time, int, error) {
	v, n, err := varint.Int64.Unmarshal(bs)
	if err != nil {
		return time.Time{}, n, err
	}
	return time.UnixMicro(v).UTC(), n, nil
}

func sizeTime(t time.Time) int {
	return varint.Int64.Size(t.UnixMicro())
}

// unmarshalLength reads a collection length prefix and rejects negative
// values so malformed input fails instead of panicking on make().
func unmarshalLength(bs []byte) (int, int, error) {
	length, n, err := varint.Int.Unmarshal(bs)
	if err != nil {
		return 0, n, err
	}
	if length < 0 {
		return 0, n, ErrNegativeLength
	}
	if length > len(bs) {
		return 0, n, ErrCorruptIndex
	}
	return length, n, nil
}
