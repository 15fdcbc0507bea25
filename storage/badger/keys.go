package badger

import (
	"encoding/binary"
	"fmt"

	"github.com/corpushq/corpus/core"
)

// Key prefixes for different data types
const (
	documentPrefix    = "doc"      // doc:<id> -> Document
	fileHashPrefix    = "docfh"    // docfh:<fileHash> -> document ID
	chunkPrefix       = "chu"      // chu:<id> -> Chunk
	contentHashPrefix = "chuch"    // chuch:<contentHash>:<chunkID> -> owning document ID
	postingPrefix     = "post"     // post:<term>:<chunkID> -> term frequency
	termPrefix        = "trm"      // trm:<term> -> chunk document frequency
	statsKey          = "idxstats" // -> CorpusStats
)

// makeDocumentKey generates a key for a document by ID.
func makeDocumentKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", documentPrefix, id))
}

// makeFileHashKey generates a key for the file-hash index.
func makeFileHashKey(fileHash string) []byte {
	return []byte(fileHashPrefix + ":" + fileHash)
}

// makeChunkKey generates a key for a chunk by ID.
func makeChunkKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", chunkPrefix, id))
}

// makeContentHashKey generates a composite key for the content-hash index.
// Format: prefix:contentHash:chunkID
func makeContentHashKey(contentHash string, chunkID core.ID) []byte {
	prefix := makePartialContentHashKey(contentHash)
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(chunkID))
	return buf
}

// makePartialContentHashKey generates a prefix for content-hash scans.
func makePartialContentHashKey(contentHash string) []byte {
	return []byte(contentHashPrefix + ":" + contentHash + ":")
}

// makePostingKey generates a composite key for an inverted-index posting.
// Format: prefix:term:chunkID
func makePostingKey(term string, chunkID core.ID) []byte {
	prefix := makePartialPostingKey(term)
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(chunkID))
	return buf
}

// makePartialPostingKey generates a prefix for posting scans of one term.
func makePartialPostingKey(term string) []byte {
	return []byte(postingPrefix + ":" + term + ":")
}

// chunkIDFromPostingKey extracts the chunk ID suffix of a posting or
// content-hash index key.
func chunkIDFromIndexKey(key, prefix []byte) core.ID {
	return core.ID(binary.BigEndian.Uint64(key[len(prefix):]))
}

// makeTermKey generates a key for a term's document-frequency counter.
func makeTermKey(term string) []byte {
	return []byte(termPrefix + ":" + term)
}

// makeStatsKey generates the key of the corpus aggregates record.
func makeStatsKey() []byte {
	return []byte(statsKey)
}

// marshalCount encodes a posting frequency or term counter value.
func marshalCount(count int) []byte {
	return binary.AppendUvarint(nil, uint64(count))
}

// unmarshalCount decodes a posting frequency or term counter value.
func unmarshalCount(data []byte) (int, error) {
	v, n := binary.Uvarint(data)
	if n <= 0 {
		return 0, fmt.Errorf("malformed count value")
	}
	return int(v), nil
}
