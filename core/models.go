package core

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// IDs are derived from content hashes, so identical content always
// maps to the same ID.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Document represents one successfully ingested file.
// Documents are immutable once created and are removed only by an
// explicit delete, which cascades to their chunks.
type Document struct {
	Id         ID
	Filename   string
	FileHash   string // content address of the raw uploaded bytes
	IngestedAt time.Time
	ChunkIds   []ID // ordered by chunk index
}

// Chunk is a contiguous slice of a document's extracted text. It is the
// unit of indexing, scoring, and retrieval.
type Chunk struct {
	Id          ID
	DocumentId  ID
	Index       int    // zero-based position within the document
	Text        string
	ContentHash string // hash of the normalized text
	Vector      []float32
	TermFreqs   map[string]int // cached term frequencies of the normalized text
	TokenCount  int            // total tokens, used for length normalization
	// NearDuplicate is set when another document already holds a chunk
	// with the same content hash. The chunk is still stored and indexed;
	// result-level deduplication collapses it at query time.
	NearDuplicate bool
}

// Posting is one inverted-index entry: a chunk containing a term and how
// often the term occurs in it.
type Posting struct {
	ChunkId ID
	Freq    int
}

// CorpusStats holds corpus-wide aggregates maintained by the store.
type CorpusStats struct {
	DocumentCount int
	ChunkCount    int
	TermCount     int
	TokenTotal    int // sum of TokenCount over all chunks
}

// AvgChunkTokens returns the average chunk length in tokens, or 0 for an
// empty corpus.
func (s CorpusStats) AvgChunkTokens() float64 {
	if s.ChunkCount == 0 {
		return 0
	}
	return float64(s.TokenTotal) / float64(s.ChunkCount)
}

// Citation links a result or answer back to its source text.
type Citation struct {
	Filename   string
	DocumentId ID
	ChunkIndex int
}

// SearchResult is one ranked hit. Results are ephemeral; they are built
// per query and never persisted.
type SearchResult struct {
	ChunkId     ID
	DocumentId  ID
	ChunkIndex  int
	Filename    string
	Text        string
	ContentHash string

	// Score is scorer-specific until fusion, then normalized to [0,1].
	Score float64

	// KeywordScore and VectorScore carry the normalized per-scorer
	// components. Populated by hybrid search only.
	KeywordScore float64
	VectorScore  float64

	// AlsoFoundIn lists every document holding this exact content when
	// duplicate chunks were collapsed into this result. Empty otherwise.
	AlsoFoundIn []ID
}

// Citation returns the citation for this result's source chunk.
func (r *SearchResult) Citation() Citation {
	return Citation{
		Filename:   r.Filename,
		DocumentId: r.DocumentId,
		ChunkIndex: r.ChunkIndex,
	}
}

// Answer is the response of the question-answering operation.
type Answer struct {
	Text      string
	Citations []Citation
}

// IngestReceipt reports the outcome of an ingestion request.
type IngestReceipt struct {
	DocumentId    ID
	ChunksCreated int
	Duplicate     bool // true when the file was already ingested
}
