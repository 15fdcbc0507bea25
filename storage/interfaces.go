package storage

import (
	"context"
	"io"

	"github.com/corpushq/corpus/core"
)

// DocumentRepository provides operations for managing documents and the
// chunks they own. A document and its chunks always move together: adding
// or deleting a document updates the chunk table and the inverted index in
// the same transaction, so a failed ingestion never leaves a partially
// indexed chunk reachable by search.
type DocumentRepository interface {
	// AddDocument stores a document together with its chunks, postings,
	// and corpus aggregates as one atomic write. Chunks whose content
	// hash already exists under a different document are flagged
	// NearDuplicate before being written. Returns *core.DuplicateFileError
	// if a document with the same file hash already exists.
	AddDocument(ctx context.Context, doc *core.Document, chunks []*core.Chunk) error

	// GetDocument retrieves a document by ID.
	// Returns ErrNotFound if the document doesn't exist.
	GetDocument(ctx context.Context, id core.ID) (*core.Document, error)

	// GetDocumentByFileHash retrieves the document holding the given raw
	// content, or nil if no such document exists.
	GetDocumentByFileHash(ctx context.Context, fileHash string) (*core.Document, error)

	// DeleteDocument removes a document, its chunks, their postings, and
	// their content-hash index entries in one transaction.
	// Returns ErrNotFound if the document doesn't exist.
	DeleteDocument(ctx context.Context, id core.ID) error
}

// ChunkRepository provides read access to chunks, the inverted index, and
// the embedding table, plus the vector update needed for reembedding.
type ChunkRepository interface {
	// GetChunk retrieves a single chunk by ID.
	// Returns ErrNotFound if the chunk doesn't exist.
	GetChunk(ctx context.Context, id core.ID) (*core.Chunk, error)

	// GetChunks retrieves multiple chunks by their IDs.
	// Returns only the chunks that exist (no error for missing chunks).
	GetChunks(ctx context.Context, ids ...core.ID) ([]*core.Chunk, error)

	// ListChunkIds returns the IDs of all stored chunks in ascending order.
	ListChunkIds(ctx context.Context) ([]core.ID, error)

	// Postings returns the inverted-index entries for a term. A term with
	// no postings returns an empty slice, not an error.
	Postings(ctx context.Context, term string) ([]core.Posting, error)

	// ChunkIdsByContentHash returns the IDs of all chunks whose normalized
	// text hashes to contentHash.
	ChunkIdsByContentHash(ctx context.Context, contentHash string) ([]core.ID, error)

	// FindSimilar scans all chunk embeddings and returns chunks with
	// cosine similarity >= minSimilarity, up to limit results, ordered by
	// similarity (highest first) with deterministic tie-breaking.
	FindSimilar(ctx context.Context, vector []float32, minSimilarity float64, limit int) ([]*core.SearchResult, error)

	// UpdateChunkVectors replaces the embeddings of the given chunks.
	// Returns ErrNotFound if any chunk doesn't exist.
	UpdateChunkVectors(ctx context.Context, vectors map[core.ID][]float32) error
}

// IndexRepository is the complete chunk store: documents, chunks, the
// inverted index, and corpus aggregates behind one implementation.
type IndexRepository interface {
	DocumentRepository
	ChunkRepository

	// Stats returns corpus-wide aggregates.
	Stats(ctx context.Context) (core.CorpusStats, error)

	// Reset clears all stored state. Used only by administrative callers.
	Reset(ctx context.Context) error

	// Snapshot writes a full backup of the store to w.
	Snapshot(ctx context.Context, w io.Writer) error

	// Close closes the storage backend and releases resources.
	Close() error
}
