package badger

import (
	"context"
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/corpushq/corpus/core"
	"github.com/corpushq/corpus/storage"
	"github.com/dgraph-io/badger/v4"
)

// GetChunk retrieves a single chunk by ID.
func (r *Repository) GetChunk(ctx context.Context, id core.ID) (*core.Chunk, error) {
	var result *core.Chunk
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = r.readChunk(tx, makeChunkKey(id))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// GetChunks retrieves multiple chunks by their IDs.
// Missing chunks are skipped, not errors.
func (r *Repository) GetChunks(ctx context.Context, ids ...core.ID) ([]*core.Chunk, error) {
	results := make([]*core.Chunk, 0, len(ids))
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			chunk, err := r.readChunk(tx, makeChunkKey(id))
			if err != nil {
				return err
			}
			if chunk != nil {
				results = append(results, chunk)
			}
		}
		return nil
	}, false)
	return results, err
}

// ListChunkIds returns the IDs of all stored chunks in ascending order.
func (r *Repository) ListChunkIds(ctx context.Context) ([]core.ID, error) {
	var ids []core.ID
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(chunkPrefix + ":")
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			chunk, err := r.readChunkItem(iter.Item())
			if err != nil {
				return err
			}
			ids = append(ids, chunk.Id)
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// Postings returns the inverted-index entries for a term, ordered by chunk
// ID. A term with no postings returns an empty slice.
func (r *Repository) Postings(ctx context.Context, term string) ([]core.Posting, error) {
	postings := make([]core.Posting, 0)
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		prefix := makePartialPostingKey(term)
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			item := iter.Item()
			chunkID := chunkIDFromIndexKey(item.Key(), prefix)

			var freq int
			err := item.Value(func(val []byte) error {
				var valErr error
				freq, valErr = unmarshalCount(val)
				return valErr
			})
			if err != nil {
				return fmt.Errorf("%w: %v", storage.ErrCorruptIndex, err)
			}

			postings = append(postings, core.Posting{ChunkId: chunkID, Freq: freq})
		}
		return nil
	}, false)
	return postings, err
}

// ChunkIdsByContentHash returns the IDs of all chunks whose normalized text
// hashes to contentHash, in ascending ID order.
func (r *Repository) ChunkIdsByContentHash(ctx context.Context, contentHash string) ([]core.ID, error) {
	ids := make([]core.ID, 0)
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		prefix := makePartialContentHashKey(contentHash)
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			ids = append(ids, chunkIDFromIndexKey(iter.Item().Key(), prefix))
		}
		return nil
	}, false)
	return ids, err
}

// FindSimilar scans all chunk embeddings and returns the chunks whose
// cosine similarity to vector is at least minSimilarity, best first.
// Chunks without an embedding are skipped.
func (r *Repository) FindSimilar(ctx context.Context, vector []float32, minSimilarity float64, limit int) ([]*core.SearchResult, error) {
	if len(vector) == 0 {
		return []*core.SearchResult{}, nil
	}

	results := make([]*core.SearchResult, 0)
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		filenames := make(map[core.ID]string)

		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(chunkPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			chunk, err := r.readChunkItem(iter.Item())
			if err != nil {
				return err
			}
			if len(chunk.Vector) == 0 {
				continue
			}

			similarity := cosineSimilarity(vector, chunk.Vector)
			if similarity < minSimilarity {
				continue
			}

			filename, ok := filenames[chunk.DocumentId]
			if !ok {
				doc, err := r.readDocument(tx, makeDocumentKey(chunk.DocumentId))
				if err != nil {
					return err
				}
				if doc != nil {
					filename = doc.Filename
				}
				filenames[chunk.DocumentId] = filename
			}

			results = append(results, &core.SearchResult{
				ChunkId:     chunk.Id,
				DocumentId:  chunk.DocumentId,
				ChunkIndex:  chunk.Index,
				Filename:    filename,
				Text:        chunk.Text,
				ContentHash: chunk.ContentHash,
				Score:       similarity,
			})
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.ChunkIndex != b.ChunkIndex {
			return a.ChunkIndex < b.ChunkIndex
		}
		if a.DocumentId != b.DocumentId {
			return a.DocumentId < b.DocumentId
		}
		return a.ChunkId < b.ChunkId
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// UpdateChunkVectors replaces the embeddings of the given chunks in one
// transaction. Fails with ErrNotFound if any chunk is missing.
func (r *Repository) UpdateChunkVectors(ctx context.Context, vectors map[core.ID][]float32) error {
	if len(vectors) == 0 {
		return nil
	}

	return r.backend.WithTx(func(tx *badger.Txn) error {
		for id, vector := range vectors {
			chunk, err := r.readChunk(tx, makeChunkKey(id))
			if err != nil {
				return err
			}
			if chunk == nil {
				return fmt.Errorf("chunk %d: %w", id, storage.ErrNotFound)
			}

			chunk.Vector = vector
			if err := tx.Set(makeChunkKey(id), storage.MarshalChunk(chunk)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// Stats returns corpus-wide aggregates.
func (r *Repository) Stats(ctx context.Context) (core.CorpusStats, error) {
	var stats core.CorpusStats
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		stats, err = r.readStats(tx)
		return err
	}, false)
	return stats, err
}

// Reset clears all stored state.
func (r *Repository) Reset(ctx context.Context) error {
	return r.backend.DropAll()
}

// Snapshot writes a full backup of the store to w.
func (r *Repository) Snapshot(ctx context.Context, w io.Writer) error {
	return r.backend.Snapshot(w)
}

// readChunk reads a chunk from the transaction. Returns nil when the key
// does not exist.
func (r *Repository) readChunk(tx *badger.Txn, key []byte) (*core.Chunk, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}
	return r.readChunkItem(item)
}

func (r *Repository) readChunkItem(item *badger.Item) (*core.Chunk, error) {
	var chunk *core.Chunk
	err := item.Value(func(val []byte) error {
		var unmarshalErr error
		chunk, unmarshalErr = storage.UnmarshalChunk(val)
		return unmarshalErr
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrCorruptIndex, err)
	}
	return chunk, nil
}

// cosineSimilarity computes the cosine of the angle between two vectors in
// float64 precision. Returns 0 when either vector has zero magnitude or the
// dimensions differ.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
