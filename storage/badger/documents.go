package badger

import (
	"context"
	"fmt"
	"time"

	"github.com/corpushq/corpus/core"
	"github.com/corpushq/corpus/storage"
	"github.com/dgraph-io/badger/v4"
)

// Repository implements storage.IndexRepository for BadgerDB.
// Documents, chunks, the inverted index, and corpus aggregates live in one
// keyspace so every ingestion and deletion is a single transaction.
type Repository struct {
	backend *Backend
}

var _ storage.IndexRepository = (*Repository)(nil)

// NewRepository creates a new Repository.
// Fails if the corpus aggregates record cannot be decoded: a store that
// cannot be read reliably cannot be trusted for deduplication.
func NewRepository(backend *Backend) (*Repository, error) {
	r := &Repository{backend: backend}

	err := backend.WithTx(func(tx *badger.Txn) error {
		_, err := r.readStats(tx)
		return err
	}, false)
	if err != nil {
		return nil, err
	}

	return r, nil
}

// Close releases repository resources. The backend is owned by the caller
// and is closed separately.
func (r *Repository) Close() error {
	return nil
}

// AddDocument stores a document together with its chunks, postings, and
// corpus aggregates as one atomic write.
func (r *Repository) AddDocument(ctx context.Context, doc *core.Document, chunks []*core.Chunk) error {
	if err := core.ValidateDocument(doc); err != nil {
		return err
	}
	if err := core.ValidateChunks(doc, chunks); err != nil {
		return err
	}

	return r.backend.WithTx(func(tx *badger.Txn) error {
		// Re-check the file hash inside the write transaction: the guard
		// check in the pipeline runs outside it and may race.
		item, err := tx.Get(makeFileHashKey(doc.FileHash))
		if err == nil {
			var existingID core.ID
			if err := item.Value(func(val []byte) error {
				var valErr error
				existingID, valErr = storage.UnmarshalID(val)
				return valErr
			}); err != nil {
				return fmt.Errorf("%w: %v", storage.ErrCorruptIndex, err)
			}
			return &core.DuplicateFileError{DocumentId: existingID, Filename: doc.Filename}
		}
		if err != badger.ErrKeyNotFound {
			return err
		}

		stats, err := r.readStats(tx)
		if err != nil {
			return err
		}

		if doc.IngestedAt.IsZero() {
			doc.IngestedAt = time.Now().UTC()
		}

		termAdds := make(map[string]int)
		for _, chunk := range chunks {
			foreign, err := r.hasForeignContent(tx, chunk.ContentHash, doc.Id)
			if err != nil {
				return err
			}
			chunk.NearDuplicate = foreign

			if err := tx.Set(makeChunkKey(chunk.Id), storage.MarshalChunk(chunk)); err != nil {
				return err
			}
			if err := tx.Set(makeContentHashKey(chunk.ContentHash, chunk.Id), storage.MarshalID(doc.Id)); err != nil {
				return err
			}
			for term, freq := range chunk.TermFreqs {
				if err := tx.Set(makePostingKey(term, chunk.Id), marshalCount(freq)); err != nil {
					return err
				}
				termAdds[term]++
			}

			stats.ChunkCount++
			stats.TokenTotal += chunk.TokenCount
		}

		for term, delta := range termAdds {
			df, exists, err := r.readTermCount(tx, term)
			if err != nil {
				return err
			}
			if !exists {
				stats.TermCount++
			}
			if err := tx.Set(makeTermKey(term), marshalCount(df+delta)); err != nil {
				return err
			}
		}

		if err := tx.Set(makeDocumentKey(doc.Id), storage.MarshalDocument(doc)); err != nil {
			return err
		}
		if err := tx.Set(makeFileHashKey(doc.FileHash), storage.MarshalID(doc.Id)); err != nil {
			return err
		}

		stats.DocumentCount++
		if err := r.writeStats(tx, stats); err != nil {
			return err
		}

		return tx.Commit()
	}, true)
}

// GetDocument retrieves a document by ID.
func (r *Repository) GetDocument(ctx context.Context, id core.ID) (*core.Document, error) {
	var result *core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = r.readDocument(tx, makeDocumentKey(id))
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

// GetDocumentByFileHash retrieves the document holding the given raw
// content, or nil if no such document exists.
func (r *Repository) GetDocumentByFileHash(ctx context.Context, fileHash string) (*core.Document, error) {
	var result *core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeFileHashKey(fileHash))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}

		var id core.ID
		if err := item.Value(func(val []byte) error {
			var valErr error
			id, valErr = storage.UnmarshalID(val)
			return valErr
		}); err != nil {
			return fmt.Errorf("%w: %v", storage.ErrCorruptIndex, err)
		}

		result, err = r.readDocument(tx, makeDocumentKey(id))
		return err
	}, false)
	return result, err
}

// DeleteDocument removes a document and cascades to its chunks, their
// postings, and their content-hash index entries in one transaction.
func (r *Repository) DeleteDocument(ctx context.Context, id core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		doc, err := r.readDocument(tx, makeDocumentKey(id))
		if err != nil {
			return err
		}
		if doc == nil {
			return storage.ErrNotFound
		}

		stats, err := r.readStats(tx)
		if err != nil {
			return err
		}

		termDrops := make(map[string]int)
		for _, chunkID := range doc.ChunkIds {
			chunk, err := r.readChunk(tx, makeChunkKey(chunkID))
			if err != nil {
				return err
			}
			if chunk == nil {
				continue
			}

			for term := range chunk.TermFreqs {
				if err := tx.Delete(makePostingKey(term, chunk.Id)); err != nil {
					return err
				}
				termDrops[term]++
			}
			if err := tx.Delete(makeContentHashKey(chunk.ContentHash, chunk.Id)); err != nil {
				return err
			}
			if err := tx.Delete(makeChunkKey(chunk.Id)); err != nil {
				return err
			}

			stats.ChunkCount--
			stats.TokenTotal -= chunk.TokenCount
		}

		for term, delta := range termDrops {
			df, exists, err := r.readTermCount(tx, term)
			if err != nil {
				return err
			}
			if !exists {
				continue
			}
			if df-delta <= 0 {
				if err := tx.Delete(makeTermKey(term)); err != nil {
					return err
				}
				stats.TermCount--
				continue
			}
			if err := tx.Set(makeTermKey(term), marshalCount(df-delta)); err != nil {
				return err
			}
		}

		if err := tx.Delete(makeFileHashKey(doc.FileHash)); err != nil {
			return err
		}
		if err := tx.Delete(makeDocumentKey(doc.Id)); err != nil {
			return err
		}

		stats.DocumentCount--
		if err := r.writeStats(tx, stats); err != nil {
			return err
		}

		return tx.Commit()
	}, true)
}

// Helper methods

// hasForeignContent reports whether any other document already stores a
// chunk with the given content hash.
func (r *Repository) hasForeignContent(tx *badger.Txn, contentHash string, docID core.ID) (bool, error) {
	prefix := makePartialContentHashKey(contentHash)
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	iter := tx.NewIterator(opts)
	defer iter.Close()

	for iter.Rewind(); iter.Valid(); iter.Next() {
		var ownerID core.ID
		err := iter.Item().Value(func(val []byte) error {
			var valErr error
			ownerID, valErr = storage.UnmarshalID(val)
			return valErr
		})
		if err != nil {
			return false, fmt.Errorf("%w: %v", storage.ErrCorruptIndex, err)
		}
		if ownerID != docID {
			return true, nil
		}
	}
	return false, nil
}

// readDocument reads a document from the transaction. Returns nil when the
// key does not exist.
func (r *Repository) readDocument(tx *badger.Txn, key []byte) (*core.Document, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var doc *core.Document
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		doc, unmarshalErr = storage.UnmarshalDocument(val)
		return unmarshalErr
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrCorruptIndex, err)
	}
	return doc, nil
}

// readTermCount reads a term's document-frequency counter.
func (r *Repository) readTermCount(tx *badger.Txn, term string) (int, bool, error) {
	item, err := tx.Get(makeTermKey(term))
	if err == badger.ErrKeyNotFound {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}

	var count int
	err = item.Value(func(val []byte) error {
		var valErr error
		count, valErr = unmarshalCount(val)
		return valErr
	})
	if err != nil {
		return 0, false, fmt.Errorf("%w: %v", storage.ErrCorruptIndex, err)
	}
	return count, true, nil
}

// readStats reads the corpus aggregates record. A missing record is an
// empty corpus, not an error.
func (r *Repository) readStats(tx *badger.Txn) (core.CorpusStats, error) {
	item, err := tx.Get(makeStatsKey())
	if err == badger.ErrKeyNotFound {
		return core.CorpusStats{}, nil
	}
	if err != nil {
		return core.CorpusStats{}, err
	}

	var stats *core.CorpusStats
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		stats, unmarshalErr = storage.UnmarshalStats(val)
		return unmarshalErr
	})
	if err != nil {
		return core.CorpusStats{}, fmt.Errorf("%w: %v", storage.ErrCorruptIndex, err)
	}
	return *stats, nil
}

func (r *Repository) writeStats(tx *badger.Txn, stats core.CorpusStats) error {
	return tx.Set(makeStatsKey(), storage.MarshalStats(&stats))
}
