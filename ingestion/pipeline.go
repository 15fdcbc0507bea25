package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/corpushq/corpus/ai"
	"github.com/corpushq/corpus/core"
	"github.com/corpushq/corpus/storage"
	"github.com/panjf2000/ants/v2"
)

// Pipeline orchestrates the ingestion of uploaded files.
// It chunks extracted text, embeds chunks concurrently, and writes the
// document atomically. Embedding happens before any store write, so a
// provider failure leaves the index untouched.
type Pipeline struct {
	repository storage.IndexRepository
	embedder   ai.Embedder
	chunker    *Chunker
	pool       *ants.Pool
	logger     *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for concurrent embedding.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}

		if p.pool != nil {
			p.pool.Release()
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.pool = pool
		return nil
	}
}

// WithChunking overrides the default chunk size and overlap, in words.
func WithChunking(size, overlap int) Option {
	return func(p *Pipeline) error {
		chunker, err := NewChunker(size, overlap)
		if err != nil {
			return err
		}
		p.chunker = chunker
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(repository storage.IndexRepository, embedder ai.Embedder, opts ...Option) (*Pipeline, error) {
	if repository == nil {
		return nil, ErrRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	chunker, err := NewChunker(DefaultChunkSize, DefaultChunkOverlap)
	if err != nil {
		pool.Release()
		return nil, err
	}

	p := &Pipeline{
		repository: repository,
		embedder:   embedder,
		chunker:    chunker,
		pool:       pool,
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	return p, nil
}

// Ingest runs the full ingestion path for one uploaded file. rawContent is
// the file as uploaded and text its extracted plain text.
//
// A byte-identical re-upload is rejected: the receipt reports
// Duplicate=true with the existing document ID, and the returned error
// matches core.ErrDuplicateFile.
func (p *Pipeline) Ingest(ctx context.Context, filename string, rawContent []byte, text string) (*core.IngestReceipt, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: %s", core.ErrEmptyDocument, filename)
	}

	fileHash := core.HashBytes(rawContent)

	// Guard check before the expensive embedding step. The store re-checks
	// inside the write transaction, so a racing upload still loses cleanly.
	existing, err := p.repository.GetDocumentByFileHash(ctx, fileHash)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		p.logger.Info("rejecting duplicate file",
			"filename", filename,
			"existing_document", existing.Id)
		return &core.IngestReceipt{DocumentId: existing.Id, Duplicate: true},
			&core.DuplicateFileError{DocumentId: existing.Id, Filename: filename}
	}

	doc := &core.Document{
		Id:         core.IDFromContent(fileHash),
		Filename:   filename,
		FileHash:   fileHash,
		IngestedAt: time.Now().UTC(),
	}

	texts := p.chunker.Split(text)
	chunks := make([]*core.Chunk, len(texts))
	for i, chunkText := range texts {
		chunk := &core.Chunk{
			Id:          core.IDFromContent(fmt.Sprintf("%s:%d", fileHash, i)),
			DocumentId:  doc.Id,
			Index:       i,
			Text:        chunkText,
			ContentHash: core.HashText(chunkText),
			TermFreqs:   core.TermFrequencies(chunkText),
		}
		for _, freq := range chunk.TermFreqs {
			chunk.TokenCount += freq
		}
		chunks[i] = chunk
		doc.ChunkIds = append(doc.ChunkIds, chunk.Id)
	}

	if err := p.embedChunks(ctx, chunks); err != nil {
		return nil, err
	}

	if err := p.repository.AddDocument(ctx, doc, chunks); err != nil {
		var dup *core.DuplicateFileError
		if errors.As(err, &dup) {
			return &core.IngestReceipt{DocumentId: dup.DocumentId, Duplicate: true}, err
		}
		return nil, err
	}

	p.logger.Info("ingested document",
		"filename", filename,
		"document", doc.Id,
		"chunks", len(chunks))

	return &core.IngestReceipt{DocumentId: doc.Id, ChunksCreated: len(chunks)}, nil
}

// embedChunks embeds all chunks on the worker pool and waits for every
// worker before returning. Any failure aborts the whole ingestion.
func (p *Pipeline) embedChunks(ctx context.Context, chunks []*core.Chunk) error {
	var wg sync.WaitGroup
	errs := make([]error, len(chunks))

	for i, chunk := range chunks {
		i, chunk := i, chunk
		wg.Add(1)
		submitErr := p.pool.Submit(func() {
			defer wg.Done()
			vector, err := p.embedder.EmbedText(ctx, chunk.Text)
			if err != nil {
				errs[i] = err
				return
			}
			chunk.Vector = vector
		})
		if submitErr != nil {
			wg.Done()
			errs[i] = submitErr
		}
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			p.logger.Error("embedding failed", "chunk_index", i, "err", err)
			return fmt.Errorf("%w: chunk %d: %v", core.ErrEmbeddingFailed, i, err)
		}
	}
	return nil
}

// Release releases the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}
