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


// Package corpus is a document retrieval and deduplication engine.
//
// Documents are chunked, embedded, and indexed on ingestion; queries run
// as keyword (BM25), vector (cosine), or hybrid (fused) search, and
// questions get extractive, citation-backed answers. Byte-identical
// uploads are rejected; repeated chunk content is collapsed at query time.
package corpus

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/corpushq/corpus/ai"
	"github.com/corpushq/corpus/ai/openai"
	"github.com/corpushq/corpus/core"
	"github.com/corpushq/corpus/ingestion"
	"github.com/corpushq/corpus/reembed"
	"github.com/corpushq/corpus/search"
	"github.com/corpushq/corpus/storage"
	"github.com/corpushq/corpus/storage/badger"
)

// Engine owns the storage backend, the AI provider, and the ingestion and
// search components. One Engine serves one corpus directory.
type Engine struct {
	backend    *badger.Backend
	repository storage.IndexRepository
	provider   ai.AIProvider
	pipeline   *ingestion.Pipeline
	searcher   *search.Searcher
	logger     *slog.Logger

	snapshotStop chan struct{}
	snapshotWG   sync.WaitGroup
}

// EngineOption configures an Engine.
type EngineOption func(*engineOptions)

type engineOptions struct {
	aiConfig         *ai.Config
	provider         ai.AIProvider
	searchConfig     *search.Config
	inMemory         bool
	snapshotInterval time.Duration
	snapshotPath     string
}

// WithAIConfig sets the AI provider configuration.
func WithAIConfig(config *ai.Config) EngineOption {
	return func(o *engineOptions) {
		o.aiConfig = config
	}
}

// WithProvider injects a pre-built AI provider, bypassing the default
// OpenAI-compatible one. Used by tests and embedders-on-premise setups.
func WithProvider(provider ai.AIProvider) EngineOption {
	return func(o *engineOptions) {
		o.provider = provider
	}
}

// WithSearchConfig replaces the default retrieval parameters.
func WithSearchConfig(config *search.Config) EngineOption {
	return func(o *engineOptions) {
		o.searchConfig = config
	}
}

// WithInMemory keeps the whole store in memory. Nothing survives Close.
func WithInMemory() EngineOption {
	return func(o *engineOptions) {
		o.inMemory = true
	}
}

// WithSnapshotInterval writes a best-effort backup of the store to path
// every interval. Snapshot failures are logged, never fatal.
func WithSnapshotInterval(interval time.Duration, path string) EngineOption {
	return func(o *engineOptions) {
		o.snapshotInterval = interval
		o.snapshotPath = path
	}
}

// New opens or creates a corpus at filePath.
func New(filePath string, opts ...EngineOption) (*Engine, error) {
	options := &engineOptions{
		aiConfig: ai.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(options)
	}

	backend, err := badger.OpenBackend(filePath, options.inMemory)
	if err != nil {
		return nil, err
	}

	repository, err := badger.NewRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	provider := options.provider
	if provider == nil {
		provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			backend.Close()
			return nil, err
		}
	}

	pipeline, err := ingestion.NewPipeline(repository, provider.Embedder())
	if err != nil {
		provider.Close()
		backend.Close()
		return nil, err
	}

	searchOpts := []search.Option{search.WithAnswerGenerator(provider.AnswerGenerator())}
	if options.searchConfig != nil {
		searchOpts = append(searchOpts, search.WithConfig(options.searchConfig))
	}
	searcher, err := search.NewSearcher(repository, provider.Embedder(), searchOpts...)
	if err != nil {
		pipeline.Release()
		provider.Close()
		backend.Close()
		return nil, err
	}

	e := &Engine{
		backend:    backend,
		repository: repository,
		provider:   provider,
		pipeline:   pipeline,
		searcher:   searcher,
		logger:     slog.Default(),
	}

	if options.snapshotInterval > 0 && options.snapshotPath != "" {
		e.startSnapshots(options.snapshotInterval, options.snapshotPath)
	}

	return e, nil
}

// Ingest runs the full ingestion path for one uploaded file. See
// ingestion.Pipeline.Ingest for duplicate handling.
func (e *Engine) Ingest(ctx context.Context, filename string, rawContent []byte, text string) (*core.IngestReceipt, error) {
	return e.pipeline.Ingest(ctx, filename, rawContent, text)
}

// SearchKeyword runs BM25 keyword search.
func (e *Engine) SearchKeyword(ctx context.Context, query string, limit int) ([]*core.SearchResult, error) {
	return e.searcher.SearchKeyword(ctx, query, limit)
}

// SearchVector runs cosine-similarity vector search.
func (e *Engine) SearchVector(ctx context.Context, query string, limit int) ([]*core.SearchResult, error) {
	return e.searcher.SearchVector(ctx, query, limit)
}

// SearchHybrid runs fused keyword and vector search with
// duplicate-content collapse.
func (e *Engine) SearchHybrid(ctx context.Context, query string, limit int) ([]*core.SearchResult, error) {
	return e.searcher.SearchHybrid(ctx, query, limit)
}

// Ask answers a question from the ingested documents with citations,
// using up to limit retrieved passages as evidence.
func (e *Engine) Ask(ctx context.Context, question string, limit int) (*core.Answer, error) {
	return e.searcher.Ask(ctx, question, limit)
}

// Stats returns corpus-wide aggregates.
func (e *Engine) Stats(ctx context.Context) (core.CorpusStats, error) {
	return e.repository.Stats(ctx)
}

// GetDocument retrieves a document by ID.
func (e *Engine) GetDocument(ctx context.Context, id core.ID) (*core.Document, error) {
	return e.repository.GetDocument(ctx, id)
}

// DeleteDocument removes a document and everything derived from it.
func (e *Engine) DeleteDocument(ctx context.Context, id core.ID) error {
	return e.repository.DeleteDocument(ctx, id)
}

// Reset clears all stored state.
func (e *Engine) Reset(ctx context.Context) error {
	return e.repository.Reset(ctx)
}

// Snapshot writes a full backup of the store to w.
func (e *Engine) Snapshot(ctx context.Context, w io.Writer) error {
	return e.repository.Snapshot(ctx, w)
}

// RestoreSnapshot loads a backup previously written by Snapshot. Intended
// for recovery into a fresh or freshly Reset corpus.
func (e *Engine) RestoreSnapshot(r io.Reader) error {
	return e.backend.RestoreSnapshot(r)
}

// NewReembedder builds a reembedder over this engine's store and embedder.
func (e *Engine) NewReembedder(config *reembed.Config, progress io.Writer) *reembed.Reembedder {
	return reembed.NewReembedder(e.repository, e.provider.Embedder(), config, progress)
}

// Repository exposes the underlying index repository.
func (e *Engine) Repository() storage.IndexRepository {
	return e.repository
}

// Close stops background work and releases all resources.
func (e *Engine) Close() error {
	if e.snapshotStop != nil {
		close(e.snapshotStop)
		e.snapshotWG.Wait()
		e.snapshotStop = nil
	}

	e.pipeline.Release()

	if err := e.provider.Close(); err != nil {
		e.logger.Error("error closing AI provider", "err", err)
	}
	if err := e.repository.Close(); err != nil {
		e.logger.Error("error closing repository", "err", err)
		return err
	}
	if err := e.backend.Close(); err != nil {
		e.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

// startSnapshots launches the periodic backup goroutine.
func (e *Engine) startSnapshots(interval time.Duration, path string) {
	e.snapshotStop = make(chan struct{})
	e.snapshotWG.Add(1)

	go func() {
		defer e.snapshotWG.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-e.snapshotStop:
				return
			case <-ticker.C:
				if err := e.writeSnapshotFile(path); err != nil {
					e.logger.Error("periodic snapshot failed", "path", path, "err", err)
				} else {
					e.logger.Debug("periodic snapshot written", "path", path)
				}
			}
		}
	}()
}

// writeSnapshotFile writes the backup to a temp file and renames it into
// place, so a crash mid-write never clobbers the previous snapshot.
func (e *Engine) writeSnapshotFile(path string) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}

	if err := e.backend.Snapshot(f); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}
