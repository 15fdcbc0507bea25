package ingestion

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/corpushq/corpus/ai/mock"
	"github.com/corpushq/corpus/core"
	badgerstore "github.com/corpushq/corpus/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPipeline(t *testing.T) (*Pipeline, *badgerstore.Repository, *mock.MockEmbedder) {
	t.Helper()

	repo := badgerstore.NewTestRepository(t)
	embedder := mock.NewMockEmbedder()

	pipeline, err := NewPipeline(repo, embedder, WithChunking(50, 10))
	require.NoError(t, err)
	t.Cleanup(pipeline.Release)

	return pipeline, repo, embedder
}

func TestNewPipeline_RequiresDependencies(t *testing.T) {
	repo := badgerstore.NewTestRepository(t)

	_, err := NewPipeline(nil, mock.NewMockEmbedder())
	assert.ErrorIs(t, err, ErrRepositoryRequired)

	_, err = NewPipeline(repo, nil)
	assert.ErrorIs(t, err, ErrEmbedderRequired)
}

func TestPipeline_Ingest(t *testing.T) {
	pipeline, repo, _ := newTestPipeline(t)
	ctx := context.Background()

	text := "Refunds are processed within thirty days of the original purchase date."
	receipt, err := pipeline.Ingest(ctx, "refunds.txt", []byte(text), text)
	require.NoError(t, err)
	assert.False(t, receipt.Duplicate)
	assert.Equal(t, 1, receipt.ChunksCreated)

	doc, err := repo.GetDocument(ctx, receipt.DocumentId)
	require.NoError(t, err)
	assert.Equal(t, "refunds.txt", doc.Filename)
	require.Len(t, doc.ChunkIds, 1)

	chunk, err := repo.GetChunk(ctx, doc.ChunkIds[0])
	require.NoError(t, err)
	assert.Equal(t, text, chunk.Text)
	assert.NotEmpty(t, chunk.Vector)
	assert.NotEmpty(t, chunk.TermFreqs)
	assert.Positive(t, chunk.TokenCount)
}

func TestPipeline_Ingest_EmptyText(t *testing.T) {
	pipeline, _, _ := newTestPipeline(t)

	_, err := pipeline.Ingest(context.Background(), "empty.txt", []byte{0x01}, "  \n ")
	assert.ErrorIs(t, err, core.ErrEmptyDocument)
}

func TestPipeline_Ingest_IdempotentReupload(t *testing.T) {
	pipeline, repo, _ := newTestPipeline(t)
	ctx := context.Background()

	content := []byte("Employee handbook, edition four.")
	first, err := pipeline.Ingest(ctx, "handbook.txt", content, string(content))
	require.NoError(t, err)

	second, err := pipeline.Ingest(ctx, "handbook-copy.txt", content, string(content))
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrDuplicateFile)
	require.NotNil(t, second)
	assert.True(t, second.Duplicate)
	assert.Equal(t, first.DocumentId, second.DocumentId)

	stats, err := repo.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.DocumentCount)
}

func TestPipeline_Ingest_EmbeddingFailureWritesNothing(t *testing.T) {
	pipeline, repo, embedder := newTestPipeline(t)
	ctx := context.Background()

	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return nil, errors.New("model unavailable")
	}

	text := "This ingestion is doomed from the start."
	_, err := pipeline.Ingest(ctx, "doomed.txt", []byte(text), text)
	assert.ErrorIs(t, err, core.ErrEmbeddingFailed)

	stats, err := repo.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, core.CorpusStats{}, stats)
}

func TestPipeline_Ingest_FlagsContentDuplicates(t *testing.T) {
	pipeline, repo, _ := newTestPipeline(t)
	ctx := context.Background()

	// Same statement, different formatting: distinct file hashes, identical
	// content hash after normalization.
	a := "Refunds are processed within 30 days."
	b := "refunds are processed within 30 days"

	first, err := pipeline.Ingest(ctx, "policy-a.txt", []byte(a), a)
	require.NoError(t, err)
	second, err := pipeline.Ingest(ctx, "policy-b.txt", []byte(b), b)
	require.NoError(t, err)

	docA, err := repo.GetDocument(ctx, first.DocumentId)
	require.NoError(t, err)
	chunkA, err := repo.GetChunk(ctx, docA.ChunkIds[0])
	require.NoError(t, err)
	assert.False(t, chunkA.NearDuplicate)

	docB, err := repo.GetDocument(ctx, second.DocumentId)
	require.NoError(t, err)
	chunkB, err := repo.GetChunk(ctx, docB.ChunkIds[0])
	require.NoError(t, err)
	assert.True(t, chunkB.NearDuplicate)
	assert.Equal(t, chunkA.ContentHash, chunkB.ContentHash)
}

func TestPipeline_Ingest_MultiChunkDocument(t *testing.T) {
	pipeline, repo, _ := newTestPipeline(t)
	ctx := context.Background()

	var b strings.Builder
	for i := 0; i < 130; i++ {
		b.WriteString("paragraph sentence number ")
	}
	text := b.String()

	receipt, err := pipeline.Ingest(ctx, "long.txt", []byte(text), text)
	require.NoError(t, err)
	assert.Greater(t, receipt.ChunksCreated, 1)

	doc, err := repo.GetDocument(ctx, receipt.DocumentId)
	require.NoError(t, err)
	chunks, err := repo.GetChunks(ctx, doc.ChunkIds...)
	require.NoError(t, err)
	require.Len(t, chunks, receipt.ChunksCreated)
	for i, chunk := range chunks {
		assert.Equal(t, i, chunk.Index)
		assert.NotEmpty(t, chunk.Vector)
	}
}
