package corpus

import (
	"bytes"
	"context"
	"testing"

	"github.com/corpushq/corpus/ai/mock"
	"github.com/corpushq/corpus/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()

	engine, err := New("", WithInMemory(), WithProvider(mock.NewMockProvider()))
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, engine.Close())
	})
	return engine
}

func TestEngine_IngestAndSearch(t *testing.T) {
	engine := newTestEngine(t)
	ctx := context.Background()

	text := "Refunds are processed within thirty days of purchase."
	receipt, err := engine.Ingest(ctx, "refunds.txt", []byte(text), text)
	require.NoError(t, err)
	assert.False(t, receipt.Duplicate)
	assert.Equal(t, 1, receipt.ChunksCreated)

	other := "Shipping takes five business days for domestic orders."
	_, err = engine.Ingest(ctx, "shipping.txt", []byte(other), other)
	require.NoError(t, err)

	results, err := engine.SearchKeyword(ctx, "refunds", 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "refunds.txt", results[0].Filename)

	hybrid, err := engine.SearchHybrid(ctx, "refunds processed", 5)
	require.NoError(t, err)
	require.NotEmpty(t, hybrid)
	assert.Equal(t, "refunds.txt", hybrid[0].Filename)

	vector, err := engine.SearchVector(ctx, "refund turnaround", 5)
	require.NoError(t, err)
	assert.NotNil(t, vector)

	stats, err := engine.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.DocumentCount)
	assert.Equal(t, 2, stats.ChunkCount)
}

func TestEngine_DuplicateUpload(t *testing.T) {
	engine := newTestEngine(t)
	ctx := context.Background()

	content := []byte("Identical bytes, uploaded twice.")
	first, err := engine.Ingest(ctx, "once.txt", content, string(content))
	require.NoError(t, err)

	second, err := engine.Ingest(ctx, "twice.txt", content, string(content))
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrDuplicateFile)
	require.NotNil(t, second)
	assert.True(t, second.Duplicate)
	assert.Equal(t, first.DocumentId, second.DocumentId)
}

func TestEngine_Ask(t *testing.T) {
	engine := newTestEngine(t)
	ctx := context.Background()

	text := "Refunds are processed within thirty days."
	_, err := engine.Ingest(ctx, "refunds.txt", []byte(text), text)
	require.NoError(t, err)

	answer, err := engine.Ask(ctx, "when are refunds processed?", 5)
	require.NoError(t, err)
	assert.NotEmpty(t, answer.Text)
	assert.NotEmpty(t, answer.Citations)

	empty, err := engine.Ask(ctx, "what is the meaning of quartz?", 5)
	require.NoError(t, err)
	assert.NotNil(t, empty)
}

func TestEngine_DeleteDocument(t *testing.T) {
	engine := newTestEngine(t)
	ctx := context.Background()

	text := "Temporary document scheduled for deletion."
	receipt, err := engine.Ingest(ctx, "temp.txt", []byte(text), text)
	require.NoError(t, err)

	require.NoError(t, engine.DeleteDocument(ctx, receipt.DocumentId))

	results, err := engine.SearchKeyword(ctx, "deletion", 5)
	require.NoError(t, err)
	assert.Empty(t, results)

	stats, err := engine.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.DocumentCount)
}

func TestEngine_Reset(t *testing.T) {
	engine := newTestEngine(t)
	ctx := context.Background()

	text := "Wiped by reset."
	_, err := engine.Ingest(ctx, "wipe.txt", []byte(text), text)
	require.NoError(t, err)

	require.NoError(t, engine.Reset(ctx))

	stats, err := engine.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, core.CorpusStats{}, stats)
}

func TestEngine_Snapshot(t *testing.T) {
	engine := newTestEngine(t)
	ctx := context.Background()

	text := "Snapshot me."
	_, err := engine.Ingest(ctx, "snap.txt", []byte(text), text)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, engine.Snapshot(ctx, &buf))
	assert.Positive(t, buf.Len())
}

func TestEngine_RestoreSnapshot(t *testing.T) {
	engine := newTestEngine(t)
	ctx := context.Background()

	text := "Survives the round trip through a backup."
	receipt, err := engine.Ingest(ctx, "keep.txt", []byte(text), text)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, engine.Snapshot(ctx, &buf))

	require.NoError(t, engine.Reset(ctx))
	_, err = engine.GetDocument(ctx, receipt.DocumentId)
	require.Error(t, err)

	require.NoError(t, engine.RestoreSnapshot(&buf))

	doc, err := engine.GetDocument(ctx, receipt.DocumentId)
	require.NoError(t, err)
	assert.Equal(t, "keep.txt", doc.Filename)

	results, err := engine.SearchKeyword(ctx, "backup", 5)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestEngine_Reembed(t *testing.T) {
	engine := newTestEngine(t)
	ctx := context.Background()

	text := "Passage to be reembedded later."
	_, err := engine.Ingest(ctx, "re.txt", []byte(text), text)
	require.NoError(t, err)

	var out bytes.Buffer
	reembedder := engine.NewReembedder(nil, &out)
	require.NoError(t, reembedder.Run(ctx))
	assert.Contains(t, out.String(), "Reembedding complete")
}
