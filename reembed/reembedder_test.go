package reembed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/corpushq/corpus/ai/mock"
	"github.com/corpushq/corpus/core"
	badgerstore "github.com/corpushq/corpus/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedChunks(t *testing.T, repo *badgerstore.Repository, count int) []core.ID {
	t.Helper()

	texts := make([]string, count)
	for i := range texts {
		texts[i] = fmt.Sprintf("stored passage number %d", i)
	}

	fileHash := core.HashBytes([]byte(fmt.Sprint(texts)))
	doc := &core.Document{
		Id:       core.IDFromContent(fileHash),
		Filename: "seed.txt",
		FileHash: fileHash,
	}

	chunks := make([]*core.Chunk, count)
	for i, text := range texts {
		chunks[i] = &core.Chunk{
			Id:          core.IDFromContent(fmt.Sprintf("%s:%d", fileHash, i)),
			DocumentId:  doc.Id,
			Index:       i,
			Text:        text,
			ContentHash: core.HashText(text),
			TermFreqs:   core.TermFrequencies(text),
			TokenCount:  len(core.Tokenize(text)),
			Vector:      []float32{9, 9, 9},
		}
		doc.ChunkIds = append(doc.ChunkIds, chunks[i].Id)
	}

	require.NoError(t, repo.AddDocument(context.Background(), doc, chunks))
	return doc.ChunkIds
}

func fastConfig() *Config {
	return &Config{
		BatchSize:      2,
		ReportInterval: 1,
		MaxRetries:     3,
		RetryDelay:     time.Millisecond,
	}
}

func TestReembedder_Run(t *testing.T) {
	repo := badgerstore.NewTestRepository(t)
	ids := seedChunks(t, repo, 5)

	embedder := mock.NewMockEmbedder()
	var out bytes.Buffer
	reembedder := NewReembedder(repo, embedder, fastConfig(), &out)

	require.NoError(t, reembedder.Run(context.Background()))

	for _, id := range ids {
		chunk, err := repo.GetChunk(context.Background(), id)
		require.NoError(t, err)
		assert.NotEqual(t, []float32{9, 9, 9}, chunk.Vector)
		assert.Len(t, chunk.Vector, 384)
	}
	assert.Contains(t, out.String(), "Reembedding complete")
}

func TestReembedder_Run_EmptyStore(t *testing.T) {
	repo := badgerstore.NewTestRepository(t)

	var out bytes.Buffer
	reembedder := NewReembedder(repo, mock.NewMockEmbedder(), fastConfig(), &out)

	require.NoError(t, reembedder.Run(context.Background()))
	assert.Contains(t, out.String(), "No chunks found")
}

func TestReembedder_Run_RetriesTransientFailures(t *testing.T) {
	repo := badgerstore.NewTestRepository(t)
	seedChunks(t, repo, 3)

	embedder := mock.NewMockEmbedder()
	failures := 2
	calls := 0
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		calls++
		if calls <= failures {
			return nil, errors.New("transient provider error")
		}
		vectors := make([][]float32, len(texts))
		for i := range texts {
			vectors[i] = []float32{1, 2, 3}
		}
		return vectors, nil
	}

	var out bytes.Buffer
	reembedder := NewReembedder(repo, embedder, fastConfig(), &out)
	require.NoError(t, reembedder.Run(context.Background()))
	assert.Greater(t, calls, failures)
}

func TestRetryWithBackoff(t *testing.T) {
	ctx := context.Background()

	t.Run("succeeds first try", func(t *testing.T) {
		calls := 0
		err := RetryWithBackoff(ctx, func() error {
			calls++
			return nil
		}, 3, time.Millisecond)
		require.NoError(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("succeeds after failures", func(t *testing.T) {
		calls := 0
		err := RetryWithBackoff(ctx, func() error {
			calls++
			if calls < 3 {
				return errors.New("not yet")
			}
			return nil
		}, 5, time.Millisecond)
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("exhausts attempts", func(t *testing.T) {
		wanted := errors.New("permanent")
		calls := 0
		err := RetryWithBackoff(ctx, func() error {
			calls++
			return wanted
		}, 3, time.Millisecond)
		assert.ErrorIs(t, err, wanted)
		assert.Equal(t, 3, calls)
	})

	t.Run("invalid attempts", func(t *testing.T) {
		err := RetryWithBackoff(ctx, func() error { return nil }, 0, time.Millisecond)
		assert.ErrorIs(t, err, ErrInvalidMaxAttempts)
	})

	t.Run("cancelled context", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		err := RetryWithBackoff(cancelled, func() error { return errors.New("x") }, 3, time.Millisecond)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestNormalizeVector(t *testing.T) {
	t.Run("unit length", func(t *testing.T) {
		v := NormalizeVector([]float32{3, 4})
		assert.InDelta(t, 0.6, v[0], 1e-6)
		assert.InDelta(t, 0.8, v[1], 1e-6)
	})

	t.Run("zero vector", func(t *testing.T) {
		assert.Equal(t, []float32{0, 0, 0}, NormalizeVector([]float32{0, 0, 0}))
	})

	t.Run("empty", func(t *testing.T) {
		assert.Empty(t, NormalizeVector(nil))
	})
}
