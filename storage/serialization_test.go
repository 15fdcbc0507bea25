package storage

import (
	"testing"
	"time"

	"github.com/corpushq/corpus/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalUnmarshalID(t *testing.T) {
	tests := []struct {
		name string
		id   core.ID
	}{
		{"zero ID", core.ID(0)},
		{"small ID", core.ID(42)},
		{"large ID", core.ID(18446744073709551615)}, // max uint64
		{"content-based ID", core.IDFromContent("test content")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := MarshalID(tt.id)
			require.NotEmpty(t, data)

			decoded, err := UnmarshalID(data)
			require.NoError(t, err)
			assert.Equal(t, tt.id, decoded)
		})
	}
}

func TestUnmarshalID_Invalid(t *testing.T) {
	_, err := UnmarshalID([]byte{})
	assert.Error(t, err)
}

func TestMarshalUnmarshalDocument(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)

	tests := []struct {
		name string
		doc  *core.Document
	}{
		{
			name: "minimal document",
			doc: &core.Document{
				Id:         core.ID(1),
				Filename:   "notes.txt",
				FileHash:   core.HashBytes([]byte("notes")),
				IngestedAt: now,
			},
		},
		{
			name: "document with chunks",
			doc: &core.Document{
				Id:         core.ID(2),
				Filename:   "handbook.md",
				FileHash:   core.HashBytes([]byte("handbook")),
				IngestedAt: now,
				ChunkIds:   []core.ID{core.ID(10), core.ID(20), core.ID(30)},
			},
		},
		{
			name: "unicode filename",
			doc: &core.Document{
				Id:         core.ID(3),
				Filename:   "報告書 üìÑ.pdf",
				FileHash:   core.HashBytes([]byte("report")),
				IngestedAt: now,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := MarshalDocument(tt.doc)
			require.NotEmpty(t, data)

			decoded, err := UnmarshalDocument(data)
			require.NoError(t, err)
			require.NotNil(t, decoded)

			assert.Equal(t, tt.doc.Id, decoded.Id)
			assert.Equal(t, tt.doc.Filename, decoded.Filename)
			assert.Equal(t, tt.doc.FileHash, decoded.FileHash)
			assert.True(t, tt.doc.IngestedAt.Equal(decoded.IngestedAt))
			if len(tt.doc.ChunkIds) == 0 {
				assert.Empty(t, decoded.ChunkIds)
			} else {
				assert.Equal(t, tt.doc.ChunkIds, decoded.ChunkIds)
			}
		})
	}
}

func TestUnmarshalDocument_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty data", []byte{}},
		{"partial data", []byte{1, 2, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := UnmarshalDocument(tt.data)
			assert.Error(t, err)
		})
	}
}

func TestMarshalUnmarshalChunk(t *testing.T) {
	tests := []struct {
		name  string
		chunk *core.Chunk
	}{
		{
			name: "minimal chunk",
			chunk: &core.Chunk{
				Id:          core.ID(1),
				DocumentId:  core.ID(7),
				Index:       0,
				Text:        "Refunds are processed within thirty days.",
				ContentHash: core.HashText("Refunds are processed within thirty days."),
			},
		},
		{
			name: "chunk with everything",
			chunk: &core.Chunk{
				Id:          core.ID(2),
				DocumentId:  core.ID(7),
				Index:       3,
				Text:        "Expense reports require manager approval.",
				ContentHash: core.HashText("Expense reports require manager approval."),
				Vector:      []float32{0.1, 0.2, 0.3, 0.4, 0.5},
				TermFreqs: map[string]int{
					"expense":  1,
					"reports":  1,
					"require":  1,
					"manager":  1,
					"approval": 1,
				},
				TokenCount:    5,
				NearDuplicate: true,
			},
		},
		{
			name: "chunk with long vector",
			chunk: &core.Chunk{
				Id:          core.ID(3),
				DocumentId:  core.ID(8),
				Index:       0,
				Text:        "embedded",
				ContentHash: core.HashText("embedded"),
				Vector:      make([]float32, 384),
			},
		},
		{
			name: "unicode text",
			chunk: &core.Chunk{
				Id:          core.ID(4),
				DocumentId:  core.ID(9),
				Index:       1,
				Text:        "Hello ‰∏ñÁïå üåç",
				ContentHash: core.HashText("Hello ‰∏ñÁïå üåç"),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := MarshalChunk(tt.chunk)
			require.NotEmpty(t, data)

			decoded, err := UnmarshalChunk(data)
			require.NoError(t, err)
			require.NotNil(t, decoded)

			assert.Equal(t, tt.chunk.Id, decoded.Id)
			assert.Equal(t, tt.chunk.DocumentId, decoded.DocumentId)
			assert.Equal(t, tt.chunk.Index, decoded.Index)
			assert.Equal(t, tt.chunk.Text, decoded.Text)
			assert.Equal(t, tt.chunk.ContentHash, decoded.ContentHash)
			assert.Equal(t, tt.chunk.TokenCount, decoded.TokenCount)
			assert.Equal(t, tt.chunk.NearDuplicate, decoded.NearDuplicate)
			if len(tt.chunk.Vector) == 0 {
				assert.Empty(t, decoded.Vector)
			} else {
				assert.Equal(t, tt.chunk.Vector, decoded.Vector)
			}
			if len(tt.chunk.TermFreqs) == 0 {
				assert.Empty(t, decoded.TermFreqs)
			} else {
				assert.Equal(t, tt.chunk.TermFreqs, decoded.TermFreqs)
			}
		})
	}
}

func TestMarshalChunk_Deterministic(t *testing.T) {
	// Term maps iterate in random order; the serializer must still produce
	// identical bytes for identical chunks.
	chunk := &core.Chunk{
		Id:          core.ID(1),
		DocumentId:  core.ID(2),
		Text:        "determinism check",
		ContentHash: core.HashText("determinism check"),
		TermFreqs: map[string]int{
			"zebra": 1, "apple": 2, "mango": 3, "kiwi": 4, "fig": 5,
		},
		TokenCount: 15,
	}

	first := MarshalChunk(chunk)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, MarshalChunk(chunk))
	}
}

func TestUnmarshalChunk_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty data", []byte{}},
		{"partial data", []byte{1, 2, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := UnmarshalChunk(tt.data)
			assert.Error(t, err)
		})
	}
}

func TestUnmarshalChunk_OversizedLength(t *testing.T) {
	// A truncated record whose vector length prefix claims more elements
	// than bytes remain must fail cleanly rather than allocate and read
	// past the buffer.
	chunk := &core.Chunk{
		Id:          core.ID(1),
		DocumentId:  core.ID(2),
		Text:        "x",
		ContentHash: core.HashText("x"),
		Vector:      make([]float32, 64),
	}
	data := MarshalChunk(chunk)

	_, err := UnmarshalChunk(data[:len(data)/2])
	assert.Error(t, err)
}

func TestMarshalUnmarshalStats(t *testing.T) {
	tests := []struct {
		name  string
		stats *core.CorpusStats
	}{
		{"zero stats", &core.CorpusStats{}},
		{
			"populated stats",
			&core.CorpusStats{
				DocumentCount: 12,
				ChunkCount:    340,
				TermCount:     8912,
				TokenTotal:    61204,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := MarshalStats(tt.stats)
			require.NotEmpty(t, data)

			decoded, err := UnmarshalStats(data)
			require.NoError(t, err)
			assert.Equal(t, tt.stats, decoded)
		})
	}
}

func TestRoundTripConsistency(t *testing.T) {
	t.Run("multiple marshal-unmarshal cycles", func(t *testing.T) {
		now := time.Now().UTC().Truncate(time.Microsecond)
		original := &core.Document{
			Id:         core.ID(999),
			Filename:   "cycle.txt",
			FileHash:   core.HashBytes([]byte("cycle")),
			IngestedAt: now,
			ChunkIds:   []core.ID{core.ID(1), core.ID(2)},
		}

		current := original
		for i := 0; i < 3; i++ {
			data := MarshalDocument(current)
			decoded, err := UnmarshalDocument(data)
			require.NoError(t, err)
			current = decoded
		}

		assert.Equal(t, original.Id, current.Id)
		assert.Equal(t, original.Filename, current.Filename)
		assert.Equal(t, original.FileHash, current.FileHash)
		assert.Equal(t, original.ChunkIds, current.ChunkIds)
	})
}
