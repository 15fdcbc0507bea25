package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validTestDocument() *Document {
	fileHash := HashBytes([]byte("raw file content"))
	return &Document{
		Id:       IDFromContent(fileHash),
		Filename: "file.txt",
		FileHash: fileHash,
	}
}

func TestValidateDocument(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, ValidateDocument(validTestDocument()))
	})

	t.Run("nil", func(t *testing.T) {
		assert.ErrorIs(t, ValidateDocument(nil), ErrInvalidDocument)
	})

	t.Run("empty filename", func(t *testing.T) {
		doc := validTestDocument()
		doc.Filename = ""
		assert.ErrorIs(t, ValidateDocument(doc), ErrInvalidDocument)
	})

	t.Run("short file hash", func(t *testing.T) {
		doc := validTestDocument()
		doc.FileHash = "abc123"
		assert.ErrorIs(t, ValidateDocument(doc), ErrInvalidDocument)
	})

	t.Run("id mismatch", func(t *testing.T) {
		doc := validTestDocument()
		doc.Id = doc.Id + 1
		assert.ErrorIs(t, ValidateDocument(doc), ErrInvalidDocument)
	})
}

func TestValidateChunks(t *testing.T) {
	doc := validTestDocument()

	makeChunk := func(index int, text string) *Chunk {
		return &Chunk{
			Id:          IDFromContent(text),
			DocumentId:  doc.Id,
			Index:       index,
			Text:        text,
			ContentHash: HashText(text),
		}
	}

	t.Run("valid", func(t *testing.T) {
		chunks := []*Chunk{makeChunk(0, "first"), makeChunk(1, "second")}
		assert.NoError(t, ValidateChunks(doc, chunks))
	})

	t.Run("empty is valid", func(t *testing.T) {
		assert.NoError(t, ValidateChunks(doc, nil))
	})

	t.Run("nil chunk", func(t *testing.T) {
		assert.ErrorIs(t, ValidateChunks(doc, []*Chunk{nil}), ErrInvalidChunk)
	})

	t.Run("empty text", func(t *testing.T) {
		chunk := makeChunk(0, "text")
		chunk.Text = ""
		assert.ErrorIs(t, ValidateChunks(doc, []*Chunk{chunk}), ErrInvalidChunk)
	})

	t.Run("bad content hash", func(t *testing.T) {
		chunk := makeChunk(0, "text")
		chunk.ContentHash = "short"
		assert.ErrorIs(t, ValidateChunks(doc, []*Chunk{chunk}), ErrInvalidChunk)
	})

	t.Run("non-contiguous indices", func(t *testing.T) {
		chunks := []*Chunk{makeChunk(0, "first"), makeChunk(2, "third")}
		assert.ErrorIs(t, ValidateChunks(doc, chunks), ErrInvalidChunk)
	})

	t.Run("wrong document", func(t *testing.T) {
		chunk := makeChunk(0, "text")
		chunk.DocumentId = doc.Id + 1
		assert.ErrorIs(t, ValidateChunks(doc, []*Chunk{chunk}), ErrInvalidChunk)
	})
}

func TestDuplicateFileError(t *testing.T) {
	err := &DuplicateFileError{DocumentId: 42, Filename: "dup.txt"}

	require.ErrorIs(t, err, ErrDuplicateFile)
	assert.Contains(t, err.Error(), "dup.txt")
	assert.Contains(t, err.Error(), "42")
}
