package ingestion

import "errors"

var (
	// ErrRepositoryRequired is returned when an index repository is not provided.
	ErrRepositoryRequired = errors.New("index repository required")

	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrInvalidChunking is returned for a non-positive chunk size or an
	// overlap that is not smaller than the chunk size.
	ErrInvalidChunking = errors.New("invalid chunking configuration")
)
