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


package core

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	// ErrDuplicateFile indicates a file with identical raw content was
	// already ingested. Use errors.As with *DuplicateFileError to recover
	// the existing document ID.
	ErrDuplicateFile = errors.New("duplicate file")

	// ErrEmptyDocument indicates the extracted text is empty or unusable.
	ErrEmptyDocument = errors.New("document has no extractable text")

	// ErrEmbeddingFailed indicates the embedding provider failed or
	// returned malformed output. The request is aborted; engine state is
	// unaffected.
	ErrEmbeddingFailed = errors.New("embedding provider failure")

	// ErrInvalidDocument indicates a Document failed validation.
	ErrInvalidDocument = errors.New("invalid document")

	// ErrInvalidChunk indicates a Chunk failed validation.
	ErrInvalidChunk = errors.New("invalid chunk")
)

// DuplicateFileError reports a rejected re-upload and carries the ID of the
// document that already holds this content.
type DuplicateFileError struct {
	DocumentId ID
	Filename   string
}

func (e *DuplicateFileError) Error() string {
	return fmt.Sprintf("duplicate file %q: content already ingested as document %d", e.Filename, e.DocumentId)
}

// Unwrap makes the error match errors.Is(err, ErrDuplicateFile).
func (e *DuplicateFileError) Unwrap() error {
	return ErrDuplicateFile
}
