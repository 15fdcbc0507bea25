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

import "fmt"

// ValidateDocument validates a Document according to domain rules.
//
// Validation rules:
//   - Filename must not be empty
//   - FileHash must be a full-width hex digest
//   - Id must match the ID derived from FileHash
func ValidateDocument(doc *Document) error {
	if doc == nil {
		return fmt.Errorf("%w: document is nil", ErrInvalidDocument)
	}

	if doc.Filename == "" {
		return fmt.Errorf("%w: filename is empty", ErrInvalidDocument)
	}

	if len(doc.FileHash) != digestSize*2 {
		return fmt.Errorf("%w: file hash %q is not a %d-byte digest", ErrInvalidDocument, doc.FileHash, digestSize)
	}

	if doc.Id != IDFromContent(doc.FileHash) {
		return fmt.Errorf("%w: id %d does not match file hash", ErrInvalidDocument, doc.Id)
	}

	return nil
}

// ValidateChunks validates a document's chunks according to domain rules.
//
// Validation rules:
//   - Text must not be empty
//   - ContentHash must be a full-width hex digest
//   - Indices must be contiguous and zero-based
//   - Every chunk must reference the owning document
func ValidateChunks(doc *Document, chunks []*Chunk) error {
	for i, chunk := range chunks {
		if chunk == nil {
			return fmt.Errorf("%w: chunk %d is nil", ErrInvalidChunk, i)
		}
		if chunk.Text == "" {
			return fmt.Errorf("%w: chunk %d has empty text", ErrInvalidChunk, i)
		}
		if len(chunk.ContentHash) != digestSize*2 {
			return fmt.Errorf("%w: chunk %d content hash is not a %d-byte digest", ErrInvalidChunk, i, digestSize)
		}
		if chunk.Index != i {
			return fmt.Errorf("%w: chunk index %d at position %d is not contiguous", ErrInvalidChunk, chunk.Index, i)
		}
		if chunk.DocumentId != doc.Id {
			return fmt.Errorf("%w: chunk %d references document %d, want %d", ErrInvalidChunk, i, chunk.DocumentId, doc.Id)
		}
	}
	return nil
}
