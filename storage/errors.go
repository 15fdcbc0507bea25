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


package storage

import "errors"

var (
	// ErrNotFound indicates that the requested record was not found.
	ErrNotFound = errors.New("record not found")

	// ErrCorruptIndex indicates that a stored record failed to
	// deserialize. A corrupted index cannot be trusted for deduplication
	// or scoring, so this error is fatal at startup: restore from a
	// snapshot or rebuild from source documents.
	ErrCorruptIndex = errors.New("index corrupted")

	// ErrStorageClosed indicates that the storage backend is closed.
	ErrStorageClosed = errors.New("storage is closed")

	// ErrNegativeLength indicates a malformed length prefix in serialized data.
	ErrNegativeLength = errors.New("negative length")
)
