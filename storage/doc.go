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


// Package storage provides the storage abstraction layer for corpus.
//
// This package defines the repository interfaces that decouple the chunk
// store implementation from ingestion and search logic, plus the binary
// serialization of stored records. The store is the only mutable shared
// state in the engine: implementations must serialize writes against each
// other and give readers a consistent view that never exposes a partially
// updated inverted index.
package storage
