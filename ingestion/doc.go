// Package ingestion turns uploaded files into indexed, embedded chunks.
//
// The pipeline runs the full ingestion path: empty-text rejection,
// file-level deduplication, chunking, content hashing, concurrent
// embedding, and a single atomic store write. A failed step aborts the
// whole ingestion; nothing partial ever reaches the index.
package ingestion
