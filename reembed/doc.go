// Package reembed regenerates the stored embedding of every chunk.
//
// Run it after switching embedding models: search quality degrades badly
// when query and chunk vectors come from different models. Chunks are
// processed in batches with retry and progress reporting; text, postings,
// and hashes are untouched.
package reembed
