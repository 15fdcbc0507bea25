// Package search ranks stored chunks against user queries.
//
// Three retrieval modes share one result shape: keyword (BM25 over the
// inverted index), vector (cosine over chunk embeddings), and hybrid
// (both scorers fused after per-list min-max normalization, with
// content-duplicate collapse). The answerer builds a cited, extractive
// answer on top of hybrid retrieval.
package search
