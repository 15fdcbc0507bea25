package search

import (
	"context"
	"sort"

	"github.com/corpushq/corpus/core"
)

// sortResults orders results best first with deterministic tie-breaking:
// score descending, then chunk index, then document ID, then chunk ID.
// Equal queries over equal corpora always return identical orderings.
func sortResults(results []*core.SearchResult) {
	sort.Slice(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.ChunkIndex != b.ChunkIndex {
			return a.ChunkIndex < b.ChunkIndex
		}
		if a.DocumentId != b.DocumentId {
			return a.DocumentId < b.DocumentId
		}
		return a.ChunkId < b.ChunkId
	})
}

// documentNames resolves document IDs to filenames with memoization, so a
// result page touching one document loads it once.
func (s *Searcher) documentNames(ctx context.Context) func(core.ID) string {
	cache := make(map[core.ID]string)
	return func(id core.ID) string {
		if name, ok := cache[id]; ok {
			return name
		}
		name := ""
		if doc, err := s.repository.GetDocument(ctx, id); err == nil {
			name = doc.Filename
		}
		cache[id] = name
		return name
	}
}

func truncateResults(results []*core.SearchResult, limit int) []*core.SearchResult {
	if len(results) > limit {
		return results[:limit]
	}
	return results
}
