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


package search

import (
	"context"
	"sort"

	"github.com/corpushq/corpus/core"
)

// SearchHybrid fuses keyword and vector retrieval into one ranking.
// Each scorer runs at an extended fetch depth, scores are min-max
// normalized per list, blended by the configured weights, and chunks with
// identical content are collapsed into the best-scoring survivor before
// the list is cut to limit.
func (s *Searcher) SearchHybrid(ctx context.Context, query string, limit int) ([]*core.SearchResult, error) {
	return s.SearchHybridWithMonitor(ctx, query, limit, nil)
}

// SearchHybridWithMonitor runs SearchHybrid with monitoring callbacks at
// each stage of the pipeline.
func (s *Searcher) SearchHybridWithMonitor(ctx context.Context, query string, limit int, monitor SearchMonitor) ([]*core.SearchResult, error) {
	if limit < 1 {
		return nil, ErrInvalidLimit
	}
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	monitor.Start(query)

	// Fetch deeper than requested so fusion sees candidates that only one
	// scorer ranks highly.
	depth := limit * s.config.FetchFactor

	keywordResults, err := s.SearchKeyword(ctx, query, depth)
	if err != nil {
		return nil, err
	}
	monitor.AfterKeywordSearch(keywordResults)

	vectorResults, err := s.SearchVector(ctx, query, depth)
	if err != nil {
		return nil, err
	}
	monitor.AfterVectorSearch(vectorResults)

	keywordNorm := normalizeScores(keywordResults)
	vectorNorm := normalizeScores(vectorResults)

	// Union the candidate sets. A chunk found by one scorer only
	// contributes zero for the other component.
	fusedByID := make(map[core.ID]*core.SearchResult)
	for _, result := range append(keywordResults, vectorResults...) {
		if _, ok := fusedByID[result.ChunkId]; ok {
			continue
		}
		keywordScore := keywordNorm[result.ChunkId]
		vectorScore := vectorNorm[result.ChunkId]
		fusedByID[result.ChunkId] = &core.SearchResult{
			ChunkId:      result.ChunkId,
			DocumentId:   result.DocumentId,
			ChunkIndex:   result.ChunkIndex,
			Filename:     result.Filename,
			Text:         result.Text,
			ContentHash:  result.ContentHash,
			Score:        s.config.KeywordWeight*keywordScore + s.config.VectorWeight*vectorScore,
			KeywordScore: keywordScore,
			VectorScore:  vectorScore,
		}
	}

	fused := make([]*core.SearchResult, 0, len(fusedByID))
	for _, result := range fusedByID {
		fused = append(fused, result)
	}
	sortResults(fused)
	monitor.AfterFusion(fused)

	deduped := collapseDuplicates(fused)
	monitor.AfterDeduplication(deduped)

	final := truncateResults(deduped, limit)
	monitor.Finish(final)
	return final, nil
}

// normalizeScores min-max normalizes a result list's scores to [0,1].
// A single-element or constant-score list normalizes to 1.0 so one strong
// hit is not erased by its own normalization.
func normalizeScores(results []*core.SearchResult) map[core.ID]float64 {
	normalized := make(map[core.ID]float64, len(results))
	if len(results) == 0 {
		return normalized
	}

	minScore, maxScore := results[0].Score, results[0].Score
	for _, result := range results[1:] {
		if result.Score < minScore {
			minScore = result.Score
		}
		if result.Score > maxScore {
			maxScore = result.Score
		}
	}

	if maxScore == minScore {
		for _, result := range results {
			normalized[result.ChunkId] = 1.0
		}
		return normalized
	}

	for _, result := range results {
		normalized[result.ChunkId] = (result.Score - minScore) / (maxScore - minScore)
	}
	return normalized
}

// collapseDuplicates keeps one result per content hash. Input must be
// sorted best first; the first occurrence of each hash survives. A
// survivor that absorbed duplicates lists every distinct document holding
// that content, its own included, in AlsoFoundIn.
func collapseDuplicates(results []*core.SearchResult) []*core.SearchResult {
	survivors := make([]*core.SearchResult, 0, len(results))
	byHash := make(map[string]*core.SearchResult)
	docsByHash := make(map[string]map[core.ID]struct{})

	for _, result := range results {
		if survivor, ok := byHash[result.ContentHash]; ok {
			docsByHash[result.ContentHash][result.DocumentId] = struct{}{}
			docsByHash[result.ContentHash][survivor.DocumentId] = struct{}{}
			continue
		}
		byHash[result.ContentHash] = result
		docsByHash[result.ContentHash] = make(map[core.ID]struct{})
		survivors = append(survivors, result)
	}

	for _, survivor := range survivors {
		docs := docsByHash[survivor.ContentHash]
		if len(docs) == 0 {
			continue
		}
		ids := make([]core.ID, 0, len(docs))
		for id := range docs {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		survivor.AlsoFoundIn = ids
	}
	return survivors
}
