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
	"math"

	"github.com/corpushq/corpus/core"
)

// SearchKeyword ranks chunks against the query with Okapi BM25 over the
// inverted index. Only chunks containing at least one query term appear;
// there are no zero-score results.
func (s *Searcher) SearchKeyword(ctx context.Context, query string, limit int) ([]*core.SearchResult, error) {
	if limit < 1 {
		return nil, ErrInvalidLimit
	}

	terms := uniqueTerms(core.Tokenize(query))
	if len(terms) == 0 {
		return []*core.SearchResult{}, nil
	}

	stats, err := s.repository.Stats(ctx)
	if err != nil {
		return nil, err
	}
	if stats.ChunkCount == 0 {
		return []*core.SearchResult{}, nil
	}

	totalChunks := float64(stats.ChunkCount)
	avgLen := stats.AvgChunkTokens()
	if avgLen == 0 {
		avgLen = 1
	}

	// One posting list per matched query term, with its IDF.
	type matchedTerm struct {
		idf   float64
		freqs map[core.ID]int
	}
	matched := make([]matchedTerm, 0, len(terms))
	candidates := make(map[core.ID]struct{})

	for _, term := range terms {
		postings, err := s.repository.Postings(ctx, term)
		if err != nil {
			return nil, err
		}
		if len(postings) == 0 {
			continue
		}

		df := float64(len(postings))
		freqs := make(map[core.ID]int, len(postings))
		for _, posting := range postings {
			freqs[posting.ChunkId] = posting.Freq
			candidates[posting.ChunkId] = struct{}{}
		}
		matched = append(matched, matchedTerm{
			idf:   math.Log(1 + (totalChunks-df+0.5)/(df+0.5)),
			freqs: freqs,
		})
	}

	if len(candidates) == 0 {
		return []*core.SearchResult{}, nil
	}

	ids := make([]core.ID, 0, len(candidates))
	for id := range candidates {
		ids = append(ids, id)
	}
	chunks, err := s.repository.GetChunks(ctx, ids...)
	if err != nil {
		return nil, err
	}

	filename := s.documentNames(ctx)
	results := make([]*core.SearchResult, 0, len(chunks))
	for _, chunk := range chunks {
		length := float64(chunk.TokenCount)

		var score float64
		for _, mt := range matched {
			tf, ok := mt.freqs[chunk.Id]
			if !ok {
				continue
			}
			freq := float64(tf)
			norm := s.config.K1 * (1 - s.config.B + s.config.B*length/avgLen)
			score += mt.idf * (freq * (s.config.K1 + 1)) / (freq + norm)
		}

		results = append(results, &core.SearchResult{
			ChunkId:     chunk.Id,
			DocumentId:  chunk.DocumentId,
			ChunkIndex:  chunk.Index,
			Filename:    filename(chunk.DocumentId),
			Text:        chunk.Text,
			ContentHash: chunk.ContentHash,
			Score:       score,
		})
	}

	sortResults(results)
	return truncateResults(results, limit), nil
}

// uniqueTerms deduplicates tokens while preserving first-seen order, so
// repeated query words don't double-count.
func uniqueTerms(tokens []string) []string {
	seen := make(map[string]struct{}, len(tokens))
	unique := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if _, ok := seen[token]; ok {
			continue
		}
		seen[token] = struct{}{}
		unique = append(unique, token)
	}
	return unique
}
