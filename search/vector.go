package search

import (
	"context"

	"github.com/corpushq/corpus/core"
)

// SearchVector ranks chunks by cosine similarity between the query
// embedding and stored chunk embeddings. Matches below the similarity
// floor are dropped.
func (s *Searcher) SearchVector(ctx context.Context, query string, limit int) ([]*core.SearchResult, error) {
	if limit < 1 {
		return nil, ErrInvalidLimit
	}

	embedding, err := s.embedder.EmbedText(ctx, query)
	if err != nil {
		s.logger.Error("error generating embedding for query", "err", err)
		return nil, err
	}

	results, err := s.repository.FindSimilar(ctx, embedding, s.config.SimilarityFloor, limit)
	if err != nil {
		s.logger.Error("error scanning embeddings", "err", err)
		return nil, err
	}
	return results, nil
}
