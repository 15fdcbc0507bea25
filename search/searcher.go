package search

import (
	"log/slog"

	"github.com/corpushq/corpus/ai"
	"github.com/corpushq/corpus/storage"
)

// Searcher runs keyword, vector, and hybrid retrieval plus question
// answering over an index repository.
type Searcher struct {
	repository storage.IndexRepository
	embedder   ai.Embedder
	generator  ai.AnswerGenerator
	config     *Config
	logger     *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithConfig replaces the default retrieval parameters.
func WithConfig(config *Config) Option {
	return func(s *Searcher) error {
		if err := config.Validate(); err != nil {
			return err
		}
		s.config = config
		return nil
	}
}

// WithAnswerGenerator enables model-backed answer synthesis. Without a
// generator the answerer is purely extractive; with one, generation
// failures still fall back to the extractive path.
func WithAnswerGenerator(generator ai.AnswerGenerator) Option {
	return func(s *Searcher) error {
		s.generator = generator
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(repository storage.IndexRepository, embedder ai.Embedder, opts ...Option) (*Searcher, error) {
	if repository == nil {
		return nil, ErrRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	s := &Searcher{
		repository: repository,
		embedder:   embedder,
		config:     DefaultConfig(),
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}
