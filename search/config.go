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

import "errors"

// Config holds every tuned retrieval parameter in one place.
type Config struct {
	// K1 is the BM25 term-frequency saturation parameter.
	// Default: 1.2
	K1 float64

	// B is the BM25 length-normalization parameter.
	// Default: 0.75
	B float64

	// SimilarityFloor is the minimum cosine similarity for a vector match.
	// Chunks below the floor never appear in vector results.
	// Default: 0.25
	SimilarityFloor float64

	// KeywordWeight and VectorWeight blend the normalized scorer outputs
	// in hybrid search. They should sum to 1.
	// Defaults: 0.4 and 0.6
	KeywordWeight float64
	VectorWeight  float64

	// FetchFactor multiplies the requested limit to set the per-scorer
	// fetch depth in hybrid search, so fusion sees candidates that only
	// one scorer ranks highly.
	// Default: 2
	FetchFactor int

	// MaxContextChars bounds the evidence text assembled for answering.
	// Default: 4000
	MaxContextChars int

	// MaxAnswerSentences bounds the extractive answer length.
	// Default: 3
	MaxAnswerSentences int
}

// DefaultConfig returns the tuned defaults.
func DefaultConfig() *Config {
	return &Config{
		K1:                 1.2,
		B:                  0.75,
		SimilarityFloor:    0.25,
		KeywordWeight:      0.4,
		VectorWeight:       0.6,
		FetchFactor:        2,
		MaxContextChars:    4000,
		MaxAnswerSentences: 3,
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.K1 <= 0 {
		return errors.New("search config: K1 must be positive")
	}
	if c.B < 0 || c.B > 1 {
		return errors.New("search config: B must be in [0,1]")
	}
	if c.SimilarityFloor < -1 || c.SimilarityFloor > 1 {
		return errors.New("search config: SimilarityFloor must be in [-1,1]")
	}
	if c.KeywordWeight < 0 || c.VectorWeight < 0 {
		return errors.New("search config: fusion weights must be non-negative")
	}
	if c.KeywordWeight+c.VectorWeight == 0 {
		return errors.New("search config: at least one fusion weight must be positive")
	}
	if c.FetchFactor < 1 {
		return errors.New("search config: FetchFactor must be at least 1")
	}
	if c.MaxContextChars < 1 {
		return errors.New("search config: MaxContextChars must be positive")
	}
	if c.MaxAnswerSentences < 1 {
		return errors.New("search config: MaxAnswerSentences must be positive")
	}
	return nil
}
