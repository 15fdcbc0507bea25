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
	"strings"

	"github.com/corpushq/corpus/core"
)

// InsufficientInformationAnswer is returned verbatim when the corpus holds
// no usable evidence for a question. It carries no citations and is never
// mixed with fabricated content.
const InsufficientInformationAnswer = "I don't have enough information in the ingested documents to answer that question."

// DefaultAnswerLimit is the conventional number of hybrid results
// backing an answer.
const DefaultAnswerLimit = 5

// Ask answers a question from the ingested documents, citing the chunks
// the answer came from. limit bounds how many hybrid results are
// retrieved as evidence and is validated like the search operations.
//
// If an answer generator is configured it synthesizes the answer text;
// on generator failure, or without one, the answer is extracted verbatim
// from the best-matching sentences. With no evidence at all the fixed
// insufficient-information answer is returned.
func (s *Searcher) Ask(ctx context.Context, question string, limit int) (*core.Answer, error) {
	results, err := s.SearchHybrid(ctx, question, limit)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return &core.Answer{Text: InsufficientInformationAnswer}, nil
	}

	// Bound the evidence passed on. At least one passage always fits.
	used := make([]*core.SearchResult, 0, len(results))
	passages := make([]string, 0, len(results))
	budget := s.config.MaxContextChars
	for _, result := range results {
		if len(used) > 0 && len(result.Text) > budget {
			break
		}
		used = append(used, result)
		passages = append(passages, result.Text)
		budget -= len(result.Text)
	}

	citations := make([]core.Citation, 0, len(used))
	for _, result := range used {
		citations = append(citations, result.Citation())
	}

	if s.generator != nil {
		text, err := s.generator.GenerateAnswer(ctx, question, passages)
		if err == nil {
			return &core.Answer{Text: text, Citations: citations}, nil
		}
		s.logger.Warn("answer generation failed, falling back to extraction", "err", err)
	}

	return s.extractAnswer(question, used), nil
}

// extractAnswer builds an answer from the evidence sentences that overlap
// the question the most. Sentences keep their original order; only chunks
// that contributed a sentence are cited.
func (s *Searcher) extractAnswer(question string, results []*core.SearchResult) *core.Answer {
	questionTerms := make(map[string]struct{})
	for _, term := range core.Tokenize(question) {
		questionTerms[term] = struct{}{}
	}

	type candidate struct {
		position int
		result   *core.SearchResult
		text     string
		overlap  int
	}

	candidates := make([]candidate, 0)
	for _, result := range results {
		for _, sentence := range splitSentences(result.Text) {
			overlap := 0
			for _, term := range core.Tokenize(sentence) {
				if _, ok := questionTerms[term]; ok {
					overlap++
				}
			}
			if overlap == 0 {
				continue
			}
			candidates = append(candidates, candidate{
				position: len(candidates),
				result:   result,
				text:     sentence,
				overlap:  overlap,
			})
		}
	}

	if len(candidates) == 0 {
		return &core.Answer{Text: InsufficientInformationAnswer}
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].overlap != candidates[j].overlap {
			return candidates[i].overlap > candidates[j].overlap
		}
		return candidates[i].position < candidates[j].position
	})
	if len(candidates) > s.config.MaxAnswerSentences {
		candidates = candidates[:s.config.MaxAnswerSentences]
	}

	// Restore document order for readability.
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].position < candidates[j].position
	})

	sentences := make([]string, 0, len(candidates))
	cited := make(map[core.ID]struct{})
	citations := make([]core.Citation, 0, len(candidates))
	for _, c := range candidates {
		sentences = append(sentences, c.text)
		if _, ok := cited[c.result.ChunkId]; ok {
			continue
		}
		cited[c.result.ChunkId] = struct{}{}
		citations = append(citations, c.result.Citation())
	}

	return &core.Answer{
		Text:      strings.Join(sentences, " "),
		Citations: citations,
	}
}

// splitSentences breaks text at sentence-ending punctuation. It is
// deliberately simple; evidence text is plain prose by the time it gets
// here.
func splitSentences(text string) []string {
	sentences := make([]string, 0)
	var b strings.Builder

	flush := func() {
		sentence := strings.TrimSpace(b.String())
		if sentence != "" {
			sentences = append(sentences, sentence)
		}
		b.Reset()
	}

	runes := []rune(text)
	for i, r := range runes {
		b.WriteRune(r)
		if r == '.' || r == '!' || r == '?' {
			if i+1 == len(runes) || runes[i+1] == ' ' || runes[i+1] == '\n' || runes[i+1] == '\t' {
				flush()
			}
		}
	}
	flush()
	return sentences
}
