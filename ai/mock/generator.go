package mock

import (
	"context"
	"errors"
	"strings"
	"sync"
)

// MockAnswerGenerator is a test double for ai.AnswerGenerator. Behavior
// can be replaced through GenerateAnswerFunc. Safe for concurrent use.
type MockAnswerGenerator struct {
	// GenerateAnswerFunc overrides GenerateAnswer when set.
	GenerateAnswerFunc func(ctx context.Context, question string, passages []string) (string, error)

	mu        sync.Mutex
	callCount int
}

// NewMockAnswerGenerator creates a mock generator with default deterministic behavior.
func NewMockAnswerGenerator() *MockAnswerGenerator {
	return &MockAnswerGenerator{}
}

// GenerateAnswer returns the first passage by default, echoing grounded
// answering without a model.
func (m *MockAnswerGenerator) GenerateAnswer(ctx context.Context, question string, passages []string) (string, error) {
	m.mu.Lock()
	m.callCount++
	fn := m.GenerateAnswerFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, question, passages)
	}

	if len(passages) == 0 {
		return "", errors.New("no passages supplied")
	}
	return strings.TrimSpace(passages[0]), nil
}

// CallCount returns the number of times GenerateAnswer was called.
func (m *MockAnswerGenerator) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// Reset clears the call count and any injected behavior.
func (m *MockAnswerGenerator) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount = 0
	m.GenerateAnswerFunc = nil
}
