package mock

import "context"

// MockGenerator is a test double for ai.Generator.
// It allows custom behavior injection via function fields.
type MockGenerator struct {
	// GenerateFunc is called by Generate if set.
	// If nil, the generator echoes a fixed answer.
	GenerateFunc func(ctx context.Context, prompt string, onFragment func(string)) (string, error)

	// Answer is the default response when GenerateFunc is nil.
	Answer string

	callCount int
	prompts   []string
}

// NewMockGenerator creates a mock generator with a fixed default answer.
// Note: Returns concrete type to allow test assertions.
func NewMockGenerator() *MockGenerator {
	return &MockGenerator{Answer: "mock answer [1]"}
}

// Generate returns the configured answer, streaming it through onFragment
// when provided.
func (m *MockGenerator) Generate(ctx context.Context, prompt string, onFragment func(string)) (string, error) {
	m.callCount++
	m.prompts = append(m.prompts, prompt)

	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, prompt, onFragment)
	}

	if onFragment != nil {
		onFragment(m.Answer)
	}
	return m.Answer, nil
}

// CallCount returns the number of times Generate was called.
func (m *MockGenerator) CallCount() int {
	return m.callCount
}

// Prompts returns every prompt Generate has received.
func (m *MockGenerator) Prompts() []string {
	return m.prompts
}

// Reset clears the call history and injected behavior.
func (m *MockGenerator) Reset() {
	m.callCount = 0
	m.prompts = nil
	m.GenerateFunc = nil
}
