package mock

import (
	"context"
	"net/http"
	"sync/atomic"

	"github.com/kiranshivaraju/sheetscribe/internal/ai/gemini"
	"github.com/kiranshivaraju/sheetscribe/pkg/models"
)

// DefaultModel is the only model the default mock advertises.
const DefaultModel = "models/mock-1.5-flash"

// MockProvider satisfies models.GenerationBackend for testing and dry runs.
type MockProvider struct {
	Name_               string
	ListModelsFunc      func(ctx context.Context) ([]models.ModelCandidate, error)
	GenerateContentFunc func(ctx context.Context, model, prompt string) (string, error)

	listCalls     atomic.Int64
	generateCalls atomic.Int64
}

func (m *MockProvider) Name() string { return m.Name_ }

func (m *MockProvider) ListModels(ctx context.Context) ([]models.ModelCandidate, error) {
	m.listCalls.Add(1)
	if m.ListModelsFunc != nil {
		return m.ListModelsFunc(ctx)
	}
	return nil, nil
}

func (m *MockProvider) GenerateContent(ctx context.Context, model, prompt string) (string, error) {
	m.generateCalls.Add(1)
	if m.GenerateContentFunc != nil {
		return m.GenerateContentFunc(ctx, model, prompt)
	}
	return "", nil
}

// ListCalls returns how many times ListModels was called.
func (m *MockProvider) ListCalls() int { return int(m.listCalls.Load()) }

// GenerateCalls returns how many times GenerateContent was called.
func (m *MockProvider) GenerateCalls() int { return int(m.generateCalls.Load()) }

// NewMockProvider returns a MockProvider with sensible default responses.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		Name_: "mock",
		ListModelsFunc: func(_ context.Context) ([]models.ModelCandidate, error) {
			return []models.ModelCandidate{{Identifier: DefaultModel, SupportsGeneration: true}}, nil
		},
		GenerateContentFunc: func(_ context.Context, _, _ string) (string, error) {
			return "Mock script for a thirty second clip.###Mock cinematic prompt, soft light, 8k.", nil
		},
	}
}

// NewStaticProvider returns a MockProvider that always answers with text.
func NewStaticProvider(text string) *MockProvider {
	p := NewMockProvider()
	p.GenerateContentFunc = func(_ context.Context, _, _ string) (string, error) {
		return text, nil
	}
	return p
}

// NewFailingProvider returns a MockProvider whose generation always returns the given error.
func NewFailingProvider(err error) *MockProvider {
	p := NewMockProvider()
	p.Name_ = "mock-failing"
	p.GenerateContentFunc = func(_ context.Context, _, _ string) (string, error) {
		return "", err
	}
	return p
}

// NewRateLimitedProvider returns a MockProvider that always answers 429.
func NewRateLimitedProvider() *MockProvider {
	return NewFailingProvider(&gemini.StatusError{Code: http.StatusTooManyRequests, Body: "quota exceeded"})
}

// Compile-time check that MockProvider implements GenerationBackend.
var _ models.GenerationBackend = (*MockProvider)(nil)
