package ai_test

import (
	"context"
	"errors"
	"testing"

	"github.com/kiranshivaraju/sheetscribe/internal/ai"
	"github.com/kiranshivaraju/sheetscribe/internal/ai/mock"
	"github.com/kiranshivaraju/sheetscribe/pkg/models"
	"github.com/stretchr/testify/assert"
)

const fallbackModel = "gemini-1.5-flash"

var preferences = []string{"2.5-flash", "2.0-flash", "1.5-flash"}

func TestSelectModel_FirstPreferenceWins(t *testing.T) {
	candidates := []models.ModelCandidate{
		{Identifier: "models/gemini-1.5-flash", SupportsGeneration: true},
		{Identifier: "models/gemini-2.0-flash", SupportsGeneration: true},
		{Identifier: "models/gemini-2.5-flash", SupportsGeneration: true},
	}
	assert.Equal(t, "models/gemini-2.5-flash", ai.SelectModel(candidates, preferences, fallbackModel))
}

func TestSelectModel_SkipsIncapable(t *testing.T) {
	candidates := []models.ModelCandidate{
		{Identifier: "models/gemini-2.5-flash-embedding", SupportsGeneration: false},
		{Identifier: "models/gemini-2.0-flash", SupportsGeneration: true},
	}
	assert.Equal(t, "models/gemini-2.0-flash", ai.SelectModel(candidates, preferences, fallbackModel))
}

func TestSelectModel_FirstMatchInListOrder(t *testing.T) {
	candidates := []models.ModelCandidate{
		{Identifier: "models/gemini-2.5-flash-lite", SupportsGeneration: true},
		{Identifier: "models/gemini-2.5-flash", SupportsGeneration: true},
	}
	assert.Equal(t, "models/gemini-2.5-flash-lite", ai.SelectModel(candidates, preferences, fallbackModel))
}

func TestSelectModel_NoTokenMatchUsesFirstCapable(t *testing.T) {
	candidates := []models.ModelCandidate{
		{Identifier: "models/text-embedding-004", SupportsGeneration: false},
		{Identifier: "models/gemma-3-27b-it", SupportsGeneration: true},
		{Identifier: "models/gemini-pro", SupportsGeneration: true},
	}
	assert.Equal(t, "models/gemma-3-27b-it", ai.SelectModel(candidates, preferences, fallbackModel))
}

func TestSelectModel_NoCapableUsesFallback(t *testing.T) {
	candidates := []models.ModelCandidate{
		{Identifier: "models/gemini-2.5-flash", SupportsGeneration: false},
	}
	assert.Equal(t, fallbackModel, ai.SelectModel(candidates, preferences, fallbackModel))
	assert.Equal(t, fallbackModel, ai.SelectModel(nil, preferences, fallbackModel))
}

func TestSelectModel_EmptyTokenIgnored(t *testing.T) {
	candidates := []models.ModelCandidate{
		{Identifier: "models/a", SupportsGeneration: true},
		{Identifier: "models/b-2.0-flash", SupportsGeneration: true},
	}
	assert.Equal(t, "models/b-2.0-flash", ai.SelectModel(candidates, []string{"", "2.0-flash"}, fallbackModel))
}

func TestSelectModel_Deterministic(t *testing.T) {
	candidates := []models.ModelCandidate{
		{Identifier: "models/gemini-2.0-flash-001", SupportsGeneration: true},
		{Identifier: "models/gemini-2.0-flash", SupportsGeneration: true},
	}
	first := ai.SelectModel(candidates, preferences, fallbackModel)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, ai.SelectModel(candidates, preferences, fallbackModel))
	}
}

func TestResolve_UsesDiscovery(t *testing.T) {
	p := mock.NewMockProvider()
	p.ListModelsFunc = func(_ context.Context) ([]models.ModelCandidate, error) {
		return []models.ModelCandidate{{Identifier: "models/gemini-2.0-flash", SupportsGeneration: true}}, nil
	}

	r := ai.NewModelResolver(p, preferences, fallbackModel)
	assert.Equal(t, "models/gemini-2.0-flash", r.Resolve(context.Background()))
	assert.Equal(t, 1, p.ListCalls())
}

func TestResolve_DiscoveryErrorUsesFallback(t *testing.T) {
	p := mock.NewMockProvider()
	p.ListModelsFunc = func(_ context.Context) ([]models.ModelCandidate, error) {
		return nil, errors.New("connection reset")
	}

	r := ai.NewModelResolver(p, preferences, fallbackModel)
	for i := 0; i < 3; i++ {
		assert.Equal(t, fallbackModel, r.Resolve(context.Background()))
	}
}

func TestResolve_EmptyDiscoveryUsesFallback(t *testing.T) {
	p := &mock.MockProvider{Name_: "empty"}

	r := ai.NewModelResolver(p, preferences, fallbackModel)
	assert.Equal(t, fallbackModel, r.Resolve(context.Background()))
}
