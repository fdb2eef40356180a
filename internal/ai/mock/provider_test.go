package mock_test

import (
	"context"
	"errors"
	"testing"

	"github.com/kiranshivaraju/sheetscribe/internal/ai/gemini"
	"github.com/kiranshivaraju/sheetscribe/internal/ai/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- NewMockProvider ---

func TestNewMockProvider_Name(t *testing.T) {
	p := mock.NewMockProvider()
	assert.Equal(t, "mock", p.Name())
}

func TestNewMockProvider_ListModels(t *testing.T) {
	p := mock.NewMockProvider()
	got, err := p.ListModels(context.Background())

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, mock.DefaultModel, got[0].Identifier)
	assert.True(t, got[0].SupportsGeneration)
	assert.Equal(t, 1, p.ListCalls())
}

func TestNewMockProvider_GenerateContent(t *testing.T) {
	p := mock.NewMockProvider()
	text, err := p.GenerateContent(context.Background(), mock.DefaultModel, "prompt")

	require.NoError(t, err)
	assert.Contains(t, text, "###")
	assert.Equal(t, 1, p.GenerateCalls())
}

// --- NewStaticProvider ---

func TestNewStaticProvider(t *testing.T) {
	p := mock.NewStaticProvider("A###B")
	text, err := p.GenerateContent(context.Background(), "any", "prompt")

	require.NoError(t, err)
	assert.Equal(t, "A###B", text)
}

// --- NewFailingProvider ---

func TestNewFailingProvider(t *testing.T) {
	expectedErr := errors.New("backend down")
	p := mock.NewFailingProvider(expectedErr)

	_, err := p.GenerateContent(context.Background(), "any", "prompt")
	assert.ErrorIs(t, err, expectedErr)
	assert.Equal(t, "mock-failing", p.Name())

	// discovery still works so resolution can be exercised separately
	models, err := p.ListModels(context.Background())
	require.NoError(t, err)
	assert.Len(t, models, 1)
}

// --- NewRateLimitedProvider ---

func TestNewRateLimitedProvider(t *testing.T) {
	p := mock.NewRateLimitedProvider()

	_, err := p.GenerateContent(context.Background(), "any", "prompt")
	var se *gemini.StatusError
	require.ErrorAs(t, err, &se)
	assert.True(t, se.Transient())
}

// --- Zero value ---

func TestZeroValueProvider(t *testing.T) {
	p := &mock.MockProvider{}

	models, err := p.ListModels(context.Background())
	require.NoError(t, err)
	assert.Empty(t, models)

	text, err := p.GenerateContent(context.Background(), "any", "prompt")
	require.NoError(t, err)
	assert.Empty(t, text)
}
