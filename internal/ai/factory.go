package ai

import (
	"fmt"

	"github.com/kiranshivaraju/sheetscribe/internal/ai/gemini"
	"github.com/kiranshivaraju/sheetscribe/internal/ai/mock"
	"github.com/kiranshivaraju/sheetscribe/internal/config"
	"github.com/kiranshivaraju/sheetscribe/pkg/models"
)

// NewBackend constructs the appropriate generation backend based on config.
// Called once at startup.
func NewBackend(cfg config.AIConfig) (models.GenerationBackend, error) {
	switch cfg.Provider {
	case "gemini":
		return gemini.NewProvider(cfg.Gemini), nil
	case "mock":
		return mock.NewMockProvider(), nil
	default:
		return nil, fmt.Errorf("unknown AI provider %q: must be one of gemini, mock", cfg.Provider)
	}
}
