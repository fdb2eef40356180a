package ai

import (
	"context"
	"log/slog"
	"strings"

	"github.com/kiranshivaraju/sheetscribe/pkg/models"
)

// ModelLister is the discovery half of a generation backend.
type ModelLister interface {
	ListModels(ctx context.Context) ([]models.ModelCandidate, error)
}

// ModelResolver picks the concrete model to address for a generation request.
type ModelResolver struct {
	lister      ModelLister
	preferences []string
	fallback    string
}

// NewModelResolver creates a resolver. preferences are version tokens in
// priority order (e.g. "2.5-flash"); fallback is used whenever discovery
// cannot produce a capable model.
func NewModelResolver(lister ModelLister, preferences []string, fallback string) *ModelResolver {
	return &ModelResolver{
		lister:      lister,
		preferences: preferences,
		fallback:    fallback,
	}
}

// Resolve never fails: discovery errors are logged and yield the fallback,
// so that model discovery never blocks a job.
func (r *ModelResolver) Resolve(ctx context.Context) string {
	candidates, err := r.lister.ListModels(ctx)
	if err != nil {
		slog.Warn("model discovery failed, using fallback", "error", err, "model", r.fallback)
		return r.fallback
	}
	model := SelectModel(candidates, r.preferences, r.fallback)
	slog.Debug("model resolved", "model", model, "candidates", len(candidates))
	return model
}

// SelectModel returns the first generation-capable candidate containing the
// highest-priority token, else the first capable candidate, else fallback.
func SelectModel(candidates []models.ModelCandidate, preferences []string, fallback string) string {
	var capable []string
	for _, c := range candidates {
		if c.SupportsGeneration && c.Identifier != "" {
			capable = append(capable, c.Identifier)
		}
	}

	for _, token := range preferences {
		if token == "" {
			continue
		}
		for _, id := range capable {
			if strings.Contains(id, token) {
				return id
			}
		}
	}

	if len(capable) > 0 {
		return capable[0]
	}
	return fallback
}
