package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/sheetscribe/pkg/models"
)

// ReportStore keeps run reports in the cache so they survive a server restart
// and can be looked up by any replica.
type ReportStore struct {
	cache Cache
	ttl   time.Duration
}

func NewReportStore(c Cache, ttl time.Duration) *ReportStore {
	return &ReportStore{cache: c, ttl: ttl}
}

// SaveReport stores report under its run ID and as the latest report.
func (s *ReportStore) SaveReport(ctx context.Context, report *models.RunReport) error {
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal run report: %w", err)
	}
	if err := s.cache.Set(ctx, RunReportKey(report.RunID), data, s.ttl); err != nil {
		return err
	}
	return s.cache.Set(ctx, LastRunKey(), data, s.ttl)
}

func (s *ReportStore) Report(ctx context.Context, runID uuid.UUID) (*models.RunReport, bool, error) {
	return s.load(ctx, RunReportKey(runID))
}

func (s *ReportStore) LastReport(ctx context.Context) (*models.RunReport, bool, error) {
	return s.load(ctx, LastRunKey())
}

func (s *ReportStore) load(ctx context.Context, key string) (*models.RunReport, bool, error) {
	data, found, err := s.cache.Get(ctx, key)
	if err != nil || !found {
		return nil, false, err
	}
	var report models.RunReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, false, fmt.Errorf("unmarshal run report: %w", err)
	}
	return &report, true, nil
}
