package runner_test

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/kiranshivaraju/sheetscribe/internal/config"
	"github.com/kiranshivaraju/sheetscribe/internal/store"
	"github.com/kiranshivaraju/sheetscribe/pkg/models"
)

var testMarkers = config.MarkerConfig{
	Unprocessed:      "未処理",
	Completed:        "プロンプト完了",
	GenerationFailed: "APIエラー",
	MissingTopic:     "テーマ未入力",
}

type write struct {
	Row    int
	Column int
	Value  string
}

// memStore is an in-memory JobStore recording every write.
type memStore struct {
	mu      sync.Mutex
	rows    map[int]map[int]string
	writes  []write
	findErr error

	// failWrite, when set, is consulted before every write.
	failWrite func(row, column int, value string) error
	// onWrite is called with the store unlocked before a write is applied.
	onWrite func(row, column int, value string)
}

func newMemStore() *memStore {
	return &memStore{rows: map[int]map[int]string{}}
}

func (m *memStore) put(row int, topic, status string) {
	m.rows[row] = map[int]string{models.ColumnTopic: topic, models.ColumnStatus: status}
}

func (m *memStore) cell(row, column int) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rows[row][column]
}

func (m *memStore) FindRowByMarker(_ context.Context, marker string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return 0, m.findErr
	}
	best := 0
	for row, cells := range m.rows {
		if cells[models.ColumnStatus] == marker && (best == 0 || row < best) {
			best = row
		}
	}
	if best == 0 {
		return 0, store.ErrNotFound
	}
	return best, nil
}

func (m *memStore) ReadCell(_ context.Context, row, column int) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cells, ok := m.rows[row]
	if !ok {
		return "", store.ErrNotFound
	}
	return cells[column], nil
}

func (m *memStore) WriteCell(_ context.Context, row, column int, value string) error {
	if m.onWrite != nil {
		m.onWrite(row, column, value)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWrite != nil {
		if err := m.failWrite(row, column, value); err != nil {
			return err
		}
	}
	cells, ok := m.rows[row]
	if !ok {
		return fmt.Errorf("write to missing row %d: %w", row, store.ErrNotFound)
	}
	cells[column] = value
	m.writes = append(m.writes, write{Row: row, Column: column, Value: value})
	return nil
}

// WriteCells applies every value or none of them.
func (m *memStore) WriteCells(_ context.Context, row int, values map[int]string) error {
	cols := slices.Sorted(maps.Keys(values))
	if m.onWrite != nil {
		for _, c := range cols {
			m.onWrite(row, c, values[c])
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWrite != nil {
		for _, c := range cols {
			if err := m.failWrite(row, c, values[c]); err != nil {
				return err
			}
		}
	}
	cells, ok := m.rows[row]
	if !ok {
		return fmt.Errorf("write to missing row %d: %w", row, store.ErrNotFound)
	}
	for _, c := range cols {
		cells[c] = values[c]
		m.writes = append(m.writes, write{Row: row, Column: c, Value: values[c]})
	}
	return nil
}

func (m *memStore) writeLog() []write {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]write(nil), m.writes...)
}

// fakeClaimer grants claims according to grant and records releases.
type fakeClaimer struct {
	mu       sync.Mutex
	grant    bool
	err      error
	onClaim  func(row int)
	claims   []int
	releases []int
}

func (f *fakeClaimer) Claim(_ context.Context, row int, _ string) (bool, error) {
	f.mu.Lock()
	f.claims = append(f.claims, row)
	f.mu.Unlock()
	if f.onClaim != nil {
		f.onClaim(row)
	}
	return f.grant, f.err
}

func (f *fakeClaimer) Release(_ context.Context, row int, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.releases = append(f.releases, row)
	return nil
}

var _ store.JobStore = (*memStore)(nil)
