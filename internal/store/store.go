package store

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/kiranshivaraju/sheetscribe/pkg/models"
)

var (
	// ErrNotFound means no row carries the requested marker, or the row does not exist.
	ErrNotFound = errors.New("row not found")
	// ErrStoreNotFound means the named spreadsheet or table is missing or inaccessible.
	ErrStoreNotFound = errors.New("job store not found")
	// ErrUnauthorized means credentials could not be obtained or were rejected.
	ErrUnauthorized  = errors.New("job store unauthorized")
	ErrInvalidColumn = errors.New("invalid column")
)

// JobStore is the tabular store the runner reads jobs from and commits results to.
// Rows and columns are 1-based.
type JobStore interface {
	// FindRowByMarker returns the first row whose status cell equals marker,
	// or ErrNotFound when there is none.
	FindRowByMarker(ctx context.Context, marker string) (int, error)
	// ReadCell returns the cell's text; an empty cell reads as "".
	ReadCell(ctx context.Context, row, column int) (string, error)
	WriteCell(ctx context.Context, row, column int, value string) error
	// WriteCells writes several cells of one row in a single request: either
	// all of them are written or none is.
	WriteCells(ctx context.Context, row int, values map[int]string) error
}

// Pinger is implemented by stores that can report connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Enqueuer is implemented by stores that can append new work.
type Enqueuer interface {
	// AppendRow adds a row with the given topic and status and returns its number.
	AppendRow(ctx context.Context, topic, status string) (int, error)
}

// Identified is implemented by stores that can name themselves, so that row
// claims of different stores never collide.
type Identified interface {
	StoreID() string
}

func validateColumn(column int) error {
	switch column {
	case models.ColumnTopic, models.ColumnStatus, models.ColumnScript, models.ColumnVideoPrompt:
		return nil
	default:
		return fmt.Errorf("%w: %d", ErrInvalidColumn, column)
	}
}

// sortedColumns validates the columns of values and returns them in order.
func sortedColumns(values map[int]string) ([]int, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("%w: no cells to write", ErrInvalidColumn)
	}
	cols := slices.Sorted(maps.Keys(values))
	for _, c := range cols {
		if err := validateColumn(c); err != nil {
			return nil, err
		}
	}
	return cols, nil
}
