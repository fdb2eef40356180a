package runner

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/kiranshivaraju/sheetscribe/pkg/models"
)

// ErrBusy is returned when a pass is requested while another one is running.
var ErrBusy = errors.New("a run is already in progress")

// Pass runs one pass. *Runner satisfies it.
type Pass interface {
	RunOnce(ctx context.Context) (*models.RunReport, error)
}

// ReportSaver persists finished reports. Implemented by cache.ReportStore.
type ReportSaver interface {
	SaveReport(ctx context.Context, report *models.RunReport) error
}

// Dispatcher serializes passes triggered from HTTP and the scheduler.
type Dispatcher struct {
	pass  Pass
	saver ReportSaver

	running sync.Mutex

	mu   sync.RWMutex
	last *models.RunReport
}

// NewDispatcher creates a Dispatcher. saver may be nil.
func NewDispatcher(pass Pass, saver ReportSaver) *Dispatcher {
	return &Dispatcher{pass: pass, saver: saver}
}

// Trigger runs a pass unless one is already running, in which case it returns
// ErrBusy without waiting.
func (d *Dispatcher) Trigger(ctx context.Context) (*models.RunReport, error) {
	if !d.running.TryLock() {
		return nil, ErrBusy
	}
	defer d.running.Unlock()

	report, err := d.pass.RunOnce(ctx)
	if report != nil {
		d.mu.Lock()
		d.last = report
		d.mu.Unlock()

		if d.saver != nil {
			if saveErr := d.saver.SaveReport(context.WithoutCancel(ctx), report); saveErr != nil {
				slog.Warn("saving run report", "run_id", report.RunID, "error", saveErr)
			}
		}
	}
	return report, err
}

// Last returns the most recent report of this process, or nil.
func (d *Dispatcher) Last() *models.RunReport {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.last
}
