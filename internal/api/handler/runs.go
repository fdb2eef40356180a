package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/kiranshivaraju/sheetscribe/internal/api/response"
	"github.com/kiranshivaraju/sheetscribe/internal/runner"
	"github.com/kiranshivaraju/sheetscribe/pkg/models"
)

// Trigger defines what the run handlers need from the dispatcher.
type Trigger interface {
	Trigger(ctx context.Context) (*models.RunReport, error)
	Last() *models.RunReport
}

// ReportLookup reads persisted reports. Implemented by cache.ReportStore.
type ReportLookup interface {
	Report(ctx context.Context, runID uuid.UUID) (*models.RunReport, bool, error)
	LastReport(ctx context.Context) (*models.RunReport, bool, error)
}

// NewTriggerRunHandler returns an http.HandlerFunc for POST /api/v1/runs.
// The pass runs synchronously; the response carries its report.
//
// A pass outlives the request: a caller that disconnects mid-pass must not
// get the row committed as failed. The pass is cancelled only when shutdown
// is done or budget elapses (budget <= 0 means no limit).
func NewTriggerRunHandler(t Trigger, shutdown context.Context, budget time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := passContext(r.Context(), shutdown, budget)
		defer cancel()

		report, err := t.Trigger(ctx)
		if errors.Is(err, runner.ErrBusy) {
			response.Error(w, http.StatusConflict, response.CodeRunInProgress, "A run is already in progress", nil)
			return
		}
		if err != nil {
			slog.Error("triggered run failed", "error", err)
			response.Error(w, http.StatusBadGateway, response.CodeRunFailed, err.Error(), report)
			return
		}
		response.JSON(w, report)
	}
}

// NewLastRunHandler returns an http.HandlerFunc for GET /api/v1/runs/last.
// reports may be nil; it is consulted when this process has not run yet.
func NewLastRunHandler(t Trigger, reports ReportLookup) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if last := t.Last(); last != nil {
			response.JSON(w, last)
			return
		}
		if reports != nil {
			last, found, err := reports.LastReport(r.Context())
			if err != nil {
				slog.Warn("loading last run report", "error", err)
			}
			if found {
				response.JSON(w, last)
				return
			}
		}
		response.NotFound(w, "No run recorded yet")
	}
}

// NewGetRunHandler returns an http.HandlerFunc for GET /api/v1/runs/{runID}.
func NewGetRunHandler(reports ReportLookup) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		runID, err := uuid.Parse(chi.URLParam(r, "runID"))
		if err != nil {
			response.BadRequest(w, "runID must be a UUID")
			return
		}

		report, found, err := reports.Report(r.Context(), runID)
		if err != nil {
			response.Error(w, http.StatusInternalServerError, response.CodeInternal, "Failed to load run report", nil)
			return
		}
		if !found {
			response.NotFound(w, "Run not found")
			return
		}
		response.JSON(w, report)
	}
}

// passContext detaches from the request's cancellation but keeps its values.
func passContext(req, shutdown context.Context, budget time.Duration) (context.Context, context.CancelFunc) {
	ctx := context.WithoutCancel(req)
	var cancel context.CancelFunc
	if budget > 0 {
		ctx, cancel = context.WithTimeout(ctx, budget)
	} else {
		ctx, cancel = context.WithCancel(ctx)
	}
	stop := context.AfterFunc(shutdown, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}
