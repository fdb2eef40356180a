// Package runner drives one pass over the job store: find an unprocessed row,
// generate its content and commit exactly one terminal status.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/sheetscribe/internal/ai"
	"github.com/kiranshivaraju/sheetscribe/internal/config"
	"github.com/kiranshivaraju/sheetscribe/internal/store"
	"github.com/kiranshivaraju/sheetscribe/pkg/models"
)

// maxCellChars is the per-cell limit of Google Sheets.
const maxCellChars = 50000

// Resolver picks the model for a pass.
type Resolver interface {
	Resolve(ctx context.Context) string
}

// Generator produces the raw response text for a topic.
type Generator interface {
	Generate(ctx context.Context, model, topic string) (*ai.Generation, error)
}

// Claimer locks a row for the duration of a pass. Implemented by cache.RowClaimer.
type Claimer interface {
	Claim(ctx context.Context, row int, owner string) (bool, error)
	Release(ctx context.Context, row int, owner string) error
}

// Runner executes single passes. It holds no per-pass state and may be reused.
type Runner struct {
	store     store.JobStore
	resolver  Resolver
	generator Generator
	markers   config.MarkerConfig
	provider  string
	claimer   Claimer
	now       func() time.Time
}

type Option func(*Runner)

// WithClaimer makes the runner claim a row before touching it.
func WithClaimer(c Claimer) Option {
	return func(r *Runner) { r.claimer = c }
}

// WithClock overrides time.Now for report timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

func New(st store.JobStore, resolver Resolver, generator Generator, markers config.MarkerConfig, provider string, opts ...Option) *Runner {
	r := &Runner{
		store:     st,
		resolver:  resolver,
		generator: generator,
		markers:   markers,
		provider:  provider,
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NewFromBackend wires a resolver and generator around backend using cfg.
func NewFromBackend(st store.JobStore, backend models.GenerationBackend, cfg *config.Config, opts ...Option) *Runner {
	resolver := ai.NewModelResolver(backend, cfg.AI.Gemini.ModelPreferences, cfg.AI.Gemini.FallbackModel)
	generator := ai.NewGenerator(backend, cfg.Generation)
	return New(st, resolver, generator, cfg.Markers, backend.Name(), opts...)
}

// RunOnce processes at most one row. Finding no work is not an error. A
// returned error means the store could not be read or the terminal status
// could not be written; the report is still returned when a row was found.
func (r *Runner) RunOnce(ctx context.Context) (report *models.RunReport, err error) {
	report = &models.RunReport{
		RunID:     uuid.New(),
		Provider:  r.provider,
		StartedAt: r.now(),
	}
	defer func() { report.CompletedAt = r.now() }()

	log := slog.With("run_id", report.RunID)

	row, err := r.store.FindRowByMarker(ctx, r.markers.Unprocessed)
	if errors.Is(err, store.ErrNotFound) {
		log.Info("no unprocessed row")
		report.Outcome = models.RunOutcomeNoWork
		return report, nil
	}
	if err != nil {
		return report, fmt.Errorf("finding unprocessed row: %w", err)
	}

	log = log.With("row", row)
	job := &models.Job{Row: row, Status: r.markers.Unprocessed}
	report.Job = job
	log.Info("job found")

	if r.claimer != nil {
		owned, err := r.claim(ctx, log, row, report.RunID.String())
		if err != nil {
			return report, err
		}
		if !owned {
			log.Info("row claimed elsewhere, skipping")
			report.Outcome = models.RunOutcomeClaimedElsewhere
			return report, nil
		}
		defer func() {
			if err := r.claimer.Release(context.WithoutCancel(ctx), row, report.RunID.String()); err != nil {
				log.Warn("releasing row claim", "error", err)
			}
		}()
	}

	c := &commit{store: r.store, row: row, job: job, ctx: context.WithoutCancel(ctx)}

	defer func() {
		if rec := recover(); rec != nil {
			log.Error("panic during run", "error", rec)
			report.Outcome = models.RunOutcomeFailed
			report.Error = fmt.Sprintf("panic: %v", rec)
			err = nil
			if !c.done {
				err = c.status(r.markers.GenerationFailed)
			}
		}
	}()

	topic, err := r.store.ReadCell(ctx, row, models.ColumnTopic)
	if err != nil {
		return report, fmt.Errorf("reading topic of row %d: %w", row, err)
	}
	topic = strings.TrimSpace(topic)
	job.Topic = topic

	if topic == "" {
		log.Warn("row has no topic")
		report.Outcome = models.RunOutcomeMissingTopic
		return report, c.status(r.markers.MissingTopic)
	}

	model := r.resolver.Resolve(ctx)
	report.Model = model
	log = log.With("model", model)
	log.Info("model resolved")

	gen, err := r.generator.Generate(ctx, model, topic)
	if err != nil {
		var genErr *ai.GenerationError
		if errors.As(err, &genErr) {
			report.Attempts = len(genErr.Attempts)
		}
		return report, r.fail(c, log, report, err)
	}
	report.Attempts = len(gen.Attempts)

	result := ai.ParseResponse(gen.Text, topic)
	if result.Script == "" {
		return report, r.fail(c, log, report, ai.ErrEmptyScript)
	}
	result.Script = truncateCell(result.Script)
	result.VideoPrompt = truncateCell(result.VideoPrompt)

	if err := c.content(result); err != nil {
		return report, r.fail(c, log, report, fmt.Errorf("writing content: %w", err))
	}
	if err := c.status(r.markers.Completed); err != nil {
		return report, fmt.Errorf("committing completion of row %d: %w", row, err)
	}

	report.Outcome = models.RunOutcomeCompleted
	report.Result = &result
	log.Info("job completed", "attempts", report.Attempts)
	return report, nil
}

// claim takes the row lock and re-reads the status, since another runner may
// have finished the row between discovery and the claim.
func (r *Runner) claim(ctx context.Context, log *slog.Logger, row int, owner string) (bool, error) {
	owned, err := r.claimer.Claim(ctx, row, owner)
	if err != nil {
		return false, fmt.Errorf("claiming row %d: %w", row, err)
	}
	if !owned {
		return false, nil
	}

	status, err := r.store.ReadCell(ctx, row, models.ColumnStatus)
	if err == nil && status == r.markers.Unprocessed {
		return true, nil
	}
	if relErr := r.claimer.Release(context.WithoutCancel(ctx), row, owner); relErr != nil {
		log.Warn("releasing row claim", "error", relErr)
	}
	if err != nil {
		return false, fmt.Errorf("re-reading status of row %d: %w", row, err)
	}
	return false, nil
}

func (r *Runner) fail(c *commit, log *slog.Logger, report *models.RunReport, cause error) error {
	log.Error("job failed", "error", cause, "attempts", report.Attempts)
	report.Outcome = models.RunOutcomeFailed
	report.Error = cause.Error()
	return c.status(r.markers.GenerationFailed)
}

// commit writes a row's results. Content is written once, both cells together,
// before the status; the status is written at most once per pass.
type commit struct {
	ctx   context.Context
	store store.JobStore
	row   int
	job   *models.Job
	done  bool
}

func (c *commit) content(result models.GenerationResult) error {
	if c.done {
		return errors.New("content written after terminal status")
	}
	return c.store.WriteCells(c.ctx, c.row, map[int]string{
		models.ColumnScript:      result.Script,
		models.ColumnVideoPrompt: result.VideoPrompt,
	})
}

func (c *commit) status(marker string) error {
	if c.done {
		return fmt.Errorf("row %d already committed as %q", c.row, c.job.Status)
	}
	c.done = true
	if err := c.store.WriteCell(c.ctx, c.row, models.ColumnStatus, marker); err != nil {
		return fmt.Errorf("writing status of row %d: %w", c.row, err)
	}
	c.job.Status = marker
	return nil
}

// truncateCell cuts s to the cell limit without splitting UTF-8 runes.
func truncateCell(s string) string {
	if utf8.RuneCountInString(s) <= maxCellChars {
		return s
	}
	n := 0
	for i := range s {
		if n == maxCellChars {
			return s[:i]
		}
		n++
	}
	return s
}
