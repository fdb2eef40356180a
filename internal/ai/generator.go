package ai

import (
	"context"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/kiranshivaraju/sheetscribe/internal/config"
	"github.com/kiranshivaraju/sheetscribe/pkg/models"
)

// ContentGenerator is the generation half of a backend.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model, prompt string) (string, error)
}

// Generation is the raw text of a successful request and the attempts it took.
type Generation struct {
	Text     string
	Attempts []models.RetryAttempt
}

// Generator issues generation requests with a bounded, constant-delay retry policy.
type Generator struct {
	backend     ContentGenerator
	maxAttempts int
	retryDelay  time.Duration
	template    string
}

// NewGenerator creates a Generator. A MaxAttempts below 1 is treated as 1.
func NewGenerator(backend ContentGenerator, cfg config.GenerationConfig) *Generator {
	attempts := cfg.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	return &Generator{
		backend:     backend,
		maxAttempts: attempts,
		retryDelay:  cfg.RetryDelay,
		template:    cfg.PromptTemplate,
	}
}

// Generate renders the prompt for topic and sends it to model. Rate-limit and
// overload answers, other error statuses, transport errors and empty responses
// all consume an attempt and are retried after the retry delay. Once every
// attempt failed a *GenerationError carrying the last cause is returned.
func (g *Generator) Generate(ctx context.Context, model, topic string) (*Generation, error) {
	prompt := RenderPrompt(g.template, topic)

	var (
		attempts []models.RetryAttempt
		text     string
	)

	op := func() error {
		n := len(attempts) + 1
		out, err := g.backend.GenerateContent(ctx, model, prompt)
		if err != nil {
			outcome := models.AttemptFatal
			if IsTransient(err) {
				outcome = models.AttemptRetryable
			}
			attempts = append(attempts, models.RetryAttempt{Number: n, Outcome: outcome, Err: err})
			return err
		}
		attempts = append(attempts, models.RetryAttempt{Number: n, Outcome: models.AttemptSucceeded})
		text = out
		return nil
	}

	notify := func(err error, wait time.Duration) {
		last := attempts[len(attempts)-1]
		if last.Outcome == models.AttemptRetryable {
			slog.Info("generation backend busy, retrying",
				"attempt", last.Number, "max_attempts", g.maxAttempts, "wait", wait, "error", err)
			return
		}
		slog.Warn("generation attempt failed, retrying",
			"attempt", last.Number, "max_attempts", g.maxAttempts, "wait", wait, "error", err)
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(g.retryDelay), uint64(g.maxAttempts-1)),
		ctx,
	)

	if err := backoff.RetryNotify(op, policy, notify); err != nil {
		return nil, &GenerationError{Attempts: attempts, Cause: err}
	}

	return &Generation{Text: text, Attempts: attempts}, nil
}
