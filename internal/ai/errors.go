package ai

import (
	"errors"
	"fmt"

	"github.com/kiranshivaraju/sheetscribe/pkg/models"
)

var (
	ErrGenerationFailed = errors.New("content generation failed")
	ErrEmptyScript      = errors.New("generated response has no script section")
)

// GenerationError is returned once every attempt of a generation request failed.
// It matches ErrGenerationFailed and unwraps to the last observed cause.
type GenerationError struct {
	Attempts []models.RetryAttempt
	Cause    error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%s after %d attempt(s): %v", ErrGenerationFailed, len(e.Attempts), e.Cause)
}

func (e *GenerationError) Unwrap() error { return e.Cause }

func (e *GenerationError) Is(target error) bool { return target == ErrGenerationFailed }

// IsTransient reports whether err carries a rate-limit or overload signal.
func IsTransient(err error) bool {
	var t interface{ Transient() bool }
	return errors.As(err, &t) && t.Transient()
}
