// Package models contains shared data models used across the sheetscribe codebase.
package models

import "context"

// GenerationBackend is the core interface that every text-generation integration must implement.
// Callers depend on this interface rather than a concrete backend.
type GenerationBackend interface {
	// ListModels returns the model variants currently offered by the backend.
	ListModels(ctx context.Context) ([]ModelCandidate, error)
	// GenerateContent sends one prompt to the given model and returns the generated text.
	GenerateContent(ctx context.Context, model, prompt string) (string, error)
	// Name returns the backend identifier (e.g., "gemini", "mock").
	Name() string
}

// ModelCandidate is one entry of a capability-discovery response.
type ModelCandidate struct {
	Identifier         string `json:"identifier"`
	SupportsGeneration bool   `json:"supports_generation"`
}

// GenerationResult is a parsed response. Both fields are always populated
// for a non-empty response; VideoPrompt is never empty.
type GenerationResult struct {
	Script      string `json:"script"`
	VideoPrompt string `json:"video_prompt"`
}

type AttemptOutcome string

const (
	AttemptSucceeded AttemptOutcome = "success"
	AttemptRetryable AttemptOutcome = "retryable"
	AttemptFatal     AttemptOutcome = "fatal"
)

// RetryAttempt records one request made while generating content.
type RetryAttempt struct {
	Number  int            `json:"number"`
	Outcome AttemptOutcome `json:"outcome"`
	Err     error          `json:"-"`
}
