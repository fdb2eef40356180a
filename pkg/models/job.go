package models

import (
	"time"

	"github.com/google/uuid"
)

// Store columns, 1-based like the spreadsheet the jobs originally lived in.
const (
	ColumnTopic       = 1
	ColumnStatus      = 2
	ColumnScript      = 3
	ColumnVideoPrompt = 4
)

// Job is one row of the job store. It only lives for the duration of a single pass;
// the row itself is the durable record.
// Status holds the store's literal marker (config.MarkerConfig), not an enum.
type Job struct {
	Row    int    `json:"row"`
	Topic  string `json:"topic"`
	Status string `json:"status"`
}

// Outcomes of a single pass.
const (
	RunOutcomeNoWork           = "no_work"
	RunOutcomeCompleted        = "completed"
	RunOutcomeFailed           = "failed"
	RunOutcomeMissingTopic     = "missing_topic"
	RunOutcomeClaimedElsewhere = "claimed_elsewhere"
)

// RunReport summarizes one pass of the runner. Returned by the CLI and the
// POST /api/v1/runs endpoint.
type RunReport struct {
	RunID       uuid.UUID         `json:"run_id"`
	Outcome     string            `json:"outcome"`
	Job         *Job              `json:"job,omitempty"`
	Provider    string            `json:"provider,omitempty"`
	Model       string            `json:"model,omitempty"`
	Attempts    int               `json:"attempts,omitempty"`
	Result      *GenerationResult `json:"result,omitempty"`
	Error       string            `json:"error,omitempty"`
	StartedAt   time.Time         `json:"started_at"`
	CompletedAt time.Time         `json:"completed_at"`
}
