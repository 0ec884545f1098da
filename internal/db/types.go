package db

import (
	"time"

	"github.com/google/uuid"
)

// Run represents one recorded pipeline run.
type Run struct {
	ID           uuid.UUID  `json:"id"`
	RosterFileID string     `json:"roster_file_id"`
	Status       string     `json:"status"`
	Generated    int        `json:"generated"`
	Skipped      int        `json:"skipped"`
	Failed       int        `json:"failed"`
	CreatedAt    time.Time  `json:"created_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

// Run status values.
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)
