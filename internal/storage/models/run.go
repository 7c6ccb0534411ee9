package models

import (
	"time"
)

// AvailabilityRun records one execution of the availability pipeline.
type AvailabilityRun struct {
	ID          string     `json:"id"`
	TriggeredBy string     `json:"triggered_by"`
	StartedAt   time.Time  `json:"started_at"`
	FinishedAt  *time.Time `json:"finished_at,omitempty"`
	Status      string     `json:"status"`
	Courses     int        `json:"courses"`
	Skipped     int        `json:"skipped"`
	Places      int        `json:"places"`
	Rooms       int        `json:"rooms"`
	Unresolved  int        `json:"unresolved"`
	Error       *string    `json:"error,omitempty"`
}

// Run status constants
const (
	RunStatusRunning = "running"
	RunStatusSuccess = "success"
	RunStatusError   = "error"
)

// Run trigger constants
const (
	RunTriggerManual    = "manual"
	RunTriggerScheduled = "scheduled"
	RunTriggerStartup   = "startup"
)
