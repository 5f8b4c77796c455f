package types

import (
	"fmt"
	"time"
)

// JobStatus is the lifecycle state of an ingestion job.
type JobStatus string

const (
	JobInProgress JobStatus = "IN_PROGRESS"
	JobCompleted  JobStatus = "COMPLETED"
	JobError      JobStatus = "ERROR"
)

// Terminal reports whether no further transitions are allowed.
func (s JobStatus) Terminal() bool {
	return s == JobCompleted || s == JobError
}

// CanTransition reports whether moving from s to next is legal.
// The only legal moves are IN_PROGRESS to COMPLETED and IN_PROGRESS to ERROR.
func (s JobStatus) CanTransition(next JobStatus) bool {
	return s == JobInProgress && next.Terminal()
}

// IngestJob tracks one background indexing run.
type IngestJob struct {
	ID         string     `json:"job_id"`
	UserID     string     `json:"user_id"`
	Source     string     `json:"source"`
	Status     JobStatus  `json:"status"`
	Error      string     `json:"error,omitempty"`
	Components int        `json:"components"`
	DesignFile int        `json:"design_files"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// Transition moves the job to next, stamping the finish time.
func (j *IngestJob) Transition(next JobStatus, cause error) error {
	if !j.Status.CanTransition(next) {
		return fmt.Errorf("invalid job transition %s -> %s", j.Status, next)
	}
	now := time.Now()
	j.Status = next
	j.FinishedAt = &now
	if cause != nil {
		j.Error = cause.Error()
	}
	return nil
}
