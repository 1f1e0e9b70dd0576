// internal/models/status.go
package models

import "time"

// ExecutionStatus is the aggregate state of a plan execution.
type ExecutionStatus string

const (
	ExecutionRunning  ExecutionStatus = "RUNNING"
	ExecutionOK       ExecutionStatus = "OK"
	ExecutionFailed   ExecutionStatus = "FAILED"
	ExecutionCanceled ExecutionStatus = "CANCELED"
)

// JobState is the observable state of one job within an execution.
type JobState struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Status   string `json:"status"`
	Priority int64  `json:"priority"`
	Error    string `json:"error,omitempty"`
}

// ExecutionState is the current state of a plan execution.
type ExecutionState struct {
	ID        string          `json:"id"`
	PlanID    string          `json:"planId"`
	Status    ExecutionStatus `json:"status"`
	StartTime time.Time       `json:"startTime"`
	Jobs      []JobState      `json:"jobs"`
}

// SystemState is the current state of the loader service.
type SystemState struct {
	ScheduledJobs int       `json:"scheduledJobs"`
	MaxThreads    int       `json:"maxThreads"`
	TotalThreads  int64     `json:"totalThreads"`
	ActiveThreads int64     `json:"activeThreads"`
	Executions    int       `json:"executions"`
	UpdatedAt     time.Time `json:"updatedAt"`
}
