package models

import "time"

type JobStatus string

const (
	JobRunning   JobStatus = "running"
	JobSucceeded JobStatus = "succeeded"
	JobFailed    JobStatus = "failed"
)

const (
	JobTypeSessionReclaim    = "session_reclaim"
	JobTypeWeeklyLeaderboard = "weekly_leaderboard"
	JobTypeNightlyEvaluation = "nightly_evaluation"
)

// JobRun is the persisted status record of one batch-job execution.
// Batch progress lives here, keyed by run ID, never in a module-level
// flag, so multiple server instances see the same state.
type JobRun struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	JobType    string     `gorm:"type:varchar(40);not null;index" json:"job_type"`
	Status     JobStatus  `gorm:"type:varchar(20);not null" json:"status"`
	StartedAt  time.Time  `gorm:"not null" json:"started_at"`
	FinishedAt *time.Time `json:"finished_at"`
	Error      string     `gorm:"type:text" json:"error,omitempty"`
}
