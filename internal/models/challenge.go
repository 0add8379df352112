package models

import "time"

type ChallengeMetric string

const (
	ChallengeMetricDuration      ChallengeMetric = "duration_seconds"
	ChallengeMetricReadingDays   ChallengeMetric = "reading_days"
	ChallengeMetricBooksFinished ChallengeMetric = "books_finished"
)

// ReadingChallenge is a time-boxed goal (e.g. "read 10 hours in March").
type ReadingChallenge struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Title       string          `gorm:"type:varchar(100);not null" json:"title"`
	Metric      ChallengeMetric `gorm:"type:varchar(30);not null" json:"metric"`
	TargetValue int64           `gorm:"not null" json:"target_value"`
	StartDate   string          `gorm:"type:varchar(10);not null" json:"start_date"`
	EndDate     string          `gorm:"type:varchar(10);not null" json:"end_date"`
	IsActive    bool            `gorm:"default:true;index" json:"is_active"`
}

// UserChallengeProgress tracks one user's progress toward one
// challenge; unique on (user_id, challenge_id). CurrentValue only ever
// grows via additive upsert, and completion flips exactly once.
type UserChallengeProgress struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	UserID      uint `gorm:"not null;uniqueIndex:idx_challenge_user" json:"user_id"`
	ChallengeID uint `gorm:"not null;uniqueIndex:idx_challenge_user" json:"challenge_id"`

	CurrentValue int64      `gorm:"not null;default:0" json:"current_value"`
	IsCompleted  bool       `gorm:"default:false" json:"is_completed"`
	CompletedAt  *time.Time `json:"completed_at"`
}
