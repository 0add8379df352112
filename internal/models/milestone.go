package models

import "time"

type MilestoneType string

const (
	MilestoneStreakDays    MilestoneType = "streak_days"
	MilestoneTotalHours    MilestoneType = "total_hours"
	MilestoneBooksFinished MilestoneType = "books_finished"
)

// ReadingMilestone is a one-time-per-threshold achievement record.
// The unique index on (user_id, milestone_type, milestone_value) is the
// sole guard against double-award under concurrent evaluation.
type ReadingMilestone struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	UserID         uint          `gorm:"not null;uniqueIndex:idx_milestone_once" json:"user_id"`
	MilestoneType  MilestoneType `gorm:"type:varchar(30);not null;uniqueIndex:idx_milestone_once" json:"milestone_type"`
	MilestoneValue int64         `gorm:"not null;uniqueIndex:idx_milestone_once" json:"milestone_value"`

	BookID     *uint     `json:"book_id"`
	BookKind   BookKind  `gorm:"type:varchar(20)" json:"book_kind,omitempty"`
	Title      string    `gorm:"type:varchar(255);not null" json:"title"`
	AchievedAt time.Time `gorm:"not null;index" json:"achieved_at"`
}

type MilestoneResponse struct {
	ID             uint          `json:"id"`
	MilestoneType  MilestoneType `json:"milestone_type"`
	MilestoneValue int64         `json:"milestone_value"`
	Title          string        `json:"title"`
	AchievedAt     time.Time     `json:"achieved_at"`
}

func (m *ReadingMilestone) ToResponse() MilestoneResponse {
	return MilestoneResponse{
		ID:             m.ID,
		MilestoneType:  m.MilestoneType,
		MilestoneValue: m.MilestoneValue,
		Title:          m.Title,
		AchievedAt:     m.AchievedAt,
	}
}
