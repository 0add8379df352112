package models

import "time"

type BadgeConditionType string

const (
	ConditionStreakDays         BadgeConditionType = "streak_days"
	ConditionTotalHours         BadgeConditionType = "total_hours"
	ConditionBooksFinished      BadgeConditionType = "books_finished"
	ConditionChallengeCompleted BadgeConditionType = "challenge_completed"
)

// Badge is a static catalog row describing a grantable badge.
type Badge struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name        string `gorm:"type:varchar(100);not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`
	Icon        string `gorm:"type:varchar(255)" json:"icon"`

	ConditionType BadgeConditionType `gorm:"type:varchar(30);not null" json:"condition_type"`
	// For challenge_completed badges this is the challenge ID; for the
	// metric conditions it is the threshold to cross.
	ConditionValue int64 `gorm:"not null" json:"condition_value"`

	IsActive    bool `gorm:"default:true;index" json:"is_active"`
	EarnedCount int  `gorm:"not null;default:0" json:"earned_count"`
}

// UserBadge is the grant join row, unique on (user_id, badge_id).
type UserBadge struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	UserID   uint      `gorm:"not null;uniqueIndex:idx_badge_once" json:"user_id"`
	BadgeID  uint      `gorm:"not null;uniqueIndex:idx_badge_once" json:"badge_id"`
	Badge    Badge     `gorm:"foreignKey:BadgeID" json:"badge"`
	EarnedAt time.Time `gorm:"not null" json:"earned_at"`
}
