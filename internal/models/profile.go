package models

import "time"

// UserProfile holds the engine's per-user settings and cached streak
// figures. The identity collaborator owns accounts; this row only
// exists so local-date math has a timezone and streak reads are cheap.
type UserProfile struct {
	UserID    uint      `gorm:"primaryKey" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// IANA timezone name; empty means UTC.
	Timezone string `gorm:"type:varchar(64)" json:"timezone"`

	CurrentStreakDays int `gorm:"not null;default:0" json:"current_streak_days"`
	LongestStreakDays int `gorm:"not null;default:0" json:"longest_streak_days"`
}

// Location resolves the stored timezone, falling back to UTC when the
// name is empty or unknown.
func (p *UserProfile) Location() *time.Location {
	if p == nil || p.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
