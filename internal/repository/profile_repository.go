package repository

import (
	"github.com/logan676/bookpost-sub002/internal/models"
	"gorm.io/gorm"
)

type ProfileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(db *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// GetOrCreate returns the user's profile, creating a UTC default on
// first touch.
func (r *ProfileRepository) GetOrCreate(userID uint) (*models.UserProfile, error) {
	if err := r.db.Exec(`
		INSERT INTO user_profiles (user_id, timezone, created_at, updated_at)
		VALUES (?, '', NOW(), NOW())
		ON CONFLICT (user_id) DO NOTHING
	`, userID).Error; err != nil {
		return nil, err
	}
	var profile models.UserProfile
	if err := r.db.First(&profile, "user_id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *ProfileRepository) SetTimezone(userID uint, timezone string) error {
	return r.db.Exec(`
		INSERT INTO user_profiles (user_id, timezone, created_at, updated_at)
		VALUES (?, ?, NOW(), NOW())
		ON CONFLICT (user_id) DO UPDATE
		SET timezone = EXCLUDED.timezone, updated_at = NOW()
	`, userID, timezone).Error
}

func (r *ProfileRepository) UpdateStreak(userID uint, current, longest int) error {
	return r.db.Exec(`
		INSERT INTO user_profiles
			(user_id, timezone, current_streak_days, longest_streak_days, created_at, updated_at)
		VALUES (?, '', ?, ?, NOW(), NOW())
		ON CONFLICT (user_id) DO UPDATE
		SET current_streak_days = EXCLUDED.current_streak_days,
			longest_streak_days = GREATEST(user_profiles.longest_streak_days, EXCLUDED.longest_streak_days),
			updated_at = NOW()
	`, userID, current, longest).Error
}
