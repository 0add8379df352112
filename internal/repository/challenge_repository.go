package repository

import (
	"time"

	"github.com/logan676/bookpost-sub002/internal/models"
	"gorm.io/gorm"
)

type ChallengeRepository struct {
	db *gorm.DB
}

func NewChallengeRepository(db *gorm.DB) *ChallengeRepository {
	return &ChallengeRepository{db: db}
}

// ListActiveOn returns challenges whose window covers the given date.
func (r *ChallengeRepository) ListActiveOn(date string) ([]models.ReadingChallenge, error) {
	var challenges []models.ReadingChallenge
	err := r.db.Where("is_active = ? AND start_date <= ? AND end_date >= ?", true, date, date).
		Find(&challenges).Error
	return challenges, err
}

// AddProgress additively upserts a user's progress row.
func (r *ChallengeRepository) AddProgress(userID, challengeID uint, delta int64) error {
	return r.db.Exec(`
		INSERT INTO user_challenge_progresses
			(user_id, challenge_id, current_value, is_completed, created_at, updated_at)
		VALUES (?, ?, ?, FALSE, NOW(), NOW())
		ON CONFLICT (user_id, challenge_id) DO UPDATE
		SET current_value = user_challenge_progresses.current_value + EXCLUDED.current_value,
			updated_at = NOW()
	`, userID, challengeID, delta).Error
}

// CompleteIfReached flips completion exactly once: the is_completed
// guard in the WHERE clause means only one caller observes the
// transition.
func (r *ChallengeRepository) CompleteIfReached(userID, challengeID uint, target int64, at time.Time) (bool, error) {
	res := r.db.Exec(`
		UPDATE user_challenge_progresses
		SET is_completed = TRUE, completed_at = ?, updated_at = NOW()
		WHERE user_id = ? AND challenge_id = ? AND is_completed = FALSE AND current_value >= ?
	`, at, userID, challengeID, target)
	return res.RowsAffected > 0, res.Error
}

func (r *ChallengeRepository) Get(userID, challengeID uint) (*models.UserChallengeProgress, error) {
	var progress models.UserChallengeProgress
	err := r.db.Where("user_id = ? AND challenge_id = ?", userID, challengeID).
		First(&progress).Error
	if err != nil {
		return nil, err
	}
	return &progress, nil
}

func (r *ChallengeRepository) IsCompleted(userID, challengeID uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.UserChallengeProgress{}).
		Where("user_id = ? AND challenge_id = ? AND is_completed = TRUE", userID, challengeID).
		Count(&count).Error
	return count > 0, err
}
