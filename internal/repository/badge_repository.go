package repository

import (
	"github.com/logan676/bookpost-sub002/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BadgeRepository struct {
	db *gorm.DB
}

func NewBadgeRepository(db *gorm.DB) *BadgeRepository {
	return &BadgeRepository{db: db}
}

func (r *BadgeRepository) ListActive() ([]models.Badge, error) {
	var badges []models.Badge
	err := r.db.Where("is_active = ?", true).Order("id ASC").Find(&badges).Error
	return badges, err
}

func (r *BadgeRepository) ListUserBadges(userID uint) ([]models.UserBadge, error) {
	var grants []models.UserBadge
	err := r.db.Preload("Badge").
		Where("user_id = ?", userID).
		Order("earned_at DESC").
		Find(&grants).Error
	return grants, err
}

// Grant inserts the join row and, only when the insert actually landed,
// increments the badge's earned_count in the same transaction. The
// unique index does the duplicate detection; there is deliberately no
// exists pre-check to race against.
func (r *BadgeRepository) Grant(grant *models.UserBadge) (bool, error) {
	granted := false
	err := r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(grant)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		granted = true
		return tx.Exec(`
			UPDATE badges SET earned_count = earned_count + 1, updated_at = NOW()
			WHERE id = ?
		`, grant.BadgeID).Error
	})
	if err != nil {
		return false, err
	}
	return granted, nil
}
