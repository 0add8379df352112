package repository

import (
	"github.com/logan676/bookpost-sub002/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MilestoneRepository struct {
	db *gorm.DB
}

func NewMilestoneRepository(db *gorm.DB) *MilestoneRepository {
	return &MilestoneRepository{db: db}
}

// Insert attempts to record a milestone. A conflict on
// (user, type, value) means another evaluation got there first; that
// is the expected outcome under concurrency, reported as (false, nil)
// rather than an error.
func (r *MilestoneRepository) Insert(m *models.ReadingMilestone) (bool, error) {
	res := r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(m)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *MilestoneRepository) ListByUser(userID uint, limit int, year *int) ([]models.ReadingMilestone, error) {
	q := r.db.Where("user_id = ?", userID)
	if year != nil {
		q = q.Where("EXTRACT(YEAR FROM achieved_at) = ?", *year)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	var milestones []models.ReadingMilestone
	err := q.Order("achieved_at DESC").Find(&milestones).Error
	return milestones, err
}

// HighestValue returns the largest recorded threshold for a milestone
// type, 0 when none exist. Lets evaluation skip already-passed rungs.
func (r *MilestoneRepository) HighestValue(userID uint, milestoneType models.MilestoneType) (int64, error) {
	var highest int64
	err := r.db.Model(&models.ReadingMilestone{}).
		Where("user_id = ? AND milestone_type = ?", userID, milestoneType).
		Select("COALESCE(MAX(milestone_value), 0)").
		Scan(&highest).Error
	return highest, err
}
