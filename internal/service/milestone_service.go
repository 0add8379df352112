package service

import (
	"fmt"
	"time"

	"github.com/logan676/bookpost-sub002/internal/models"
	"github.com/logan676/bookpost-sub002/internal/repository"
)

// Fixed threshold ladders. Values are in the unit of the milestone
// type (days, hours, books).
var milestoneThresholds = map[models.MilestoneType][]int64{
	models.MilestoneStreakDays:    {7, 30, 100, 365},
	models.MilestoneTotalHours:    {10, 50, 100, 500},
	models.MilestoneBooksFinished: {1, 10, 50, 100},
}

// MilestoneService detects threshold crossings and records each one at
// most once. The unique index on (user, type, value) carries the
// exactly-once guarantee; evaluation itself can run concurrently and
// redundantly without harm.
type MilestoneService struct {
	milestoneRepo repository.MilestoneRepositoryInterface
	statRepo      repository.DailyStatRepositoryInterface
	profileRepo   repository.ProfileRepositoryInterface

	now func() time.Time
}

func NewMilestoneService(
	milestoneRepo repository.MilestoneRepositoryInterface,
	statRepo repository.DailyStatRepositoryInterface,
	profileRepo repository.ProfileRepositoryInterface,
) *MilestoneService {
	return &MilestoneService{
		milestoneRepo: milestoneRepo,
		statRepo:      statRepo,
		profileRepo:   profileRepo,
		now:           time.Now,
	}
}

// Evaluate checks every ladder against the user's current aggregates
// and inserts newly crossed rungs. Returns the milestones this call
// actually recorded (conflicts with concurrent evaluations are counted
// as already awarded, not returned and not errors).
func (s *MilestoneService) Evaluate(userID uint) ([]models.ReadingMilestone, error) {
	profile, err := s.profileRepo.GetOrCreate(userID)
	if err != nil {
		return nil, err
	}
	totalSeconds, err := s.statRepo.SumDuration(userID)
	if err != nil {
		return nil, err
	}
	booksFinished, err := s.statRepo.SumBooksFinished(userID)
	if err != nil {
		return nil, err
	}

	currentValues := map[models.MilestoneType]int64{
		models.MilestoneStreakDays:    int64(profile.LongestStreakDays),
		models.MilestoneTotalHours:    totalSeconds / 3600,
		models.MilestoneBooksFinished: booksFinished,
	}

	var awarded []models.ReadingMilestone
	for milestoneType, thresholds := range milestoneThresholds {
		reached := currentValues[milestoneType]
		highest, err := s.milestoneRepo.HighestValue(userID, milestoneType)
		if err != nil {
			return awarded, err
		}
		for _, threshold := range thresholds {
			if threshold <= highest || threshold > reached {
				continue
			}
			m := models.ReadingMilestone{
				UserID:         userID,
				MilestoneType:  milestoneType,
				MilestoneValue: threshold,
				Title:          milestoneTitle(milestoneType, threshold),
				AchievedAt:     s.now().UTC(),
			}
			inserted, err := s.milestoneRepo.Insert(&m)
			if err != nil {
				return awarded, err
			}
			if inserted {
				awarded = append(awarded, m)
			}
		}
	}
	return awarded, nil
}

func (s *MilestoneService) List(userID uint, limit int, year *int) ([]models.ReadingMilestone, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.milestoneRepo.ListByUser(userID, limit, year)
}

func milestoneTitle(milestoneType models.MilestoneType, value int64) string {
	switch milestoneType {
	case models.MilestoneStreakDays:
		return fmt.Sprintf("%d-day reading streak", value)
	case models.MilestoneTotalHours:
		return fmt.Sprintf("%d hours of reading", value)
	case models.MilestoneBooksFinished:
		if value == 1 {
			return "First book finished"
		}
		return fmt.Sprintf("%d books finished", value)
	}
	return fmt.Sprintf("%s: %d", milestoneType, value)
}
