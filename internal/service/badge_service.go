package service

import (
	"time"

	"github.com/logan676/bookpost-sub002/internal/models"
	"github.com/logan676/bookpost-sub002/internal/repository"
)

// BadgeService grants catalog badges when a user's metric crosses the
// badge's condition value. Grant-once semantics come from the
// UserBadge unique index, never from a check-then-act pre-read.
type BadgeService struct {
	badgeRepo     repository.BadgeRepositoryInterface
	statRepo      repository.DailyStatRepositoryInterface
	profileRepo   repository.ProfileRepositoryInterface
	challengeRepo repository.ChallengeRepositoryInterface

	now func() time.Time
}

func NewBadgeService(
	badgeRepo repository.BadgeRepositoryInterface,
	statRepo repository.DailyStatRepositoryInterface,
	profileRepo repository.ProfileRepositoryInterface,
	challengeRepo repository.ChallengeRepositoryInterface,
) *BadgeService {
	return &BadgeService{
		badgeRepo:     badgeRepo,
		statRepo:      statRepo,
		profileRepo:   profileRepo,
		challengeRepo: challengeRepo,
		now:           time.Now,
	}
}

// Evaluate walks the active badge catalog and grants every badge whose
// condition the user now satisfies. Returns the badges granted by this
// call; concurrent duplicate grants collapse on the unique index.
func (s *BadgeService) Evaluate(userID uint) ([]models.Badge, error) {
	badges, err := s.badgeRepo.ListActive()
	if err != nil {
		return nil, err
	}
	if len(badges) == 0 {
		return nil, nil
	}

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

	var granted []models.Badge
	for _, badge := range badges {
		qualifies, err := s.qualifies(userID, badge, profile, totalSeconds, booksFinished)
		if err != nil {
			return granted, err
		}
		if !qualifies {
			continue
		}
		ok, err := s.badgeRepo.Grant(&models.UserBadge{
			UserID:   userID,
			BadgeID:  badge.ID,
			EarnedAt: s.now().UTC(),
		})
		if err != nil {
			return granted, err
		}
		if ok {
			granted = append(granted, badge)
		}
	}
	return granted, nil
}

func (s *BadgeService) qualifies(userID uint, badge models.Badge, profile *models.UserProfile, totalSeconds, booksFinished int64) (bool, error) {
	switch badge.ConditionType {
	case models.ConditionStreakDays:
		return int64(profile.LongestStreakDays) >= badge.ConditionValue, nil
	case models.ConditionTotalHours:
		return totalSeconds/3600 >= badge.ConditionValue, nil
	case models.ConditionBooksFinished:
		return booksFinished >= badge.ConditionValue, nil
	case models.ConditionChallengeCompleted:
		return s.challengeRepo.IsCompleted(userID, uint(badge.ConditionValue))
	}
	return false, nil
}

func (s *BadgeService) ListBadges(userID uint) ([]models.Badge, []models.UserBadge, error) {
	catalog, err := s.badgeRepo.ListActive()
	if err != nil {
		return nil, nil, err
	}
	grants, err := s.badgeRepo.ListUserBadges(userID)
	if err != nil {
		return nil, nil, err
	}
	return catalog, grants, nil
}
