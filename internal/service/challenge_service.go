package service

import (
	"time"

	"github.com/logan676/bookpost-sub002/internal/models"
	"github.com/logan676/bookpost-sub002/internal/repository"
)

// ChallengeService advances time-boxed challenge progress from the
// aggregation stream. Progress only grows via additive upsert;
// completion flips exactly once behind the guarded update.
type ChallengeService struct {
	challengeRepo repository.ChallengeRepositoryInterface
	statRepo      repository.DailyStatRepositoryInterface

	now func() time.Time
}

func NewChallengeService(challengeRepo repository.ChallengeRepositoryInterface, statRepo repository.DailyStatRepositoryInterface) *ChallengeService {
	return &ChallengeService{challengeRepo: challengeRepo, statRepo: statRepo, now: time.Now}
}

// ApplyDuration feeds one day's reading seconds into duration-metric
// challenges whose window covers that date.
func (s *ChallengeService) ApplyDuration(userID uint, date string, seconds int64) error {
	if seconds <= 0 {
		return nil
	}
	return s.applyMetric(userID, date, models.ChallengeMetricDuration, seconds)
}

// ApplyBookFinished feeds a finished book into books-metric challenges.
func (s *ChallengeService) ApplyBookFinished(userID uint, date string) error {
	return s.applyMetric(userID, date, models.ChallengeMetricBooksFinished, 1)
}

func (s *ChallengeService) applyMetric(userID uint, date string, metric models.ChallengeMetric, delta int64) error {
	challenges, err := s.challengeRepo.ListActiveOn(date)
	if err != nil {
		return err
	}
	for _, challenge := range challenges {
		if challenge.Metric != metric {
			continue
		}
		if err := s.challengeRepo.AddProgress(userID, challenge.ID, delta); err != nil {
			return err
		}
		if _, err := s.challengeRepo.CompleteIfReached(userID, challenge.ID, challenge.TargetValue, s.now().UTC()); err != nil {
			return err
		}
	}
	return nil
}

// SyncReadingDays reconciles reading-days challenges against daily
// stats. Day counts cannot be derived incrementally from a single
// session close, so the nightly sweep calls this per user.
func (s *ChallengeService) SyncReadingDays(userID uint, today string) error {
	challenges, err := s.challengeRepo.ListActiveOn(today)
	if err != nil {
		return err
	}
	for _, challenge := range challenges {
		if challenge.Metric != models.ChallengeMetricReadingDays {
			continue
		}
		stats, err := s.statRepo.ListRange(userID, challenge.StartDate, addDays(challenge.EndDate, 1))
		if err != nil {
			return err
		}
		days := int64(0)
		for _, stat := range stats {
			if stat.TotalDurationSeconds > 0 {
				days++
			}
		}
		progress, err := s.challengeRepo.Get(userID, challenge.ID)
		current := int64(0)
		if err == nil && progress != nil {
			current = progress.CurrentValue
		}
		if days > current {
			if err := s.challengeRepo.AddProgress(userID, challenge.ID, days-current); err != nil {
				return err
			}
		}
		if _, err := s.challengeRepo.CompleteIfReached(userID, challenge.ID, challenge.TargetValue, s.now().UTC()); err != nil {
			return err
		}
	}
	return nil
}
