package service

import (
	"time"

	"github.com/logan676/bookpost-sub002/internal/repository"
)

// streakLookbackDays bounds the historical scan; anything older than
// two years only matters on explicit backfill.
const streakLookbackDays = 730

type StreakResult struct {
	Current int `json:"current"`
	Longest int `json:"longest"`
}

// StreakService derives consecutive-day reading streaks from daily
// aggregates. Dates are compared as user-local calendar days.
type StreakService struct {
	statRepo    repository.DailyStatRepositoryInterface
	profileRepo repository.ProfileRepositoryInterface

	now func() time.Time
}

func NewStreakService(statRepo repository.DailyStatRepositoryInterface, profileRepo repository.ProfileRepositoryInterface) *StreakService {
	return &StreakService{statRepo: statRepo, profileRepo: profileRepo, now: time.Now}
}

// Recompute scans the user's active days newest-first. The current
// streak may end at today or at yesterday: a quiet today does not
// break the streak until the day is over. The result is cached on the
// user profile for cheap reads.
func (s *StreakService) Recompute(userID uint) (StreakResult, error) {
	profile, err := s.profileRepo.GetOrCreate(userID)
	if err != nil {
		return StreakResult{}, err
	}
	loc := profile.Location()

	today := localDate(s.now(), loc)
	since := addDays(today, -streakLookbackDays)

	dates, err := s.statRepo.ListActiveDatesDesc(userID, since)
	if err != nil {
		return StreakResult{}, err
	}

	result := computeStreaks(dates, today)

	if err := s.profileRepo.UpdateStreak(userID, result.Current, result.Longest); err != nil {
		return StreakResult{}, err
	}
	return result, nil
}

// computeStreaks walks dates (descending, unique) against today.
func computeStreaks(dates []string, today string) StreakResult {
	if len(dates) == 0 {
		return StreakResult{}
	}

	// Current streak: anchored at today, or at yesterday while today
	// has no activity yet (the mid-day grace period).
	current := 0
	expected := today
	if dates[0] != today {
		expected = addDays(today, -1)
	}
	for _, d := range dates {
		if d != expected {
			break
		}
		current++
		expected = addDays(expected, -1)
	}

	// Longest run anywhere in the window.
	longest, run := 1, 1
	for i := 1; i < len(dates); i++ {
		if dates[i] == addDays(dates[i-1], -1) {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}
	if current > longest {
		longest = current
	}

	return StreakResult{Current: current, Longest: longest}
}

// Cached returns the stored streak figures without a rescan.
func (s *StreakService) Cached(userID uint) (StreakResult, error) {
	profile, err := s.profileRepo.GetOrCreate(userID)
	if err != nil {
		return StreakResult{}, err
	}
	return StreakResult{
		Current: profile.CurrentStreakDays,
		Longest: profile.LongestStreakDays,
	}, nil
}
