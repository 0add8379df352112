package service

import (
	"fmt"
	"sync"
	"testing"

	"github.com/logan676/bookpost-sub002/internal/models"
)

func newMilestoneFixture() (*MilestoneService, *MockMilestoneRepository, *MockDailyStatRepository, *MockProfileRepository) {
	milestoneRepo := NewMockMilestoneRepository()
	statRepo := NewMockDailyStatRepository()
	profiles := NewMockProfileRepository()
	return NewMilestoneService(milestoneRepo, statRepo, profiles), milestoneRepo, statRepo, profiles
}

func TestEvaluateAwardsCrossedThresholds(t *testing.T) {
	svc, _, statRepo, profiles := newMilestoneFixture()

	// 55 hours read, 12 books finished, longest streak 30 days.
	statRepo.row(1, "2024-03-10").TotalDurationSeconds = 55 * 3600
	statRepo.row(1, "2024-03-10").BooksFinished = 12
	if err := profiles.UpdateStreak(1, 30, 30); err != nil {
		t.Fatalf("seed: %v", err)
	}

	awarded, err := svc.Evaluate(1)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	want := map[string]bool{
		"streak_days|7":     true,
		"streak_days|30":    true,
		"total_hours|10":    true,
		"total_hours|50":    true,
		"books_finished|1":  true,
		"books_finished|10": true,
	}
	if len(awarded) != len(want) {
		t.Fatalf("awarded %d milestones, want %d: %+v", len(awarded), len(want), awarded)
	}
	for _, m := range awarded {
		key := fmt.Sprintf("%s|%d", m.MilestoneType, m.MilestoneValue)
		if !want[key] {
			t.Errorf("unexpected milestone %s", key)
		}
		if m.Title == "" {
			t.Errorf("milestone %s has no title", key)
		}
	}
}

func TestEvaluateIsExactlyOnce(t *testing.T) {
	svc, _, statRepo, _ := newMilestoneFixture()
	statRepo.row(1, "2024-03-10").TotalDurationSeconds = 10 * 3600

	first, err := svc.Evaluate(1)
	if err != nil {
		t.Fatalf("first evaluate: %v", err)
	}
	if len(first) != 1 {
		t.Fatalf("first evaluate awarded %d, want 1", len(first))
	}

	second, err := svc.Evaluate(1)
	if err != nil {
		t.Fatalf("second evaluate: %v", err)
	}
	if len(second) != 0 {
		t.Errorf("second evaluate awarded %d, want 0", len(second))
	}
}

func TestEvaluateSkipsBelowHighest(t *testing.T) {
	svc, milestoneRepo, statRepo, _ := newMilestoneFixture()

	// Backfill already recorded the 50-hour rung; the lower rungs must
	// not be retro-awarded.
	if _, err := milestoneRepo.Insert(&models.ReadingMilestone{
		UserID: 1, MilestoneType: models.MilestoneTotalHours, MilestoneValue: 50,
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	statRepo.row(1, "2024-03-10").TotalDurationSeconds = 60 * 3600

	awarded, err := svc.Evaluate(1)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if len(awarded) != 0 {
		t.Errorf("awarded %d below the recorded high-water mark, want 0: %+v", len(awarded), awarded)
	}
}

func TestFirstBookTitle(t *testing.T) {
	if got := milestoneTitle(models.MilestoneBooksFinished, 1); got != "First book finished" {
		t.Errorf("title = %q, want %q", got, "First book finished")
	}
	if got := milestoneTitle(models.MilestoneStreakDays, 7); got != "7-day reading streak" {
		t.Errorf("title = %q, want %q", got, "7-day reading streak")
	}
}

func TestEvaluateConcurrentAwardsOnce(t *testing.T) {
	svc, milestoneRepo, statRepo, profiles := newMilestoneFixture()
	statRepo.row(1, "2024-03-10").TotalDurationSeconds = 55 * 3600
	statRepo.row(1, "2024-03-10").BooksFinished = 12
	if err := profiles.UpdateStreak(1, 30, 30); err != nil {
		t.Fatalf("seed: %v", err)
	}

	// Two evaluations race, as when a session close and the nightly
	// sweep coincide; the insert constraint keeps awards single.
	const workers = 4
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Evaluate(1); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent Evaluate: %v", err)
	}

	all, err := milestoneRepo.ListByUser(1, 0, nil)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(all) != 6 {
		t.Errorf("stored %d milestones, want 6: %+v", len(all), all)
	}
}
