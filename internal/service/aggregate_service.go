package service

import (
	"log"
	"time"

	"github.com/logan676/bookpost-sub002/internal/models"
	"github.com/logan676/bookpost-sub002/internal/repository"
)

const uncategorized = "uncategorized"

// AggregateService folds closed sessions and engagement events into
// DailyReadingStat rows and fans out to the streak, milestone, badge
// and challenge engines.
type AggregateService struct {
	statRepo    repository.DailyStatRepositoryInterface
	profileRepo repository.ProfileRepositoryInterface
	catalog     BookCatalog

	streaks    *StreakService
	milestones *MilestoneService
	badges     *BadgeService
	challenges *ChallengeService

	now func() time.Time
}

func NewAggregateService(
	statRepo repository.DailyStatRepositoryInterface,
	profileRepo repository.ProfileRepositoryInterface,
	catalog BookCatalog,
	streaks *StreakService,
	milestones *MilestoneService,
	badges *BadgeService,
	challenges *ChallengeService,
) *AggregateService {
	return &AggregateService{
		statRepo:    statRepo,
		profileRepo: profileRepo,
		catalog:     catalog,
		streaks:     streaks,
		milestones:  milestones,
		badges:      badges,
		challenges:  challenges,
		now:         time.Now,
	}
}

// ApplySessionClose upserts the session's duration into daily stats.
// Idempotent: the processed-session ledger makes a second application
// of the same session ID a no-op. Midnight-spanning sessions are split
// proportionally by the wall-clock share on each side of midnight, in
// the user's stored timezone.
func (s *AggregateService) ApplySessionClose(session *models.ReadingSession) error {
	if session.EndTime == nil {
		// Only closed sessions aggregate.
		return nil
	}

	profile, err := s.profileRepo.GetOrCreate(session.UserID)
	if err != nil {
		return err
	}
	loc := profile.Location()

	deltas := splitAcrossDays(session.StartTime, *session.EndTime, session.DurationSeconds, loc)

	category := uncategorized
	if info, err := s.catalog.ResolveBook(session.BookRef()); err == nil && info != nil && info.Category != "" {
		category = info.Category
	}

	applied, err := s.statRepo.ApplySessionAggregation(
		session.ID, session.UserID, session.BookRef().Key(), category, deltas)
	if err != nil {
		return err
	}
	if !applied {
		// Retry of an already-aggregated session.
		return nil
	}

	for _, d := range deltas {
		if err := s.challenges.ApplyDuration(session.UserID, d.Date, d.Seconds); err != nil {
			log.Printf("challenge progress user %d: %v", session.UserID, err)
		}
	}

	s.evaluate(session.UserID)
	return nil
}

// ApplyEngagement records pages/notes/highlights produced outside of
// session timing (the reader app reports them as they happen).
func (s *AggregateService) ApplyEngagement(userID uint, at time.Time, pages, notes, highlights int) error {
	profile, err := s.profileRepo.GetOrCreate(userID)
	if err != nil {
		return err
	}
	return s.statRepo.ApplyEngagementDelta(userID, localDate(at, profile.Location()), pages, notes, highlights)
}

// ApplyBookFinished marks a finished book on the user's local date and
// re-evaluates milestones, badges and finished-book challenges.
func (s *AggregateService) ApplyBookFinished(userID uint, ref models.BookRef, at time.Time) error {
	profile, err := s.profileRepo.GetOrCreate(userID)
	if err != nil {
		return err
	}
	date := localDate(at, profile.Location())
	if err := s.statRepo.ApplyBookFinished(userID, date); err != nil {
		return err
	}
	if err := s.challenges.ApplyBookFinished(userID, date); err != nil {
		log.Printf("challenge progress user %d: %v", userID, err)
	}
	s.evaluate(userID)
	return nil
}

// evaluate runs the post-aggregation triggers. Failures here are
// logged, not propagated: the nightly sweep re-runs the same
// evaluations, so a missed trigger heals on its own.
func (s *AggregateService) evaluate(userID uint) {
	if _, err := s.streaks.Recompute(userID); err != nil {
		log.Printf("streak recompute user %d: %v", userID, err)
	}
	if _, err := s.milestones.Evaluate(userID); err != nil {
		log.Printf("milestone evaluate user %d: %v", userID, err)
	}
	if _, err := s.badges.Evaluate(userID); err != nil {
		log.Printf("badge evaluate user %d: %v", userID, err)
	}
}

// splitAcrossDays distributes durationSeconds over the local calendar
// days the interval [start, end) touches, proportionally to wall-clock
// time on each side of midnight. The last day takes the rounding
// remainder so the parts always sum to the whole.
func splitAcrossDays(start, end time.Time, durationSeconds int64, loc *time.Location) []repository.SessionDayDelta {
	start = start.In(loc)
	end = end.In(loc)
	if !end.After(start) || durationSeconds <= 0 {
		return []repository.SessionDayDelta{{Date: start.Format(models.DateLayout), Seconds: durationSeconds}}
	}

	wallClock := end.Sub(start).Seconds()
	var deltas []repository.SessionDayDelta
	var assigned int64

	cursor := start
	for cursor.Before(end) {
		dayEnd := time.Date(cursor.Year(), cursor.Month(), cursor.Day(), 0, 0, 0, 0, loc).AddDate(0, 0, 1)
		segEnd := dayEnd
		if segEnd.After(end) {
			segEnd = end
		}
		share := segEnd.Sub(cursor).Seconds() / wallClock
		seconds := int64(share*float64(durationSeconds) + 0.5)
		deltas = append(deltas, repository.SessionDayDelta{
			Date:    cursor.Format(models.DateLayout),
			Seconds: seconds,
		})
		assigned += seconds
		cursor = segEnd
	}

	if n := len(deltas); n > 0 && assigned != durationSeconds {
		deltas[n-1].Seconds += durationSeconds - assigned
	}
	return deltas
}
