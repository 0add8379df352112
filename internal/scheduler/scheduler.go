package scheduler

import (
	"log"
	"time"

	"github.com/logan676/bookpost-sub002/internal/models"
	"github.com/logan676/bookpost-sub002/internal/repository"
	"github.com/logan676/bookpost-sub002/internal/service"
	"github.com/logan676/bookpost-sub002/internal/validation"
)

const (
	reclaimInterval     = 1 * time.Minute
	leaderboardInterval = 5 * time.Minute
	nightlyInterval     = 1 * time.Hour

	reclaimBatchSize = 200
)

// Scheduler runs the engine's background sweeps: stale session
// reclamation, weekly leaderboard recompute, and the nightly
// re-evaluation of streaks, milestones, badges and challenge day
// counts. Every sweep records a JobRun so operators can see when a
// batch last succeeded.
type Scheduler struct {
	sessionService     *service.SessionService
	leaderboardService *service.LeaderboardService
	streakService      *service.StreakService
	milestoneService   *service.MilestoneService
	badgeService       *service.BadgeService
	challengeService   *service.ChallengeService

	statRepo    repository.DailyStatRepositoryInterface
	profileRepo repository.ProfileRepositoryInterface
	jobRepo     repository.JobRepositoryInterface
}

func NewScheduler(
	sessionService *service.SessionService,
	leaderboardService *service.LeaderboardService,
	streakService *service.StreakService,
	milestoneService *service.MilestoneService,
	badgeService *service.BadgeService,
	challengeService *service.ChallengeService,
	statRepo repository.DailyStatRepositoryInterface,
	profileRepo repository.ProfileRepositoryInterface,
	jobRepo repository.JobRepositoryInterface,
) *Scheduler {
	return &Scheduler{
		sessionService:     sessionService,
		leaderboardService: leaderboardService,
		streakService:      streakService,
		milestoneService:   milestoneService,
		badgeService:       badgeService,
		challengeService:   challengeService,
		statRepo:           statRepo,
		profileRepo:        profileRepo,
		jobRepo:            jobRepo,
	}
}

// Start launches all background loops. Each loop runs once at startup
// and then on its ticker.
func (s *Scheduler) Start() {
	s.startLoop("session reclamation", reclaimInterval, s.runReclaim)
	s.startLoop("leaderboard recompute", leaderboardInterval, s.runLeaderboard)
	s.startLoop("nightly evaluation", nightlyInterval, s.runNightly)
}

func (s *Scheduler) startLoop(name string, interval time.Duration, fn func() error) {
	ticker := time.NewTicker(interval)

	go func() {
		log.Printf("Running initial %s sweep...", name)
		if err := fn(); err != nil {
			log.Printf("Error during initial %s sweep: %v", name, err)
		}
		for range ticker.C {
			if err := fn(); err != nil {
				log.Printf("Error during %s sweep: %v", name, err)
			}
		}
	}()
}

// runReclaim closes sessions whose device went silent past the
// heartbeat timeout and folds their time into daily stats. It also
// re-drives aggregation for sessions that closed but never reached the
// stats, so a crash between close and hand-off heals on the next tick.
func (s *Scheduler) runReclaim() error {
	run, err := s.jobRepo.Start(models.JobTypeSessionReclaim)
	if err != nil {
		return err
	}
	timeout := time.Duration(validation.SessionTimeoutMinutes()) * time.Minute
	reclaimed, sweepErr := s.sessionService.ReclaimStale(timeout, reclaimBatchSize)
	if reclaimed > 0 {
		log.Printf("Reclaimed %d stale reading sessions", reclaimed)
	}
	if sweepErr == nil {
		var reapplied int
		reapplied, sweepErr = s.sessionService.ReapplyUnaggregated(24*time.Hour, reclaimBatchSize)
		if reapplied > 0 {
			log.Printf("Re-aggregated %d dropped session closes", reapplied)
		}
	}
	if finishErr := s.jobRepo.Finish(run.ID, sweepErr); finishErr != nil {
		log.Printf("Failed to record reclaim run: %v", finishErr)
	}
	return sweepErr
}

// runLeaderboard recomputes the current week's rankings, and finalizes
// the previous week once after each rollover.
func (s *Scheduler) runLeaderboard() error {
	run, err := s.jobRepo.Start(models.JobTypeWeeklyLeaderboard)
	if err != nil {
		return err
	}
	sweepErr := s.recomputeLeaderboards()
	if finishErr := s.jobRepo.Finish(run.ID, sweepErr); finishErr != nil {
		log.Printf("Failed to record leaderboard run: %v", finishErr)
	}
	return sweepErr
}

func (s *Scheduler) recomputeLeaderboards() error {
	currentWeek := s.leaderboardService.CurrentWeekStart()

	last, err := s.jobRepo.LastSucceeded(models.JobTypeWeeklyLeaderboard)
	if err != nil {
		return err
	}
	// First successful run of a new week also settles the week that
	// just closed, so late-arriving sessions land in its final ranks.
	if last == nil || last.StartedAt.UTC().Format(models.DateLayout) < currentWeek {
		prevWeek, err := time.Parse(models.DateLayout, currentWeek)
		if err == nil {
			prev := prevWeek.AddDate(0, 0, -7).Format(models.DateLayout)
			if err := s.leaderboardService.ComputeWeek(prev, nil); err != nil {
				return err
			}
		}
	}
	return s.leaderboardService.ComputeWeek(currentWeek, nil)
}

// runNightly re-derives streaks, milestones, badges and challenge
// reading-day counts for every user active in the last 90 days. The
// derivations are idempotent, so running hourly only advances users
// whose local midnight has passed since the previous sweep.
func (s *Scheduler) runNightly() error {
	run, err := s.jobRepo.Start(models.JobTypeNightlyEvaluation)
	if err != nil {
		return err
	}
	sweepErr := s.evaluateActiveUsers()
	if finishErr := s.jobRepo.Finish(run.ID, sweepErr); finishErr != nil {
		log.Printf("Failed to record nightly run: %v", finishErr)
	}
	return sweepErr
}

func (s *Scheduler) evaluateActiveUsers() error {
	since := time.Now().UTC().AddDate(0, 0, -90).Format(models.DateLayout)
	userIDs, err := s.statRepo.ListUsersActiveSince(since)
	if err != nil {
		return err
	}
	for _, userID := range userIDs {
		s.evaluateUser(userID)
	}
	return nil
}

// evaluateUser is best-effort per user: one failing user must not
// starve the rest of the sweep.
func (s *Scheduler) evaluateUser(userID uint) {
	if _, err := s.streakService.Recompute(userID); err != nil {
		log.Printf("Nightly streak recompute for user %d: %v", userID, err)
	}
	if _, err := s.milestoneService.Evaluate(userID); err != nil {
		log.Printf("Nightly milestone evaluation for user %d: %v", userID, err)
	}
	if _, err := s.badgeService.Evaluate(userID); err != nil {
		log.Printf("Nightly badge evaluation for user %d: %v", userID, err)
	}

	profile, err := s.profileRepo.GetOrCreate(userID)
	if err != nil {
		log.Printf("Nightly profile load for user %d: %v", userID, err)
		return
	}
	today := time.Now().In(profile.Location()).Format(models.DateLayout)
	if err := s.challengeService.SyncReadingDays(userID, today); err != nil {
		log.Printf("Nightly challenge sync for user %d: %v", userID, err)
	}
}
