package repository

import (
	"time"

	"github.com/logan676/bookpost-sub002/internal/models"
)

// SessionRepositoryInterface defines the contract for reading session persistence
type SessionRepositoryInterface interface {
	Create(session *models.ReadingSession) error
	FindByID(id string) (*models.ReadingSession, error)
	ListActiveByUser(userID uint) ([]models.ReadingSession, error)
	ApplyHeartbeat(id string, userID uint, seq uint64, position string, deltaSeconds int64, at time.Time) (bool, error)
	SetPaused(id string, userID uint, at time.Time) (bool, error)
	SetResumed(id string, userID uint, at time.Time) (bool, error)
	Close(id string, userID uint, endTime time.Time, endPosition string) (bool, error)
	FindStale(cutoff time.Time, limit int) ([]models.ReadingSession, error)
	FindClosedUnaggregated(since time.Time, limit int) ([]models.ReadingSession, error)
}

// DailyStatRepositoryInterface defines the contract for the daily aggregate store
type DailyStatRepositoryInterface interface {
	ApplySessionAggregation(sessionID string, userID uint, bookKey, category string, deltas []SessionDayDelta) (bool, error)
	ApplyEngagementDelta(userID uint, date string, pages, notes, highlights int) error
	ApplyBookFinished(userID uint, date string) error
	FindByUserDate(userID uint, date string) (*models.DailyReadingStat, error)
	ListRange(userID uint, from, to string) ([]models.DailyReadingStat, error)
	ListRangeAllUsers(from, to string, userIDs []uint) ([]models.DailyReadingStat, error)
	ListActiveDatesDesc(userID uint, since string) ([]string, error)
	SumDuration(userID uint) (int64, error)
	SumBooksFinished(userID uint) (int64, error)
	ListUsersActiveSince(since string) ([]uint, error)
}

// LeaderboardRepositoryInterface defines the contract for weekly leaderboard persistence
type LeaderboardRepositoryInterface interface {
	ReplaceWeekRanks(weekStart, scope string, entries []models.WeeklyLeaderboardEntry) error
	FindEntry(userID uint, weekStart string) (*models.WeeklyLeaderboardEntry, error)
	ListWeek(weekStart string, userIDs []uint, limit int) ([]models.WeeklyLeaderboardEntry, error)
	CountWeek(weekStart string, userIDs []uint) (int64, error)
	ApplyLike(like *models.LeaderboardLike) (liked bool, entryFound bool, err error)
}

// MilestoneRepositoryInterface defines the contract for milestone records
type MilestoneRepositoryInterface interface {
	Insert(m *models.ReadingMilestone) (bool, error)
	ListByUser(userID uint, limit int, year *int) ([]models.ReadingMilestone, error)
	HighestValue(userID uint, milestoneType models.MilestoneType) (int64, error)
}

// BadgeRepositoryInterface defines the contract for the badge catalog and grants
type BadgeRepositoryInterface interface {
	ListActive() ([]models.Badge, error)
	ListUserBadges(userID uint) ([]models.UserBadge, error)
	Grant(grant *models.UserBadge) (bool, error)
}

// ChallengeRepositoryInterface defines the contract for challenge progress
type ChallengeRepositoryInterface interface {
	ListActiveOn(date string) ([]models.ReadingChallenge, error)
	AddProgress(userID, challengeID uint, delta int64) error
	CompleteIfReached(userID, challengeID uint, target int64, at time.Time) (bool, error)
	Get(userID, challengeID uint) (*models.UserChallengeProgress, error)
	IsCompleted(userID, challengeID uint) (bool, error)
}

// ProfileRepositoryInterface defines the contract for engine-side user profiles
type ProfileRepositoryInterface interface {
	GetOrCreate(userID uint) (*models.UserProfile, error)
	SetTimezone(userID uint, timezone string) error
	UpdateStreak(userID uint, current, longest int) error
}

// JobRepositoryInterface defines the contract for batch-job status records
type JobRepositoryInterface interface {
	Start(jobType string) (*models.JobRun, error)
	Finish(id string, runErr error) error
	LastSucceeded(jobType string) (*models.JobRun, error)
}
