package repository

import (
	"github.com/logan676/bookpost-sub002/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type LeaderboardRepository struct {
	db *gorm.DB
}

func NewLeaderboardRepository(db *gorm.DB) *LeaderboardRepository {
	return &LeaderboardRepository{db: db}
}

// ReplaceWeekRanks writes the freshly computed standings for one week.
// Rank assignment is a whole-table operation, so the write is
// serialized per (week, scope) with a transaction-scoped advisory
// lock; two schedulers racing on the same week queue up instead of
// interleaving. likes_received is social state owned by the like path
// and survives recomputation untouched.
func (r *LeaderboardRepository) ReplaceWeekRanks(weekStart, scope string, entries []models.WeeklyLeaderboardEntry) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(
			"SELECT pg_advisory_xact_lock(hashtext(?))",
			"leaderboard:"+weekStart+":"+scope,
		).Error; err != nil {
			return err
		}
		for i := range entries {
			e := &entries[i]
			if err := tx.Exec(`
				INSERT INTO weekly_leaderboard_entries
					(user_id, week_start, total_duration_seconds, rank, rank_change,
					 reading_days, books_read, likes_received, created_at, updated_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, 0, NOW(), NOW())
				ON CONFLICT (user_id, week_start) DO UPDATE
				SET total_duration_seconds = EXCLUDED.total_duration_seconds,
					rank = EXCLUDED.rank,
					rank_change = EXCLUDED.rank_change,
					reading_days = EXCLUDED.reading_days,
					books_read = EXCLUDED.books_read,
					updated_at = NOW()
			`, e.UserID, e.WeekStart, e.TotalDurationSeconds, e.Rank, e.RankChange,
				e.ReadingDays, e.BooksRead).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *LeaderboardRepository) FindEntry(userID uint, weekStart string) (*models.WeeklyLeaderboardEntry, error) {
	var entry models.WeeklyLeaderboardEntry
	err := r.db.Where("user_id = ? AND week_start = ?", userID, weekStart).First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// ListWeek returns ranked entries for a week, best rank first. A nil
// userIDs means the global board; limit <= 0 means no limit.
func (r *LeaderboardRepository) ListWeek(weekStart string, userIDs []uint, limit int) ([]models.WeeklyLeaderboardEntry, error) {
	q := r.db.Where("week_start = ?", weekStart)
	if userIDs != nil {
		q = q.Where("user_id IN ?", userIDs)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	var entries []models.WeeklyLeaderboardEntry
	err := q.Order("rank ASC NULLS LAST, total_duration_seconds DESC, user_id ASC").
		Find(&entries).Error
	return entries, err
}

func (r *LeaderboardRepository) CountWeek(weekStart string, userIDs []uint) (int64, error) {
	q := r.db.Model(&models.WeeklyLeaderboardEntry{}).Where("week_start = ?", weekStart)
	if userIDs != nil {
		q = q.Where("user_id IN ?", userIDs)
	}
	var count int64
	err := q.Count(&count).Error
	return count, err
}

// ApplyLike records a like and bumps the target entry's counter in one
// transaction. A conflict on (liker, target, week) reports
// liked=false; a missing target entry rolls the like back and reports
// entryFound=false.
func (r *LeaderboardRepository) ApplyLike(like *models.LeaderboardLike) (liked bool, entryFound bool, err error) {
	entryFound = true
	err = r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(like)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Duplicate like; leave the counter alone.
			return nil
		}
		upd := tx.Exec(`
			UPDATE weekly_leaderboard_entries
			SET likes_received = likes_received + 1, updated_at = NOW()
			WHERE user_id = ? AND week_start = ?
		`, like.TargetID, like.WeekStart)
		if upd.Error != nil {
			return upd.Error
		}
		if upd.RowsAffected == 0 {
			entryFound = false
			return gorm.ErrRecordNotFound
		}
		liked = true
		return nil
	})
	if err != nil && !entryFound {
		// The rollback is the point; no entry means no like either.
		err = nil
	}
	return liked, entryFound, err
}
