package repository

import (
	"github.com/logan676/bookpost-sub002/internal/models"
	"gorm.io/gorm"
)

type DailyStatRepository struct {
	db *gorm.DB
}

func NewDailyStatRepository(db *gorm.DB) *DailyStatRepository {
	return &DailyStatRepository{db: db}
}

// SessionDayDelta is one day's share of a closed session (midnight
// splits produce two of these).
type SessionDayDelta struct {
	Date    string
	Seconds int64
}

// ApplySessionAggregation folds one closed session into daily stats.
// The ledger insert comes first: if the session ID is already recorded
// the whole call is a no-op (false, nil), which makes retries after
// partial failures safe. Every stat mutation is an additive upsert, so
// concurrent closes for the same user/day commute.
func (r *DailyStatRepository) ApplySessionAggregation(sessionID string, userID uint, bookKey, category string, deltas []SessionDayDelta) (bool, error) {
	applied := false
	err := r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Exec(`
			INSERT INTO processed_sessions (session_id, user_id, processed_at)
			VALUES (?, ?, NOW())
			ON CONFLICT (session_id) DO NOTHING
		`, sessionID, userID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Already aggregated by an earlier attempt.
			return nil
		}
		applied = true

		for _, d := range deltas {
			if d.Seconds <= 0 {
				continue
			}
			if err := ensureDailyRow(tx, userID, d.Date); err != nil {
				return err
			}
			if err := tx.Exec(`
				UPDATE daily_reading_stats
				SET total_duration_seconds = total_duration_seconds + ?,
					book_durations = jsonb_set(
						COALESCE(book_durations, '{}'::jsonb),
						ARRAY[?],
						to_jsonb(COALESCE((book_durations->>?)::bigint, 0) + ?)),
					category_durations = jsonb_set(
						COALESCE(category_durations, '{}'::jsonb),
						ARRAY[?],
						to_jsonb(COALESCE((category_durations->>?)::bigint, 0) + ?)),
					books_read = (
						SELECT COUNT(*) FROM jsonb_object_keys(
							jsonb_set(COALESCE(book_durations, '{}'::jsonb), ARRAY[?], to_jsonb(0)))),
					updated_at = NOW()
				WHERE user_id = ? AND stat_date = ?
			`, d.Seconds,
				bookKey, bookKey, d.Seconds,
				category, category, d.Seconds,
				bookKey,
				userID, d.Date).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return applied, nil
}

// ApplyEngagementDelta adds page/note/highlight counts to a day.
func (r *DailyStatRepository) ApplyEngagementDelta(userID uint, date string, pages, notes, highlights int) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := ensureDailyRow(tx, userID, date); err != nil {
			return err
		}
		return tx.Exec(`
			UPDATE daily_reading_stats
			SET pages_read = pages_read + ?,
				notes_created = notes_created + ?,
				highlights_created = highlights_created + ?,
				updated_at = NOW()
			WHERE user_id = ? AND stat_date = ?
		`, pages, notes, highlights, userID, date).Error
	})
}

func (r *DailyStatRepository) ApplyBookFinished(userID uint, date string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := ensureDailyRow(tx, userID, date); err != nil {
			return err
		}
		return tx.Exec(`
			UPDATE daily_reading_stats
			SET books_finished = books_finished + 1, updated_at = NOW()
			WHERE user_id = ? AND stat_date = ?
		`, userID, date).Error
	})
}

// ensureDailyRow creates the zeroed (user, date) row if absent.
// First-writer-wins on creation; losers fall through to the additive
// UPDATE, which is exactly the upsert contract the engine depends on.
func ensureDailyRow(tx *gorm.DB, userID uint, date string) error {
	return tx.Exec(`
		INSERT INTO daily_reading_stats
			(user_id, stat_date, category_durations, book_durations, created_at, updated_at)
		VALUES (?, ?, '{}'::jsonb, '{}'::jsonb, NOW(), NOW())
		ON CONFLICT (user_id, stat_date) DO NOTHING
	`, userID, date).Error
}

func (r *DailyStatRepository) FindByUserDate(userID uint, date string) (*models.DailyReadingStat, error) {
	var stat models.DailyReadingStat
	err := r.db.Where("user_id = ? AND stat_date = ?", userID, date).First(&stat).Error
	if err != nil {
		return nil, err
	}
	return &stat, nil
}

// ListRange returns a user's daily rows with stat_date in [from, to).
func (r *DailyStatRepository) ListRange(userID uint, from, to string) ([]models.DailyReadingStat, error) {
	var stats []models.DailyReadingStat
	err := r.db.Where("user_id = ? AND stat_date >= ? AND stat_date < ?", userID, from, to).
		Order("stat_date ASC").
		Find(&stats).Error
	return stats, err
}

// ListRangeAllUsers returns daily rows for a week window, optionally
// restricted to a user set (nil means everyone).
func (r *DailyStatRepository) ListRangeAllUsers(from, to string, userIDs []uint) ([]models.DailyReadingStat, error) {
	q := r.db.Where("stat_date >= ? AND stat_date < ?", from, to)
	if userIDs != nil {
		q = q.Where("user_id IN ?", userIDs)
	}
	var stats []models.DailyReadingStat
	err := q.Order("user_id ASC, stat_date ASC").Find(&stats).Error
	return stats, err
}

// ListActiveDatesDesc returns dates with nonzero duration, newest
// first, bounded below by since. One statement, so the streak scan
// sees a consistent snapshot.
func (r *DailyStatRepository) ListActiveDatesDesc(userID uint, since string) ([]string, error) {
	var dates []string
	err := r.db.Model(&models.DailyReadingStat{}).
		Where("user_id = ? AND stat_date >= ? AND total_duration_seconds > 0", userID, since).
		Order("stat_date DESC").
		Pluck("stat_date", &dates).Error
	return dates, err
}

func (r *DailyStatRepository) SumDuration(userID uint) (int64, error) {
	var total int64
	err := r.db.Model(&models.DailyReadingStat{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(total_duration_seconds), 0)").
		Scan(&total).Error
	return total, err
}

func (r *DailyStatRepository) SumBooksFinished(userID uint) (int64, error) {
	var total int64
	err := r.db.Model(&models.DailyReadingStat{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(books_finished), 0)").
		Scan(&total).Error
	return total, err
}

// ListUsersActiveSince returns the distinct user IDs with any daily
// row on or after since. The nightly sweep walks this set instead of
// every account ever created.
func (r *DailyStatRepository) ListUsersActiveSince(since string) ([]uint, error) {
	var userIDs []uint
	err := r.db.Model(&models.DailyReadingStat{}).
		Where("stat_date >= ?", since).
		Distinct().
		Order("user_id ASC").
		Pluck("user_id", &userIDs).Error
	return userIDs, err
}
