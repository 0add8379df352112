package cache

import (
	"fmt"
	"time"

	"github.com/logan676/bookpost-sub002/internal/models"
	"github.com/vmihailenco/msgpack/v5"
)

// TTL constants for the stats read-models
const (
	RangeStatsTTL = 2 * time.Minute
	CalendarTTL   = 5 * time.Minute
)

// StatsCache caches composed stats views per user. Aggregation writes
// invalidate the whole user prefix rather than chasing individual
// dimension keys.
type StatsCache struct {
	redis *RedisCache
}

func NewStatsCache(redis *RedisCache) *StatsCache {
	return &StatsCache{redis: redis}
}

func rangeKey(userID uint, dimension, date string, year, month int) string {
	return fmt.Sprintf("stats:%d:%s:%s:%d:%d", userID, dimension, date, year, month)
}

func calendarKey(userID uint, year, month int) string {
	return fmt.Sprintf("stats:%d:calendar:%d:%d", userID, year, month)
}

func (sc *StatsCache) GetRange(userID uint, dimension, date string, year, month int) (*models.RangeStats, bool) {
	if sc == nil || sc.redis == nil {
		return nil, false
	}
	data, err := sc.redis.Get(rangeKey(userID, dimension, date, year, month))
	if err != nil || data == nil {
		return nil, false
	}
	var stats models.RangeStats
	if err := msgpack.Unmarshal(data, &stats); err != nil {
		return nil, false
	}
	return &stats, true
}

func (sc *StatsCache) SetRange(userID uint, dimension, date string, year, month int, stats *models.RangeStats) error {
	if sc == nil || sc.redis == nil {
		return nil
	}
	data, err := msgpack.Marshal(stats)
	if err != nil {
		return err
	}
	return sc.redis.Set(rangeKey(userID, dimension, date, year, month), data, RangeStatsTTL)
}

func (sc *StatsCache) GetCalendar(userID uint, year, month int) (*models.CalendarView, bool) {
	if sc == nil || sc.redis == nil {
		return nil, false
	}
	data, err := sc.redis.Get(calendarKey(userID, year, month))
	if err != nil || data == nil {
		return nil, false
	}
	var view models.CalendarView
	if err := msgpack.Unmarshal(data, &view); err != nil {
		return nil, false
	}
	return &view, true
}

func (sc *StatsCache) SetCalendar(userID uint, year, month int, view *models.CalendarView) error {
	if sc == nil || sc.redis == nil {
		return nil
	}
	data, err := msgpack.Marshal(view)
	if err != nil {
		return err
	}
	return sc.redis.Set(calendarKey(userID, year, month), data, CalendarTTL)
}

// InvalidateUser drops every cached view for one user.
func (sc *StatsCache) InvalidateUser(userID uint) error {
	if sc == nil || sc.redis == nil {
		return nil
	}
	return sc.redis.DeletePattern(fmt.Sprintf("stats:%d:*", userID))
}
