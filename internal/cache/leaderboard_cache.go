package cache

import (
	"fmt"
	"time"

	"github.com/logan676/bookpost-sub002/internal/models"
	"github.com/vmihailenco/msgpack/v5"
)

const LeaderboardTTL = 1 * time.Minute

// LeaderboardCache caches composed leaderboard views. Keys include the
// viewer because the friends scope and my_ranking are viewer-specific.
type LeaderboardCache struct {
	redis *RedisCache
}

func NewLeaderboardCache(redis *RedisCache) *LeaderboardCache {
	return &LeaderboardCache{redis: redis}
}

func leaderboardKey(viewerID uint, weekStart, scope string) string {
	return fmt.Sprintf("lb:%s:%s:%d", weekStart, scope, viewerID)
}

func (lc *LeaderboardCache) Get(viewerID uint, weekStart, scope string) (*models.LeaderboardView, bool) {
	if lc == nil || lc.redis == nil {
		return nil, false
	}
	data, err := lc.redis.Get(leaderboardKey(viewerID, weekStart, scope))
	if err != nil || data == nil {
		return nil, false
	}
	var view models.LeaderboardView
	if err := msgpack.Unmarshal(data, &view); err != nil {
		return nil, false
	}
	return &view, true
}

func (lc *LeaderboardCache) Set(viewerID uint, weekStart, scope string, view *models.LeaderboardView) error {
	if lc == nil || lc.redis == nil {
		return nil
	}
	data, err := msgpack.Marshal(view)
	if err != nil {
		return err
	}
	return lc.redis.Set(leaderboardKey(viewerID, weekStart, scope), data, LeaderboardTTL)
}

// InvalidateWeek drops every cached view of one week (any viewer, any
// scope), used after a like lands or ranks are recomputed.
func (lc *LeaderboardCache) InvalidateWeek(weekStart string) error {
	if lc == nil || lc.redis == nil {
		return nil
	}
	return lc.redis.DeletePattern(fmt.Sprintf("lb:%s:*", weekStart))
}
