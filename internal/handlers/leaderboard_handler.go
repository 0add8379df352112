package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/logan676/bookpost-sub002/internal/cache"
	"github.com/logan676/bookpost-sub002/internal/httpx"
	"github.com/logan676/bookpost-sub002/internal/service"
	"github.com/logan676/bookpost-sub002/internal/validation"
)

type LeaderboardHandler struct {
	leaderboardService *service.LeaderboardService
	leaderboardCache   *cache.LeaderboardCache
}

func NewLeaderboardHandler(leaderboardService *service.LeaderboardService, leaderboardCache *cache.LeaderboardCache) *LeaderboardHandler {
	return &LeaderboardHandler{
		leaderboardService: leaderboardService,
		leaderboardCache:   leaderboardCache,
	}
}

func (h *LeaderboardHandler) GetLeaderboard(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	scope := c.Query("scope", service.ScopeAll)
	if !validation.ValidateScope(scope) {
		return httpx.BadRequest(c, "invalid_scope", "scope must be all or friends")
	}
	weekStart := c.Query("week_start")
	if weekStart != "" && !validation.ValidateDate(weekStart) {
		return httpx.BadRequest(c, "invalid_week_start", "week_start must be YYYY-MM-DD")
	}
	if weekStart == "" {
		// Pin the cache key to a concrete week so InvalidateWeek hits it.
		weekStart = h.leaderboardService.CurrentWeekStart()
	}
	limit := validation.ClampLimit(c.QueryInt("limit"), 50, 100)

	if view, ok := h.leaderboardCache.Get(userID, weekStart, scope); ok {
		return c.JSON(view)
	}

	view, err := h.leaderboardService.GetLeaderboard(userID, weekStart, scope, limit)
	if err != nil {
		return httpx.Internal(c, "fetch_leaderboard_failed")
	}
	_ = h.leaderboardCache.Set(userID, weekStart, scope, view)

	return c.JSON(view)
}

func (h *LeaderboardHandler) LikeUser(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	targetID, err := strconv.ParseUint(c.Params("user_id"), 10, 32)
	if err != nil || targetID == 0 {
		return httpx.BadRequest(c, "invalid_user", "Invalid target user")
	}
	weekStart := c.Query("week_start")
	if weekStart != "" && !validation.ValidateDate(weekStart) {
		return httpx.BadRequest(c, "invalid_week_start", "week_start must be YYYY-MM-DD")
	}
	if weekStart == "" {
		weekStart = h.leaderboardService.CurrentWeekStart()
	}

	if err := h.leaderboardService.LikeUser(userID, uint(targetID), weekStart); err != nil {
		switch {
		case errors.Is(err, service.ErrSelfLike):
			return httpx.BadRequest(c, "self_like", "You cannot like your own ranking")
		case errors.Is(err, service.ErrAlreadyLiked):
			return httpx.Conflict(c, "already_liked", "Already liked this week")
		case errors.Is(err, service.ErrNotFound):
			return httpx.NotFound(c, "entry_not_found", "No leaderboard entry for that user and week")
		default:
			return httpx.Internal(c, "like_failed")
		}
	}

	_ = h.leaderboardCache.InvalidateWeek(weekStart)

	return c.JSON(fiber.Map{"success": true})
}
