package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/logan676/bookpost-sub002/internal/cache"
	"github.com/logan676/bookpost-sub002/internal/httpx"
	"github.com/logan676/bookpost-sub002/internal/models"
	"github.com/logan676/bookpost-sub002/internal/service"
	"github.com/logan676/bookpost-sub002/internal/validation"
)

type StatsHandler struct {
	statsService     *service.StatsService
	milestoneService *service.MilestoneService
	statsCache       *cache.StatsCache
}

func NewStatsHandler(statsService *service.StatsService, milestoneService *service.MilestoneService, statsCache *cache.StatsCache) *StatsHandler {
	return &StatsHandler{
		statsService:     statsService,
		milestoneService: milestoneService,
		statsCache:       statsCache,
	}
}

func (h *StatsHandler) GetStats(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	dimension := c.Query("dimension", service.DimensionWeek)
	if !validation.ValidateDimension(dimension) {
		return httpx.BadRequest(c, "invalid_dimension", "Unrecognized stats dimension")
	}

	query := service.StatsQuery{
		Dimension: dimension,
		Date:      c.Query("date"),
		Year:      c.QueryInt("year"),
		Month:     c.QueryInt("month"),
	}
	if query.Date != "" && !validation.ValidateDate(query.Date) {
		return httpx.BadRequest(c, "invalid_date", "date must be YYYY-MM-DD")
	}

	// Calendar and range views cache separately.
	if dimension == service.DimensionCalendar {
		if view, ok := h.statsCache.GetCalendar(userID, query.Year, query.Month); ok {
			return c.JSON(view)
		}
	} else if stats, ok := h.statsCache.GetRange(userID, dimension, query.Date, query.Year, query.Month); ok {
		return c.JSON(stats)
	}

	result, err := h.statsService.GetStats(userID, query)
	if err != nil {
		if errors.Is(err, service.ErrInvalidDimension) {
			return httpx.BadRequest(c, "invalid_dimension", "Unrecognized stats dimension")
		}
		return httpx.Internal(c, "fetch_stats_failed")
	}

	switch v := result.(type) {
	case *models.CalendarView:
		_ = h.statsCache.SetCalendar(userID, query.Year, query.Month, v)
	case *models.RangeStats:
		_ = h.statsCache.SetRange(userID, dimension, query.Date, query.Year, query.Month, v)
	}

	return c.JSON(result)
}

func (h *StatsHandler) GetMilestones(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	limit := validation.ClampLimit(c.QueryInt("limit"), 50, 100)
	var year *int
	if y := c.QueryInt("year"); y > 0 {
		year = &y
	}

	milestones, err := h.milestoneService.List(userID, limit, year)
	if err != nil {
		return httpx.Internal(c, "fetch_milestones_failed")
	}
	responses := make([]models.MilestoneResponse, len(milestones))
	for i := range milestones {
		responses[i] = milestones[i].ToResponse()
	}
	return c.JSON(fiber.Map{"milestones": responses, "count": len(responses)})
}

func (h *StatsHandler) GetProfile(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}
	profile, err := h.statsService.Profile(userID)
	if err != nil {
		return httpx.Internal(c, "fetch_profile_failed")
	}
	return c.JSON(profile)
}

type timezoneInput struct {
	Timezone string `json:"timezone"`
}

func (h *StatsHandler) SetTimezone(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	var input timezoneInput
	if err := c.BodyParser(&input); err != nil {
		return httpx.BadRequest(c, "invalid_request_body", "Invalid request body")
	}
	if !validation.ValidateTimezone(input.Timezone) {
		return httpx.BadRequest(c, "invalid_timezone", "Unknown timezone "+strconv.Quote(input.Timezone))
	}

	if err := h.statsService.SetTimezone(userID, input.Timezone); err != nil {
		return httpx.Internal(c, "set_timezone_failed")
	}
	// Local dates shifted; cached views are stale.
	_ = h.statsCache.InvalidateUser(userID)
	return c.JSON(fiber.Map{"ok": true})
}
