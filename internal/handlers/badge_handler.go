package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/logan676/bookpost-sub002/internal/httpx"
	"github.com/logan676/bookpost-sub002/internal/service"
)

type BadgeHandler struct {
	badgeService *service.BadgeService
}

func NewBadgeHandler(badgeService *service.BadgeService) *BadgeHandler {
	return &BadgeHandler{badgeService: badgeService}
}

// GetBadges returns the active catalog plus the caller's grants.
func (h *BadgeHandler) GetBadges(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	catalog, grants, err := h.badgeService.ListBadges(userID)
	if err != nil {
		return httpx.Internal(c, "fetch_badges_failed")
	}

	earned := make(map[uint]bool, len(grants))
	for _, grant := range grants {
		earned[grant.BadgeID] = true
	}

	type badgeView struct {
		ID          uint   `json:"id"`
		Name        string `json:"name"`
		Description string `json:"description"`
		Icon        string `json:"icon"`
		EarnedCount int    `json:"earned_count"`
		Earned      bool   `json:"earned"`
	}
	views := make([]badgeView, len(catalog))
	for i, badge := range catalog {
		views[i] = badgeView{
			ID:          badge.ID,
			Name:        badge.Name,
			Description: badge.Description,
			Icon:        badge.Icon,
			EarnedCount: badge.EarnedCount,
			Earned:      earned[badge.ID],
		}
	}
	return c.JSON(fiber.Map{"badges": views, "earned_count": len(grants)})
}
