package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/logan676/bookpost-sub002/internal/cache"
	"github.com/logan676/bookpost-sub002/internal/httpx"
	"github.com/logan676/bookpost-sub002/internal/service"
	"github.com/logan676/bookpost-sub002/internal/validation"
)

type SessionHandler struct {
	sessionService *service.SessionService
	statsCache     *cache.StatsCache
}

func NewSessionHandler(sessionService *service.SessionService, statsCache *cache.StatsCache) *SessionHandler {
	return &SessionHandler{
		sessionService: sessionService,
		statsCache:     statsCache,
	}
}

func (h *SessionHandler) StartSession(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	var input service.StartSessionInput
	if err := c.BodyParser(&input); err != nil {
		return httpx.BadRequest(c, "invalid_request_body", "Invalid request body")
	}

	input.DeviceID = validation.NormalizeDeviceID(input.DeviceID)
	if !validation.ValidateDeviceID(input.DeviceID) {
		return httpx.BadRequest(c, "invalid_device", "device_id is required")
	}

	session, err := h.sessionService.StartSession(userID, input)
	if err != nil {
		if errors.Is(err, service.ErrInvalidBook) {
			return httpx.BadRequest(c, "invalid_book", "Book reference could not be resolved")
		}
		return httpx.Internal(c, "start_session_failed")
	}

	return c.Status(fiber.StatusCreated).JSON(session.ToResponse())
}

type heartbeatInput struct {
	Seq          uint64 `json:"seq"`
	Position     string `json:"position"`
	DeltaSeconds int64  `json:"delta_seconds"`
}

func (h *SessionHandler) Heartbeat(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	var input heartbeatInput
	if err := c.BodyParser(&input); err != nil {
		return httpx.BadRequest(c, "invalid_request_body", "Invalid request body")
	}
	if input.DeltaSeconds > validation.MaxHeartbeatDeltaSeconds() {
		input.DeltaSeconds = validation.MaxHeartbeatDeltaSeconds()
	}

	if err := h.sessionService.Heartbeat(userID, c.Params("id"), input.Seq, input.Position, input.DeltaSeconds); err != nil {
		return h.mapSessionError(c, err, "heartbeat_failed")
	}
	return c.JSON(fiber.Map{"ok": true})
}

func (h *SessionHandler) Pause(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}
	if err := h.sessionService.Pause(userID, c.Params("id")); err != nil {
		return h.mapSessionError(c, err, "pause_failed")
	}
	return c.JSON(fiber.Map{"ok": true})
}

func (h *SessionHandler) Resume(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}
	if err := h.sessionService.Resume(userID, c.Params("id")); err != nil {
		return h.mapSessionError(c, err, "resume_failed")
	}
	return c.JSON(fiber.Map{"ok": true})
}

type endSessionInput struct {
	EndPosition string `json:"end_position"`
}

func (h *SessionHandler) EndSession(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	var input endSessionInput
	if err := c.BodyParser(&input); err != nil {
		return httpx.BadRequest(c, "invalid_request_body", "Invalid request body")
	}

	session, err := h.sessionService.EndSession(userID, c.Params("id"), input.EndPosition)
	if err != nil {
		return h.mapSessionError(c, err, "end_session_failed")
	}

	// The aggregate that backs the stats views just changed.
	_ = h.statsCache.InvalidateUser(userID)

	return c.JSON(session.ToResponse())
}

func (h *SessionHandler) ListActive(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}
	sessions, err := h.sessionService.ListActive(userID)
	if err != nil {
		return httpx.Internal(c, "list_sessions_failed")
	}
	responses := make([]interface{}, len(sessions))
	for i := range sessions {
		responses[i] = sessions[i].ToResponse()
	}
	return c.JSON(fiber.Map{"sessions": responses, "count": len(sessions)})
}

func (h *SessionHandler) mapSessionError(c *fiber.Ctx, err error, fallbackCode string) error {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		return httpx.NotFound(c, "session_not_found", "Session not found")
	case errors.Is(err, service.ErrSessionClosed):
		return httpx.Conflict(c, "session_closed", "Session is already closed")
	default:
		return httpx.Internal(c, fallbackCode)
	}
}
