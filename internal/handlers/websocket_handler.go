package handlers

import (
	"encoding/json"
	"errors"
	"log"

	"github.com/gofiber/websocket/v2"
	"github.com/logan676/bookpost-sub002/internal/handlers/ws"
	"github.com/logan676/bookpost-sub002/internal/models"
	"github.com/logan676/bookpost-sub002/internal/service"
	"github.com/logan676/bookpost-sub002/internal/validation"
)

// WebSocketHandler runs the live reading channel: one connection per
// device, carrying session start/heartbeat/pause/resume/end frames.
type WebSocketHandler struct {
	sessionService *service.SessionService
	hub            *ws.Hub
}

func NewWebSocketHandler(sessionService *service.SessionService) *WebSocketHandler {
	return &WebSocketHandler{
		sessionService: sessionService,
		hub:            ws.NewHub(),
	}
}

func (h *WebSocketHandler) GetHub() *ws.Hub {
	return h.hub
}

// frameWriter is the reply side of a device connection.
type frameWriter interface {
	WriteJSON(v interface{}) error
}

// sessionTracker is the set of sessions a connection owns; a dropped
// connection pauses exactly the sessions it tracks.
type sessionTracker interface {
	TrackSession(sessionID string)
	ForgetSession(sessionID string)
	Tracks(sessionID string) bool
}

func (h *WebSocketHandler) HandleWebSocket(c *websocket.Conn) {
	userID, ok := c.Locals("userID").(uint)
	if !ok || userID == 0 {
		_ = c.WriteJSON(ws.ServerFrame{Type: "error", Error: "unauthorized"})
		_ = c.Close()
		return
	}
	deviceID := validation.NormalizeDeviceID(c.Query("device_id"))
	if !validation.ValidateDeviceID(deviceID) {
		_ = c.WriteJSON(ws.ServerFrame{Type: "error", Error: "invalid_device"})
		_ = c.Close()
		return
	}

	dc := h.hub.Register(userID, deviceID, c)
	defer func() {
		// A dropped connection pauses its open sessions; the
		// reclamation sweep closes them if the device never returns.
		for _, sessionID := range dc.TrackedSessions() {
			if err := h.sessionService.Pause(userID, sessionID); err != nil {
				log.Printf("pause on disconnect %s: %v", sessionID, err)
			}
		}
		h.hub.Unregister(userID, deviceID)
		_ = c.Close()
	}()

	for {
		_, raw, err := c.ReadMessage()
		if err != nil {
			return
		}
		var frame ws.ClientFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			_ = c.WriteJSON(ws.ServerFrame{Type: "error", Error: "invalid_frame"})
			continue
		}
		h.dispatch(c, dc, userID, deviceID, frame)
	}
}

func (h *WebSocketHandler) dispatch(w frameWriter, dc sessionTracker, userID uint, deviceID string, frame ws.ClientFrame) {
	switch frame.Type {
	case ws.FramePing:
		_ = w.WriteJSON(ws.ServerFrame{Type: "pong"})

	case ws.FrameStart:
		kind, ok := models.ParseBookKind(frame.BookKind)
		if !ok {
			h.writeError(w, frame, "invalid_book")
			return
		}
		session, err := h.sessionService.StartSession(userID, service.StartSessionInput{
			Book:          models.BookRef{Kind: kind, ID: frame.BookID},
			DeviceID:      deviceID,
			StartPosition: frame.StartPosition,
		})
		if err != nil {
			h.writeError(w, frame, frameErrorCode(err))
			return
		}
		dc.TrackSession(session.ID)
		_ = w.WriteJSON(ws.ServerFrame{Type: "started", SessionID: session.ID, Payload: session.ToResponse()})

	case ws.FrameHeartbeat:
		if !dc.Tracks(frame.SessionID) {
			// Re-adopt after a reconnect, but only sessions this
			// device started; another device's session never joins
			// this connection's tracked set.
			session, err := h.sessionService.GetSession(userID, frame.SessionID)
			if err != nil {
				h.writeError(w, frame, frameErrorCode(err))
				return
			}
			if session.DeviceID != deviceID {
				h.writeError(w, frame, "session_not_found")
				return
			}
			dc.TrackSession(frame.SessionID)
		}
		delta := frame.DeltaSeconds
		if delta > validation.MaxHeartbeatDeltaSeconds() {
			delta = validation.MaxHeartbeatDeltaSeconds()
		}
		if err := h.sessionService.Heartbeat(userID, frame.SessionID, frame.Seq, frame.Position, delta); err != nil {
			h.writeError(w, frame, frameErrorCode(err))
			return
		}
		_ = w.WriteJSON(ws.ServerFrame{Type: "ack", SessionID: frame.SessionID})

	case ws.FramePause:
		if err := h.sessionService.Pause(userID, frame.SessionID); err != nil {
			h.writeError(w, frame, frameErrorCode(err))
			return
		}
		_ = w.WriteJSON(ws.ServerFrame{Type: "ack", SessionID: frame.SessionID})

	case ws.FrameResume:
		if err := h.sessionService.Resume(userID, frame.SessionID); err != nil {
			h.writeError(w, frame, frameErrorCode(err))
			return
		}
		_ = w.WriteJSON(ws.ServerFrame{Type: "ack", SessionID: frame.SessionID})

	case ws.FrameEnd:
		session, err := h.sessionService.EndSession(userID, frame.SessionID, frame.EndPosition)
		if err != nil {
			h.writeError(w, frame, frameErrorCode(err))
			return
		}
		dc.ForgetSession(frame.SessionID)
		_ = w.WriteJSON(ws.ServerFrame{Type: "ended", SessionID: frame.SessionID, Payload: session.ToResponse()})

	default:
		h.writeError(w, frame, "unknown_frame_type")
	}
}

func (h *WebSocketHandler) writeError(w frameWriter, frame ws.ClientFrame, code string) {
	_ = w.WriteJSON(ws.ServerFrame{Type: "error", SessionID: frame.SessionID, Error: code})
}

func frameErrorCode(err error) string {
	switch {
	case errors.Is(err, service.ErrInvalidBook):
		return "invalid_book"
	case errors.Is(err, service.ErrSessionNotFound):
		return "session_not_found"
	case errors.Is(err, service.ErrSessionClosed):
		return "session_closed"
	default:
		return "internal_error"
	}
}
