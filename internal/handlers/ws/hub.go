package ws

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
)

// DeviceConnection wraps one device's live reading channel.
type DeviceConnection struct {
	Conn       *websocket.Conn
	UserID     uint
	DeviceID   string
	LastPong   time.Time
	PingTicker *time.Ticker
	CloseChan  chan struct{}

	// Sessions this connection has touched; used to pause them when
	// the device drops without ending cleanly.
	sessionsMux sync.Mutex
	sessions    map[string]struct{}
}

func (dc *DeviceConnection) TrackSession(sessionID string) {
	dc.sessionsMux.Lock()
	dc.sessions[sessionID] = struct{}{}
	dc.sessionsMux.Unlock()
}

func (dc *DeviceConnection) Tracks(sessionID string) bool {
	dc.sessionsMux.Lock()
	defer dc.sessionsMux.Unlock()
	_, ok := dc.sessions[sessionID]
	return ok
}

func (dc *DeviceConnection) ForgetSession(sessionID string) {
	dc.sessionsMux.Lock()
	delete(dc.sessions, sessionID)
	dc.sessionsMux.Unlock()
}

func (dc *DeviceConnection) TrackedSessions() []string {
	dc.sessionsMux.Lock()
	defer dc.sessionsMux.Unlock()
	ids := make([]string, 0, len(dc.sessions))
	for id := range dc.sessions {
		ids = append(ids, id)
	}
	return ids
}

// Hub tracks the live device connections. One user may hold several
// connections from different devices at once; each owns its sessions.
type Hub struct {
	connections  map[string]*DeviceConnection
	connMux      sync.RWMutex
	pingInterval time.Duration
	pongTimeout  time.Duration
}

func NewHub() *Hub {
	return &Hub{
		connections:  make(map[string]*DeviceConnection),
		pingInterval: 30 * time.Second,
		pongTimeout:  90 * time.Second,
	}
}

func connKey(userID uint, deviceID string) string {
	return fmt.Sprintf("%d:%s", userID, deviceID)
}

// Register adds a device connection with health monitoring.
func (h *Hub) Register(userID uint, deviceID string, conn *websocket.Conn) *DeviceConnection {
	dc := &DeviceConnection{
		Conn:       conn,
		UserID:     userID,
		DeviceID:   deviceID,
		LastPong:   time.Now(),
		PingTicker: time.NewTicker(h.pingInterval),
		CloseChan:  make(chan struct{}),
		sessions:   make(map[string]struct{}),
	}

	conn.SetPongHandler(func(appData string) error {
		h.connMux.Lock()
		if c, exists := h.connections[connKey(userID, deviceID)]; exists {
			c.LastPong = time.Now()
		}
		h.connMux.Unlock()
		conn.SetReadDeadline(time.Now().Add(h.pongTimeout))
		return nil
	})
	conn.SetReadDeadline(time.Now().Add(h.pongTimeout))

	h.connMux.Lock()
	h.connections[connKey(userID, deviceID)] = dc
	total := len(h.connections)
	h.connMux.Unlock()

	go h.pingRoutine(dc)

	log.Printf("Device %s of user %d connected (total: %d)", deviceID, userID, total)
	return dc
}

// Unregister removes a device connection.
func (h *Hub) Unregister(userID uint, deviceID string) {
	h.connMux.Lock()
	key := connKey(userID, deviceID)
	if dc, exists := h.connections[key]; exists {
		dc.PingTicker.Stop()
		close(dc.CloseChan)
		delete(h.connections, key)
	}
	total := len(h.connections)
	h.connMux.Unlock()
	log.Printf("Device %s of user %d disconnected (total: %d)", deviceID, userID, total)
}

// IsDeviceOnline reports whether a device holds a live connection.
func (h *Hub) IsDeviceOnline(userID uint, deviceID string) bool {
	h.connMux.RLock()
	defer h.connMux.RUnlock()
	_, exists := h.connections[connKey(userID, deviceID)]
	return exists
}

func (h *Hub) ConnectionCount() int {
	h.connMux.RLock()
	defer h.connMux.RUnlock()
	return len(h.connections)
}

func (h *Hub) pingRoutine(dc *DeviceConnection) {
	for {
		select {
		case <-dc.CloseChan:
			return
		case <-dc.PingTicker.C:
			if err := dc.Conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(10*time.Second)); err != nil {
				return
			}
		}
	}
}
