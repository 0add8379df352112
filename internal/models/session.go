package models

import (
	"time"
)

// ReadingSession is one recorded reading interval for a user/book/device.
// A session is owned by the device that reported it for its whole
// lifetime; concurrent sessions from other devices are separate rows.
type ReadingSession struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	UserID   uint     `gorm:"not null;index:idx_session_user_active" json:"user_id"`
	BookID   uint     `gorm:"not null;index" json:"book_id"`
	BookKind BookKind `gorm:"type:varchar(20);not null" json:"book_kind"`
	DeviceID string   `gorm:"type:varchar(64);not null" json:"device_id"`

	StartTime time.Time  `gorm:"not null" json:"start_time"`
	EndTime   *time.Time `json:"end_time"`

	// Accumulated reading time excluding paused stretches. Kept current
	// by heartbeats while the session is open; recomputed from wall
	// clock minus pauses when the session closes.
	DurationSeconds int64 `gorm:"not null;default:0" json:"duration_seconds"`

	StartPosition string `gorm:"type:varchar(255)" json:"start_position"`
	EndPosition   string `gorm:"type:varchar(255)" json:"end_position"`

	IsActive           bool       `gorm:"default:true;index:idx_session_user_active" json:"is_active"`
	IsPaused           bool       `gorm:"default:false" json:"is_paused"`
	PausedAt           *time.Time `json:"paused_at"`
	TotalPausedSeconds int64      `gorm:"not null;default:0" json:"total_paused_seconds"`

	// Heartbeat bookkeeping. HeartbeatSeq is the highest client sequence
	// token applied so far; retried heartbeats with an already-applied
	// token are no-ops.
	LastHeartbeatAt time.Time `gorm:"index" json:"last_heartbeat_at"`
	HeartbeatSeq    uint64    `gorm:"not null;default:0" json:"-"`
}

func (s *ReadingSession) BookRef() BookRef {
	return BookRef{Kind: s.BookKind, ID: s.BookID}
}

type SessionResponse struct {
	ID                 string     `json:"id"`
	UserID             uint       `json:"user_id"`
	Book               BookRef    `json:"book"`
	DeviceID           string     `json:"device_id"`
	StartTime          time.Time  `json:"start_time"`
	EndTime            *time.Time `json:"end_time"`
	DurationSeconds    int64      `json:"duration_seconds"`
	StartPosition      string     `json:"start_position"`
	EndPosition        string     `json:"end_position"`
	IsActive           bool       `json:"is_active"`
	IsPaused           bool       `json:"is_paused"`
	TotalPausedSeconds int64      `json:"total_paused_seconds"`
}

func (s *ReadingSession) ToResponse() SessionResponse {
	return SessionResponse{
		ID:                 s.ID,
		UserID:             s.UserID,
		Book:               s.BookRef(),
		DeviceID:           s.DeviceID,
		StartTime:          s.StartTime,
		EndTime:            s.EndTime,
		DurationSeconds:    s.DurationSeconds,
		StartPosition:      s.StartPosition,
		EndPosition:        s.EndPosition,
		IsActive:           s.IsActive,
		IsPaused:           s.IsPaused,
		TotalPausedSeconds: s.TotalPausedSeconds,
	}
}
