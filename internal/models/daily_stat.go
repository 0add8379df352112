package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// DurationMap is a JSONB column mapping an opaque key (book ref or
// category name) to accumulated seconds.
type DurationMap map[string]int64

func (m DurationMap) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

func (m *DurationMap) Scan(value interface{}) error {
	if value == nil {
		*m = DurationMap{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return errors.New("unsupported type for DurationMap")
	}
	if len(data) == 0 {
		*m = DurationMap{}
		return nil
	}
	return json.Unmarshal(data, m)
}

// DateLayout is the canonical format for user-local calendar dates.
// Dates are stored as strings so that "the user's March 3rd" never
// shifts when the database connection timezone changes.
const DateLayout = "2006-01-02"

// DailyReadingStat is the per-user-per-day rollup of all reading
// activity. Unique on (user_id, stat_date); only the aggregator writes
// it, always via additive upsert.
type DailyReadingStat struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	UserID   uint   `gorm:"not null;uniqueIndex:idx_daily_user_date" json:"user_id"`
	StatDate string `gorm:"type:varchar(10);not null;uniqueIndex:idx_daily_user_date;index" json:"stat_date"`

	TotalDurationSeconds int64 `gorm:"not null;default:0" json:"total_duration_seconds"`
	BooksRead            int   `gorm:"not null;default:0" json:"books_read"`
	BooksFinished        int   `gorm:"not null;default:0" json:"books_finished"`
	PagesRead            int   `gorm:"not null;default:0" json:"pages_read"`
	NotesCreated         int   `gorm:"not null;default:0" json:"notes_created"`
	HighlightsCreated    int   `gorm:"not null;default:0" json:"highlights_created"`

	CategoryDurations DurationMap `gorm:"type:jsonb" json:"category_durations"`
	BookDurations     DurationMap `gorm:"type:jsonb" json:"book_durations"`
}

// ProcessedSession is the aggregation ledger: one row per session that
// has already been folded into daily stats. The primary key on
// SessionID makes ApplySessionClose retries no-ops.
type ProcessedSession struct {
	SessionID   string    `gorm:"type:varchar(36);primaryKey" json:"session_id"`
	UserID      uint      `gorm:"not null;index" json:"user_id"`
	ProcessedAt time.Time `json:"processed_at"`
}
