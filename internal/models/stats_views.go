package models

// Read-models composed by the stats query service. These are
// presentation shapes, not stored rows.

type DailyPoint struct {
	Date            string `json:"date"`
	DurationSeconds int64  `json:"duration_seconds"`
}

// RangeStats is the week/month/year/total read-model.
type RangeStats struct {
	Dimension string `json:"dimension"`
	StartDate string `json:"start_date,omitempty"`
	EndDate   string `json:"end_date,omitempty"`

	TotalDurationSeconds int64 `json:"total_duration_seconds"`
	ReadingDays          int   `json:"reading_days"`
	BooksRead            int   `json:"books_read"`
	BooksFinished        int   `json:"books_finished"`
	PagesRead            int   `json:"pages_read"`
	NotesCreated         int   `json:"notes_created"`
	HighlightsCreated    int   `json:"highlights_created"`

	CategoryDurations DurationMap  `json:"category_durations"`
	DailyBreakdown    []DailyPoint `json:"daily_breakdown,omitempty"`

	// Streak figures ride along on the total view.
	CurrentStreakDays int `json:"current_streak_days,omitempty"`
	LongestStreakDays int `json:"longest_streak_days,omitempty"`
}

type CalendarDay struct {
	Date            string `json:"date"`
	HasReading      bool   `json:"has_reading"`
	DurationSeconds int64  `json:"duration_seconds"`
}

// CalendarView is one entry per day of the requested month.
type CalendarView struct {
	Year  int           `json:"year"`
	Month int           `json:"month"`
	Days  []CalendarDay `json:"days"`
}
