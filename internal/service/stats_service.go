package service

import (
	"time"

	"github.com/logan676/bookpost-sub002/internal/models"
	"github.com/logan676/bookpost-sub002/internal/repository"
)

const (
	DimensionWeek     = "week"
	DimensionMonth    = "month"
	DimensionYear     = "year"
	DimensionTotal    = "total"
	DimensionCalendar = "calendar"
)

// StatsService is the read side: it composes week/month/year/total and
// calendar views from daily aggregates for the presentation layers.
type StatsService struct {
	statRepo    repository.DailyStatRepositoryInterface
	profileRepo repository.ProfileRepositoryInterface

	now func() time.Time
}

func NewStatsService(statRepo repository.DailyStatRepositoryInterface, profileRepo repository.ProfileRepositoryInterface) *StatsService {
	return &StatsService{statRepo: statRepo, profileRepo: profileRepo, now: time.Now}
}

type StatsQuery struct {
	Dimension string
	Date      string // anchor date for the week view; empty = today
	Year      int    // for year/month/calendar; 0 = current
	Month     int    // for month/calendar; 0 = current
}

// GetStats dispatches on the requested dimension. The returned value
// is either *models.RangeStats or *models.CalendarView.
func (s *StatsService) GetStats(userID uint, q StatsQuery) (interface{}, error) {
	profile, err := s.profileRepo.GetOrCreate(userID)
	if err != nil {
		return nil, err
	}
	loc := profile.Location()
	now := s.now().In(loc)

	year := q.Year
	if year == 0 {
		year = now.Year()
	}
	month := q.Month
	if month == 0 {
		month = int(now.Month())
	}
	if month < 1 || month > 12 {
		return nil, ErrInvalidDimension
	}

	switch q.Dimension {
	case DimensionWeek:
		// An explicit anchor is already a user-local calendar date;
		// snapping it through loc would shift it across midnight for
		// negative UTC offsets.
		from := weekStartOf(now, loc)
		if q.Date != "" {
			f, err := normalizeWeekStart(q.Date)
			if err != nil {
				return nil, ErrInvalidDimension
			}
			from = f
		}
		return s.rangeStats(userID, DimensionWeek, from, addDays(from, 7), true)

	case DimensionMonth:
		from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC).Format(models.DateLayout)
		to := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0).Format(models.DateLayout)
		return s.rangeStats(userID, DimensionMonth, from, to, false)

	case DimensionYear:
		from := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC).Format(models.DateLayout)
		to := time.Date(year+1, 1, 1, 0, 0, 0, 0, time.UTC).Format(models.DateLayout)
		return s.rangeStats(userID, DimensionYear, from, to, false)

	case DimensionTotal:
		stats, err := s.rangeStats(userID, DimensionTotal, "0001-01-01", "9999-12-31", false)
		if err != nil {
			return nil, err
		}
		stats.StartDate, stats.EndDate = "", ""
		stats.CurrentStreakDays = profile.CurrentStreakDays
		stats.LongestStreakDays = profile.LongestStreakDays
		return stats, nil

	case DimensionCalendar:
		return s.calendar(userID, year, month)
	}
	return nil, ErrInvalidDimension
}

// rangeStats folds daily rows in [from, to) into one read-model.
func (s *StatsService) rangeStats(userID uint, dimension, from, to string, breakdown bool) (*models.RangeStats, error) {
	rows, err := s.statRepo.ListRange(userID, from, to)
	if err != nil {
		return nil, err
	}

	out := &models.RangeStats{
		Dimension:         dimension,
		StartDate:         from,
		EndDate:           to,
		CategoryDurations: models.DurationMap{},
	}
	books := make(map[string]struct{})
	for _, row := range rows {
		out.TotalDurationSeconds += row.TotalDurationSeconds
		if row.TotalDurationSeconds > 0 {
			out.ReadingDays++
		}
		out.BooksFinished += row.BooksFinished
		out.PagesRead += row.PagesRead
		out.NotesCreated += row.NotesCreated
		out.HighlightsCreated += row.HighlightsCreated
		for category, seconds := range row.CategoryDurations {
			out.CategoryDurations[category] += seconds
		}
		for book := range row.BookDurations {
			books[book] = struct{}{}
		}
	}
	out.BooksRead = len(books)

	if breakdown {
		byDate := make(map[string]int64, len(rows))
		for _, row := range rows {
			byDate[row.StatDate] = row.TotalDurationSeconds
		}
		for d := from; d < to; d = addDays(d, 1) {
			out.DailyBreakdown = append(out.DailyBreakdown, models.DailyPoint{
				Date:            d,
				DurationSeconds: byDate[d],
			})
		}
	}
	return out, nil
}

// calendar returns one entry per day of the month, hasReading set
// exactly for days with nonzero duration.
func (s *StatsService) calendar(userID uint, year, month int) (*models.CalendarView, error) {
	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	from := first.Format(models.DateLayout)
	to := first.AddDate(0, 1, 0).Format(models.DateLayout)

	rows, err := s.statRepo.ListRange(userID, from, to)
	if err != nil {
		return nil, err
	}
	byDate := make(map[string]int64, len(rows))
	for _, row := range rows {
		byDate[row.StatDate] = row.TotalDurationSeconds
	}

	view := &models.CalendarView{Year: year, Month: month}
	for d := from; d < to; d = addDays(d, 1) {
		seconds := byDate[d]
		view.Days = append(view.Days, models.CalendarDay{
			Date:            d,
			HasReading:      seconds > 0,
			DurationSeconds: seconds,
		})
	}
	return view, nil
}

// Profile exposes the engine-side profile (timezone, cached streaks).
func (s *StatsService) Profile(userID uint) (*models.UserProfile, error) {
	return s.profileRepo.GetOrCreate(userID)
}

func (s *StatsService) SetTimezone(userID uint, timezone string) error {
	if timezone != "" {
		if _, err := time.LoadLocation(timezone); err != nil {
			return ErrInvalidTimezone
		}
	}
	return s.profileRepo.SetTimezone(userID, timezone)
}
