package service

import (
	"sort"
	"time"

	"github.com/logan676/bookpost-sub002/internal/models"
	"github.com/logan676/bookpost-sub002/internal/repository"
	"gorm.io/gorm"
)

const (
	ScopeAll     = "all"
	ScopeFriends = "friends"
)

// LeaderboardService computes weekly standings from daily aggregates
// and serves the composed leaderboard read-model.
type LeaderboardService struct {
	entryRepo repository.LeaderboardRepositoryInterface
	statRepo  repository.DailyStatRepositoryInterface
	social    SocialGraph

	now func() time.Time
}

func NewLeaderboardService(
	entryRepo repository.LeaderboardRepositoryInterface,
	statRepo repository.DailyStatRepositoryInterface,
	social SocialGraph,
) *LeaderboardService {
	return &LeaderboardService{
		entryRepo: entryRepo,
		statRepo:  statRepo,
		social:    social,
		now:       time.Now,
	}
}

// CurrentWeekStart returns the Monday of the running week (UTC).
func (s *LeaderboardService) CurrentWeekStart() string {
	return weekStartOf(s.now(), time.UTC)
}

// ComputeWeek recomputes standings for one week. A nil userIDs means
// the global board. Deterministic and idempotent: the same daily stats
// always produce the same ranks, so re-running a week is safe.
// Ordering: duration desc, then reading days desc, then user ID asc,
// never insertion order.
func (s *LeaderboardService) ComputeWeek(weekStart string, userIDs []uint) error {
	weekStart, err := normalizeWeekStart(weekStart)
	if err != nil {
		return err
	}
	weekEnd := addDays(weekStart, 7)

	rows, err := s.statRepo.ListRangeAllUsers(weekStart, weekEnd, userIDs)
	if err != nil {
		return err
	}

	type accum struct {
		total       int64
		readingDays int
		books       map[string]struct{}
	}
	byUser := make(map[uint]*accum)
	for _, row := range rows {
		a := byUser[row.UserID]
		if a == nil {
			a = &accum{books: make(map[string]struct{})}
			byUser[row.UserID] = a
		}
		a.total += row.TotalDurationSeconds
		if row.TotalDurationSeconds > 0 {
			a.readingDays++
		}
		for book := range row.BookDurations {
			a.books[book] = struct{}{}
		}
	}

	entries := make([]models.WeeklyLeaderboardEntry, 0, len(byUser))
	for userID, a := range byUser {
		if a.total <= 0 {
			// Zero-duration users get no entry.
			continue
		}
		entries = append(entries, models.WeeklyLeaderboardEntry{
			UserID:               userID,
			WeekStart:            weekStart,
			TotalDurationSeconds: a.total,
			ReadingDays:          a.readingDays,
			BooksRead:            len(a.books),
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].TotalDurationSeconds != entries[j].TotalDurationSeconds {
			return entries[i].TotalDurationSeconds > entries[j].TotalDurationSeconds
		}
		if entries[i].ReadingDays != entries[j].ReadingDays {
			return entries[i].ReadingDays > entries[j].ReadingDays
		}
		return entries[i].UserID < entries[j].UserID
	})

	priorRanks, err := s.priorWeekRanks(addDays(weekStart, -7))
	if err != nil {
		return err
	}

	for i := range entries {
		rank := i + 1
		entries[i].Rank = &rank
		if prior, ok := priorRanks[entries[i].UserID]; ok {
			// Positive = moved up.
			entries[i].RankChange = prior - rank
		}
	}

	scope := ScopeAll
	if userIDs != nil {
		scope = ScopeFriends
	}
	return s.entryRepo.ReplaceWeekRanks(weekStart, scope, entries)
}

func (s *LeaderboardService) priorWeekRanks(weekStart string) (map[uint]int, error) {
	prior, err := s.entryRepo.ListWeek(weekStart, nil, 0)
	if err != nil {
		return nil, err
	}
	ranks := make(map[uint]int, len(prior))
	for _, e := range prior {
		if e.Rank != nil {
			ranks[e.UserID] = *e.Rank
		}
	}
	return ranks, nil
}

// GetLeaderboard serves the week's board. The friends scope is a
// read-time projection: entries are filtered to the viewer's followed
// set (plus the viewer) while rank and rank change stay the stored
// values, so a ranked user referenced by a like never shifts.
func (s *LeaderboardService) GetLeaderboard(viewerID uint, weekStart, scope string, limit int) (*models.LeaderboardView, error) {
	if weekStart == "" {
		weekStart = s.CurrentWeekStart()
	}
	weekStart, err := normalizeWeekStart(weekStart)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	var userIDs []uint
	switch scope {
	case ScopeFriends:
		following, err := s.social.GetFollowing(viewerID)
		if err != nil {
			return nil, err
		}
		userIDs = append(following, viewerID)
	case ScopeAll, "":
		scope = ScopeAll
	default:
		return nil, ErrInvalidDimension
	}

	entries, err := s.entryRepo.ListWeek(weekStart, userIDs, limit)
	if err != nil {
		return nil, err
	}
	total, err := s.entryRepo.CountWeek(weekStart, userIDs)
	if err != nil {
		return nil, err
	}

	view := &models.LeaderboardView{
		WeekStart:         weekStart,
		Scope:             scope,
		Entries:           make([]models.LeaderboardEntryResponse, 0, len(entries)),
		TotalParticipants: int(total),
	}
	for i := range entries {
		view.Entries = append(view.Entries, entries[i].ToResponse(viewerID))
	}

	if mine, err := s.entryRepo.FindEntry(viewerID, weekStart); err == nil {
		resp := mine.ToResponse(viewerID)
		view.MyRanking = &resp
	} else if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	return view, nil
}

// LikeUser records one like per (liker, target, week).
func (s *LeaderboardService) LikeUser(likerID, targetID uint, weekStart string) error {
	if likerID == targetID {
		return ErrSelfLike
	}
	if weekStart == "" {
		weekStart = s.CurrentWeekStart()
	}
	weekStart, err := normalizeWeekStart(weekStart)
	if err != nil {
		return err
	}

	liked, entryFound, err := s.entryRepo.ApplyLike(&models.LeaderboardLike{
		LikerID:   likerID,
		TargetID:  targetID,
		WeekStart: weekStart,
	})
	if err != nil {
		return err
	}
	if !entryFound {
		return ErrNotFound
	}
	if !liked {
		return ErrAlreadyLiked
	}
	return nil
}
