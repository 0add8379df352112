package service

import (
	"errors"
	"testing"
	"time"
)

type leaderboardFixture struct {
	svc       *LeaderboardService
	entryRepo *MockLeaderboardRepository
	statRepo  *MockDailyStatRepository
	social    *stubSocialGraph
}

func newLeaderboardFixture() *leaderboardFixture {
	entryRepo := NewMockLeaderboardRepository()
	statRepo := NewMockDailyStatRepository()
	social := &stubSocialGraph{following: map[uint][]uint{}}
	svc := NewLeaderboardService(entryRepo, statRepo, social)
	// A Wednesday; the week runs Monday 2024-03-04 through Sunday.
	svc.now = func() time.Time {
		return time.Date(2024, 3, 6, 12, 0, 0, 0, time.UTC)
	}
	return &leaderboardFixture{svc: svc, entryRepo: entryRepo, statRepo: statRepo, social: social}
}

func (f *leaderboardFixture) seedDay(userID uint, date string, seconds int64, book string) {
	row := f.statRepo.row(userID, date)
	row.TotalDurationSeconds += seconds
	row.BookDurations[book] += seconds
}

func TestComputeWeekOrdering(t *testing.T) {
	f := newLeaderboardFixture()
	week := "2024-03-04"

	// User 1: 2h over two days. User 2: 3h in one day.
	// Users 3 and 4: identical 1h totals, but 3 spread over two days.
	f.seedDay(1, "2024-03-04", 3600, "ebook:1")
	f.seedDay(1, "2024-03-05", 3600, "ebook:2")
	f.seedDay(2, "2024-03-04", 10800, "ebook:1")
	f.seedDay(3, "2024-03-04", 1800, "ebook:1")
	f.seedDay(3, "2024-03-05", 1800, "ebook:1")
	f.seedDay(4, "2024-03-04", 3600, "ebook:1")
	// User 5 has a row but no reading time: no entry.
	f.statRepo.row(5, "2024-03-04")

	if err := f.svc.ComputeWeek(week, nil); err != nil {
		t.Fatalf("ComputeWeek: %v", err)
	}

	entries, err := f.entryRepo.ListWeek(week, nil, 0)
	if err != nil {
		t.Fatalf("ListWeek: %v", err)
	}
	if len(entries) != 4 {
		t.Fatalf("entries = %d, want 4 (zero-duration users excluded)", len(entries))
	}

	wantOrder := []uint{2, 1, 3, 4}
	for i, want := range wantOrder {
		if entries[i].UserID != want {
			t.Errorf("rank %d = user %d, want user %d", i+1, entries[i].UserID, want)
		}
		if entries[i].Rank == nil || *entries[i].Rank != i+1 {
			t.Errorf("user %d stored rank = %v, want %d", entries[i].UserID, entries[i].Rank, i+1)
		}
	}

	if entries[1].BooksRead != 2 {
		t.Errorf("user 1 books = %d, want 2", entries[1].BooksRead)
	}
	if entries[2].ReadingDays != 2 {
		t.Errorf("user 3 reading days = %d, want 2", entries[2].ReadingDays)
	}
}

func TestComputeWeekIsDeterministic(t *testing.T) {
	f := newLeaderboardFixture()
	week := "2024-03-04"
	f.seedDay(1, "2024-03-04", 3600, "ebook:1")
	f.seedDay(2, "2024-03-05", 7200, "ebook:1")

	if err := f.svc.ComputeWeek(week, nil); err != nil {
		t.Fatalf("first compute: %v", err)
	}
	first, _ := f.entryRepo.ListWeek(week, nil, 0)

	if err := f.svc.ComputeWeek(week, nil); err != nil {
		t.Fatalf("second compute: %v", err)
	}
	second, _ := f.entryRepo.ListWeek(week, nil, 0)

	if len(first) != len(second) {
		t.Fatalf("entry count changed across recomputes: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].UserID != second[i].UserID || *first[i].Rank != *second[i].Rank {
			t.Errorf("rank %d changed: %d/%d vs %d/%d",
				i+1, first[i].UserID, *first[i].Rank, second[i].UserID, *second[i].Rank)
		}
	}
}

func TestComputeWeekRankChange(t *testing.T) {
	f := newLeaderboardFixture()
	prior := "2024-02-26"
	week := "2024-03-04"

	// Prior week: user 1 first, user 2 second.
	f.seedDay(1, "2024-02-26", 7200, "ebook:1")
	f.seedDay(2, "2024-02-27", 3600, "ebook:1")
	if err := f.svc.ComputeWeek(prior, nil); err != nil {
		t.Fatalf("prior week: %v", err)
	}

	// This week they swap, and user 3 is new.
	f.seedDay(1, "2024-03-04", 3600, "ebook:1")
	f.seedDay(2, "2024-03-05", 7200, "ebook:1")
	f.seedDay(3, "2024-03-06", 1800, "ebook:1")
	if err := f.svc.ComputeWeek(week, nil); err != nil {
		t.Fatalf("current week: %v", err)
	}

	e2, _ := f.entryRepo.FindEntry(2, week)
	if e2.RankChange != 1 {
		t.Errorf("user 2 rank change = %d, want +1", e2.RankChange)
	}
	e1, _ := f.entryRepo.FindEntry(1, week)
	if e1.RankChange != -1 {
		t.Errorf("user 1 rank change = %d, want -1", e1.RankChange)
	}
	e3, _ := f.entryRepo.FindEntry(3, week)
	if e3.RankChange != 0 {
		t.Errorf("new user rank change = %d, want 0", e3.RankChange)
	}
}

func TestGetLeaderboardFriendsScope(t *testing.T) {
	f := newLeaderboardFixture()
	week := "2024-03-04"
	f.seedDay(1, "2024-03-04", 3600, "ebook:1")
	f.seedDay(2, "2024-03-04", 7200, "ebook:1")
	f.seedDay(3, "2024-03-04", 10800, "ebook:1")
	if err := f.svc.ComputeWeek(week, nil); err != nil {
		t.Fatalf("ComputeWeek: %v", err)
	}

	// Viewer 1 follows only user 3.
	f.social.following[1] = []uint{3}

	view, err := f.svc.GetLeaderboard(1, week, ScopeFriends, 50)
	if err != nil {
		t.Fatalf("GetLeaderboard: %v", err)
	}
	if len(view.Entries) != 2 {
		t.Fatalf("friends entries = %d, want 2 (followed user plus viewer)", len(view.Entries))
	}
	// Global ranks survive the projection: user 3 keeps rank 1 and the
	// viewer keeps rank 3 even though user 2 is filtered out.
	if view.Entries[0].UserID != 3 || view.Entries[0].Rank != 1 {
		t.Errorf("top friend = user %d rank %d, want user 3 rank 1",
			view.Entries[0].UserID, view.Entries[0].Rank)
	}
	if view.Entries[1].UserID != 1 || view.Entries[1].Rank != 3 {
		t.Errorf("viewer = user %d rank %d, want user 1 rank 3",
			view.Entries[1].UserID, view.Entries[1].Rank)
	}
	if view.MyRanking == nil || view.MyRanking.Rank != 3 {
		t.Errorf("my ranking = %+v, want rank 3", view.MyRanking)
	}
}

func TestGetLeaderboardViewerUnranked(t *testing.T) {
	f := newLeaderboardFixture()
	week := "2024-03-04"
	f.seedDay(2, "2024-03-04", 3600, "ebook:1")
	if err := f.svc.ComputeWeek(week, nil); err != nil {
		t.Fatalf("ComputeWeek: %v", err)
	}

	view, err := f.svc.GetLeaderboard(1, week, ScopeAll, 50)
	if err != nil {
		t.Fatalf("GetLeaderboard: %v", err)
	}
	if view.MyRanking != nil {
		t.Errorf("my ranking = %+v, want nil for a user with no entry", view.MyRanking)
	}
	if view.TotalParticipants != 1 {
		t.Errorf("participants = %d, want 1", view.TotalParticipants)
	}
}

func TestLikeUser(t *testing.T) {
	f := newLeaderboardFixture()
	week := "2024-03-04"
	f.seedDay(2, "2024-03-04", 3600, "ebook:1")
	if err := f.svc.ComputeWeek(week, nil); err != nil {
		t.Fatalf("ComputeWeek: %v", err)
	}

	if err := f.svc.LikeUser(1, 1, week); !errors.Is(err, ErrSelfLike) {
		t.Errorf("self like: got %v, want ErrSelfLike", err)
	}
	if err := f.svc.LikeUser(1, 2, week); err != nil {
		t.Fatalf("first like: %v", err)
	}
	if err := f.svc.LikeUser(1, 2, week); !errors.Is(err, ErrAlreadyLiked) {
		t.Errorf("duplicate like: got %v, want ErrAlreadyLiked", err)
	}
	if err := f.svc.LikeUser(1, 99, week); !errors.Is(err, ErrNotFound) {
		t.Errorf("like on unranked user: got %v, want ErrNotFound", err)
	}

	entry, _ := f.entryRepo.FindEntry(2, week)
	if entry.LikesReceived != 1 {
		t.Errorf("likes = %d, want 1", entry.LikesReceived)
	}
}

func TestLikesSurviveRecompute(t *testing.T) {
	f := newLeaderboardFixture()
	week := "2024-03-04"
	f.seedDay(2, "2024-03-04", 3600, "ebook:1")
	if err := f.svc.ComputeWeek(week, nil); err != nil {
		t.Fatalf("ComputeWeek: %v", err)
	}
	if err := f.svc.LikeUser(1, 2, week); err != nil {
		t.Fatalf("like: %v", err)
	}

	if err := f.svc.ComputeWeek(week, nil); err != nil {
		t.Fatalf("recompute: %v", err)
	}
	entry, _ := f.entryRepo.FindEntry(2, week)
	if entry.LikesReceived != 1 {
		t.Errorf("likes after recompute = %d, want 1", entry.LikesReceived)
	}
}

func TestWeekStartNormalization(t *testing.T) {
	f := newLeaderboardFixture()
	f.seedDay(1, "2024-03-06", 3600, "ebook:1")

	// Asking for a mid-week date snaps to that week's Monday.
	if err := f.svc.ComputeWeek("2024-03-06", nil); err != nil {
		t.Fatalf("ComputeWeek: %v", err)
	}
	if _, err := f.entryRepo.FindEntry(1, "2024-03-04"); err != nil {
		t.Errorf("entry not stored under the Monday week start: %v", err)
	}

	if got := f.svc.CurrentWeekStart(); got != "2024-03-04" {
		t.Errorf("CurrentWeekStart = %s, want 2024-03-04", got)
	}
}
