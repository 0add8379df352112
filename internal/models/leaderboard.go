package models

import "time"

// WeeklyLeaderboardEntry is one user's computed standing for one week.
// Unique on (user_id, week_start). Rank is assigned by the weekly
// recomputation; a nil rank means the week has not been ranked yet.
type WeeklyLeaderboardEntry struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	UserID    uint   `gorm:"not null;uniqueIndex:idx_lb_user_week" json:"user_id"`
	WeekStart string `gorm:"type:varchar(10);not null;uniqueIndex:idx_lb_user_week;index" json:"week_start"`

	TotalDurationSeconds int64 `gorm:"not null;default:0" json:"total_duration_seconds"`
	Rank                 *int  `json:"rank"`
	RankChange           int   `gorm:"not null;default:0" json:"rank_change"`
	ReadingDays          int   `gorm:"not null;default:0" json:"reading_days"`
	BooksRead            int   `gorm:"not null;default:0" json:"books_read"`
	LikesReceived        int   `gorm:"not null;default:0" json:"likes_received"`
}

// LeaderboardLike records one like from one user to one ranked user for
// one week. The composite unique index is the AlreadyLiked guard.
type LeaderboardLike struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	LikerID   uint   `gorm:"not null;uniqueIndex:idx_like_once" json:"liker_id"`
	TargetID  uint   `gorm:"not null;uniqueIndex:idx_like_once" json:"target_id"`
	WeekStart string `gorm:"type:varchar(10);not null;uniqueIndex:idx_like_once" json:"week_start"`
}

type LeaderboardEntryResponse struct {
	UserID               uint   `json:"user_id"`
	Rank                 int    `json:"rank"`
	RankChange           int    `json:"rank_change"`
	TotalDurationSeconds int64  `json:"total_duration_seconds"`
	ReadingDays          int    `json:"reading_days"`
	BooksRead            int    `json:"books_read"`
	LikesReceived        int    `json:"likes_received"`
	IsMe                 bool   `json:"is_me"`
	WeekStart            string `json:"week_start"`
}

func (e *WeeklyLeaderboardEntry) ToResponse(viewerID uint) LeaderboardEntryResponse {
	rank := 0
	if e.Rank != nil {
		rank = *e.Rank
	}
	return LeaderboardEntryResponse{
		UserID:               e.UserID,
		Rank:                 rank,
		RankChange:           e.RankChange,
		TotalDurationSeconds: e.TotalDurationSeconds,
		ReadingDays:          e.ReadingDays,
		BooksRead:            e.BooksRead,
		LikesReceived:        e.LikesReceived,
		IsMe:                 e.UserID == viewerID,
		WeekStart:            e.WeekStart,
	}
}

// LeaderboardView is the composed read-model returned to clients.
type LeaderboardView struct {
	WeekStart         string                     `json:"week_start"`
	Scope             string                     `json:"scope"`
	MyRanking         *LeaderboardEntryResponse  `json:"my_ranking"`
	Entries           []LeaderboardEntryResponse `json:"entries"`
	TotalParticipants int                        `json:"total_participants"`
}
