package service

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/logan676/bookpost-sub002/internal/models"
	"github.com/logan676/bookpost-sub002/internal/repository"
	"gorm.io/gorm"
)

// In-memory mocks for the repository interfaces. Each mock emulates
// the conditional-update and unique-constraint semantics of the real
// SQL: zero-rows outcomes surface as false, duplicate inserts collapse
// instead of erroring.

// MockSessionRepository is a mock implementation of SessionRepositoryInterface
type MockSessionRepository struct {
	mu       sync.Mutex
	sessions map[string]*models.ReadingSession

	// isProcessed stands in for the processed_sessions join; tests
	// point it at the stat mock's ledger.
	isProcessed func(sessionID string) bool
}

func NewMockSessionRepository() *MockSessionRepository {
	return &MockSessionRepository{sessions: make(map[string]*models.ReadingSession)}
}

func (m *MockSessionRepository) Create(session *models.ReadingSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *session
	m.sessions[session.ID] = &copied
	return nil
}

func (m *MockSessionRepository) FindByID(id string) (*models.ReadingSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok {
		copied := *s
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *MockSessionRepository) ListActiveByUser(userID uint) ([]models.ReadingSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []models.ReadingSession
	for _, s := range m.sessions {
		if s.UserID == userID && s.IsActive {
			result = append(result, *s)
		}
	}
	return result, nil
}

func (m *MockSessionRepository) ApplyHeartbeat(id string, userID uint, seq uint64, position string, deltaSeconds int64, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok || s.UserID != userID || !s.IsActive || s.IsPaused || seq <= s.HeartbeatSeq {
		return false, nil
	}
	s.DurationSeconds += deltaSeconds
	s.EndPosition = position
	s.HeartbeatSeq = seq
	s.LastHeartbeatAt = at
	return true, nil
}

func (m *MockSessionRepository) SetPaused(id string, userID uint, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok || s.UserID != userID || !s.IsActive || s.IsPaused {
		return false, nil
	}
	s.IsPaused = true
	s.PausedAt = &at
	return true, nil
}

func (m *MockSessionRepository) SetResumed(id string, userID uint, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok || s.UserID != userID || !s.IsActive || !s.IsPaused {
		return false, nil
	}
	s.TotalPausedSeconds += int64(at.Sub(*s.PausedAt).Seconds())
	s.IsPaused = false
	s.PausedAt = nil
	return true, nil
}

func (m *MockSessionRepository) Close(id string, userID uint, endTime time.Time, endPosition string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok || s.UserID != userID || !s.IsActive {
		return false, nil
	}
	paused := s.TotalPausedSeconds
	if s.IsPaused && s.PausedAt != nil {
		paused += int64(endTime.Sub(*s.PausedAt).Seconds())
	}
	duration := int64(endTime.Sub(s.StartTime).Seconds()) - paused
	if duration < 0 {
		duration = 0
	}
	s.EndTime = &endTime
	s.DurationSeconds = duration
	if endPosition != "" {
		s.EndPosition = endPosition
	}
	s.IsActive = false
	s.IsPaused = false
	s.PausedAt = nil
	return true, nil
}

func (m *MockSessionRepository) FindStale(cutoff time.Time, limit int) ([]models.ReadingSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []models.ReadingSession
	for _, s := range m.sessions {
		if len(result) >= limit {
			break
		}
		last := s.LastHeartbeatAt
		if s.StartTime.After(last) {
			last = s.StartTime
		}
		if s.IsActive && last.Before(cutoff) {
			result = append(result, *s)
		}
	}
	return result, nil
}

func (m *MockSessionRepository) FindClosedUnaggregated(since time.Time, limit int) ([]models.ReadingSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []models.ReadingSession
	for _, s := range m.sessions {
		if len(result) >= limit {
			break
		}
		if s.IsActive || s.EndTime == nil || s.EndTime.Before(since) {
			continue
		}
		if m.isProcessed != nil && m.isProcessed(s.ID) {
			continue
		}
		result = append(result, *s)
	}
	return result, nil
}

// MockDailyStatRepository is a mock implementation of DailyStatRepositoryInterface
type MockDailyStatRepository struct {
	mu        sync.Mutex
	stats     map[string]*models.DailyReadingStat // key userID|date
	processed map[string]bool
}

func NewMockDailyStatRepository() *MockDailyStatRepository {
	return &MockDailyStatRepository{
		stats:     make(map[string]*models.DailyReadingStat),
		processed: make(map[string]bool),
	}
}

func statKey(userID uint, date string) string {
	return fmt.Sprintf("%d|%s", userID, date)
}

func (m *MockDailyStatRepository) row(userID uint, date string) *models.DailyReadingStat {
	key := statKey(userID, date)
	if s, ok := m.stats[key]; ok {
		return s
	}
	s := &models.DailyReadingStat{
		UserID:            userID,
		StatDate:          date,
		CategoryDurations: models.DurationMap{},
		BookDurations:     models.DurationMap{},
	}
	m.stats[key] = s
	return s
}

// Processed reports whether a session already has a ledger row; the
// session mock borrows it to emulate the ledger anti-join.
func (m *MockDailyStatRepository) Processed(sessionID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.processed[sessionID]
}

func (m *MockDailyStatRepository) ApplySessionAggregation(sessionID string, userID uint, bookKey, category string, deltas []repository.SessionDayDelta) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.processed[sessionID] {
		return false, nil
	}
	m.processed[sessionID] = true
	for _, d := range deltas {
		if d.Seconds <= 0 {
			continue
		}
		s := m.row(userID, d.Date)
		s.TotalDurationSeconds += d.Seconds
		s.BookDurations[bookKey] += d.Seconds
		s.CategoryDurations[category] += d.Seconds
		s.BooksRead = len(s.BookDurations)
	}
	return true, nil
}

func (m *MockDailyStatRepository) ApplyEngagementDelta(userID uint, date string, pages, notes, highlights int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.row(userID, date)
	s.PagesRead += pages
	s.NotesCreated += notes
	s.HighlightsCreated += highlights
	return nil
}

func (m *MockDailyStatRepository) ApplyBookFinished(userID uint, date string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.row(userID, date).BooksFinished++
	return nil
}

func (m *MockDailyStatRepository) FindByUserDate(userID uint, date string) (*models.DailyReadingStat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.stats[statKey(userID, date)]; ok {
		return s, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *MockDailyStatRepository) ListRange(userID uint, from, to string) ([]models.DailyReadingStat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []models.DailyReadingStat
	for _, s := range m.stats {
		if s.UserID == userID && s.StatDate >= from && s.StatDate < to {
			result = append(result, *s)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].StatDate < result[j].StatDate })
	return result, nil
}

func (m *MockDailyStatRepository) ListRangeAllUsers(from, to string, userIDs []uint) ([]models.DailyReadingStat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	allowed := map[uint]bool{}
	for _, id := range userIDs {
		allowed[id] = true
	}
	var result []models.DailyReadingStat
	for _, s := range m.stats {
		if s.StatDate < from || s.StatDate >= to {
			continue
		}
		if userIDs != nil && !allowed[s.UserID] {
			continue
		}
		result = append(result, *s)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].UserID != result[j].UserID {
			return result[i].UserID < result[j].UserID
		}
		return result[i].StatDate < result[j].StatDate
	})
	return result, nil
}

func (m *MockDailyStatRepository) ListActiveDatesDesc(userID uint, since string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var dates []string
	for _, s := range m.stats {
		if s.UserID == userID && s.StatDate >= since && s.TotalDurationSeconds > 0 {
			dates = append(dates, s.StatDate)
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))
	return dates, nil
}

func (m *MockDailyStatRepository) SumDuration(userID uint) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var total int64
	for _, s := range m.stats {
		if s.UserID == userID {
			total += s.TotalDurationSeconds
		}
	}
	return total, nil
}

func (m *MockDailyStatRepository) SumBooksFinished(userID uint) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var total int64
	for _, s := range m.stats {
		if s.UserID == userID {
			total += int64(s.BooksFinished)
		}
	}
	return total, nil
}

func (m *MockDailyStatRepository) ListUsersActiveSince(since string) ([]uint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := map[uint]bool{}
	var userIDs []uint
	for _, s := range m.stats {
		if s.StatDate >= since && !seen[s.UserID] {
			seen[s.UserID] = true
			userIDs = append(userIDs, s.UserID)
		}
	}
	sort.Slice(userIDs, func(i, j int) bool { return userIDs[i] < userIDs[j] })
	return userIDs, nil
}

// MockLeaderboardRepository is a mock implementation of LeaderboardRepositoryInterface
type MockLeaderboardRepository struct {
	mu      sync.Mutex
	entries map[string]*models.WeeklyLeaderboardEntry // key userID|weekStart
	likes   map[string]bool                           // key liker|target|weekStart
}

func NewMockLeaderboardRepository() *MockLeaderboardRepository {
	return &MockLeaderboardRepository{
		entries: make(map[string]*models.WeeklyLeaderboardEntry),
		likes:   make(map[string]bool),
	}
}

func entryKey(userID uint, weekStart string) string {
	return fmt.Sprintf("%d|%s", userID, weekStart)
}

func (m *MockLeaderboardRepository) ReplaceWeekRanks(weekStart, scope string, entries []models.WeeklyLeaderboardEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range entries {
		key := entryKey(e.UserID, weekStart)
		if existing, ok := m.entries[key]; ok {
			// Likes survive a recompute.
			e.LikesReceived = existing.LikesReceived
		}
		copied := e
		m.entries[key] = &copied
	}
	return nil
}

func (m *MockLeaderboardRepository) FindEntry(userID uint, weekStart string) (*models.WeeklyLeaderboardEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.entries[entryKey(userID, weekStart)]; ok {
		copied := *e
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *MockLeaderboardRepository) ListWeek(weekStart string, userIDs []uint, limit int) ([]models.WeeklyLeaderboardEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	allowed := map[uint]bool{}
	for _, id := range userIDs {
		allowed[id] = true
	}
	var result []models.WeeklyLeaderboardEntry
	for _, e := range m.entries {
		if e.WeekStart != weekStart {
			continue
		}
		if userIDs != nil && !allowed[e.UserID] {
			continue
		}
		result = append(result, *e)
	}
	sort.Slice(result, func(i, j int) bool {
		ri, rj := result[i].Rank, result[j].Rank
		if ri == nil {
			return false
		}
		if rj == nil {
			return true
		}
		return *ri < *rj
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (m *MockLeaderboardRepository) CountWeek(weekStart string, userIDs []uint) (int64, error) {
	entries, _ := m.ListWeek(weekStart, userIDs, 0)
	return int64(len(entries)), nil
}

func (m *MockLeaderboardRepository) ApplyLike(like *models.LeaderboardLike) (bool, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.entries[entryKey(like.TargetID, like.WeekStart)]
	if !ok {
		return false, false, nil
	}
	key := fmt.Sprintf("%d|%d|%s", like.LikerID, like.TargetID, like.WeekStart)
	if m.likes[key] {
		return false, true, nil
	}
	m.likes[key] = true
	entry.LikesReceived++
	return true, true, nil
}

// MockMilestoneRepository is a mock implementation of MilestoneRepositoryInterface
type MockMilestoneRepository struct {
	mu         sync.Mutex
	milestones map[string]*models.ReadingMilestone // key userID|type|value
}

func NewMockMilestoneRepository() *MockMilestoneRepository {
	return &MockMilestoneRepository{milestones: make(map[string]*models.ReadingMilestone)}
}

func milestoneKey(userID uint, t models.MilestoneType, v int64) string {
	return fmt.Sprintf("%d|%s|%d", userID, t, v)
}

func (m *MockMilestoneRepository) Insert(milestone *models.ReadingMilestone) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := milestoneKey(milestone.UserID, milestone.MilestoneType, milestone.MilestoneValue)
	if _, ok := m.milestones[key]; ok {
		return false, nil
	}
	copied := *milestone
	m.milestones[key] = &copied
	return true, nil
}

func (m *MockMilestoneRepository) ListByUser(userID uint, limit int, year *int) ([]models.ReadingMilestone, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []models.ReadingMilestone
	for _, ms := range m.milestones {
		if ms.UserID != userID {
			continue
		}
		if year != nil && ms.AchievedAt.Year() != *year {
			continue
		}
		result = append(result, *ms)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].AchievedAt.After(result[j].AchievedAt) })
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (m *MockMilestoneRepository) HighestValue(userID uint, milestoneType models.MilestoneType) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var highest int64
	for _, ms := range m.milestones {
		if ms.UserID == userID && ms.MilestoneType == milestoneType && ms.MilestoneValue > highest {
			highest = ms.MilestoneValue
		}
	}
	return highest, nil
}

// MockBadgeRepository is a mock implementation of BadgeRepositoryInterface
type MockBadgeRepository struct {
	mu      sync.Mutex
	catalog []models.Badge
	grants  map[string]*models.UserBadge // key userID|badgeID
}

func NewMockBadgeRepository(catalog ...models.Badge) *MockBadgeRepository {
	return &MockBadgeRepository{catalog: catalog, grants: make(map[string]*models.UserBadge)}
}

func (m *MockBadgeRepository) ListActive() ([]models.Badge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []models.Badge
	for _, b := range m.catalog {
		if b.IsActive {
			result = append(result, b)
		}
	}
	return result, nil
}

func (m *MockBadgeRepository) ListUserBadges(userID uint) ([]models.UserBadge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []models.UserBadge
	for _, g := range m.grants {
		if g.UserID == userID {
			result = append(result, *g)
		}
	}
	return result, nil
}

func (m *MockBadgeRepository) Grant(grant *models.UserBadge) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := fmt.Sprintf("%d|%d", grant.UserID, grant.BadgeID)
	if _, ok := m.grants[key]; ok {
		return false, nil
	}
	copied := *grant
	m.grants[key] = &copied
	for i := range m.catalog {
		if m.catalog[i].ID == grant.BadgeID {
			m.catalog[i].EarnedCount++
		}
	}
	return true, nil
}

// MockChallengeRepository is a mock implementation of ChallengeRepositoryInterface
type MockChallengeRepository struct {
	mu         sync.Mutex
	challenges []models.ReadingChallenge
	progress   map[string]*models.UserChallengeProgress // key userID|challengeID
}

func NewMockChallengeRepository(challenges ...models.ReadingChallenge) *MockChallengeRepository {
	return &MockChallengeRepository{
		challenges: challenges,
		progress:   make(map[string]*models.UserChallengeProgress),
	}
}

func progressKey(userID, challengeID uint) string {
	return fmt.Sprintf("%d|%d", userID, challengeID)
}

func (m *MockChallengeRepository) ListActiveOn(date string) ([]models.ReadingChallenge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []models.ReadingChallenge
	for _, c := range m.challenges {
		if c.IsActive && c.StartDate <= date && date <= c.EndDate {
			result = append(result, c)
		}
	}
	return result, nil
}

func (m *MockChallengeRepository) AddProgress(userID, challengeID uint, delta int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := progressKey(userID, challengeID)
	p, ok := m.progress[key]
	if !ok {
		p = &models.UserChallengeProgress{UserID: userID, ChallengeID: challengeID}
		m.progress[key] = p
	}
	p.CurrentValue += delta
	return nil
}

func (m *MockChallengeRepository) CompleteIfReached(userID, challengeID uint, target int64, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.progress[progressKey(userID, challengeID)]
	if !ok || p.IsCompleted || p.CurrentValue < target {
		return false, nil
	}
	p.IsCompleted = true
	p.CompletedAt = &at
	return true, nil
}

func (m *MockChallengeRepository) Get(userID, challengeID uint) (*models.UserChallengeProgress, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.progress[progressKey(userID, challengeID)]; ok {
		copied := *p
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *MockChallengeRepository) IsCompleted(userID, challengeID uint) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.progress[progressKey(userID, challengeID)]; ok {
		return p.IsCompleted, nil
	}
	return false, nil
}

// MockProfileRepository is a mock implementation of ProfileRepositoryInterface
type MockProfileRepository struct {
	mu       sync.Mutex
	profiles map[uint]*models.UserProfile
}

func NewMockProfileRepository() *MockProfileRepository {
	return &MockProfileRepository{profiles: make(map[uint]*models.UserProfile)}
}

func (m *MockProfileRepository) GetOrCreate(userID uint) (*models.UserProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.profiles[userID]; ok {
		copied := *p
		return &copied, nil
	}
	p := &models.UserProfile{UserID: userID}
	m.profiles[userID] = p
	copied := *p
	return &copied, nil
}

func (m *MockProfileRepository) SetTimezone(userID uint, timezone string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[userID]
	if !ok {
		p = &models.UserProfile{UserID: userID}
		m.profiles[userID] = p
	}
	p.Timezone = timezone
	return nil
}

func (m *MockProfileRepository) UpdateStreak(userID uint, current, longest int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[userID]
	if !ok {
		p = &models.UserProfile{UserID: userID}
		m.profiles[userID] = p
	}
	p.CurrentStreakDays = current
	if longest > p.LongestStreakDays {
		p.LongestStreakDays = longest
	}
	return nil
}

// stubCatalog resolves every listed ref; anything else is unknown.
type stubCatalog struct {
	books map[string]BookInfo
}

func newStubCatalog(books ...BookInfo) *stubCatalog {
	c := &stubCatalog{books: make(map[string]BookInfo)}
	for _, b := range books {
		c.books[b.Ref.Key()] = b
	}
	return c
}

func (c *stubCatalog) ResolveBook(ref models.BookRef) (*BookInfo, error) {
	if b, ok := c.books[ref.Key()]; ok {
		return &b, nil
	}
	return nil, nil
}

// stubSocialGraph returns a fixed follow set.
type stubSocialGraph struct {
	following map[uint][]uint
}

func (s *stubSocialGraph) GetFollowing(userID uint) ([]uint, error) {
	return s.following[userID], nil
}
