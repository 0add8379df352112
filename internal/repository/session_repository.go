package repository

import (
	"time"

	"github.com/logan676/bookpost-sub002/internal/models"
	"gorm.io/gorm"
)

type SessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Create(session *models.ReadingSession) error {
	return r.db.Create(session).Error
}

func (r *SessionRepository) FindByID(id string) (*models.ReadingSession, error) {
	var session models.ReadingSession
	err := r.db.First(&session, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *SessionRepository) ListActiveByUser(userID uint) ([]models.ReadingSession, error) {
	var sessions []models.ReadingSession
	err := r.db.Where("user_id = ? AND is_active = ?", userID, true).
		Order("start_time DESC").
		Find(&sessions).Error
	return sessions, err
}

// ApplyHeartbeat adds deltaSeconds to the running duration iff the
// session belongs to userID, is open, not paused, and seq has not been
// applied yet. The seq guard makes client retries no-ops; the user_id
// guard makes a foreign caller's update hit zero rows. Returns whether
// the row moved.
func (r *SessionRepository) ApplyHeartbeat(id string, userID uint, seq uint64, position string, deltaSeconds int64, at time.Time) (bool, error) {
	res := r.db.Exec(`
		UPDATE reading_sessions
		SET duration_seconds = duration_seconds + ?,
			end_position = ?,
			heartbeat_seq = ?,
			last_heartbeat_at = ?,
			updated_at = NOW()
		WHERE id = ? AND user_id = ? AND is_active = TRUE AND is_paused = FALSE AND heartbeat_seq < ?
	`, deltaSeconds, position, seq, at, id, userID, seq)
	return res.RowsAffected > 0, res.Error
}

func (r *SessionRepository) SetPaused(id string, userID uint, at time.Time) (bool, error) {
	res := r.db.Exec(`
		UPDATE reading_sessions
		SET is_paused = TRUE, paused_at = ?, updated_at = NOW()
		WHERE id = ? AND user_id = ? AND is_active = TRUE AND is_paused = FALSE
	`, at, id, userID)
	return res.RowsAffected > 0, res.Error
}

// SetResumed folds the elapsed pause span into total_paused_seconds.
func (r *SessionRepository) SetResumed(id string, userID uint, at time.Time) (bool, error) {
	res := r.db.Exec(`
		UPDATE reading_sessions
		SET total_paused_seconds = total_paused_seconds
				+ GREATEST(EXTRACT(EPOCH FROM (?::timestamptz - paused_at))::bigint, 0),
			is_paused = FALSE,
			paused_at = NULL,
			updated_at = NOW()
		WHERE id = ? AND user_id = ? AND is_active = TRUE AND is_paused = TRUE
	`, at, id, userID)
	return res.RowsAffected > 0, res.Error
}

// Close finalizes the session: duration_seconds becomes wall clock
// minus accumulated (and any still-open) pause time. The is_active
// guard resolves the race between a client end and the reclamation
// sweep: whichever lands first wins, the loser updates zero rows.
func (r *SessionRepository) Close(id string, userID uint, endTime time.Time, endPosition string) (bool, error) {
	res := r.db.Exec(`
		UPDATE reading_sessions
		SET end_time = ?,
			end_position = CASE WHEN ? <> '' THEN ? ELSE end_position END,
			duration_seconds = GREATEST(
				EXTRACT(EPOCH FROM (?::timestamptz - start_time))::bigint
					- total_paused_seconds
					- CASE WHEN is_paused
						THEN GREATEST(EXTRACT(EPOCH FROM (?::timestamptz - paused_at))::bigint, 0)
						ELSE 0 END,
				0),
			total_paused_seconds = total_paused_seconds
				+ CASE WHEN is_paused
					THEN GREATEST(EXTRACT(EPOCH FROM (?::timestamptz - paused_at))::bigint, 0)
					ELSE 0 END,
			is_active = FALSE,
			is_paused = FALSE,
			paused_at = NULL,
			updated_at = NOW()
		WHERE id = ? AND user_id = ? AND is_active = TRUE
	`, endTime, endPosition, endPosition, endTime, endTime, endTime, id, userID)
	return res.RowsAffected > 0, res.Error
}

// FindClosedUnaggregated returns sessions closed since the given time
// that never reached the daily aggregates (no ledger row), e.g. when
// the process died between the close and the aggregation hand-off.
func (r *SessionRepository) FindClosedUnaggregated(since time.Time, limit int) ([]models.ReadingSession, error) {
	var sessions []models.ReadingSession
	err := r.db.Where(`is_active = FALSE AND end_time >= ?
		AND NOT EXISTS (
			SELECT 1 FROM processed_sessions p WHERE p.session_id = reading_sessions.id
		)`, since).
		Limit(limit).
		Find(&sessions).Error
	return sessions, err
}

// FindStale returns open sessions whose last heartbeat predates cutoff.
// Sessions that never heartbeated are judged by their start time.
func (r *SessionRepository) FindStale(cutoff time.Time, limit int) ([]models.ReadingSession, error) {
	var sessions []models.ReadingSession
	err := r.db.Where(
		"is_active = TRUE AND GREATEST(last_heartbeat_at, start_time) < ?", cutoff).
		Limit(limit).
		Find(&sessions).Error
	return sessions, err
}
