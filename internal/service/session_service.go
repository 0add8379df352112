package service

import (
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/logan676/bookpost-sub002/internal/models"
	"github.com/logan676/bookpost-sub002/internal/repository"
	"gorm.io/gorm"
)

// Aggregator is the downstream consumer of closed sessions.
type Aggregator interface {
	ApplySessionClose(session *models.ReadingSession) error
}

type SessionService struct {
	sessionRepo repository.SessionRepositoryInterface
	catalog     BookCatalog
	aggregator  Aggregator

	now func() time.Time
}

func NewSessionService(sessionRepo repository.SessionRepositoryInterface, catalog BookCatalog, aggregator Aggregator) *SessionService {
	return &SessionService{
		sessionRepo: sessionRepo,
		catalog:     catalog,
		aggregator:  aggregator,
		now:         time.Now,
	}
}

type StartSessionInput struct {
	Book          models.BookRef `json:"book"`
	DeviceID      string         `json:"device_id"`
	StartPosition string         `json:"start_position"`
}

func (s *SessionService) StartSession(userID uint, input StartSessionInput) (*models.ReadingSession, error) {
	if !input.Book.Valid() {
		return nil, ErrInvalidBook
	}
	info, err := s.catalog.ResolveBook(input.Book)
	if err != nil {
		return nil, err
	}
	if info == nil {
		return nil, ErrInvalidBook
	}

	now := s.now().UTC()
	session := &models.ReadingSession{
		ID:              uuid.NewString(),
		UserID:          userID,
		BookID:          input.Book.ID,
		BookKind:        input.Book.Kind,
		DeviceID:        input.DeviceID,
		StartTime:       now,
		StartPosition:   input.StartPosition,
		IsActive:        true,
		LastHeartbeatAt: now,
	}
	if err := s.sessionRepo.Create(session); err != nil {
		return nil, err
	}
	return session, nil
}

// Heartbeat applies an additive progress update. seq is the client's
// monotonically increasing token; a retried or out-of-order heartbeat
// whose token was already applied is a silent no-op. The ownership
// check rides the same conditional update: another user's session is
// reported as not found.
func (s *SessionService) Heartbeat(userID uint, sessionID string, seq uint64, position string, deltaSeconds int64) error {
	if deltaSeconds < 0 {
		deltaSeconds = 0
	}
	applied, err := s.sessionRepo.ApplyHeartbeat(sessionID, userID, seq, position, deltaSeconds, s.now().UTC())
	if err != nil {
		return err
	}
	if applied {
		return nil
	}
	return s.explainNoop(userID, sessionID)
}

func (s *SessionService) Pause(userID uint, sessionID string) error {
	paused, err := s.sessionRepo.SetPaused(sessionID, userID, s.now().UTC())
	if err != nil {
		return err
	}
	if paused {
		return nil
	}
	return s.explainNoop(userID, sessionID)
}

func (s *SessionService) Resume(userID uint, sessionID string) error {
	resumed, err := s.sessionRepo.SetResumed(sessionID, userID, s.now().UTC())
	if err != nil {
		return err
	}
	if resumed {
		return nil
	}
	return s.explainNoop(userID, sessionID)
}

// explainNoop decides what a zero-row state change means: missing or
// foreign session, already-closed session, or a benign duplicate (dup
// heartbeat, pause while paused) which stays a nil error. A session
// owned by someone else reads as not found, never as closed.
func (s *SessionService) explainNoop(userID uint, sessionID string) error {
	session, err := s.sessionRepo.FindByID(sessionID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return ErrSessionNotFound
		}
		return err
	}
	if session.UserID != userID {
		return ErrSessionNotFound
	}
	if !session.IsActive {
		return ErrSessionClosed
	}
	return nil
}

// EndSession closes the session and hands it to the aggregator off the
// request path. Ending an already-closed session fails with
// ErrSessionClosed; the close itself is race-safe against the
// reclamation sweep.
func (s *SessionService) EndSession(userID uint, sessionID string, endPosition string) (*models.ReadingSession, error) {
	closed, err := s.sessionRepo.Close(sessionID, userID, s.now().UTC(), endPosition)
	if err != nil {
		return nil, err
	}
	if !closed {
		session, err := s.sessionRepo.FindByID(sessionID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil, ErrSessionNotFound
			}
			return nil, err
		}
		if session.UserID != userID {
			return nil, ErrSessionNotFound
		}
		return nil, ErrSessionClosed
	}

	session, err := s.sessionRepo.FindByID(sessionID)
	if err != nil {
		return nil, err
	}

	go func(closed models.ReadingSession) {
		if err := s.aggregator.ApplySessionClose(&closed); err != nil {
			log.Printf("aggregate session %s: %v", closed.ID, err)
		}
	}(*session)

	return session, nil
}

func (s *SessionService) GetSession(userID uint, sessionID string) (*models.ReadingSession, error) {
	session, err := s.sessionRepo.FindByID(sessionID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	if session.UserID != userID {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

func (s *SessionService) ListActive(userID uint) ([]models.ReadingSession, error) {
	return s.sessionRepo.ListActiveByUser(userID)
}

// ReclaimStale force-closes sessions that stopped heartbeating,
// attributing duration up to the last heartbeat rather than the
// timeout boundary. Returns how many sessions were reclaimed.
func (s *SessionService) ReclaimStale(timeout time.Duration, limit int) (int, error) {
	cutoff := s.now().UTC().Add(-timeout)
	stale, err := s.sessionRepo.FindStale(cutoff, limit)
	if err != nil {
		return 0, err
	}

	reclaimed := 0
	for _, session := range stale {
		end := session.LastHeartbeatAt
		if end.Before(session.StartTime) {
			end = session.StartTime
		}
		closed, err := s.sessionRepo.Close(session.ID, session.UserID, end, "")
		if err != nil {
			log.Printf("reclaim session %s: %v", session.ID, err)
			continue
		}
		if !closed {
			// Lost the race to a client-initiated end; nothing to do.
			continue
		}
		reclaimed++
		fresh, err := s.sessionRepo.FindByID(session.ID)
		if err != nil {
			log.Printf("reclaim reload %s: %v", session.ID, err)
			continue
		}
		if err := s.aggregator.ApplySessionClose(fresh); err != nil {
			log.Printf("aggregate reclaimed session %s: %v", session.ID, err)
		}
	}
	return reclaimed, nil
}

// ReapplyUnaggregated re-drives aggregation for sessions that closed
// but never made it into the daily stats, e.g. after a crash between
// the close and the async hand-off. The processed-session ledger makes
// re-applying an already-counted session a no-op, so the sweep is safe
// to run alongside normal closes.
func (s *SessionService) ReapplyUnaggregated(window time.Duration, limit int) (int, error) {
	since := s.now().UTC().Add(-window)
	sessions, err := s.sessionRepo.FindClosedUnaggregated(since, limit)
	if err != nil {
		return 0, err
	}

	applied := 0
	for i := range sessions {
		if err := s.aggregator.ApplySessionClose(&sessions[i]); err != nil {
			log.Printf("reapply session %s: %v", sessions[i].ID, err)
			continue
		}
		applied++
	}
	return applied, nil
}
