package usecase

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/webb-rtk/shintek/internal/domain"
	"github.com/webb-rtk/shintek/internal/domain/model"
	"github.com/webb-rtk/shintek/internal/infra/metrics"
)

// Compile-time check
var _ SessionUseCase = (*sessionUC)(nil)

// SessionStats is a point-in-time snapshot for observability. Total counts
// physically held entries; Active counts those still inside the timeout
// window (a lazily-expired entry may be present but inactive).
type SessionStats struct {
	Total  int `json:"total"`
	Active int `json:"active"`
}

// SessionUseCase manages the full lifecycle of conversation transcripts,
// independent of any specific messaging or AI backend. Expiry is a sliding
// window: every successful read or write refreshes the deadline.
type SessionUseCase interface {
	CreateSession(roleID string) string
	GetSession(sessionID string) (*model.Session, error)
	GetMessages(sessionID string) ([]model.Message, error)
	AddMessage(sessionID, role, content string) error
	UpdateSession(sessionID string, messages []model.Message) error
	DeleteSession(sessionID string) bool
	ClearAll()
	SweepExpired() int
	Stats() SessionStats
}

type sessionUC struct {
	mu       sync.Mutex
	sessions map[string]*model.Session
	timeout  time.Duration
	now      func() time.Time
	log      *zerolog.Logger
}

func NewSessionUseCase(timeout time.Duration, logger *zerolog.Logger) *sessionUC {
	if timeout <= 0 {
		timeout = 30 * time.Minute
	}
	sessLog := logger.With().Str("component", "SessionUC").Logger()
	return &sessionUC{
		sessions: make(map[string]*model.Session),
		timeout:  timeout,
		now:      time.Now,
		log:      &sessLog,
	}
}

func (s *sessionUC) CreateSession(roleID string) string {
	if roleID == "" {
		roleID = "default"
	}
	id := uuid.NewString()

	s.mu.Lock()
	s.sessions[id] = model.NewSession(id, roleID, s.now())
	total := len(s.sessions)
	s.mu.Unlock()

	metrics.IncSessionsCreated()
	s.log.Debug().Str("session_id", id).Str("role_id", roleID).Int("total", total).Msg("session created")
	return id
}

// GetSession returns a snapshot, never the live entry: the caller reads it
// outside the store mutex while other goroutines keep appending.
func (s *sessionUC) GetSession(sessionID string) (*model.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.liveLocked(sessionID)
	if err != nil {
		return nil, err
	}
	return sess.Snapshot(), nil
}

func (s *sessionUC) GetMessages(sessionID string) ([]model.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.liveLocked(sessionID)
	if err != nil {
		return nil, err
	}
	out := make([]model.Message, len(sess.Messages))
	copy(out, sess.Messages)
	return out, nil
}

func (s *sessionUC) AddMessage(sessionID, role, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.liveLocked(sessionID)
	if err != nil {
		return err
	}
	sess.Append(role, content)
	return nil
}

func (s *sessionUC) UpdateSession(sessionID string, messages []model.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.liveLocked(sessionID)
	if err != nil {
		return err
	}
	sess.Messages = messages
	return nil
}

func (s *sessionUC) DeleteSession(sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sessionID]; !ok {
		return false
	}
	delete(s.sessions, sessionID)
	return true
}

func (s *sessionUC) ClearAll() {
	s.mu.Lock()
	n := len(s.sessions)
	s.sessions = make(map[string]*model.Session)
	s.mu.Unlock()
	s.log.Info().Int("count", n).Msg("all sessions cleared")
}

func (s *sessionUC) SweepExpired() int {
	now := s.now()

	s.mu.Lock()
	evicted := 0
	for id, sess := range s.sessions {
		if sess.Expired(now, s.timeout) {
			delete(s.sessions, id)
			evicted++
		}
	}
	s.mu.Unlock()

	if evicted > 0 {
		metrics.AddSessionsEvicted(evicted)
	}
	return evicted
}

func (s *sessionUC) Stats() SessionStats {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()
	st := SessionStats{Total: len(s.sessions)}
	for _, sess := range s.sessions {
		if !sess.Expired(now, s.timeout) {
			st.Active++
		}
	}
	return st
}

// liveLocked returns the session if present and inside its window, evicting
// it as a side effect when stale. Both "never existed" and "expired"
// collapse into ErrSessionNotFound. Callers must hold s.mu.
func (s *sessionUC) liveLocked(sessionID string) (*model.Session, error) {
	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	now := s.now()
	if sess.Expired(now, s.timeout) {
		delete(s.sessions, sessionID)
		metrics.AddSessionsEvicted(1)
		return nil, domain.ErrSessionNotFound
	}
	sess.Touch(now)
	return sess, nil
}
