package storage

import (
	"sync"
	"time"

	"github.com/olekszij/tmdb-quiz/internal/domain/entities"
)

// SessionStorage provides in-memory storage for quiz sessions by chat ID.
type SessionStorage struct {
	mu       sync.RWMutex
	sessions map[int64]*entities.SessionState
}

// NewSessionStorage creates a new SessionStorage.
func NewSessionStorage() *SessionStorage {
	return &SessionStorage{
		sessions: make(map[int64]*entities.SessionState),
	}
}

// Get retrieves the session of a chat.
func (s *SessionStorage) Get(chatID int64) (*entities.SessionState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[chatID]
	return sess, ok
}

// Reset starts a fresh session for a chat. An existing session is reset in place
// so that rounds still being assembled for it become stale.
func (s *SessionStorage) Reset(chatID int64, now time.Time) *entities.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[chatID]; ok {
		sess.Lock()
		sess.Reset(now)
		sess.Unlock()
		return sess
	}

	sess := entities.NewSessionState(chatID, now)
	s.sessions[chatID] = sess
	return sess
}

// SweepIdle removes sessions without activity since before and returns how many were removed.
func (s *SessionStorage) SweepIdle(before time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for chatID, sess := range s.sessions {
		sess.Lock()
		idle := sess.LastActivity.Before(before)
		if idle {
			// Invalidate rounds still in flight for the dropped session.
			sess.RoundIndex++
		}
		sess.Unlock()

		if idle {
			delete(s.sessions, chatID)
			removed++
		}
	}

	return removed
}

// Len returns the number of live sessions.
func (s *SessionStorage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
