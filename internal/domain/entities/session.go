package entities

import (
	"sync"
	"time"
)

// SessionState is the in-memory game state of one chat.
// All fields are guarded by the embedded mutex; transitions live in the service layer.
type SessionState struct {
	sync.Mutex

	ChatID       int64
	RoundIndex   uint64 // index of the round currently loading or shown
	Round        *Round // nil while the first round is loading
	Mode         Mode
	Score        ScoreState
	ErrMessage   string // human-readable reason, set in ModeError
	LastActivity time.Time
}

// NewSessionState creates a session in ModeLoading with an empty score.
func NewSessionState(chatID int64, now time.Time) *SessionState {
	return &SessionState{
		ChatID:       chatID,
		Mode:         ModeLoading,
		Score:        NewScoreState(),
		LastActivity: now,
	}
}

// Reset clears the round and the score. The round index keeps growing so that
// results of earlier rounds are recognised as stale.
func (s *SessionState) Reset(now time.Time) {
	s.RoundIndex++
	s.Round = nil
	s.Mode = ModeLoading
	s.Score = NewScoreState()
	s.ErrMessage = ""
	s.LastActivity = now
}

// Touch records user activity.
func (s *SessionState) Touch(now time.Time) {
	s.LastActivity = now
}
