package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/olekszij/tmdb-quiz/internal/domain/entities"
)

var (
	ErrNoSession     = errors.New("no quiz session")
	ErrStaleResponse = errors.New("round is no longer current")
	ErrAnswerIgnored = errors.New("answer ignored")
	ErrSessionFailed = errors.New("quiz session failed")
)

const (
	msgCorrect                = "Correct! 🎉"
	msgIncorrectFmt           = "Incorrect! The movie was: %s"
	msgInsufficientCandidates = "Could not find enough movies for a new question. Start over with /quiz a bit later."
)

// AnswerResult describes the outcome of one answer.
type AnswerResult struct {
	Round   entities.Round      // round in ModeFeedback
	Correct bool                // whether the guess was right
	Message string              // "Correct! 🎉" or the incorrect message naming the title
	Badge   entities.Badge      // badge granted by this answer, empty if none
	Reward  string              // human-readable badge message, empty if none
	Score   entities.ScoreState // score after the answer
}

// SessionView is a read-only snapshot of a session.
type SessionView struct {
	Mode       entities.Mode
	RoundIndex uint64
	Round      *entities.Round
	Score      entities.ScoreState
	ErrMessage string
}

// QuizService drives the per-chat quiz state machine:
// Loading -> Active -> Feedback -> Loading, or Loading -> Error.
type QuizService struct {
	sessions SessionStorage
	builder  RoundAssembler
	rules    entities.ScoringRules
	logger   *zap.Logger
	now      func() time.Time
}

// NewQuizService creates a new QuizService with the default scoring rules.
func NewQuizService(sessions SessionStorage, builder RoundAssembler, logger *zap.Logger) *QuizService {
	return &QuizService{
		sessions: sessions,
		builder:  builder,
		rules:    entities.DefaultScoringRules(),
		logger:   logger,
		now:      time.Now,
	}
}

// Start begins a new session for the chat (dropping any previous one) and loads its first round.
func (s *QuizService) Start(ctx context.Context, chatID int64) (*entities.Round, error) {
	sess := s.sessions.Reset(chatID, s.now())

	idx, err := s.begin(sess, nil)
	if err != nil {
		return nil, err
	}
	return s.load(ctx, sess, idx)
}

// NextRound acknowledges the feedback of round fromIndex and loads the next round.
// Only the first acknowledgement of a round advances the session.
func (s *QuizService) NextRound(ctx context.Context, chatID int64, fromIndex uint64) (*entities.Round, error) {
	sess, ok := s.sessions.Get(chatID)
	if !ok {
		return nil, ErrNoSession
	}

	idx, err := s.begin(sess, func(st *entities.SessionState) error {
		if st.RoundIndex != fromIndex {
			return ErrStaleResponse
		}
		if st.Mode != entities.ModeFeedback {
			return fmt.Errorf("%w: round %d is %s", ErrStaleResponse, fromIndex, st.Mode)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.load(ctx, sess, idx)
}

// Answer scores the option chosen for round roundIndex. Each round accepts one answer;
// later clicks return ErrAnswerIgnored.
func (s *QuizService) Answer(chatID int64, roundIndex uint64, movieID int64) (*AnswerResult, error) {
	sess, ok := s.sessions.Get(chatID)
	if !ok {
		return nil, ErrNoSession
	}

	sess.Lock()
	defer sess.Unlock()

	if sess.RoundIndex != roundIndex {
		return nil, ErrStaleResponse
	}
	if sess.Mode != entities.ModeActive || sess.Round == nil {
		return nil, fmt.Errorf("%w: round %d is %s", ErrAnswerIgnored, roundIndex, sess.Mode)
	}
	if _, ok := sess.Round.Option(movieID); !ok {
		return nil, fmt.Errorf("%w: movie %d is not an option", ErrAnswerIgnored, movieID)
	}

	target := sess.Round.Target
	correct := movieID == target.ID

	badge, granted := sess.Score.Apply(correct, s.rules)

	res := &AnswerResult{Correct: correct}
	if correct {
		res.Message = msgCorrect
	} else {
		res.Message = fmt.Sprintf(msgIncorrectFmt, target.Title)
	}
	if granted {
		res.Badge = badge
		res.Reward = entities.RewardMessage(badge, sess.Score.Streak)
	}

	sess.Round.Mode = entities.ModeFeedback
	sess.Round.Feedback = res.Message
	sess.Round.Reward = res.Reward
	sess.Round.Correct = correct
	sess.Mode = entities.ModeFeedback
	sess.Touch(s.now())

	res.Round = *sess.Round
	res.Score = sess.Score.Snapshot()

	s.logger.Debug("answer scored",
		zap.Int64("chat_id", chatID),
		zap.Uint64("round", roundIndex),
		zap.Bool("correct", correct),
		zap.Int("score", res.Score.Score),
		zap.Int("streak", res.Score.Streak),
	)

	return res, nil
}

// View returns a snapshot of the chat's session.
func (s *QuizService) View(chatID int64) (*SessionView, error) {
	sess, ok := s.sessions.Get(chatID)
	if !ok {
		return nil, ErrNoSession
	}

	sess.Lock()
	defer sess.Unlock()

	view := &SessionView{
		Mode:       sess.Mode,
		RoundIndex: sess.RoundIndex,
		Score:      sess.Score.Snapshot(),
		ErrMessage: sess.ErrMessage,
	}
	if sess.Round != nil {
		r := *sess.Round
		view.Round = &r
	}
	return view, nil
}

// RegisterSweeper schedules removal of sessions idle for longer than ttl.
func (s *QuizService) RegisterSweeper(c *cron.Cron, schedule string, ttl time.Duration) error {
	_, err := c.AddFunc(schedule, func() {
		removed := s.sessions.SweepIdle(s.now().Add(-ttl))
		if removed > 0 {
			s.logger.Info("idle sessions removed", zap.Int("removed", removed))
		}
	})
	if err != nil {
		return fmt.Errorf("add session sweep job: %w", err)
	}
	return nil
}

// begin moves the session to ModeLoading under a new round index.
// The guard runs in the same critical section, so two concurrent callers
// cannot both start the next round.
func (s *QuizService) begin(sess *entities.SessionState, guard func(*entities.SessionState) error) (uint64, error) {
	sess.Lock()
	defer sess.Unlock()

	if guard != nil {
		if err := guard(sess); err != nil {
			return 0, err
		}
	}

	sess.RoundIndex++
	sess.Round = nil
	sess.Mode = entities.ModeLoading
	sess.Touch(s.now())

	return sess.RoundIndex, nil
}

// load assembles round idx without holding the session lock and commits it
// only if the session is still waiting for that round.
func (s *QuizService) load(ctx context.Context, sess *entities.SessionState, idx uint64) (*entities.Round, error) {
	round, buildErr := s.builder.Build(ctx, idx)

	sess.Lock()
	defer sess.Unlock()

	if sess.RoundIndex != idx || sess.Mode != entities.ModeLoading {
		s.logger.Debug("discarding stale round",
			zap.Int64("chat_id", sess.ChatID),
			zap.Uint64("round", idx),
			zap.Uint64("current_round", sess.RoundIndex),
		)
		return nil, ErrStaleResponse
	}

	if buildErr != nil {
		if ctx.Err() != nil {
			return nil, buildErr
		}

		sess.Mode = entities.ModeError
		sess.ErrMessage = msgInsufficientCandidates
		s.logger.Warn("failed to assemble round",
			zap.Int64("chat_id", sess.ChatID),
			zap.Uint64("round", idx),
			zap.Error(buildErr),
		)
		return nil, fmt.Errorf("%w: %w", ErrSessionFailed, buildErr)
	}

	sess.Round = round
	sess.Mode = entities.ModeActive

	out := *round
	return &out, nil
}
