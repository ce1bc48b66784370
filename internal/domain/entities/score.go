package entities

import "fmt"

// Badge is a one-time reward for a streak of correct answers.
type Badge string

const (
	BadgeSilverCinematographer Badge = "Silver Cinematographer"
	BadgeGoldDirector          Badge = "Gold Director"
)

// ScoringRules holds the point deltas and streak rewards.
type ScoringRules struct {
	Correct      int
	Incorrect    int
	StreakBadges map[int]Badge // streak length -> badge granted when reached
}

// DefaultScoringRules returns the fixed scoring configuration.
func DefaultScoringRules() ScoringRules {
	return ScoringRules{
		Correct:   1,
		Incorrect: -3,
		StreakBadges: map[int]Badge{
			5:  BadgeSilverCinematographer,
			10: BadgeGoldDirector,
		},
	}
}

// ScoreState tracks score, streak and earned badges of a session.
type ScoreState struct {
	Score  int               // may go negative
	Streak int               // consecutive correct answers
	Badges map[Badge]struct{} // never revoked within a session
}

// NewScoreState creates an empty score state.
func NewScoreState() ScoreState {
	return ScoreState{Badges: make(map[Badge]struct{})}
}

// HasBadge reports whether the badge was already earned.
func (s *ScoreState) HasBadge(b Badge) bool {
	_, ok := s.Badges[b]
	return ok
}

// Apply updates the score after an answer and returns the badge granted by it, if any.
//
// A correct answer adds rules.Correct and extends the streak; when the streak
// reaches a configured length its badge is granted unless already held.
// An incorrect answer adds rules.Incorrect and resets the streak to zero.
func (s *ScoreState) Apply(correct bool, rules ScoringRules) (Badge, bool) {
	if s.Badges == nil {
		s.Badges = make(map[Badge]struct{})
	}

	if !correct {
		s.Score += rules.Incorrect
		s.Streak = 0
		return "", false
	}

	s.Score += rules.Correct
	s.Streak++

	badge, ok := rules.StreakBadges[s.Streak]
	if !ok || s.HasBadge(badge) {
		return "", false
	}

	s.Badges[badge] = struct{}{}
	return badge, true
}

// Snapshot returns a copy that does not share the badge set.
func (s *ScoreState) Snapshot() ScoreState {
	out := ScoreState{
		Score:  s.Score,
		Streak: s.Streak,
		Badges: make(map[Badge]struct{}, len(s.Badges)),
	}
	for b := range s.Badges {
		out.Badges[b] = struct{}{}
	}
	return out
}

// RewardMessage describes a freshly granted badge.
func RewardMessage(b Badge, streak int) string {
	return fmt.Sprintf("You've earned the '%s' badge for %d correct answers in a row!", b, streak)
}
