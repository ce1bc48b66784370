package entities

import (
	"errors"
	"fmt"
)

// OptionsPerRound is the number of titles offered in every round.
const OptionsPerRound = 4

var ErrInvalidRound = errors.New("invalid round")

// Mode is the UI mode of a quiz session.
type Mode string

const (
	ModeLoading  Mode = "loading"  // round is being assembled
	ModeActive   Mode = "active"   // options shown, waiting for an answer
	ModeFeedback Mode = "feedback" // answer scored, waiting for acknowledgement
	ModeError    Mode = "error"    // assembly gave up, no further rounds
)

// Round represents one question cycle.
type Round struct {
	Index    uint64 // sequence number within the session, starts at 1
	Target   Movie  // movie the backdrops belong to
	Options  []Movie
	Mode     Mode
	Feedback string // answer message, set in ModeFeedback
	Reward   string // badge message, set when a badge was granted by this round
	Correct  bool   // whether the answer was correct, set in ModeFeedback
}

// NewRound builds an active round and checks the option set invariants.
func NewRound(index uint64, target Movie, options []Movie) (*Round, error) {
	r := &Round{
		Index:   index,
		Target:  target,
		Options: options,
		Mode:    ModeActive,
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

// Validate checks that the round has exactly OptionsPerRound options with
// distinct ids and that the target appears among them exactly once.
func (r *Round) Validate() error {
	if len(r.Options) != OptionsPerRound {
		return fmt.Errorf("%w: expected %d options, got %d", ErrInvalidRound, OptionsPerRound, len(r.Options))
	}

	seen := make(map[int64]struct{}, len(r.Options))
	targetCount := 0
	for _, o := range r.Options {
		if _, ok := seen[o.ID]; ok {
			return fmt.Errorf("%w: duplicate option id %d", ErrInvalidRound, o.ID)
		}
		seen[o.ID] = struct{}{}
		if o.ID == r.Target.ID {
			targetCount++
		}
	}

	if targetCount != 1 {
		return fmt.Errorf("%w: target %d appears %d times", ErrInvalidRound, r.Target.ID, targetCount)
	}

	return nil
}

// Option returns the option with the given id.
func (r *Round) Option(movieID int64) (Movie, bool) {
	for _, o := range r.Options {
		if o.ID == movieID {
			return o, true
		}
	}
	return Movie{}, false
}
