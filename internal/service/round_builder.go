package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/olekszij/tmdb-quiz/internal/domain/entities"
)

var (
	ErrInsufficientCandidates = errors.New("not enough usable movies for a round")
	ErrNoBackdrops            = errors.New("movie has no backdrops")
)

// RoundBuilderConfig bounds the work spent on assembling one round.
type RoundBuilderConfig struct {
	MaxAttempts            int // total draws per round
	MaxConsecutiveFailures int // failed draws in a row before giving up
	ParallelDraws          int // distractor draws in flight at once
}

// RoundBuilder assembles a target movie and its distractors.
type RoundBuilder struct {
	source CandidateSource
	cfg    RoundBuilderConfig
	logger *zap.Logger
}

// NewRoundBuilder creates a new RoundBuilder.
func NewRoundBuilder(source CandidateSource, cfg RoundBuilderConfig, logger *zap.Logger) *RoundBuilder {
	if cfg.ParallelDraws < 1 {
		cfg.ParallelDraws = 1
	}
	return &RoundBuilder{
		source: source,
		cfg:    cfg,
		logger: logger,
	}
}

type drawResult struct {
	movie *entities.Movie
	err   error
}

// assembly tracks the attempt budget of one Build call.
type assembly struct {
	cfg       RoundBuilderConfig
	attempts  int
	failures  int
	lastErr   error
	options   []entities.Movie
	seen      map[int64]struct{}
	discarded int
}

func (a *assembly) exhausted() bool {
	return a.attempts >= a.cfg.MaxAttempts || a.failures >= a.cfg.MaxConsecutiveFailures
}

func (a *assembly) giveUp(stage string) error {
	cause := a.lastErr
	if cause == nil {
		cause = ErrNoCandidate
	}
	return fmt.Errorf("%w: %s after %d draws (%d usable): %w",
		ErrInsufficientCandidates, stage, a.attempts, len(a.options), cause)
}

// merge applies one draw result. Only this method mutates the option set,
// so parallel draws can never insert the same id twice.
func (a *assembly) merge(r drawResult) bool {
	switch {
	case r.err != nil:
		a.failures++
		a.lastErr = r.err
		return false
	case !r.movie.Usable():
		a.lastErr = ErrNoBackdrops
		a.discarded++
		return false
	}

	a.failures = 0
	if _, dup := a.seen[r.movie.ID]; dup {
		a.discarded++
		return false
	}
	if len(a.options) >= entities.OptionsPerRound {
		return false
	}

	a.seen[r.movie.ID] = struct{}{}
	a.options = append(a.options, *r.movie)
	return true
}

// Build draws candidates until it has a usable target and three distinct usable
// distractors, then shuffles the options.
func (b *RoundBuilder) Build(ctx context.Context, index uint64) (*entities.Round, error) {
	a := &assembly{
		cfg:     b.cfg,
		options: make([]entities.Movie, 0, entities.OptionsPerRound),
		seen:    make(map[int64]struct{}, entities.OptionsPerRound),
	}

	// 1. Target: sequential draws until one has backdrops.
	for len(a.options) == 0 {
		if a.exhausted() {
			return nil, a.giveUp("target")
		}
		a.attempts++

		movie, err := b.source.Draw(ctx)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		a.merge(drawResult{movie: movie, err: err})
	}
	target := a.options[0]

	// 2. Distractors: parallel batches, merged sequentially.
	for len(a.options) < entities.OptionsPerRound {
		if a.exhausted() {
			return nil, a.giveUp("distractors")
		}

		batch := min(
			b.cfg.ParallelDraws,
			entities.OptionsPerRound-len(a.options),
			b.cfg.MaxAttempts-a.attempts,
		)
		a.attempts += batch

		results, err := b.drawBatch(ctx, batch)
		if err != nil {
			return nil, err
		}
		for _, r := range results {
			a.merge(r)
		}
	}

	b.logger.Debug("round assembled",
		zap.Uint64("round", index),
		zap.Int64("target_id", target.ID),
		zap.Int("draws", a.attempts),
		zap.Int("discarded", a.discarded),
	)

	options := a.options
	rand.Shuffle(len(options), func(i, j int) {
		options[i], options[j] = options[j], options[i]
	})

	return entities.NewRound(index, target, options)
}

func (b *RoundBuilder) drawBatch(ctx context.Context, n int) ([]drawResult, error) {
	results := make([]drawResult, n)

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			movie, err := b.source.Draw(gctx)
			results[i] = drawResult{movie: movie, err: err}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}
