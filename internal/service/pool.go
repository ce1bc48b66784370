package service

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/olekszij/tmdb-quiz/internal/domain/entities"
)

// PoolRefresher refills the candidate pool from random discover years.
type PoolRefresher struct {
	pool    CandidatePool
	fetcher MovieFetcher
	minYear int
	maxYear int
	years   int
	logger  *zap.Logger
}

// NewPoolRefresher creates a new PoolRefresher fetching `years` random years per refresh.
func NewPoolRefresher(
	pool CandidatePool,
	fetcher MovieFetcher,
	minYear, maxYear, years int,
	logger *zap.Logger,
) *PoolRefresher {
	return &PoolRefresher{
		pool:    pool,
		fetcher: fetcher,
		minYear: minYear,
		maxYear: maxYear,
		years:   years,
		logger:  logger,
	}
}

// Refresh fetches fresh candidates and replaces the pool contents.
// The previous contents are kept if nothing could be fetched.
func (r *PoolRefresher) Refresh(ctx context.Context) (int, error) {
	var stubs []entities.MovieStub
	for i := 0; i < r.years; i++ {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		stubs = append(stubs, r.fetcher.FetchCandidateEntities(ctx, randomYear(r.minYear, r.maxYear))...)
	}

	if len(stubs) == 0 {
		return 0, fmt.Errorf("refresh pool: %w", ErrNoCandidate)
	}

	r.pool.Replace(stubs)
	return r.pool.Size(), nil
}

// Register schedules periodic refreshes on the cron scheduler.
func (r *PoolRefresher) Register(ctx context.Context, c *cron.Cron, schedule string) error {
	_, err := c.AddFunc(schedule, func() {
		r.refreshAndLog(ctx)
	})
	if err != nil {
		return fmt.Errorf("add pool refresh job: %w", err)
	}
	return nil
}

func (r *PoolRefresher) refreshAndLog(ctx context.Context) {
	size, err := r.Refresh(ctx)
	if err != nil {
		r.logger.Error("failed to refresh candidate pool", zap.Error(err))
		return
	}
	r.logger.Info("candidate pool refreshed", zap.Int("size", size))
}

// Warm performs the initial refresh before the first round is served.
func (r *PoolRefresher) Warm(ctx context.Context) {
	r.refreshAndLog(ctx)
}
