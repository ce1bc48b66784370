package service

import (
	"context"
	"errors"
	"math/rand"

	"github.com/olekszij/tmdb-quiz/internal/domain/entities"
)

var (
	ErrNoCandidate = errors.New("no candidate movie found")
	ErrPoolEmpty   = errors.New("candidate pool is empty")
)

// YearSource draws a random popular movie from a random year of the range.
type YearSource struct {
	fetcher MovieFetcher
	minYear int
	maxYear int
}

// NewYearSource creates a YearSource over [minYear, maxYear].
func NewYearSource(fetcher MovieFetcher, minYear, maxYear int) *YearSource {
	return &YearSource{
		fetcher: fetcher,
		minYear: minYear,
		maxYear: maxYear,
	}
}

// Draw implements CandidateSource.
func (s *YearSource) Draw(ctx context.Context) (*entities.Movie, error) {
	year := randomYear(s.minYear, s.maxYear)

	return s.fetcher.FetchRandomMovie(ctx, year)
}

// PoolSource draws from prefetched discover results and resolves images on demand.
type PoolSource struct {
	pool    CandidatePool
	fetcher MovieFetcher
}

// NewPoolSource creates a PoolSource.
func NewPoolSource(pool CandidatePool, fetcher MovieFetcher) *PoolSource {
	return &PoolSource{
		pool:    pool,
		fetcher: fetcher,
	}
}

// Draw implements CandidateSource.
func (s *PoolSource) Draw(ctx context.Context) (*entities.Movie, error) {
	stub, ok := s.pool.Random()
	if !ok {
		return nil, ErrPoolEmpty
	}
	return s.fetcher.Resolve(ctx, stub)
}

// randomYear returns a uniformly random year in [minYear, maxYear].
func randomYear(minYear, maxYear int) int {
	if maxYear <= minYear {
		return minYear
	}
	return minYear + rand.Intn(maxYear-minYear+1)
}
