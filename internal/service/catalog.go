package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"go.uber.org/zap"

	"github.com/olekszij/tmdb-quiz/internal/domain/entities"
	"github.com/olekszij/tmdb-quiz/internal/tmdb"
)

// CatalogService wraps the catalog client with best-effort semantics:
// failures are logged and reported as empty results.
type CatalogService struct {
	client CatalogClient
	logger *zap.Logger
}

// NewCatalogService creates a new CatalogService.
func NewCatalogService(client CatalogClient, logger *zap.Logger) *CatalogService {
	return &CatalogService{
		client: client,
		logger: logger,
	}
}

// FetchCandidateEntities returns popular movies of the given year, or nothing on failure.
// Callers treat an empty result as "try another year".
func (s *CatalogService) FetchCandidateEntities(ctx context.Context, year int) []entities.MovieStub {
	stubs, err := s.client.Discover(ctx, year)
	if err != nil {
		s.logger.Warn("failed to fetch candidates",
			zap.Int("year", year),
			zap.Error(err),
		)
		return nil
	}
	return stubs
}

// FetchImageRefs returns up to entities.MaxBackdrops unlocalized backdrops, or nothing on failure.
func (s *CatalogService) FetchImageRefs(ctx context.Context, movieID int64) []string {
	paths, err := s.client.Backdrops(ctx, movieID)
	if err != nil {
		s.logger.Warn("failed to fetch movie images",
			zap.Int64("movie_id", movieID),
			zap.Error(err),
		)
		return nil
	}
	if len(paths) > entities.MaxBackdrops {
		paths = paths[:entities.MaxBackdrops]
	}
	return paths
}

// FetchRandomMovie picks a random movie of the year and attaches its backdrops.
// An empty or failed discover yields ErrNoCandidate; a failed images call is
// returned as is so that the draw counts as a failure.
func (s *CatalogService) FetchRandomMovie(ctx context.Context, year int) (*entities.Movie, error) {
	stubs := s.FetchCandidateEntities(ctx, year)
	if len(stubs) == 0 {
		return nil, fmt.Errorf("%w: year %d", ErrNoCandidate, year)
	}

	stub := stubs[rand.Intn(len(stubs))]
	return s.Resolve(ctx, stub)
}

// Resolve attaches backdrops to a stub. A movie without backdrops is returned
// but is not usable; an unavailable catalog is an error.
func (s *CatalogService) Resolve(ctx context.Context, stub entities.MovieStub) (*entities.Movie, error) {
	paths, err := s.client.Backdrops(ctx, stub.ID)
	if err != nil {
		if !errors.Is(err, tmdb.ErrSourceUnavailable) {
			err = fmt.Errorf("%w: %w", tmdb.ErrSourceUnavailable, err)
		}
		return nil, fmt.Errorf("resolve movie %d: %w", stub.ID, err)
	}
	return entities.NewMovie(stub, paths), nil
}
