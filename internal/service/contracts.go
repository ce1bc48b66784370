package service

import (
	"context"
	"time"

	"github.com/olekszij/tmdb-quiz/internal/domain/entities"
)

// CatalogClient is the raw catalog API.
type CatalogClient interface {
	Discover(ctx context.Context, year int) ([]entities.MovieStub, error)
	Backdrops(ctx context.Context, movieID int64) ([]string, error)
}

// MovieFetcher is the catalog used by candidate sources. Listing calls are
// best-effort, resolving a movie reports an unavailable catalog.
type MovieFetcher interface {
	FetchCandidateEntities(ctx context.Context, year int) []entities.MovieStub
	FetchImageRefs(ctx context.Context, movieID int64) []string
	FetchRandomMovie(ctx context.Context, year int) (*entities.Movie, error)
	Resolve(ctx context.Context, stub entities.MovieStub) (*entities.Movie, error)
}

// CandidateSource draws one random candidate movie. A nil movie or an error
// both count as a failed draw.
type CandidateSource interface {
	Draw(ctx context.Context) (*entities.Movie, error)
}

// CandidatePool holds prefetched discover results.
type CandidatePool interface {
	Replace(stubs []entities.MovieStub)
	Random() (entities.MovieStub, bool)
	Size() int
}

// RoundAssembler builds the option set of a round.
type RoundAssembler interface {
	Build(ctx context.Context, index uint64) (*entities.Round, error)
}

// SessionStorage keeps per-chat sessions in memory.
type SessionStorage interface {
	Get(chatID int64) (*entities.SessionState, bool)
	Reset(chatID int64, now time.Time) *entities.SessionState
	SweepIdle(before time.Time) int
}
