package service

import (
	"context"
	"errors"
	"sync"

	"github.com/olekszij/tmdb-quiz/internal/domain/entities"
)

var errFakeSource = errors.New("fake source failure")

// scriptedSource returns the scripted draws in order, then fails.
type scriptedSource struct {
	mu    sync.Mutex
	draws []drawResult
	calls int
}

func (s *scriptedSource) Draw(_ context.Context) (*entities.Movie, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls++
	if len(s.draws) == 0 {
		return nil, errFakeSource
	}
	d := s.draws[0]
	s.draws = s.draws[1:]
	return d.movie, d.err
}

func usable(id int64, title string) drawResult {
	return drawResult{movie: &entities.Movie{ID: id, Title: title, BackdropPaths: []string{"/b.jpg"}}}
}

func noImages(id int64) drawResult {
	return drawResult{movie: &entities.Movie{ID: id, Title: "no images"}}
}

func failed() drawResult {
	return drawResult{err: errFakeSource}
}

// cyclingSource returns usable movies with ids 1..n in a loop; safe for concurrent use.
type cyclingSource struct {
	mu   sync.Mutex
	n    int64
	next int64
}

func (s *cyclingSource) Draw(_ context.Context) (*entities.Movie, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.next = s.next%s.n + 1
	return &entities.Movie{ID: s.next, Title: "movie", BackdropPaths: []string{"/b.jpg"}}, nil
}

// fakeClient implements CatalogClient.
type fakeClient struct {
	mu          sync.Mutex
	stubs       []entities.MovieStub
	backdrops   map[int64][]string
	discoverErr error
	imagesErr   error
	years       []int
}

func (c *fakeClient) Discover(_ context.Context, year int) ([]entities.MovieStub, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.years = append(c.years, year)
	if c.discoverErr != nil {
		return nil, c.discoverErr
	}
	return c.stubs, nil
}

func (c *fakeClient) Backdrops(_ context.Context, movieID int64) ([]string, error) {
	if c.imagesErr != nil {
		return nil, c.imagesErr
	}
	return c.backdrops[movieID], nil
}

// builderFunc adapts a function to RoundAssembler.
type builderFunc func(ctx context.Context, index uint64) (*entities.Round, error)

func (f builderFunc) Build(ctx context.Context, index uint64) (*entities.Round, error) {
	return f(ctx, index)
}

// fixedRound returns a round with target 42 "X" and three distractors.
func fixedRound(index uint64) (*entities.Round, error) {
	target := entities.Movie{ID: 42, Title: "X", PosterPath: "/x.jpg", BackdropPaths: []string{"/x1.jpg"}}
	options := []entities.Movie{
		{ID: 7, Title: "A", BackdropPaths: []string{"/a.jpg"}},
		target,
		{ID: 8, Title: "B", BackdropPaths: []string{"/b.jpg"}},
		{ID: 9, Title: "C", BackdropPaths: []string{"/c.jpg"}},
	}
	return entities.NewRound(index, target, options)
}
