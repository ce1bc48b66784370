package repository

import (
	"math/rand"
	"sync"

	"github.com/olekszij/tmdb-quiz/internal/domain/entities"
)

// CandidatePool keeps prefetched discover results in memory.
// It is refreshed in the background and read by concurrent draws.
type CandidatePool struct {
	mu    sync.RWMutex
	stubs []entities.MovieStub
}

// NewCandidatePool creates an empty pool.
func NewCandidatePool() *CandidatePool {
	return &CandidatePool{}
}

// Replace swaps the pool contents, dropping duplicate ids.
func (p *CandidatePool) Replace(stubs []entities.MovieStub) {
	seen := make(map[int64]struct{}, len(stubs))
	unique := make([]entities.MovieStub, 0, len(stubs))
	for _, s := range stubs {
		if _, ok := seen[s.ID]; ok {
			continue
		}
		seen[s.ID] = struct{}{}
		unique = append(unique, s)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.stubs = unique
}

// Random returns a random stub, or false if the pool is empty.
func (p *CandidatePool) Random() (entities.MovieStub, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if len(p.stubs) == 0 {
		return entities.MovieStub{}, false
	}
	return p.stubs[rand.Intn(len(p.stubs))], true
}

// Size returns the number of stubs in the pool.
func (p *CandidatePool) Size() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.stubs)
}
