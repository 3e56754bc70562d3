package candidates

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spigell/cv-screener/internal/screening"
)

// MemoryStore keeps candidates in process memory.
type MemoryStore struct {
	mu         sync.RWMutex
	candidates map[string]*Candidate
	order      []string

	// locks serializes AppendResult per candidate id. Entries are only made
	// for stored candidates and live as long as the store, like the candidates.
	locks sync.Map

	now func() time.Time
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		candidates: make(map[string]*Candidate),
		now:        time.Now,
	}
}

func (s *MemoryStore) Create(_ context.Context, p Profile) (Candidate, error) {
	p, err := normalizeProfile(p)
	if err != nil {
		return Candidate{}, err
	}

	now := s.now().UTC()
	c := &Candidate{
		ID:        uuid.NewString(),
		Name:      p.Name,
		Email:     p.Email,
		History:   []screening.ScreeningResult{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.mu.Lock()
	s.candidates[c.ID] = c
	s.order = append(s.order, c.ID)
	s.mu.Unlock()

	return c.Clone(), nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (Candidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.candidates[id]
	if !ok {
		return Candidate{}, ErrNotFound
	}
	return c.Clone(), nil
}

func (s *MemoryStore) AppendResult(ctx context.Context, id string, result screening.ScreeningResult) (Candidate, error) {
	s.mu.RLock()
	_, ok := s.candidates[id]
	s.mu.RUnlock()
	if !ok {
		return Candidate{}, ErrNotFound
	}

	unlock := s.lock(id)
	defer unlock()

	current, err := s.Get(ctx, id)
	if err != nil {
		return Candidate{}, err
	}

	current.History = append(current.History, cloneResult(result))
	current.LatestResult = &current.History[len(current.History)-1]
	current.UpdatedAt = s.now().UTC()

	s.mu.Lock()
	s.candidates[id] = &current
	s.mu.Unlock()

	return current.Clone(), nil
}

func (s *MemoryStore) List(_ context.Context, f Filter) ([]Candidate, error) {
	s.mu.RLock()
	list := make([]Candidate, 0, len(s.order))
	for _, id := range s.order {
		list = append(list, s.candidates[id].Clone())
	}
	s.mu.RUnlock()

	return f.apply(list), nil
}

func (s *MemoryStore) Close() error { return nil }

func (s *MemoryStore) lock(id string) func() {
	value, _ := s.locks.LoadOrStore(id, &sync.Mutex{})
	mu := value.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}
