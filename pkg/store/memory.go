package store

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/matzehuels/forcegraph/pkg/errors"
)

// MemoryStore keeps runs in a map. Runs are copied on the way in and out.
type MemoryStore struct {
	mu   sync.RWMutex
	runs map[string]*Run
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{runs: make(map[string]*Run)}
}

func (s *MemoryStore) Save(_ context.Context, run *Run) error {
	if err := errors.ValidateRunID(run.ID); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[run.ID] = run.clone()
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Run, error) {
	if err := errors.ValidateRunID(id); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[id]
	if !ok {
		return nil, errors.New(errors.ErrCodeNotFound, "run %s not found", id)
	}
	return run.clone(), nil
}

func (s *MemoryStore) List(_ context.Context, opts ListOptions) ([]*Run, error) {
	s.mu.RLock()
	runs := make([]*Run, 0, len(s.runs))
	for _, r := range s.runs {
		runs = append(runs, r)
	}
	s.mu.RUnlock()

	slices.SortFunc(runs, func(a, b *Run) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})

	if opts.Offset >= len(runs) {
		return []*Run{}, nil
	}
	runs = runs[max(opts.Offset, 0):]
	runs = runs[:min(opts.limit(), len(runs))]

	out := make([]*Run, len(runs))
	for i, r := range runs {
		out[i] = r.clone()
	}
	return out, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	if err := errors.ValidateRunID(id); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.runs[id]; !ok {
		return errors.New(errors.ErrCodeNotFound, "run %s not found", id)
	}
	delete(s.runs, id)
	return nil
}

func (s *MemoryStore) Close(context.Context) error { return nil }

func (r *Run) clone() *Run {
	c := *r
	if r.Graph != nil {
		c.Graph = r.Graph.Clone()
	}
	if r.Force != nil {
		cfg := *r.Force
		c.Force = &cfg
	}
	return &c
}

var _ Store = (*MemoryStore)(nil)
