package reporting

import (
	"context"
	"errors"
	"sync"
	"time"
)

// MemoryRepo is a simple in-memory reporting repository for tests and the CLI.
// It enforces client isolation on reads.

type MemoryRepo struct {
	mu sync.Mutex

	Runs []RunSummary
}

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{} }

func (r *MemoryRepo) SaveRun(ctx context.Context, s RunSummary) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Runs = append(r.Runs, s)
	return nil
}

func (r *MemoryRepo) ListRuns(ctx context.Context, client string, from, to time.Time) ([]RunSummary, error) {
	if client == "" {
		return nil, errors.New("client required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]RunSummary, 0)
	for _, s := range r.Runs {
		if s.Client != client {
			continue
		}
		if !s.CreatedAt.IsZero() {
			if s.CreatedAt.Before(from) || !s.CreatedAt.Before(to) {
				continue
			}
		}
		out = append(out, s)
	}
	return out, nil
}
