package onboarding

import (
	"context"
	"sort"
	"sync"
	"time"
)

type MemoryRepo struct {
	mu   sync.RWMutex
	seen map[int64]map[string]time.Time
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{seen: make(map[int64]map[string]time.Time)}
}

func (r *MemoryRepo) ListSeen(ctx context.Context, userID int64) ([]SeenStep, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]SeenStep, 0, len(r.seen[userID]))
	for step, at := range r.seen[userID] {
		out = append(out, SeenStep{UserID: userID, Step: step, SeenAt: at})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Step < out[j].Step })
	return out, nil
}

func (r *MemoryRepo) MarkSeen(ctx context.Context, userID int64, step string, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.insertLocked(userID, step, at)
	return nil
}

func (r *MemoryRepo) Copy(ctx context.Context, steps []SeenStep) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range steps {
		r.insertLocked(s.UserID, s.Step, s.SeenAt)
	}
	return nil
}

func (r *MemoryRepo) insertLocked(userID int64, step string, at time.Time) {
	steps, ok := r.seen[userID]
	if !ok {
		steps = make(map[string]time.Time)
		r.seen[userID] = steps
	}
	if _, exists := steps[step]; !exists {
		steps[step] = at
	}
}
