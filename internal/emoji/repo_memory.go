package emoji

import (
	"context"
	"sort"
	"sync"
	"time"
)

type MemoryRepo struct {
	mu     sync.RWMutex
	nextID int64
	items  map[int64]Emoji
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{items: make(map[int64]Emoji)}
}

func (r *MemoryRepo) Create(ctx context.Context, e Emoji) (Emoji, error) {
	if err := ctx.Err(); err != nil {
		return Emoji{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.items {
		if existing.RealmID == e.RealmID && existing.Name == e.Name && !existing.Deactivated {
			return Emoji{}, ErrNameTaken
		}
	}
	r.nextID++
	e.ID = r.nextID
	e.CreatedAt = time.Now().UTC()
	r.items[e.ID] = e
	return e, nil
}

func (r *MemoryRepo) SetFile(ctx context.Context, id int64, fileName string, animated bool) error {
	return r.update(ctx, id, func(e *Emoji) {
		e.FileName = fileName
		e.IsAnimated = animated
	})
}

func (r *MemoryRepo) GetActiveByName(ctx context.Context, realmID int64, name string) (Emoji, error) {
	if err := ctx.Err(); err != nil {
		return Emoji{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, e := range r.items {
		if e.RealmID == realmID && e.Name == name && !e.Deactivated {
			return e, nil
		}
	}
	return Emoji{}, ErrNotFound
}

func (r *MemoryRepo) ListByRealm(ctx context.Context, realmID int64) ([]Emoji, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Emoji
	for _, e := range r.items {
		if e.RealmID == realmID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *MemoryRepo) Deactivate(ctx context.Context, id int64) error {
	return r.update(ctx, id, func(e *Emoji) { e.Deactivated = true })
}

func (r *MemoryRepo) update(ctx context.Context, id int64, fn func(*Emoji)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.items[id]
	if !ok {
		return ErrNotFound
	}
	fn(&e)
	r.items[id] = e
	return nil
}
