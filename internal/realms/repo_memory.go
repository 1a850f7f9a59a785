package realms

import (
	"context"
	"sync"
	"time"
)

type MemoryRepo struct {
	mu     sync.RWMutex
	realms map[int64]Realm
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{realms: make(map[int64]Realm)}
}

func (r *MemoryRepo) Upsert(ctx context.Context, realm Realm) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.realms[realm.ID]; ok {
		existing.StringID = realm.StringID
		existing.Name = realm.Name
		existing.URL = realm.URL
		r.realms[realm.ID] = existing
		return nil
	}
	realm.applyDefaults()
	realm.CreatedAt = time.Now().UTC()
	r.realms[realm.ID] = realm
	return nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, id int64) (Realm, error) {
	if err := ctx.Err(); err != nil {
		return Realm{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	realm, ok := r.realms[id]
	if !ok {
		return Realm{}, ErrNotFound
	}
	return realm, nil
}

func (r *MemoryRepo) UpdateIcon(ctx context.Context, id int64, change BrandingChange) error {
	return r.update(ctx, id, func(realm *Realm) {
		realm.IconSource = change.Source
		realm.IconVersion = change.Version
	})
}

func (r *MemoryRepo) UpdateLogo(ctx context.Context, id int64, night bool, change BrandingChange) error {
	return r.update(ctx, id, func(realm *Realm) {
		if night {
			realm.NightLogoSource = change.Source
			realm.NightLogoVersion = change.Version
			return
		}
		realm.LogoSource = change.Source
		realm.LogoVersion = change.Version
	})
}

func (r *MemoryRepo) update(ctx context.Context, id int64, fn func(*Realm)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	realm, ok := r.realms[id]
	if !ok {
		return ErrNotFound
	}
	fn(&realm)
	r.realms[id] = realm
	return nil
}
