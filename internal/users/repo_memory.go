package users

import (
	"context"
	"sync"
	"time"
)

type MemoryRepo struct {
	mu    sync.RWMutex
	users map[int64]User
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{users: make(map[int64]User)}
}

func (r *MemoryRepo) Upsert(ctx context.Context, user User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.users[user.ID]
	if !ok {
		user.CreatedAt = time.Now().UTC()
	} else {
		user.CreatedAt = existing.CreatedAt
		user.AvatarSource = existing.AvatarSource
		user.AvatarVersion = existing.AvatarVersion
		user.AvatarHash = existing.AvatarHash
	}
	if user.AvatarSource == "" {
		user.AvatarSource = AvatarFromGravatar
	}
	if user.AvatarVersion == 0 {
		user.AvatarVersion = 1
	}
	r.users[user.ID] = user
	return nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, userID int64) (User, error) {
	if err := ctx.Err(); err != nil {
		return User{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.users[userID]
	if !ok {
		return User{}, ErrNotFound
	}
	return user, nil
}

func (r *MemoryRepo) UpdateAvatar(ctx context.Context, userID int64, change AvatarChange) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[userID]
	if !ok {
		return ErrNotFound
	}
	user.AvatarSource = change.Source
	user.AvatarVersion = change.Version
	user.AvatarHash = change.Hash
	r.users[userID] = user
	return nil
}
