package users

import "context"

var ErrNotFound = errNotFound{}

type errNotFound struct{}

func (errNotFound) Error() string { return "user not found" }

// AvatarChange is applied atomically to a user row.
type AvatarChange struct {
	Source  string
	Version int
	Hash    string
}

type Repo interface {
	Upsert(ctx context.Context, user User) error
	GetByID(ctx context.Context, userID int64) (User, error)
	UpdateAvatar(ctx context.Context, userID int64, change AvatarChange) error
}
