package emoji

import (
	"context"
	"errors"
)

var (
	ErrNotFound  = errors.New("emoji not found")
	ErrNameTaken = errors.New("an active emoji with this name already exists")
)

type Repo interface {
	// Create inserts an emoji without a file. Names are unique among active
	// emoji of a realm.
	Create(ctx context.Context, e Emoji) (Emoji, error)
	SetFile(ctx context.Context, id int64, fileName string, animated bool) error
	GetActiveByName(ctx context.Context, realmID int64, name string) (Emoji, error)
	ListByRealm(ctx context.Context, realmID int64) ([]Emoji, error)
	Deactivate(ctx context.Context, id int64) error
}
