package realms

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("realm not found")

// BrandingChange sets the source and version of one branding image.
type BrandingChange struct {
	Source  string
	Version int
}

type Repo interface {
	Upsert(ctx context.Context, realm Realm) error
	GetByID(ctx context.Context, id int64) (Realm, error)
	UpdateIcon(ctx context.Context, id int64, change BrandingChange) error
	UpdateLogo(ctx context.Context, id int64, night bool, change BrandingChange) error
}
