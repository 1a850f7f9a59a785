package exports

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("export not found")

type Repo interface {
	Create(ctx context.Context, e Export) (Export, error)
	GetByID(ctx context.Context, id int64) (Export, error)
	ListByRealm(ctx context.Context, realmID int64) ([]Export, error)
	MarkDeleted(ctx context.Context, id int64, at time.Time) error
}
