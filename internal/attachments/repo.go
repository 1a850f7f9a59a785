package attachments

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("attachment not found")

type Repo interface {
	Create(ctx context.Context, a Attachment) (Attachment, error)
	GetByID(ctx context.Context, id int64) (Attachment, error)
	GetByPathID(ctx context.Context, pathID string) (Attachment, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]Attachment, error)
	Delete(ctx context.Context, id int64) error
}
