package onboarding

import (
	"context"
	"time"
)

type Repo interface {
	ListSeen(ctx context.Context, userID int64) ([]SeenStep, error)
	// MarkSeen keeps the first timestamp when the step was already seen.
	MarkSeen(ctx context.Context, userID int64, step string, at time.Time) error
	// Copy inserts the given records, skipping steps the user has already seen.
	Copy(ctx context.Context, steps []SeenStep) error
}
