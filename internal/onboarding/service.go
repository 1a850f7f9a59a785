package onboarding

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var ErrUnknownStep = errors.New("unknown onboarding step")

type Service struct {
	Repo            Repo
	TutorialEnabled bool
	Now             func() time.Time
}

func NewService(repo Repo, tutorialEnabled bool) *Service {
	return &Service{Repo: repo, TutorialEnabled: tutorialEnabled, Now: time.Now}
}

// NextSteps returns the notices the user has not seen yet, in display order.
func (s *Service) NextSteps(ctx context.Context, userID int64) ([]Step, error) {
	out := []Step{}
	if !s.TutorialEnabled {
		return out, nil
	}
	seen, err := s.Repo.ListSeen(ctx, userID)
	if err != nil {
		return nil, err
	}
	done := make(map[string]struct{}, len(seen))
	for _, step := range seen {
		done[step.Step] = struct{}{}
	}
	for _, name := range OneTimeNotices {
		if _, ok := done[name]; ok {
			continue
		}
		out = append(out, Step{Type: StepTypeOneTimeNotice, Name: name})
	}
	return out, nil
}

// MarkSeen records that the user dismissed name. Marking twice is a no-op.
func (s *Service) MarkSeen(ctx context.Context, userID int64, name string) error {
	if !isKnownNotice(name) {
		return fmt.Errorf("%w: %q", ErrUnknownStep, name)
	}
	return s.Repo.MarkSeen(ctx, userID, name, s.now())
}

// CopySteps gives target every step source has seen, keeping timestamps.
// Used when an account is imported into another realm.
func (s *Service) CopySteps(ctx context.Context, sourceUserID, targetUserID int64) error {
	seen, err := s.Repo.ListSeen(ctx, sourceUserID)
	if err != nil {
		return err
	}
	copies := make([]SeenStep, 0, len(seen))
	for _, step := range seen {
		copies = append(copies, SeenStep{UserID: targetUserID, Step: step.Step, SeenAt: step.SeenAt})
	}
	return s.Repo.Copy(ctx, copies)
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}
