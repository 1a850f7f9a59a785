package users

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
)

// ErrInvalidUser reports a registration that lacks identity or a usable email.
var ErrInvalidUser = errors.New("invalid user")

var errNotConfigured = errors.New("users service not configured")

type Service struct {
	Repo Repo
}

func NewService(repo Repo) *Service {
	return &Service{Repo: repo}
}

// Register persists a user in its realm. Re-registering keeps the stored
// avatar fields. Used by the dev seeding route and the admin CLI.
func (s *Service) Register(ctx context.Context, user User) error {
	if s == nil || s.Repo == nil {
		return errNotConfigured
	}
	if user.ID <= 0 || user.RealmID <= 0 {
		return fmt.Errorf("%w: user id and realm id are required", ErrInvalidUser)
	}
	addr, err := mail.ParseAddress(strings.TrimSpace(user.Email))
	if err != nil {
		return fmt.Errorf("%w: email: %v", ErrInvalidUser, err)
	}
	user.Email = addr.Address
	user.FullName = strings.TrimSpace(user.FullName)
	user.IsActive = true
	return s.Repo.Upsert(ctx, user)
}

func (s *Service) GetByID(ctx context.Context, userID int64) (User, error) {
	if s == nil || s.Repo == nil {
		return User{}, errNotConfigured
	}
	if userID <= 0 {
		return User{}, ErrNotFound
	}
	return s.Repo.GetByID(ctx, userID)
}
