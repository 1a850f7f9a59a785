package avatars

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"realm-uploads/internal/shared/storage/object"
	"realm-uploads/internal/shared/telemetry"
	"realm-uploads/internal/shared/util"
	"realm-uploads/internal/thumbnail"
	"realm-uploads/internal/users"
)

var (
	ErrInvalidInput = errors.New("invalid avatar")
	ErrTooLarge     = errors.New("avatar too large")
)

// Store is the slice of the upload backend avatars need.
type Store interface {
	URLBuilder
	UploadSingleAvatarImage(ctx context.Context, filePath string, uploader *object.Uploader, data []byte, contentType string, avatarVersion int) error
	DeleteAvatarImage(ctx context.Context, hashKey string) error
	AvatarContents(ctx context.Context, hashKey string) ([]byte, string, error)
}

type Service struct {
	Users    users.Repo
	Store    Store
	Resolver *Resolver
	MaxBytes int64
}

func NewService(repo users.Repo, store Store, resolver *Resolver, maxBytes int64) *Service {
	return &Service{Users: repo, Store: store, Resolver: resolver, MaxBytes: maxBytes}
}

// Upload stores the original and both renditions under a fresh version and
// switches the user to the uploaded avatar. The previous uploaded version is
// removed afterwards. Re-uploading the current avatar's bytes changes nothing.
func (s *Service) Upload(ctx context.Context, userID int64, data []byte, contentType string) (users.User, error) {
	if s == nil || s.Users == nil || s.Store == nil {
		return users.User{}, errors.New("avatar service not configured")
	}
	if len(data) == 0 {
		return users.User{}, fmt.Errorf("%w: empty file", ErrInvalidInput)
	}
	if s.MaxBytes > 0 && int64(len(data)) > s.MaxBytes {
		return users.User{}, ErrTooLarge
	}
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}
	if !strings.HasPrefix(contentType, "image/") {
		return users.User{}, fmt.Errorf("%w: unsupported content type %s", ErrInvalidInput, contentType)
	}

	user, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		return users.User{}, err
	}
	if user.HasUploadedAvatar() && !IsAvatarNew(data, user) {
		return user, nil
	}

	medium, err := thumbnail.ResizeAvatar(data, thumbnail.MediumAvatarSize)
	if err != nil {
		return users.User{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	small, err := thumbnail.ResizeAvatar(data, thumbnail.DefaultAvatarSize)
	if err != nil {
		return users.User{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	version := user.AvatarVersion + 1
	hashKey := s.Resolver.HashKey(user, version)
	uploader := &object.Uploader{UserID: user.ID, RealmID: user.RealmID}
	renditions := []struct {
		path        string
		data        []byte
		contentType string
	}{
		{object.OriginalPath(hashKey), data, contentType},
		{object.AvatarPath(hashKey, true), medium, "image/png"},
		{object.AvatarPath(hashKey, false), small, "image/png"},
	}
	for _, r := range renditions {
		if err := s.Store.UploadSingleAvatarImage(ctx, r.path, uploader, r.data, r.contentType, version); err != nil {
			return users.User{}, fmt.Errorf("store avatar: %w", err)
		}
	}

	change := users.AvatarChange{Source: users.AvatarFromUser, Version: version, Hash: util.ContentHash(data)}
	if err := s.Users.UpdateAvatar(ctx, user.ID, change); err != nil {
		return users.User{}, err
	}
	if user.HasUploadedAvatar() {
		s.deleteVersion(ctx, user, user.AvatarVersion)
	}

	user.AvatarSource = change.Source
	user.AvatarVersion = change.Version
	user.AvatarHash = change.Hash
	return user, nil
}

// Reset returns the user to the gravatar/default avatar and deletes the
// uploaded images.
func (s *Service) Reset(ctx context.Context, userID int64) (users.User, error) {
	if s == nil || s.Users == nil || s.Store == nil {
		return users.User{}, errors.New("avatar service not configured")
	}
	user, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		return users.User{}, err
	}
	change := users.AvatarChange{Source: users.AvatarFromGravatar, Version: user.AvatarVersion + 1}
	if err := s.Users.UpdateAvatar(ctx, user.ID, change); err != nil {
		return users.User{}, err
	}
	if user.HasUploadedAvatar() {
		s.deleteVersion(ctx, user, user.AvatarVersion)
	}
	user.AvatarSource = change.Source
	user.AvatarVersion = change.Version
	user.AvatarHash = ""
	return user, nil
}

// Original returns the unmodified upload of the user's current avatar.
func (s *Service) Original(ctx context.Context, userID int64) ([]byte, string, error) {
	user, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, "", err
	}
	if !user.HasUploadedAvatar() {
		return nil, "", object.ErrNotFound
	}
	return s.Store.AvatarContents(ctx, s.Resolver.HashKey(user, user.AvatarVersion))
}

func (s *Service) deleteVersion(ctx context.Context, user users.User, version int) {
	if err := s.Store.DeleteAvatarImage(ctx, s.Resolver.HashKey(user, version)); err != nil {
		telemetry.Warn("avatar.delete_previous.failed", map[string]any{
			"user_id": user.ID,
			"version": version,
			"error":   err,
		})
	}
}
