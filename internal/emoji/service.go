package emoji

import (
	"context"
	"errors"
	"fmt"

	"realm-uploads/internal/shared/storage/object"
	"realm-uploads/internal/shared/telemetry"
	"realm-uploads/internal/thumbnail"
)

var (
	ErrInvalidInput = errors.New("invalid emoji")
	ErrTooLarge     = errors.New("emoji too large")
	ErrForbidden    = errors.New("not allowed to remove this emoji")
)

// Store is the slice of the upload backend custom emoji need.
type Store interface {
	EmojiURL(fileName string, realmID int64, still bool) string
	UploadSingleEmojiImage(ctx context.Context, path, contentType string, uploader *object.Uploader, data []byte) error
}

type Service struct {
	Repo     Repo
	Store    Store
	MaxBytes int64
}

func NewService(repo Repo, store Store, maxBytes int64) *Service {
	return &Service{Repo: repo, Store: store, MaxBytes: maxBytes}
}

// Actor is the user adding or removing an emoji.
type Actor struct {
	UserID  int64
	RealmID int64
	IsAdmin bool
}

// ValidateName checks the emoji name format.
func ValidateName(name string) error {
	if name == "" || len(name) > maxNameLength || !validName.MatchString(name) {
		return fmt.Errorf("%w: invalid name %q", ErrInvalidInput, name)
	}
	return nil
}

// Add resizes and stores an emoji image. The stored file is named after the
// emoji id; animated GIFs also get a still preview.
func (s *Service) Add(ctx context.Context, actor Actor, name string, data []byte, contentType string) (View, error) {
	if s == nil || s.Repo == nil || s.Store == nil {
		return View{}, errors.New("emoji service not configured")
	}
	if err := ValidateName(name); err != nil {
		return View{}, err
	}
	if len(data) == 0 {
		return View{}, fmt.Errorf("%w: empty file", ErrInvalidInput)
	}
	if s.MaxBytes > 0 && int64(len(data)) > s.MaxBytes {
		return View{}, ErrTooLarge
	}
	resized, still, err := thumbnail.ResizeEmoji(data, thumbnail.DefaultEmojiSize)
	if err != nil {
		return View{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	e, err := s.Repo.Create(ctx, Emoji{RealmID: actor.RealmID, AuthorID: actor.UserID, Name: name})
	if err != nil {
		return View{}, err
	}
	fileName := fmt.Sprintf("%d%s", e.ID, extensionFor(resized.ContentType))
	uploader := &object.Uploader{UserID: actor.UserID, RealmID: actor.RealmID}

	if err := s.store(ctx, e, fileName, uploader, data, contentType, resized, still); err != nil {
		if derr := s.Repo.Deactivate(ctx, e.ID); derr != nil {
			telemetry.Warn("emoji.rollback.failed", map[string]any{"emoji_id": e.ID, "error": derr})
		}
		return View{}, err
	}
	animated := still != nil
	if err := s.Repo.SetFile(ctx, e.ID, fileName, animated); err != nil {
		return View{}, err
	}
	e.FileName = fileName
	e.IsAnimated = animated
	return s.view(e), nil
}

func (s *Service) store(ctx context.Context, e Emoji, fileName string, uploader *object.Uploader, original []byte, contentType string, resized thumbnail.Result, still []byte) error {
	path := object.EmojiPath(e.RealmID, fileName)
	if contentType == "" {
		contentType = resized.ContentType
	}
	if err := s.Store.UploadSingleEmojiImage(ctx, object.OriginalPath(path), contentType, uploader, original); err != nil {
		return fmt.Errorf("store emoji original: %w", err)
	}
	if err := s.Store.UploadSingleEmojiImage(ctx, path, resized.ContentType, uploader, resized.Data); err != nil {
		return fmt.Errorf("store emoji: %w", err)
	}
	if still != nil {
		if err := s.Store.UploadSingleEmojiImage(ctx, object.EmojiStillPath(e.RealmID, fileName), "image/png", uploader, still); err != nil {
			return fmt.Errorf("store emoji still: %w", err)
		}
	}
	return nil
}

// List returns every emoji of the realm, deactivated ones included.
func (s *Service) List(ctx context.Context, realmID int64) ([]View, error) {
	items, err := s.Repo.ListByRealm(ctx, realmID)
	if err != nil {
		return nil, err
	}
	out := make([]View, 0, len(items))
	for _, e := range items {
		if e.FileName == "" {
			continue
		}
		out = append(out, s.view(e))
	}
	return out, nil
}

// Deactivate hides an emoji. Its images stay in storage so existing
// messages keep rendering.
func (s *Service) Deactivate(ctx context.Context, actor Actor, name string) error {
	e, err := s.Repo.GetActiveByName(ctx, actor.RealmID, name)
	if err != nil {
		return err
	}
	if !actor.IsAdmin && e.AuthorID != actor.UserID {
		return ErrForbidden
	}
	return s.Repo.Deactivate(ctx, e.ID)
}

func (s *Service) view(e Emoji) View {
	v := View{
		ID:          e.ID,
		Name:        e.Name,
		SourceURL:   s.Store.EmojiURL(e.FileName, e.RealmID, false),
		Deactivated: e.Deactivated,
		AuthorID:    e.AuthorID,
	}
	if e.IsAnimated {
		v.StillURL = s.Store.EmojiURL(e.FileName, e.RealmID, true)
	}
	return v
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/gif":
		return ".gif"
	case "image/jpeg":
		return ".jpg"
	default:
		return ".png"
	}
}
