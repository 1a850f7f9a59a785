package realms

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"realm-uploads/internal/shared/storage/object"
	"realm-uploads/internal/shared/util"
	"realm-uploads/internal/thumbnail"
)

var (
	ErrInvalidInput = errors.New("invalid image")
	ErrTooLarge     = errors.New("image too large")
	ErrForbidden    = errors.New("must be an organization administrator")
)

// Store is the slice of the upload backend realm branding needs.
type Store interface {
	RealmIconURL(realmID int64, version int) string
	RealmLogoURL(realmID int64, version int, night bool) string
	UploadRealmIconImage(ctx context.Context, realmID int64, uploader *object.Uploader, original []byte, contentType string, resized []byte) error
	UploadRealmLogoImage(ctx context.Context, realmID int64, uploader *object.Uploader, night bool, original []byte, contentType string, resized []byte) error
}

type Service struct {
	Repo            Repo
	Store           Store
	EnableGravatar  bool
	StaticURLPrefix string
	MaxBytes        int64
}

func NewService(repo Repo, store Store, enableGravatar bool, staticURLPrefix string, maxBytes int64) *Service {
	return &Service{Repo: repo, Store: store, EnableGravatar: enableGravatar, StaticURLPrefix: staticURLPrefix, MaxBytes: maxBytes}
}

// Editor is the user changing realm branding.
type Editor struct {
	UserID  int64
	RealmID int64
	IsAdmin bool
}

func (s *Service) Get(ctx context.Context, realmID int64) (Realm, error) {
	return s.Repo.GetByID(ctx, realmID)
}

// Register creates or renames a realm.
func (s *Service) Register(ctx context.Context, realm Realm) error {
	if realm.ID <= 0 || strings.TrimSpace(realm.StringID) == "" {
		return fmt.Errorf("%w: realm id and string id are required", ErrInvalidInput)
	}
	if realm.Name == "" {
		realm.Name = realm.StringID
	}
	return s.Repo.Upsert(ctx, realm)
}

// IconURL returns the versioned icon URL: the upload when there is one,
// otherwise a gravatar identicon for the realm or the static default.
func (s *Service) IconURL(realm Realm) string {
	if realm.IconSource == IconUploaded {
		return s.Store.RealmIconURL(realm.ID, realm.IconVersion)
	}
	if s.EnableGravatar {
		return fmt.Sprintf("https://secure.gravatar.com/avatar/%s?d=blank&version=%d", util.GravatarHash(realm.StringID), realm.IconVersion)
	}
	return fmt.Sprintf("%simages/default-realm-icon.png?version=%d", s.StaticURLPrefix, realm.IconVersion)
}

// LogoURL returns the day or night logo URL.
func (s *Service) LogoURL(realm Realm, night bool) string {
	source, version := realm.Logo(night)
	if source == LogoUploaded {
		return s.Store.RealmLogoURL(realm.ID, version, night)
	}
	return s.StaticURLPrefix + "images/logo/default-logo.svg?version=2"
}

func (s *Service) UploadIcon(ctx context.Context, editor Editor, data []byte, contentType string) (Realm, error) {
	realm, err := s.authorize(ctx, editor, data)
	if err != nil {
		return Realm{}, err
	}
	resized, err := thumbnail.ResizeAvatar(data, thumbnail.DefaultAvatarSize)
	if err != nil {
		return Realm{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	uploader := &object.Uploader{UserID: editor.UserID, RealmID: realm.ID}
	if err := s.Store.UploadRealmIconImage(ctx, realm.ID, uploader, data, contentType, resized); err != nil {
		return Realm{}, fmt.Errorf("store realm icon: %w", err)
	}
	change := BrandingChange{Source: IconUploaded, Version: realm.IconVersion + 1}
	if err := s.Repo.UpdateIcon(ctx, realm.ID, change); err != nil {
		return Realm{}, err
	}
	realm.IconSource, realm.IconVersion = change.Source, change.Version
	return realm, nil
}

// ResetIcon switches back to the default icon. Stored objects are kept.
func (s *Service) ResetIcon(ctx context.Context, editor Editor) (Realm, error) {
	realm, err := s.authorize(ctx, editor, nil)
	if err != nil {
		return Realm{}, err
	}
	change := BrandingChange{Source: IconFromGravatar, Version: realm.IconVersion + 1}
	if err := s.Repo.UpdateIcon(ctx, realm.ID, change); err != nil {
		return Realm{}, err
	}
	realm.IconSource, realm.IconVersion = change.Source, change.Version
	return realm, nil
}

func (s *Service) UploadLogo(ctx context.Context, editor Editor, night bool, data []byte, contentType string) (Realm, error) {
	realm, err := s.authorize(ctx, editor, data)
	if err != nil {
		return Realm{}, err
	}
	resized, err := thumbnail.ResizeLogo(data)
	if err != nil {
		return Realm{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	uploader := &object.Uploader{UserID: editor.UserID, RealmID: realm.ID}
	if err := s.Store.UploadRealmLogoImage(ctx, realm.ID, uploader, night, data, contentType, resized); err != nil {
		return Realm{}, fmt.Errorf("store realm logo: %w", err)
	}
	_, version := realm.Logo(night)
	change := BrandingChange{Source: LogoUploaded, Version: version + 1}
	if err := s.Repo.UpdateLogo(ctx, realm.ID, night, change); err != nil {
		return Realm{}, err
	}
	return s.Repo.GetByID(ctx, realm.ID)
}

func (s *Service) ResetLogo(ctx context.Context, editor Editor, night bool) (Realm, error) {
	realm, err := s.authorize(ctx, editor, nil)
	if err != nil {
		return Realm{}, err
	}
	_, version := realm.Logo(night)
	if err := s.Repo.UpdateLogo(ctx, realm.ID, night, BrandingChange{Source: LogoDefault, Version: version + 1}); err != nil {
		return Realm{}, err
	}
	return s.Repo.GetByID(ctx, realm.ID)
}

// authorize loads the editor's realm and validates the upload, if any.
func (s *Service) authorize(ctx context.Context, editor Editor, data []byte) (Realm, error) {
	if s == nil || s.Repo == nil || s.Store == nil {
		return Realm{}, errors.New("realms service not configured")
	}
	if !editor.IsAdmin {
		return Realm{}, ErrForbidden
	}
	if data != nil {
		if len(data) == 0 {
			return Realm{}, fmt.Errorf("%w: empty file", ErrInvalidInput)
		}
		if s.MaxBytes > 0 && int64(len(data)) > s.MaxBytes {
			return Realm{}, ErrTooLarge
		}
	}
	return s.Repo.GetByID(ctx, editor.RealmID)
}
