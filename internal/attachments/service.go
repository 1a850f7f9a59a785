package attachments

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"path"
	"strings"

	"realm-uploads/internal/shared/storage/object"
	"realm-uploads/internal/shared/telemetry"
	"realm-uploads/internal/shared/util"
)

var (
	ErrInvalidInput = errors.New("invalid attachment")
	ErrTooLarge     = errors.New("attachment too large")
)

// Store is the slice of the upload backend attachments need.
type Store interface {
	UploadMessageAttachment(ctx context.Context, pathID, contentType string, data []byte, uploader *object.Uploader) error
	ResolveSignedURL(ctx context.Context, path string, forceDownload bool) (string, error)
	DeleteMessageAttachment(ctx context.Context, pathID string) (bool, error)
}

type Service struct {
	Repo     Repo
	Store    Store
	MaxBytes int64
}

func NewService(repo Repo, store Store, maxBytes int64) *Service {
	return &Service{Repo: repo, Store: store, MaxBytes: maxBytes}
}

// Upload stores data under a fresh unguessable path and records the attachment.
func (s *Service) Upload(ctx context.Context, realmID, ownerID int64, fileName, contentType string, data []byte) (Attachment, error) {
	if s == nil || s.Repo == nil || s.Store == nil {
		return Attachment{}, errors.New("attachments service not configured")
	}
	if s.MaxBytes > 0 && int64(len(data)) > s.MaxBytes {
		return Attachment{}, ErrTooLarge
	}
	safeName, err := util.SanitizeFileName(fileName)
	if err != nil {
		return Attachment{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	contentType = guessContentType(safeName, contentType, data)

	pathID, err := object.GenerateMessageUploadPath(realmID, safeName)
	if err != nil {
		return Attachment{}, err
	}
	uploader := &object.Uploader{UserID: ownerID, RealmID: realmID}
	if err := s.Store.UploadMessageAttachment(ctx, pathID, contentType, data, uploader); err != nil {
		return Attachment{}, fmt.Errorf("store attachment: %w", err)
	}

	a, err := s.Repo.Create(ctx, Attachment{
		RealmID:     realmID,
		OwnerID:     ownerID,
		PathID:      pathID,
		FileName:    fileName,
		ContentType: contentType,
		Size:        int64(len(data)),
	})
	if err != nil {
		if _, derr := s.Store.DeleteMessageAttachment(ctx, pathID); derr != nil {
			telemetry.Warn("attachment.cleanup.failed", map[string]any{"path_id": pathID, "error": derr})
		}
		return Attachment{}, err
	}
	return a, nil
}

// SignedURL returns a short-lived URL for an attachment of the caller's realm.
func (s *Service) SignedURL(ctx context.Context, realmID int64, pathID string, download bool) (string, error) {
	a, err := s.Repo.GetByPathID(ctx, pathID)
	if err != nil {
		return "", err
	}
	if a.RealmID != realmID {
		return "", ErrNotFound
	}
	return s.Store.ResolveSignedURL(ctx, a.PathID, download)
}

func (s *Service) List(ctx context.Context, ownerID int64) ([]Attachment, error) {
	return s.Repo.ListByOwner(ctx, ownerID)
}

// Delete removes an attachment owned by ownerID. A missing storage object
// still removes the record.
func (s *Service) Delete(ctx context.Context, ownerID, id int64) error {
	a, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if a.OwnerID != ownerID {
		return ErrNotFound
	}
	if _, err := s.Store.DeleteMessageAttachment(ctx, a.PathID); err != nil {
		return fmt.Errorf("delete attachment object: %w", err)
	}
	return s.Repo.Delete(ctx, id)
}

func guessContentType(fileName, declared string, data []byte) string {
	declared = strings.TrimSpace(declared)
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}
	if byExt := mime.TypeByExtension(strings.ToLower(path.Ext(fileName))); byExt != "" {
		return byExt
	}
	if len(data) > 0 {
		return http.DetectContentType(data)
	}
	return "application/octet-stream"
}
