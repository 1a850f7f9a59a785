package exports

import (
	"context"
	"errors"
	"fmt"
	"time"

	"realm-uploads/internal/shared/storage/object"
	"realm-uploads/internal/shared/telemetry"
)

var (
	ErrForbidden   = errors.New("must be an organization administrator")
	ErrAlreadyGone = errors.New("export already deleted")
)

// Store is the slice of the upload backend exports need.
type Store interface {
	UploadExportTarball(ctx context.Context, realmID int64, tarballPath string, progress object.ExportProgress) (string, string, error)
	ExportTarballURL(exportPath string) string
	DeleteExportTarball(ctx context.Context, exportPath string) (string, bool, error)
}

type Service struct {
	Repo  Repo
	Store Store
	Now   func() time.Time
}

func NewService(repo Repo, store Store) *Service {
	return &Service{Repo: repo, Store: store, Now: time.Now}
}

// Publish uploads a finished tarball and records it as completed.
func (s *Service) Publish(ctx context.Context, realmID, actingUserID int64, tarballPath string, progress object.ExportProgress) (Export, error) {
	if s == nil || s.Repo == nil || s.Store == nil {
		return Export{}, errors.New("exports service not configured")
	}
	var sent int64
	track := func(n int64) {
		sent = n
		if progress != nil {
			progress(n)
		}
	}
	url, exportPath, err := s.Store.UploadExportTarball(ctx, realmID, tarballPath, track)
	if err != nil {
		return Export{}, fmt.Errorf("upload export: %w", err)
	}
	completed := s.now()
	e, err := s.Repo.Create(ctx, Export{
		RealmID:      realmID,
		ActingUserID: actingUserID,
		Status:       StatusCompleted,
		ExportPath:   exportPath,
		URL:          url,
		Size:         sent,
		CompletedAt:  &completed,
	})
	if err != nil {
		return Export{}, err
	}
	telemetry.Info("export.published", map[string]any{
		"realm_id":  realmID,
		"export_id": e.ID,
		"path":      exportPath,
		"bytes":     sent,
	})
	return e, nil
}

// List returns the realm's exports, newest first. Admins only.
func (s *Service) List(ctx context.Context, realmID int64, isAdmin bool) ([]Export, error) {
	if !isAdmin {
		return nil, ErrForbidden
	}
	items, err := s.Repo.ListByRealm(ctx, realmID)
	if err != nil {
		return nil, err
	}
	for i := range items {
		if items[i].Status == StatusCompleted && items[i].ExportPath != "" {
			items[i].URL = s.Store.ExportTarballURL(items[i].ExportPath)
		}
	}
	return items, nil
}

// Delete removes the tarball and marks the record deleted. A tarball that
// is already gone from storage still marks the record.
func (s *Service) Delete(ctx context.Context, realmID int64, isAdmin bool, id int64) error {
	if !isAdmin {
		return ErrForbidden
	}
	e, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if e.RealmID != realmID {
		return ErrNotFound
	}
	if e.Status == StatusDeleted {
		return ErrAlreadyGone
	}
	if e.ExportPath != "" {
		if _, _, err := s.Store.DeleteExportTarball(ctx, e.ExportPath); err != nil {
			return fmt.Errorf("delete export tarball: %w", err)
		}
	}
	return s.Repo.MarkDeleted(ctx, e.ID, s.now())
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}
