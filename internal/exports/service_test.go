package exports

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"realm-uploads/internal/shared/storage/object"
	"realm-uploads/internal/shared/storage/object/local"
)

func newTestService(t *testing.T) (*Service, *object.Backend) {
	t.Helper()
	dir := t.TempDir()
	avatars, err := local.New(local.Options{Name: "avatars", BaseDir: dir, BaseURL: "http://localhost/local-objects", Public: true})
	if err != nil {
		t.Fatalf("local avatars: %v", err)
	}
	uploads, err := local.New(local.Options{Name: "uploads", BaseDir: dir, BaseURL: "http://localhost/local-objects"})
	if err != nil {
		t.Fatalf("local uploads: %v", err)
	}
	backend, err := object.NewBackend(context.Background(), object.Config{AvatarBucket: avatars, UploadsBucket: uploads})
	if err != nil {
		t.Fatalf("backend: %v", err)
	}
	svc := NewService(NewMemoryRepo(), backend)
	svc.Now = func() time.Time { return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC) }
	return svc, backend
}

func writeTarball(t *testing.T, size int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "zulip-export-abc.tar.gz")
	if err := os.WriteFile(path, make([]byte, size), 0o644); err != nil {
		t.Fatalf("write tarball: %v", err)
	}
	return path
}

func TestPublishListDelete(t *testing.T) {
	ctx := context.Background()
	svc, backend := newTestService(t)

	var last int64
	e, err := svc.Publish(ctx, 2, 1, writeTarball(t, 4096), func(sent int64) { last = sent })
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if e.Status != StatusCompleted || e.Size != 4096 || last != 4096 {
		t.Fatalf("unexpected export %+v (progress %d)", e, last)
	}
	if !strings.HasPrefix(e.ExportPath, "/exports/") || !strings.HasSuffix(e.ExportPath, "/zulip-export-abc.tar.gz") {
		t.Fatalf("unexpected export path %s", e.ExportPath)
	}
	if e.URL != backend.PublicBaseURL()+strings.TrimPrefix(e.ExportPath, "/") {
		t.Fatalf("unexpected url %s", e.URL)
	}

	if _, err := svc.List(ctx, 2, false); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	items, err := svc.List(ctx, 2, true)
	if err != nil || len(items) != 1 {
		t.Fatalf("List: %v %+v", err, items)
	}

	if err := svc.Delete(ctx, 3, true, e.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for other realm, got %v", err)
	}
	if err := svc.Delete(ctx, 2, true, e.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, _, err := backend.Fetch(ctx, object.CategoryExport, strings.TrimPrefix(e.ExportPath, "/")); !errors.Is(err, object.ErrNotFound) {
		t.Fatalf("expected tarball removed, got %v", err)
	}
	stored, _ := svc.Repo.GetByID(ctx, e.ID)
	if stored.Status != StatusDeleted || stored.DeletedAt == nil {
		t.Fatalf("expected record marked deleted, got %+v", stored)
	}
	if err := svc.Delete(ctx, 2, true, e.ID); !errors.Is(err, ErrAlreadyGone) {
		t.Fatalf("expected ErrAlreadyGone, got %v", err)
	}
}

func TestDeleteWithMissingTarballStillMarksRecord(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	e, err := svc.Repo.Create(ctx, Export{RealmID: 2, Status: StatusCompleted, ExportPath: "/exports/gone/x.tar.gz"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := svc.Delete(ctx, 2, true, e.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	stored, _ := svc.Repo.GetByID(ctx, e.ID)
	if stored.Status != StatusDeleted {
		t.Fatalf("expected deleted status, got %s", stored.Status)
	}
}

func TestPublishMissingFile(t *testing.T) {
	svc, _ := newTestService(t)
	if _, err := svc.Publish(context.Background(), 2, 1, filepath.Join(t.TempDir(), "nope.tar.gz"), nil); err == nil {
		t.Fatalf("expected error for missing tarball")
	}
}
