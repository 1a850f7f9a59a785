package attachments

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"realm-uploads/internal/shared/storage/object"
)

type fakeStore struct {
	mu       sync.Mutex
	objects  map[string][]byte
	types    map[string]string
	uploader map[string]object.Uploader
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: map[string][]byte{}, types: map[string]string{}, uploader: map[string]object.Uploader{}}
}

func (f *fakeStore) UploadMessageAttachment(_ context.Context, pathID, contentType string, data []byte, uploader *object.Uploader) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[pathID] = data
	f.types[pathID] = contentType
	f.uploader[pathID] = *uploader
	return nil
}

func (f *fakeStore) ResolveSignedURL(_ context.Context, path string, forceDownload bool) (string, error) {
	u := "https://uploads.example.com/" + path + "?X-Amz-Signature=abc"
	if forceDownload {
		u += "&response-content-disposition=attachment"
	}
	return u, nil
}

func (f *fakeStore) DeleteMessageAttachment(_ context.Context, pathID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.objects[pathID]
	delete(f.objects, pathID)
	return ok, nil
}

func TestUploadStoresUnderRealmPath(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	svc := NewService(NewMemoryRepo(), store, 1<<20)

	a, err := svc.Upload(ctx, 3, 7, "My Report (final).pdf", "", []byte("%PDF-1.4"))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	parts := strings.Split(a.PathID, "/")
	if len(parts) != 3 || parts[0] != "3" || parts[1] == "" {
		t.Fatalf("unexpected path id %s", a.PathID)
	}
	if strings.ContainsAny(parts[2], " ()") {
		t.Fatalf("file name not sanitized: %s", parts[2])
	}
	if a.ContentType != "application/pdf" {
		t.Fatalf("expected content type guessed from extension, got %s", a.ContentType)
	}
	if a.FileName != "My Report (final).pdf" || a.Size != 8 {
		t.Fatalf("unexpected record %+v", a)
	}
	if a.URI() != "/user_uploads/"+a.PathID {
		t.Fatalf("unexpected uri %s", a.URI())
	}
	if store.uploader[a.PathID] != (object.Uploader{UserID: 7, RealmID: 3}) {
		t.Fatalf("uploader metadata not passed")
	}
}

func TestUploadRejects(t *testing.T) {
	svc := NewService(NewMemoryRepo(), newFakeStore(), 4)
	if _, err := svc.Upload(context.Background(), 1, 1, "big.txt", "text/plain", []byte("12345")); !errors.Is(err, ErrTooLarge) {
		t.Fatalf("expected ErrTooLarge, got %v", err)
	}
	if _, err := svc.Upload(context.Background(), 1, 1, "..", "text/plain", []byte("1")); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestSignedURLChecksRealm(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewMemoryRepo(), newFakeStore(), 0)
	a, err := svc.Upload(ctx, 3, 7, "notes.txt", "text/plain", []byte("hi"))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}

	url, err := svc.SignedURL(ctx, 3, a.PathID, true)
	if err != nil {
		t.Fatalf("SignedURL: %v", err)
	}
	if !strings.Contains(url, "response-content-disposition=attachment") {
		t.Fatalf("expected forced download, got %s", url)
	}
	if _, err := svc.SignedURL(ctx, 4, a.PathID, false); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for other realm, got %v", err)
	}
	if _, err := svc.SignedURL(ctx, 3, "3/unknown/file.txt", false); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown path, got %v", err)
	}
}

func TestDeleteOwnerOnly(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	svc := NewService(NewMemoryRepo(), store, 0)
	a, err := svc.Upload(ctx, 3, 7, "notes.txt", "text/plain", []byte("hi"))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}

	if err := svc.Delete(ctx, 8, a.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for non-owner, got %v", err)
	}
	if err := svc.Delete(ctx, 7, a.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok := store.objects[a.PathID]; ok {
		t.Fatalf("expected object deleted")
	}
	if err := svc.Delete(ctx, 7, a.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestGuessContentType(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name, file, declared string
		data                 []byte
		want                 string
	}{
		{name: "declared wins", file: "a.bin", declared: "image/png", want: "image/png"},
		{name: "octet-stream falls back to extension", file: "a.png", declared: "application/octet-stream", want: "image/png"},
		{name: "sniffed", file: "noext", data: []byte("hello world"), want: "text/plain; charset=utf-8"},
		{name: "unknown", file: "noext", want: "application/octet-stream"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := guessContentType(tt.file, tt.declared, tt.data); got != tt.want {
				t.Fatalf("expected %s, got %s", tt.want, got)
			}
		})
	}
}
