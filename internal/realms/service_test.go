package realms

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"realm-uploads/internal/shared/storage/object"
	"realm-uploads/internal/shared/storage/object/local"
)

func logoPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.NRGBA{R: 255, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

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
	svc := NewService(NewMemoryRepo(), backend, true, "/static/", 1<<20)
	if err := svc.Register(context.Background(), Realm{ID: 2, StringID: "zulip", URL: "https://zulip.example.com"}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	return svc, backend
}

func TestIconLifecycle(t *testing.T) {
	ctx := context.Background()
	svc, backend := newTestService(t)
	admin := Editor{UserID: 1, RealmID: 2, IsAdmin: true}

	realm, _ := svc.Get(ctx, 2)
	if !strings.HasPrefix(svc.IconURL(realm), "https://secure.gravatar.com/avatar/") {
		t.Fatalf("expected gravatar icon, got %s", svc.IconURL(realm))
	}

	realm, err := svc.UploadIcon(ctx, admin, logoPNG(t, 300, 300), "image/png")
	if err != nil {
		t.Fatalf("UploadIcon: %v", err)
	}
	if realm.IconSource != IconUploaded || realm.IconVersion != 2 {
		t.Fatalf("unexpected realm %+v", realm)
	}
	want := backend.PublicBaseURL() + "2/realm/icon.png?version=2"
	if got := svc.IconURL(realm); got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}
	if _, contentType, err := backend.Fetch(ctx, object.CategoryRealmIcon, "2/realm/icon.original"); err != nil || contentType != "image/png" {
		t.Fatalf("expected original stored: %v %s", err, contentType)
	}

	realm, err = svc.ResetIcon(ctx, admin)
	if err != nil {
		t.Fatalf("ResetIcon: %v", err)
	}
	if realm.IconSource != IconFromGravatar || realm.IconVersion != 3 {
		t.Fatalf("unexpected realm after reset %+v", realm)
	}
}

func TestNightLogoIsIndependent(t *testing.T) {
	ctx := context.Background()
	svc, backend := newTestService(t)
	admin := Editor{UserID: 1, RealmID: 2, IsAdmin: true}

	realm, err := svc.UploadLogo(ctx, admin, true, logoPNG(t, 1600, 100), "image/png")
	if err != nil {
		t.Fatalf("UploadLogo: %v", err)
	}
	if realm.NightLogoSource != LogoUploaded || realm.LogoSource != LogoDefault {
		t.Fatalf("only the night logo should change: %+v", realm)
	}
	if got := svc.LogoURL(realm, true); got != backend.PublicBaseURL()+"2/realm/night_logo.png?version=2" {
		t.Fatalf("unexpected night logo URL %s", got)
	}
	if got := svc.LogoURL(realm, false); got != "/static/images/logo/default-logo.svg?version=2" {
		t.Fatalf("unexpected day logo URL %s", got)
	}

	resized, _, err := backend.Fetch(ctx, object.CategoryRealmLogo, "2/realm/night_logo.png")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(resized))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if img.Bounds().Dx() > 800 || img.Bounds().Dy() > 100 {
		t.Fatalf("logo not resized: %v", img.Bounds())
	}

	realm, err = svc.ResetLogo(ctx, admin, true)
	if err != nil {
		t.Fatalf("ResetLogo: %v", err)
	}
	if realm.NightLogoSource != LogoDefault || realm.NightLogoVersion != 3 {
		t.Fatalf("unexpected realm after reset %+v", realm)
	}
}

func TestBrandingRequiresAdmin(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	member := Editor{UserID: 5, RealmID: 2}

	if _, err := svc.UploadIcon(ctx, member, logoPNG(t, 10, 10), "image/png"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if _, err := svc.ResetLogo(ctx, member, false); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	admin := Editor{UserID: 1, RealmID: 2, IsAdmin: true}
	if _, err := svc.UploadIcon(ctx, admin, []byte("nope"), "image/png"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if _, err := svc.UploadIcon(ctx, Editor{UserID: 1, RealmID: 99, IsAdmin: true}, logoPNG(t, 10, 10), "image/png"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestIconURLWithoutGravatar(t *testing.T) {
	svc := &Service{StaticURLPrefix: "/static/"}
	realm := Realm{ID: 1, IconSource: IconFromGravatar, IconVersion: 4}
	if got := svc.IconURL(realm); got != "/static/images/default-realm-icon.png?version=4" {
		t.Fatalf("unexpected icon URL %s", got)
	}
}
