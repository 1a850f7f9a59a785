package emoji

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/color/palette"
	"image/gif"
	"image/png"
	"strings"
	"testing"

	"realm-uploads/internal/shared/storage/object"
	"realm-uploads/internal/shared/storage/object/local"
)

func staticPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 128, 128))
	img.Set(5, 5, color.NRGBA{G: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

func animatedGIF(t *testing.T) []byte {
	t.Helper()
	g := &gif.GIF{}
	for i := 0; i < 3; i++ {
		frame := image.NewPaletted(image.Rect(0, 0, 96, 96), palette.Plan9)
		frame.Set(i*10, i*10, color.White)
		g.Image = append(g.Image, frame)
		g.Delay = append(g.Delay, 10)
	}
	var buf bytes.Buffer
	if err := gif.EncodeAll(&buf, g); err != nil {
		t.Fatalf("encode gif: %v", err)
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
	return NewService(NewMemoryRepo(), backend, 1<<20), backend
}

func TestAddStaticEmoji(t *testing.T) {
	ctx := context.Background()
	svc, backend := newTestService(t)

	view, err := svc.Add(ctx, Actor{UserID: 5, RealmID: 2}, "green_tick", staticPNG(t), "image/png")
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	wantURL := backend.PublicBaseURL() + "2/emoji/images/1.png"
	if view.SourceURL != wantURL || view.StillURL != "" {
		t.Fatalf("unexpected view %+v", view)
	}
	resized, _, err := backend.Fetch(ctx, object.CategoryEmoji, "2/emoji/images/1.png")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(resized))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if img.Bounds().Dx() != 64 {
		t.Fatalf("expected 64px emoji, got %v", img.Bounds())
	}
	if _, _, err := backend.Fetch(ctx, object.CategoryEmoji, "2/emoji/images/1.png.original"); err != nil {
		t.Fatalf("expected original kept: %v", err)
	}
}

func TestAddAnimatedEmojiGetsStill(t *testing.T) {
	ctx := context.Background()
	svc, backend := newTestService(t)

	view, err := svc.Add(ctx, Actor{UserID: 5, RealmID: 2}, "party", animatedGIF(t), "image/gif")
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if !strings.HasSuffix(view.SourceURL, "/2/emoji/images/1.gif") {
		t.Fatalf("unexpected source URL %s", view.SourceURL)
	}
	if !strings.HasSuffix(view.StillURL, "/2/emoji/images/still/1.png") {
		t.Fatalf("unexpected still URL %s", view.StillURL)
	}
	if _, contentType, err := backend.Fetch(ctx, object.CategoryEmoji, "2/emoji/images/still/1.png"); err != nil || contentType != "image/png" {
		t.Fatalf("expected still png: %v %s", err, contentType)
	}
}

func TestDeactivateKeepsObjects(t *testing.T) {
	ctx := context.Background()
	svc, backend := newTestService(t)
	author := Actor{UserID: 5, RealmID: 2}

	if _, err := svc.Add(ctx, author, "wave", staticPNG(t), "image/png"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := svc.Add(ctx, author, "wave", staticPNG(t), "image/png"); !errors.Is(err, ErrNameTaken) {
		t.Fatalf("expected ErrNameTaken, got %v", err)
	}
	if err := svc.Deactivate(ctx, Actor{UserID: 6, RealmID: 2}, "wave"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if err := svc.Deactivate(ctx, author, "wave"); err != nil {
		t.Fatalf("Deactivate: %v", err)
	}
	if _, _, err := backend.Fetch(ctx, object.CategoryEmoji, "2/emoji/images/1.png"); err != nil {
		t.Fatalf("deactivation must keep the image: %v", err)
	}

	views, err := svc.List(ctx, 2)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(views) != 1 || !views[0].Deactivated {
		t.Fatalf("expected one deactivated emoji, got %+v", views)
	}
	if _, err := svc.Add(ctx, author, "wave", staticPNG(t), "image/png"); err != nil {
		t.Fatalf("name must be reusable after deactivation: %v", err)
	}
	if err := svc.Deactivate(ctx, Actor{UserID: 1, RealmID: 2, IsAdmin: true}, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestValidateName(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		ok   bool
	}{
		{"green_tick", true},
		{"a", true},
		{"party-parrot2", true},
		{"", false},
		{"Upper", false},
		{"trailing_", false},
		{"-leading", false},
		{"has space", false},
		{strings.Repeat("a", 61), false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := ValidateName(tt.name)
			if (err == nil) != tt.ok {
				t.Fatalf("ValidateName(%q) = %v", tt.name, err)
			}
		})
	}
}
