package local

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"realm-uploads/internal/shared/storage/object"
)

func newBucket(t *testing.T, name string, public bool) *Bucket {
	t.Helper()
	b, err := New(Options{
		Name:       name,
		BaseDir:    t.TempDir(),
		BaseURL:    "http://localhost:8080/local-objects/",
		SigningKey: "test-key",
		Public:     public,
		PageSize:   2,
	})
	if err != nil {
		t.Fatalf("new bucket: %v", err)
	}
	return b
}

func put(t *testing.T, b *Bucket, key, body, contentType string) {
	t.Helper()
	err := b.PutObject(context.Background(), key, strings.NewReader(body), int64(len(body)), object.PutOptions{
		ContentType: contentType,
		Metadata:    map[string]string{"realm_id": "2"},
	})
	if err != nil {
		t.Fatalf("put %s: %v", key, err)
	}
}

func TestPutGetHeadDelete(t *testing.T) {
	b := newBucket(t, "uploads", false)
	ctx := context.Background()
	put(t, b, "2/tok/hello.txt", "hello", "text/plain")

	obj, err := b.GetObject(ctx, "2/tok/hello.txt")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	data, _ := io.ReadAll(obj.Body)
	obj.Body.Close()
	if string(data) != "hello" || obj.Info.ContentType != "text/plain" {
		t.Fatalf("unexpected object %q %q", data, obj.Info.ContentType)
	}
	if obj.Info.Metadata["realm_id"] != "2" {
		t.Fatalf("metadata not persisted: %v", obj.Info.Metadata)
	}

	if err := b.DeleteObject(ctx, "2/tok/hello.txt"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := b.HeadObject(ctx, "2/tok/hello.txt"); !object.IsNotFound(err) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
	if err := b.DeleteObject(ctx, "2/tok/hello.txt"); !object.IsNotFound(err) {
		t.Fatalf("expected not found deleting twice, got %v", err)
	}
}

func TestRejectsTraversalKeys(t *testing.T) {
	b := newBucket(t, "uploads", false)
	for _, key := range []string{"../escape.txt", "/abs", ".meta/x.json", ""} {
		err := b.PutObject(context.Background(), key, bytes.NewReader(nil), 0, object.PutOptions{})
		if err == nil {
			t.Fatalf("expected error for key %q", key)
		}
	}
}

func TestListObjectsPaginates(t *testing.T) {
	b := newBucket(t, "avatars", true)
	for _, k := range []string{"a/1", "a/2", "b/1", "c/1", "c/2"} {
		put(t, b, k, "x", "image/png")
	}

	var got []string
	token := ""
	pages := 0
	for {
		page, err := b.ListObjects(context.Background(), token)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		pages++
		for _, it := range page.Items {
			got = append(got, it.Key)
		}
		if page.NextToken == "" {
			break
		}
		token = page.NextToken
	}
	if strings.Join(got, ",") != "a/1,a/2,b/1,c/1,c/2" {
		t.Fatalf("unexpected keys %v", got)
	}
	if pages != 3 {
		t.Fatalf("expected 3 pages of 2, got %d", pages)
	}
}

func TestDeleteObjectsIgnoresMissing(t *testing.T) {
	b := newBucket(t, "uploads", false)
	put(t, b, "2/a/x", "1", "text/plain")
	failed, err := b.DeleteObjects(context.Background(), []string{"2/a/x", "2/a/missing", "../bad"})
	if err != nil {
		t.Fatalf("delete objects: %v", err)
	}
	if len(failed) != 1 || failed[0] != "../bad" {
		t.Fatalf("unexpected failures %v", failed)
	}
}

func TestPresignVerify(t *testing.T) {
	b := newBucket(t, "uploads", false)
	now := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return now }

	raw, err := b.PresignGet(context.Background(), "2/tok/file name.pdf", object.SignedURLDuration, false)
	if err != nil {
		t.Fatalf("presign: %v", err)
	}
	if !strings.HasPrefix(raw, "http://localhost:8080/local-objects/uploads/2/tok/file%20name.pdf?") {
		t.Fatalf("unexpected url %s", raw)
	}
	u, _ := url.Parse(raw)
	if !b.Verify("2/tok/file name.pdf", u.Query()) {
		t.Fatalf("expected signature to verify")
	}
	if b.Verify("2/tok/other.pdf", u.Query()) {
		t.Fatalf("signature must be bound to the key")
	}

	tampered := u.Query()
	tampered.Set("disposition", "attachment")
	if b.Verify("2/tok/file name.pdf", tampered) {
		t.Fatalf("signature must be bound to the disposition")
	}

	now = now.Add(61 * time.Second)
	if b.Verify("2/tok/file name.pdf", u.Query()) {
		t.Fatalf("expected signature to expire")
	}
}

func TestHandlerServesSignedAndPublicObjects(t *testing.T) {
	gin.SetMode(gin.TestMode)
	uploads := newBucket(t, "uploads", false)
	avatars := newBucket(t, "avatars", true)
	put(t, uploads, "2/tok/doc.bin", "secret", "application/octet-stream")
	put(t, avatars, "2/abc", "png-bytes", "image/png")

	r := gin.New()
	NewHandler(uploads, avatars).RegisterRoutes(r.Group("/local-objects"))

	do := func(target string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
		return w
	}

	if w := do("/local-objects/uploads/2/tok/doc.bin"); w.Code != http.StatusForbidden {
		t.Fatalf("unsigned private read should be forbidden, got %d", w.Code)
	}

	signed, _ := uploads.PresignGet(context.Background(), "2/tok/doc.bin", time.Minute, true)
	u, _ := url.Parse(signed)
	w := do(u.RequestURI())
	if w.Code != http.StatusOK || w.Body.String() != "secret" {
		t.Fatalf("signed read failed: %d %q", w.Code, w.Body.String())
	}
	if w.Header().Get("Content-Disposition") != "attachment" {
		t.Fatalf("expected attachment disposition, got %q", w.Header().Get("Content-Disposition"))
	}

	w = do("/local-objects/avatars/2/abc")
	if w.Code != http.StatusOK || w.Header().Get("Content-Type") != "image/png" {
		t.Fatalf("public read failed: %d %q", w.Code, w.Header().Get("Content-Type"))
	}
	if w := do("/local-objects/avatars/2/missing"); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}
