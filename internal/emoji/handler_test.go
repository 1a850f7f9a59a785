package emoji_test

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"realm-uploads/internal/bootstrap"
	"realm-uploads/internal/shared/config"
)

type emojiView struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	SourceURL   string `json:"source_url"`
	StillURL    string `json:"still_url"`
	Deactivated bool   `json:"deactivated"`
	AuthorID    int64  `json:"author_id"`
}

func newRouter(t *testing.T) http.Handler {
	t.Helper()
	gin.SetMode(gin.TestMode)
	app, err := bootstrap.Build(config.Config{
		Port:            "0",
		LocalStoreDir:   t.TempDir(),
		Env:             "dev",
		ObjectStoreType: "local",
	})
	if err != nil {
		t.Fatalf("bootstrap build: %v", err)
	}
	return app.Router
}

func do(router http.Handler, req *http.Request, userID string, admin bool) *httptest.ResponseRecorder {
	req.Header.Set("X-User-Id", userID)
	req.Header.Set("X-Realm-Id", "2")
	if admin {
		req.Header.Set("X-Is-Admin", "true")
	}
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func addRequest(t *testing.T, name string) *http.Request {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 128, 128))
	for i := 0; i < 128; i++ {
		img.Set(i, i, color.RGBA{G: 180, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	fileWriter, err := writer.CreateFormFile("file", name+".png")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	fileWriter.Write(buf.Bytes())
	writer.Close()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/realm/emoji/"+name, body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestEmojiAddListAndDeactivate(t *testing.T) {
	router := newRouter(t)

	resp := do(router, addRequest(t, "party_parrot"), "10", false)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var added emojiView
	if err := json.NewDecoder(resp.Body).Decode(&added); err != nil {
		t.Fatalf("decode add response: %v", err)
	}
	if !strings.HasPrefix(added.SourceURL, "/local-objects/avatars/2/emoji/images/") || !strings.HasSuffix(added.SourceURL, ".png") {
		t.Fatalf("unexpected source url %q", added.SourceURL)
	}
	if added.StillURL != "" {
		t.Fatalf("static emoji should have no still url, got %q", added.StillURL)
	}
	if added.AuthorID != 10 {
		t.Fatalf("expected author 10, got %d", added.AuthorID)
	}

	served := httptest.NewRecorder()
	router.ServeHTTP(served, httptest.NewRequest(http.MethodGet, added.SourceURL, nil))
	if served.Code != http.StatusOK {
		t.Fatalf("expected emoji image 200, got %d", served.Code)
	}

	dup := do(router, addRequest(t, "party_parrot"), "10", false)
	if dup.Code != http.StatusConflict {
		t.Fatalf("expected duplicate name 409, got %d", dup.Code)
	}

	forbidden := do(router, httptest.NewRequest(http.MethodDelete, "/api/v1/realm/emoji/party_parrot", nil), "11", false)
	if forbidden.Code != http.StatusForbidden {
		t.Fatalf("expected non-author delete 403, got %d", forbidden.Code)
	}

	removed := do(router, httptest.NewRequest(http.MethodDelete, "/api/v1/realm/emoji/party_parrot", nil), "11", true)
	if removed.Code != http.StatusOK {
		t.Fatalf("expected admin delete 200, got %d", removed.Code)
	}

	list := do(router, httptest.NewRequest(http.MethodGet, "/api/v1/realm/emoji", nil), "10", false)
	var listed struct {
		Emoji map[string]emojiView `json:"emoji"`
	}
	if err := json.NewDecoder(list.Body).Decode(&listed); err != nil {
		t.Fatalf("decode list response: %v", err)
	}
	if len(listed.Emoji) != 1 {
		t.Fatalf("expected 1 emoji, got %d", len(listed.Emoji))
	}
	for _, v := range listed.Emoji {
		if !v.Deactivated {
			t.Fatalf("expected deactivated emoji in listing")
		}
	}

	again := do(router, httptest.NewRequest(http.MethodDelete, "/api/v1/realm/emoji/party_parrot", nil), "10", true)
	if again.Code != http.StatusNotFound {
		t.Fatalf("expected second delete 404, got %d", again.Code)
	}
}

func TestEmojiAddRejectsBadName(t *testing.T) {
	router := newRouter(t)

	resp := do(router, addRequest(t, "Bad_Name"), "10", false)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.Code)
	}
}
