package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"realm-uploads/internal/shared/telemetry"
)

func TestLoggingNamesServedAttachment(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var buf bytes.Buffer
	telemetry.SetOutput(&buf)
	t.Cleanup(func() { telemetry.SetOutput(os.Stdout) })

	router := gin.New()
	router.Use(RequestID(), Auth("dev"), Logging())
	router.GET("/user_uploads/:realm/*path", func(c *gin.Context) {
		c.Set(PathIDKey, "2/ab/cdef/file.txt")
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	probes := gin.New()
	probes.Use(Logging())
	probes.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	probes.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
	if buf.Len() != 0 {
		t.Fatalf("expected health probe to be skipped, got %s", buf.String())
	}

	req := httptest.NewRequest(http.MethodGet, "/user_uploads/2/ab/cdef/file.txt", nil)
	req.Header.Set("X-User-Id", "9")
	req.Header.Set("X-Realm-Id", "2")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) == 0 || lines[0] == "" {
		t.Fatalf("expected log output")
	}
	last := lines[len(lines)-1]
	var payload map[string]any
	if err := json.Unmarshal([]byte(last), &payload); err != nil {
		t.Fatalf("decode log json: %v", err)
	}

	required := []string{"request_id", "user_id", "realm_id", "duration_ms", "status", "path_id", "route", "bytes"}
	for _, key := range required {
		if _, ok := payload[key]; !ok {
			t.Fatalf("missing log field: %s", key)
		}
	}
	if payload["user_id"] != float64(9) {
		t.Fatalf("unexpected user_id: %v", payload["user_id"])
	}
	if payload["realm_id"] != float64(2) {
		t.Fatalf("unexpected realm_id: %v", payload["realm_id"])
	}
	if payload["route"] != "/user_uploads/:realm/*path" {
		t.Fatalf("unexpected route: %v", payload["route"])
	}
	if payload["path_id"] != "2/ab/cdef/file.txt" {
		t.Fatalf("unexpected path_id: %v", payload["path_id"])
	}
}
