package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func TestRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestID())
	router.GET("/api/v1/user_uploads", func(c *gin.Context) {
		c.String(http.StatusOK, RequestIDFromContext(c))
	})

	tests := []struct {
		name    string
		inbound string
		reuse   bool
	}{
		{name: "reuses inbound id", inbound: "req-42", reuse: true},
		{name: "generates when missing"},
		{name: "replaces id with spaces", inbound: "req 42"},
		{name: "replaces oversized id", inbound: strings.Repeat("a", maxRequestIDLen+1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/user_uploads", nil)
			if tt.inbound != "" {
				req.Header.Set(requestIDHeader, tt.inbound)
			}
			resp := httptest.NewRecorder()
			router.ServeHTTP(resp, req)

			got := resp.Header().Get(requestIDHeader)
			if got != resp.Body.String() {
				t.Fatalf("header %q does not match context %q", got, resp.Body.String())
			}
			if tt.reuse {
				if got != tt.inbound {
					t.Fatalf("expected %q, got %q", tt.inbound, got)
				}
				return
			}
			if _, err := uuid.Parse(got); err != nil {
				t.Fatalf("expected generated uuid, got %q", got)
			}
		})
	}
}
