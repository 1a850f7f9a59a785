package minio

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"testing"

	"github.com/minio/minio-go/v7"

	"realm-uploads/internal/shared/storage/object"
)

func TestSplitEndpoint(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		endpoint   string
		useSSL     bool
		wantHost   string
		wantSecure bool
		wantErr    bool
	}{
		{name: "bare host keeps flag", endpoint: "minio:9000", useSSL: true, wantHost: "minio:9000", wantSecure: true},
		{name: "http url", endpoint: "http://minio:9000", useSSL: true, wantHost: "minio:9000", wantSecure: false},
		{name: "https url", endpoint: "https://s3.example.com/", wantHost: "s3.example.com", wantSecure: true},
		{name: "path rejected", endpoint: "http://minio:9000/bucket", wantErr: true},
		{name: "empty", endpoint: "", wantErr: true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			host, secure, err := splitEndpoint(tt.endpoint, tt.useSSL)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if host != tt.wantHost || secure != tt.wantSecure {
				t.Fatalf("got (%q, %v), want (%q, %v)", host, secure, tt.wantHost, tt.wantSecure)
			}
		})
	}
}

func TestIsNotFound(t *testing.T) {
	t.Parallel()

	if !isNotFound(minio.ErrorResponse{Code: "NoSuchKey", StatusCode: http.StatusNotFound}) {
		t.Fatalf("expected NoSuchKey to be not found")
	}
	if !isNotFound(minio.ErrorResponse{StatusCode: http.StatusNotFound}) {
		t.Fatalf("expected 404 to be not found")
	}
	if isNotFound(minio.ErrorResponse{Code: "AccessDenied", StatusCode: http.StatusForbidden}) {
		t.Fatalf("access denied is not a missing object")
	}
	if isNotFound(errors.New("dial tcp: refused")) {
		t.Fatalf("network errors are not missing objects")
	}
}

func TestPresignGetAndPublicBase(t *testing.T) {
	newBucket := func(name string) *Bucket {
		b, err := New(Options{
			Bucket:          name,
			EndpointURL:     "http://127.0.0.1:9000",
			Region:          "us-east-1",
			AccessKey:       "minioadmin",
			SecretKey:       "minioadmin",
			AddressingStyle: "path",
			SkipProxy:       true,
		})
		if err != nil {
			t.Fatalf("new bucket: %v", err)
		}
		return b
	}

	uploads := newBucket("uploads")
	raw, err := uploads.PresignGet(context.Background(), "2/tok/a.bin", object.SignedURLDuration, true)
	if err != nil {
		t.Fatalf("presign: %v", err)
	}
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if u.Path != "/uploads/2/tok/a.bin" {
		t.Fatalf("unexpected path %q", u.Path)
	}
	if u.Query().Get("X-Amz-Expires") != "60" {
		t.Fatalf("expected 60s expiry in %s", raw)
	}
	if u.Query().Get("response-content-disposition") != "attachment" {
		t.Fatalf("expected forced disposition in %s", raw)
	}

	backend, err := object.NewBackend(context.Background(), object.Config{AvatarBucket: newBucket("avatars"), UploadsBucket: uploads})
	if err != nil {
		t.Fatalf("new backend: %v", err)
	}
	if got := backend.PublicBaseURL(); got != "http://127.0.0.1:9000/avatars/" {
		t.Fatalf("unexpected public base %q", got)
	}
}
