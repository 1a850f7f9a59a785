package object

import (
	"context"
	"io"
	"time"
)

// PutOptions carries the per-object attributes written alongside the bytes.
type PutOptions struct {
	ContentType        string
	ContentDisposition string
	CacheControl       string
	StorageClass       string
	Metadata           map[string]string
}

// ObjectInfo describes a stored object without its content.
type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
	ContentType  string
	Metadata     map[string]string
}

// Object is an open object body. Callers must close Body.
type Object struct {
	Info ObjectInfo
	Body io.ReadCloser
}

// ListPage is one page of a bucket listing. NextToken is empty on the last page.
type ListPage struct {
	Items     []ObjectInfo
	NextToken string
}

// Bucket is the set of object-store verbs the upload backend needs from a
// storage service. Implementations return errors matching ErrNotFound for
// absent keys and must not retry on their own beyond what the SDK does.
type Bucket interface {
	Name() string
	PutObject(ctx context.Context, key string, body io.Reader, size int64, opts PutOptions) error
	GetObject(ctx context.Context, key string) (Object, error)
	HeadObject(ctx context.Context, key string) (ObjectInfo, error)
	DeleteObject(ctx context.Context, key string) error
	// DeleteObjects removes keys in bulk and returns the keys the service
	// reported as failed. A non-nil error means the request itself failed.
	DeleteObjects(ctx context.Context, keys []string) (failed []string, err error)
	ListObjects(ctx context.Context, continuationToken string) (ListPage, error)
	// PresignGet signs a GET for key locally. An expiry <= 0 asks for the
	// shortest validity the implementation supports.
	PresignGet(ctx context.Context, key string, expires time.Duration, forceDownload bool) (string, error)
}

// PublicURLBuilder is implemented by buckets that can render an object URL
// without resolving the deployment's credentials. The backend prefers it over
// PresignGet when deriving the public base URL.
type PublicURLBuilder interface {
	PublicObjectURL(ctx context.Context, key string) (string, error)
}
