package object

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"iter"
	"net/url"
	"strconv"
	"strings"
	"time"

	"realm-uploads/internal/shared/metrics"
	"realm-uploads/internal/shared/telemetry"
)

const (
	// SignedURLDuration is how long a signed attachment URL stays valid.
	SignedURLDuration = 60 * time.Second

	// ImmutableCacheControl is set on objects whose key changes whenever the content does.
	ImmutableCacheControl = "public, max-age=31536000, immutable"

	DefaultStorageClass = "STANDARD"

	dummyKey        = "dummy_key_ignored"
	deleteBatchSize = 1000
)

// Config wires the buckets and URL settings into a Backend.
type Config struct {
	// AvatarBucket holds every public category.
	AvatarBucket Bucket
	// UploadsBucket holds message attachments; it is never publicly readable.
	UploadsBucket Bucket
	// PublicURLPrefix replaces the derived public base URL, e.g. for a CDN.
	PublicURLPrefix     string
	UploadsStorageClass string
}

// Backend translates upload, fetch and delete requests into bucket calls
// and computes the externally visible URL of every stored object.
type Backend struct {
	avatars      Bucket
	uploads      Bucket
	storageClass string
	publicBase   string
}

// UploadInput describes a single object write.
type UploadInput struct {
	Category     Category
	Path         string
	Body         io.Reader
	Size         int64
	ContentType  string
	Uploader     *Uploader
	Metadata     map[string]string
	StorageClass string
	CacheControl string
}

// NewBackend validates cfg and derives the public base URL once.
func NewBackend(ctx context.Context, cfg Config) (*Backend, error) {
	if cfg.AvatarBucket == nil {
		return nil, &ConfigError{Setting: "S3_AVATAR_BUCKET", Reason: "avatar bucket is required"}
	}
	if cfg.UploadsBucket == nil {
		return nil, &ConfigError{Setting: "S3_AUTH_UPLOADS_BUCKET", Reason: "uploads bucket is required"}
	}
	storageClass := strings.TrimSpace(cfg.UploadsStorageClass)
	if storageClass == "" {
		storageClass = DefaultStorageClass
	}

	base, err := derivePublicBase(ctx, cfg.AvatarBucket, cfg.PublicURLPrefix)
	if err != nil {
		return nil, err
	}

	return &Backend{
		avatars:      cfg.AvatarBucket,
		uploads:      cfg.UploadsBucket,
		storageClass: storageClass,
		publicBase:   base,
	}, nil
}

// derivePublicBase renders a throwaway key's URL and keeps everything before it.
// Presigning per avatar URL is too slow for bulk message rendering, and the
// unsigned prefix is identical for every key in the bucket.
func derivePublicBase(ctx context.Context, bucket Bucket, override string) (string, error) {
	if override = strings.TrimSpace(override); override != "" {
		if !strings.HasSuffix(override, "/") {
			override += "/"
		}
		return override, nil
	}

	var (
		signed string
		err    error
	)
	if pb, ok := bucket.(PublicURLBuilder); ok {
		signed, err = pb.PublicObjectURL(ctx, dummyKey)
	} else {
		signed, err = bucket.PresignGet(ctx, dummyKey, 0, false)
	}
	if err != nil {
		return "", fmt.Errorf("derive public url base: %w", err)
	}
	u, err := url.Parse(signed)
	if err != nil {
		return "", fmt.Errorf("derive public url base: %w", err)
	}
	if !strings.HasSuffix(u.Path, "/"+dummyKey) {
		return "", &ConfigError{Setting: "S3_AVATAR_PUBLIC_URL_PREFIX", Reason: "cannot derive public url from " + u.Redacted()}
	}
	u.Path = strings.TrimSuffix(u.Path, dummyKey)
	u.RawPath = ""
	u.RawQuery = ""
	u.Fragment = ""
	u.User = nil
	return u.String(), nil
}

func (b *Backend) bucketFor(c Category) Bucket {
	if c.Public() {
		return b.avatars
	}
	return b.uploads
}

// PublicBaseURL returns the prefix every public URL starts with.
func (b *Backend) PublicBaseURL() string {
	return b.publicBase
}

// Upload writes an object, silently replacing any existing one at the same path.
func (b *Backend) Upload(ctx context.Context, in UploadInput) error {
	if strings.TrimSpace(in.Path) == "" {
		return fmt.Errorf("upload: path is required")
	}
	body := in.Body
	if body == nil {
		body = bytes.NewReader(nil)
	}
	storageClass := in.StorageClass
	if storageClass == "" {
		storageClass = DefaultStorageClass
		if !in.Category.Public() {
			storageClass = b.storageClass
		}
	}

	opts := PutOptions{
		ContentType:        in.ContentType,
		ContentDisposition: dispositionFor(in.ContentType),
		CacheControl:       in.CacheControl,
		StorageClass:       storageClass,
		Metadata:           in.Uploader.metadata(in.Metadata),
	}

	start := time.Now()
	if err := b.bucketFor(in.Category).PutObject(ctx, in.Path, body, in.Size, opts); err != nil {
		return err
	}
	metrics.IncObjectUploads()
	metrics.AddObjectUploadBytes(in.Size)
	metrics.ObserveUploadDurationMs(float64(time.Since(start).Microseconds()) / 1000.0)
	return nil
}

func (b *Backend) uploadBytes(ctx context.Context, c Category, path string, data []byte, contentType string, uploader *Uploader, extra map[string]string, cacheControl string) error {
	return b.Upload(ctx, UploadInput{
		Category:     c,
		Path:         path,
		Body:         bytes.NewReader(data),
		Size:         int64(len(data)),
		ContentType:  contentType,
		Uploader:     uploader,
		Metadata:     extra,
		CacheControl: cacheControl,
	})
}

// Fetch reads a whole object. Absent objects yield an error matching ErrNotFound.
func (b *Backend) Fetch(ctx context.Context, c Category, path string) ([]byte, string, error) {
	obj, err := b.bucketFor(c).GetObject(ctx, path)
	if err != nil {
		return nil, "", err
	}
	defer obj.Body.Close()

	data, err := io.ReadAll(obj.Body)
	if err != nil {
		return nil, "", &StorageError{Op: "read", Bucket: b.bucketFor(c).Name(), Key: path, Err: err}
	}
	return data, obj.Info.ContentType, nil
}

// Delete removes one object and reports whether it existed. A missing
// object is logged and reported as false: the database record pointing at
// it is expected to be removed by the caller anyway.
func (b *Backend) Delete(ctx context.Context, c Category, path string) (bool, error) {
	bucket := b.bucketFor(c)
	if _, err := bucket.HeadObject(ctx, path); err != nil {
		if IsNotFound(err) {
			metrics.IncObjectDeleteMissing()
			telemetry.Warn("storage.delete.missing", map[string]any{
				"file":   lastSegment(path),
				"bucket": bucket.Name(),
				"detail": "object does not exist; its database entry will be removed",
			})
			return false, nil
		}
		return false, err
	}
	if err := bucket.DeleteObject(ctx, path); err != nil {
		return false, err
	}
	metrics.IncObjectDeletes()
	return true, nil
}

// DeleteBatch removes many objects on a best-effort basis. Keys the service
// fails to delete are logged, not returned.
func (b *Backend) DeleteBatch(ctx context.Context, c Category, paths []string) error {
	bucket := b.bucketFor(c)
	for start := 0; start < len(paths); start += deleteBatchSize {
		end := min(start+deleteBatchSize, len(paths))
		failed, err := bucket.DeleteObjects(ctx, paths[start:end])
		if err != nil {
			return err
		}
		if len(failed) > 0 {
			telemetry.Warn("storage.delete_batch.partial", map[string]any{
				"bucket":    bucket.Name(),
				"requested": end - start,
				"failed":    len(failed),
			})
		}
		metrics.AddObjectDeletes(uint64(end - start - len(failed)))
	}
	return nil
}

// List lazily enumerates the objects of a category, one storage page at a
// time. Derived variants are skipped unless includeDerived is set. Stopping
// the range loop stops pagination; each call starts a fresh listing.
func (b *Backend) List(ctx context.Context, c Category, includeDerived bool) iter.Seq2[ObjectInfo, error] {
	bucket := b.bucketFor(c)
	return func(yield func(ObjectInfo, error) bool) {
		token := ""
		for {
			page, err := bucket.ListObjects(ctx, token)
			if err != nil {
				yield(ObjectInfo{}, err)
				return
			}
			for _, item := range page.Items {
				if !c.Matches(item.Key) {
					continue
				}
				if !includeDerived && c.Derived(item.Key) {
					continue
				}
				if !yield(item, nil) {
					return
				}
			}
			if page.NextToken == "" {
				return
			}
			token = page.NextToken
		}
	}
}

// ResolvePublicURL joins path onto the public base URL. No I/O, no signing.
func (b *Backend) ResolvePublicURL(path string) string {
	return b.publicBase + strings.TrimLeft(path, "/")
}

// ResolveVersionedURL adds the cache-busting version parameter used for
// objects that are overwritten in place.
func (b *Backend) ResolveVersionedURL(path string, version int) string {
	return b.ResolvePublicURL(path) + "?version=" + strconv.Itoa(version)
}

// ResolveSignedURL signs a short-lived GET for a private attachment.
func (b *Backend) ResolveSignedURL(ctx context.Context, path string, forceDownload bool) (string, error) {
	signed, err := b.uploads.PresignGet(ctx, path, SignedURLDuration, forceDownload)
	if err != nil {
		return "", err
	}
	metrics.IncSignedURLs()
	return signed, nil
}

func lastSegment(path string) string {
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return path[i+1:]
	}
	return path
}
