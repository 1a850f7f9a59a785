package minio

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"realm-uploads/internal/shared/storage/object"
)

const (
	listPageSize  = 1000
	minPresignTTL = time.Second
)

// Options configures one bucket on a MinIO (or other S3-compatible) server.
type Options struct {
	Bucket          string
	EndpointURL     string
	Region          string
	AccessKey       string
	SecretKey       string
	UseSSL          bool
	AddressingStyle string
	SkipProxy       bool
}

// Bucket implements object.Bucket with minio-go.
type Bucket struct {
	client *minio.Client
	bucket string
}

// New builds the client. No request is sent until the first operation.
func New(opts Options) (*Bucket, error) {
	if strings.TrimSpace(opts.Bucket) == "" {
		return nil, &object.ConfigError{Setting: "bucket", Reason: "minio bucket is required"}
	}
	host, secure, err := splitEndpoint(opts.EndpointURL, opts.UseSSL)
	if err != nil {
		return nil, &object.ConfigError{Setting: "S3_ENDPOINT_URL", Reason: err.Error()}
	}

	mopts := &minio.Options{
		Creds:        credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure:       secure,
		Region:       opts.Region,
		BucketLookup: bucketLookup(opts.AddressingStyle),
	}
	if opts.SkipProxy {
		tr, err := minio.DefaultTransport(secure)
		if err != nil {
			return nil, fmt.Errorf("minio transport: %w", err)
		}
		tr.Proxy = nil
		mopts.Transport = tr
	}

	client, err := minio.New(host, mopts)
	if err != nil {
		return nil, &object.ConfigError{Setting: "S3_ENDPOINT_URL", Reason: err.Error()}
	}
	return &Bucket{client: client, bucket: opts.Bucket}, nil
}

func (b *Bucket) Name() string { return b.bucket }

func (b *Bucket) PutObject(ctx context.Context, key string, body io.Reader, size int64, opts object.PutOptions) error {
	_, err := b.client.PutObject(ctx, b.bucket, key, body, size, minio.PutObjectOptions{
		ContentType:        opts.ContentType,
		ContentDisposition: opts.ContentDisposition,
		CacheControl:       opts.CacheControl,
		StorageClass:       opts.StorageClass,
		UserMetadata:       opts.Metadata,
	})
	if err != nil {
		return object.Wrap("put", b.bucket, key, err, false)
	}
	return nil
}

func (b *Bucket) GetObject(ctx context.Context, key string) (object.Object, error) {
	obj, err := b.client.GetObject(ctx, b.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return object.Object{}, object.Wrap("get", b.bucket, key, err, isNotFound(err))
	}
	// GetObject is lazy; Stat forces the request so a missing key surfaces here.
	st, err := obj.Stat()
	if err != nil {
		obj.Close()
		return object.Object{}, object.Wrap("get", b.bucket, key, err, isNotFound(err))
	}
	return object.Object{Info: toInfo(key, st), Body: obj}, nil
}

func (b *Bucket) HeadObject(ctx context.Context, key string) (object.ObjectInfo, error) {
	st, err := b.client.StatObject(ctx, b.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return object.ObjectInfo{}, object.Wrap("head", b.bucket, key, err, isNotFound(err))
	}
	return toInfo(key, st), nil
}

func (b *Bucket) DeleteObject(ctx context.Context, key string) error {
	if err := b.client.RemoveObject(ctx, b.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return object.Wrap("delete", b.bucket, key, err, isNotFound(err))
	}
	return nil
}

func (b *Bucket) DeleteObjects(ctx context.Context, keys []string) ([]string, error) {
	objects := make(chan minio.ObjectInfo, len(keys))
	for _, k := range keys {
		objects <- minio.ObjectInfo{Key: k}
	}
	close(objects)

	var failed []string
	for rerr := range b.client.RemoveObjects(ctx, b.bucket, objects, minio.RemoveObjectsOptions{}) {
		if rerr.Err != nil {
			failed = append(failed, rerr.ObjectName)
		}
	}
	if err := ctx.Err(); err != nil {
		return failed, object.Wrap("delete_objects", b.bucket, "", err, false)
	}
	return failed, nil
}

// ListObjects returns up to listPageSize keys after continuationToken. The
// token is the last key of the previous page.
func (b *Bucket) ListObjects(ctx context.Context, continuationToken string) (object.ListPage, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	page := object.ListPage{}
	ch := b.client.ListObjects(ctx, b.bucket, minio.ListObjectsOptions{
		Recursive:  true,
		StartAfter: continuationToken,
		MaxKeys:    listPageSize,
	})
	for info := range ch {
		if info.Err != nil {
			return object.ListPage{}, object.Wrap("list", b.bucket, "", info.Err, false)
		}
		if len(page.Items) == listPageSize {
			page.NextToken = page.Items[len(page.Items)-1].Key
			break
		}
		page.Items = append(page.Items, object.ObjectInfo{
			Key:          info.Key,
			Size:         info.Size,
			LastModified: info.LastModified,
			ContentType:  info.ContentType,
		})
	}
	return page, nil
}

func (b *Bucket) PresignGet(ctx context.Context, key string, expires time.Duration, forceDownload bool) (string, error) {
	if expires < minPresignTTL {
		expires = minPresignTTL
	}
	params := url.Values{}
	if forceDownload {
		params.Set("response-content-disposition", "attachment")
	}
	u, err := b.client.PresignedGetObject(ctx, b.bucket, key, expires, params)
	if err != nil {
		return "", object.Wrap("presign", b.bucket, key, err, false)
	}
	return u.String(), nil
}

func toInfo(key string, st minio.ObjectInfo) object.ObjectInfo {
	md := make(map[string]string, len(st.UserMetadata))
	for k, v := range st.UserMetadata {
		md[strings.ToLower(k)] = v
	}
	return object.ObjectInfo{
		Key:          key,
		Size:         st.Size,
		LastModified: st.LastModified,
		ContentType:  st.ContentType,
		Metadata:     md,
	}
}

func isNotFound(err error) bool {
	resp := minio.ToErrorResponse(err)
	switch resp.Code {
	case "NoSuchKey", "NotFound":
		return true
	}
	return resp.StatusCode == http.StatusNotFound
}

func bucketLookup(style string) minio.BucketLookupType {
	switch strings.ToLower(strings.TrimSpace(style)) {
	case "path":
		return minio.BucketLookupPath
	case "virtual":
		return minio.BucketLookupDNS
	default:
		return minio.BucketLookupAuto
	}
}

// splitEndpoint accepts "host:port" or a full URL; a URL scheme overrides useSSL.
func splitEndpoint(endpoint string, useSSL bool) (string, bool, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return "", false, fmt.Errorf("endpoint is required")
	}
	if !strings.Contains(endpoint, "://") {
		return strings.TrimSuffix(endpoint, "/"), useSSL, nil
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", false, fmt.Errorf("parse endpoint: %w", err)
	}
	if u.Host == "" {
		return "", false, fmt.Errorf("endpoint %q has no host", endpoint)
	}
	if u.Path != "" && u.Path != "/" {
		return "", false, fmt.Errorf("endpoint %q must not have a path", endpoint)
	}
	return u.Host, u.Scheme == "https", nil
}

var _ object.Bucket = (*Bucket)(nil)
