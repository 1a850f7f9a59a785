package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"realm-uploads/internal/shared/storage/object"
)

const defaultRegion = "us-east-1"

// placeholderKeyID signs URLs that are only parsed for their host and path.
const placeholderKeyID = "public-url-base"

// Options configures one S3 bucket handle.
type Options struct {
	Bucket          string
	Region          string
	AccessKey       string
	SecretKey       string
	EndpointURL     string
	AddressingStyle string
	Prefix          string
	KMSKeyID        string
	// SkipProxy ignores HTTP(S)_PROXY for this client only.
	SkipProxy bool
}

// Bucket implements object.Bucket using Amazon S3 or an S3-compatible service.
type Bucket struct {
	client    *s3.Client
	presigner *s3.PresignClient
	// urlSigner never touches the credential chain.
	urlSigner *s3.PresignClient
	bucket    string
	prefix    string
	kmsKeyID  string
	awsSSE    bool
}

// New creates a new S3-backed bucket.
func New(ctx context.Context, opts Options) (*Bucket, error) {
	if strings.TrimSpace(opts.Bucket) == "" {
		return nil, &object.ConfigError{Setting: "bucket", Reason: "s3 bucket is required"}
	}

	region := strings.TrimSpace(opts.Region)
	if region == "" && opts.EndpointURL != "" {
		region = defaultRegion
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{}
	if region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(region))
	}
	if opts.AccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, ""),
		))
	}
	if opts.SkipProxy {
		httpClient := awshttp.NewBuildableClient().WithTransportOptions(func(tr *http.Transport) {
			tr.Proxy = nil
		})
		loadOpts = append(loadOpts, awsconfig.WithHTTPClient(httpClient))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, &object.ConfigError{Setting: "aws", Reason: fmt.Sprintf("load aws config: %v", err)}
	}

	endpoint := func(o *s3.Options) {
		if opts.EndpointURL != "" {
			o.BaseEndpoint = aws.String(opts.EndpointURL)
		}
		o.UsePathStyle = usePathStyle(opts.AddressingStyle, opts.Bucket)
	}
	client := s3.NewFromConfig(cfg, endpoint)
	urlClient := s3.NewFromConfig(cfg, endpoint, func(o *s3.Options) {
		o.Credentials = credentials.NewStaticCredentialsProvider(placeholderKeyID, placeholderKeyID, "")
	})

	return &Bucket{
		client:    client,
		presigner: s3.NewPresignClient(client),
		urlSigner: s3.NewPresignClient(urlClient),
		bucket:    opts.Bucket,
		prefix:    normalizePrefix(opts.Prefix),
		kmsKeyID:  strings.TrimSpace(opts.KMSKeyID),
		awsSSE:    opts.EndpointURL == "",
	}, nil
}

func (b *Bucket) Name() string { return b.bucket }

func (b *Bucket) PutObject(ctx context.Context, key string, body io.Reader, size int64, opts object.PutOptions) error {
	objectKey := applyPrefix(b.prefix, key)
	input := &s3.PutObjectInput{
		Bucket:   aws.String(b.bucket),
		Key:      aws.String(objectKey),
		Body:     body,
		Metadata: opts.Metadata,
	}
	if size >= 0 {
		input.ContentLength = aws.Int64(size)
	}
	if opts.ContentType != "" {
		input.ContentType = aws.String(opts.ContentType)
	}
	if opts.ContentDisposition != "" {
		input.ContentDisposition = aws.String(opts.ContentDisposition)
	}
	if opts.CacheControl != "" {
		input.CacheControl = aws.String(opts.CacheControl)
	}
	if opts.StorageClass != "" {
		input.StorageClass = s3types.StorageClass(opts.StorageClass)
	}
	if b.kmsKeyID != "" {
		input.ServerSideEncryption = s3types.ServerSideEncryptionAwsKms
		input.SSEKMSKeyId = aws.String(b.kmsKeyID)
	} else if b.awsSSE {
		input.ServerSideEncryption = s3types.ServerSideEncryptionAes256
	}

	if _, err := b.client.PutObject(ctx, input); err != nil {
		return object.Wrap("put", b.bucket, objectKey, err, false)
	}
	return nil
}

func (b *Bucket) GetObject(ctx context.Context, key string) (object.Object, error) {
	objectKey := applyPrefix(b.prefix, key)
	out, err := b.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(objectKey),
	})
	if err != nil {
		return object.Object{}, object.Wrap("get", b.bucket, objectKey, err, isNotFound(err))
	}
	return object.Object{
		Info: object.ObjectInfo{
			Key:          key,
			Size:         aws.ToInt64(out.ContentLength),
			LastModified: aws.ToTime(out.LastModified),
			ContentType:  aws.ToString(out.ContentType),
			Metadata:     out.Metadata,
		},
		Body: out.Body,
	}, nil
}

func (b *Bucket) HeadObject(ctx context.Context, key string) (object.ObjectInfo, error) {
	objectKey := applyPrefix(b.prefix, key)
	out, err := b.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(objectKey),
	})
	if err != nil {
		return object.ObjectInfo{}, object.Wrap("head", b.bucket, objectKey, err, isNotFound(err))
	}
	return object.ObjectInfo{
		Key:          key,
		Size:         aws.ToInt64(out.ContentLength),
		LastModified: aws.ToTime(out.LastModified),
		ContentType:  aws.ToString(out.ContentType),
		Metadata:     out.Metadata,
	}, nil
}

func (b *Bucket) DeleteObject(ctx context.Context, key string) error {
	objectKey := applyPrefix(b.prefix, key)
	if _, err := b.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(objectKey),
	}); err != nil {
		return object.Wrap("delete", b.bucket, objectKey, err, isNotFound(err))
	}
	return nil
}

// DeleteObjects issues one quiet multi-delete; only failed keys are reported back.
func (b *Bucket) DeleteObjects(ctx context.Context, keys []string) ([]string, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	ids := make([]s3types.ObjectIdentifier, 0, len(keys))
	for _, k := range keys {
		ids = append(ids, s3types.ObjectIdentifier{Key: aws.String(applyPrefix(b.prefix, k))})
	}
	out, err := b.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
		Bucket: aws.String(b.bucket),
		Delete: &s3types.Delete{Objects: ids, Quiet: aws.Bool(true)},
	})
	if err != nil {
		return nil, object.Wrap("delete_objects", b.bucket, "", err, false)
	}
	failed := make([]string, 0, len(out.Errors))
	for _, e := range out.Errors {
		failed = append(failed, stripPrefix(b.prefix, aws.ToString(e.Key)))
	}
	return failed, nil
}

func (b *Bucket) ListObjects(ctx context.Context, continuationToken string) (object.ListPage, error) {
	input := &s3.ListObjectsV2Input{Bucket: aws.String(b.bucket)}
	if b.prefix != "" {
		input.Prefix = aws.String(b.prefix + "/")
	}
	if continuationToken != "" {
		input.ContinuationToken = aws.String(continuationToken)
	}
	out, err := b.client.ListObjectsV2(ctx, input)
	if err != nil {
		return object.ListPage{}, object.Wrap("list", b.bucket, "", err, false)
	}

	page := object.ListPage{Items: make([]object.ObjectInfo, 0, len(out.Contents))}
	for _, o := range out.Contents {
		page.Items = append(page.Items, object.ObjectInfo{
			Key:          stripPrefix(b.prefix, aws.ToString(o.Key)),
			Size:         aws.ToInt64(o.Size),
			LastModified: aws.ToTime(o.LastModified),
		})
	}
	if aws.ToBool(out.IsTruncated) {
		page.NextToken = aws.ToString(out.NextContinuationToken)
	}
	return page, nil
}

// PresignGet signs locally; no request is sent. expires <= 0 uses the SDK default.
func (b *Bucket) PresignGet(ctx context.Context, key string, expires time.Duration, forceDownload bool) (string, error) {
	objectKey := applyPrefix(b.prefix, key)
	input := &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(objectKey),
	}
	if forceDownload {
		input.ResponseContentDisposition = aws.String("attachment")
	}
	var optFns []func(*s3.PresignOptions)
	if expires > 0 {
		optFns = append(optFns, s3.WithPresignExpires(expires))
	}
	req, err := b.presigner.PresignGetObject(ctx, input, optFns...)
	if err != nil {
		return "", object.Wrap("presign", b.bucket, objectKey, err, false)
	}
	return req.URL, nil
}

// PublicObjectURL renders the GET URL for key with placeholder credentials.
// Only the location is meaningful; the query carries no usable signature.
func (b *Bucket) PublicObjectURL(ctx context.Context, key string) (string, error) {
	objectKey := applyPrefix(b.prefix, key)
	req, err := b.urlSigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(objectKey),
	})
	if err != nil {
		return "", object.Wrap("presign", b.bucket, objectKey, err, false)
	}
	return req.URL, nil
}

func isNotFound(err error) bool {
	var noSuchKey *s3types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return true
	}
	var notFound *s3types.NotFound
	if errors.As(err, &notFound) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}
	var respErr *awshttp.ResponseError
	if errors.As(err, &respErr) && respErr.HTTPStatusCode() == http.StatusNotFound {
		return true
	}
	return false
}

// usePathStyle resolves "auto" the way S3 clients usually do: virtual-hosted
// unless the bucket name cannot be a DNS label.
func usePathStyle(style, bucket string) bool {
	switch strings.ToLower(strings.TrimSpace(style)) {
	case "path":
		return true
	case "virtual":
		return false
	default:
		return !dnsCompatible(bucket)
	}
}

func dnsCompatible(bucket string) bool {
	if len(bucket) < 3 || len(bucket) > 63 || strings.Contains(bucket, "..") || strings.Contains(bucket, ".") {
		return false
	}
	for i, r := range bucket {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
		case r == '-' && i != 0 && i != len(bucket)-1:
		default:
			return false
		}
	}
	return true
}

func normalizePrefix(prefix string) string {
	return strings.Trim(strings.TrimSpace(prefix), "/")
}

func applyPrefix(prefix, key string) string {
	cleanPrefix := strings.Trim(prefix, "/")
	cleanKey := strings.TrimLeft(key, "/")
	if cleanPrefix == "" {
		return cleanKey
	}
	if cleanKey == "" {
		return cleanPrefix
	}
	return cleanPrefix + "/" + cleanKey
}

func stripPrefix(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return strings.TrimPrefix(key, prefix+"/")
}

var (
	_ object.Bucket           = (*Bucket)(nil)
	_ object.PublicURLBuilder = (*Bucket)(nil)
)
