package local

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"realm-uploads/internal/shared/storage/object"
)

const (
	metaDir         = ".meta"
	defaultPageSize = 1000
	minPresignTTL   = time.Second
)

// Options configures a filesystem bucket rooted at BaseDir/Name.
type Options struct {
	Name    string
	BaseDir string
	// BaseURL is where Handler is mounted, e.g. http://localhost:8080/local-objects.
	BaseURL    string
	SigningKey string
	// Public buckets are served without a signature.
	Public   bool
	PageSize int
}

// Bucket implements object.Bucket on the local filesystem for development
// and tests. Object attributes are kept in a JSON sidecar under .meta/.
type Bucket struct {
	name       string
	root       string
	baseURL    string
	signingKey []byte
	public     bool
	pageSize   int
	now        func() time.Time
}

type sidecar struct {
	ContentType        string            `json:"content_type,omitempty"`
	ContentDisposition string            `json:"content_disposition,omitempty"`
	CacheControl       string            `json:"cache_control,omitempty"`
	StorageClass       string            `json:"storage_class,omitempty"`
	Metadata           map[string]string `json:"metadata,omitempty"`
}

// New creates the bucket directory if needed.
func New(opts Options) (*Bucket, error) {
	if strings.TrimSpace(opts.Name) == "" || strings.ContainsAny(opts.Name, `/\`) {
		return nil, &object.ConfigError{Setting: "bucket", Reason: "local bucket name is required and must be a single path segment"}
	}
	if strings.TrimSpace(opts.BaseDir) == "" {
		return nil, &object.ConfigError{Setting: "LOCAL_STORE_DIR", Reason: "base directory is required"}
	}
	root := filepath.Join(opts.BaseDir, opts.Name)
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir: %w", err)
	}
	key := opts.SigningKey
	if key == "" {
		key = "local-dev-signing-key"
	}
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	return &Bucket{
		name:       opts.Name,
		root:       root,
		baseURL:    strings.TrimSuffix(opts.BaseURL, "/"),
		signingKey: []byte(key),
		public:     opts.Public,
		pageSize:   pageSize,
		now:        time.Now,
	}, nil
}

func (b *Bucket) Name() string { return b.name }

// Public reports whether Handler serves this bucket without a signature.
func (b *Bucket) Public() bool { return b.public }

func (b *Bucket) PutObject(ctx context.Context, key string, body io.Reader, size int64, opts object.PutOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	fullPath, err := b.resolve(key)
	if err != nil {
		return object.Wrap("put", b.name, key, err, false)
	}
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return object.Wrap("put", b.name, key, fmt.Errorf("mkdir: %w", err), false)
	}

	tmp, err := os.CreateTemp(filepath.Dir(fullPath), ".upload-*")
	if err != nil {
		return object.Wrap("put", b.name, key, fmt.Errorf("open file: %w", err), false)
	}
	written, err := io.Copy(tmp, body)
	closeErr := tmp.Close()
	if err == nil {
		err = closeErr
	}
	if err == nil && size >= 0 && written != size {
		err = fmt.Errorf("short write: got %d bytes, expected %d", written, size)
	}
	if err != nil {
		os.Remove(tmp.Name())
		return object.Wrap("put", b.name, key, fmt.Errorf("write body: %w", err), false)
	}
	if err := os.Rename(tmp.Name(), fullPath); err != nil {
		os.Remove(tmp.Name())
		return object.Wrap("put", b.name, key, err, false)
	}

	meta := sidecar{
		ContentType:        opts.ContentType,
		ContentDisposition: opts.ContentDisposition,
		CacheControl:       opts.CacheControl,
		StorageClass:       opts.StorageClass,
		Metadata:           opts.Metadata,
	}
	if err := b.writeSidecar(key, meta); err != nil {
		return object.Wrap("put", b.name, key, err, false)
	}
	return nil
}

func (b *Bucket) GetObject(ctx context.Context, key string) (object.Object, error) {
	info, err := b.HeadObject(ctx, key)
	if err != nil {
		return object.Object{}, err
	}
	fullPath, _ := b.resolve(key)
	f, err := os.Open(fullPath)
	if err != nil {
		return object.Object{}, object.Wrap("get", b.name, key, err, errors.Is(err, fs.ErrNotExist))
	}
	return object.Object{Info: info, Body: f}, nil
}

func (b *Bucket) HeadObject(ctx context.Context, key string) (object.ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return object.ObjectInfo{}, err
	}
	fullPath, err := b.resolve(key)
	if err != nil {
		return object.ObjectInfo{}, object.Wrap("head", b.name, key, err, false)
	}
	st, err := os.Stat(fullPath)
	if err != nil {
		return object.ObjectInfo{}, object.Wrap("head", b.name, key, err, errors.Is(err, fs.ErrNotExist))
	}
	if st.IsDir() {
		return object.ObjectInfo{}, object.Wrap("head", b.name, key, fs.ErrNotExist, true)
	}
	meta := b.readSidecar(key)
	return object.ObjectInfo{
		Key:          key,
		Size:         st.Size(),
		LastModified: st.ModTime().UTC(),
		ContentType:  meta.ContentType,
		Metadata:     meta.Metadata,
	}, nil
}

func (b *Bucket) DeleteObject(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	fullPath, err := b.resolve(key)
	if err != nil {
		return object.Wrap("delete", b.name, key, err, false)
	}
	if err := os.Remove(fullPath); err != nil {
		return object.Wrap("delete", b.name, key, err, errors.Is(err, fs.ErrNotExist))
	}
	if metaPath, err := b.sidecarPath(key); err == nil {
		os.Remove(metaPath)
	}
	return nil
}

// DeleteObjects removes keys one by one. Already missing keys count as deleted.
func (b *Bucket) DeleteObjects(ctx context.Context, keys []string) ([]string, error) {
	var failed []string
	for _, k := range keys {
		if err := b.DeleteObject(ctx, k); err != nil && !object.IsNotFound(err) {
			if ctx.Err() != nil {
				return failed, ctx.Err()
			}
			failed = append(failed, k)
		}
	}
	return failed, nil
}

// ListObjects walks the bucket in lexical key order. The continuation token
// is the last key of the previous page.
func (b *Bucket) ListObjects(ctx context.Context, continuationToken string) (object.ListPage, error) {
	var keys []string
	err := filepath.WalkDir(b.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == metaDir && filepath.Dir(p) == b.root {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(d.Name(), ".upload-") {
			return nil
		}
		rel, err := filepath.Rel(b.root, p)
		if err != nil {
			return err
		}
		keys = append(keys, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return object.ListPage{}, object.Wrap("list", b.name, "", err, false)
	}
	sort.Strings(keys)

	start := sort.SearchStrings(keys, continuationToken)
	if continuationToken != "" && start < len(keys) && keys[start] == continuationToken {
		start++
	}

	page := object.ListPage{}
	for i := start; i < len(keys); i++ {
		if len(page.Items) == b.pageSize {
			page.NextToken = page.Items[len(page.Items)-1].Key
			break
		}
		info, err := b.HeadObject(ctx, keys[i])
		if err != nil {
			if object.IsNotFound(err) {
				continue
			}
			return object.ListPage{}, err
		}
		page.Items = append(page.Items, info)
	}
	return page, nil
}

// PresignGet returns a URL served by Handler, signed with HMAC-SHA256.
func (b *Bucket) PresignGet(ctx context.Context, key string, expires time.Duration, forceDownload bool) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if _, err := b.resolve(key); err != nil {
		return "", object.Wrap("presign", b.name, key, err, false)
	}
	if expires < minPresignTTL {
		expires = minPresignTTL
	}
	exp := b.now().Add(expires).Unix()
	q := url.Values{}
	q.Set("expires", strconv.FormatInt(exp, 10))
	if forceDownload {
		q.Set("disposition", "attachment")
	}
	q.Set("signature", b.sign(key, exp, forceDownload))
	return b.objectURL(key) + "?" + q.Encode(), nil
}

func (b *Bucket) objectURL(key string) string {
	segments := strings.Split(key, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return b.baseURL + "/" + url.PathEscape(b.name) + "/" + strings.Join(segments, "/")
}

func (b *Bucket) sign(key string, expires int64, forceDownload bool) string {
	mac := hmac.New(sha256.New, b.signingKey)
	fmt.Fprintf(mac, "%s\n%s\n%d\n%t", b.name, key, expires, forceDownload)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify checks a signature produced by PresignGet.
func (b *Bucket) Verify(key string, q url.Values) bool {
	exp, err := strconv.ParseInt(q.Get("expires"), 10, 64)
	if err != nil || b.now().Unix() > exp {
		return false
	}
	forceDownload := q.Get("disposition") == "attachment"
	want := b.sign(key, exp, forceDownload)
	return hmac.Equal([]byte(want), []byte(q.Get("signature")))
}

func (b *Bucket) resolve(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if key == "" || clean == "." || strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", fmt.Errorf("invalid storage key %q", key)
	}
	if first := strings.SplitN(filepath.ToSlash(clean), "/", 2)[0]; first == metaDir {
		return "", fmt.Errorf("invalid storage key %q", key)
	}
	return filepath.Join(b.root, clean), nil
}

func (b *Bucket) sidecarPath(key string) (string, error) {
	if _, err := b.resolve(key); err != nil {
		return "", err
	}
	return filepath.Join(b.root, metaDir, filepath.FromSlash(filepath.Clean(key))+".json"), nil
}

func (b *Bucket) writeSidecar(key string, meta sidecar) error {
	p, err := b.sidecarPath(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("mkdir meta: %w", err)
	}
	data, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("encode meta: %w", err)
	}
	return os.WriteFile(p, data, 0o644)
}

func (b *Bucket) readSidecar(key string) sidecar {
	var meta sidecar
	p, err := b.sidecarPath(key)
	if err != nil {
		return meta
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return meta
	}
	_ = json.Unmarshal(data, &meta)
	return meta
}

var _ object.Bucket = (*Bucket)(nil)
