package object

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"sort"
	"strconv"
	"sync"
	"time"
)

type fakeObject struct {
	data []byte
	opts PutOptions
	mod  time.Time
}

// fakeBucket is an in-memory Bucket with S3-like paging and presigning.
type fakeBucket struct {
	mu        sync.Mutex
	name      string
	objects   map[string]fakeObject
	pageSize  int
	listCalls int
	failKeys  map[string]bool
	clock     func() time.Time
}

func newFakeBucket(name string) *fakeBucket {
	return &fakeBucket{
		name:     name,
		objects:  make(map[string]fakeObject),
		pageSize: 1000,
		failKeys: make(map[string]bool),
		clock:    time.Now,
	}
}

func (f *fakeBucket) Name() string { return f.name }

func (f *fakeBucket) PutObject(_ context.Context, key string, body io.Reader, _ int64, opts PutOptions) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = fakeObject{data: data, opts: opts, mod: f.clock()}
	return nil
}

func (f *fakeBucket) GetObject(ctx context.Context, key string) (Object, error) {
	info, err := f.HeadObject(ctx, key)
	if err != nil {
		return Object{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return Object{Info: info, Body: io.NopCloser(bytes.NewReader(f.objects[key].data))}, nil
}

func (f *fakeBucket) HeadObject(_ context.Context, key string) (ObjectInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.objects[key]
	if !ok {
		return ObjectInfo{}, Wrap("head", f.name, key, fmt.Errorf("404"), true)
	}
	return ObjectInfo{Key: key, Size: int64(len(o.data)), LastModified: o.mod, ContentType: o.opts.ContentType, Metadata: o.opts.Metadata}, nil
}

func (f *fakeBucket) DeleteObject(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, key)
	return nil
}

func (f *fakeBucket) DeleteObjects(_ context.Context, keys []string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var failed []string
	for _, k := range keys {
		if f.failKeys[k] {
			failed = append(failed, k)
			continue
		}
		delete(f.objects, k)
	}
	return failed, nil
}

func (f *fakeBucket) ListObjects(_ context.Context, token string) (ListPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	keys := make([]string, 0, len(f.objects))
	for k := range f.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	start := 0
	if token != "" {
		start = sort.SearchStrings(keys, token) + 1
	}
	page := ListPage{}
	for i := start; i < len(keys); i++ {
		if len(page.Items) == f.pageSize {
			page.NextToken = page.Items[len(page.Items)-1].Key
			break
		}
		o := f.objects[keys[i]]
		page.Items = append(page.Items, ObjectInfo{Key: keys[i], Size: int64(len(o.data)), LastModified: o.mod})
	}
	return page, nil
}

func (f *fakeBucket) PresignGet(_ context.Context, key string, expires time.Duration, forceDownload bool) (string, error) {
	q := url.Values{}
	q.Set("X-Amz-Credential", "AKIDEXAMPLE/20260101/us-east-1/s3/aws4_request")
	q.Set("X-Amz-Date", f.clock().UTC().Format("20060102T150405Z"))
	q.Set("X-Amz-Expires", strconv.Itoa(int(expires.Seconds())))
	q.Set("X-Amz-Signature", "deadbeef")
	if forceDownload {
		q.Set("response-content-disposition", "attachment")
	}
	return "https://" + f.name + ".s3.amazonaws.com/" + key + "?" + q.Encode(), nil
}

var _ Bucket = (*fakeBucket)(nil)
