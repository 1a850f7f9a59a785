package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/gin-gonic/gin"
)

var (
	objectUploadsTotal       atomic.Uint64
	objectUploadBytesTotal   atomic.Uint64
	objectDeletesTotal       atomic.Uint64
	objectDeleteMissingTotal atomic.Uint64
	signedURLsTotal          atomic.Uint64
	avatarURLsTotal          atomic.Uint64
	httpRateLimitedTotal     atomic.Uint64

	uploadDuration = newHistogram([]float64{5, 10, 25, 50, 100, 250, 500, 1000, 5000, 30000})
)

// IncObjectUploads counts a successful object write.
func IncObjectUploads() {
	objectUploadsTotal.Add(1)
}

// AddObjectUploadBytes adds to the uploaded byte total. Negative sizes are ignored.
func AddObjectUploadBytes(n int64) {
	if n > 0 {
		objectUploadBytesTotal.Add(uint64(n))
	}
}

// IncObjectDeletes counts one deleted object.
func IncObjectDeletes() {
	objectDeletesTotal.Add(1)
}

// AddObjectDeletes counts objects removed by a batch delete.
func AddObjectDeletes(n uint64) {
	objectDeletesTotal.Add(n)
}

// IncObjectDeleteMissing counts deletes of objects that were already gone.
func IncObjectDeleteMissing() {
	objectDeleteMissingTotal.Add(1)
}

// IncSignedURLs counts signed attachment URLs handed out.
func IncSignedURLs() {
	signedURLsTotal.Add(1)
}

// IncAvatarURLs counts avatar URL resolutions.
func IncAvatarURLs() {
	avatarURLsTotal.Add(1)
}

// IncRateLimited counts requests rejected by the rate limiter.
func IncRateLimited() {
	httpRateLimitedTotal.Add(1)
}

// ObserveUploadDurationMs records an object write duration in milliseconds.
func ObserveUploadDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	uploadDuration.Observe(value)
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; version=0.0.4")
		c.String(http.StatusOK, Render())
	}
}

// Render renders metrics in Prometheus text format.
func Render() string {
	var buf bytes.Buffer
	writeCounter(&buf, "object_uploads_total", "Objects written to storage", objectUploadsTotal.Load())
	writeCounter(&buf, "object_upload_bytes_total", "Bytes written to storage", objectUploadBytesTotal.Load())
	writeCounter(&buf, "object_deletes_total", "Objects deleted from storage", objectDeletesTotal.Load())
	writeCounter(&buf, "object_delete_missing_total", "Deletes of objects that did not exist", objectDeleteMissingTotal.Load())
	writeCounter(&buf, "signed_urls_total", "Signed attachment URLs issued", signedURLsTotal.Load())
	writeCounter(&buf, "avatar_urls_total", "Avatar URLs resolved", avatarURLsTotal.Load())
	writeCounter(&buf, "http_rate_limited_total", "Requests rejected by the rate limiter", httpRateLimitedTotal.Load())
	writeHistogram(&buf, "object_upload_duration_ms", "Object write duration in milliseconds", uploadDuration.Snapshot())
	return buf.String()
}

type histogram struct {
	mu      sync.Mutex
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

type histogramSnapshot struct {
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

func newHistogram(buckets []float64) *histogram {
	return &histogram{
		buckets: buckets,
		counts:  make([]uint64, len(buckets)),
	}
}

func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
		}
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
	return out
}

func writeCounter(buf *bytes.Buffer, name, help string, value uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	fmt.Fprintf(buf, "%s %d\n", name, value)
}

func writeHistogram(buf *bytes.Buffer, name, help string, snap histogramSnapshot) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s histogram\n", name)
	var cumulative uint64
	for i, bound := range snap.buckets {
		cumulative += snap.counts[i]
		fmt.Fprintf(buf, "%s_bucket{le=\"%s\"} %d\n", name, formatFloat(bound), cumulative)
	}
	fmt.Fprintf(buf, "%s_bucket{le=\"+Inf\"} %d\n", name, snap.count)
	fmt.Fprintf(buf, "%s_sum %s\n", name, formatFloat(snap.sum))
	fmt.Fprintf(buf, "%s_count %d\n", name, snap.count)
}

func formatFloat(value float64) string {
	if value == float64(int64(value)) {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}
