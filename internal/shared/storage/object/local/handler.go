package local

import (
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"

	"realm-uploads/internal/shared/server/respond"
	"realm-uploads/internal/shared/storage/object"
)

// Handler serves objects of the given buckets at GET /:bucket/*key. Private
// buckets require a valid signature from PresignGet.
type Handler struct {
	buckets map[string]*Bucket
}

func NewHandler(buckets ...*Bucket) *Handler {
	h := &Handler{buckets: make(map[string]*Bucket, len(buckets))}
	for _, b := range buckets {
		h.buckets[b.Name()] = b
	}
	return h
}

// RegisterRoutes attaches the file server to rg.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/:bucket/*key", h.serve)
	rg.HEAD("/:bucket/*key", h.serve)
}

func (h *Handler) serve(c *gin.Context) {
	b, ok := h.buckets[c.Param("bucket")]
	if !ok {
		respond.Error(c, http.StatusNotFound, "not_found", "Object not found", nil)
		return
	}
	key := strings.TrimPrefix(c.Param("key"), "/")
	if !b.Public() && !b.Verify(key, c.Request.URL.Query()) {
		respond.Error(c, http.StatusForbidden, "forbidden", "Invalid or expired signature", nil)
		return
	}

	info, err := b.HeadObject(c.Request.Context(), key)
	if err != nil {
		if object.IsNotFound(err) {
			respond.Error(c, http.StatusNotFound, "not_found", "Object not found", nil)
			return
		}
		respond.Error(c, http.StatusBadRequest, "invalid_key", "Invalid object key", nil)
		return
	}
	fullPath, _ := b.resolve(key)
	f, err := os.Open(fullPath)
	if err != nil {
		respond.Error(c, http.StatusNotFound, "not_found", "Object not found", nil)
		return
	}
	defer f.Close()

	meta := b.readSidecar(key)
	if info.ContentType != "" {
		c.Header("Content-Type", info.ContentType)
	}
	if meta.CacheControl != "" {
		c.Header("Cache-Control", meta.CacheControl)
	}
	switch {
	case c.Query("disposition") == "attachment":
		c.Header("Content-Disposition", "attachment")
	case meta.ContentDisposition != "":
		c.Header("Content-Disposition", meta.ContentDisposition)
	}
	c.Header("X-Content-Type-Options", "nosniff")
	http.ServeContent(c.Writer, c.Request, "", info.LastModified, f)
}
