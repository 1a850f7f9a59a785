package attachments

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"realm-uploads/internal/shared/server/formfile"
	"realm-uploads/internal/shared/server/middleware"
	"realm-uploads/internal/shared/server/respond"
)

type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/user_uploads", h.upload)
	rg.GET("/attachments", h.list)
	rg.DELETE("/attachments/:id", h.remove)
	h.RegisterServeRoutes(rg)
}

// RegisterServeRoutes mounts the redirect to a signed URL that Attachment.URI
// points at. The router mounts it at the site root and under /api/v1.
func (h *Handler) RegisterServeRoutes(rg *gin.RouterGroup) {
	rg.GET("/user_uploads/:realm_id/*rest", h.serve)
}

func (h *Handler) upload(c *gin.Context) {
	principal, _ := middleware.PrincipalFromContext(c)
	file, err := formfile.Read(c, "file", h.Svc.MaxBytes)
	if err != nil {
		h.fail(c, err)
		return
	}
	a, err := h.Svc.Upload(c.Request.Context(), principal.RealmID, principal.UserID, file.Name, file.ContentType, file.Data)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond.JSON(c, http.StatusOK, gin.H{
		"uri":        a.URI(),
		"url":        a.URI(),
		"attachment": a,
	})
}

// serve redirects to a signed URL of the private object. Attachments of
// other realms are reported as missing.
func (h *Handler) serve(c *gin.Context) {
	principal, _ := middleware.PrincipalFromContext(c)
	realmID, err := strconv.ParseInt(c.Param("realm_id"), 10, 64)
	if err != nil || realmID != principal.RealmID {
		respond.Error(c, http.StatusNotFound, "not_found", "file not found", nil)
		return
	}
	pathID := c.Param("realm_id") + "/" + strings.TrimPrefix(c.Param("rest"), "/")
	c.Set(middleware.PathIDKey, pathID)

	download := c.Query("download") == "1" || c.Query("download") == "true"
	signed, err := h.Svc.SignedURL(c.Request.Context(), realmID, pathID, download)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Header("Cache-Control", "private, max-age=0")
	c.Redirect(http.StatusTemporaryRedirect, signed)
}

func (h *Handler) list(c *gin.Context) {
	items, err := h.Svc.List(c.Request.Context(), middleware.UserIDFromContext(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	if items == nil {
		items = []Attachment{}
	}
	respond.JSON(c, http.StatusOK, gin.H{"attachments": items})
}

func (h *Handler) remove(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid attachment id", nil)
		return
	}
	if err := h.Svc.Delete(c.Request.Context(), middleware.UserIDFromContext(c), id); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "file not found", nil)
	case errors.Is(err, formfile.ErrMissing), errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, formfile.ErrTooLarge), errors.Is(err, ErrTooLarge):
		respond.Error(c, http.StatusRequestEntityTooLarge, "file_too_large", "file exceeds the upload size limit", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "attachment request failed", nil)
	}
}
