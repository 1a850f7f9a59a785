package realms

import (
	"errors"
	"net/http"
	"strconv"

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
	rg.GET("/realm/icon", h.iconRedirect)
	rg.POST("/realm/icon", h.uploadIcon)
	rg.DELETE("/realm/icon", h.resetIcon)
	rg.GET("/realm/logo", h.logoRedirect)
	rg.POST("/realm/logo", h.uploadLogo)
	rg.DELETE("/realm/logo", h.resetLogo)
}

// RegisterDevRoutes lets header-authenticated dev callers create their realm.
func (h *Handler) RegisterDevRoutes(rg *gin.RouterGroup) {
	rg.POST("/dev/realms", h.register)
}

func (h *Handler) iconRedirect(c *gin.Context) {
	realm, err := h.Svc.Get(c.Request.Context(), principal(c).RealmID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Redirect(http.StatusFound, h.Svc.IconURL(realm))
}

func (h *Handler) logoRedirect(c *gin.Context) {
	night, err := nightParam(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	realm, err := h.Svc.Get(c.Request.Context(), principal(c).RealmID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Redirect(http.StatusFound, h.Svc.LogoURL(realm, night))
}

func (h *Handler) uploadIcon(c *gin.Context) {
	file, err := formfile.Read(c, "file", h.Svc.MaxBytes)
	if err != nil {
		h.fail(c, err)
		return
	}
	realm, err := h.Svc.UploadIcon(c.Request.Context(), editor(c), file.Data, file.ContentType)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond.JSON(c, http.StatusOK, gin.H{"icon_url": h.Svc.IconURL(realm), "icon_source": realm.IconSource})
}

func (h *Handler) resetIcon(c *gin.Context) {
	realm, err := h.Svc.ResetIcon(c.Request.Context(), editor(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	respond.JSON(c, http.StatusOK, gin.H{"icon_url": h.Svc.IconURL(realm), "icon_source": realm.IconSource})
}

func (h *Handler) uploadLogo(c *gin.Context) {
	night, err := nightParam(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	file, err := formfile.Read(c, "file", h.Svc.MaxBytes)
	if err != nil {
		h.fail(c, err)
		return
	}
	realm, err := h.Svc.UploadLogo(c.Request.Context(), editor(c), night, file.Data, file.ContentType)
	if err != nil {
		h.fail(c, err)
		return
	}
	source, _ := realm.Logo(night)
	respond.JSON(c, http.StatusOK, gin.H{"logo_url": h.Svc.LogoURL(realm, night), "logo_source": source})
}

func (h *Handler) resetLogo(c *gin.Context) {
	night, err := nightParam(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	realm, err := h.Svc.ResetLogo(c.Request.Context(), editor(c), night)
	if err != nil {
		h.fail(c, err)
		return
	}
	source, _ := realm.Logo(night)
	respond.JSON(c, http.StatusOK, gin.H{"logo_url": h.Svc.LogoURL(realm, night), "logo_source": source})
}

type registerRequest struct {
	StringID string `json:"stringId"`
	Name     string `json:"name"`
	URL      string `json:"url"`
}

func (h *Handler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	realmID := principal(c).RealmID
	realm := Realm{ID: realmID, StringID: req.StringID, Name: req.Name, URL: req.URL}
	if err := h.Svc.Register(c.Request.Context(), realm); err != nil {
		h.fail(c, err)
		return
	}
	stored, err := h.Svc.Get(c.Request.Context(), realmID)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond.JSON(c, http.StatusCreated, stored)
}

func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "realm not found", nil)
	case errors.Is(err, ErrForbidden):
		respond.Error(c, http.StatusForbidden, "forbidden", err.Error(), nil)
	case errors.Is(err, formfile.ErrMissing), errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, formfile.ErrTooLarge), errors.Is(err, ErrTooLarge):
		respond.Error(c, http.StatusRequestEntityTooLarge, "file_too_large", "image exceeds the size limit", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "realm branding request failed", nil)
	}
}

func principal(c *gin.Context) middleware.Principal {
	p, _ := middleware.PrincipalFromContext(c)
	return p
}

func editor(c *gin.Context) Editor {
	p := principal(c)
	return Editor{UserID: p.UserID, RealmID: p.RealmID, IsAdmin: p.IsAdmin}
}

func nightParam(c *gin.Context) (bool, error) {
	raw := c.Query("night")
	if raw == "" {
		return false, nil
	}
	night, err := strconv.ParseBool(raw)
	if err != nil {
		return false, ErrInvalidInput
	}
	return night, nil
}
