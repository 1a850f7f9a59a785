package emoji

import (
	"errors"
	"net/http"

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
	rg.GET("/realm/emoji", h.list)
	rg.POST("/realm/emoji/:name", h.add)
	rg.DELETE("/realm/emoji/:name", h.deactivate)
}

func (h *Handler) list(c *gin.Context) {
	p, _ := middleware.PrincipalFromContext(c)
	views, err := h.Svc.List(c.Request.Context(), p.RealmID)
	if err != nil {
		h.fail(c, err)
		return
	}
	byID := make(map[string]View, len(views))
	for _, v := range views {
		byID[formatID(v.ID)] = v
	}
	respond.JSON(c, http.StatusOK, gin.H{"emoji": byID})
}

func (h *Handler) add(c *gin.Context) {
	name := c.Param("name")
	if err := ValidateName(name); err != nil {
		h.fail(c, err)
		return
	}
	file, err := formfile.Read(c, "file", h.Svc.MaxBytes)
	if err != nil {
		h.fail(c, err)
		return
	}
	view, err := h.Svc.Add(c.Request.Context(), actor(c), name, file.Data, file.ContentType)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond.JSON(c, http.StatusOK, view)
}

func (h *Handler) deactivate(c *gin.Context) {
	if err := h.Svc.Deactivate(c.Request.Context(), actor(c), c.Param("name")); err != nil {
		h.fail(c, err)
		return
	}
	respond.Success(c)
}

func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "emoji does not exist", nil)
	case errors.Is(err, ErrNameTaken):
		respond.Error(c, http.StatusConflict, "conflict", err.Error(), nil)
	case errors.Is(err, ErrForbidden):
		respond.Error(c, http.StatusForbidden, "forbidden", err.Error(), nil)
	case errors.Is(err, formfile.ErrMissing), errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, formfile.ErrTooLarge), errors.Is(err, ErrTooLarge):
		respond.Error(c, http.StatusRequestEntityTooLarge, "file_too_large", "emoji exceeds the size limit", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "emoji request failed", nil)
	}
}

func actor(c *gin.Context) Actor {
	p, _ := middleware.PrincipalFromContext(c)
	return Actor{UserID: p.UserID, RealmID: p.RealmID, IsAdmin: p.IsAdmin}
}
