package exports

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

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
	rg.GET("/export/realm", h.list)
	rg.DELETE("/export/realm/:id", h.remove)
}

func (h *Handler) list(c *gin.Context) {
	p, _ := middleware.PrincipalFromContext(c)
	items, err := h.Svc.List(c.Request.Context(), p.RealmID, p.IsAdmin)
	if err != nil {
		h.fail(c, err)
		return
	}
	if items == nil {
		items = []Export{}
	}
	respond.JSON(c, http.StatusOK, gin.H{"exports": items})
}

func (h *Handler) remove(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid export id", nil)
		return
	}
	p, _ := middleware.PrincipalFromContext(c)
	if err := h.Svc.Delete(c.Request.Context(), p.RealmID, p.IsAdmin, id); err != nil {
		h.fail(c, err)
		return
	}
	respond.Success(c)
}

func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "invalid data export ID", nil)
	case errors.Is(err, ErrForbidden):
		respond.Error(c, http.StatusForbidden, "forbidden", err.Error(), nil)
	case errors.Is(err, ErrAlreadyGone):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "export request failed", nil)
	}
}
