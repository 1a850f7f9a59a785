package onboarding

import (
	"errors"
	"net/http"

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
	rg.GET("/users/me/onboarding_steps", h.list)
	rg.POST("/users/me/onboarding_steps", h.markSeen)
}

func (h *Handler) list(c *gin.Context) {
	steps, err := h.Svc.NextSteps(c.Request.Context(), middleware.UserIDFromContext(c))
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load onboarding steps", nil)
		return
	}
	respond.JSON(c, http.StatusOK, gin.H{"onboarding_steps": steps})
}

type markSeenRequest struct {
	Name string `json:"name" form:"name"`
}

func (h *Handler) markSeen(c *gin.Context) {
	var req markSeenRequest
	if err := c.ShouldBind(&req); err != nil || req.Name == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "name is required", nil)
		return
	}
	if err := h.Svc.MarkSeen(c.Request.Context(), middleware.UserIDFromContext(c), req.Name); err != nil {
		if errors.Is(err, ErrUnknownStep) {
			respond.Error(c, http.StatusBadRequest, "validation_error", "unknown onboarding step", gin.H{"name": req.Name})
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to mark onboarding step", nil)
		return
	}
	respond.Success(c)
}
