package avatars

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"realm-uploads/internal/shared/metrics"
	"realm-uploads/internal/shared/server/formfile"
	"realm-uploads/internal/shared/server/middleware"
	"realm-uploads/internal/shared/server/respond"
	"realm-uploads/internal/shared/storage/object"
	"realm-uploads/internal/users"
)

type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/users/me/avatar", h.redirectOwn)
	rg.GET("/users/me/avatar/original", h.original)
	rg.POST("/users/me/avatar", h.upload)
	rg.DELETE("/users/me/avatar", h.reset)
	rg.GET("/avatar/:user_id", h.redirectByID)
	rg.GET("/avatar/:user_id/url", h.avatarField)
}

func (h *Handler) redirectOwn(c *gin.Context) {
	user, err := h.Svc.Users.GetByID(c.Request.Context(), middleware.UserIDFromContext(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	metrics.IncAvatarURLs()
	c.Redirect(http.StatusFound, h.Svc.Resolver.URL(user, isMedium(c)))
}

// redirectByID serves avatars of other users; users in other realms get the
// placeholder for inaccessible users.
func (h *Handler) redirectByID(c *gin.Context) {
	principal, _ := middleware.PrincipalFromContext(c)
	id, err := strconv.ParseInt(c.Param("user_id"), 10, 64)
	if err != nil || id <= 0 {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid user id", nil)
		return
	}
	user, err := h.Svc.Users.GetByID(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	metrics.IncAvatarURLs()
	if user.RealmID != principal.RealmID || !user.IsActive {
		c.Redirect(http.StatusFound, h.Svc.Resolver.InaccessibleUserURL())
		return
	}
	c.Redirect(http.StatusFound, h.Svc.Resolver.URL(user, isMedium(c)))
}

// avatarField returns the avatar URL a client should display. With
// client_gravatar=true and gravatar enabled, avatar_url is null for users
// without an uploaded avatar and the client derives it from the email.
func (h *Handler) avatarField(c *gin.Context) {
	principal, _ := middleware.PrincipalFromContext(c)
	id, err := strconv.ParseInt(c.Param("user_id"), 10, 64)
	if err != nil || id <= 0 {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid user id", nil)
		return
	}
	user, err := h.Svc.Users.GetByID(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	metrics.IncAvatarURLs()
	if user.RealmID != principal.RealmID || !user.IsActive {
		respond.JSON(c, http.StatusOK, gin.H{
			"user_id":             id,
			"avatar_url":          h.Svc.Resolver.InaccessibleUserURL(),
			"absolute_avatar_url": h.Svc.Resolver.InaccessibleUserURL(),
		})
		return
	}

	clientGravatar, _ := strconv.ParseBool(c.Query("client_gravatar"))
	medium := isMedium(c)
	var avatarURL any
	if field, ok := h.Svc.Resolver.AvatarField(user, medium, clientGravatar); ok {
		avatarURL = field
	}
	respond.JSON(c, http.StatusOK, gin.H{
		"user_id":             user.ID,
		"avatar_url":          avatarURL,
		"absolute_avatar_url": h.Svc.Resolver.AbsoluteURL(user, requestOrigin(c), medium),
	})
}

func (h *Handler) original(c *gin.Context) {
	data, contentType, err := h.Svc.Original(c.Request.Context(), middleware.UserIDFromContext(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Data(http.StatusOK, contentType, data)
}

func (h *Handler) upload(c *gin.Context) {
	file, err := formfile.Read(c, "file", h.Svc.MaxBytes)
	if err != nil {
		h.fail(c, err)
		return
	}
	user, err := h.Svc.Upload(c.Request.Context(), middleware.UserIDFromContext(c), file.Data, file.ContentType)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond.JSON(c, http.StatusOK, gin.H{"avatar_url": h.Svc.Resolver.URL(user, false)})
}

func (h *Handler) reset(c *gin.Context) {
	user, err := h.Svc.Reset(c.Request.Context(), middleware.UserIDFromContext(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	respond.JSON(c, http.StatusOK, gin.H{"avatar_url": h.Svc.Resolver.URL(user, false)})
}

func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, users.ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "user not found", nil)
	case errors.Is(err, object.ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "avatar not found", nil)
	case errors.Is(err, formfile.ErrMissing), errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, formfile.ErrTooLarge), errors.Is(err, ErrTooLarge):
		respond.Error(c, http.StatusRequestEntityTooLarge, "file_too_large", "avatar exceeds the size limit", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "avatar request failed", nil)
	}
}

// requestOrigin is the scheme and host the client reached the realm on.
func requestOrigin(c *gin.Context) string {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if proto := c.GetHeader("X-Forwarded-Proto"); proto == "http" || proto == "https" {
		scheme = proto
	}
	return scheme + "://" + c.Request.Host + "/"
}

func isMedium(c *gin.Context) bool {
	medium, _ := strconv.ParseBool(c.Query("medium"))
	return medium
}
