package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"realm-uploads/internal/shared/auth"
	"realm-uploads/internal/shared/server/respond"
)

const (
	userIDKey  = "userId"
	realmIDKey = "realmId"
	isAdminKey = "isAdmin"
)

// Principal is the authenticated caller.
type Principal struct {
	UserID  int64
	RealmID int64
	IsAdmin bool
}

// Auth validates Bearer JWTs and stores identity in context. Outside
// production, X-User-Id and X-Realm-Id headers are accepted instead.
func Auth(env string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Status(http.StatusNoContent)
			return
		}

		authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
		if authHeader != "" {
			if !strings.HasPrefix(authHeader, "Bearer ") {
				respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
				return
			}
			token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer"))
			claims, err := auth.VerifyJWT(token)
			if err != nil {
				respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
				return
			}
			userID, err := claims.UserID()
			if err != nil {
				respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
				return
			}
			setPrincipal(c, Principal{UserID: userID, RealmID: claims.RealmID, IsAdmin: claims.IsAdmin})
			c.Next()
			return
		}

		if env != "production" {
			userID, uerr := strconv.ParseInt(strings.TrimSpace(c.GetHeader("X-User-Id")), 10, 64)
			realmID, rerr := strconv.ParseInt(strings.TrimSpace(c.GetHeader("X-Realm-Id")), 10, 64)
			if uerr == nil && rerr == nil && userID > 0 && realmID > 0 {
				isAdmin, _ := strconv.ParseBool(c.GetHeader("X-Is-Admin"))
				setPrincipal(c, Principal{UserID: userID, RealmID: realmID, IsAdmin: isAdmin})
				c.Next()
				return
			}
		}

		respond.Error(c, http.StatusUnauthorized, "unauthorized", "Missing identity", nil)
	}
}

func setPrincipal(c *gin.Context, p Principal) {
	c.Set(userIDKey, p.UserID)
	c.Set(realmIDKey, p.RealmID)
	c.Set(isAdminKey, p.IsAdmin)
}

// PrincipalFromContext fetches the identity set by the auth middleware.
func PrincipalFromContext(c *gin.Context) (Principal, bool) {
	if c == nil {
		return Principal{}, false
	}
	userID := c.GetInt64(userIDKey)
	realmID := c.GetInt64(realmIDKey)
	if userID <= 0 || realmID <= 0 {
		return Principal{}, false
	}
	return Principal{UserID: userID, RealmID: realmID, IsAdmin: c.GetBool(isAdminKey)}, true
}

// UserIDFromContext fetches the user ID set by the auth middleware.
func UserIDFromContext(c *gin.Context) int64 {
	if c == nil {
		return 0
	}
	return c.GetInt64(userIDKey)
}
