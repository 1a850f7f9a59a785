package server

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"realm-uploads/internal/shared/server/respond"
)

// Health reports liveness and, when a database is configured, its reachability.
type Health struct {
	DB        *sql.DB
	StoreType string
}

func NewHealth(db *sql.DB, storeType string) *Health {
	return &Health{DB: db, StoreType: storeType}
}

// Status returns the health payload and whether every dependency is up.
func (h *Health) Status(ctx context.Context) (map[string]any, bool) {
	status := map[string]any{"ok": true, "objectStore": h.StoreType}
	if h.DB == nil {
		status["database"] = "memory"
		return status, true
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := h.DB.PingContext(ctx); err != nil {
		status["ok"] = false
		status["database"] = "unreachable"
		return status, false
	}
	status["database"] = "ok"
	return status, true
}

func (h *Health) Handle(c *gin.Context) {
	status, ok := h.Status(c.Request.Context())
	code := http.StatusOK
	if !ok {
		code = http.StatusServiceUnavailable
	}
	respond.JSON(c, code, status)
}
