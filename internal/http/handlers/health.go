package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// PingFunc reports whether the backing store is reachable.
type PingFunc func(ctx context.Context) error

type HealthHandler struct {
	ping    PingFunc
	timeout time.Duration
}

// create a new instance of the health handler
func NewHealthHandler(ping PingFunc) *HealthHandler {
	return &HealthHandler{ping: ping, timeout: time.Second}
}

func (h *HealthHandler) Healthz(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *HealthHandler) Readyz(ctx *gin.Context) {
	if h.ping == nil {
		ctx.JSON(http.StatusOK, gin.H{"status": "ready"})
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	if err := h.ping(cctx); err != nil {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "reason": "store unreachable"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"status": "ready"})
}
