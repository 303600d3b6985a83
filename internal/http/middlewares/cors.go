package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

var (
	corsMethods = strings.Join([]string{
		http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions,
	}, ",")
	corsAllowHeaders  = strings.Join([]string{"Content-Type", "If-None-Match", requestIDHeader}, ",")
	corsExposeHeaders = strings.Join([]string{"ETag", requestIDHeader}, ",")
)

// CORSMiddleware answers browsers from the configured origins. "*" in the list
// allows any origin. Preflights are terminated here with 204.
func CORSMiddleware(allowedOrigins []string) gin.HandlerFunc {
	allowAny := false
	allowed := make(map[string]bool, len(allowedOrigins))

	for _, origin := range allowedOrigins {
		origin = strings.TrimSpace(origin)
		if origin == "*" {
			allowAny = true
			continue
		}
		allowed[strings.TrimRight(origin, "/")] = true
	}

	return func(ctx *gin.Context) {
		origin := ctx.GetHeader("Origin")
		if origin == "" {
			ctx.Next()
			return
		}

		ctx.Writer.Header().Add("Vary", "Origin")

		if allowAny || allowed[origin] {
			ctx.Header("Access-Control-Allow-Origin", origin)
			ctx.Header("Access-Control-Expose-Headers", corsExposeHeaders)
		}

		preflight := ctx.Request.Method == http.MethodOptions &&
			ctx.GetHeader("Access-Control-Request-Method") != ""
		if !preflight {
			ctx.Next()
			return
		}

		if allowAny || allowed[origin] {
			ctx.Header("Access-Control-Allow-Methods", corsMethods)
			ctx.Header("Access-Control-Allow-Headers", corsAllowHeaders)
			ctx.Header("Access-Control-Max-Age", "600")
		}

		ctx.AbortWithStatus(http.StatusNoContent)
	}
}
