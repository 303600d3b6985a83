package middlewares

import (
	"mime"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// MaxBodyBytes caps request bodies; a non-positive limit disables the cap.
// Overflow surfaces as *http.MaxBytesError while the handler decodes.
func MaxBodyBytes(limit int64) gin.HandlerFunc {
	if limit <= 0 {
		return func(ctx *gin.Context) { ctx.Next() }
	}

	return func(ctx *gin.Context) {
		if ctx.Request.Body != nil && ctx.Request.Body != http.NoBody {
			ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, limit)
		}

		ctx.Next()
	}
}

// RequireJSON rejects API writes whose body is not declared as JSON.
func RequireJSON() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if !hasBodyMethod(ctx.Request.Method) || !strings.HasPrefix(ctx.Request.URL.Path, "/api/") {
			ctx.Next()
			return
		}

		mediaType, _, err := mime.ParseMediaType(ctx.GetHeader("Content-Type"))
		if err != nil || mediaType != "application/json" {
			reqID, _ := ctx.Get(CtxRequestID)

			ctx.AbortWithStatusJSON(http.StatusUnsupportedMediaType, gin.H{
				"error": gin.H{
					"code":      "unsupported_media_type",
					"message":   "Content-Type must be application/json",
					"requestId": reqID,
				},
			})
			return
		}

		ctx.Next()
	}
}

func hasBodyMethod(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return true
	}
	return false
}
