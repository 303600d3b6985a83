package middlewares

import "github.com/gin-gonic/gin"

// responses are JSON only and must never be framed or sniffed
var securityHeaders = [][2]string{
	{"X-Content-Type-Options", "nosniff"},
	{"X-Frame-Options", "DENY"},
	{"Referrer-Policy", "no-referrer"},
	{"Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'"},
	{"Cross-Origin-Resource-Policy", "same-site"},
	{"Permissions-Policy", "interest-cohort=()"},
}

func SecurityHeaders() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		h := ctx.Writer.Header()
		for _, kv := range securityHeaders {
			h.Set(kv[0], kv[1])
		}

		ctx.Next()
	}
}
