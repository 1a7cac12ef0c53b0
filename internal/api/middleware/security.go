package middleware

import (
	"github.com/gin-gonic/gin"
)

// hstsValue is sent only on requests that reached us over https
const hstsValue = "max-age=31536000; includeSubDomains"

// SecurityHeaders sets hardening headers for a JSON and download API.
// Responses carry tokens, scores and letter PDFs, so nothing is cached.
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("Referrer-Policy", "no-referrer")
		c.Header("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		c.Header("Cache-Control", "no-store")
		if c.Request.TLS != nil || c.GetHeader("X-Forwarded-Proto") == "https" {
			c.Header("Strict-Transport-Security", hstsValue)
		}

		c.Next()
	}
}
