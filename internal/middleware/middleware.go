// Package middleware provides Gin middleware for the tracker API:
// request logging and admin API key authentication.
package middleware

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// AdminKeyAuth returns a middleware that validates the X-Admin-Key header
// (or a Bearer token) against the configured key. Fail-secure: when no key
// is configured, every request is rejected.
func AdminKeyAuth(expectedKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if expectedKey == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "operator API disabled: MAINT_ADMIN_API_KEY not configured",
			})
			return
		}

		key := c.GetHeader("X-Admin-Key")
		if key == "" {
			key = c.GetHeader("Authorization")
			if len(key) > 7 && key[:7] == "Bearer " {
				key = key[7:]
			}
		}
		if key != expectedKey {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "unauthorized: invalid or missing admin API key",
			})
			return
		}
		c.Next()
	}
}

// Logging returns a middleware that logs request and response metadata:
// method, path, status code, latency, and client IP.
func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		statusCode := c.Writer.Status()
		if query != "" {
			path = path + "?" + query
		}

		switch {
		case statusCode >= 500:
			log.Printf("[ERROR] %s %s | %d | %v | %s | errors: %s",
				c.Request.Method, path, statusCode, latency, c.ClientIP(),
				c.Errors.ByType(gin.ErrorTypePrivate).String())
		case statusCode >= 400:
			log.Printf("[WARN]  %s %s | %d | %v | %s",
				c.Request.Method, path, statusCode, latency, c.ClientIP())
		default:
			log.Printf("[INFO]  %s %s | %d | %v | %s",
				c.Request.Method, path, statusCode, latency, c.ClientIP())
		}
	}
}
