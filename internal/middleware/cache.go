package middleware

import (
	"fmt"

	"github.com/gin-gonic/gin"
)

// CacheControl sets the Cache-Control header for static client assets.
// A zero max age marks responses as always revalidated.
func CacheControl(maxAgeSeconds int) gin.HandlerFunc {
	value := "no-cache"
	if maxAgeSeconds > 0 {
		value = fmt.Sprintf("public, max-age=%d", maxAgeSeconds)
	}
	return func(c *gin.Context) {
		c.Header("Cache-Control", value)
		c.Next()
	}
}

// NoStore marks API responses as uncacheable so edited records are never
// served stale by an intermediary.
func NoStore() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "no-store")
		c.Next()
	}
}
