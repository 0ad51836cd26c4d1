package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/phizone/record-api/internal/logging"
)

// RequestLogger logs each request through the shared zerolog logger
func RequestLogger() gin.HandlerFunc {
	log := logging.Component("http")
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		log.Info().
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Msg("request")
	}
}
