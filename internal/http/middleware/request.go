package middleware

import (
	"time"

	"github.com/cuido/cuidosvc/domain"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ClientContext attaches the caller's address and user agent to the request
// context for audit events.
func ClientContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		cc := &domain.ClientContext{
			IPAddress: ClientIP(c.Request),
			UserAgent: c.Request.UserAgent(),
		}
		c.Request = c.Request.WithContext(domain.WithClientContext(c.Request.Context(), cc))
		c.Next()
	}
}

// RequestLogger logs one line per request.
func RequestLogger(log *zap.Logger) gin.HandlerFunc {
	log = log.Named("http")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", ClientIP(c.Request)),
		}
		if id, ok := c.Get(ContextUserID); ok {
			fields = append(fields, zap.Any("user_id", id))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		switch status := c.Writer.Status(); {
		case status >= 500:
			log.Error("request", fields...)
		case status >= 400:
			log.Warn("request", fields...)
		default:
			log.Info("request", fields...)
		}
	}
}
