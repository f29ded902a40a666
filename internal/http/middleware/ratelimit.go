package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// TokenTaker is the part of ratelimit.Limiter used by RateLimit.
type TokenTaker interface {
	Take(key string) (bool, time.Duration)
}

// ClientIP returns the first X-Forwarded-For entry, or the host part of the
// connection's remote address.
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if ip := strings.TrimSpace(strings.Split(fwd, ",")[0]); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// RateLimit spends one token per request from the bucket keyed by client IP
// and path.
func RateLimit(limiter TokenTaker) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := ClientIP(c.Request) + ":" + c.Request.URL.Path
		ok, wait := limiter.Take(key)
		if !ok {
			secs := int(math.Ceil(wait.Seconds()))
			if secs < 1 {
				secs = 1
			}
			c.Header("Retry-After", strconv.Itoa(secs))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests, try again later"})
			return
		}
		c.Next()
	}
}
