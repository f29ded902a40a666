package middleware

import (
	"net/http"
	"time"

	"github.com/cuido/cuidosvc/domain"
	"github.com/cuido/cuidosvc/internal/infrastructure/auth"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CasbinMW checks the caller's role against the route policies.
type CasbinMW struct {
	enforcer domain.CasbinEnforcer
	audit    domain.AuditLogger
	log      *zap.Logger
}

// NewCasbinMW creates new casbin middleware wrapper
func NewCasbinMW(enforcer domain.CasbinEnforcer, audit domain.AuditLogger, log *zap.Logger) *CasbinMW {
	if log == nil {
		log = zap.NewNop()
	}
	return &CasbinMW{enforcer: enforcer, audit: audit, log: log.Named("rbac")}
}

// Enforce returns the casbin authorization middleware. It must run after
// AuthMiddleware.
func (mw *CasbinMW) Enforce() gin.HandlerFunc {
	return gin.HandlerFunc(func(c *gin.Context) {
		actor, err := CurrentActor(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "User ID or role not found in token"})
			return
		}

		path := c.Request.URL.Path
		method := c.Request.Method

		allowed, err := mw.enforcer.Enforce(auth.Subject(actor.Role), path, method)
		if err != nil {
			mw.log.Error("policy check failed", zap.String("path", path), zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Authorization check failed"})
			return
		}

		if !allowed {
			if mw.audit != nil {
				event := domain.NewAuditEvent(domain.AccessDeniedEvent, actor.ID, time.Now()).
					WithEmail(actor.Email).
					WithMetadata("path", path).
					WithMetadata("method", method).
					WithMetadata("role", string(actor.Role)).
					WithError(domain.ErrRoleNotAuthorized)
				_ = mw.audit.LogEvent(c.Request.Context(), event)
			}
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Access Denied"})
			return
		}

		c.Next()
	})
}
