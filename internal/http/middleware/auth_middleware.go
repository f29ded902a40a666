package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/cuido/cuidosvc/domain"
	"github.com/gin-gonic/gin"
)

// Context keys set by WithJWT.
const (
	ContextUserID    = "user_id"
	ContextUserRole  = "user_role"
	ContextEmail     = "email"
	ContextSessionID = "session_id"
)

// AuthMW authenticates requests carrying a bearer access token. The token's
// session must still exist, so logging out revokes its access tokens too.
type AuthMW struct {
	tokens   domain.TokenService
	sessions domain.SessionRepository
}

func NewAuthMW(tokens domain.TokenService, sessions domain.SessionRepository) *AuthMW {
	return &AuthMW{tokens: tokens, sessions: sessions}
}

// WithJWT rejects the request with 401 unless it is authenticated, and
// otherwise stores the caller under the Context* keys.
func (mw *AuthMW) WithJWT() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, status, msg := mw.authenticate(c)
		if claims == nil {
			c.AbortWithStatusJSON(status, gin.H{"error": msg})
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextUserRole, claims.Role)
		c.Set(ContextEmail, claims.Email)
		if claims.SessionID != "" {
			c.Set(ContextSessionID, claims.SessionID)
		}
		c.Next()
	}
}

// authenticate returns the caller's claims, or the status and message to
// reject the request with. A session store failure is a 500, not a 401.
func (mw *AuthMW) authenticate(c *gin.Context) (*domain.TokenClaims, int, string) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return nil, http.StatusUnauthorized, "Authorization header required"
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || scheme != "Bearer" {
		return nil, http.StatusUnauthorized, "Invalid authorization header format"
	}

	claims, err := mw.tokens.ValidateAccessToken(token)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrTokenExpired):
		return nil, http.StatusUnauthorized, "Token expired"
	case errors.Is(err, domain.ErrTokenInvalid), errors.Is(err, domain.ErrTokenMalformed):
		return nil, http.StatusUnauthorized, "Invalid token"
	default:
		return nil, http.StatusUnauthorized, "Token validation failed"
	}

	if claims.SessionID == "" {
		return claims, 0, ""
	}
	session, err := mw.sessions.FindByID(c.Request.Context(), claims.SessionID)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthenticated) {
			return nil, http.StatusUnauthorized, "Session invalid or expired"
		}
		_ = c.Error(err)
		return nil, http.StatusInternalServerError, "Internal server error"
	}
	if session == nil {
		return nil, http.StatusUnauthorized, "Session invalid or expired"
	}
	if session.UserID != claims.UserID {
		return nil, http.StatusUnauthorized, "Session user mismatch"
	}
	return claims, 0, ""
}

// CurrentActor returns the caller stored by WithJWT.
func CurrentActor(c *gin.Context) (domain.Actor, error) {
	userID, ok := c.Value(ContextUserID).(uint)
	if !ok {
		return domain.Actor{}, domain.ErrUnauthenticated
	}
	role, _ := c.Value(ContextUserRole).(domain.Role)
	return domain.Actor{ID: userID, Role: role, Email: c.GetString(ContextEmail)}, nil
}
