package auth

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/industria/api/internal/config"
	apierrors "github.com/industria/api/internal/errors"
	"github.com/industria/api/internal/middleware"
)

// ClaimsKey is the context key for verified token claims
const ClaimsKey = "auth_claims"

// Middleware guards routes with bearer token verification.
// A disabled Middleware lets every request through.
type Middleware struct {
	verifier  *Verifier
	adminRole string
	enabled   bool
}

// NewMiddleware builds the auth middleware from configuration.
func NewMiddleware(cfg config.AuthConfig) (*Middleware, error) {
	m := &Middleware{adminRole: cfg.AdminRole, enabled: cfg.Enabled}
	if !cfg.Enabled {
		return m, nil
	}

	verifier, err := NewVerifier(cfg)
	if err != nil {
		return nil, err
	}
	m.verifier = verifier
	return m, nil
}

// Enabled reports whether tokens are checked.
func (m *Middleware) Enabled() bool {
	return m.enabled
}

// Authenticate requires a valid "Authorization: Bearer <token>" header and
// stores the verified claims in the context.
func (m *Middleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !m.enabled {
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			apierrors.Unauthorized(c, "Authorization header required")
			return
		}

		scheme, token, found := strings.Cut(authHeader, " ")
		token = strings.TrimSpace(token)
		if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
			apierrors.Unauthorized(c, "Invalid authorization header format")
			return
		}

		claims, err := m.verifier.Verify(token)
		if err != nil {
			if log := middleware.GetLogger(c); log != nil {
				log.Debug("Token verification failed", map[string]interface{}{"error": err.Error()})
			}
			apierrors.Unauthorized(c, "Invalid or expired token")
			return
		}

		c.Set(ClaimsKey, claims)
		c.Set(middleware.SubjectKey, claims.Subject)
		c.Next()
	}
}

// RequireRole rejects authenticated callers whose token lacks role.
func (m *Middleware) RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !m.enabled {
			c.Next()
			return
		}

		claims, ok := GetClaims(c)
		if !ok {
			apierrors.Unauthorized(c, "Authentication required")
			return
		}
		if !claims.HasRole(role) {
			apierrors.Forbidden(c, "Insufficient permissions")
			return
		}
		c.Next()
	}
}

// RequireAdmin is RequireRole with the configured admin role.
func (m *Middleware) RequireAdmin() gin.HandlerFunc {
	return m.RequireRole(m.adminRole)
}

// GetClaims retrieves the verified claims from the Gin context.
func GetClaims(c *gin.Context) (*Claims, bool) {
	value, exists := c.Get(ClaimsKey)
	if !exists {
		return nil, false
	}
	claims, ok := value.(*Claims)
	return claims, ok
}
