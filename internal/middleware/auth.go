package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/webermont/LeiaMais/internal/models"
)

const (
	contextUserID   = "user_id"
	contextUserRole = "user_role"
	contextClaims   = "claims"
	contextToken    = "access_token"
)

// TokenValidator checks access tokens. *services.AuthService satisfies it.
type TokenValidator interface {
	ValidateToken(ctx context.Context, tokenString string) (*models.JWTClaims, error)
}

type AuthMiddleware struct {
	validator TokenValidator
}

func NewAuthMiddleware(validator TokenValidator) *AuthMiddleware {
	return &AuthMiddleware{
		validator: validator,
	}
}

func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortWithError(c, http.StatusUnauthorized, "MISSING_AUTH_HEADER", "authorization header is required")
			return
		}

		parts := strings.Fields(authHeader)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			abortWithError(c, http.StatusUnauthorized, "INVALID_AUTH_FORMAT", "authorization header must be in format 'Bearer <token>'")
			return
		}

		claims, err := m.validator.ValidateToken(c.Request.Context(), parts[1])
		if err != nil {
			abortWithError(c, http.StatusUnauthorized, "INVALID_TOKEN", "invalid or expired token")
			return
		}

		c.Set(contextUserID, claims.UserID)
		c.Set(contextUserRole, claims.Role)
		c.Set(contextClaims, claims)
		c.Set(contextToken, parts[1])

		c.Next()
	}
}

func (m *AuthMiddleware) RequireRole(allowedRoles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := c.Get(contextUserRole)
		if !ok {
			abortWithError(c, http.StatusUnauthorized, "MISSING_USER_ROLE", "user role not found in context")
			return
		}

		userRole, ok := role.(models.UserRole)
		if !ok {
			abortWithError(c, http.StatusInternalServerError, "INVALID_ROLE_TYPE", "invalid role type in context")
			return
		}

		for _, allowed := range allowedRoles {
			if userRole == allowed {
				c.Next()
				return
			}
		}

		abortWithError(c, http.StatusForbidden, "INSUFFICIENT_PERMISSIONS", "insufficient permissions to access this resource")
	}
}

// RequireStaff admits librarians and admins.
func (m *AuthMiddleware) RequireStaff() gin.HandlerFunc {
	return m.RequireRole(models.RoleLibrarian, models.RoleAdmin)
}

func (m *AuthMiddleware) RequireAdmin() gin.HandlerFunc {
	return m.RequireRole(models.RoleAdmin)
}

func GetUserID(c *gin.Context) int64 {
	userID, exists := c.Get(contextUserID)
	if !exists {
		return 0
	}

	if id, ok := userID.(int64); ok {
		return id
	}

	return 0
}

func GetUserRole(c *gin.Context) models.UserRole {
	userRole, exists := c.Get(contextUserRole)
	if !exists {
		return ""
	}

	if role, ok := userRole.(models.UserRole); ok {
		return role
	}

	return ""
}

func GetClaims(c *gin.Context) *models.JWTClaims {
	claims, exists := c.Get(contextClaims)
	if !exists {
		return nil
	}

	if cl, ok := claims.(*models.JWTClaims); ok {
		return cl
	}

	return nil
}

// GetAccessToken returns the bearer token RequireAuth accepted.
func GetAccessToken(c *gin.Context) string {
	return c.GetString(contextToken)
}

func abortWithError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"error": message,
		"code":  code,
	})
}
