package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/studentmanagement/internal/app/models"
	"github.com/yigit/studentmanagement/internal/app/models/dto"
	"github.com/yigit/studentmanagement/internal/pkg/apperrors"
	"github.com/yigit/studentmanagement/internal/pkg/auth"
)

// Context keys set by OptionalJWT
const (
	ContextKeyClaims    = "claims"
	ContextKeyUserID    = "userID"
	ContextKeyUsername  = "username"
	ContextKeyRole      = "role"
	contextKeyAuthError = "authError"
)

// TokenValidator validates bearer tokens. Implemented by auth.JWTService.
type TokenValidator interface {
	ValidateToken(tokenString string) (*auth.Claims, error)
}

// AuthMiddleware for authentication and authorization
type AuthMiddleware struct {
	tokens TokenValidator
	logger zerolog.Logger
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(tokens TokenValidator, logger zerolog.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		tokens: tokens,
		logger: logger,
	}
}

// OptionalJWT authenticates the request when it carries a valid bearer token.
// A missing or invalid token leaves the request unauthenticated; the route gates decide.
func (m *AuthMiddleware) OptionalJWT() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Next()
			return
		}

		tokenString, err := auth.ExtractBearerToken(authHeader)
		if err == nil {
			var claims *auth.Claims
			if claims, err = m.tokens.ValidateToken(tokenString); err == nil {
				c.Set(ContextKeyClaims, claims)
				c.Set(ContextKeyUserID, claims.UserID)
				c.Set(ContextKeyUsername, claims.Username())
				c.Set(ContextKeyRole, claims.Role)
				c.Next()
				return
			}
		}

		m.logger.Debug().Err(err).Str("path", c.Request.URL.Path).Msg("Ignoring invalid bearer token")
		c.Set(contextKeyAuthError, err)
		c.Next()
	}
}

// RequireAuthenticated rejects unauthenticated requests with 401
func (m *AuthMiddleware) RequireAuthenticated() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := ClaimsFromContext(c); !ok {
			abortUnauthenticated(c)
			return
		}
		c.Next()
	}
}

// RequireRole rejects unauthenticated requests with 401 and requests from other roles with 403
func (m *AuthMiddleware) RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := ClaimsFromContext(c)
		if !ok {
			abortUnauthenticated(c)
			return
		}

		for _, role := range roles {
			if claims.HasRole(role) {
				c.Next()
				return
			}
		}

		m.logger.Warn().Int64("userID", claims.UserID).Str("role", claims.Role).Str("path", c.Request.URL.Path).Msg("Access denied")
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeForbidden, "Access denied").
			WithDetails("You don't have sufficient permissions for this operation")
		c.AbortWithStatusJSON(http.StatusForbidden, dto.NewErrorResponse(errorDetail))
	}
}

// ClaimsFromContext returns the claims stored by OptionalJWT
func ClaimsFromContext(c *gin.Context) (*auth.Claims, bool) {
	value, exists := c.Get(ContextKeyClaims)
	if !exists {
		return nil, false
	}
	claims, ok := value.(*auth.Claims)
	return claims, ok && claims != nil
}

func abortUnauthenticated(c *gin.Context) {
	errorDetail := dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required").
		WithDetails("Authorization header missing")

	if value, ok := c.Get(contextKeyAuthError); ok {
		err, _ := value.(error)
		switch {
		case errors.Is(err, apperrors.ErrTokenExpired):
			errorDetail = dto.NewErrorDetail(dto.ErrorCodeExpiredToken, "Authentication failed").WithDetails("Token has expired")
		case errors.Is(err, apperrors.ErrInvalidFormat):
			errorDetail = dto.NewErrorDetail(dto.ErrorCodeInvalidToken, "Authentication failed").WithDetails("Invalid token format")
		default:
			errorDetail = dto.NewErrorDetail(dto.ErrorCodeInvalidToken, "Authentication failed").WithDetails("Invalid token")
		}
	}

	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
}
