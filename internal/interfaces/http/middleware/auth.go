package middleware

import (
	"errors"
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/mestresdocafe/backend/internal/infrastructure/auth"
	"github.com/mestresdocafe/backend/internal/infrastructure/logger"
	"github.com/mestresdocafe/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// Gin context keys and headers used by authentication
const (
	ClaimsKey      = "auth_claims"
	TenantIDKey    = logger.GinTenantIDKey
	AuthHeaderKey  = "Authorization"
	BearerPrefix   = "Bearer "
	HeaderTenantID = "X-Tenant-ID"
)

// AuthConfig holds configuration for the authentication middleware
type AuthConfig struct {
	// Tokens validates bearer tokens. Required.
	Tokens *auth.TokenService
	// Revocations is optional; lookups fail open when it errors
	Revocations auth.RevocationList
	// AllowTenantHeader accepts a bare X-Tenant-ID in place of a token.
	// Such callers get every scope, so this is for local development only.
	AllowTenantHeader bool
	// SkipPaths are full paths that don't require authentication
	SkipPaths []string
	Logger    *zap.Logger
}

// Auth resolves the calling tenant from a bearer token, or from X-Tenant-ID
// when the header fallback is enabled, and stores it on the gin and request
// contexts.
func Auth(cfg AuthConfig) gin.HandlerFunc {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *gin.Context) {
		if slices.Contains(cfg.SkipPaths, c.Request.URL.Path) {
			c.Next()
			return
		}

		authHeader := c.GetHeader(AuthHeaderKey)
		if authHeader == "" && cfg.AllowTenantHeader {
			tenantHeaderAuth(c, log)
			return
		}

		tokenString, ok := strings.CutPrefix(authHeader, BearerPrefix)
		if !ok || tokenString == "" {
			abortAuth(c, log, auth.ErrInvalidToken, "Missing or malformed authorization header")
			return
		}

		claims, err := cfg.Tokens.Validate(tokenString)
		if err != nil {
			abortAuth(c, log, err, "Token validation failed")
			return
		}

		if cfg.Revocations != nil && isRevoked(c, log, cfg.Revocations, claims) {
			abortAuth(c, log, auth.ErrTokenRevoked, "Token has been revoked")
			return
		}

		c.Set(ClaimsKey, claims)
		setTenant(c, claims.TenantID)
		log.Debug("Authenticated request",
			zap.String("tenant_id", claims.TenantID),
			zap.String("subject", claims.Subject),
		)
		c.Next()
	}
}

// isRevoked checks the token id and the tenant-wide cut-off. Lookup errors
// are logged and treated as not revoked.
func isRevoked(c *gin.Context, log *zap.Logger, list auth.RevocationList, claims *auth.Claims) bool {
	ctx := c.Request.Context()
	if claims.ID != "" {
		revoked, err := list.IsTokenRevoked(ctx, claims.ID)
		if err != nil {
			log.Error("Failed to check token revocation", zap.String("jti", claims.ID), zap.Error(err))
		} else if revoked {
			return true
		}
	}
	revoked, err := list.IsTenantRevoked(ctx, claims.TenantID, claims.IssuedAtTime())
	if err != nil {
		log.Error("Failed to check tenant revocation", zap.String("tenant_id", claims.TenantID), zap.Error(err))
		return false
	}
	return revoked
}

func tenantHeaderAuth(c *gin.Context, log *zap.Logger) {
	tenantID := strings.TrimSpace(c.GetHeader(HeaderTenantID))
	if tenantID == "" {
		abortAuth(c, log, auth.ErrMissingTenantID, "Missing authorization header")
		return
	}
	if _, err := uuid.Parse(tenantID); err != nil {
		abortAuth(c, log, auth.ErrInvalidClaims, "Invalid X-Tenant-ID header")
		return
	}
	setTenant(c, tenantID)
	c.Next()
}

func setTenant(c *gin.Context, tenantID string) {
	c.Set(TenantIDKey, tenantID)
	c.Request = c.Request.WithContext(logger.WithTenantID(c.Request.Context(), tenantID))
}

func abortAuth(c *gin.Context, log *zap.Logger, err error, message string) {
	log.Warn("Authentication failed",
		zap.Error(err),
		zap.String("reason", message),
		zap.String("path", c.Request.URL.Path),
	)

	code, msg := dto.ErrCodeUnauthorized, "Authentication required"
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		code, msg = dto.ErrCodeTokenExpired, "Token has expired"
	case errors.Is(err, auth.ErrTokenRevoked):
		code, msg = dto.ErrCodeTokenRevoked, "Token has been revoked"
	case errors.Is(err, auth.ErrMissingTenantID):
		code, msg = dto.ErrCodeNoTenant, "Tenant could not be resolved"
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrInvalidClaims),
		errors.Is(err, auth.ErrTokenNotYetValid):
		code, msg = dto.ErrCodeTokenInvalid, "Invalid token"
	}

	c.AbortWithStatusJSON(http.StatusUnauthorized,
		dto.NewErrorResponseWithRequestID(code, msg, c.GetString(logger.GinRequestIDKey)))
}

// RequireScope rejects token callers lacking scope. Requests authenticated
// through the tenant header fallback carry no claims and pass.
func RequireScope(scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil || claims.HasScope(scope) {
			c.Next()
			return
		}
		c.AbortWithStatusJSON(http.StatusForbidden, dto.NewErrorResponseWithRequestID(
			dto.ErrCodeForbidden,
			"Token lacks the "+scope+" scope",
			c.GetString(logger.GinRequestIDKey),
		))
	}
}

// GetClaims returns the validated token claims, or nil
func GetClaims(c *gin.Context) *auth.Claims {
	if v, ok := c.Get(ClaimsKey); ok {
		if claims, ok := v.(*auth.Claims); ok {
			return claims
		}
	}
	return nil
}

// GetTenantID returns the tenant resolved by Auth, or ""
func GetTenantID(c *gin.Context) string {
	return c.GetString(TenantIDKey)
}

// GetTenantUUID parses the tenant resolved by Auth
func GetTenantUUID(c *gin.Context) (uuid.UUID, error) {
	return uuid.Parse(GetTenantID(c))
}
