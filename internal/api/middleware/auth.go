package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Koomefranklin/kise-results-backend/internal/api/handler"
	"github.com/Koomefranklin/kise-results-backend/pkg/jwt"
	"github.com/Koomefranklin/kise-results-backend/pkg/response"
)

// TokenBlacklist reports revoked access tokens
type TokenBlacklist interface {
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
}

// MustChangeChecker reports whether a user still has to replace the
// password they were issued
type MustChangeChecker func(ctx context.Context, userID string) (bool, error)

// JWTAuth validates the Bearer access token and injects its claims.
// A nil blacklist skips the revocation check; a failing one lets the
// request through.
func JWTAuth(jwtMgr *jwt.Manager, blacklist TokenBlacklist, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, 10002, "missing authorization header")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(c, 10002, "malformed authorization header")
			c.Abort()
			return
		}

		claims, err := jwtMgr.ParseToken(parts[1])
		if err != nil {
			response.Unauthorized(c, 10002, "token invalid or expired")
			c.Abort()
			return
		}

		if claims.TokenType != "access" {
			response.Unauthorized(c, 10002, "wrong token type")
			c.Abort()
			return
		}

		if blacklist != nil && claims.ID != "" {
			revoked, err := blacklist.IsBlacklisted(c.Request.Context(), claims.ID)
			if err != nil {
				logger.Warn("failed to check token blacklist", zap.Error(err))
			} else if revoked {
				response.Unauthorized(c, 10002, "token has been revoked")
				c.Abort()
				return
			}
		}

		c.Set(handler.CtxUserID, claims.UserID)
		c.Set(handler.CtxRole, claims.Role)
		c.Set(handler.CtxSpecializationID, claims.SpecializationID)
		c.Set(handler.CtxIsHoD, claims.IsHoD)
		c.Set(handler.CtxTokenJTI, claims.ID)
		if claims.ExpiresAt != nil {
			c.Set(handler.CtxTokenExp, claims.ExpiresAt.Time)
		}

		c.Next()
	}
}

// RoleAuth allows only the listed roles
func RoleAuth(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userRole := c.GetString(handler.CtxRole)
		if userRole == "" {
			response.Unauthorized(c, 10002, "not authenticated")
			c.Abort()
			return
		}

		for _, r := range allowedRoles {
			if userRole == r {
				c.Next()
				return
			}
		}

		response.Forbidden(c, 10003, "you do not have permission to do this")
		c.Abort()
	}
}

// FirstLogin blocks users that must still change their issued password.
// Mount it after JWTAuth on every route except the password change itself.
func FirstLogin(enabled bool, check MustChangeChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !enabled || check == nil {
			c.Next()
			return
		}

		userID := c.GetString(handler.CtxUserID)
		if userID == "" {
			c.Next()
			return
		}

		mustChange, err := check(c.Request.Context(), userID)
		if err != nil {
			response.InternalError(c)
			c.Abort()
			return
		}
		if mustChange {
			response.Forbidden(c, 10007, "change your password before continuing")
			c.Abort()
			return
		}

		c.Next()
	}
}
