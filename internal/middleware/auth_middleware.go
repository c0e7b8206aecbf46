package middleware

import (
	"context"
	"strings"

	"github.com/dkang/foodlane-backend/internal/response"
	"github.com/dkang/foodlane-backend/pkg/util"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AuthCookieName is the HTTP-only cookie carrying the auth token.
const AuthCookieName = "foodlane_token"

// Context keys for user information
const UserEmailKey = "user_email"

// TokenBlacklist reports whether a token has been revoked. Nil means
// no blacklist is configured and every valid token passes.
type TokenBlacklist interface {
	IsTokenBlacklisted(ctx context.Context, token string) (bool, error)
}

type AuthMiddleware struct {
	jwtSecret string
	blacklist TokenBlacklist
}

func NewAuthMiddleware(jwtSecret string, blacklist TokenBlacklist) *AuthMiddleware {
	return &AuthMiddleware{
		jwtSecret: jwtSecret,
		blacklist: blacklist,
	}
}

// ExtractToken pulls the token from the auth cookie or the
// Authorization header. Empty string when neither is present.
func ExtractToken(c *gin.Context) string {
	if token, err := c.Cookie(AuthCookieName); err == nil && token != "" {
		return token
	}

	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}

// Authenticate validates the token (required) and stores the caller's
// email in the request context.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		log := GetLoggerFromContext(c)

		token := ExtractToken(c)
		if token == "" {
			log.Warn("Missing auth token", map[string]interface{}{
				"path": c.Request.URL.Path,
			})
			response.Unauthorized(c, "Authentication required")
			c.Abort()
			return
		}

		claims, err := util.ValidateToken(token, m.jwtSecret)
		if err != nil {
			log.Warn("Token validation failed", map[string]interface{}{
				"path":  c.Request.URL.Path,
				"error": err.Error(),
			})

			if err == util.ErrExpiredToken {
				response.Unauthorized(c, "Session has expired")
			} else {
				response.Unauthorized(c, "Invalid auth token")
			}
			c.Abort()
			return
		}

		if m.blacklist != nil {
			revoked, err := m.blacklist.IsTokenBlacklisted(c.Request.Context(), token)
			if err != nil {
				log.Error("Failed to check token blacklist", err, map[string]interface{}{
					"path": c.Request.URL.Path,
				})
				response.InternalError(c, "")
				c.Abort()
				return
			}
			if revoked {
				log.Warn("Rejected blacklisted token", map[string]interface{}{
					"path": c.Request.URL.Path,
				})
				response.Unauthorized(c, "Session has been logged out")
				c.Abort()
				return
			}
		}

		c.Set(UserEmailKey, claims.Email)

		log.Debug("User authenticated successfully", map[string]interface{}{
			"email": claims.Email,
		})

		c.Next()
	}
}

// ValidateIDParam rejects requests whose :id parameter is not a valid
// object id, before any handler logic runs.
func ValidateIDParam() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		if _, err := primitive.ObjectIDFromHex(id); err != nil {
			log := GetLoggerFromContext(c)
			log.Warn("Invalid id format", map[string]interface{}{
				"id":   id,
				"path": c.Request.URL.Path,
			})
			response.BadRequest(c, "Invalid id format")
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetUserEmail extracts the authenticated caller's email from context.
func GetUserEmail(c *gin.Context) (string, bool) {
	email, exists := c.Get(UserEmailKey)
	if !exists {
		return "", false
	}
	return email.(string), true
}
