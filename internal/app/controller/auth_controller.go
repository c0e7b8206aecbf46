package controller

import (
	"context"
	"net/http"
	"time"

	"github.com/dkang/foodlane-backend/internal/middleware"
	"github.com/dkang/foodlane-backend/internal/response"
	"github.com/dkang/foodlane-backend/pkg/util"
	"github.com/gin-gonic/gin"
)

// TokenRevoker blacklists tokens until their natural expiry. Nil
// disables revocation; logout then only clears the cookie.
type TokenRevoker interface {
	BlacklistToken(ctx context.Context, token string, expiry time.Duration) error
}

type AuthController struct {
	jwtSecret   string
	tokenExpiry time.Duration
	secure      bool
	revoker     TokenRevoker
}

func NewAuthController(jwtSecret string, tokenExpiry time.Duration, secure bool, revoker TokenRevoker) *AuthController {
	return &AuthController{
		jwtSecret:   jwtSecret,
		tokenExpiry: tokenExpiry,
		secure:      secure,
		revoker:     revoker,
	}
}

type IssueTokenRequest struct {
	Email string `json:"email" binding:"required"`
}

// IssueToken issues a signed token for the claims in the body and sets
// it as an HTTP-only cookie.
// POST /jwt
func (ctrl *AuthController) IssueToken(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req IssueTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid token request", map[string]interface{}{
			"error": err.Error(),
		})
		response.BadRequest(c, "Email is required")
		return
	}

	if !util.IsValidEmail(req.Email) {
		log.Warn("Invalid email format in token request", map[string]interface{}{
			"email": req.Email,
		})
		response.BadRequest(c, "Invalid email format")
		return
	}

	token, err := util.GenerateToken(req.Email, ctrl.jwtSecret, ctrl.tokenExpiry)
	if err != nil {
		log.Error("Failed to generate token", err, map[string]interface{}{
			"email": req.Email,
		})
		response.InternalError(c, "")
		return
	}

	ctrl.setAuthCookie(c, token, int(ctrl.tokenExpiry.Seconds()))

	log.Info("Token issued successfully", map[string]interface{}{
		"email": req.Email,
	})

	response.OK(c, "Token issued successfully", gin.H{"token": token})
}

// Logout clears the auth cookie and revokes the presented token for
// its remaining lifetime.
// POST /logout
func (ctrl *AuthController) Logout(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	if token := middleware.ExtractToken(c); token != "" && ctrl.revoker != nil {
		if claims, err := util.ValidateToken(token, ctrl.jwtSecret); err == nil {
			ttl := util.TokenRemainingTTL(claims)
			if ttl > 0 {
				if err := ctrl.revoker.BlacklistToken(c.Request.Context(), token, ttl); err != nil {
					log.Error("Failed to blacklist token on logout", err, nil)
				}
			}
		}
	}

	ctrl.setAuthCookie(c, "", -1)

	log.Info("User logged out", nil)
	response.OK(c, "Logged out successfully", nil)
}

func (ctrl *AuthController) setAuthCookie(c *gin.Context, token string, maxAge int) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(middleware.AuthCookieName, token, maxAge, "/", "", ctrl.secure, true)
}
