package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dkang/foodlane-backend/internal/response"
	"github.com/dkang/foodlane-backend/pkg/util"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testJWTSecret = "test-secret-key"

type fakeBlacklist struct {
	revoked map[string]bool
	err     error
}

func (f *fakeBlacklist) IsTokenBlacklisted(ctx context.Context, token string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.revoked[token], nil
}

func newAuthTestRouter(blacklist TokenBlacklist) *gin.Engine {
	gin.SetMode(gin.TestMode)

	m := NewAuthMiddleware(testJWTSecret, blacklist)

	r := gin.New()
	r.GET("/protected", m.Authenticate(), func(c *gin.Context) {
		email, _ := GetUserEmail(c)
		c.JSON(http.StatusOK, gin.H{"email": email})
	})
	r.GET("/item/:id", ValidateIDParam(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": c.Param("id")})
	})
	return r
}

func request(r *gin.Engine, path string, decorate func(*http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if decorate != nil {
		decorate(req)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func envelope(t *testing.T, w *httptest.ResponseRecorder) response.Envelope {
	t.Helper()
	var env response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func TestAuthenticate_CookieToken(t *testing.T) {
	token, err := util.GenerateToken("buyer@example.com", testJWTSecret, time.Hour)
	require.NoError(t, err)

	r := newAuthTestRouter(nil)
	w := request(r, "/protected", func(req *http.Request) {
		req.AddCookie(&http.Cookie{Name: AuthCookieName, Value: token})
	})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "buyer@example.com")
}

func TestAuthenticate_BearerToken(t *testing.T) {
	token, err := util.GenerateToken("buyer@example.com", testJWTSecret, time.Hour)
	require.NoError(t, err)

	r := newAuthTestRouter(nil)
	w := request(r, "/protected", func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+token)
	})

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthenticate_MissingToken(t *testing.T) {
	r := newAuthTestRouter(nil)
	w := request(r, "/protected", nil)

	env := envelope(t, w)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Authentication required", env.Message)
}

func TestAuthenticate_MalformedToken(t *testing.T) {
	r := newAuthTestRouter(nil)
	w := request(r, "/protected", func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer not.a.token")
	})

	env := envelope(t, w)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid auth token", env.Message)
}

func TestAuthenticate_ExpiredToken(t *testing.T) {
	token, err := util.GenerateToken("buyer@example.com", testJWTSecret, -time.Minute)
	require.NoError(t, err)

	r := newAuthTestRouter(nil)
	w := request(r, "/protected", func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+token)
	})

	env := envelope(t, w)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Session has expired", env.Message)
}

func TestAuthenticate_WrongSecret(t *testing.T) {
	token, err := util.GenerateToken("buyer@example.com", "other-secret", time.Hour)
	require.NoError(t, err)

	r := newAuthTestRouter(nil)
	w := request(r, "/protected", func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+token)
	})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthenticate_BlacklistedToken(t *testing.T) {
	token, err := util.GenerateToken("buyer@example.com", testJWTSecret, time.Hour)
	require.NoError(t, err)

	r := newAuthTestRouter(&fakeBlacklist{revoked: map[string]bool{token: true}})
	w := request(r, "/protected", func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+token)
	})

	env := envelope(t, w)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Session has been logged out", env.Message)
}

func TestAuthenticate_BlacklistCheckFails(t *testing.T) {
	token, err := util.GenerateToken("buyer@example.com", testJWTSecret, time.Hour)
	require.NoError(t, err)

	r := newAuthTestRouter(&fakeBlacklist{err: errors.New("connection refused")})
	w := request(r, "/protected", func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+token)
	})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestValidateIDParam(t *testing.T) {
	r := newAuthTestRouter(nil)

	w := request(r, "/item/64a1f0c2e4b0a1b2c3d4e5f6", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = request(r, "/item/not-an-object-id", nil)
	env := envelope(t, w)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid id format", env.Message)
}
