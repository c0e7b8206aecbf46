package controller

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/dkang/foodlane-backend/internal/middleware"
	"github.com/dkang/foodlane-backend/internal/response"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

const testUserEmail = "chef@example.com"

// newTestRouter builds a bare engine with the caller identity already
// set, the way the auth middleware would after validating a token.
func newTestRouter(email string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	if email != "" {
		r.Use(func(c *gin.Context) {
			c.Set(middleware.UserEmailKey, email)
			c.Next()
		})
	}
	return r
}

func doJSON(r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) response.Envelope {
	t.Helper()
	var env response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}
