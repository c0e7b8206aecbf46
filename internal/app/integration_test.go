package app

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dkang/foodlane-backend/config"
	"github.com/dkang/foodlane-backend/internal/app/controller"
	"github.com/dkang/foodlane-backend/internal/app/service"
	"github.com/dkang/foodlane-backend/internal/db"
	"github.com/dkang/foodlane-backend/internal/middleware"
	"github.com/dkang/foodlane-backend/internal/response"
	"github.com/dkang/foodlane-backend/internal/router"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const testJWTSecret = "integration-test-secret"

type TestServer struct {
	Router    *gin.Engine
	Foods     *db.MemCollection
	Wishlists *db.MemCollection
	Orders    *db.MemCollection
}

func setupIntegrationTest(t *testing.T) *TestServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	foods := db.NewMemCollection()
	wishlists := db.NewMemCollection()
	orders := db.NewMemCollection()

	popularFoods := service.NewPopularFoodsService(foods, nil, time.Minute)
	checkout := service.NewCheckoutService(foods, orders)

	authController := controller.NewAuthController(testJWTSecret, time.Hour, false, nil)
	foodController := controller.NewFoodController(foods, popularFoods)
	wishlistController := controller.NewWishlistController(wishlists)
	orderController := controller.NewOrderController(orders, checkout)
	authMiddleware := middleware.NewAuthMiddleware(testJWTSecret, nil)

	cfg := &config.Config{
		Server: config.ServerConfig{GinMode: gin.TestMode},
		CORS:   config.CORSConfig{AllowedOrigins: []string{"http://localhost:5173"}},
	}

	r := router.NewRouter(
		authController,
		foodController,
		wishlistController,
		orderController,
		authMiddleware,
		cfg,
	)

	return &TestServer{
		Router:    r.Setup(),
		Foods:     foods,
		Wishlists: wishlists,
		Orders:    orders,
	}
}

func (ts *TestServer) request(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	ts.Router.ServeHTTP(w, req)
	return w
}

func (ts *TestServer) login(t *testing.T, email string) string {
	t.Helper()

	w := ts.request(t, http.MethodPost, "/jwt", "", gin.H{"email": email})
	require.Equal(t, http.StatusOK, w.Code)

	var env response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	data := env.Data.(map[string]interface{})
	token, _ := data["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func TestHealthEndpoint(t *testing.T) {
	ts := setupIntegrationTest(t)

	w := ts.request(t, http.MethodGet, "/health", "", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	ts := setupIntegrationTest(t)

	for _, route := range []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/add/food"},
		{http.MethodGet, "/my-foods"},
		{http.MethodPost, "/add/wishlist"},
		{http.MethodGet, "/wishlist"},
		{http.MethodPost, "/checkout"},
		{http.MethodGet, "/my-orders"},
	} {
		w := ts.request(t, route.method, route.path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, "%s %s", route.method, route.path)
	}
}

func TestInvalidIDRejectedBeforeHandler(t *testing.T) {
	ts := setupIntegrationTest(t)
	token := ts.login(t, "buyer@example.com")

	w := ts.request(t, http.MethodGet, "/food/details/not-an-id", token, nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid id format")
}

func TestFoodOrderingFlow(t *testing.T) {
	ts := setupIntegrationTest(t)

	seller := ts.login(t, "seller@example.com")
	buyer := ts.login(t, "buyer@example.com")

	// The seller lists a food.
	w := ts.request(t, http.MethodPost, "/add/food", seller, gin.H{
		"name":     "Kimchi Stew",
		"image":    "https://cdn.example.com/kimchi.jpg",
		"price":    "12.5",
		"quantity": "10",
		"category": "Stew",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	docs := ts.Foods.Docs()
	require.Len(t, docs, 1)
	foodHex := docs[0]["_id"].(primitive.ObjectID).Hex()

	// Anyone can browse.
	w = ts.request(t, http.MethodGet, "/foods?search=kimchi", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = ts.request(t, http.MethodGet, "/latest/foods", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = ts.request(t, http.MethodGet, "/categories", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// The buyer wishlists it and checks out.
	w = ts.request(t, http.MethodPost, "/add/wishlist", buyer, gin.H{
		"foodId": foodHex,
		"name":   "Kimchi Stew",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = ts.request(t, http.MethodGet, "/wishlist", buyer, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = ts.request(t, http.MethodPost, "/checkout", buyer, gin.H{
		"items": []gin.H{{"foodId": foodHex, "quantity": 3}},
	})
	require.Equal(t, http.StatusCreated, w.Code)

	docs = ts.Foods.Docs()
	require.Len(t, docs, 1)
	assert.EqualValues(t, 7, docs[0]["quantity"])
	assert.EqualValues(t, 3, docs[0]["purchaseCount"])

	w = ts.request(t, http.MethodGet, "/my-orders", buyer, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// The seller sees the listing, the buyer does not own it.
	w = ts.request(t, http.MethodGet, "/my-foods", seller, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = ts.request(t, http.MethodGet, "/my-foods", buyer, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Ordering more than the remaining stock fails.
	w = ts.request(t, http.MethodPost, "/checkout", buyer, gin.H{
		"items": []gin.H{{"foodId": foodHex, "quantity": 100}},
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	// The seller retires the listing.
	w = ts.request(t, http.MethodDelete, "/delete/food/"+foodHex, seller, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, ts.Foods.Docs())
}

func TestCORSPreflightAllowedOrigin(t *testing.T) {
	ts := setupIntegrationTest(t)

	req := httptest.NewRequest(http.MethodOptions, "/foods", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	w := httptest.NewRecorder()
	ts.Router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSUnknownOrigin(t *testing.T) {
	ts := setupIntegrationTest(t)

	req := httptest.NewRequest(http.MethodGet, "/foods", nil)
	req.Header.Set("Origin", "http://evil.example.com")
	w := httptest.NewRecorder()
	ts.Router.ServeHTTP(w, req)

	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
