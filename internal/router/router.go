package router

import (
	"net/http"

	"github.com/dkang/foodlane-backend/config"
	"github.com/dkang/foodlane-backend/internal/app/controller"
	"github.com/dkang/foodlane-backend/internal/middleware"
	"github.com/gin-gonic/gin"
)

type Router struct {
	authController     *controller.AuthController
	foodController     *controller.FoodController
	wishlistController *controller.WishlistController
	orderController    *controller.OrderController
	authMiddleware     *middleware.AuthMiddleware
	config             *config.Config
}

func NewRouter(
	authController *controller.AuthController,
	foodController *controller.FoodController,
	wishlistController *controller.WishlistController,
	orderController *controller.OrderController,
	authMiddleware *middleware.AuthMiddleware,
	cfg *config.Config,
) *Router {
	return &Router{
		authController:     authController,
		foodController:     foodController,
		wishlistController: wishlistController,
		orderController:    orderController,
		authMiddleware:     authMiddleware,
		config:             cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	gin.SetMode(r.config.Server.GinMode)

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware())
	router.Use(corsMiddleware(r.config.CORS.AllowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"message": "FoodLane API is running",
		})
	})

	auth := r.authMiddleware.Authenticate()
	checkID := middleware.ValidateIDParam()

	router.POST("/jwt", r.authController.IssueToken)
	router.POST("/logout", r.authController.Logout)

	router.GET("/foods", r.foodController.ListFoods)
	router.GET("/top/foods", r.foodController.TopFoods)
	router.GET("/latest/foods", r.foodController.LatestFoods)
	router.GET("/categories", r.foodController.Categories)

	router.POST("/add/food", auth, r.foodController.CreateFood)
	router.GET("/food/details/:id", auth, checkID, r.foodController.FoodDetails)
	router.GET("/my-foods", auth, r.foodController.MyFoods)
	router.PUT("/update/food/:id", auth, checkID, r.foodController.UpdateFood)
	router.DELETE("/delete/food/:id", auth, checkID, r.foodController.DeleteFood)

	router.POST("/add/wishlist", auth, r.wishlistController.AddToWishlist)
	router.GET("/wishlist", auth, r.wishlistController.GetWishlist)
	router.DELETE("/delete/wishlist/item/:id", auth, checkID, r.wishlistController.RemoveWishlistItem)

	router.POST("/checkout", auth, r.orderController.Checkout)
	router.GET("/my-orders", auth, r.orderController.MyOrders)

	return router
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	origins := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[o] = true
	}

	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origins[origin] {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
