package controller

import (
	"errors"

	"github.com/dkang/foodlane-backend/internal/app/crud"
	"github.com/dkang/foodlane-backend/internal/app/model"
	"github.com/dkang/foodlane-backend/internal/app/service"
	"github.com/dkang/foodlane-backend/internal/middleware"
	"github.com/dkang/foodlane-backend/internal/response"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
)

type OrderController struct {
	orders   crud.Collection
	checkout service.CheckoutService
}

func NewOrderController(orders crud.Collection, checkout service.CheckoutService) *OrderController {
	return &OrderController{
		orders:   orders,
		checkout: checkout,
	}
}

type CheckoutRequest struct {
	Items []model.OrderItem `json:"items" binding:"required"`
}

// Checkout records an order and decrements stock per line item.
// POST /checkout
func (ctrl *OrderController) Checkout(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	email, _ := middleware.GetUserEmail(c)

	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid checkout request", map[string]interface{}{
			"error": err.Error(),
		})
		response.BadRequest(c, "Invalid request data")
		return
	}

	if len(req.Items) == 0 {
		response.BadRequest(c, "Order has no items")
		return
	}
	for _, item := range req.Items {
		if item.FoodID == "" || item.Quantity <= 0 {
			response.BadRequest(c, "Each item needs a foodId and a positive quantity")
			return
		}
	}

	order, err := ctrl.checkout.PlaceOrder(c.Request.Context(), email, req.Items)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrFoodNotFound):
			response.NotFound(c, "Food not found")
		case errors.Is(err, service.ErrInsufficientStock):
			response.Conflict(c, "Insufficient stock")
		default:
			log.Error("Checkout failed", err, map[string]interface{}{
				"email": email,
			})
			response.InternalError(c, "Checkout failed")
		}
		return
	}

	log.Info("Checkout completed", map[string]interface{}{
		"order_id": order.ID.Hex(),
		"email":    email,
	})

	response.Created(c, "Order placed successfully", gin.H{"order": order})
}

// MyOrders lists the caller's orders, newest first.
// GET /my-orders
func (ctrl *OrderController) MyOrders(c *gin.Context) {
	email, _ := middleware.GetUserEmail(c)

	crud.Dispatch(c, crud.OpRead, ctrl.orders, nil, crud.Options{
		Entity: "order",
		Filter: bson.M{"user.email": email},
		Sort:   bson.D{{Key: "createAt", Value: -1}},
	})
}
