package controller

import (
	"time"

	"github.com/dkang/foodlane-backend/internal/app/crud"
	"github.com/dkang/foodlane-backend/internal/middleware"
	"github.com/dkang/foodlane-backend/internal/response"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type WishlistController struct {
	wishlists crud.Collection
}

func NewWishlistController(wishlists crud.Collection) *WishlistController {
	return &WishlistController{wishlists: wishlists}
}

// AddToWishlist saves a food reference for the caller; one entry per
// foodId.
// POST /add/wishlist
func (ctrl *WishlistController) AddToWishlist(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	email, _ := middleware.GetUserEmail(c)

	var doc map[string]interface{}
	if err := c.ShouldBindJSON(&doc); err != nil {
		log.Warn("Invalid wishlist request", map[string]interface{}{
			"error": err.Error(),
		})
		response.BadRequest(c, "Invalid request data")
		return
	}

	foodID, _ := doc["foodId"].(string)
	if foodID == "" {
		response.BadRequest(c, "FoodId is required")
		return
	}
	if _, err := primitive.ObjectIDFromHex(foodID); err != nil {
		response.BadRequest(c, "Invalid foodId format")
		return
	}

	// Check-then-insert: two concurrent adds can both pass.
	count, err := ctrl.wishlists.CountDocuments(c.Request.Context(), bson.M{
		"foodId":     foodID,
		"user.email": email,
	})
	if err != nil {
		log.Error("Failed to check for duplicate wishlist item", err, map[string]interface{}{
			"food_id": foodID,
		})
		response.InternalError(c, "")
		return
	}
	if count > 0 {
		log.Warn("Food already in wishlist", map[string]interface{}{
			"food_id": foodID,
			"email":   email,
		})
		response.Conflict(c, "Food already in wishlist")
		return
	}

	now := time.Now().UnixMilli()
	doc["user"] = map[string]interface{}{"email": email}
	doc["createAt"] = now
	doc["updateAt"] = now

	log.Info("Adding food to wishlist", map[string]interface{}{
		"food_id": foodID,
		"email":   email,
	})

	crud.Dispatch(c, crud.OpCreate, ctrl.wishlists, doc, crud.Options{Entity: "wishlist item"})
}

// GetWishlist lists the caller's wishlist.
// GET /wishlist
func (ctrl *WishlistController) GetWishlist(c *gin.Context) {
	email, _ := middleware.GetUserEmail(c)

	crud.Dispatch(c, crud.OpRead, ctrl.wishlists, nil, crud.Options{
		Entity: "wishlist item",
		Filter: bson.M{"user.email": email},
		Sort:   bson.D{{Key: "createAt", Value: -1}},
	})
}

// RemoveWishlistItem deletes a wishlist entry by id.
// DELETE /delete/wishlist/item/:id
func (ctrl *WishlistController) RemoveWishlistItem(c *gin.Context) {
	oid, _ := primitive.ObjectIDFromHex(c.Param("id"))

	crud.Dispatch(c, crud.OpDelete, ctrl.wishlists, nil, crud.Options{
		Entity: "wishlist item",
		Filter: bson.M{"_id": oid},
	})
}
