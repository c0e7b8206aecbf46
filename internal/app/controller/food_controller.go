package controller

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/dkang/foodlane-backend/internal/app/crud"
	"github.com/dkang/foodlane-backend/internal/app/service"
	"github.com/dkang/foodlane-backend/internal/middleware"
	"github.com/dkang/foodlane-backend/internal/response"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const latestFoodsLimit = 8

// numericFoodFields are coerced from strings before storage.
var numericFoodFields = []string{"price", "quantity"}

type FoodController struct {
	foods        crud.Collection
	popularFoods service.PopularFoodsService
}

func NewFoodController(foods crud.Collection, popularFoods service.PopularFoodsService) *FoodController {
	return &FoodController{
		foods:        foods,
		popularFoods: popularFoods,
	}
}

// CreateFood creates a food listing owned by the caller.
// POST /add/food
func (ctrl *FoodController) CreateFood(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	email, _ := middleware.GetUserEmail(c)

	var doc map[string]interface{}
	if err := c.ShouldBindJSON(&doc); err != nil {
		log.Warn("Invalid food creation request", map[string]interface{}{
			"error": err.Error(),
		})
		response.BadRequest(c, "Invalid request data")
		return
	}

	name, _ := doc["name"].(string)
	image, _ := doc["image"].(string)
	if name == "" || image == "" {
		response.BadRequest(c, "Name and image are required")
		return
	}

	crud.ConvertNumberFields(doc, numericFoodFields...)

	// The token identity owns the listing, whatever the body says.
	addedBy, _ := doc["addedBy"].(map[string]interface{})
	if addedBy == nil {
		addedBy = map[string]interface{}{}
	}
	addedBy["email"] = email
	doc["addedBy"] = addedBy

	duplicate, err := ctrl.isDuplicateFood(c, name, image, email)
	if err != nil {
		log.Error("Failed to check for duplicate food", err, map[string]interface{}{
			"name": name,
		})
		response.InternalError(c, "")
		return
	}
	if duplicate {
		log.Warn("Duplicate food rejected", map[string]interface{}{
			"name":  name,
			"email": email,
		})
		response.Conflict(c, "Food already exists")
		return
	}

	now := time.Now().UnixMilli()
	doc["createAt"] = now
	doc["updateAt"] = now
	if _, ok := doc["purchaseCount"]; !ok {
		doc["purchaseCount"] = 0
	}

	log.Info("Creating food", map[string]interface{}{
		"name":  name,
		"email": email,
	})

	crud.Dispatch(c, crud.OpCreate, ctrl.foods, doc, crud.Options{Entity: "food"})
}

// isDuplicateFood reports an existing listing with the same leading
// name, image and owner. Check-then-insert: two concurrent creates can
// both pass.
func (ctrl *FoodController) isDuplicateFood(c *gin.Context, name, image, email string) (bool, error) {
	filter := bson.M{
		"name":          bson.M{"$regex": "^" + regexp.QuoteMeta(name), "$options": "i"},
		"image":         image,
		"addedBy.email": email,
	}
	count, err := ctrl.foods.CountDocuments(c.Request.Context(), filter)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListFoods lists foods with search, sort and pagination.
// GET /foods
func (ctrl *FoodController) ListFoods(c *gin.Context) {
	crud.Dispatch(c, crud.OpRead, ctrl.foods, nil, crud.Options{
		Entity: "food",
		Filter: crud.SearchFilter(c.Query("search")),
		Sort:   crud.SortSpec(c.Query("sort")),
		Page: crud.PageRequest{
			Page:  c.Query("page"),
			Limit: c.Query("limit"),
		},
	})
}

// TopFoods returns the best sellers, served from cache when warm.
// GET /top/foods
func (ctrl *FoodController) TopFoods(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	items, fromCache, err := ctrl.popularFoods.TopFoods(c.Request.Context())
	if err != nil {
		log.Error("Failed to fetch top foods", err, nil)
		response.InternalError(c, "Failed to fetch top foods")
		return
	}
	if len(items) == 0 {
		response.NotFound(c, "No matching food found")
		return
	}

	log.Debug("Top foods fetched", map[string]interface{}{
		"count":      len(items),
		"from_cache": fromCache,
	})
	response.OK(c, "", items)
}

// LatestFoods returns the most recently updated listings.
// GET /latest/foods
func (ctrl *FoodController) LatestFoods(c *gin.Context) {
	crud.Dispatch(c, crud.OpRead, ctrl.foods, nil, crud.Options{
		Entity: "food",
		Sort:   bson.D{{Key: "updateAt", Value: -1}},
		Limit:  latestFoodsLimit,
	})
}

// Categories groups foods by category, alphabetically.
// GET /categories
func (ctrl *FoodController) Categories(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	ctx := c.Request.Context()

	values, err := ctrl.foods.Distinct(ctx, "category", bson.M{})
	if err != nil {
		log.Error("Failed to list categories", err, nil)
		response.InternalError(c, "Failed to fetch categories")
		return
	}

	var names []string
	for _, v := range values {
		if s, ok := v.(string); ok && s != "" {
			names = append(names, s)
		}
	}
	sort.Strings(names)

	if len(names) == 0 {
		response.NotFound(c, "No categories found")
		return
	}

	groups := make([]gin.H, 0, len(names))
	for _, name := range names {
		cur, err := ctrl.foods.Find(ctx, bson.M{"category": name})
		if err != nil {
			log.Error("Failed to fetch category foods", err, map[string]interface{}{
				"category": name,
			})
			response.InternalError(c, "Failed to fetch categories")
			return
		}

		var foods []bson.M
		if err := cur.All(ctx, &foods); err != nil {
			response.InternalError(c, "Failed to fetch categories")
			return
		}
		groups = append(groups, gin.H{"category": name, "foods": foods})
	}

	response.OK(c, "", groups)
}

// FoodDetails returns a single food, optionally projected to the
// fields named in the fields query parameter.
// GET /food/details/:id
func (ctrl *FoodController) FoodDetails(c *gin.Context) {
	oid, _ := primitive.ObjectIDFromHex(c.Param("id"))

	var projection bson.M
	if fields := c.Query("fields"); fields != "" {
		projection = bson.M{}
		for _, f := range strings.Split(fields, ",") {
			if f = strings.TrimSpace(f); f != "" {
				projection[f] = 1
			}
		}
	}

	opts := crud.Options{
		Entity: "food",
		Filter: bson.M{"_id": oid},
	}
	if projection != nil {
		opts.Projection = projection
	}
	crud.Dispatch(c, crud.OpReadOne, ctrl.foods, nil, opts)
}

// MyFoods lists the caller's own listings.
// GET /my-foods
func (ctrl *FoodController) MyFoods(c *gin.Context) {
	email, _ := middleware.GetUserEmail(c)

	crud.Dispatch(c, crud.OpRead, ctrl.foods, nil, crud.Options{
		Entity: "food",
		Filter: bson.M{"addedBy.email": email},
		Sort:   bson.D{{Key: "updateAt", Value: -1}},
	})
}

// UpdateFood set-merges the body onto a listing.
// PUT /update/food/:id
func (ctrl *FoodController) UpdateFood(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	oid, _ := primitive.ObjectIDFromHex(c.Param("id"))

	var doc map[string]interface{}
	if err := c.ShouldBindJSON(&doc); err != nil {
		log.Warn("Invalid food update request", map[string]interface{}{
			"error": err.Error(),
		})
		response.BadRequest(c, "Invalid request data")
		return
	}

	crud.ConvertNumberFields(doc, numericFoodFields...)
	doc["updateAt"] = time.Now().UnixMilli()

	crud.Dispatch(c, crud.OpUpdate, ctrl.foods, doc, crud.Options{
		Entity: "food",
		Filter: bson.M{"_id": oid},
	})
}

// DeleteFood removes a listing.
// DELETE /delete/food/:id
func (ctrl *FoodController) DeleteFood(c *gin.Context) {
	oid, _ := primitive.ObjectIDFromHex(c.Param("id"))

	crud.Dispatch(c, crud.OpDelete, ctrl.foods, nil, crud.Options{
		Entity: "food",
		Filter: bson.M{"_id": oid},
	})
}
