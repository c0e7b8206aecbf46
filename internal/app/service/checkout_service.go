package service

import (
	"context"
	"errors"
	"time"

	"github.com/dkang/foodlane-backend/internal/app/crud"
	"github.com/dkang/foodlane-backend/internal/app/model"
	"github.com/dkang/foodlane-backend/pkg/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	ErrFoodNotFound      = errors.New("food not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrEmptyOrder        = errors.New("order has no items")
)

// CheckoutService places orders: it decrements stock per line item and
// records the order document.
type CheckoutService interface {
	PlaceOrder(ctx context.Context, email string, items []model.OrderItem) (*model.Order, error)
}

type checkoutService struct {
	foods  crud.Collection
	orders crud.Collection
}

func NewCheckoutService(foods, orders crud.Collection) CheckoutService {
	return &checkoutService{
		foods:  foods,
		orders: orders,
	}
}

// PlaceOrder applies a conditional decrement per item (only when the
// remaining stock covers the requested quantity) and then inserts the
// order. Decrements already applied are reversed when a later item
// fails. The decrement and the order insert are not atomic: a crash in
// between can leave stock decremented with no order recorded.
func (s *checkoutService) PlaceOrder(ctx context.Context, email string, items []model.OrderItem) (*model.Order, error) {
	if len(items) == 0 {
		return nil, ErrEmptyOrder
	}

	logger.Info("Placing order", map[string]interface{}{
		"email":      email,
		"item_count": len(items),
	})

	var applied []model.OrderItem
	for _, item := range items {
		oid, err := primitive.ObjectIDFromHex(item.FoodID)
		if err != nil {
			s.compensate(ctx, applied)
			return nil, ErrFoodNotFound
		}

		filter := bson.M{
			"_id":      oid,
			"quantity": bson.M{"$gte": item.Quantity},
		}
		update := bson.M{"$inc": bson.M{
			"quantity":      -item.Quantity,
			"purchaseCount": item.Quantity,
		}}

		res, err := s.foods.UpdateOne(ctx, filter, update)
		if err != nil {
			logger.Error("Failed to decrement stock", err, map[string]interface{}{
				"food_id": item.FoodID,
			})
			s.compensate(ctx, applied)
			return nil, err
		}
		if res.ModifiedCount == 0 {
			s.compensate(ctx, applied)
			return nil, s.classifyDecrementFailure(ctx, oid, item)
		}

		applied = append(applied, item)
	}

	order := &model.Order{
		Items:    items,
		User:     model.UserRef{Email: email},
		CreateAt: time.Now().UnixMilli(),
	}

	res, err := s.orders.InsertOne(ctx, order)
	if err != nil {
		logger.Error("Failed to insert order", err, map[string]interface{}{
			"email": email,
		})
		s.compensate(ctx, applied)
		return nil, err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		order.ID = oid
	}

	logger.Info("Order placed successfully", map[string]interface{}{
		"order_id":   order.ID.Hex(),
		"email":      email,
		"item_count": len(items),
	})
	return order, nil
}

// classifyDecrementFailure distinguishes a missing food from one with
// too little stock, since the guarded update cannot tell them apart.
func (s *checkoutService) classifyDecrementFailure(ctx context.Context, oid primitive.ObjectID, item model.OrderItem) error {
	err := s.foods.FindOne(ctx, bson.M{"_id": oid}).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		logger.Warn("Order failed: food not found", map[string]interface{}{
			"food_id": item.FoodID,
		})
		return ErrFoodNotFound
	}
	if err != nil {
		return err
	}

	logger.Warn("Order failed: insufficient stock", map[string]interface{}{
		"food_id":   item.FoodID,
		"requested": item.Quantity,
	})
	return ErrInsufficientStock
}

// compensate reverses decrements applied before a failure. Best
// effort: a reversal that fails is logged and skipped.
func (s *checkoutService) compensate(ctx context.Context, applied []model.OrderItem) {
	for _, item := range applied {
		oid, err := primitive.ObjectIDFromHex(item.FoodID)
		if err != nil {
			continue
		}

		update := bson.M{"$inc": bson.M{
			"quantity":      item.Quantity,
			"purchaseCount": -item.Quantity,
		}}
		if _, err := s.foods.UpdateOne(ctx, bson.M{"_id": oid}, update); err != nil {
			logger.Error("Failed to reverse stock decrement", err, map[string]interface{}{
				"food_id": item.FoodID,
			})
		}
	}
}
