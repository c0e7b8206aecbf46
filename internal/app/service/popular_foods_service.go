package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/dkang/foodlane-backend/internal/app/crud"
	"github.com/dkang/foodlane-backend/pkg/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	topFoodsLimit    = 6
	topFoodsCacheKey = "cache:top-foods"
)

// Cache is the slice of the redis client this service needs. Nil
// disables caching and every read goes to the store.
type Cache interface {
	CacheGet(ctx context.Context, key string) (string, bool, error)
	CacheSet(ctx context.Context, key, value string, ttl time.Duration) error
}

// PopularFoodsService serves the best-selling foods, read through a
// cache that the scheduler refreshes in the background.
type PopularFoodsService interface {
	TopFoods(ctx context.Context) ([]bson.M, bool, error)
	Refresh(ctx context.Context) error
}

type popularFoodsService struct {
	foods crud.Collection
	cache Cache
	ttl   time.Duration
}

func NewPopularFoodsService(foods crud.Collection, cache Cache, ttl time.Duration) PopularFoodsService {
	return &popularFoodsService{
		foods: foods,
		cache: cache,
		ttl:   ttl,
	}
}

// TopFoods returns the top sellers, preferring the cache when warm.
// The second return reports whether the result came from the cache.
func (s *popularFoodsService) TopFoods(ctx context.Context) ([]bson.M, bool, error) {
	if s.cache != nil {
		raw, hit, err := s.cache.CacheGet(ctx, topFoodsCacheKey)
		if err == nil && hit {
			var items []bson.M
			if err := json.Unmarshal([]byte(raw), &items); err == nil {
				return items, true, nil
			}
			logger.Warn("Discarding malformed top-foods cache entry", nil)
		}
	}

	items, err := s.fetch(ctx)
	if err != nil {
		return nil, false, err
	}

	s.store(ctx, items)
	return items, false, nil
}

// Refresh recomputes the top sellers and rewrites the cache entry.
func (s *popularFoodsService) Refresh(ctx context.Context) error {
	items, err := s.fetch(ctx)
	if err != nil {
		return err
	}

	s.store(ctx, items)
	logger.Debug("Top-foods cache refreshed", map[string]interface{}{
		"count": len(items),
	})
	return nil
}

func (s *popularFoodsService) fetch(ctx context.Context) ([]bson.M, error) {
	findOpts := options.Find().
		SetSort(bson.D{{Key: "purchaseCount", Value: -1}}).
		SetLimit(topFoodsLimit)

	cur, err := s.foods.Find(ctx, bson.M{}, findOpts)
	if err != nil {
		logger.Error("Failed to fetch top foods", err, nil)
		return nil, err
	}
	defer cur.Close(ctx)

	var items []bson.M
	if err := cur.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// store writes the cache entry, best effort.
func (s *popularFoodsService) store(ctx context.Context, items []bson.M) {
	if s.cache == nil || len(items) == 0 {
		return
	}

	raw, err := json.Marshal(items)
	if err != nil {
		logger.Error("Failed to serialize top foods for cache", err, nil)
		return
	}
	if err := s.cache.CacheSet(ctx, topFoodsCacheKey, string(raw), s.ttl); err != nil {
		logger.Error("Failed to cache top foods", err, nil)
	}
}
