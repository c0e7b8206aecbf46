package db

import (
	"context"
	"fmt"
	"time"

	"github.com/dkang/foodlane-backend/config"
	"github.com/dkang/foodlane-backend/pkg/logger"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Mongo owns the database connection and the collection handles the
// service works with. Created once at startup, closed on shutdown.
type Mongo struct {
	client *mongo.Client

	Foods     *mongo.Collection
	Wishlists *mongo.Collection
	Orders    *mongo.Collection
}

// New connects to the document store and verifies the connection.
func New(ctx context.Context, cfg *config.MongoConfig) (*Mongo, error) {
	logger.Info("Connecting to MongoDB", map[string]interface{}{
		"database": cfg.Database,
	})

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	database := client.Database(cfg.Database)

	logger.Info("MongoDB connection established successfully", map[string]interface{}{
		"database": cfg.Database,
	})

	return &Mongo{
		client:    client,
		Foods:     database.Collection("foods"),
		Wishlists: database.Collection("wishlists"),
		Orders:    database.Collection("orders"),
	}, nil
}

// Close disconnects from the document store.
func (m *Mongo) Close(ctx context.Context) error {
	if m == nil || m.client == nil {
		return nil
	}
	logger.Info("Closing MongoDB connection", nil)
	return m.client.Disconnect(ctx)
}
