package model

import "go.mongodb.org/mongo-driver/bson/primitive"

// OrderItem is one line of a checkout.
type OrderItem struct {
	FoodID   string `bson:"foodId" json:"foodId"`
	Quantity int64  `bson:"quantity" json:"quantity"`
}

// Order records a checkout. Orders are immutable once created; there
// is no updateAt.
type Order struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
	Items    []OrderItem        `bson:"items" json:"items"`
	User     UserRef            `bson:"user" json:"user"`
	CreateAt int64              `bson:"createAt" json:"createAt"`
}
