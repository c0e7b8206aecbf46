package model

import "go.mongodb.org/mongo-driver/bson/primitive"

// WishlistItem references a food a user saved for later. At most one
// entry per foodId per user; enforced by a pre-insert check, not a
// store constraint.
type WishlistItem struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
	FoodID   string             `bson:"foodId" json:"foodId"`
	Name     string             `bson:"name" json:"name"`
	Image    string             `bson:"image" json:"image"`
	User     UserRef            `bson:"user" json:"user"`
	CreateAt int64              `bson:"createAt" json:"createAt"`
	UpdateAt int64              `bson:"updateAt" json:"updateAt"`
}
