package model

import "go.mongodb.org/mongo-driver/bson/primitive"

// Owner identifies who added a food listing.
type Owner struct {
	Name  string `bson:"name,omitempty" json:"name,omitempty"`
	Email string `bson:"email" json:"email"`
}

// Food is a listing in the foods collection. Documents are
// schema-flexible; these are the fields the service depends on.
type Food struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
	Name          string             `bson:"name" json:"name"`
	Image         string             `bson:"image" json:"image"`
	Price         float64            `bson:"price" json:"price"`
	Quantity      int64              `bson:"quantity" json:"quantity"`
	PurchaseCount int64              `bson:"purchaseCount" json:"purchaseCount"`
	Category      string             `bson:"category,omitempty" json:"category,omitempty"`
	Description   string             `bson:"description,omitempty" json:"description,omitempty"`
	AddedBy       Owner              `bson:"addedBy" json:"addedBy"`
	CreateAt      int64              `bson:"createAt" json:"createAt"`
	UpdateAt      int64              `bson:"updateAt" json:"updateAt"`
}
