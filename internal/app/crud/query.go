package crud

import (
	"regexp"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
)

// sortableFields is the allow-list of fields a client may sort by.
var sortableFields = map[string]bool{
	"name":          true,
	"price":         true,
	"quantity":      true,
	"purchaseCount": true,
	"createAt":      true,
	"updateAt":      true,
}

// defaultSort orders newest documents first.
var defaultSort = bson.D{{Key: "_id", Value: -1}}

// SortSpec builds a sort document from a "field:direction" parameter.
// Unknown fields or malformed input fall back to descending by id.
func SortSpec(raw string) bson.D {
	parts := strings.SplitN(raw, ":", 2)
	if len(parts) != 2 || !sortableFields[parts[0]] {
		return defaultSort
	}

	direction := -1
	if parts[1] == "asc" {
		direction = 1
	}
	return bson.D{{Key: parts[0], Value: direction}}
}

// SearchFilter builds a case-insensitive substring match over name,
// category and description. An empty term matches every document.
func SearchFilter(term string) bson.M {
	if term == "" {
		return bson.M{}
	}

	pattern := regexp.QuoteMeta(term)
	match := bson.M{"$regex": pattern, "$options": "i"}
	return bson.M{"$or": []bson.M{
		{"name": match},
		{"category": match},
		{"description": match},
	}}
}
