package crud

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConvertNumberFields(t *testing.T) {
	doc := map[string]interface{}{
		"price":    "12.5",
		"quantity": 0,
	}

	ConvertNumberFields(doc, "price", "quantity")

	assert.Equal(t, 12.5, doc["price"])
	// Numeric zero is not a string and passes through untouched.
	assert.Equal(t, 0, doc["quantity"])
}

func TestConvertNumberFields_ZeroStringStaysString(t *testing.T) {
	// The documented sharp edge: "0" parses to a falsy result and is
	// not converted.
	doc := map[string]interface{}{"quantity": "0"}

	ConvertNumberFields(doc, "quantity")

	assert.Equal(t, "0", doc["quantity"])
}

func TestConvertNumberFields_UnparseableStringUnchanged(t *testing.T) {
	doc := map[string]interface{}{"price": "cheap"}

	ConvertNumberFields(doc, "price")

	assert.Equal(t, "cheap", doc["price"])
}

func TestConvertNumberFields_MissingAndEmptyFields(t *testing.T) {
	doc := map[string]interface{}{
		"price": "",
		"name":  "Pizza",
	}

	ConvertNumberFields(doc, "price", "quantity")

	assert.Equal(t, "", doc["price"])
	assert.Equal(t, "Pizza", doc["name"])
	assert.NotContains(t, doc, "quantity")
}

func TestConvertNumberFields_NonStringValuesUntouched(t *testing.T) {
	doc := map[string]interface{}{
		"price":    42.0,
		"quantity": int64(3),
	}

	ConvertNumberFields(doc, "price", "quantity")

	assert.Equal(t, 42.0, doc["price"])
	assert.Equal(t, int64(3), doc["quantity"])
}
