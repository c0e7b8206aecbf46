package crud

import (
	"strconv"
	"strings"
)

// ConvertNumberFields replaces string-typed values of the named fields
// with their float64 conversion before the document is stored.
//
// A string that parses to zero, fails to parse, or is empty is left
// unchanged, so a quantity submitted as "0" stays a string. Values that
// are already numeric pass through untouched.
func ConvertNumberFields(doc map[string]interface{}, fields ...string) map[string]interface{} {
	for _, field := range fields {
		v, ok := doc[field]
		if !ok {
			continue
		}
		s, ok := v.(string)
		if !ok || s == "" {
			continue
		}
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil && f != 0 {
			doc[field] = f
		}
	}
	return doc
}
