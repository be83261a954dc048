// internal/domain/fields.go
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Persisted field names, matching the document layout in the store.
const (
	FieldYear        = "year"
	FieldName        = "name"
	FieldOrder       = "order"
	FieldTotal       = "totalAmount"
	FieldAmount      = "amount"
	FieldDescription = "description"
	FieldCurrency    = "currency"
	FieldCreatedAt   = "createdAt"
	FieldLastUpdated = "lastUpdated"
)

// DecimalField reads a decimal amount from raw document fields. Depending
// on the backend the value may be a decimal.Decimal, a JSON number or the
// string form a JSON round trip produces; anything unreadable is zero.
func DecimalField(fields map[string]any, key string) decimal.Decimal {
	switch v := fields[key].(type) {
	case decimal.Decimal:
		return v
	case string:
		d, err := decimal.NewFromString(v)
		if err == nil {
			return d
		}
	case float64:
		return decimal.NewFromFloat(v)
	case int:
		return decimal.NewFromInt(int64(v))
	case int64:
		return decimal.NewFromInt(v)
	}
	return decimal.Zero
}

// IntField reads an integer from raw document fields.
func IntField(fields map[string]any, key string) int {
	switch v := fields[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}

// StringField reads a string from raw document fields.
func StringField(fields map[string]any, key string) string {
	s, _ := fields[key].(string)
	return s
}

// TimeField reads a timestamp from raw document fields, accepting either
// a time.Time or its RFC 3339 string form.
func TimeField(fields map[string]any, key string) time.Time {
	switch v := fields[key].(type) {
	case time.Time:
		return v
	case string:
		t, err := time.Parse(time.RFC3339Nano, v)
		if err == nil {
			return t
		}
	}
	return time.Time{}
}
