// internal/store/order.go
package store

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// SortDocuments orders docs in place by the requested field. Sibling sets
// in this tree are small, so both backends apply ordering in memory
// rather than pushing type-dependent casts into the store. The sort is
// stable for equal keys.
func SortDocuments(docs []Document, order Order) {
	if order.Field == "" {
		return
	}
	sort.SliceStable(docs, func(i, j int) bool {
		c := compareValues(docs[i].Fields[order.Field], docs[j].Fields[order.Field])
		if order.Desc {
			return c > 0
		}
		return c < 0
	})
}

// compareValues compares two field values of the same logical type.
// Numeric values may arrive as int, int64, float64 or decimal strings
// depending on the backend's JSON round trip; timestamps as time.Time or
// RFC 3339 strings (which compare chronologically as text).
func compareValues(a, b any) int {
	if at, ok := a.(time.Time); ok {
		if bt, ok := b.(time.Time); ok {
			switch {
			case at.Before(bt):
				return -1
			case at.After(bt):
				return 1
			}
			return 0
		}
	}
	if ad, aok := toDecimal(a); aok {
		if bd, bok := toDecimal(b); bok {
			return ad.Cmp(bd)
		}
	}
	as, _ := a.(string)
	bs, _ := b.(string)
	switch {
	case as < bs:
		return -1
	case as > bs:
		return 1
	}
	return 0
}

func toDecimal(v any) (decimal.Decimal, bool) {
	switch n := v.(type) {
	case decimal.Decimal:
		return n, true
	case int:
		return decimal.NewFromInt(int64(n)), true
	case int64:
		return decimal.NewFromInt(n), true
	case float64:
		return decimal.NewFromFloat(n), true
	}
	return decimal.Decimal{}, false
}
