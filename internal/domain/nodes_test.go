// internal/domain/nodes_test.go
package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"angpao-ledger/internal/store"
	"angpao-ledger/internal/util"
)

func TestNewNodesStartAtZero(t *testing.T) {
	assert.True(t, NewYear(2024).Total.IsZero())
	assert.True(t, NewDay("Day 1", 1).Total.IsZero())
	assert.True(t, NewVisit("Smith House").Total.IsZero())
}

func TestValidateYear(t *testing.T) {
	assert.NoError(t, ValidateYear(2024))
	assert.ErrorIs(t, ValidateYear(0), util.ErrInvalidInput)
	assert.ErrorIs(t, ValidateYear(99), util.ErrInvalidInput)
	assert.ErrorIs(t, ValidateYear(10000), util.ErrInvalidInput)
}

func TestValidateName(t *testing.T) {
	assert.NoError(t, ValidateName("Day 1"))
	assert.ErrorIs(t, ValidateName(""), util.ErrInvalidInput)
	assert.ErrorIs(t, ValidateName("   "), util.ErrInvalidInput)
}

func TestValidateAmount(t *testing.T) {
	assert.NoError(t, ValidateAmount(decimal.RequireFromString("50.00")))
	assert.ErrorIs(t, ValidateAmount(decimal.Zero), util.ErrInvalidInput)
	assert.ErrorIs(t, ValidateAmount(decimal.RequireFromString("-5")), util.ErrInvalidInput)
}

func TestYearFromDocAfterJSONRoundTrip(t *testing.T) {
	// A JSONB backend hands back float64 numbers, decimal strings and
	// RFC 3339 timestamps; decoding must cope with all of them.
	created := time.Date(2024, 2, 10, 12, 0, 0, 0, time.UTC)
	doc := store.Document{
		ID: "y1",
		Fields: map[string]any{
			FieldYear:      float64(2024),
			FieldTotal:     "50.00",
			FieldCreatedAt: created.Format(time.RFC3339Nano),
		},
	}
	y := YearFromDoc(doc)
	assert.Equal(t, "y1", y.ID)
	assert.Equal(t, 2024, y.Year)
	assert.True(t, y.Total.Equal(decimal.RequireFromString("50.00")))
	assert.True(t, y.CreatedAt.Equal(created))
}

func TestEntryFromDocNativeFields(t *testing.T) {
	created := time.Now().UTC()
	doc := store.Document{
		ID: "e1",
		Fields: map[string]any{
			FieldAmount:      decimal.RequireFromString("8.80"),
			FieldDescription: "from grandma",
			FieldCurrency:    "USD",
			FieldCreatedAt:   created,
		},
	}
	e := EntryFromDoc(doc)
	assert.True(t, e.Amount.Equal(decimal.RequireFromString("8.80")))
	assert.Equal(t, "from grandma", e.Description)
	assert.Equal(t, "USD", e.Currency)
	assert.True(t, e.CreatedAt.Equal(created))
}

func TestDayFieldsRoundTrip(t *testing.T) {
	d := NewDay("Day 2", 2)
	got := DayFromDoc(store.Document{ID: "d1", Fields: d.Fields()})
	assert.Equal(t, "Day 2", got.Name)
	assert.Equal(t, 2, got.Order)
	assert.True(t, got.Total.IsZero())
}

func TestDecimalFieldUnreadable(t *testing.T) {
	fields := map[string]any{"amount": []string{"not", "a", "number"}}
	assert.True(t, DecimalField(fields, "amount").IsZero())
	assert.True(t, DecimalField(fields, "missing").IsZero())
}
