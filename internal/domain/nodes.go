// internal/domain/nodes.go
package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"angpao-ledger/internal/store"
	"angpao-ledger/internal/util"
)

// Year is the root of a user's gift records for one calendar year.
type Year struct {
	ID        string          `json:"id"`
	Year      int             `json:"year"`
	Total     decimal.Decimal `json:"total_amount"`
	CreatedAt time.Time       `json:"created_at"`
}

// Day is one visiting day within a year, displayed in creation order.
type Day struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Order     int             `json:"order"`
	Total     decimal.Decimal `json:"total_amount"`
	CreatedAt time.Time       `json:"created_at"`
}

// Visit is one house visited on a day.
type Visit struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Total     decimal.Decimal `json:"total_amount"`
	CreatedAt time.Time       `json:"created_at"`
}

// Entry is a single received envelope, the leaf of the hierarchy.
type Entry struct {
	ID          string          `json:"id"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Currency    string          `json:"currency"`
	CreatedAt   time.Time       `json:"created_at"`
}

// NewYear builds a year node with a zero cached total.
func NewYear(year int) *Year {
	return &Year{Year: year, Total: decimal.Zero, CreatedAt: time.Now().UTC()}
}

// NewDay builds a day node. Order is the caller's sibling-count+1 slot.
func NewDay(name string, order int) *Day {
	return &Day{Name: name, Order: order, Total: decimal.Zero, CreatedAt: time.Now().UTC()}
}

// NewVisit builds a house-visit node with a zero cached total.
func NewVisit(name string) *Visit {
	return &Visit{Name: name, Total: decimal.Zero, CreatedAt: time.Now().UTC()}
}

// NewEntry builds an envelope entry.
func NewEntry(amount decimal.Decimal, description, currency string) *Entry {
	return &Entry{
		Amount:      amount,
		Description: description,
		Currency:    currency,
		CreatedAt:   time.Now().UTC(),
	}
}

// ValidateYear rejects years outside a sane calendar range.
func ValidateYear(year int) error {
	if year < 1000 || year > 9999 {
		return fmt.Errorf("%w: year %d out of range", util.ErrInvalidInput, year)
	}
	return nil
}

// ValidateName rejects empty node names.
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: name must not be empty", util.ErrInvalidInput)
	}
	return nil
}

// ValidateAmount rejects non-positive envelope amounts.
func ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: amount must be positive, got %s", util.ErrInvalidInput, amount)
	}
	return nil
}

// Fields returns the persisted form of the year.
func (y *Year) Fields() map[string]any {
	return map[string]any{
		FieldYear:      y.Year,
		FieldTotal:     y.Total,
		FieldCreatedAt: y.CreatedAt,
	}
}

// Fields returns the persisted form of the day.
func (d *Day) Fields() map[string]any {
	return map[string]any{
		FieldName:      d.Name,
		FieldOrder:     d.Order,
		FieldTotal:     d.Total,
		FieldCreatedAt: d.CreatedAt,
	}
}

// Fields returns the persisted form of the visit.
func (v *Visit) Fields() map[string]any {
	return map[string]any{
		FieldName:      v.Name,
		FieldTotal:     v.Total,
		FieldCreatedAt: v.CreatedAt,
	}
}

// Fields returns the persisted form of the entry.
func (e *Entry) Fields() map[string]any {
	return map[string]any{
		FieldAmount:      e.Amount,
		FieldDescription: e.Description,
		FieldCurrency:    e.Currency,
		FieldCreatedAt:   e.CreatedAt,
	}
}

// YearFromDoc decodes a stored year document.
func YearFromDoc(doc store.Document) Year {
	return Year{
		ID:        doc.ID,
		Year:      IntField(doc.Fields, FieldYear),
		Total:     DecimalField(doc.Fields, FieldTotal),
		CreatedAt: TimeField(doc.Fields, FieldCreatedAt),
	}
}

// DayFromDoc decodes a stored day document.
func DayFromDoc(doc store.Document) Day {
	return Day{
		ID:        doc.ID,
		Name:      StringField(doc.Fields, FieldName),
		Order:     IntField(doc.Fields, FieldOrder),
		Total:     DecimalField(doc.Fields, FieldTotal),
		CreatedAt: TimeField(doc.Fields, FieldCreatedAt),
	}
}

// VisitFromDoc decodes a stored house-visit document.
func VisitFromDoc(doc store.Document) Visit {
	return Visit{
		ID:        doc.ID,
		Name:      StringField(doc.Fields, FieldName),
		Total:     DecimalField(doc.Fields, FieldTotal),
		CreatedAt: TimeField(doc.Fields, FieldCreatedAt),
	}
}

// EntryFromDoc decodes a stored entry document.
func EntryFromDoc(doc store.Document) Entry {
	return Entry{
		ID:          doc.ID,
		Amount:      DecimalField(doc.Fields, FieldAmount),
		Description: StringField(doc.Fields, FieldDescription),
		Currency:    StringField(doc.Fields, FieldCurrency),
		CreatedAt:   TimeField(doc.Fields, FieldCreatedAt),
	}
}
