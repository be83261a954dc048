// internal/aggregate/engine.go

// Package aggregate keeps the cached totalAmount of each hierarchy node
// equal to the sum of its children's values, cascading recomputation
// bottom-up from the mutated level to the year root.
package aggregate

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"angpao-ledger/internal/domain"
	"angpao-ledger/internal/store"
)

// Cascade levels, used in CascadeError to name the failing recompute.
const (
	LevelVisit = "visit"
	LevelDay   = "day"
	LevelYear  = "year"
)

// CascadeError reports a cascade that stopped partway: levels below the
// named one were recomputed and are consistent, the named level and
// everything above it keep their prior, possibly stale totals. A later
// successful mutation or an explicit resync heals the stale ancestors.
type CascadeError struct {
	Level string
	Path  store.Path
	Err   error
}

func (e *CascadeError) Error() string {
	return fmt.Sprintf("cascade stopped at %s %s: %v", e.Level, e.Path, e.Err)
}

func (e *CascadeError) Unwrap() error { return e.Err }

// Engine recomputes cached totals. It reads the currently persisted
// children of each level, never an in-memory snapshot, and writes each
// level's total in a single update after full enumeration.
type Engine struct {
	store  store.Store
	logger *slog.Logger
}

// NewEngine creates an aggregation engine over the given store.
func NewEngine(s store.Store, logger *slog.Logger) *Engine {
	return &Engine{store: s, logger: logger}
}

// RecomputeFromVisit recomputes the visit's total from its entries, then
// cascades to the owning day and year, strictly in that order.
func (e *Engine) RecomputeFromVisit(ctx context.Context, visit store.Path) error {
	if err := e.recomputeNode(ctx, LevelVisit, visit, store.ColEntries, domain.FieldAmount); err != nil {
		return err
	}
	return e.RecomputeFromDay(ctx, visit.ParentDoc())
}

// RecomputeFromDay recomputes the day's total from its visits, then the
// owning year. Used directly after a visit deletion, where no visit node
// remains to anchor the cascade.
func (e *Engine) RecomputeFromDay(ctx context.Context, day store.Path) error {
	if err := e.recomputeNode(ctx, LevelDay, day, store.ColVisits, domain.FieldTotal); err != nil {
		return err
	}
	return e.RecomputeYear(ctx, day.ParentDoc())
}

// RecomputeYear recomputes the year's total from its days. Used directly
// after a day deletion.
func (e *Engine) RecomputeYear(ctx context.Context, year store.Path) error {
	return e.recomputeNode(ctx, LevelYear, year, store.ColDays, domain.FieldTotal)
}

// ResyncYear rebuilds every cached total under the year bottom-up. This
// is the self-heal path after a reported cascade inconsistency.
func (e *Engine) ResyncYear(ctx context.Context, year store.Path) error {
	days, err := e.store.List(ctx, year.Collection(store.ColDays))
	if err != nil {
		return &CascadeError{Level: LevelYear, Path: year, Err: err}
	}
	for _, day := range days {
		visits, err := e.store.List(ctx, day.Path.Collection(store.ColVisits))
		if err != nil {
			return &CascadeError{Level: LevelDay, Path: day.Path, Err: err}
		}
		for _, visit := range visits {
			if err := e.recomputeNode(ctx, LevelVisit, visit.Path, store.ColEntries, domain.FieldAmount); err != nil {
				return err
			}
		}
		if err := e.recomputeNode(ctx, LevelDay, day.Path, store.ColVisits, domain.FieldTotal); err != nil {
			return err
		}
	}
	return e.RecomputeYear(ctx, year)
}

// recomputeNode sums one value field over the node's current children
// and persists the result as the node's total in a single update.
func (e *Engine) recomputeNode(ctx context.Context, level string, node store.Path, childCol, valueField string) error {
	children, err := e.store.List(ctx, node.Collection(childCol))
	if err != nil {
		return &CascadeError{Level: level, Path: node, Err: err}
	}
	total := decimal.Zero
	for _, child := range children {
		total = total.Add(domain.DecimalField(child.Fields, valueField))
	}
	if err := e.store.Update(ctx, node, map[string]any{domain.FieldTotal: total}); err != nil {
		return &CascadeError{Level: level, Path: node, Err: err}
	}
	e.logger.Debug("recomputed total", "level", level, "path", node.String(), "total", total)
	return nil
}
