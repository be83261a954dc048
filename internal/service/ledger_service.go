// internal/service/ledger_service.go
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"angpao-ledger/internal/aggregate"
	"angpao-ledger/internal/domain"
	"angpao-ledger/internal/identity"
	"angpao-ledger/internal/notify"
	"angpao-ledger/internal/store"
	"angpao-ledger/internal/util"
)

// SelectionWatcher is told about node deletions so a selection pointing
// at a dead node can fall back to its parent. Kinds are
// navigation.KindYear/KindDay/KindVisit.
type SelectionWatcher interface {
	HandleDeleted(kind, id string)
}

// LedgerService is the only entry point allowed to mutate the hierarchy.
// Every operation is scoped to the signed-in user's own subtree and
// refused without an active session.
type LedgerService interface {
	EnsureUser(ctx context.Context) error

	AddYear(ctx context.Context, year int) (*domain.Year, error)
	ListYears(ctx context.Context) ([]domain.Year, error)
	GetYear(ctx context.Context, yearID string) (*domain.Year, error)
	DeleteYear(ctx context.Context, yearID string) error

	AddDay(ctx context.Context, yearID, name string) (*domain.Day, error)
	ListDays(ctx context.Context, yearID string) ([]domain.Day, error)
	GetDay(ctx context.Context, yearID, dayID string) (*domain.Day, error)
	DeleteDay(ctx context.Context, yearID, dayID string) error

	AddVisit(ctx context.Context, yearID, dayID, name string) (*domain.Visit, error)
	ListVisits(ctx context.Context, yearID, dayID string) ([]domain.Visit, error)
	GetVisit(ctx context.Context, yearID, dayID, visitID string) (*domain.Visit, error)
	DeleteVisit(ctx context.Context, yearID, dayID, visitID string) error

	AddEntry(ctx context.Context, yearID, dayID, visitID string, amount decimal.Decimal, description, currency string) (*domain.Entry, error)
	ListEntries(ctx context.Context, yearID, dayID, visitID string) ([]domain.Entry, decimal.Decimal, error)
	DeleteEntry(ctx context.Context, yearID, dayID, visitID, entryID string) error

	ResyncYear(ctx context.Context, yearID string) error
}

type ledgerService struct {
	store           store.Store
	engine          *aggregate.Engine
	identity        identity.Provider
	notifier        notify.Publisher
	watcher         SelectionWatcher
	locks           *subtreeLocks
	defaultCurrency string
	logger          *slog.Logger
}

// NewLedgerService creates the mutation coordinator. watcher may be nil
// when no navigation state is attached.
func NewLedgerService(
	s store.Store,
	engine *aggregate.Engine,
	provider identity.Provider,
	notifier notify.Publisher,
	watcher SelectionWatcher,
	defaultCurrency string,
	logger *slog.Logger,
) LedgerService {
	return &ledgerService{
		store:           s,
		engine:          engine,
		identity:        provider,
		notifier:        notifier,
		watcher:         watcher,
		locks:           newSubtreeLocks(),
		defaultCurrency: defaultCurrency,
		logger:          logger,
	}
}

func (s *ledgerService) userID(ctx context.Context) (string, error) {
	uid, ok := s.identity.CurrentUserID(ctx)
	if !ok {
		return "", util.ErrNotSignedIn
	}
	return uid, nil
}

// EnsureUser creates or touches the user's root document on sign-in.
func (s *ledgerService) EnsureUser(ctx context.Context) error {
	uid, err := s.userID(ctx)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	fields := map[string]any{domain.FieldLastUpdated: now}
	_, err = s.store.Get(ctx, store.UserDoc(uid))
	switch {
	case err == nil:
	case util.IsError(err, util.ErrNotFound):
		fields[domain.FieldCreatedAt] = now
	default:
		return fmt.Errorf("ensure user: %w", err)
	}
	if err := s.store.Put(ctx, store.UserDoc(uid), fields); err != nil {
		return fmt.Errorf("ensure user: %w", err)
	}
	return nil
}

// AddYear creates a year with a zero total. Duplicate year numbers for
// the same user are rejected before any write.
func (s *ledgerService) AddYear(ctx context.Context, year int) (*domain.Year, error) {
	uid, err := s.userID(ctx)
	if err != nil {
		return nil, err
	}
	if err := domain.ValidateYear(year); err != nil {
		return nil, err
	}

	unlock := s.locks.acquire(uid, "")
	defer unlock()

	existing, err := s.store.List(ctx, store.YearsCol(uid))
	if err != nil {
		return nil, fmt.Errorf("add year: list years: %w", err)
	}
	for _, doc := range existing {
		if domain.IntField(doc.Fields, domain.FieldYear) == year {
			return nil, fmt.Errorf("%w: %d", util.ErrDuplicateYear, year)
		}
	}

	y := domain.NewYear(year)
	id, err := s.store.Create(ctx, store.YearsCol(uid), y.Fields())
	if err != nil {
		return nil, fmt.Errorf("add year: %w", err)
	}
	y.ID = id

	s.notifier.Publish(notify.Event{Kind: notify.KindYearsChanged})
	return y, nil
}

// ListYears returns the user's years, newest year number first.
func (s *ledgerService) ListYears(ctx context.Context) ([]domain.Year, error) {
	uid, err := s.userID(ctx)
	if err != nil {
		return nil, err
	}
	docs, err := s.store.List(ctx, store.YearsCol(uid), store.Order{Field: domain.FieldYear, Desc: true})
	if err != nil {
		return nil, fmt.Errorf("list years: %w", err)
	}
	years := make([]domain.Year, len(docs))
	for i, doc := range docs {
		years[i] = domain.YearFromDoc(doc)
	}
	return years, nil
}

func (s *ledgerService) GetYear(ctx context.Context, yearID string) (*domain.Year, error) {
	uid, err := s.userID(ctx)
	if err != nil {
		return nil, err
	}
	doc, err := s.store.Get(ctx, store.YearDoc(uid, yearID))
	if err != nil {
		return nil, fmt.Errorf("get year: %w", err)
	}
	y := domain.YearFromDoc(*doc)
	return &y, nil
}

// DeleteYear removes the year and its whole subtree. The year is the
// root of the owned tree, so no upward recompute follows.
func (s *ledgerService) DeleteYear(ctx context.Context, yearID string) error {
	uid, err := s.userID(ctx)
	if err != nil {
		return err
	}
	unlock := s.locks.acquire(uid, yearID)
	defer unlock()

	if err := s.deleteSubtree(ctx, store.YearDoc(uid, yearID)); err != nil {
		return fmt.Errorf("delete year: %w", err)
	}
	if s.watcher != nil {
		s.watcher.HandleDeleted("year", yearID)
	}
	s.notifier.Publish(notify.Event{Kind: notify.KindYearsChanged})
	return nil
}

// AddDay creates a day slotted after the existing siblings. A new day is
// empty with a zero total, so no cascade is needed.
func (s *ledgerService) AddDay(ctx context.Context, yearID, name string) (*domain.Day, error) {
	uid, err := s.userID(ctx)
	if err != nil {
		return nil, err
	}
	if err := domain.ValidateName(name); err != nil {
		return nil, err
	}
	unlock := s.locks.acquire(uid, yearID)
	defer unlock()

	if _, err := s.store.Get(ctx, store.YearDoc(uid, yearID)); err != nil {
		return nil, fmt.Errorf("add day: %w", err)
	}
	siblings, err := s.store.List(ctx, store.DaysCol(uid, yearID))
	if err != nil {
		return nil, fmt.Errorf("add day: list siblings: %w", err)
	}

	// Orders are never renumbered on deletion, so gaps (and after a
	// deletion, repeats) are possible; display order stays stable.
	d := domain.NewDay(name, len(siblings)+1)
	id, err := s.store.Create(ctx, store.DaysCol(uid, yearID), d.Fields())
	if err != nil {
		return nil, fmt.Errorf("add day: %w", err)
	}
	d.ID = id

	s.notifier.Publish(notify.Event{Kind: notify.KindDaysChanged})
	return d, nil
}

// ListDays returns a year's days in ascending display order.
func (s *ledgerService) ListDays(ctx context.Context, yearID string) ([]domain.Day, error) {
	uid, err := s.userID(ctx)
	if err != nil {
		return nil, err
	}
	docs, err := s.store.List(ctx, store.DaysCol(uid, yearID), store.Order{Field: domain.FieldOrder})
	if err != nil {
		return nil, fmt.Errorf("list days: %w", err)
	}
	days := make([]domain.Day, len(docs))
	for i, doc := range docs {
		days[i] = domain.DayFromDoc(doc)
	}
	return days, nil
}

func (s *ledgerService) GetDay(ctx context.Context, yearID, dayID string) (*domain.Day, error) {
	uid, err := s.userID(ctx)
	if err != nil {
		return nil, err
	}
	doc, err := s.store.Get(ctx, store.DayDoc(uid, yearID, dayID))
	if err != nil {
		return nil, fmt.Errorf("get day: %w", err)
	}
	d := domain.DayFromDoc(*doc)
	return &d, nil
}

// DeleteDay removes the day subtree, then recomputes the year directly:
// no visit level is affected by a day deletion.
func (s *ledgerService) DeleteDay(ctx context.Context, yearID, dayID string) error {
	uid, err := s.userID(ctx)
	if err != nil {
		return err
	}
	unlock := s.locks.acquire(uid, yearID)
	defer unlock()

	if err := s.deleteSubtree(ctx, store.DayDoc(uid, yearID, dayID)); err != nil {
		return fmt.Errorf("delete day: %w", err)
	}
	// The subtree is gone either way, so the selection falls back and
	// the view hears about it even when the recompute aborts; the
	// cascade error is still the operation's result.
	cascadeErr := s.engine.RecomputeYear(cascadeCtx(ctx), store.YearDoc(uid, yearID))
	if s.watcher != nil {
		s.watcher.HandleDeleted("day", dayID)
	}
	s.notifier.Publish(notify.Event{Kind: notify.KindDaysChanged})
	return cascadeErr
}

// AddVisit creates a house visit under a day. No cascade: the new node
// is empty and already consistent at zero.
func (s *ledgerService) AddVisit(ctx context.Context, yearID, dayID, name string) (*domain.Visit, error) {
	uid, err := s.userID(ctx)
	if err != nil {
		return nil, err
	}
	if err := domain.ValidateName(name); err != nil {
		return nil, err
	}
	unlock := s.locks.acquire(uid, yearID)
	defer unlock()

	if _, err := s.store.Get(ctx, store.DayDoc(uid, yearID, dayID)); err != nil {
		return nil, fmt.Errorf("add visit: %w", err)
	}
	v := domain.NewVisit(name)
	id, err := s.store.Create(ctx, store.VisitsCol(uid, yearID, dayID), v.Fields())
	if err != nil {
		return nil, fmt.Errorf("add visit: %w", err)
	}
	v.ID = id

	s.notifier.Publish(notify.Event{Kind: notify.KindVisitsChanged})
	return v, nil
}

// ListVisits returns a day's visits in creation order.
func (s *ledgerService) ListVisits(ctx context.Context, yearID, dayID string) ([]domain.Visit, error) {
	uid, err := s.userID(ctx)
	if err != nil {
		return nil, err
	}
	docs, err := s.store.List(ctx, store.VisitsCol(uid, yearID, dayID), store.Order{Field: domain.FieldCreatedAt})
	if err != nil {
		return nil, fmt.Errorf("list visits: %w", err)
	}
	visits := make([]domain.Visit, len(docs))
	for i, doc := range docs {
		visits[i] = domain.VisitFromDoc(doc)
	}
	return visits, nil
}

func (s *ledgerService) GetVisit(ctx context.Context, yearID, dayID, visitID string) (*domain.Visit, error) {
	uid, err := s.userID(ctx)
	if err != nil {
		return nil, err
	}
	doc, err := s.store.Get(ctx, store.VisitDoc(uid, yearID, dayID, visitID))
	if err != nil {
		return nil, fmt.Errorf("get visit: %w", err)
	}
	v := domain.VisitFromDoc(*doc)
	return &v, nil
}

// DeleteVisit removes the visit and its entries, then recomputes from
// the owning day upward.
func (s *ledgerService) DeleteVisit(ctx context.Context, yearID, dayID, visitID string) error {
	uid, err := s.userID(ctx)
	if err != nil {
		return err
	}
	unlock := s.locks.acquire(uid, yearID)
	defer unlock()

	if err := s.deleteSubtree(ctx, store.VisitDoc(uid, yearID, dayID, visitID)); err != nil {
		return fmt.Errorf("delete visit: %w", err)
	}
	// As in DeleteDay, the deletion already landed: sync the selection
	// and notify before reporting any cascade error.
	cascadeErr := s.engine.RecomputeFromDay(cascadeCtx(ctx), store.DayDoc(uid, yearID, dayID))
	if s.watcher != nil {
		s.watcher.HandleDeleted("visit", visitID)
	}
	s.notifier.Publish(notify.Event{Kind: notify.KindVisitsChanged})
	return cascadeErr
}

// AddEntry validates and persists a leaf entry, then cascades the
// recompute from the owning visit up to the year.
func (s *ledgerService) AddEntry(ctx context.Context, yearID, dayID, visitID string, amount decimal.Decimal, description, currency string) (*domain.Entry, error) {
	uid, err := s.userID(ctx)
	if err != nil {
		return nil, err
	}
	if err := domain.ValidateAmount(amount); err != nil {
		return nil, err
	}
	if currency == "" {
		currency = s.defaultCurrency
	}
	unlock := s.locks.acquire(uid, yearID)
	defer unlock()

	visitPath := store.VisitDoc(uid, yearID, dayID, visitID)
	if _, err := s.store.Get(ctx, visitPath); err != nil {
		return nil, fmt.Errorf("add entry: %w", err)
	}

	e := domain.NewEntry(amount, description, currency)
	id, err := s.store.Create(ctx, visitPath.Collection(store.ColEntries), e.Fields())
	if err != nil {
		return nil, fmt.Errorf("add entry: %w", err)
	}
	e.ID = id

	// The entry is persisted either way; the view hears about it even
	// when the recompute aborts.
	cascadeErr := s.engine.RecomputeFromVisit(cascadeCtx(ctx), visitPath)
	s.publishEntriesChanged(cascadeCtx(ctx), visitPath)
	return e, cascadeErr
}

// ListEntries returns a visit's entries newest first, plus their sum as
// the display total.
func (s *ledgerService) ListEntries(ctx context.Context, yearID, dayID, visitID string) ([]domain.Entry, decimal.Decimal, error) {
	uid, err := s.userID(ctx)
	if err != nil {
		return nil, decimal.Zero, err
	}
	docs, err := s.store.List(ctx, store.EntriesCol(uid, yearID, dayID, visitID),
		store.Order{Field: domain.FieldCreatedAt, Desc: true})
	if err != nil {
		return nil, decimal.Zero, fmt.Errorf("list entries: %w", err)
	}
	entries := make([]domain.Entry, len(docs))
	total := decimal.Zero
	for i, doc := range docs {
		entries[i] = domain.EntryFromDoc(doc)
		total = total.Add(entries[i].Amount)
	}
	return entries, total, nil
}

// DeleteEntry removes one leaf entry and cascades the recompute from the
// owning visit.
func (s *ledgerService) DeleteEntry(ctx context.Context, yearID, dayID, visitID, entryID string) error {
	uid, err := s.userID(ctx)
	if err != nil {
		return err
	}
	unlock := s.locks.acquire(uid, yearID)
	defer unlock()

	visitPath := store.VisitDoc(uid, yearID, dayID, visitID)
	if err := s.store.Delete(ctx, visitPath.Collection(store.ColEntries).Doc(entryID)); err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	cascadeErr := s.engine.RecomputeFromVisit(cascadeCtx(ctx), visitPath)
	s.publishEntriesChanged(cascadeCtx(ctx), visitPath)
	return cascadeErr
}

// ResyncYear rebuilds every cached total under the year. This is the
// recovery path after a reported cascade inconsistency.
func (s *ledgerService) ResyncYear(ctx context.Context, yearID string) error {
	uid, err := s.userID(ctx)
	if err != nil {
		return err
	}
	unlock := s.locks.acquire(uid, yearID)
	defer unlock()

	if err := s.engine.ResyncYear(cascadeCtx(ctx), store.YearDoc(uid, yearID)); err != nil {
		return err
	}
	s.notifier.Publish(notify.Event{Kind: notify.KindYearsChanged})
	return nil
}

// cascadeCtx detaches a cascade from the caller's cancellation: once a
// mutation has landed, the recompute runs to completion even if the
// request that triggered it goes away.
func cascadeCtx(ctx context.Context) context.Context {
	return context.WithoutCancel(ctx)
}

// deleteSubtree removes a node's descendants deepest-first, then the
// node itself, so no deletion ever leaves dangling children.
func (s *ledgerService) deleteSubtree(ctx context.Context, doc store.Path) error {
	if col, ok := childCollectionOf(doc); ok {
		children, err := s.store.List(ctx, doc.Collection(col))
		if err != nil {
			return err
		}
		for _, child := range children {
			if err := s.deleteSubtree(ctx, child.Path); err != nil {
				return err
			}
		}
	}
	return s.store.Delete(ctx, doc)
}

// childCollectionOf maps a document path to the subcollection beneath
// it: year -> days, day -> houseVisits, visit -> entries.
func childCollectionOf(doc store.Path) (string, bool) {
	switch len(doc) {
	case 4:
		return store.ColDays, true
	case 6:
		return store.ColVisits, true
	case 8:
		return store.ColEntries, true
	}
	return "", false
}

// publishEntriesChanged notifies the view with the settled visit total.
// The mutation already succeeded; a failed re-read only degrades the
// notification payload.
func (s *ledgerService) publishEntriesChanged(ctx context.Context, visitPath store.Path) {
	ev := notify.Event{Kind: notify.KindEntriesChanged}
	if doc, err := s.store.Get(ctx, visitPath); err == nil {
		total := domain.DecimalField(doc.Fields, domain.FieldTotal)
		ev.Total = &total
	} else {
		s.logger.Warn("entries.changed without total", "path", visitPath.String(), "error", err)
	}
	s.notifier.Publish(ev)
}
