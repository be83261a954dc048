// internal/service/ledger_service_test.go
package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"angpao-ledger/internal/aggregate"
	"angpao-ledger/internal/identity"
	"angpao-ledger/internal/navigation"
	"angpao-ledger/internal/notify"
	"angpao-ledger/internal/store"
	"angpao-ledger/internal/store/memory"
	"angpao-ledger/internal/util"
)

// faultStore wraps the memory store and fails updates of one document,
// to exercise mutations whose follow-up recompute aborts.
type faultStore struct {
	store.Store
	failDoc string
}

func (f *faultStore) Update(ctx context.Context, doc store.Path, fields map[string]any) error {
	if f.failDoc != "" && doc.String() == f.failDoc {
		return errors.New("update rejected")
	}
	return f.Store.Update(ctx, doc, fields)
}

type captureBus struct {
	mu     sync.Mutex
	events []notify.Event
}

func (c *captureBus) Publish(ev notify.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, ev)
}

func (c *captureBus) kinds() []notify.Kind {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]notify.Kind, len(c.events))
	for i, ev := range c.events {
		out[i] = ev.Kind
	}
	return out
}

func (c *captureBus) last() notify.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.events[len(c.events)-1]
}

type testEnv struct {
	svc      LedgerService
	store    *memory.Store
	provider *identity.StaticProvider
	bus      *captureBus
	nav      *navigation.Navigator
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	s := memory.New()
	bus := &captureBus{}
	provider := identity.NewStaticProvider("u1")
	provider.SignIn()
	nav := navigation.New(nil)
	engine := aggregate.NewEngine(s, slog.Default())
	svc := NewLedgerService(s, engine, provider, bus, nav, "USD", slog.Default())
	return &testEnv{svc: svc, store: s, provider: provider, bus: bus, nav: nav}
}

// buildTree creates year/day/visit and returns their ids.
func (e *testEnv) buildTree(t *testing.T) (yearID, dayID, visitID string) {
	t.Helper()
	ctx := context.Background()
	year, err := e.svc.AddYear(ctx, 2024)
	require.NoError(t, err)
	day, err := e.svc.AddDay(ctx, year.ID, "Day 1")
	require.NoError(t, err)
	visit, err := e.svc.AddVisit(ctx, year.ID, day.ID, "Smith House")
	require.NoError(t, err)
	return year.ID, day.ID, visit.ID
}

func (e *testEnv) yearTotal(t *testing.T, yearID string) decimal.Decimal {
	t.Helper()
	y, err := e.svc.GetYear(context.Background(), yearID)
	require.NoError(t, err)
	return y.Total
}

func TestEntryLifecycleCascadesTotals(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	yearID, dayID, visitID := env.buildTree(t)

	require.True(t, env.yearTotal(t, yearID).IsZero())

	entry, err := env.svc.AddEntry(ctx, yearID, dayID, visitID,
		decimal.RequireFromString("50.00"), "from auntie", "")
	require.NoError(t, err)
	assert.Equal(t, "USD", entry.Currency) // default applied

	want := decimal.RequireFromString("50.00")
	visit, err := env.svc.GetVisit(ctx, yearID, dayID, visitID)
	require.NoError(t, err)
	assert.True(t, visit.Total.Equal(want))
	day, err := env.svc.GetDay(ctx, yearID, dayID)
	require.NoError(t, err)
	assert.True(t, day.Total.Equal(want))
	assert.True(t, env.yearTotal(t, yearID).Equal(want))

	require.NoError(t, env.svc.DeleteEntry(ctx, yearID, dayID, visitID, entry.ID))

	visit, err = env.svc.GetVisit(ctx, yearID, dayID, visitID)
	require.NoError(t, err)
	assert.True(t, visit.Total.IsZero())
	day, err = env.svc.GetDay(ctx, yearID, dayID)
	require.NoError(t, err)
	assert.True(t, day.Total.IsZero())
	assert.True(t, env.yearTotal(t, yearID).IsZero())
}

func TestEntriesChangedCarriesSettledTotal(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	yearID, dayID, visitID := env.buildTree(t)

	_, err := env.svc.AddEntry(ctx, yearID, dayID, visitID,
		decimal.RequireFromString("8.80"), "", "")
	require.NoError(t, err)

	ev := env.bus.last()
	assert.Equal(t, notify.KindEntriesChanged, ev.Kind)
	require.NotNil(t, ev.Total)
	assert.True(t, ev.Total.Equal(decimal.RequireFromString("8.80")))
}

func TestDuplicateYearRejected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.AddYear(ctx, 2024)
	require.NoError(t, err)
	_, err = env.svc.AddYear(ctx, 2024)
	assert.ErrorIs(t, err, util.ErrDuplicateYear)

	years, err := env.svc.ListYears(ctx)
	require.NoError(t, err)
	assert.Len(t, years, 1)
}

func TestInvalidAmountRejectedBeforeAnyWrite(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	yearID, dayID, visitID := env.buildTree(t)
	before := env.store.Len()

	_, err := env.svc.AddEntry(ctx, yearID, dayID, visitID,
		decimal.RequireFromString("-5"), "bad", "")
	assert.ErrorIs(t, err, util.ErrInvalidInput)
	_, err = env.svc.AddEntry(ctx, yearID, dayID, visitID, decimal.Zero, "bad", "")
	assert.ErrorIs(t, err, util.ErrInvalidInput)

	assert.Equal(t, before, env.store.Len())
}

func TestEmptyNamesRejected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	year, err := env.svc.AddYear(ctx, 2024)
	require.NoError(t, err)

	_, err = env.svc.AddDay(ctx, year.ID, "  ")
	assert.ErrorIs(t, err, util.ErrInvalidInput)
	_, err = env.svc.AddVisit(ctx, year.ID, "whatever", "")
	assert.ErrorIs(t, err, util.ErrInvalidInput)
}

func TestOperationsRefusedWithoutSession(t *testing.T) {
	env := newTestEnv(t)
	env.provider.SignOut()
	ctx := context.Background()

	_, err := env.svc.AddYear(ctx, 2024)
	assert.ErrorIs(t, err, util.ErrNotSignedIn)
	_, err = env.svc.ListYears(ctx)
	assert.ErrorIs(t, err, util.ErrNotSignedIn)
	assert.ErrorIs(t, env.svc.DeleteYear(ctx, "y1"), util.ErrNotSignedIn)
}

func TestDayOrderAssignment(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	year, err := env.svc.AddYear(ctx, 2024)
	require.NoError(t, err)

	d1, err := env.svc.AddDay(ctx, year.ID, "Day 1")
	require.NoError(t, err)
	d2, err := env.svc.AddDay(ctx, year.ID, "Day 2")
	require.NoError(t, err)
	d3, err := env.svc.AddDay(ctx, year.ID, "Day 3")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, []int{d1.Order, d2.Order, d3.Order})

	// Orders are not renumbered on deletion; the next slot is
	// sibling-count+1, so gaps survive.
	require.NoError(t, env.svc.DeleteDay(ctx, year.ID, d2.ID))
	d4, err := env.svc.AddDay(ctx, year.ID, "Day 4")
	require.NoError(t, err)
	assert.Equal(t, 3, d4.Order)

	days, err := env.svc.ListDays(ctx, year.ID)
	require.NoError(t, err)
	require.Len(t, days, 3)
	assert.Equal(t, "Day 1", days[0].Name)
}

func TestDeleteVisitRemovesEntriesAndRecomputes(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	yearID, dayID, visitID := env.buildTree(t)

	_, err := env.svc.AddEntry(ctx, yearID, dayID, visitID, decimal.RequireFromString("20.00"), "", "")
	require.NoError(t, err)
	_, err = env.svc.AddEntry(ctx, yearID, dayID, visitID, decimal.RequireFromString("30.00"), "", "")
	require.NoError(t, err)
	require.True(t, env.yearTotal(t, yearID).Equal(decimal.RequireFromString("50.00")))

	require.NoError(t, env.svc.DeleteVisit(ctx, yearID, dayID, visitID))

	visits, err := env.svc.ListVisits(ctx, yearID, dayID)
	require.NoError(t, err)
	assert.Empty(t, visits)
	assert.True(t, env.yearTotal(t, yearID).IsZero())
	// year and day remain; the visit and its entries are gone
	assert.Equal(t, 2, env.store.Len())
}

func TestDeleteDayRemovesWholeSubtree(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	yearID, dayID, visitID := env.buildTree(t)
	_, err := env.svc.AddEntry(ctx, yearID, dayID, visitID, decimal.RequireFromString("88.00"), "", "")
	require.NoError(t, err)

	require.NoError(t, env.svc.DeleteDay(ctx, yearID, dayID))

	days, err := env.svc.ListDays(ctx, yearID)
	require.NoError(t, err)
	assert.Empty(t, days)
	assert.True(t, env.yearTotal(t, yearID).IsZero())
	assert.Equal(t, 1, env.store.Len()) // only the year survives
}

func TestDeleteYearRemovesEverything(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	yearID, dayID, visitID := env.buildTree(t)
	_, err := env.svc.AddEntry(ctx, yearID, dayID, visitID, decimal.RequireFromString("1.00"), "", "")
	require.NoError(t, err)

	require.NoError(t, env.svc.DeleteYear(ctx, yearID))

	years, err := env.svc.ListYears(ctx)
	require.NoError(t, err)
	assert.Empty(t, years)
	assert.Equal(t, 0, env.store.Len())
}

func TestDeletingSelectedDayForcesImplicitBack(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	yearID, dayID, _ := env.buildTree(t)

	_, err := env.nav.SelectYear(yearID, "2024")
	require.NoError(t, err)
	_, err = env.nav.SelectDay(dayID, "Day 1")
	require.NoError(t, err)

	require.NoError(t, env.svc.DeleteDay(ctx, yearID, dayID))

	st := env.nav.State()
	assert.Equal(t, navigation.LevelDays, st.Level)
	assert.Nil(t, st.Day)
	assert.Equal(t, yearID, st.Year.ID)
}

func TestDeleteDayCascadeFailureStillSyncsSelection(t *testing.T) {
	s := memory.New()
	fs := &faultStore{Store: s}
	bus := &captureBus{}
	provider := identity.NewStaticProvider("u1")
	provider.SignIn()
	nav := navigation.New(nil)
	engine := aggregate.NewEngine(fs, slog.Default())
	svc := NewLedgerService(fs, engine, provider, bus, nav, "USD", slog.Default())

	ctx := context.Background()
	year, err := svc.AddYear(ctx, 2024)
	require.NoError(t, err)
	day, err := svc.AddDay(ctx, year.ID, "Day 1")
	require.NoError(t, err)
	_, err = nav.SelectYear(year.ID, "2024")
	require.NoError(t, err)
	_, err = nav.SelectDay(day.ID, "Day 1")
	require.NoError(t, err)

	fs.failDoc = store.YearDoc("u1", year.ID).String()
	err = svc.DeleteDay(ctx, year.ID, day.ID)
	var cascadeErr *aggregate.CascadeError
	require.ErrorAs(t, err, &cascadeErr)

	// The day is gone despite the stale year total, so the selection
	// must have fallen back and the view must have been told.
	_, err = svc.GetDay(ctx, year.ID, day.ID)
	assert.ErrorIs(t, err, util.ErrNotFound)
	st := nav.State()
	assert.Equal(t, navigation.LevelDays, st.Level)
	assert.Nil(t, st.Day)
	assert.Contains(t, bus.kinds(), notify.KindDaysChanged)
}

func TestRollupTransitivityAcrossTree(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	year, err := env.svc.AddYear(ctx, 2024)
	require.NoError(t, err)

	amounts := []string{"1.10", "2.20", "3.30", "4.40"}
	i := 0
	for d := 0; d < 2; d++ {
		day, err := env.svc.AddDay(ctx, year.ID, "Day")
		require.NoError(t, err)
		for v := 0; v < 2; v++ {
			visit, err := env.svc.AddVisit(ctx, year.ID, day.ID, "House")
			require.NoError(t, err)
			_, err = env.svc.AddEntry(ctx, year.ID, day.ID, visit.ID,
				decimal.RequireFromString(amounts[i]), "", "")
			require.NoError(t, err)
			i++
		}
	}

	days, err := env.svc.ListDays(ctx, year.ID)
	require.NoError(t, err)
	daySum := decimal.Zero
	for _, d := range days {
		daySum = daySum.Add(d.Total)
	}
	assert.True(t, daySum.Equal(decimal.RequireFromString("11.00")))
	assert.True(t, env.yearTotal(t, year.ID).Equal(daySum))
}

func TestListEntriesReturnsRunningTotal(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	yearID, dayID, visitID := env.buildTree(t)

	_, err := env.svc.AddEntry(ctx, yearID, dayID, visitID, decimal.RequireFromString("5.50"), "a", "")
	require.NoError(t, err)
	_, err = env.svc.AddEntry(ctx, yearID, dayID, visitID, decimal.RequireFromString("4.50"), "b", "")
	require.NoError(t, err)

	entries, total, err := env.svc.ListEntries(ctx, yearID, dayID, visitID)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
	assert.True(t, total.Equal(decimal.RequireFromString("10.00")))
}

func TestEnsureUserCreatesThenTouches(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, env.svc.EnsureUser(ctx))
	require.Equal(t, 1, env.store.Len())
	require.NoError(t, env.svc.EnsureUser(ctx))
	assert.Equal(t, 1, env.store.Len())
}

func TestMutationsPublishChangeKinds(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	yearID, dayID, visitID := env.buildTree(t)
	_, err := env.svc.AddEntry(ctx, yearID, dayID, visitID, decimal.RequireFromString("1.00"), "", "")
	require.NoError(t, err)

	assert.Equal(t, []notify.Kind{
		notify.KindYearsChanged,
		notify.KindDaysChanged,
		notify.KindVisitsChanged,
		notify.KindEntriesChanged,
	}, env.bus.kinds())
}
