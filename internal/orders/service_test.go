package orders

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trattoria/internal/domain"
	"trattoria/internal/events"
	"trattoria/internal/ledger"
	"trattoria/internal/menu"
)

const testMenu = `
| C1 | Spaghetti | 10 |
| C2 | Lasagne   | 12 |
| D3 | Tiramisu  | 25 |
`

func newService(t *testing.T) (*Service, *ledger.Memory) {
	t.Helper()
	m, err := menu.Parse(strings.NewReader(testMenu))
	require.NoError(t, err)
	store := ledger.NewMemory()
	return NewService(store, m, events.Noop{}), store
}

func TestPlaceOrderPricesAgainstMenu(t *testing.T) {
	s, store := newService(t)
	ctx := context.Background()

	o, unknown, err := s.PlaceOrder(ctx, 1001, "T14", "C1", "C1-2 D3-1")
	require.NoError(t, err)
	assert.Empty(t, unknown)
	assert.Equal(t, 45, o.Price)
	assert.Equal(t, domain.StatusWaiting, o.Status)
	assert.False(t, o.CreatedAt.IsZero())

	persisted, err := store.Orders(ctx)
	require.NoError(t, err)
	require.Len(t, persisted, 1)
	assert.Equal(t, o, persisted[0])
}

func TestPlaceOrderFlagsUnknownCodes(t *testing.T) {
	s, _ := newService(t)

	o, unknown, err := s.PlaceOrder(context.Background(), 1001, "T14", "C1", "C1-2 X9-1")
	require.NoError(t, err)
	assert.Equal(t, 20, o.Price, "unknown code contributes zero")
	assert.Equal(t, []string{"X9"}, unknown)
}

func TestNextForKitchenClaimsOldest(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()

	base := time.Date(2024, 5, 1, 19, 0, 0, 0, time.UTC)
	times := []time.Time{base.Add(time.Minute), base, base.Add(2 * time.Minute)}
	s.now = func() time.Time {
		at := times[0]
		times = times[1:]
		return at
	}

	_, _, err := s.PlaceOrder(ctx, 1001, "T14", "C1", "C1-1")
	require.NoError(t, err)
	_, _, err = s.PlaceOrder(ctx, 1002, "T24", "C1", "C2-1")
	require.NoError(t, err)
	_, _, err = s.PlaceOrder(ctx, 1003, "T16", "C1", "D3-1")
	require.NoError(t, err)

	o, err := s.NextForKitchen(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1002, o.ReservationCode, "globally oldest waiting order wins")
	assert.Equal(t, domain.StatusPreparing, o.Status)

	o, err = s.NextForKitchen(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1001, o.ReservationCode)

	o, err = s.NextForKitchen(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1003, o.ReservationCode)

	_, err = s.NextForKitchen(ctx)
	assert.ErrorIs(t, err, ledger.ErrNotFound)
}

func TestMarkCourseServed(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()

	_, _, err := s.PlaceOrder(ctx, 1001, "T14", "C1", "C1-1")
	require.NoError(t, err)
	_, err = s.NextForKitchen(ctx)
	require.NoError(t, err)

	require.NoError(t, s.MarkCourseServed(ctx, 1001, "C1"))

	inPrep, err := s.InPreparation(ctx)
	require.NoError(t, err)
	assert.Empty(t, inPrep)

	// serving twice is NotFound, not silent success
	err = s.MarkCourseServed(ctx, 1001, "C1")
	assert.ErrorIs(t, err, ledger.ErrNotFound)

	err = s.MarkCourseServed(ctx, 9999, "C1")
	assert.ErrorIs(t, err, ledger.ErrNotFound)
}

func TestInPreparation(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()

	_, _, err := s.PlaceOrder(ctx, 1001, "T14", "C1", "C1-1")
	require.NoError(t, err)
	_, _, err = s.PlaceOrder(ctx, 1002, "T24", "C2", "C2-1")
	require.NoError(t, err)

	inPrep, err := s.InPreparation(ctx)
	require.NoError(t, err)
	assert.Empty(t, inPrep)

	_, err = s.NextForKitchen(ctx)
	require.NoError(t, err)

	inPrep, err = s.InPreparation(ctx)
	require.NoError(t, err)
	require.Len(t, inPrep, 1)
	assert.Equal(t, 1001, inPrep[0].ReservationCode)
}

func TestBillForTableSumsPersistedOrders(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()

	_, _, err := s.PlaceOrder(ctx, 1001, "T14", "C1", "C1-2")
	require.NoError(t, err)
	_, _, err = s.PlaceOrder(ctx, 1001, "T14", "D1", "D3-1")
	require.NoError(t, err)
	// another reservation must not leak into the bill
	_, _, err = s.PlaceOrder(ctx, 1002, "T24", "C1", "C2-3")
	require.NoError(t, err)

	total, err := s.BillForTable(ctx, 1001)
	require.NoError(t, err)
	assert.Equal(t, 45, total)

	total, err = s.BillForTable(ctx, 7777)
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestAllServedGatesOnEveryOrder(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()

	ok, err := s.AllServed(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	_, _, err = s.PlaceOrder(ctx, 1001, "T14", "C1", "C1-1")
	require.NoError(t, err)

	ok, err = s.AllServed(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "waiting order blocks shutdown")

	_, err = s.NextForKitchen(ctx)
	require.NoError(t, err)
	ok, err = s.AllServed(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "preparing order blocks shutdown")

	require.NoError(t, s.MarkCourseServed(ctx, 1001, "C1"))
	ok, err = s.AllServed(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}
