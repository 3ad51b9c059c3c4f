package reservations

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trattoria/internal/domain"
	"trattoria/internal/ledger"
)

func findRequest() domain.FindRequest {
	return domain.FindRequest{Surname: "Lee", People: 3, Date: "2024-05-01", Hour: "19:00"}
}

func newAllocator(t *testing.T) (*Allocator, *ledger.Memory) {
	t.Helper()
	store := ledger.NewMemory()
	return NewAllocator(domain.DefaultCatalog(), store), store
}

func TestFindAvailableTablesRoundsPartySizeUp(t *testing.T) {
	a, _ := newAllocator(t)

	// party of 3 needs a 4-seat table, never a 2-seat one
	tables, err := a.FindAvailableTables(context.Background(), findRequest())
	require.NoError(t, err)
	require.Len(t, tables, 2)
	assert.Equal(t, "T14", tables[0].ID)
	assert.Equal(t, "T24", tables[1].ID)
}

func TestFindAvailableTablesExactCapacity(t *testing.T) {
	a, _ := newAllocator(t)

	req := findRequest()
	req.People = 2
	tables, err := a.FindAvailableTables(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, tables, 2)
	assert.Equal(t, 2, tables[0].Seats, "a 2-person party gets exactly a 2-seat table")

	// no table seats 8+: empty result, not an error
	req.People = 7
	tables, err = a.FindAvailableTables(context.Background(), req)
	require.NoError(t, err)
	assert.Empty(t, tables)
}

func TestBookTableExcludesSlotFromLaterFinds(t *testing.T) {
	a, _ := newAllocator(t)
	ctx := context.Background()

	tables, err := a.FindAvailableTables(ctx, findRequest())
	require.NoError(t, err)
	require.Len(t, tables, 2)

	r, err := a.BookTable(ctx, findRequest(), tables[0])
	require.NoError(t, err)
	assert.Equal(t, "T14", r.TableID)
	assert.Equal(t, "Lee", r.Surname)
	assert.GreaterOrEqual(t, r.Code, 1000)

	tables, err = a.FindAvailableTables(ctx, findRequest())
	require.NoError(t, err)
	require.Len(t, tables, 1)
	assert.Equal(t, "T24", tables[0].ID)

	// other slots on the booked table stay open
	later := findRequest()
	later.Hour = "21:00"
	tables, err = a.FindAvailableTables(ctx, later)
	require.NoError(t, err)
	assert.Len(t, tables, 2)
}

func TestBookTableRejectsTakenSlot(t *testing.T) {
	a, _ := newAllocator(t)
	ctx := context.Background()
	table, ok := a.Table("T14")
	require.True(t, ok)

	_, err := a.BookTable(ctx, findRequest(), table)
	require.NoError(t, err)

	// a stale find result cannot double-book the slot
	_, err = a.BookTable(ctx, findRequest(), table)
	assert.ErrorIs(t, err, ledger.ErrSlotTaken)
}

func TestBookTableRetriesOnCodeCollision(t *testing.T) {
	a, _ := newAllocator(t)
	ctx := context.Background()

	codes := []int{1111, 1111, 2222}
	a.newCode = func() int {
		c := codes[0]
		if len(codes) > 1 {
			codes = codes[1:]
		}
		return c
	}

	first, err := a.BookTable(ctx, findRequest(), domain.Table{ID: "T14"})
	require.NoError(t, err)
	assert.Equal(t, 1111, first.Code)

	other := findRequest()
	other.Hour = "21:00"
	second, err := a.BookTable(ctx, other, domain.Table{ID: "T14"})
	require.NoError(t, err)
	assert.Equal(t, 2222, second.Code, "collision with 1111 must be retried")
}

func TestBookTableGivesUpWhenCodesExhausted(t *testing.T) {
	a, _ := newAllocator(t)
	ctx := context.Background()
	a.newCode = func() int { return 1111 }

	_, err := a.BookTable(ctx, findRequest(), domain.Table{ID: "T14"})
	require.NoError(t, err)

	other := findRequest()
	other.Hour = "21:00"
	_, err = a.BookTable(ctx, other, domain.Table{ID: "T14"})
	require.Error(t, err)
	assert.False(t, errors.Is(err, ledger.ErrCodeTaken), "exhaustion is reported as its own failure")
}

func TestFindReservation(t *testing.T) {
	a, _ := newAllocator(t)
	ctx := context.Background()

	r, err := a.BookTable(ctx, findRequest(), domain.Table{ID: "T14"})
	require.NoError(t, err)

	got, err := a.FindReservation(ctx, "Lee", r.Code)
	require.NoError(t, err)
	assert.Equal(t, r, got)

	_, err = a.FindReservation(ctx, "Lee", r.Code+1)
	assert.ErrorIs(t, err, ledger.ErrNotFound)
}
