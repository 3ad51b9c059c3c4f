package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequiredSeats(t *testing.T) {
	tests := []struct {
		people int
		seats  int
	}{
		{1, 2},
		{2, 2},
		{3, 4},
		{4, 4},
		{5, 6},
		{6, 6},
		{7, 8},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.seats, RequiredSeats(tc.people), "people=%d", tc.people)
	}
}

func TestTableByID(t *testing.T) {
	catalog := DefaultCatalog()

	tab, ok := TableByID(catalog, "T14")
	assert.True(t, ok)
	assert.Equal(t, 4, tab.Seats)
	assert.Equal(t, "ROOM1", tab.Room)

	_, ok = TableByID(catalog, "T99")
	assert.False(t, ok)
}

func TestOrderStatusCanAdvance(t *testing.T) {
	assert.True(t, StatusWaiting.CanAdvance(StatusPreparing))
	assert.True(t, StatusWaiting.CanAdvance(StatusServed))
	assert.True(t, StatusPreparing.CanAdvance(StatusServed))

	// no regressions, no self-transitions, nothing after served
	assert.False(t, StatusPreparing.CanAdvance(StatusWaiting))
	assert.False(t, StatusServed.CanAdvance(StatusPreparing))
	assert.False(t, StatusServed.CanAdvance(StatusWaiting))
	assert.False(t, StatusWaiting.CanAdvance(StatusWaiting))
	assert.False(t, StatusWaiting.CanAdvance(OrderStatus("burnt")))
}
