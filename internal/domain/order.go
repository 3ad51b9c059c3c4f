package domain

import "time"

// OrderStatus is the kitchen lifecycle of an order. Transitions only ever
// move forward: waiting -> preparing -> served.
type OrderStatus string

const (
	StatusWaiting   OrderStatus = "waiting"
	StatusPreparing OrderStatus = "preparing"
	StatusServed    OrderStatus = "served"
)

// Valid reports whether s is one of the three known statuses.
func (s OrderStatus) Valid() bool {
	switch s {
	case StatusWaiting, StatusPreparing, StatusServed:
		return true
	}
	return false
}

// rank orders the statuses along the lifecycle.
func (s OrderStatus) rank() int {
	switch s {
	case StatusWaiting:
		return 0
	case StatusPreparing:
		return 1
	case StatusServed:
		return 2
	}
	return -1
}

// CanAdvance reports whether an order in status s may move to next.
// An order never regresses and never leaves the served state.
func (s OrderStatus) CanAdvance(next OrderStatus) bool {
	return s.Valid() && next.Valid() && next.rank() > s.rank()
}

// Order is one persisted order line, placed by a table terminal and
// worked off by the kitchen. Items is the raw code-quantity text the
// table sent (e.g. "C1-2 D3-1"); Price is the total computed against the
// menu at placement time.
type Order struct {
	ReservationCode int
	TableID         string
	Course          string
	Items           string
	Status          OrderStatus
	Price           int
	CreatedAt       time.Time
}
