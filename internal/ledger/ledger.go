// Package ledger is the durable store of reservations and orders, the
// sole source of truth shared across sessions. Implementations must
// serialize mutating operations: concurrent sessions only ever touch the
// store through this interface.
package ledger

import (
	"context"
	"errors"

	"trattoria/internal/domain"
)

// Sentinel errors returned by Store implementations. Anything else is a
// store-availability failure and is surfaced to clients as such.
var (
	// ErrNotFound is returned when no matching reservation or order exists.
	ErrNotFound = errors.New("not found")

	// ErrSlotTaken is returned by AppendReservation when the table is
	// already reserved for that date and hour.
	ErrSlotTaken = errors.New("slot already reserved")

	// ErrCodeTaken is returned by AppendReservation when the reservation
	// code is already in use; the caller generates a new one and retries.
	ErrCodeTaken = errors.New("reservation code already in use")
)

// Store is the persistence contract shared by the Postgres and in-memory
// ledgers.
type Store interface {
	// AppendReservation persists a reservation. It enforces both
	// uniqueness invariants: one reservation per (table, date, hour) slot
	// and globally unique codes.
	AppendReservation(ctx context.Context, r domain.Reservation) error

	// Reservations returns every persisted reservation in append order.
	Reservations(ctx context.Context) ([]domain.Reservation, error)

	// FindReservation looks a reservation up by surname and code.
	FindReservation(ctx context.Context, surname string, code int) (domain.Reservation, error)

	// SlotTaken reports whether a reservation exists for the slot.
	SlotTaken(ctx context.Context, tableID, date, hour string) (bool, error)

	// AppendOrder persists a new order.
	AppendOrder(ctx context.Context, o domain.Order) error

	// Orders returns every persisted order in append order.
	Orders(ctx context.Context) ([]domain.Order, error)

	// ClaimOldestWaiting atomically selects the waiting order with the
	// oldest creation time, moves it to preparing and returns it. The
	// claim removes it from future waiting selections even under
	// concurrent callers. Returns ErrNotFound when nothing is waiting.
	ClaimOldestWaiting(ctx context.Context) (domain.Order, error)

	// MarkServed moves the first not-yet-served order matching
	// (reservation code, course) to served. Returns ErrNotFound when no
	// such order exists; an already served order never changes again.
	MarkServed(ctx context.Context, code int, course string) error

	// OrdersByStatus returns the orders currently in the given status.
	OrdersByStatus(ctx context.Context, status domain.OrderStatus) ([]domain.Order, error)

	// OrdersByTable returns the orders placed from the given table.
	OrdersByTable(ctx context.Context, tableID string) ([]domain.Order, error)

	// OrdersByReservation returns the orders placed under a reservation
	// code, for bill aggregation.
	OrdersByReservation(ctx context.Context, code int) ([]domain.Order, error)

	// AllOrdersServed reports whether every persisted order is served.
	// An empty ledger counts as all served.
	AllOrdersServed(ctx context.Context) (bool, error)
}
