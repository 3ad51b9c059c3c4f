// Package reservations matches find requests against the table catalog
// and the reservation history, and creates new reservations.
package reservations

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"github.com/sirupsen/logrus"

	"trattoria/internal/domain"
	"trattoria/internal/ledger"
	"trattoria/internal/logger"
)

// codeAttempts bounds the generate-and-retry loop for reservation codes.
// With four-digit codes a busy night uses a small fraction of the space,
// so collisions stay rare.
const codeAttempts = 32

// Allocator owns the table-matching and booking logic. The catalog is
// immutable; all persisted state goes through the ledger.
type Allocator struct {
	catalog []domain.Table
	store   ledger.Store
	log     *logrus.Entry
	newCode func() int
}

// NewAllocator builds an allocator over the given catalog and store.
func NewAllocator(catalog []domain.Table, store ledger.Store) *Allocator {
	return &Allocator{
		catalog: catalog,
		store:   store,
		log:     logger.New("reservations"),
		newCode: func() int { return rand.Intn(9000) + 1000 },
	}
}

// FindAvailableTables returns, in catalog order, every table whose seat
// count exactly matches the party size rounded up to even and whose slot
// (table, date, hour) is still free. An empty result is not an error.
func (a *Allocator) FindAvailableTables(ctx context.Context, req domain.FindRequest) ([]domain.Table, error) {
	seats := domain.RequiredSeats(req.People)

	var matches []domain.Table
	for _, t := range a.catalog {
		if t.Seats != seats {
			continue
		}
		taken, err := a.store.SlotTaken(ctx, t.ID, req.Date, req.Hour)
		if err != nil {
			return nil, fmt.Errorf("find available tables: %w", err)
		}
		if !taken {
			matches = append(matches, t)
		}
	}
	return matches, nil
}

// BookTable persists a reservation of the chosen table for the request's
// slot. Slot uniqueness is enforced by the ledger append itself, so a
// stale find result surfaces as ledger.ErrSlotTaken rather than a double
// booking. Code collisions are retried with fresh codes.
func (a *Allocator) BookTable(ctx context.Context, req domain.FindRequest, table domain.Table) (domain.Reservation, error) {
	for i := 0; i < codeAttempts; i++ {
		r := domain.Reservation{
			Code:    a.newCode(),
			Surname: req.Surname,
			People:  req.People,
			Date:    req.Date,
			Hour:    req.Hour,
			TableID: table.ID,
		}
		err := a.store.AppendReservation(ctx, r)
		if err == nil {
			a.log.WithFields(logrus.Fields{
				"code": r.Code, "table": r.TableID, "date": r.Date, "hour": r.Hour,
			}).Info("reservation_created")
			return r, nil
		}
		if errors.Is(err, ledger.ErrCodeTaken) {
			continue
		}
		return domain.Reservation{}, err
	}
	return domain.Reservation{}, fmt.Errorf("book table: no free reservation code after %d attempts", codeAttempts)
}

// FindReservation resolves a surname and code to a persisted
// reservation; table terminals use it to authenticate their session.
func (a *Allocator) FindReservation(ctx context.Context, surname string, code int) (domain.Reservation, error) {
	return a.store.FindReservation(ctx, surname, code)
}

// Table resolves a table id against the catalog.
func (a *Allocator) Table(id string) (domain.Table, bool) {
	return domain.TableByID(a.catalog, id)
}
