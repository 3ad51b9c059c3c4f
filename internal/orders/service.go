// Package orders owns the order lifecycle: pricing and placing orders,
// handing them to the kitchen oldest first, marking courses served and
// aggregating a table's bill.
package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"trattoria/internal/domain"
	"trattoria/internal/events"
	"trattoria/internal/ledger"
	"trattoria/internal/logger"
	"trattoria/internal/menu"
)

// Service coordinates the ledger, the menu and the event publisher.
type Service struct {
	store  ledger.Store
	menu   *menu.Menu
	events events.Publisher
	log    *logrus.Entry
	now    func() time.Time
}

// NewService builds an order service. The menu is immutable for the
// process lifetime.
func NewService(store ledger.Store, m *menu.Menu, pub events.Publisher) *Service {
	return &Service{
		store:  store,
		menu:   m,
		events: pub,
		log:    logger.New("orders"),
		now:    time.Now,
	}
}

// PlaceOrder prices the item text against the menu and persists the
// order in waiting status. Codes not on the menu price as zero; they are
// logged and returned so the terminal can tell the guest.
func (s *Service) PlaceOrder(ctx context.Context, reservationCode int, tableID, course, items string) (domain.Order, []string, error) {
	price, unknown := s.menu.Price(items)
	if len(unknown) > 0 {
		s.log.WithFields(logrus.Fields{
			"reservation": reservationCode, "course": course, "codes": unknown,
		}).Warn("unknown_menu_codes")
	}

	o := domain.Order{
		ReservationCode: reservationCode,
		TableID:         tableID,
		Course:          course,
		Items:           items,
		Status:          domain.StatusWaiting,
		Price:           price,
		CreatedAt:       s.now(),
	}
	if err := s.store.AppendOrder(ctx, o); err != nil {
		return domain.Order{}, nil, fmt.Errorf("place order: %w", err)
	}

	if err := s.events.OrderPlaced(ctx, o); err != nil {
		s.log.WithError(err).Warn("order_event_publish_failed")
	}
	return o, unknown, nil
}

// NextForKitchen claims the oldest waiting order for preparation.
// Returns ledger.ErrNotFound when nothing is waiting.
func (s *Service) NextForKitchen(ctx context.Context) (domain.Order, error) {
	o, err := s.store.ClaimOldestWaiting(ctx)
	if err != nil {
		return domain.Order{}, err
	}
	if err := s.events.OrderStatusChanged(ctx, o); err != nil {
		s.log.WithError(err).Warn("order_event_publish_failed")
	}
	return o, nil
}

// MarkCourseServed completes the course for the given reservation.
// Returns ledger.ErrNotFound when no unserved order matches.
func (s *Service) MarkCourseServed(ctx context.Context, reservationCode int, course string) error {
	if err := s.store.MarkServed(ctx, reservationCode, course); err != nil {
		return err
	}
	orders, err := s.store.OrdersByReservation(ctx, reservationCode)
	if err == nil {
		for _, o := range orders {
			if o.Course == course && o.Status == domain.StatusServed {
				if pubErr := s.events.OrderStatusChanged(ctx, o); pubErr != nil {
					s.log.WithError(pubErr).Warn("order_event_publish_failed")
				}
				break
			}
		}
	}
	return nil
}

// InPreparation lists the orders the kitchen is currently working on.
func (s *Service) InPreparation(ctx context.Context) ([]domain.Order, error) {
	return s.store.OrdersByStatus(ctx, domain.StatusPreparing)
}

// BillForTable totals every persisted order under the reservation code.
// The bill is always derived from the ledger, never from session state,
// so a dropped connection loses nothing.
func (s *Service) BillForTable(ctx context.Context, reservationCode int) (int, error) {
	orders, err := s.store.OrdersByReservation(ctx, reservationCode)
	if err != nil {
		return 0, fmt.Errorf("bill for table: %w", err)
	}
	total := 0
	for _, o := range orders {
		total += o.Price
	}
	return total, nil
}

// OrdersByTable lists the orders placed from a table, for the admin
// console.
func (s *Service) OrdersByTable(ctx context.Context, tableID string) ([]domain.Order, error) {
	return s.store.OrdersByTable(ctx, tableID)
}

// OrdersByStatus lists the orders currently in a status, for the admin
// console.
func (s *Service) OrdersByStatus(ctx context.Context, status domain.OrderStatus) ([]domain.Order, error) {
	return s.store.OrdersByStatus(ctx, status)
}

// AllServed reports whether every persisted order is served; shutdown is
// gated on it.
func (s *Service) AllServed(ctx context.Context) (bool, error) {
	return s.store.AllOrdersServed(ctx)
}
