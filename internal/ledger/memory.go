package ledger

import (
	"context"
	"sync"

	"trattoria/internal/domain"
)

// Memory is a mutex-guarded in-memory Store. It backs tests and
// database-less deployments; the single lock gives every mutating
// operation the serialization the contract demands.
type Memory struct {
	mu           sync.Mutex
	reservations []domain.Reservation
	orders       []domain.Order
	codes        map[int]struct{}
	slots        map[slotKey]struct{}
}

type slotKey struct {
	tableID string
	date    string
	hour    string
}

// NewMemory returns an empty in-memory ledger.
func NewMemory() *Memory {
	return &Memory{
		codes: make(map[int]struct{}),
		slots: make(map[slotKey]struct{}),
	}
}

func (m *Memory) AppendReservation(_ context.Context, r domain.Reservation) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, taken := m.codes[r.Code]; taken {
		return ErrCodeTaken
	}
	key := slotKey{tableID: r.TableID, date: r.Date, hour: r.Hour}
	if _, taken := m.slots[key]; taken {
		return ErrSlotTaken
	}
	m.reservations = append(m.reservations, r)
	m.codes[r.Code] = struct{}{}
	m.slots[key] = struct{}{}
	return nil
}

func (m *Memory) Reservations(_ context.Context) ([]domain.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Reservation, len(m.reservations))
	copy(out, m.reservations)
	return out, nil
}

func (m *Memory) FindReservation(_ context.Context, surname string, code int) (domain.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.reservations {
		if r.Code == code && r.Surname == surname {
			return r, nil
		}
	}
	return domain.Reservation{}, ErrNotFound
}

func (m *Memory) SlotTaken(_ context.Context, tableID, date, hour string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, taken := m.slots[slotKey{tableID: tableID, date: date, hour: hour}]
	return taken, nil
}

func (m *Memory) AppendOrder(_ context.Context, o domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders = append(m.orders, o)
	return nil
}

func (m *Memory) Orders(_ context.Context) ([]domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Order, len(m.orders))
	copy(out, m.orders)
	return out, nil
}

func (m *Memory) ClaimOldestWaiting(_ context.Context) (domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	oldest := -1
	for i, o := range m.orders {
		if o.Status != domain.StatusWaiting {
			continue
		}
		// strict minimum; ties keep the first encountered
		if oldest == -1 || o.CreatedAt.Before(m.orders[oldest].CreatedAt) {
			oldest = i
		}
	}
	if oldest == -1 {
		return domain.Order{}, ErrNotFound
	}
	m.orders[oldest].Status = domain.StatusPreparing
	return m.orders[oldest], nil
}

func (m *Memory) MarkServed(_ context.Context, code int, course string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, o := range m.orders {
		if o.ReservationCode == code && o.Course == course && o.Status.CanAdvance(domain.StatusServed) {
			m.orders[i].Status = domain.StatusServed
			return nil
		}
	}
	return ErrNotFound
}

func (m *Memory) OrdersByStatus(_ context.Context, status domain.OrderStatus) ([]domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Order
	for _, o := range m.orders {
		if o.Status == status {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *Memory) OrdersByTable(_ context.Context, tableID string) ([]domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Order
	for _, o := range m.orders {
		if o.TableID == tableID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *Memory) OrdersByReservation(_ context.Context, code int) ([]domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Order
	for _, o := range m.orders {
		if o.ReservationCode == code {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *Memory) AllOrdersServed(_ context.Context) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.orders {
		if o.Status != domain.StatusServed {
			return false, nil
		}
	}
	return true, nil
}
