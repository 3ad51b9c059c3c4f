package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"trattoria/internal/config"
	"trattoria/internal/domain"
)

const orderColumns = "reservation_code, table_id, course, items, status, price, created_at"

// Postgres is the production Store, backed by a pgx connection pool.
// Transactionality of the underlying database provides the isolation the
// contract requires between concurrent sessions.
type Postgres struct {
	pool *pgxpool.Pool
}

// Connect opens a pool against the configured database and verifies it
// with a ping.
func Connect(ctx context.Context, cfg config.Database) (*Postgres, error) {
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s&pool_max_conns=%d",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database, cfg.SSLMode, cfg.MaxConns)
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("open pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

// Close releases the connection pool.
func (p *Postgres) Close() {
	if p != nil && p.pool != nil {
		p.pool.Close()
	}
}

func (p *Postgres) AppendReservation(ctx context.Context, r domain.Reservation) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO reservations (code, surname, people, date, hour, table_id)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		r.Code, r.Surname, r.People, r.Date, r.Hour, r.TableID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			switch pgErr.ConstraintName {
			case "reservations_code_key":
				return ErrCodeTaken
			case "reservations_slot_key":
				return ErrSlotTaken
			}
		}
		return fmt.Errorf("append reservation: %w", err)
	}
	return nil
}

func (p *Postgres) Reservations(ctx context.Context) ([]domain.Reservation, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT code, surname, people, date, hour, table_id
		FROM reservations ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("scan reservations: %w", err)
	}
	defer rows.Close()

	var out []domain.Reservation
	for rows.Next() {
		var r domain.Reservation
		if err := rows.Scan(&r.Code, &r.Surname, &r.People, &r.Date, &r.Hour, &r.TableID); err != nil {
			return nil, fmt.Errorf("scan reservation row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (p *Postgres) FindReservation(ctx context.Context, surname string, code int) (domain.Reservation, error) {
	var r domain.Reservation
	err := p.pool.QueryRow(ctx, `
		SELECT code, surname, people, date, hour, table_id
		FROM reservations WHERE code = $1 AND surname = $2`,
		code, surname).Scan(&r.Code, &r.Surname, &r.People, &r.Date, &r.Hour, &r.TableID)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Reservation{}, ErrNotFound
	}
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("find reservation: %w", err)
	}
	return r, nil
}

func (p *Postgres) SlotTaken(ctx context.Context, tableID, date, hour string) (bool, error) {
	var taken bool
	err := p.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM reservations WHERE table_id = $1 AND date = $2 AND hour = $3
		)`, tableID, date, hour).Scan(&taken)
	if err != nil {
		return false, fmt.Errorf("check slot: %w", err)
	}
	return taken, nil
}

func (p *Postgres) AppendOrder(ctx context.Context, o domain.Order) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO orders (reservation_code, table_id, course, items, status, price, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		o.ReservationCode, o.TableID, o.Course, o.Items, string(o.Status), o.Price, o.CreatedAt)
	if err != nil {
		return fmt.Errorf("append order: %w", err)
	}
	return nil
}

func (p *Postgres) Orders(ctx context.Context) ([]domain.Order, error) {
	return p.selectOrders(ctx, "", nil)
}

func (p *Postgres) ClaimOldestWaiting(ctx context.Context) (domain.Order, error) {
	// Claim and return in a single statement; SKIP LOCKED keeps two
	// kitchen terminals from racing for the same order.
	var o domain.Order
	var status string
	err := p.pool.QueryRow(ctx, `
		UPDATE orders SET status = $1
		WHERE id = (
			SELECT id FROM orders WHERE status = $2
			ORDER BY created_at, id LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING `+orderColumns,
		string(domain.StatusPreparing), string(domain.StatusWaiting)).
		Scan(&o.ReservationCode, &o.TableID, &o.Course, &o.Items, &status, &o.Price, &o.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Order{}, ErrNotFound
	}
	if err != nil {
		return domain.Order{}, fmt.Errorf("claim oldest waiting order: %w", err)
	}
	o.Status = domain.OrderStatus(status)
	return o, nil
}

func (p *Postgres) MarkServed(ctx context.Context, code int, course string) error {
	tag, err := p.pool.Exec(ctx, `
		UPDATE orders SET status = $1
		WHERE id = (
			SELECT id FROM orders
			WHERE reservation_code = $2 AND course = $3 AND status <> $1
			ORDER BY created_at, id LIMIT 1
			FOR UPDATE SKIP LOCKED
		)`,
		string(domain.StatusServed), code, course)
	if err != nil {
		return fmt.Errorf("mark order served: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) OrdersByStatus(ctx context.Context, status domain.OrderStatus) ([]domain.Order, error) {
	return p.selectOrders(ctx, "WHERE status = $1", []any{string(status)})
}

func (p *Postgres) OrdersByTable(ctx context.Context, tableID string) ([]domain.Order, error) {
	return p.selectOrders(ctx, "WHERE table_id = $1", []any{tableID})
}

func (p *Postgres) OrdersByReservation(ctx context.Context, code int) ([]domain.Order, error) {
	return p.selectOrders(ctx, "WHERE reservation_code = $1", []any{code})
}

func (p *Postgres) AllOrdersServed(ctx context.Context) (bool, error) {
	var allServed bool
	err := p.pool.QueryRow(ctx, `
		SELECT NOT EXISTS (SELECT 1 FROM orders WHERE status <> $1)`,
		string(domain.StatusServed)).Scan(&allServed)
	if err != nil {
		return false, fmt.Errorf("check orders served: %w", err)
	}
	return allServed, nil
}

func (p *Postgres) selectOrders(ctx context.Context, where string, args []any) ([]domain.Order, error) {
	q := "SELECT " + orderColumns + " FROM orders " + where + " ORDER BY created_at, id"
	rows, err := p.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("scan orders: %w", err)
	}
	defer rows.Close()

	var out []domain.Order
	for rows.Next() {
		var o domain.Order
		var status string
		if err := rows.Scan(&o.ReservationCode, &o.TableID, &o.Course, &o.Items, &status, &o.Price, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		o.Status = domain.OrderStatus(status)
		out = append(out, o)
	}
	return out, rows.Err()
}
