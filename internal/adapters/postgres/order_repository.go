package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tmcgann/paymentsense-service/internal/domain"
	"github.com/tmcgann/paymentsense-service/internal/domain/ports"
)

// OrderRepository implements ports.OrderRepository over PostgreSQL.
//
// Schema:
//
//	CREATE TABLE order_states (
//	    order_id   TEXT PRIMARY KEY,
//	    state      TEXT NOT NULL,
//	    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
//	);
type OrderRepository struct {
	pool *pgxpool.Pool
}

var _ ports.OrderRepository = (*OrderRepository)(nil)

// NewOrderRepository creates a new order state repository
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// GetState returns the current state of an order
func (r *OrderRepository) GetState(ctx context.Context, orderID string) (domain.OrderState, error) {
	var state string
	err := r.pool.QueryRow(ctx,
		`SELECT state FROM order_states WHERE order_id = $1`,
		orderID,
	).Scan(&state)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", domain.ErrOrderNotFound.WithDetail("order_id", orderID)
		}
		return "", domain.WrapError(domain.ErrorCodeDatabaseError, "get order state", err)
	}
	return domain.OrderState(state), nil
}

// SetState records the current state of an order
func (r *OrderRepository) SetState(ctx context.Context, orderID string, state domain.OrderState) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO order_states (order_id, state, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (order_id) DO UPDATE SET state = EXCLUDED.state, updated_at = now()`,
		orderID,
		string(state),
	)
	if err != nil {
		return domain.WrapError(domain.ErrorCodeDatabaseError, "set order state", err)
	}
	return nil
}
