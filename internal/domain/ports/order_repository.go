package ports

import (
	"context"

	"github.com/tmcgann/paymentsense-service/internal/domain"
)

// OrderRepository tracks the payment lifecycle state of orders. Unlike the
// transaction audit trail, order state is mutable: it always reflects the
// latest applied transition.
type OrderRepository interface {
	// GetState returns the current state of an order, or ErrOrderNotFound
	GetState(ctx context.Context, orderID string) (domain.OrderState, error)

	// SetState records the current state of an order, creating it if needed
	SetState(ctx context.Context, orderID string, state domain.OrderState) error
}
