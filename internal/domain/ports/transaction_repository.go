package ports

import (
	"context"

	"github.com/tmcgann/paymentsense-service/internal/domain"
)

// TransactionRepository persists the append-only audit trail of gateway
// interactions. Records are insert-only; there are no update or delete
// operations.
type TransactionRepository interface {
	// Insert appends a new transaction record
	Insert(ctx context.Context, record *domain.TransactionRecord) error

	// ListByOrder returns all records for an order, oldest first
	ListByOrder(ctx context.Context, orderID string) ([]*domain.TransactionRecord, error)

	// LatestCapturable returns the most recent open authorization for an
	// order, or ErrTxnNotFound
	LatestCapturable(ctx context.Context, orderID string) (*domain.TransactionRecord, error)

	// LatestRefundable returns the most recent captured transaction for an
	// order, or ErrTxnNotFound
	LatestRefundable(ctx context.Context, orderID string) (*domain.TransactionRecord, error)

	// FindByCrossReference returns the record holding the given gateway
	// cross reference, or ErrTxnNotFound
	FindByCrossReference(ctx context.Context, crossReference string) (*domain.TransactionRecord, error)
}
