package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tmcgann/paymentsense-service/internal/domain"
	"github.com/tmcgann/paymentsense-service/internal/domain/ports"
)

// TransactionRepository implements ports.TransactionRepository over
// PostgreSQL. The table is append-only; there are deliberately no UPDATE or
// DELETE statements in this file.
//
// Schema:
//
//	CREATE TABLE transaction_records (
//	    id                     UUID PRIMARY KEY,
//	    order_id               TEXT NOT NULL,
//	    operation              TEXT NOT NULL,
//	    initial                BOOLEAN NOT NULL,
//	    outcome                TEXT NOT NULL,
//	    status_code            TEXT NOT NULL,
//	    message                TEXT NOT NULL,
//	    cross_reference        TEXT NOT NULL DEFAULT '',
//	    parent_cross_reference TEXT NOT NULL DEFAULT '',
//	    amount_minor           BIGINT NOT NULL,
//	    currency_code          TEXT NOT NULL,
//	    created_at             TIMESTAMPTZ NOT NULL DEFAULT now()
//	);
//	CREATE INDEX idx_transaction_records_order ON transaction_records (order_id, created_at);
//	CREATE INDEX idx_transaction_records_xref ON transaction_records (cross_reference);
type TransactionRepository struct {
	pool *pgxpool.Pool
}

var _ ports.TransactionRepository = (*TransactionRepository)(nil)

// NewTransactionRepository creates a new transaction repository
func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{pool: pool}
}

const recordColumns = `id, order_id, operation, initial, outcome, status_code, message,
	cross_reference, parent_cross_reference, amount_minor, currency_code, created_at`

// Insert appends a new transaction record
func (r *TransactionRepository) Insert(ctx context.Context, record *domain.TransactionRecord) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO transaction_records (
			id, order_id, operation, initial, outcome, status_code, message,
			cross_reference, parent_cross_reference, amount_minor, currency_code, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		record.ID,
		record.OrderID,
		string(record.Operation),
		record.Initial,
		string(record.Outcome),
		record.StatusCode,
		record.Message,
		record.CrossReference,
		record.ParentCrossReference,
		record.AmountMinor,
		record.CurrencyCode,
		record.CreatedAt,
	)
	if err != nil {
		return domain.WrapError(domain.ErrorCodeDatabaseError, "insert transaction record", err)
	}
	return nil
}

// ListByOrder returns all records for an order, oldest first
func (r *TransactionRepository) ListByOrder(ctx context.Context, orderID string) ([]*domain.TransactionRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+recordColumns+`
		FROM transaction_records
		WHERE order_id = $1
		ORDER BY created_at ASC`,
		orderID,
	)
	if err != nil {
		return nil, domain.WrapError(domain.ErrorCodeDatabaseError, "list transaction records", err)
	}
	defer rows.Close()

	var records []*domain.TransactionRecord
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.WrapError(domain.ErrorCodeDatabaseError, "list transaction records", err)
	}

	return records, nil
}

// LatestCapturable returns the most recent open authorization for an order
func (r *TransactionRepository) LatestCapturable(ctx context.Context, orderID string) (*domain.TransactionRecord, error) {
	return r.queryOne(ctx, `
		SELECT `+recordColumns+`
		FROM transaction_records
		WHERE order_id = $1
		  AND outcome = $2
		  AND operation IN ($3, $4)
		ORDER BY created_at DESC
		LIMIT 1`,
		orderID,
		string(domain.OutcomeSuccess),
		string(domain.OperationPreAuth),
		string(domain.OperationThreeDSAuth),
	)
}

// LatestRefundable returns the most recent captured transaction for an order
func (r *TransactionRepository) LatestRefundable(ctx context.Context, orderID string) (*domain.TransactionRecord, error) {
	return r.queryOne(ctx, `
		SELECT `+recordColumns+`
		FROM transaction_records
		WHERE order_id = $1
		  AND outcome = $2
		  AND operation IN ($3, $4)
		ORDER BY created_at DESC
		LIMIT 1`,
		orderID,
		string(domain.OutcomeSuccess),
		string(domain.OperationSale),
		string(domain.OperationCollection),
	)
}

// FindByCrossReference returns the record holding the given gateway cross
// reference
func (r *TransactionRepository) FindByCrossReference(ctx context.Context, crossReference string) (*domain.TransactionRecord, error) {
	return r.queryOne(ctx, `
		SELECT `+recordColumns+`
		FROM transaction_records
		WHERE cross_reference = $1
		ORDER BY created_at DESC
		LIMIT 1`,
		crossReference,
	)
}

func (r *TransactionRepository) queryOne(ctx context.Context, sql string, args ...any) (*domain.TransactionRecord, error) {
	row := r.pool.QueryRow(ctx, sql, args...)
	record, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTxnNotFound
		}
		return nil, err
	}
	return record, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*domain.TransactionRecord, error) {
	var record domain.TransactionRecord
	var operation, outcome string

	err := row.Scan(
		&record.ID,
		&record.OrderID,
		&operation,
		&record.Initial,
		&outcome,
		&record.StatusCode,
		&record.Message,
		&record.CrossReference,
		&record.ParentCrossReference,
		&record.AmountMinor,
		&record.CurrencyCode,
		&record.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, domain.WrapError(domain.ErrorCodeDatabaseError, "scan transaction record", err)
	}

	record.Operation = domain.OperationKind(operation)
	record.Outcome = domain.Outcome(outcome)
	return &record, nil
}
