package domain

import (
	"time"

	"github.com/google/uuid"
)

// OperationKind represents the gateway transaction type
type OperationKind string

const (
	OperationPreAuth     OperationKind = "PREAUTH"    // Authorization only, captured later by COLLECTION
	OperationSale        OperationKind = "SALE"       // Combined auth + capture
	OperationCollection  OperationKind = "COLLECTION" // Capture of a prior PREAUTH
	OperationRefund      OperationKind = "REFUND"     // Return funds against a prior capture
	OperationVoid        OperationKind = "VOID"       // Cancel a prior authorization before settlement
	OperationThreeDSAuth OperationKind = "3DS_AUTH"   // 3-D Secure finalisation of a pending PREAUTH/SALE
	OperationProbe       OperationKind = "PROBE"      // GetGatewayEntryPoints connectivity check
)

// IsCrossReference returns true for follow-up operations that reference a
// prior transaction by its gateway-assigned cross-reference
func (k OperationKind) IsCrossReference() bool {
	return k == OperationCollection || k == OperationRefund || k == OperationVoid
}

// IsInitial returns true for operations that open a new transaction chain
func (k OperationKind) IsInitial() bool {
	return k == OperationPreAuth || k == OperationSale
}

// Outcome is the classified result of a gateway interaction.
// Declines are values, not errors: a declined payment is a normal protocol
// result and must never be modelled as a Go error.
type Outcome string

const (
	OutcomeSuccess    Outcome = "success"
	OutcomeIncomplete Outcome = "incomplete" // pending 3-D Secure challenge for direct operations
	OutcomeReferred   Outcome = "referred"
	OutcomeDeclined   Outcome = "declined"
	OutcomeFailed     Outcome = "failed"
	OutcomeInvalid    Outcome = "invalid" // no usable numeric status in the response
)

// MovesMoney returns true if the outcome permits money-moving side effects
func (o Outcome) MovesMoney() bool {
	return o == OutcomeSuccess
}

// OrderState is the local payment lifecycle state of an order
type OrderState string

const (
	OrderStateNew        OrderState = "new"
	OrderStateAuthorized OrderState = "authorized" // open authorization awaiting capture
	OrderStatePending    OrderState = "pending_payment"
	OrderStateProcessing OrderState = "processing"
	OrderStateCancelled  OrderState = "cancelled"
)

// MerchantCredentials is the credential pair sent with every gateway request
// and prefixed to every hash digest canonical string
type MerchantCredentials struct {
	MerchantID string
	Password   string
}

// TransactionRecord is one append-only audit row linking an order to a single
// gateway interaction. Records are never mutated; corrections are new rows.
type TransactionRecord struct {
	ID                   uuid.UUID
	OrderID              string
	Operation            OperationKind
	Initial              bool
	Outcome              Outcome
	StatusCode           string
	Message              string
	CrossReference       string
	ParentCrossReference string
	AmountMinor          int64
	CurrencyCode         string
	CreatedAt            time.Time
}

// CanBeCaptured reports whether a record is an open authorization that a
// COLLECTION may reference
func (r *TransactionRecord) CanBeCaptured() bool {
	return r.Outcome == OutcomeSuccess &&
		(r.Operation == OperationPreAuth || r.Operation == OperationThreeDSAuth)
}

// CanBeRefunded reports whether a record holds captured funds that a REFUND
// may reference
func (r *TransactionRecord) CanBeRefunded() bool {
	return r.Outcome == OutcomeSuccess &&
		(r.Operation == OperationSale || r.Operation == OperationCollection)
}

// CanBeVoided reports whether a record is an authorization that a VOID may
// reference
func (r *TransactionRecord) CanBeVoided() bool {
	return r.Outcome == OutcomeSuccess &&
		(r.Operation == OperationPreAuth || r.Operation == OperationThreeDSAuth)
}
