package payment

import (
	"github.com/tmcgann/paymentsense-service/internal/domain"
)

// Transition describes the local side effects a classified gateway outcome
// requires. The caller applies it atomically with appending the audit
// record.
type Transition struct {
	// OrderState is the resulting payment lifecycle state of the order
	OrderState domain.OrderState

	// CancelOrder cancels the order itself
	CancelOrder bool

	// CancelInvoices cancels any open invoices raised for the order
	CancelInvoices bool

	// RegisterCapture records that funds were captured
	RegisterCapture bool

	// CloseParent closes the referenced parent authorization
	CloseParent bool

	// CloseReferenced closes the transaction the operation referenced
	// (the capture being refunded, the authorization being voided)
	CloseReferenced bool
}

// ResolveTransition maps an outcome and operation kind to the order
// transition it requires. Money-moving side effects are only ever produced
// for a success outcome.
func ResolveTransition(outcome domain.Outcome, op domain.OperationKind) Transition {
	switch outcome {
	case domain.OutcomeSuccess:
		return successTransition(op)

	case domain.OutcomeIncomplete, domain.OutcomeReferred:
		// Not a final answer; the order waits
		return Transition{OrderState: domain.OrderStatePending}

	default:
		// Declined, Failed and Invalid all release the order
		return Transition{
			OrderState:     domain.OrderStateCancelled,
			CancelOrder:    true,
			CancelInvoices: true,
		}
	}
}

func successTransition(op domain.OperationKind) Transition {
	switch op {
	case domain.OperationPreAuth, domain.OperationThreeDSAuth:
		// Open authorization awaiting capture
		return Transition{OrderState: domain.OrderStateAuthorized}

	case domain.OperationSale:
		return Transition{
			OrderState:      domain.OrderStateProcessing,
			RegisterCapture: true,
		}

	case domain.OperationCollection:
		return Transition{
			OrderState:      domain.OrderStateProcessing,
			RegisterCapture: true,
			CloseParent:     true,
		}

	case domain.OperationRefund:
		return Transition{
			OrderState:      domain.OrderStateProcessing,
			CloseReferenced: true,
		}

	case domain.OperationVoid:
		return Transition{
			OrderState:      domain.OrderStateCancelled,
			CancelOrder:     true,
			CloseReferenced: true,
		}

	default:
		return Transition{OrderState: domain.OrderStatePending}
	}
}
