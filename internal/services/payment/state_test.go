package payment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tmcgann/paymentsense-service/internal/domain"
)

func TestResolveTransition(t *testing.T) {
	tests := []struct {
		name    string
		outcome domain.Outcome
		op      domain.OperationKind
		want    Transition
	}{
		{
			name:    "preauth success opens authorization",
			outcome: domain.OutcomeSuccess,
			op:      domain.OperationPreAuth,
			want:    Transition{OrderState: domain.OrderStateAuthorized},
		},
		{
			name:    "3ds auth success opens authorization",
			outcome: domain.OutcomeSuccess,
			op:      domain.OperationThreeDSAuth,
			want:    Transition{OrderState: domain.OrderStateAuthorized},
		},
		{
			name:    "sale success captures",
			outcome: domain.OutcomeSuccess,
			op:      domain.OperationSale,
			want: Transition{
				OrderState:      domain.OrderStateProcessing,
				RegisterCapture: true,
			},
		},
		{
			name:    "collection success captures and closes parent",
			outcome: domain.OutcomeSuccess,
			op:      domain.OperationCollection,
			want: Transition{
				OrderState:      domain.OrderStateProcessing,
				RegisterCapture: true,
				CloseParent:     true,
			},
		},
		{
			name:    "refund success closes referenced capture",
			outcome: domain.OutcomeSuccess,
			op:      domain.OperationRefund,
			want: Transition{
				OrderState:      domain.OrderStateProcessing,
				CloseReferenced: true,
			},
		},
		{
			name:    "void success cancels",
			outcome: domain.OutcomeSuccess,
			op:      domain.OperationVoid,
			want: Transition{
				OrderState:      domain.OrderStateCancelled,
				CancelOrder:     true,
				CloseReferenced: true,
			},
		},
		{
			name:    "incomplete waits",
			outcome: domain.OutcomeIncomplete,
			op:      domain.OperationPreAuth,
			want:    Transition{OrderState: domain.OrderStatePending},
		},
		{
			name:    "referred waits",
			outcome: domain.OutcomeReferred,
			op:      domain.OperationSale,
			want:    Transition{OrderState: domain.OrderStatePending},
		},
		{
			name:    "declined cancels",
			outcome: domain.OutcomeDeclined,
			op:      domain.OperationSale,
			want: Transition{
				OrderState:     domain.OrderStateCancelled,
				CancelOrder:    true,
				CancelInvoices: true,
			},
		},
		{
			name:    "failed cancels",
			outcome: domain.OutcomeFailed,
			op:      domain.OperationCollection,
			want: Transition{
				OrderState:     domain.OrderStateCancelled,
				CancelOrder:    true,
				CancelInvoices: true,
			},
		},
		{
			name:    "invalid response cancels",
			outcome: domain.OutcomeInvalid,
			op:      domain.OperationSale,
			want: Transition{
				OrderState:     domain.OrderStateCancelled,
				CancelOrder:    true,
				CancelInvoices: true,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveTransition(tt.outcome, tt.op))
		})
	}
}

func TestMoneyMovesOnlyOnSuccess(t *testing.T) {
	outcomes := []domain.Outcome{
		domain.OutcomeIncomplete,
		domain.OutcomeReferred,
		domain.OutcomeDeclined,
		domain.OutcomeFailed,
		domain.OutcomeInvalid,
	}
	ops := []domain.OperationKind{
		domain.OperationPreAuth,
		domain.OperationSale,
		domain.OperationCollection,
		domain.OperationRefund,
		domain.OperationVoid,
		domain.OperationThreeDSAuth,
	}

	for _, outcome := range outcomes {
		for _, op := range ops {
			tr := ResolveTransition(outcome, op)
			assert.False(t, tr.RegisterCapture, "%s/%s must not capture", outcome, op)
			assert.False(t, tr.CloseParent, "%s/%s must not close parent", outcome, op)
			assert.False(t, tr.CloseReferenced, "%s/%s must not close referenced", outcome, op)
		}
	}
}
