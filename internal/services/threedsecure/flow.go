package threedsecure

import (
	"context"
	"sync"
	"time"

	"github.com/tmcgann/paymentsense-service/internal/domain"
	"github.com/tmcgann/paymentsense-service/internal/domain/ports"
	"go.uber.org/zap"
)

// State is the lifecycle state of a 3-D Secure challenge
type State string

const (
	StateNew                State = "NEW"
	StateAuthorizing        State = "AUTHORIZING"
	StateChallengePending   State = "CHALLENGE_PENDING"
	StateChallengeComplete  State = "CHALLENGE_COMPLETE"
	StateChallengeAbandoned State = "CHALLENGE_ABANDONED"
	StateClosed             State = "CLOSED"
)

// Challenge holds the redirect material for a pending customer challenge.
// The cross reference doubles as the MD round-tripped through the ACS. The
// originating operation and amount are kept so the finalisation resolves as
// the transaction the customer actually started, not as a separate
// zero-amount authentication.
type Challenge struct {
	OrderID        string
	Operation      domain.OperationKind
	AmountMinor    int64
	CurrencyCode   string
	CrossReference string
	ACSURL         string
	PaReq          string
	State          State
	CreatedAt      time.Time
}

// Flow orchestrates the two-phase 3-D Secure exchange: an initial card
// transaction that came back Incomplete, a customer round trip to the ACS,
// and a finalising authentication call.
type Flow struct {
	gateway ports.Gateway
	logger  *zap.Logger

	mu      sync.Mutex
	pending map[string]*Challenge // keyed by order ID
	now     func() time.Time
}

// NewFlow creates a challenge flow
func NewFlow(gateway ports.Gateway, logger *zap.Logger) *Flow {
	return &Flow{
		gateway: gateway,
		logger:  logger,
		pending: make(map[string]*Challenge),
		now:     time.Now,
	}
}

// Evaluate gates an Incomplete gateway response. A challenge is only
// actionable when the ACS URL, the PaReq and the cross reference are all
// present; anything less cannot be completed later and must fail the
// transaction now.
func (f *Flow) Evaluate(orderID string, op domain.OperationKind, amountMinor int64, currencyCode string, resp *domain.GatewayResponse) (*Challenge, error) {
	if !resp.ACSURL.Found || resp.ACSURL.Value == "" ||
		!resp.PaReq.Found || resp.PaReq.Value == "" ||
		!resp.CrossReference.Found || resp.CrossReference.Value == "" {
		f.logger.Warn("Incomplete gateway response missing challenge data",
			zap.String("order_id", orderID),
			zap.Bool("acs_url", resp.ACSURL.Found),
			zap.Bool("pareq", resp.PaReq.Found),
			zap.Bool("cross_reference", resp.CrossReference.Found),
		)
		return nil, domain.ErrChallengeIncomplete.WithDetail("order_id", orderID)
	}

	challenge := &Challenge{
		OrderID:        orderID,
		Operation:      op,
		AmountMinor:    amountMinor,
		CurrencyCode:   currencyCode,
		CrossReference: resp.CrossReference.Value,
		ACSURL:         resp.ACSURL.Value,
		PaReq:          resp.PaReq.Value,
		State:          StateChallengePending,
		CreatedAt:      f.now(),
	}

	f.mu.Lock()
	f.pending[orderID] = challenge
	f.mu.Unlock()

	f.logger.Info("3-D Secure challenge pending",
		zap.String("order_id", orderID),
		zap.String("cross_reference", challenge.CrossReference),
	)

	return challenge, nil
}

// Pending returns the pending challenge for an order, if any
func (f *Flow) Pending(orderID string) (*Challenge, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	challenge, ok := f.pending[orderID]
	return challenge, ok
}

// Complete submits the ACS result to the gateway and closes the pending
// challenge. The MD returned by the ACS must match the cross reference the
// challenge was opened with.
func (f *Flow) Complete(ctx context.Context, orderID, paRes, md string) (*domain.GatewayResponse, *Challenge, error) {
	f.mu.Lock()
	challenge, ok := f.pending[orderID]
	f.mu.Unlock()

	if !ok {
		return nil, nil, domain.ErrChallengeNotPending.WithDetail("order_id", orderID)
	}
	if md != challenge.CrossReference {
		return nil, nil, domain.ErrOrderMismatch.
			WithDetail("order_id", orderID).
			WithDetail("md", md)
	}
	if paRes == "" {
		return nil, nil, domain.ErrValidationMissingField.WithDetail("field", "PaRes")
	}

	resp, err := f.gateway.ThreeDSecure(ctx, &domain.ThreeDSecureRequest{
		CrossReference: challenge.CrossReference,
		PaRes:          paRes,
	})
	if err != nil {
		return nil, nil, err
	}

	f.mu.Lock()
	challenge.State = StateChallengeComplete
	delete(f.pending, orderID)
	f.mu.Unlock()

	f.logger.Info("3-D Secure challenge completed",
		zap.String("order_id", orderID),
		zap.String("cross_reference", challenge.CrossReference),
	)

	return resp, challenge, nil
}

// Abandon closes a pending challenge without a gateway call. The caller
// cancels the order locally.
func (f *Flow) Abandon(orderID string) (*Challenge, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	challenge, ok := f.pending[orderID]
	if !ok {
		return nil, domain.ErrChallengeNotPending.WithDetail("order_id", orderID)
	}

	challenge.State = StateChallengeAbandoned
	delete(f.pending, orderID)

	f.logger.Info("3-D Secure challenge abandoned",
		zap.String("order_id", orderID),
	)

	return challenge, nil
}
