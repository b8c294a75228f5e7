package payment

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tmcgann/paymentsense-service/internal/adapters/hpp"
	"github.com/tmcgann/paymentsense-service/internal/adapters/psgw"
	"github.com/tmcgann/paymentsense-service/internal/domain"
	"github.com/tmcgann/paymentsense-service/internal/domain/ports"
	"github.com/tmcgann/paymentsense-service/internal/services/threedsecure"
	"go.uber.org/zap"
)

// Service coordinates gateway operations, the order state machine and the
// append-only audit trail. Operations on the same order and kind are
// serialised in-process; remote duplicate deliveries are absorbed by the
// gateway's duplicate status.
type Service struct {
	gateway     ports.Gateway
	records     ports.TransactionRepository
	orders      ports.OrderRepository
	flow        *threedsecure.Flow
	formBuilder *hpp.FormBuilder
	locks       *lockRegistry
	logger      *zap.Logger
	now         func() time.Time
}

// NewService creates the payment service
func NewService(
	gateway ports.Gateway,
	records ports.TransactionRepository,
	orders ports.OrderRepository,
	flow *threedsecure.Flow,
	formBuilder *hpp.FormBuilder,
	logger *zap.Logger,
) *Service {
	return &Service{
		gateway:     gateway,
		records:     records,
		orders:      orders,
		flow:        flow,
		formBuilder: formBuilder,
		locks:       newLockRegistry(),
		logger:      logger,
		now:         time.Now,
	}
}

// BillingInput is a billing address with alphabetic ISO country code
type BillingInput struct {
	Address1 string
	Address2 string
	Address3 string
	Address4 string
	City     string
	State    string
	PostCode string
	Country  string // ISO 3166-1 alpha-2
}

// CardPaymentRequest describes a direct card payment. Amount is in major
// currency units.
type CardPaymentRequest struct {
	OrderID      string
	Description  string
	Amount       decimal.Decimal
	Currency     string // ISO 4217 alphabetic
	Card         domain.CardDetails
	Billing      BillingInput
	EmailAddress string
	PhoneNumber  string
	CustomerIP   string
}

// Result is the service-level outcome of a payment operation. A decline is
// a Result, not an error; errors mean the operation could not be carried
// out at all.
type Result struct {
	Outcome        domain.Outcome
	Message        string
	CrossReference string
	Transition     Transition
	Record         *domain.TransactionRecord
	Challenge      *threedsecure.Challenge
}

// Authorize performs a PREAUTH: funds are reserved and captured later
func (s *Service) Authorize(ctx context.Context, req *CardPaymentRequest) (*Result, error) {
	return s.cardTransaction(ctx, domain.OperationPreAuth, req)
}

// Sale performs a combined authorization and capture
func (s *Service) Sale(ctx context.Context, req *CardPaymentRequest) (*Result, error) {
	return s.cardTransaction(ctx, domain.OperationSale, req)
}

func (s *Service) cardTransaction(ctx context.Context, op domain.OperationKind, req *CardPaymentRequest) (*Result, error) {
	release := s.locks.acquire(req.OrderID, op)
	defer release()

	amountMinor, err := domain.MinorUnits(req.Amount)
	if err != nil {
		return nil, err
	}
	currency, err := domain.CurrencyNumericCode(req.Currency)
	if err != nil {
		return nil, err
	}
	country := ""
	if req.Billing.Country != "" {
		country, err = domain.CountryNumericCode(req.Billing.Country)
		if err != nil {
			return nil, err
		}
	}

	gwReq := &domain.CardDetailsRequest{
		Operation:        op,
		AmountMinor:      amountMinor,
		CurrencyCode:     currency,
		OrderID:          req.OrderID,
		OrderDescription: req.Description,
		Card:             req.Card,
		Billing: domain.BillingAddress{
			Address1:    req.Billing.Address1,
			Address2:    req.Billing.Address2,
			Address3:    req.Billing.Address3,
			Address4:    req.Billing.Address4,
			City:        req.Billing.City,
			State:       req.Billing.State,
			PostCode:    req.Billing.PostCode,
			CountryCode: country,
		},
		EmailAddress: req.EmailAddress,
		PhoneNumber:  req.PhoneNumber,
		CustomerIP:   req.CustomerIP,
	}

	resp, err := s.gateway.CardDetails(ctx, gwReq)
	if err != nil {
		return nil, err
	}

	classified := psgw.Classify(resp)
	outcome := classified.Outcome
	message := classified.Message

	var challenge *threedsecure.Challenge
	if outcome == domain.OutcomeIncomplete {
		challenge, err = s.flow.Evaluate(req.OrderID, op, amountMinor, currency, resp)
		if err != nil {
			// A challenge that cannot be completed later must fail now
			outcome = domain.OutcomeFailed
			challenge = nil
		}
	}

	return s.finish(ctx, op, req.OrderID, amountMinor, currency, resp, outcome, message, "", challenge)
}

// Capture performs a COLLECTION against the order's open authorization
func (s *Service) Capture(ctx context.Context, orderID string, amount decimal.Decimal, currency string) (*Result, error) {
	release := s.locks.acquire(orderID, domain.OperationCollection)
	defer release()

	parent, err := s.records.LatestCapturable(ctx, orderID)
	if err != nil {
		return nil, err
	}

	return s.crossReference(ctx, domain.OperationCollection, orderID, parent, amount, currency, true)
}

// Refund performs a REFUND against the order's captured funds
func (s *Service) Refund(ctx context.Context, orderID string, amount decimal.Decimal, currency string) (*Result, error) {
	release := s.locks.acquire(orderID, domain.OperationRefund)
	defer release()

	parent, err := s.records.LatestRefundable(ctx, orderID)
	if err != nil {
		return nil, err
	}

	return s.crossReference(ctx, domain.OperationRefund, orderID, parent, amount, currency, true)
}

// Void cancels the order's open authorization before settlement. A VOID
// carries no amount.
func (s *Service) Void(ctx context.Context, orderID string) (*Result, error) {
	release := s.locks.acquire(orderID, domain.OperationVoid)
	defer release()

	parent, err := s.records.LatestCapturable(ctx, orderID)
	if err != nil {
		return nil, err
	}

	return s.crossReference(ctx, domain.OperationVoid, orderID, parent, decimal.Zero, "", false)
}

func (s *Service) crossReference(ctx context.Context, op domain.OperationKind, orderID string, parent *domain.TransactionRecord, amount decimal.Decimal, currency string, hasAmount bool) (*Result, error) {
	if parent.CrossReference == "" {
		return nil, domain.ErrTxnNoReference.WithDetail("order_id", orderID)
	}

	var amountMinor int64
	numericCurrency := ""
	if hasAmount {
		var err error
		amountMinor, err = domain.MinorUnits(amount)
		if err != nil {
			return nil, err
		}
		numericCurrency, err = domain.CurrencyNumericCode(currency)
		if err != nil {
			return nil, err
		}
	}

	resp, err := s.gateway.CrossReference(ctx, &domain.CrossReferenceRequest{
		Operation:        op,
		CrossReference:   parent.CrossReference,
		AmountMinor:      amountMinor,
		CurrencyCode:     numericCurrency,
		HasAmount:        hasAmount,
		OrderID:          orderID,
		OrderDescription: orderID + ": " + string(op),
	})
	if err != nil {
		return nil, err
	}

	classified := psgw.Classify(resp)
	return s.finish(ctx, op, orderID, amountMinor, numericCurrency, resp, classified.Outcome, classified.Message, parent.CrossReference, nil)
}

// FinalizeThreeDSecure completes a pending challenge with the PaRes and MD
// returned by the ACS. The finalisation resolves as the operation the
// customer started, so a successful SALE registers its capture and the
// record carries the real amount.
func (s *Service) FinalizeThreeDSecure(ctx context.Context, orderID, paRes, md string) (*Result, error) {
	release := s.locks.acquire(orderID, domain.OperationThreeDSAuth)
	defer release()

	resp, challenge, err := s.flow.Complete(ctx, orderID, paRes, md)
	if err != nil {
		return nil, err
	}

	classified := psgw.Classify(resp)
	return s.finish(ctx, challenge.Operation, orderID, challenge.AmountMinor, challenge.CurrencyCode, resp, classified.Outcome, classified.Message, challenge.CrossReference, nil)
}

// AbandonThreeDSecure closes a pending challenge the customer walked away
// from. The order is cancelled locally; no gateway call is made.
func (s *Service) AbandonThreeDSecure(ctx context.Context, orderID string) (*Result, error) {
	release := s.locks.acquire(orderID, domain.OperationThreeDSAuth)
	defer release()

	challenge, err := s.flow.Abandon(orderID)
	if err != nil {
		return nil, err
	}

	resp := &domain.GatewayResponse{
		Message: domain.NewField("3-D Secure challenge abandoned by customer"),
	}

	return s.finish(ctx, domain.OperationThreeDSAuth, orderID, 0, "", resp,
		domain.OutcomeFailed, resp.Message.Value, challenge.CrossReference, nil)
}

// HostedResult is a digest-verified result delivered by the hosted payment
// form, either server-to-server or via the customer's browser
type HostedResult struct {
	OrderID            string
	Operation          domain.OperationKind
	StatusCode         string
	Message            string
	PreviousStatusCode string
	PreviousMessage    string
	CrossReference     string
	AmountMinor        int64
	CurrencyCode       string
}

// ApplyHostedResult classifies and applies a hosted form result. The
// caller must have verified the hash digest first; this method trusts its
// input.
func (s *Service) ApplyHostedResult(ctx context.Context, result *HostedResult) (*Result, error) {
	op := result.Operation
	if op == "" {
		op = domain.OperationSale
	}

	release := s.locks.acquire(result.OrderID, op)
	defer release()

	resp := &domain.GatewayResponse{}
	if result.StatusCode != "" {
		resp.StatusCode = domain.NewField(result.StatusCode)
	}
	if result.Message != "" {
		resp.Message = domain.NewField(result.Message)
	}
	if result.PreviousStatusCode != "" {
		resp.PreviousStatusCode = domain.NewField(result.PreviousStatusCode)
	}
	if result.PreviousMessage != "" {
		resp.PreviousMessage = domain.NewField(result.PreviousMessage)
	}
	if result.CrossReference != "" {
		resp.CrossReference = domain.NewField(result.CrossReference)
	}

	classified := psgw.Classify(resp)
	return s.finish(ctx, op, result.OrderID, result.AmountMinor, result.CurrencyCode, resp, classified.Outcome, classified.Message, "", nil)
}

// Probe checks gateway connectivity with a credential-only request
func (s *Service) Probe(ctx context.Context) (domain.Outcome, string, error) {
	resp, err := s.gateway.EntryPoints(ctx)
	if err != nil {
		return "", "", err
	}
	classified := psgw.Classify(resp)
	return classified.Outcome, classified.Message, nil
}

// HostedRedirect builds the signed hosted payment form submission for an
// order and marks the order pending
func (s *Service) HostedRedirect(ctx context.Context, order *hpp.OrderInfo) (*hpp.Redirect, error) {
	redirect, err := s.formBuilder.Build(order)
	if err != nil {
		return nil, err
	}

	if err := s.orders.SetState(ctx, order.OrderID, domain.OrderStatePending); err != nil {
		return nil, err
	}

	s.logger.Info("Hosted payment form redirect prepared",
		zap.String("order_id", order.OrderID),
	)

	return redirect, nil
}

// OrderState returns the current lifecycle state of an order
func (s *Service) OrderState(ctx context.Context, orderID string) (domain.OrderState, error) {
	return s.orders.GetState(ctx, orderID)
}

// Records returns the audit trail for an order, oldest first
func (s *Service) Records(ctx context.Context, orderID string) ([]*domain.TransactionRecord, error) {
	return s.records.ListByOrder(ctx, orderID)
}

// finish appends the audit record, applies the order transition and
// assembles the result
func (s *Service) finish(
	ctx context.Context,
	op domain.OperationKind,
	orderID string,
	amountMinor int64,
	currency string,
	resp *domain.GatewayResponse,
	outcome domain.Outcome,
	message string,
	parentCrossReference string,
	challenge *threedsecure.Challenge,
) (*Result, error) {
	record := &domain.TransactionRecord{
		ID:                   uuid.New(),
		OrderID:              orderID,
		Operation:            op,
		Initial:              op.IsInitial() && parentCrossReference == "",
		Outcome:              outcome,
		StatusCode:           resp.StatusCode.OrEmpty(),
		Message:              message,
		CrossReference:       resp.CrossReference.OrEmpty(),
		ParentCrossReference: parentCrossReference,
		AmountMinor:          amountMinor,
		CurrencyCode:         currency,
		CreatedAt:            s.now(),
	}

	if err := s.records.Insert(ctx, record); err != nil {
		return nil, err
	}

	transition := ResolveTransition(outcome, op)
	if challenge != nil {
		// A pending challenge keeps the order waiting regardless of the
		// raw outcome mapping
		transition = Transition{OrderState: domain.OrderStatePending}
	}

	if err := s.orders.SetState(ctx, orderID, transition.OrderState); err != nil {
		return nil, err
	}

	s.logger.Info("Payment operation completed",
		zap.String("order_id", orderID),
		zap.String("operation", string(op)),
		zap.String("outcome", string(outcome)),
		zap.String("order_state", string(transition.OrderState)),
		zap.String("cross_reference", record.CrossReference),
	)

	return &Result{
		Outcome:        outcome,
		Message:        message,
		CrossReference: record.CrossReference,
		Transition:     transition,
		Record:         record,
		Challenge:      challenge,
	}, nil
}
