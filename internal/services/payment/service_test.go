package payment

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmcgann/paymentsense-service/internal/domain"
	"github.com/tmcgann/paymentsense-service/internal/services/threedsecure"
	"go.uber.org/zap"
)

type mockGateway struct {
	mu sync.Mutex

	cardFn     func(req *domain.CardDetailsRequest) (*domain.GatewayResponse, error)
	threeDSFn  func(req *domain.ThreeDSecureRequest) (*domain.GatewayResponse, error)
	crossRefFn func(req *domain.CrossReferenceRequest) (*domain.GatewayResponse, error)
	entryFn    func() (*domain.GatewayResponse, error)

	cardCalls     []*domain.CardDetailsRequest
	threeDSCalls  []*domain.ThreeDSecureRequest
	crossRefCalls []*domain.CrossReferenceRequest
}

func (m *mockGateway) CardDetails(ctx context.Context, req *domain.CardDetailsRequest) (*domain.GatewayResponse, error) {
	m.mu.Lock()
	m.cardCalls = append(m.cardCalls, req)
	m.mu.Unlock()
	return m.cardFn(req)
}

func (m *mockGateway) ThreeDSecure(ctx context.Context, req *domain.ThreeDSecureRequest) (*domain.GatewayResponse, error) {
	m.mu.Lock()
	m.threeDSCalls = append(m.threeDSCalls, req)
	m.mu.Unlock()
	return m.threeDSFn(req)
}

func (m *mockGateway) CrossReference(ctx context.Context, req *domain.CrossReferenceRequest) (*domain.GatewayResponse, error) {
	m.mu.Lock()
	m.crossRefCalls = append(m.crossRefCalls, req)
	m.mu.Unlock()
	return m.crossRefFn(req)
}

func (m *mockGateway) EntryPoints(ctx context.Context) (*domain.GatewayResponse, error) {
	return m.entryFn()
}

type memoryRecords struct {
	mu   sync.Mutex
	rows []*domain.TransactionRecord
}

func (m *memoryRecords) Insert(ctx context.Context, record *domain.TransactionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = append(m.rows, record)
	return nil
}

func (m *memoryRecords) ListByOrder(ctx context.Context, orderID string) ([]*domain.TransactionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.TransactionRecord
	for _, r := range m.rows {
		if r.OrderID == orderID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memoryRecords) LatestCapturable(ctx context.Context, orderID string) (*domain.TransactionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.rows) - 1; i >= 0; i-- {
		if m.rows[i].OrderID == orderID && m.rows[i].CanBeCaptured() {
			return m.rows[i], nil
		}
	}
	return nil, domain.ErrTxnNotFound
}

func (m *memoryRecords) LatestRefundable(ctx context.Context, orderID string) (*domain.TransactionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.rows) - 1; i >= 0; i-- {
		if m.rows[i].OrderID == orderID && m.rows[i].CanBeRefunded() {
			return m.rows[i], nil
		}
	}
	return nil, domain.ErrTxnNotFound
}

func (m *memoryRecords) FindByCrossReference(ctx context.Context, crossReference string) (*domain.TransactionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if r.CrossReference == crossReference {
			return r, nil
		}
	}
	return nil, domain.ErrTxnNotFound
}

type memoryOrders struct {
	mu     sync.Mutex
	states map[string]domain.OrderState
}

func newMemoryOrders() *memoryOrders {
	return &memoryOrders{states: make(map[string]domain.OrderState)}
}

func (m *memoryOrders) GetState(ctx context.Context, orderID string) (domain.OrderState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	state, ok := m.states[orderID]
	if !ok {
		return "", domain.ErrOrderNotFound
	}
	return state, nil
}

func (m *memoryOrders) SetState(ctx context.Context, orderID string, state domain.OrderState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[orderID] = state
	return nil
}

type serviceFixture struct {
	service *Service
	gateway *mockGateway
	records *memoryRecords
	orders  *memoryOrders
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	gateway := &mockGateway{}
	records := &memoryRecords{}
	orders := newMemoryOrders()
	flow := threedsecure.NewFlow(gateway, zap.NewNop())
	service := NewService(gateway, records, orders, flow, nil, zap.NewNop())
	return &serviceFixture{
		service: service,
		gateway: gateway,
		records: records,
		orders:  orders,
	}
}

func successResponse(crossReference string) *domain.GatewayResponse {
	return &domain.GatewayResponse{
		StatusCode:     domain.NewField("0"),
		Message:        domain.NewField("AuthCode: 123456"),
		CrossReference: domain.NewField(crossReference),
	}
}

func cardRequest(orderID string) *CardPaymentRequest {
	return &CardPaymentRequest{
		OrderID:     orderID,
		Description: "Order " + orderID,
		Amount:      decimal.NewFromFloat(10.00),
		Currency:    "GBP",
		Card: domain.CardDetails{
			CardName:    "J Smith",
			CardNumber:  "4929000000006",
			ExpiryMonth: "12",
			ExpiryYear:  "28",
			CV2:         "123",
		},
		Billing: BillingInput{
			Address1: "1 High Street",
			City:     "London",
			PostCode: "N1 1AA",
			Country:  "GB",
		},
		EmailAddress: "jsmith@example.com",
		CustomerIP:   "203.0.113.9",
	}
}

func TestAuthorizeSuccess(t *testing.T) {
	f := newServiceFixture(t)
	f.gateway.cardFn = func(req *domain.CardDetailsRequest) (*domain.GatewayResponse, error) {
		return successResponse("XR-1001"), nil
	}

	result, err := f.service.Authorize(context.Background(), cardRequest("100000321"))

	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeSuccess, result.Outcome)
	assert.Equal(t, "XR-1001", result.CrossReference)
	assert.Equal(t, domain.OrderStateAuthorized, result.Transition.OrderState)
	assert.Nil(t, result.Challenge)

	require.Len(t, f.gateway.cardCalls, 1)
	sent := f.gateway.cardCalls[0]
	assert.Equal(t, domain.OperationPreAuth, sent.Operation)
	assert.Equal(t, int64(1000), sent.AmountMinor)
	assert.Equal(t, "826", sent.CurrencyCode)
	assert.Equal(t, "826", sent.Billing.CountryCode)

	require.Len(t, f.records.rows, 1)
	record := f.records.rows[0]
	assert.Equal(t, domain.OperationPreAuth, record.Operation)
	assert.True(t, record.Initial)
	assert.Equal(t, "0", record.StatusCode)
	assert.Equal(t, "XR-1001", record.CrossReference)
	assert.Equal(t, int64(1000), record.AmountMinor)

	state, err := f.orders.GetState(context.Background(), "100000321")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStateAuthorized, state)
}

func TestSaleSuccessRegistersCapture(t *testing.T) {
	f := newServiceFixture(t)
	f.gateway.cardFn = func(req *domain.CardDetailsRequest) (*domain.GatewayResponse, error) {
		return successResponse("XR-2001"), nil
	}

	result, err := f.service.Sale(context.Background(), cardRequest("100000322"))

	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeSuccess, result.Outcome)
	assert.Equal(t, domain.OrderStateProcessing, result.Transition.OrderState)
	assert.True(t, result.Transition.RegisterCapture)
	assert.False(t, result.Transition.CloseParent)
	assert.Equal(t, domain.OperationSale, f.gateway.cardCalls[0].Operation)
}

func TestAuthorizeDeclinedCancelsOrder(t *testing.T) {
	f := newServiceFixture(t)
	f.gateway.cardFn = func(req *domain.CardDetailsRequest) (*domain.GatewayResponse, error) {
		return &domain.GatewayResponse{
			StatusCode: domain.NewField("5"),
			Message:    domain.NewField("Card declined"),
		}, nil
	}

	result, err := f.service.Authorize(context.Background(), cardRequest("100000323"))

	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeDeclined, result.Outcome)
	assert.Equal(t, "Card declined", result.Message)
	assert.Equal(t, domain.OrderStateCancelled, result.Transition.OrderState)
	assert.True(t, result.Transition.CancelOrder)
	assert.True(t, result.Transition.CancelInvoices)
}

func TestAuthorizeIncompleteOpensChallenge(t *testing.T) {
	f := newServiceFixture(t)
	f.gateway.cardFn = func(req *domain.CardDetailsRequest) (*domain.GatewayResponse, error) {
		return &domain.GatewayResponse{
			StatusCode:     domain.NewField("3"),
			Message:        domain.NewField("Issuer authentication required"),
			CrossReference: domain.NewField("XR-3001"),
			ACSURL:         domain.NewField("https://acs.example.com/auth"),
			PaReq:          domain.NewField("eJxVUtt..."),
		}, nil
	}

	result, err := f.service.Authorize(context.Background(), cardRequest("100000324"))

	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeIncomplete, result.Outcome)
	require.NotNil(t, result.Challenge)
	assert.Equal(t, "XR-3001", result.Challenge.CrossReference)
	assert.Equal(t, "https://acs.example.com/auth", result.Challenge.ACSURL)
	assert.Equal(t, domain.OrderStatePending, result.Transition.OrderState)
}

func TestAuthorizeIncompleteWithoutChallengeDataFails(t *testing.T) {
	f := newServiceFixture(t)
	f.gateway.cardFn = func(req *domain.CardDetailsRequest) (*domain.GatewayResponse, error) {
		// Incomplete but no ACS URL: the challenge can never be finished
		return &domain.GatewayResponse{
			StatusCode:     domain.NewField("3"),
			Message:        domain.NewField("Issuer authentication required"),
			CrossReference: domain.NewField("XR-3002"),
			PaReq:          domain.NewField("eJxVUtt..."),
		}, nil
	}

	result, err := f.service.Authorize(context.Background(), cardRequest("100000325"))

	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeFailed, result.Outcome)
	assert.Nil(t, result.Challenge)
	assert.Equal(t, domain.OrderStateCancelled, result.Transition.OrderState)
}

func TestAuthorizeRejectsUnknownCurrency(t *testing.T) {
	f := newServiceFixture(t)
	req := cardRequest("100000326")
	req.Currency = "JPY"

	_, err := f.service.Authorize(context.Background(), req)

	require.Error(t, err)
	assert.Equal(t, domain.ErrorCodeValidationUnknownCode, domain.GetErrorCode(err))
	assert.Empty(t, f.gateway.cardCalls)
	assert.Empty(t, f.records.rows)
}

func TestAuthorizeRejectsFractionalMinorUnits(t *testing.T) {
	f := newServiceFixture(t)
	req := cardRequest("100000327")
	req.Amount = decimal.RequireFromString("10.999")

	_, err := f.service.Authorize(context.Background(), req)

	require.Error(t, err)
	assert.True(t, domain.IsValidationError(err))
	assert.Empty(t, f.gateway.cardCalls)
}

func TestCaptureChainsLatestAuthorization(t *testing.T) {
	f := newServiceFixture(t)
	f.gateway.cardFn = func(req *domain.CardDetailsRequest) (*domain.GatewayResponse, error) {
		return successResponse("XR-AUTH"), nil
	}
	f.gateway.crossRefFn = func(req *domain.CrossReferenceRequest) (*domain.GatewayResponse, error) {
		return successResponse("XR-CAPTURE"), nil
	}

	_, err := f.service.Authorize(context.Background(), cardRequest("100000330"))
	require.NoError(t, err)

	result, err := f.service.Capture(context.Background(), "100000330", decimal.NewFromFloat(10.00), "GBP")
	require.NoError(t, err)

	assert.Equal(t, domain.OutcomeSuccess, result.Outcome)
	assert.Equal(t, domain.OrderStateProcessing, result.Transition.OrderState)
	assert.True(t, result.Transition.RegisterCapture)
	assert.True(t, result.Transition.CloseParent)

	require.Len(t, f.gateway.crossRefCalls, 1)
	sent := f.gateway.crossRefCalls[0]
	assert.Equal(t, domain.OperationCollection, sent.Operation)
	assert.Equal(t, "XR-AUTH", sent.CrossReference)
	assert.True(t, sent.HasAmount)
	assert.Equal(t, int64(1000), sent.AmountMinor)

	require.Len(t, f.records.rows, 2)
	capture := f.records.rows[1]
	assert.Equal(t, "XR-AUTH", capture.ParentCrossReference)
	assert.Equal(t, "XR-CAPTURE", capture.CrossReference)
	assert.False(t, capture.Initial)
}

func TestCaptureWithoutAuthorizationFails(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.service.Capture(context.Background(), "100000331", decimal.NewFromFloat(10.00), "GBP")

	require.Error(t, err)
	assert.Equal(t, domain.ErrorCodeTxnNotFound, domain.GetErrorCode(err))
}

func TestCaptureWithEmptyCrossReferenceFails(t *testing.T) {
	f := newServiceFixture(t)
	f.records.rows = append(f.records.rows, &domain.TransactionRecord{
		OrderID:   "100000332",
		Operation: domain.OperationPreAuth,
		Outcome:   domain.OutcomeSuccess,
	})

	_, err := f.service.Capture(context.Background(), "100000332", decimal.NewFromFloat(10.00), "GBP")

	require.Error(t, err)
	assert.Equal(t, domain.ErrorCodeTxnNoReference, domain.GetErrorCode(err))
	assert.Empty(t, f.gateway.crossRefCalls)
}

func TestRefundChainsLatestCapture(t *testing.T) {
	f := newServiceFixture(t)
	f.gateway.cardFn = func(req *domain.CardDetailsRequest) (*domain.GatewayResponse, error) {
		return successResponse("XR-SALE"), nil
	}
	f.gateway.crossRefFn = func(req *domain.CrossReferenceRequest) (*domain.GatewayResponse, error) {
		return successResponse("XR-REFUND"), nil
	}

	_, err := f.service.Sale(context.Background(), cardRequest("100000333"))
	require.NoError(t, err)

	result, err := f.service.Refund(context.Background(), "100000333", decimal.NewFromFloat(4.50), "GBP")
	require.NoError(t, err)

	assert.Equal(t, domain.OutcomeSuccess, result.Outcome)
	assert.True(t, result.Transition.CloseReferenced)

	sent := f.gateway.crossRefCalls[0]
	assert.Equal(t, domain.OperationRefund, sent.Operation)
	assert.Equal(t, "XR-SALE", sent.CrossReference)
	assert.Equal(t, int64(450), sent.AmountMinor)
}

func TestVoidSendsNoAmount(t *testing.T) {
	f := newServiceFixture(t)
	f.gateway.cardFn = func(req *domain.CardDetailsRequest) (*domain.GatewayResponse, error) {
		return successResponse("XR-AUTH2"), nil
	}
	f.gateway.crossRefFn = func(req *domain.CrossReferenceRequest) (*domain.GatewayResponse, error) {
		return successResponse("XR-VOID"), nil
	}

	_, err := f.service.Authorize(context.Background(), cardRequest("100000334"))
	require.NoError(t, err)

	result, err := f.service.Void(context.Background(), "100000334")
	require.NoError(t, err)

	assert.Equal(t, domain.OrderStateCancelled, result.Transition.OrderState)
	assert.True(t, result.Transition.CancelOrder)
	assert.True(t, result.Transition.CloseReferenced)

	sent := f.gateway.crossRefCalls[0]
	assert.Equal(t, domain.OperationVoid, sent.Operation)
	assert.False(t, sent.HasAmount)
	assert.Zero(t, sent.AmountMinor)
}

func TestThreeDSecureEndToEnd(t *testing.T) {
	f := newServiceFixture(t)
	f.gateway.cardFn = func(req *domain.CardDetailsRequest) (*domain.GatewayResponse, error) {
		return &domain.GatewayResponse{
			StatusCode:     domain.NewField("3"),
			Message:        domain.NewField("Issuer authentication required"),
			CrossReference: domain.NewField("XR-3DS"),
			ACSURL:         domain.NewField("https://acs.example.com/auth"),
			PaReq:          domain.NewField("eJxVUtt..."),
		}, nil
	}
	f.gateway.threeDSFn = func(req *domain.ThreeDSecureRequest) (*domain.GatewayResponse, error) {
		return successResponse("XR-3DS-DONE"), nil
	}

	first, err := f.service.Authorize(context.Background(), cardRequest("100000340"))
	require.NoError(t, err)
	require.NotNil(t, first.Challenge)

	final, err := f.service.FinalizeThreeDSecure(context.Background(), "100000340", "eJxPaRes...", "XR-3DS")
	require.NoError(t, err)

	assert.Equal(t, domain.OutcomeSuccess, final.Outcome)
	assert.Equal(t, domain.OrderStateAuthorized, final.Transition.OrderState)

	require.Len(t, f.gateway.threeDSCalls, 1)
	assert.Equal(t, "XR-3DS", f.gateway.threeDSCalls[0].CrossReference)
	assert.Equal(t, "eJxPaRes...", f.gateway.threeDSCalls[0].PaRes)

	require.Len(t, f.records.rows, 2)
	authRecord := f.records.rows[1]
	assert.Equal(t, domain.OperationPreAuth, authRecord.Operation)
	assert.False(t, authRecord.Initial)
	assert.Equal(t, int64(1000), authRecord.AmountMinor)
	assert.Equal(t, "826", authRecord.CurrencyCode)
	assert.Equal(t, "XR-3DS", authRecord.ParentCrossReference)
	assert.Equal(t, "XR-3DS-DONE", authRecord.CrossReference)

	state, err := f.orders.GetState(context.Background(), "100000340")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStateAuthorized, state)
}

func TestThreeDSecureSaleFinalisationRegistersCapture(t *testing.T) {
	f := newServiceFixture(t)
	f.gateway.cardFn = func(req *domain.CardDetailsRequest) (*domain.GatewayResponse, error) {
		return &domain.GatewayResponse{
			StatusCode:     domain.NewField("3"),
			Message:        domain.NewField("Issuer authentication required"),
			CrossReference: domain.NewField("XR-3DS-SALE"),
			ACSURL:         domain.NewField("https://acs.example.com/auth"),
			PaReq:          domain.NewField("eJxVUtt..."),
		}, nil
	}
	f.gateway.threeDSFn = func(req *domain.ThreeDSecureRequest) (*domain.GatewayResponse, error) {
		return successResponse("XR-3DS-SALE-DONE"), nil
	}

	first, err := f.service.Sale(context.Background(), cardRequest("100000343"))
	require.NoError(t, err)
	require.NotNil(t, first.Challenge)

	final, err := f.service.FinalizeThreeDSecure(context.Background(), "100000343", "eJxPaRes...", "XR-3DS-SALE")
	require.NoError(t, err)

	// A finalised SALE is a capture, not an open authorization
	assert.Equal(t, domain.OutcomeSuccess, final.Outcome)
	assert.Equal(t, domain.OrderStateProcessing, final.Transition.OrderState)
	assert.True(t, final.Transition.RegisterCapture)

	require.Len(t, f.records.rows, 2)
	record := f.records.rows[1]
	assert.Equal(t, domain.OperationSale, record.Operation)
	assert.False(t, record.Initial)
	assert.Equal(t, int64(1000), record.AmountMinor)
	assert.Equal(t, "826", record.CurrencyCode)
	assert.Equal(t, "XR-3DS-SALE", record.ParentCrossReference)

	state, err := f.orders.GetState(context.Background(), "100000343")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStateProcessing, state)

	// The captured SALE is now the refundable record for the order
	refundable, err := f.records.LatestRefundable(context.Background(), "100000343")
	require.NoError(t, err)
	assert.Equal(t, "XR-3DS-SALE-DONE", refundable.CrossReference)
}

func TestFinalizeThreeDSecureRejectsWrongReference(t *testing.T) {
	f := newServiceFixture(t)
	f.gateway.cardFn = func(req *domain.CardDetailsRequest) (*domain.GatewayResponse, error) {
		return &domain.GatewayResponse{
			StatusCode:     domain.NewField("3"),
			CrossReference: domain.NewField("XR-3DS-B"),
			ACSURL:         domain.NewField("https://acs.example.com/auth"),
			PaReq:          domain.NewField("eJxVUtt..."),
		}, nil
	}

	_, err := f.service.Authorize(context.Background(), cardRequest("100000341"))
	require.NoError(t, err)

	_, err = f.service.FinalizeThreeDSecure(context.Background(), "100000341", "eJxPaRes...", "XR-OTHER")

	require.Error(t, err)
	assert.Equal(t, domain.ErrorCodeOrderMismatch, domain.GetErrorCode(err))
	assert.Empty(t, f.gateway.threeDSCalls)
}

func TestAbandonThreeDSecureCancelsWithoutGatewayCall(t *testing.T) {
	f := newServiceFixture(t)
	f.gateway.cardFn = func(req *domain.CardDetailsRequest) (*domain.GatewayResponse, error) {
		return &domain.GatewayResponse{
			StatusCode:     domain.NewField("3"),
			CrossReference: domain.NewField("XR-3DS-C"),
			ACSURL:         domain.NewField("https://acs.example.com/auth"),
			PaReq:          domain.NewField("eJxVUtt..."),
		}, nil
	}

	_, err := f.service.Authorize(context.Background(), cardRequest("100000342"))
	require.NoError(t, err)

	result, err := f.service.AbandonThreeDSecure(context.Background(), "100000342")
	require.NoError(t, err)

	assert.Equal(t, domain.OutcomeFailed, result.Outcome)
	assert.Equal(t, domain.OrderStateCancelled, result.Transition.OrderState)
	assert.Empty(t, f.gateway.threeDSCalls)

	record := f.records.rows[1]
	assert.Equal(t, domain.OperationThreeDSAuth, record.Operation)
	assert.Equal(t, "XR-3DS-C", record.ParentCrossReference)
}

func TestApplyHostedResultSuccess(t *testing.T) {
	f := newServiceFixture(t)

	result, err := f.service.ApplyHostedResult(context.Background(), &HostedResult{
		OrderID:        "100000350",
		Operation:      domain.OperationSale,
		StatusCode:     "0",
		Message:        "AuthCode: 654321",
		CrossReference: "XR-HPP",
		AmountMinor:    2599,
		CurrencyCode:   "826",
	})

	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeSuccess, result.Outcome)
	assert.Equal(t, domain.OrderStateProcessing, result.Transition.OrderState)

	record := f.records.rows[0]
	assert.Equal(t, "XR-HPP", record.CrossReference)
	assert.Equal(t, int64(2599), record.AmountMinor)
}

func TestApplyHostedResultDuplicateResolvesFromPrevious(t *testing.T) {
	f := newServiceFixture(t)

	result, err := f.service.ApplyHostedResult(context.Background(), &HostedResult{
		OrderID:            "100000351",
		Operation:          domain.OperationSale,
		StatusCode:         "20",
		Message:            "Duplicate transaction",
		PreviousStatusCode: "0",
		PreviousMessage:    "AuthCode: 654321",
		CrossReference:     "XR-DUP",
	})

	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeSuccess, result.Outcome)
	assert.Equal(t, "AuthCode: 654321", result.Message)
	assert.Equal(t, domain.OrderStateProcessing, result.Transition.OrderState)
}

func TestProbeClassifiesEntryPointsReply(t *testing.T) {
	f := newServiceFixture(t)
	f.gateway.entryFn = func() (*domain.GatewayResponse, error) {
		return &domain.GatewayResponse{
			StatusCode: domain.NewField("0"),
			Message:    domain.NewField("OK"),
		}, nil
	}

	outcome, message, err := f.service.Probe(context.Background())

	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeSuccess, outcome)
	assert.Equal(t, "OK", message)
}

func TestConcurrentCapturesSerialise(t *testing.T) {
	f := newServiceFixture(t)
	f.gateway.cardFn = func(req *domain.CardDetailsRequest) (*domain.GatewayResponse, error) {
		return successResponse("XR-LOCK"), nil
	}

	var inFlight, maxInFlight int
	var mu sync.Mutex
	f.gateway.crossRefFn = func(req *domain.CrossReferenceRequest) (*domain.GatewayResponse, error) {
		mu.Lock()
		inFlight++
		if inFlight > maxInFlight {
			maxInFlight = inFlight
		}
		mu.Unlock()

		time.Sleep(5 * time.Millisecond)

		mu.Lock()
		inFlight--
		mu.Unlock()
		return successResponse("XR-CAP"), nil
	}

	_, err := f.service.Authorize(context.Background(), cardRequest("100000360"))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = f.service.Capture(context.Background(), "100000360", decimal.NewFromFloat(10.00), "GBP")
		}()
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, maxInFlight, "captures for one order must not overlap")
}
