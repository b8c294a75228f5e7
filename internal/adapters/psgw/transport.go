package psgw

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	adapterports "github.com/tmcgann/paymentsense-service/internal/adapters/ports"
	"github.com/tmcgann/paymentsense-service/internal/domain"
	"github.com/tmcgann/paymentsense-service/internal/domain/ports"
	"github.com/tmcgann/paymentsense-service/pkg/observability"
	"github.com/tmcgann/paymentsense-service/pkg/resilience"
	"go.uber.org/zap"
)

// commFailedMessage is reported when no gateway host produced a usable
// response before the attempt budget ran out
const commFailedMessage = "The communication with the Payment Gateway failed. Check outbound connection."

// clockSkewWarnThreshold is the gateway/local clock difference above which
// a diagnostic warning is logged
const clockSkewWarnThreshold = 5 * time.Minute

// TransportConfig contains configuration for the gateway transport
type TransportConfig struct {
	// Endpoints are tried in fixed order; overridable for tests
	Endpoints []string

	// MaxAttempts is the per-endpoint attempt budget
	MaxAttempts int

	// Timeout applies to each individual HTTP attempt
	Timeout time.Duration
}

// DefaultTransportConfig returns the production transport configuration
func DefaultTransportConfig() TransportConfig {
	return TransportConfig{
		Endpoints:   DefaultEndpoints,
		MaxAttempts: 3,
		Timeout:     10 * time.Second,
	}
}

// Transport implements the Gateway port over HTTPS POST with retry and
// endpoint failover
type Transport struct {
	config         TransportConfig
	codec          *Codec
	client         adapterports.HTTPClient
	logger         *zap.Logger
	circuitBreaker *CircuitBreaker
	backoff        resilience.BackoffStrategy
}

var _ ports.Gateway = (*Transport)(nil)

// NewTransport creates a gateway transport. The HTTP client is injected so
// tests can count and script attempts.
func NewTransport(config TransportConfig, creds domain.MerchantCredentials, client adapterports.HTTPClient, logger *zap.Logger) *Transport {
	if len(config.Endpoints) == 0 {
		config.Endpoints = DefaultEndpoints
	}
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 3
	}
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}

	return &Transport{
		config:         config,
		codec:          NewCodec(creds),
		client:         client,
		logger:         logger,
		circuitBreaker: NewCircuitBreaker(DefaultCircuitBreakerConfig()),
		backoff:        resilience.DefaultExponentialBackoff(),
	}
}

// WithBackoff replaces the inter-attempt backoff strategy (used by tests)
func (t *Transport) WithBackoff(strategy resilience.BackoffStrategy) *Transport {
	t.backoff = strategy
	return t
}

// CardDetails performs a direct card transaction (PREAUTH or SALE)
func (t *Transport) CardDetails(ctx context.Context, req *domain.CardDetailsRequest) (*domain.GatewayResponse, error) {
	envelope := t.codec.CardDetailsEnvelope(req)
	return t.send(ctx, string(req.Operation), actionCardDetails, envelope, t.config.MaxAttempts)
}

// ThreeDSecure submits an authentication result to finalise a challenge
func (t *Transport) ThreeDSecure(ctx context.Context, req *domain.ThreeDSecureRequest) (*domain.GatewayResponse, error) {
	envelope := t.codec.ThreeDSecureEnvelope(req)
	return t.send(ctx, string(domain.OperationThreeDSAuth), actionThreeDSecure, envelope, t.config.MaxAttempts)
}

// CrossReference performs a COLLECTION, REFUND or VOID against a prior
// transaction
func (t *Transport) CrossReference(ctx context.Context, req *domain.CrossReferenceRequest) (*domain.GatewayResponse, error) {
	envelope := t.codec.CrossReferenceEnvelope(req)
	return t.send(ctx, string(req.Operation), actionCrossRef, envelope, t.config.MaxAttempts)
}

// EntryPoints performs a credential-only connectivity probe. The probe uses
// a single attempt per endpoint so a connectivity check cannot hold the
// caller for the full retry budget.
func (t *Transport) EntryPoints(ctx context.Context) (*domain.GatewayResponse, error) {
	envelope := t.codec.EntryPointsEnvelope()
	return t.send(ctx, string(domain.OperationProbe), actionEntryPoints, envelope, 1)
}

// send runs the full retry/failover loop under the circuit breaker. It
// always returns a response: when every attempt is consumed without a valid
// reply the response is a synthetic Failed carrying the last observed
// gateway message.
func (t *Transport) send(ctx context.Context, operation, action string, envelope []byte, maxAttempts int) (*domain.GatewayResponse, error) {
	var response *domain.GatewayResponse

	err := t.circuitBreaker.Call(func() error {
		resp, valid := t.attemptLoop(ctx, operation, action, envelope, maxAttempts)
		response = resp
		if !valid {
			return domain.ErrGatewayCommFailed
		}
		return nil
	})

	if err != nil {
		if err == ErrCircuitOpen || err == ErrTooManyRequests {
			t.logger.Warn("Circuit breaker rejected gateway request",
				zap.String("operation", operation),
				zap.String("circuit_state", t.circuitBreaker.State().String()),
			)
			response = syntheticFailure(commFailedMessage)
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}

	result := Classify(response)
	observability.RecordGatewayOutcome(operation, string(result.Outcome))

	return response, nil
}

// attemptLoop walks the attempt budget across the endpoint list in fixed
// order. The attempt counter resets on failover so every endpoint gets the
// full budget.
func (t *Transport) attemptLoop(ctx context.Context, operation, action string, envelope []byte, maxAttempts int) (*domain.GatewayResponse, bool) {
	attempt := 0
	endpointIdx := 0
	totalAttempts := 0

	// Replaced by the gateway message as soon as any well-formed reply is
	// seen, even a retryable one
	lastMessage := commFailedMessage

	for {
		attempt++
		if attempt > maxAttempts {
			attempt = 1
			endpointIdx++
		}
		if endpointIdx >= len(t.config.Endpoints) {
			break
		}

		if totalAttempts > 0 {
			delay := t.backoff.NextDelay(totalAttempts - 1)
			if delay > 0 {
				select {
				case <-ctx.Done():
					return syntheticFailure(lastMessage), false
				case <-time.After(delay):
				}
			}
		}
		totalAttempts++

		endpoint := t.config.Endpoints[endpointIdx]
		resp, ok := t.attemptOnce(ctx, operation, action, endpoint, envelope, attempt)
		if !ok {
			if ctx.Err() != nil {
				return syntheticFailure(lastMessage), false
			}
			continue
		}

		if !resp.StatusCode.Found {
			// 200 with no usable numeric status consumes the attempt
			continue
		}

		lastMessage = resp.Message.OrEmpty()

		if IsRetryable(resp.StatusCode.Value, resp.Message.OrEmpty()) {
			t.logger.Info("Gateway asked for retry on cross-reference replication race",
				zap.String("operation", operation),
				zap.String("endpoint", endpoint),
				zap.Int("attempt", attempt),
			)
			continue
		}

		return resp, true
	}

	t.logger.Error("Gateway attempt budget exhausted",
		zap.String("operation", operation),
		zap.Int("total_attempts", totalAttempts),
		zap.String("last_message", lastMessage),
	)

	return syntheticFailure(lastMessage), false
}

// attemptOnce performs a single HTTP POST against one endpoint
func (t *Transport) attemptOnce(ctx context.Context, operation, action, endpoint string, envelope []byte, attempt int) (*domain.GatewayResponse, bool) {
	attemptCtx, cancel := context.WithTimeout(ctx, t.config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, endpoint, bytes.NewReader(envelope))
	if err != nil {
		t.logger.Error("Failed to create gateway request", zap.Error(err))
		return nil, false
	}

	req.Header.Set("SOAPAction", action)
	req.Header.Set("Content-Type", "text/xml; charset=utf-8")
	req.Header.Set("Accept", "text/xml, application/xml, */*")
	req.Header.Set("Connection", "close")

	startTime := time.Now()
	httpResp, err := t.client.Do(req)
	elapsed := time.Since(startTime)

	if err != nil {
		observability.RecordGatewayAttempt(operation, endpoint, "transport_error", elapsed.Seconds())
		t.logger.Warn("Gateway attempt failed",
			zap.String("operation", operation),
			zap.String("endpoint", endpoint),
			zap.Int("attempt", attempt),
			zap.Duration("elapsed", elapsed),
			zap.Error(err),
		)
		return nil, false
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		observability.RecordGatewayAttempt(operation, endpoint, "read_error", elapsed.Seconds())
		t.logger.Warn("Failed to read gateway response body",
			zap.String("endpoint", endpoint),
			zap.Error(err),
		)
		return nil, false
	}

	if httpResp.StatusCode != http.StatusOK {
		observability.RecordGatewayAttempt(operation, endpoint, "http_error", elapsed.Seconds())
		t.logger.Warn("Gateway returned non-200 status",
			zap.String("operation", operation),
			zap.String("endpoint", endpoint),
			zap.Int("http_status", httpResp.StatusCode),
			zap.Int("attempt", attempt),
		)
		return nil, false
	}

	observability.RecordGatewayAttempt(operation, endpoint, "ok", elapsed.Seconds())

	resp := t.codec.Parse(body, httpResp.Header)

	if skew := ServerClockSkew(resp, time.Now()); skew > clockSkewWarnThreshold {
		t.logger.Warn("Large clock skew against gateway host",
			zap.String("endpoint", endpoint),
			zap.Duration("skew", skew),
		)
	}

	t.logger.Debug("Received gateway response",
		zap.String("operation", operation),
		zap.String("endpoint", endpoint),
		zap.Int("attempt", attempt),
		zap.String("status_code", resp.StatusCode.OrEmpty()),
		zap.Duration("elapsed", elapsed),
	)

	return resp, true
}

// syntheticFailure builds the Failed response reported when no valid reply
// was obtained
func syntheticFailure(message string) *domain.GatewayResponse {
	return &domain.GatewayResponse{
		StatusCode: domain.NewField(StatusFailed),
		Message:    domain.NewField(message),
	}
}
