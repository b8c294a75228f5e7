package ports

import (
	"context"

	"github.com/tmcgann/paymentsense-service/internal/domain"
)

// Gateway is the outbound port to the payment gateway. Implementations
// return a parsed response for any reply the gateway produced, including
// declines; an error means no usable reply was obtained at all.
type Gateway interface {
	// CardDetails performs a direct card transaction (PREAUTH or SALE)
	CardDetails(ctx context.Context, req *domain.CardDetailsRequest) (*domain.GatewayResponse, error)

	// ThreeDSecure submits an authentication result to finalise a pending
	// 3-D Secure challenge
	ThreeDSecure(ctx context.Context, req *domain.ThreeDSecureRequest) (*domain.GatewayResponse, error)

	// CrossReference performs a follow-up transaction (COLLECTION, REFUND,
	// VOID) against a prior transaction
	CrossReference(ctx context.Context, req *domain.CrossReferenceRequest) (*domain.GatewayResponse, error)

	// EntryPoints performs a credential-only connectivity check
	EntryPoints(ctx context.Context) (*domain.GatewayResponse, error)
}
