package callback

import (
	"encoding/json"
	"net/http"

	"github.com/tmcgann/paymentsense-service/internal/adapters/hpp"
	"github.com/tmcgann/paymentsense-service/internal/domain"
	"github.com/tmcgann/paymentsense-service/internal/services/payment"
	"github.com/tmcgann/paymentsense-service/pkg/observability"
	"go.uber.org/zap"
)

// RedirectHandler receives the customer's browser return from the hosted
// payment form. The redirect carries only a cross reference and order id;
// it confirms an outcome already applied by the server-to-server
// notification and never changes state itself.
type RedirectHandler struct {
	service       *payment.Service
	authenticator *hpp.Authenticator
	logger        *zap.Logger
}

// NewRedirectHandler creates a new customer redirect handler
func NewRedirectHandler(service *payment.Service, authenticator *hpp.Authenticator, logger *zap.Logger) *RedirectHandler {
	return &RedirectHandler{
		service:       service,
		authenticator: authenticator,
		logger:        logger,
	}
}

// redirectResponse is the order status shown to the returning customer
type redirectResponse struct {
	OrderID    string `json:"order_id"`
	OrderState string `json:"order_state"`
}

// HandleRedirect confirms the customer's return from the hosted form
// GET or POST /callback/redirect
func (h *RedirectHandler) HandleRedirect(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := r.ParseForm(); err != nil {
		http.Error(w, respHashInvalid, http.StatusBadRequest)
		return
	}

	fields := formFields(r, hpp.PurposeCustomerRedirect)
	if err := h.authenticator.Verify(hpp.PurposeCustomerRedirect, fields, r.Form.Get("HashDigest")); err != nil {
		observability.RecordDigestFailure("customer-redirect")
		h.logger.Warn("Customer redirect digest verification failed",
			zap.String("order_id", r.Form.Get("OrderID")),
			zap.Error(err),
		)
		http.Error(w, respHashInvalid, http.StatusUnauthorized)
		return
	}

	orderID := r.Form.Get("OrderID")
	state, err := h.service.OrderState(ctx, orderID)
	if err != nil {
		if domain.IsDomainError(err, domain.ErrorCodeOrderNotFound) {
			http.Error(w, "order not found", http.StatusNotFound)
			return
		}
		h.logger.Error("Failed to look up order state",
			zap.String("order_id", orderID),
			zap.Error(err),
		)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(redirectResponse{
		OrderID:    orderID,
		OrderState: string(state),
	})
}
