package callback

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/tmcgann/paymentsense-service/internal/domain"
	"github.com/tmcgann/paymentsense-service/internal/services/payment"
	"go.uber.org/zap"
)

// ACSHandler receives the customer's return from the card issuer's access
// control server and finalises the pending 3-D Secure challenge
type ACSHandler struct {
	service *payment.Service
	logger  *zap.Logger
}

// NewACSHandler creates a new ACS return handler
func NewACSHandler(service *payment.Service, logger *zap.Logger) *ACSHandler {
	return &ACSHandler{service: service, logger: logger}
}

// acsResponse is the finalised authentication outcome
type acsResponse struct {
	OrderID        string `json:"order_id"`
	Outcome        string `json:"outcome"`
	Message        string `json:"message"`
	CrossReference string `json:"cross_reference,omitempty"`
}

// HandleReturn finalises a challenge with the PaRes and MD posted by the ACS
// POST /callback/acs/{orderID}
func (h *ACSHandler) HandleReturn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orderID := chi.URLParam(r, "orderID")

	if err := r.ParseForm(); err != nil {
		http.Error(w, "malformed request", http.StatusBadRequest)
		return
	}

	paRes := r.PostForm.Get("PaRes")
	md := r.PostForm.Get("MD")

	result, err := h.service.FinalizeThreeDSecure(ctx, orderID, paRes, md)
	if err != nil {
		h.writeError(w, orderID, err)
		return
	}

	h.logger.Info("3-D Secure return processed",
		zap.String("order_id", orderID),
		zap.String("outcome", string(result.Outcome)),
	)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(acsResponse{
		OrderID:        orderID,
		Outcome:        string(result.Outcome),
		Message:        result.Message,
		CrossReference: result.CrossReference,
	})
}

// HandleAbandon cancels a pending challenge the customer walked away from
// POST /callback/acs/{orderID}/abandon
func (h *ACSHandler) HandleAbandon(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orderID := chi.URLParam(r, "orderID")

	result, err := h.service.AbandonThreeDSecure(ctx, orderID)
	if err != nil {
		h.writeError(w, orderID, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(acsResponse{
		OrderID: orderID,
		Outcome: string(result.Outcome),
		Message: result.Message,
	})
}

func (h *ACSHandler) writeError(w http.ResponseWriter, orderID string, err error) {
	status := http.StatusInternalServerError
	switch domain.GetErrorCode(err) {
	case domain.ErrorCodeChallengeNotPending:
		status = http.StatusConflict
	case domain.ErrorCodeOrderMismatch:
		status = http.StatusUnauthorized
	case domain.ErrorCodeValidationMissingField:
		status = http.StatusBadRequest
	}

	h.logger.Warn("3-D Secure return rejected",
		zap.String("order_id", orderID),
		zap.Error(err),
	)
	http.Error(w, err.Error(), status)
}
