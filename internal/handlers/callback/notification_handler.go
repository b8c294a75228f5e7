package callback

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/tmcgann/paymentsense-service/internal/adapters/hpp"
	"github.com/tmcgann/paymentsense-service/internal/domain"
	"github.com/tmcgann/paymentsense-service/internal/services/payment"
	"github.com/tmcgann/paymentsense-service/pkg/observability"
	"go.uber.org/zap"
)

// Reply messages the gateway understands
const (
	respOK             = "OK"
	respHashInvalid    = "HashDigest does not match"
	respMIDMissing     = "MerchantID is missing"
	respMIDNotExists   = "Merchant doesn't exist"
	notificationMetric = "notification"
)

// NotificationHandler receives the gateway's server-to-server result for a
// hosted payment form transaction. Nothing in the payload is trusted until
// the hash digest verifies.
type NotificationHandler struct {
	service       *payment.Service
	authenticator *hpp.Authenticator
	merchantID    string
	logger        *zap.Logger
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(
	service *payment.Service,
	authenticator *hpp.Authenticator,
	merchantID string,
	logger *zap.Logger,
) *NotificationHandler {
	return &NotificationHandler{
		service:       service,
		authenticator: authenticator,
		merchantID:    merchantID,
		logger:        logger,
	}
}

// HandleNotification processes a gateway result notification
// POST /callback/notification (form-encoded, GET query also accepted)
func (h *NotificationHandler) HandleNotification(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := r.ParseForm(); err != nil {
		h.reply(w, http.StatusBadRequest, respHashInvalid)
		return
	}

	merchantID := r.Form.Get("MerchantID")
	if merchantID == "" {
		h.logger.Warn("Notification without MerchantID")
		h.reply(w, http.StatusBadRequest, respMIDMissing)
		return
	}
	if merchantID != h.merchantID {
		h.logger.Warn("Notification for unknown merchant",
			zap.String("merchant_id", merchantID),
		)
		h.reply(w, http.StatusUnauthorized, respMIDNotExists)
		return
	}

	fields := formFields(r, hpp.PurposeNotification)
	if err := h.authenticator.Verify(hpp.PurposeNotification, fields, r.Form.Get("HashDigest")); err != nil {
		observability.RecordDigestFailure(notificationMetric)
		h.logger.Warn("Notification digest verification failed",
			zap.String("order_id", r.Form.Get("OrderID")),
			zap.Error(err),
		)
		h.reply(w, http.StatusUnauthorized, respHashInvalid)
		return
	}

	amountMinor, _ := strconv.ParseInt(r.Form.Get("Amount"), 10, 64)

	result, err := h.service.ApplyHostedResult(ctx, &payment.HostedResult{
		OrderID:            r.Form.Get("OrderID"),
		Operation:          domain.OperationKind(r.Form.Get("TransactionType")),
		StatusCode:         r.Form.Get("StatusCode"),
		Message:            r.Form.Get("Message"),
		PreviousStatusCode: r.Form.Get("PreviousStatusCode"),
		PreviousMessage:    r.Form.Get("PreviousMessage"),
		CrossReference:     r.Form.Get("CrossReference"),
		AmountMinor:        amountMinor,
		CurrencyCode:       r.Form.Get("CurrencyCode"),
	})
	if err != nil {
		h.logger.Error("Failed to apply hosted payment result",
			zap.String("order_id", r.Form.Get("OrderID")),
			zap.Error(err),
		)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	h.logger.Info("Hosted payment notification applied",
		zap.String("order_id", result.Record.OrderID),
		zap.String("outcome", string(result.Outcome)),
	)

	h.reply(w, http.StatusOK, respOK)
}

// reply writes the key=value body the gateway expects back
func (h *NotificationHandler) reply(w http.ResponseWriter, status int, message string) {
	code := "0"
	if message != respOK {
		code = "30"
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	fmt.Fprintf(w, "StatusCode=%s&Message=%s", code, message)
}

// formFields collects the digest profile's fields from the request. Optional
// fields absent from the request stay absent from the map so the digest is
// computed over exactly what was sent.
func formFields(r *http.Request, purpose hpp.Purpose) map[string]string {
	fields := make(map[string]string)
	for _, name := range hpp.ProfileFields(purpose) {
		if values, ok := r.Form[name]; ok && len(values) > 0 {
			fields[name] = values[0]
		}
	}
	return fields
}
