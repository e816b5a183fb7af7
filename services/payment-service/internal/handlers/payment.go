package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/acme/orderflow/libs/httpx"
	"github.com/acme/orderflow/libs/idempotency"
	"github.com/google/uuid"
)

type Payment struct {
	ID           string     `json:"id"`
	PaymentNo    string     `json:"paymentNo"`
	PaymentDate  *time.Time `json:"paymentDate"`
	CustomerCode string     `json:"customerCode"`
	RefNo        string     `json:"refNo"`
	Amount       float64    `json:"amount"`
}

// PaymentHandler is the payment participant of the fulfillment saga. Creates
// are deduplicated by the caller's x-request-id: a retried saga step gets
// the original response back instead of a second charge.
type PaymentHandler struct {
	store   idempotency.Store
	logger  *slog.Logger
	latency func() time.Duration
}

func NewPaymentHandler(store idempotency.Store, logger *slog.Logger, latency func() time.Duration) *PaymentHandler {
	return &PaymentHandler{store: store, logger: logger, latency: latency}
}

func (h *PaymentHandler) Create(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var p Payment
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	p.CustomerCode = strings.TrimSpace(p.CustomerCode)
	p.RefNo = strings.TrimSpace(p.RefNo)
	if p.CustomerCode == "" || p.RefNo == "" {
		http.Error(w, "customerCode and refNo are required", http.StatusBadRequest)
		return
	}
	if p.Amount <= 0 {
		http.Error(w, "amount must be positive", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	h.delay(ctx)

	now := time.Now().UTC()
	p.ID = uuid.NewString()
	p.PaymentNo = "PAY-" + strings.ToUpper(p.ID[:8])
	p.PaymentDate = &now

	body, err := json.Marshal(p)
	if err != nil {
		http.Error(w, "failed to encode payment", http.StatusInternalServerError)
		return
	}

	requestID := httpx.RequestIDFromContext(ctx)
	stored, seen, err := h.store.Remember(ctx, "payment:create:"+requestID, body)
	if err != nil {
		h.logger.Error("idempotency store error", "err", err, "request_id", requestID)
		http.Error(w, "idempotency store unavailable", http.StatusServiceUnavailable)
		return
	}
	if seen {
		h.logger.Info("replaying payment for repeated request", "request_id", requestID)
		body = stored
	} else {
		h.logger.Info("payment created",
			"payment_id", p.ID, "ref_no", p.RefNo, "amount", p.Amount, "request_id", requestID)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_, _ = w.Write(body)
}

func (h *PaymentHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/payments/")
	if id == "" || strings.Contains(id, "/") {
		http.Error(w, "invalid payment id", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	h.delay(ctx)

	// Cancel acks unconditionally: compensating a payment that was never
	// taken is a no-op, not an error.
	h.logger.Info("payment cancelled", "payment_id", id, "request_id", httpx.RequestIDFromContext(ctx))

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"id": id, "status": "cancelled"})
}

func (h *PaymentHandler) delay(ctx context.Context) {
	if h.latency == nil {
		return
	}
	d := h.latency()
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
