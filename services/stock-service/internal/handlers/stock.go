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

type Stock struct {
	ID           string      `json:"id"`
	OrderNo      string      `json:"orderNo"`
	OrderDate    time.Time   `json:"orderDate"`
	CustomerCode string      `json:"customerCode"`
	Items        []StockItem `json:"items"`
}

type StockItem struct {
	SKU     string `json:"sku"`
	Barcode string `json:"barcode"`
	Qty     int    `json:"qty"`
}

// StockHandler is the stock participant of the fulfillment saga. Allocations
// are deduplicated by the caller's x-request-id so a retried saga step never
// reserves the same order twice.
type StockHandler struct {
	store   idempotency.Store
	logger  *slog.Logger
	latency func() time.Duration
}

func NewStockHandler(store idempotency.Store, logger *slog.Logger, latency func() time.Duration) *StockHandler {
	return &StockHandler{store: store, logger: logger, latency: latency}
}

func (h *StockHandler) Allocate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var s Stock
	if err := json.NewDecoder(r.Body).Decode(&s); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	s.OrderNo = strings.TrimSpace(s.OrderNo)
	if s.OrderNo == "" || len(s.Items) == 0 {
		http.Error(w, "orderNo and items are required", http.StatusBadRequest)
		return
	}
	for _, it := range s.Items {
		if strings.TrimSpace(it.SKU) == "" || it.Qty <= 0 {
			http.Error(w, "each item needs a sku and a positive qty", http.StatusBadRequest)
			return
		}
	}

	ctx := r.Context()
	h.delay(ctx)

	s.ID = uuid.NewString()

	body, err := json.Marshal(s)
	if err != nil {
		http.Error(w, "failed to encode stock", http.StatusInternalServerError)
		return
	}

	requestID := httpx.RequestIDFromContext(ctx)
	stored, seen, err := h.store.Remember(ctx, "stock:allocate:"+requestID, body)
	if err != nil {
		h.logger.Error("idempotency store error", "err", err, "request_id", requestID)
		http.Error(w, "idempotency store unavailable", http.StatusServiceUnavailable)
		return
	}
	if seen {
		h.logger.Info("replaying allocation for repeated request", "request_id", requestID)
		body = stored
	} else {
		h.logger.Info("stock allocated",
			"stock_id", s.ID, "order_no", s.OrderNo, "items", len(s.Items), "request_id", requestID)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_, _ = w.Write(body)
}

func (h *StockHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/stocks/")
	if id == "" || strings.Contains(id, "/") {
		http.Error(w, "invalid stock id", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	h.delay(ctx)

	// Releasing a reservation that was never made is a no-op, so cancel
	// always acks.
	h.logger.Info("stock released", "stock_id", id, "request_id", httpx.RequestIDFromContext(ctx))

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"id": id, "status": "cancelled"})
}

func (h *StockHandler) delay(ctx context.Context) {
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
