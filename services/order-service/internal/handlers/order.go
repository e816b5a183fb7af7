package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/acme/orderflow/libs/httpx"
	"github.com/acme/orderflow/services/order-service/internal/model"
	"github.com/acme/orderflow/services/order-service/internal/outbox"
	"github.com/acme/orderflow/services/order-service/internal/storage"
)

const (
	aggregateTypeOrder    = "order"
	eventTypeOrderCreated = "order_created"
)

type OrderHandler struct {
	repo       *storage.OrderRepository
	outboxRepo *outbox.Repository
	logger     *slog.Logger
}

func NewOrderHandler(repo *storage.OrderRepository, outboxRepo *outbox.Repository, logger *slog.Logger) *OrderHandler {
	return &OrderHandler{
		repo:       repo,
		outboxRepo: outboxRepo,
		logger:     logger,
	}
}

type createOrderRequest struct {
	OrderNo      string            `json:"orderNo"`
	CustomerCode string            `json:"customerCode"`
	Items        []model.OrderItem `json:"items"`
	Amount       float64           `json:"amount"`
}

// validateCreateOrder checks the inbound payload and builds the order to
// persist. The amount falls back to the sum of line items when absent.
func validateCreateOrder(req createOrderRequest) (*model.Order, error) {
	req.OrderNo = strings.TrimSpace(req.OrderNo)
	req.CustomerCode = strings.TrimSpace(req.CustomerCode)
	if req.OrderNo == "" || req.CustomerCode == "" {
		return nil, errors.New("orderNo and customerCode are required")
	}
	if len(req.Items) == 0 {
		return nil, errors.New("at least one item is required")
	}
	for _, it := range req.Items {
		if strings.TrimSpace(it.SKU) == "" {
			return nil, errors.New("item sku is required")
		}
		if it.Qty <= 0 {
			return nil, errors.New("item qty must be positive")
		}
	}
	order := &model.Order{
		OrderNo:      req.OrderNo,
		CustomerCode: req.CustomerCode,
		Items:        req.Items,
		Amount:       req.Amount,
	}
	if order.Amount == 0 {
		order.Amount = order.TotalAmount()
	}
	return order, nil
}

// Create persists the order and its outbox event in one transaction. The
// request id (client-supplied or generated by middleware) becomes the event
// id and the saga correlation id downstream.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}

	order, err := validateCreateOrder(req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	eventID := httpx.RequestIDFromContext(ctx)

	tx, err := h.repo.Begin(ctx)
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := h.repo.Create(ctx, tx, order); err != nil {
		h.logger.Error("order insert failed", "err", err)
		http.Error(w, "failed to create order", http.StatusInternalServerError)
		return
	}

	// Payload is the snapshot of the persisted order. A serialization
	// failure aborts the whole write: no order without its event.
	payload, err := json.Marshal(order)
	if err != nil {
		h.logger.Error("order snapshot serialization failed", "err", err)
		http.Error(w, "failed to build event payload", http.StatusInternalServerError)
		return
	}
	if err := h.outboxRepo.Insert(ctx, tx, outbox.Event{
		EventID:       eventID,
		EventType:     eventTypeOrderCreated,
		AggregateType: aggregateTypeOrder,
		Payload:       string(payload),
	}); err != nil {
		h.logger.Error("outbox insert failed", "err", err)
		http.Error(w, "failed to record event", http.StatusInternalServerError)
		return
	}

	if err := tx.Commit(ctx); err != nil {
		h.logger.Error("order commit failed", "err", err)
		http.Error(w, "failed to create order", http.StatusInternalServerError)
		return
	}

	h.logger.Info("order created", "order_id", order.ID, "order_no", order.OrderNo, "event_id", eventID)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(order)
}

// Get serves GET /orders/{id}.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/orders/")
	if id == "" || strings.Contains(id, "/") {
		http.Error(w, "invalid order id", http.StatusBadRequest)
		return
	}

	order, err := h.repo.Get(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		http.Error(w, "order not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.Error("order lookup failed", "err", err, "order_id", id)
		http.Error(w, "failed to load order", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(order)
}
