package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/acme/orderflow/services/order-stream/internal/model"
)

func TestPaymentClient_Create(t *testing.T) {
	var gotMethod, gotPath, gotRequestID string
	var gotBody model.Payment
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotRequestID = r.Header.Get("X-Request-Id")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		gotBody.ID = "p-1"
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(gotBody)
	}))
	defer srv.Close()

	c := NewPaymentClient(srv.URL, time.Second)
	created, err := c.Create(context.Background(), "E-1", model.Payment{
		CustomerCode: "C-1",
		RefNo:        "O-1",
		Amount:       100,
	})
	if err != nil {
		t.Fatalf("create payment: %v", err)
	}

	if gotMethod != http.MethodPost || gotPath != "/payments" {
		t.Fatalf("expected POST /payments, got %s %s", gotMethod, gotPath)
	}
	if gotRequestID != "E-1" {
		t.Fatalf("expected x-request-id E-1, got %q", gotRequestID)
	}
	if gotBody.RefNo != "O-1" || gotBody.Amount != 100 {
		t.Fatalf("unexpected request body: %+v", gotBody)
	}
	if created.ID != "p-1" {
		t.Fatalf("expected created id p-1, got %q", created.ID)
	}
}

func TestPaymentClient_Cancel(t *testing.T) {
	var gotMethod, gotPath, gotRequestID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotRequestID = r.Header.Get("X-Request-Id")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewPaymentClient(srv.URL, time.Second)
	if err := c.Cancel(context.Background(), "E-1", "p-1"); err != nil {
		t.Fatalf("cancel payment: %v", err)
	}
	if gotMethod != http.MethodDelete || gotPath != "/payments/p-1" {
		t.Fatalf("expected DELETE /payments/p-1, got %s %s", gotMethod, gotPath)
	}
	if gotRequestID != "E-1" {
		t.Fatalf("expected x-request-id E-1, got %q", gotRequestID)
	}
}

func TestStockClient_Create(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/stocks" {
			t.Errorf("expected POST /stocks, got %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("X-Request-Id"); got != "E-2" {
			t.Errorf("expected x-request-id E-2, got %q", got)
		}
		var s model.Stock
		_ = json.NewDecoder(r.Body).Decode(&s)
		s.ID = "s-1"
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(s)
	}))
	defer srv.Close()

	c := NewStockClient(srv.URL, time.Second)
	created, err := c.Create(context.Background(), "E-2", model.Stock{
		OrderNo:      "O-1",
		CustomerCode: "C-1",
		Items:        []model.StockItem{{SKU: "S1", Qty: 2}},
	})
	if err != nil {
		t.Fatalf("create stock: %v", err)
	}
	if created.ID != "s-1" {
		t.Fatalf("expected created id s-1, got %q", created.ID)
	}
}

func TestParticipantClient_NonSuccessStatusIsAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewStockClient(srv.URL, time.Second)
	if _, err := c.Create(context.Background(), "E-3", model.Stock{OrderNo: "O-1"}); err == nil {
		t.Fatal("expected error on 502")
	}
	if err := c.Cancel(context.Background(), "E-3", "s-1"); err == nil {
		t.Fatal("expected error on 502")
	}
}
