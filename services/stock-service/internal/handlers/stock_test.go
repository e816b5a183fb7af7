package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/acme/orderflow/libs/httpx"
	"github.com/acme/orderflow/libs/idempotency"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	h := NewStockHandler(idempotency.NewMemoryStore(time.Hour), slog.New(slog.DiscardHandler), nil)
	mux := http.NewServeMux()
	mux.HandleFunc("/stocks", h.Allocate)
	mux.HandleFunc("/stocks/", h.Cancel)
	return httptest.NewServer(httpx.WithRequestID(mux))
}

func allocate(t *testing.T, srv *httptest.Server, requestID, body string) (*http.Response, Stock) {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, srv.URL+"/stocks", strings.NewReader(body))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-Id", requestID)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()
	var s Stock
	_ = json.NewDecoder(resp.Body).Decode(&s)
	return resp, s
}

const validStock = `{"orderNo":"O-1","customerCode":"C-1","items":[{"sku":"SKU-1","barcode":"B-1","qty":2}]}`

func TestAllocateStock(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	resp, s := allocate(t, srv, "E-1", validStock)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	if s.ID == "" {
		t.Fatal("expected a server-assigned id")
	}
	if s.OrderNo != "O-1" || len(s.Items) != 1 || s.Items[0].SKU != "SKU-1" {
		t.Fatalf("request fields not echoed: %+v", s)
	}
}

func TestAllocateStock_RepeatedRequestIDReplaysResponse(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	_, first := allocate(t, srv, "E-1", validStock)
	resp, second := allocate(t, srv, "E-1", validStock)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201 on replay, got %d", resp.StatusCode)
	}
	if second.ID != first.ID {
		t.Fatalf("replay produced a new allocation: %q vs %q", second.ID, first.ID)
	}
}

func TestAllocateStock_Validation(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	cases := []string{
		`not json`,
		`{"customerCode":"C-1","items":[{"sku":"SKU-1","qty":1}]}`,
		`{"orderNo":"O-1","customerCode":"C-1","items":[]}`,
		`{"orderNo":"O-1","customerCode":"C-1","items":[{"sku":"","qty":1}]}`,
		`{"orderNo":"O-1","customerCode":"C-1","items":[{"sku":"SKU-1","qty":0}]}`,
	}
	for i, body := range cases {
		resp, _ := allocate(t, srv, "E-x", body)
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("case %d: expected 400, got %d", i, resp.StatusCode)
		}
	}
}

func TestCancelStock_AcksUnknownID(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	req, _ := http.NewRequest(http.MethodDelete, srv.URL+"/stocks/never-created", nil)
	req.Header.Set("X-Request-Id", "E-1")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("cancel must ack even for unknown ids, got %d", resp.StatusCode)
	}
	var ack map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&ack); err != nil {
		t.Fatalf("decode ack: %v", err)
	}
	if ack["id"] != "never-created" || ack["status"] != "cancelled" {
		t.Fatalf("unexpected ack: %v", ack)
	}
}
