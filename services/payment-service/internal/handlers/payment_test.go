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
	h := NewPaymentHandler(idempotency.NewMemoryStore(time.Hour), slog.New(slog.DiscardHandler), nil)
	mux := http.NewServeMux()
	mux.HandleFunc("/payments", h.Create)
	mux.HandleFunc("/payments/", h.Cancel)
	return httptest.NewServer(httpx.WithRequestID(mux))
}

func createPayment(t *testing.T, srv *httptest.Server, requestID, body string) (*http.Response, Payment) {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, srv.URL+"/payments", strings.NewReader(body))
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
	var p Payment
	_ = json.NewDecoder(resp.Body).Decode(&p)
	return resp, p
}

func TestCreatePayment(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	resp, p := createPayment(t, srv, "E-1", `{"customerCode":"C-1","refNo":"O-1","amount":100}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	if p.ID == "" || p.PaymentNo == "" || p.PaymentDate == nil {
		t.Fatalf("expected server-assigned fields, got %+v", p)
	}
	if p.CustomerCode != "C-1" || p.RefNo != "O-1" || p.Amount != 100 {
		t.Fatalf("request fields not echoed: %+v", p)
	}
}

func TestCreatePayment_RepeatedRequestIDReplaysResponse(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	_, first := createPayment(t, srv, "E-1", `{"customerCode":"C-1","refNo":"O-1","amount":100}`)
	resp, second := createPayment(t, srv, "E-1", `{"customerCode":"C-1","refNo":"O-1","amount":100}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201 on replay, got %d", resp.StatusCode)
	}
	if second.ID != first.ID || second.PaymentNo != first.PaymentNo {
		t.Fatalf("replay produced a new payment: %q vs %q", second.ID, first.ID)
	}
}

func TestCreatePayment_DistinctRequestIDsCreateDistinctPayments(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	_, first := createPayment(t, srv, "E-1", `{"customerCode":"C-1","refNo":"O-1","amount":100}`)
	_, second := createPayment(t, srv, "E-2", `{"customerCode":"C-1","refNo":"O-2","amount":50}`)
	if second.ID == first.ID {
		t.Fatal("distinct requests must create distinct payments")
	}
}

func TestCreatePayment_Validation(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	cases := []string{
		`not json`,
		`{"refNo":"O-1","amount":100}`,
		`{"customerCode":"C-1","amount":100}`,
		`{"customerCode":"C-1","refNo":"O-1","amount":0}`,
	}
	for i, body := range cases {
		resp, _ := createPayment(t, srv, "E-x", body)
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("case %d: expected 400, got %d", i, resp.StatusCode)
		}
	}
}

func TestCancelPayment_AcksUnknownID(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	req, _ := http.NewRequest(http.MethodDelete, srv.URL+"/payments/never-created", nil)
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
