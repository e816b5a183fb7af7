package handlers

import (
	"testing"

	"github.com/acme/orderflow/services/order-service/internal/model"
)

func TestValidateCreateOrder(t *testing.T) {
	order, err := validateCreateOrder(createOrderRequest{
		OrderNo:      "O-1",
		CustomerCode: "C-1",
		Items:        []model.OrderItem{{SKU: "S1", Qty: 2, Amount: 50}},
		Amount:       100.0,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if order.OrderNo != "O-1" || order.CustomerCode != "C-1" {
		t.Fatalf("unexpected order: %+v", order)
	}
	if order.Amount != 100.0 {
		t.Fatalf("explicit amount must win, got %f", order.Amount)
	}
}

func TestValidateCreateOrder_AmountFallsBackToItemSum(t *testing.T) {
	order, err := validateCreateOrder(createOrderRequest{
		OrderNo:      "O-1",
		CustomerCode: "C-1",
		Items: []model.OrderItem{
			{SKU: "S1", Qty: 2, Amount: 60},
			{SKU: "S2", Qty: 1, Amount: 40},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if order.Amount != 100.0 {
		t.Fatalf("expected computed amount 100, got %f", order.Amount)
	}
}

func TestValidateCreateOrder_Rejections(t *testing.T) {
	cases := map[string]createOrderRequest{
		"missing orderNo":      {CustomerCode: "C-1", Items: []model.OrderItem{{SKU: "S1", Qty: 1}}},
		"missing customerCode": {OrderNo: "O-1", Items: []model.OrderItem{{SKU: "S1", Qty: 1}}},
		"no items":             {OrderNo: "O-1", CustomerCode: "C-1"},
		"blank sku":            {OrderNo: "O-1", CustomerCode: "C-1", Items: []model.OrderItem{{SKU: " ", Qty: 1}}},
		"zero qty":             {OrderNo: "O-1", CustomerCode: "C-1", Items: []model.OrderItem{{SKU: "S1"}}},
	}
	for name, req := range cases {
		if _, err := validateCreateOrder(req); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
}
