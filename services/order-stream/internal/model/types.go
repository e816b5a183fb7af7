package model

import "time"

// Order is the triggering aggregate as carried in the outbox event payload.
// This service owns no order state; the snapshot is the whole input.
type Order struct {
	ID           string      `json:"id"`
	OrderNo      string      `json:"orderNo"`
	OrderDate    time.Time   `json:"orderDate"`
	CustomerCode string      `json:"customerCode"`
	Items        []OrderItem `json:"items"`
	Amount       float64     `json:"amount"`
}

type OrderItem struct {
	SKU     string  `json:"sku"`
	Barcode string  `json:"barcode"`
	Qty     int     `json:"qty"`
	Amount  float64 `json:"amount"`
}

// Payment is the payment participant's request/response shape.
type Payment struct {
	ID           string     `json:"id,omitempty"`
	PaymentNo    string     `json:"paymentNo,omitempty"`
	PaymentDate  *time.Time `json:"paymentDate,omitempty"`
	CustomerCode string     `json:"customerCode"`
	RefNo        string     `json:"refNo"`
	Amount       float64    `json:"amount"`
}

// Stock is the stock participant's request/response shape.
type Stock struct {
	ID           string      `json:"id,omitempty"`
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
