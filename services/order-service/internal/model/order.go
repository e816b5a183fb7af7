package model

import "time"

// Order is the aggregate owned by this service. It is written exactly once,
// together with its outbox event, and never updated by the fulfillment flow.
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

// TotalAmount sums the line item amounts. Used when the client does not
// supply an aggregate amount.
func (o Order) TotalAmount() float64 {
	var total float64
	for _, it := range o.Items {
		total += it.Amount
	}
	return total
}
