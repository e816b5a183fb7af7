package saga

import (
	"context"
	"log/slog"

	"github.com/acme/orderflow/services/order-stream/internal/client"
	"github.com/acme/orderflow/services/order-stream/internal/model"
)

// NewCreateOrderWorkflow wires the fulfillment saga for order_created:
// take payment, then allocate stock. Step order is the business order;
// compensation unwinds per the configured policy.
func NewCreateOrderWorkflow(logger *slog.Logger, payments *client.PaymentClient, stocks *client.StockClient, opts Options) *Workflow[model.Order] {
	steps := []Step[model.Order]{
		NewStep("payment", bindPayment,
			func(ctx context.Context, eventID string, p model.Payment) error {
				_, err := payments.Create(ctx, eventID, p)
				return err
			},
			func(ctx context.Context, eventID string, p model.Payment) error {
				return payments.Cancel(ctx, eventID, resourceRef(p.ID, eventID))
			},
		),
		NewStep("stock", bindStock,
			func(ctx context.Context, eventID string, s model.Stock) error {
				_, err := stocks.Create(ctx, eventID, s)
				return err
			},
			func(ctx context.Context, eventID string, s model.Stock) error {
				return stocks.Cancel(ctx, eventID, resourceRef(s.ID, eventID))
			},
		),
	}
	return NewWorkflow(logger, steps, opts)
}

func bindPayment(o model.Order) model.Payment {
	return model.Payment{
		CustomerCode: o.CustomerCode,
		RefNo:        o.OrderNo,
		Amount:       o.Amount,
	}
}

func bindStock(o model.Order) model.Stock {
	items := make([]model.StockItem, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, model.StockItem{
			SKU:     it.SKU,
			Barcode: it.Barcode,
			Qty:     it.Qty,
		})
	}
	return model.Stock{
		OrderNo:      o.OrderNo,
		OrderDate:    o.OrderDate,
		CustomerCode: o.CustomerCode,
		Items:        items,
	}
}

// resourceRef picks the path id for a cancel call. A fresh bind carries no
// server-assigned id, so the cancel falls back to the correlation id and the
// participant resolves the resource by its x-request-id record.
func resourceRef(id, eventID string) string {
	if id != "" {
		return id
	}
	return eventID
}
