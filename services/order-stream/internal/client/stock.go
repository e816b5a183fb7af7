package client

import (
	"context"
	"net/url"
	"time"

	"github.com/acme/orderflow/services/order-stream/internal/model"
)

type StockClient struct {
	participantClient
}

func NewStockClient(baseURL string, timeout time.Duration) *StockClient {
	return &StockClient{newParticipantClient(baseURL, timeout)}
}

func (c *StockClient) Create(ctx context.Context, eventID string, s model.Stock) (model.Stock, error) {
	var created model.Stock
	if err := c.postJSON(ctx, eventID, "/stocks", s, &created); err != nil {
		return model.Stock{}, err
	}
	return created, nil
}

func (c *StockClient) Cancel(ctx context.Context, eventID, id string) error {
	return c.delete(ctx, eventID, "/stocks/"+url.PathEscape(id))
}
