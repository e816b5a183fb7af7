package client

import (
	"context"
	"net/url"
	"time"

	"github.com/acme/orderflow/services/order-stream/internal/model"
)

type PaymentClient struct {
	participantClient
}

func NewPaymentClient(baseURL string, timeout time.Duration) *PaymentClient {
	return &PaymentClient{newParticipantClient(baseURL, timeout)}
}

func (c *PaymentClient) Create(ctx context.Context, eventID string, p model.Payment) (model.Payment, error) {
	var created model.Payment
	if err := c.postJSON(ctx, eventID, "/payments", p, &created); err != nil {
		return model.Payment{}, err
	}
	return created, nil
}

func (c *PaymentClient) Cancel(ctx context.Context, eventID, id string) error {
	return c.delete(ctx, eventID, "/payments/"+url.PathEscape(id))
}
