package storage

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/acme/orderflow/libs/db"
	"github.com/acme/orderflow/services/order-service/internal/model"
	"github.com/jackc/pgx/v5"
)

var ErrNotFound = errors.New("order not found")

type OrderRepository struct {
	pool *db.Pool
}

func NewOrderRepository(pool *db.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

func (r *OrderRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	return r.pool.Begin(ctx)
}

// Create inserts the order inside the caller's transaction and returns the
// server-assigned id and order date.
func (r *OrderRepository) Create(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	items, err := json.Marshal(order.Items)
	if err != nil {
		return err
	}
	var id string
	var orderDate time.Time
	err = tx.QueryRow(ctx, `
		INSERT INTO orders (order_no, customer_code, items, amount)
		VALUES ($1, $2, $3, $4)
		RETURNING id, order_date
	`, order.OrderNo, order.CustomerCode, items, order.Amount).Scan(&id, &orderDate)
	if err != nil {
		return err
	}
	order.ID = id
	order.OrderDate = orderDate
	return nil
}

func (r *OrderRepository) Get(ctx context.Context, id string) (model.Order, error) {
	var order model.Order
	var items []byte
	err := r.pool.QueryRow(ctx, `
		SELECT id, order_no, order_date, customer_code, items, amount
		FROM orders
		WHERE id = $1
	`, id).Scan(&order.ID, &order.OrderNo, &order.OrderDate, &order.CustomerCode, &items, &order.Amount)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Order{}, ErrNotFound
	}
	if err != nil {
		return model.Order{}, err
	}
	if err := json.Unmarshal(items, &order.Items); err != nil {
		return model.Order{}, err
	}
	return order, nil
}
