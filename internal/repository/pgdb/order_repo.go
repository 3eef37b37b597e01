package pgdb

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"

	"github.com/DRSN-tech/marketplace-engine/internal/domain"
	"github.com/DRSN-tech/marketplace-engine/pkg/e"
	"github.com/DRSN-tech/marketplace-engine/pkg/tr"
)

// OrderRepo пишет заказы в рамках транзакции конверсии из контекста.
type OrderRepo struct {
	pool *pgxpool.Pool
}

func NewOrderRepo(pool *pgxpool.Pool) *OrderRepo {
	return &OrderRepo{
		pool: pool,
	}
}

// CreateOrder вставляет заказ идемпотентно: идентификатор выводится из
// пользователя и отпечатка корзины, конфликт означает уже состоявшуюся
// конверсию и возвращается как created=false, а не ошибка.
func (o *OrderRepo) CreateOrder(ctx context.Context, order *domain.Order) (bool, error) {
	tx, err := tr.TxFromCtx(ctx)
	if err != nil {
		return false, e.Wrap(whereami.WhereAmI(), err)
	}

	res, err := tx.Exec(ctx, `
		INSERT INTO orders (id, user_id, street, city, zip, country, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING
	`,
		order.ID,
		order.UserID,
		order.Address.Street,
		order.Address.City,
		order.Address.Zip,
		order.Address.Country,
		order.CreatedAt,
	)
	if err != nil {
		return false, e.Wrap(whereami.WhereAmI(), err)
	}

	return res.RowsAffected() > 0, nil
}

// CreateOrderItems вставляет позиции заказа одной командой.
func (o *OrderRepo) CreateOrderItems(ctx context.Context, items []domain.OrderItem) error {
	if len(items) == 0 {
		return nil
	}

	tx, err := tr.TxFromCtx(ctx)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	query := `
		INSERT INTO order_items (id, order_id, product_id, quantity)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO NOTHING
	`

	for _, item := range items {
		if _, err := tx.Exec(ctx, query, item.ID, item.OrderID, item.ProductID, item.Quantity); err != nil {
			return e.Wrap(whereami.WhereAmI(), err)
		}
	}

	return nil
}
