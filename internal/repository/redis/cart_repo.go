package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/DRSN-tech/marketplace-engine/internal/cfg"
	"github.com/DRSN-tech/marketplace-engine/internal/domain"
	"github.com/DRSN-tech/marketplace-engine/pkg/clients"
	"github.com/DRSN-tech/marketplace-engine/pkg/e"

	"github.com/jimlawless/whereami"
)

// Конкурирующие мутации одной корзины разрешаются оптимистично: WATCH на
// ключе, проигравшая сторона перечитывает состояние и пробует снова.
const maxMutateRetries = 5

// CartRepo хранит корзины в Redis со скользящим TTL: каждая мутация
// продлевает жизнь корзины, опустевшая корзина удаляется.
type CartRepo struct {
	client *clients.RedisClient
	cfg    *cfg.CacheCfg
}

func NewCartRepo(client *clients.RedisClient, cfg *cfg.CacheCfg) *CartRepo {
	return &CartRepo{
		client: client,
		cfg:    cfg,
	}
}

func cartKey(userID string) string {
	return "cart:" + userID
}

// Get возвращает корзину пользователя; отсутствующая строка — новая пустая
// корзина, не ошибка.
func (r *CartRepo) Get(ctx context.Context, userID string) (*domain.Cart, error) {
	data, err := r.client.Client.Get(ctx, cartKey(userID)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return domain.NewCart(userID), nil
	}
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	var cart domain.Cart
	if err := json.Unmarshal(data, &cart); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return &cart, nil
}

// Mutate атомарно применяет fn к текущему состоянию корзины. fn получает
// nil, если корзины нет; возвращённая пустая корзина удаляет строку.
func (r *CartRepo) Mutate(ctx context.Context, userID string, fn func(cur *domain.Cart) (*domain.Cart, error)) (*domain.Cart, error) {
	key := cartKey(userID)

	var result *domain.Cart

	txn := func(tx *goredis.Tx) error {
		var cur *domain.Cart

		data, err := tx.Get(ctx, key).Bytes()
		switch {
		case errors.Is(err, goredis.Nil):
			cur = nil
		case err != nil:
			return err
		default:
			cur = &domain.Cart{}
			if err := json.Unmarshal(data, cur); err != nil {
				return err
			}
		}

		next, err := fn(cur)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			if next.IsEmpty() {
				pipe.Del(ctx, key)
				return nil
			}

			payload, err := json.Marshal(next)
			if err != nil {
				return err
			}

			pipe.Set(ctx, key, payload, r.cfg.CartTTL)
			return nil
		})
		if err != nil {
			return err
		}

		result = next
		return nil
	}

	for i := 0; i < maxMutateRetries; i++ {
		err := r.client.Client.Watch(ctx, txn, key)
		if err == nil {
			return result, nil
		}
		if errors.Is(err, goredis.TxFailedErr) {
			continue // проигранная гонка, перечитываем
		}

		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return nil, e.Wrap(whereami.WhereAmI(), goredis.TxFailedErr)
}

// Delete удаляет корзину целиком.
func (r *CartRepo) Delete(ctx context.Context, userID string) error {
	if err := r.client.Client.Del(ctx, cartKey(userID)).Err(); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// Expiry возвращает оставшийся TTL корзины; 0 — корзины нет.
func (r *CartRepo) Expiry(ctx context.Context, userID string) (time.Duration, error) {
	ttl, err := r.client.Client.TTL(ctx, cartKey(userID)).Result()
	if err != nil {
		return 0, e.Wrap(whereami.WhereAmI(), err)
	}

	if ttl < 0 {
		return 0, nil
	}

	return ttl, nil
}
