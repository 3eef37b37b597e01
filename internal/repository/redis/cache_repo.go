package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/DRSN-tech/marketplace-engine/pkg/clients"
	"github.com/DRSN-tech/marketplace-engine/pkg/e"

	"github.com/jimlawless/whereami"
)

// CacheRepo — JSON-кэш с TTL поверх Redis. Политику попаданий/промахов и
// деградацию при сбоях держит шлюз кэша в usecase-слое; репозиторий только
// честно сообщает об ошибках.
type CacheRepo struct {
	client *clients.RedisClient
}

func NewCacheRepo(client *clients.RedisClient) *CacheRepo {
	return &CacheRepo{
		client: client,
	}
}

// GetJSON читает значение в dest; отсутствие ключа — found=false без ошибки.
func (r *CacheRepo) GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	data, err := r.client.Client.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return false, nil // cache miss
	}
	if err != nil {
		return false, e.Wrap(whereami.WhereAmI(), err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		// битую запись выгоднее выкинуть, чем отдавать ошибку на каждый хит
		r.client.Client.Del(context.WithoutCancel(ctx), key)
		return false, e.Wrap(whereami.WhereAmI(), err)
	}

	return true, nil
}

// SetJSON сериализует значение и пишет его с TTL.
func (r *CacheRepo) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	if err := r.client.Client.Set(ctx, key, data, ttl).Err(); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// DeletePrefix удаляет все ключи с данным префиксом. SCAN вместо KEYS,
// чтобы инвалидация не блокировала хранилище на больших семействах.
func (r *CacheRepo) DeletePrefix(ctx context.Context, prefix string) error {
	var cursor uint64

	for {
		keys, next, err := r.client.Client.Scan(ctx, cursor, prefix+"*", 500).Result()
		if err != nil {
			return e.Wrap(whereami.WhereAmI(), err)
		}

		if len(keys) > 0 {
			if err := r.client.Client.Del(ctx, keys...).Err(); err != nil {
				return e.Wrap(whereami.WhereAmI(), err)
			}
		}

		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}
