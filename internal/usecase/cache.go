package usecase

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/DRSN-tech/marketplace-engine/pkg/logger"
)

// Семейства ключей кэша. Семейство — префикс ключа до первого ":",
// по нему выполняется инвалидация целиком.
const (
	FamilySearch         = "search"
	FamilyCategorySearch = "category_search"
	FamilySuggestions    = "suggestions"
	FamilySemanticSearch = "semantic_search"
	FamilySimilar        = "similar_products"
	FamilyHybridSearch   = "hybrid_search"
	FamilyAlsoBought     = "also_bought"
	FamilyBoughtTogether = "bought_together"
	FamilyPersonalized   = "personalized"
	FamilyTrending       = "trending_products"
)

// CacheGateway — шлюз кэша одного компонента. Отсутствие записи — промах,
// а не ошибка; сбои хранилища деградируют до промаха/пропуска записи.
// Счётчики попаданий и промахов атомарны и локальны для экземпляра.
type CacheGateway struct {
	repo   CacheRepository
	logger logger.Logger

	hits   atomic.Int64
	misses atomic.Int64
}

func NewCacheGateway(repo CacheRepository, logger logger.Logger) *CacheGateway {
	return &CacheGateway{
		repo:   repo,
		logger: logger,
	}
}

// Lookup читает значение по ключу в dest и учитывает попадание/промах.
func (g *CacheGateway) Lookup(ctx context.Context, key string, dest any) bool {
	found, err := g.repo.GetJSON(ctx, key, dest)
	if err != nil {
		g.logger.Warnf("cache lookup failed for %s: %v", key, err)
		g.misses.Add(1)
		return false
	}

	if !found {
		g.misses.Add(1)
		return false
	}

	g.hits.Add(1)
	return true
}

// Store пишет значение с TTL; сбой записи не препятствует ответу.
func (g *CacheGateway) Store(ctx context.Context, key string, value any, ttl time.Duration) {
	if err := g.repo.SetJSON(ctx, key, value, ttl); err != nil {
		g.logger.Warnf("cache store failed for %s: %v", key, err)
	}
}

// ClearFamily инвалидирует все записи семейства.
func (g *CacheGateway) ClearFamily(ctx context.Context, family string) error {
	return g.repo.DeletePrefix(ctx, family+":")
}

// ClearPrefix инвалидирует записи по произвольному префиксу, например
// "personalized:<userID>:".
func (g *CacheGateway) ClearPrefix(ctx context.Context, prefix string) error {
	return g.repo.DeletePrefix(ctx, prefix)
}

// HitRate возвращает hits/(hits+misses); 0 без трафика.
func (g *CacheGateway) HitRate() float64 {
	hits := g.hits.Load()
	misses := g.misses.Load()

	total := hits + misses
	if total == 0 {
		return 0
	}

	return float64(hits) / float64(total)
}

func (g *CacheGateway) Stats() CacheStats {
	return CacheStats{
		Hits:    g.hits.Load(),
		Misses:  g.misses.Load(),
		HitRate: g.HitRate(),
	}
}
