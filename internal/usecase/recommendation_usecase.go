package usecase

import (
	"context"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/DRSN-tech/marketplace-engine/internal/cfg"
	"github.com/DRSN-tech/marketplace-engine/pkg/cachekey"
	"github.com/DRSN-tech/marketplace-engine/pkg/e"
	"github.com/DRSN-tech/marketplace-engine/pkg/logger"
)

// SimilarProductsProvider отдаёт векторных «похожих» для сводной подборки;
// реализуется семантическим поиском.
type SimilarProductsProvider interface {
	MoreLikeThis(ctx context.Context, productID int64, limit int) ([]ScoredProduct, error)
}

// RecommendationUseCase — рекомендации поверх графа покупок. Рекомендации
// вспомогательны, поэтому любой сбой хранилища деградирует до пустой
// выдачи с предупреждением в логе.
type RecommendationUseCase struct {
	graphRepo   GraphRepository
	productRepo ProductRepository
	similar     SimilarProductsProvider
	cache       *CacheGateway
	ttl         *cfg.CacheCfg
	logger      logger.Logger
}

func NewRecommendationUC(graphRepo GraphRepository, productRepo ProductRepository, similar SimilarProductsProvider, cache *CacheGateway, ttl *cfg.CacheCfg, logger logger.Logger) *RecommendationUseCase {
	return &RecommendationUseCase{
		graphRepo:   graphRepo,
		productRepo: productRepo,
		similar:     similar,
		cache:       cache,
		ttl:         ttl,
		logger:      logger,
	}
}

// AlsoBought — «с этим товаром покупают»: соседи по общим покупателям.
func (r *RecommendationUseCase) AlsoBought(ctx context.Context, productID int64, limit int) ([]RecommendationItem, error) {
	return r.coPurchase(ctx, FamilyAlsoBought, RecAlsoBought, r.graphRepo.AlsoBought, productID, limit)
}

// FrequentlyBoughtTogether — товары из одних заказов. Алгоритм родствен
// AlsoBought, но семейство кэша и TTL у него свои.
func (r *RecommendationUseCase) FrequentlyBoughtTogether(ctx context.Context, productID int64, limit int) ([]RecommendationItem, error) {
	return r.coPurchase(ctx, FamilyBoughtTogether, RecBoughtTogether, r.graphRepo.BoughtTogether, productID, limit)
}

func (r *RecommendationUseCase) coPurchase(ctx context.Context, family string, kind RecommendationKind, fetch func(ctx context.Context, productID int64, limit int) ([]GraphHit, error), productID int64, limit int) ([]RecommendationItem, error) {
	op := "RecommendationUseCase." + string(kind)

	if productID <= 0 || limit <= 0 {
		return []RecommendationItem{}, nil
	}

	key := cachekey.SubjectKey(family, strconv.FormatInt(productID, 10), cachekey.Args{
		"limit": limit,
	})

	var cached []RecommendationItem
	if r.cache.Lookup(ctx, key, &cached) {
		return cached, nil
	}

	hits, err := fetch(ctx, productID, limit)
	if err != nil {
		r.logger.Warnf("recommendations degraded to empty result: %v", e.Wrap(op, err))
		return []RecommendationItem{}, nil
	}

	items, err := r.resolve(ctx, hits, kind)
	if err != nil {
		r.logger.Warnf("recommendations degraded to empty result: %v", e.Wrap(op, err))
		return []RecommendationItem{}, nil
	}

	r.cache.Store(ctx, key, items, r.ttl.RecommendationTTL)

	return items, nil
}

// Personalized — двухшаговая коллаборативная фильтрация: покупки ближайших
// по пересечению корзин соседей, за вычетом уже купленного.
func (r *RecommendationUseCase) Personalized(ctx context.Context, userID string, limit int) ([]RecommendationItem, error) {
	const op = "RecommendationUseCase.Personalized"

	if userID == "" || limit <= 0 {
		return []RecommendationItem{}, nil
	}

	key := cachekey.SubjectKey(FamilyPersonalized, userID, cachekey.Args{
		"limit": limit,
	})

	var cached []RecommendationItem
	if r.cache.Lookup(ctx, key, &cached) {
		return cached, nil
	}

	hits, err := r.graphRepo.Personalized(ctx, userID, limit)
	if err != nil {
		r.logger.Warnf("recommendations degraded to empty result: %v", e.Wrap(op, err))
		return []RecommendationItem{}, nil
	}

	items, err := r.resolve(ctx, hits, RecPersonalized)
	if err != nil {
		r.logger.Warnf("recommendations degraded to empty result: %v", e.Wrap(op, err))
		return []RecommendationItem{}, nil
	}

	r.cache.Store(ctx, key, items, r.ttl.RecommendationTTL)

	return items, nil
}

// Trending — самое покупаемое за последние семь дней.
func (r *RecommendationUseCase) Trending(ctx context.Context, limit int) ([]RecommendationItem, error) {
	const op = "RecommendationUseCase.Trending"

	if limit <= 0 {
		return []RecommendationItem{}, nil
	}

	key := cachekey.Key(FamilyTrending, cachekey.Args{
		"limit": limit,
	})

	var cached []RecommendationItem
	if r.cache.Lookup(ctx, key, &cached) {
		return cached, nil
	}

	hits, err := r.graphRepo.Trending(ctx, limit)
	if err != nil {
		r.logger.Warnf("recommendations degraded to empty result: %v", e.Wrap(op, err))
		return []RecommendationItem{}, nil
	}

	items, err := r.resolve(ctx, hits, RecTrending)
	if err != nil {
		r.logger.Warnf("recommendations degraded to empty result: %v", e.Wrap(op, err))
		return []RecommendationItem{}, nil
	}

	r.cache.Store(ctx, key, items, r.ttl.TrendingTTL)

	return items, nil
}

// Comprehensive собирает сводную подборку нескольких стратегий. Ветви
// независимы и fail-soft, поэтому частично пустая подборка — норма.
func (r *RecommendationUseCase) Comprehensive(ctx context.Context, userID string, productID int64, limit int) (*RecommendationBundle, error) {
	const op = "RecommendationUseCase.Comprehensive"

	bundle := &RecommendationBundle{
		Personalized:             []RecommendationItem{},
		SimilarProducts:          []ScoredProduct{},
		AlsoBought:               []RecommendationItem{},
		FrequentlyBoughtTogether: []RecommendationItem{},
	}

	if limit <= 0 {
		return bundle, nil
	}

	g, gctx := errgroup.WithContext(ctx)

	if userID != "" {
		g.Go(func() error {
			items, err := r.Personalized(gctx, userID, limit)
			if err != nil {
				return err
			}
			bundle.Personalized = items
			return nil
		})
	}

	if productID > 0 {
		g.Go(func() error {
			items, err := r.similar.MoreLikeThis(gctx, productID, limit)
			if err != nil {
				return err
			}
			bundle.SimilarProducts = items
			return nil
		})
		g.Go(func() error {
			items, err := r.AlsoBought(gctx, productID, limit)
			if err != nil {
				return err
			}
			bundle.AlsoBought = items
			return nil
		})
		g.Go(func() error {
			items, err := r.FrequentlyBoughtTogether(gctx, productID, limit/2)
			if err != nil {
				return err
			}
			bundle.FrequentlyBoughtTogether = items
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, e.Wrap(op, err)
	}

	return bundle, nil
}

// ClearRecommendationCache инвалидирует рекомендации: целиком при пустых
// аргументах либо точечно по пользователю и/или товару.
func (r *RecommendationUseCase) ClearRecommendationCache(ctx context.Context, userID string, productID int64) error {
	const op = "RecommendationUseCase.ClearRecommendationCache"

	if userID == "" && productID <= 0 {
		families := []string{FamilyPersonalized, FamilyAlsoBought, FamilyBoughtTogether, FamilySimilar, FamilyTrending}
		for _, family := range families {
			if err := r.cache.ClearFamily(ctx, family); err != nil {
				return e.Wrap(op, err)
			}
		}

		return nil
	}

	if userID != "" {
		if err := r.cache.ClearPrefix(ctx, FamilyPersonalized+":"+userID+":"); err != nil {
			return e.Wrap(op, err)
		}
	}

	if productID > 0 {
		pid := strconv.FormatInt(productID, 10)
		for _, family := range []string{FamilyAlsoBought, FamilyBoughtTogether, FamilySimilar} {
			if err := r.cache.ClearPrefix(ctx, family+":"+pid+":"); err != nil {
				return e.Wrap(op, err)
			}
		}
	}

	return nil
}

func (r *RecommendationUseCase) CacheStats() CacheStats {
	return r.cache.Stats()
}

// resolve присоединяет живые данные каталога к попаданиям графа; попадание
// без строки каталога молча отбрасывается.
func (r *RecommendationUseCase) resolve(ctx context.Context, hits []GraphHit, kind RecommendationKind) ([]RecommendationItem, error) {
	if len(hits) == 0 {
		return []RecommendationItem{}, nil
	}

	ids := make([]int64, 0, len(hits))
	for _, hit := range hits {
		ids = append(ids, hit.ProductID)
	}

	rows, err := r.productRepo.GetProductsInfo(ctx, ids)
	if err != nil {
		return nil, err
	}

	items := make([]RecommendationItem, 0, len(hits))
	for _, hit := range hits {
		row, ok := rows[hit.ProductID]
		if !ok {
			continue
		}

		items = append(items, RecommendationItem{
			ProductRow: row,
			Signal:     hit.Signal,
			Kind:       kind,
		})
	}

	return items, nil
}
