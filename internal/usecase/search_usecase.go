package usecase

import (
	"context"
	"strings"

	"github.com/DRSN-tech/marketplace-engine/internal/cfg"
	"github.com/DRSN-tech/marketplace-engine/pkg/cachekey"
	"github.com/DRSN-tech/marketplace-engine/pkg/e"
	"github.com/DRSN-tech/marketplace-engine/pkg/logger"
)

const (
	defaultSearchLimit = 20
	maxSearchLimit     = 100

	// Окно кандидатов, внутри которого считается релевантность.
	searchCandidateCap = 1000
)

// SearchUseCase — лексический поиск: совпадение ищет SQL, градуированную
// релевантность и порядок выдачи считает движок.
type SearchUseCase struct {
	productRepo ProductRepository
	cache       *CacheGateway
	ttl         *cfg.CacheCfg
	logger      logger.Logger
}

func NewSearchUC(productRepo ProductRepository, cache *CacheGateway, ttl *cfg.CacheCfg, logger logger.Logger) *SearchUseCase {
	return &SearchUseCase{
		productRepo: productRepo,
		cache:       cache,
		ttl:         ttl,
		logger:      logger,
	}
}

// SearchProducts выполняет поиск с фильтрами и пагинацией. В отличие от
// рекомендаций путь поиска fail-closed: ошибка хранилища возвращается
// вызывающему и не кэшируется.
func (s *SearchUseCase) SearchProducts(ctx context.Context, req *SearchProductsReq) (*SearchProductsRes, error) {
	const op = "SearchUseCase.SearchProducts"

	if req.Offset < 0 || req.Limit < 0 {
		return nil, e.Wrap(op, e.ErrInvalidPage)
	}

	limit := req.Limit
	if limit == 0 {
		limit = defaultSearchLimit
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}

	key := cachekey.Key(FamilySearch, cachekey.Args{
		"query":     req.Query,
		"category":  req.Filters.Category,
		"min_price": req.Filters.MinPrice,
		"max_price": req.Filters.MaxPrice,
		"limit":     limit,
		"offset":    req.Offset,
	})

	var cached SearchProductsRes
	if s.cache.Lookup(ctx, key, &cached) {
		cached.CacheHit = true
		cached.CacheHitRate = s.cache.HitRate()
		return &cached, nil
	}

	rows, err := s.productRepo.SearchCandidates(ctx, req.Query, req.Filters, searchCandidateCap)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	total, err := s.productRepo.CountProducts(ctx, req.Query, req.Filters)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	ranked := rankProducts(req.Query, rows)

	res := &SearchProductsRes{
		Products:   paginate(ranked, req.Offset, limit),
		TotalCount: total,
		Limit:      limit,
		Offset:     req.Offset,
		Query:      req.Query,
		Filters:    req.Filters,
	}
	s.cache.Store(ctx, key, res, s.ttl.SearchTTL)

	res.CacheHitRate = s.cache.HitRate()
	return res, nil
}

// SearchByCategory возвращает товары категории, новее выше.
func (s *SearchUseCase) SearchByCategory(ctx context.Context, category string, limit int) ([]ProductRow, error) {
	const op = "SearchUseCase.SearchByCategory"

	if strings.TrimSpace(category) == "" {
		return []ProductRow{}, nil
	}

	if limit <= 0 || limit > maxSearchLimit {
		limit = defaultSearchLimit
	}

	key := cachekey.Key(FamilyCategorySearch, cachekey.Args{
		"category": category,
		"limit":    limit,
	})

	var cached []ProductRow
	if s.cache.Lookup(ctx, key, &cached) {
		return cached, nil
	}

	rows, err := s.productRepo.SearchByCategory(ctx, category, limit)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	s.cache.Store(ctx, key, rows, s.ttl.SearchTTL)

	return rows, nil
}

// Suggest возвращает подсказки названий по префиксу. TTL короткий:
// подсказки дёшевы и быстро устаревают.
func (s *SearchUseCase) Suggest(ctx context.Context, prefix string, limit int) ([]string, error) {
	const op = "SearchUseCase.Suggest"

	if strings.TrimSpace(prefix) == "" {
		return []string{}, nil
	}

	if limit <= 0 || limit > maxSearchLimit {
		limit = 10
	}

	key := cachekey.Key(FamilySuggestions, cachekey.Args{
		"prefix": prefix,
		"limit":  limit,
	})

	var cached []string
	if s.cache.Lookup(ctx, key, &cached) {
		return cached, nil
	}

	names, err := s.productRepo.SuggestNames(ctx, prefix, limit)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	s.cache.Store(ctx, key, names, s.ttl.SuggestionsTTL)

	return names, nil
}

// ClearSearchCache инвалидирует все семейства лексического поиска.
func (s *SearchUseCase) ClearSearchCache(ctx context.Context) error {
	const op = "SearchUseCase.ClearSearchCache"

	for _, family := range []string{FamilySearch, FamilyCategorySearch, FamilySuggestions} {
		if err := s.cache.ClearFamily(ctx, family); err != nil {
			return e.Wrap(op, err)
		}
	}

	return nil
}

func (s *SearchUseCase) CacheStats() CacheStats {
	return s.cache.Stats()
}
