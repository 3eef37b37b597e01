package usecase

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/DRSN-tech/marketplace-engine/internal/cfg"
	"github.com/DRSN-tech/marketplace-engine/pkg/cachekey"
	"github.com/DRSN-tech/marketplace-engine/pkg/e"
	"github.com/DRSN-tech/marketplace-engine/pkg/logger"
)

// Выборка сверх лимита: часть кандидатов отпадёт после фильтра наличия
// и присоединения живых данных каталога.
const oversampleFactor = 2

// SemanticUseCase — векторный поиск и гибридное слияние. Все читающие
// операции fail-soft: сбой хранилища деградирует до пустой выдачи.
type SemanticUseCase struct {
	embedder    Embedder
	index       EmbeddingIndex
	productRepo ProductRepository
	cache       *CacheGateway
	ttl         *cfg.CacheCfg
	logger      logger.Logger
}

func NewSemanticUC(embedder Embedder, index EmbeddingIndex, productRepo ProductRepository, cache *CacheGateway, ttl *cfg.CacheCfg, logger logger.Logger) *SemanticUseCase {
	return &SemanticUseCase{
		embedder:    embedder,
		index:       index,
		productRepo: productRepo,
		cache:       cache,
		ttl:         ttl,
		logger:      logger,
	}
}

// SemanticSearch ищет ближайшие товары к эмбеддингу запроса.
func (s *SemanticUseCase) SemanticSearch(ctx context.Context, query string, limit int) ([]ScoredProduct, error) {
	const op = "SemanticUseCase.SemanticSearch"

	if strings.TrimSpace(query) == "" || limit <= 0 {
		return []ScoredProduct{}, nil
	}

	key := cachekey.Key(FamilySemanticSearch, cachekey.Args{
		"query": query,
		"limit": limit,
	})

	var cached []ScoredProduct
	if s.cache.Lookup(ctx, key, &cached) {
		return cached, nil
	}

	results, err := s.semanticPass(ctx, query, limit)
	if err != nil {
		s.logger.Warnf("semantic search degraded to empty result: %v", e.Wrap(op, err))
		return []ScoredProduct{}, nil
	}

	s.cache.Store(ctx, key, results, s.ttl.SemanticTTL)

	return results, nil
}

// MoreLikeThis ищет соседей сохранённого эмбеддинга товара, исключая сам
// товар. Товар без эмбеддинга — валидная пустая выдача, не сбой.
func (s *SemanticUseCase) MoreLikeThis(ctx context.Context, productID int64, limit int) ([]ScoredProduct, error) {
	const op = "SemanticUseCase.MoreLikeThis"

	if productID <= 0 || limit <= 0 {
		return []ScoredProduct{}, nil
	}

	key := cachekey.SubjectKey(FamilySimilar, strconv.FormatInt(productID, 10), cachekey.Args{
		"limit": limit,
	})

	var cached []ScoredProduct
	if s.cache.Lookup(ctx, key, &cached) {
		return cached, nil
	}

	vector, err := s.index.Fetch(ctx, productID)
	if err != nil {
		s.logger.Warnf("similar products degraded to empty result: %v", e.Wrap(op, err))
		return []ScoredProduct{}, nil
	}
	if vector == nil {
		s.logger.Debugf("no embedding stored for product %d", productID)
		return []ScoredProduct{}, nil
	}

	hits, err := s.index.Query(ctx, vector, limit*oversampleFactor+1, productID)
	if err != nil {
		s.logger.Warnf("similar products degraded to empty result: %v", e.Wrap(op, err))
		return []ScoredProduct{}, nil
	}

	results, err := s.resolveScored(ctx, hits, productID, limit)
	if err != nil {
		s.logger.Warnf("similar products degraded to empty result: %v", e.Wrap(op, err))
		return []ScoredProduct{}, nil
	}

	s.cache.Store(ctx, key, results, s.ttl.SemanticTTL)

	return results, nil
}

// HybridSearch сливает семантическую и текстовую выдачи с весом
// semanticWeight за семантикой. Сбой любой из ветвей даёт пустой список:
// половинная выдача под видом гибридной хуже пустой.
func (s *SemanticUseCase) HybridSearch(ctx context.Context, query string, limit int, semanticWeight float64) ([]HybridProduct, error) {
	const op = "SemanticUseCase.HybridSearch"

	if semanticWeight < 0 || semanticWeight > 1 {
		return nil, e.Wrap(op, e.ErrInvalidWeight)
	}

	if strings.TrimSpace(query) == "" || limit <= 0 {
		return []HybridProduct{}, nil
	}

	key := cachekey.Key(FamilyHybridSearch, cachekey.Args{
		"query":  query,
		"limit":  limit,
		"weight": semanticWeight,
	})

	var cached []HybridProduct
	if s.cache.Lookup(ctx, key, &cached) {
		return cached, nil
	}

	var (
		semantic []ScoredProduct
		textRows []TextRankRow
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		semantic, err = s.semanticPass(gctx, query, limit*oversampleFactor)
		return err
	})
	g.Go(func() error {
		var err error
		textRows, err = s.productRepo.TextRank(gctx, query, limit*oversampleFactor)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Warnf("hybrid search degraded to empty result: %v", e.Wrap(op, err))
		return []HybridProduct{}, nil
	}

	merged := fuseHybrid(semantic, textRows, semanticWeight)
	if len(merged) > limit {
		merged = merged[:limit]
	}

	s.cache.Store(ctx, key, merged, s.ttl.SemanticTTL)

	return merged, nil
}

// ClearSemanticCache инвалидирует семейства векторного и гибридного поиска.
func (s *SemanticUseCase) ClearSemanticCache(ctx context.Context) error {
	const op = "SemanticUseCase.ClearSemanticCache"

	for _, family := range []string{FamilySemanticSearch, FamilySimilar, FamilyHybridSearch} {
		if err := s.cache.ClearFamily(ctx, family); err != nil {
			return e.Wrap(op, err)
		}
	}

	return nil
}

func (s *SemanticUseCase) CacheStats() CacheStats {
	return s.cache.Stats()
}

// semanticPass — семантический проход без деградации: эмбеддинг запроса,
// запрос к индексу, присоединение каталога. Ошибку возвращает вызывающему:
// публичный SemanticSearch гасит её сам, а гибридное слияние обязано
// опустошить весь результат при сбое любой из ветвей.
func (s *SemanticUseCase) semanticPass(ctx context.Context, query string, limit int) ([]ScoredProduct, error) {
	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}

	hits, err := s.index.Query(ctx, vector, limit*oversampleFactor, 0)
	if err != nil {
		return nil, err
	}

	return s.resolveScored(ctx, hits, 0, limit)
}

// resolveScored присоединяет к попаданиям индекса живые данные каталога:
// товары без строки каталога и без остатка молча выпадают из выдачи.
func (s *SemanticUseCase) resolveScored(ctx context.Context, hits []ScoredID, excludeID int64, limit int) ([]ScoredProduct, error) {
	if len(hits) == 0 {
		return []ScoredProduct{}, nil
	}

	ids := make([]int64, 0, len(hits))
	for _, hit := range hits {
		ids = append(ids, hit.ProductID)
	}

	rows, err := s.productRepo.GetProductsInfo(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]ScoredProduct, 0, limit)
	for _, hit := range hits {
		if hit.ProductID == excludeID {
			continue
		}

		row, ok := rows[hit.ProductID]
		if !ok || row.Stock <= 0 {
			continue
		}

		out = append(out, ScoredProduct{
			ProductRow:      row,
			SimilarityScore: hit.Score,
		})
		if len(out) == limit {
			break
		}
	}

	return out, nil
}

// fuseHybrid объединяет выдачи по идентификатору:
// hybrid = semantic*w + text*(1-w); отсутствующая сторона даёт 0.
func fuseHybrid(semantic []ScoredProduct, text []TextRankRow, w float64) []HybridProduct {
	combined := make(map[int64]*HybridProduct, len(semantic)+len(text))
	order := make([]int64, 0, len(semantic)+len(text))

	for _, sp := range semantic {
		combined[sp.ID] = &HybridProduct{
			ProductRow:    sp.ProductRow,
			SemanticScore: sp.SimilarityScore,
			HybridScore:   sp.SimilarityScore * w,
		}
		order = append(order, sp.ID)
	}

	for _, row := range text {
		if hp, ok := combined[row.ID]; ok {
			hp.TextScore = row.TextRank
			hp.HybridScore += row.TextRank * (1 - w)
			continue
		}

		combined[row.ID] = &HybridProduct{
			ProductRow:  row.ProductRow,
			TextScore:   row.TextRank,
			HybridScore: row.TextRank * (1 - w),
		}
		order = append(order, row.ID)
	}

	out := make([]HybridProduct, 0, len(order))
	for _, id := range order {
		out = append(out, *combined[id])
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].HybridScore > out[j].HybridScore
	})

	return out
}
