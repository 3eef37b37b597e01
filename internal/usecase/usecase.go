package usecase

import (
	"context"

	"github.com/DRSN-tech/marketplace-engine/internal/domain"
)

// SearchUC — лексический поиск по каталогу.
type SearchUC interface {
	SearchProducts(ctx context.Context, req *SearchProductsReq) (*SearchProductsRes, error)
	SearchByCategory(ctx context.Context, category string, limit int) ([]ProductRow, error)
	Suggest(ctx context.Context, prefix string, limit int) ([]string, error)
	ClearSearchCache(ctx context.Context) error
	CacheStats() CacheStats
}

// SemanticUC — векторный и гибридный поиск.
type SemanticUC interface {
	SemanticSearch(ctx context.Context, query string, limit int) ([]ScoredProduct, error)
	MoreLikeThis(ctx context.Context, productID int64, limit int) ([]ScoredProduct, error)
	HybridSearch(ctx context.Context, query string, limit int, semanticWeight float64) ([]HybridProduct, error)
	ClearSemanticCache(ctx context.Context) error
	CacheStats() CacheStats
}

// RecommendationUC — рекомендации поверх графа покупок.
type RecommendationUC interface {
	AlsoBought(ctx context.Context, productID int64, limit int) ([]RecommendationItem, error)
	FrequentlyBoughtTogether(ctx context.Context, productID int64, limit int) ([]RecommendationItem, error)
	Personalized(ctx context.Context, userID string, limit int) ([]RecommendationItem, error)
	Trending(ctx context.Context, limit int) ([]RecommendationItem, error)
	Comprehensive(ctx context.Context, userID string, productID int64, limit int) (*RecommendationBundle, error)
	ClearRecommendationCache(ctx context.Context, userID string, productID int64) error
	CacheStats() CacheStats
}

// CartUC — корзина и конверсия в заказ. Бизнес-отказы кодируются полем
// Success, а не ошибкой.
type CartUC interface {
	Add(ctx context.Context, userID string, productID int64, quantity int64) *CartOpRes
	Remove(ctx context.Context, userID string, productID int64) *CartOpRes
	UpdateQuantity(ctx context.Context, userID string, productID int64, quantity int64) *CartOpRes
	Get(ctx context.Context, userID string) *CartOpRes
	Clear(ctx context.Context, userID string) *CartOpRes
	ConvertToOrder(ctx context.Context, userID string, address domain.Address) *ConvertToOrderRes
	CartExpiry(ctx context.Context, userID string) (int64, error)
}
