package usecase

import (
	"context"
	"time"

	"github.com/DRSN-tech/marketplace-engine/internal/domain"
)

// ProductRepository — реляционный доступ к каталогу.
type ProductRepository interface {
	// SearchCandidates отдаёт ограниченное окно кандидатов по текстовому
	// совпадению и фильтрам; итоговое ранжирование выполняет usecase.
	SearchCandidates(ctx context.Context, query string, filters SearchFilters, cap int) ([]ProductRow, error)
	CountProducts(ctx context.Context, query string, filters SearchFilters) (int64, error)
	SearchByCategory(ctx context.Context, category string, limit int) ([]ProductRow, error)
	SuggestNames(ctx context.Context, prefix string, limit int) ([]string, error)
	// GetProductInfo возвращает (nil, nil), если товара нет.
	GetProductInfo(ctx context.Context, productID int64) (*ProductRow, error)
	GetProductsInfo(ctx context.Context, productIDs []int64) (map[int64]ProductRow, error)
	TextRank(ctx context.Context, query string, limit int) ([]TextRankRow, error)
	// DecrementStock уменьшает остаток только при достаточном количестве;
	// иначе возвращает ErrInsufficientStock либо ErrProductNotFound.
	DecrementStock(ctx context.Context, productID int64, quantity int64) error
}

// OrderRepository пишет заказы в рамках транзакции из контекста.
type OrderRepository interface {
	// CreateOrder возвращает created=false, если заказ с таким ID уже есть.
	CreateOrder(ctx context.Context, order *domain.Order) (bool, error)
	CreateOrderItems(ctx context.Context, items []domain.OrderItem) error
}

// CartRepository хранит корзины покупателей.
type CartRepository interface {
	// Get возвращает пустую корзину, если строки нет.
	Get(ctx context.Context, userID string) (*domain.Cart, error)
	// Mutate атомарно применяет fn к текущему состоянию корзины
	// (nil — корзины нет); опустевшая корзина удаляется, а не хранится
	// пустой строкой.
	Mutate(ctx context.Context, userID string, fn func(cur *domain.Cart) (*domain.Cart, error)) (*domain.Cart, error)
	Delete(ctx context.Context, userID string) error
	Expiry(ctx context.Context, userID string) (time.Duration, error)
}

// EmbeddingIndex — векторный индекс товарных эмбеддингов.
type EmbeddingIndex interface {
	Upsert(ctx context.Context, embedding *domain.Embedding) error
	// Query возвращает ближайших соседей по косинусной близости;
	// excludeID > 0 исключает исходный товар из выдачи.
	Query(ctx context.Context, vector []float32, limit int, excludeID int64) ([]ScoredID, error)
	// Fetch возвращает (nil, nil), если эмбеддинга для товара нет.
	Fetch(ctx context.Context, productID int64) ([]float32, error)
}

// GraphRepository — запросы к графу покупок.
type GraphRepository interface {
	AlsoBought(ctx context.Context, productID int64, limit int) ([]GraphHit, error)
	BoughtTogether(ctx context.Context, productID int64, limit int) ([]GraphHit, error)
	Personalized(ctx context.Context, userID string, limit int) ([]GraphHit, error)
	Trending(ctx context.Context, limit int) ([]GraphHit, error)
}

// CacheRepository — низкоуровневое KV-хранилище кэша.
type CacheRepository interface {
	// GetJSON возвращает found=false при отсутствии ключа; отсутствие —
	// промах, а не ошибка.
	GetJSON(ctx context.Context, key string, dest any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	DeletePrefix(ctx context.Context, prefix string) error
}

// OutboxRepository хранит события для надёжной доставки в брокер.
type OutboxRepository interface {
	Create(ctx context.Context, event *OutboxEvent) (int64, error)
	GetAndMarkAsProcessing(ctx context.Context, batchSize int) ([]OutboxEvent, error)
	MarkAsProcessed(ctx context.Context, ids []int64) error
}

// TxManager исполняет fn внутри одной реляционной транзакции; транзакция
// кладётся в контекст и извлекается репозиториями через pkg/tr.
type TxManager interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
