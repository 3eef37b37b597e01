package usecase

import (
	"time"

	"github.com/DRSN-tech/marketplace-engine/internal/domain"
	"github.com/shopspring/decimal"
)

// SEARCH

// SearchFilters — нормализованный набор фильтров лексического поиска.
// Nil-поле означает отсутствие фильтра.
type SearchFilters struct {
	Category *string          `json:"category"`
	MinPrice *decimal.Decimal `json:"min_price"`
	MaxPrice *decimal.Decimal `json:"max_price"`
}

type SearchProductsReq struct {
	Query   string
	Filters SearchFilters
	Limit   int
	Offset  int
}

// ProductRow — DTO товара с живыми данными каталога и названием категории.
type ProductRow struct {
	ID           int64            `json:"id"`
	Name         string           `json:"name"`
	Description  string           `json:"description"`
	Price        decimal.Decimal  `json:"price"`
	Stock        int64            `json:"stock"`
	Tags         []string         `json:"tags"`
	SellerID     string           `json:"seller_id"`
	CategoryName string           `json:"category_name"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    *time.Time       `json:"updated_at"`
}

type RankedProduct struct {
	ProductRow
	RelevanceScore float64 `json:"relevance_score"`
}

type SearchProductsRes struct {
	Products     []RankedProduct `json:"products"`
	TotalCount   int64           `json:"total_count"`
	Limit        int             `json:"limit"`
	Offset       int             `json:"offset"`
	Query        string          `json:"query"`
	Filters      SearchFilters   `json:"filters"`
	CacheHit     bool            `json:"cache_hit"`
	CacheHitRate float64         `json:"cache_hit_rate"`
}

// VECTOR / HYBRID

// ScoredID — попадание векторного индекса: идентификатор и косинусная
// близость (1 - косинусное расстояние).
type ScoredID struct {
	ProductID int64
	Score     float64
}

type ScoredProduct struct {
	ProductRow
	SimilarityScore float64 `json:"similarity_score"`
}

type TextRankRow struct {
	ProductRow
	TextRank float64 `json:"text_rank"`
}

type HybridProduct struct {
	ProductRow
	SemanticScore float64 `json:"semantic_score"`
	TextScore     float64 `json:"text_score"`
	HybridScore   float64 `json:"hybrid_score"`
}

// RECOMMENDATIONS

// GraphHit — сырое попадание графа покупок до присоединения живых данных
// каталога. Signal — количество покупателей/покупок за рекомендацией.
type GraphHit struct {
	ProductID int64
	Signal    int64
}

type RecommendationKind string

const (
	RecAlsoBought     RecommendationKind = "also_bought"
	RecBoughtTogether RecommendationKind = "bought_together"
	RecPersonalized   RecommendationKind = "personalized"
	RecTrending       RecommendationKind = "trending"
)

type RecommendationItem struct {
	ProductRow
	Signal int64              `json:"signal"`
	Kind   RecommendationKind `json:"kind"`
}

// RecommendationBundle — сводная подборка нескольких стратегий.
type RecommendationBundle struct {
	Personalized             []RecommendationItem `json:"personalized"`
	SimilarProducts          []ScoredProduct      `json:"similar_products"`
	AlsoBought               []RecommendationItem `json:"also_bought"`
	FrequentlyBoughtTogether []RecommendationItem `json:"frequently_bought_together"`
}

// CART

type CartSummary struct {
	TotalItems int64           `json:"total_items"`
	TotalPrice decimal.Decimal `json:"total_price"`
	ItemCount  int             `json:"item_count"`
}

type CartOpRes struct {
	Success bool         `json:"success"`
	Message string       `json:"message,omitempty"`
	Cart    *domain.Cart `json:"cart,omitempty"`
	Summary *CartSummary `json:"summary,omitempty"`
}

type ConvertToOrderRes struct {
	Success bool         `json:"success"`
	Message string       `json:"message,omitempty"`
	OrderID string       `json:"order_id,omitempty"`
	Summary *CartSummary `json:"order_summary,omitempty"`
}

// CACHE

type CacheStats struct {
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	HitRate float64 `json:"hit_rate"`
}

// OUTBOX

type OutboxStatus string

const (
	Pending    OutboxStatus = "pending"
	Processing OutboxStatus = "processing"
	Processed  OutboxStatus = "processed"
)

// OrderCreatedEvent — тип события о созданном заказе; его потребляет
// проектор графа покупок, держащий граф согласованным в конечном счёте.
const OrderCreatedEvent = "order_created"

type OutboxEvent struct {
	ID          int64
	EventID     string
	EventType   string
	OrderID     string
	Payload     []byte
	Status      OutboxStatus
	CreatedAt   time.Time
	ProcessedAt *time.Time
}

type WriteRawMessageReq struct {
	OrderID string
	Payload []byte
}

// MAPPERS

func NewOutboxEvent(eventID string, eventType string, orderID string, payload []byte) *OutboxEvent {
	return &OutboxEvent{
		EventID:   eventID,
		EventType: eventType,
		OrderID:   orderID,
		Payload:   payload,
		Status:    Pending,
		CreatedAt: time.Now().UTC(),
	}
}

func NewWriteRawMessageReq(orderID string, payload []byte) *WriteRawMessageReq {
	return &WriteRawMessageReq{
		OrderID: orderID,
		Payload: payload,
	}
}

func NewSearchProductsReq(query string, filters SearchFilters, limit int, offset int) *SearchProductsReq {
	return &SearchProductsReq{
		Query:   query,
		Filters: filters,
		Limit:   limit,
		Offset:  offset,
	}
}
