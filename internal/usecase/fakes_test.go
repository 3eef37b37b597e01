package usecase

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/DRSN-tech/marketplace-engine/internal/cfg"
	"github.com/DRSN-tech/marketplace-engine/internal/domain"
	"github.com/DRSN-tech/marketplace-engine/pkg/e"
)

type nopLogger struct{}

func (nopLogger) Debugf(format string, args ...any)            {}
func (nopLogger) Infof(format string, args ...any)             {}
func (nopLogger) Warnf(format string, args ...any)             {}
func (nopLogger) Errorf(err error, format string, args ...any) {}

func testCacheCfg() *cfg.CacheCfg {
	return &cfg.CacheCfg{
		SearchTTL:         time.Hour,
		SuggestionsTTL:    5 * time.Minute,
		SemanticTTL:       time.Hour,
		RecommendationTTL: time.Hour,
		TrendingTTL:       30 * time.Minute,
		CartTTL:           24 * time.Hour,
	}
}

// fakeCacheRepo — потокобезопасное in-memory KV-хранилище кэша.
type fakeCacheRepo struct {
	mu      sync.Mutex
	data    map[string][]byte
	failing bool
}

func newFakeCacheRepo() *fakeCacheRepo {
	return &fakeCacheRepo{data: make(map[string][]byte)}
}

func (f *fakeCacheRepo) GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failing {
		return false, e.ErrInternalServerError
	}

	data, ok := f.data[key]
	if !ok {
		return false, nil
	}

	return true, json.Unmarshal(data, dest)
}

func (f *fakeCacheRepo) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failing {
		return e.ErrInternalServerError
	}

	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	f.data[key] = data
	return nil
}

func (f *fakeCacheRepo) DeletePrefix(ctx context.Context, prefix string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for key := range f.data {
		if strings.HasPrefix(key, prefix) {
			delete(f.data, key)
		}
	}

	return nil
}

func (f *fakeCacheRepo) keys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	keys := make([]string, 0, len(f.data))
	for key := range f.data {
		keys = append(keys, key)
	}

	return keys
}

// fakeProductRepo — каталог в памяти.
type fakeProductRepo struct {
	mu         sync.Mutex
	rows       map[int64]ProductRow
	candidates []ProductRow
	total      int64
	textRows   []TextRankRow
	names      []string
	byCategory []ProductRow

	searchErr error
	countErr  error
	infoErr   error
	textErr   error

	decrements [][2]int64
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{rows: make(map[int64]ProductRow)}
}

func (f *fakeProductRepo) SearchCandidates(ctx context.Context, query string, filters SearchFilters, cap int) ([]ProductRow, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.candidates, nil
}

func (f *fakeProductRepo) CountProducts(ctx context.Context, query string, filters SearchFilters) (int64, error) {
	if f.countErr != nil {
		return 0, f.countErr
	}
	return f.total, nil
}

func (f *fakeProductRepo) SearchByCategory(ctx context.Context, category string, limit int) ([]ProductRow, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.byCategory, nil
}

func (f *fakeProductRepo) SuggestNames(ctx context.Context, prefix string, limit int) ([]string, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.names, nil
}

func (f *fakeProductRepo) GetProductInfo(ctx context.Context, productID int64) (*ProductRow, error) {
	if f.infoErr != nil {
		return nil, f.infoErr
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	row, ok := f.rows[productID]
	if !ok {
		return nil, nil
	}
	return &row, nil
}

func (f *fakeProductRepo) GetProductsInfo(ctx context.Context, ids []int64) (map[int64]ProductRow, error) {
	if f.infoErr != nil {
		return nil, f.infoErr
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	result := make(map[int64]ProductRow, len(ids))
	for _, id := range ids {
		if row, ok := f.rows[id]; ok {
			result[id] = row
		}
	}
	return result, nil
}

func (f *fakeProductRepo) TextRank(ctx context.Context, query string, limit int) ([]TextRankRow, error) {
	if f.textErr != nil {
		return nil, f.textErr
	}
	return f.textRows, nil
}

func (f *fakeProductRepo) DecrementStock(ctx context.Context, productID int64, quantity int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	row, ok := f.rows[productID]
	if !ok {
		return e.ErrProductNotFound
	}
	if row.Stock < quantity {
		return e.ErrInsufficientStock
	}

	row.Stock -= quantity
	f.rows[productID] = row
	f.decrements = append(f.decrements, [2]int64{productID, quantity})
	return nil
}

func (f *fakeProductRepo) stock(productID int64) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rows[productID].Stock
}

// fakeOrderRepo — заказы в памяти; повторная вставка того же ID сообщает
// created=false, как ON CONFLICT DO NOTHING.
type fakeOrderRepo struct {
	mu     sync.Mutex
	orders map[string]*domain.Order
	items  map[string][]domain.OrderItem

	createErr error
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{
		orders: make(map[string]*domain.Order),
		items:  make(map[string][]domain.OrderItem),
	}
}

func (f *fakeOrderRepo) CreateOrder(ctx context.Context, order *domain.Order) (bool, error) {
	if f.createErr != nil {
		return false, f.createErr
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.orders[order.ID]; ok {
		return false, nil
	}

	f.orders[order.ID] = order
	return true, nil
}

func (f *fakeOrderRepo) CreateOrderItems(ctx context.Context, items []domain.OrderItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, item := range items {
		f.items[item.OrderID] = append(f.items[item.OrderID], item)
	}
	return nil
}

type fakeOutboxRepo struct {
	mu     sync.Mutex
	events []OutboxEvent

	createErr error
}

func (f *fakeOutboxRepo) Create(ctx context.Context, event *OutboxEvent) (int64, error) {
	if f.createErr != nil {
		return 0, f.createErr
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	event.ID = int64(len(f.events) + 1)
	f.events = append(f.events, *event)
	return event.ID, nil
}

func (f *fakeOutboxRepo) GetAndMarkAsProcessing(ctx context.Context, batchSize int) ([]OutboxEvent, error) {
	return nil, nil
}

func (f *fakeOutboxRepo) MarkAsProcessed(ctx context.Context, ids []int64) error {
	return nil
}

// fakeTxManager откатывает состояние фейковых хранилищ при ошибке fn,
// имитируя транзакцию: фиксация - всё или ничего. Транзакции
// сериализуются мьютексом, как конкурирующие записи одних строк в БД.
type fakeTxManager struct {
	mu       sync.Mutex
	products *fakeProductRepo
	orders   *fakeOrderRepo
	outbox   *fakeOutboxRepo
}

func (f *fakeTxManager) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.products.mu.Lock()
	rowsSnapshot := make(map[int64]ProductRow, len(f.products.rows))
	for id, row := range f.products.rows {
		rowsSnapshot[id] = row
	}
	f.products.mu.Unlock()

	f.orders.mu.Lock()
	ordersSnapshot := make(map[string]*domain.Order, len(f.orders.orders))
	for id, order := range f.orders.orders {
		ordersSnapshot[id] = order
	}
	itemsSnapshot := make(map[string][]domain.OrderItem, len(f.orders.items))
	for id, items := range f.orders.items {
		itemsSnapshot[id] = items
	}
	f.orders.mu.Unlock()

	f.outbox.mu.Lock()
	eventsSnapshot := append([]OutboxEvent(nil), f.outbox.events...)
	f.outbox.mu.Unlock()

	if err := fn(ctx); err != nil {
		f.products.mu.Lock()
		f.products.rows = rowsSnapshot
		f.products.mu.Unlock()

		f.orders.mu.Lock()
		f.orders.orders = ordersSnapshot
		f.orders.items = itemsSnapshot
		f.orders.mu.Unlock()

		f.outbox.mu.Lock()
		f.outbox.events = eventsSnapshot
		f.outbox.mu.Unlock()

		return err
	}

	return nil
}

// fakeCartRepo — корзины в памяти с контрактом Mutate боевого репозитория.
type fakeCartRepo struct {
	mu    sync.Mutex
	carts map[string]*domain.Cart

	getErr error
}

func newFakeCartRepo() *fakeCartRepo {
	return &fakeCartRepo{carts: make(map[string]*domain.Cart)}
}

func cloneCart(cart *domain.Cart) *domain.Cart {
	if cart == nil {
		return nil
	}

	clone := *cart
	clone.Items = make(map[int64]domain.CartItem, len(cart.Items))
	for id, item := range cart.Items {
		clone.Items[id] = item
	}
	return &clone
}

func (f *fakeCartRepo) Get(ctx context.Context, userID string) (*domain.Cart, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if cart, ok := f.carts[userID]; ok {
		return cloneCart(cart), nil
	}
	return domain.NewCart(userID), nil
}

func (f *fakeCartRepo) Mutate(ctx context.Context, userID string, fn func(cur *domain.Cart) (*domain.Cart, error)) (*domain.Cart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	next, err := fn(cloneCart(f.carts[userID]))
	if err != nil {
		return nil, err
	}

	if next.IsEmpty() {
		delete(f.carts, userID)
	} else {
		f.carts[userID] = cloneCart(next)
	}
	return next, nil
}

func (f *fakeCartRepo) Delete(ctx context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.carts, userID)
	return nil
}

func (f *fakeCartRepo) Expiry(ctx context.Context, userID string) (time.Duration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.carts[userID]; ok {
		return 24 * time.Hour, nil
	}
	return 0, nil
}

type fakeEmbedder struct {
	vector []float32
	err    error
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.vector, nil
}

type fakeEmbeddingIndex struct {
	vectors map[int64][]float32
	hits    []ScoredID

	queryErr error
	fetchErr error
}

func (f *fakeEmbeddingIndex) Upsert(ctx context.Context, embedding *domain.Embedding) error {
	if f.vectors == nil {
		f.vectors = make(map[int64][]float32)
	}
	f.vectors[embedding.ProductID] = embedding.Vector
	return nil
}

func (f *fakeEmbeddingIndex) Query(ctx context.Context, vector []float32, limit int, excludeID int64) ([]ScoredID, error) {
	if f.queryErr != nil {
		return nil, f.queryErr
	}

	out := make([]ScoredID, 0, limit)
	for _, hit := range f.hits {
		if hit.ProductID == excludeID {
			continue
		}
		out = append(out, hit)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeEmbeddingIndex) Fetch(ctx context.Context, productID int64) ([]float32, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.vectors[productID], nil
}

type fakeGraphRepo struct {
	also     []GraphHit
	together []GraphHit
	personal []GraphHit
	trending []GraphHit

	err error
}

func (f *fakeGraphRepo) AlsoBought(ctx context.Context, productID int64, limit int) ([]GraphHit, error) {
	return f.also, f.err
}

func (f *fakeGraphRepo) BoughtTogether(ctx context.Context, productID int64, limit int) ([]GraphHit, error) {
	return f.together, f.err
}

func (f *fakeGraphRepo) Personalized(ctx context.Context, userID string, limit int) ([]GraphHit, error) {
	return f.personal, f.err
}

func (f *fakeGraphRepo) Trending(ctx context.Context, limit int) ([]GraphHit, error) {
	return f.trending, f.err
}
