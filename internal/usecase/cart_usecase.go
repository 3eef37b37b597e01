package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/DRSN-tech/marketplace-engine/internal/domain"
	"github.com/DRSN-tech/marketplace-engine/pkg/e"
	"github.com/DRSN-tech/marketplace-engine/pkg/logger"
)

// CartUseCase — корзина и её конверсия в заказ. Операции корзины кодируют
// бизнес-отказы полем Success; конверсия fail-closed: все реляционные
// записи проходят в одной транзакции либо откатываются целиком.
type CartUseCase struct {
	cartRepo    CartRepository
	productRepo ProductRepository
	orderRepo   OrderRepository
	outboxRepo  OutboxRepository
	txManager   TxManager
	cache       *CacheGateway
	logger      logger.Logger
}

func NewCartUC(cartRepo CartRepository, productRepo ProductRepository, orderRepo OrderRepository, outboxRepo OutboxRepository, txManager TxManager, cache *CacheGateway, logger logger.Logger) *CartUseCase {
	return &CartUseCase{
		cartRepo:    cartRepo,
		productRepo: productRepo,
		orderRepo:   orderRepo,
		outboxRepo:  outboxRepo,
		txManager:   txManager,
		cache:       cache,
		logger:      logger,
	}
}

// Add кладёт товар в корзину, снимая живой снимок цены и названия.
// Проверка остатка здесь рекомендательная: окончательную даёт конверсия.
func (c *CartUseCase) Add(ctx context.Context, userID string, productID int64, quantity int64) *CartOpRes {
	const op = "CartUseCase.Add"

	if userID == "" {
		return failRes("User ID is required")
	}
	if quantity <= 0 {
		return failRes("Quantity must be positive")
	}

	info, err := c.productRepo.GetProductInfo(ctx, productID)
	if err != nil {
		c.logger.Warnf("%v", e.Wrap(op, err))
		return failRes("Failed to add item to cart")
	}
	if info == nil {
		return failRes("Product not found")
	}
	if info.Stock < quantity {
		return failRes(fmt.Sprintf("Insufficient stock. Available: %d", info.Stock))
	}

	cart, err := c.cartRepo.Mutate(ctx, userID, func(cur *domain.Cart) (*domain.Cart, error) {
		if cur == nil {
			cur = domain.NewCart(userID)
		}

		newQuantity := quantity
		if line, ok := cur.Items[productID]; ok {
			newQuantity += line.Quantity
		}
		if newQuantity > info.Stock {
			return nil, e.ErrInsufficientStock
		}

		cur.Items[productID] = domain.CartItem{
			Quantity: newQuantity,
			Price:    info.Price,
			Name:     info.Name,
		}
		cur.UpdatedAt = time.Now().UTC()

		return cur, nil
	})
	if err != nil {
		if errors.Is(err, e.ErrInsufficientStock) {
			return failRes(fmt.Sprintf("Cannot add %d more. Total would exceed stock (%d)", quantity, info.Stock))
		}

		c.logger.Warnf("%v", e.Wrap(op, err))
		return failRes("Failed to add item to cart")
	}

	return okRes("Item added to cart", cart)
}

// Remove убирает позицию из корзины.
func (c *CartUseCase) Remove(ctx context.Context, userID string, productID int64) *CartOpRes {
	const op = "CartUseCase.Remove"

	cart, err := c.cartRepo.Mutate(ctx, userID, func(cur *domain.Cart) (*domain.Cart, error) {
		if cur == nil {
			return nil, e.ErrItemNotInCart
		}
		if _, ok := cur.Items[productID]; !ok {
			return nil, e.ErrItemNotInCart
		}

		delete(cur.Items, productID)
		cur.UpdatedAt = time.Now().UTC()

		return cur, nil
	})
	if err != nil {
		if errors.Is(err, e.ErrItemNotInCart) {
			return failRes("Item not found in cart")
		}

		c.logger.Warnf("%v", e.Wrap(op, err))
		return failRes("Failed to remove item from cart")
	}

	return okRes("Item removed from cart", cart)
}

// UpdateQuantity выставляет количество позиции; ноль эквивалентен Remove.
func (c *CartUseCase) UpdateQuantity(ctx context.Context, userID string, productID int64, quantity int64) *CartOpRes {
	const op = "CartUseCase.UpdateQuantity"

	if quantity < 0 {
		return failRes("Quantity cannot be negative")
	}
	if quantity == 0 {
		return c.Remove(ctx, userID, productID)
	}

	info, err := c.productRepo.GetProductInfo(ctx, productID)
	if err != nil {
		c.logger.Warnf("%v", e.Wrap(op, err))
		return failRes("Failed to update quantity")
	}
	if info == nil {
		return failRes("Product not found")
	}
	if info.Stock < quantity {
		return failRes(fmt.Sprintf("Insufficient stock. Available: %d", info.Stock))
	}

	cart, err := c.cartRepo.Mutate(ctx, userID, func(cur *domain.Cart) (*domain.Cart, error) {
		if cur == nil {
			return nil, e.ErrItemNotInCart
		}

		line, ok := cur.Items[productID]
		if !ok {
			return nil, e.ErrItemNotInCart
		}

		line.Quantity = quantity
		cur.Items[productID] = line
		cur.UpdatedAt = time.Now().UTC()

		return cur, nil
	})
	if err != nil {
		if errors.Is(err, e.ErrItemNotInCart) {
			return failRes("Item not found in cart")
		}

		c.logger.Warnf("%v", e.Wrap(op, err))
		return failRes("Failed to update quantity")
	}

	return okRes("Item quantity updated", cart)
}

// Get возвращает корзину с итогами; отсутствующая корзина — пустая.
func (c *CartUseCase) Get(ctx context.Context, userID string) *CartOpRes {
	const op = "CartUseCase.Get"

	cart, err := c.cartRepo.Get(ctx, userID)
	if err != nil {
		c.logger.Warnf("%v", e.Wrap(op, err))
		return failRes("Failed to retrieve cart")
	}

	return okRes("", cart)
}

// Clear удаляет корзину целиком.
func (c *CartUseCase) Clear(ctx context.Context, userID string) *CartOpRes {
	const op = "CartUseCase.Clear"

	if err := c.cartRepo.Delete(ctx, userID); err != nil {
		c.logger.Warnf("%v", e.Wrap(op, err))
		return failRes("Failed to clear cart")
	}

	return okRes("Cart cleared", nil)
}

// CartExpiry возвращает оставшийся TTL корзины в секундах.
func (c *CartUseCase) CartExpiry(ctx context.Context, userID string) (int64, error) {
	const op = "CartUseCase.CartExpiry"

	ttl, err := c.cartRepo.Expiry(ctx, userID)
	if err != nil {
		return 0, e.Wrap(op, err)
	}

	return int64(ttl.Seconds()), nil
}

type orderEventItem struct {
	ProductID int64 `json:"product_id"`
	Quantity  int64 `json:"quantity"`
}

type orderEventPayload struct {
	OrderID   string           `json:"order_id"`
	UserID    string           `json:"user_id"`
	Items     []orderEventItem `json:"items"`
	CreatedAt time.Time        `json:"created_at"`
}

// ConvertToOrder превращает корзину в заказ. ID заказа — чистая функция
// пользователя и отпечатка корзины, а вставка идёт с ON CONFLICT DO
// NOTHING: повтор после сбоя между коммитом и удалением корзины находит
// уже созданный заказ и не продаёт товар дважды.
func (c *CartUseCase) ConvertToOrder(ctx context.Context, userID string, address domain.Address) *ConvertToOrderRes {
	const op = "CartUseCase.ConvertToOrder"

	if userID == "" {
		return &ConvertToOrderRes{Success: false, Message: "User ID is required"}
	}

	cart, err := c.cartRepo.Get(ctx, userID)
	if err != nil {
		c.logger.Warnf("%v", e.Wrap(op, err))
		return &ConvertToOrderRes{Success: false, Message: "Failed to create order"}
	}
	if cart.IsEmpty() {
		return &ConvertToOrderRes{Success: false, Message: "Cart is empty"}
	}

	summary := Summarize(cart)
	orderID := domain.NewOrderID(userID, cart.Fingerprint())

	var (
		alreadyConverted bool
		failure          string
	)

	err = c.txManager.WithinTransaction(ctx, func(txCtx context.Context) error {
		created, err := c.orderRepo.CreateOrder(txCtx, domain.NewOrder(orderID, userID, address))
		if err != nil {
			return err
		}
		if !created {
			alreadyConverted = true
			return nil
		}

		items := make([]domain.OrderItem, 0, len(cart.Items))
		// детерминированный порядок строк, чтобы конкурирующие конверсии
		// брали блокировки остатков в одном порядке
		for _, productID := range cart.SortedProductIDs() {
			line := cart.Items[productID]

			if err := c.productRepo.DecrementStock(txCtx, productID, line.Quantity); err != nil {
				switch {
				case errors.Is(err, e.ErrInsufficientStock):
					failure = fmt.Sprintf("Insufficient stock for %s", line.Name)
				case errors.Is(err, e.ErrProductNotFound):
					failure = fmt.Sprintf("Product %d not found", productID)
				}

				return err
			}

			items = append(items, domain.NewOrderItem(orderID, productID, line.Quantity))
		}

		if err := c.orderRepo.CreateOrderItems(txCtx, items); err != nil {
			return err
		}

		eventItems := make([]orderEventItem, 0, len(items))
		for _, item := range items {
			eventItems = append(eventItems, orderEventItem{
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
			})
		}

		payload, err := json.Marshal(orderEventPayload{
			OrderID:   orderID,
			UserID:    userID,
			Items:     eventItems,
			CreatedAt: time.Now().UTC(),
		})
		if err != nil {
			return err
		}

		if _, err := c.outboxRepo.Create(txCtx, NewOutboxEvent(uuid.NewString(), OrderCreatedEvent, orderID, payload)); err != nil {
			return err
		}

		return nil
	})
	if err != nil {
		if failure == "" {
			c.logger.Warnf("%v", e.Wrap(op, err))
			failure = "Failed to create order"
		}

		return &ConvertToOrderRes{Success: false, Message: failure}
	}

	if err := c.cartRepo.Delete(ctx, userID); err != nil {
		// корзина умрёт по TTL, а повторная конверсия идемпотентна по ID
		c.logger.Warnf("failed to delete cart after conversion: %v", e.Wrap(op, err))
	}

	c.invalidateAfterConversion(ctx, userID, cart)

	message := "Order created successfully"
	if alreadyConverted {
		message = "Order already created"
	}

	return &ConvertToOrderRes{
		Success: true,
		Message: message,
		OrderID: orderID,
		Summary: &summary,
	}
}

// Покупка меняет граф, значит устаревают тренды и рекомендации по
// затронутым пользователю и товарам.
func (c *CartUseCase) invalidateAfterConversion(ctx context.Context, userID string, cart *domain.Cart) {
	if err := c.cache.ClearFamily(ctx, FamilyTrending); err != nil {
		c.logger.Warnf("cache invalidation failed: %v", err)
	}

	if err := c.cache.ClearPrefix(ctx, FamilyPersonalized+":"+userID+":"); err != nil {
		c.logger.Warnf("cache invalidation failed: %v", err)
	}

	for _, productID := range cart.SortedProductIDs() {
		pid := strconv.FormatInt(productID, 10)
		for _, family := range []string{FamilyAlsoBought, FamilyBoughtTogether} {
			if err := c.cache.ClearPrefix(ctx, family+":"+pid+":"); err != nil {
				c.logger.Warnf("cache invalidation failed: %v", err)
			}
		}
	}
}

// Summarize считает итоги корзины.
func Summarize(cart *domain.Cart) CartSummary {
	var totalItems int64
	totalPrice := decimal.Zero

	for _, item := range cart.Items {
		totalItems += item.Quantity
		totalPrice = totalPrice.Add(item.Price.Mul(decimal.NewFromInt(item.Quantity)))
	}

	return CartSummary{
		TotalItems: totalItems,
		TotalPrice: totalPrice.Round(2),
		ItemCount:  len(cart.Items),
	}
}

func failRes(message string) *CartOpRes {
	return &CartOpRes{Success: false, Message: message}
}

func okRes(message string, cart *domain.Cart) *CartOpRes {
	if cart == nil {
		cart = &domain.Cart{Items: map[int64]domain.CartItem{}}
	}

	summary := Summarize(cart)

	return &CartOpRes{
		Success: true,
		Message: message,
		Cart:    cart,
		Summary: &summary,
	}
}
