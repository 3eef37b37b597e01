package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// CartItem — строка корзины. Цена и название зафиксированы на момент
// добавления, чтобы отвязать отображение корзины от параллельных правок
// каталога; при конверсии запас перепроверяется по живым данным.
type CartItem struct {
	Quantity int64           `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
	Name     string          `json:"name"`
}

// Cart — эфемерное состояние корзины пользователя в key-value хранилище.
// Жизненный цикл: создаётся первым добавлением, продлевается каждой
// мутацией, удаляется при очистке, конверсии в заказ или по истечении TTL.
type Cart struct {
	UserID    string             `json:"user_id"`
	Items     map[int64]CartItem `json:"items"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

func NewCart(userID string) *Cart {
	now := time.Now().UTC()
	return &Cart{
		UserID:    userID,
		Items:     make(map[int64]CartItem),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (c *Cart) IsEmpty() bool {
	return c == nil || len(c.Items) == 0
}

// Fingerprint — детерминированный отпечаток содержимого корзины.
// Используется как ключ идемпотентности конверсии: повтор конверсии той же
// корзины порождает тот же идентификатор заказа.
func (c *Cart) Fingerprint() string {
	ids := make([]int64, 0, len(c.Items))
	for id := range c.Items {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	h := sha256.New()
	fmt.Fprintf(h, "%s|%d", c.UserID, c.CreatedAt.UnixNano())
	for _, id := range ids {
		fmt.Fprintf(h, "|%d:%d", id, c.Items[id].Quantity)
	}

	return hex.EncodeToString(h.Sum(nil))
}

// SortedProductIDs возвращает идентификаторы строк корзины по возрастанию,
// чтобы записи конверсии шли в детерминированном порядке.
func (c *Cart) SortedProductIDs() []int64 {
	ids := make([]int64, 0, len(c.Items))
	for id := range c.Items {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
