package domain

import (
	"fmt"
	"time"
)

// Address — адрес доставки, сохраняется вместе с заказом.
type Address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	Zip     string `json:"zip"`
	Country string `json:"country"`
}

// Order — долговременный заказ. Создаётся ровно один раз на успешную
// конверсию корзины и после создания неизменяем.
type Order struct {
	ID        string
	UserID    string
	Address   Address
	CreatedAt time.Time
}

// OrderItem — строка заказа.
type OrderItem struct {
	ID        string
	OrderID   string
	ProductID int64
	Quantity  int64
}

// NewOrderID выводит идентификатор заказа из пользователя и отпечатка
// корзины: повторная попытка конверсии той же корзины даёт тот же ID, что
// делает запись на реляционной стороне естественно идемпотентной.
func NewOrderID(userID string, cartFingerprint string) string {
	const fingerprintLen = 16
	fp := cartFingerprint
	if len(fp) > fingerprintLen {
		fp = fp[:fingerprintLen]
	}
	return fmt.Sprintf("order_%s_%s", userID, fp)
}

func NewOrderItemID(orderID string, productID int64) string {
	return fmt.Sprintf("order_item_%s_%d", orderID, productID)
}

func NewOrder(id string, userID string, address Address) *Order {
	return &Order{
		ID:      id,
		UserID:  userID,
		Address: address,
	}
}

func NewOrderItem(orderID string, productID int64, quantity int64) OrderItem {
	return OrderItem{
		ID:        NewOrderItemID(orderID, productID),
		OrderID:   orderID,
		ProductID: productID,
		Quantity:  quantity,
	}
}
