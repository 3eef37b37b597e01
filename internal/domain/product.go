package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product описывает товар каталога.
// Инварианты: Price >= 0, Stock >= 0 (за неотрицательность запаса отвечает
// условный декремент в реляционном хранилище).
type Product struct {
	ID          int64
	Name        string
	Description string
	Price       decimal.Decimal
	Stock       int64
	Tags        []string
	SellerID    string
	CategoryID  int64
	CreatedAt   time.Time
	UpdatedAt   *time.Time
}

func NewProduct(name string, description string, price decimal.Decimal, stock int64, tags []string, sellerID string, categoryID int64) *Product {
	return &Product{
		Name:        name,
		Description: description,
		Price:       price,
		Stock:       stock,
		Tags:        tags,
		SellerID:    sellerID,
		CategoryID:  categoryID,
	}
}
