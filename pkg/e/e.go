package e

import "fmt"

var (
	// Внутренние ошибки с транзакциями
	ErrTransactionNotFound = fmt.Errorf("transaction not found")

	// Внутренние ошибки с векторами
	ErrEmptyVector        = fmt.Errorf("empty embedding vector")
	ErrVectorSizeMismatch = fmt.Errorf("embedding vector size mismatch")

	// Ошибки валидации: всегда возвращаются вызывающему с читаемой причиной
	ErrQuantityMustBePositive = fmt.Errorf("quantity must be positive")
	ErrQuantityNegative       = fmt.Errorf("quantity cannot be negative")
	ErrProductNotFound        = fmt.Errorf("product not found")
	ErrInsufficientStock      = fmt.Errorf("insufficient stock")
	ErrItemNotInCart          = fmt.Errorf("item not found in cart")
	ErrCartEmpty              = fmt.Errorf("cart is empty")
	ErrInvalidWeight          = fmt.Errorf("semantic weight must be between 0 and 1")
	ErrInvalidPage            = fmt.Errorf("limit and offset must be non-negative")
	ErrUserIDRequired         = fmt.Errorf("user id is required")

	// 400 Bad Request
	ErrStatusBadRequest = fmt.Errorf("bad request")
	ErrInvalidPrice     = fmt.Errorf("invalid price")
	ErrMissingFields    = fmt.Errorf("missing required fields")

	// 500
	ErrInternalServerError = fmt.Errorf("internal server error")

	ErrIncorrectEnvVariable = fmt.Errorf("incorrect environment variable")
)

// Wrap оборачивает ошибку
func Wrap(msg string, err error) error {
	return fmt.Errorf("%s: %w", msg, err)
}
