package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/DRSN-tech/marketplace-engine/internal/domain"
	"github.com/DRSN-tech/marketplace-engine/internal/usecase"
	"github.com/DRSN-tech/marketplace-engine/pkg/e"
	"github.com/DRSN-tech/marketplace-engine/pkg/logger"
)

type CartHandler struct {
	cartUsecase usecase.CartUC
	logger      logger.Logger
}

func NewCartHandler(cartUsecase usecase.CartUC, logger logger.Logger) *CartHandler {
	return &CartHandler{cartUsecase: cartUsecase, logger: logger}
}

type addItemRequest struct {
	ProductID int64 `json:"product_id"`
	Quantity  int64 `json:"quantity"`
}

type updateQuantityRequest struct {
	Quantity int64 `json:"quantity"`
}

type checkoutRequest struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	Zip     string `json:"zip"`
	Country string `json:"country"`
}

// Бизнес-отказ операции с корзиной — валидный ответ с success=false,
// а не ошибка транспорта.
func writeCartRes(w http.ResponseWriter, res *usecase.CartOpRes) {
	status := http.StatusOK
	if !res.Success {
		status = http.StatusBadRequest
	}

	WriteSuccess(w, status, res)
}

// addItem
//
//	@Summary	Добавить товар в корзину
//	@Tags		cart
//	@Accept		json
//	@Produce	json
//	@Param		userID	path		string			true	"ID пользователя"
//	@Param		body	body		addItemRequest	true	"Товар и количество"
//	@Success	200		{object}	usecase.CartOpRes
//	@Failure	400		{object}	usecase.CartOpRes
//	@Router		/cart/{userID}/items [post]
func (h *CartHandler) addItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, e.ErrStatusBadRequest)
		return
	}

	res := h.cartUsecase.Add(r.Context(), chi.URLParam(r, "userID"), req.ProductID, req.Quantity)
	writeCartRes(w, res)
}

// updateItem
//
//	@Summary	Изменить количество позиции
//	@Tags		cart
//	@Accept		json
//	@Produce	json
//	@Param		userID		path		string					true	"ID пользователя"
//	@Param		productID	path		int						true	"ID товара"
//	@Param		body		body		updateQuantityRequest	true	"Новое количество; 0 удаляет позицию"
//	@Success	200			{object}	usecase.CartOpRes
//	@Failure	400			{object}	usecase.CartOpRes
//	@Router		/cart/{userID}/items/{productID} [put]
func (h *CartHandler) updateItem(w http.ResponseWriter, r *http.Request) {
	productID, err := pathInt64(chi.URLParam(r, "productID"))
	if err != nil {
		WriteError(w, err)
		return
	}

	var req updateQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, e.ErrStatusBadRequest)
		return
	}

	res := h.cartUsecase.UpdateQuantity(r.Context(), chi.URLParam(r, "userID"), productID, req.Quantity)
	writeCartRes(w, res)
}

// removeItem
//
//	@Summary	Убрать товар из корзины
//	@Tags		cart
//	@Produce	json
//	@Param		userID		path		string	true	"ID пользователя"
//	@Param		productID	path		int		true	"ID товара"
//	@Success	200			{object}	usecase.CartOpRes
//	@Failure	400			{object}	usecase.CartOpRes
//	@Router		/cart/{userID}/items/{productID} [delete]
func (h *CartHandler) removeItem(w http.ResponseWriter, r *http.Request) {
	productID, err := pathInt64(chi.URLParam(r, "productID"))
	if err != nil {
		WriteError(w, err)
		return
	}

	res := h.cartUsecase.Remove(r.Context(), chi.URLParam(r, "userID"), productID)
	writeCartRes(w, res)
}

// getCart
//
//	@Summary	Корзина с итогами
//	@Tags		cart
//	@Produce	json
//	@Param		userID	path		string	true	"ID пользователя"
//	@Success	200		{object}	usecase.CartOpRes
//	@Router		/cart/{userID} [get]
func (h *CartHandler) getCart(w http.ResponseWriter, r *http.Request) {
	res := h.cartUsecase.Get(r.Context(), chi.URLParam(r, "userID"))
	writeCartRes(w, res)
}

// clearCart
//
//	@Summary	Очистить корзину
//	@Tags		cart
//	@Produce	json
//	@Param		userID	path		string	true	"ID пользователя"
//	@Success	200		{object}	usecase.CartOpRes
//	@Router		/cart/{userID} [delete]
func (h *CartHandler) clearCart(w http.ResponseWriter, r *http.Request) {
	res := h.cartUsecase.Clear(r.Context(), chi.URLParam(r, "userID"))
	writeCartRes(w, res)
}

// cartExpiry
//
//	@Summary	Оставшийся TTL корзины в секундах
//	@Tags		cart
//	@Produce	json
//	@Param		userID	path		string	true	"ID пользователя"
//	@Success	200		{object}	map[string]int64
//	@Router		/cart/{userID}/expiry [get]
func (h *CartHandler) cartExpiry(w http.ResponseWriter, r *http.Request) {
	seconds, err := h.cartUsecase.CartExpiry(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		h.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, map[string]int64{"expires_in": seconds})
}

// checkout
//
//	@Summary		Конверсия корзины в заказ
//	@Description	Проверяет остатки, списывает их и создаёт заказ атомарно
//	@Tags			cart
//	@Accept			json
//	@Produce		json
//	@Param			userID	path		string			true	"ID пользователя"
//	@Param			body	body		checkoutRequest	true	"Адрес доставки"
//	@Success		201		{object}	usecase.ConvertToOrderRes
//	@Failure		400		{object}	usecase.ConvertToOrderRes
//	@Router			/cart/{userID}/checkout [post]
func (h *CartHandler) checkout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, e.ErrStatusBadRequest)
		return
	}

	if req.Street == "" || req.City == "" || req.Country == "" {
		WriteError(w, e.ErrMissingFields)
		return
	}

	res := h.cartUsecase.ConvertToOrder(r.Context(), chi.URLParam(r, "userID"), domain.Address{
		Street:  req.Street,
		City:    req.City,
		Zip:     req.Zip,
		Country: req.Country,
	})

	status := http.StatusCreated
	if !res.Success {
		status = http.StatusBadRequest
	}

	WriteSuccess(w, status, res)
}
