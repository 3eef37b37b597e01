package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/DRSN-tech/marketplace-engine/internal/usecase"
	"github.com/DRSN-tech/marketplace-engine/pkg/logger"
)

type RecommendationHandler struct {
	recUsecase usecase.RecommendationUC
	logger     logger.Logger
}

func NewRecommendationHandler(recUsecase usecase.RecommendationUC, logger logger.Logger) *RecommendationHandler {
	return &RecommendationHandler{recUsecase: recUsecase, logger: logger}
}

// alsoBought
//
//	@Summary	С этим товаром покупают
//	@Tags		recommendations
//	@Produce	json
//	@Param		id		path		int	true	"ID товара"
//	@Param		limit	query		int	false	"Размер выдачи"
//	@Success	200		{array}		usecase.RecommendationItem
//	@Failure	400		{object}	ErrorResponse
//	@Router		/products/{id}/also-bought [get]
func (h *RecommendationHandler) alsoBought(w http.ResponseWriter, r *http.Request) {
	productID, err := pathInt64(chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, err)
		return
	}

	limit, err := queryInt(r, "limit", 10)
	if err != nil {
		WriteError(w, err)
		return
	}

	items, err := h.recUsecase.AlsoBought(r.Context(), productID, limit)
	if err != nil {
		h.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, items)
}

// boughtTogether
//
//	@Summary	Часто покупают вместе
//	@Tags		recommendations
//	@Produce	json
//	@Param		id		path		int	true	"ID товара"
//	@Param		limit	query		int	false	"Размер выдачи"
//	@Success	200		{array}		usecase.RecommendationItem
//	@Failure	400		{object}	ErrorResponse
//	@Router		/products/{id}/bought-together [get]
func (h *RecommendationHandler) boughtTogether(w http.ResponseWriter, r *http.Request) {
	productID, err := pathInt64(chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, err)
		return
	}

	limit, err := queryInt(r, "limit", 5)
	if err != nil {
		WriteError(w, err)
		return
	}

	items, err := h.recUsecase.FrequentlyBoughtTogether(r.Context(), productID, limit)
	if err != nil {
		h.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, items)
}

// personalized
//
//	@Summary	Персональные рекомендации
//	@Tags		recommendations
//	@Produce	json
//	@Param		userID	path		string	true	"ID пользователя"
//	@Param		limit	query		int		false	"Размер выдачи"
//	@Success	200		{array}		usecase.RecommendationItem
//	@Failure	400		{object}	ErrorResponse
//	@Router		/users/{userID}/recommendations [get]
func (h *RecommendationHandler) personalized(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 10)
	if err != nil {
		WriteError(w, err)
		return
	}

	items, err := h.recUsecase.Personalized(r.Context(), chi.URLParam(r, "userID"), limit)
	if err != nil {
		h.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, items)
}

// trending
//
//	@Summary	Популярное за неделю
//	@Tags		recommendations
//	@Produce	json
//	@Param		limit	query		int	false	"Размер выдачи"
//	@Success	200		{array}		usecase.RecommendationItem
//	@Failure	400		{object}	ErrorResponse
//	@Router		/recommendations/trending [get]
func (h *RecommendationHandler) trending(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 10)
	if err != nil {
		WriteError(w, err)
		return
	}

	items, err := h.recUsecase.Trending(r.Context(), limit)
	if err != nil {
		h.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, items)
}

// comprehensive
//
//	@Summary	Сводная подборка рекомендаций
//	@Tags		recommendations
//	@Produce	json
//	@Param		userID		path		string	true	"ID пользователя"
//	@Param		product_id	query		int		false	"Контекстный товар"
//	@Param		limit		query		int		false	"Размер каждой стратегии"
//	@Success	200			{object}	usecase.RecommendationBundle
//	@Failure	400			{object}	ErrorResponse
//	@Router		/users/{userID}/recommendations/comprehensive [get]
func (h *RecommendationHandler) comprehensive(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 10)
	if err != nil {
		WriteError(w, err)
		return
	}

	productID, err := queryInt64(r, "product_id")
	if err != nil {
		WriteError(w, err)
		return
	}

	bundle, err := h.recUsecase.Comprehensive(r.Context(), chi.URLParam(r, "userID"), productID, limit)
	if err != nil {
		h.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, bundle)
}
