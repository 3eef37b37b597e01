package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/DRSN-tech/marketplace-engine/internal/usecase"
	"github.com/DRSN-tech/marketplace-engine/pkg/logger"
)

type SearchHandler struct {
	searchUsecase   usecase.SearchUC
	semanticUsecase usecase.SemanticUC
	logger          logger.Logger
}

func NewSearchHandler(searchUsecase usecase.SearchUC, semanticUsecase usecase.SemanticUC, logger logger.Logger) *SearchHandler {
	return &SearchHandler{searchUsecase: searchUsecase, semanticUsecase: semanticUsecase, logger: logger}
}

// searchProducts
//
//	@Summary		Поиск товаров
//	@Description	Лексический поиск по каталогу с фильтрами и пагинацией
//	@Tags			search
//	@Produce		json
//	@Param			q			query		string	false	"Поисковый запрос"
//	@Param			category	query		string	false	"Категория"
//	@Param			min_price	query		number	false	"Минимальная цена"
//	@Param			max_price	query		number	false	"Максимальная цена"
//	@Param			limit		query		int		false	"Размер страницы"
//	@Param			offset		query		int		false	"Смещение"
//	@Success		200			{object}	usecase.SearchProductsRes
//	@Failure		400			{object}	ErrorResponse
//	@Router			/search [get]
func (h *SearchHandler) searchProducts(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		WriteError(w, err)
		return
	}

	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		WriteError(w, err)
		return
	}

	minPrice, err := queryPrice(r, "min_price")
	if err != nil {
		WriteError(w, err)
		return
	}

	maxPrice, err := queryPrice(r, "max_price")
	if err != nil {
		WriteError(w, err)
		return
	}

	filters := usecase.SearchFilters{
		MinPrice: minPrice,
		MaxPrice: maxPrice,
	}
	if category := r.URL.Query().Get("category"); category != "" {
		filters.Category = &category
	}

	res, err := h.searchUsecase.SearchProducts(r.Context(), usecase.NewSearchProductsReq(r.URL.Query().Get("q"), filters, limit, offset))
	if err != nil {
		h.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, res)
}

// searchByCategory
//
//	@Summary	Товары категории
//	@Tags		search
//	@Produce	json
//	@Param		category	path		string	true	"Название категории"
//	@Param		limit		query		int		false	"Размер выдачи"
//	@Success	200			{array}		usecase.ProductRow
//	@Failure	400			{object}	ErrorResponse
//	@Router		/search/category/{category} [get]
func (h *SearchHandler) searchByCategory(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		WriteError(w, err)
		return
	}

	rows, err := h.searchUsecase.SearchByCategory(r.Context(), chi.URLParam(r, "category"), limit)
	if err != nil {
		h.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, rows)
}

// suggest
//
//	@Summary	Подсказки названий по префиксу
//	@Tags		search
//	@Produce	json
//	@Param		q		query		string	true	"Префикс"
//	@Param		limit	query		int		false	"Размер выдачи"
//	@Success	200		{array}		string
//	@Failure	400		{object}	ErrorResponse
//	@Router		/search/suggestions [get]
func (h *SearchHandler) suggest(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		WriteError(w, err)
		return
	}

	names, err := h.searchUsecase.Suggest(r.Context(), r.URL.Query().Get("q"), limit)
	if err != nil {
		h.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, names)
}

// semanticSearch
//
//	@Summary		Семантический поиск
//	@Description	Поиск по косинусной близости эмбеддинга запроса
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Поисковый запрос"
//	@Param			limit	query		int		false	"Размер выдачи"
//	@Success		200		{array}		usecase.ScoredProduct
//	@Failure		400		{object}	ErrorResponse
//	@Router			/search/semantic [get]
func (h *SearchHandler) semanticSearch(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 10)
	if err != nil {
		WriteError(w, err)
		return
	}

	results, err := h.semanticUsecase.SemanticSearch(r.Context(), r.URL.Query().Get("q"), limit)
	if err != nil {
		h.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, results)
}

// hybridSearch
//
//	@Summary		Гибридный поиск
//	@Description	Слияние семантической и текстовой выдач с весом weight
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Поисковый запрос"
//	@Param			limit	query		int		false	"Размер выдачи"
//	@Param			weight	query		number	false	"Вес семантики, 0..1"
//	@Success		200		{array}		usecase.HybridProduct
//	@Failure		400		{object}	ErrorResponse
//	@Router			/search/hybrid [get]
func (h *SearchHandler) hybridSearch(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 10)
	if err != nil {
		WriteError(w, err)
		return
	}

	weight, err := queryFloat(r, "weight", 0.7)
	if err != nil {
		WriteError(w, err)
		return
	}

	results, err := h.semanticUsecase.HybridSearch(r.Context(), r.URL.Query().Get("q"), limit, weight)
	if err != nil {
		h.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, results)
}

// similarProducts
//
//	@Summary	Похожие товары
//	@Tags		products
//	@Produce	json
//	@Param		id		path		int	true	"ID товара"
//	@Param		limit	query		int	false	"Размер выдачи"
//	@Success	200		{array}		usecase.ScoredProduct
//	@Failure	400		{object}	ErrorResponse
//	@Router		/products/{id}/similar [get]
func (h *SearchHandler) similarProducts(w http.ResponseWriter, r *http.Request) {
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

	results, err := h.semanticUsecase.MoreLikeThis(r.Context(), productID, limit)
	if err != nil {
		h.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, results)
}
