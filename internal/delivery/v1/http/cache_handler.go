package http

import (
	"net/http"

	"github.com/DRSN-tech/marketplace-engine/internal/usecase"
	"github.com/DRSN-tech/marketplace-engine/pkg/logger"
)

// CacheHandler — административные операции над кэшем компонентов.
type CacheHandler struct {
	searchUsecase   usecase.SearchUC
	semanticUsecase usecase.SemanticUC
	recUsecase      usecase.RecommendationUC
	logger          logger.Logger
}

func NewCacheHandler(searchUsecase usecase.SearchUC, semanticUsecase usecase.SemanticUC, recUsecase usecase.RecommendationUC, logger logger.Logger) *CacheHandler {
	return &CacheHandler{
		searchUsecase:   searchUsecase,
		semanticUsecase: semanticUsecase,
		recUsecase:      recUsecase,
		logger:          logger,
	}
}

// stats
//
//	@Summary	Счётчики попаданий кэша по компонентам
//	@Tags		cache
//	@Produce	json
//	@Success	200	{object}	map[string]usecase.CacheStats
//	@Router		/cache/stats [get]
func (h *CacheHandler) stats(w http.ResponseWriter, r *http.Request) {
	WriteSuccess(w, http.StatusOK, map[string]usecase.CacheStats{
		"search":          h.searchUsecase.CacheStats(),
		"semantic":        h.semanticUsecase.CacheStats(),
		"recommendations": h.recUsecase.CacheStats(),
	})
}

// clearSearch
//
//	@Summary	Инвалидация кэша лексического поиска
//	@Tags		cache
//	@Produce	json
//	@Success	200	{object}	map[string]bool
//	@Router		/cache/search [delete]
func (h *CacheHandler) clearSearch(w http.ResponseWriter, r *http.Request) {
	if err := h.searchUsecase.ClearSearchCache(r.Context()); err != nil {
		h.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, map[string]bool{"cleared": true})
}

// clearSemantic
//
//	@Summary	Инвалидация кэша векторного поиска
//	@Tags		cache
//	@Produce	json
//	@Success	200	{object}	map[string]bool
//	@Router		/cache/semantic [delete]
func (h *CacheHandler) clearSemantic(w http.ResponseWriter, r *http.Request) {
	if err := h.semanticUsecase.ClearSemanticCache(r.Context()); err != nil {
		h.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, map[string]bool{"cleared": true})
}

// clearRecommendations
//
//	@Summary	Инвалидация кэша рекомендаций
//	@Tags		cache
//	@Produce	json
//	@Param		user_id		query		string	false	"Только для пользователя"
//	@Param		product_id	query		int		false	"Только для товара"
//	@Success	200			{object}	map[string]bool
//	@Router		/cache/recommendations [delete]
func (h *CacheHandler) clearRecommendations(w http.ResponseWriter, r *http.Request) {
	productID, err := queryInt64(r, "product_id")
	if err != nil {
		WriteError(w, err)
		return
	}

	if err := h.recUsecase.ClearRecommendationCache(r.Context(), r.URL.Query().Get("user_id"), productID); err != nil {
		h.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, map[string]bool{"cleared": true})
}
