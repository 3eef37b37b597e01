package http

import (
	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	_ "github.com/DRSN-tech/marketplace-engine/docs" // Импорт сгенерированных файлов
	"github.com/DRSN-tech/marketplace-engine/internal/usecase"
	"github.com/DRSN-tech/marketplace-engine/pkg/logger"
)

type Router struct {
	router *chi.Mux
	logger logger.Logger
}

func NewRouter(router *chi.Mux, logger logger.Logger) *Router {
	return &Router{router: router, logger: logger}
}

func (r *Router) Init(searchUC usecase.SearchUC, semanticUC usecase.SemanticUC, recUC usecase.RecommendationUC, cartUC usecase.CartUC) {
	r.router.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("http://localhost:8080/swagger/doc.json"), // ссылка на JSON
	))

	r.router.Route("/api/v1", func(v1 chi.Router) {
		searchHandler := NewSearchHandler(searchUC, semanticUC, r.logger)
		recHandler := NewRecommendationHandler(recUC, r.logger)
		cartHandler := NewCartHandler(cartUC, r.logger)
		cacheHandler := NewCacheHandler(searchUC, semanticUC, recUC, r.logger)

		registerSearchRoutes(v1, searchHandler)
		registerRecommendationRoutes(v1, searchHandler, recHandler)
		registerCartRoutes(v1, cartHandler)
		registerCacheRoutes(v1, cacheHandler)
	})
}

func registerSearchRoutes(router chi.Router, h *SearchHandler) {
	router.Route("/search", func(sr chi.Router) {
		sr.Get("/", h.searchProducts)
		sr.Get("/category/{category}", h.searchByCategory)
		sr.Get("/suggestions", h.suggest)
		sr.Get("/semantic", h.semanticSearch)
		sr.Get("/hybrid", h.hybridSearch)
	})
}

func registerRecommendationRoutes(router chi.Router, sh *SearchHandler, rh *RecommendationHandler) {
	router.Route("/products/{id}", func(pr chi.Router) {
		pr.Get("/similar", sh.similarProducts)
		pr.Get("/also-bought", rh.alsoBought)
		pr.Get("/bought-together", rh.boughtTogether)
	})

	router.Route("/users/{userID}/recommendations", func(ur chi.Router) {
		ur.Get("/", rh.personalized)
		ur.Get("/comprehensive", rh.comprehensive)
	})

	router.Get("/recommendations/trending", rh.trending)
}

func registerCartRoutes(router chi.Router, h *CartHandler) {
	router.Route("/cart/{userID}", func(cr chi.Router) {
		cr.Get("/", h.getCart)
		cr.Delete("/", h.clearCart)
		cr.Get("/expiry", h.cartExpiry)
		cr.Post("/items", h.addItem)
		cr.Put("/items/{productID}", h.updateItem)
		cr.Delete("/items/{productID}", h.removeItem)
		cr.Post("/checkout", h.checkout)
	})
}

func registerCacheRoutes(router chi.Router, h *CacheHandler) {
	router.Route("/cache", func(ch chi.Router) {
		ch.Get("/stats", h.stats)
		ch.Delete("/search", h.clearSearch)
		ch.Delete("/semantic", h.clearSemantic)
		ch.Delete("/recommendations", h.clearRecommendations)
	})
}
