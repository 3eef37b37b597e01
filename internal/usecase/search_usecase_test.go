package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DRSN-tech/marketplace-engine/pkg/e"
)

func newSearchFixture() (*SearchUseCase, *fakeProductRepo, *fakeCacheRepo) {
	productRepo := newFakeProductRepo()
	cacheRepo := newFakeCacheRepo()
	uc := NewSearchUC(productRepo, NewCacheGateway(cacheRepo, nopLogger{}), testCacheCfg(), nopLogger{})

	return uc, productRepo, cacheRepo
}

func TestSearchProductsRanksNameAboveTag(t *testing.T) {
	ctx := context.Background()
	uc, productRepo, _ := newSearchFixture()

	tagged := productRow(1, "Neck Warmer", "Fleece tube", "red scarf")
	named := productRow(2, "Red Scarf", "Warm wool")
	productRepo.candidates = []ProductRow{tagged, named}
	productRepo.total = 2

	res, err := uc.SearchProducts(ctx, NewSearchProductsReq("red scarf", SearchFilters{}, 0, 0))
	require.NoError(t, err)

	require.Len(t, res.Products, 2)
	assert.Equal(t, int64(2), res.Products[0].ID)
	assert.Equal(t, int64(1), res.Products[1].ID)
	assert.Equal(t, int64(2), res.TotalCount)
	assert.Equal(t, defaultSearchLimit, res.Limit)
	assert.False(t, res.CacheHit)
}

func TestSearchProductsPagination(t *testing.T) {
	ctx := context.Background()
	uc, productRepo, _ := newSearchFixture()

	productRepo.candidates = []ProductRow{
		productRow(1, "Scarf A", ""),
		productRow(2, "Scarf B", ""),
		productRow(3, "Scarf C", ""),
	}
	productRepo.total = 3

	res, err := uc.SearchProducts(ctx, NewSearchProductsReq("scarf", SearchFilters{}, 2, 2))
	require.NoError(t, err)

	require.Len(t, res.Products, 1)
	assert.Equal(t, int64(3), res.TotalCount)
	assert.Equal(t, 2, res.Offset)
}

func TestSearchProductsInvalidPage(t *testing.T) {
	ctx := context.Background()
	uc, _, _ := newSearchFixture()

	_, err := uc.SearchProducts(ctx, NewSearchProductsReq("scarf", SearchFilters{}, -1, 0))
	require.ErrorIs(t, err, e.ErrInvalidPage)

	_, err = uc.SearchProducts(ctx, NewSearchProductsReq("scarf", SearchFilters{}, 0, -1))
	require.ErrorIs(t, err, e.ErrInvalidPage)
}

func TestSearchProductsCapsLimit(t *testing.T) {
	ctx := context.Background()
	uc, productRepo, _ := newSearchFixture()
	productRepo.total = 0

	res, err := uc.SearchProducts(ctx, NewSearchProductsReq("scarf", SearchFilters{}, maxSearchLimit+50, 0))
	require.NoError(t, err)

	assert.Equal(t, maxSearchLimit, res.Limit)
}

func TestSearchProductsSecondCallHitsCache(t *testing.T) {
	ctx := context.Background()
	uc, productRepo, _ := newSearchFixture()

	productRepo.candidates = []ProductRow{productRow(1, "Red Scarf", "")}
	productRepo.total = 1

	first, err := uc.SearchProducts(ctx, NewSearchProductsReq("scarf", SearchFilters{}, 0, 0))
	require.NoError(t, err)
	require.False(t, first.CacheHit)

	// репозиторий падает: ответ теперь может прийти только из кэша
	productRepo.searchErr = e.ErrInternalServerError

	second, err := uc.SearchProducts(ctx, NewSearchProductsReq("scarf", SearchFilters{}, 0, 0))
	require.NoError(t, err)
	assert.True(t, second.CacheHit)
	require.Len(t, second.Products, 1)
	assert.Equal(t, int64(1), second.Products[0].ID)
	assert.InDelta(t, 0.5, second.CacheHitRate, 1e-9)
}

func TestSearchProductsFailClosed(t *testing.T) {
	ctx := context.Background()
	uc, productRepo, _ := newSearchFixture()
	productRepo.searchErr = e.ErrInternalServerError

	_, err := uc.SearchProducts(ctx, NewSearchProductsReq("scarf", SearchFilters{}, 0, 0))
	require.ErrorIs(t, err, e.ErrInternalServerError)
}

func TestSearchByCategoryCachesResult(t *testing.T) {
	ctx := context.Background()
	uc, productRepo, _ := newSearchFixture()
	productRepo.byCategory = []ProductRow{productRow(1, "Red Scarf", "")}

	first, err := uc.SearchByCategory(ctx, "Accessories", 10)
	require.NoError(t, err)
	require.Len(t, first, 1)

	productRepo.searchErr = e.ErrInternalServerError

	second, err := uc.SearchByCategory(ctx, "Accessories", 10)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestSearchByCategoryEmptyName(t *testing.T) {
	ctx := context.Background()
	uc, _, _ := newSearchFixture()

	rows, err := uc.SearchByCategory(ctx, "  ", 10)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestSuggestEmptyPrefix(t *testing.T) {
	ctx := context.Background()
	uc, _, _ := newSearchFixture()

	names, err := uc.Suggest(ctx, "", 10)
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestSuggestCachesResult(t *testing.T) {
	ctx := context.Background()
	uc, productRepo, _ := newSearchFixture()
	productRepo.names = []string{"Red Scarf", "Red Shoes"}

	first, err := uc.Suggest(ctx, "Red", 10)
	require.NoError(t, err)
	require.Equal(t, []string{"Red Scarf", "Red Shoes"}, first)

	productRepo.searchErr = e.ErrInternalServerError

	second, err := uc.Suggest(ctx, "Red", 10)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestClearSearchCacheDropsAllSearchFamilies(t *testing.T) {
	ctx := context.Background()
	uc, productRepo, cacheRepo := newSearchFixture()
	productRepo.names = []string{"Red Scarf"}
	productRepo.byCategory = []ProductRow{productRow(1, "Red Scarf", "")}

	_, err := uc.SearchProducts(ctx, NewSearchProductsReq("scarf", SearchFilters{}, 0, 0))
	require.NoError(t, err)
	_, err = uc.SearchByCategory(ctx, "Accessories", 10)
	require.NoError(t, err)
	_, err = uc.Suggest(ctx, "Red", 10)
	require.NoError(t, err)
	require.Len(t, cacheRepo.keys(), 3)

	require.NoError(t, uc.ClearSearchCache(ctx))
	assert.Empty(t, cacheRepo.keys())
}
