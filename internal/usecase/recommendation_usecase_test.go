package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DRSN-tech/marketplace-engine/pkg/e"
)

type fakeSimilarProvider struct {
	results []ScoredProduct
	err     error
}

func (f *fakeSimilarProvider) MoreLikeThis(ctx context.Context, productID int64, limit int) ([]ScoredProduct, error) {
	return f.results, f.err
}

func newRecommendationFixture() (*RecommendationUseCase, *fakeGraphRepo, *fakeProductRepo, *fakeSimilarProvider, *fakeCacheRepo) {
	graphRepo := &fakeGraphRepo{}
	productRepo := newFakeProductRepo()
	similar := &fakeSimilarProvider{}
	cacheRepo := newFakeCacheRepo()
	uc := NewRecommendationUC(graphRepo, productRepo, similar, NewCacheGateway(cacheRepo, nopLogger{}), testCacheCfg(), nopLogger{})

	return uc, graphRepo, productRepo, similar, cacheRepo
}

func TestAlsoBoughtResolvesCatalogRows(t *testing.T) {
	ctx := context.Background()
	uc, graphRepo, productRepo, _, _ := newRecommendationFixture()

	graphRepo.also = []GraphHit{
		{ProductID: 2, Signal: 7},
		{ProductID: 3, Signal: 4},
	}
	productRepo.rows[2] = productRow(2, "Wool Hat", "")
	productRepo.rows[3] = productRow(3, "Mittens", "")

	items, err := uc.AlsoBought(ctx, 1, 10)
	require.NoError(t, err)

	require.Len(t, items, 2)
	assert.Equal(t, int64(2), items[0].ID)
	assert.Equal(t, int64(7), items[0].Signal)
	assert.Equal(t, RecAlsoBought, items[0].Kind)
}

func TestAlsoBoughtDropsUnresolvedHits(t *testing.T) {
	ctx := context.Background()
	uc, graphRepo, productRepo, _, _ := newRecommendationFixture()

	graphRepo.also = []GraphHit{
		{ProductID: 2, Signal: 7},
		{ProductID: 99, Signal: 5}, // удалён из каталога
	}
	productRepo.rows[2] = productRow(2, "Wool Hat", "")

	items, err := uc.AlsoBought(ctx, 1, 10)
	require.NoError(t, err)

	require.Len(t, items, 1)
	assert.Equal(t, int64(2), items[0].ID)
}

func TestAlsoBoughtGraphFailureIsSoft(t *testing.T) {
	ctx := context.Background()
	uc, graphRepo, _, _, _ := newRecommendationFixture()
	graphRepo.err = e.ErrInternalServerError

	items, err := uc.AlsoBought(ctx, 1, 10)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestFrequentlyBoughtTogetherKind(t *testing.T) {
	ctx := context.Background()
	uc, graphRepo, productRepo, _, _ := newRecommendationFixture()

	graphRepo.together = []GraphHit{{ProductID: 2, Signal: 3}}
	productRepo.rows[2] = productRow(2, "Wool Hat", "")

	items, err := uc.FrequentlyBoughtTogether(ctx, 1, 10)
	require.NoError(t, err)

	require.Len(t, items, 1)
	assert.Equal(t, RecBoughtTogether, items[0].Kind)
}

func TestPersonalizedCachesPerUser(t *testing.T) {
	ctx := context.Background()
	uc, graphRepo, productRepo, _, _ := newRecommendationFixture()

	graphRepo.personal = []GraphHit{{ProductID: 2, Signal: 6}}
	productRepo.rows[2] = productRow(2, "Wool Hat", "")

	first, err := uc.Personalized(ctx, "alice", 10)
	require.NoError(t, err)
	require.Len(t, first, 1)

	// граф падает: ответ может прийти только из кэша
	graphRepo.err = e.ErrInternalServerError

	second, err := uc.Personalized(ctx, "alice", 10)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	fresh, err := uc.Personalized(ctx, "bob", 10)
	require.NoError(t, err)
	assert.Empty(t, fresh)
}

func TestTrendingEmptyLimit(t *testing.T) {
	ctx := context.Background()
	uc, _, _, _, _ := newRecommendationFixture()

	items, err := uc.Trending(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestComprehensiveBundleComposition(t *testing.T) {
	ctx := context.Background()
	uc, graphRepo, productRepo, similar, _ := newRecommendationFixture()

	productRepo.rows[2] = productRow(2, "Wool Hat", "")
	productRepo.rows[3] = productRow(3, "Mittens", "")
	graphRepo.personal = []GraphHit{{ProductID: 2, Signal: 6}}
	graphRepo.also = []GraphHit{{ProductID: 3, Signal: 4}}
	graphRepo.together = []GraphHit{{ProductID: 2, Signal: 2}}
	similar.results = []ScoredProduct{{ProductRow: productRepo.rows[3], SimilarityScore: 0.9}}

	bundle, err := uc.Comprehensive(ctx, "alice", 1, 10)
	require.NoError(t, err)

	assert.Len(t, bundle.Personalized, 1)
	assert.Len(t, bundle.SimilarProducts, 1)
	assert.Len(t, bundle.AlsoBought, 1)
	assert.Len(t, bundle.FrequentlyBoughtTogether, 1)
}

func TestComprehensiveWithoutProductContext(t *testing.T) {
	ctx := context.Background()
	uc, graphRepo, productRepo, _, _ := newRecommendationFixture()

	productRepo.rows[2] = productRow(2, "Wool Hat", "")
	graphRepo.personal = []GraphHit{{ProductID: 2, Signal: 6}}

	bundle, err := uc.Comprehensive(ctx, "alice", 0, 10)
	require.NoError(t, err)

	assert.Len(t, bundle.Personalized, 1)
	assert.Empty(t, bundle.SimilarProducts)
	assert.Empty(t, bundle.AlsoBought)
	assert.Empty(t, bundle.FrequentlyBoughtTogether)
}

func TestClearRecommendationCacheAll(t *testing.T) {
	ctx := context.Background()
	uc, graphRepo, productRepo, _, cacheRepo := newRecommendationFixture()

	productRepo.rows[2] = productRow(2, "Wool Hat", "")
	graphRepo.trending = []GraphHit{{ProductID: 2, Signal: 12}}
	graphRepo.personal = []GraphHit{{ProductID: 2, Signal: 6}}

	_, err := uc.Trending(ctx, 10)
	require.NoError(t, err)
	_, err = uc.Personalized(ctx, "alice", 10)
	require.NoError(t, err)
	require.Len(t, cacheRepo.keys(), 2)

	require.NoError(t, uc.ClearRecommendationCache(ctx, "", 0))
	assert.Empty(t, cacheRepo.keys())
}

func TestClearRecommendationCacheTargeted(t *testing.T) {
	ctx := context.Background()
	uc, graphRepo, productRepo, _, cacheRepo := newRecommendationFixture()

	productRepo.rows[2] = productRow(2, "Wool Hat", "")
	graphRepo.personal = []GraphHit{{ProductID: 2, Signal: 6}}
	graphRepo.trending = []GraphHit{{ProductID: 2, Signal: 12}}

	_, err := uc.Personalized(ctx, "alice", 10)
	require.NoError(t, err)
	_, err = uc.Personalized(ctx, "bob", 10)
	require.NoError(t, err)
	_, err = uc.Trending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, cacheRepo.keys(), 3)

	require.NoError(t, uc.ClearRecommendationCache(ctx, "alice", 0))

	remaining := cacheRepo.keys()
	require.Len(t, remaining, 2)
	for _, key := range remaining {
		assert.NotContains(t, key, "personalized:alice:")
	}
}
