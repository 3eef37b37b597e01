package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DRSN-tech/marketplace-engine/pkg/e"
)

func newSemanticFixture() (*SemanticUseCase, *fakeEmbedder, *fakeEmbeddingIndex, *fakeProductRepo) {
	embedder := &fakeEmbedder{vector: []float32{0.1, 0.2, 0.3}}
	index := &fakeEmbeddingIndex{}
	productRepo := newFakeProductRepo()
	uc := NewSemanticUC(embedder, index, productRepo, NewCacheGateway(newFakeCacheRepo(), nopLogger{}), testCacheCfg(), nopLogger{})

	return uc, embedder, index, productRepo
}

func TestSemanticSearchResolvesHits(t *testing.T) {
	ctx := context.Background()
	uc, _, index, productRepo := newSemanticFixture()

	index.hits = []ScoredID{
		{ProductID: 1, Score: 0.95},
		{ProductID: 2, Score: 0.80},
	}
	productRepo.rows[1] = productRow(1, "Red Scarf", "")
	productRepo.rows[2] = productRow(2, "Wool Hat", "")

	results, err := uc.SemanticSearch(ctx, "warm clothes", 10)
	require.NoError(t, err)

	require.Len(t, results, 2)
	assert.Equal(t, int64(1), results[0].ID)
	assert.InDelta(t, 0.95, results[0].SimilarityScore, 1e-9)
}

func TestSemanticSearchDropsOutOfStockAndUnknown(t *testing.T) {
	ctx := context.Background()
	uc, _, index, productRepo := newSemanticFixture()

	outOfStock := productRow(1, "Red Scarf", "")
	outOfStock.Stock = 0
	productRepo.rows[1] = outOfStock
	productRepo.rows[3] = productRow(3, "Wool Hat", "")

	index.hits = []ScoredID{
		{ProductID: 1, Score: 0.95},
		{ProductID: 2, Score: 0.90}, // нет в каталоге
		{ProductID: 3, Score: 0.85},
	}

	results, err := uc.SemanticSearch(ctx, "warm clothes", 10)
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, int64(3), results[0].ID)
}

func TestSemanticSearchEmbedderFailureIsSoft(t *testing.T) {
	ctx := context.Background()
	uc, embedder, _, _ := newSemanticFixture()
	embedder.err = e.ErrInternalServerError

	results, err := uc.SemanticSearch(ctx, "warm clothes", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSemanticSearchIndexFailureIsSoft(t *testing.T) {
	ctx := context.Background()
	uc, _, index, _ := newSemanticFixture()
	index.queryErr = e.ErrInternalServerError

	results, err := uc.SemanticSearch(ctx, "warm clothes", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSemanticSearchBlankQuery(t *testing.T) {
	ctx := context.Background()
	uc, _, _, _ := newSemanticFixture()

	results, err := uc.SemanticSearch(ctx, "  ", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestMoreLikeThisExcludesSourceProduct(t *testing.T) {
	ctx := context.Background()
	uc, _, index, productRepo := newSemanticFixture()

	index.vectors = map[int64][]float32{1: {0.1, 0.2, 0.3}}
	index.hits = []ScoredID{
		{ProductID: 1, Score: 1.0},
		{ProductID: 2, Score: 0.9},
	}
	productRepo.rows[1] = productRow(1, "Red Scarf", "")
	productRepo.rows[2] = productRow(2, "Crimson Scarf", "")

	results, err := uc.MoreLikeThis(ctx, 1, 10)
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, int64(2), results[0].ID)
}

func TestMoreLikeThisNoEmbedding(t *testing.T) {
	ctx := context.Background()
	uc, _, _, _ := newSemanticFixture()

	results, err := uc.MoreLikeThis(ctx, 42, 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestHybridSearchInvalidWeight(t *testing.T) {
	ctx := context.Background()
	uc, _, _, _ := newSemanticFixture()

	_, err := uc.HybridSearch(ctx, "scarf", 10, 1.5)
	require.ErrorIs(t, err, e.ErrInvalidWeight)

	_, err = uc.HybridSearch(ctx, "scarf", 10, -0.1)
	require.ErrorIs(t, err, e.ErrInvalidWeight)
}

func TestHybridSearchFusesBothBranches(t *testing.T) {
	ctx := context.Background()
	uc, _, index, productRepo := newSemanticFixture()

	productRepo.rows[1] = productRow(1, "Red Scarf", "")
	productRepo.rows[2] = productRow(2, "Wool Hat", "")
	index.hits = []ScoredID{{ProductID: 1, Score: 0.8}}
	productRepo.textRows = []TextRankRow{
		{ProductRow: productRepo.rows[1], TextRank: 0.6},
		{ProductRow: productRepo.rows[2], TextRank: 0.9},
	}

	results, err := uc.HybridSearch(ctx, "scarf", 10, 0.7)
	require.NoError(t, err)

	require.Len(t, results, 2)
	// товар 1: 0.8*0.7 + 0.6*0.3 = 0.74; товар 2: 0.9*0.3 = 0.27
	assert.Equal(t, int64(1), results[0].ID)
	assert.InDelta(t, 0.74, results[0].HybridScore, 1e-9)
	assert.InDelta(t, 0.8, results[0].SemanticScore, 1e-9)
	assert.InDelta(t, 0.6, results[0].TextScore, 1e-9)

	assert.Equal(t, int64(2), results[1].ID)
	assert.InDelta(t, 0.27, results[1].HybridScore, 1e-9)
	assert.Zero(t, results[1].SemanticScore)
}

func TestHybridSearchSemanticFailureEmptiesWholeResult(t *testing.T) {
	ctx := context.Background()
	uc, embedder, _, productRepo := newSemanticFixture()

	// текстовая ветвь жива, но сбой семантической обязан опустошить
	// весь гибридный результат, а не выдать текстовый под видом гибридного
	productRepo.rows[1] = productRow(1, "Red Scarf", "")
	productRepo.textRows = []TextRankRow{{ProductRow: productRepo.rows[1], TextRank: 0.9}}
	embedder.err = e.ErrInternalServerError

	results, err := uc.HybridSearch(ctx, "scarf", 10, 0.7)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestHybridSearchIndexFailureEmptiesWholeResult(t *testing.T) {
	ctx := context.Background()
	uc, _, index, productRepo := newSemanticFixture()

	productRepo.rows[1] = productRow(1, "Red Scarf", "")
	productRepo.textRows = []TextRankRow{{ProductRow: productRepo.rows[1], TextRank: 0.9}}
	index.queryErr = e.ErrInternalServerError

	results, err := uc.HybridSearch(ctx, "scarf", 10, 0.7)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestHybridSearchTextFailureIsSoft(t *testing.T) {
	ctx := context.Background()
	uc, _, index, productRepo := newSemanticFixture()

	productRepo.rows[1] = productRow(1, "Red Scarf", "")
	index.hits = []ScoredID{{ProductID: 1, Score: 0.8}}
	productRepo.textErr = e.ErrInternalServerError

	results, err := uc.HybridSearch(ctx, "scarf", 10, 0.7)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestFuseHybridMissingSideContributesZero(t *testing.T) {
	semantic := []ScoredProduct{{ProductRow: productRow(1, "Red Scarf", ""), SimilarityScore: 0.5}}

	merged := fuseHybrid(semantic, nil, 0.6)

	require.Len(t, merged, 1)
	assert.InDelta(t, 0.3, merged[0].HybridScore, 1e-9)
	assert.Zero(t, merged[0].TextScore)
}

func TestClearSemanticCacheDropsFamilies(t *testing.T) {
	ctx := context.Background()
	cacheRepo := newFakeCacheRepo()
	productRepo := newFakeProductRepo()
	index := &fakeEmbeddingIndex{hits: []ScoredID{{ProductID: 1, Score: 0.9}}}
	productRepo.rows[1] = productRow(1, "Red Scarf", "")
	uc := NewSemanticUC(&fakeEmbedder{vector: []float32{0.1}}, index, productRepo, NewCacheGateway(cacheRepo, nopLogger{}), testCacheCfg(), nopLogger{})

	_, err := uc.SemanticSearch(ctx, "scarf", 10)
	require.NoError(t, err)
	require.NotEmpty(t, cacheRepo.keys())

	require.NoError(t, uc.ClearSemanticCache(ctx))
	assert.Empty(t, cacheRepo.keys())
}
