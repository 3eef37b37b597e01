package usecase

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func productRow(id int64, name, description string, tags ...string) ProductRow {
	return ProductRow{
		ID:          id,
		Name:        name,
		Description: description,
		Price:       decimal.New(1999, -2),
		Stock:       10,
		Tags:        tags,
		SellerID:    "seller-1",
		CreatedAt:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(id) * time.Hour),
	}
}

func TestScoreRelevanceTiers(t *testing.T) {
	query := "red scarf"

	nameMatch := scoreRelevance(query, productRow(1, "Red Scarf", "Warm wool"))
	descMatch := scoreRelevance(query, productRow(2, "Winter Wrap", "A classic red scarf for cold days"))
	tagMatch := scoreRelevance(query, productRow(3, "Neck Warmer", "Fleece tube", "red scarf"))
	noMatch := scoreRelevance(query, productRow(4, "Blue Hat", "Knitted cap"))

	assert.Greater(t, nameMatch, descMatch)
	assert.Greater(t, descMatch, tagMatch)
	assert.Greater(t, tagMatch, noMatch)
	assert.Zero(t, noMatch)
}

func TestScoreRelevanceTokenOverlapIsFractional(t *testing.T) {
	// нет целикового вхождения, но один из двух токенов совпал
	score := scoreRelevance("red scarf", productRow(1, "Scarf Deluxe", "Silky"))

	assert.InDelta(t, 0.5, score, 1e-9)
}

func TestScoreRelevanceEmptyQuery(t *testing.T) {
	assert.Zero(t, scoreRelevance("   ", productRow(1, "Red Scarf", "")))
}

func TestRankProductsOrdersByScoreThenRecency(t *testing.T) {
	older := productRow(1, "Red Scarf", "")
	newer := productRow(2, "Red Scarf", "")
	weak := productRow(3, "Winter Wrap", "Red scarf alternative")

	ranked := rankProducts("red scarf", []ProductRow{weak, older, newer})

	require.Len(t, ranked, 3)
	assert.Equal(t, int64(2), ranked[0].ID)
	assert.Equal(t, int64(1), ranked[1].ID)
	assert.Equal(t, int64(3), ranked[2].ID)
}

func TestPaginate(t *testing.T) {
	ranked := rankProducts("scarf", []ProductRow{
		productRow(1, "Scarf A", ""),
		productRow(2, "Scarf B", ""),
		productRow(3, "Scarf C", ""),
	})

	page := paginate(ranked, 1, 2)
	require.Len(t, page, 2)

	assert.Empty(t, paginate(ranked, 5, 2))
	assert.Len(t, paginate(ranked, 2, 10), 1)
}
