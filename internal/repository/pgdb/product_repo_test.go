package pgdb

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DRSN-tech/marketplace-engine/internal/usecase"
)

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `100\%`, escapeLike("100%"))
	assert.Equal(t, `a\_b`, escapeLike("a_b"))
	assert.Equal(t, `c:\\tmp`, escapeLike(`c:\tmp`))
	assert.Equal(t, "red scarf", escapeLike("red scarf"))
}

func TestSearchConditionsEscapesLikeInput(t *testing.T) {
	where, args := searchConditions("100%", usecase.SearchFilters{})

	require.Len(t, args, 2)
	assert.Equal(t, `100\%`, args[0])
	// tsquery получает исходный запрос, не экранированный
	assert.Equal(t, "100%", args[1])
	assert.Contains(t, where, "ILIKE '%' || $1 || '%'")
	assert.Contains(t, where, "plainto_tsquery('english', $2)")
}

func TestSearchConditionsFilters(t *testing.T) {
	category := "Accessories"
	minPrice := decimal.RequireFromString("10.50")
	maxPrice := decimal.RequireFromString("99.99")

	where, args := searchConditions("scarf", usecase.SearchFilters{
		Category: &category,
		MinPrice: &minPrice,
		MaxPrice: &maxPrice,
	})

	require.Len(t, args, 5)
	assert.Equal(t, "Accessories", args[2])
	assert.Equal(t, int64(1050), args[3])
	assert.Equal(t, int64(9999), args[4])
	assert.Contains(t, where, "cat.name ILIKE $3")
	assert.Contains(t, where, "pr.price >= $4")
	assert.Contains(t, where, "pr.price <= $5")
}

func TestSearchConditionsEmpty(t *testing.T) {
	where, args := searchConditions("   ", usecase.SearchFilters{})

	assert.Equal(t, "TRUE", where)
	assert.Empty(t, args)
}
