package neo4j

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// Граф покупок содержит только рёбра PURCHASED(date, qty); запрос к любому
// другому типу ребра молча вернёт пустую выдачу.
func TestCypherQueriesMatchPurchaseGraphSchema(t *testing.T) {
	queries := map[string]string{
		"alsoBought":     alsoBoughtCypher,
		"boughtTogether": boughtTogetherCypher,
		"personalized":   personalizedCypher,
		"trending":       trendingCypher,
	}

	for name, cypher := range queries {
		assert.Contains(t, cypher, "PURCHASED", name)
		assert.NotContains(t, cypher, "BOUGHT]", name)
		assert.NotContains(t, cypher, "IN_ORDER", name)
	}
}

func TestTrendingWindowUsesPurchaseDate(t *testing.T) {
	assert.Contains(t, trendingCypher, "purchase.date >=")
	assert.Contains(t, trendingCypher, "duration('P7D')")
}

func TestCoPurchaseQueriesAreSymmetric(t *testing.T) {
	// стратегии различаются кэшем, не формой обхода
	assert.Equal(t, strings.TrimSpace(alsoBoughtCypher), strings.TrimSpace(boughtTogetherCypher))
}
